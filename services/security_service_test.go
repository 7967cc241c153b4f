package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jrg-backend/shared/database/models"
	"jrg-backend/shared/utils/cache"
)

// fakeStore is an in-memory stand-in for the Redis cache. Window counters
// expire like the real PEXPIRE-backed ones so reset behavior is observable.
type fakeStore struct {
	values    map[string]string
	counts    map[string]int64
	deadlines map[string]time.Time
	incrErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		values:    make(map[string]string),
		counts:    make(map[string]int64),
		deadlines: make(map[string]time.Time),
	}
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return value, nil
}

func (f *fakeStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.values[key] = value
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	delete(f.values, key)
	return nil
}

func (f *fakeStore) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	if deadline, ok := f.deadlines[key]; ok && time.Now().After(deadline) {
		delete(f.counts, key)
		delete(f.deadlines, key)
	}
	f.counts[key]++
	if f.counts[key] == 1 {
		f.deadlines[key] = time.Now().Add(window)
	}
	return f.counts[key], nil
}

// recordingLogger captures security activity writes.
type recordingLogger struct {
	events []string
}

func (r *recordingLogger) LogSecurity(activityType, formID, ip, userAgent string, metadata models.JSONMap) {
	r.events = append(r.events, activityType)
}

// fakeVerifier accepts or rejects every token.
type fakeVerifier struct {
	err error
}

func (f *fakeVerifier) Verify(ctx context.Context, token, action, ip string) error {
	return f.err
}

func newTestSecurityService(store cache.Store, verifier RecaptchaVerifier, logger *recordingLogger) *SecurityService {
	return NewSecurityService(store, verifier, logger, time.Hour, 30, time.Minute)
}

// passingSubmission returns a submission that clears every check against
// the given store (a CSRF token is pre-seeded for the session).
func passingSubmission(t *testing.T, svc *SecurityService, formID string) Submission {
	t.Helper()
	token, err := svc.IssueCSRFToken(context.Background(), "session-1")
	require.NoError(t, err)
	return Submission{
		FormID:    formID,
		SessionID: "session-1",
		IP:        "203.0.113.9",
		UserAgent: "test-agent",
		Fields: map[string]string{
			"csrf_token": token,
			"message":    "hello there",
		},
	}
}

func TestInspect_CleanSubmissionPasses(t *testing.T) {
	logger := &recordingLogger{}
	svc := newTestSecurityService(newFakeStore(), nil, logger)

	violation := svc.Inspect(context.Background(), passingSubmission(t, svc, "contact"), GateOptions{})
	assert.Nil(t, violation)
	assert.Empty(t, logger.events)
}

func TestInspect_HoneypotTripsFirst(t *testing.T) {
	logger := &recordingLogger{}
	svc := newTestSecurityService(newFakeStore(), nil, logger)

	// No CSRF token either, but the honeypot must win.
	sub := Submission{
		FormID: "contact",
		IP:     "203.0.113.9",
		Fields: map[string]string{"website": "http://spam.example"},
	}

	violation := svc.Inspect(context.Background(), sub, GateOptions{})
	require.NotNil(t, violation)
	assert.Equal(t, models.ActivitySecurityHoneypot, violation.ActivityType)
	assert.Equal(t, http.StatusBadRequest, violation.Status)
	assert.Equal(t, []string{models.ActivitySecurityHoneypot}, logger.events)
}

func TestInspect_CSRF(t *testing.T) {
	cases := []struct {
		name      string
		sessionID string
		token     string
	}{
		{"missing token", "session-1", ""},
		{"wrong token", "session-1", "forged-value"},
		{"no session", "", "anything"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logger := &recordingLogger{}
			svc := newTestSecurityService(newFakeStore(), nil, logger)
			_, err := svc.IssueCSRFToken(context.Background(), "session-1")
			require.NoError(t, err)

			sub := Submission{
				FormID:    "contact",
				SessionID: tc.sessionID,
				IP:        "203.0.113.9",
				Fields:    map[string]string{"csrf_token": tc.token},
			}

			violation := svc.Inspect(context.Background(), sub, GateOptions{})
			require.NotNil(t, violation)
			assert.Equal(t, models.ActivitySecurityCSRF, violation.ActivityType)
		})
	}
}

func TestInspect_RateLimitBoundary(t *testing.T) {
	logger := &recordingLogger{}
	svc := newTestSecurityService(newFakeStore(), nil, logger)
	sub := passingSubmission(t, svc, "login")

	// The full budget is allowed.
	for i := 0; i < 30; i++ {
		violation := svc.Inspect(context.Background(), sub, GateOptions{})
		require.Nil(t, violation, "request %d should pass", i+1)
	}

	// One past the budget is rejected with 429.
	violation := svc.Inspect(context.Background(), sub, GateOptions{})
	require.NotNil(t, violation)
	assert.Equal(t, models.ActivitySecurityRateLimit, violation.ActivityType)
	assert.Equal(t, http.StatusTooManyRequests, violation.Status)
}

func TestInspect_RateLimitIsPerIP(t *testing.T) {
	store := newFakeStore()
	svc := newTestSecurityService(store, nil, &recordingLogger{})
	sub := passingSubmission(t, svc, "login")

	for i := 0; i < 30; i++ {
		require.Nil(t, svc.Inspect(context.Background(), sub, GateOptions{}))
	}
	require.NotNil(t, svc.Inspect(context.Background(), sub, GateOptions{}))

	// A different address still has its full budget.
	other := sub
	other.IP = "198.51.100.4"
	assert.Nil(t, svc.Inspect(context.Background(), other, GateOptions{}))
}

func TestInspect_RateLimitWindowResets(t *testing.T) {
	svc := NewSecurityService(newFakeStore(), nil, &recordingLogger{}, time.Hour, 2, 20*time.Millisecond)
	sub := passingSubmission(t, svc, "login")

	require.Nil(t, svc.Inspect(context.Background(), sub, GateOptions{}))
	require.Nil(t, svc.Inspect(context.Background(), sub, GateOptions{}))
	require.NotNil(t, svc.Inspect(context.Background(), sub, GateOptions{}))

	time.Sleep(30 * time.Millisecond)
	assert.Nil(t, svc.Inspect(context.Background(), sub, GateOptions{}))
}

func TestInspect_CounterOutageFailsOpen(t *testing.T) {
	store := newFakeStore()
	store.incrErr = errors.New("redis down")
	svc := newTestSecurityService(store, nil, &recordingLogger{})

	violation := svc.Inspect(context.Background(), passingSubmission(t, svc, "contact"), GateOptions{})
	assert.Nil(t, violation)
}

func TestInspect_Recaptcha(t *testing.T) {
	logger := &recordingLogger{}
	svc := newTestSecurityService(newFakeStore(), &fakeVerifier{err: ErrRecaptchaRejected}, logger)

	violation := svc.Inspect(context.Background(), passingSubmission(t, svc, "login"), GateOptions{Recaptcha: true, RecaptchaAction: "login"})
	require.NotNil(t, violation)
	assert.Equal(t, models.ActivitySecurityRecaptcha, violation.ActivityType)

	// With Recaptcha disabled for the form the same verifier never runs.
	svc2 := newTestSecurityService(newFakeStore(), &fakeVerifier{err: ErrRecaptchaRejected}, &recordingLogger{})
	assert.Nil(t, svc2.Inspect(context.Background(), passingSubmission(t, svc2, "login"), GateOptions{}))
}

func TestInspect_Timestamp(t *testing.T) {
	svc := newTestSecurityService(newFakeStore(), nil, &recordingLogger{})

	fresh := passingSubmission(t, svc, "contact")
	fresh.Fields["timestamp"] = strconv.FormatInt(time.Now().UnixMilli(), 10)
	assert.Nil(t, svc.Inspect(context.Background(), fresh, GateOptions{}))

	stale := passingSubmission(t, svc, "contact")
	stale.Fields["timestamp"] = strconv.FormatInt(time.Now().Add(-10*time.Minute).UnixMilli(), 10)
	violation := svc.Inspect(context.Background(), stale, GateOptions{})
	require.NotNil(t, violation)
	assert.Equal(t, models.ActivitySecuritySuspicious, violation.ActivityType)

	future := passingSubmission(t, svc, "contact")
	future.Fields["timestamp"] = strconv.FormatInt(time.Now().Add(10*time.Minute).UnixMilli(), 10)
	assert.NotNil(t, svc.Inspect(context.Background(), future, GateOptions{}))
}

func TestSanitizeAndValidate_Spam(t *testing.T) {
	spamMessages := []string{
		"cheap viagra here",
		"visit my CASINO now",
		"[url=http://x.example]click[/url]",
		`<a href="http://x.example">click</a>`,
		"connect to 192.168.1.1 now",
	}

	for i, message := range spamMessages {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			logger := &recordingLogger{}
			svc := newTestSecurityService(newFakeStore(), nil, logger)

			sub := Submission{
				FormID: "contact",
				IP:     "203.0.113.9",
				Fields: map[string]string{"message": message},
			}

			_, violation := svc.SanitizeAndValidate(sub)
			require.NotNil(t, violation, "message %q should be rejected", message)
			assert.Equal(t, models.ActivitySecuritySpam, violation.ActivityType)
			assert.Equal(t, []string{models.ActivitySecuritySpam}, logger.events)
		})
	}
}

func TestSanitizeAndValidate_EscapesContent(t *testing.T) {
	svc := newTestSecurityService(newFakeStore(), nil, &recordingLogger{})

	sub := Submission{
		FormID: "contact",
		Fields: map[string]string{
			"name":       "Alice <script>alert(1)</script>",
			"csrf_token": "<keep-as-is>",
		},
	}

	clean, violation := svc.SanitizeAndValidate(sub)
	require.Nil(t, violation)
	assert.NotContains(t, clean["name"], "<script>")
	assert.Contains(t, clean["name"], "&lt;script&gt;")
	// Meta fields are protocol values, never escaped.
	assert.Equal(t, "<keep-as-is>", clean["csrf_token"])
}

func TestSanitizeAndValidate_StripsControlChars(t *testing.T) {
	svc := newTestSecurityService(newFakeStore(), nil, &recordingLogger{})

	sub := Submission{
		FormID: "contact",
		Fields: map[string]string{"name": "Ali\x00ce\x1b"},
	}

	clean, violation := svc.SanitizeAndValidate(sub)
	require.Nil(t, violation)
	assert.Equal(t, "Alice", clean["name"])
}

func TestIssueCSRFToken_ReplacesPrevious(t *testing.T) {
	store := newFakeStore()
	svc := newTestSecurityService(store, nil, &recordingLogger{})

	first, err := svc.IssueCSRFToken(context.Background(), "session-1")
	require.NoError(t, err)
	second, err := svc.IssueCSRFToken(context.Background(), "session-1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, second, store.values["csrf_session-1"])
}
