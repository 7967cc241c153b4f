package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"html"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"jrg-backend/shared/database/models"
	utils "jrg-backend/shared/utils/auth"
	"jrg-backend/shared/utils/cache"
)

// Decoy form fields. Humans never see them, bots autofill them.
var honeypotFields = []string{"website", "url", "email_confirm"}

// Meta fields pass through sanitization untouched, they carry protocol
// values rather than user content.
var metaFields = map[string]bool{
	"csrf_token":      true,
	"timestamp":       true,
	"recaptcha_token": true,
	"form_id":         true,
}

var (
	spamWordPattern   = regexp.MustCompile(`(?i)\b(viagra|casino|porn|xxx)\b`)
	spamBBCodePattern = regexp.MustCompile(`(?i)\[url=`)
	spamAnchorPattern = regexp.MustCompile(`(?i)<a\s+href`)
	spamIPPattern     = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	controlCharRegex  = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
)

const timestampTolerance = 5 * time.Minute

// SecurityLogger receives security rejection events.
type SecurityLogger interface {
	LogSecurity(activityType, formID, ip, userAgent string, metadata models.JSONMap)
}

// Violation describes a rejected submission: the activity type it is
// recorded under and the response the client gets.
type Violation struct {
	ActivityType string
	Status       int
	Message      string
}

// GateOptions selects which optional checks run for a given form.
type GateOptions struct {
	Recaptcha       bool
	RecaptchaAction string
}

// Submission is one form request as seen by the abuse checks.
type Submission struct {
	FormID    string
	SessionID string
	IP        string
	UserAgent string
	Fields    map[string]string
}

// SecurityService runs the layered abuse checks that guard public form
// endpoints: honeypot, CSRF, rate limit, reCAPTCHA and timestamp freshness,
// in that order, cheapest first.
type SecurityService struct {
	store      cache.Store
	recaptcha  RecaptchaVerifier
	activities SecurityLogger

	csrfTTL         time.Duration
	rateLimitMax    int64
	rateLimitWindow time.Duration
}

func NewSecurityService(store cache.Store, recaptcha RecaptchaVerifier, activities SecurityLogger, csrfTTL time.Duration, rateLimitMax int64, rateLimitWindow time.Duration) *SecurityService {
	return &SecurityService{
		store:           store,
		recaptcha:       recaptcha,
		activities:      activities,
		csrfTTL:         csrfTTL,
		rateLimitMax:    rateLimitMax,
		rateLimitWindow: rateLimitWindow,
	}
}

// IssueCSRFToken creates a fresh token bound to the session and stores it
// under a TTL. Re-issuing replaces the previous token.
func (s *SecurityService) IssueCSRFToken(ctx context.Context, sessionID string) (string, error) {
	token, err := utils.GenerateRandomToken(32)
	if err != nil {
		return "", err
	}
	if err := s.store.Set(ctx, csrfKey(sessionID), token, s.csrfTTL); err != nil {
		return "", err
	}
	return token, nil
}

// Inspect runs the checks against a submission. A nil return means the
// request may proceed. Each rejection is logged as a security activity
// before returning; a failed activity write never blocks the rejection.
func (s *SecurityService) Inspect(ctx context.Context, sub Submission, opts GateOptions) *Violation {
	if v := s.checkHoneypot(sub); v != nil {
		s.record(v, sub)
		return v
	}
	if v := s.checkCSRF(ctx, sub); v != nil {
		s.record(v, sub)
		return v
	}
	if v := s.checkRateLimit(ctx, sub); v != nil {
		s.record(v, sub)
		return v
	}
	if opts.Recaptcha {
		if v := s.checkRecaptcha(ctx, sub, opts.RecaptchaAction); v != nil {
			s.record(v, sub)
			return v
		}
	}
	if v := s.checkTimestamp(sub); v != nil {
		s.record(v, sub)
		return v
	}
	return nil
}

func (s *SecurityService) record(v *Violation, sub Submission) {
	s.activities.LogSecurity(v.ActivityType, sub.FormID, sub.IP, sub.UserAgent, nil)
}

func (s *SecurityService) checkHoneypot(sub Submission) *Violation {
	for _, field := range honeypotFields {
		if strings.TrimSpace(sub.Fields[field]) != "" {
			return &Violation{
				ActivityType: models.ActivitySecurityHoneypot,
				Status:       http.StatusBadRequest,
				Message:      "Invalid request",
			}
		}
	}
	return nil
}

func (s *SecurityService) checkCSRF(ctx context.Context, sub Submission) *Violation {
	reject := &Violation{
		ActivityType: models.ActivitySecurityCSRF,
		Status:       http.StatusBadRequest,
		Message:      "Invalid or missing CSRF token",
	}

	presented := sub.Fields["csrf_token"]
	if sub.SessionID == "" || presented == "" {
		return reject
	}

	stored, err := s.store.Get(ctx, csrfKey(sub.SessionID))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("❌ CSRF token lookup failed: %v", err)
		}
		return reject
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		return reject
	}
	return nil
}

func (s *SecurityService) checkRateLimit(ctx context.Context, sub Submission) *Violation {
	key := fmt.Sprintf("rate_limit_%s_%s", sub.FormID, sub.IP)
	count, err := s.store.IncrementWindow(ctx, key, s.rateLimitWindow)
	if err != nil {
		// A broken counter store should not take the public forms down
		// with it. Log and let the remaining checks decide.
		log.Printf("❌ Rate limit counter failed: %v", err)
		return nil
	}
	if count > s.rateLimitMax {
		return &Violation{
			ActivityType: models.ActivitySecurityRateLimit,
			Status:       http.StatusTooManyRequests,
			Message:      "Too many requests. Please try again later.",
		}
	}
	return nil
}

func (s *SecurityService) checkRecaptcha(ctx context.Context, sub Submission, action string) *Violation {
	if s.recaptcha == nil {
		return nil
	}
	if err := s.recaptcha.Verify(ctx, sub.Fields["recaptcha_token"], action, sub.IP); err != nil {
		return &Violation{
			ActivityType: models.ActivitySecurityRecaptcha,
			Status:       http.StatusBadRequest,
			Message:      "Verification failed",
		}
	}
	return nil
}

// checkTimestamp rejects forms submitted with a stale or future client
// timestamp (unix milliseconds). The field is optional.
func (s *SecurityService) checkTimestamp(sub Submission) *Violation {
	raw := sub.Fields["timestamp"]
	if raw == "" {
		return nil
	}

	reject := &Violation{
		ActivityType: models.ActivitySecuritySuspicious,
		Status:       http.StatusBadRequest,
		Message:      "Invalid request",
	}

	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return reject
	}
	submitted := time.UnixMilli(millis)
	drift := time.Since(submitted)
	if drift > timestampTolerance || drift < -timestampTolerance {
		return reject
	}
	return nil
}

// SanitizeAndValidate strips control characters, rejects content matching
// the spam denylist and HTML-escapes every content field. Meta fields pass
// through unchanged.
func (s *SecurityService) SanitizeAndValidate(sub Submission) (map[string]string, *Violation) {
	clean := make(map[string]string, len(sub.Fields))
	for key, value := range sub.Fields {
		if metaFields[key] {
			clean[key] = value
			continue
		}

		value = controlCharRegex.ReplaceAllString(value, "")
		if isSpam(value) {
			v := &Violation{
				ActivityType: models.ActivitySecuritySpam,
				Status:       http.StatusBadRequest,
				Message:      "Your message could not be processed",
			}
			s.record(v, sub)
			return nil, v
		}
		clean[key] = html.EscapeString(strings.TrimSpace(value))
	}
	return clean, nil
}

func isSpam(value string) bool {
	return spamWordPattern.MatchString(value) ||
		spamBBCodePattern.MatchString(value) ||
		spamAnchorPattern.MatchString(value) ||
		spamIPPattern.MatchString(value)
}

func csrfKey(sessionID string) string {
	return "csrf_" + sessionID
}
