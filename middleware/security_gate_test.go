package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jrg-backend/services"
	"jrg-backend/shared/database/models"
	"jrg-backend/shared/utils/cache"
)

type memoryStore struct {
	values map[string]string
	counts map[string]int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: make(map[string]string), counts: make(map[string]int64)}
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := m.values[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return value, nil
}

func (m *memoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.values[key] = value
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func (m *memoryStore) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	m.counts[key]++
	return m.counts[key], nil
}

type noopSecurityLogger struct{}

func (noopSecurityLogger) LogSecurity(string, string, string, string, models.JSONMap) {}

func newGateRouter(t *testing.T, store cache.Store, maxRequests int64) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	security := services.NewSecurityService(store, nil, noopSecurityLogger{}, time.Hour, maxRequests, time.Minute)
	csrfToken, err := security.IssueCSRFToken(context.Background(), "session-1")
	require.NoError(t, err)

	router := gin.New()
	router.POST("/form", SecurityGate(security, "testform", services.GateOptions{}), func(c *gin.Context) {
		// The body must survive the gate's inspection for binding.
		var payload map[string]string
		require.NoError(t, c.ShouldBindJSON(&payload))

		submission, ok := GetSubmission(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"message": payload["message"], "form_id": submission.FormID})
	})
	return router, csrfToken
}

func postForm(router *gin.Engine, payload map[string]string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/form", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "session-1"})
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestSecurityGate_PassesCleanSubmission(t *testing.T) {
	router, csrfToken := newGateRouter(t, newMemoryStore(), 30)

	resp := postForm(router, map[string]string{
		"csrf_token": csrfToken,
		"message":    "hello",
	})

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"message":"hello"`)
	assert.Contains(t, resp.Body.String(), `"form_id":"testform"`)
}

func TestSecurityGate_HoneypotRejects(t *testing.T) {
	router, csrfToken := newGateRouter(t, newMemoryStore(), 30)

	resp := postForm(router, map[string]string{
		"csrf_token": csrfToken,
		"website":    "http://spam.example",
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"error"`)
}

func TestSecurityGate_MissingCSRFRejects(t *testing.T) {
	router, _ := newGateRouter(t, newMemoryStore(), 30)

	resp := postForm(router, map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "CSRF")
}

func TestSecurityGate_RateLimitBudget(t *testing.T) {
	router, csrfToken := newGateRouter(t, newMemoryStore(), 3)
	payload := map[string]string{"csrf_token": csrfToken, "message": "hello"}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, postForm(router, payload).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, postForm(router, payload).Code)
}

func TestSecurityGate_MalformedJSONRejected(t *testing.T) {
	router, _ := newGateRouter(t, newMemoryStore(), 30)

	req := httptest.NewRequest(http.MethodPost, "/form", bytes.NewReader([]byte("{not json")))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
