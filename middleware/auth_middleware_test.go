package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jrg-backend/services"
	"jrg-backend/shared/database/models"
	"jrg-backend/shared/database/models/auth"
	utils "jrg-backend/shared/utils/auth"
)

// stubRefreshStore satisfies the refresh surface; the middleware never
// touches it.
type stubRefreshStore struct{}

func (stubRefreshStore) Create(*auth.RefreshToken) error { return nil }
func (stubRefreshStore) ConsumeActive(string) (*auth.RefreshToken, error) {
	return nil, services.ErrInvalidOrExpired
}
func (stubRefreshStore) Revoke(string) error { return nil }

func (stubRefreshStore) RevokeAllForUser(uint) error { return nil }

// stubBlacklist treats a fixed set of tokens as revoked.
type stubBlacklist struct {
	revoked map[string]bool
}

func (s stubBlacklist) Add(token string, expiresAt time.Time) error { return nil }

func (s stubBlacklist) Contains(token string) (bool, error) { return s.revoked[token], nil }

type stubUserStore struct{}

func (stubUserStore) FindByEmail(string) (*models.User, error) { return nil, nil }

func (stubUserStore) FindByID(uint) (*models.User, error) { return nil, nil }

func (stubUserStore) RecordLogin(uint, string) error { return nil }

func (stubUserStore) UpdatePassword(uint, string) error { return nil }

func newTestRouter(revoked map[string]bool) (*gin.Engine, *utils.JWTManager) {
	gin.SetMode(gin.TestMode)

	jwtManager := utils.NewJWTManager("unit-test-secret", 30*time.Minute, "jrg-backend")
	tokens := services.NewTokenService(jwtManager, stubRefreshStore{}, stubBlacklist{revoked: revoked}, stubUserStore{}, time.Hour)

	router := gin.New()
	router.GET("/protected", RequireAuth(tokens, jwtManager), func(c *gin.Context) {
		principal, _ := GetPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"uid": principal.UserID, "email": principal.Email})
	})
	router.GET("/admin", RequireAuth(tokens, jwtManager), RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router, jwtManager
}

func doRequest(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	router, _ := newTestRouter(nil)
	resp := doRequest(router, "/protected", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), "Authentication required")
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	router, jwtManager := newTestRouter(nil)
	token, _, err := jwtManager.GenerateAccessToken(1, "a@b.co", nil)
	require.NoError(t, err)

	for _, header := range []string{"Token " + token, token, "Bearer"} {
		resp := doRequest(router, "/protected", header)
		assert.Equal(t, http.StatusUnauthorized, resp.Code, "header %q should be rejected", header)
	}
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	router, _ := newTestRouter(nil)
	resp := doRequest(router, "/protected", "Bearer not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	expiredIssuer := utils.NewJWTManager("unit-test-secret", -time.Minute, "jrg-backend")
	token, _, err := expiredIssuer.GenerateAccessToken(1, "a@b.co", nil)
	require.NoError(t, err)

	router, _ := newTestRouter(nil)
	resp := doRequest(router, "/protected", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRequireAuth_ValidTokenAttachesPrincipal(t *testing.T) {
	router, jwtManager := newTestRouter(nil)
	token, _, err := jwtManager.GenerateAccessToken(42, "user@example.com", []string{models.RoleUser})
	require.NoError(t, err)

	resp := doRequest(router, "/protected", "Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"uid":42`)
	assert.Contains(t, resp.Body.String(), "user@example.com")
}

// A signed, unexpired token must still be rejected once it sits on the
// revocation ledger.
func TestRequireAuth_BlacklistWinsOverValidSignature(t *testing.T) {
	jwtManager := utils.NewJWTManager("unit-test-secret", 30*time.Minute, "jrg-backend")
	token, _, err := jwtManager.GenerateAccessToken(42, "user@example.com", []string{models.RoleUser})
	require.NoError(t, err)

	router, _ := newTestRouter(map[string]bool{token: true})
	resp := doRequest(router, "/protected", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRequireRole(t *testing.T) {
	router, jwtManager := newTestRouter(nil)

	userToken, _, err := jwtManager.GenerateAccessToken(1, "user@example.com", []string{models.RoleUser})
	require.NoError(t, err)
	resp := doRequest(router, "/admin", "Bearer "+userToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	adminToken, _, err := jwtManager.GenerateAccessToken(2, "admin@example.com", []string{models.RoleUser, models.RoleAdmin})
	require.NoError(t, err)
	resp = doRequest(router, "/admin", "Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, resp.Code)
}
