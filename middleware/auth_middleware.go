package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jrg-backend/services"
	utils "jrg-backend/shared/utils/auth"
)

const principalKey = "principal"

// RequireAuth guards protected routes. The revocation ledger is consulted
// before the signature is checked, so a blacklisted token is rejected even
// if key rotation would otherwise make it unverifiable. All failures
// collapse into one generic 401; the cause goes to the server log only.
func RequireAuth(tokens *services.TokenService, jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ExtractBearerToken(c)
		if tokenString == "" {
			reject(c, "missing or malformed Authorization header")
			return
		}

		if tokens.IsBlacklisted(tokenString) {
			reject(c, "token is blacklisted")
			return
		}

		claims, err := jwtManager.ValidateAccessToken(tokenString)
		if err != nil {
			reject(c, err.Error())
			return
		}

		c.Set("accessToken", tokenString)
		c.Set(principalKey, utils.Principal{
			UserID: claims.UID,
			Email:  claims.Email,
			Roles:  claims.Roles,
		})

		c.Next()
	}
}

// RequireRole rejects authenticated principals lacking the given role.
// Must be mounted after RequireAuth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			reject(c, "no principal on context")
			return
		}
		if !principal.HasRole(role) {
			c.JSON(http.StatusForbidden, gin.H{
				"status":  "error",
				"message": "Insufficient permissions",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetPrincipal returns the authenticated identity set by RequireAuth.
func GetPrincipal(c *gin.Context) (utils.Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return utils.Principal{}, false
	}
	principal, ok := value.(utils.Principal)
	return principal, ok
}

// ExtractBearerToken pulls the raw token out of the Authorization header.
func ExtractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func reject(c *gin.Context, cause string) {
	log.Printf("Auth rejected %s %s: %s", c.Request.Method, c.Request.URL.Path, cause)
	c.JSON(http.StatusUnauthorized, gin.H{
		"status":  "error",
		"message": "Authentication required",
	})
	c.Abort()
}
