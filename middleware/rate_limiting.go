package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"jrg-backend/shared/utils/cache"
)

// RateLimitConfig bounds one endpoint group with a fixed window per IP.
type RateLimitConfig struct {
	Scope       string
	MaxRequests int64
	Window      time.Duration
}

// RateLimit rejects requests once an IP exhausts its fixed-window budget.
// The counter lives in Redis so every instance shares one window, and the
// increment is a single atomic script.
func RateLimit(store cache.Store, config RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit_%s_%s", config.Scope, c.ClientIP())

		count, err := store.IncrementWindow(c.Request.Context(), key, config.Window)
		if err != nil {
			// Counter store outage should not take the endpoint down.
			log.Printf("❌ Rate limit counter failed for %s: %v", config.Scope, err)
			c.Next()
			return
		}

		if count > config.MaxRequests {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"status":  "error",
				"message": "Too many requests. Please try again later.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
