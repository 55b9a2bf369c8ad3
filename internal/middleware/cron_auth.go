package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CronAuthMiddleware guards internal endpoints invoked by external schedulers.
// The caller must present the shared secret in the X-Cron-Secret header.
func CronAuthMiddleware(sharedSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sharedSecret == "" {
			GetLoggerFromCtx(c.Request.Context()).Error("Cron shared secret not configured, rejecting request")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Scheduler endpoint not configured"})
			return
		}

		provided := c.GetHeader("X-Cron-Secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(sharedSecret)) != 1 {
			GetLoggerFromCtx(c.Request.Context()).Warn("Invalid cron secret")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid scheduler credentials"})
			return
		}

		c.Next()
	}
}
