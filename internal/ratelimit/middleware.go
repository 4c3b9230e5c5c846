package ratelimit

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimitByIP returns gin middleware enforcing per-IP limits.
func RateLimitByIP(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		result, err := limiter.AllowIP(c.Request.Context(), ip)
		if err != nil {
			// Fail open so a limiter outage never takes scoring down.
			slog.Error("rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetAt.Unix()))

		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))

			slog.Warn("rate limit exceeded",
				"ip", ip,
				"path", c.Request.URL.Path,
				"retry_after", retryAfter,
			)

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter,
				"reset_at":    result.ResetAt.Format(time.RFC3339),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
