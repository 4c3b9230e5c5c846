package monitoring

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// MonitoringMiddleware creates gin middleware for request monitoring.
func MonitoringMiddleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.IncrementRequest()

		ip := c.ClientIP()
		userAgent := c.GetHeader("User-Agent")
		method := c.Request.Method
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		metrics.RecordResponseTime(duration)
		metrics.RecordRequestByStatus(statusCode)
		if statusCode >= 400 {
			metrics.IncrementError()
		}

		logger.RequestLogger(method, path, ip, userAgent, statusCode, duration)

		if duration > 5*time.Second {
			logger.PerformanceLogger("slow_request", duration.Seconds(), "seconds")
		}
		if statusCode >= 500 {
			logger.SystemLogger("server_error", fmt.Sprintf("status %d for %s %s", statusCode, method, path))
		}
	}
}
