package monitoring

import (
	"context"
	"log/slog"
	"os"
	"time"
)

var startTime = time.Now()

// Logger provides structured logging with domain-specific helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a JSON slog logger with RFC3339 timestamps.
func NewLogger() *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{Logger: slog.New(handler)}
}

// RequestLogger logs HTTP request details.
func (l *Logger) RequestLogger(method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// ScoreLogger logs a completed safety score computation. Cache hits never
// reach the handler, so they are logged and counted by the cache middleware
// instead.
func (l *Logger) ScoreLogger(transportMode string, waypoints int, score int, risk float64, duration time.Duration) {
	l.Info("Score Computed",
		"transport_mode", transportMode,
		"waypoints", waypoints,
		"score", score,
		"risk", risk,
		"duration_ms", duration.Milliseconds(),
	)
}

// OracleLogger logs predictive oracle calls.
func (l *Logger) OracleLogger(endpoint string, statusCode int, duration time.Duration, success bool) {
	level := slog.LevelInfo
	if !success {
		level = slog.LevelWarn
	}
	l.Log(context.Background(), level, "Oracle Call",
		"endpoint", endpoint,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
		"success", success,
	)
}

// PerformanceLogger logs performance measurements.
func (l *Logger) PerformanceLogger(metric string, value float64, unit string) {
	l.Warn("Performance Metric",
		"metric", metric,
		"value", value,
		"unit", unit,
	)
}

// SystemLogger logs system-level events.
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}
