package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
)

// ErrorCategory defines the type of error for proper handling. The scoring
// API cares most about the validation/oracle split: validation errors are
// non-retryable caller mistakes, oracle errors are recoverable only under
// the explicit fallback policy.
type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryOracle        ErrorCategory = "oracle"
	CategoryNetwork       ErrorCategory = "network"
	CategoryTimeout       ErrorCategory = "timeout"
	CategoryInternal      ErrorCategory = "internal"
	CategoryConfiguration ErrorCategory = "configuration"
)

// AppError wraps an errbuilder error with transport-level context.
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory `json:"category"`
	HTTPStatus int           `json:"http_status"`
	Timestamp  time.Time     `json:"timestamp"`
	StackTrace string        `json:"stack_trace,omitempty"`
}

func (e *AppError) Error() string {
	codeStr := "UNKNOWN_ERROR"
	switch e.ErrBuilder.ErrCode() {
	case errbuilder.CodeInvalidArgument:
		codeStr = "VALIDATION_ERROR"
	case errbuilder.CodeUnavailable:
		codeStr = "ORACLE_ERROR"
	case errbuilder.CodeDeadlineExceeded:
		codeStr = "TIMEOUT_ERROR"
	case errbuilder.CodeInternal:
		codeStr = "INTERNAL_ERROR"
	case errbuilder.CodeFailedPrecondition:
		codeStr = "CONFIGURATION_ERROR"
	}
	return fmt.Sprintf("[%s] %s", codeStr, e.ErrBuilder.Msg)
}

func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// NewAppError creates an AppError from an errbuilder with category context.
func NewAppError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

// NewValidationError creates a validation error for a rejected input.
func NewValidationError(message string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)
	return NewAppError(builder, CategoryValidation, http.StatusBadRequest)
}

// NewValidationErrorWithMap creates a validation error carrying one entry
// per failed field.
func NewValidationErrorWithMap(validationErrors map[string]string) *AppError {
	errMap := errbuilder.ErrorMap{}
	for field, message := range validationErrors {
		errMap.Set(field, errors.New(message))
	}

	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("invalid scoring input").
		WithDetails(errbuilder.NewErrDetails(errMap))

	return NewAppError(builder, CategoryValidation, http.StatusBadRequest)
}

// NewOracleError creates an error for a failed predictive oracle call.
// Surfaced distinctly from validation so the caller can decide to retry or
// degrade.
func NewOracleError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(message)
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return NewAppError(builder, CategoryOracle, http.StatusBadGateway)
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeDeadlineExceeded).
		WithMsg(message)
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return NewAppError(builder, CategoryTimeout, http.StatusGatewayTimeout)
}

// NewNetworkError creates a transport-level error.
func NewNetworkError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(message)
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return NewAppError(builder, CategoryNetwork, http.StatusBadGateway)
}

// NewInternalError creates an internal server error.
func NewInternalError(message string, cause error) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("internal_details", errors.New(message))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("internal server error").
		WithDetails(errbuilder.NewErrDetails(errorMap))
	if cause != nil {
		builder = builder.WithCause(cause)
	}

	appErr := NewAppError(builder, CategoryInternal, http.StatusInternalServerError)
	if gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode {
		appErr.StackTrace = captureStackTrace()
	}
	return appErr
}

// NewConfigurationError creates a configuration error.
func NewConfigurationError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(message)
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return NewAppError(builder, CategoryConfiguration, http.StatusInternalServerError)
}

func captureStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// ErrorHandler is a gin middleware for centralized error handling.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			appErr := ToAppError(c.Errors.Last().Err)
			LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
		}
	}
}

// RecoveryHandler provides panic recovery with structured error responses.
func RecoveryHandler() gin.HandlerFunc {
	return gin.RecoveryWithWriter(nil, func(c *gin.Context, err interface{}) {
		appErr := NewInternalError(
			fmt.Sprintf("panic recovered: %v", err),
			fmt.Errorf("%v", err),
		)
		appErr.StackTrace = captureStackTrace()

		LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
	})
}

// ToAppError converts any error to an AppError.
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := err.(*AppError); ok {
		return appErr
	}

	if ebErr, ok := err.(*errbuilder.ErrBuilder); ok {
		return NewAppError(ebErr, CategoryInternal, http.StatusInternalServerError)
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "no such host") ||
		strings.Contains(errMsg, "network is unreachable") {
		return NewNetworkError("network connection failed", err)
	}

	if strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "deadline exceeded") {
		return NewTimeoutError("request timeout", err)
	}

	if errors.Is(err, context.Canceled) {
		return NewTimeoutError("request cancelled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError("request deadline exceeded", err)
	}

	return NewInternalError("an unexpected error occurred", err)
}

// LogError logs an error with the appropriate level and request context.
func LogError(c *gin.Context, err *AppError) {
	logEntry := slog.With(
		"error_category", err.Category,
		"error_code", err.ErrBuilder.ErrCode(),
		"http_status", err.HTTPStatus,
		"ip", c.ClientIP(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)

	msg := err.ErrBuilder.Msg
	switch err.Category {
	case CategoryValidation:
		logEntry.Warn(msg)
	case CategoryOracle, CategoryNetwork, CategoryTimeout:
		if cause := err.ErrBuilder.Unwrap(); cause != nil {
			logEntry.Info(msg, "cause", cause)
		} else {
			logEntry.Info(msg)
		}
	default:
		if cause := err.ErrBuilder.Unwrap(); cause != nil {
			logEntry.Error(msg, "cause", cause)
		} else {
			logEntry.Error(msg)
		}
	}

	if err.StackTrace != "" && (gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode) {
		logEntry.Debug("stack_trace", "trace", err.StackTrace)
	}
}

// IsRetryableError checks if an error should trigger a retry.
func IsRetryableError(err error) bool {
	switch ToAppError(err).Category {
	case CategoryOracle, CategoryNetwork, CategoryTimeout:
		return true
	default:
		return false
	}
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(message, args...), err)
}
