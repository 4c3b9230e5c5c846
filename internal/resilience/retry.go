package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/nightowl-labs/safescore/internal/errors"
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxAttempts     int              `json:"max_attempts"`
	InitialDelay    time.Duration    `json:"initial_delay"`
	MaxDelay        time.Duration    `json:"max_delay"`
	BackoffFactor   float64          `json:"backoff_factor"`
	JitterEnabled   bool             `json:"jitter_enabled"`
	RetryableErrors func(error) bool `json:"-"`
}

// DefaultRetryConfig returns sensible defaults for retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		BackoffFactor:   2.0,
		JitterEnabled:   true,
		RetryableErrors: errors.IsRetryableError,
	}
}

// RetryableFunc represents a function that can be retried.
type RetryableFunc func() error

// RetryWithConfig executes fn with retry logic, respecting context
// cancellation between attempts.
func RetryWithConfig(ctx context.Context, config RetryConfig, fn RetryableFunc) error {
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !config.RetryableErrors(err) {
			break
		}
		if attempt == config.MaxAttempts-1 {
			break
		}

		delay := calculateDelay(config, attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

// Retry executes fn with the default retry configuration.
func Retry(ctx context.Context, fn RetryableFunc) error {
	return RetryWithConfig(ctx, DefaultRetryConfig(), fn)
}

func calculateDelay(config RetryConfig, attempt int) time.Duration {
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(config.BackoffFactor, float64(attempt)))
	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	if config.JitterEnabled {
		delay += time.Duration(rand.Int63n(int64(delay / 10)))
	}
	return delay
}

// RetryPolicy names a retry strategy for a service.
type RetryPolicy struct {
	Name   string
	Config RetryConfig
}

var (
	// StandardRetryPolicy for general use cases.
	StandardRetryPolicy = RetryPolicy{
		Name: "standard",
		Config: RetryConfig{
			MaxAttempts:   3,
			InitialDelay:  100 * time.Millisecond,
			MaxDelay:      10 * time.Second,
			BackoffFactor: 2.0,
			JitterEnabled: true,
		},
	}

	// SlowRetryPolicy for external APIs that need longer delays, such as
	// the predictive oracle.
	SlowRetryPolicy = RetryPolicy{
		Name: "slow",
		Config: RetryConfig{
			MaxAttempts:   3,
			InitialDelay:  500 * time.Millisecond,
			MaxDelay:      5 * time.Second,
			BackoffFactor: 2.0,
			JitterEnabled: true,
		},
	}
)

// RetryManager maps service names to retry policies.
type RetryManager struct {
	policies map[string]RetryPolicy
}

// NewRetryManager creates a new retry manager.
func NewRetryManager() *RetryManager {
	return &RetryManager{policies: make(map[string]RetryPolicy)}
}

// RegisterPolicy registers a retry policy for a service.
func (rm *RetryManager) RegisterPolicy(serviceName string, policy RetryPolicy) {
	rm.policies[serviceName] = policy
}

// Execute runs fn under the service's policy, defaulting to the standard
// policy for unregistered services.
func (rm *RetryManager) Execute(ctx context.Context, serviceName string, fn RetryableFunc) error {
	policy, exists := rm.policies[serviceName]
	if !exists {
		policy = StandardRetryPolicy
	}
	policy.Config.RetryableErrors = errors.IsRetryableError
	return RetryWithConfig(ctx, policy.Config, fn)
}

var globalRetryManager = NewRetryManager()

// RegisterServicePolicy registers a retry policy for a service globally.
func RegisterServicePolicy(serviceName string, policy RetryPolicy) {
	globalRetryManager.RegisterPolicy(serviceName, policy)
}

// ExecuteWithRetry executes fn with retry using the service's policy.
func ExecuteWithRetry(ctx context.Context, serviceName string, fn RetryableFunc) error {
	return globalRetryManager.Execute(ctx, serviceName, fn)
}
