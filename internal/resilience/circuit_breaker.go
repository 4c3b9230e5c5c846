package resilience

import (
	"sync"
	"sync/atomic"
	"time"
)

// CircuitBreakerState represents the state of the circuit breaker.
type CircuitBreakerState int32

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	FailureThreshold int           `json:"failure_threshold"`
	RecoveryTimeout  time.Duration `json:"recovery_timeout"`
	SuccessThreshold int           `json:"success_threshold"`
}

// CircuitBreaker guards external service calls: it opens after consecutive
// failures and probes recovery through a half-open state.
type CircuitBreaker struct {
	config      CircuitBreakerConfig
	state       int32
	failures    int32
	successes   int32
	nextAttempt time.Time
}

// NewCircuitBreaker creates a circuit breaker, filling zero config fields
// with defaults.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout == 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	if config.SuccessThreshold == 0 {
		config.SuccessThreshold = 3
	}
	return &CircuitBreaker{config: config, state: int32(StateClosed)}
}

// Call executes fn with circuit breaker protection.
func (cb *CircuitBreaker) Call(fn func() error) error {
	state := CircuitBreakerState(atomic.LoadInt32(&cb.state))

	switch state {
	case StateOpen:
		if time.Now().Before(cb.nextAttempt) {
			return &CircuitBreakerError{Message: "circuit breaker is open", State: state}
		}
		atomic.StoreInt32(&cb.state, int32(StateHalfOpen))
		atomic.StoreInt32(&cb.successes, 0)
		fallthrough

	case StateHalfOpen, StateClosed:
		if err := fn(); err != nil {
			cb.onFailure()
			return err
		}
		cb.onSuccess()
		return nil

	default:
		return &CircuitBreakerError{Message: "unknown circuit breaker state", State: state}
	}
}

func (cb *CircuitBreaker) onFailure() {
	failures := atomic.AddInt32(&cb.failures, 1)
	atomic.StoreInt32(&cb.successes, 0)

	if failures >= int32(cb.config.FailureThreshold) {
		atomic.StoreInt32(&cb.state, int32(StateOpen))
		cb.nextAttempt = time.Now().Add(cb.config.RecoveryTimeout)
	}
}

func (cb *CircuitBreaker) onSuccess() {
	atomic.StoreInt32(&cb.failures, 0)

	if CircuitBreakerState(atomic.LoadInt32(&cb.state)) == StateHalfOpen {
		if atomic.AddInt32(&cb.successes, 1) >= int32(cb.config.SuccessThreshold) {
			atomic.StoreInt32(&cb.state, int32(StateClosed))
		}
	}
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	return CircuitBreakerState(atomic.LoadInt32(&cb.state))
}

// Failures returns the current consecutive failure count.
func (cb *CircuitBreaker) Failures() int {
	return int(atomic.LoadInt32(&cb.failures))
}

// Reset returns the circuit breaker to the closed state.
func (cb *CircuitBreaker) Reset() {
	atomic.StoreInt32(&cb.state, int32(StateClosed))
	atomic.StoreInt32(&cb.failures, 0)
	atomic.StoreInt32(&cb.successes, 0)
}

// CircuitBreakerError reports a call rejected by the breaker.
type CircuitBreakerError struct {
	Message string
	State   CircuitBreakerState
}

func (e *CircuitBreakerError) Error() string { return e.Message }

// CircuitBreakerRegistry tracks breakers by service name.
type CircuitBreakerRegistry struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewCircuitBreakerRegistry creates an empty registry.
func NewCircuitBreakerRegistry() *CircuitBreakerRegistry {
	return &CircuitBreakerRegistry{breakers: make(map[string]*CircuitBreaker)}
}

// GetOrCreate gets an existing circuit breaker or creates a new one.
func (r *CircuitBreakerRegistry) GetOrCreate(name string, config CircuitBreakerConfig) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if breaker, exists := r.breakers[name]; exists {
		return breaker
	}
	breaker := NewCircuitBreaker(config)
	r.breakers[name] = breaker
	return breaker
}

// GetStats returns per-breaker state and failure counts.
func (r *CircuitBreakerRegistry) GetStats() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := make(map[string]interface{})
	for name, breaker := range r.breakers {
		stats[name] = map[string]interface{}{
			"state":    breaker.State(),
			"failures": breaker.Failures(),
		}
	}
	return stats
}

var globalRegistry = NewCircuitBreakerRegistry()

// GetCircuitBreaker gets a circuit breaker from the global registry.
func GetCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	return globalRegistry.GetOrCreate(name, config)
}

// GetCircuitBreakerStats returns stats from the global registry.
func GetCircuitBreakerStats() map[string]interface{} {
	return globalRegistry.GetStats()
}
