package resilience

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DegradationLevel represents the current degradation state of a service.
type DegradationLevel int

const (
	LevelNormal DegradationLevel = iota
	LevelDegraded
	LevelCritical
	LevelEmergency
)

// HealthConfig holds thresholds for service degradation tracking.
type HealthConfig struct {
	HealthCheckInterval time.Duration `json:"health_check_interval"`
	DegradedThreshold   float64       `json:"degraded_threshold"`
	CriticalThreshold   float64       `json:"critical_threshold"`
	EmergencyThreshold  float64       `json:"emergency_threshold"`
	HealthCheckTimeout  time.Duration `json:"health_check_timeout"`
}

// DefaultHealthConfig returns sensible defaults.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		HealthCheckInterval: 30 * time.Second,
		DegradedThreshold:   0.1,
		CriticalThreshold:   0.25,
		EmergencyThreshold:  0.5,
		HealthCheckTimeout:  5 * time.Second,
	}
}

// ServiceHealth is the tracked health status of one external service.
type ServiceHealth struct {
	ServiceName   string           `json:"service_name"`
	Level         DegradationLevel `json:"level"`
	ErrorRate     float64          `json:"error_rate"`
	TotalRequests int64            `json:"total_requests"`
	ErrorCount    int64            `json:"error_count"`
	LastErrorTime time.Time        `json:"last_error_time"`
	StatusMessage string           `json:"status_message"`
}

// HealthCheckFunc probes a service.
type HealthCheckFunc func(ctx context.Context) error

// HealthTracker tracks error rates and degradation levels per service.
type HealthTracker struct {
	config       HealthConfig
	services     map[string]*ServiceHealth
	healthChecks map[string]HealthCheckFunc
	mutex        sync.RWMutex
}

// NewHealthTracker creates a health tracker.
func NewHealthTracker(config HealthConfig) *HealthTracker {
	return &HealthTracker{
		config:       config,
		services:     make(map[string]*ServiceHealth),
		healthChecks: make(map[string]HealthCheckFunc),
	}
}

// Register registers a service and an optional health check.
func (ht *HealthTracker) Register(serviceName string, healthCheck HealthCheckFunc) {
	ht.mutex.Lock()
	defer ht.mutex.Unlock()

	ht.services[serviceName] = &ServiceHealth{
		ServiceName:   serviceName,
		Level:         LevelNormal,
		StatusMessage: "service is healthy",
	}
	if healthCheck != nil {
		ht.healthChecks[serviceName] = healthCheck
	}
	slog.Info("registered service for health tracking", "service", serviceName)
}

// RecordRequest records a request outcome for a service.
func (ht *HealthTracker) RecordRequest(serviceName string, success bool) {
	ht.mutex.Lock()
	defer ht.mutex.Unlock()

	service, exists := ht.services[serviceName]
	if !exists {
		return
	}

	service.TotalRequests++
	if !success {
		service.ErrorCount++
		service.LastErrorTime = time.Now()
	}
	if service.TotalRequests > 0 {
		service.ErrorRate = float64(service.ErrorCount) / float64(service.TotalRequests)
	}
	ht.updateLevel(service)
}

// RecordError records a failed request for a service.
func (ht *HealthTracker) RecordError(serviceName string, err error) {
	ht.RecordRequest(serviceName, false)
	slog.Warn("service error recorded", "service", serviceName, "error", err)
}

func (ht *HealthTracker) updateLevel(service *ServiceHealth) {
	prev := service.Level
	switch {
	case service.ErrorRate >= ht.config.EmergencyThreshold:
		service.Level = LevelEmergency
		service.StatusMessage = "service is failing, requests suspended"
	case service.ErrorRate >= ht.config.CriticalThreshold:
		service.Level = LevelCritical
		service.StatusMessage = "service error rate is critical"
	case service.ErrorRate >= ht.config.DegradedThreshold:
		service.Level = LevelDegraded
		service.StatusMessage = "service is degraded"
	default:
		service.Level = LevelNormal
		service.StatusMessage = "service is healthy"
	}

	if service.Level != prev {
		slog.Warn("service degradation level changed",
			"service", service.ServiceName,
			"level", service.Level,
			"error_rate", service.ErrorRate)
	}
}

// IsAvailable reports whether a service should receive traffic.
func (ht *HealthTracker) IsAvailable(serviceName string) bool {
	ht.mutex.RLock()
	defer ht.mutex.RUnlock()

	service, exists := ht.services[serviceName]
	if !exists {
		return true
	}
	return service.Level != LevelEmergency
}

// GetAll returns a snapshot of all tracked services.
func (ht *HealthTracker) GetAll() map[string]ServiceHealth {
	ht.mutex.RLock()
	defer ht.mutex.RUnlock()

	out := make(map[string]ServiceHealth, len(ht.services))
	for name, service := range ht.services {
		out[name] = *service
	}
	return out
}

// StartHealthChecks runs periodic health probes until ctx is cancelled.
func (ht *HealthTracker) StartHealthChecks(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(ht.config.HealthCheckInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ht.runHealthChecks(ctx)
			}
		}
	}()
}

func (ht *HealthTracker) runHealthChecks(ctx context.Context) {
	ht.mutex.RLock()
	checks := make(map[string]HealthCheckFunc, len(ht.healthChecks))
	for name, check := range ht.healthChecks {
		checks[name] = check
	}
	ht.mutex.RUnlock()

	for name, check := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, ht.config.HealthCheckTimeout)
		err := check(checkCtx)
		cancel()

		ht.RecordRequest(name, err == nil)
	}
}

var globalHealthTracker = NewHealthTracker(DefaultHealthConfig())

// RegisterService registers a service with the global tracker.
func RegisterService(serviceName string, healthCheck HealthCheckFunc) {
	globalHealthTracker.Register(serviceName, healthCheck)
}

// RecordRequest records a request outcome with the global tracker.
func RecordRequest(serviceName string, success bool) {
	globalHealthTracker.RecordRequest(serviceName, success)
}

// RecordError records an error with the global tracker.
func RecordError(serviceName string, err error) {
	globalHealthTracker.RecordError(serviceName, err)
}

// IsServiceAvailable reports availability from the global tracker.
func IsServiceAvailable(serviceName string) bool {
	return globalHealthTracker.IsAvailable(serviceName)
}

// GetAllServiceHealth returns all service health from the global tracker.
func GetAllServiceHealth() map[string]ServiceHealth {
	return globalHealthTracker.GetAll()
}

// StartHealthChecks starts the global tracker's periodic probes.
func StartHealthChecks(ctx context.Context) {
	globalHealthTracker.StartHealthChecks(ctx)
}
