package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds application metrics.
type Metrics struct {
	RequestCount   int64
	ErrorCount     int64
	CacheHits      int64
	CacheMisses    int64
	ScoreRequests  int64
	OracleCalls    int64
	OracleFailures int64
	StartTime      time.Time

	// Response times kept for percentile computation (last 1000 samples).
	responseTimes      []time.Duration
	responseTimesMutex sync.RWMutex

	requestCountByStatus map[int]int64
	statusMutex          sync.RWMutex
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:            time.Now(),
		responseTimes:        make([]time.Duration, 0, 1000),
		requestCountByStatus: make(map[int]int64),
	}
}

// IncrementRequest increments the request count.
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count.
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// IncrementCacheHit increments cache hit count.
func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
}

// IncrementCacheMiss increments cache miss count.
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

// IncrementScoreRequests increments the score computation count.
func (m *Metrics) IncrementScoreRequests() {
	atomic.AddInt64(&m.ScoreRequests, 1)
}

// IncrementOracleCalls increments the oracle call count.
func (m *Metrics) IncrementOracleCalls() {
	atomic.AddInt64(&m.OracleCalls, 1)
}

// IncrementOracleFailures increments the oracle failure count.
func (m *Metrics) IncrementOracleFailures() {
	atomic.AddInt64(&m.OracleFailures, 1)
}

// RecordResponseTime records a response time sample for percentiles.
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	m.responseTimesMutex.Lock()
	m.responseTimes = append(m.responseTimes, duration)
	if len(m.responseTimes) > 1000 {
		m.responseTimes = m.responseTimes[1:]
	}
	m.responseTimesMutex.Unlock()
}

// RecordRequestByStatus records request count by HTTP status code.
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.statusMutex.Lock()
	defer m.statusMutex.Unlock()
	m.requestCountByStatus[statusCode]++
}

// percentile returns the given percentile of the recorded samples.
func percentile(samples []time.Duration, p float64) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	cp := append([]time.Duration(nil), samples...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	idx := int(p * float64(len(cp)-1))
	return cp[idx]
}

// GetStats returns a snapshot of all metrics.
func (m *Metrics) GetStats() map[string]interface{} {
	m.responseTimesMutex.RLock()
	samples := append([]time.Duration(nil), m.responseTimes...)
	m.responseTimesMutex.RUnlock()

	m.statusMutex.RLock()
	statusCounts := make(map[int]int64, len(m.requestCountByStatus))
	for code, count := range m.requestCountByStatus {
		statusCounts[code] = count
	}
	m.statusMutex.RUnlock()

	return map[string]interface{}{
		"request_count":      atomic.LoadInt64(&m.RequestCount),
		"error_count":        atomic.LoadInt64(&m.ErrorCount),
		"cache_hits":         atomic.LoadInt64(&m.CacheHits),
		"cache_misses":       atomic.LoadInt64(&m.CacheMisses),
		"score_requests":     atomic.LoadInt64(&m.ScoreRequests),
		"oracle_calls":       atomic.LoadInt64(&m.OracleCalls),
		"oracle_failures":    atomic.LoadInt64(&m.OracleFailures),
		"requests_by_status": statusCounts,
		"response_time_p50":  percentile(samples, 0.50).Milliseconds(),
		"response_time_p95":  percentile(samples, 0.95).Milliseconds(),
		"response_time_p99":  percentile(samples, 0.99).Milliseconds(),
		"uptime_seconds":     time.Since(m.StartTime).Seconds(),
	}
}
