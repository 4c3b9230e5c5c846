package resilience

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// ConnectionPool manages pooled HTTP clients behind a circuit breaker.
type ConnectionPool struct {
	maxIdle     int
	maxActive   int
	idleTimeout time.Duration

	circuitBreaker *CircuitBreaker

	activeConnections int
	idleConnections   []*pooledConnection
	mutex             sync.Mutex

	transport      *http.Transport
	requestTimeout time.Duration
}

type pooledConnection struct {
	client   *http.Client
	lastUsed time.Time
}

// NewConnectionPool creates a connection pool with circuit breaker
// protection. requestTimeout bounds each request end to end.
func NewConnectionPool(maxIdle, maxActive int, idleTimeout, requestTimeout time.Duration, cb *CircuitBreaker) *ConnectionPool {
	transport := &http.Transport{
		MaxIdleConns:          maxIdle,
		MaxConnsPerHost:       maxActive,
		MaxIdleConnsPerHost:   maxIdle / 2,
		IdleConnTimeout:       idleTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: requestTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &ConnectionPool{
		maxIdle:         maxIdle,
		maxActive:       maxActive,
		idleTimeout:     idleTimeout,
		circuitBreaker:  cb,
		transport:       transport,
		requestTimeout:  requestTimeout,
		idleConnections: make([]*pooledConnection, 0),
	}
}

// getClient retrieves a pooled HTTP client or creates one.
func (cp *ConnectionPool) getClient() (*http.Client, error) {
	cp.mutex.Lock()
	defer cp.mutex.Unlock()

	cp.cleanupIdleConnections()

	if len(cp.idleConnections) > 0 {
		conn := cp.idleConnections[0]
		cp.idleConnections = cp.idleConnections[1:]
		conn.lastUsed = time.Now()
		return conn.client, nil
	}

	if cp.activeConnections >= cp.maxActive {
		return nil, fmt.Errorf("connection pool exhausted: %d/%d active connections", cp.activeConnections, cp.maxActive)
	}

	client := &http.Client{
		Transport: cp.transport,
		Timeout:   cp.requestTimeout,
	}
	cp.activeConnections++
	return client, nil
}

// returnClient returns a client to the idle pool. A client that cannot be
// kept idle gives its capacity slot back, so failed or surplus requests
// never shrink the pool permanently.
func (cp *ConnectionPool) returnClient(client *http.Client) {
	cp.mutex.Lock()
	defer cp.mutex.Unlock()

	if len(cp.idleConnections) < cp.maxIdle {
		cp.idleConnections = append(cp.idleConnections, &pooledConnection{
			client:   client,
			lastUsed: time.Now(),
		})
		return
	}
	if cp.activeConnections > 0 {
		cp.activeConnections--
	}
}

func (cp *ConnectionPool) cleanupIdleConnections() {
	now := time.Now()
	valid := cp.idleConnections[:0]
	for _, conn := range cp.idleConnections {
		if now.Sub(conn.lastUsed) <= cp.idleTimeout {
			valid = append(valid, conn)
		}
	}
	cp.idleConnections = valid
}

// GetStats returns connection pool statistics.
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	cp.mutex.Lock()
	defer cp.mutex.Unlock()

	return map[string]interface{}{
		"active_connections":    cp.activeConnections,
		"idle_connections":      len(cp.idleConnections),
		"max_idle":              cp.maxIdle,
		"max_active":            cp.maxActive,
		"idle_timeout_ms":       cp.idleTimeout.Milliseconds(),
		"circuit_breaker_state": cp.circuitBreaker.State(),
	}
}

// DoRequest executes an HTTP request through the pool under circuit
// breaker protection. body may be nil.
func (cp *ConnectionPool) DoRequest(ctx context.Context, method, url string, headers map[string]string, body io.Reader) (*http.Response, error) {
	var resp *http.Response

	err := cp.circuitBreaker.Call(func() error {
		client, err := cp.getClient()
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			cp.returnClient(client)
			return err
		}
		for key, value := range headers {
			req.Header.Set(key, value)
		}

		start := time.Now()
		resp, err = client.Do(req)
		duration := time.Since(start)
		if err != nil {
			cp.returnClient(client)
			slog.Warn("request failed", "url", url, "error", err, "duration_ms", duration.Milliseconds())
			return err
		}

		slog.Debug("request completed", "url", url, "status", resp.StatusCode, "duration_ms", duration.Milliseconds())
		cp.returnClient(client)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// Close releases idle connections.
func (cp *ConnectionPool) Close() error {
	cp.mutex.Lock()
	defer cp.mutex.Unlock()

	cp.transport.CloseIdleConnections()
	cp.idleConnections = nil
	cp.activeConnections = 0
	return nil
}
