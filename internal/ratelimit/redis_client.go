package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient wraps the Redis client with health checks and graceful
// degradation: if Redis is unreachable the rate limiter falls back to
// in-memory token buckets.
type RedisClient struct {
	client  *redis.Client
	enabled bool
	addr    string
}

// NewRedisClient creates a Redis client with connection pooling. An empty
// addr disables Redis without error.
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	if addr == "" {
		slog.Warn("redis address not configured, rate limiting will use in-memory fallback")
		return &RedisClient{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  4 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("redis ping failed, falling back to in-memory rate limiting", "error", err)
		return &RedisClient{enabled: false, addr: addr}, fmt.Errorf("redis ping failed: %w", err)
	}

	slog.Info("redis client connected", "addr", addr)
	return &RedisClient{client: client, enabled: true, addr: addr}, nil
}

// GetClient returns the underlying Redis client.
func (r *RedisClient) GetClient() *redis.Client {
	return r.client
}

// IsEnabled returns whether Redis is enabled and healthy.
func (r *RedisClient) IsEnabled() bool {
	return r.enabled
}

// HealthCheck pings the Redis connection.
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if !r.enabled {
		return fmt.Errorf("redis is disabled")
	}
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisClient) Close() error {
	if r.enabled && r.client != nil {
		return r.client.Close()
	}
	return nil
}
