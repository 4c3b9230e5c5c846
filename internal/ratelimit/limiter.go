package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration.
type Config struct {
	IPLimitPerMin   int
	BurstMultiplier int
}

// DefaultConfig returns default rate limiting configuration.
func DefaultConfig() Config {
	return Config{
		IPLimitPerMin:   60,
		BurstMultiplier: 2,
	}
}

// Result represents the outcome of a rate limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RateLimiter provides distributed rate limiting with Redis and an
// in-memory token-bucket fallback.
type RateLimiter struct {
	redisLimiter *redis_rate.Limiter
	redisClient  *RedisClient
	config       Config

	fallbackLimiters map[string]*rate.Limiter
	fallbackMutex    sync.Mutex
}

// NewRateLimiter creates a rate limiter backed by Redis when available.
func NewRateLimiter(redisClient *RedisClient, config Config) *RateLimiter {
	rl := &RateLimiter{
		redisClient:      redisClient,
		config:           config,
		fallbackLimiters: make(map[string]*rate.Limiter),
	}

	if redisClient.IsEnabled() {
		rl.redisLimiter = redis_rate.NewLimiter(redisClient.GetClient())
		slog.Info("redis rate limiter initialized")
	} else {
		slog.Warn("redis unavailable, using in-memory rate limiting only")
	}

	go rl.cleanupFallbackLimiters()
	return rl
}

// AllowIP checks whether an IP address may make a request (per-minute
// limit).
func (rl *RateLimiter) AllowIP(ctx context.Context, ip string) (*Result, error) {
	key := fmt.Sprintf("ratelimit:ip:%s", ip)
	return rl.allow(ctx, key, rl.config.IPLimitPerMin, time.Minute)
}

func (rl *RateLimiter) allow(ctx context.Context, key string, limit int, period time.Duration) (*Result, error) {
	if rl.redisClient.IsEnabled() && rl.redisLimiter != nil {
		result, err := rl.allowRedis(ctx, key, limit, period)
		if err != nil {
			slog.Warn("redis rate limit check failed, using fallback", "key", key, "error", err)
			return rl.allowFallback(key, limit, period)
		}
		return result, nil
	}
	return rl.allowFallback(key, limit, period)
}

func (rl *RateLimiter) allowRedis(ctx context.Context, key string, limit int, period time.Duration) (*Result, error) {
	res, err := rl.redisLimiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   limit,
		Burst:  limit,
		Period: period,
	})
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check failed: %w", err)
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Limit:      res.Limit.Rate,
		Remaining:  res.Remaining,
		ResetAt:    time.Now().Add(res.ResetAfter),
		RetryAfter: res.RetryAfter,
	}, nil
}

func (rl *RateLimiter) allowFallback(key string, limit int, period time.Duration) (*Result, error) {
	rl.fallbackMutex.Lock()
	limiter, exists := rl.fallbackLimiters[key]
	if !exists {
		rps := rate.Limit(float64(limit) / period.Seconds())
		burst := limit * rl.config.BurstMultiplier
		if burst < 5 {
			burst = 5
		}
		limiter = rate.NewLimiter(rps, burst)
		rl.fallbackLimiters[key] = limiter
	}
	rl.fallbackMutex.Unlock()

	allowed := limiter.Allow()

	remaining := int(limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   time.Now().Add(period),
	}
	if !allowed {
		result.RetryAfter = time.Until(result.ResetAt)
	}
	return result, nil
}

func (rl *RateLimiter) cleanupFallbackLimiters() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		rl.fallbackMutex.Lock()
		if len(rl.fallbackLimiters) > 1000 {
			slog.Info("cleaning up fallback rate limiters", "count", len(rl.fallbackLimiters))
			rl.fallbackLimiters = make(map[string]*rate.Limiter)
		}
		rl.fallbackMutex.Unlock()
	}
}

// GetStats returns rate limiter statistics.
func (rl *RateLimiter) GetStats() map[string]interface{} {
	rl.fallbackMutex.Lock()
	fallbackCount := len(rl.fallbackLimiters)
	rl.fallbackMutex.Unlock()

	return map[string]interface{}{
		"redis_enabled":     rl.redisClient.IsEnabled(),
		"fallback_limiters": fallbackCount,
		"ip_limit_per_min":  rl.config.IPLimitPerMin,
	}
}
