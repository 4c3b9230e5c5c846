package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nightowl-labs/safescore/internal/cache"
	"github.com/nightowl-labs/safescore/internal/errors"
	"github.com/nightowl-labs/safescore/internal/monitoring"
	"github.com/nightowl-labs/safescore/internal/oracle"
	"github.com/nightowl-labs/safescore/internal/ratelimit"
	"github.com/nightowl-labs/safescore/internal/resilience"
	"github.com/nightowl-labs/safescore/internal/scoring"
)

type serverConfig struct {
	Port           string
	OracleEndpoint string
	OracleToken    string
	OracleFallback bool
	RedisAddr      string
	RedisPassword  string
	CacheTTL       time.Duration
	RateLimit      ratelimit.Config
}

func loadConfig() serverConfig {
	rateCfg := ratelimit.DefaultConfig()
	return serverConfig{
		Port:           getEnvOrDefault("PORT", "8080"),
		OracleEndpoint: os.Getenv("ORACLE_ENDPOINT"),
		OracleToken:    os.Getenv("ORACLE_TOKEN"),
		OracleFallback: os.Getenv("ORACLE_FALLBACK") == "true",
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		CacheTTL:       getEnvDuration("CACHE_TTL", 15*time.Minute),
		RateLimit:      rateCfg,
	}
}

// serverDeps collects everything setupRouter wires together, so tests can
// build a router without touching the environment.
type serverDeps struct {
	engine       *scoring.Engine
	oracleClient *oracle.Client
	metrics      *monitoring.Metrics
	logger       *monitoring.Logger
	cache        *cache.Cache
	limiter      *ratelimit.RateLimiter
	redis        *ratelimit.RedisClient
}

func buildDeps(cfg serverConfig) serverDeps {
	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()

	redisClient, err := ratelimit.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, 0)
	if err != nil {
		slog.Warn("redis unavailable, continuing with in-memory rate limiting", "error", err)
	}
	limiter := ratelimit.NewRateLimiter(redisClient, cfg.RateLimit)

	var oracleClient *oracle.Client
	var predictor scoring.Predictor
	if cfg.OracleEndpoint != "" {
		oracleClient = oracle.NewClient(cfg.OracleEndpoint, cfg.OracleToken)
		predictor = oracle.NewResilientPredictor(oracleClient, appMetrics)
		slog.Info("oracle predictor configured", "endpoint", cfg.OracleEndpoint)
	} else {
		slog.Info("no oracle endpoint configured, using rule-based route analysis only")
	}

	engine := scoring.NewEngine(predictor, scoring.Config{OracleFallback: cfg.OracleFallback})

	return serverDeps{
		engine:       engine,
		oracleClient: oracleClient,
		metrics:      appMetrics,
		logger:       appLogger,
		cache:        cache.NewCache(cfg.CacheTTL),
		limiter:      limiter,
		redis:        redisClient,
	}
}

func setupRouter(deps serverDeps) *gin.Engine {
	r := gin.New()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))

	r.Use(monitoring.MonitoringMiddleware(deps.metrics, deps.logger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())
	r.Use(ratelimit.RateLimitByIP(deps.limiter))
	r.Use(deps.cache.Middleware(deps.metrics))

	r.POST("/score", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		start := time.Now()

		var input scoring.SafetyScoreInput
		if err := c.ShouldBindJSON(&input); err != nil {
			appErr := errors.NewValidationError("invalid request body: " + err.Error())
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		deps.metrics.IncrementScoreRequests()

		result, err := deps.engine.ComputeSafetyScore(ctx, input)
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		deps.logger.ScoreLogger(string(input.TransportMode), len(input.RouteWaypoints),
			result.TotalScore, result.Risk, time.Since(start))

		c.JSON(http.StatusOK, gin.H{
			"score":           result.TotalScore,
			"risk":            result.Risk,
			"safety_level":    scoring.SafetyLevel(result.TotalScore),
			"description":     scoring.SafetyDescription(result.TotalScore),
			"recommendations": scoring.Recommendations(result),
			"breakdown":       result.Breakdown,
			"weights":         result.Weights,
		})
	})

	// Static reference data for clients rendering the score bands.
	r.GET("/score/levels", func(c *gin.Context) {
		levels := []gin.H{}
		for _, min := range []int{90, 70, 50, 30, 0} {
			levels = append(levels, gin.H{
				"min_score":   min,
				"level":       scoring.SafetyLevel(min),
				"description": scoring.SafetyDescription(min),
			})
		}
		c.JSON(http.StatusOK, gin.H{"levels": levels})
	})

	r.GET("/health", func(c *gin.Context) {
		services := resilience.GetAllServiceHealth()

		healthResponse := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   "1.0.0",
			"services":  services,
			"metrics":   deps.metrics.GetStats(),
		}

		for _, service := range services {
			if service.Level == resilience.LevelEmergency {
				healthResponse["status"] = "degraded"
				c.JSON(http.StatusServiceUnavailable, healthResponse)
				return
			}
		}

		c.JSON(http.StatusOK, healthResponse)
	})

	r.GET("/health/services", func(c *gin.Context) {
		response := gin.H{
			"services":         resilience.GetAllServiceHealth(),
			"circuit_breakers": resilience.GetCircuitBreakerStats(),
			"rate_limiter":     deps.limiter.GetStats(),
			"timestamp":        time.Now().Format(time.RFC3339),
		}
		if deps.oracleClient != nil {
			response["oracle_pool"] = deps.oracleClient.GetPoolStats()
		}
		c.JSON(http.StatusOK, response)
	})

	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, deps.metrics.GetStats())
	})

	r.GET("/cache/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, deps.cache.Stats())
	})

	return r
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := loadConfig()
	deps := buildDeps(cfg)

	if deps.oracleClient != nil {
		resilience.RegisterService(oracle.ServiceName, func(ctx context.Context) error {
			// No dedicated health endpoint on the oracle; availability is
			// inferred from the rolling error rate.
			return nil
		})
		resilience.RegisterServicePolicy(oracle.ServiceName, resilience.SlowRetryPolicy)
		resilience.StartHealthChecks(context.Background())
	}

	r := setupRouter(deps)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if deps.oracleClient != nil {
		deps.oracleClient.Close()
	}
	if deps.redis != nil {
		if err := deps.redis.Close(); err != nil {
			slog.Error("Failed to close redis client", "error", err)
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return d
}
