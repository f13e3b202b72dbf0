package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-authgate/screenpair/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterRedis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// RateLimitConfig holds the configuration for request throttling
type RateLimitConfig struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration // Only used by the memory store

	// StoreType is config.RateLimitStoreMemory or config.RateLimitStoreRedis
	StoreType string
	// Name separates the counters of different limiters sharing one store
	Name string

	// RedisClient is required when StoreType is redis
	RedisClient redis.UniversalClient
}

// NewRateLimiter creates a per-IP request limiter with a memory or redis backend
func NewRateLimiter(cfg RateLimitConfig) (gin.HandlerFunc, error) {
	if cfg.RequestsPerMinute <= 0 {
		return nil, fmt.Errorf("requests per minute must be positive, got %d", cfg.RequestsPerMinute)
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = limiter.DefaultCleanUpInterval
	}

	rate := limiter.Rate{
		Period: time.Minute,
		Limit:  int64(cfg.RequestsPerMinute),
	}

	prefix := "ratelimit"
	if cfg.Name != "" {
		prefix += ":" + cfg.Name
	}

	var store limiter.Store
	switch cfg.StoreType {
	case config.RateLimitStoreRedis:
		if cfg.RedisClient == nil {
			return nil, fmt.Errorf("redis rate limit store requires a redis client")
		}
		var err error
		store, err = limiterRedis.NewStoreWithOptions(cfg.RedisClient, limiter.StoreOptions{
			Prefix:          prefix,
			CleanUpInterval: cfg.CleanupInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}

	case config.RateLimitStoreMemory, "":
		store = memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          prefix,
			CleanUpInterval: cfg.CleanupInterval,
		})

	default:
		return nil, fmt.Errorf("unknown rate limit store %q", cfg.StoreType)
	}

	instance := limiter.New(store, rate)

	return mgin.NewMiddleware(instance, mgin.WithLimitReachedHandler(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":             "rate_limit_exceeded",
			"error_description": "Too many requests. Please try again later.",
		})
	})), nil
}

// NewMemoryRateLimiter creates an in-memory rate limiter (single instance)
func NewMemoryRateLimiter(requestsPerMinute int) (gin.HandlerFunc, error) {
	return NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: requestsPerMinute,
		StoreType:         config.RateLimitStoreMemory,
		CleanupInterval:   5 * time.Minute,
	})
}
