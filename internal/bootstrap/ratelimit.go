package bootstrap

import (
	"fmt"

	"github.com/go-authgate/screenpair/internal/config"
	"github.com/go-authgate/screenpair/internal/middleware"
	"github.com/go-authgate/screenpair/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const activationLimiterPrefix = "screenpair"

// rateLimitMiddlewares holds request throttling middlewares per endpoint group
type rateLimitMiddlewares struct {
	login    gin.HandlerFunc
	activate gin.HandlerFunc
	player   gin.HandlerFunc
}

// setupRateLimiting configures request throttling based on configuration.
// redisClient is nil unless a redis store is configured.
func setupRateLimiting(cfg *config.Config, redisClient *redis.Client) (rateLimitMiddlewares, error) {
	if !cfg.EnableRateLimit {
		log.Info().Msg("request rate limiting disabled")
		noOpMiddleware := func(c *gin.Context) { c.Next() }
		return rateLimitMiddlewares{
			login:    noOpMiddleware,
			activate: noOpMiddleware,
			player:   noOpMiddleware,
		}, nil
	}
	return createRateLimiters(cfg, redisClient)
}

// createRateLimiters creates throttling middlewares for all endpoint groups
func createRateLimiters(cfg *config.Config, redisClient *redis.Client) (rateLimitMiddlewares, error) {
	log.Info().Str("store", cfg.RateLimitStore).Msg("request rate limiting enabled")

	var client redis.UniversalClient
	if redisClient != nil {
		client = redisClient
	}

	createLimiter := func(requestsPerMinute int, name string) (gin.HandlerFunc, error) {
		limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: requestsPerMinute,
			CleanupInterval:   cfg.RateLimitCleanupInterval,
			StoreType:         cfg.RateLimitStore,
			Name:              name,
			RedisClient:       client,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s rate limiter: %w", name, err)
		}
		return limiter, nil
	}

	var (
		limiters rateLimitMiddlewares
		err      error
	)
	if limiters.login, err = createLimiter(cfg.LoginRateLimit, "login"); err != nil {
		return limiters, err
	}
	if limiters.activate, err = createLimiter(cfg.ActivateRateLimit, "activate"); err != nil {
		return limiters, err
	}
	if limiters.player, err = createLimiter(cfg.PlayerRateLimit, "player"); err != nil {
		return limiters, err
	}
	return limiters, nil
}

// initializeActivationLimiter builds the failed-attempt limiter over the
// configured store. The returned closer releases the memory store.
func initializeActivationLimiter(
	cfg *config.Config,
	redisClient *redis.Client,
) (*ratelimit.Limiter, func() error) {
	limiterConfig := ratelimit.Config{
		MaxAttempts:   cfg.ActivationMaxAttempts,
		BlockDuration: cfg.ActivationBlockDuration,
	}

	if cfg.ActivationLimitStore == config.RateLimitStoreRedis && redisClient != nil {
		log.Info().
			Int("max_attempts", cfg.ActivationMaxAttempts).
			Dur("block_duration", cfg.ActivationBlockDuration).
			Msg("activation failure limiter: redis")
		return ratelimit.New(ratelimit.NewRedisStore(redisClient, activationLimiterPrefix), limiterConfig), nil
	}

	store := ratelimit.NewMemoryStore()
	log.Info().
		Int("max_attempts", cfg.ActivationMaxAttempts).
		Dur("block_duration", cfg.ActivationBlockDuration).
		Msg("activation failure limiter: memory (single instance only)")
	return ratelimit.New(store, limiterConfig), store.Close
}
