package bootstrap

import (
	"context"
	"fmt"

	"github.com/go-authgate/screenpair/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// initializeRedisClient connects the go-redis client shared by request
// throttling and the activation failure limiter. Returns nil when neither
// is configured with the redis store.
func initializeRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if !cfg.NeedsRedis() {
		return nil, nil //nolint:nilnil // redis client not needed in this configuration
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, cfg.RedisConnTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}

	log.Info().
		Str("addr", cfg.RedisAddr).
		Int("db", cfg.RedisDB).
		Msg("redis client initialized")
	return client, nil
}
