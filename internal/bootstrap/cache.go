package bootstrap

import (
	"context"
	"fmt"

	"github.com/go-authgate/screenpair/internal/cache"
	"github.com/go-authgate/screenpair/internal/config"
	"github.com/go-authgate/screenpair/internal/metrics"

	"github.com/rs/zerolog/log"
)

const metricsCacheKeyPrefix = "screenpair:metrics:"

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config) metrics.Recorder {
	recorder := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Info().Msg("prometheus metrics initialized")
	} else {
		log.Info().Msg("metrics disabled (using noop implementation)")
	}
	return recorder
}

// initializeMetricsCache initializes the gauge cache based on configuration.
// Returns nils when gauges are not refreshed.
func initializeMetricsCache(
	ctx context.Context,
	cfg *config.Config,
) (cache.Cache[int64], func() error, error) {
	if !cfg.MetricsEnabled || !cfg.MetricsGaugeUpdateEnabled {
		return nil, nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.CacheInitTimeout)
	defer cancel()

	opts := cache.RedisOptions{
		Addr:      cfg.RedisAddr,
		Password:  cfg.RedisPassword,
		DB:        cfg.RedisDB,
		KeyPrefix: metricsCacheKeyPrefix,
	}

	switch cfg.MetricsCacheType {
	case config.MetricsCacheTypeRedisAside:
		c, err := cache.NewRueidisAsideCache[int64](
			opts,
			cfg.MetricsCacheClientTTL,
			cfg.MetricsCacheSizePerConn,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis-aside metrics cache: %w", err)
		}
		if err := c.Health(ctx); err != nil {
			_ = c.Close()
			return nil, nil, fmt.Errorf("redis-aside metrics cache unreachable: %w", err)
		}
		log.Info().
			Str("addr", cfg.RedisAddr).
			Int("db", cfg.RedisDB).
			Dur("client_ttl", cfg.MetricsCacheClientTTL).
			Int("cache_size_per_conn_mb", cfg.MetricsCacheSizePerConn).
			Msg("metrics cache: redis-aside")
		return c, c.Close, nil

	case config.MetricsCacheTypeRedis:
		c, err := cache.NewRueidisCache[int64](ctx, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis metrics cache: %w", err)
		}
		log.Info().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Msg("metrics cache: redis")
		return c, c.Close, nil

	default: // memory
		c := cache.NewMemoryCache[int64]()
		log.Info().Msg("metrics cache: memory (single instance only)")
		return c, c.Close, nil
	}
}
