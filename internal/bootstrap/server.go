package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-authgate/screenpair/internal/cache"
	"github.com/go-authgate/screenpair/internal/config"
	"github.com/go-authgate/screenpair/internal/metrics"
	"github.com/go-authgate/screenpair/internal/services"
	"github.com/go-authgate/screenpair/internal/store"

	"github.com/appleboy/graceful"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	serverShutdownTimeout = 5 * time.Second
	auditShutdownTimeout  = 10 * time.Second
	auditCleanupInterval  = 24 * time.Hour
	auditCleanupTimeout   = time.Minute
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("failed to start server")
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server) {
	m.AddShutdownJob(func() error {
		log.Info().Msg("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("server forced to shutdown")
			return err
		}

		log.Info().Msg("server exited")
		return nil
	})
}

// addRedisClientShutdownJob adds Redis client shutdown handler
func addRedisClientShutdownJob(m *graceful.Manager, redisClient *redis.Client) {
	if redisClient == nil {
		return
	}
	addCloserJob(m, "redis client", redisClient.Close)
}

// addAuditServiceShutdownJob flushes buffered audit entries on shutdown
func addAuditServiceShutdownJob(m *graceful.Manager, auditService *services.AuditService) {
	m.AddShutdownJob(func() error {
		log.Info().Msg("shutting down audit service...")
		ctx, cancel := context.WithTimeout(context.Background(), auditShutdownTimeout)
		defer cancel()

		if err := auditService.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("error shutting down audit service")
			return err
		}
		return nil
	})
}

// addAuditLogCleanupJob adds periodic audit log cleanup job
func addAuditLogCleanupJob(
	m *graceful.Manager,
	cfg *config.Config,
	auditService *services.AuditService,
) {
	if !cfg.EnableAuditLogging || cfg.AuditLogRetention <= 0 {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(auditCleanupInterval)
		defer ticker.Stop()

		// Run cleanup immediately on startup
		cleanupAuditLogs(ctx, auditService, cfg.AuditLogRetention)

		for {
			select {
			case <-ticker.C:
				cleanupAuditLogs(ctx, auditService, cfg.AuditLogRetention)
			case <-ctx.Done():
				return nil
			}
		}
	})
}

func cleanupAuditLogs(ctx context.Context, auditService *services.AuditService, retention time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, auditCleanupTimeout)
	defer cancel()

	deleted, err := auditService.CleanupOldLogs(ctx, retention)
	if err != nil {
		log.Error().Err(err).Msg("failed to cleanup old audit logs")
		return
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Msg("cleaned up old audit logs")
	}
}

// addMetricsGaugeUpdateJob adds periodic metrics gauge update job
func addMetricsGaugeUpdateJob(
	m *graceful.Manager,
	cfg *config.Config,
	db *store.Store,
	recorder metrics.Recorder,
	metricsCache cache.Cache[int64],
) {
	if !cfg.MetricsEnabled || !cfg.MetricsGaugeUpdateEnabled || metricsCache == nil {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(cfg.MetricsGaugeUpdateInterval)
		defer ticker.Stop()

		cacheWrapper := metrics.NewCacheWrapper(db, metricsCache)

		// Update immediately on startup
		cacheWrapper.UpdateGauges(ctx, recorder, cfg.OnlineWindow, cfg.MetricsGaugeUpdateInterval)

		for {
			select {
			case <-ticker.C:
				cacheWrapper.UpdateGauges(ctx, recorder, cfg.OnlineWindow, cfg.MetricsGaugeUpdateInterval)
			case <-ctx.Done():
				return nil
			}
		}
	})
}

// addCloserJob releases a resource on shutdown. A nil closer is skipped.
func addCloserJob(m *graceful.Manager, name string, closer func() error) {
	if closer == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := closer(); err != nil {
			log.Error().Err(err).Str("resource", name).Msg("error closing resource")
			return err
		}
		log.Info().Str("resource", name).Msg("resource closed")
		return nil
	})
}
