package bootstrap

import (
	"context"
	"net/http"

	"github.com/go-authgate/screenpair/internal/cache"
	"github.com/go-authgate/screenpair/internal/config"
	"github.com/go-authgate/screenpair/internal/metrics"
	"github.com/go-authgate/screenpair/internal/ratelimit"
	"github.com/go-authgate/screenpair/internal/store"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB                 *store.Store
	MetricsRecorder    metrics.Recorder
	MetricsCache       cache.Cache[int64]
	MetricsCacheCloser func() error
	RedisClient        *redis.Client

	// Failure limiter guarding code redemption and device claims
	ActivationLimiter       *ratelimit.Limiter
	ActivationLimiterCloser func() error

	// Services
	Services serviceSet

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	app := &Application{Config: cfg}
	ctx := context.Background()

	// Phase 1: Validate configuration
	if err := validateAllConfiguration(cfg); err != nil {
		return err
	}

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(ctx); err != nil {
		return err
	}

	// Phase 3: Initialize business layer
	app.initializeBusinessLayer()

	// Phase 4: Initialize HTTP layer
	if err := app.initializeHTTPLayer(); err != nil {
		return err
	}

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, metrics, cache, and Redis
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	// Database
	app.DB, err = initializeDatabase(ctx, app.Config)
	if err != nil {
		return err
	}

	// Metrics
	app.MetricsRecorder = initializeMetrics(app.Config)
	app.MetricsCache, app.MetricsCacheCloser, err = initializeMetricsCache(ctx, app.Config)
	if err != nil {
		return err
	}

	// Redis (request throttling and failure limiter)
	app.RedisClient, err = initializeRedisClient(ctx, app.Config)
	if err != nil {
		return err
	}

	app.ActivationLimiter, app.ActivationLimiterCloser = initializeActivationLimiter(
		app.Config,
		app.RedisClient,
	)
	return nil
}

// initializeBusinessLayer sets up services
func (app *Application) initializeBusinessLayer() {
	app.Services = initializeServices(app.Config, app.DB, app.MetricsRecorder)
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() error {
	app.HandlerSet = initializeHandlers(
		app.Config,
		app.Services,
		app.ActivationLimiter,
		app.MetricsRecorder,
	)

	rateLimiters, err := setupRateLimiting(app.Config, app.RedisClient)
	if err != nil {
		return err
	}

	app.Router = setupRouter(
		app.Config,
		app.DB,
		app.HandlerSet,
		app.MetricsRecorder,
		rateLimiters,
	)

	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	// Add jobs
	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server)
	addAuditServiceShutdownJob(m, app.Services.audit)
	addAuditLogCleanupJob(m, app.Config, app.Services.audit)
	addMetricsGaugeUpdateJob(m, app.Config, app.DB, app.MetricsRecorder, app.MetricsCache)
	addCloserJob(m, "metrics cache", app.MetricsCacheCloser)
	addCloserJob(m, "activation limiter store", app.ActivationLimiterCloser)
	addRedisClientShutdownJob(m, app.RedisClient)

	// Wait for graceful shutdown
	<-m.Done()
}
