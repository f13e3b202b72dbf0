package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/go-authgate/screenpair/internal/config"
	"github.com/go-authgate/screenpair/internal/logger"
	"github.com/go-authgate/screenpair/internal/metrics"
	"github.com/go-authgate/screenpair/internal/middleware"
	"github.com/go-authgate/screenpair/internal/store"
	"github.com/go-authgate/screenpair/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	sessionCookieName  = "screenpair_session"
	healthCheckTimeout = 2 * time.Second
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	db *store.Store,
	h handlerSet,
	recorder metrics.Recorder,
	rateLimiters rateLimitMiddlewares,
) *gin.Engine {
	setupGinMode(cfg)
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Warn().Err(err).Strs("proxies", cfg.TrustedProxies).Msg("invalid trusted proxies")
	}

	// Setup middleware
	r.Use(metrics.HTTPMetricsMiddleware(recorder))
	r.Use(logger.GinLogger(), gin.Recovery())
	r.Use(util.IPMiddleware())

	setupSessionMiddleware(r, cfg)

	r.GET("/health", createHealthCheckHandler(db))
	setupMetricsEndpoint(r, cfg)

	setupAllRoutes(r, h, rateLimiters)

	logServerStartup(cfg)
	return r
}

// setupSessionMiddleware configures session handling middleware
func setupSessionMiddleware(r *gin.Engine, cfg *config.Config) {
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionCookieName, sessionStore))
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		log.Info().Msg("prometheus metrics endpoint disabled")
	case cfg.MetricsToken != "":
		log.Info().Msg("prometheus metrics enabled at /metrics with bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Info().Msg("prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(r *gin.Engine, h handlerSet, rateLimiters rateLimitMiddlewares) {
	api := r.Group("/api")

	// Public routes
	api.POST("/auth/login", rateLimiters.login, h.auth.Login)
	api.POST("/screens/activate", rateLimiters.activate, h.pairing.Activate)

	player := api.Group("/player")
	{
		player.POST("/activate", rateLimiters.activate, h.pairing.PlayerActivate)
		player.POST("/verify", rateLimiters.player, h.pairing.Verify)
		player.GET("/:id/activation-code", rateLimiters.player, h.pairing.CurrentCode)
		player.GET("/:id/activation-code/qr.png", rateLimiters.player, h.pairing.CurrentCodeQR)
		player.GET("/:id/check-activation", rateLimiters.player, h.pairing.CheckActivation)
		player.GET("/devices/:deviceId/claim", rateLimiters.player, h.pairing.ClaimDevice)
	}

	// Device token routes
	api.POST(
		"/screens/:id/heartbeat",
		middleware.RequireDeviceToken(h.services.pairing),
		h.pairing.Heartbeat,
	)

	// Owner routes (require login + CSRF)
	owner := api.Group("")
	owner.Use(middleware.RequireAuth(), middleware.CSRFMiddleware())
	{
		owner.POST("/auth/logout", h.auth.Logout)
		owner.GET("/auth/me", h.auth.Me)
		owner.GET("/screens", h.screen.ListScreens)
		owner.POST("/screens", h.screen.CreateScreen)
		owner.POST("/screens/:id/activation-codes", h.screen.IssueActivationCode)
		owner.GET("/screens/:id/devices", h.screen.ListDevices)
		owner.POST("/screens/:id/bind-device", h.screen.BindDevice)
		owner.DELETE("/device-bindings/:id", h.screen.RevokeBinding)
	}

	// Admin routes (require admin role)
	admin := api.Group("/admin")
	admin.Use(
		middleware.RequireAuth(),
		middleware.RequireAdmin(h.services.user),
		middleware.CSRFMiddleware(),
	)
	{
		admin.GET("/audit-logs", h.audit.ListAuditLogs)
	}
}

// createHealthCheckHandler creates health check endpoint handler
//
//	@Summary		Health check
//	@Description	Check service and database health
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	object{status=string,database=string}	"Service is healthy"
//	@Failure		503	{object}	object{status=string,database=string}	"Database unavailable"
//	@Router			/health [get]
func createHealthCheckHandler(db *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		if err := db.Health(ctx); err != nil {
			log.Error().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": "connected",
		})
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config) {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
		return
	}
	gin.SetMode(gin.DebugMode)
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config) {
	log.Info().
		Str("addr", cfg.ServerAddr).
		Str("base_url", cfg.BaseURL).
		Bool("production", cfg.IsProduction).
		Msg("screenpair server starting")
	log.Info().Msg("default user: admin (check logs for password if first run)")
}
