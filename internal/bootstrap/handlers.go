package bootstrap

import (
	"github.com/go-authgate/screenpair/internal/config"
	"github.com/go-authgate/screenpair/internal/handlers"
	"github.com/go-authgate/screenpair/internal/metrics"
	"github.com/go-authgate/screenpair/internal/ratelimit"
)

// handlerSet holds all HTTP handlers and the services middleware needs
type handlerSet struct {
	auth     *handlers.AuthHandler
	screen   *handlers.ScreenHandler
	pairing  *handlers.PairingHandler
	audit    *handlers.AuditHandler
	services serviceSet
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	cfg *config.Config,
	s serviceSet,
	limiter *ratelimit.Limiter,
	recorder metrics.Recorder,
) handlerSet {
	return handlerSet{
		auth:     handlers.NewAuthHandler(s.user, s.audit),
		screen:   handlers.NewScreenHandler(s.screen, s.pairing, s.device),
		pairing:  handlers.NewPairingHandler(s.pairing, s.device, s.audit, limiter, recorder, cfg),
		audit:    handlers.NewAuditHandler(s.audit),
		services: s,
	}
}
