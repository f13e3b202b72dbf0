package bootstrap

import (
	"github.com/go-authgate/screenpair/internal/config"
	"github.com/go-authgate/screenpair/internal/metrics"
	"github.com/go-authgate/screenpair/internal/services"
	"github.com/go-authgate/screenpair/internal/store"
)

// serviceSet holds all business services
type serviceSet struct {
	audit   *services.AuditService
	user    *services.UserService
	screen  *services.ScreenService
	pairing *services.PairingService
	device  *services.DeviceBindingService
}

// initializeServices creates all business logic services
func initializeServices(
	cfg *config.Config,
	db *store.Store,
	recorder metrics.Recorder,
) serviceSet {
	// Audit service (required by other services)
	auditService := services.NewAuditService(db, cfg.EnableAuditLogging, cfg.AuditLogBufferSize)

	return serviceSet{
		audit:   auditService,
		user:    services.NewUserService(db, auditService, recorder),
		screen:  services.NewScreenService(db, cfg, auditService),
		pairing: services.NewPairingService(db, cfg, auditService, recorder),
		device:  services.NewDeviceBindingService(db, cfg, auditService, recorder),
	}
}
