package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/screenpair/internal/config"
	"github.com/go-authgate/screenpair/internal/metrics"
	"github.com/go-authgate/screenpair/internal/models"
	"github.com/go-authgate/screenpair/internal/store"

	"github.com/rs/zerolog/log"
)

const defaultPendingLifetime = time.Hour

// ClaimResult is returned to a player polling its own device id.
type ClaimResult struct {
	Claimed     bool
	ScreenID    uint
	BindingID   uint
	DeviceToken string
}

// DeviceBindingService implements the device-first flow: an operator scans
// the QR code a player shows for its device id and assigns it to a screen,
// then the player claims its token.
type DeviceBindingService struct {
	store   *store.Store
	config  *config.Config
	audit   *AuditService
	metrics metrics.Recorder
	now     func() time.Time
}

func NewDeviceBindingService(
	s *store.Store,
	cfg *config.Config,
	audit *AuditService,
	m metrics.Recorder,
) *DeviceBindingService {
	return &DeviceBindingService{
		store:   s,
		config:  cfg,
		audit:   audit,
		metrics: m,
		now:     utcNow,
	}
}

func (s *DeviceBindingService) pendingLifetime() time.Duration {
	if s.config.PendingBindingExpiration > 0 {
		return s.config.PendingBindingExpiration
	}
	return defaultPendingLifetime
}

// BindDevice assigns deviceID to one of ownerID's screens. Any earlier
// unclaimed assignment of the same device is replaced. rawDeviceID may be
// the bare id or the scanned DEVICE:<id> payload.
func (s *DeviceBindingService) BindDevice(
	ctx context.Context,
	ownerID string,
	screenID uint,
	rawDeviceID string,
	deviceInfo string,
) (*models.PendingDeviceBinding, error) {
	deviceID, err := models.NormalizeDeviceID(rawDeviceID)
	if err != nil {
		return nil, ErrInvalidDeviceID
	}

	if _, err := s.store.GetOwnedScreen(ctx, screenID, ownerID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrScreenNotFound
		}
		return nil, err
	}

	// The token is minted now and handed out on claim
	minted, err := newBinding(screenID, deviceInfo, models.BindingFlowDeviceQR)
	if err != nil {
		return nil, err
	}

	now := s.now()
	pending := &models.PendingDeviceBinding{
		DeviceID:    deviceID,
		ScreenID:    screenID,
		DeviceToken: minted.DeviceToken,
		TokenHash:   minted.TokenHash,
		DeviceInfo:  minted.DeviceInfo,
		CreatedBy:   ownerID,
		ExpiresAt:   now.Add(s.pendingLifetime()),
		CreatedAt:   now,
	}
	if err := s.store.ReplacePendingDeviceBinding(ctx, pending); err != nil {
		return nil, fmt.Errorf("failed to store pending device binding: %w", err)
	}

	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventDeviceBindRequested,
		Severity:     models.SeverityInfo,
		ActorUserID:  ownerID,
		ResourceType: models.ResourcePendingBinding,
		ResourceID:   formatID(pending.ID),
		Action:       "Device assigned to screen",
		Details:      models.AuditDetails{"device_id": deviceID, "screen_id": screenID},
		Success:      true,
	})
	log.Info().
		Str("device_id", deviceID).
		Uint("screen_id", screenID).
		Msg("device assigned, awaiting claim")

	return pending, nil
}

// ClaimDevice hands the player its token once an operator has assigned it.
// It reports Claimed=false while nothing is pending, after the assignment
// expired, and after the token was already picked up.
func (s *DeviceBindingService) ClaimDevice(ctx context.Context, rawDeviceID string) (*ClaimResult, error) {
	deviceID, err := models.NormalizeDeviceID(rawDeviceID)
	if err != nil {
		return nil, ErrInvalidDeviceID
	}

	for attempt := 1; ; attempt++ {
		pending, err := s.store.GetUnclaimedPendingBinding(ctx, deviceID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return &ClaimResult{}, nil
			}
			return nil, fmt.Errorf("failed to load pending device binding: %w", err)
		}

		now := s.now()
		if pending.IsExpiredAt(now) {
			return &ClaimResult{}, nil
		}

		binding := &models.DeviceBinding{
			ScreenID:    pending.ScreenID,
			DeviceToken: pending.DeviceToken,
			TokenHash:   pending.TokenHash,
			DeviceInfo:  pending.DeviceInfo,
			Flow:        models.BindingFlowDeviceQR,
		}

		err = s.store.ClaimPendingDeviceBinding(ctx, pending, binding, now)
		switch {
		case err == nil:
			s.recordClaim(ctx, deviceID, binding)
			return &ClaimResult{
				Claimed:     true,
				ScreenID:    binding.ScreenID,
				BindingID:   binding.ID,
				DeviceToken: binding.DeviceToken,
			}, nil
		case errors.Is(err, store.ErrPendingAlreadyClaimed):
			return &ClaimResult{}, nil
		case errors.Is(err, store.ErrBindingConflict) && attempt < maxInstallAttempts:
			log.Debug().Uint("screen_id", pending.ScreenID).Msg("binding conflict, retrying claim")
			continue
		default:
			return nil, fmt.Errorf("failed to claim device binding: %w", err)
		}
	}
}

func (s *DeviceBindingService) recordClaim(ctx context.Context, deviceID string, binding *models.DeviceBinding) {
	s.metrics.RecordActivationAttempt(models.BindingFlowDeviceQR, "success")
	s.metrics.RecordDeviceBound(models.BindingFlowDeviceQR)
	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventDeviceClaimed,
		Severity:     models.SeverityInfo,
		ResourceType: models.ResourceDeviceBinding,
		ResourceID:   formatID(binding.ID),
		Action:       "Device claimed its binding",
		Details:      models.AuditDetails{"device_id": deviceID, "screen_id": binding.ScreenID},
		Success:      true,
	})
	log.Info().
		Str("device_id", deviceID).
		Uint("screen_id", binding.ScreenID).
		Uint("binding_id", binding.ID).
		Msg("device claimed")
}
