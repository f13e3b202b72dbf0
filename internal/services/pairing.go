package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-authgate/screenpair/internal/config"
	"github.com/go-authgate/screenpair/internal/metrics"
	"github.com/go-authgate/screenpair/internal/models"
	"github.com/go-authgate/screenpair/internal/store"
	"github.com/go-authgate/screenpair/internal/util"

	"github.com/rs/zerolog/log"
)

const (
	// ActivationCodeLength is the number of base-36 characters in a code.
	ActivationCodeLength = 6

	pollingTokenLength   = 32
	maxCodeGenAttempts   = 5
	maxInstallAttempts   = 2
	maxDeviceInfoLength  = 500
	defaultCodeLifetime  = time.Hour
	defaultRefreshBefore = 5 * time.Minute
)

// ActivationStatus is returned to a client polling for redemption of a code it displayed.
type ActivationStatus struct {
	Activated   bool
	DeviceToken string
}

// VerifyResult reports whether a stored device token still binds the player to its screen.
type VerifyResult struct {
	Bound     bool
	BindingID uint
	Playable  bool
}

// PairingService issues activation codes, redeems them into device bindings
// and answers player verification.
type PairingService struct {
	store   *store.Store
	config  *config.Config
	audit   *AuditService
	metrics metrics.Recorder
	now     func() time.Time
}

func NewPairingService(
	s *store.Store,
	cfg *config.Config,
	audit *AuditService,
	m metrics.Recorder,
) *PairingService {
	return &PairingService{
		store:   s,
		config:  cfg,
		audit:   audit,
		metrics: m,
		now:     utcNow,
	}
}

// NormalizeCode uppercases and trims a user-entered activation code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *PairingService) codeLifetime() time.Duration {
	if s.config.ActivationCodeExpiration > 0 {
		return s.config.ActivationCodeExpiration
	}
	return defaultCodeLifetime
}

func (s *PairingService) refreshBefore() time.Duration {
	if s.config.ActivationCodeRefreshBefore > 0 {
		return s.config.ActivationCodeRefreshBefore
	}
	return defaultRefreshBefore
}

// IssueCode creates a new activation code for screenID. Ownership is checked
// by the caller; issuedBy is empty when a player requested the code.
func (s *PairingService) IssueCode(
	ctx context.Context,
	screenID uint,
	issuedBy string,
) (*models.ActivationCode, error) {
	now := s.now()

	code, err := s.uniqueCode(ctx, now)
	if err != nil {
		return nil, err
	}
	pollingToken, err := util.CryptoRandomString(pollingTokenLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate polling token: %w", err)
	}

	ac := &models.ActivationCode{
		ScreenID:     screenID,
		Code:         code,
		ExpiresAt:    now.Add(s.codeLifetime()),
		CreatedBy:    issuedBy,
		PollingToken: pollingToken,
	}
	if err := s.store.CreateActivationCode(ctx, ac); err != nil {
		return nil, fmt.Errorf("failed to store activation code: %w", err)
	}

	source := metrics.SourceOwner
	if issuedBy == "" {
		source = metrics.SourcePlayer
	}
	s.metrics.RecordActivationCodeIssued(source)
	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventActivationCodeIssued,
		Severity:     models.SeverityInfo,
		ActorUserID:  issuedBy,
		ResourceType: models.ResourceScreen,
		ResourceID:   formatID(screenID),
		Action:       "Activation code issued",
		Details:      models.AuditDetails{"source": source, "expires_at": ac.ExpiresAt},
		Success:      true,
	})

	return ac, nil
}

// uniqueCode draws codes until one does not shadow a still-redeemable code.
func (s *PairingService) uniqueCode(ctx context.Context, now time.Time) (string, error) {
	for range maxCodeGenAttempts {
		code, err := util.RandomCode(util.Base36Alphabet, ActivationCodeLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate activation code: %w", err)
		}
		existing, err := s.store.GetActivationCodeByCode(ctx, code)
		if errors.Is(err, store.ErrRecordNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check activation code: %w", err)
		}
		if !existing.IsRedeemableAt(now) {
			return code, nil
		}
	}
	return "", errors.New("failed to generate a unique activation code")
}

// CurrentCode returns the screen's newest live code, issuing a fresh one when
// none exists or the newest is close to expiry.
func (s *PairingService) CurrentCode(ctx context.Context, screenID uint) (*models.ActivationCode, error) {
	if _, err := s.store.GetScreen(ctx, screenID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrScreenNotFound
		}
		return nil, err
	}

	latest, err := s.store.GetLatestUnusedActivationCode(ctx, screenID)
	switch {
	case err == nil:
		if latest.ExpiresAt.Sub(s.now()) >= s.refreshBefore() {
			return latest, nil
		}
	case !errors.Is(err, store.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to load activation code: %w", err)
	}

	return s.IssueCode(ctx, screenID, "")
}

// RedeemCode consumes code and binds a new device to the code's screen,
// revoking whichever device was bound before. expectedScreenID is set by
// the player endpoint, which also names the screen it displays.
// Rejections are returned as *PairingError.
func (s *PairingService) RedeemCode(
	ctx context.Context,
	code string,
	deviceInfo string,
	expectedScreenID *uint,
) (*models.DeviceBinding, error) {
	binding, err := s.redeem(ctx, NormalizeCode(code), deviceInfo, expectedScreenID)
	if err != nil {
		if pe, ok := AsPairingError(err); ok {
			s.metrics.RecordActivationAttempt(models.BindingFlowCode, string(pe.Kind))
			log.Debug().Str("reason", string(pe.Kind)).Msg("activation rejected")
			s.audit.Log(ctx, AuditLogEntry{
				EventType:    models.EventActivationRejected,
				Severity:     models.SeverityWarning,
				ResourceType: models.ResourceActivationCode,
				Action:       "Activation rejected",
				Details:      models.AuditDetails{"reason": string(pe.Kind)},
				Success:      false,
				ErrorMessage: pe.Message,
			})
		}
		return nil, err
	}

	s.metrics.RecordActivationAttempt(models.BindingFlowCode, "success")
	s.metrics.RecordDeviceBound(models.BindingFlowCode)
	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventDeviceActivated,
		Severity:     models.SeverityInfo,
		ResourceType: models.ResourceDeviceBinding,
		ResourceID:   formatID(binding.ID),
		Action:       "Device activated with code",
		Details: models.AuditDetails{
			"screen_id":   binding.ScreenID,
			"device_info": binding.DeviceInfo,
		},
		Success: true,
	})
	log.Info().
		Uint("screen_id", binding.ScreenID).
		Uint("binding_id", binding.ID).
		Msg("device activated")

	return binding, nil
}

func (s *PairingService) redeem(
	ctx context.Context,
	code string,
	deviceInfo string,
	expectedScreenID *uint,
) (*models.DeviceBinding, error) {
	if code == "" {
		return nil, ErrCodeNotFound
	}

	for attempt := 1; ; attempt++ {
		ac, err := s.store.GetActivationCodeByCode(ctx, code)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return nil, ErrCodeNotFound
			}
			return nil, fmt.Errorf("failed to load activation code: %w", err)
		}

		now := s.now()
		if expectedScreenID != nil && *expectedScreenID != ac.ScreenID {
			return nil, ErrScreenMismatch
		}
		if ac.IsUsed() {
			return nil, ErrCodeUsed
		}
		if ac.IsExpiredAt(now) {
			return nil, ErrCodeExpired
		}

		binding, err := newBinding(ac.ScreenID, deviceInfo, models.BindingFlowCode)
		if err != nil {
			return nil, err
		}

		err = s.store.RedeemActivationCode(ctx, ac, binding, now)
		switch {
		case err == nil:
			return binding, nil
		case errors.Is(err, store.ErrCodeAlreadyUsed):
			return nil, ErrCodeUsed
		case errors.Is(err, store.ErrBindingConflict) && attempt < maxInstallAttempts:
			// A concurrent redemption for the same screen won the insert; retry on top of it
			log.Debug().Uint("screen_id", ac.ScreenID).Msg("binding conflict, retrying redemption")
			continue
		default:
			return nil, fmt.Errorf("failed to redeem activation code: %w", err)
		}
	}
}

// CheckActivation lets the issuer of a code learn whether it was redeemed.
// The device token is handed out while the code is unexpired and its binding
// is live.
func (s *PairingService) CheckActivation(
	ctx context.Context,
	screenID uint,
	code string,
	pollingToken string,
) (*ActivationStatus, error) {
	ac, err := s.store.GetActivationCodeByCode(ctx, NormalizeCode(code))
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return &ActivationStatus{}, nil
		}
		return nil, fmt.Errorf("failed to load activation code: %w", err)
	}

	if ac.ScreenID != screenID || !util.ConstantTimeEqual(ac.PollingToken, pollingToken) {
		return &ActivationStatus{}, nil
	}
	if !ac.IsUsed() {
		return &ActivationStatus{}, nil
	}

	status := &ActivationStatus{Activated: true}
	if ac.PickupToken == "" {
		return status, nil
	}
	if ac.IsExpiredAt(s.now()) {
		if err := s.store.ClearPickupToken(ctx, ac.ID); err != nil {
			log.Warn().Err(err).Uint("code_id", ac.ID).Msg("failed to clear pickup token")
		}
		return status, nil
	}

	status.DeviceToken = ac.PickupToken
	return status, nil
}

// AuthenticateDevice resolves a device token to its live binding on screenID.
func (s *PairingService) AuthenticateDevice(
	ctx context.Context,
	deviceToken string,
	screenID uint,
) (*models.DeviceBinding, error) {
	if deviceToken == "" {
		return nil, ErrBindingNotFound
	}
	binding, err := s.store.GetLiveBinding(ctx, util.SHA256Hex(deviceToken), screenID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrBindingNotFound
		}
		return nil, fmt.Errorf("failed to load device binding: %w", err)
	}
	return binding, nil
}

// VerifyBinding checks a player's stored token. Unknown and revoked tokens
// yield Bound=false rather than an error.
func (s *PairingService) VerifyBinding(
	ctx context.Context,
	deviceToken string,
	screenID uint,
) (*VerifyResult, error) {
	binding, err := s.AuthenticateDevice(ctx, deviceToken, screenID)
	if errors.Is(err, ErrBindingNotFound) {
		s.metrics.RecordBindingVerification(false)
		return &VerifyResult{}, nil
	}
	if err != nil {
		return nil, err
	}

	playable, err := s.touch(ctx, binding)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordBindingVerification(true)
	return &VerifyResult{
		Bound:     true,
		BindingID: binding.ID,
		Playable:  playable,
	}, nil
}

// Heartbeat records that the bound player is alive and reports whether the
// screen may play content.
func (s *PairingService) Heartbeat(ctx context.Context, binding *models.DeviceBinding) (bool, error) {
	playable, err := s.touch(ctx, binding)
	s.metrics.RecordHeartbeat(err == nil)
	return playable, err
}

func (s *PairingService) touch(ctx context.Context, binding *models.DeviceBinding) (bool, error) {
	now := s.now()
	if err := s.store.TouchBinding(ctx, binding.ID, now); err != nil {
		return false, fmt.Errorf("failed to touch device binding: %w", err)
	}
	if err := s.store.TouchScreen(ctx, binding.ScreenID, now); err != nil {
		return false, fmt.Errorf("failed to touch screen: %w", err)
	}

	screen, err := s.store.GetScreen(ctx, binding.ScreenID)
	if err != nil {
		return false, fmt.Errorf("failed to load screen: %w", err)
	}
	return screen.IsPlayable(now), nil
}

// ListBindings returns the live bindings of an owned screen, newest first.
func (s *PairingService) ListBindings(
	ctx context.Context,
	ownerID string,
	screenID uint,
) ([]models.DeviceBinding, error) {
	if _, err := s.store.GetOwnedScreen(ctx, screenID, ownerID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrScreenNotFound
		}
		return nil, err
	}

	bindings, err := s.store.ListLiveBindings(ctx, screenID)
	if err != nil {
		return nil, fmt.Errorf("failed to list device bindings: %w", err)
	}
	return bindings, nil
}

// RevokeBinding revokes a binding on one of ownerID's screens. Revoking an
// already revoked binding succeeds.
func (s *PairingService) RevokeBinding(ctx context.Context, ownerID string, bindingID uint) error {
	binding, err := s.store.GetBinding(ctx, bindingID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrBindingNotFound
		}
		return err
	}
	if _, err := s.store.GetOwnedScreen(ctx, binding.ScreenID, ownerID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrBindingNotFound
		}
		return err
	}

	if !binding.IsActive() {
		return nil
	}
	if err := s.store.RevokeBinding(ctx, binding.ID, models.RevokeReasonOperator, s.now()); err != nil {
		return fmt.Errorf("failed to revoke device binding: %w", err)
	}

	s.metrics.RecordBindingRevoked(models.RevokeReasonOperator)
	s.audit.Log(ctx, AuditLogEntry{
		EventType:    models.EventBindingRevoked,
		Severity:     models.SeverityInfo,
		ActorUserID:  ownerID,
		ResourceType: models.ResourceDeviceBinding,
		ResourceID:   formatID(binding.ID),
		Action:       "Device binding revoked",
		Details:      models.AuditDetails{"screen_id": binding.ScreenID},
		Success:      true,
	})
	return nil
}

// newBinding mints a device token for screenID.
func newBinding(screenID uint, deviceInfo, flow string) (*models.DeviceBinding, error) {
	token, err := util.GenerateDeviceToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate device token: %w", err)
	}
	return &models.DeviceBinding{
		ScreenID:    screenID,
		DeviceToken: token,
		TokenHash:   util.SHA256Hex(token),
		DeviceInfo:  truncate(strings.TrimSpace(deviceInfo), maxDeviceInfoLength),
		Flow:        flow,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
