package store

import (
	"context"
	"errors"
	"time"

	"github.com/go-authgate/screenpair/internal/models"

	"gorm.io/gorm"
)

// installBinding revokes every live binding of the screen and inserts binding.
// Must run inside a transaction.
func installBinding(tx *gorm.DB, binding *models.DeviceBinding, now time.Time) error {
	if err := revokeLiveBindings(tx, binding.ScreenID, models.RevokeReasonSuperseded, now); err != nil {
		return err
	}
	if binding.ActivatedAt.IsZero() {
		binding.ActivatedAt = now
	}
	if err := tx.Create(binding).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrBindingConflict
		}
		return err
	}
	return nil
}

func revokeLiveBindings(tx *gorm.DB, screenID uint, reason string, now time.Time) error {
	live := tx.Model(&models.DeviceBinding{}).
		Select("id").
		Where("screen_id = ? AND revoked_at IS NULL", screenID)
	if err := tx.Model(&models.ActivationCode{}).
		Where("binding_id IN (?)", live).
		Update("pickup_token", "").Error; err != nil {
		return err
	}
	return tx.Model(&models.DeviceBinding{}).
		Where("screen_id = ? AND revoked_at IS NULL", screenID).
		Updates(map[string]any{
			"revoked_at":    now,
			"revoke_reason": reason,
		}).Error
}

// Device binding operations

// GetLiveBinding returns the unrevoked binding matching both the token hash
// and the screen, so a token issued for one screen cannot be replayed on another.
func (s *Store) GetLiveBinding(
	ctx context.Context,
	tokenHash string,
	screenID uint,
) (*models.DeviceBinding, error) {
	var binding models.DeviceBinding
	err := s.db.WithContext(ctx).
		Where("token_hash = ? AND screen_id = ? AND revoked_at IS NULL", tokenHash, screenID).
		First(&binding).
		Error
	if err != nil {
		return nil, notFound(err)
	}
	return &binding, nil
}

func (s *Store) GetBinding(ctx context.Context, id uint) (*models.DeviceBinding, error) {
	var binding models.DeviceBinding
	if err := s.db.WithContext(ctx).First(&binding, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &binding, nil
}

// ListLiveBindings returns the screen's unrevoked bindings, newest first.
func (s *Store) ListLiveBindings(ctx context.Context, screenID uint) ([]models.DeviceBinding, error) {
	var bindings []models.DeviceBinding
	err := s.db.WithContext(ctx).
		Where("screen_id = ? AND revoked_at IS NULL", screenID).
		Order("activated_at DESC, id DESC").
		Find(&bindings).
		Error
	return bindings, err
}

// ListBindingsByScreen returns every binding of the screen including revoked ones.
func (s *Store) ListBindingsByScreen(ctx context.Context, screenID uint) ([]models.DeviceBinding, error) {
	var bindings []models.DeviceBinding
	err := s.db.WithContext(ctx).
		Where("screen_id = ?", screenID).
		Order("id ASC").
		Find(&bindings).
		Error
	return bindings, err
}

// RevokeBinding stamps revoked_at if not already set and clears any parked
// pickup token. Revoking twice is a no-op.
func (s *Store) RevokeBinding(ctx context.Context, id uint, reason string, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.DeviceBinding{}).
			Where("id = ? AND revoked_at IS NULL", id).
			Updates(map[string]any{
				"revoked_at":    now,
				"revoke_reason": reason,
			}).Error; err != nil {
			return err
		}
		return tx.Model(&models.ActivationCode{}).
			Where("binding_id = ?", id).
			Update("pickup_token", "").
			Error
	})
}

// TouchBinding advances last_seen_at, never moving it backwards.
func (s *Store) TouchBinding(ctx context.Context, id uint, now time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.DeviceBinding{}).
		Where("id = ? AND (last_seen_at IS NULL OR last_seen_at < ?)", id, now).
		Update("last_seen_at", now).
		Error
}
