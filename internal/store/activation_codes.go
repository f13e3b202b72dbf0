package store

import (
	"context"
	"time"

	"github.com/go-authgate/screenpair/internal/models"

	"gorm.io/gorm"
)

// Activation code operations
func (s *Store) CreateActivationCode(ctx context.Context, code *models.ActivationCode) error {
	return s.db.WithContext(ctx).Create(code).Error
}

// GetActivationCodeByCode returns the newest code row with the given text.
// Codes are not unique across history, so older rows are shadowed.
func (s *Store) GetActivationCodeByCode(ctx context.Context, code string) (*models.ActivationCode, error) {
	var ac models.ActivationCode
	err := s.db.WithContext(ctx).
		Where("code = ?", code).
		Order("id DESC").
		First(&ac).
		Error
	if err != nil {
		return nil, notFound(err)
	}
	return &ac, nil
}

// GetLatestUnusedActivationCode returns the newest unused code for a screen.
// Expiry is left to the caller.
func (s *Store) GetLatestUnusedActivationCode(
	ctx context.Context,
	screenID uint,
) (*models.ActivationCode, error) {
	var ac models.ActivationCode
	err := s.db.WithContext(ctx).
		Where("screen_id = ? AND used_at IS NULL", screenID).
		Order("id DESC").
		First(&ac).
		Error
	if err != nil {
		return nil, notFound(err)
	}
	return &ac, nil
}

// RedeemActivationCode marks the code used and installs binding as the only
// live binding of the code's screen, all in one transaction. The plaintext
// device token is parked on the code for the polling issuer.
func (s *Store) RedeemActivationCode(
	ctx context.Context,
	code *models.ActivationCode,
	binding *models.DeviceBinding,
	now time.Time,
) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ActivationCode{}).
			Where("id = ? AND used_at IS NULL", code.ID).
			Update("used_at", now)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCodeAlreadyUsed
		}

		if err := installBinding(tx, binding, now); err != nil {
			return err
		}

		if err := tx.Model(&models.ActivationCode{}).
			Where("id = ?", code.ID).
			Updates(map[string]any{
				"binding_id":   binding.ID,
				"pickup_token": binding.DeviceToken,
			}).Error; err != nil {
			return err
		}

		code.UsedAt = &now
		code.BindingID = &binding.ID
		code.PickupToken = binding.DeviceToken
		return nil
	})
}

// ClearPickupToken drops the parked device token from a redeemed code.
func (s *Store) ClearPickupToken(ctx context.Context, codeID uint) error {
	return s.db.WithContext(ctx).
		Model(&models.ActivationCode{}).
		Where("id = ?", codeID).
		Update("pickup_token", "").
		Error
}
