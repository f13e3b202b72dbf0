package store

import (
	"context"
	"time"

	"github.com/go-authgate/screenpair/internal/models"

	"gorm.io/gorm"
)

// Pending device binding operations

// ReplacePendingDeviceBinding deletes unclaimed pending rows for the same
// device id and inserts pending.
func (s *Store) ReplacePendingDeviceBinding(
	ctx context.Context,
	pending *models.PendingDeviceBinding,
) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("device_id = ? AND claimed_at IS NULL", pending.DeviceID).
			Delete(&models.PendingDeviceBinding{}).Error; err != nil {
			return err
		}
		return tx.Create(pending).Error
	})
}

// GetUnclaimedPendingBinding returns the newest unclaimed row for the device.
// Expiry is left to the caller.
func (s *Store) GetUnclaimedPendingBinding(
	ctx context.Context,
	deviceID string,
) (*models.PendingDeviceBinding, error) {
	var pending models.PendingDeviceBinding
	err := s.db.WithContext(ctx).
		Where("device_id = ? AND claimed_at IS NULL", deviceID).
		Order("id DESC").
		First(&pending).
		Error
	if err != nil {
		return nil, notFound(err)
	}
	return &pending, nil
}

// ClaimPendingDeviceBinding stamps claimed_at and installs binding as the
// only live binding of the screen in one transaction. The plaintext token
// is removed from the pending row.
func (s *Store) ClaimPendingDeviceBinding(
	ctx context.Context,
	pending *models.PendingDeviceBinding,
	binding *models.DeviceBinding,
	now time.Time,
) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.PendingDeviceBinding{}).
			Where("id = ? AND claimed_at IS NULL", pending.ID).
			Updates(map[string]any{
				"claimed_at":   now,
				"device_token": "",
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPendingAlreadyClaimed
		}

		if err := installBinding(tx, binding, now); err != nil {
			return err
		}

		if err := tx.Model(&models.PendingDeviceBinding{}).
			Where("id = ?", pending.ID).
			Update("binding_id", binding.ID).Error; err != nil {
			return err
		}

		pending.ClaimedAt = &now
		pending.BindingID = &binding.ID
		return nil
	})
}
