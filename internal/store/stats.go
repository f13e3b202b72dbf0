package store

import (
	"context"
	"time"

	"github.com/go-authgate/screenpair/internal/models"
)

// Gauge queries

func (s *Store) CountLiveBindings(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.DeviceBinding{}).
		Where("revoked_at IS NULL").
		Count(&count).
		Error
	return count, err
}

// CountPendingActivationCodes counts unused codes that have not expired at now.
func (s *Store) CountPendingActivationCodes(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.ActivationCode{}).
		Where("used_at IS NULL AND expires_at >= ?", now).
		Count(&count).
		Error
	return count, err
}

// CountOnlineScreens counts screens seen at or after since.
func (s *Store) CountOnlineScreens(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Screen{}).
		Where("last_seen_at >= ?", since).
		Count(&count).
		Error
	return count, err
}
