package store

import (
	"context"
	"time"

	"github.com/go-authgate/screenpair/internal/models"
)

// Screen operations
func (s *Store) CreateScreen(ctx context.Context, screen *models.Screen) error {
	return s.db.WithContext(ctx).Create(screen).Error
}

func (s *Store) GetScreen(ctx context.Context, id uint) (*models.Screen, error) {
	var screen models.Screen
	if err := s.db.WithContext(ctx).First(&screen, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &screen, nil
}

// GetOwnedScreen returns ErrRecordNotFound both for unknown screens and for
// screens owned by someone else.
func (s *Store) GetOwnedScreen(ctx context.Context, id uint, ownerID string) (*models.Screen, error) {
	var screen models.Screen
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&screen).
		Error
	if err != nil {
		return nil, notFound(err)
	}
	return &screen, nil
}

func (s *Store) ListScreensByOwner(ctx context.Context, ownerID string) ([]models.Screen, error) {
	var screens []models.Screen
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Find(&screens).
		Error
	return screens, err
}

// TouchScreen advances the screen's last_seen_at, never moving it backwards.
func (s *Store) TouchScreen(ctx context.Context, id uint, now time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.Screen{}).
		Where("id = ? AND (last_seen_at IS NULL OR last_seen_at < ?)", id, now).
		Update("last_seen_at", now).
		Error
}
