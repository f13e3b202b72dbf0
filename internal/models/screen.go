package models

import (
	"time"
)

// Screen is a logical display owned by a dashboard user.
type Screen struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID  string `gorm:"index;not null"           json:"owner_id"`
	Name     string `gorm:"not null"                 json:"name"`
	Location string `                                json:"location,omitempty"`

	// Nil means the screen has no subscription and cannot play content.
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at,omitempty"`
	LastSeenAt            *time.Time `json:"last_seen_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPlayable reports whether the owning subscription allows content playback at now.
func (s *Screen) IsPlayable(now time.Time) bool {
	return s.SubscriptionExpiresAt != nil && now.Before(*s.SubscriptionExpiresAt)
}

// IsOnline reports whether a player heartbeat was seen within window.
func (s *Screen) IsOnline(now time.Time, window time.Duration) bool {
	return s.LastSeenAt != nil && now.Sub(*s.LastSeenAt) <= window
}
