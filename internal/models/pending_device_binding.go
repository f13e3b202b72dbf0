package models

import (
	"time"
)

// PendingDeviceBinding is created when an operator scans a device's own QR code
// and assigns it to a screen. The player claims it by polling its device id.
type PendingDeviceBinding struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	DeviceID    string `gorm:"index;not null"`
	ScreenID    uint   `gorm:"index;not null"`
	DeviceToken string // Plaintext until claimed, then cleared
	TokenHash   string `gorm:"not null"`
	DeviceInfo  string
	CreatedBy   string `gorm:"not null"`
	ClaimedAt   *time.Time
	BindingID   *uint
	ExpiresAt   time.Time `gorm:"not null"`
	CreatedAt   time.Time
}

// IsClaimed returns true once the player has picked up its token
func (p *PendingDeviceBinding) IsClaimed() bool {
	return p.ClaimedAt != nil
}

// IsExpiredAt reports whether the pending binding can no longer be claimed.
func (p *PendingDeviceBinding) IsExpiredAt(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
