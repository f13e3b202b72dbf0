package models

import (
	"time"
)

// Binding flows
const (
	BindingFlowCode     = "code"
	BindingFlowDeviceQR = "device_qr"
)

// Revoke reasons
const (
	RevokeReasonSuperseded = "superseded"
	RevokeReasonOperator   = "operator"
)

// DeviceBinding associates a device token with a screen.
// At most one binding per screen has RevokedAt == nil.
type DeviceBinding struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ScreenID    uint   `gorm:"index;not null"           json:"screen_id"`
	DeviceToken string `gorm:"-"                        json:"-"` // In-memory only; never persisted
	TokenHash   string `gorm:"uniqueIndex;not null"     json:"-"`
	DeviceInfo  string `gorm:"type:text"                json:"device_info"`
	Flow        string `gorm:"not null;default:'code'"  json:"flow"`

	ActivatedAt  time.Time  `gorm:"not null" json:"activated_at"`
	LastSeenAt   *time.Time `                json:"last_seen_at,omitempty"`
	RevokedAt    *time.Time `gorm:"index"    json:"revoked_at,omitempty"`
	RevokeReason string     `                json:"revoke_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive returns true if the binding has not been revoked
func (b *DeviceBinding) IsActive() bool {
	return b.RevokedAt == nil
}
