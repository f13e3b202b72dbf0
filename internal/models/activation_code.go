package models

import (
	"strconv"
	"time"
)

// ActivationCode is a short, single-use code that binds a player to a screen.
// Rows are never deleted; used and expired codes stay as an audit trail.
type ActivationCode struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	ScreenID  uint       `gorm:"index;not null"           json:"screen_id"`
	Code      string     `gorm:"index;not null"           json:"code"`
	ExpiresAt time.Time  `gorm:"not null"                 json:"expires_at"`
	UsedAt    *time.Time `                                json:"used_at,omitempty"`
	CreatedBy string     `gorm:"index"                    json:"created_by,omitempty"` // empty when fetched by a player

	// PollingToken lets the issuer detect redemption without guessing codes.
	PollingToken string `gorm:"not null" json:"-"`
	// BindingID is set once the code has been redeemed.
	BindingID *uint `gorm:"index" json:"binding_id,omitempty"`
	// PickupToken parks the minted device token for the polling issuer.
	// Cleared when the binding is revoked.
	PickupToken string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsExpiredAt reports whether the code is past its expiry at now.
// A code expiring exactly at now is still valid.
func (a *ActivationCode) IsExpiredAt(now time.Time) bool {
	return now.After(a.ExpiresAt)
}

// IsUsed reports whether the code has been redeemed.
func (a *ActivationCode) IsUsed() bool {
	return a.UsedAt != nil
}

// IsRedeemableAt reports whether the code can still be redeemed at now.
func (a *ActivationCode) IsRedeemableAt(now time.Time) bool {
	return !a.IsUsed() && !a.IsExpiredAt(now)
}

// QRPayload is the string a player renders as QR code for this activation code.
func (a *ActivationCode) QRPayload() string {
	return ScreenQRPrefix + strconv.FormatUint(uint64(a.ScreenID), 10) + ":" + a.Code
}
