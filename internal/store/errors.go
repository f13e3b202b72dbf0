package store

import "errors"

var (
	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")

	// ErrCodeAlreadyUsed is returned by RedeemActivationCode when the code was
	// consumed by a concurrent request (0 rows updated).
	ErrCodeAlreadyUsed = errors.New("activation code already used")

	// ErrPendingAlreadyClaimed is returned by ClaimPendingDeviceBinding when the
	// pending binding was claimed by a concurrent request.
	ErrPendingAlreadyClaimed = errors.New("pending device binding already claimed")

	// ErrBindingConflict is returned when a second live binding for the same
	// screen is rejected by the live-screen unique index.
	ErrBindingConflict = errors.New("screen already has a live binding")
)
