package services

import (
	"errors"
	"fmt"
)

// PairingErrorKind is the closed set of reasons a redemption or claim is rejected.
type PairingErrorKind string

const (
	KindCodeNotFound   PairingErrorKind = "code_not_found"
	KindCodeUsed       PairingErrorKind = "code_used"
	KindCodeExpired    PairingErrorKind = "code_expired"
	KindScreenMismatch PairingErrorKind = "screen_mismatch"
	KindRateLimited    PairingErrorKind = "rate_limited"
)

// PairingError is an expected, client-facing rejection.
type PairingError struct {
	Kind    PairingErrorKind
	Message string
}

func (e *PairingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

var (
	ErrCodeNotFound = &PairingError{
		Kind:    KindCodeNotFound,
		Message: "Activation code not found",
	}
	ErrCodeUsed = &PairingError{
		Kind:    KindCodeUsed,
		Message: "Activation code has already been used",
	}
	ErrCodeExpired = &PairingError{
		Kind:    KindCodeExpired,
		Message: "Activation code has expired",
	}
	ErrScreenMismatch = &PairingError{
		Kind:    KindScreenMismatch,
		Message: "Activation code does not belong to this screen",
	}
)

var (
	ErrScreenNotFound     = errors.New("screen not found")
	ErrBindingNotFound    = errors.New("device binding not found")
	ErrInvalidDeviceID    = errors.New("invalid device id")
	ErrInvalidScreenName  = errors.New("screen name is required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
)

// AsPairingError extracts a *PairingError from err.
func AsPairingError(err error) (*PairingError, bool) {
	var pe *PairingError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
