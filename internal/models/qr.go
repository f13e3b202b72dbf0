package models

import (
	"errors"
	"strconv"
	"strings"
)

// QR payload prefixes rendered by players.
const (
	ScreenQRPrefix = "SCREEN:"
	DeviceQRPrefix = "DEVICE:"
)

// DeviceIDLength is the length of a device self-advertised id.
const DeviceIDLength = 8

var ErrInvalidQRPayload = errors.New("invalid QR payload")

// QRPayload is a parsed SCREEN:<screenId>:<code> or DEVICE:<deviceId> string.
type QRPayload struct {
	ScreenID uint
	Code     string
	DeviceID string
}

// IsDevice reports whether the payload names a device rather than a screen code.
func (p QRPayload) IsDevice() bool {
	return p.DeviceID != ""
}

// ParseQRPayload parses the plain-string QR formats. Prefixes are case-insensitive.
func ParseQRPayload(s string) (QRPayload, error) {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)

	switch {
	case strings.HasPrefix(upper, DeviceQRPrefix):
		id, err := NormalizeDeviceID(s[len(DeviceQRPrefix):])
		if err != nil {
			return QRPayload{}, err
		}
		return QRPayload{DeviceID: id}, nil

	case strings.HasPrefix(upper, ScreenQRPrefix):
		parts := strings.Split(upper[len(ScreenQRPrefix):], ":")
		if len(parts) != 2 || parts[1] == "" {
			return QRPayload{}, ErrInvalidQRPayload
		}
		id, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil || id == 0 {
			return QRPayload{}, ErrInvalidQRPayload
		}
		return QRPayload{ScreenID: uint(id), Code: parts[1]}, nil
	}

	return QRPayload{}, ErrInvalidQRPayload
}

// NormalizeDeviceID uppercases a device id, accepting an optional DEVICE: prefix,
// and checks it is DeviceIDLength characters of [A-Z0-9].
func NormalizeDeviceID(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, DeviceQRPrefix)
	if len(s) != DeviceIDLength {
		return "", ErrInvalidQRPayload
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", ErrInvalidQRPayload
		}
	}
	return s, nil
}
