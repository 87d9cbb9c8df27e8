package discovery

import "errors"

var (
	// ErrUnknownDeviceType is returned for a device type with no entity template.
	ErrUnknownDeviceType = errors.New("discovery: unknown device type")

	// ErrInvalidMode is returned when a device's mode is not one its type supports.
	ErrInvalidMode = errors.New("discovery: invalid device mode")

	// ErrInvalidChannel is returned for a channel outside 0..255.
	ErrInvalidChannel = errors.New("discovery: channel out of range")
)
