package serialport

import "errors"

var (
	// ErrOpenFailed is returned when the device cannot be opened or configured.
	ErrOpenFailed = errors.New("serialport: open failed")

	// ErrClosed is returned by Read and Write after Close.
	ErrClosed = errors.New("serialport: port closed")
)
