package noolite

import (
	"errors"
	"fmt"
)

// Domain errors for the NooLite bridge package.
var (
	// ErrMalformedFrame is returned when a received frame has the wrong
	// length, bad sentinels, or (wrapped by ErrChecksumMismatch) a bad checksum.
	ErrMalformedFrame = errors.New("noolite: malformed frame")

	// ErrChecksumMismatch is returned by Decode when the additive checksum
	// does not match. It wraps ErrMalformedFrame.
	ErrChecksumMismatch = fmt.Errorf("%w: checksum mismatch", ErrMalformedFrame)

	// ErrEncodeRange is returned when a command field cannot be encoded
	// into its byte slot.
	ErrEncodeRange = errors.New("noolite: field out of range")

	// ErrInvalidCombination is returned when a command is not allowed in
	// the requested mode. It wraps ErrEncodeRange.
	ErrInvalidCombination = fmt.Errorf("%w: command not valid for mode", ErrEncodeRange)

	// ErrUnknownCommandPayload is returned when an inbound MQTT payload is
	// not a recognised command name or value.
	ErrUnknownCommandPayload = errors.New("noolite: unknown command payload")

	// ErrUnknownTopic is returned when an inbound MQTT topic does not match
	// any command topic pattern.
	ErrUnknownTopic = errors.New("noolite: unknown command topic")

	// ErrTransport is returned when reading from or writing to the adapter fails.
	ErrTransport = errors.New("noolite: transport failure")

	// ErrQueueFull is returned when the inbound command queue cannot accept
	// another message.
	ErrQueueFull = errors.New("noolite: command queue full")
)
