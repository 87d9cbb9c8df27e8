// Package serialport opens the MTRF64 adapter's UART with go.bug.st/serial.
//
// The adapter talks 8N1 at 9600 baud. Port applies a short read timeout so
// a Read with no pending data returns (0, nil) instead of blocking the
// bridge loop.
//
// When a read or write fails (typically the USB adapter was unplugged) the
// port is closed and the next call tries to reopen it. The bridge's error
// backoff paces those attempts.
package serialport
