package noolite

import (
	"bytes"
	"fmt"
	"io"
)

// Reassembler defaults.
const (
	// DefaultMaxFramesPerPoll bounds how many frames a single Poll returns.
	DefaultMaxFramesPerPoll = 32

	// readChunk is the size of a single transport read.
	readChunk = 256
)

// RawFrame is one complete, aligned frame cut from the byte stream.
type RawFrame [FrameSize]byte

// Reassembler cuts the adapter's byte stream into frames.
//
// Each Poll performs at most one transport read, appends the result to an
// internal backlog and returns the complete frames now available. Bytes that
// do not yet form a complete frame stay in the backlog for the next Poll.
//
// A frame whose res byte is 0 ends the burst: Poll stops there even when
// more complete frames are buffered, and returns those on the next call.
//
// Thread Safety: not safe for concurrent use. The bridge loop owns it.
type Reassembler struct {
	r         io.Reader
	backlog   []byte
	buf       []byte
	maxFrames int
	discarded uint64
}

// NewReassembler creates a reassembler reading from r.
//
// r should return promptly when no data is available (a serial port with a
// short read timeout returns 0, nil).
//
// Parameters:
//   - r: the transport to read from
//   - maxFrames: per-poll frame cap; <= 0 selects DefaultMaxFramesPerPoll
func NewReassembler(r io.Reader, maxFrames int) *Reassembler {
	if maxFrames <= 0 {
		maxFrames = DefaultMaxFramesPerPoll
	}
	return &Reassembler{
		r:         r,
		backlog:   make([]byte, 0, readChunk),
		buf:       make([]byte, readChunk),
		maxFrames: maxFrames,
	}
}

// Poll reads once from the transport and returns the frames now complete.
//
// On a read error the frames already complete are still returned, any
// incomplete tail of the backlog is discarded, and the error is wrapped
// with ErrTransport.
func (ra *Reassembler) Poll() ([]RawFrame, error) {
	n, err := ra.r.Read(ra.buf)
	if n > 0 {
		ra.backlog = append(ra.backlog, ra.buf[:n]...)
	}

	frames := ra.extract()

	if err != nil {
		ra.dropPartialTail()
		return frames, fmt.Errorf("%w: read: %w", ErrTransport, err)
	}
	return frames, nil
}

// Buffered returns the number of bytes waiting in the backlog.
func (ra *Reassembler) Buffered() int {
	return len(ra.backlog)
}

// Discarded returns the total number of bytes dropped while resynchronising
// or after transport errors.
func (ra *Reassembler) Discarded() uint64 {
	return ra.discarded
}

// Reset drops everything in the backlog.
func (ra *Reassembler) Reset() {
	ra.discard(len(ra.backlog))
}

// extract cuts frames from the front of the backlog.
func (ra *Reassembler) extract() []RawFrame {
	var frames []RawFrame

	for len(frames) < ra.maxFrames {
		if !ra.align() {
			break
		}

		var f RawFrame
		copy(f[:], ra.backlog[:FrameSize])
		ra.consume(FrameSize)
		frames = append(frames, f)

		if f[offRes] == 0 {
			break
		}
	}

	return frames
}

// align discards bytes until the backlog starts with a plausible frame.
// It returns true when a full frame is available at the front.
func (ra *Reassembler) align() bool {
	for {
		idx := bytes.IndexByte(ra.backlog, StartByte)
		if idx < 0 {
			ra.discard(len(ra.backlog))
			return false
		}
		if idx > 0 {
			ra.discard(idx)
		}
		if len(ra.backlog) < FrameSize {
			return false
		}
		if ra.backlog[offStop] == StopByte {
			return true
		}
		// A start byte inside payload data; skip it and keep looking.
		ra.discard(1)
	}
}

// dropPartialTail discards bytes that cannot form a whole frame.
func (ra *Reassembler) dropPartialTail() {
	if tail := len(ra.backlog) % FrameSize; tail > 0 {
		ra.discarded += uint64(tail)
		ra.backlog = ra.backlog[:len(ra.backlog)-tail]
	}
}

func (ra *Reassembler) discard(n int) {
	ra.discarded += uint64(n)
	ra.consume(n)
}

func (ra *Reassembler) consume(n int) {
	ra.backlog = append(ra.backlog[:0], ra.backlog[n:]...)
}
