package noolite

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Frame layout constants.
const (
	// FrameSize is the fixed length of every MTRF64 frame in both directions.
	FrameSize = 17

	// StartByte and StopByte delimit every frame.
	StartByte byte = 171
	StopByte  byte = 172

	// checksumSpan is the number of leading bytes (st through id3) summed
	// into the checksum.
	checksumSpan = 15
)

// Byte offsets within a frame.
const (
	offStart    = 0
	offMode     = 1
	offCtr      = 2
	offRes      = 3
	offChannel  = 4
	offCmd      = 5
	offFmt      = 6
	offData     = 7
	offID       = 11
	offChecksum = 15
	offStop     = 16
)

// OutboundCommand is a request to the MTRF64 adapter.
//
// Zero values are meaningful: OutboundCommand{Channel: 3, Cmd: CmdOff} is a
// plain nooLite OFF on channel 3.
type OutboundCommand struct {
	Mode    Mode
	Ctr     Request
	Channel uint8
	Cmd     Command
	Fmt     uint8
	Data    [4]byte
	// ID is the nooLite-F device address used with RequestCmdFAddr.
	ID uint32
}

// Frame is a decoded 17-byte frame as received from the adapter.
type Frame struct {
	Mode    Mode
	Ctr     uint8 // Request on send, Response on receive
	Res     uint8 // 0 marks the last frame of a burst
	Channel uint8
	Cmd     Command
	Fmt     uint8
	Data    [4]byte
	ID      uint32

	// Checksum is the checksum byte as received.
	Checksum uint8

	// Raw is the frame exactly as it came off the wire.
	Raw [FrameSize]byte
}

// Checksum returns the additive checksum of the first 15 bytes of b,
// reduced mod 256. b must be at least 15 bytes long.
func Checksum(b []byte) uint8 {
	var sum uint8
	for _, v := range b[:checksumSpan] {
		sum += v
	}
	return sum
}

// Encode serialises c into a frame ready to write to the adapter.
//
// Returns:
//   - [FrameSize]byte: the encoded frame
//   - error: ErrEncodeRange if an enum is unknown or fmt is not 0/1,
//     ErrInvalidCombination if the command is not valid for the mode
func Encode(c OutboundCommand) ([FrameSize]byte, error) {
	var b [FrameSize]byte

	if !c.Mode.Valid() {
		return b, fmt.Errorf("%w: mode %d", ErrEncodeRange, uint8(c.Mode))
	}
	if !c.Ctr.Valid() {
		return b, fmt.Errorf("%w: ctr %d", ErrEncodeRange, uint8(c.Ctr))
	}
	if !c.Cmd.Valid() {
		return b, fmt.Errorf("%w: cmd %d", ErrEncodeRange, uint8(c.Cmd))
	}
	if c.Fmt > 1 {
		return b, fmt.Errorf("%w: fmt %d", ErrEncodeRange, c.Fmt)
	}
	if !c.Cmd.ValidFor(c.Mode) {
		return b, fmt.Errorf("%w: %s in %s", ErrInvalidCombination, c.Cmd, c.Mode)
	}

	b[offStart] = StartByte
	b[offMode] = byte(c.Mode)
	b[offCtr] = byte(c.Ctr)
	b[offRes] = 0
	b[offChannel] = c.Channel
	b[offCmd] = byte(c.Cmd)
	b[offFmt] = c.Fmt
	copy(b[offData:offData+4], c.Data[:])
	binary.BigEndian.PutUint32(b[offID:offID+4], c.ID)
	b[offChecksum] = Checksum(b[:])
	b[offStop] = StopByte

	return b, nil
}

// Decode parses a frame received from the adapter.
//
// A checksum mismatch still returns the fully decoded frame alongside
// ErrChecksumMismatch so the caller can choose to use it.
//
// Returns:
//   - Frame: the decoded frame (zero on structural errors)
//   - error: ErrMalformedFrame for wrong length or sentinels,
//     ErrChecksumMismatch for a bad checksum
func Decode(b []byte) (Frame, error) {
	if len(b) != FrameSize {
		return Frame{}, fmt.Errorf("%w: length %d, want %d", ErrMalformedFrame, len(b), FrameSize)
	}
	if b[offStart] != StartByte || b[offStop] != StopByte {
		return Frame{}, fmt.Errorf("%w: bad sentinels %d/%d", ErrMalformedFrame, b[offStart], b[offStop])
	}

	f := Frame{
		Mode:     Mode(b[offMode]),
		Ctr:      b[offCtr],
		Res:      b[offRes],
		Channel:  b[offChannel],
		Cmd:      Command(b[offCmd]),
		Fmt:      b[offFmt],
		ID:       binary.BigEndian.Uint32(b[offID : offID+4]),
		Checksum: b[offChecksum],
	}
	copy(f.Data[:], b[offData:offData+4])
	copy(f.Raw[:], b)

	if want := Checksum(b); want != f.Checksum {
		return f, fmt.Errorf("%w: got %d, want %d", ErrChecksumMismatch, f.Checksum, want)
	}

	return f, nil
}

// ChecksumValid reports whether the received checksum matches the content.
func (f Frame) ChecksumValid() bool {
	return Checksum(f.Raw[:]) == f.Checksum
}

// Outbound returns the command fields carried by the frame, the inverse of Encode.
func (f Frame) Outbound() OutboundCommand {
	return OutboundCommand{
		Mode:    f.Mode,
		Ctr:     Request(f.Ctr),
		Channel: f.Channel,
		Cmd:     f.Cmd,
		Fmt:     f.Fmt,
		Data:    f.Data,
		ID:      f.ID,
	}
}

// Response interprets the ctr byte as an adapter response code.
func (f Frame) Response() Response {
	return Response(f.Ctr)
}

// LastInBurst reports whether this frame ends a burst (res == 0).
func (f Frame) LastInBurst() bool {
	return f.Res == 0
}

// String renders the raw bytes as "[b0,b1,...,b16]", the echo payload format.
func (f Frame) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range f.Raw {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(v)))
	}
	sb.WriteByte(']')
	return sb.String()
}

// FormatDeviceID renders a nooLite-F address as dotted bytes ("0.0.48.114").
func FormatDeviceID(id uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", byte(id>>24), byte(id>>16), byte(id>>8), byte(id))
}

// ParseDeviceID parses a dotted nooLite-F address ("0.0.48.114").
func ParseDeviceID(s string) (uint32, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 { //nolint:mnd // four address bytes
		return 0, fmt.Errorf("%w: device id %q", ErrEncodeRange, s)
	}
	var id uint32
	for _, p := range parts {
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return 0, fmt.Errorf("%w: device id %q", ErrEncodeRange, s)
		}
		id = id<<8 | uint32(v)
	}
	return id, nil
}
