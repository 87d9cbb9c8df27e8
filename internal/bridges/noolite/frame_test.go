package noolite

import (
	"errors"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		cmd  OutboundCommand
		want [FrameSize]byte
	}{
		{
			name: "OFF on channel 3",
			cmd:  OutboundCommand{Mode: ModeTX, Channel: 3, Cmd: CmdOff},
			want: [FrameSize]byte{171, 0, 0, 0, 3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 174, 172},
		},
		{
			name: "TX_F brightness",
			cmd:  OutboundCommand{Mode: ModeTXF, Channel: 1, Cmd: CmdBrightSet, Fmt: 1, Data: [4]byte{100}},
			want: [FrameSize]byte{171, 2, 0, 0, 1, 6, 1, 100, 0, 0, 0, 0, 0, 0, 0, 25, 172},
		},
		{
			name: "bind start on RX channel 5",
			cmd:  BindCommand(ModeRX, 5, true),
			want: [FrameSize]byte{171, 1, 3, 0, 5, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 180, 172},
		},
		{
			name: "addressed nooLite-F command",
			cmd: OutboundCommand{
				Mode: ModeTXF, Ctr: RequestCmdFAddr, Cmd: CmdToggle, ID: 0x00003072,
			},
			want: [FrameSize]byte{171, 2, 8, 0, 0, 4, 0, 0, 0, 0, 0, 0, 0, 48, 114, 91, 172},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.cmd)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Encode() = %v, want %v", got, tt.want)
			}
			if Checksum(got[:]) != got[offChecksum] {
				t.Error("checksum does not match content")
			}
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		cmd     OutboundCommand
		wantErr error
	}{
		{"unknown mode", OutboundCommand{Mode: 9}, ErrEncodeRange},
		{"unknown request", OutboundCommand{Ctr: 42}, ErrEncodeRange},
		{"unknown command", OutboundCommand{Cmd: 14}, ErrEncodeRange},
		{"fmt out of range", OutboundCommand{Fmt: 2}, ErrEncodeRange},
		{"F command on legacy TX", OutboundCommand{Mode: ModeTX, Cmd: CmdReadState}, ErrInvalidCombination},
		{"switch command in service mode", OutboundCommand{Mode: ModeServiceF, Cmd: CmdOn}, ErrInvalidCombination},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.cmd)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Encode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	raw := rawFrame(ModeRX, 0, 7, CmdTemporaryOn, [4]byte{4, 0, 0, 0})

	f, err := Decode(raw[:])
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if f.Mode != ModeRX || f.Channel != 7 || f.Cmd != CmdTemporaryOn || f.Data[0] != 4 {
		t.Errorf("Decode() = %+v", f)
	}
	if !f.ChecksumValid() || !f.LastInBurst() {
		t.Error("expected valid checksum and last-in-burst")
	}
	if f.Response() != ResponseSuccess {
		t.Errorf("Response() = %v, want SUCCESS", f.Response())
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	cmd := OutboundCommand{
		Mode: ModeTXF, Ctr: RequestCmdFAddr, Channel: 12, Cmd: CmdBrightSet,
		Fmt: 1, Data: [4]byte{1, 2, 3, 4}, ID: 0x01020304,
	}
	b, err := Encode(cmd)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	f, err := Decode(b[:])
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got := f.Outbound(); got != cmd {
		t.Errorf("Outbound() = %+v, want %+v", got, cmd)
	}
}

func TestDecodeMalformed(t *testing.T) {
	good := rawFrame(ModeRX, 0, 1, CmdOn, [4]byte{})

	badStart := good
	badStart[offStart] = 0
	badStop := good
	badStop[offStop] = 0

	tests := []struct {
		name string
		b    []byte
	}{
		{"short", good[:FrameSize-1]},
		{"long", append(good[:], 0)},
		{"bad start", badStart[:]},
		{"bad stop", badStop[:]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.b)
			if !errors.Is(err, ErrMalformedFrame) {
				t.Errorf("Decode() error = %v, want ErrMalformedFrame", err)
			}
			if errors.Is(err, ErrChecksumMismatch) {
				t.Error("structural error must not be reported as checksum mismatch")
			}
		})
	}
}

func TestDecodeChecksumMismatch(t *testing.T) {
	raw := rawFrame(ModeRX, 0, 2, CmdOn, [4]byte{})
	raw[offChecksum]++

	f, err := Decode(raw[:])
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("Decode() error = %v, want ErrChecksumMismatch", err)
	}
	if !errors.Is(err, ErrMalformedFrame) {
		t.Error("ErrChecksumMismatch should wrap ErrMalformedFrame")
	}
	if f.Channel != 2 || f.Cmd != CmdOn {
		t.Errorf("frame should still be decoded, got %+v", f)
	}
	if f.ChecksumValid() {
		t.Error("ChecksumValid() = true for corrupted frame")
	}
}

func TestFrameString(t *testing.T) {
	f := decodeRaw(rawFrame(ModeRX, 0, 3, CmdOff, [4]byte{}))
	want := "[171,1,0,0,3,0,0,0,0,0,0,0,0,0,0,175,172]"
	if got := f.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDeviceID(t *testing.T) {
	id, err := ParseDeviceID("0.0.48.114")
	if err != nil {
		t.Fatalf("ParseDeviceID() error = %v", err)
	}
	if id != 0x3072 {
		t.Errorf("ParseDeviceID() = %#x, want 0x3072", id)
	}
	if got := FormatDeviceID(id); got != "0.0.48.114" {
		t.Errorf("FormatDeviceID() = %q", got)
	}

	for _, bad := range []string{"", "1.2.3", "1.2.3.256", "a.b.c.d"} {
		if _, err := ParseDeviceID(bad); !errors.Is(err, ErrEncodeRange) {
			t.Errorf("ParseDeviceID(%q) error = %v, want ErrEncodeRange", bad, err)
		}
	}
}
