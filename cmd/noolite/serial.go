package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/noolite-mqtt/internal/bridges/noolite"
	"github.com/nerrad567/noolite-mqtt/internal/infrastructure/serialport"
)

const defaultResponseWait = 2 * time.Second

// serialFlags configure the direct-to-adapter commands.
type serialFlags struct {
	commonFlags
	device string
	wait   time.Duration
}

func (s *serialFlags) register(fs *flag.FlagSet) {
	s.commonFlags.register(fs)
	fs.StringVar(&s.device, "device", "", "serial device (overrides serial.device)")
	fs.DurationVar(&s.wait, "wait", defaultResponseWait, "how long to collect response frames")
}

// openPort opens the adapter named by the config or -device.
func (s *serialFlags) openPort() (*serialport.Port, error) {
	cfg, err := s.load()
	if err != nil {
		return nil, err
	}
	if s.device != "" {
		cfg.Serial.Device = s.device
	}
	return serialport.Open(cfg.Serial)
}

func runSend(ctx context.Context, name string, args []string, out io.Writer, nooliteF bool) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	var sf serialFlags
	sf.register(fs)
	level := fs.Int("level", -1, "argument for BRIGHT_SET and similar (sent as fmt 1, d0)")
	id := fs.String("id", "", "nooLite-F device address a.b.c.d (send-f only)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 2 {
		fmt.Fprintf(fs.Output(), "usage: noolite %s [flags] <channel> <command>\n", name)
		return errUsage
	}

	cmd, err := buildSend(fs.Arg(0), fs.Arg(1), nooliteF, *level, *id)
	if err != nil {
		return err
	}

	port, err := sf.openPort()
	if err != nil {
		return err
	}
	defer port.Close()

	return exchangeAndPrint(ctx, port, cmd, sf.wait, out)
}

// buildSend assembles the command for send and send-f.
func buildSend(chArg, cmdArg string, nooliteF bool, level int, id string) (noolite.OutboundCommand, error) {
	ch, err := parseChannel(chArg)
	if err != nil {
		return noolite.OutboundCommand{}, err
	}
	command, err := parseCommand(cmdArg)
	if err != nil {
		return noolite.OutboundCommand{}, err
	}

	out := noolite.OutboundCommand{
		Mode:    noolite.ModeTX,
		Ctr:     noolite.RequestCmd,
		Channel: ch,
		Cmd:     command,
	}
	if nooliteF {
		out.Mode = noolite.ModeTXF
	}

	if level >= 0 {
		if level > 255 { //nolint:mnd // one data byte
			return noolite.OutboundCommand{}, fmt.Errorf("%w: level %d", noolite.ErrEncodeRange, level)
		}
		out.Fmt = 1
		out.Data[0] = byte(level)
	}

	if id != "" {
		if !nooliteF {
			return noolite.OutboundCommand{}, errors.New("-id requires send-f")
		}
		addr, err := noolite.ParseDeviceID(id)
		if err != nil {
			return noolite.OutboundCommand{}, err
		}
		out.Ctr = noolite.RequestCmdFAddr
		out.ID = addr
	}

	return out, nil
}

func runBind(ctx context.Context, name string, args []string, out io.Writer, bind bool) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	var sf serialFlags
	sf.register(fs)
	nooliteF := fs.Bool("f", false, "use the nooLite-F receiver (mode RX_F)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(fs.Output(), "usage: noolite %s [flags] <channel>\n", name)
		return errUsage
	}

	ch, err := parseChannel(fs.Arg(0))
	if err != nil {
		return err
	}
	cmd := buildBind(ch, *nooliteF, bind)

	port, err := sf.openPort()
	if err != nil {
		return err
	}
	defer port.Close()

	if bind {
		fmt.Fprintf(out, "bind window open on channel %d, press the service button on the device\n", ch)
	}
	return exchangeAndPrint(ctx, port, cmd, sf.wait, out)
}

// buildBind opens the bind window (bind) or clears the channel (!bind).
func buildBind(ch uint8, nooliteF, bind bool) noolite.OutboundCommand {
	mode := noolite.ModeRX
	if nooliteF {
		mode = noolite.ModeRXF
	}
	if bind {
		return noolite.BindCommand(mode, ch, true)
	}
	return noolite.OutboundCommand{Mode: mode, Ctr: noolite.RequestClear, Channel: ch, Cmd: noolite.CmdOff}
}

func parseChannel(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: channel %q", noolite.ErrEncodeRange, s)
	}
	return uint8(v), nil
}

// parseCommand accepts a command name, in any case, or its number.
func parseCommand(s string) (noolite.Command, error) {
	if c, ok := noolite.ParseCommand(strings.ToUpper(s)); ok {
		return c, nil
	}
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", noolite.ErrUnknownCommandPayload, s)
	}
	c := noolite.Command(v)
	if !c.Valid() {
		return 0, fmt.Errorf("%w: %d", noolite.ErrUnknownCommandPayload, v)
	}
	return c, nil
}

// exchange writes cmd and collects response frames until the adapter ends
// the burst or wait expires.
func exchange(ctx context.Context, rw io.ReadWriter, cmd noolite.OutboundCommand, wait time.Duration) ([]noolite.Frame, error) {
	frame, err := noolite.Encode(cmd)
	if err != nil {
		return nil, err
	}
	if _, err := rw.Write(frame[:]); err != nil {
		return nil, fmt.Errorf("%w: write: %w", noolite.ErrTransport, err)
	}

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	reader := noolite.NewReassembler(rw, 0)
	var frames []noolite.Frame
	for ctx.Err() == nil {
		raws, err := reader.Poll()
		for _, raw := range raws {
			f, decodeErr := noolite.Decode(raw[:])
			if decodeErr != nil && !errors.Is(decodeErr, noolite.ErrChecksumMismatch) {
				continue
			}
			frames = append(frames, f)
			if f.LastInBurst() {
				return frames, nil
			}
		}
		if err != nil {
			return frames, err
		}
	}
	return frames, nil
}

func exchangeAndPrint(ctx context.Context, rw io.ReadWriter, cmd noolite.OutboundCommand, wait time.Duration, out io.Writer) error {
	fmt.Fprintf(out, "> mode=%s ctr=%s ch=%d cmd=%s\n", cmd.Mode, cmd.Ctr, cmd.Channel, cmd.Cmd)

	frames, err := exchange(ctx, rw, cmd, wait)
	for _, f := range frames {
		printFrame(out, f)
	}
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		fmt.Fprintln(out, "no response")
	}
	return nil
}

func printFrame(out io.Writer, f noolite.Frame) {
	fmt.Fprintf(out, "< mode=%s resp=%s ch=%d cmd=%s fmt=%d data=%v id=%s %s\n",
		f.Mode, f.Response(), f.Channel, f.Cmd, f.Fmt, f.Data, noolite.FormatDeviceID(f.ID), f)
	if !f.ChecksumValid() {
		fmt.Fprintln(out, "  (checksum mismatch)")
	}
}
