package noolite

import (
	"fmt"
	"strconv"
	"strings"
)

// Inbound command payloads for tx and tx-f topics.
var txCommands = map[string]Command{
	"OFF":    CmdOff,
	"ON":     CmdOn,
	"SWITCH": CmdToggle,
	"TOGGLE": CmdToggle,
	"BIND":   CmdBind,
	"UNBIND": CmdUnbind,
}

// nooLite-F actuators also answer state requests.
var txfCommands = map[string]Command{
	"OFF":       CmdOff,
	"ON":        CmdOn,
	"SWITCH":    CmdToggle,
	"TOGGLE":    CmdToggle,
	"BIND":      CmdBind,
	"UNBIND":    CmdUnbind,
	"GET_STATE": CmdReadState,
}

// Sub-topics carrying a numeric argument in fmt 1.
var fmt1Commands = map[string]Command{
	"BRIGHTNESS": CmdBrightSet,
}

// Bind topic payloads.
var bindRequests = map[string]Request{
	"1":   RequestBindStart,
	"ON":  RequestBindStart,
	"0":   RequestBindStop,
	"OFF": RequestBindStop,
}

// ParseInbound translates an MQTT command message into an adapter command.
//
// Accepted topics (relative to the prefix):
//
//	tx/<ch>                 OFF | ON | SWITCH | TOGGLE | BIND | UNBIND
//	tx-f/<ch>               as tx, plus GET_STATE
//	tx/<ch>/BRIGHTNESS      0..255
//	tx-f/<ch>/BRIGHTNESS    0..255
//	bind/<ch>               1 | ON (start), 0 | OFF (stop)
//	bind-f/<ch>             as bind, for nooLite-F receivers
//
// Payload names are case-sensitive.
//
// Returns:
//   - OutboundCommand: ready to Encode
//   - error: ErrUnknownTopic or ErrUnknownCommandPayload
func (t Topics) ParseInbound(topic string, payload []byte) (OutboundCommand, error) {
	rest, ok := strings.CutPrefix(topic, t.Prefix+"/")
	if !ok {
		return OutboundCommand{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}

	parts := strings.Split(rest, "/")
	if len(parts) < 2 || len(parts) > 3 { //nolint:mnd // kind/ch[/sub]
		return OutboundCommand{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}

	ch, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return OutboundCommand{}, fmt.Errorf("%w: bad channel in %s", ErrUnknownTopic, topic)
	}
	channel := uint8(ch)
	value := string(payload)

	switch parts[0] {
	case segTX, segTXF:
		mode, names := ModeTX, txCommands
		if parts[0] == segTXF {
			mode, names = ModeTXF, txfCommands
		}
		if len(parts) == 3 { //nolint:mnd // kind/ch/sub
			return parseFmt1(mode, channel, parts[2], value)
		}
		cmd, ok := names[value]
		if !ok {
			return OutboundCommand{}, fmt.Errorf("%w: %q on %s", ErrUnknownCommandPayload, value, topic)
		}
		return OutboundCommand{Mode: mode, Ctr: RequestCmd, Channel: channel, Cmd: cmd}, nil

	case segBind, segBindF:
		if len(parts) != 2 { //nolint:mnd // kind/ch
			return OutboundCommand{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
		}
		mode := ModeRX
		if parts[0] == segBindF {
			mode = ModeRXF
		}
		req, ok := bindRequests[value]
		if !ok {
			return OutboundCommand{}, fmt.Errorf("%w: %q on %s", ErrUnknownCommandPayload, value, topic)
		}
		return BindCommand(mode, channel, req == RequestBindStart), nil
	}

	return OutboundCommand{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
}

func parseFmt1(mode Mode, ch uint8, sub, value string) (OutboundCommand, error) {
	cmd, ok := fmt1Commands[sub]
	if !ok {
		return OutboundCommand{}, fmt.Errorf("%w: sub-command %q", ErrUnknownCommandPayload, sub)
	}
	arg, err := strconv.ParseUint(strings.TrimSpace(value), 10, 8)
	if err != nil {
		return OutboundCommand{}, fmt.Errorf("%w: %s argument %q", ErrUnknownCommandPayload, sub, value)
	}
	return OutboundCommand{
		Mode:    mode,
		Ctr:     RequestCmd,
		Channel: ch,
		Cmd:     cmd,
		Fmt:     1,
		Data:    [4]byte{byte(arg)},
	}, nil
}

// BindCommand builds the request that opens (start=true) or closes the
// adapter's bind window for a receive channel.
func BindCommand(mode Mode, ch uint8, start bool) OutboundCommand {
	req := RequestBindStop
	if start {
		req = RequestBindStart
	}
	return OutboundCommand{Mode: mode, Ctr: req, Channel: ch, Cmd: CmdOff}
}
