package noolite

import "fmt"

// Mode selects the radio family and direction of a frame.
type Mode uint8

// MTRF64 modes.
const (
	ModeTX       Mode = 0 // nooLite transmit
	ModeRX       Mode = 1 // nooLite receive
	ModeTXF      Mode = 2 // nooLite-F transmit
	ModeRXF      Mode = 3 // nooLite-F receive
	ModeServiceF Mode = 4 // nooLite-F service
	ModeOTAF     Mode = 5 // nooLite-F firmware upgrade
)

var modeNames = map[Mode]string{
	ModeTX:       "TX",
	ModeRX:       "RX",
	ModeTXF:      "TX_F",
	ModeRXF:      "RX_F",
	ModeServiceF: "SERVICE_F",
	ModeOTAF:     "OTA_F",
}

// String returns the protocol name of the mode.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// IsReceive reports whether frames in this mode carry events from remotes and sensors.
func (m Mode) IsReceive() bool {
	return m == ModeRX || m == ModeRXF
}

// Request is the ctr byte: what the adapter should do with the frame.
type Request uint8

// MTRF64 request types.
const (
	RequestCmd          Request = 0
	RequestBroadcastCmd Request = 1
	RequestRead         Request = 2
	RequestBindStart    Request = 3
	RequestBindStop     Request = 4
	RequestClear        Request = 5
	RequestClearAll     Request = 6
	RequestUnbind       Request = 7
	RequestCmdFAddr     Request = 8
)

var requestNames = map[Request]string{
	RequestCmd:          "CMD",
	RequestBroadcastCmd: "BROADCAST_CMD",
	RequestRead:         "READ",
	RequestBindStart:    "BIND_START",
	RequestBindStop:     "BIND_STOP",
	RequestClear:        "CLEAR",
	RequestClearAll:     "CLEAR_ALL",
	RequestUnbind:       "UNBIND",
	RequestCmdFAddr:     "CMD_F_ADDR",
}

// String returns the protocol name of the request.
func (r Request) String() string {
	if name, ok := requestNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Request(%d)", uint8(r))
}

// Valid reports whether r is a known request type.
func (r Request) Valid() bool {
	_, ok := requestNames[r]
	return ok
}

// Response is the ctr byte of a frame returned by the adapter.
type Response uint8

// MTRF64 response codes.
const (
	ResponseSuccess     Response = 0
	ResponseNoResponse  Response = 1
	ResponseError       Response = 2
	ResponseBindSuccess Response = 3
)

var responseNames = map[Response]string{
	ResponseSuccess:     "SUCCESS",
	ResponseNoResponse:  "NO_RESPONSE",
	ResponseError:       "ERROR",
	ResponseBindSuccess: "BIND_SUCCESS",
}

// String returns the protocol name of the response code.
func (r Response) String() string {
	if name, ok := responseNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Response(%d)", uint8(r))
}

// Command is the cmd byte of a frame.
type Command uint8

// NooLite commands.
const (
	CmdOff            Command = 0
	CmdBrightDown     Command = 1
	CmdOn             Command = 2
	CmdBrightUp       Command = 3
	CmdToggle         Command = 4
	CmdBrightBack     Command = 5
	CmdBrightSet      Command = 6
	CmdLoadPreset     Command = 7
	CmdSavePreset     Command = 8
	CmdUnbind         Command = 9
	CmdBrightStop     Command = 10
	CmdBrightStepDown Command = 11
	CmdBrightStepUp   Command = 12
	CmdBrightStart    Command = 13
	CmdBind           Command = 15
	CmdRollColor      Command = 16
	CmdRGBColor       Command = 17
	CmdRGBMode        Command = 18
	CmdRGBModeBack    Command = 19
	CmdBatteryLow     Command = 20
	CmdSensorTempHum  Command = 21
	CmdTemporaryOn    Command = 25
	CmdSetModes       Command = 26
	CmdReadState      Command = 128
	CmdWriteState     Command = 129
	CmdSendState      Command = 130
	CmdService        Command = 131
	CmdClearMemory    Command = 132
)

var commandNames = map[Command]string{
	CmdOff:            "OFF",
	CmdBrightDown:     "BRIGHT_DOWN",
	CmdOn:             "ON",
	CmdBrightUp:       "BRIGHT_UP",
	CmdToggle:         "TOGGLE",
	CmdBrightBack:     "BRIGHT_BACK",
	CmdBrightSet:      "BRIGHT_SET",
	CmdLoadPreset:     "LOAD_PRESET",
	CmdSavePreset:     "SAVE_PRESET",
	CmdUnbind:         "UNBIND",
	CmdBrightStop:     "BRIGHT_STOP",
	CmdBrightStepDown: "BRIGHT_STEP_DOWN",
	CmdBrightStepUp:   "BRIGHT_STEP_UP",
	CmdBrightStart:    "BRIGHT_START",
	CmdBind:           "BIND",
	CmdRollColor:      "ROLL_COLOR",
	CmdRGBColor:       "RGB_COLOR",
	CmdRGBMode:        "RGB_MODE",
	CmdRGBModeBack:    "RGB_MODE_BACK",
	CmdBatteryLow:     "BATTERY_LOW",
	CmdSensorTempHum:  "SENSOR_TEMP_HUM",
	CmdTemporaryOn:    "TEMPORARY_ON",
	CmdSetModes:       "SET_MODES",
	CmdReadState:      "READ_STATE",
	CmdWriteState:     "WRITE_STATE",
	CmdSendState:      "SEND_STATE",
	CmdService:        "SERVICE",
	CmdClearMemory:    "CLEAR_MEMORY",
}

// String returns the protocol name of the command.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(%d)", uint8(c))
}

// Valid reports whether c is a known command.
func (c Command) Valid() bool {
	_, ok := commandNames[c]
	return ok
}

// ParseCommand looks a command up by its protocol name (e.g. "TOGGLE").
func ParseCommand(name string) (Command, bool) {
	for c, n := range commandNames {
		if n == name {
			return c, true
		}
	}
	return 0, false
}

// lastLegacyCommand is the highest command number understood by plain
// nooLite (non-F) receivers and transmitters.
const lastLegacyCommand = CmdTemporaryOn

// ValidFor reports whether command c may be carried in a frame of mode m.
//
// The table:
//   - TX, RX: plain nooLite commands (OFF through TEMPORARY_ON)
//   - TX_F, RX_F: every command
//   - SERVICE_F, OTA_F: state and service commands only
func (c Command) ValidFor(m Mode) bool {
	if !c.Valid() || !m.Valid() {
		return false
	}

	switch m {
	case ModeTX, ModeRX:
		return c <= lastLegacyCommand
	case ModeTXF, ModeRXF:
		return true
	case ModeServiceF, ModeOTAF:
		switch c {
		case CmdReadState, CmdWriteState, CmdService, CmdClearMemory:
			return true
		}
		return false
	}
	return false
}
