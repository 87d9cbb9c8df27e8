package noolite

import (
	"fmt"
	"time"
)

// Sensor decoding constants.
const (
	// temporaryOnTick is the unit of the TEMPORARY_ON duration byte.
	temporaryOnTick = 5 * time.Second

	// tempSignThreshold and tempRange implement 12-bit two's complement.
	tempSignThreshold = 2048
	tempRange         = 4096

	// batteryDivisor converts the raw battery byte to volts.
	// PT111 always reports 255 here; the value is passed through as-is.
	batteryDivisor = 50.0

	// stateMask extracts the on/off state from the SEND_STATE payload.
	stateMask = 0x0F
)

// Interpret maps a decoded frame to domain events and scheduler work.
//
// Every frame yields an echo event first. Then, by (mode, cmd):
//   - TX_F + SEND_STATE: actuator state and brightness
//   - RX/RX_F + ON, OFF, TEMPORARY_ON: switch state; TEMPORARY_ON also
//     defers an OFF by d0*5 seconds. Any pending deferral for the channel
//     is cancelled first.
//   - RX/RX_F + SENSOR_TEMP_HUM: temperature, humidity, battery
//   - RX/RX_F + BATTERY_LOW: battery LOW
//
// Interpret has no side effects.
func Interpret(f Frame) Interpretation {
	var out Interpretation

	out.Events = append(out.Events, Event{
		Kind:    EventEcho,
		Channel: f.Channel,
		Mode:    f.Mode,
		Value:   f.String(),
	})

	switch {
	case f.Mode == ModeTXF && f.Cmd == CmdSendState:
		out.Events = append(out.Events, stateFEvent(f))

	case f.Mode.IsReceive():
		interpretReceive(f, &out)
	}

	return out
}

func interpretReceive(f Frame, out *Interpretation) {
	switch f.Cmd {
	case CmdOn, CmdOff, CmdTemporaryOn:
		out.Events = append(out.Events, switchEvent(f.Channel, f.Mode, f.Cmd != CmdOff))

		key := SwitchKey(f.Channel)
		out.Cancel = append(out.Cancel, key)

		if f.Cmd == CmdTemporaryOn {
			out.Defer = append(out.Defer, Deferral{
				Key:   key,
				Delay: time.Duration(f.Data[0]) * temporaryOnTick,
				Event: switchEvent(f.Channel, f.Mode, false),
			})
		}

	case CmdSensorTempHum:
		deci := DecodeTemperature(f.Data[0], f.Data[1])
		celsius := float64(deci) / 10
		humidity := f.Data[2]
		volts := float64(f.Data[3]) / batteryDivisor

		out.Events = append(out.Events,
			Event{
				Kind: EventTemperature, Channel: f.Channel, Mode: f.Mode,
				Value: fmt.Sprintf("%.1f", celsius), Reading: celsius, Measured: true,
			},
			Event{
				Kind: EventHumidity, Channel: f.Channel, Mode: f.Mode,
				Value: fmt.Sprintf("%d", humidity), Reading: float64(humidity), Measured: true,
			},
			Event{
				Kind: EventBattery, Channel: f.Channel, Mode: f.Mode,
				Value: fmt.Sprintf("%.2f", volts), Reading: volts, Measured: true,
			},
		)

	case CmdBatteryLow:
		out.Events = append(out.Events, Event{
			Kind: EventBattery, Channel: f.Channel, Mode: f.Mode, Value: PayloadLow,
		})
	}
}

func stateFEvent(f Frame) Event {
	on := f.Data[2]&stateMask > 0
	e := Event{
		Kind:       EventStateF,
		Channel:    f.Channel,
		Mode:       f.Mode,
		Value:      PayloadOff,
		Brightness: f.Data[3],
		Measured:   true,
	}
	if on {
		e.Value = PayloadOn
		e.Reading = 1
	}
	return e
}

// DecodeTemperature extracts the signed 12-bit decicelsius value carried in
// the low byte d0 and the low nibble of d1.
func DecodeTemperature(d0, d1 byte) int {
	v := int(d0) | int(d1&0x0F)<<8
	if v >= tempSignThreshold {
		v -= tempRange
	}
	return v
}
