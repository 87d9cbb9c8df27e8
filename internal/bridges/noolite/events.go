package noolite

import (
	"fmt"
	"strconv"
	"time"
)

// EventKind identifies what a domain event describes.
type EventKind uint8

// Event kinds produced by the interpreter.
const (
	// EventEcho passes the raw frame through for debugging.
	EventEcho EventKind = iota
	// EventSwitch is an ON/OFF from a remote, switch or motion sensor.
	EventSwitch
	// EventStateF is a nooLite-F actuator reporting its state and brightness.
	EventStateF
	// EventTemperature is a temperature reading in °C.
	EventTemperature
	// EventHumidity is a relative humidity reading in percent.
	EventHumidity
	// EventBattery is a battery voltage or the literal LOW.
	EventBattery
)

var eventKindNames = map[EventKind]string{
	EventEcho:        "echo",
	EventSwitch:      "switch",
	EventStateF:      "state-f",
	EventTemperature: "temperature",
	EventHumidity:    "humidity",
	EventBattery:     "battery",
}

// String returns the kind name, which is also its MQTT topic segment.
func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

// Switch and state payloads.
const (
	PayloadOn  = "ON"
	PayloadOff = "OFF"
	PayloadLow = "LOW"
)

// Event is a semantic event derived from a frame (or fired by the scheduler).
type Event struct {
	Kind    EventKind
	Channel uint8
	Mode    Mode

	// Value is the MQTT payload: "ON", "-1.0", "LOW", "[171,...]".
	Value string

	// Brightness accompanies EventStateF.
	Brightness uint8

	// Reading is the numeric form of Value when Measured is true.
	Reading  float64
	Measured bool
}

// Message is a single MQTT publication.
type Message struct {
	Topic    string
	Payload  string
	Retained bool
}

// Messages renders the event as the MQTT publications it maps to.
func (e Event) Messages(t Topics) []Message {
	switch e.Kind {
	case EventEcho:
		return []Message{{Topic: t.Echo(e.Channel), Payload: e.Value}}
	case EventSwitch:
		return []Message{{Topic: t.Switch(e.Channel), Payload: e.Value}}
	case EventStateF:
		return []Message{
			{Topic: t.StateF(e.Channel), Payload: e.Value, Retained: true},
			{Topic: t.StateFBrightness(e.Channel), Payload: strconv.Itoa(int(e.Brightness)), Retained: true},
		}
	case EventTemperature:
		return []Message{{Topic: t.Temperature(e.Channel), Payload: e.Value}}
	case EventHumidity:
		return []Message{{Topic: t.Humidity(e.Channel), Payload: e.Value}}
	case EventBattery:
		return []Message{{Topic: t.Battery(e.Channel), Payload: e.Value}}
	}
	return nil
}

// Deferral asks the scheduler to emit Event after Delay, replacing any
// pending entry under the same Key.
type Deferral struct {
	Key   string
	Delay time.Duration
	Event Event
}

// Interpretation is everything the bridge must do for one frame.
type Interpretation struct {
	// Events are published immediately, in order.
	Events []Event

	// Cancel lists scheduler keys whose pending entries must be removed
	// before Defer is applied.
	Cancel []string

	// Defer lists new scheduler entries.
	Defer []Deferral
}

// SwitchKey is the scheduler key for a channel's switch state.
// RX and RX_F share it because they publish to the same topic.
func SwitchKey(ch uint8) string {
	return "switch/" + strconv.Itoa(int(ch))
}

func switchEvent(ch uint8, m Mode, on bool) Event {
	e := Event{Kind: EventSwitch, Channel: ch, Mode: m, Value: PayloadOff, Measured: true}
	if on {
		e.Value = PayloadOn
		e.Reading = 1
	}
	return e
}
