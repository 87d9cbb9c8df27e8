package noolite

import (
	"fmt"
	"strings"
)

// DefaultPrefix is the topic prefix used when none is configured.
const DefaultPrefix = "noolite"

// Topic segments.
const (
	segTX     = "tx"
	segTXF    = "tx-f"
	segBind   = "bind"
	segBindF  = "bind-f"
	segLWT    = "LWT"
	segBright = "brightness"
)

// Topics builds the bridge's MQTT topics under a prefix.
//
//	t := noolite.Topics{Prefix: "home/noolite"}
//	t.Switch(7) // "home/noolite/switch/7"
type Topics struct {
	Prefix string
}

// NewTopics returns topic builders for prefix, trimming any trailing slash.
func NewTopics(prefix string) Topics {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{Prefix: prefix}
}

func (t Topics) channel(seg string, ch uint8) string {
	return fmt.Sprintf("%s/%s/%d", t.Prefix, seg, ch)
}

// Echo returns the raw frame passthrough topic.
func (t Topics) Echo(ch uint8) string { return t.channel(EventEcho.String(), ch) }

// Switch returns the switch state topic.
func (t Topics) Switch(ch uint8) string { return t.channel(EventSwitch.String(), ch) }

// StateF returns the nooLite-F actuator state topic.
func (t Topics) StateF(ch uint8) string { return t.channel(EventStateF.String(), ch) }

// StateFBrightness returns the nooLite-F actuator brightness topic.
func (t Topics) StateFBrightness(ch uint8) string { return t.StateF(ch) + "/" + segBright }

// Temperature returns the temperature topic.
func (t Topics) Temperature(ch uint8) string { return t.channel(EventTemperature.String(), ch) }

// Humidity returns the humidity topic.
func (t Topics) Humidity(ch uint8) string { return t.channel(EventHumidity.String(), ch) }

// Battery returns the battery topic.
func (t Topics) Battery(ch uint8) string { return t.channel(EventBattery.String(), ch) }

// TX returns the plain nooLite command topic for a channel.
func (t Topics) TX(ch uint8) string { return t.channel(segTX, ch) }

// TXF returns the nooLite-F command topic for a channel.
func (t Topics) TXF(ch uint8) string { return t.channel(segTXF, ch) }

// LWT returns the bridge availability topic.
func (t Topics) LWT() string { return t.Prefix + "/" + segLWT }

// CommandSubscriptions returns the wildcard topics the bridge listens on.
func (t Topics) CommandSubscriptions() []string {
	return []string{
		t.Prefix + "/" + segTX + "/#",
		t.Prefix + "/" + segTXF + "/#",
		t.Prefix + "/" + segBind + "/#",
		t.Prefix + "/" + segBindF + "/#",
	}
}

// Availability payloads for the LWT topic.
const (
	PayloadOnline  = "Online"
	PayloadOffline = "Offline"
)
