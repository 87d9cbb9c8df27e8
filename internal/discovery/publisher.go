package discovery

import (
	"encoding/json"
	"fmt"

	"github.com/nerrad567/noolite-mqtt/internal/infrastructure/config"
)

// DefaultPrefix is Home Assistant's default discovery prefix.
const DefaultPrefix = "homeassistant"

// Publisher sends one MQTT message. *mqtt.Client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger is the logging interface used by Announce.
type Logger interface {
	Info(msg string, keysAndValues ...any)
}

// Announcer publishes discovery configs for a bridge.
type Announcer struct {
	publisher       Publisher
	discoveryPrefix string
	mqttPrefix      string
	logger          Logger
}

// NewAnnouncer creates an announcer for the bridge rooted at mqttPrefix.
//
// Parameters:
//   - publisher: MQTT publisher for the retained configs
//   - discoveryPrefix: Home Assistant discovery prefix; "" selects DefaultPrefix
//   - mqttPrefix: the bridge's topic prefix
func NewAnnouncer(publisher Publisher, discoveryPrefix, mqttPrefix string) *Announcer {
	if discoveryPrefix == "" {
		discoveryPrefix = DefaultPrefix
	}
	return &Announcer{
		publisher:       publisher,
		discoveryPrefix: discoveryPrefix,
		mqttPrefix:      mqttPrefix,
	}
}

// SetLogger sets a logger that receives one line per published entity.
func (a *Announcer) SetLogger(logger Logger) {
	a.logger = logger
}

// Announce publishes the root entity and every device's entities, retained.
// Devices are validated before anything is published.
//
// Returns:
//   - int: number of configs published
//   - error: invalid device or the first publish failure
func (a *Announcer) Announce(devices []config.DeviceConfig) (int, error) {
	entities, err := Entities(a.mqttPrefix, devices)
	if err != nil {
		return 0, err
	}

	for i, e := range entities {
		payload, err := json.Marshal(e.Config)
		if err != nil {
			return i, fmt.Errorf("encoding %s: %w", e.ObjectID, err)
		}
		topic := e.Topic(a.discoveryPrefix)
		if err := a.publisher.Publish(topic, payload, 0, true); err != nil {
			return i, fmt.Errorf("publishing %s: %w", topic, err)
		}
		if a.logger != nil {
			a.logger.Info("discovery config published", "component", e.Component, "object_id", e.ObjectID)
		}
	}
	return len(entities), nil
}
