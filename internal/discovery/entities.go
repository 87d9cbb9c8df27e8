package discovery

import (
	"fmt"
	"strings"

	"github.com/nerrad567/noolite-mqtt/internal/infrastructure/config"
)

// Home Assistant components used by the templates.
const (
	ComponentBinarySensor = "binary_sensor"
	ComponentSensor       = "sensor"
	ComponentSwitch       = "switch"
	ComponentLight        = "light"
)

const (
	manufacturerNooLite = "NooLite"
	manufacturerFoxel   = "Foxel"

	payloadOnline  = "Online"
	payloadOffline = "Offline"

	// Sensors report about hourly; allow one missed report.
	sensorExpireAfter = 3700
	foxelExpireAfter  = 600

	motionOffDelay = "180"
	buttonOffDelay = 1

	maxChannel = 255
)

// Entity is one discovery message.
type Entity struct {
	Component string
	ObjectID  string
	Config    EntityConfig
}

// Topic returns the entity's config topic under discoveryPrefix.
func (e Entity) Topic(discoveryPrefix string) string {
	return fmt.Sprintf("%s/%s/%s/config", discoveryPrefix, e.Component, e.ObjectID)
}

// EntityConfig is the JSON body Home Assistant reads.
type EntityConfig struct {
	Name              string `json:"name"`
	StateTopic        string `json:"state_topic,omitempty"`
	CommandTopic      string `json:"command_topic,omitempty"`
	PayloadOn         string `json:"payload_on,omitempty"`
	PayloadOff        string `json:"payload_off,omitempty"`
	DeviceClass       string `json:"device_class,omitempty"`
	UnitOfMeasurement string `json:"unit_of_measurement,omitempty"`
	ExpireAfter       int    `json:"expire_after,omitempty"`
	ForceUpdate       bool   `json:"force_update,omitempty"`

	// OffDelay is seconds; motion sensors have always sent it as a string.
	OffDelay any    `json:"off_delay,omitempty"`
	UniqueID string `json:"unique_id"`
	Device   Device `json:"device"`

	*Availability
}

// Device groups entities in Home Assistant's device registry.
type Device struct {
	Identifiers  []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer"`
	Name         string   `json:"name"`
	ViaDevice    string   `json:"via_device,omitempty"`
}

// Availability ties an entity to the bridge's LWT topic.
type Availability struct {
	Topic               string `json:"availability_topic"`
	PayloadAvailable    string `json:"payload_available"`
	PayloadNotAvailable string `json:"payload_not_available"`
}

// builder renders entities for one bridge topic prefix.
type builder struct {
	prefix string
	rootID string
}

func newBuilder(mqttPrefix string) builder {
	mqttPrefix = strings.TrimRight(mqttPrefix, "/")
	return builder{
		prefix: mqttPrefix,
		rootID: RootID(mqttPrefix),
	}
}

// RootID derives the bridge's device identifier from its topic prefix.
func RootID(mqttPrefix string) string {
	return strings.ReplaceAll(strings.TrimRight(mqttPrefix, "/"), "/", "_")
}

// Entities renders the root entity followed by every configured device's
// entities. Nothing is returned if any device is invalid.
func Entities(mqttPrefix string, devices []config.DeviceConfig) ([]Entity, error) {
	b := newBuilder(mqttPrefix)
	entities := []Entity{b.root()}

	for i, dev := range devices {
		es, err := b.device(dev)
		if err != nil {
			return nil, fmt.Errorf("device %d (%s): %w", i, dev.Type, err)
		}
		entities = append(entities, es...)
	}
	return entities, nil
}

func (b builder) topic(kind string, ch int) string {
	return fmt.Sprintf("%s/%s/%d", b.prefix, kind, ch)
}

func (b builder) availability() *Availability {
	return &Availability{
		Topic:               b.prefix + "/LWT",
		PayloadAvailable:    payloadOnline,
		PayloadNotAvailable: payloadOffline,
	}
}

func (b builder) deviceInfo(id, name, manufacturer string) Device {
	return Device{
		Identifiers:  []string{id},
		Manufacturer: manufacturer,
		Name:         name,
		ViaDevice:    b.rootID,
	}
}

func (b builder) rxID(ch int) string {
	return fmt.Sprintf("%s_rx_%d", b.rootID, ch)
}

// entity fills the fields every non-root entity shares.
func (b builder) entity(component, objectID string, dev Device, cfg EntityConfig) Entity {
	cfg.Name = objectID
	cfg.Device = dev
	cfg.Availability = b.availability()
	return Entity{Component: component, ObjectID: objectID, Config: cfg}
}

func (b builder) root() Entity {
	return Entity{
		Component: ComponentBinarySensor,
		ObjectID:  b.rootID,
		Config: EntityConfig{
			Name:        "NooLite MQTT Bridge Status",
			StateTopic:  b.prefix + "/LWT",
			PayloadOn:   payloadOnline,
			PayloadOff:  payloadOffline,
			DeviceClass: "connectivity",
			UniqueID:    b.rootID,
			Device: Device{
				Identifiers:  []string{b.rootID},
				Manufacturer: manufacturerNooLite,
				Name:         "NooLite MTRF64",
			},
		},
	}
}

func (b builder) device(dev config.DeviceConfig) ([]Entity, error) {
	if err := checkChannel(dev.Channel); err != nil {
		return nil, err
	}

	switch strings.ToLower(dev.Type) {
	case "pm112":
		return b.motion(dev.Channel), nil
	case "pt111":
		return b.climate(dev.Channel, "PT111 Temperature and Humidity Sensor", true), nil
	case "pt112":
		return b.climate(dev.Channel, "PT112 Temperature Sensor", false), nil
	case "pl111":
		return b.contact(dev.Channel, "light", "light", "PL111 Light Sensor"), nil
	case "ds1":
		return b.contact(dev.Channel, "open", "opening", "DS-1 Open Sensor"), nil
	case "ws1":
		return b.contact(dev.Channel, "water", "moisture", "WS-1 Water Sensor"), nil
	case "pxx":
		return b.remote(dev)
	case "sr1":
		return b.relay(dev, ComponentSwitch, false)
	case "su1", "sb1":
		return b.relay(dev, ComponentLight, false)
	case "srf1":
		return b.relay(dev, ComponentSwitch, true)
	case "suf1":
		return b.relay(dev, ComponentLight, true)
	case "fox1":
		return b.foxel(dev.Channel), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDeviceType, dev.Type)
	}
}

func checkChannel(ch int) error {
	if ch < 0 || ch > maxChannel {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, ch)
	}
	return nil
}

func (b builder) motion(ch int) []Entity {
	id := b.rxID(ch)
	objectID := fmt.Sprintf("noolite_motion_%d", ch)
	return []Entity{b.entity(ComponentBinarySensor, objectID,
		b.deviceInfo(id, "PM112 Motion Sensor", manufacturerNooLite),
		EntityConfig{
			StateTopic:  b.topic("switch", ch),
			PayloadOn:   "ON",
			DeviceClass: "motion",
			OffDelay:    motionOffDelay,
			UniqueID:    id + "_motion",
		})}
}

func (b builder) climate(ch int, name string, withHumidity bool) []Entity {
	id := b.rxID(ch)
	dev := b.deviceInfo(id, name, manufacturerNooLite)

	entities := []Entity{b.entity(ComponentSensor, fmt.Sprintf("noolite_temperature_%d", ch), dev,
		EntityConfig{
			StateTopic:        b.topic("temperature", ch),
			ExpireAfter:       sensorExpireAfter,
			ForceUpdate:       true,
			DeviceClass:       "temperature",
			UnitOfMeasurement: "°C",
			UniqueID:          id + "_temperature",
		})}

	if withHumidity {
		entities = append(entities, b.entity(ComponentSensor, fmt.Sprintf("noolite_humidity_%d", ch), dev,
			EntityConfig{
				StateTopic:        b.topic("humidity", ch),
				ExpireAfter:       sensorExpireAfter,
				ForceUpdate:       true,
				DeviceClass:       "humidity",
				UnitOfMeasurement: "%",
				UniqueID:          id + "_humidity",
			}))
	}
	return entities
}

// contact covers the two-state sensors reporting on the switch topic.
func (b builder) contact(ch int, suffix, deviceClass, name string) []Entity {
	id := b.rxID(ch)
	return []Entity{b.entity(ComponentBinarySensor, fmt.Sprintf("noolite_%s_%d", suffix, ch),
		b.deviceInfo(id, name, manufacturerNooLite),
		EntityConfig{
			StateTopic:  b.topic("switch", ch),
			PayloadOn:   "ON",
			PayloadOff:  "OFF",
			DeviceClass: deviceClass,
			UniqueID:    id + "_" + suffix,
		})}
}

func (b builder) remote(dev config.DeviceConfig) ([]Entity, error) {
	mode := dev.Mode
	if mode == "" {
		mode = "switch"
	}
	if mode != "switch" && mode != "button" {
		return nil, fmt.Errorf("%w: pxx mode must be switch or button, got %q", ErrInvalidMode, mode)
	}

	channels := []int{dev.Channel}
	for _, extra := range []*int{dev.Channel2, dev.Channel3, dev.Channel4} {
		if extra == nil {
			continue
		}
		if err := checkChannel(*extra); err != nil {
			return nil, err
		}
		channels = append(channels, *extra)
	}

	// All buttons of one remote share the first channel's device entry.
	id := b.rxID(dev.Channel)
	var entities []Entity
	for _, ch := range channels {
		if mode == "switch" {
			entities = append(entities, b.entity(ComponentBinarySensor, fmt.Sprintf("noolite_switch_%d", ch),
				b.deviceInfo(id, "PX-XXX Remote Switch", manufacturerNooLite),
				EntityConfig{
					StateTopic: b.topic("switch", ch),
					PayloadOn:  "ON",
					PayloadOff: "OFF",
					UniqueID:   fmt.Sprintf("%s_switch", b.rxID(ch)),
				}))
			continue
		}
		entities = append(entities, b.entity(ComponentBinarySensor, fmt.Sprintf("noolite_button_%d", ch),
			b.deviceInfo(id, "PX-XXX Remote Button", manufacturerNooLite),
			EntityConfig{
				StateTopic: b.topic("button", ch),
				PayloadOn:  "TOGGLE",
				OffDelay:   buttonOffDelay,
				UniqueID:   fmt.Sprintf("%s_button", b.rxID(ch)),
			}))
	}
	return entities, nil
}

// relay covers the actuators; nooliteF selects the tx-f family with state feedback.
func (b builder) relay(dev config.DeviceConfig, defaultComponent string, nooliteF bool) ([]Entity, error) {
	component := dev.Mode
	if component == "" {
		component = defaultComponent
	}
	if component != ComponentSwitch && component != ComponentLight {
		return nil, fmt.Errorf("%w: %s mode must be switch or light, got %q", ErrInvalidMode, dev.Type, component)
	}

	ch := dev.Channel
	cfg := EntityConfig{}
	var id, name string
	if nooliteF {
		id = fmt.Sprintf("%s_txf_%d", b.rootID, ch)
		name = "SRF-1-X Switch"
		cfg.CommandTopic = b.topic("tx-f", ch)
		cfg.StateTopic = b.topic("state-f", ch)
	} else {
		id = fmt.Sprintf("%s_tx_%d", b.rootID, ch)
		name = "SR-1-X Switch"
		cfg.CommandTopic = b.topic("tx", ch)
	}
	cfg.UniqueID = id + "_switch"

	return []Entity{b.entity(component, fmt.Sprintf("noolite_switch_%d", ch),
		b.deviceInfo(id, name, manufacturerNooLite), cfg)}, nil
}

func (b builder) foxel(ch int) []Entity {
	id := b.rxID(ch)
	dev := b.deviceInfo(id, "Foxel's NooLite Sensor", manufacturerFoxel)

	sensor := func(kind, deviceClass, unit string) Entity {
		return b.entity(ComponentSensor, fmt.Sprintf("noolite_%s_%d", kind, ch), dev, EntityConfig{
			StateTopic:        b.topic(kind, ch),
			ExpireAfter:       foxelExpireAfter,
			ForceUpdate:       true,
			DeviceClass:       deviceClass,
			UnitOfMeasurement: unit,
			UniqueID:          id + "_" + kind,
		})
	}

	return []Entity{
		b.entity(ComponentBinarySensor, fmt.Sprintf("noolite_motion_%d", ch), dev, EntityConfig{
			StateTopic:  b.topic("switch", ch),
			PayloadOn:   "ON",
			PayloadOff:  "OFF",
			DeviceClass: "motion",
			OffDelay:    motionOffDelay,
			UniqueID:    id + "_motion",
		}),
		sensor("temperature", "temperature", "°C"),
		sensor("humidity", "humidity", "%"),
		sensor("battery", "battery", "V"),
	}
}
