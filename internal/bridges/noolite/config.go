package noolite

import "time"

// Bridge defaults.
const (
	// DefaultSendSpacing is the minimum gap between writes to the adapter.
	// The MTRF64 drops commands sent faster than its radio duty cycle allows.
	DefaultSendSpacing = 300 * time.Millisecond

	// DefaultQueueSize is the capacity of the inbound command queue.
	DefaultQueueSize = 64

	// DefaultErrorBackoff is the pause after a transport error before the
	// next poll.
	DefaultErrorBackoff = time.Second
)

// Config holds the bridge's operational settings.
// main.go fills it from the application configuration.
type Config struct {
	// Prefix is the MQTT topic prefix (e.g. "home/noolite").
	Prefix string

	// QoS is used for every publish and subscribe.
	QoS byte

	// StrictChecksum drops frames whose checksum does not match.
	// When false they are logged and interpreted anyway.
	StrictChecksum bool

	// SendSpacing is the minimum gap between consecutive adapter writes.
	// Zero disables spacing.
	SendSpacing time.Duration

	// MaxFramesPerPoll bounds the frames handled per loop iteration.
	MaxFramesPerPoll int

	// QueueSize is the inbound command queue capacity.
	QueueSize int

	// ErrorBackoff is the pause after a transport error.
	ErrorBackoff time.Duration
}

// DefaultConfig returns the settings the adapter firmware expects.
func DefaultConfig() Config {
	return Config{
		Prefix:           DefaultPrefix,
		SendSpacing:      DefaultSendSpacing,
		MaxFramesPerPoll: DefaultMaxFramesPerPoll,
		QueueSize:        DefaultQueueSize,
		ErrorBackoff:     DefaultErrorBackoff,
	}
}

// withDefaults fills zero-valued sizing fields. Spacing and backoff are left
// alone so tests can disable them.
func (c Config) withDefaults() Config {
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.MaxFramesPerPoll <= 0 {
		c.MaxFramesPerPoll = DefaultMaxFramesPerPoll
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.QoS > 2 { //nolint:mnd // MQTT QoS ceiling
		c.QoS = 2
	}
	return c
}
