package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override (NOOLITE_MQTT_HOST, ...).
const EnvPrefix = "NOOLITE_"

// Config is the root configuration structure for the bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Serial    SerialConfig    `yaml:"serial"`
	NooLite   NooLiteConfig   `yaml:"noolite"`
	Database  DatabaseConfig  `yaml:"database"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	API       APIConfig       `yaml:"api"`
	Logging   LoggingConfig   `yaml:"logging"`
	Discovery DiscoveryConfig `yaml:"discovery"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// Prefix is the root of every bridge topic (e.g. "home/noolite").
	Prefix string `yaml:"prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// SerialConfig describes the MTRF64 UART.
type SerialConfig struct {
	Device        string `yaml:"device"`
	Baud          int    `yaml:"baud"`
	ReadTimeoutMS int    `yaml:"read_timeout_ms"`
}

// NooLiteConfig contains bridge behaviour settings.
type NooLiteConfig struct {
	// StrictChecksum drops frames with a bad checksum instead of logging them.
	StrictChecksum   bool `yaml:"strict_checksum"`
	SendSpacingMS    int  `yaml:"send_spacing_ms"`
	MaxFramesPerPoll int  `yaml:"max_frames_per_poll"`
	CommandQueueSize int  `yaml:"command_queue_size"`
}

// DatabaseConfig contains SQLite settings for the channel ledger.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains the status HTTP server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// DiscoveryConfig controls Home Assistant MQTT discovery.
type DiscoveryConfig struct {
	Enabled bool           `yaml:"enabled"`
	Prefix  string         `yaml:"prefix"`
	Devices []DeviceConfig `yaml:"devices"`
}

// DeviceConfig declares one physical NooLite device for discovery.
//
//	- type: pxx
//	  channel: 4
//	  channel2: 5
//	  mode: button
type DeviceConfig struct {
	Type     string `yaml:"type"`
	Channel  int    `yaml:"channel"`
	Channel2 *int   `yaml:"channel2,omitempty"`
	Channel3 *int   `yaml:"channel3,omitempty"`
	Channel4 *int   `yaml:"channel4,omitempty"`
	Mode     string `yaml:"mode,omitempty"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values
//  2. YAML file values
//  3. A .env file next to the working directory, if present
//  4. Environment variables (NOOLITE_SECTION_KEY)
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads .env into the process environment. Variables already
// set win over the file.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// Default returns a Config with the adapter's factory settings.
func Default() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "noolite-mqtt",
			},
			QoS: 0,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			Prefix: "noolite",
		},
		Serial: SerialConfig{
			Device:        "/dev/ttyUSB0",
			Baud:          9600,
			ReadTimeoutMS: 100,
		},
		NooLite: NooLiteConfig{
			SendSpacingMS:    300,
			MaxFramesPerPoll: 32,
			CommandQueueSize: 64,
		},
		Database: DatabaseConfig{
			Path:        "./data/noolite.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8090,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Discovery: DiscoveryConfig{
			Prefix: "homeassistant",
		},
	}
}

// applyEnvOverrides applies NOOLITE_SECTION_KEY environment overrides.
func applyEnvOverrides(cfg *Config) {
	setString(&cfg.MQTT.Broker.Host, "MQTT_HOST")
	setInt(&cfg.MQTT.Broker.Port, "MQTT_PORT")
	setString(&cfg.MQTT.Broker.ClientID, "MQTT_CLIENT_ID")
	setString(&cfg.MQTT.Auth.Username, "MQTT_USERNAME")
	setString(&cfg.MQTT.Auth.Password, "MQTT_PASSWORD")
	setString(&cfg.MQTT.Prefix, "MQTT_PREFIX")

	setString(&cfg.Serial.Device, "SERIAL_DEVICE")
	setInt(&cfg.Serial.Baud, "SERIAL_BAUD")

	setBool(&cfg.NooLite.StrictChecksum, "NOOLITE_STRICT_CHECKSUM")

	setString(&cfg.Database.Path, "DATABASE_PATH")

	setString(&cfg.InfluxDB.URL, "INFLUXDB_URL")
	setString(&cfg.InfluxDB.Token, "INFLUXDB_TOKEN")

	setString(&cfg.API.Host, "API_HOST")
	setInt(&cfg.API.Port, "API_PORT")

	setString(&cfg.Logging.Level, "LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		*dst = v
	}
}

// setInt ignores values that do not parse; Validate reports the result.
func setInt(dst *int, key string) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Every problem found, joined, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if strings.Trim(c.MQTT.Prefix, "/") == "" {
		errs = append(errs, "mqtt.prefix is required")
	}
	if strings.ContainsAny(c.MQTT.Prefix, "#+") {
		errs = append(errs, "mqtt.prefix must not contain wildcards")
	}

	if c.Serial.Device == "" {
		errs = append(errs, "serial.device is required")
	}
	if c.Serial.Baud <= 0 {
		errs = append(errs, "serial.baud must be positive")
	}
	if c.Serial.ReadTimeoutMS <= 0 {
		errs = append(errs, "serial.read_timeout_ms must be positive")
	}

	if c.NooLite.SendSpacingMS < 0 {
		errs = append(errs, "noolite.send_spacing_ms must not be negative")
	}
	if c.NooLite.MaxFramesPerPoll < 1 {
		errs = append(errs, "noolite.max_frames_per_poll must be at least 1")
	}
	if c.NooLite.CommandQueueSize < 1 {
		errs = append(errs, "noolite.command_queue_size must be at least 1")
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when database is enabled")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	for i, d := range c.Discovery.Devices {
		if d.Type == "" {
			errs = append(errs, fmt.Sprintf("discovery.devices[%d].type is required", i))
		}
		if d.Channel < 0 || d.Channel > 255 {
			errs = append(errs, fmt.Sprintf("discovery.devices[%d].channel must be between 0 and 255", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// SerialReadTimeout returns the serial read timeout as a Duration.
func (c *Config) SerialReadTimeout() time.Duration {
	return time.Duration(c.Serial.ReadTimeoutMS) * time.Millisecond
}

// SendSpacing returns the minimum gap between adapter writes.
func (c *Config) SendSpacing() time.Duration {
	return time.Duration(c.NooLite.SendSpacingMS) * time.Millisecond
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
