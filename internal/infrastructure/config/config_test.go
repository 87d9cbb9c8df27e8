package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker:
    host: "broker.lan"
    port: 1884
  qos: 1
  prefix: "home/noolite"
serial:
  device: "/dev/ttyUSB1"
noolite:
  strict_checksum: true
  send_spacing_ms: 500
discovery:
  enabled: true
  devices:
    - type: pt111
      channel: 2
    - type: pxx
      channel: 4
      channel2: 5
      mode: button
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "broker.lan" || cfg.MQTT.Broker.Port != 1884 {
		t.Errorf("MQTT.Broker = %+v", cfg.MQTT.Broker)
	}
	if cfg.MQTT.Prefix != "home/noolite" {
		t.Errorf("MQTT.Prefix = %q", cfg.MQTT.Prefix)
	}
	if cfg.Serial.Device != "/dev/ttyUSB1" || cfg.Serial.Baud != 9600 {
		t.Errorf("Serial = %+v, want device override and default baud", cfg.Serial)
	}
	if !cfg.NooLite.StrictChecksum || cfg.SendSpacing() != 500*time.Millisecond {
		t.Errorf("NooLite = %+v", cfg.NooLite)
	}
	if cfg.SerialReadTimeout() != 100*time.Millisecond {
		t.Errorf("SerialReadTimeout() = %v", cfg.SerialReadTimeout())
	}

	if len(cfg.Discovery.Devices) != 2 {
		t.Fatalf("Discovery.Devices = %+v", cfg.Discovery.Devices)
	}
	pxx := cfg.Discovery.Devices[1]
	if pxx.Channel2 == nil || *pxx.Channel2 != 5 || pxx.Channel3 != nil || pxx.Mode != "button" {
		t.Errorf("pxx device = %+v", pxx)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.QoS != 0 {
		t.Errorf("MQTT.QoS = %d, want 0", cfg.MQTT.QoS)
	}
	if cfg.MQTT.Prefix != "noolite" {
		t.Errorf("MQTT.Prefix = %q, want noolite", cfg.MQTT.Prefix)
	}
	if cfg.NooLite.StrictChecksum {
		t.Error("StrictChecksum should default to false")
	}
	if cfg.Discovery.Prefix != "homeassistant" {
		t.Errorf("Discovery.Prefix = %q", cfg.Discovery.Prefix)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "invalid: [yaml: content")); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("NOOLITE_MQTT_HOST", "env-broker")
	t.Setenv("NOOLITE_MQTT_PORT", "8883")
	t.Setenv("NOOLITE_MQTT_PASSWORD", "secret")
	t.Setenv("NOOLITE_SERIAL_DEVICE", "/dev/ttyACM0")
	t.Setenv("NOOLITE_NOOLITE_STRICT_CHECKSUM", "true")
	t.Setenv("NOOLITE_INFLUXDB_TOKEN", "tok")

	cfg, err := Load(writeConfig(t, "mqtt:\n  broker:\n    host: file-broker\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "env-broker" || cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker = %+v, want env values", cfg.MQTT.Broker)
	}
	if cfg.MQTT.Auth.Password != "secret" {
		t.Errorf("MQTT.Auth.Password = %q", cfg.MQTT.Auth.Password)
	}
	if cfg.Serial.Device != "/dev/ttyACM0" {
		t.Errorf("Serial.Device = %q", cfg.Serial.Device)
	}
	if !cfg.NooLite.StrictChecksum {
		t.Error("StrictChecksum override not applied")
	}
	if cfg.InfluxDB.Token != "tok" {
		t.Errorf("InfluxDB.Token = %q", cfg.InfluxDB.Token)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"bad qos", func(c *Config) { c.MQTT.QoS = 3 }, "mqtt.qos"},
		{"empty prefix", func(c *Config) { c.MQTT.Prefix = "/" }, "mqtt.prefix is required"},
		{"wildcard prefix", func(c *Config) { c.MQTT.Prefix = "home/#" }, "wildcards"},
		{"no serial device", func(c *Config) { c.Serial.Device = "" }, "serial.device"},
		{"zero read timeout", func(c *Config) { c.Serial.ReadTimeoutMS = 0 }, "read_timeout_ms"},
		{"negative spacing", func(c *Config) { c.NooLite.SendSpacingMS = -1 }, "send_spacing_ms"},
		{"zero queue", func(c *Config) { c.NooLite.CommandQueueSize = 0 }, "command_queue_size"},
		{"influx without url", func(c *Config) {
			c.InfluxDB.Enabled = true
			c.InfluxDB.Org, c.InfluxDB.Bucket = "o", "b"
		}, "influxdb.url"},
		{"api bad port", func(c *Config) { c.API.Enabled = true; c.API.Port = 0 }, "api.port"},
		{"device without type", func(c *Config) {
			c.Discovery.Devices = []DeviceConfig{{Channel: 1}}
		}, "devices[0].type"},
		{"device channel range", func(c *Config) {
			c.Discovery.Devices = []DeviceConfig{{Type: "ds1", Channel: 300}}
		}, "devices[0].channel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.MQTT.QoS = 5
	cfg.Serial.Device = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"mqtt.qos", "serial.device"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestAPITimeouts(t *testing.T) {
	cfg := Default()
	if cfg.GetReadTimeout() != 10*time.Second || cfg.GetIdleTimeout() != time.Minute {
		t.Errorf("timeouts = %v/%v", cfg.GetReadTimeout(), cfg.GetIdleTimeout())
	}
	if cfg.GetWriteTimeout() != 10*time.Second {
		t.Errorf("GetWriteTimeout() = %v", cfg.GetWriteTimeout())
	}
}
