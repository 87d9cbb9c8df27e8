package discovery

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nerrad567/noolite-mqtt/internal/infrastructure/config"
)

func intPtr(v int) *int { return &v }

// render marshals an entity config back to a generic map for inspection.
func render(t *testing.T, e Entity) map[string]any {
	t.Helper()
	raw, err := json.Marshal(e.Config)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	return m
}

func TestRootID(t *testing.T) {
	tests := map[string]string{
		"noolite":       "noolite",
		"home/noolite":  "home_noolite",
		"home/noolite/": "home_noolite",
	}
	for prefix, want := range tests {
		if got := RootID(prefix); got != want {
			t.Errorf("RootID(%q) = %q, want %q", prefix, got, want)
		}
	}
}

func TestRootEntity(t *testing.T) {
	entities, err := Entities("home/noolite", nil)
	if err != nil {
		t.Fatalf("Entities() error = %v", err)
	}
	if len(entities) != 1 {
		t.Fatalf("len(entities) = %d, want 1", len(entities))
	}

	root := entities[0]
	if got := root.Topic("homeassistant"); got != "homeassistant/binary_sensor/home_noolite/config" {
		t.Errorf("Topic() = %q", got)
	}

	m := render(t, root)
	want := map[string]any{
		"name":         "NooLite MQTT Bridge Status",
		"state_topic":  "home/noolite/LWT",
		"payload_on":   "Online",
		"payload_off":  "Offline",
		"unique_id":    "home_noolite",
		"device_class": "connectivity",
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s = %v, want %v", k, m[k], v)
		}
	}
	if _, ok := m["availability_topic"]; ok {
		t.Error("root entity must not carry an availability block")
	}
	dev := m["device"].(map[string]any)
	if _, ok := dev["via_device"]; ok {
		t.Error("root device must not have via_device")
	}
	if dev["name"] != "NooLite MTRF64" {
		t.Errorf("device.name = %v", dev["name"])
	}
}

func TestDeviceEntities(t *testing.T) {
	tests := []struct {
		name      string
		dev       config.DeviceConfig
		wantIDs   []string
		component string
		check     map[string]any
	}{
		{
			name:      "pm112",
			dev:       config.DeviceConfig{Type: "pm112", Channel: 3},
			wantIDs:   []string{"noolite_motion_3"},
			component: ComponentBinarySensor,
			check: map[string]any{
				"name":         "noolite_motion_3",
				"state_topic":  "noolite/switch/3",
				"payload_on":   "ON",
				"device_class": "motion",
				"off_delay":    "180",
				"unique_id":    "noolite_rx_3_motion",
			},
		},
		{
			name:      "pt111",
			dev:       config.DeviceConfig{Type: "pt111", Channel: 7},
			wantIDs:   []string{"noolite_temperature_7", "noolite_humidity_7"},
			component: ComponentSensor,
			check: map[string]any{
				"state_topic":         "noolite/temperature/7",
				"expire_after":        float64(3700),
				"force_update":        true,
				"unit_of_measurement": "°C",
				"unique_id":           "noolite_rx_7_temperature",
			},
		},
		{
			name:      "pt112",
			dev:       config.DeviceConfig{Type: "pt112", Channel: 8},
			wantIDs:   []string{"noolite_temperature_8"},
			component: ComponentSensor,
		},
		{
			name:      "pl111",
			dev:       config.DeviceConfig{Type: "pl111", Channel: 2},
			wantIDs:   []string{"noolite_light_2"},
			component: ComponentBinarySensor,
			check:     map[string]any{"device_class": "light", "payload_off": "OFF"},
		},
		{
			name:      "ds1",
			dev:       config.DeviceConfig{Type: "ds1", Channel: 4},
			wantIDs:   []string{"noolite_open_4"},
			component: ComponentBinarySensor,
			check:     map[string]any{"device_class": "opening", "unique_id": "noolite_rx_4_open"},
		},
		{
			name:      "ws1",
			dev:       config.DeviceConfig{Type: "ws1", Channel: 5},
			wantIDs:   []string{"noolite_water_5"},
			component: ComponentBinarySensor,
			check:     map[string]any{"device_class": "moisture"},
		},
		{
			name:      "sr1 default switch",
			dev:       config.DeviceConfig{Type: "sr1", Channel: 10},
			wantIDs:   []string{"noolite_switch_10"},
			component: ComponentSwitch,
			check: map[string]any{
				"command_topic": "noolite/tx/10",
				"unique_id":     "noolite_tx_10_switch",
			},
		},
		{
			name:      "su1 default light",
			dev:       config.DeviceConfig{Type: "su1", Channel: 11},
			wantIDs:   []string{"noolite_switch_11"},
			component: ComponentLight,
		},
		{
			name:      "sb1 as switch",
			dev:       config.DeviceConfig{Type: "sb1", Channel: 12, Mode: "switch"},
			wantIDs:   []string{"noolite_switch_12"},
			component: ComponentSwitch,
		},
		{
			name:      "srf1",
			dev:       config.DeviceConfig{Type: "srf1", Channel: 13},
			wantIDs:   []string{"noolite_switch_13"},
			component: ComponentSwitch,
			check: map[string]any{
				"command_topic": "noolite/tx-f/13",
				"state_topic":   "noolite/state-f/13",
				"unique_id":     "noolite_txf_13_switch",
			},
		},
		{
			name:      "suf1",
			dev:       config.DeviceConfig{Type: "suf1", Channel: 14},
			wantIDs:   []string{"noolite_switch_14"},
			component: ComponentLight,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entities, err := Entities("noolite", []config.DeviceConfig{tt.dev})
			if err != nil {
				t.Fatalf("Entities() error = %v", err)
			}
			got := entities[1:]
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("len(entities) = %d, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ObjectID != id {
					t.Errorf("entity[%d].ObjectID = %q, want %q", i, got[i].ObjectID, id)
				}
				if got[i].Component != tt.component {
					t.Errorf("entity[%d].Component = %q, want %q", i, got[i].Component, tt.component)
				}
			}

			m := render(t, got[0])
			for k, v := range tt.check {
				if m[k] != v {
					t.Errorf("%s = %v, want %v", k, m[k], v)
				}
			}
			if m["availability_topic"] != "noolite/LWT" {
				t.Errorf("availability_topic = %v, want noolite/LWT", m["availability_topic"])
			}
			dev := m["device"].(map[string]any)
			if dev["via_device"] != "noolite" {
				t.Errorf("device.via_device = %v, want noolite", dev["via_device"])
			}
		})
	}
}

func TestRemoteEntities(t *testing.T) {
	t.Run("switch mode", func(t *testing.T) {
		dev := config.DeviceConfig{Type: "pxx", Channel: 20, Channel2: intPtr(21), Channel4: intPtr(23)}
		entities, err := Entities("noolite", []config.DeviceConfig{dev})
		if err != nil {
			t.Fatalf("Entities() error = %v", err)
		}
		got := entities[1:]
		if len(got) != 3 {
			t.Fatalf("len(entities) = %d, want 3", len(got))
		}
		m := render(t, got[1])
		if m["unique_id"] != "noolite_rx_21_switch" {
			t.Errorf("unique_id = %v", m["unique_id"])
		}
		if m["state_topic"] != "noolite/switch/21" {
			t.Errorf("state_topic = %v", m["state_topic"])
		}
		ids := m["device"].(map[string]any)["identifiers"].([]any)
		if ids[0] != "noolite_rx_20" {
			t.Errorf("device identifiers = %v, want [noolite_rx_20]", ids)
		}
	})

	t.Run("button mode", func(t *testing.T) {
		dev := config.DeviceConfig{Type: "pxx", Channel: 30, Mode: "button"}
		entities, err := Entities("noolite", []config.DeviceConfig{dev})
		if err != nil {
			t.Fatalf("Entities() error = %v", err)
		}
		m := render(t, entities[1])
		if entities[1].ObjectID != "noolite_button_30" {
			t.Errorf("ObjectID = %q", entities[1].ObjectID)
		}
		if m["state_topic"] != "noolite/button/30" || m["payload_on"] != "TOGGLE" {
			t.Errorf("state_topic/payload_on = %v/%v", m["state_topic"], m["payload_on"])
		}
		if m["off_delay"] != float64(1) {
			t.Errorf("off_delay = %v, want 1", m["off_delay"])
		}
	})
}

func TestFoxelEntities(t *testing.T) {
	entities, err := Entities("noolite", []config.DeviceConfig{{Type: "fox1", Channel: 9}})
	if err != nil {
		t.Fatalf("Entities() error = %v", err)
	}
	got := entities[1:]
	wantIDs := []string{"noolite_motion_9", "noolite_temperature_9", "noolite_humidity_9", "noolite_battery_9"}
	if len(got) != len(wantIDs) {
		t.Fatalf("len(entities) = %d, want %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].ObjectID != id {
			t.Errorf("entity[%d] = %q, want %q", i, got[i].ObjectID, id)
		}
	}

	battery := render(t, got[3])
	if battery["unit_of_measurement"] != "V" || battery["expire_after"] != float64(600) {
		t.Errorf("battery = %v", battery)
	}
	dev := battery["device"].(map[string]any)
	if dev["manufacturer"] != "Foxel" {
		t.Errorf("manufacturer = %v, want Foxel", dev["manufacturer"])
	}

	motion := render(t, got[0])
	if _, ok := motion["expire_after"]; ok {
		t.Error("motion entity must not expire")
	}
}

func TestEntityErrors(t *testing.T) {
	tests := []struct {
		name    string
		dev     config.DeviceConfig
		wantErr error
	}{
		{"unknown type", config.DeviceConfig{Type: "xyz", Channel: 1}, ErrUnknownDeviceType},
		{"bad pxx mode", config.DeviceConfig{Type: "pxx", Channel: 1, Mode: "dimmer"}, ErrInvalidMode},
		{"bad sr1 mode", config.DeviceConfig{Type: "sr1", Channel: 1, Mode: "button"}, ErrInvalidMode},
		{"negative channel", config.DeviceConfig{Type: "pm112", Channel: -1}, ErrInvalidChannel},
		{"extra channel", config.DeviceConfig{Type: "pxx", Channel: 1, Channel3: intPtr(300)}, ErrInvalidChannel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			devices := []config.DeviceConfig{{Type: "pm112", Channel: 1}, tt.dev}
			entities, err := Entities("noolite", devices)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Entities() error = %v, want %v", err, tt.wantErr)
			}
			if entities != nil {
				t.Error("Entities() returned entities alongside an error")
			}
		})
	}
}
