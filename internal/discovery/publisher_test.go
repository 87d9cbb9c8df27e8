package discovery

import (
	"errors"
	"strings"
	"testing"

	"github.com/nerrad567/noolite-mqtt/internal/infrastructure/config"
)

type published struct {
	topic    string
	payload  string
	retained bool
}

type mockPublisher struct {
	messages []published
	failOn   int
}

func (m *mockPublisher) Publish(topic string, payload []byte, _ byte, retained bool) error {
	if m.failOn > 0 && len(m.messages)+1 == m.failOn {
		return errors.New("broker gone")
	}
	m.messages = append(m.messages, published{topic: topic, payload: string(payload), retained: retained})
	return nil
}

func TestAnnounce(t *testing.T) {
	pub := &mockPublisher{}
	a := NewAnnouncer(pub, "", "home/noolite")

	n, err := a.Announce([]config.DeviceConfig{
		{Type: "pt111", Channel: 7},
		{Type: "sr1", Channel: 2},
	})
	if err != nil {
		t.Fatalf("Announce() error = %v", err)
	}
	if n != 4 || len(pub.messages) != 4 {
		t.Fatalf("published %d (returned %d), want 4", len(pub.messages), n)
	}

	wantTopics := []string{
		"homeassistant/binary_sensor/home_noolite/config",
		"homeassistant/sensor/noolite_temperature_7/config",
		"homeassistant/sensor/noolite_humidity_7/config",
		"homeassistant/switch/noolite_switch_2/config",
	}
	for i, want := range wantTopics {
		if pub.messages[i].topic != want {
			t.Errorf("message[%d].topic = %q, want %q", i, pub.messages[i].topic, want)
		}
		if !pub.messages[i].retained {
			t.Errorf("message[%d] not retained", i)
		}
	}
	if !strings.Contains(pub.messages[3].payload, `"command_topic":"home/noolite/tx/2"`) {
		t.Errorf("switch payload = %s", pub.messages[3].payload)
	}
}

func TestAnnounceCustomPrefix(t *testing.T) {
	pub := &mockPublisher{}
	a := NewAnnouncer(pub, "ha", "noolite")

	if _, err := a.Announce(nil); err != nil {
		t.Fatalf("Announce() error = %v", err)
	}
	if pub.messages[0].topic != "ha/binary_sensor/noolite/config" {
		t.Errorf("topic = %q", pub.messages[0].topic)
	}
}

func TestAnnounceInvalidDevicePublishesNothing(t *testing.T) {
	pub := &mockPublisher{}
	a := NewAnnouncer(pub, "", "noolite")

	_, err := a.Announce([]config.DeviceConfig{{Type: "pm112", Channel: 1}, {Type: "bogus"}})
	if !errors.Is(err, ErrUnknownDeviceType) {
		t.Fatalf("Announce() error = %v, want ErrUnknownDeviceType", err)
	}
	if len(pub.messages) != 0 {
		t.Errorf("published %d messages, want 0", len(pub.messages))
	}
}

func TestAnnouncePublishFailure(t *testing.T) {
	pub := &mockPublisher{failOn: 2}
	a := NewAnnouncer(pub, "", "noolite")

	n, err := a.Announce([]config.DeviceConfig{{Type: "pm112", Channel: 1}})
	if err == nil {
		t.Fatal("Announce() error = nil, want publish failure")
	}
	if n != 1 {
		t.Errorf("published = %d, want 1", n)
	}
}
