package noolite

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func temporaryOn(ch, ticks uint8) Interpretation {
	return Interpret(decodeRaw(rawFrame(ModeRX, 0, ch, CmdTemporaryOn, [4]byte{ticks})))
}

func TestSchedulerTemporaryOn(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler()

	s.Apply(clock.Now(), temporaryOn(7, 4))
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}

	clock.Advance(19 * time.Second)
	if due := s.Tick(clock.Now()); len(due) != 0 {
		t.Fatalf("Tick at +19s = %v, want nothing", due)
	}

	clock.Advance(2 * time.Second)
	due := s.Tick(clock.Now())
	if len(due) != 1 || due[0].Channel != 7 || due[0].Value != PayloadOff {
		t.Fatalf("Tick at +21s = %+v, want OFF on channel 7", due)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after firing, want 0", s.Len())
	}
}

func TestSchedulerRetriggerReplaces(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler()

	s.Apply(clock.Now(), temporaryOn(7, 4))
	clock.Advance(15 * time.Second)
	s.Apply(clock.Now(), temporaryOn(7, 4))

	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 entry per key", s.Len())
	}

	clock.Advance(10 * time.Second) // +25s: first deadline passed, second not
	if due := s.Tick(clock.Now()); len(due) != 0 {
		t.Fatalf("superseded deferral fired: %v", due)
	}

	clock.Advance(10 * time.Second) // +35s
	if due := s.Tick(clock.Now()); len(due) != 1 {
		t.Fatalf("Tick() = %v, want one OFF", due)
	}
}

func TestSchedulerExplicitOffCancels(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler()

	s.Apply(clock.Now(), temporaryOn(3, 2))
	off := Interpret(decodeRaw(rawFrame(ModeRX, 0, 3, CmdOff, [4]byte{})))
	s.Apply(clock.Now(), off)

	if s.Len() != 0 {
		t.Fatalf("Len() = %d, explicit OFF should cancel the deferral", s.Len())
	}
	clock.Advance(time.Minute)
	if due := s.Tick(clock.Now()); len(due) != 0 {
		t.Errorf("Tick() = %v, want nothing", due)
	}
}

func TestSchedulerZeroDuration(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler()

	s.Apply(clock.Now(), temporaryOn(1, 0))
	if due := s.Tick(clock.Now()); len(due) != 1 {
		t.Errorf("zero-length TEMPORARY_ON should be due immediately, got %v", due)
	}
}

func TestSchedulerOrderAndIndependence(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler()
	at := clock.Now()

	s.Schedule(at, "b", Event{Channel: 2})
	s.Schedule(at, "a", Event{Channel: 1})
	s.Schedule(at.Add(time.Hour), "c", Event{Channel: 3})

	due := s.Tick(at)
	if len(due) != 2 || due[0].Channel != 2 || due[1].Channel != 1 {
		t.Fatalf("Tick() = %+v, want channels 2 then 1", due)
	}

	pending := s.Pending()
	if len(pending) != 1 || pending[0].Key != "c" {
		t.Errorf("Pending() = %+v, want only c", pending)
	}
	if s.Cancel("missing") {
		t.Error("Cancel of unknown key reported true")
	}
	if !s.Cancel("c") || s.Len() != 0 {
		t.Error("Cancel(c) should remove the last entry")
	}
}
