package noolite

import "time"

// Clock supplies the current time. The bridge uses the system clock;
// tests inject a fake one.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock. time.Now carries a monotonic reading,
// so comparisons between its values are immune to clock changes.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// PendingEntry is a scheduled event waiting to fire.
type PendingEntry struct {
	At    time.Time
	Key   string
	Event Event
}

// Scheduler holds events that must be emitted in the future, at most one
// per key. Scheduling under an existing key replaces the pending entry.
//
// Thread Safety: not safe for concurrent use. The bridge loop owns it.
type Scheduler struct {
	entries []PendingEntry
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Schedule adds an entry firing at at, replacing any entry under key.
func (s *Scheduler) Schedule(at time.Time, key string, e Event) {
	s.Cancel(key)
	s.entries = append(s.entries, PendingEntry{At: at, Key: key, Event: e})
}

// Cancel removes the pending entry under key, if any.
// It reports whether an entry was removed.
func (s *Scheduler) Cancel(key string) bool {
	for i, p := range s.entries {
		if p.Key == key {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Apply performs the scheduler work of an interpretation relative to now.
func (s *Scheduler) Apply(now time.Time, in Interpretation) {
	for _, key := range in.Cancel {
		s.Cancel(key)
	}
	for _, d := range in.Defer {
		s.Schedule(now.Add(d.Delay), d.Key, d.Event)
	}
}

// Tick removes and returns every entry due at now, in insertion order.
func (s *Scheduler) Tick(now time.Time) []Event {
	if len(s.entries) == 0 {
		return nil
	}

	var due []Event
	kept := s.entries[:0]
	for _, p := range s.entries {
		if !p.At.After(now) {
			due = append(due, p.Event)
			continue
		}
		kept = append(kept, p)
	}

	// Clear the tail so dropped entries can be collected.
	for i := len(kept); i < len(s.entries); i++ {
		s.entries[i] = PendingEntry{}
	}
	s.entries = kept

	return due
}

// Pending returns a copy of the entries still waiting.
func (s *Scheduler) Pending() []PendingEntry {
	out := make([]PendingEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of pending entries.
func (s *Scheduler) Len() int {
	return len(s.entries)
}
