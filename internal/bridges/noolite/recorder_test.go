package noolite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupRecorderDB creates an in-memory SQLite database with the channel table.
func setupRecorderDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE noolite_channels (
			mode TEXT NOT NULL,
			channel INTEGER NOT NULL,
			last_cmd TEXT NOT NULL,
			last_seen INTEGER NOT NULL,
			message_count INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (mode, channel)
		) STRICT;
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestChannelRecorder_StartStop(t *testing.T) {
	rec := NewChannelRecorder(setupRecorderDB(t))

	if err := rec.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := rec.Start(); err != nil {
		t.Fatalf("second Start() error: %v", err)
	}
	rec.Stop()
	rec.Stop()
}

func TestChannelRecorder_RecordFrame(t *testing.T) {
	rec := NewChannelRecorder(setupRecorderDB(t))
	clock := newFakeClock()
	rec.now = clock.Now

	if err := rec.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer rec.Stop()

	ctx := context.Background()

	rec.RecordFrame(ModeRX, 7, CmdOn)
	clock.Advance(time.Minute)
	rec.RecordFrame(ModeRX, 7, CmdOff)
	rec.RecordFrame(ModeRXF, 7, CmdOn)
	rec.RecordFrame(ModeRX, 2, CmdSensorTempHum)

	count, err := rec.ChannelCount(ctx)
	if err != nil {
		t.Fatalf("ChannelCount() error: %v", err)
	}
	if count != 3 {
		t.Errorf("ChannelCount() = %d, want 3", count)
	}

	channels, err := rec.ListChannels(ctx)
	if err != nil {
		t.Fatalf("ListChannels() error: %v", err)
	}

	var rx7 *ChannelRecord
	for i := range channels {
		if channels[i].Mode == "RX" && channels[i].Channel == 7 {
			rx7 = &channels[i]
		}
	}
	if rx7 == nil {
		t.Fatalf("RX/7 missing from %+v", channels)
	}
	if rx7.MessageCount != 2 || rx7.LastCommand != "OFF" {
		t.Errorf("RX/7 = %+v, want 2 messages, last OFF", rx7)
	}
	if !rx7.LastSeen.Equal(clock.Now().Truncate(time.Second)) {
		t.Errorf("LastSeen = %v, want %v", rx7.LastSeen, clock.Now())
	}
}

func TestChannelRecorder_NotStarted(t *testing.T) {
	rec := NewChannelRecorder(setupRecorderDB(t))

	// Must not panic or write before Start.
	rec.RecordFrame(ModeRX, 1, CmdOn)

	count, err := rec.ChannelCount(context.Background())
	if err != nil {
		t.Fatalf("ChannelCount() error: %v", err)
	}
	if count != 0 {
		t.Errorf("ChannelCount() = %d, want 0", count)
	}
}

func TestChannelRecorder_AfterStop(t *testing.T) {
	rec := NewChannelRecorder(setupRecorderDB(t))
	if err := rec.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	rec.Stop()

	rec.RecordFrame(ModeRX, 1, CmdOn)

	count, _ := rec.ChannelCount(context.Background())
	if count != 0 {
		t.Errorf("ChannelCount() = %d after Stop, want 0", count)
	}
}
