package noolite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// ChannelRecorder passively records every (mode, channel) pair seen on the
// air, with the last command and a message count. It backs the status API's
// channel listing and helps find which channels a remote was bound to.
//
// Thread Safety: All methods are safe for concurrent use.
type ChannelRecorder struct {
	db     *sql.DB
	logger Logger
	now    func() time.Time

	upsertStmt *sql.Stmt
	stmtMu     sync.Mutex

	closed bool
	mu     sync.RWMutex
}

// ChannelRecord is one row of the channel ledger.
type ChannelRecord struct {
	Mode         string    `json:"mode"`
	Channel      uint8     `json:"channel"`
	LastCommand  string    `json:"last_command"`
	MessageCount int64     `json:"message_count"`
	LastSeen     time.Time `json:"last_seen"`
}

// NewChannelRecorder creates a recorder over db.
// The database must have the noolite_channels table created.
func NewChannelRecorder(db *sql.DB) *ChannelRecorder {
	return &ChannelRecorder{
		db:  db,
		now: time.Now,
	}
}

// SetLogger sets the logger for the recorder.
func (r *ChannelRecorder) SetLogger(logger Logger) {
	r.logger = logger
}

// Start prepares the recorder for use.
// Must be called before RecordFrame.
func (r *ChannelRecorder) Start() error {
	r.stmtMu.Lock()
	defer r.stmtMu.Unlock()

	if r.upsertStmt != nil {
		return nil
	}

	stmt, err := r.db.Prepare(`
		INSERT INTO noolite_channels (mode, channel, last_cmd, last_seen, message_count)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(mode, channel) DO UPDATE SET
			last_cmd = excluded.last_cmd,
			last_seen = excluded.last_seen,
			message_count = message_count + 1
	`)
	if err != nil {
		return fmt.Errorf("preparing channel upsert statement: %w", err)
	}

	r.upsertStmt = stmt
	r.log("channel recorder started")
	return nil
}

// Stop closes the recorder and releases resources.
func (r *ChannelRecorder) Stop() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.stmtMu.Lock()
	defer r.stmtMu.Unlock()

	if r.upsertStmt != nil {
		r.upsertStmt.Close()
		r.upsertStmt = nil
	}

	r.log("channel recorder stopped")
}

// RecordFrame notes that a frame for (mode, ch) carrying cmd was seen.
// Called by the Bridge for every accepted frame.
func (r *ChannelRecorder) RecordFrame(mode Mode, ch uint8, cmd Command) {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return
	}
	r.mu.RUnlock()

	r.stmtMu.Lock()
	stmt := r.upsertStmt
	r.stmtMu.Unlock()

	if stmt == nil {
		return // Not started
	}

	if _, err := stmt.Exec(mode.String(), int(ch), cmd.String(), r.now().Unix()); err != nil {
		r.logError("recording channel", err)
	}
}

// ListChannels returns every recorded channel, most recently seen first.
func (r *ChannelRecorder) ListChannels(ctx context.Context) ([]ChannelRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT mode, channel, last_cmd, message_count, last_seen
		FROM noolite_channels
		ORDER BY last_seen DESC, mode ASC, channel ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying channels: %w", err)
	}
	defer rows.Close()

	var records []ChannelRecord
	for rows.Next() {
		var (
			rec      ChannelRecord
			channel  int
			lastSeen int64
		)
		if err := rows.Scan(&rec.Mode, &channel, &rec.LastCommand, &rec.MessageCount, &lastSeen); err != nil {
			return nil, fmt.Errorf("scanning channel: %w", err)
		}
		rec.Channel = uint8(channel) //nolint:gosec // column is constrained to 0..255
		rec.LastSeen = time.Unix(lastSeen, 0).UTC()
		records = append(records, rec)
	}

	return records, rows.Err()
}

// ChannelCount returns the number of recorded channels.
func (r *ChannelRecorder) ChannelCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM noolite_channels`).Scan(&count)
	return count, err
}

func (r *ChannelRecorder) log(msg string, keysAndValues ...any) {
	if r.logger != nil {
		r.logger.Info(msg, keysAndValues...)
	}
}

func (r *ChannelRecorder) logError(msg string, err error) {
	if r.logger != nil {
		r.logger.Error(msg, "error", err)
	}
}
