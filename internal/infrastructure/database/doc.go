// Package database provides the SQLite store behind the channel ledger.
//
// The bridge keeps one small table of (mode, channel) pairs it has seen on
// the air. This package owns the connection (WAL mode, busy timeout, a
// single writer) and applies the embedded schema migrations on startup.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql, and are registered by the migrations package
// through MigrationsFS.
package database
