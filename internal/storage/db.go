// Package storage persists bookmarked viewer addresses in SQLite.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const fileName = "iiifnav.db"

// migrations are applied in order. The database's user_version records how
// many have run; append new steps, never edit old ones.
var migrations = []string{
	`CREATE TABLE bookmarks (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		address    TEXT    NOT NULL UNIQUE,
		title      TEXT    NOT NULL DEFAULT '',
		tags       TEXT    NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX idx_bookmarks_created_at ON bookmarks(created_at DESC)`,
}

// DB is the bookmark database of one data directory.
type DB struct {
	conn *sql.DB
	path string
}

// OpenDB opens dataDir/iiifnav.db, creating the directory and bringing the
// schema up to date as needed.
func OpenDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	path := filepath.Join(dataDir, fileName)
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	db := &DB{conn: conn, path: path}
	if err := db.upgrade(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("upgrading %s: %w", path, err)
	}
	return db, nil
}

func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Path is the database file.
func (db *DB) Path() string { return db.path }

// Conn exposes the pool to the stores built on it.
func (db *DB) Conn() *sql.DB { return db.conn }

// Version returns the number of schema steps applied.
func (db *DB) Version() (int, error) {
	var v int
	if err := db.conn.QueryRow(`PRAGMA user_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// upgrade runs the pending migrations in one transaction.
func (db *DB) upgrade() error {
	from, err := db.Version()
	if err != nil {
		return err
	}
	if from > len(migrations) {
		return fmt.Errorf("schema version %d is newer than this build (%d)", from, len(migrations))
	}
	if from == len(migrations) {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for i := from; i < len(migrations); i++ {
		if _, err := tx.Exec(migrations[i]); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	// PRAGMA does not take bound parameters.
	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, len(migrations))); err != nil {
		return err
	}
	return tx.Commit()
}
