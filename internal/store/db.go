// Package store provides SQLite-backed recent-files and settings storage.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps an SQLite connection for the recent-files/settings store,
// grounded on the same open/migrate/single-writer shape as a prior
// SQLite-backed event store in the example pack.
type DB struct {
	db *sql.DB
}

// DefaultPath returns ${HOME}/.datasets-helper/storage.sqlite (spec.md §6).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, ".datasets-helper", "storage.sqlite")
}

// Open opens or creates the SQLite database at path.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Single writer connection to avoid SQLITE_BUSY under WAL.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// RecentFile is one row of the recent_files table.
type RecentFile struct {
	Path         string
	DisplayName  string
	LastOpenedAt time.Time
	Exists       bool
	Pinned       bool
}

// StampOpened records (or refreshes) path as recently opened.
func (d *DB) StampOpened(path string) error {
	_, err := os.Stat(path)
	exists := err == nil

	_, execErr := d.db.Exec(`
		INSERT INTO recent_files (path, display_name, last_opened_at_ms, exists_on_disk, pinned)
		VALUES (?, ?, ?, ?, FALSE)
		ON CONFLICT(path) DO UPDATE SET
			last_opened_at_ms = excluded.last_opened_at_ms,
			exists_on_disk     = excluded.exists_on_disk`,
		path, filepath.Base(path), time.Now().UnixMilli(), exists,
	)
	if execErr != nil {
		return fmt.Errorf("stamping recent file: %w", execErr)
	}
	return nil
}

// ListRecent returns up to limit recently opened files, pinned files first,
// then most recent first.
func (d *DB) ListRecent(limit int) ([]RecentFile, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.Query(`
		SELECT path, display_name, last_opened_at_ms, exists_on_disk, pinned
		FROM recent_files
		ORDER BY pinned DESC, last_opened_at_ms DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent files: %w", err)
	}
	defer rows.Close()

	var out []RecentFile
	for rows.Next() {
		var rf RecentFile
		var lastMs int64
		if err := rows.Scan(&rf.Path, &rf.DisplayName, &lastMs, &rf.Exists, &rf.Pinned); err != nil {
			return nil, fmt.Errorf("scanning recent file row: %w", err)
		}
		rf.LastOpenedAt = time.UnixMilli(lastMs)
		out = append(out, rf)
	}
	return out, rows.Err()
}

// SetPinned toggles whether a recent file is pinned to the top of the list.
func (d *DB) SetPinned(path string, pinned bool) error {
	_, err := d.db.Exec(`UPDATE recent_files SET pinned = ? WHERE path = ?`, pinned, path)
	return err
}

// GetSetting reads a settings value by key, returning ok=false if unset.
func (d *DB) GetSetting(key string) (value string, ok bool, err error) {
	row := d.db.QueryRow(`SELECT value_json FROM settings WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading setting %q: %w", key, err)
	}
	return value, true, nil
}

// SetSetting writes an arbitrary JSON-encodable settings value by key.
func (d *DB) SetSetting(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding setting %q: %w", key, err)
	}
	_, err = d.db.Exec(`
		INSERT INTO settings (key, value_json) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value_json = excluded.value_json`,
		key, string(data))
	if err != nil {
		return fmt.Errorf("writing setting %q: %w", key, err)
	}
	return nil
}

func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS recent_files (
			path              TEXT PRIMARY KEY,
			display_name      TEXT NOT NULL,
			last_opened_at_ms INTEGER NOT NULL,
			exists_on_disk    BOOLEAN DEFAULT TRUE,
			pinned            BOOLEAN DEFAULT FALSE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_recent_files_order ON recent_files(pinned, last_opened_at_ms)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key        TEXT PRIMARY KEY,
			value_json TEXT NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	slog.Debug("store schema up to date")
	return nil
}
