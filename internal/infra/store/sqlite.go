// Package store provides the SQLite-backed variable store shared by the
// station loop and its HTTP API.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog/log"
)

const (
	// CurrentSchemaVersion is the current database schema version.
	CurrentSchemaVersion = "1"

	// DefaultDBPath is the default path for the station database.
	DefaultDBPath = "data/station.db"
)

// ErrNotOpen is returned when the database is used before Open or after Close.
var ErrNotOpen = errors.New("database not open")

// Play is one entry of the play history.
type Play struct {
	File      string    `json:"file"`
	SongID    int       `json:"songId"`
	StartedAt time.Time `json:"startedAt"`
}

type playRow struct {
	File      string `db:"file"`
	SongID    int    `db:"song_id"`
	StartedAt string `db:"started_at"`
}

// DB is the station variable store.
type DB struct {
	mu   sync.RWMutex
	db   *sqlx.DB
	path string
}

// NewDB creates a new store instance. Use ":memory:" for a throwaway database.
func NewDB(path string) *DB {
	if path == "" {
		path = DefaultDBPath
	}
	return &DB{
		path: path,
	}
}

// Open opens the database and initializes the schema.
func (d *DB) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	dsn := d.path
	if d.path != ":memory:" {
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(d.path), 0755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
		dsn += "?_journal=WAL&_busy_timeout=5000"
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("failed to open store database: %w", err)
	}

	// SQLite only supports one writer; a single connection also keeps
	// :memory: databases alive across calls
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	d.db = db

	if err := d.initSchema(); err != nil {
		d.db.Close()
		d.db = nil
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Info().Str("path", d.path).Msg("Station store opened")
	return nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db != nil {
		err := d.db.Close()
		d.db = nil
		return err
	}
	return nil
}

func (d *DB) initSchema() error {
	currentVersion := d.getSchemaVersion()

	if currentVersion == "" {
		if err := d.createSchema(); err != nil {
			return err
		}
		return d.setMeta("schema_version", CurrentSchemaVersion)
	}

	if currentVersion != CurrentSchemaVersion {
		log.Info().
			Str("current", currentVersion).
			Str("target", CurrentSchemaVersion).
			Msg("Migrating store schema")
		return d.setMeta("schema_version", CurrentSchemaVersion)
	}

	return nil
}

func (d *DB) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS vars (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS plays (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file TEXT NOT NULL,
		song_id INTEGER NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plays_started ON plays(started_at);

	CREATE TABLE IF NOT EXISTS store_meta (
		key TEXT PRIMARY KEY,
		value TEXT,
		updated_at TEXT
	);
	`
	_, err := d.db.Exec(schema)
	return err
}

func (d *DB) getSchemaVersion() string {
	var version string
	err := d.db.Get(&version, "SELECT value FROM store_meta WHERE key = 'schema_version'")
	if err != nil {
		return ""
	}
	return version
}

func (d *DB) setMeta(key, value string) error {
	now := time.Now().Format(time.RFC3339)
	_, err := d.db.Exec(`
		INSERT INTO store_meta (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = ?
	`, key, value, now, value, now)
	return err
}

// Set stores value under key as JSON, replacing any previous value.
func (d *DB) Set(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return ErrNotOpen
	}

	now := time.Now().Format(time.RFC3339Nano)
	_, err = d.db.Exec(`
		INSERT INTO vars (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = ?
	`, key, string(data), now, string(data), now)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Get decodes the value stored under key into dest. It reports false when
// the key is absent or its value cannot be decoded, leaving dest untouched
// so callers can pre-fill a default.
func (d *DB) Get(key string, dest interface{}) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.db == nil {
		return false, ErrNotOpen
	}

	var raw string
	err := d.db.Get(&raw, "SELECT value FROM vars WHERE key = ?", key)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Stored value is not valid JSON")
		return false, nil
	}
	return true, nil
}

// GetRaw returns the stored JSON for key, or nil when absent.
func (d *DB) GetRaw(key string) (json.RawMessage, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.db == nil {
		return nil, ErrNotOpen
	}

	var raw string
	err := d.db.Get(&raw, "SELECT value FROM vars WHERE key = ?", key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return json.RawMessage(raw), nil
}

// RecordPlay appends a song start to the play history.
func (d *DB) RecordPlay(p Play) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return ErrNotOpen
	}

	_, err := d.db.Exec(
		"INSERT INTO plays (file, song_id, started_at) VALUES (?, ?, ?)",
		p.File, p.SongID, p.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record play: %w", err)
	}
	return nil
}

// RecentPlays returns up to limit plays, newest first.
func (d *DB) RecentPlays(limit int) ([]Play, error) {
	if limit <= 0 {
		limit = 50
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.db == nil {
		return nil, ErrNotOpen
	}

	var rows []playRow
	err := d.db.Select(&rows,
		"SELECT file, song_id, started_at FROM plays ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query plays: %w", err)
	}

	plays := make([]Play, 0, len(rows))
	for _, r := range rows {
		startedAt, _ := time.Parse(time.RFC3339Nano, r.StartedAt)
		plays = append(plays, Play{File: r.File, SongID: r.SongID, StartedAt: startedAt})
	}
	return plays, nil
}
