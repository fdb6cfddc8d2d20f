// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	_ "modernc.org/sqlite"

	"qnflow/models"
)

// snapshotKey is the single well-known key all session state lives under.
const snapshotKey = "qn-progress"

// warnSize is the snapshot size above which Save logs a warning. The write is
// still attempted.
const warnSize = 256 * 1024

const schema = `
CREATE TABLE IF NOT EXISTS local_kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);`

// Store persists one snapshot under a fixed key in a local sqlite file.
// Every operation absorbs its own failures: a missing, corrupt, or
// unwritable database degrades to a no-op or empty result with a warning,
// so the session can always continue in memory.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open creates or opens the snapshot database at path. A path that cannot be
// opened yields a degraded store whose operations are all no-ops.
func Open(path string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err == nil {
		_, err = db.Exec(schema)
	}
	if err != nil {
		log.Warn("local storage unavailable", "path", path, "error", err)
		if db != nil {
			db.Close()
		}
		return &Store{log: log}
	}

	return &Store{db: db, log: log}
}

// Close releases the underlying database. Safe to call on a degraded store.
func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// Save overwrites the stored snapshot with snap.
func (s *Store) Save(snap models.Snapshot) {
	if s.db == nil {
		return
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		s.log.Warn("failed to encode snapshot", "error", err)
		return
	}
	if len(raw) > warnSize {
		s.log.Warn("snapshot is unusually large", "size", humanize.Bytes(uint64(len(raw))))
	}

	_, err = s.db.Exec(`
		INSERT INTO local_kv (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = $3
	`, snapshotKey, string(raw), time.Now())
	if err != nil {
		s.log.Warn("failed to save snapshot", "error", err)
	}
}

// Load returns the stored snapshot, or ok=false when nothing usable exists.
func (s *Store) Load() (models.Snapshot, bool) {
	var snap models.Snapshot
	if s.db == nil {
		return snap, false
	}

	var raw string
	err := s.db.QueryRow(`
		SELECT value FROM local_kv WHERE key = $1
	`, snapshotKey).Scan(&raw)

	if err == sql.ErrNoRows {
		return snap, false
	}
	if err != nil {
		s.log.Warn("failed to load snapshot", "error", err)
		return snap, false
	}

	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		s.log.Warn("stored snapshot is corrupt, ignoring it", "error", err)
		return models.Snapshot{}, false
	}

	return snap, true
}

// Remove deletes the stored snapshot.
func (s *Store) Remove() {
	if s.db == nil {
		return
	}

	if _, err := s.db.Exec(`DELETE FROM local_kv WHERE key = $1`, snapshotKey); err != nil {
		s.log.Warn("failed to remove snapshot", "error", err)
	}
}
