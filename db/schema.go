// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Timestamps carry no database defaults so the same DDL works on both
// sqlite and postgres; handlers always bind them explicitly.
const schema = `
-- Respondent sessions
CREATE TABLE IF NOT EXISTS qn_session (
    id TEXT PRIMARY KEY,
    questionnaire_id TEXT NOT NULL,
    identity_hash TEXT NOT NULL,
    name TEXT,
    ip_hash TEXT,
    user_agent TEXT,
    remaining_seconds INTEGER,
    started_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_qn_session_identity ON qn_session(questionnaire_id, identity_hash);

-- Autosaved progress, one row per session
CREATE TABLE IF NOT EXISTS qn_progress (
    session_id TEXT PRIMARY KEY REFERENCES qn_session(id) ON DELETE CASCADE,
    answers TEXT NOT NULL,
    current_index INTEGER NOT NULL,
    saved_at TIMESTAMP NOT NULL
);

-- Final submissions, one row per session
CREATE TABLE IF NOT EXISTS qn_submission (
    session_id TEXT PRIMARY KEY REFERENCES qn_session(id) ON DELETE CASCADE,
    identity_hash TEXT NOT NULL,
    answers TEXT NOT NULL,
    submitted_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_qn_submission_identity ON qn_submission(identity_hash);
`
