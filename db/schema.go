// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names registered by the imported drivers.
const (
	driverSQLite   = "sqlite"
	driverPostgres = "postgres"
)

// Open connects to the configured database and verifies the connection.
// SQLite is limited to a single connection: it serializes writers anyway and
// in-memory databases are private to the connection that created them.
func Open(dbType, url string) (*sql.DB, error) {
	var driver string
	switch dbType {
	case "sqlite", "":
		driver = driverSQLite
	case "postgres":
		driver = driverPostgres
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == driverSQLite {
		conn.SetMaxOpenConns(1)
		if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, nil
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// The schema sticks to types and syntax shared by SQLite and PostgreSQL.
const schema = `
-- Draws
CREATE TABLE IF NOT EXISTS draw (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    creator_name TEXT NOT NULL,
    algorithm TEXT NOT NULL DEFAULT 'md5',
    winner_count INTEGER NOT NULL CHECK (winner_count >= 1),
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'open', 'closed')),
    share_slug TEXT UNIQUE,
    seed_commitment TEXT,
    seed_source TEXT,
    seed TEXT,
    seed_digest TEXT,
    closed_at TIMESTAMP,
    final_snapshot_id TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_draw_share_slug ON draw(share_slug);
CREATE INDEX IF NOT EXISTS idx_draw_status ON draw(status);

-- Participants, in entry order
CREATE TABLE IF NOT EXISTS draw_participant (
    draw_id TEXT NOT NULL REFERENCES draw(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    entry_token TEXT UNIQUE,
    ip_hash TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (draw_id, position)
);

CREATE INDEX IF NOT EXISTS idx_draw_participant_draw_id ON draw_participant(draw_id);

-- Result Snapshots
CREATE TABLE IF NOT EXISTS result_snapshot (
    id TEXT PRIMARY KEY,
    draw_id TEXT NOT NULL REFERENCES draw(id) ON DELETE CASCADE,
    algorithm TEXT NOT NULL,
    computed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_result_snapshot_draw_id ON result_snapshot(draw_id);

-- Saved parameter sets
CREATE TABLE IF NOT EXISTS preset (
    name TEXT PRIMARY KEY,
    seed TEXT NOT NULL,
    winner_count INTEGER NOT NULL CHECK (winner_count >= 1),
    participants TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
