// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections and schema creation.

# Connections

Open selects the driver from the configured database type:

  - sqlite: modernc.org/sqlite (pure Go, default)
  - postgres: github.com/lib/pq

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
Queries use $N placeholders, which both drivers accept.

# Tables

  - draw: Draw metadata, lifecycle state and the revealed seed
  - draw_participant: Participants in entry order
  - result_snapshot: Immutable ranking computed when a draw closes
  - preset: Named parameter sets for one-shot draws

# Relationships

	draw 1──* draw_participant
	draw 1──* result_snapshot

All foreign keys use ON DELETE CASCADE.
*/
package db
