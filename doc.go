// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the hashdraw API server.

hashdraw runs verifiable lotteries: each participant's name is hashed and
ranked by its byte distance to the hash of a seed chosen after the
participant list is fixed. Anyone holding the seed and the list can
recompute the result.

# Starting the Server

	ADMIN_KEY_SALT=... DRAW_SLUG_SALT=... go run .

Or against PostgreSQL:

	go run . -t postgres -d "postgres://..." -admin-salt ... -slug-salt ...

LOG_LEVEL (debug, info, warn, error) and LOG_FORMAT (text or json) control
the slog handler.

# Architecture

  - draw: the hash-distance engine
  - handlers: HTTP request handlers
  - router: route definitions using Go 1.22+ routing
  - middleware: request IDs, CORS, logging, JSON helpers
  - metrics: Prometheus collectors
  - models: request/response and domain types
  - auth: keys, tokens and share slugs
  - db: connection and schema
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
