// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the hashdraw API.

# Handler Types

Each handler is a struct built from its dependencies:

  - DrawHandler: stateless draws and verification (config, metrics)
  - LifecycleHandler: committed draws from draft to closed
  - EntryHandler: self-entry and entry lookup by token
  - ResultsHandler: public draw info and sealed results
  - PresetHandler: saved parameters with YAML import and export

	lifecycle := handlers.NewLifecycleHandler(db, cfg, m)

# One-Shot Draws

	POST /draw         → Draw (nothing is stored)
	POST /draw/verify  → Verify (recompute and compare winners)

Engine errors map to statuses in writeDrawError: precondition violations
are 400, the participant ceiling is 413.

# Draw Lifecycle

Draws progress through three states: draft → open → closed

	POST /draws                    → CreateDraw (returns admin_key)
	POST /draws/{id}/participants  → AddParticipants (draft only)
	POST /draws/{id}/publish       → PublishDraw (generates share_slug, stores seed_commitment)
	POST /draws/{id}/close         → CloseDraw (checks the seed against the commitment, stores the snapshot)

Admin operations require the X-Admin-Key header. The participant list is
fixed by the time the seed is revealed, so the creator cannot pick a seed
that favours anyone who joins later. The seed's digest is published with the
draw and CloseDraw refuses any seed that does not hash to it, so the seed
cannot be swapped once entries are visible.

# Entries

	POST /draws/{slug}/entries   → Enter (returns entry_token)
	GET  /draws/{slug}/my-entry  → GetMyEntry (X-Entry-Token)

Entries and CloseDraw take the same row lock on the draw, so an entry is
either ranked or rejected with 409.

# Results

Results are sealed until the draw is closed. The stored snapshot keeps the
full ranking; responses window it to the configured display cap.
*/
package handlers
