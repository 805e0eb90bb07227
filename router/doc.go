// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the hashdraw API.

	mux := router.NewRouter(db, cfg, metrics.New())

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

One-shot draws:

	POST /draw         - Draw winners, nothing stored
	POST /draw/verify  - Check claimed winners

Draw management (admin, requires X-Admin-Key):

	POST /draws                    - Create draw
	GET  /draws/{id}/admin         - Draw with participants
	POST /draws/{id}/participants  - Add participants (draft)
	POST /draws/{id}/publish       - Open for entries
	POST /draws/{id}/close         - Reveal seed and freeze results

Entries and results (public, uses share slug):

	POST /draws/{slug}/entries      - Enter
	GET  /draws/{slug}/my-entry     - Own entry (X-Entry-Token)
	GET  /draws/{slug}              - Draw info and participants
	GET  /draws/{slug}/results      - Final results (closed only)
	GET  /draws/{slug}/entry-count  - Participant count
	GET  /draws/{slug}/preview      - Compact preview data

Presets:

	POST   /presets              - Save or replace
	GET    /presets              - List
	GET    /presets/{name}       - Get
	DELETE /presets/{name}       - Delete
	POST   /presets/{name}/draw  - Draw with the saved parameters
	GET    /presets/export       - YAML export
	POST   /presets/import       - YAML import
*/
package router
