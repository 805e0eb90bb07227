// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response and domain types for the hashdraw API.

# Draw Lifecycle

Committed draws move through three states:

	StatusDraft  → participants are added by the admin
	StatusOpen   → share link is live, anyone can enter
	StatusClosed → seed revealed, ranking frozen in a ResultSnapshot

# Sensitive Fields

Participant.EntryToken and Participant.IPHash are tagged json:"-" and never
leave the server. Draw.Seed stays nil until the draw is closed.

# Rankings

Rankings reuse draw.Entry so the JSON shape of a one-shot draw and of a
stored snapshot is identical:

	{"name": "Alice", "digest": "…", "distance": 214, "position": 0}
*/
package models
