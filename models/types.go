// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"time"

	"github.com/danielhkuo/hashdraw/draw"
)

// Draw status constants
const (
	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Request types

// Participants may be given as a list or as raw text split on whitespace.
type DrawRequest struct {
	Seed             string   `json:"seed"`
	Participants     []string `json:"participants,omitempty"`
	ParticipantsText string   `json:"participants_text,omitempty"`
	Count            int      `json:"count"`
	Algorithm        string   `json:"algorithm,omitempty"`
}

type VerifyRequest struct {
	DrawRequest
	Winners []string `json:"winners"`
}

type CreateDrawRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatorName string `json:"creator_name"`
	Count       int    `json:"count"`
	Algorithm   string `json:"algorithm,omitempty"`
}

type AddParticipantsRequest struct {
	Names []string `json:"names,omitempty"`
	Text  string   `json:"text,omitempty"`
}

// PublishDrawRequest commits to the seed before anyone can enter.
// SeedCommitment is the hex digest of the seed under the draw's algorithm;
// SeedSource optionally describes where the seed will come from.
type PublishDrawRequest struct {
	SeedCommitment string `json:"seed_commitment"`
	SeedSource     string `json:"seed_source,omitempty"`
}

type CloseDrawRequest struct {
	Seed string `json:"seed"`
}

type EnterDrawRequest struct {
	Name string `json:"name"`
}

type SavePresetRequest struct {
	Name         string   `json:"name" yaml:"name"`
	Seed         string   `json:"seed" yaml:"seed"`
	Count        int      `json:"count" yaml:"count"`
	Participants []string `json:"participants" yaml:"participants"`
}

// Response types

type DrawResponse struct {
	Algorithm        string       `json:"algorithm"`
	Seed             string       `json:"seed"`
	SeedDigest       string       `json:"seed_digest"`
	Count            int          `json:"count"`
	ParticipantCount int          `json:"participant_count"`
	Winners          []draw.Entry `json:"winners"`
	Ranking          []draw.Entry `json:"ranking"`
	RankingTruncated bool         `json:"ranking_truncated"`
	InputsHash       string       `json:"inputs_hash"`
	Summary          string       `json:"summary"`
}

type VerifyResponse struct {
	Valid      bool     `json:"valid"`
	Expected   []string `json:"expected"`
	InputsHash string   `json:"inputs_hash"`
}

type CreateDrawResponse struct {
	DrawID   string `json:"draw_id"`
	AdminKey string `json:"admin_key"`
}

type AddParticipantsResponse struct {
	Added int `json:"added"`
	Total int `json:"total"`
}

type PublishDrawResponse struct {
	ShareSlug      string `json:"share_slug"`
	ShareURL       string `json:"share_url"`
	SeedCommitment string `json:"seed_commitment"`
}

type EnterDrawResponse struct {
	EntryToken string `json:"entry_token"`
	Position   int    `json:"position"`
}

// MyEntryResponse describes a self-entry. Rank and Winner are filled in
// once the draw is closed.
type MyEntryResponse struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Rank     *int   `json:"rank,omitempty"`
	Winner   bool   `json:"winner"`
}

type EntryCountResponse struct {
	EntryCount int `json:"entry_count"`
}

type DrawResultsResponse struct {
	Draw     Draw           `json:"draw"`
	Snapshot ResultSnapshot `json:"snapshot"`
}

type CloseDrawResponse struct {
	ClosedAt time.Time      `json:"closed_at"`
	Snapshot ResultSnapshot `json:"snapshot"`
}

type DrawPreviewResponse struct {
	Title            string `json:"title"`
	Status           string `json:"status"`
	ParticipantCount int    `json:"participant_count"`
	Count            int    `json:"count"`
	Summary          string `json:"summary"`
}

type ImportPresetsResponse struct {
	Imported int `json:"imported"`
}

// Domain types

type Draw struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	CreatorName     string     `json:"creator_name"`
	Algorithm       string     `json:"algorithm"`
	Count           int        `json:"count"`
	Status          string     `json:"status"`
	ShareSlug       *string    `json:"share_slug,omitempty"`
	SeedCommitment  *string    `json:"seed_commitment,omitempty"` // Seed digest, fixed at publish
	SeedSource      *string    `json:"seed_source,omitempty"`
	Seed            *string    `json:"seed,omitempty"` // Only set once closed
	SeedDigest      *string    `json:"seed_digest,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	FinalSnapshotID *string    `json:"final_snapshot_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type Participant struct {
	Position   int       `json:"position"`
	Name       string    `json:"name"`
	EntryToken *string   `json:"-"` // Never expose in JSON
	IPHash     *string   `json:"-"` // Never expose in JSON
	CreatedAt  time.Time `json:"created_at"`
}

type DrawWithParticipants struct {
	Draw         Draw          `json:"draw"`
	Participants []Participant `json:"participants"`
}

// ResultSnapshot is the frozen outcome of a closed draw. Ranking may be
// windowed when served; TotalRanked always counts every participant.
type ResultSnapshot struct {
	ID          string       `json:"id"`
	DrawID      string       `json:"draw_id"`
	Algorithm   string       `json:"algorithm"`
	ComputedAt  time.Time    `json:"computed_at"`
	Seed        string       `json:"seed"`
	SeedDigest  string       `json:"seed_digest"`
	Count       int          `json:"count"`
	Winners     []draw.Entry `json:"winners"`
	Ranking     []draw.Entry `json:"ranking"`
	TotalRanked int          `json:"total_ranked"`
	InputsHash  string       `json:"inputs_hash"`
}

type Preset struct {
	Name         string    `json:"name" yaml:"name"`
	Seed         string    `json:"seed" yaml:"seed"`
	Count        int       `json:"count" yaml:"count"`
	Participants []string  `json:"participants" yaml:"participants"`
	CreatedAt    time.Time `json:"created_at" yaml:"-"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"-"`
}

// PresetBundle is the YAML document used for preset export and import.
type PresetBundle struct {
	Presets []SavePresetRequest `yaml:"presets"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
