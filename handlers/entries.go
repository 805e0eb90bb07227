// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/danielhkuo/hashdraw/auth"
	"github.com/danielhkuo/hashdraw/cliparse"
	"github.com/danielhkuo/hashdraw/metrics"
	"github.com/danielhkuo/hashdraw/middleware"
	"github.com/danielhkuo/hashdraw/models"
)

const maxEntryNameRunes = 128

type EntryHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	metrics *metrics.Metrics
}

func NewEntryHandler(db *sql.DB, cfg cliparse.Config, m *metrics.Metrics) *EntryHandler {
	return &EntryHandler{db: db, cfg: cfg, metrics: m}
}

// Enter handles POST /draws/{slug}/entries
func (h *EntryHandler) Enter(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	// Parse request
	var req models.EnterDrawRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name := strings.TrimSpace(req.Name)
	if msg := validateEntryName(name); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	// Find draw by share slug
	d, err := getDrawBySlug(h.db, shareSlug)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Draw not found")
		return
	}
	if err != nil {
		slog.Error("failed to query draw", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Generate entry token; the IP is only kept hashed
	entryToken, err := auth.GenerateEntryToken()
	if err != nil {
		slog.Error("failed to generate entry token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to enter draw")
		return
	}
	ipHash := auth.HashIP(middleware.GetClientIP(r), h.cfg.AdminKeySalt)

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	// The close handler holds the same lock while ranking
	locked, err := lockDraw(tx, d.ID, models.StatusOpen)
	if err != nil {
		slog.Error("failed to lock draw", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !locked {
		middleware.ErrorResponse(w, http.StatusConflict, "Draw is not open for entries")
		return
	}

	position, err := nextPosition(tx, d.ID)
	if err != nil {
		slog.Error("failed to compute next position", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if limit := h.cfg.MaxParticipants; limit > 0 && position >= limit {
		middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, "participant limit exceeded")
		return
	}

	_, err = tx.Exec(`
		INSERT INTO draw_participant (draw_id, position, name, entry_token, ip_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, d.ID, position, name, entryToken, ipHash, time.Now().UTC())
	if err != nil {
		slog.Error("failed to insert entry", "error", err, "draw_id", d.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to enter draw")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to enter draw")
		return
	}

	h.metrics.EntriesTotal.Inc()
	slog.Info("draw entered", "draw_id", d.ID, "position", position)

	middleware.JSONResponse(w, http.StatusCreated, models.EnterDrawResponse{
		EntryToken: entryToken,
		Position:   position,
	})
}

// GetMyEntry handles GET /draws/{slug}/my-entry
func (h *EntryHandler) GetMyEntry(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	// Get entry token from header
	entryToken := r.Header.Get("X-Entry-Token")
	if entryToken == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "X-Entry-Token header required")
		return
	}
	if err := auth.ValidateEntryToken(entryToken); err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Entry not found")
		return
	}

	d, err := getDrawBySlug(h.db, shareSlug)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Draw not found")
		return
	}
	if err != nil {
		slog.Error("failed to query draw", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Look up the entry by token
	resp := models.MyEntryResponse{Status: d.Status}
	err = h.db.QueryRow(`
		SELECT position, name FROM draw_participant
		WHERE draw_id = $1 AND entry_token = $2
	`, d.ID, entryToken).Scan(&resp.Position, &resp.Name)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Entry not found")
		return
	}
	if err != nil {
		slog.Error("failed to query entry", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Rank is known only once the snapshot exists
	if d.Status == models.StatusClosed && d.FinalSnapshotID != nil {
		snapshot, err := getSnapshot(h.db, *d.FinalSnapshotID)
		if err != nil {
			slog.Error("failed to load snapshot", "error", err, "draw_id", d.ID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Results not available")
			return
		}
		for i, e := range snapshot.Ranking {
			if e.Position == resp.Position {
				rank := i + 1
				resp.Rank = &rank
				resp.Winner = i < len(snapshot.Winners)
				break
			}
		}
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// validateEntryName returns a message describing why name is unusable, or
// "" if it is fine. Names are single tokens so a pasted participant list
// splits back into the same entries.
func validateEntryName(name string) string {
	if name == "" {
		return "name is required"
	}
	if !utf8.ValidString(name) {
		return "name must be valid UTF-8"
	}
	if utf8.RuneCountInString(name) > maxEntryNameRunes {
		return "name must be at most 128 characters"
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return "name must not contain whitespace"
	}
	return ""
}
