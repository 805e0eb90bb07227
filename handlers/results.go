// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/hashdraw/cliparse"
	"github.com/danielhkuo/hashdraw/middleware"
	"github.com/danielhkuo/hashdraw/models"
)

type ResultsHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg}
}

// GetDraw handles GET /draws/{slug}
// The seed is stored only on close, so it stays hidden while the draw is open.
func (h *ResultsHandler) GetDraw(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}

	participants, err := getParticipants(h.db, d.ID)
	if err != nil {
		slog.Error("failed to query participants", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.DrawWithParticipants{
		Draw:         d,
		Participants: participants,
	})
}

// GetResults handles GET /draws/{slug}/results
// Returns 403 until the draw is closed, then the frozen snapshot.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}

	// Check if draw is closed
	if d.Status != models.StatusClosed {
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are hidden until the draw is closed")
		return
	}

	if d.FinalSnapshotID == nil {
		slog.Error("closed draw has no snapshot", "draw_id", d.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Results not available")
		return
	}

	snapshot, err := getSnapshot(h.db, *d.FinalSnapshotID)
	if err != nil {
		slog.Error("failed to load snapshot", "error", err, "draw_id", d.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Results not available")
		return
	}

	// Window the ranking; the stored snapshot stays complete
	if limit := h.cfg.DisplayCap; limit > 0 && len(snapshot.Ranking) > limit {
		snapshot.Ranking = snapshot.Ranking[:limit]
	}

	middleware.JSONResponse(w, http.StatusOK, models.DrawResultsResponse{
		Draw:     d,
		Snapshot: snapshot,
	})
}

// GetEntryCount handles GET /draws/{slug}/entry-count
func (h *ResultsHandler) GetEntryCount(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}

	count, err := countParticipants(h.db, d.ID)
	if err != nil {
		slog.Error("failed to count participants", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.EntryCountResponse{EntryCount: count})
}

// GetPreview handles GET /draws/{slug}/preview
// Compact data for link previews.
func (h *ResultsHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}

	count, err := countParticipants(h.db, d.ID)
	if err != nil {
		slog.Error("failed to count participants", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.DrawPreviewResponse{
		Title:            d.Title,
		Status:           d.Status,
		ParticipantCount: count,
		Count:            d.Count,
		Summary:          previewSummary(d, count),
	})
}

func (h *ResultsHandler) lookup(w http.ResponseWriter, r *http.Request) (models.Draw, bool) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return models.Draw{}, false
	}

	d, err := getDrawBySlug(h.db, shareSlug)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Draw not found")
		return models.Draw{}, false
	}
	if err != nil {
		slog.Error("failed to query draw", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.Draw{}, false
	}
	return d, true
}

func previewSummary(d models.Draw, participants int) string {
	switch d.Status {
	case models.StatusClosed:
		if d.ClosedAt != nil {
			return fmt.Sprintf("%s, closed %s", pluralParticipants(participants), humanize.Time(*d.ClosedAt))
		}
		return pluralParticipants(participants) + ", closed"
	default:
		return fmt.Sprintf("%s so far, %s to be drawn", pluralParticipants(participants), humanize.Comma(int64(d.Count)))
	}
}
