// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/hashdraw/auth"
	"github.com/danielhkuo/hashdraw/cliparse"
	"github.com/danielhkuo/hashdraw/draw"
	"github.com/danielhkuo/hashdraw/metrics"
	"github.com/danielhkuo/hashdraw/middleware"
	"github.com/danielhkuo/hashdraw/models"
)

const maxSeedSourceLen = 500

// LifecycleHandler manages committed draws: participants are fixed first,
// the seed is revealed last.
type LifecycleHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	metrics *metrics.Metrics
}

func NewLifecycleHandler(db *sql.DB, cfg cliparse.Config, m *metrics.Metrics) *LifecycleHandler {
	return &LifecycleHandler{db: db, cfg: cfg, metrics: m}
}

// CreateDraw handles POST /draws
func (h *LifecycleHandler) CreateDraw(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDrawRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.CreatorName == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "creator_name is required")
		return
	}
	if req.Count < 1 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "count must be at least 1")
		return
	}

	algo, err := resolveAlgorithm(h.cfg, req.Algorithm)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	// Generate draw ID and its admin key
	drawID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate draw ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create draw")
		return
	}

	adminKey := auth.GenerateAdminKey(drawID, h.cfg.AdminKeySalt)

	// Insert draw into database
	_, err = h.db.Exec(`
		INSERT INTO draw (id, title, description, creator_name, algorithm, winner_count, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, drawID, req.Title, req.Description, req.CreatorName, algo.String(), req.Count, models.StatusDraft, time.Now().UTC())

	if err != nil {
		slog.Error("failed to insert draw", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create draw")
		return
	}

	slog.Info("draw created", "draw_id", drawID, "creator", req.CreatorName, "algorithm", algo)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateDrawResponse{
		DrawID:   drawID,
		AdminKey: adminKey,
	})
}

// GetDrawAdmin handles GET /draws/{id}/admin
func (h *LifecycleHandler) GetDrawAdmin(w http.ResponseWriter, r *http.Request) {
	drawID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	d, err := getDrawByID(h.db, drawID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Draw not found")
		return
	}
	if err != nil {
		slog.Error("failed to query draw", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	participants, err := getParticipants(h.db, drawID)
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

// AddParticipants handles POST /draws/{id}/participants
// Only draft draws accept participants from the admin.
func (h *LifecycleHandler) AddParticipants(w http.ResponseWriter, r *http.Request) {
	drawID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req models.AddParticipantsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Explicit names win over free text
	names := req.Names
	if len(names) == 0 {
		names = draw.ParseParticipants(req.Text)
	}
	if len(names) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "names or text is required")
		return
	}

	// Same rules as self-service entries
	for i, name := range names {
		names[i] = strings.TrimSpace(name)
		if msg := validateEntryName(names[i]); msg != "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("participant %d: %s", i+1, msg))
			return
		}
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	locked, err := lockDraw(tx, drawID, models.StatusDraft)
	if err != nil {
		slog.Error("failed to lock draw", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !locked {
		h.explainStatus(w, tx, drawID, "Cannot add participants to a draw that is not in draft")
		return
	}

	next, err := nextPosition(tx, drawID)
	if err != nil {
		slog.Error("failed to compute next position", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if limit := h.cfg.MaxParticipants; limit > 0 && next+len(names) > limit {
		middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, "participant limit exceeded")
		return
	}

	// Append after the current last position
	now := time.Now().UTC()
	for i, name := range names {
		_, err = tx.Exec(`
			INSERT INTO draw_participant (draw_id, position, name, created_at)
			VALUES ($1, $2, $3, $4)
		`, drawID, next+i, name, now)
		if err != nil {
			slog.Error("failed to insert participant", "error", err, "draw_id", drawID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add participants")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add participants")
		return
	}

	slog.Info("participants added", "draw_id", drawID, "added", len(names))

	middleware.JSONResponse(w, http.StatusCreated, models.AddParticipantsResponse{
		Added: len(names),
		Total: next + len(names),
	})
}

// PublishDraw handles POST /draws/{id}/publish
func (h *LifecycleHandler) PublishDraw(w http.ResponseWriter, r *http.Request) {
	drawID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	// Parse request
	var req models.PublishDrawRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var status, algorithm string
	err := h.db.QueryRow("SELECT status, algorithm FROM draw WHERE id = $1", drawID).Scan(&status, &algorithm)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Draw not found")
		return
	}
	if err != nil {
		slog.Error("failed to query draw", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Draw is not in draft status")
		return
	}

	// Commitment must be a digest under the draw's algorithm
	algo, err := resolveAlgorithm(h.cfg, algorithm)
	if err != nil {
		writeDrawError(w, err)
		return
	}
	commitment, err := auth.NormalizeCommitment(req.SeedCommitment, algo.DigestLen())
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("seed_commitment must be the %d-character hex %s digest of the seed", algo.DigestLen(), algo))
		return
	}
	seedSource := strings.TrimSpace(req.SeedSource)
	if len(seedSource) > maxSeedSourceLen {
		middleware.ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("seed_source must be %d characters or less", maxSeedSourceLen))
		return
	}
	var source *string
	if seedSource != "" {
		source = &seedSource
	}

	total, err := countParticipants(h.db, drawID)
	if err != nil {
		slog.Error("failed to count participants", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if total < 1 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Draw must have at least 1 participant")
		return
	}

	// Open the draw and fix the commitment in one guarded update
	shareSlug := auth.GenerateShareSlug(drawID, h.cfg.DrawSlugSalt)

	res, err := h.db.Exec(`
		UPDATE draw
		SET status = $1, share_slug = $2, seed_commitment = $3, seed_source = $4
		WHERE id = $5 AND status = $6
	`, models.StatusOpen, shareSlug, commitment, source, drawID, models.StatusDraft)
	if err != nil {
		slog.Error("failed to publish draw", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to publish draw")
		return
	}
	if n, _ := res.RowsAffected(); n != 1 {
		middleware.ErrorResponse(w, http.StatusConflict, "Draw is not in draft status")
		return
	}

	slog.Info("draw published",
		"draw_id", drawID,
		"share_slug", shareSlug,
		"participants", total,
		"seed_commitment", commitment,
	)

	middleware.JSONResponse(w, http.StatusOK, models.PublishDrawResponse{
		ShareSlug:      shareSlug,
		ShareURL:       strings.TrimRight(h.cfg.BaseURL, "/") + "/draws/" + shareSlug,
		SeedCommitment: commitment,
	})
}

// CloseDraw handles POST /draws/{id}/close
// Reveals the seed, ranks the participants and freezes the result.
func (h *LifecycleHandler) CloseDraw(w http.ResponseWriter, r *http.Request) {
	drawID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	// Parse request
	var req models.CloseDrawRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Seed) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, draw.ErrEmptySeed.Error())
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	// Lock first so no entry can slip in between reading and ranking
	locked, err := lockDraw(tx, drawID, models.StatusOpen)
	if err != nil {
		slog.Error("failed to lock draw", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !locked {
		h.explainStatus(w, tx, drawID, "Draw is not open")
		return
	}

	d, err := getDrawByID(tx, drawID)
	if err != nil {
		slog.Error("failed to query draw", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Revealed seed must hash to the commitment made at publish
	if d.SeedCommitment == nil {
		middleware.ErrorResponse(w, http.StatusConflict, "Draw has no seed commitment")
		return
	}
	algo, err := resolveAlgorithm(h.cfg, d.Algorithm)
	if err != nil {
		writeDrawError(w, err)
		return
	}
	revealed, err := algo.Digest(req.Seed)
	if err != nil {
		writeDrawError(w, err)
		return
	}
	if err := auth.VerifyCommitment(*d.SeedCommitment, revealed); err != nil {
		slog.Warn("seed reveal rejected", "draw_id", drawID, "seed_commitment", *d.SeedCommitment)
		middleware.ErrorResponse(w, http.StatusConflict, "Seed does not match the published commitment")
		return
	}

	participants, err := getParticipants(tx, drawID)
	if err != nil {
		slog.Error("failed to query participants", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	res, err := runDraw(r.Context(), h.cfg, h.metrics, d.Algorithm, req.Seed, participantNames(participants), d.Count)
	if err != nil {
		writeDrawError(w, err)
		return
	}

	// Freeze the full ranking as the draw's snapshot
	snapshotID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate snapshot ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close draw")
		return
	}
	closedAt := time.Now().UTC()

	snapshot := models.ResultSnapshot{
		ID:          snapshotID,
		DrawID:      drawID,
		Algorithm:   res.Algorithm.String(),
		ComputedAt:  closedAt,
		Seed:        res.Seed,
		SeedDigest:  res.SeedDigest,
		Count:       res.Count,
		Winners:     res.Winners,
		Ranking:     res.Ranking,
		TotalRanked: len(res.Ranking),
		InputsHash:  res.InputsHash,
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		slog.Error("failed to encode snapshot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save results")
		return
	}

	_, err = tx.Exec(`
		INSERT INTO result_snapshot (id, draw_id, algorithm, computed_at, payload)
		VALUES ($1, $2, $3, $4, $5)
	`, snapshotID, drawID, snapshot.Algorithm, closedAt, string(payload))
	if err != nil {
		slog.Error("failed to insert snapshot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save results")
		return
	}

	_, err = tx.Exec(`
		UPDATE draw
		SET status = $1, seed = $2, seed_digest = $3, closed_at = $4, final_snapshot_id = $5
		WHERE id = $6
	`, models.StatusClosed, res.Seed, res.SeedDigest, closedAt, snapshotID, drawID)
	if err != nil {
		slog.Error("failed to close draw", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close draw")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close draw")
		return
	}

	h.metrics.DrawsClosed.Inc()
	slog.Info("draw closed",
		"draw_id", drawID,
		"snapshot_id", snapshotID,
		"participants", len(participants),
		"seed_digest", res.SeedDigest,
	)

	snapshot.Ranking = res.Window(h.cfg.DisplayCap)
	middleware.JSONResponse(w, http.StatusOK, models.CloseDrawResponse{
		ClosedAt: closedAt,
		Snapshot: snapshot,
	})
}

// authorize checks the X-Admin-Key header against the draw ID in the path.
func (h *LifecycleHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	drawID := r.PathValue("id")
	if drawID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "draw_id is required")
		return "", false
	}

	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(drawID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return "", false
	}
	return drawID, true
}

// explainStatus answers a failed lockDraw: 404 if the draw is missing,
// 409 with msg otherwise.
func (h *LifecycleHandler) explainStatus(w http.ResponseWriter, q queryer, drawID, msg string) {
	var status string
	err := q.QueryRow("SELECT status FROM draw WHERE id = $1", drawID).Scan(&status)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Draw not found")
		return
	}
	if err != nil {
		slog.Error("failed to query draw", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.ErrorResponse(w, http.StatusConflict, msg)
}
