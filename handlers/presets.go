// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/hashdraw/cliparse"
	"github.com/danielhkuo/hashdraw/metrics"
	"github.com/danielhkuo/hashdraw/middleware"
	"github.com/danielhkuo/hashdraw/models"
)

const maxPresetNameLen = 100

// PresetHandler stores named draw parameters so a draw can be re-run or
// shared later.
type PresetHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	metrics *metrics.Metrics
}

func NewPresetHandler(db *sql.DB, cfg cliparse.Config, m *metrics.Metrics) *PresetHandler {
	return &PresetHandler{db: db, cfg: cfg, metrics: m}
}

// SavePreset handles POST /presets
// Saving under an existing name replaces it.
func (h *PresetHandler) SavePreset(w http.ResponseWriter, r *http.Request) {
	var req models.SavePresetRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := validatePreset(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := upsertPreset(h.db, req, time.Now().UTC()); err != nil {
		slog.Error("failed to save preset", "error", err, "name", req.Name)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save preset")
		return
	}

	preset, err := getPreset(h.db, req.Name)
	if err != nil {
		slog.Error("failed to reload preset", "error", err, "name", req.Name)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("preset saved", "name", req.Name, "participants", len(req.Participants))
	middleware.JSONResponse(w, http.StatusOK, preset)
}

// ListPresets handles GET /presets
func (h *PresetHandler) ListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := listPresets(h.db)
	if err != nil {
		slog.Error("failed to list presets", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, presets)
}

// GetPreset handles GET /presets/{name}
func (h *PresetHandler) GetPreset(w http.ResponseWriter, r *http.Request) {
	preset, ok := h.lookup(w, r)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, preset)
}

// DeletePreset handles DELETE /presets/{name}
func (h *PresetHandler) DeletePreset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	res, err := h.db.Exec(`DELETE FROM preset WHERE name = $1`, name)
	if err != nil {
		slog.Error("failed to delete preset", "error", err, "name", name)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Preset not found")
		return
	}

	slog.Info("preset deleted", "name", name)
	w.WriteHeader(http.StatusNoContent)
}

// ExportPresets handles GET /presets/export
func (h *PresetHandler) ExportPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := listPresets(h.db)
	if err != nil {
		slog.Error("failed to list presets", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	bundle := models.PresetBundle{Presets: make([]models.SavePresetRequest, len(presets))}
	for i, p := range presets {
		bundle.Presets[i] = models.SavePresetRequest{
			Name:         p.Name,
			Seed:         p.Seed,
			Count:        p.Count,
			Participants: p.Participants,
		}
	}

	out, err := yaml.Marshal(bundle)
	if err != nil {
		slog.Error("failed to encode presets", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to export presets")
		return
	}

	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="presets.yaml"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		slog.Warn("failed to write preset export", "error", err)
	}
}

// ImportPresets handles POST /presets/import
// All presets in the document are saved or none are.
func (h *PresetHandler) ImportPresets(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, middleware.MaxBodyBytes))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, "Body too large")
		return
	}

	var bundle models.PresetBundle
	if err := yaml.Unmarshal(body, &bundle); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid YAML")
		return
	}
	if len(bundle.Presets) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "no presets in document")
		return
	}

	// Validate everything before writing anything
	for i := range bundle.Presets {
		if err := validatePreset(&bundle.Presets[i]); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("preset %d: %v", i+1, err))
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

	// Upsert all presets in one transaction
	now := time.Now().UTC()
	for _, p := range bundle.Presets {
		if err := upsertPreset(tx, p, now); err != nil {
			slog.Error("failed to import preset", "error", err, "name", p.Name)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to import presets")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to import presets")
		return
	}

	slog.Info("presets imported", "count", len(bundle.Presets))
	middleware.JSONResponse(w, http.StatusOK, models.ImportPresetsResponse{Imported: len(bundle.Presets)})
}

// DrawPreset handles POST /presets/{name}/draw
// An optional ?algorithm= overrides the configured default.
func (h *PresetHandler) DrawPreset(w http.ResponseWriter, r *http.Request) {
	preset, ok := h.lookup(w, r)
	if !ok {
		return
	}

	algorithm := r.URL.Query().Get("algorithm")
	res, err := runDraw(r.Context(), h.cfg, h.metrics, algorithm, preset.Seed, preset.Participants, preset.Count)
	if err != nil {
		writeDrawError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, newDrawResponse(res, h.cfg.DisplayCap))
}

func (h *PresetHandler) lookup(w http.ResponseWriter, r *http.Request) (models.Preset, bool) {
	name := r.PathValue("name")
	preset, err := getPreset(h.db, name)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Preset not found")
		return models.Preset{}, false
	}
	if err != nil {
		slog.Error("failed to query preset", "error", err, "name", name)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.Preset{}, false
	}
	return preset, true
}

// validatePreset trims the name in place and checks the stored fields.
// The seed may be left empty and filled in later.
func validatePreset(p *models.SavePresetRequest) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return errors.New("name is required")
	}
	if len(p.Name) > maxPresetNameLen || strings.ContainsRune(p.Name, '/') {
		return errors.New("name must be at most 100 bytes and contain no '/'")
	}
	if p.Name == "export" || p.Name == "import" {
		return fmt.Errorf("%q is a reserved name", p.Name)
	}
	if p.Count < 1 {
		return errors.New("count must be at least 1")
	}
	for _, name := range p.Participants {
		if strings.TrimSpace(name) == "" {
			return errors.New("participant names must not be empty")
		}
	}
	if p.Participants == nil {
		p.Participants = []string{}
	}
	return nil
}

func upsertPreset(q queryer, p models.SavePresetRequest, now time.Time) error {
	participants, err := json.Marshal(p.Participants)
	if err != nil {
		return fmt.Errorf("failed to encode participants: %w", err)
	}
	_, err = q.Exec(`
		INSERT INTO preset (name, seed, winner_count, participants, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (name) DO UPDATE
		SET seed = excluded.seed,
		    winner_count = excluded.winner_count,
		    participants = excluded.participants,
		    updated_at = excluded.updated_at
	`, p.Name, p.Seed, p.Count, string(participants), now)
	return err
}

const presetColumns = `name, seed, winner_count, participants, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPreset(row rowScanner) (models.Preset, error) {
	var p models.Preset
	var participants string
	if err := row.Scan(&p.Name, &p.Seed, &p.Count, &participants, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return models.Preset{}, err
	}
	if err := json.Unmarshal([]byte(participants), &p.Participants); err != nil {
		return models.Preset{}, fmt.Errorf("failed to parse preset participants: %w", err)
	}
	return p, nil
}

func getPreset(q queryer, name string) (models.Preset, error) {
	return scanPreset(q.QueryRow(`SELECT `+presetColumns+` FROM preset WHERE name = $1`, name))
}

func listPresets(q queryer) ([]models.Preset, error) {
	rows, err := q.Query(`SELECT ` + presetColumns + ` FROM preset ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	presets := []models.Preset{}
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	return presets, rows.Err()
}
