// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/hashdraw/cliparse"
	"github.com/danielhkuo/hashdraw/draw"
	"github.com/danielhkuo/hashdraw/metrics"
	"github.com/danielhkuo/hashdraw/middleware"
	"github.com/danielhkuo/hashdraw/models"
)

// DrawHandler serves stateless draws. Nothing is stored.
type DrawHandler struct {
	cfg     cliparse.Config
	metrics *metrics.Metrics
}

func NewDrawHandler(cfg cliparse.Config, m *metrics.Metrics) *DrawHandler {
	return &DrawHandler{cfg: cfg, metrics: m}
}

// Draw handles POST /draw
func (h *DrawHandler) Draw(w http.ResponseWriter, r *http.Request) {
	var req models.DrawRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	res, err := runDraw(r.Context(), h.cfg, h.metrics, req.Algorithm, req.Seed, requestParticipants(req), req.Count)
	if err != nil {
		writeDrawError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, newDrawResponse(res, h.cfg.DisplayCap))
}

// Verify handles POST /draw/verify
// Recomputes the draw and checks the claimed winners, in order.
func (h *DrawHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	res, err := runDraw(r.Context(), h.cfg, h.metrics, req.Algorithm, req.Seed, requestParticipants(req.DrawRequest), req.Count)
	if err != nil {
		writeDrawError(w, err)
		return
	}

	expected := res.WinnerNames()
	valid := slices.Equal(expected, req.Winners)

	slog.Info("draw verified", "valid", valid, "inputs_hash", res.InputsHash)

	middleware.JSONResponse(w, http.StatusOK, models.VerifyResponse{
		Valid:      valid,
		Expected:   expected,
		InputsHash: res.InputsHash,
	})
}

// requestParticipants prefers the explicit list over raw text.
func requestParticipants(req models.DrawRequest) []string {
	if len(req.Participants) > 0 {
		return req.Participants
	}
	return draw.ParseParticipants(req.ParticipantsText)
}

// runDraw resolves the algorithm, runs the engine and records metrics.
// An empty algorithm name selects the configured default.
func runDraw(ctx context.Context, cfg cliparse.Config, m *metrics.Metrics, algorithm, seed string, participants []string, count int) (*draw.Result, error) {
	algo, err := resolveAlgorithm(cfg, algorithm)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := cfg.NewEngine(draw.WithAlgorithm(algo)).Draw(ctx, seed, participants, count)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		m.ObserveDraw(algo.String(), metrics.OutcomeOK, len(participants), elapsed)
	case errors.Is(err, draw.ErrPrecondition):
		m.ObserveDraw(algo.String(), metrics.OutcomeRejected, len(participants), elapsed)
	default:
		m.ObserveDraw(algo.String(), metrics.OutcomeError, len(participants), elapsed)
	}

	if err == nil {
		slog.Debug("draw computed",
			"algorithm", algo,
			"participants", len(participants),
			"count", count,
			"duration_ms", elapsed.Milliseconds(),
		)
	}
	return res, err
}

// resolveAlgorithm picks the named algorithm, falling back to the configured default.
func resolveAlgorithm(cfg cliparse.Config, name string) (draw.Algorithm, error) {
	if name != "" {
		return draw.ParseAlgorithm(name)
	}
	if cfg.Algorithm == "" {
		return draw.DefaultAlgorithm, nil
	}
	return cfg.Algorithm, nil
}

// writeDrawError maps engine errors onto HTTP statuses.
func writeDrawError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, draw.ErrTooManyParticipants):
		middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, draw.ErrPrecondition):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, draw.ErrDigest):
		middleware.ErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, draw.ErrUnknownAlgorithm):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Draw was cancelled")
	default:
		slog.Error("draw failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Draw failed")
	}
}

func newDrawResponse(res *draw.Result, displayCap int) models.DrawResponse {
	window := res.Window(displayCap)
	return models.DrawResponse{
		Algorithm:        res.Algorithm.String(),
		Seed:             res.Seed,
		SeedDigest:       res.SeedDigest,
		Count:            res.Count,
		ParticipantCount: len(res.Ranking),
		Winners:          res.Winners,
		Ranking:          window,
		RankingTruncated: len(window) < len(res.Ranking),
		InputsHash:       res.InputsHash,
		Summary:          summarize(len(res.Winners), len(res.Ranking), res.Algorithm),
	}
}

func summarize(winners, participants int, algo draw.Algorithm) string {
	return fmt.Sprintf("%s drawn from %s with %s",
		humanize.Comma(int64(winners)),
		pluralParticipants(participants),
		algo,
	)
}

func pluralParticipants(n int) string {
	if n == 1 {
		return "1 participant"
	}
	return humanize.Comma(int64(n)) + " participants"
}
