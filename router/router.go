// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/hashdraw/cliparse"
	"github.com/danielhkuo/hashdraw/handlers"
	"github.com/danielhkuo/hashdraw/metrics"
	"github.com/danielhkuo/hashdraw/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	drawHandler := handlers.NewDrawHandler(cfg, m)
	lifecycleHandler := handlers.NewLifecycleHandler(db, cfg, m)
	entryHandler := handlers.NewEntryHandler(db, cfg, m)
	resultsHandler := handlers.NewResultsHandler(db, cfg)
	presetHandler := handlers.NewPresetHandler(db, cfg, m)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", m.Handler())

	// One-shot draws
	mux.HandleFunc("POST /draw", middleware.WithLogging(drawHandler.Draw))
	mux.HandleFunc("POST /draw/verify", middleware.WithLogging(drawHandler.Verify))

	// Draw lifecycle (admin operations)
	mux.HandleFunc("POST /draws", middleware.WithLogging(lifecycleHandler.CreateDraw))
	mux.HandleFunc("GET /draws/{id}/admin", middleware.WithLogging(lifecycleHandler.GetDrawAdmin))
	mux.HandleFunc("POST /draws/{id}/participants", middleware.WithLogging(lifecycleHandler.AddParticipants))
	mux.HandleFunc("POST /draws/{id}/publish", middleware.WithLogging(lifecycleHandler.PublishDraw))
	mux.HandleFunc("POST /draws/{id}/close", middleware.WithLogging(lifecycleHandler.CloseDraw))

	// Entries (public)
	mux.HandleFunc("POST /draws/{slug}/entries", middleware.WithLogging(entryHandler.Enter))
	mux.HandleFunc("GET /draws/{slug}/my-entry", middleware.WithLogging(entryHandler.GetMyEntry))

	// Results retrieval (public, sealed until closed)
	mux.HandleFunc("GET /draws/{slug}", middleware.WithLogging(resultsHandler.GetDraw))
	mux.HandleFunc("GET /draws/{slug}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /draws/{slug}/entry-count", middleware.WithLogging(resultsHandler.GetEntryCount))
	mux.HandleFunc("GET /draws/{slug}/preview", middleware.WithLogging(resultsHandler.GetPreview))

	// Presets
	mux.HandleFunc("POST /presets", middleware.WithLogging(presetHandler.SavePreset))
	mux.HandleFunc("GET /presets", middleware.WithLogging(presetHandler.ListPresets))
	mux.HandleFunc("GET /presets/export", middleware.WithLogging(presetHandler.ExportPresets))
	mux.HandleFunc("POST /presets/import", middleware.WithLogging(presetHandler.ImportPresets))
	mux.HandleFunc("GET /presets/{name}", middleware.WithLogging(presetHandler.GetPreset))
	mux.HandleFunc("DELETE /presets/{name}", middleware.WithLogging(presetHandler.DeletePreset))
	mux.HandleFunc("POST /presets/{name}/draw", middleware.WithLogging(presetHandler.DrawPreset))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hashdraw API v1"))
	})

	return mux
}
