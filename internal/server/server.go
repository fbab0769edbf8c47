// Package server exposes the sync history over JSON and serves the rendered
// charts as static pages.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/marin-lab/diaspora-cli/internal/store"
)

// Handler builds the HTTP routes. Charts rendered into chartDir are served
// from the site root so the dashboard works as the index page.
func Handler(st store.Store, chartDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/syncs", func(w http.ResponseWriter, req *http.Request) {
		filter := store.SyncFilter{
			Dataset: req.URL.Query().Get("dataset"),
			Status:  store.SyncStatus(req.URL.Query().Get("status")),
			Limit:   queryInt(req, "limit", 50),
			Offset:  queryInt(req, "offset", 0),
		}
		syncs, err := st.ListSyncs(req.Context(), filter)
		if err != nil {
			zap.L().Error("list syncs failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list syncs"})
			return
		}
		if syncs == nil {
			syncs = []store.SyncRecord{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"syncs": syncs})
	})

	r.Get("/api/outputs/{dataset}", func(w http.ResponseWriter, req *http.Request) {
		dataset := chi.URLParam(req, "dataset")
		outputs, err := st.ListOutputs(req.Context(), dataset)
		if err != nil {
			zap.L().Error("list outputs failed",
				zap.String("dataset", dataset), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list outputs"})
			return
		}
		if outputs == nil {
			outputs = []store.OutputRecord{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"dataset": dataset,
			"outputs": outputs,
		})
	})

	r.Handle("/*", http.FileServer(http.Dir(chartDir)))
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func queryInt(req *http.Request, key string, fallback int) int {
	raw := req.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
