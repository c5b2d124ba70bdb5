package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"thumbly/internal/metrics"
	"thumbly/internal/middleware"
	"thumbly/internal/thumbgen"
)

// Generate handles POST /generate: the full upload-to-thumbnail pipeline.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req thumbgen.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.fail(w, http.StatusTooManyRequests, "request body could not be parsed")
		return
	}
	req.Locale = middleware.LocaleFromContext(r.Context())

	mode := string(thumbgen.ParseMode(req.Mode))
	res, err := a.Service.Generate(r.Context(), &req)
	if err != nil {
		status := statusForError(err)
		metrics.GenerationTotal("error", mode)
		metrics.GenerationDuration("error", mode, time.Since(start))
		evt := a.Logger.Warn()
		if status >= 500 {
			evt = a.Logger.Error()
		}
		evt.Err(err).
			Int("status", status).
			Str("mode", mode).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Msg("generate failed")
		a.fail(w, status, err.Error())
		return
	}

	metrics.GenerationTotal("ok", mode)
	metrics.GenerationDuration("ok", mode, time.Since(start))
	a.Logger.Info().
		Str("mode", mode).
		Int("images", len(res.Images)).
		Bool("fallback", res.Fallback).
		Dur("took", time.Since(start)).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Msg("thumbnails generated")
	a.json(w, http.StatusOK, res)
}
