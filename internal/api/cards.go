package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kalambet/careervibe/internal/cards"
	"github.com/kalambet/careervibe/internal/worker"
)

const (
	defaultCardLevel   = "Middle"
	defaultCardCompany = "стартап"
)

type cardRequest struct {
	Profession     string `json:"profession"`
	Level          string `json:"level"`
	Company        string `json:"company"`
	CompanySize    string `json:"companySize"`
	Location       string `json:"location"`
	Specialization string `json:"specialization"`
	GenerateAudio  bool   `json:"generateAudio"`
	FastMode       bool   `json:"fastMode"`
	Async          bool   `json:"async"`
}

// cardResult is a card flattened together with delivery flags.
type cardResult struct {
	cards.Card
	Cached bool `json:"cached"`
	Done   bool `json:"done"`
}

type progressEvent struct {
	Message  string `json:"message"`
	Progress int    `json:"progress"`
}

func handleCards(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req cardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		req.Profession = strings.TrimSpace(req.Profession)
		if req.Profession == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "Профессия обязательна")
			return
		}
		if req.Level == "" {
			req.Level = defaultCardLevel
		}
		if req.Company == "" {
			req.Company = defaultCardCompany
		}

		slug := cards.Slug(req.Profession)
		cached, err := deps.Cards.Get(slug)
		switch {
		case err == nil:
			slog.Info("card served from cache", "slug", slug)
			if wantsStream(r) {
				if sse, ok := newSSE(w); ok {
					sse.send("progress", progressEvent{Message: "Найдена кешированная карточка ✅", Progress: 100})
					sse.send("complete", cardResult{Card: cached, Cached: true, Done: true})
					return
				}
			}
			writeJSON(w, http.StatusOK, cardResult{Card: cached, Cached: true, Done: true})
			return
		case !errors.Is(err, cards.ErrNotFound):
			slog.Warn("card cache lookup failed", "slug", slug, "error", err)
		}

		if req.Async {
			id, err := worker.EnqueueCard(deps.Jobs, worker.CardPayload{
				Profession: req.Profession,
				Level:      req.Level,
				Company:    req.Company,
				Options: worker.CardOptions{
					CompanySize:    req.CompanySize,
					Location:       req.Location,
					Specialization: req.Specialization,
					FastMode:       req.FastMode,
				},
			})
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to enqueue job: %v", err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{
				"id":     id,
				"status": "queued",
			})
			return
		}

		opts := cards.Options{
			CompanySize:    req.CompanySize,
			Location:       req.Location,
			Specialization: req.Specialization,
			GenerateAudio:  req.GenerateAudio,
			FastMode:       req.FastMode,
		}

		if wantsStream(r) {
			if sse, ok := newSSE(w); ok {
				opts.Progress = func(msg string, pct int) {
					sse.send("progress", progressEvent{Message: msg, Progress: pct})
				}
				card, err := deps.Cards.GenerateAndPut(r.Context(), req.Profession, req.Level, req.Company, opts)
				if err != nil {
					slog.Error("card generation failed", "slug", slug, "error", err)
					sse.send("error", map[string]any{"error": err.Error(), "done": true})
					return
				}
				sse.send("complete", cardResult{Card: card, Done: true})
				return
			}
		}

		card, err := deps.Cards.GenerateAndPut(r.Context(), req.Profession, req.Level, req.Company, opts)
		if err != nil {
			slog.Error("card generation failed", "slug", slug, "error", err)
			httpError(w, http.StatusBadGateway, "api_error", "card generation failed: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, cardResult{Card: card, Done: true})
	}
}

func wantsStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// newSSE switches the response to an event stream. It reports false when
// the writer cannot flush.
func newSSE(w http.ResponseWriter) (*sseWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	return &sseWriter{w: w, flusher: flusher}, true
}

func (s *sseWriter) send(event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("failed to marshal stream event", "event", event, "error", err)
		return
	}
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data)
	s.flusher.Flush()
}
