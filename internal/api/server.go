package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/kalambet/careervibe/internal/cards"
	"github.com/kalambet/careervibe/internal/dialogue"
	"github.com/kalambet/careervibe/internal/engine"
	"github.com/kalambet/careervibe/internal/storage"
	"github.com/kalambet/careervibe/internal/worker"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Chatter answers one chat turn. Implemented by dialogue.Orchestrator.
type Chatter interface {
	Handle(ctx context.Context, req dialogue.Request) dialogue.Response
}

// CardStore reads and generates cards. Implemented by cards.Store.
type CardStore interface {
	Get(slug string) (cards.Card, error)
	GenerateAndPut(ctx context.Context, profession, level, company string, opts cards.Options) (cards.Card, error)
}

// CardLister lists the catalog. Implemented by cards.Catalog.
type CardLister interface {
	List() ([]cards.Ref, error)
}

// JobQueue enqueues and inspects background jobs. Implemented by storage.Store.
type JobQueue interface {
	worker.Enqueuer
	GetJob(id string) (storage.Job, error)
}

// Deps holds everything the HTTP handler needs.
type Deps struct {
	Chat    Chatter
	Cards   CardStore
	Catalog CardLister
	Jobs    JobQueue
	// Generator analyzes uploaded résumés; if nil, the résumé endpoint
	// returns 503.
	Generator engine.Generator
	// Token protects the card management and job endpoints.
	Token string
}

// NewHandler returns the careervibe HTTP API. Chat and catalog reads are
// public; card generation and jobs require the bearer token.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger, middleware.Recoverer)

	r.Get("/health", handleHealth)
	r.Post("/v1/chat", handleChat(deps))
	r.Get("/v1/professions", handleListProfessions(deps))
	r.Get("/v1/professions/{slug}", handleGetProfession(deps))
	r.Post("/v1/persona/resume", handleResume(deps))

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))
		r.Post("/v1/cards", handleCards(deps))
		r.Post("/v1/jobs/seed", handleSeed(deps))
		r.Get("/v1/jobs/{id}", handleGetJob(deps))
	})

	return r
}

// requestLogger tags each request with an ID and logs its outcome.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req dialogue.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		resp := deps.Chat.Handle(r.Context(), req)
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleListProfessions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refs, err := deps.Catalog.List()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list professions: %v", err)
			return
		}

		offset := parseIntParam(r, "offset", 0, 0)
		limit := parseIntParam(r, "limit", len(refs), 0)
		if offset > len(refs) {
			offset = len(refs)
		}
		refs = refs[offset:]
		if limit < len(refs) {
			refs = refs[:limit]
		}
		if refs == nil {
			refs = []cards.Ref{}
		}

		writeJSON(w, http.StatusOK, refs)
	}
}

func handleGetProfession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		card, err := deps.Cards.Get(slug)
		if errors.Is(err, cards.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "profession not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get profession: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, card)
	}
}

type seedRequest struct {
	Seeds []cards.Seed `json:"seeds"`
}

func handleSeed(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req seedRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
				return
			}
		}
		seeds := req.Seeds
		if len(seeds) == 0 {
			seeds = cards.DefaultSeeds
		}

		ids, err := worker.EnqueueSeeds(deps.Jobs, seeds)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to enqueue seeds: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"ids":    ids,
			"status": "queued",
		})
	}
}

type jobView struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Status      storage.JobStatus `json:"status"`
	Attempts    int               `json:"attempts"`
	MaxAttempts int               `json:"maxAttempts"`
	LastError   string            `json:"lastError,omitempty"`
	RunAfter    time.Time         `json:"runAfter"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func handleGetJob(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		job, err := deps.Jobs.GetJob(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get job: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, jobView{
			ID:          job.ID,
			Type:        job.Type,
			Status:      job.Status,
			Attempts:    job.Attempts,
			MaxAttempts: job.MaxAttempts,
			LastError:   job.LastError,
			RunAfter:    job.RunAfter,
			UpdatedAt:   job.UpdatedAt,
		})
	}
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response", "error", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}
