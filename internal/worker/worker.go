// Package worker generates profession cards in the background from the
// SQLite job queue.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/careervibe/internal/cards"
	"github.com/kalambet/careervibe/internal/storage"
)

// JobGenerateCard is the only job type the worker runs.
const JobGenerateCard = "generate_card"

// JobStore abstracts the job queue operations.
type JobStore interface {
	ClaimNextJob(types []string) (*storage.Job, error)
	CompleteJob(id string) error
	FailJob(id string, errMsg string) error
}

// Enqueuer adds jobs to the queue. Implemented by storage.Store.
type Enqueuer interface {
	EnqueueJob(job storage.Job) error
}

// CardGenerator generates and persists a card. Implemented by cards.Store.
type CardGenerator interface {
	GenerateAndPut(ctx context.Context, profession, level, company string, opts cards.Options) (cards.Card, error)
}

// CardOptions is the serialisable subset of cards.Options.
type CardOptions struct {
	CompanySize    string `json:"companySize,omitempty"`
	Location       string `json:"location,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	Motivation     string `json:"motivation,omitempty"`
	WorkStyle      string `json:"workStyle,omitempty"`
	Description    string `json:"description,omitempty"`
	FastMode       bool   `json:"fastMode,omitempty"`
}

func (o CardOptions) cardOptions() cards.Options {
	return cards.Options{
		CompanySize:    o.CompanySize,
		Location:       o.Location,
		Specialization: o.Specialization,
		Motivation:     o.Motivation,
		WorkStyle:      o.WorkStyle,
		Description:    o.Description,
		FastMode:       o.FastMode,
	}
}

// CardPayload is the payload of a generate_card job.
type CardPayload struct {
	Profession string      `json:"profession"`
	Level      string      `json:"level"`
	Company    string      `json:"company"`
	Options    CardOptions `json:"options"`
}

// EnqueueCard queues generation of one card and returns the job ID.
func EnqueueCard(q Enqueuer, p CardPayload) (string, error) {
	if p.Profession == "" {
		return "", fmt.Errorf("enqueueing card: profession is required")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encoding payload: %w", err)
	}
	id := uuid.New().String()
	if err := q.EnqueueJob(storage.Job{ID: id, Type: JobGenerateCard, PayloadJSON: string(data)}); err != nil {
		return "", fmt.Errorf("enqueueing card %q: %w", p.Profession, err)
	}
	return id, nil
}

// EnqueueSeeds queues the given seeds and returns their job IDs in order.
func EnqueueSeeds(q Enqueuer, seeds []cards.Seed) ([]string, error) {
	ids := make([]string, 0, len(seeds))
	for _, s := range seeds {
		id, err := EnqueueCard(q, CardPayload{Profession: s.Profession, Level: s.Level, Company: s.Company})
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Worker processes generate_card jobs.
type Worker struct {
	jobs   JobStore
	cards  CardGenerator
	poll   time.Duration
	logger *slog.Logger
}

// New creates a Worker. If pollInterval is <= 0, it defaults to 500ms.
func New(jobs JobStore, gen CardGenerator, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Worker{
		jobs:   jobs,
		cards:  gen,
		poll:   pollInterval,
		logger: slog.Default(),
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single job. It reports whether a job was
// processed, whether or not it succeeded. A failed job is rescheduled with
// backoff by the store until it runs out of attempts.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.jobs.ClaimNextJob([]string{JobGenerateCard})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.process(ctx, job); err != nil {
		w.logger.Warn("job failed", "job_id", job.ID, "attempt", job.Attempts+1, "error", err)
		if failErr := w.jobs.FailJob(job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	if err := w.jobs.CompleteJob(job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

func (w *Worker) process(ctx context.Context, job *storage.Job) error {
	var p CardPayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &p); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}
	if p.Profession == "" {
		return fmt.Errorf("payload has no profession")
	}

	start := time.Now()
	c, err := w.cards.GenerateAndPut(ctx, p.Profession, p.Level, p.Company, p.Options.cardOptions())
	if err != nil {
		return err
	}
	w.logger.Info("card generated", "job_id", job.ID, "slug", c.Slug, "duration", time.Since(start))
	return nil
}
