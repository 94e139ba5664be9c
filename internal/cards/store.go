package cards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/kalambet/careervibe/internal/engine"
	"github.com/kalambet/careervibe/internal/market"
	"github.com/kalambet/careervibe/internal/storage"
)

// CardBackend defines the persistence operations the Store needs.
// Implemented by storage.Store.
type CardBackend interface {
	PutCard(rec storage.CardRecord) error
	GetCard(slug string) (storage.CardRecord, error)
	ListCards() ([]storage.CardRecord, error)
}

// StatsSource supplies market statistics for a profession.
// Implemented by market.Client.
type StatsSource interface {
	Stats(ctx context.Context, profession string) market.Stats
}

// Store is the card store: an in-process cache in front of SQLite, plus
// LLM-backed generation deduplicated per slug.
type Store struct {
	backend CardBackend
	gen     engine.Generator
	stats   StatsSource
	cache   *cache.Cache
	group   singleflight.Group
	catalog *Catalog
	now     func() time.Time
}

// NewStore creates a Store. cacheTTL bounds how long a card stays in memory.
func NewStore(backend CardBackend, gen engine.Generator, stats StatsSource, cacheTTL, catalogTTL time.Duration) *Store {
	s := &Store{
		backend: backend,
		gen:     gen,
		stats:   stats,
		cache:   cache.New(cacheTTL, 2*cacheTTL),
		now:     time.Now,
	}
	s.catalog = NewCatalog(backend, realClock{}, catalogTTL)
	return s
}

// Catalog returns the listing of persisted cards.
func (s *Store) Catalog() *Catalog {
	return s.catalog
}

// Get returns the card for slug, or ErrNotFound.
func (s *Store) Get(slug string) (Card, error) {
	if v, ok := s.cache.Get(slug); ok {
		return v.(Card), nil
	}

	rec, err := s.backend.GetCard(slug)
	if errors.Is(err, storage.ErrNotFound) {
		return Card{}, ErrNotFound
	}
	if err != nil {
		return Card{}, fmt.Errorf("loading card %s: %w", slug, err)
	}

	var c Card
	if err := json.Unmarshal([]byte(rec.DataJSON), &c); err != nil {
		return Card{}, fmt.Errorf("decoding card %s: %w", slug, err)
	}
	s.cache.Set(slug, c, cache.DefaultExpiration)
	return c, nil
}

// Put persists card under slug and refreshes the cache.
func (s *Store) Put(slug string, card Card) error {
	card.Slug = slug
	data, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("encoding card %s: %w", slug, err)
	}

	rec := storage.CardRecord{
		Slug:       slug,
		Profession: card.Profession,
		Level:      card.Level,
		Company:    card.Company,
		DataJSON:   string(data),
	}
	if t, err := time.Parse(time.RFC3339, card.GeneratedAt); err == nil {
		rec.GeneratedAt = t
	}
	if err := s.backend.PutCard(rec); err != nil {
		return fmt.Errorf("saving card %s: %w", slug, err)
	}

	s.cache.Set(slug, card, cache.DefaultExpiration)
	s.catalog.Invalidate()
	return nil
}

// Generate creates a new card for profession. Concurrent calls for the same
// slug share a single generation; only the first caller receives progress.
// The result is not persisted; callers Put it.
func (s *Store) Generate(ctx context.Context, profession, level, company string, opts Options) (Card, error) {
	slug := Slug(profession)
	v, err, shared := s.group.Do(slug, func() (any, error) {
		return s.generate(ctx, profession, level, company, opts)
	})
	if err != nil {
		return Card{}, fmt.Errorf("generating card for %q: %w", profession, err)
	}
	if shared {
		slog.Debug("card generation shared", "slug", slug)
	}
	return v.(Card), nil
}

// GenerateAndPut generates a card and persists it.
func (s *Store) GenerateAndPut(ctx context.Context, profession, level, company string, opts Options) (Card, error) {
	c, err := s.Generate(ctx, profession, level, company, opts)
	if err != nil {
		return Card{}, err
	}
	if err := s.Put(c.Slug, c); err != nil {
		return Card{}, err
	}
	return c, nil
}
