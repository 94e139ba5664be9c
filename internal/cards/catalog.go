package cards

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kalambet/careervibe/internal/storage"
)

// CatalogSource lists persisted cards. Implemented by storage.Store.
type CatalogSource interface {
	ListCards() ([]storage.CardRecord, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Catalog provides cached access to the refs of every persisted card.
type Catalog struct {
	source CatalogSource
	clock  Clock
	ttl    time.Duration

	mu       sync.RWMutex
	cached   []Ref
	cachedAt time.Time
}

// NewCatalog creates a Catalog whose listing is reloaded after ttl.
func NewCatalog(source CatalogSource, clock Clock, ttl time.Duration) *Catalog {
	return &Catalog{source: source, clock: clock, ttl: ttl}
}

// List returns refs for all persisted cards ordered by profession.
func (c *Catalog) List() ([]Ref, error) {
	// Fast path: read lock for cache hit.
	c.mu.RLock()
	if c.cached != nil && c.clock.Now().Before(c.cachedAt.Add(c.ttl)) {
		out := append([]Ref(nil), c.cached...)
		c.mu.RUnlock()
		return out, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && c.clock.Now().Before(c.cachedAt.Add(c.ttl)) {
		return append([]Ref(nil), c.cached...), nil
	}

	recs, err := c.source.ListCards()
	if err != nil {
		return nil, fmt.Errorf("listing cards: %w", err)
	}

	refs := make([]Ref, 0, len(recs))
	for _, rec := range recs {
		refs = append(refs, refFromRecord(rec))
	}
	c.cached = refs
	c.cachedAt = c.clock.Now()
	return append([]Ref(nil), refs...), nil
}

// MustList is List that degrades to an empty catalog on error.
func (c *Catalog) MustList() []Ref {
	refs, err := c.List()
	if err != nil {
		slog.Warn("catalog unavailable", "error", err)
		return nil
	}
	return refs
}

// Invalidate drops the cached listing.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}

// FindExact returns the entry whose slug or profession equals query,
// ignoring case.
func FindExact(refs []Ref, query string) (Ref, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	slug := Slug(query)
	for _, r := range refs {
		if r.Slug == slug || strings.ToLower(r.Profession) == q {
			return r, true
		}
	}
	return Ref{}, false
}

// FindPartial returns entries whose profession contains query or is
// contained in it, ignoring case.
func FindPartial(refs []Ref, query string) []Ref {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []Ref
	for _, r := range refs {
		p := strings.ToLower(r.Profession)
		if strings.Contains(p, q) || strings.Contains(q, p) {
			out = append(out, r)
		}
	}
	return out
}

// FindSlug returns the entry with the given slug.
func FindSlug(refs []Ref, slug string) (Ref, bool) {
	for _, r := range refs {
		if r.Slug == slug {
			return r, true
		}
	}
	return Ref{}, false
}

// refFromRecord builds a ref without decoding the whole card body.
func refFromRecord(rec storage.CardRecord) Ref {
	r := Ref{
		Slug:       rec.Slug,
		Profession: rec.Profession,
		Level:      rec.Level,
		Company:    rec.Company,
	}
	var body struct {
		Images    []string `json:"images"`
		Vacancies int      `json:"vacancies"`
	}
	if err := json.Unmarshal([]byte(rec.DataJSON), &body); err != nil {
		slog.Warn("malformed card body, listing without image", "slug", rec.Slug, "error", err)
		return r
	}
	if len(body.Images) > 0 {
		img := body.Images[0]
		r.Image = &img
	}
	r.VacanciesCount = body.Vacancies
	return r
}
