// Package subflow holds the stateless response generators the dialogue
// routes to. Each generator calls the LLM (and sometimes the job market)
// and returns a typed result; every one degrades to a static fallback when
// the LLM fails, so callers never see an error from here.
package subflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kalambet/careervibe/internal/cards"
	"github.com/kalambet/careervibe/internal/engine"
	"github.com/kalambet/careervibe/internal/market"
)

// Market is the job-market provider. Implemented by market.Client.
type Market interface {
	Search(ctx context.Context, query string, pageSize int) (market.SearchResult, error)
	Stats(ctx context.Context, profession string) market.Stats
	FetchProfessions(ctx context.Context, keywords []string, limit int) []market.Candidate
}

// CardStore is the profession card store. Implemented by cards.Store.
type CardStore interface {
	Get(slug string) (cards.Card, error)
	Put(slug string, card cards.Card) error
	Generate(ctx context.Context, profession, level, company string, opts cards.Options) (cards.Card, error)
}

// Catalog lists persisted cards. Implemented by cards.Catalog.
type Catalog interface {
	MustList() []cards.Ref
}

// DefaultCompany is used when the user gave no company preference.
const DefaultCompany = "IT-компания"

// Flows bundles the generator dependencies.
type Flows struct {
	gen     engine.Generator
	market  Market
	store   CardStore
	catalog Catalog
	logger  *slog.Logger
}

// New creates Flows. Any dependency may be nil in tests that do not reach it.
func New(gen engine.Generator, m Market, store CardStore, catalog Catalog) *Flows {
	return &Flows{gen: gen, market: m, store: store, catalog: catalog, logger: slog.Default()}
}

// askJSON runs a JSON-mode generation into v. A false return means the
// caller should use its fallback; the failure is already logged.
func (f *Flows) askJSON(ctx context.Context, op, prompt string, temperature float64, v any) bool {
	if f.gen == nil {
		return false
	}
	if err := engine.GenerateJSON(ctx, f.gen, prompt, temperature, v); err != nil {
		f.logger.Warn("generator failed, using fallback", "op", op, "error", err)
		return false
	}
	return true
}

func (f *Flows) listCatalog() []cards.Ref {
	if f.catalog == nil {
		return nil
	}
	return f.catalog.MustList()
}

// search wraps Market.Search so a missing market or failed call reads as no
// listings.
func (f *Flows) search(ctx context.Context, query string, pageSize int) (market.SearchResult, bool) {
	if f.market == nil {
		return market.SearchResult{}, false
	}
	res, err := f.market.Search(ctx, query, pageSize)
	if err != nil {
		f.logger.Warn("market search failed", "query", query, "error", err)
		return market.SearchResult{}, false
	}
	return res, true
}

func (f *Flows) stats(ctx context.Context, profession string) market.Stats {
	if f.market == nil {
		return market.UnknownStats()
	}
	return f.market.Stats(ctx, profession)
}

// catalogLines renders catalog entries as a numbered prompt list.
func catalogLines(refs []cards.Ref, withCompany bool) string {
	var sb strings.Builder
	for i, r := range refs {
		if withCompany {
			fmt.Fprintf(&sb, "%d. %s (%s, %s) - slug: %s\n", i+1, r.Profession, r.Level, r.Company, r.Slug)
		} else {
			fmt.Fprintf(&sb, "%d. %s (%s) - slug: %s\n", i+1, r.Profession, r.Level, r.Slug)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func firstN(refs []cards.Ref, n int) []cards.Ref {
	if len(refs) > n {
		refs = refs[:n]
	}
	out := make([]cards.Ref, len(refs))
	copy(out, refs)
	return out
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// optLine renders "- label: value" or nothing when value is empty.
func optLine(label, value string) string {
	if value == "" {
		return ""
	}
	return "- " + label + ": " + value + "\n"
}

// formatRub groups thousands the way ru-RU locale does.
func formatRub(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, " ")
	if neg {
		return "-" + out
	}
	return out
}

var errNoGenerator = errors.New("no generator configured")

// GeneralChat answers free conversation and steers it back to careers.
// An empty string means the call failed; the caller supplies the fallback.
func (f *Flows) GeneralChat(ctx context.Context, message string) string {
	if f.gen == nil {
		return ""
	}
	prompt := fmt.Sprintf(`Ты дружелюбный AI-ассистент для карьерного консультирования. 
Пользователь написал: "%s"
Ответь коротко и по-дружески. Направь разговор к обсуждению карьеры.`, message)
	out, err := engine.GenerateText(ctx, f.gen, prompt, 0.8)
	if err != nil {
		f.logger.Warn("general chat failed", "error", err)
		return ""
	}
	return out
}
