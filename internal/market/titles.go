package market

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	minTitleLen       = 3
	maxTitleLen       = 50
	professionsPerKey = 100
)

var (
	reParens    = regexp.MustCompile(`\(.*?\)`)
	reAtCompany = regexp.MustCompile(`(?i)\s*в\s+компани[юи].*$`)
	reRemote    = regexp.MustCompile(`(?i)\s*-\s*удал[её]нно.*$`)
	reSpaces    = regexp.MustCompile(`\s+`)
)

// Candidate is a profession name mined from listing titles.
type Candidate struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CleanTitle reduces a vacancy title to a bare profession name. It returns
// "" when the result is too short or too long to be a profession.
func CleanTitle(title string) string {
	s := reParens.ReplaceAllString(title, "")
	s = reAtCompany.ReplaceAllString(s, "")
	s = reRemote.ReplaceAllString(s, "")
	s = strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
	if i := strings.IndexAny(s, ",/"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if n := utf8.RuneCountInString(s); n < minTitleLen || n > maxTitleLen {
		return ""
	}
	return s
}

// tally counts cleaned titles in first-seen order.
type tally struct {
	order  []string
	counts map[string]int
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) add(items []Listing, exclude string) {
	for _, it := range items {
		name := CleanTitle(it.Title)
		if name == "" {
			continue
		}
		if exclude != "" && strings.EqualFold(name, exclude) {
			continue
		}
		if _, ok := t.counts[name]; !ok {
			t.order = append(t.order, name)
		}
		t.counts[name]++
	}
}

func (t *tally) top(limit int) []Candidate {
	out := make([]Candidate, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, Candidate{Name: name, Count: t.counts[name]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CandidateTitles ranks the cleaned titles of items by frequency, skipping
// the excluded name. Ties keep first-seen order.
func CandidateTitles(items []Listing, exclude string, limit int) []Candidate {
	t := newTally()
	t.add(items, exclude)
	return t.top(limit)
}

// FetchProfessions searches each keyword and merges the candidate titles
// across all of them. Keywords whose search fails are skipped.
func (c *Client) FetchProfessions(ctx context.Context, keywords []string, limit int) []Candidate {
	t := newTally()
	for _, kw := range keywords {
		res, err := c.Search(ctx, kw, professionsPerKey)
		if err != nil {
			slog.Warn("market keyword search failed", "keyword", kw, "error", err)
			continue
		}
		t.add(res.Items, "")
	}
	out := t.top(limit)
	slog.Debug("market professions", "keywords", keywords, "count", len(out))
	return out
}
