package market

import (
	"context"
	"log/slog"
	"math"
	"slices"
)

const statsPageSize = 20

// Competition labels, by total vacancy count.
const (
	CompetitionHigh    = "высокая"
	CompetitionMedium  = "средняя"
	CompetitionLow     = "низкая"
	CompetitionVeryLow = "очень низкая"
	CompetitionUnknown = "неизвестно"
)

// SalaryRange bounds the advertised salaries. Nil means no data.
type SalaryRange struct {
	Min *int `json:"min"`
	Max *int `json:"max"`
}

// Stats summarizes the market for one profession.
type Stats struct {
	Vacancies    int         `json:"vacancies"`
	AvgSalary    *int        `json:"avgSalary"`
	SalaryRange  SalaryRange `json:"salaryRange"`
	Competition  string      `json:"competition"`
	TopCompanies []string    `json:"topCompanies,omitempty"`
}

// UnknownStats is the zero-valued result returned when the market is unreachable.
func UnknownStats() Stats {
	return Stats{Competition: CompetitionUnknown}
}

// Stats fetches listings for profession and summarizes them. It never fails:
// a transport or decoding error yields UnknownStats.
func (c *Client) Stats(ctx context.Context, profession string) Stats {
	res, err := c.Search(ctx, profession, statsPageSize)
	if err != nil {
		slog.Warn("market stats unavailable", "profession", profession, "error", err)
		return UnknownStats()
	}
	st := Summarize(res)
	slog.Debug("market stats", "profession", profession, "vacancies", st.Vacancies, "avg_salary", st.AvgSalary)
	return st
}

// Competition maps a total vacancy count to a competition label.
func Competition(found int) string {
	switch {
	case found > 1000:
		return CompetitionHigh
	case found > 500:
		return CompetitionMedium
	case found > 100:
		return CompetitionLow
	default:
		return CompetitionVeryLow
	}
}

// Summarize derives Stats from one page of results. Only RUR salaries count.
func Summarize(res SearchResult) Stats {
	st := Stats{
		Vacancies:   res.TotalCount,
		Competition: Competition(res.TotalCount),
	}

	var sum float64
	var n int
	var froms, tos []int
	for _, it := range res.Items {
		if it.Salary == nil || it.Salary.Currency != "RUR" {
			continue
		}
		from, to := positive(it.Salary.From), positive(it.Salary.To)
		switch {
		case from > 0 && to > 0:
			sum += float64(from+to) / 2
			froms = append(froms, from)
			tos = append(tos, to)
		case from > 0:
			sum += float64(from)
			froms = append(froms, from)
		case to > 0:
			sum += float64(to)
			tos = append(tos, to)
		default:
			continue
		}
		n++
	}

	if n > 0 {
		avg := int(math.Floor(sum/float64(n)/1000+0.5)) * 1000
		st.AvgSalary = &avg
	}
	if len(froms) > 0 {
		m := slices.Min(froms)
		st.SalaryRange.Min = &m
	}
	if len(tos) > 0 {
		m := slices.Max(tos)
		st.SalaryRange.Max = &m
	}

	st.TopCompanies = topEmployers(res.Items, 5)
	return st
}

func topEmployers(items []Listing, limit int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range items {
		if it.Employer == "" || seen[it.Employer] {
			continue
		}
		seen[it.Employer] = true
		out = append(out, it.Employer)
		if len(out) == limit {
			break
		}
	}
	return out
}

func positive(p *int) int {
	if p == nil || *p < 0 {
		return 0
	}
	return *p
}
