// Package market reads live job listings from the hh.ru vacancies API and
// derives the statistics the advisor quotes: vacancy counts, salary levels,
// competition and the employers hiring most.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL   = "https://api.hh.ru"
	defaultUserAgent = "HH-Vibe-Career-App/1.0"
	defaultArea      = 113
	defaultTimeout   = 15 * time.Second
)

// Salary is a listing's advertised pay. Either bound may be absent.
type Salary struct {
	From     *int   `json:"from"`
	To       *int   `json:"to"`
	Currency string `json:"currency"`
}

// Listing is one vacancy as the advisor sees it.
type Listing struct {
	Title          string
	Salary         *Salary
	Responsibility string
	Requirement    string
	Employer       string
}

// SearchResult is one page of listings plus the total match count.
type SearchResult struct {
	TotalCount int
	Items      []Listing
}

// Config parameterizes the hh.ru client.
type Config struct {
	BaseURL   string
	Area      int
	UserAgent string
	// RateLimit is the number of requests per second. Zero disables limiting.
	RateLimit int
}

// Client talks to the hh.ru vacancies API.
type Client struct {
	baseURL    string
	area       int
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a Client. Empty fields in cfg take the public API defaults.
func New(cfg Config) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		area:       cfg.Area,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Inf, 0),
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.area == 0 {
		c.area = defaultArea
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit)
	}
	return c
}

// vacanciesResponse mirrors GET /vacancies.
type vacanciesResponse struct {
	Found int `json:"found"`
	Items []struct {
		Name    string  `json:"name"`
		Salary  *Salary `json:"salary"`
		Snippet struct {
			Requirement    string `json:"requirement"`
			Responsibility string `json:"responsibility"`
		} `json:"snippet"`
		Employer struct {
			Name string `json:"name"`
		} `json:"employer"`
	} `json:"items"`
}

// Search returns up to pageSize listings matching query, ordered by relevance.
func (c *Client) Search(ctx context.Context, query string, pageSize int) (SearchResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return SearchResult{}, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("text", query)
	q.Set("per_page", strconv.Itoa(pageSize))
	q.Set("area", strconv.Itoa(c.area))
	q.Set("order_by", "relevance")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/vacancies?"+q.Encode(), nil)
	if err != nil {
		return SearchResult{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SearchResult{}, fmt.Errorf("searching vacancies: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return SearchResult{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var vr vacanciesResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return SearchResult{}, fmt.Errorf("decoding vacancies: %w", err)
	}

	res := SearchResult{TotalCount: vr.Found, Items: make([]Listing, 0, len(vr.Items))}
	for _, it := range vr.Items {
		res.Items = append(res.Items, Listing{
			Title:          it.Name,
			Salary:         it.Salary,
			Responsibility: StripMarkup(it.Snippet.Responsibility),
			Requirement:    StripMarkup(it.Snippet.Requirement),
			Employer:       it.Employer.Name,
		})
	}
	return res, nil
}
