// Package search looks up products for a spoken query.
//
// A Provider talks to one search backend and returns products in the
// backend's relevance order. Stage sits in front of a provider and enforces
// the assistant's rules: empty queries never reach the network and at most
// Limit products come back.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"shopvox/internal/retry"
)

var (
	ErrNetwork   = errors.New("search network failure")
	ErrProvider  = errors.New("search provider failure")
	ErrNoResults = errors.New("no results found")

	// ErrEmptyQuery is returned without calling the provider.
	ErrEmptyQuery = fmt.Errorf("%w: empty query", ErrNoResults)
)

const (
	DefaultLimit   = 5
	maxDescription = 150
	noDescription  = "No description available"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Product is one search hit. Rank is 1-based.
type Product struct {
	Rank        int
	Title       string
	Link        string
	Description string
}

type Provider interface {
	Search(ctx context.Context, query string) ([]Product, error)
	Name() string
}

// Result is an immutable, ordered set of products for one query.
type Result struct {
	query    string
	products []Product
}

func (r Result) Query() string { return r.query }
func (r Result) Len() int      { return len(r.products) }

// Products returns a copy of the products in relevance order.
func (r Result) Products() []Product {
	return append([]Product(nil), r.products...)
}

func (r Result) Titles() []string {
	out := make([]string, len(r.products))
	for i, p := range r.products {
		out[i] = p.Title
	}
	return out
}

type Stage struct {
	provider Provider
	limit    int
	logger   *slog.Logger
}

func NewStage(p Provider, limit int, logger *slog.Logger) *Stage {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{provider: p, limit: limit, logger: logger}
}

func (s *Stage) Limit() int { return s.limit }

// Search returns the first Limit products for query in provider order.
func (s *Stage) Search(ctx context.Context, query string) (Result, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Result{}, ErrEmptyQuery
	}

	s.logger.Debug("searching", "provider", s.provider.Name(), "query", q, "limit", s.limit)

	found, err := s.provider.Search(ctx, q)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", s.provider.Name(), err)
	}
	if len(found) == 0 {
		return Result{}, ErrNoResults
	}

	n := min(len(found), s.limit)
	products := make([]Product, n)
	for i := range n {
		p := found[i]
		p.Rank = i + 1
		p.Description = clip(p.Description)
		products[i] = p
	}

	s.logger.Info("search done", "provider", s.provider.Name(), "found", len(found), "kept", n)

	return Result{query: query, products: products}, nil
}

func clip(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return noDescription
	}
	r := []rune(s)
	if len(r) > maxDescription {
		return string(r[:maxDescription])
	}
	return s
}

// fetch executes the request built by newReq, retrying throttled and 5xx
// responses, and returns the body of the first 200 response.
func fetch(ctx context.Context, client *http.Client, cfg retry.Config, newReq func() (*http.Request, error)) ([]byte, error) {
	var body []byte

	err := retry.Do(ctx, cfg, func() error {
		req, err := newReq()
		if err != nil {
			return retry.Permanent(fmt.Errorf("%w: build request: %v", ErrProvider, err))
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return retry.Permanent(ctx.Err())
			}
			return retry.Permanent(fmt.Errorf("%w: %v", ErrNetwork, err))
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			statusErr := fmt.Errorf("%w: http %d: %s", ErrProvider, resp.StatusCode, strings.TrimSpace(string(snippet)))
			if retry.Retryable(resp.StatusCode) {
				return statusErr
			}
			return retry.Permanent(statusErr)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return retry.Permanent(fmt.Errorf("%w: read body: %v", ErrNetwork, err))
		}
		return nil
	})

	return body, err
}
