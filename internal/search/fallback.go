package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Fallback tries each provider in order and returns the first non-empty
// answer. It is itself a Provider so a Stage can wrap it.
type Fallback struct {
	providers []Provider
	logger    *slog.Logger
}

func NewFallback(logger *slog.Logger, providers ...Provider) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{providers: providers, logger: logger}
}

func (f *Fallback) Name() string {
	names := make([]string, len(f.providers))
	for i, p := range f.providers {
		names[i] = p.Name()
	}
	return strings.Join(names, "+")
}

func (f *Fallback) Search(ctx context.Context, query string) ([]Product, error) {
	if len(f.providers) == 0 {
		return nil, fmt.Errorf("%w: no providers configured", ErrProvider)
	}

	var errs []error
	for _, p := range f.providers {
		products, err := p.Search(ctx, query)
		if err == nil && len(products) > 0 {
			return products, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err == nil {
			err = ErrNoResults
		}
		f.logger.Warn("search provider failed, trying next", "provider", p.Name(), "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}

	// Only report "no results" when every provider agreed.
	allEmpty := true
	for _, err := range errs {
		if !errors.Is(err, ErrNoResults) {
			allEmpty = false
			break
		}
	}
	if allEmpty {
		return nil, nil
	}
	return nil, errors.Join(errs...)
}
