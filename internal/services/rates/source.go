// Package rates fetches exchange rates from external sources and installs
// them into the rate cache.
package rates

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/valutatrade/internal/domain"
)

// Anchor is the currency every source quotes its prices in.
const Anchor = "USD"

// Source provides prices quoted in Anchor.
type Source interface {
	Name() string
	FetchAll(ctx context.Context) ([]domain.RateEntry, error)
}

// Fallback tries sources in order, the first successful one wins.
type Fallback struct {
	sources []Source
}

// NewFallback creates a Fallback over sources.
func NewFallback(sources ...Source) *Fallback {
	return &Fallback{sources: sources}
}

// Name returns source names joined by "|".
func (f *Fallback) Name() string {
	names := make([]string, len(f.sources))
	for i, s := range f.sources {
		names[i] = s.Name()
	}
	return strings.Join(names, "|")
}

// FetchAll returns the entries of the first source that succeeds.
func (f *Fallback) FetchAll(ctx context.Context) ([]domain.RateEntry, error) {
	if len(f.sources) == 0 {
		return nil, errors.New("no rate sources configured")
	}

	var lastErr error
	for _, s := range f.sources {
		entries, err := s.FetchAll(ctx)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
		if err == nil {
			err = errors.Errorf("%s returned no rates", s.Name())
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = errors.Wrap(err, s.Name())
	}

	return nil, lastErr
}
