package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/darkodi/shortlinks/internal/code"
	"github.com/darkodi/shortlinks/internal/metrics"
	"github.com/darkodi/shortlinks/internal/repository"
)

// Resolver turns a code into its target URL and records the visit.
type Resolver struct {
	store   repository.Store
	metrics *metrics.Metrics
}

func NewResolver(store repository.Store, m *metrics.Metrics) *Resolver {
	return &Resolver{store: store, metrics: m}
}

// Resolve increments the click counter and returns the target in a single
// store operation. Unknown, deleted and malformed codes give ErrNotFound;
// malformed ones never reach the store.
func (r *Resolver) Resolve(ctx context.Context, c string) (string, error) {
	if !code.Valid(c) {
		r.metrics.ObserveResolution(metrics.OutcomeMiss)
		return "", ErrNotFound
	}

	url, err := r.store.IncrementAndGet(ctx, c)
	if errors.Is(err, repository.ErrNotFound) {
		r.metrics.ObserveResolution(metrics.OutcomeMiss)
		return "", ErrNotFound
	}
	if err != nil {
		r.metrics.ObserveResolution(metrics.OutcomeError)
		return "", fmt.Errorf("resolve %s: %w", c, err)
	}

	r.metrics.ObserveResolution(metrics.OutcomeHit)
	return url, nil
}
