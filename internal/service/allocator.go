package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/darkodi/shortlinks/internal/code"
	"github.com/darkodi/shortlinks/internal/metrics"
	"github.com/darkodi/shortlinks/internal/model"
	"github.com/darkodi/shortlinks/internal/repository"
	"github.com/darkodi/shortlinks/internal/validator"
)

// DefaultMaxAttempts bounds the generate-and-check loop.
const DefaultMaxAttempts = 20

// Allocator produces a unique code for a new link and inserts it.
//
// The existence check before each insert only saves wasted inserts.
// Uniqueness is decided by Store.Insert, which refuses taken codes
// atomically, so two writers racing for the same code cannot both win.
type Allocator struct {
	store       repository.Store
	generator   code.Generator
	validator   *validator.URLValidator
	maxAttempts int
	metrics     *metrics.Metrics
}

// NewAllocator wires an allocator. A nil generator or validator falls back
// to the defaults; maxAttempts below 1 becomes DefaultMaxAttempts.
func NewAllocator(store repository.Store, gen code.Generator, v *validator.URLValidator, maxAttempts int, m *metrics.Metrics) *Allocator {
	if gen == nil {
		gen = code.NewRandomGenerator()
	}
	if v == nil {
		v = validator.NewURLValidator()
	}
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Allocator{
		store:       store,
		generator:   gen,
		validator:   v,
		maxAttempts: maxAttempts,
		metrics:     m,
	}
}

// Allocate validates rawURL and stores it under requested, or under a
// generated code when requested is empty.
func (a *Allocator) Allocate(ctx context.Context, rawURL, requested string) (*model.Link, error) {
	if err := a.validator.ValidateURL(rawURL); err != nil {
		a.metrics.ObserveAllocation(metrics.OutcomeInvalidURL, 0)
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	if requested != "" {
		return a.allocateRequested(ctx, rawURL, requested)
	}
	return a.allocateGenerated(ctx, rawURL)
}

func (a *Allocator) allocateRequested(ctx context.Context, rawURL, requested string) (*model.Link, error) {
	if !code.Valid(requested) || code.Reserved(requested) {
		a.metrics.ObserveAllocation(metrics.OutcomeInvalidCode, 0)
		return nil, ErrInvalidCode
	}

	taken, err := a.store.Exists(ctx, requested)
	if err != nil {
		a.metrics.ObserveAllocation(metrics.OutcomeError, 0)
		return nil, fmt.Errorf("check code %s: %w", requested, err)
	}
	if taken {
		a.metrics.ObserveAllocation(metrics.OutcomeConflict, 0)
		return nil, ErrCodeConflict
	}

	link, err := a.store.Insert(ctx, requested, rawURL)
	switch {
	case errors.Is(err, repository.ErrCodeExists):
		// another writer took it after our check
		a.metrics.ObserveAllocation(metrics.OutcomeConflict, 0)
		return nil, ErrCodeConflict
	case err != nil:
		a.metrics.ObserveAllocation(metrics.OutcomeError, 0)
		return nil, fmt.Errorf("insert code %s: %w", requested, err)
	}

	a.metrics.ObserveAllocation(metrics.OutcomeCreated, 0)
	return link, nil
}

func (a *Allocator) allocateGenerated(ctx context.Context, rawURL string) (*model.Link, error) {
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			a.metrics.ObserveAllocation(metrics.OutcomeError, 0)
			return nil, err
		}

		candidate := a.generator.Generate()
		if !code.Valid(candidate) || code.Reserved(candidate) {
			continue
		}

		taken, err := a.store.Exists(ctx, candidate)
		if err != nil {
			a.metrics.ObserveAllocation(metrics.OutcomeError, 0)
			return nil, fmt.Errorf("check code %s: %w", candidate, err)
		}
		if taken {
			continue
		}

		link, err := a.store.Insert(ctx, candidate, rawURL)
		if errors.Is(err, repository.ErrCodeExists) {
			continue
		}
		if err != nil {
			a.metrics.ObserveAllocation(metrics.OutcomeError, 0)
			return nil, fmt.Errorf("insert code %s: %w", candidate, err)
		}

		a.metrics.ObserveAllocation(metrics.OutcomeCreated, attempt)
		return link, nil
	}

	a.metrics.ObserveAllocation(metrics.OutcomeExhausted, 0)
	return nil, fmt.Errorf("%w (%d attempts)", ErrAllocationExhausted, a.maxAttempts)
}
