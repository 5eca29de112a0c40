package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/darkodi/shortlinks/internal/code"
	"github.com/darkodi/shortlinks/internal/metrics"
	"github.com/darkodi/shortlinks/internal/model"
	"github.com/darkodi/shortlinks/internal/repository"
	"github.com/darkodi/shortlinks/internal/validator"
)

// Options configures a LinkService. Zero values pick the defaults.
type Options struct {
	BaseURL     string // e.g. "http://localhost:8080"; empty gives "/<code>"
	MaxAttempts int
	Generator   code.Generator
	Validator   *validator.URLValidator
	Metrics     *metrics.Metrics
}

// LinkService is the entry point for the HTTP layer: creation goes through
// the Allocator, redirects through the Resolver, and the remaining
// read/delete operations hit the store directly.
type LinkService struct {
	store     repository.Store
	allocator *Allocator
	resolver  *Resolver
	baseURL   string
}

// NewLinkService creates a new service instance
func NewLinkService(store repository.Store, opts Options) *LinkService {
	return &LinkService{
		store:     store,
		allocator: NewAllocator(store, opts.Generator, opts.Validator, opts.MaxAttempts, opts.Metrics),
		resolver:  NewResolver(store, opts.Metrics),
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
	}
}

// CreateLink allocates a code for req.URL and builds the API response.
func (s *LinkService) CreateLink(ctx context.Context, req model.CreateLinkRequest) (*model.CreateLinkResponse, error) {
	link, err := s.allocator.Allocate(ctx, req.URL, req.Code)
	if err != nil {
		return nil, err
	}

	return &model.CreateLinkResponse{
		Code:     link.Code,
		URL:      link.URL,
		ShortURL: s.baseURL + "/" + link.Code,
	}, nil
}

// Resolve finds the target URL and counts the visit.
func (s *LinkService) Resolve(ctx context.Context, c string) (string, error) {
	return s.resolver.Resolve(ctx, c)
}

// GetLink returns the full record, counters included.
func (s *LinkService) GetLink(ctx context.Context, c string) (*model.Link, error) {
	if !code.Valid(c) {
		return nil, ErrNotFound
	}

	link, err := s.store.Get(ctx, c)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", c, err)
	}
	return link, nil
}

// ListLinks returns every link, newest first.
func (s *LinkService) ListLinks(ctx context.Context) ([]model.Link, error) {
	links, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

// DeleteLink removes the link immediately. The bool is false when there
// was nothing to remove; that is not an error.
func (s *LinkService) DeleteLink(ctx context.Context, c string) (bool, error) {
	if !code.Valid(c) {
		return false, nil
	}

	removed, err := s.store.Delete(ctx, c)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", c, err)
	}
	return removed, nil
}

// Ping checks that the store answers.
func (s *LinkService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
