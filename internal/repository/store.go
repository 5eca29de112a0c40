package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/darkodi/shortlinks/internal/config"
	"github.com/darkodi/shortlinks/internal/model"
)

var (
	ErrNotFound   = errors.New("link not found")
	ErrCodeExists = errors.New("code already exists")
)

// Store is the persistent link table. Every method is a single atomic
// round-trip; uniqueness of codes is enforced by Insert itself.
type Store interface {
	// Insert adds the link only if no row holds code yet.
	// Returns ErrCodeExists when the code is taken.
	Insert(ctx context.Context, code, url string) (*model.Link, error)

	// Exists is a cheap pre-check. It is never the source of truth for uniqueness.
	Exists(ctx context.Context, code string) (bool, error)

	// IncrementAndGet bumps clicks, stamps last_clicked and returns the url
	// in one operation. Returns ErrNotFound when no row matches.
	IncrementAndGet(ctx context.Context, code string) (string, error)

	Get(ctx context.Context, code string) (*model.Link, error)

	// List returns all links, newest first.
	List(ctx context.Context) ([]model.Link, error)

	// Delete reports whether a row was removed.
	Delete(ctx context.Context, code string) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}

// Open picks a store implementation from the DATABASE_URL scheme:
// postgres:// and postgresql:// use PostgreSQL, redis:// and rediss:// use
// Redis, anything else is treated as a SQLite path (an optional sqlite://
// prefix is stripped).
func Open(ctx context.Context, cfg *config.DatabaseConfig) (Store, error) {
	switch {
	case strings.HasPrefix(cfg.URL, "postgres://"), strings.HasPrefix(cfg.URL, "postgresql://"):
		return NewPostgresStore(ctx, cfg)
	case strings.HasPrefix(cfg.URL, "redis://"), strings.HasPrefix(cfg.URL, "rediss://"):
		return NewRedisStore(ctx, cfg.URL)
	default:
		return NewSQLiteStore(ctx, strings.TrimPrefix(cfg.URL, "sqlite://"))
	}
}
