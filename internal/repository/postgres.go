package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/darkodi/shortlinks/internal/config"
	"github.com/darkodi/shortlinks/internal/model"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS links (
    code         VARCHAR(8) PRIMARY KEY,
    url          TEXT NOT NULL,
    clicks       BIGINT NOT NULL DEFAULT 0 CHECK (clicks >= 0),
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    last_clicked TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_links_created_at ON links(created_at DESC);
`

// uniqueViolation is the PostgreSQL SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// PostgresStore keeps links in PostgreSQL. Timestamps come from the
// database clock so that every instance agrees on them.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, cfg *config.DatabaseConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) Insert(ctx context.Context, code, url string) (*model.Link, error) {
	link := &model.Link{Code: code, URL: url}
	err := p.db.QueryRowContext(ctx,
		`INSERT INTO links (code, url) VALUES ($1, $2)
         ON CONFLICT (code) DO NOTHING
         RETURNING created_at`,
		code, url,
	).Scan(&link.CreatedAt)

	switch {
	case errors.Is(err, sql.ErrNoRows), isUniqueViolation(err):
		return nil, ErrCodeExists
	case err != nil:
		return nil, err
	}
	return link, nil
}

func (p *PostgresStore) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM links WHERE code = $1)", code,
	).Scan(&exists)
	return exists, err
}

func (p *PostgresStore) IncrementAndGet(ctx context.Context, code string) (string, error) {
	var url string
	err := p.db.QueryRowContext(ctx,
		`UPDATE links
         SET clicks = clicks + 1, last_clicked = GREATEST(now(), created_at)
         WHERE code = $1
         RETURNING url`,
		code,
	).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return url, err
}

func (p *PostgresStore) Get(ctx context.Context, code string) (*model.Link, error) {
	row := p.db.QueryRowContext(ctx,
		"SELECT code, url, clicks, created_at, last_clicked FROM links WHERE code = $1",
		code,
	)
	link, err := scanLink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return link, err
}

func (p *PostgresStore) List(ctx context.Context) ([]model.Link, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT code, url, clicks, created_at, last_clicked
         FROM links ORDER BY created_at DESC, code ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLinks(rows)
}

func (p *PostgresStore) Delete(ctx context.Context, code string) (bool, error) {
	result, err := p.db.ExecContext(ctx, "DELETE FROM links WHERE code = $1", code)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
