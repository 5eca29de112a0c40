package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/darkodi/shortlinks/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS links (
    code         TEXT PRIMARY KEY,
    url          TEXT NOT NULL,
    clicks       INTEGER NOT NULL DEFAULT 0 CHECK (clicks >= 0),
    created_at   DATETIME NOT NULL,
    last_clicked DATETIME
);
CREATE INDEX IF NOT EXISTS idx_links_created_at ON links(created_at);
`

// SQLiteStore keeps links in a SQLite database.
//
// The pool is capped at one connection: writers are serialised by the
// driver and ":memory:" databases stay shared across calls.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return &SQLiteStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, code, url string) (*model.Link, error) {
	createdAt := s.now()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO links (code, url, clicks, created_at) VALUES (?, ?, 0, ?)
         ON CONFLICT(code) DO NOTHING`,
		code, url, createdAt,
	)
	if err != nil {
		return nil, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrCodeExists
	}

	return &model.Link{Code: code, URL: url, CreatedAt: createdAt}, nil
}

func (s *SQLiteStore) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM links WHERE code = ?)", code,
	).Scan(&exists)
	return exists, err
}

func (s *SQLiteStore) IncrementAndGet(ctx context.Context, code string) (string, error) {
	var url string
	// max() keeps last_clicked >= created_at if the clock stepped back
	err := s.db.QueryRowContext(ctx,
		`UPDATE links
         SET clicks = clicks + 1, last_clicked = max(?, created_at)
         WHERE code = ?
         RETURNING url`,
		s.now(), code,
	).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return url, err
}

func (s *SQLiteStore) Get(ctx context.Context, code string) (*model.Link, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT code, url, clicks, created_at, last_clicked FROM links WHERE code = ?",
		code,
	)
	link, err := scanLink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return link, err
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.Link, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, url, clicks, created_at, last_clicked
         FROM links ORDER BY created_at DESC, code ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLinks(rows)
}

func (s *SQLiteStore) Delete(ctx context.Context, code string) (bool, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM links WHERE code = ?", code)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================
// SCAN HELPERS (shared with the Postgres store)
// ============================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (*model.Link, error) {
	var (
		link        model.Link
		lastClicked sql.NullTime
	)
	if err := row.Scan(&link.Code, &link.URL, &link.Clicks, &link.CreatedAt, &lastClicked); err != nil {
		return nil, err
	}
	if lastClicked.Valid {
		t := lastClicked.Time
		link.LastClicked = &t
	}
	return &link, nil
}

func scanLinks(rows *sql.Rows) ([]model.Link, error) {
	links := []model.Link{}
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	return links, rows.Err()
}
