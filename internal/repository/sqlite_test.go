package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store { return newTestSQLite(t) })
}

func TestSQLiteStore_LastClickedNeverBeforeCreated(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return created }
	_, err := s.Insert(ctx, "clock1", "https://example.com")
	require.NoError(t, err)

	// clock stepped back
	s.now = func() time.Time { return created.Add(-time.Hour) }
	_, err = s.IncrementAndGet(ctx, "clock1")
	require.NoError(t, err)

	link, err := s.Get(ctx, "clock1")
	require.NoError(t, err)
	require.NotNil(t, link.LastClicked)
	assert.True(t, link.LastClicked.Equal(link.CreatedAt))
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/links.db"

	s, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	_, err = s.Insert(ctx, "keep12", "https://example.com")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	link, err := s.Get(ctx, "keep12")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", link.URL)
}
