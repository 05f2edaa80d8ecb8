package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/helixir/paper-discovery-service/internal/database"
	"github.com/helixir/paper-discovery-service/internal/domain"
)

// SQLiteStore persists entries in the paper_cache table so they survive
// restarts. Papers are stored as a JSON array.
type SQLiteStore struct {
	db database.DBTX
}

// NewSQLiteStore creates a store over a migrated database.
func NewSQLiteStore(db database.DBTX) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	var (
		capturedAt int64
		raw        string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT captured_at, papers FROM paper_cache WHERE cache_key = ?`, key,
	).Scan(&capturedAt, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("select cache entry: %w", err)
	}

	var papers []domain.Paper
	if err := json.Unmarshal([]byte(raw), &papers); err != nil {
		return Entry{}, false, fmt.Errorf("decode cached papers: %w", err)
	}
	return Entry{Papers: papers, CapturedAt: time.UnixMilli(capturedAt)}, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, entry Entry) error {
	papers := entry.Papers
	if papers == nil {
		papers = []domain.Paper{}
	}
	raw, err := json.Marshal(papers)
	if err != nil {
		return fmt.Errorf("encode papers: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO paper_cache (cache_key, captured_at, papers) VALUES (?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET captured_at = excluded.captured_at, papers = excluded.papers`,
		key, entry.CapturedAt.UnixMilli(), string(raw))
	if err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM paper_cache WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}
