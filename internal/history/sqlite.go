package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/helixir/paper-discovery-service/internal/database"
	"github.com/helixir/paper-discovery-service/internal/domain"
)

// SQLiteStore persists history in the search_history table.
type SQLiteStore struct {
	db    *database.DB
	limit int
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a store over a migrated database.
func NewSQLiteStore(db *database.DB, limit int) *SQLiteStore {
	return &SQLiteStore{db: db, limit: limitOrDefault(limit)}
}

// Add inserts entry and trims the session to the limit in one transaction.
func (s *SQLiteStore) Add(ctx context.Context, entry domain.HistoryEntry) error {
	session := sessionOf(ctx)

	sources, err := json.Marshal(nonNil(entry.Sources))
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}
	papers := entry.Papers
	if papers == nil {
		papers = []domain.Paper{}
	}
	rawPapers, err := json.Marshal(papers)
	if err != nil {
		return fmt.Errorf("encode papers: %w", err)
	}

	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO search_history (id, session_id, query, sources, paper_count, papers, searched_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			entry.ID, session, entry.Query, string(sources), entry.PaperCount, string(rawPapers),
			entry.Timestamp.UnixMilli())
		if err != nil {
			return fmt.Errorf("insert history entry: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`DELETE FROM search_history
			 WHERE session_id = ? AND id NOT IN (
			     SELECT id FROM search_history WHERE session_id = ?
			     ORDER BY searched_at DESC, rowid DESC LIMIT ?)`,
			session, session, s.limit)
		if err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) List(ctx context.Context) ([]domain.HistoryEntry, error) {
	rows, err := s.db.SQL().QueryContext(ctx,
		`SELECT id, query, sources, paper_count, papers, searched_at
		 FROM search_history WHERE session_id = ?
		 ORDER BY searched_at DESC, rowid DESC LIMIT ?`,
		sessionOf(ctx), s.limit)
	if err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.HistoryEntry, 0, s.limit)
	for rows.Next() {
		var (
			e                  domain.HistoryEntry
			sources, rawPapers string
			searchedAt         int64
		)
		if err := rows.Scan(&e.ID, &e.Query, &sources, &e.PaperCount, &rawPapers, &searchedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if err := json.Unmarshal([]byte(sources), &e.Sources); err != nil {
			return nil, fmt.Errorf("decode sources of %s: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(rawPapers), &e.Papers); err != nil {
			return nil, fmt.Errorf("decode papers of %s: %w", e.ID, err)
		}
		e.Timestamp = time.UnixMilli(searchedAt).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.SQL().ExecContext(ctx, `DELETE FROM search_history WHERE session_id = ?`, sessionOf(ctx)); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
