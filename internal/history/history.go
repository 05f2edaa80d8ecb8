// Package history keeps the most recent searches, newest first, separately
// for each session.
package history

import (
	"context"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/observability"
)

// Store records completed searches. The session is taken from the context
// (see observability.WithSessionID); requests without one share the
// default namespace.
type Store interface {
	// Add records entry and drops the oldest entries beyond the limit.
	Add(ctx context.Context, entry domain.HistoryEntry) error
	// List returns the retained entries, newest first.
	List(ctx context.Context) ([]domain.HistoryEntry, error)
	// Clear removes every entry of the session.
	Clear(ctx context.Context) error
}

func sessionOf(ctx context.Context) string {
	return observability.SessionIDFromContext(ctx)
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return domain.DefaultHistoryLimit
	}
	return limit
}
