package history

import (
	"context"
	"sync"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

// MemoryStore keeps history in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	limit    int
	sessions map[string][]domain.HistoryEntry
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store retaining limit entries per session.
// A non-positive limit means domain.DefaultHistoryLimit.
func NewMemoryStore(limit int) *MemoryStore {
	return &MemoryStore{
		limit:    limitOrDefault(limit),
		sessions: make(map[string][]domain.HistoryEntry),
	}
}

func (s *MemoryStore) Add(ctx context.Context, entry domain.HistoryEntry) error {
	session := sessionOf(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.sessions[session]
	next := make([]domain.HistoryEntry, 0, min(len(current)+1, s.limit))
	next = append(next, entry)
	for _, e := range current {
		if len(next) == s.limit {
			break
		}
		next = append(next, e)
	}
	s.sessions[session] = next
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.sessions[sessionOf(ctx)]
	out := make([]domain.HistoryEntry, len(current))
	copy(out, current)
	return out, nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionOf(ctx))
	return nil
}
