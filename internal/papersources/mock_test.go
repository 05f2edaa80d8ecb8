package papersources

import (
	"context"
	"sync/atomic"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

// mockPaperSource is a mock implementation of PaperSource for testing.
type mockPaperSource struct {
	sourceType domain.SourceType
	name       string
	enabled    bool

	// searchFunc allows customizing search behavior in tests
	searchFunc func(ctx context.Context, params SearchParams) (*SearchResult, error)

	searchCalls atomic.Int32
}

func newMockPaperSource(sourceType domain.SourceType, name string, enabled bool) *mockPaperSource {
	return &mockPaperSource{
		sourceType: sourceType,
		name:       name,
		enabled:    enabled,
	}
}

func (m *mockPaperSource) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	m.searchCalls.Add(1)
	if m.searchFunc != nil {
		return m.searchFunc(ctx, params)
	}
	return &SearchResult{Papers: []domain.Paper{}, Source: m.sourceType}, nil
}

func (m *mockPaperSource) SourceType() domain.SourceType { return m.sourceType }

func (m *mockPaperSource) Name() string { return m.name }

func (m *mockPaperSource) IsEnabled() bool { return m.enabled }

func (m *mockPaperSource) SearchCallCount() int {
	return int(m.searchCalls.Load())
}
