package papersources

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/observability"
)

// mapCache is an in-memory Cache recording writes.
type mapCache struct {
	mu      sync.Mutex
	entries map[string][]domain.Paper
	puts    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]domain.Paper)}
}

func (c *mapCache) key(query string, source domain.SourceType) string {
	return strings.ToLower(query) + ":" + string(source)
}

func (c *mapCache) Get(_ context.Context, query string, source domain.SourceType) ([]domain.Paper, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[c.key(query, source)]
	return p, ok
}

func (c *mapCache) Put(_ context.Context, query string, source domain.SourceType, papers []domain.Paper) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	c.entries[c.key(query, source)] = papers
}

func papersN(n int) []domain.Paper {
	out := make([]domain.Paper, n)
	for i := range out {
		out[i] = domain.Paper{Title: "Paper " + string(rune('A'+i)), Abstract: "abstract"}
	}
	return out
}

func TestAdapter_CacheHit(t *testing.T) {
	src := newMockPaperSource(domain.SourceTypeArXiv, "arXiv", true)
	c := newMapCache()
	c.entries[c.key("qubits", domain.SourceTypeArXiv)] = papersN(8)

	a := NewAdapter(src, c, AdapterConfig{}, zerolog.Nop())
	papers := a.FetchPapers(context.Background(), "Qubits", 5)

	assert.Len(t, papers, 5)
	assert.Equal(t, 0, src.SearchCallCount())

	papers[0].Title = "mutated"
	cached, _ := c.Get(context.Background(), "qubits", domain.SourceTypeArXiv)
	assert.Equal(t, "Paper A", cached[0].Title, "callers must get a copy")
}

func TestAdapter_MissFetchesAndWritesThrough(t *testing.T) {
	long := strings.Repeat("é", 400)
	src := newMockPaperSource(domain.SourceTypeCrossRef, "CrossRef", true)
	src.searchFunc = func(ctx context.Context, params SearchParams) (*SearchResult, error) {
		assert.Equal(t, "protein folding", params.Query)
		assert.Equal(t, 3, params.MaxResults)
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)

		papers := papersN(4)
		papers[0].Abstract = long
		papers[1].Source = domain.SourceTypeResearchGate
		return &SearchResult{Papers: papers, Skipped: []string{"item 9: bad"}}, nil
	}
	c := newMapCache()

	a := NewAdapter(src, c, AdapterConfig{Metrics: observability.NewMetrics("adapter_test_miss")}, zerolog.Nop())
	papers := a.FetchPapers(context.Background(), "protein folding", 3)

	require.Len(t, papers, 3)
	assert.Equal(t, 300, len([]rune(papers[0].Abstract)))
	assert.Equal(t, domain.SourceTypeCrossRef, papers[0].Source)
	assert.Equal(t, domain.SourceTypeResearchGate, papers[1].Source, "existing attribution is kept")

	cached, ok := c.Get(context.Background(), "protein folding", domain.SourceTypeCrossRef)
	require.True(t, ok)
	assert.Equal(t, papers, cached)

	// second call is served from cache
	again := a.FetchPapers(context.Background(), "protein folding", 3)
	assert.Equal(t, papers, again)
	assert.Equal(t, 1, src.SearchCallCount())
}

func TestAdapter_FailureIsEmptyAndNotCached(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "transport error", err: errors.New("connection refused")},
		{name: "rate limited", err: domain.NewRateLimitError("PubMed", time.Second)},
		{name: "bad status", err: domain.NewExternalAPIError("PubMed", 500, "boom", nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newMockPaperSource(domain.SourceTypePubMed, "PubMed", true)
			src.searchFunc = func(context.Context, SearchParams) (*SearchResult, error) {
				return nil, tt.err
			}
			c := newMapCache()

			papers := NewAdapter(src, c, AdapterConfig{}, zerolog.Nop()).FetchPapers(context.Background(), "q", 10)

			require.NotNil(t, papers)
			assert.Empty(t, papers)
			assert.Equal(t, 0, c.puts)
		})
	}
}

func TestAdapter_Timeout(t *testing.T) {
	src := newMockPaperSource(domain.SourceTypeDOAJ, "DOAJ", true)
	src.searchFunc = func(ctx context.Context, _ SearchParams) (*SearchResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	c := newMapCache()

	start := time.Now()
	papers := NewAdapter(src, c, AdapterConfig{Timeout: 30 * time.Millisecond}, zerolog.Nop()).
		FetchPapers(context.Background(), "q", 10)

	assert.Empty(t, papers)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 0, c.puts)
}

func TestAdapter_NilCache(t *testing.T) {
	src := newMockPaperSource(domain.SourceTypeArXiv, "arXiv", true)
	src.searchFunc = func(context.Context, SearchParams) (*SearchResult, error) {
		return &SearchResult{Papers: papersN(2)}, nil
	}
	a := NewAdapter(src, nil, AdapterConfig{}, zerolog.Nop())

	assert.Len(t, a.FetchPapers(context.Background(), "q", 10), 2)
	assert.Len(t, a.FetchPapers(context.Background(), "q", 10), 2)
	assert.Equal(t, 2, src.SearchCallCount())
}

func TestAdapter_DefaultMaxResults(t *testing.T) {
	src := newMockPaperSource(domain.SourceTypeArXiv, "arXiv", true)
	src.searchFunc = func(_ context.Context, params SearchParams) (*SearchResult, error) {
		assert.Equal(t, DefaultMaxResults, params.MaxResults)
		return &SearchResult{}, nil
	}
	papers := NewAdapter(src, nil, AdapterConfig{}, zerolog.Nop()).FetchPapers(context.Background(), "q", 0)
	assert.NotNil(t, papers)
}

func TestAdapter_CollapsesConcurrentIdenticalQueries(t *testing.T) {
	release := make(chan struct{})
	src := newMockPaperSource(domain.SourceTypeSemanticScholar, "Semantic Scholar", true)
	src.searchFunc = func(context.Context, SearchParams) (*SearchResult, error) {
		<-release
		return &SearchResult{Papers: papersN(3)}, nil
	}
	a := NewAdapter(src, newMapCache(), AdapterConfig{}, zerolog.Nop())

	const callers = 5
	results := make([][]domain.Paper, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = a.FetchPapers(context.Background(), "Graph Theory", 10)
		}(i)
	}

	require.Eventually(t, func() bool { return src.SearchCallCount() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, src.SearchCallCount())
	for _, r := range results {
		assert.Len(t, r, 3)
	}

	results[0][0].Title = "mutated"
	assert.Equal(t, "Paper A", results[1][0].Title, "joiners must not share a backing array")
}

func TestAdapter_SourceType(t *testing.T) {
	a := NewAdapter(newMockPaperSource(domain.SourceTypePubMed, "PubMed", true), nil, AdapterConfig{}, zerolog.Nop())
	assert.Equal(t, domain.SourceTypePubMed, a.SourceType())
}

func TestFlightKey(t *testing.T) {
	assert.Equal(t, flightKey("", "Graph", 10), flightKey("", "graph", 10))
	assert.NotEqual(t, flightKey("", "graph", 10), flightKey("", "graph", 5))
	assert.NotEqual(t, flightKey("a", "graph", 10), flightKey("b", "graph", 10))
}
