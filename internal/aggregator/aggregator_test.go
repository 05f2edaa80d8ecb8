package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/observability"
	"github.com/helixir/paper-discovery-service/internal/papersources"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockFetcher struct {
	source    domain.SourceType
	fetchFunc func(ctx context.Context, query string, maxResults int) []domain.Paper
	calls     atomic.Int32
}

func (m *mockFetcher) FetchPapers(ctx context.Context, query string, maxResults int) []domain.Paper {
	m.calls.Add(1)
	return m.fetchFunc(ctx, query, maxResults)
}

func (m *mockFetcher) SourceType() domain.SourceType {
	return m.source
}

func returning(source domain.SourceType, titles ...string) *mockFetcher {
	return &mockFetcher{
		source: source,
		fetchFunc: func(context.Context, string, int) []domain.Paper {
			papers := make([]domain.Paper, len(titles))
			for i, title := range titles {
				papers[i] = domain.Paper{Title: title, Source: source}
			}
			return papers
		},
	}
}

func newAggregator(cfg Config, fetchers ...papersources.Fetcher) *Aggregator {
	return New(fetchers, cfg, zerolog.Nop())
}

func TestAggregate_RequestOrderAndMerge(t *testing.T) {
	arxiv := returning(domain.SourceTypeArXiv, "A", "B")
	crossref := returning(domain.SourceTypeCrossRef, "B", "C")
	agg := newAggregator(Config{}, arxiv, crossref)

	out := agg.Aggregate(context.Background(), Request{
		Query:            "graphs",
		Sources:          []string{"CrossRef", "arXiv"},
		ResultsPerSource: 5,
	})

	require.Len(t, out.Results, 2)
	assert.Equal(t, domain.SourceTypeCrossRef, out.Results[0].Source)
	assert.Equal(t, domain.SourceTypeArXiv, out.Results[1].Source)
	assert.Equal(t, 2, out.Results[0].Count)
	assert.Empty(t, out.Results[0].Error)

	titles := make([]string, len(out.Papers))
	for i, p := range out.Papers {
		titles[i] = p.Title
	}
	assert.Equal(t, []string{"B", "C", "A"}, titles)
	// "B" appears in both; the later arXiv record wins.
	assert.Equal(t, domain.SourceTypeArXiv, out.Papers[0].Source)
}

func TestAggregate_PassesQueryAndLimit(t *testing.T) {
	var gotQuery string
	var gotMax int
	f := &mockFetcher{
		source: domain.SourceTypePubMed,
		fetchFunc: func(_ context.Context, q string, n int) []domain.Paper {
			gotQuery, gotMax = q, n
			return []domain.Paper{}
		},
	}
	newAggregator(Config{}, f).Aggregate(context.Background(), Request{
		Query: "crispr", Sources: []string{"PubMed"}, ResultsPerSource: 7,
	})
	assert.Equal(t, "crispr", gotQuery)
	assert.Equal(t, 7, gotMax)
}

func TestAggregate_UnknownAndDuplicateSources(t *testing.T) {
	arxiv := returning(domain.SourceTypeArXiv, "A")
	agg := newAggregator(Config{}, arxiv)

	out := agg.Aggregate(context.Background(), Request{
		Query:   "q",
		Sources: []string{"Bogus", "arXiv", "arxiv", "arXiv", "PubMed"},
	})

	require.Len(t, out.Results, 1)
	assert.Equal(t, domain.SourceTypeArXiv, out.Results[0].Source)
	assert.Equal(t, int32(1), arxiv.calls.Load())
}

func TestAggregate_NoSources(t *testing.T) {
	out := newAggregator(Config{}).Aggregate(context.Background(), Request{Query: "q", Sources: []string{"Nope"}})

	assert.NotNil(t, out.Results)
	assert.Empty(t, out.Results)
	assert.NotNil(t, out.Papers)

	body, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[],"allPapers":[]}`, string(body))
}

func TestAggregate_TimeoutDetached(t *testing.T) {
	release := make(chan struct{})
	finished := make(chan struct{})
	var sawCancel atomic.Bool

	slow := &mockFetcher{
		source: domain.SourceTypeSemanticScholar,
		fetchFunc: func(ctx context.Context, _ string, _ int) []domain.Paper {
			defer close(finished)
			select {
			case <-release:
			case <-ctx.Done():
				sawCancel.Store(true)
			}
			return []domain.Paper{{Title: "late"}}
		},
	}
	fast := returning(domain.SourceTypeArXiv, "A")
	agg := newAggregator(Config{Timeout: 50 * time.Millisecond}, slow, fast)

	out := agg.Aggregate(context.Background(), Request{Query: "q", Sources: []string{"Semantic Scholar", "arXiv"}})

	require.Len(t, out.Results, 2)
	assert.Equal(t, SourceOutcome{
		Source: domain.SourceTypeSemanticScholar,
		Papers: []domain.Paper{},
		Error:  ErrorTimeout,
	}, out.Results[0])
	assert.Equal(t, 1, out.Results[1].Count)
	assert.Len(t, out.Papers, 1)

	close(release)
	<-finished
	assert.False(t, sawCancel.Load(), "detached call must not be cancelled")

	body, err := json.Marshal(out.Results[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"source":"Semantic Scholar","papers":[],"count":0,"error":"Timeout"}`, string(body))
}

func TestAggregate_CancelOnTimeout(t *testing.T) {
	finished := make(chan struct{})
	slow := &mockFetcher{
		source: domain.SourceTypeDOAJ,
		fetchFunc: func(ctx context.Context, _ string, _ int) []domain.Paper {
			defer close(finished)
			<-ctx.Done()
			return []domain.Paper{}
		},
	}
	agg := newAggregator(Config{Timeout: 20 * time.Millisecond, CancelOnTimeout: true}, slow)

	out := agg.Aggregate(context.Background(), Request{Query: "q", Sources: []string{"DOAJ"}})
	require.Len(t, out.Results, 1)
	assert.Equal(t, ErrorTimeout, out.Results[0].Error)

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("losing call was not cancelled")
	}
}

func TestAggregate_CallerCancellation(t *testing.T) {
	release := make(chan struct{})
	finished := make(chan struct{})
	started := make(chan struct{})
	slow := &mockFetcher{
		source: domain.SourceTypePubMed,
		fetchFunc: func(ctx context.Context, _ string, _ int) []domain.Paper {
			defer close(finished)
			close(started)
			<-release
			return []domain.Paper{}
		},
	}
	agg := newAggregator(Config{Timeout: time.Minute}, slow)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	out := agg.Aggregate(ctx, Request{Query: "q", Sources: []string{"PubMed"}})
	require.Len(t, out.Results, 1)
	assert.Equal(t, ErrorCanceled, out.Results[0].Error)
	assert.Empty(t, out.Results[0].Papers)

	close(release)
	<-finished
}

func TestAggregate_ConcurrentSources(t *testing.T) {
	const delay = 100 * time.Millisecond
	sleeper := func(source domain.SourceType) *mockFetcher {
		return &mockFetcher{
			source: source,
			fetchFunc: func(context.Context, string, int) []domain.Paper {
				time.Sleep(delay)
				return []domain.Paper{{Title: string(source)}}
			},
		}
	}
	agg := newAggregator(Config{},
		sleeper(domain.SourceTypeArXiv),
		sleeper(domain.SourceTypePubMed),
		sleeper(domain.SourceTypeDOAJ),
	)

	start := time.Now()
	out := agg.Aggregate(context.Background(), Request{Query: "q", Sources: []string{"arXiv", "PubMed", "DOAJ"}})
	assert.Less(t, time.Since(start), 3*delay)
	assert.Len(t, out.Papers, 3)
}

func TestOutcome_Summaries(t *testing.T) {
	out := &Outcome{Results: []SourceOutcome{
		{Source: domain.SourceTypeArXiv, Count: 3},
		{Source: domain.SourceTypeDOAJ, Error: ErrorTimeout},
	}}
	assert.Equal(t, []domain.SourceSummary{
		{Source: domain.SourceTypeArXiv, Count: 3},
		{Source: domain.SourceTypeDOAJ, Error: ErrorTimeout},
	}, out.Summaries())
	assert.Equal(t, []string{"arXiv", "DOAJ"}, out.SourceNames())
}

func TestNew_Defaults(t *testing.T) {
	agg := newAggregator(Config{}, returning(domain.SourceTypeArXiv))
	assert.Equal(t, DefaultTimeout, agg.timeout)
	assert.True(t, agg.Has(domain.SourceTypeArXiv))
	assert.False(t, agg.Has(domain.SourceTypePubMed))
}

func TestAggregator_Sources(t *testing.T) {
	agg := newAggregator(Config{},
		returning(domain.SourceTypeCrossRef),
		returning(domain.SourceTypeArXiv),
	)
	assert.Equal(t, []domain.SourceType{domain.SourceTypeArXiv, domain.SourceTypeCrossRef}, agg.Sources())
}

func TestAggregate_LogsSummaryWithRequestContext(t *testing.T) {
	var buf bytes.Buffer
	agg := New([]papersources.Fetcher{
		returning(domain.SourceTypeArXiv, "A", "B"),
		returning(domain.SourceTypeCrossRef, "B"),
	}, Config{}, zerolog.New(zerolog.SyncWriter(&buf)))
	ctx := observability.WithRequestID(context.Background(), "req-9")

	agg.Aggregate(ctx, Request{Query: "graphs", Sources: []string{"arXiv", "CrossRef"}, ResultsPerSource: 5})

	var summary map[string]interface{}
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry["message"] == "aggregation completed" {
			summary = entry
		}
	}
	require.NotNil(t, summary)
	assert.Equal(t, "info", summary["level"])
	assert.Equal(t, "req-9", summary["request_id"])
	assert.Equal(t, "graphs", summary["query"])
	assert.EqualValues(t, 2, summary["papers"])
	assert.EqualValues(t, 1, summary["duplicates"])
}
