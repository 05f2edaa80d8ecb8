package papersources

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/observability"
)

// DefaultFetchTimeout bounds a single provider call made by an Adapter.
const DefaultFetchTimeout = 10 * time.Second

// Cache is the per-source result cache consulted by an Adapter.
type Cache interface {
	Get(ctx context.Context, query string, source domain.SourceType) ([]domain.Paper, bool)
	Put(ctx context.Context, query string, source domain.SourceType, papers []domain.Paper)
}

// Fetcher returns papers for a query from one source and never fails.
type Fetcher interface {
	// FetchPapers returns at most maxResults papers. Any failure yields an
	// empty slice.
	FetchPapers(ctx context.Context, query string, maxResults int) []domain.Paper

	// SourceType returns the source this fetcher serves.
	SourceType() domain.SourceType
}

// AdapterConfig configures an Adapter.
type AdapterConfig struct {
	// Timeout bounds each provider call. Defaults to DefaultFetchTimeout.
	Timeout time.Duration
	// Metrics records fetch outcomes. May be nil.
	Metrics *observability.Metrics
}

// Adapter turns a PaperSource into a Fetcher: it serves fresh cache entries,
// collapses identical concurrent queries into one provider call, applies the
// per-call timeout and writes successful results through to the cache.
type Adapter struct {
	source  PaperSource
	cache   Cache
	timeout time.Duration
	metrics *observability.Metrics
	logger  zerolog.Logger
	group   singleflight.Group
}

var _ Fetcher = (*Adapter)(nil)

// NewAdapter wraps source. cache may be nil, in which case every call goes
// to the provider.
func NewAdapter(source PaperSource, cache Cache, cfg AdapterConfig, logger zerolog.Logger) *Adapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	return &Adapter{
		source:  source,
		cache:   cache,
		timeout: cfg.Timeout,
		metrics: cfg.Metrics,
		logger:  logger.With().Str("source", string(source.SourceType())).Logger(),
	}
}

// SourceType returns the wrapped source's type.
func (a *Adapter) SourceType() domain.SourceType {
	return a.source.SourceType()
}

// FetchPapers implements Fetcher.
//
// Callers that join an in-flight call share its result. That call runs under
// the first caller's context, so cancelling it ends the call for everyone.
func (a *Adapter) FetchPapers(ctx context.Context, query string, maxResults int) []domain.Paper {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	start := time.Now()
	label := a.source.SourceType().Slug()
	logger := observability.FromContext(ctx, a.logger).With().Str("query", query).Logger()

	if a.cache != nil {
		if cached, ok := a.cache.Get(ctx, query, a.source.SourceType()); ok {
			papers := capPapers(cached, maxResults)
			a.metrics.RecordSourceFetch(label, observability.OutcomeCacheHit, time.Since(start).Seconds(), len(papers))
			logger.Debug().Int("papers", len(papers)).Msg("served from cache")
			return papers
		}
	}

	key := flightKey(observability.SessionIDFromContext(ctx), query, maxResults)
	v, err, shared := a.group.Do(key, func() (interface{}, error) {
		return a.fetch(ctx, logger, query, maxResults)
	})

	elapsed := time.Since(start)
	if err != nil {
		outcome := classify(err)
		if errors.Is(err, domain.ErrRateLimited) {
			a.metrics.RecordSourceRateLimited(label)
		}
		a.metrics.RecordSourceFetch(label, outcome, elapsed.Seconds(), 0)
		logger.Warn().
			Err(err).
			Str("outcome", outcome).
			Dur("duration", elapsed).
			Bool("shared", shared).
			Msg("source fetch failed")
		return []domain.Paper{}
	}

	papers := capPapers(v.([]domain.Paper), maxResults)
	a.metrics.RecordSourceFetch(label, observability.OutcomeSuccess, elapsed.Seconds(), len(papers))
	logger.Debug().
		Int("papers", len(papers)).
		Dur("duration", elapsed).
		Bool("shared", shared).
		Msg("source fetch completed")
	return papers
}

// fetch performs one provider call and caches the normalized result.
func (a *Adapter) fetch(ctx context.Context, logger zerolog.Logger, query string, maxResults int) ([]domain.Paper, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	result, err := a.source.Search(callCtx, SearchParams{Query: query, MaxResults: maxResults})
	if err != nil {
		return nil, err
	}

	if n := len(result.Skipped); n > 0 {
		a.metrics.RecordEntriesSkipped(a.source.SourceType().Slug(), n)
		logger.Debug().Strs("reasons", result.Skipped).Msg("skipped malformed entries")
	}

	papers := a.normalize(capPapers(result.Papers, maxResults))
	if a.cache != nil {
		a.cache.Put(ctx, query, a.source.SourceType(), papers)
	}
	return papers, nil
}

// normalize enforces the abstract length bound and the source attribution.
func (a *Adapter) normalize(papers []domain.Paper) []domain.Paper {
	for i := range papers {
		papers[i].Abstract = Truncate(papers[i].Abstract, domain.MaxAbstractRune)
		if papers[i].Source == "" {
			papers[i].Source = a.source.SourceType()
		}
	}
	return papers
}

// capPapers returns a copy of at most n papers.
func capPapers(papers []domain.Paper, n int) []domain.Paper {
	if len(papers) > n {
		papers = papers[:n]
	}
	out := make([]domain.Paper, len(papers))
	copy(out, papers)
	return out
}

func flightKey(session, query string, maxResults int) string {
	return session + "|" + strings.ToLower(query) + "|" + strconv.Itoa(maxResults)
}

func classify(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return observability.OutcomeTimeout
	case errors.Is(err, context.Canceled):
		return observability.OutcomeCanceled
	default:
		return observability.OutcomeFailure
	}
}
