// Package aggregator fans one query out to several paper sources, bounds
// each source with its own timer and merges what comes back.
package aggregator

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/paper-discovery-service/internal/dedup"
	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/observability"
	"github.com/helixir/paper-discovery-service/internal/papersources"
)

// DefaultTimeout bounds each source, cache lookup included.
const DefaultTimeout = 12 * time.Second

// Error labels reported in SourceOutcome.Error.
const (
	ErrorTimeout  = "Timeout"
	ErrorCanceled = "Canceled"
)

// Request is one aggregated search.
type Request struct {
	Query            string   `json:"query"`
	Sources          []string `json:"sources"`
	ResultsPerSource int      `json:"resultsPerSource"`
}

// SourceOutcome is what one source contributed to an aggregation.
type SourceOutcome struct {
	Source domain.SourceType `json:"source"`
	Papers []domain.Paper    `json:"papers"`
	Count  int               `json:"count"`
	Error  string            `json:"error,omitempty"`
}

// Outcome holds the per-source results in request order and the merged
// paper list.
type Outcome struct {
	Results []SourceOutcome `json:"results"`
	Papers  []domain.Paper  `json:"allPapers"`
}

// Summaries returns the per-source counts and errors without the papers.
func (o *Outcome) Summaries() []domain.SourceSummary {
	out := make([]domain.SourceSummary, len(o.Results))
	for i, r := range o.Results {
		out[i] = domain.SourceSummary{Source: r.Source, Count: r.Count, Error: r.Error}
	}
	return out
}

// SourceNames returns the sources that took part, in request order.
func (o *Outcome) SourceNames() []string {
	out := make([]string, len(o.Results))
	for i, r := range o.Results {
		out[i] = string(r.Source)
	}
	return out
}

// Config configures an Aggregator.
type Config struct {
	// Timeout bounds each source. Defaults to DefaultTimeout.
	Timeout time.Duration

	// CancelOnTimeout cancels a source call that lost its race. When false
	// the call keeps running detached from the request and may still fill
	// the cache.
	CancelOnTimeout bool

	// Metrics records per-source outcomes. May be nil.
	Metrics *observability.Metrics
}

// Aggregator runs searches across the registered fetchers.
type Aggregator struct {
	fetchers        map[domain.SourceType]papersources.Fetcher
	timeout         time.Duration
	cancelOnTimeout bool
	metrics         *observability.Metrics
	logger          zerolog.Logger
}

// New creates an Aggregator over fetchers. A later fetcher for the same
// source replaces an earlier one.
func New(fetchers []papersources.Fetcher, cfg Config, logger zerolog.Logger) *Aggregator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	byType := make(map[domain.SourceType]papersources.Fetcher, len(fetchers))
	for _, f := range fetchers {
		byType[f.SourceType()] = f
	}

	return &Aggregator{
		fetchers:        byType,
		timeout:         cfg.Timeout,
		cancelOnTimeout: cfg.CancelOnTimeout,
		metrics:         cfg.Metrics,
		logger:          logger.With().Str("component", "aggregator").Logger(),
	}
}

// Has reports whether a fetcher is registered for source.
func (a *Aggregator) Has(source domain.SourceType) bool {
	_, ok := a.fetchers[source]
	return ok
}

// Sources returns the registered sources in display order.
func (a *Aggregator) Sources() []domain.SourceType {
	out := make([]domain.SourceType, 0, len(a.fetchers))
	for _, st := range domain.KnownSources() {
		if a.Has(st) {
			out = append(out, st)
		}
	}
	return out
}

// Aggregate queries every known, registered source named in req and waits
// for each one to finish or time out. It never fails: a source that times
// out or is cancelled contributes an empty result with an error label.
func (a *Aggregator) Aggregate(ctx context.Context, req Request) *Outcome {
	start := time.Now()
	sources := a.resolve(req.Sources)

	type indexed struct {
		i       int
		outcome SourceOutcome
	}
	ch := make(chan indexed, len(sources))
	for i, source := range sources {
		go func(i int, f papersources.Fetcher) {
			ch <- indexed{i: i, outcome: a.run(ctx, f, req.Query, req.ResultsPerSource)}
		}(i, a.fetchers[source])
	}

	results := make([]SourceOutcome, len(sources))
	var all []domain.Paper
	for range sources {
		r := <-ch
		results[r.i] = r.outcome
	}
	for _, r := range results {
		all = append(all, r.Papers...)
	}

	merged := dedup.Merge(all)
	logger := observability.FromContext(ctx, a.logger)
	logger.Info().
		Str("query", req.Query).
		Int("sources", len(sources)).
		Int("papers", len(merged)).
		Int("duplicates", len(all)-len(merged)).
		Dur("duration", time.Since(start)).
		Msg("aggregation completed")

	return &Outcome{Results: results, Papers: merged}
}

// run races one fetcher against the per-source timer and the caller.
func (a *Aggregator) run(ctx context.Context, f papersources.Fetcher, query string, maxResults int) SourceOutcome {
	source := f.SourceType()
	logger := observability.FromContext(ctx, a.logger).With().Str("source", string(source)).Logger()

	callCtx := context.WithoutCancel(ctx)
	if a.cancelOnTimeout {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithCancel(ctx)
		defer cancel()
	}

	done := make(chan []domain.Paper, 1)
	go func() {
		done <- f.FetchPapers(callCtx, query, maxResults)
	}()

	timer := time.NewTimer(a.timeout)
	defer timer.Stop()

	select {
	case papers := <-done:
		a.metrics.RecordSourceOutcome(source.Slug(), observability.OutcomeSuccess)
		return SourceOutcome{Source: source, Papers: papers, Count: len(papers)}
	case <-timer.C:
		a.metrics.RecordSourceOutcome(source.Slug(), observability.OutcomeTimeout)
		logger.Warn().Dur("timeout", a.timeout).Bool("detached", !a.cancelOnTimeout).Msg("source timed out")
		return failed(source, ErrorTimeout)
	case <-ctx.Done():
		a.metrics.RecordSourceOutcome(source.Slug(), observability.OutcomeCanceled)
		logger.Debug().Err(ctx.Err()).Msg("source canceled")
		return failed(source, ErrorCanceled)
	}
}

// resolve drops unknown, unregistered and repeated source names, keeping
// request order.
func (a *Aggregator) resolve(names []string) []domain.SourceType {
	seen := make(map[domain.SourceType]bool, len(names))
	out := make([]domain.SourceType, 0, len(names))
	for _, name := range names {
		st := domain.SourceType(name)
		if !st.IsKnown() || !a.Has(st) || seen[st] {
			continue
		}
		seen[st] = true
		out = append(out, st)
	}
	return out
}

func failed(source domain.SourceType, label string) SourceOutcome {
	return SourceOutcome{Source: source, Papers: []domain.Paper{}, Error: label}
}
