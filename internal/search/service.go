// Package search runs an aggregated paper search and its side effects:
// history, the search.completed event and metrics.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/paper-discovery-service/internal/aggregator"
	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/events"
	"github.com/helixir/paper-discovery-service/internal/history"
	"github.com/helixir/paper-discovery-service/internal/observability"
)

// Request bounds.
const (
	DefaultResultsPerSource = 10
	MaxResultsPerSource     = 100
)

// Aggregator is the subset of *aggregator.Aggregator used by Service.
type Aggregator interface {
	Aggregate(ctx context.Context, req aggregator.Request) *aggregator.Outcome
	Sources() []domain.SourceType
}

// Config configures a Service.
type Config struct {
	// DefaultResultsPerSource applies when a request leaves it at zero.
	DefaultResultsPerSource int
	// MaxResultsPerSource is the largest accepted value.
	MaxResultsPerSource int
	// Metrics records searches. May be nil.
	Metrics *observability.Metrics
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Service validates search requests and runs them.
type Service struct {
	aggregator Aggregator
	history    history.Store
	publisher  events.Publisher
	emitter    *events.Emitter
	cfg        Config
	logger     zerolog.Logger
}

// NewService creates a Service. store and publisher may be nil, which
// disables history and events respectively.
func NewService(agg Aggregator, store history.Store, publisher events.Publisher, emitter *events.Emitter, cfg Config, logger zerolog.Logger) *Service {
	if cfg.DefaultResultsPerSource <= 0 {
		cfg.DefaultResultsPerSource = DefaultResultsPerSource
	}
	if cfg.MaxResultsPerSource <= 0 {
		cfg.MaxResultsPerSource = MaxResultsPerSource
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if emitter == nil {
		emitter = events.NewEmitter(events.EmitterConfig{})
	}
	return &Service{
		aggregator: agg,
		history:    store,
		publisher:  publisher,
		emitter:    emitter,
		cfg:        cfg,
		logger:     logger.With().Str("component", "search_service").Logger(),
	}
}

// Sources returns the sources a request may name.
func (s *Service) Sources() []domain.SourceType {
	return s.aggregator.Sources()
}

// Normalize validates req and fills its defaults. An empty source list
// means every registered source.
func (s *Service) Normalize(req aggregator.Request) (aggregator.Request, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return req, domain.NewValidationError("query", "is required")
	}

	switch {
	case req.ResultsPerSource == 0:
		req.ResultsPerSource = s.cfg.DefaultResultsPerSource
	case req.ResultsPerSource < 0 || req.ResultsPerSource > s.cfg.MaxResultsPerSource:
		return req, domain.NewValidationError("resultsPerSource",
			fmt.Sprintf("must be between 1 and %d", s.cfg.MaxResultsPerSource))
	}

	if len(req.Sources) == 0 {
		for _, st := range s.aggregator.Sources() {
			req.Sources = append(req.Sources, string(st))
		}
	}
	return req, nil
}

// Search aggregates req. Only validation fails the call: history and event
// failures are logged.
func (s *Service) Search(ctx context.Context, req aggregator.Request) (*aggregator.Outcome, error) {
	req, err := s.Normalize(req)
	if err != nil {
		return nil, err
	}

	logger := observability.FromContext(ctx, s.logger).With().Str("query", req.Query).Logger()
	start := s.cfg.Now()

	outcome := s.aggregator.Aggregate(ctx, req)

	raw := 0
	for _, r := range outcome.Results {
		raw += r.Count
	}
	s.cfg.Metrics.RecordSearch(s.cfg.Now().Sub(start).Seconds(), len(outcome.Papers), raw-len(outcome.Papers))

	// Side effects outlive a client that disconnects after the response.
	detached := context.WithoutCancel(ctx)
	s.record(detached, logger, req, outcome)
	s.publish(detached, logger, req, outcome)

	return outcome, nil
}

func (s *Service) record(ctx context.Context, logger zerolog.Logger, req aggregator.Request, outcome *aggregator.Outcome) {
	if s.history == nil {
		return
	}
	entry := domain.NewHistoryEntry(req.Query, outcome.SourceNames(), outcome.Papers, s.cfg.Now().UTC())
	if err := s.history.Add(ctx, entry); err != nil {
		logger.Warn().Err(err).Msg("failed to record search history")
	}
}

func (s *Service) publish(ctx context.Context, logger zerolog.Logger, req aggregator.Request, outcome *aggregator.Outcome) {
	event, err := s.emitter.SearchCompleted(observability.SessionIDFromContext(ctx), domain.SearchCompletedPayload{
		Query:      req.Query,
		Sources:    outcome.SourceNames(),
		PaperCount: len(outcome.Papers),
		PerSource:  outcome.Summaries(),
		OccurredAt: s.cfg.Now().UTC(),
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to build search event")
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Warn().Err(err).Str("event_id", event.EventID).Msg("failed to publish search event")
	}
}

// History returns the session's history, or an empty list when history is
// disabled.
func (s *Service) History(ctx context.Context) ([]domain.HistoryEntry, error) {
	if s.history == nil {
		return []domain.HistoryEntry{}, nil
	}
	return s.history.List(ctx)
}

// ClearHistory removes the session's history.
func (s *Service) ClearHistory(ctx context.Context) error {
	if s.history == nil {
		return nil
	}
	return s.history.Clear(ctx)
}

// HistoryEnabled reports whether searches are recorded.
func (s *Service) HistoryEnabled() bool {
	return s.history != nil
}
