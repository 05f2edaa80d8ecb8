package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/observability"
)

// Operation names used in logs and metrics.
const (
	OperationSuggestions = "search_suggestions"
	OperationAnalyze     = "analyze_paper"
	OperationInsights    = "research_insights"
	OperationStream      = "stream_insights"
)

// Assistant runs the research prompts against a Completer. Errors are
// returned as-is so callers can map them; see FallbackAssistant for the
// soft-failure variant.
type Assistant struct {
	completer Completer
	parser    *parser
	metrics   *observability.Metrics
	logger    zerolog.Logger
}

// NewAssistant creates an Assistant. metrics may be nil.
func NewAssistant(completer Completer, metrics *observability.Metrics, logger zerolog.Logger) *Assistant {
	return &Assistant{
		completer: completer,
		parser:    newParser(),
		metrics:   metrics,
		logger:    observability.WithLLMContext(logger, completer.Provider(), completer.Model()),
	}
}

// Configured reports whether the provider has the credentials it needs.
func (a *Assistant) Configured() bool {
	return IsConfigured(a.completer)
}

// Provider returns the underlying provider name.
func (a *Assistant) Provider() string {
	return a.completer.Provider()
}

// Model returns the underlying model identifier.
func (a *Assistant) Model() string {
	return a.completer.Model()
}

// SearchSuggestions proposes refined searches for query.
func (a *Assistant) SearchSuggestions(ctx context.Context, query string) ([]SearchSuggestion, error) {
	text, err := a.complete(ctx, OperationSuggestions, BuildSuggestionsPrompt(query))
	if err != nil {
		return nil, err
	}
	suggestions, err := a.parser.suggestions(text)
	if err != nil {
		a.failed(ctx, OperationSuggestions, err)
		return nil, err
	}
	return suggestions, nil
}

// AnalyzePaper summarizes one paper and scores its relevance.
func (a *Assistant) AnalyzePaper(ctx context.Context, title, abstract string) (*PaperAnalysis, error) {
	text, err := a.complete(ctx, OperationAnalyze, BuildAnalysisPrompt(title, abstract))
	if err != nil {
		return nil, err
	}
	analysis, err := a.parser.analysis(text)
	if err != nil {
		a.failed(ctx, OperationAnalyze, err)
		return nil, err
	}
	return analysis, nil
}

// ResearchInsights returns free-text insights across papers.
func (a *Assistant) ResearchInsights(ctx context.Context, papers []domain.Paper) (string, error) {
	return a.complete(ctx, OperationInsights, BuildInsightsPrompt(papers))
}

// StreamInsights is the streaming form of ResearchInsights.
func (a *Assistant) StreamInsights(ctx context.Context, papers []domain.Paper, onChunk func(chunk string) error) error {
	start := time.Now()
	received := false
	err := a.completer.Stream(ctx, BuildInsightsPrompt(papers), func(chunk string) error {
		if chunk == "" {
			return nil
		}
		received = true
		return onChunk(chunk)
	})
	if err == nil && !received {
		err = ErrEmptyResponse
	}
	if err != nil {
		a.failed(ctx, OperationStream, err)
		return fmt.Errorf("%s: %w", OperationStream, err)
	}
	a.metrics.RecordLLMRequest(OperationStream, a.completer.Model(), time.Since(start).Seconds())
	return nil
}

func (a *Assistant) complete(ctx context.Context, operation, prompt string) (string, error) {
	start := time.Now()
	text, err := a.completer.Complete(ctx, prompt)
	if err == nil && isBlank(text) {
		err = ErrEmptyResponse
	}
	if err != nil {
		a.failed(ctx, operation, err)
		return "", fmt.Errorf("%s: %w", operation, err)
	}

	elapsed := time.Since(start)
	a.metrics.RecordLLMRequest(operation, a.completer.Model(), elapsed.Seconds())
	logger := observability.FromContext(ctx, a.logger)
	logger.Debug().
		Str("operation", operation).
		Dur("duration", elapsed).
		Int("chars", len(text)).
		Msg("llm request completed")
	return text, nil
}

func (a *Assistant) failed(ctx context.Context, operation string, err error) {
	kind := errorType(err)
	a.metrics.RecordLLMRequestFailed(operation, a.completer.Model(), kind)
	logger := observability.FromContext(ctx, a.logger)
	logger.Warn().
		Err(err).
		Str("operation", operation).
		Str("error_type", kind).
		Msg("llm request failed")
}
