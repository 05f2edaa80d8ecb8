package llm

import (
	"context"
	"errors"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

// Texts returned by FallbackAssistant.ResearchInsights instead of an error.
const (
	InsightsUnavailable = "Unable to generate insights at this time"
	InsightsFailed      = "Error generating insights"
)

// FallbackAssistant never returns errors: failures become an empty
// suggestion list, a nil analysis, or one of the fixed insight texts.
type FallbackAssistant struct {
	assistant *Assistant
}

// NewFallbackAssistant wraps assistant.
func NewFallbackAssistant(assistant *Assistant) *FallbackAssistant {
	return &FallbackAssistant{assistant: assistant}
}

// SearchSuggestions returns the suggestions, or an empty slice on failure.
func (f *FallbackAssistant) SearchSuggestions(ctx context.Context, query string) []SearchSuggestion {
	suggestions, err := f.assistant.SearchSuggestions(ctx, query)
	if err != nil {
		return []SearchSuggestion{}
	}
	return suggestions
}

// AnalyzePaper returns the analysis, or nil on failure.
func (f *FallbackAssistant) AnalyzePaper(ctx context.Context, title, abstract string) *PaperAnalysis {
	analysis, err := f.assistant.AnalyzePaper(ctx, title, abstract)
	if err != nil {
		return nil
	}
	return analysis
}

// ResearchInsights returns the insight text. An empty reply yields
// InsightsUnavailable and any other failure yields InsightsFailed.
func (f *FallbackAssistant) ResearchInsights(ctx context.Context, papers []domain.Paper) string {
	text, err := f.assistant.ResearchInsights(ctx, papers)
	switch {
	case errors.Is(err, ErrEmptyResponse):
		return InsightsUnavailable
	case err != nil:
		return InsightsFailed
	default:
		return text
	}
}
