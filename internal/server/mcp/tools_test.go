package mcpserver

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/paper-discovery-service/internal/aggregator"
	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/llm"
)

type mockSearchService struct {
	outcome *aggregator.Outcome
	err     error
	lastReq aggregator.Request
}

func (m *mockSearchService) Search(_ context.Context, req aggregator.Request) (*aggregator.Outcome, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	if m.outcome != nil {
		return m.outcome, nil
	}
	return &aggregator.Outcome{Results: []aggregator.SourceOutcome{}, Papers: []domain.Paper{}}, nil
}

type mockAssistant struct {
	suggestions []llm.SearchSuggestion
	analysis    *llm.PaperAnalysis
	insights    string
	err         error
	gotPapers   []domain.Paper
}

func (m *mockAssistant) SearchSuggestions(context.Context, string) ([]llm.SearchSuggestion, error) {
	return m.suggestions, m.err
}

func (m *mockAssistant) AnalyzePaper(context.Context, string, string) (*llm.PaperAnalysis, error) {
	return m.analysis, m.err
}

func (m *mockAssistant) ResearchInsights(_ context.Context, papers []domain.Paper) (string, error) {
	m.gotPapers = papers
	return m.insights, m.err
}

func papers(titles ...string) []domain.Paper {
	out := make([]domain.Paper, len(titles))
	for i, title := range titles {
		out[i] = domain.Paper{Title: title, Source: domain.SourceTypeArXiv}
	}
	return out
}

func TestNewServer(t *testing.T) {
	server, err := NewServer(nil, nil, zerolog.Nop())
	assert.Nil(t, server)
	assert.ErrorIs(t, err, ErrMissingSearchService)

	server, err = NewServer(&mockSearchService{}, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, server)
}

func TestHandleSearchPapers(t *testing.T) {
	ctx := context.Background()

	t.Run("returns merged papers and summaries", func(t *testing.T) {
		search := &mockSearchService{outcome: &aggregator.Outcome{
			Results: []aggregator.SourceOutcome{
				{Source: domain.SourceTypeArXiv, Papers: papers("A"), Count: 1},
				{Source: domain.SourceTypePubMed, Papers: []domain.Paper{}, Error: aggregator.ErrorTimeout},
			},
			Papers: papers("A"),
		}}
		server, err := NewServer(search, nil, zerolog.Nop())
		require.NoError(t, err)

		_, out, err := server.handleSearchPapers(ctx, nil, SearchPapersInput{Query: "q", Sources: []string{"arXiv", "PubMed"}, ResultsPerSource: 3})

		require.NoError(t, err)
		assert.Equal(t, aggregator.Request{Query: "q", Sources: []string{"arXiv", "PubMed"}, ResultsPerSource: 3}, search.lastReq)
		assert.Equal(t, 1, out.Count)
		require.Len(t, out.Sources, 2)
		assert.Equal(t, "Timeout", out.Sources[1].Error)
	})

	t.Run("propagates validation errors", func(t *testing.T) {
		search := &mockSearchService{err: domain.NewValidationError("query", "is required")}
		server, err := NewServer(search, nil, zerolog.Nop())
		require.NoError(t, err)

		_, _, err = server.handleSearchPapers(ctx, nil, SearchPapersInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestAssistantTools(t *testing.T) {
	ctx := context.Background()

	t.Run("suggest_searches", func(t *testing.T) {
		assistant := &mockAssistant{suggestions: []llm.SearchSuggestion{{Suggestion: "s", Reasoning: "r"}}}
		server, err := NewServer(&mockSearchService{}, assistant, zerolog.Nop())
		require.NoError(t, err)

		_, out, err := server.handleSuggestSearches(ctx, nil, SuggestSearchesInput{Query: "q"})
		require.NoError(t, err)
		assert.Len(t, out.Suggestions, 1)

		_, _, err = server.handleSuggestSearches(ctx, nil, SuggestSearchesInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("analyze_paper surfaces assistant errors", func(t *testing.T) {
		assistant := &mockAssistant{err: llm.ErrNotConfigured}
		server, err := NewServer(&mockSearchService{}, assistant, zerolog.Nop())
		require.NoError(t, err)

		_, _, err = server.handleAnalyzePaper(ctx, nil, AnalyzePaperInput{Title: "T"})
		assert.ErrorIs(t, err, llm.ErrNotConfigured)
	})

	t.Run("analyze_paper", func(t *testing.T) {
		assistant := &mockAssistant{analysis: &llm.PaperAnalysis{Summary: "s", KeyPoints: []string{"k"}, RelevanceScore: 70, SuggestedRelatedSearch: "r"}}
		server, err := NewServer(&mockSearchService{}, assistant, zerolog.Nop())
		require.NoError(t, err)

		_, out, err := server.handleAnalyzePaper(ctx, nil, AnalyzePaperInput{Title: "T", Abstract: "A"})
		require.NoError(t, err)
		assert.Equal(t, 70, out.RelevanceScore)
	})

	t.Run("research_insights with papers", func(t *testing.T) {
		assistant := &mockAssistant{insights: "themes"}
		search := &mockSearchService{}
		server, err := NewServer(search, assistant, zerolog.Nop())
		require.NoError(t, err)

		_, out, err := server.handleResearchInsights(ctx, nil, ResearchInsightsInput{Papers: papers("A", "B")})
		require.NoError(t, err)
		assert.Equal(t, ResearchInsightsOutput{Insights: "themes", PaperCount: 2}, out)
		assert.Empty(t, search.lastReq.Query)
	})

	t.Run("research_insights searches when given a query", func(t *testing.T) {
		assistant := &mockAssistant{insights: "themes"}
		many := papers("1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12")
		search := &mockSearchService{outcome: &aggregator.Outcome{Papers: many}}
		server, err := NewServer(search, assistant, zerolog.Nop())
		require.NoError(t, err)

		_, out, err := server.handleResearchInsights(ctx, nil, ResearchInsightsInput{Query: "graphs"})
		require.NoError(t, err)
		assert.Equal(t, "graphs", search.lastReq.Query)
		assert.Equal(t, many, assistant.gotPapers)
		assert.Equal(t, llm.MaxInsightPapers, out.PaperCount)
	})

	t.Run("research_insights needs input", func(t *testing.T) {
		server, err := NewServer(&mockSearchService{}, &mockAssistant{}, zerolog.Nop())
		require.NoError(t, err)

		_, _, err = server.handleResearchInsights(ctx, nil, ResearchInsightsInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("search error is wrapped", func(t *testing.T) {
		server, err := NewServer(&mockSearchService{err: errors.New("boom")}, &mockAssistant{}, zerolog.Nop())
		require.NoError(t, err)

		_, _, err = server.handleResearchInsights(ctx, nil, ResearchInsightsInput{Query: "q"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})
}
