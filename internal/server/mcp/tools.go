package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/helixir/paper-discovery-service/internal/aggregator"
	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/llm"
)

// SearchPapersInput is the input schema for the search_papers tool.
type SearchPapersInput struct {
	Query            string   `json:"query" jsonschema:"the research topic to search for"`
	Sources          []string `json:"sources,omitempty" jsonschema:"source names such as arXiv or PubMed; all enabled sources when empty"`
	ResultsPerSource int      `json:"resultsPerSource,omitempty" jsonschema:"maximum papers per source (default 10)"`
}

// SearchPapersOutput is the output schema for the search_papers tool.
type SearchPapersOutput struct {
	Sources []domain.SourceSummary `json:"sources"`
	Papers  []domain.Paper         `json:"papers"`
	Count   int                    `json:"count"`
}

// SuggestSearchesInput is the input schema for the suggest_searches tool.
type SuggestSearchesInput struct {
	Query string `json:"query" jsonschema:"the search query to refine"`
}

// SuggestSearchesOutput is the output schema for the suggest_searches tool.
type SuggestSearchesOutput struct {
	Suggestions []llm.SearchSuggestion `json:"suggestions"`
}

// AnalyzePaperInput is the input schema for the analyze_paper tool.
type AnalyzePaperInput struct {
	Title    string `json:"title" jsonschema:"the paper title"`
	Abstract string `json:"abstract,omitempty" jsonschema:"the paper abstract"`
}

// ResearchInsightsInput is the input schema for the research_insights tool.
type ResearchInsightsInput struct {
	Papers []domain.Paper `json:"papers,omitempty" jsonschema:"papers to analyze; at most 10 are used"`
	Query  string         `json:"query,omitempty" jsonschema:"searched first when papers is empty"`
}

// ResearchInsightsOutput is the output schema for the research_insights tool.
type ResearchInsightsOutput struct {
	Insights   string `json:"insights"`
	PaperCount int    `json:"paperCount"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_papers",
		Description: "Search academic sources in parallel and return deduplicated papers",
	}, s.handleSearchPapers)

	if s.assistant == nil {
		return
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "suggest_searches",
		Description: "Propose refined searches for a research query",
	}, s.handleSuggestSearches)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_paper",
		Description: "Summarize a paper and score its relevance",
	}, s.handleAnalyzePaper)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "research_insights",
		Description: "Describe themes, directions and gaps across a set of papers",
	}, s.handleResearchInsights)
}

func (s *Server) handleSearchPapers(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchPapersInput,
) (*mcp.CallToolResult, SearchPapersOutput, error) {
	outcome, err := s.search.Search(ctx, aggregator.Request{
		Query:            input.Query,
		Sources:          input.Sources,
		ResultsPerSource: input.ResultsPerSource,
	})
	if err != nil {
		return nil, SearchPapersOutput{}, err
	}

	return nil, SearchPapersOutput{
		Sources: outcome.Summaries(),
		Papers:  outcome.Papers,
		Count:   len(outcome.Papers),
	}, nil
}

func (s *Server) handleSuggestSearches(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SuggestSearchesInput,
) (*mcp.CallToolResult, SuggestSearchesOutput, error) {
	if input.Query == "" {
		return nil, SuggestSearchesOutput{}, domain.NewValidationError("query", "is required")
	}
	suggestions, err := s.assistant.SearchSuggestions(ctx, input.Query)
	if err != nil {
		return nil, SuggestSearchesOutput{}, err
	}
	return nil, SuggestSearchesOutput{Suggestions: suggestions}, nil
}

func (s *Server) handleAnalyzePaper(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzePaperInput,
) (*mcp.CallToolResult, llm.PaperAnalysis, error) {
	if input.Title == "" {
		return nil, llm.PaperAnalysis{}, domain.NewValidationError("title", "is required")
	}
	analysis, err := s.assistant.AnalyzePaper(ctx, input.Title, input.Abstract)
	if err != nil {
		return nil, llm.PaperAnalysis{}, err
	}
	return nil, *analysis, nil
}

func (s *Server) handleResearchInsights(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ResearchInsightsInput,
) (*mcp.CallToolResult, ResearchInsightsOutput, error) {
	papers := input.Papers
	if len(papers) == 0 {
		if input.Query == "" {
			return nil, ResearchInsightsOutput{}, domain.NewValidationError("papers", "papers or query is required")
		}
		outcome, err := s.search.Search(ctx, aggregator.Request{Query: input.Query})
		if err != nil {
			return nil, ResearchInsightsOutput{}, fmt.Errorf("searching %q: %w", input.Query, err)
		}
		papers = outcome.Papers
	}

	insights, err := s.assistant.ResearchInsights(ctx, papers)
	if err != nil {
		return nil, ResearchInsightsOutput{}, err
	}
	return nil, ResearchInsightsOutput{
		Insights:   insights,
		PaperCount: min(len(papers), llm.MaxInsightPapers),
	}, nil
}
