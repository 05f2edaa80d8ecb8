// Package mcpserver exposes paper search and the research assistant as
// Model Context Protocol tools.
package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/helixir/paper-discovery-service/internal/aggregator"
	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/llm"
)

// Version is the MCP server version.
const Version = "0.1.0"

// ErrMissingSearchService is returned when no search service is provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// SearchService runs aggregated searches.
type SearchService interface {
	Search(ctx context.Context, req aggregator.Request) (*aggregator.Outcome, error)
}

// Assistant provides the LLM-backed tools.
type Assistant interface {
	SearchSuggestions(ctx context.Context, query string) ([]llm.SearchSuggestion, error)
	AnalyzePaper(ctx context.Context, title, abstract string) (*llm.PaperAnalysis, error)
	ResearchInsights(ctx context.Context, papers []domain.Paper) (string, error)
}

// Server is the MCP server.
type Server struct {
	search    SearchService
	assistant Assistant
	server    *mcp.Server
	logger    zerolog.Logger
}

// NewServer creates an MCP server. assistant may be nil, in which case the
// LLM tools are not registered.
func NewServer(search SearchService, assistant Assistant, logger zerolog.Logger) (*Server, error) {
	if search == nil {
		return nil, ErrMissingSearchService
	}

	s := &Server{
		search:    search,
		assistant: assistant,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "paper-discovery",
			Version: Version,
		}, nil),
		logger: logger.With().Str("component", "mcp-server").Logger(),
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info().Msg("MCP server starting on stdio")
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
