// Package papersources provides the clients that query academic paper
// providers and the Adapter that turns them into never-failing fetchers.
//
// Each provider (arXiv, Semantic Scholar, PubMed, DOAJ, CrossRef and the
// CrossRef-backed ResearchGate stand-in) lives in its own subpackage and
// implements PaperSource. A PaperSource reports errors; the Adapter wraps it
// with the per-source cache, a network timeout and logging so callers only
// ever see a (possibly empty) slice of papers.
//
// Example usage:
//
//	source := crossref.New(crossref.Config{Enabled: true})
//	adapter := papersources.NewAdapter(source, cache, papersources.AdapterConfig{}, logger)
//	papers := adapter.FetchPapers(ctx, "quantum computing", 10)
package papersources

import (
	"context"
	"time"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

// DefaultMaxResults is the cap applied when a caller asks for zero or fewer results.
const DefaultMaxResults = 50

// SearchParams defines the parameters for one provider query.
type SearchParams struct {
	// Query is the free-text search string (required).
	Query string

	// MaxResults caps the number of records requested from the provider.
	MaxResults int
}

// SearchResult contains the records parsed from one provider response.
type SearchResult struct {
	// Papers holds the successfully mapped records, in provider order.
	Papers []domain.Paper

	// Skipped holds one reason per provider entry that could not be mapped.
	Skipped []string

	// Source identifies which provider produced these results.
	Source domain.SourceType

	// SearchDuration is the time taken by the provider call, parsing included.
	SearchDuration time.Duration
}

// PaperSource is implemented by every provider client.
type PaperSource interface {
	// Search queries the provider. Implementations return an error for
	// transport failures, non-success statuses and undecodable payloads;
	// individual malformed entries are reported in SearchResult.Skipped.
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)

	// SourceType returns the fixed source name used for attribution and routing.
	SourceType() domain.SourceType

	// Name returns a human-readable name used in logs.
	Name() string

	// IsEnabled reports whether the source is configured to take part in searches.
	IsEnabled() bool
}
