// Package researchgate provides a ResearchGate-labelled source. ResearchGate
// has no public API, so the source searches CrossRef and points each record
// at its DOI, falling back to a ResearchGate search page.
package researchgate

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/papersources"
	"github.com/helixir/paper-discovery-service/internal/papersources/crossref"
)

const (
	// searchPageURL is the ResearchGate search page used when a work has no DOI.
	searchPageURL = "https://www.researchgate.net/search?q="

	sourceName = "ResearchGate"
)

// Config holds configuration for the ResearchGate source. It shares the
// CrossRef settings because that is the backing API.
type Config = crossref.Config

// Client implements the papersources.PaperSource interface for ResearchGate.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

var _ papersources.PaperSource = (*Client)(nil)

// New creates a new ResearchGate client.
func New(cfg Config) *Client {
	cfg.ApplyDefaults()
	return &Client{config: cfg, httpClient: crossref.NewHTTPClient(cfg)}
}

// Search queries CrossRef works sorted by relevance.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	start := time.Now()

	items, err := crossref.SearchWorks(ctx, c.httpClient, sourceName, c.config, params, crossref.SortRelevance)
	if err != nil {
		return nil, err
	}

	fallback := searchPageURL + escapeComponent(params.Query)
	papers, skipped := papersources.Collect(
		papersources.MapJSONItems(items, func(i int, w crossref.Work) papersources.Parsed {
			return workToPaper(i, w, fallback)
		}),
	)

	return &papersources.SearchResult{
		Papers:         papers,
		Skipped:        skipped,
		Source:         domain.SourceTypeResearchGate,
		SearchDuration: time.Since(start),
	}, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeResearchGate
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// escapeComponent percent-encodes s for the search page link, with spaces
// as %20 rather than +.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func workToPaper(index int, w crossref.Work, fallbackLink string) papersources.Parsed {
	title := crossref.FirstTitle(w.Title)
	if title == "" {
		title = "Paper " + strconv.Itoa(index+1)
	}

	paper := domain.Paper{
		Title:         papersources.Title(title),
		Authors:       papersources.JoinAuthors(crossref.AuthorNames(w.Author)),
		Abstract:      papersources.Abstract(w.Abstract),
		Citations:     papersources.CitationLabel(w.IsReferencedByCount),
		Link:          fallbackLink,
		Source:        domain.SourceTypeResearchGate,
		PublishedDate: crossref.PublishedDate(w.Published),
		ID:            w.DOI,
	}
	if w.DOI != "" {
		paper.Link = crossref.DOIResolver + w.DOI
		paper.PDFLink = paper.Link
	}
	return papersources.Record(paper)
}
