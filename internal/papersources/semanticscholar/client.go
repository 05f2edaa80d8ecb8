package semanticscholar

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/papersources"
)

const (
	// DefaultBaseURL is the default base URL for the Semantic Scholar Graph API.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultRateLimit is the default rate limit. With an API key, this can be increased.
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	// apiKeyHeader is the header name for the Semantic Scholar API key.
	apiKeyHeader = "x-api-key"

	// paperFields is the list of fields to request from the API.
	paperFields = "title,authors,abstract,citationCount,url,openAccessPdf,publicationDate"

	// paperPageURL is the public page used when a result carries no url.
	paperPageURL = "https://www.semanticscholar.org/paper/"

	sourceName = "Semantic Scholar"
)

// Config contains configuration options for the Semantic Scholar client.
type Config struct {
	// BaseURL is the base URL for the API.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// APIKey is the optional API key for authenticated requests.
	APIKey string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// Enabled indicates whether this source is enabled.
	Enabled bool
}

// Client implements the papersources.PaperSource interface for Semantic Scholar.
type Client struct {
	httpClient *papersources.HTTPClient
	config     Config
}

// Compile-time check that Client implements papersources.PaperSource.
var _ papersources.PaperSource = (*Client)(nil)

// NewClient creates a new Semantic Scholar client with the given configuration.
// If httpClient is nil, a new one will be created with the configuration settings.
func NewClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = DefaultBurstSize
	}

	if httpClient == nil {
		httpClient = papersources.NewHTTPClient(papersources.HTTPClientConfig{
			Timeout:      cfg.Timeout,
			RateLimit:    cfg.RateLimit,
			BurstSize:    cfg.BurstSize,
			APIKey:       cfg.APIKey,
			APIKeyHeader: apiKeyHeader,
		})
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
	}
}

// Search queries Semantic Scholar for papers matching the given parameters.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	start := time.Now()

	searchURL, err := c.buildSearchURL(params)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	var response SearchResponse
	if err := c.httpClient.GetJSON(ctx, sourceName, searchURL, &response); err != nil {
		return nil, err
	}

	papers, skipped := papersources.Collect(
		papersources.MapJSONItems(response.Data, func(i int, p PaperResult) papersources.Parsed {
			return convertPaper(p)
		}),
	)

	return &papersources.SearchResult{
		Papers:         papers,
		Skipped:        skipped,
		Source:         domain.SourceTypeSemanticScholar,
		SearchDuration: time.Since(start),
	}, nil
}

// SourceType returns the type identifier for this source.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeSemanticScholar
}

// Name returns a human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is currently enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// buildSearchURL constructs the search URL with query parameters.
func (c *Client) buildSearchURL(params papersources.SearchParams) (string, error) {
	baseURL, err := url.Parse(strings.TrimRight(c.config.BaseURL, "/") + "/paper/search")
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	limit := params.MaxResults
	if limit <= 0 {
		limit = papersources.DefaultMaxResults
	}

	query := url.Values{}
	query.Set("query", params.Query)
	query.Set("limit", strconv.Itoa(limit))
	query.Set("fields", paperFields)
	baseURL.RawQuery = query.Encode()

	return baseURL.String(), nil
}

// convertPaper converts a Semantic Scholar result to a domain Paper.
func convertPaper(p PaperResult) papersources.Parsed {
	names := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		names = append(names, a.Name)
	}

	paper := domain.Paper{
		Title:     papersources.Title(p.Title),
		Authors:   papersources.JoinAuthors(names),
		Abstract:  papersources.Abstract(deref(p.Abstract)),
		Citations: papersources.CitationLabel(derefInt(p.CitationCount)),
		Link:      p.URL,
		Source:    domain.SourceTypeSemanticScholar,
		ID:        p.PaperID,
	}
	if paper.Link == "" {
		paper.Link = paperPageURL + p.PaperID
	}
	if p.OpenAccessPDF != nil {
		paper.PDFLink = p.OpenAccessPDF.URL
	}
	paper.PublishedDate = deref(p.PublicationDate)

	return papersources.Record(paper)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
