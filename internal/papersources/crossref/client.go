package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/papersources"
)

const (
	// DefaultBaseURL is the CrossRef REST API base URL.
	DefaultBaseURL = "https://api.crossref.org"

	// DefaultRateLimit matches the polite pool allowance.
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	// SortRelevanceScore orders works by relevance score.
	SortRelevanceScore = "relevance-score"

	// SortRelevance is the legacy alias accepted by the API.
	SortRelevance = "relevance"

	// DOIResolver prefixes a DOI to form a resolvable link.
	DOIResolver = "https://doi.org/"

	sourceName = "CrossRef"
)

// Config holds configuration for the CrossRef client.
type Config struct {
	// BaseURL is the API base URL.
	BaseURL string

	// Mailto identifies the caller so requests join the polite pool.
	Mailto string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// Enabled indicates whether this source is enabled.
	Enabled bool
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
}

// NewHTTPClient builds the rate-limited HTTP client for cfg.
func NewHTTPClient(cfg Config) *papersources.HTTPClient {
	return papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
	})
}

// Client implements the papersources.PaperSource interface for CrossRef.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

var _ papersources.PaperSource = (*Client)(nil)

// New creates a new CrossRef client.
func New(cfg Config) *Client {
	cfg.ApplyDefaults()
	return &Client{config: cfg, httpClient: NewHTTPClient(cfg)}
}

// Search queries CrossRef works sorted by relevance score.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	start := time.Now()

	items, err := SearchWorks(ctx, c.httpClient, sourceName, c.config, params, SortRelevanceScore)
	if err != nil {
		return nil, err
	}

	papers, skipped := papersources.Collect(
		papersources.MapJSONItems(items, func(i int, w Work) papersources.Parsed {
			return workToPaper(w)
		}),
	)

	return &papersources.SearchResult{
		Papers:         papers,
		Skipped:        skipped,
		Source:         domain.SourceTypeCrossRef,
		SearchDuration: time.Since(start),
	}, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeCrossRef
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// SearchWorks runs GET {base}/works and returns the raw items. source names
// the caller in errors.
func SearchWorks(ctx context.Context, httpClient *papersources.HTTPClient, source string, cfg Config,
	params papersources.SearchParams, sort string) ([]json.RawMessage, error) {
	worksURL, err := WorksURL(cfg.BaseURL, params.Query, params.MaxResults, sort, cfg.Mailto)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	var response WorksResponse
	if err := httpClient.GetJSON(ctx, source, worksURL, &response); err != nil {
		return nil, err
	}
	return response.Message.Items, nil
}

// WorksURL builds the works search URL.
func WorksURL(baseURL, query string, rows int, sort, mailto string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/works")
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	if rows <= 0 {
		rows = papersources.DefaultMaxResults
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("rows", strconv.Itoa(rows))
	q.Set("sort", sort)
	if mailto != "" {
		q.Set("mailto", mailto)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// AuthorNames formats contributors as "given family".
func AuthorNames(authors []Author) []string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		if a.Given == "" && a.Family == "" {
			names = append(names, a.Name)
			continue
		}
		names = append(names, strings.TrimSpace(a.Given+" "+a.Family))
	}
	return names
}

// PublishedDate joins the first date-parts entry with "-", e.g. "2021-5-4".
func PublishedDate(d *DateInfo) string {
	if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return ""
	}
	parts := make([]string, len(d.DateParts[0]))
	for i, p := range d.DateParts[0] {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, "-")
}

// FirstTitle returns the first non-blank title.
func FirstTitle(titles []string) string {
	for _, t := range titles {
		if strings.TrimSpace(t) != "" {
			return t
		}
	}
	return ""
}

func workToPaper(w Work) papersources.Parsed {
	paper := domain.Paper{
		Title:         papersources.Title(FirstTitle(w.Title)),
		Authors:       papersources.JoinAuthors(AuthorNames(w.Author)),
		Abstract:      papersources.Abstract(w.Abstract),
		Citations:     papersources.CitationLabel(w.IsReferencedByCount),
		PDFLink:       w.URL,
		Source:        domain.SourceTypeCrossRef,
		PublishedDate: PublishedDate(w.Published),
		ID:            w.DOI,
	}
	if w.DOI != "" {
		paper.Link = DOIResolver + w.DOI
	} else {
		paper.Link = w.URL
	}
	return papersources.Record(paper)
}
