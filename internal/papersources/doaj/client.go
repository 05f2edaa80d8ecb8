// Package doaj implements a paper source for the Directory of Open Access
// Journals article search API.
package doaj

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
	// DefaultBaseURL is the DOAJ v2 API base URL.
	DefaultBaseURL = "https://doaj.org/api/v2"

	// DefaultRateLimit is the default rate limit in requests per second.
	DefaultRateLimit = 2.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 2

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	articlePageURL = "https://doaj.org/article/"
	linkTypePDF    = "pdf"
	sourceName     = "DOAJ"
)

// Config holds configuration for the DOAJ client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
	BurstSize int
	Enabled   bool
}

// Client implements the papersources.PaperSource interface for DOAJ.
type Client struct {
	httpClient *papersources.HTTPClient
	config     Config
}

var _ papersources.PaperSource = (*Client)(nil)

// New creates a new DOAJ client.
func New(cfg Config) *Client {
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

	return &Client{
		httpClient: papersources.NewHTTPClient(papersources.HTTPClientConfig{
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			BurstSize: cfg.BurstSize,
		}),
		config: cfg,
	}
}

// Search queries the DOAJ article index. The query is part of the path.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	start := time.Now()

	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = papersources.DefaultMaxResults
	}
	searchURL := fmt.Sprintf("%s/search/articles/%s?pageSize=%s",
		strings.TrimRight(c.config.BaseURL, "/"),
		url.PathEscape(params.Query),
		strconv.Itoa(maxResults),
	)

	var response SearchResponse
	if err := c.httpClient.GetJSON(ctx, sourceName, searchURL, &response); err != nil {
		return nil, err
	}

	papers, skipped := papersources.Collect(
		papersources.MapJSONItems(response.Results, func(_ int, a Article) papersources.Parsed {
			return articleToPaper(a)
		}),
	)

	return &papersources.SearchResult{
		Papers:         papers,
		Skipped:        skipped,
		Source:         domain.SourceTypeDOAJ,
		SearchDuration: time.Since(start),
	}, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeDOAJ
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

func articleToPaper(a Article) papersources.Parsed {
	bib := a.BibJSON

	names := make([]string, 0, len(bib.Author))
	for _, au := range bib.Author {
		names = append(names, au.Name)
	}

	link := articlePageURL + a.ID
	if len(bib.Link) > 0 && bib.Link[0].URL != "" {
		link = bib.Link[0].URL
	}

	var pdf string
	for _, l := range bib.Link {
		if l.Type == linkTypePDF {
			pdf = l.URL
			break
		}
	}

	return papersources.Record(domain.Paper{
		Title:         papersources.Title(bib.Title),
		Authors:       papersources.JoinAuthors(names),
		Abstract:      papersources.Abstract(bib.Abstract),
		Citations:     domain.ZeroCitations,
		Link:          link,
		PDFLink:       pdf,
		Source:        domain.SourceTypeDOAJ,
		PublishedDate: string(bib.Year),
		ID:            a.ID,
	})
}
