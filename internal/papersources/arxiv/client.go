// Package arxiv queries the arXiv Atom API.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/papersources"
)

const (
	// DefaultBaseURL is the arXiv query endpoint.
	DefaultBaseURL = "https://export.arxiv.org/api/query"

	// DefaultRateLimit is the default rate limit (3 requests per second).
	DefaultRateLimit = 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	// maxFeedBytes bounds how much of a feed is decoded.
	maxFeedBytes = 10 << 20

	sourceName = "arXiv"
)

// Config holds configuration for the arXiv client.
type Config struct {
	// BaseURL is the arXiv query endpoint.
	BaseURL string

	// ProxyURL, when set, is called as GET <proxy>?query=..&maxResults=..
	// instead of BaseURL. The proxy must return the raw arXiv feed.
	ProxyURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// Enabled indicates whether this source is enabled for searches.
	Enabled bool
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
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

// Client implements the papersources.PaperSource interface for arXiv.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// Ensure Client implements PaperSource interface.
var _ papersources.PaperSource = (*Client)(nil)

// New creates a new arXiv client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	return &Client{
		config: cfg,
		httpClient: papersources.NewHTTPClient(papersources.HTTPClientConfig{
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			BurstSize: cfg.BurstSize,
		}),
	}
}

// Search queries arXiv for papers matching the given parameters.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	startTime := time.Now()

	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = papersources.DefaultMaxResults
	}

	searchURL, err := c.buildSearchURL(params.Query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	resp, err := c.httpClient.Get(ctx, sourceName, searchURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	feed, err := DecodeFeed(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, err
	}

	papers, skipped := papersources.Collect(ParseEntries(feed.Entries, maxResults))

	return &papersources.SearchResult{
		Papers:         papers,
		Skipped:        skipped,
		Source:         domain.SourceTypeArXiv,
		SearchDuration: time.Since(startTime),
	}, nil
}

// Raw fetches the unparsed feed for query straight from BaseURL, ignoring
// ProxyURL. A non-2xx upstream status comes back as *domain.ExternalAPIError
// or *domain.RateLimitError.
func (c *Client) Raw(ctx context.Context, query string, maxResults int) ([]byte, error) {
	searchURL, err := QueryURL(c.config.BaseURL, query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	resp, err := c.httpClient.Get(ctx, sourceName, searchURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeArXiv
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// buildSearchURL constructs either the proxy URL or the arXiv query URL.
func (c *Client) buildSearchURL(query string, maxResults int) (string, error) {
	if c.config.ProxyURL != "" {
		u, err := url.Parse(c.config.ProxyURL)
		if err != nil {
			return "", fmt.Errorf("parsing proxy URL: %w", err)
		}
		q := u.Query()
		q.Set("query", query)
		q.Set("maxResults", strconv.Itoa(maxResults))
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	return QueryURL(c.config.BaseURL, query, maxResults)
}

// QueryURL builds the arXiv relevance-sorted search URL for query.
func QueryURL(baseURL, query string, maxResults int) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	q := url.Values{}
	q.Set("search_query", "all:"+query)
	q.Set("start", "0")
	q.Set("max_results", strconv.Itoa(maxResults))
	q.Set("sortBy", "relevance")
	q.Set("sortOrder", "descending")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// DecodeFeed parses an arXiv Atom feed.
func DecodeFeed(r io.Reader) (*Feed, error) {
	var feed Feed
	if err := xml.NewDecoder(r).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &feed, nil
}

// ParseEntries maps at most maxResults feed entries to papers.
func ParseEntries(entries []Entry, maxResults int) []papersources.Parsed {
	if len(entries) > maxResults {
		entries = entries[:maxResults]
	}
	out := make([]papersources.Parsed, 0, len(entries))
	for i := range entries {
		out = append(out, entryToPaper(i, &entries[i]))
	}
	return out
}

// entryToPaper converts an arXiv Atom entry to a domain Paper.
func entryToPaper(index int, entry *Entry) papersources.Parsed {
	entryURL := strings.TrimSpace(entry.ID)
	if entryURL == "" && strings.TrimSpace(entry.Title) == "" {
		return papersources.Skip("entry %d: no id or title", index)
	}

	arxivID := extractArXivID(entryURL)

	names := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		names = append(names, a.Name)
	}

	paper := domain.Paper{
		Title:         papersources.Title(entry.Title),
		Authors:       papersources.JoinAuthors(names),
		Abstract:      papersources.Abstract(entry.Summary),
		Citations:     domain.ZeroCitations,
		Link:          strings.Replace(entryURL, "/abs/", "/", 1),
		Source:        domain.SourceTypeArXiv,
		PublishedDate: datePart(entry.Published),
		ID:            arxivID,
	}
	if arxivID != "" {
		paper.PDFLink = "https://arxiv.org/pdf/" + arxivID + ".pdf"
	}
	return papersources.Record(paper)
}

// extractArXivID returns the text after "/abs/" in an entry URL, version
// suffix included.
// Input: "http://arxiv.org/abs/2301.12345v1" → "2301.12345v1"
func extractArXivID(entryURL string) string {
	_, id, found := strings.Cut(entryURL, "/abs/")
	if !found {
		return ""
	}
	return id
}

// datePart returns the portion of an RFC 3339 timestamp before the "T".
func datePart(ts string) string {
	date, _, _ := strings.Cut(strings.TrimSpace(ts), "T")
	return date
}
