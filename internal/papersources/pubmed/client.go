package pubmed

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
	// DefaultBaseURL is the base URL for NCBI E-utilities API.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultRateLimit is the rate limit without an API key (3 requests/second).
	// With an API key, the limit increases to 10 requests/second.
	DefaultRateLimit = 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 3

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	// MaxResultsLimit is the maximum results allowed per request by the API.
	MaxResultsLimit = 10000

	// articleURL prefixes the public article page.
	articleURL = "https://www.ncbi.nlm.nih.gov/pubmed/"

	maxBodyBytes = 10 << 20

	sourceName = "PubMed"
)

// Config holds the configuration for the PubMed client.
type Config struct {
	// BaseURL is the base URL for the E-utilities API.
	BaseURL string

	// APIKey is the NCBI API key for higher rate limits.
	APIKey string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// Enabled indicates whether this source is enabled.
	Enabled bool
}

// applyDefaults applies default values to the config.
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

// Client implements the papersources.PaperSource interface for PubMed.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

// Compile-time check that Client implements PaperSource.
var _ papersources.PaperSource = (*Client)(nil)

// New creates a new PubMed client with the given configuration.
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

// Search queries PubMed for papers matching the given parameters.
// It performs a two-step search:
// 1. esearch.fcgi - retrieves PMIDs matching the query
// 2. efetch.fcgi - retrieves full article metadata for the PMIDs
//
// The second call is skipped when the first returns no ids.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	startTime := time.Now()

	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = papersources.DefaultMaxResults
	}
	if maxResults > MaxResultsLimit {
		maxResults = MaxResultsLimit
	}

	searchResult, err := c.esearch(ctx, params.Query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("esearch: %w", err)
	}

	result := &papersources.SearchResult{
		Papers: []domain.Paper{},
		Source: domain.SourceTypePubMed,
	}

	pmids := searchResult.IDList.IDs
	if len(pmids) > maxResults {
		pmids = pmids[:maxResults]
	}
	if len(pmids) == 0 {
		result.SearchDuration = time.Since(startTime)
		return result, nil
	}

	articleSet, err := c.efetch(ctx, pmids)
	if err != nil {
		return nil, fmt.Errorf("efetch: %w", err)
	}

	parsed := make([]papersources.Parsed, 0, len(articleSet.Articles))
	for i, article := range articleSet.Articles {
		parsed = append(parsed, articleToPaper(i, article))
	}
	result.Papers, result.Skipped = papersources.Collect(parsed)
	result.SearchDuration = time.Since(startTime)

	return result, nil
}

// SourceType returns the source type for PubMed.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypePubMed
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// esearch performs a search and returns matching PMIDs.
func (c *Client) esearch(ctx context.Context, query string, maxResults int) (*ESearchResult, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("term", query)
	q.Set("retmode", "xml")
	q.Set("retmax", strconv.Itoa(maxResults))

	var result ESearchResult
	if err := c.getXML(ctx, "/esearch.fcgi", q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// efetch retrieves full article metadata for the given PMIDs.
func (c *Client) efetch(ctx context.Context, pmids []string) (*PubmedArticleSet, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("id", strings.Join(pmids, ","))
	q.Set("retmode", "xml")
	q.Set("rettype", "abstract")

	var result PubmedArticleSet
	if err := c.getXML(ctx, "/efetch.fcgi", q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) getXML(ctx context.Context, endpoint string, q url.Values, out interface{}) error {
	u, err := url.Parse(strings.TrimRight(c.config.BaseURL, "/") + endpoint)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if c.config.APIKey != "" {
		q.Set("api_key", c.config.APIKey)
	}
	u.RawQuery = q.Encode()

	resp, err := c.httpClient.Get(ctx, sourceName, u.String())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := xml.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("failed to parse XML response: %w", err)
	}
	return nil
}

// articleToPaper converts a PubmedArticle to a domain.Paper.
func articleToPaper(index int, article PubmedArticle) papersources.Parsed {
	pmid := strings.TrimSpace(article.MedlineCitation.PMID.Value)
	if pmid == "" {
		return papersources.Skip("article %d: missing PMID", index)
	}

	a := article.MedlineCitation.Article
	return papersources.Record(domain.Paper{
		Title:         papersources.Title(a.ArticleTitle),
		Authors:       papersources.JoinAuthors(extractAuthors(a.AuthorList)),
		Abstract:      papersources.Abstract(extractAbstract(a.Abstract)),
		Citations:     domain.ZeroCitations,
		Link:          articleURL + pmid + "/",
		Source:        domain.SourceTypePubMed,
		PublishedDate: extractPublicationDate(a),
		ID:            pmid,
	})
}

// extractPublicationDate formats the best available date as YYYY, YYYY-MM or
// YYYY-MM-DD.
func extractPublicationDate(article Article) string {
	// Try ArticleDate first (more precise)
	for _, ad := range article.ArticleDate {
		if d := formatDate(ad.Year, ad.Month, ad.Day); d != "" {
			return d
		}
	}

	pubDate := article.Journal.JournalIssue.PubDate
	if d := formatDate(pubDate.Year, pubDate.Month, pubDate.Day); d != "" {
		return d
	}

	// Handle MedlineDate format (e.g., "2020 Jan-Feb")
	if year := extractYearFromMedlineDate(pubDate.MedlineDate); year > 0 {
		return strconv.Itoa(year)
	}
	return ""
}

func formatDate(year, month, day string) string {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y <= 0 {
		return ""
	}
	out := fmt.Sprintf("%04d", y)

	m := parseMonth(month)
	if m == 0 {
		return out
	}
	out += fmt.Sprintf("-%02d", int(m))

	if d, err := strconv.Atoi(strings.TrimSpace(day)); err == nil && d >= 1 && d <= 31 {
		out += fmt.Sprintf("-%02d", d)
	}
	return out
}

// monthNames maps lowercase month name strings (abbreviation and full) to time.Month.
var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// parseMonth parses a month string (numeric or name). Zero means unknown.
func parseMonth(month string) time.Month {
	month = strings.TrimSpace(month)
	if m, err := strconv.Atoi(month); err == nil && m >= 1 && m <= 12 {
		return time.Month(m)
	}
	return monthNames[strings.ToLower(month)]
}

// extractYearFromMedlineDate extracts the year from a MedlineDate string.
func extractYearFromMedlineDate(medlineDate string) int {
	// MedlineDate can be "2020 Jan-Feb", "2020 Spring", "2020-2021", etc.
	parts := strings.Fields(medlineDate)
	if len(parts) > 0 {
		yearStr := strings.Split(parts[0], "-")[0]
		if year, err := strconv.Atoi(yearStr); err == nil {
			return year
		}
	}
	return 0
}

// extractAbstract concatenates multiple abstract sections into a single string.
func extractAbstract(abstract *Abstract) string {
	if abstract == nil || len(abstract.AbstractTexts) == 0 {
		return ""
	}

	if len(abstract.AbstractTexts) == 1 && abstract.AbstractTexts[0].Label == "" {
		return strings.TrimSpace(abstract.AbstractTexts[0].Value)
	}

	var parts []string
	for _, at := range abstract.AbstractTexts {
		text := strings.TrimSpace(at.Value)
		if text == "" {
			continue
		}
		if at.Label != "" {
			parts = append(parts, at.Label+": "+text)
		} else {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " ")
}

// extractAuthors returns display names, skipping entries marked invalid.
func extractAuthors(authorList *AuthorList) []string {
	if authorList == nil {
		return nil
	}

	names := make([]string, 0, len(authorList.Authors))
	for _, a := range authorList.Authors {
		if a.ValidYN == "N" {
			continue
		}
		if a.CollectiveName != "" {
			names = append(names, a.CollectiveName)
			continue
		}
		names = append(names, strings.TrimSpace(a.ForeName+" "+a.LastName))
	}
	return names
}
