// Package semanticscholar provides a client for the Semantic Scholar Graph API.
//
// API Documentation: https://api.semanticscholar.org/api-docs/
package semanticscholar

import "encoding/json"

// SearchResponse represents the response from the paper search endpoint.
// Items are kept raw so one malformed paper does not fail the response.
type SearchResponse struct {
	// Total is the total number of papers matching the query.
	Total int `json:"total"`

	// Data contains the list of papers returned by the search.
	Data []json.RawMessage `json:"data"`
}

// PaperResult represents a single paper in the search response.
type PaperResult struct {
	PaperID         string         `json:"paperId"`
	Title           string         `json:"title"`
	Abstract        *string        `json:"abstract"`
	URL             string         `json:"url"`
	PublicationDate *string        `json:"publicationDate"`
	Authors         []Author       `json:"authors"`
	CitationCount   *int           `json:"citationCount"`
	OpenAccessPDF   *OpenAccessPDF `json:"openAccessPdf"`
}

// Author represents a paper author.
type Author struct {
	AuthorID string `json:"authorId,omitempty"`
	Name     string `json:"name"`
}

// OpenAccessPDF describes an open access copy of the paper.
type OpenAccessPDF struct {
	URL    string `json:"url,omitempty"`
	Status string `json:"status,omitempty"`
}
