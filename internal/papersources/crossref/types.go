// Package crossref provides a client for the CrossRef REST API works search.
//
// API Documentation: https://api.crossref.org/swagger-ui/index.html
package crossref

import "encoding/json"

// WorksResponse is the envelope returned by GET /works.
type WorksResponse struct {
	Status  string       `json:"status"`
	Message WorksMessage `json:"message"`
}

// WorksMessage holds the search page. Items are kept raw so one malformed
// work does not fail the response.
type WorksMessage struct {
	TotalResults int               `json:"total-results"`
	Items        []json.RawMessage `json:"items"`
}

// Work is one CrossRef work record.
type Work struct {
	DOI                 string    `json:"DOI"`
	Title               []string  `json:"title"`
	Author              []Author  `json:"author"`
	Abstract            string    `json:"abstract"`
	IsReferencedByCount int       `json:"is-referenced-by-count"`
	URL                 string    `json:"URL"`
	Published           *DateInfo `json:"published"`
}

// Author is a CrossRef contributor.
type Author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

// DateInfo carries CrossRef's nested date-parts, e.g. [[2021, 5, 4]].
type DateInfo struct {
	DateParts [][]int `json:"date-parts"`
}
