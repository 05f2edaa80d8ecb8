package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultHistoryLimit is the number of most recent searches retained.
const DefaultHistoryLimit = 20

// HistoryEntry records one completed search.
type HistoryEntry struct {
	ID         string    `json:"id" yaml:"id"`
	Query      string    `json:"query" yaml:"query"`
	Sources    []string  `json:"sources" yaml:"sources"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	PaperCount int       `json:"paperCount" yaml:"paper_count"`
	Papers     []Paper   `json:"papers" yaml:"papers"`
}

// NewHistoryEntry builds an entry stamped with a fresh ID and the given time.
func NewHistoryEntry(query string, sources []string, papers []Paper, at time.Time) HistoryEntry {
	if papers == nil {
		papers = []Paper{}
	}
	return HistoryEntry{
		ID:         uuid.NewString(),
		Query:      query,
		Sources:    sources,
		Timestamp:  at,
		PaperCount: len(papers),
		Papers:     papers,
	}
}
