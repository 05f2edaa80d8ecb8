// Package stub provides placeholder sources for providers that block
// automated access or need a paid subscription. They are listed among the
// known sources but always return no papers.
package stub

import (
	"context"
	"time"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/papersources"
)

// Source is a PaperSource that never contacts a provider.
type Source struct {
	sourceType domain.SourceType
	enabled    bool
}

var _ papersources.PaperSource = (*Source)(nil)

// New returns a placeholder for sourceType.
func New(sourceType domain.SourceType, enabled bool) *Source {
	return &Source{sourceType: sourceType, enabled: enabled}
}

// NewGoogleScholar returns the Google Scholar placeholder.
func NewGoogleScholar(enabled bool) *Source {
	return New(domain.SourceTypeGoogleScholar, enabled)
}

// NewIEEEXplore returns the IEEE Xplore placeholder.
func NewIEEEXplore(enabled bool) *Source {
	return New(domain.SourceTypeIEEEXplore, enabled)
}

// Search returns an empty result. It honors cancellation like a real source.
func (s *Source) Search(ctx context.Context, _ papersources.SearchParams) (*papersources.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &papersources.SearchResult{
		Papers:         []domain.Paper{},
		Source:         s.sourceType,
		SearchDuration: time.Duration(0),
	}, nil
}

// SourceType returns the source type identifier.
func (s *Source) SourceType() domain.SourceType {
	return s.sourceType
}

// Name returns the human-readable name for this source.
func (s *Source) Name() string {
	return string(s.sourceType)
}

// IsEnabled returns whether this source is enabled.
func (s *Source) IsEnabled() bool {
	return s.enabled
}
