// Package domain provides domain models for the Paper Discovery Service.
package domain

import "strings"

// SourceType names the academic source that produced a paper record.
// The values are the display names callers pass in search requests.
type SourceType string

const (
	SourceTypeArXiv           SourceType = "arXiv"
	SourceTypeSemanticScholar SourceType = "Semantic Scholar"
	SourceTypePubMed          SourceType = "PubMed"
	SourceTypeDOAJ            SourceType = "DOAJ"
	SourceTypeCrossRef        SourceType = "CrossRef"
	SourceTypeResearchGate    SourceType = "ResearchGate"
	SourceTypeGoogleScholar   SourceType = "Google Scholar"
	SourceTypeIEEEXplore      SourceType = "IEEE Xplore"
)

// knownSources lists every source in display order.
var knownSources = []SourceType{
	SourceTypeArXiv,
	SourceTypeSemanticScholar,
	SourceTypePubMed,
	SourceTypeDOAJ,
	SourceTypeCrossRef,
	SourceTypeResearchGate,
	SourceTypeGoogleScholar,
	SourceTypeIEEEXplore,
}

// KnownSources returns a copy of all source types in display order.
func KnownSources() []SourceType {
	out := make([]SourceType, len(knownSources))
	copy(out, knownSources)
	return out
}

// IsKnown reports whether s is one of the fixed source names.
func (s SourceType) IsKnown() bool {
	for _, k := range knownSources {
		if k == s {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (s SourceType) String() string {
	return string(s)
}

// Slug returns a lowercase, underscore separated form of the source name,
// suitable for metric labels and config keys.
func (s SourceType) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(s)), " ", "_")
}
