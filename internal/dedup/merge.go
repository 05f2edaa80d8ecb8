// Package dedup collapses papers that several sources returned for the same
// query into one list.
package dedup

import "github.com/helixir/paper-discovery-service/internal/domain"

// Merge removes papers with duplicate titles. Titles are compared exactly,
// case included. A title keeps the position of its first occurrence and the
// value of its last one, so a later source overrides an earlier record
// without reordering the list.
//
// Merge never modifies its input and is idempotent.
func Merge(papers []domain.Paper) []domain.Paper {
	index := make(map[string]int, len(papers))
	merged := make([]domain.Paper, 0, len(papers))

	for _, p := range papers {
		if i, ok := index[p.Title]; ok {
			merged[i] = p
			continue
		}
		index[p.Title] = len(merged)
		merged = append(merged, p)
	}
	return merged
}
