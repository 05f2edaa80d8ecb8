package papersources

import (
	"encoding/json"
	"fmt"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

// Parsed is the outcome of mapping one provider entry: either a record or a
// skip with the reason the entry could not be read.
type Parsed struct {
	Paper   domain.Paper
	Skipped bool
	Reason  string
}

// Record wraps a successfully mapped paper.
func Record(p domain.Paper) Parsed {
	return Parsed{Paper: p}
}

// Skip marks an entry as malformed.
func Skip(format string, args ...interface{}) Parsed {
	return Parsed{Skipped: true, Reason: fmt.Sprintf(format, args...)}
}

// Collect splits parse outcomes into records and skip reasons, preserving order.
func Collect(parsed []Parsed) ([]domain.Paper, []string) {
	papers := make([]domain.Paper, 0, len(parsed))
	var skipped []string
	for _, p := range parsed {
		if p.Skipped {
			skipped = append(skipped, p.Reason)
			continue
		}
		papers = append(papers, p.Paper)
	}
	return papers, skipped
}

// MapJSONItems decodes each raw item into T and maps it with fn. An item that
// does not decode into T is skipped instead of failing the whole response.
func MapJSONItems[T any](items []json.RawMessage, fn func(index int, item T) Parsed) []Parsed {
	out := make([]Parsed, 0, len(items))
	for i, raw := range items {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			out = append(out, Skip("item %d: %v", i, err))
			continue
		}
		out = append(out, fn(i, item))
	}
	return out
}
