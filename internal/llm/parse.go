package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SearchSuggestion is one refined search proposed for a query.
type SearchSuggestion struct {
	Suggestion    string   `json:"suggestion" validate:"required"`
	Reasoning     string   `json:"reasoning" validate:"required"`
	RelatedTopics []string `json:"relatedTopics" validate:"max=3,dive,required"`
}

// PaperAnalysis is the structured analysis of one paper.
type PaperAnalysis struct {
	Summary                string   `json:"summary" validate:"required"`
	KeyPoints              []string `json:"keyPoints" validate:"required,min=1,dive,required"`
	RelevanceScore         int      `json:"relevanceScore" validate:"gte=0,lte=100"`
	SuggestedRelatedSearch string   `json:"suggestedRelatedSearch" validate:"required"`
}

// suggestionList wraps the top-level array so validator can dive into it.
type suggestionList struct {
	Items []SearchSuggestion `validate:"required,min=1,dive"`
}

// stripCodeFence removes one surrounding Markdown code fence, with or
// without a language tag.
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, "{[") {
			s = s[nl+1:]
		}
	}
	return strings.TrimSpace(s)
}

// decodeStrict decodes the whole of text into out. Unknown fields and
// trailing data are rejected.
func decodeStrict(text string, out interface{}) error {
	dec := json.NewDecoder(strings.NewReader(stripCodeFence(text)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnstructuredResponse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after JSON value", ErrUnstructuredResponse)
	}
	return nil
}

// parser decodes and validates model replies.
type parser struct {
	validate *validator.Validate
}

func newParser() *parser {
	return &parser{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (p *parser) suggestions(text string) ([]SearchSuggestion, error) {
	var items []SearchSuggestion
	if err := decodeStrict(text, &items); err != nil {
		return nil, err
	}
	if err := p.validate.Struct(suggestionList{Items: items}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnstructuredResponse, err)
	}
	return items, nil
}

func (p *parser) analysis(text string) (*PaperAnalysis, error) {
	var analysis PaperAnalysis
	if err := decodeStrict(text, &analysis); err != nil {
		return nil, err
	}
	if err := p.validate.Struct(analysis); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnstructuredResponse, err)
	}
	return &analysis, nil
}

// isBlank reports whether a reply carries no text at all.
func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
