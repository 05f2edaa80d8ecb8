package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n[1,2]\n```", `[1,2]`},
		{"single line fence", "```{\"a\":1}```", `{"a":1}`},
		{"surrounding space", "  \n```json\n{}\n```\n ", `{}`},
		{"unterminated fence", "```json\n{}", "```json\n{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFence(tt.in))
		})
	}
}

func TestParser_Suggestions(t *testing.T) {
	p := newParser()

	t.Run("valid array", func(t *testing.T) {
		got, err := p.suggestions("```json\n" + `[
			{"suggestion": "protein structure prediction", "reasoning": "narrower", "relatedTopics": ["AlphaFold", "cryo-EM"]},
			{"suggestion": "folding kinetics", "reasoning": "mechanism", "relatedTopics": []}
		]` + "\n```")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "protein structure prediction", got[0].Suggestion)
		assert.Equal(t, []string{"AlphaFold", "cryo-EM"}, got[0].RelatedTopics)
	})

	rejects := map[string]string{
		"prose around json":  `Here you go: [{"suggestion":"a","reasoning":"b","relatedTopics":[]}]`,
		"object not array":   `{"suggestion":"a","reasoning":"b","relatedTopics":[]}`,
		"unknown field":      `[{"suggestion":"a","reasoning":"b","relatedTopics":[],"score":3}]`,
		"missing suggestion": `[{"reasoning":"b","relatedTopics":[]}]`,
		"too many topics":    `[{"suggestion":"a","reasoning":"b","relatedTopics":["1","2","3","4"]}]`,
		"empty array":        `[]`,
		"trailing data":      `[{"suggestion":"a","reasoning":"b","relatedTopics":[]}] extra`,
		"not json":           `I cannot help with that.`,
	}
	for name, text := range rejects {
		t.Run(name, func(t *testing.T) {
			_, err := p.suggestions(text)
			assert.ErrorIs(t, err, ErrUnstructuredResponse)
		})
	}
}

func TestParser_Analysis(t *testing.T) {
	p := newParser()

	got, err := p.analysis(`{"summary":"S","keyPoints":["a","b","c"],"relevanceScore":87,"suggestedRelatedSearch":"R"}`)
	require.NoError(t, err)
	assert.Equal(t, &PaperAnalysis{
		Summary:                "S",
		KeyPoints:              []string{"a", "b", "c"},
		RelevanceScore:         87,
		SuggestedRelatedSearch: "R",
	}, got)

	rejects := map[string]string{
		"score above range": `{"summary":"S","keyPoints":["a"],"relevanceScore":120,"suggestedRelatedSearch":"R"}`,
		"negative score":    `{"summary":"S","keyPoints":["a"],"relevanceScore":-1,"suggestedRelatedSearch":"R"}`,
		"fractional score":  `{"summary":"S","keyPoints":["a"],"relevanceScore":87.5,"suggestedRelatedSearch":"R"}`,
		"score as string":   `{"summary":"S","keyPoints":["a"],"relevanceScore":"high","suggestedRelatedSearch":"R"}`,
		"no key points":     `{"summary":"S","keyPoints":[],"relevanceScore":5,"suggestedRelatedSearch":"R"}`,
		"missing summary":   `{"keyPoints":["a"],"relevanceScore":5,"suggestedRelatedSearch":"R"}`,
		"array not object":  `[{"summary":"S"}]`,
	}
	for name, text := range rejects {
		t.Run(name, func(t *testing.T) {
			_, err := p.analysis(text)
			assert.ErrorIs(t, err, ErrUnstructuredResponse)
		})
	}
}
