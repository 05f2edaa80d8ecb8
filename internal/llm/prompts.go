package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

const (
	// MaxInsightPapers bounds how many papers are sent for insights.
	MaxInsightPapers = 10

	// insightAbstractRunes is the abstract excerpt length in the insights prompt.
	insightAbstractRunes = 200
)

// BuildSuggestionsPrompt asks for three refined searches for query.
func BuildSuggestionsPrompt(query string) string {
	var sb strings.Builder

	sb.WriteString("You are an academic research expert. The user is searching for research papers.\n\n")
	fmt.Fprintf(&sb, "User's search query: %q\n\n", query)
	sb.WriteString("Provide 3 refined search suggestions that would improve their research discovery. For each suggestion, provide:\n")
	sb.WriteString("1. The refined search term\n")
	sb.WriteString("2. A brief reason why this search is useful\n")
	sb.WriteString("3. Up to 3 related academic topics\n\n")
	sb.WriteString("Format your response as a JSON array with objects containing: suggestion, reasoning, relatedTopics\n\n")
	sb.WriteString("Example format:\n")
	sb.WriteString(`[{"suggestion": "refined search term", "reasoning": "why this helps", "relatedTopics": ["topic1", "topic2", "topic3"]}]`)
	sb.WriteString("\n\nOnly respond with valid JSON, no additional text.")

	return sb.String()
}

// BuildAnalysisPrompt asks for a structured analysis of one paper.
func BuildAnalysisPrompt(title, abstract string) string {
	var sb strings.Builder

	sb.WriteString("You are an academic research expert. Analyze this research paper:\n\n")
	fmt.Fprintf(&sb, "Title: %q\n", title)
	fmt.Fprintf(&sb, "Abstract: %q\n\n", abstract)
	sb.WriteString("Provide a structured analysis with:\n")
	sb.WriteString("1. A 2-3 sentence summary of the paper's main contribution\n")
	sb.WriteString("2. Key points (3-5 bullet points)\n")
	sb.WriteString("3. A relevance score (0-100) for general academic interest\n")
	sb.WriteString("4. A suggested related search query\n\n")
	sb.WriteString("Format your response as JSON with keys: summary, keyPoints (array), relevanceScore (number), suggestedRelatedSearch\n\n")
	sb.WriteString("Only respond with valid JSON, no additional text.")

	return sb.String()
}

// BuildInsightsPrompt asks for themes, directions, gaps and trends across
// the first MaxInsightPapers papers.
func BuildInsightsPrompt(papers []domain.Paper) string {
	if len(papers) > MaxInsightPapers {
		papers = papers[:MaxInsightPapers]
	}

	items := make([]string, len(papers))
	for i, p := range papers {
		items[i] = fmt.Sprintf("%d. Title: %q (from %s)\n   Abstract: %q",
			i+1, p.Title, p.Source, excerpt(p.Abstract, insightAbstractRunes)+"...")
	}

	var sb strings.Builder
	sb.WriteString("You are an academic research expert. Analyze these research papers and provide key insights:\n\n")
	sb.WriteString(strings.Join(items, "\n\n"))
	sb.WriteString("\n\nProvide a comprehensive analysis that includes:\n")
	sb.WriteString("1. Common themes across the papers\n")
	sb.WriteString("2. Key research directions\n")
	sb.WriteString("3. Gaps or areas for future research\n")
	sb.WriteString("4. Overall trends in the field\n\n")
	sb.WriteString("Keep the analysis concise but insightful (2-3 paragraphs).")

	return sb.String()
}

func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
