package papersources

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

// Truncate returns at most n characters of s. It counts runes, so multi-byte
// characters are never split.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// Abstract normalizes a provider abstract: markup stripped, whitespace
// collapsed, the placeholder substituted when empty, and the result
// truncated to domain.MaxAbstractRune characters.
func Abstract(raw string) string {
	text := CollapseWhitespace(StripMarkup(raw))
	if text == "" {
		return domain.NoAbstract
	}
	return Truncate(text, domain.MaxAbstractRune)
}

// Title collapses whitespace in a provider title or returns the placeholder.
func Title(raw string) string {
	return OrDefault(CollapseWhitespace(raw), domain.UnknownTitle)
}

// OrDefault returns s, or def when s is blank.
func OrDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// CollapseWhitespace replaces every run of whitespace, newlines included,
// with a single space and trims the ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// JoinAuthors joins non-empty author names with ", " or returns the placeholder.
func JoinAuthors(names []string) string {
	kept := make([]string, 0, len(names))
	for _, n := range names {
		if n = CollapseWhitespace(n); n != "" {
			kept = append(kept, n)
		}
	}
	if len(kept) == 0 {
		return domain.UnknownAuthors
	}
	return strings.Join(kept, ", ")
}

// CitationLabel formats a citation count as "N citations".
func CitationLabel(n int) string {
	if n < 0 {
		n = 0
	}
	return strconv.Itoa(n) + " citations"
}

// StripMarkup removes HTML and JATS tags (e.g. <jats:p>) from s, keeping
// the text content. Strings without a '<' are returned unchanged.
func StripMarkup(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}
