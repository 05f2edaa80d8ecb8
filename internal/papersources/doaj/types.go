package doaj

import (
	"encoding/json"
	"strings"
)

// SearchResponse is the article search envelope.
type SearchResponse struct {
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
	Results  []json.RawMessage `json:"results"`
}

// Article is one search hit.
type Article struct {
	ID      string  `json:"id"`
	BibJSON BibJSON `json:"bibjson"`
}

// BibJSON carries the bibliographic record.
type BibJSON struct {
	Title    string   `json:"title"`
	Author   []Author `json:"author"`
	Abstract string   `json:"abstract"`
	Year     Year     `json:"year"`
	Link     []Link   `json:"link"`
}

// Author is a named contributor.
type Author struct {
	Name string `json:"name"`
}

// Link is a full-text link. Type is "fulltext" or "pdf".
type Link struct {
	URL         string `json:"url"`
	Type        string `json:"type"`
	ContentType string `json:"content_type"`
}

// Year accepts the publication year as either a JSON string or number.
type Year string

// UnmarshalJSON implements json.Unmarshaler.
func (y *Year) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*y = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*y = Year(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*y = Year(n.String())
	return nil
}
