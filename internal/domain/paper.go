package domain

// Placeholder values substituted for fields a provider did not supply.
const (
	UnknownTitle    = "Unknown Title"
	UnknownAuthors  = "Unknown Authors"
	NoAbstract      = "No abstract available"
	ZeroCitations   = "0 citations"
	MaxAbstractRune = 300
)

// Paper is the canonical, source-agnostic representation of one discovered
// paper. The JSON names match the shape browser clients already consume.
type Paper struct {
	Title         string     `json:"title" yaml:"title"`
	Authors       string     `json:"authors" yaml:"authors"`
	Abstract      string     `json:"abstract" yaml:"abstract"`
	Citations     string     `json:"citations" yaml:"citations"`
	Link          string     `json:"link" yaml:"link"`
	PDFLink       string     `json:"pdfLink,omitempty" yaml:"pdf_link,omitempty"`
	Source        SourceType `json:"source" yaml:"source"`
	PublishedDate string     `json:"publishedDate,omitempty" yaml:"published_date,omitempty"`
	ID            string     `json:"id,omitempty" yaml:"id,omitempty"`
}

// HasPDF reports whether the record carries a PDF link.
func (p Paper) HasPDF() bool {
	return p.PDFLink != ""
}
