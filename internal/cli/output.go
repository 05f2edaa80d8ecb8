package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func validateOutput(format string) error {
	switch format {
	case outputText, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want text, json or yaml)", format)
	}
}

// render writes v in the selected format. text is used for the text format.
func (c *cli) render(w io.Writer, v any, text func(w io.Writer)) error {
	switch c.output {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		text(w)
		return nil
	}
}

func writePapers(w io.Writer, papers []domain.Paper) {
	for i, p := range papers {
		fmt.Fprintf(w, "%d. %s\n", i+1, p.Title)
		meta := []string{string(p.Source)}
		if p.Authors != "" {
			meta = append([]string{p.Authors}, meta...)
		}
		if p.PublishedDate != "" {
			meta = append(meta, p.PublishedDate)
		}
		if p.Citations != "" {
			meta = append(meta, p.Citations)
		}
		fmt.Fprintf(w, "   %s\n", strings.Join(meta, " | "))
		if p.Link != "" {
			fmt.Fprintf(w, "   %s\n", p.Link)
		}
		if p.HasPDF() {
			fmt.Fprintf(w, "   PDF: %s\n", p.PDFLink)
		}
	}
}
