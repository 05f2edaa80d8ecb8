package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helixir/paper-discovery-service/internal/llm"
)

// ErrNoPapers is returned by insights when the search found nothing.
var ErrNoPapers = errors.New("no papers found")

func (c *cli) suggestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <query>",
		Short: "Ask the assistant for refined searches",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			suggestions, err := rt.Assistant.SearchSuggestions(c.context(cmd), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), suggestions, func(w io.Writer) {
				for i, s := range suggestions {
					fmt.Fprintf(w, "%d. %s\n   %s\n", i+1, s.Suggestion, s.Reasoning)
					if len(s.RelatedTopics) > 0 {
						fmt.Fprintf(w, "   related: %s\n", strings.Join(s.RelatedTopics, ", "))
					}
				}
			})
		},
	}
}

func (c *cli) analyzeCommand() *cobra.Command {
	var title, abstract string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one paper from its title and abstract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			analysis, err := rt.Assistant.AnalyzePaper(c.context(cmd), title, abstract)
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), analysis, func(w io.Writer) {
				writeAnalysis(w, analysis)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "paper title")
	cmd.Flags().StringVar(&abstract, "abstract", "", "paper abstract")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("abstract")
	return cmd
}

func writeAnalysis(w io.Writer, a *llm.PaperAnalysis) {
	fmt.Fprintf(w, "Relevance: %d/100\n\n%s\n\n", a.RelevanceScore, a.Summary)
	for _, p := range a.KeyPoints {
		fmt.Fprintf(w, "- %s\n", p)
	}
	fmt.Fprintf(w, "\nTry searching: %s\n", a.SuggestedRelatedSearch)
}

type insightsResult struct {
	Query      string `json:"query" yaml:"query"`
	PaperCount int    `json:"paperCount" yaml:"paper_count"`
	Insights   string `json:"insights" yaml:"insights"`
}

func (c *cli) insightsCommand() *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "insights <query>",
		Short: "Search, then summarize themes and gaps across the results",
		Long: `Insights runs a search and sends the first merged papers to the assistant,
which returns a short report on common themes, gaps and future directions.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			ctx := c.context(cmd)
			req := flags.request(args)
			outcome, err := rt.Search.Search(ctx, req)
			if err != nil {
				return err
			}
			if len(outcome.Papers) == 0 {
				return fmt.Errorf("%w for %q", ErrNoPapers, req.Query)
			}

			insights, err := rt.Assistant.ResearchInsights(ctx, outcome.Papers)
			if err != nil {
				return err
			}
			result := insightsResult{
				Query:      req.Query,
				PaperCount: min(len(outcome.Papers), llm.MaxInsightPapers),
				Insights:   insights,
			}
			return c.render(cmd.OutOrStdout(), result, func(w io.Writer) {
				fmt.Fprintf(w, "Insights from %d papers:\n\n%s\n", result.PaperCount, result.Insights)
			})
		},
	}
	flags.register(cmd)
	return cmd
}
