package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helixir/paper-discovery-service/internal/aggregator"
)

type searchFlags struct {
	sources []string
	limit   int
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.sources, "sources", "s", nil, "sources to query (default: all enabled)")
	cmd.Flags().IntVarP(&f.limit, "limit", "n", 0, "results per source (0 uses the configured default)")
}

func (f *searchFlags) request(args []string) aggregator.Request {
	return aggregator.Request{
		Query:            strings.Join(args, " "),
		Sources:          f.sources,
		ResultsPerSource: f.limit,
	}
}

func (c *cli) searchCommand() *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search all sources for papers",
		Long: `Search queries every selected source in parallel and prints a per-source
summary followed by the merged, deduplicated paper list. Sources that fail
or time out are reported in the summary.

Examples:
  papersearch search "graph neural networks"
  papersearch search -s arXiv -s PubMed -n 20 crispr off-target
  papersearch search -o json transformers`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			outcome, err := rt.Search.Search(c.context(cmd), flags.request(args))
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), outcome, func(w io.Writer) {
				writeOutcome(w, outcome)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func writeOutcome(w io.Writer, outcome *aggregator.Outcome) {
	for _, r := range outcome.Results {
		if r.Error != "" {
			fmt.Fprintf(w, "%-18s error: %s\n", r.Source, r.Error)
			continue
		}
		fmt.Fprintf(w, "%-18s %d papers\n", r.Source, r.Count)
	}
	fmt.Fprintf(w, "\n%d papers after deduplication\n\n", len(outcome.Papers))
	writePapers(w, outcome.Papers)
}

func (c *cli) sourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List registered paper sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), rt.Sources, func(w io.Writer) {
				for _, s := range rt.Sources {
					state := "disabled"
					if s.Enabled {
						state = "enabled"
					}
					fmt.Fprintf(w, "%-18s %s\n", s.Name, state)
				}
			})
		},
	}
}
