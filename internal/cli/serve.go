package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/helixir/paper-discovery-service/internal/events"
)

func (c *cli) mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the search tools over MCP on stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing the
search_papers, suggest_searches, analyze_paper and research_insights tools.

Example client configuration:
  {
    "mcpServers": {
      "papersearch": {
        "command": "/path/to/papersearch",
        "args": ["mcp"]
      }
    }
  }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			return rt.ServeMCP(c.context(cmd))
		},
	}
}

func (c *cli) eventsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Follow search.completed events from Kafka",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			err = rt.Follow(cmd.Context(), func(ev events.SearchCompleted) error {
				return c.render(cmd.OutOrStdout(), ev, func(w io.Writer) {
					fmt.Fprintf(w, "%s  %q  %d papers\n", ev.OccurredAt.Format(time.RFC3339), ev.Query, ev.PaperCount)
				})
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
