package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

func (c *cli) historyCommand() *cobra.Command {
	var clearAll bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear the search history",
		Long: `History lists past searches for the session, newest first. History is
kept only when enabled in the configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			if !rt.Search.HistoryEnabled() {
				cmd.PrintErrln("search history is disabled")
			}

			ctx := c.context(cmd)
			if clearAll {
				if err := rt.Search.ClearHistory(ctx); err != nil {
					return err
				}
				cmd.Println("History cleared")
				return nil
			}

			entries, err := rt.Search.History(ctx)
			if err != nil {
				return err
			}
			if entries == nil {
				entries = []domain.HistoryEntry{}
			}
			return c.render(cmd.OutOrStdout(), entries, func(w io.Writer) {
				for _, e := range entries {
					fmt.Fprintf(w, "%s  %-40q %3d papers  %s\n",
						e.Timestamp.Local().Format(time.DateTime), e.Query, e.PaperCount, strings.Join(e.Sources, ", "))
				}
			})
		},
	}
	cmd.Flags().BoolVar(&clearAll, "clear", false, "delete all history entries")
	return cmd
}
