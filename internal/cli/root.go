// Package cli implements the papersearch command line interface.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helixir/paper-discovery-service/internal/aggregator"
	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/events"
	"github.com/helixir/paper-discovery-service/internal/llm"
	"github.com/helixir/paper-discovery-service/internal/observability"
)

// SearchService runs searches and manages the search history.
type SearchService interface {
	Search(ctx context.Context, req aggregator.Request) (*aggregator.Outcome, error)
	History(ctx context.Context) ([]domain.HistoryEntry, error)
	ClearHistory(ctx context.Context) error
	HistoryEnabled() bool
}

// Assistant is the LLM research assistant.
type Assistant interface {
	SearchSuggestions(ctx context.Context, query string) ([]llm.SearchSuggestion, error)
	AnalyzePaper(ctx context.Context, title, abstract string) (*llm.PaperAnalysis, error)
	ResearchInsights(ctx context.Context, papers []domain.Paper) (string, error)
}

// SourceStatus describes one registered paper source.
type SourceStatus struct {
	Name    string `json:"name" yaml:"name"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// Runtime is the set of services the commands run against.
type Runtime struct {
	Search    SearchService
	Assistant Assistant
	Sources   []SourceStatus

	// ServeMCP serves the MCP tools over stdio until ctx is done.
	ServeMCP func(ctx context.Context) error
	// Follow reads search.completed events until ctx is done or handle
	// fails.
	Follow func(ctx context.Context, handle func(events.SearchCompleted) error) error

	// Close releases the runtime. It may be nil.
	Close func() error
}

// Options are the global flags passed to a Builder.
type Options struct {
	ConfigPath string
	LogLevel   string
}

// Builder creates the Runtime. It is called at most once per execution, by
// the first command that needs it.
type Builder func(ctx context.Context, opts Options) (*Runtime, error)

type cli struct {
	build   Builder
	opts    Options
	output  string
	session string
	rt      *Runtime
}

// Execute runs the root command with os.Args and closes the runtime even
// when the command fails.
func Execute(ctx context.Context, build Builder) error {
	c, root := newRoot(build)
	defer func() { _ = c.close() }()
	return root.ExecuteContext(ctx)
}

// NewRootCommand returns the papersearch root command.
func NewRootCommand(build Builder) *cobra.Command {
	_, root := newRoot(build)
	return root
}

func newRoot(build Builder) (*cli, *cobra.Command) {
	c := &cli{build: build}

	root := &cobra.Command{
		Use:   "papersearch",
		Short: "Search academic paper sources from the terminal",
		Long: `papersearch queries arXiv, Semantic Scholar, PubMed, DOAJ, CrossRef and
ResearchGate in parallel, merges duplicate papers and prints the results.

It shares configuration with the HTTP server and can also run as an MCP
tool server over stdio.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOutput(c.output)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return c.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.output, "output", "o", outputText, "output format (text, json, yaml)")
	flags.StringVar(&c.opts.ConfigPath, "config", "", "config file path")
	flags.StringVar(&c.opts.LogLevel, "log-level", "warn", "log level written to stderr")
	flags.StringVar(&c.session, "session", "", "session ID used to namespace cache and history")

	root.AddCommand(
		c.searchCommand(),
		c.suggestCommand(),
		c.analyzeCommand(),
		c.insightsCommand(),
		c.sourcesCommand(),
		c.historyCommand(),
		c.mcpCommand(),
		c.eventsCommand(),
	)
	return c, root
}

// runtime builds the runtime on first use.
func (c *cli) runtime(cmd *cobra.Command) (*Runtime, error) {
	if c.rt != nil {
		return c.rt, nil
	}
	rt, err := c.build(cmd.Context(), c.opts)
	if err != nil {
		return nil, fmt.Errorf("initializing: %w", err)
	}
	c.rt = rt
	return rt, nil
}

func (c *cli) close() error {
	if c.rt == nil || c.rt.Close == nil {
		return nil
	}
	err := c.rt.Close()
	c.rt = nil
	return err
}

// context returns the command context carrying the session ID.
func (c *cli) context(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if c.session != "" {
		ctx = observability.WithSessionID(ctx, c.session)
	}
	return ctx
}
