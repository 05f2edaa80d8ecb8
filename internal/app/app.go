// Package app assembles the service's components from configuration. The
// HTTP server, the CLI and the MCP server all run on the same graph.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/helixir/paper-discovery-service/internal/aggregator"
	"github.com/helixir/paper-discovery-service/internal/cache"
	"github.com/helixir/paper-discovery-service/internal/config"
	"github.com/helixir/paper-discovery-service/internal/database"
	"github.com/helixir/paper-discovery-service/internal/events"
	"github.com/helixir/paper-discovery-service/internal/history"
	"github.com/helixir/paper-discovery-service/internal/llm"
	"github.com/helixir/paper-discovery-service/internal/notify"
	"github.com/helixir/paper-discovery-service/internal/observability"
	"github.com/helixir/paper-discovery-service/internal/papersources"
	"github.com/helixir/paper-discovery-service/internal/papersources/arxiv"
	"github.com/helixir/paper-discovery-service/internal/papersources/crossref"
	"github.com/helixir/paper-discovery-service/internal/papersources/doaj"
	"github.com/helixir/paper-discovery-service/internal/papersources/pubmed"
	"github.com/helixir/paper-discovery-service/internal/papersources/researchgate"
	"github.com/helixir/paper-discovery-service/internal/papersources/semanticscholar"
	"github.com/helixir/paper-discovery-service/internal/papersources/stub"
	"github.com/helixir/paper-discovery-service/internal/search"
)

// App holds the wired components.
type App struct {
	Config  *config.Config
	Metrics *observability.Metrics

	// DB is nil unless a component uses the SQLite store.
	DB *database.DB

	Sources    *papersources.Registry
	ArXiv      *arxiv.Client
	Aggregator *aggregator.Aggregator
	Search     *search.Service
	Publisher  events.Publisher

	Completer llm.Completer
	Assistant *llm.Assistant
	Fallback  *llm.FallbackAssistant

	Notifier *notify.Telegram

	logger zerolog.Logger
}

// New builds the application. metrics may be nil. Callers must Close the
// returned App.
func New(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger zerolog.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Metrics: metrics,
		logger:  logger,
	}

	if cfg.UsesSQLite() {
		if err := a.openDatabase(ctx); err != nil {
			return nil, err
		}
	}

	a.Sources, a.ArXiv = NewRegistry(cfg.PaperSources)

	var store cache.Store = cache.NewMemoryStore()
	if cfg.Cache.Backend == config.BackendSQLite {
		store = cache.NewSQLiteStore(a.DB.SQL())
	}
	paperCache := cache.New(store, cache.Config{Freshness: cfg.Cache.Freshness, Metrics: metrics}, logger)

	var fetchers []papersources.Fetcher
	for _, src := range a.Sources.EnabledSources() {
		fetchers = append(fetchers, papersources.NewAdapter(src, paperCache, papersources.AdapterConfig{
			Metrics: metrics,
		}, logger))
	}
	a.Aggregator = aggregator.New(fetchers, aggregator.Config{
		Timeout:         cfg.Search.SourceTimeout,
		CancelOnTimeout: cfg.Search.CancelOnTimeout,
		Metrics:         metrics,
	}, logger)

	var historyStore history.Store
	if cfg.History.Enabled {
		switch cfg.History.Backend {
		case config.BackendSQLite:
			historyStore = history.NewSQLiteStore(a.DB, cfg.History.Limit)
		default:
			historyStore = history.NewMemoryStore(cfg.History.Limit)
		}
	}

	a.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		writer := events.NewKafkaWriter(events.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchSize:    cfg.Kafka.BatchSize,
			BatchTimeout: cfg.Kafka.BatchTimeout,
		})
		a.Publisher = events.NewKafkaPublisher(writer, events.DefaultServiceName, logger)
	}

	a.Search = search.NewService(a.Aggregator, historyStore, a.Publisher, events.NewEmitter(events.EmitterConfig{}), search.Config{
		DefaultResultsPerSource: cfg.Search.DefaultResultsPerSource,
		MaxResultsPerSource:     cfg.Search.MaxResultsPerSource,
		Metrics:                 metrics,
	}, logger)

	completer, err := llm.NewCompleter(ctx, llm.FactoryConfig{
		Provider: cfg.LLM.Provider,
		Generation: llm.GenerationConfig{
			Temperature:     cfg.LLM.Temperature,
			MaxOutputTokens: cfg.LLM.MaxOutputTokens,
			Timeout:         cfg.LLM.Timeout,
		},
		Gemini: llm.GeminiConfig{
			APIKey:  cfg.LLM.Gemini.APIKey,
			Model:   cfg.LLM.Gemini.Model,
			BaseURL: cfg.LLM.Gemini.BaseURL,
			TopK:    cfg.LLM.Gemini.TopK,
			TopP:    cfg.LLM.Gemini.TopP,
		},
		OpenAI: llm.OpenAIConfig{
			APIKey:  cfg.LLM.OpenAI.APIKey,
			Model:   cfg.LLM.OpenAI.Model,
			BaseURL: cfg.LLM.OpenAI.BaseURL,
		},
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create LLM completer: %w", err)
	}
	if !llm.IsConfigured(completer) {
		logger.Warn().Str("provider", completer.Provider()).Msg("LLM API key not configured; assistant endpoints will fail")
	}
	a.Completer = completer
	a.Assistant = llm.NewAssistant(completer, metrics, logger)
	a.Fallback = llm.NewFallbackAssistant(a.Assistant)

	a.Notifier = notify.NewTelegram(notify.TelegramConfig{
		BotToken: cfg.Telegram.BotToken,
		BaseURL:  cfg.Telegram.BaseURL,
		Timeout:  cfg.Telegram.Timeout,
	}, logger)

	logger.Info().
		Int("sources", len(fetchers)).
		Str("cache_backend", cfg.Cache.Backend).
		Bool("history", historyStore != nil).
		Bool("kafka", cfg.Kafka.Enabled).
		Str("llm_provider", completer.Provider()).
		Msg("application assembled")

	return a, nil
}

func (a *App) openDatabase(ctx context.Context) error {
	db, err := database.Open(ctx, &a.Config.Storage, a.logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.DB = db

	if !a.Config.Storage.MigrationAutoRun {
		return nil
	}
	migrator, err := database.NewMigrator(db, a.logger)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			a.logger.Error().Err(closeErr).Msg("failed to close migrator")
		}
	}()
	if err := migrator.Up(); err != nil {
		_ = db.Close()
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// NewRegistry registers every source, enabled or not, in display order. The
// arXiv client is also returned for the raw feed proxy.
func NewRegistry(cfg config.PaperSourcesConfig) (*papersources.Registry, *arxiv.Client) {
	registry := papersources.NewRegistry()

	arxivClient := arxiv.New(arxiv.Config{
		BaseURL:   cfg.ArXiv.BaseURL,
		ProxyURL:  cfg.ArXiv.ProxyURL,
		Timeout:   cfg.ArXiv.Timeout,
		RateLimit: cfg.ArXiv.RateLimit,
		Enabled:   cfg.ArXiv.Enabled,
	})
	registry.Register(arxivClient)

	registry.Register(semanticscholar.NewClient(semanticscholar.Config{
		BaseURL:   cfg.SemanticScholar.BaseURL,
		APIKey:    cfg.SemanticScholar.APIKey,
		Timeout:   cfg.SemanticScholar.Timeout,
		RateLimit: cfg.SemanticScholar.RateLimit,
		Enabled:   cfg.SemanticScholar.Enabled,
	}, nil))

	registry.Register(pubmed.New(pubmed.Config{
		BaseURL:   cfg.PubMed.BaseURL,
		APIKey:    cfg.PubMed.APIKey,
		Timeout:   cfg.PubMed.Timeout,
		RateLimit: cfg.PubMed.RateLimit,
		Enabled:   cfg.PubMed.Enabled,
	}))

	registry.Register(doaj.New(doaj.Config{
		BaseURL:   cfg.DOAJ.BaseURL,
		Timeout:   cfg.DOAJ.Timeout,
		RateLimit: cfg.DOAJ.RateLimit,
		Enabled:   cfg.DOAJ.Enabled,
	}))

	registry.Register(crossref.New(crossrefConfig(cfg.CrossRef)))
	registry.Register(researchgate.New(crossrefConfig(cfg.ResearchGate)))

	registry.Register(stub.NewGoogleScholar(cfg.GoogleScholar.Enabled))
	registry.Register(stub.NewIEEEXplore(cfg.IEEEXplore.Enabled))

	return registry, arxivClient
}

func crossrefConfig(cfg config.CrossRefConfig) crossref.Config {
	return crossref.Config{
		BaseURL:   cfg.BaseURL,
		Mailto:    cfg.Mailto,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		Enabled:   cfg.Enabled,
	}
}

// Close releases the publisher and the database.
func (a *App) Close() error {
	var errs []error
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
