// Package main provides the papersearch command line client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/helixir/paper-discovery-service/internal/app"
	"github.com/helixir/paper-discovery-service/internal/cli"
	"github.com/helixir/paper-discovery-service/internal/config"
	"github.com/helixir/paper-discovery-service/internal/events"
	"github.com/helixir/paper-discovery-service/internal/observability"
	mcpserver "github.com/helixir/paper-discovery-service/internal/server/mcp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.Execute(ctx, newRuntime)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// newRuntime loads configuration and assembles the application. Logs go to
// stderr so stdout stays clean for results and the MCP transport.
func newRuntime(ctx context.Context, opts cli.Options) (*cli.Runtime, error) {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:  opts.LogLevel,
		Format: "console",
		Output: "stderr",
	})

	application, err := app.New(ctx, cfg, nil, logger)
	if err != nil {
		return nil, err
	}

	var sources []cli.SourceStatus
	for _, src := range application.Sources.AllSources() {
		sources = append(sources, cli.SourceStatus{
			Name:    string(src.SourceType()),
			Enabled: src.IsEnabled(),
		})
	}

	return &cli.Runtime{
		Search:    application.Search,
		Assistant: application.Assistant,
		Sources:   sources,
		ServeMCP: func(ctx context.Context) error {
			server, err := mcpserver.NewServer(application.Search, application.Assistant, logger)
			if err != nil {
				return err
			}
			return server.Run(ctx)
		},
		Follow: func(ctx context.Context, handle func(events.SearchCompleted) error) error {
			return follow(ctx, cfg.Kafka, handle, logger)
		},
		Close: application.Close,
	}, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

func follow(ctx context.Context, cfg config.KafkaConfig, handle func(events.SearchCompleted) error, logger zerolog.Logger) error {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return fmt.Errorf("kafka brokers and topic must be configured to follow events")
	}
	consumer := events.NewConsumer(events.NewKafkaReader(events.ConsumerConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
	}), logger)
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close kafka reader")
		}
	}()
	return consumer.Run(ctx, handle)
}
