// Package config provides configuration management for the paper discovery service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for all environment variable overrides.
const EnvPrefix = "PAPERSEARCH"

// Storage backend names.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// LLM provider names.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds all configuration for the paper discovery service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Search contains aggregation settings.
	Search SearchConfig `mapstructure:"search"`
	// Cache contains per-source paper cache settings.
	Cache CacheConfig `mapstructure:"cache"`
	// History contains search history settings.
	History HistoryConfig `mapstructure:"history"`
	// Storage contains the local SQLite store settings.
	Storage StorageConfig `mapstructure:"storage"`
	// LLM contains LLM assistant settings.
	LLM LLMConfig `mapstructure:"llm"`
	// PaperSources contains paper source API configurations.
	PaperSources PaperSourcesConfig `mapstructure:"paper_sources"`
	// Kafka contains search event publisher settings.
	Kafka KafkaConfig `mapstructure:"kafka"`
	// Telegram contains the result sharing bot settings.
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// SearchConfig holds aggregation settings.
type SearchConfig struct {
	// SourceTimeout bounds how long the aggregator waits for one source (default: 12s).
	SourceTimeout time.Duration `mapstructure:"source_timeout"`
	// CancelOnTimeout cancels a source call that lost the race instead of
	// letting it finish and populate the cache (default: false).
	CancelOnTimeout bool `mapstructure:"cancel_on_timeout"`
	// DefaultResultsPerSource is used when a request omits the cap (default: 10).
	DefaultResultsPerSource int `mapstructure:"default_results_per_source"`
	// MaxResultsPerSource is the largest cap a request may ask for (default: 100).
	MaxResultsPerSource int `mapstructure:"max_results_per_source"`
}

// CacheConfig holds paper cache settings.
type CacheConfig struct {
	// Backend selects the cache store: memory or sqlite (default: memory).
	Backend string `mapstructure:"backend"`
	// Freshness is how long an entry is served before it is evicted on read (default: 24h).
	Freshness time.Duration `mapstructure:"freshness"`
}

// HistoryConfig holds search history settings.
type HistoryConfig struct {
	// Enabled records completed searches (default: true).
	Enabled bool `mapstructure:"enabled"`
	// Backend selects the history store: memory or sqlite (default: memory).
	Backend string `mapstructure:"backend"`
	// Limit is the number of most recent searches kept (default: 20).
	Limit int `mapstructure:"limit"`
}

// StorageConfig holds the local SQLite store configuration.
type StorageConfig struct {
	// Path is the SQLite database file (default: paper-discovery.db).
	Path string `mapstructure:"path"`
	// BusyTimeout is how long SQLite waits on a locked database.
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
	// MigrationAutoRun applies pending migrations on startup (default: true).
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
}

// LLMConfig holds LLM assistant configuration.
type LLMConfig struct {
	// Provider is the LLM provider (gemini, openai).
	Provider string `mapstructure:"provider"`
	// Timeout is the timeout for one LLM API call.
	Timeout time.Duration `mapstructure:"timeout"`
	// Temperature is the sampling temperature.
	Temperature float64 `mapstructure:"temperature"`
	// MaxOutputTokens caps the length of a model answer.
	MaxOutputTokens int `mapstructure:"max_output_tokens"`
	// Gemini contains Google Gemini settings.
	Gemini GeminiConfig `mapstructure:"gemini"`
	// OpenAI contains OpenAI-compatible settings.
	OpenAI OpenAIConfig `mapstructure:"openai"`
}

// GeminiConfig holds Google Gemini settings.
type GeminiConfig struct {
	// APIKey is the Gemini API key (loaded from PAPERSEARCH_LLM_GEMINI_API_KEY or GEMINI_API_KEY).
	APIKey string `mapstructure:"-"`
	// Model is the Gemini model name.
	Model string `mapstructure:"model"`
	// BaseURL overrides the API endpoint (used by tests and proxies).
	BaseURL string `mapstructure:"base_url"`
	// TopK is the top-k sampling parameter.
	TopK float64 `mapstructure:"top_k"`
	// TopP is the nucleus sampling parameter.
	TopP float64 `mapstructure:"top_p"`
}

// OpenAIConfig holds OpenAI-compatible settings.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key (loaded from PAPERSEARCH_LLM_OPENAI_API_KEY or OPENAI_API_KEY).
	APIKey string `mapstructure:"-"`
	// Model is the OpenAI model to use.
	Model string `mapstructure:"model"`
	// BaseURL is the API base URL (for compatible endpoints).
	BaseURL string `mapstructure:"base_url"`
}

// PaperSourcesConfig holds configuration for all paper source APIs.
type PaperSourcesConfig struct {
	// ArXiv contains arXiv API settings.
	ArXiv ArXivConfig `mapstructure:"arxiv"`
	// SemanticScholar contains Semantic Scholar API settings.
	SemanticScholar PaperSourceConfig `mapstructure:"semantic_scholar"`
	// PubMed contains PubMed E-utilities settings.
	PubMed PaperSourceConfig `mapstructure:"pubmed"`
	// DOAJ contains DOAJ API settings.
	DOAJ PaperSourceConfig `mapstructure:"doaj"`
	// CrossRef contains CrossRef API settings.
	CrossRef CrossRefConfig `mapstructure:"crossref"`
	// ResearchGate contains settings for the CrossRef-backed ResearchGate source.
	ResearchGate CrossRefConfig `mapstructure:"researchgate"`
	// GoogleScholar toggles the Google Scholar stub.
	GoogleScholar StubSourceConfig `mapstructure:"google_scholar"`
	// IEEEXplore toggles the IEEE Xplore stub.
	IEEEXplore StubSourceConfig `mapstructure:"ieee_xplore"`
}

// PaperSourceConfig holds configuration for a single paper source API.
type PaperSourceConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is the API key, loaded from the environment only.
	APIKey string `mapstructure:"-"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the per-call network timeout (default: 10s).
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// ArXivConfig holds arXiv settings.
type ArXivConfig struct {
	PaperSourceConfig `mapstructure:",squash"`
	// ProxyURL routes queries through a same-origin proxy
	// (GET <proxy>?query=..&maxResults=..) instead of the upstream API.
	ProxyURL string `mapstructure:"proxy_url"`
}

// CrossRefConfig holds CrossRef settings.
type CrossRefConfig struct {
	PaperSourceConfig `mapstructure:",squash"`
	// Mailto is sent so requests join CrossRef's polite pool.
	Mailto string `mapstructure:"mailto"`
}

// StubSourceConfig toggles a source that never returns results.
type StubSourceConfig struct {
	// Enabled controls whether the source appears in listings and searches.
	Enabled bool `mapstructure:"enabled"`
}

// KafkaConfig holds Kafka publisher settings.
type KafkaConfig struct {
	// Enabled controls whether search events are published.
	Enabled bool `mapstructure:"enabled"`
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `mapstructure:"brokers"`
	// Topic is the Kafka topic search events are published to.
	Topic string `mapstructure:"topic"`
	// BatchSize is the maximum number of messages to batch before sending.
	BatchSize int `mapstructure:"batch_size"`
	// BatchTimeout is the maximum time to wait for a batch to fill before sending.
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// TelegramConfig holds the Telegram Bot API settings.
type TelegramConfig struct {
	// BotToken is the bot token (loaded from PAPERSEARCH_TELEGRAM_BOT_TOKEN).
	// Sending is disabled when empty.
	BotToken string `mapstructure:"-"`
	// BaseURL is the Bot API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the per-call timeout.
	Timeout time.Duration `mapstructure:"timeout"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// UsesSQLite reports whether any component is configured to use the SQLite store.
func (c *Config) UsesSQLite() bool {
	return c.Cache.Backend == BackendSQLite || (c.History.Enabled && c.History.Backend == BackendSQLite)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration like Load, but reads the given file instead
// of searching the default locations when path is non-empty.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/paper-discovery")
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets come exclusively from environment variables.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
// These fields are tagged with mapstructure:"-" to prevent loading from config files.
func loadSecrets(cfg *Config) {
	cfg.LLM.Gemini.APIKey = firstEnv(EnvPrefix+"_LLM_GEMINI_API_KEY", "GEMINI_API_KEY")
	cfg.LLM.OpenAI.APIKey = firstEnv(EnvPrefix+"_LLM_OPENAI_API_KEY", "OPENAI_API_KEY")

	cfg.PaperSources.SemanticScholar.APIKey = firstEnv(EnvPrefix+"_PAPER_SOURCES_SEMANTIC_SCHOLAR_API_KEY", "SEMANTIC_SCHOLAR_API_KEY")
	cfg.PaperSources.PubMed.APIKey = firstEnv(EnvPrefix+"_PAPER_SOURCES_PUBMED_API_KEY", "PUBMED_API_KEY")

	cfg.Telegram.BotToken = firstEnv(EnvPrefix+"_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
}

// firstEnv returns the value of the first non-empty environment variable.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339Nano)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "paper_discovery")

	// Search defaults
	v.SetDefault("search.source_timeout", "12s")
	v.SetDefault("search.cancel_on_timeout", false)
	v.SetDefault("search.default_results_per_source", 10)
	v.SetDefault("search.max_results_per_source", 100)

	// Cache and history defaults
	v.SetDefault("cache.backend", BackendMemory)
	v.SetDefault("cache.freshness", "24h")
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.backend", BackendMemory)
	v.SetDefault("history.limit", 20)

	// Storage defaults
	v.SetDefault("storage.path", "paper-discovery.db")
	v.SetDefault("storage.busy_timeout", "5s")
	v.SetDefault("storage.migration_auto_run", true)

	// LLM defaults
	// API keys are loaded exclusively from environment variables (see loadSecrets).
	v.SetDefault("llm.provider", ProviderGemini)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_output_tokens", 2048)
	v.SetDefault("llm.gemini.model", "gemini-1.5-flash")
	v.SetDefault("llm.gemini.base_url", "")
	v.SetDefault("llm.gemini.top_k", 40)
	v.SetDefault("llm.gemini.top_p", 0.95)
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")

	// Paper sources defaults
	setSourceDefaults(v, "arxiv", "https://export.arxiv.org/api/query", 3.0) // arXiv asks for at most 3 req/sec
	v.SetDefault("paper_sources.arxiv.proxy_url", "")
	setSourceDefaults(v, "semantic_scholar", "https://api.semanticscholar.org/graph/v1", 10.0)
	setSourceDefaults(v, "pubmed", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils", 3.0) // NCBI limit without API key
	setSourceDefaults(v, "doaj", "https://doaj.org/api/v2", 5.0)
	setSourceDefaults(v, "crossref", "https://api.crossref.org", 10.0)
	v.SetDefault("paper_sources.crossref.mailto", "")
	setSourceDefaults(v, "researchgate", "https://api.crossref.org", 10.0)
	v.SetDefault("paper_sources.researchgate.mailto", "")
	v.SetDefault("paper_sources.google_scholar.enabled", true)
	v.SetDefault("paper_sources.ieee_xplore.enabled", true)

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "events.paper_discovery.search")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", "10ms")

	// Telegram defaults
	v.SetDefault("telegram.base_url", "https://api.telegram.org")
	v.SetDefault("telegram.timeout", "10s")
}

func setSourceDefaults(v *viper.Viper, name, baseURL string, rateLimit float64) {
	prefix := "paper_sources." + name + "."
	v.SetDefault(prefix+"enabled", true)
	v.SetDefault(prefix+"base_url", baseURL)
	v.SetDefault(prefix+"timeout", "10s")
	v.SetDefault(prefix+"rate_limit", rateLimit)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate search config
	if c.Search.SourceTimeout <= 0 {
		return fmt.Errorf("search source_timeout must be positive")
	}
	if c.Search.MaxResultsPerSource <= 0 {
		return fmt.Errorf("search max_results_per_source must be positive")
	}
	if c.Search.DefaultResultsPerSource <= 0 || c.Search.DefaultResultsPerSource > c.Search.MaxResultsPerSource {
		return fmt.Errorf("search default_results_per_source must be between 1 and %d", c.Search.MaxResultsPerSource)
	}

	// Validate storage backends
	if err := validateBackend("cache", c.Cache.Backend); err != nil {
		return err
	}
	if err := validateBackend("history", c.History.Backend); err != nil {
		return err
	}
	if c.Cache.Freshness <= 0 {
		return fmt.Errorf("cache freshness must be positive")
	}
	if c.History.Limit <= 0 {
		return fmt.Errorf("history limit must be positive")
	}
	if c.UsesSQLite() && c.Storage.Path == "" {
		return fmt.Errorf("storage path is required for the sqlite backend")
	}

	// A missing API key is not an error here: the assistant reports
	// "not configured" per request instead of failing startup.
	switch strings.ToLower(c.LLM.Provider) {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM timeout must be positive")
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required when kafka is enabled")
		}
	}

	return nil
}

func validateBackend(component, backend string) error {
	switch backend {
	case BackendMemory, BackendSQLite:
		return nil
	default:
		return fmt.Errorf("invalid %s backend: %q (want %s or %s)", component, backend, BackendMemory, BackendSQLite)
	}
}
