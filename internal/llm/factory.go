package llm

import (
	"context"
	"errors"
	"fmt"
)

// Provider names accepted by NewCompleter.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// FactoryConfig holds the parameters needed to create a Completer.
// This is defined in the llm package to avoid importing the config package,
// keeping the llm package free of infrastructure dependencies.
type FactoryConfig struct {
	// Provider is the LLM provider name ("gemini" or "openai").
	Provider string
	// Generation holds temperature, token and timeout settings.
	Generation GenerationConfig
	// Gemini contains Gemini-specific settings.
	Gemini GeminiConfig
	// OpenAI contains OpenAI-specific settings.
	OpenAI OpenAIConfig
}

// NewCompleter creates a Completer for the configured provider. A missing
// API key is not an error here: the returned Completer fails every call with
// ErrNotConfigured so the service can still start. An unsupported provider
// is an error.
func NewCompleter(ctx context.Context, cfg FactoryConfig) (Completer, error) {
	var (
		c   Completer
		err error
	)
	switch cfg.Provider {
	case ProviderGemini:
		c, err = NewGeminiProvider(ctx, cfg.Gemini, cfg.Generation)
		if errors.Is(err, ErrNotConfigured) {
			return unconfigured{provider: ProviderGemini, model: modelOr(cfg.Gemini.Model, defaultGeminiModel)}, nil
		}
	case ProviderOpenAI:
		c, err = NewOpenAIProvider(cfg.OpenAI, cfg.Generation)
		if errors.Is(err, ErrNotConfigured) {
			return unconfigured{provider: ProviderOpenAI, model: modelOr(cfg.OpenAI.Model, defaultOpenAIModel)}, nil
		}
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// IsConfigured reports whether c can reach a provider.
func IsConfigured(c Completer) bool {
	_, missing := c.(unconfigured)
	return !missing
}

func modelOr(model, def string) string {
	if model == "" {
		return def
	}
	return model
}
