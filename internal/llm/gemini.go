package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Default values for the Gemini provider.
const (
	defaultGeminiModel     = "gemini-1.5-flash"
	defaultGeminiTopK      = 40
	defaultGeminiTopP      = 0.95
	defaultMaxOutputTokens = 2048
	defaultTemperature     = 0.7
	defaultTimeout         = 60 * time.Second
)

// GeminiConfig holds the parameters needed to create a Gemini provider.
// This is defined in the llm package to avoid importing the config package.
type GeminiConfig struct {
	// APIKey is the Gemini API key.
	APIKey string
	// Model is the model identifier (e.g., "gemini-1.5-flash").
	Model string
	// BaseURL overrides the API endpoint (empty means default).
	BaseURL string
	// TopK and TopP are the sampling parameters.
	TopK float64
	TopP float64
}

// GenerationConfig holds the settings shared by all providers.
type GenerationConfig struct {
	Temperature     float64
	MaxOutputTokens int
	Timeout         time.Duration
}

func (g *GenerationConfig) applyDefaults() {
	if g.Temperature == 0 {
		g.Temperature = defaultTemperature
	}
	if g.MaxOutputTokens <= 0 {
		g.MaxOutputTokens = defaultMaxOutputTokens
	}
	if g.Timeout <= 0 {
		g.Timeout = defaultTimeout
	}
}

// GeminiProvider implements Completer using the Gemini generateContent API.
type GeminiProvider struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

var _ Completer = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini provider. The key must be non-empty.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig, gen GenerationConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.TopK == 0 {
		cfg.TopK = defaultGeminiTopK
	}
	if cfg.TopP == 0 {
		cfg.TopP = defaultGeminiTopP
	}
	gen.applyDefaults()

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: gen.Timeout},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}

	temperature := float32(gen.Temperature)
	topK := float32(cfg.TopK)
	topP := float32(cfg.TopP)

	return &GeminiProvider{
		client: client,
		model:  cfg.Model,
		config: &genai.GenerateContentConfig{
			Temperature:     &temperature,
			TopK:            &topK,
			TopP:            &topP,
			MaxOutputTokens: int32(gen.MaxOutputTokens),
		},
	}, nil
}

// Complete sends prompt as a single user turn.
func (p *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), p.config)
	if err != nil {
		return "", wrapGeminiError(err)
	}
	return resp.Text(), nil
}

// Stream sends prompt and forwards each text part as it arrives.
func (p *GeminiProvider) Stream(ctx context.Context, prompt string, onChunk func(string) error) error {
	for resp, err := range p.client.Models.GenerateContentStream(ctx, p.model, genai.Text(prompt), p.config) {
		if err != nil {
			return wrapGeminiError(err)
		}
		if resp == nil {
			continue
		}
		if text := resp.Text(); text != "" {
			if err := onChunk(text); err != nil {
				return err
			}
		}
	}
	return nil
}

// Provider returns the name of the LLM provider.
func (p *GeminiProvider) Provider() string {
	return ProviderGemini
}

// Model returns the model identifier being used.
func (p *GeminiProvider) Model() string {
	return p.model
}

// wrapGeminiError turns a genai.APIError into an *APIError.
func wrapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			Provider:   ProviderGemini,
			StatusCode: apiErr.Code,
			Message:    strings.TrimSpace(apiErr.Message),
			Type:       apiErr.Status,
		}
	}
	return fmt.Errorf("gemini: request failed: %w", err)
}
