package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIConfig holds the parameters needed to create an OpenAI provider.
// This is defined in the llm package to avoid importing the config package.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key.
	APIKey string
	// Model is the model identifier (e.g., "gpt-4o-mini").
	Model string
	// BaseURL is the API base URL (empty means default). Any
	// OpenAI-compatible endpoint works.
	BaseURL string
}

// OpenAIProvider implements Completer using the Chat Completions API.
type OpenAIProvider struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
}

var _ Completer = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates an OpenAI provider. The SDK's own retries are
// disabled.
func NewOpenAIProvider(cfg OpenAIConfig, gen GenerationConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	gen.applyDefaults()

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(gen.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIProvider{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: gen.Temperature,
		maxTokens:   gen.MaxOutputTokens,
	}, nil
}

func (p *OpenAIProvider) params(prompt string) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature:         openai.Float(p.temperature),
		MaxCompletionTokens: openai.Int(int64(p.maxTokens)),
	}
}

// Complete sends prompt as a single user message.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, p.params(prompt))
	if err != nil {
		return "", wrapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream sends prompt and forwards each content delta.
func (p *OpenAIProvider) Stream(ctx context.Context, prompt string, onChunk func(string) error) error {
	stream := p.client.Chat.Completions.NewStreaming(ctx, p.params(prompt))
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		if err := onChunk(chunk.Choices[0].Delta.Content); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		return wrapOpenAIError(err)
	}
	return nil
}

// Provider returns the name of the LLM provider.
func (p *OpenAIProvider) Provider() string {
	return ProviderOpenAI
}

// Model returns the model identifier being used.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// wrapOpenAIError turns an *openai.Error into an *APIError.
func wrapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = strings.TrimSpace(apiErr.RawJSON())
		}
		return &APIError{
			Provider:   ProviderOpenAI,
			StatusCode: apiErr.StatusCode,
			Message:    msg,
			Type:       apiErr.Type,
			Code:       apiErr.Code,
		}
	}
	return fmt.Errorf("openai: request failed: %w", err)
}
