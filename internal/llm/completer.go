// Package llm provides the research assistant built on a large language
// model: search refinement, single-paper analysis and cross-paper insights.
//
// A Completer talks to one provider (Gemini or an OpenAI-compatible API).
// Assistant builds the prompts and parses the replies strictly; any reply
// that does not match the expected JSON shape is reported as
// ErrUnstructuredResponse. FallbackAssistant wraps an Assistant for callers
// that want empty results instead of errors.
//
// Example usage:
//
//	completer, err := llm.NewCompleter(ctx, llm.FactoryConfig{Provider: "gemini", Gemini: llm.GeminiConfig{APIKey: key}})
//	assistant := llm.NewAssistant(completer, metrics, logger)
//	suggestions, err := assistant.SearchSuggestions(ctx, "protein folding")
package llm

import "context"

// Completer sends a single prompt to a provider and returns its text reply.
type Completer interface {
	// Complete returns the model's full reply to prompt.
	Complete(ctx context.Context, prompt string) (string, error)

	// Stream calls onChunk with each piece of the reply as it arrives. An
	// error from onChunk stops the stream and is returned.
	Stream(ctx context.Context, prompt string, onChunk func(chunk string) error) error

	// Provider returns the name of the LLM provider (e.g., "gemini", "openai").
	Provider() string

	// Model returns the model identifier being used.
	Model() string
}

// unconfigured is the Completer used when no API key is available. Every
// call fails with ErrNotConfigured.
type unconfigured struct {
	provider string
	model    string
}

func (u unconfigured) Complete(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

func (u unconfigured) Stream(context.Context, string, func(string) error) error {
	return ErrNotConfigured
}

func (u unconfigured) Provider() string { return u.provider }
func (u unconfigured) Model() string    { return u.model }
