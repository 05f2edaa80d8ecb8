package llm

import "context"

// mockCompleter is a function-field Completer for tests.
type mockCompleter struct {
	completeFunc func(ctx context.Context, prompt string) (string, error)
	streamFunc   func(ctx context.Context, prompt string, onChunk func(string) error) error
	lastPrompt   string
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.lastPrompt = prompt
	return m.completeFunc(ctx, prompt)
}

func (m *mockCompleter) Stream(ctx context.Context, prompt string, onChunk func(string) error) error {
	m.lastPrompt = prompt
	return m.streamFunc(ctx, prompt, onChunk)
}

func (m *mockCompleter) Provider() string { return "mock" }
func (m *mockCompleter) Model() string    { return "mock-model" }

func replying(text string, err error) *mockCompleter {
	return &mockCompleter{
		completeFunc: func(context.Context, string) (string, error) { return text, err },
	}
}
