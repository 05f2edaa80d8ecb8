package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/helixir/paper-discovery-service/internal/aggregator"
	"github.com/helixir/paper-discovery-service/internal/database"
	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/llm"
	"github.com/helixir/paper-discovery-service/internal/notify"
	"github.com/helixir/paper-discovery-service/internal/papersources"
)

type mockSearchService struct {
	searchFunc       func(ctx context.Context, req aggregator.Request) (*aggregator.Outcome, error)
	historyFunc      func(ctx context.Context) ([]domain.HistoryEntry, error)
	clearHistoryFunc func(ctx context.Context) error
}

func (m *mockSearchService) Search(ctx context.Context, req aggregator.Request) (*aggregator.Outcome, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, req)
	}
	return &aggregator.Outcome{Results: []aggregator.SourceOutcome{}, Papers: []domain.Paper{}}, nil
}

func (m *mockSearchService) History(ctx context.Context) ([]domain.HistoryEntry, error) {
	if m.historyFunc != nil {
		return m.historyFunc(ctx)
	}
	return nil, nil
}

func (m *mockSearchService) ClearHistory(ctx context.Context) error {
	if m.clearHistoryFunc != nil {
		return m.clearHistoryFunc(ctx)
	}
	return nil
}

type mockAssistant struct {
	unconfigured    bool
	suggestionsFunc func(ctx context.Context, query string) ([]llm.SearchSuggestion, error)
	analyzeFunc     func(ctx context.Context, title, abstract string) (*llm.PaperAnalysis, error)
	insightsFunc    func(ctx context.Context, papers []domain.Paper) (string, error)
	streamFunc      func(ctx context.Context, papers []domain.Paper, onChunk func(string) error) error
}

func (m *mockAssistant) Configured() bool { return !m.unconfigured }

func (m *mockAssistant) SearchSuggestions(ctx context.Context, query string) ([]llm.SearchSuggestion, error) {
	if m.suggestionsFunc != nil {
		return m.suggestionsFunc(ctx, query)
	}
	return nil, llm.ErrNotConfigured
}

func (m *mockAssistant) AnalyzePaper(ctx context.Context, title, abstract string) (*llm.PaperAnalysis, error) {
	if m.analyzeFunc != nil {
		return m.analyzeFunc(ctx, title, abstract)
	}
	return nil, llm.ErrNotConfigured
}

func (m *mockAssistant) ResearchInsights(ctx context.Context, papers []domain.Paper) (string, error) {
	if m.insightsFunc != nil {
		return m.insightsFunc(ctx, papers)
	}
	return "", llm.ErrNotConfigured
}

func (m *mockAssistant) StreamInsights(ctx context.Context, papers []domain.Paper, onChunk func(string) error) error {
	if m.streamFunc != nil {
		return m.streamFunc(ctx, papers, onChunk)
	}
	return llm.ErrNotConfigured
}

type mockArXiv struct {
	rawFunc func(ctx context.Context, query string, maxResults int) ([]byte, error)
}

func (m *mockArXiv) Raw(ctx context.Context, query string, maxResults int) ([]byte, error) {
	return m.rawFunc(ctx, query, maxResults)
}

type mockNotifier struct {
	configured bool
	sendFunc   func(ctx context.Context, chatID, text string) (*notify.Result, error)
}

func (m *mockNotifier) Configured() bool { return m.configured }

func (m *mockNotifier) Send(ctx context.Context, chatID, text string) (*notify.Result, error) {
	return m.sendFunc(ctx, chatID, text)
}

type mockSource struct {
	sourceType domain.SourceType
	enabled    bool
}

func (m *mockSource) Search(context.Context, papersources.SearchParams) (*papersources.SearchResult, error) {
	return &papersources.SearchResult{}, nil
}
func (m *mockSource) SourceType() domain.SourceType { return m.sourceType }
func (m *mockSource) Name() string                  { return string(m.sourceType) }
func (m *mockSource) IsEnabled() bool               { return m.enabled }

type mockHealth struct {
	status database.HealthStatus
}

func (m *mockHealth) Health(context.Context) database.HealthStatus { return m.status }

func newTestDeps() Deps {
	registry := papersources.NewRegistry()
	registry.Register(&mockSource{sourceType: domain.SourceTypeArXiv, enabled: true})
	registry.Register(&mockSource{sourceType: domain.SourceTypeGoogleScholar, enabled: false})
	return Deps{
		Search:    &mockSearchService{},
		Assistant: &mockAssistant{},
		ArXiv: &mockArXiv{rawFunc: func(context.Context, string, int) ([]byte, error) {
			return []byte("<feed/>"), nil
		}},
		Notifier: &mockNotifier{},
		Sources:  registry,
	}
}

func newTestServer(deps Deps) *Server {
	return NewServer(Config{Address: ":0"}, deps, zerolog.Nop())
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}
