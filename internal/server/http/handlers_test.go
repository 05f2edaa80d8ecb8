package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/paper-discovery-service/internal/aggregator"
	"github.com/helixir/paper-discovery-service/internal/database"
	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/observability"
)

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestSearch(t *testing.T) {
	t.Run("returns outcome", func(t *testing.T) {
		deps := newTestDeps()
		var got aggregator.Request
		deps.Search = &mockSearchService{searchFunc: func(_ context.Context, req aggregator.Request) (*aggregator.Outcome, error) {
			got = req
			paper := domain.Paper{Title: "Attention", Source: domain.SourceTypeArXiv}
			return &aggregator.Outcome{
				Results: []aggregator.SourceOutcome{{Source: domain.SourceTypeArXiv, Papers: []domain.Paper{paper}, Count: 1}},
				Papers:  []domain.Paper{paper},
			}, nil
		}}
		s := newTestServer(deps)

		rr := do(t, s, http.MethodPost, "/api/search", `{"query":"attention","sources":["arXiv"],"resultsPerSource":5}`)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, aggregator.Request{Query: "attention", Sources: []string{"arXiv"}, ResultsPerSource: 5}, got)
		body := decodeJSON(t, rr)
		assert.Len(t, body["results"], 1)
		assert.Len(t, body["allPapers"], 1)
	})

	t.Run("validation error is 400", func(t *testing.T) {
		deps := newTestDeps()
		deps.Search = &mockSearchService{searchFunc: func(context.Context, aggregator.Request) (*aggregator.Outcome, error) {
			return nil, domain.NewValidationError("query", "is required")
		}}
		s := newTestServer(deps)

		rr := do(t, s, http.MethodPost, "/api/search", `{"query":""}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decodeJSON(t, rr)["error"], "query")
	})

	t.Run("malformed body", func(t *testing.T) {
		s := newTestServer(newTestDeps())
		rr := do(t, s, http.MethodPost, "/api/search", `{"query":`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "invalid JSON request body", decodeJSON(t, rr)["error"])
	})

	t.Run("unexpected error is 500", func(t *testing.T) {
		deps := newTestDeps()
		deps.Search = &mockSearchService{searchFunc: func(context.Context, aggregator.Request) (*aggregator.Outcome, error) {
			return nil, errors.New("boom")
		}}
		s := newTestServer(deps)

		rr := do(t, s, http.MethodPost, "/api/search", `{"query":"x"}`)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "Internal server error", decodeJSON(t, rr)["error"])
	})

	t.Run("service errors map to status", func(t *testing.T) {
		tests := []struct {
			name       string
			err        error
			wantStatus int
			wantError  string
		}{
			{"wrapped deadline", fmt.Errorf("search: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "request timed out"},
			{"cancelled", fmt.Errorf("search: %w", context.Canceled), http.StatusServiceUnavailable, "request cancelled"},
			{"rate limited", domain.NewRateLimitError("arXiv", 0), http.StatusTooManyRequests, "rate limited"},
			{"upstream 5xx", domain.NewExternalAPIError("arXiv", http.StatusBadGateway, "bad gateway", nil), http.StatusServiceUnavailable, "service unavailable"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				deps := newTestDeps()
				deps.Search = &mockSearchService{searchFunc: func(context.Context, aggregator.Request) (*aggregator.Outcome, error) {
					return nil, tt.err
				}}
				s := newTestServer(deps)

				rr := do(t, s, http.MethodPost, "/api/search", `{"query":"x"}`)

				assert.Equal(t, tt.wantStatus, rr.Code)
				assert.Equal(t, tt.wantError, decodeJSON(t, rr)["error"])
			})
		}
	})
}

func TestListSources(t *testing.T) {
	s := newTestServer(newTestDeps())

	rr := do(t, s, http.MethodGet, "/api/sources", "")

	require.Equal(t, http.StatusOK, rr.Code)
	var resp listSourcesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Sources, len(domain.KnownSources()))

	byName := map[domain.SourceType]sourceStatusResponse{}
	for _, st := range resp.Sources {
		byName[st.Name] = st
	}
	assert.Equal(t, sourceStatusResponse{Name: domain.SourceTypeArXiv, Registered: true, Enabled: true}, byName[domain.SourceTypeArXiv])
	assert.Equal(t, sourceStatusResponse{Name: domain.SourceTypeGoogleScholar, Registered: true}, byName[domain.SourceTypeGoogleScholar])
	assert.Equal(t, sourceStatusResponse{Name: domain.SourceTypePubMed}, byName[domain.SourceTypePubMed])
	assert.Equal(t, domain.SourceTypeArXiv, resp.Sources[0].Name)
}

func TestHistory(t *testing.T) {
	t.Run("list uses the session header", func(t *testing.T) {
		deps := newTestDeps()
		var session string
		deps.Search = &mockSearchService{historyFunc: func(ctx context.Context) ([]domain.HistoryEntry, error) {
			session = observability.SessionIDFromContext(ctx)
			return []domain.HistoryEntry{{ID: "h1", Query: "q", Sources: []string{"arXiv"}, Papers: []domain.Paper{}}}, nil
		}}
		s := newTestServer(deps)

		req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
		req.Header.Set(headerSessionID, "browser-42")
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "browser-42", session)
		var resp historyResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.History, 1)
		assert.Equal(t, "h1", resp.History[0].ID)
	})

	t.Run("empty list is an array", func(t *testing.T) {
		s := newTestServer(newTestDeps())
		rr := do(t, s, http.MethodGet, "/api/history", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"history":[]}`, rr.Body.String())
	})

	t.Run("clear", func(t *testing.T) {
		deps := newTestDeps()
		cleared := false
		deps.Search = &mockSearchService{clearHistoryFunc: func(context.Context) error {
			cleared = true
			return nil
		}}
		s := newTestServer(deps)

		rr := do(t, s, http.MethodDelete, "/api/history", "")

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.True(t, cleared)
	})
}

func TestHealthAndReadiness(t *testing.T) {
	t.Run("liveness", func(t *testing.T) {
		rr := do(t, newTestServer(newTestDeps()), http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	})

	t.Run("ready without a database", func(t *testing.T) {
		rr := do(t, newTestServer(newTestDeps()), http.MethodGet, "/readyz", "")
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("unhealthy database", func(t *testing.T) {
		deps := newTestDeps()
		deps.DB = &mockHealth{status: database.HealthStatus{Status: "unhealthy", Error: "database is locked"}}
		rr := do(t, newTestServer(deps), http.MethodGet, "/readyz", "")
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Equal(t, "database is locked", decodeJSON(t, rr)["error"])
	})

	t.Run("healthy database", func(t *testing.T) {
		deps := newTestDeps()
		deps.DB = &mockHealth{status: database.HealthStatus{Status: "healthy"}}
		rr := do(t, newTestServer(deps), http.MethodGet, "/readyz", "")
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestRouting(t *testing.T) {
	s := newTestServer(newTestDeps())

	rr := do(t, s, http.MethodGet, "/api/search-ieee", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "Method not allowed", decodeJSON(t, rr)["error"])

	rr = do(t, s, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
