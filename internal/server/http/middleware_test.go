package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/helixir/paper-discovery-service/internal/observability"
)

func TestRequestContextMiddleware(t *testing.T) {
	tests := []struct {
		name        string
		session     string
		wantSession string
	}{
		{"valid session", "abc-123_x.y", "abc-123_x.y"},
		{"no session", "", ""},
		{"rejected session", "bad session/../id", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotSession, gotRequest string
			handler := middleware.RequestID(requestContextMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotSession = observability.SessionIDFromContext(r.Context())
				gotRequest = observability.RequestIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.session != "" {
				req.Header.Set(headerSessionID, tt.session)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantSession, gotSession)
			assert.NotEmpty(t, gotRequest)
			assert.Equal(t, gotRequest, rr.Header().Get(headerRequestID))
		})
	}
}

func TestAccessLogMiddleware_RecordsRoutePattern(t *testing.T) {
	deps := newTestDeps()
	deps.Metrics = observability.NewMetrics("test_httpserver_access")
	s := NewServer(Config{}, deps, zerolog.Nop())

	do(t, s, http.MethodGet, "/api/sources", "")
	do(t, s, http.MethodGet, "/api/arxiv", "")

	assert.Equal(t, float64(1), testutil.ToFloat64(deps.Metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/sources", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(deps.Metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/arxiv", "400")))
}
