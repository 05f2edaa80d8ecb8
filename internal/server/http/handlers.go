package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/helixir/paper-discovery-service/internal/aggregator"
	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/observability"
)

// search handles POST /api/search.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req aggregator.Request
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := s.deps.Search.Search(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// listSources handles GET /api/sources.
func (s *Server) listSources(w http.ResponseWriter, _ *http.Request) {
	known := domain.KnownSources()
	resp := listSourcesResponse{Sources: make([]sourceStatusResponse, 0, len(known))}
	for _, st := range known {
		status := sourceStatusResponse{Name: st}
		if src := s.deps.Sources.Get(st); src != nil {
			status.Registered = true
			status.Enabled = src.IsEnabled()
		}
		resp.Sources = append(resp.Sources, status)
	}
	writeJSON(w, http.StatusOK, resp)
}

// listHistory handles GET /api/history.
func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.Search.History(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, historyResponse{History: entries})
}

// clearHistory handles DELETE /api/history.
func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Search.ClearHistory(r.Context()); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeDomainError maps service errors to HTTP status codes. Unexpected
// errors are logged and reported without detail.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limited")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "request timed out")
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		logger := observability.FromContext(r.Context(), s.logger)
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
