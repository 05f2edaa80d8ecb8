package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/llm"
	"github.com/helixir/paper-discovery-service/internal/observability"
)

// Actions accepted by POST /api/llm.
const (
	actionSearchSuggestions = "getSearchSuggestions"
	actionAnalyzePaper      = "analyzePaper"
	actionResearchInsights  = "generateResearchInsights"
)

type llmRequest struct {
	Action        string         `json:"action" validate:"required"`
	UserQuery     string         `json:"userQuery" validate:"required_if=Action getSearchSuggestions"`
	PaperTitle    string         `json:"paperTitle" validate:"required_if=Action analyzePaper"`
	PaperAbstract string         `json:"paperAbstract"`
	Papers        []domain.Paper `json:"papers" validate:"required_if=Action generateResearchInsights"`
}

type streamRequest struct {
	Papers []domain.Paper `json:"papers" validate:"required"`
}

// handleLLM handles POST /api/llm. Suggestions and analyses are returned as
// the bare decoded JSON; insights are wrapped in {"insights": ...}.
func (s *Server) handleLLM(w http.ResponseWriter, r *http.Request) {
	var req llmRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.deps.Assistant.Configured() {
		s.writeLLMError(w, r, llm.ErrNotConfigured)
		return
	}

	switch req.Action {
	case actionSearchSuggestions, actionAnalyzePaper, actionResearchInsights:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown action: %q", req.Action))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	ctx := r.Context()
	switch req.Action {
	case actionSearchSuggestions:
		suggestions, err := s.deps.Assistant.SearchSuggestions(ctx, req.UserQuery)
		if err != nil {
			s.writeLLMError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, suggestions)

	case actionAnalyzePaper:
		analysis, err := s.deps.Assistant.AnalyzePaper(ctx, req.PaperTitle, req.PaperAbstract)
		if err != nil {
			s.writeLLMError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, analysis)

	case actionResearchInsights:
		insights, err := s.deps.Assistant.ResearchInsights(ctx, req.Papers)
		if err != nil {
			s.writeLLMError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, insightsResponse{Insights: insights})
	}
}

// streamInsights handles POST /api/llm/stream as server-sent events. Errors
// raised before the first chunk get a regular JSON error response.
func (s *Server) streamInsights(w http.ResponseWriter, r *http.Request) {
	var req streamRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.deps.Assistant.Configured() {
		s.writeLLMError(w, r, llm.ErrNotConfigured)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	started := false
	start := func() {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		started = true
	}

	err := s.deps.Assistant.StreamInsights(r.Context(), req.Papers, func(chunk string) error {
		if !started {
			start()
		}
		return sendSSEEvent(w, flusher, "chunk", chunkEvent{Text: chunk})
	})
	if err != nil {
		if !started {
			s.writeLLMError(w, r, err)
			return
		}
		if r.Context().Err() == nil {
			_ = sendSSEEvent(w, flusher, "error", errorResponse{Error: "Error generating insights"})
		}
		return
	}

	if !started {
		start()
	}
	_ = sendSSEEvent(w, flusher, "done", doneEvent{Done: true})
}

// sendSSEEvent writes one event frame and flushes it.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// writeLLMError maps assistant errors to the proxy's error bodies.
func (s *Server) writeLLMError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *llm.APIError
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		writeError(w, http.StatusInternalServerError, "LLM API key not configured")
	case errors.As(err, &apiErr) && apiErr.StatusCode >= http.StatusBadRequest:
		writeErrorDetails(w, apiErr.StatusCode, fmt.Sprintf("LLM API error: %d", apiErr.StatusCode), apiErr.Message)
	case errors.Is(err, llm.ErrUnstructuredResponse):
		writeError(w, http.StatusInternalServerError, "Could not parse JSON from model response")
	case errors.Is(err, llm.ErrEmptyResponse):
		writeError(w, http.StatusInternalServerError, "No content from LLM API")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "LLM request timed out")
	default:
		logger := observability.FromContext(r.Context(), s.logger)
		logger.Error().Err(err).Msg("LLM request failed")
		writeErrorDetails(w, http.StatusInternalServerError, "Internal server error", err.Error())
	}
}
