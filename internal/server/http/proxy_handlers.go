package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/notify"
	"github.com/helixir/paper-discovery-service/internal/observability"
)

const (
	defaultArXivMaxResults = 50
	maxArXivMaxResults     = 2000

	ieeePendingMessage     = "IEEE search endpoint - implementation pending"
	telegramPendingMessage = "Telegram send endpoint - implementation pending"
)

type ieeeRequest struct {
	Query string `json:"query" validate:"required"`
}

type telegramRequest struct {
	Message string     `json:"message" validate:"required"`
	ChatID  flexibleID `json:"chatId" validate:"required"`
}

// proxyArXiv handles GET /api/arxiv and returns the upstream feed untouched.
func (s *Server) proxyArXiv(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "Query parameter is required")
		return
	}

	maxResults := defaultArXivMaxResults
	if raw := r.URL.Query().Get("maxResults"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			maxResults = min(n, maxArXivMaxResults)
		}
	}

	body, err := s.deps.ArXiv.Raw(r.Context(), query, maxResults)
	if err != nil {
		var rateErr *domain.RateLimitError
		var apiErr *domain.ExternalAPIError
		switch {
		case errors.As(err, &rateErr):
			writeError(w, http.StatusTooManyRequests, fmt.Sprintf("arXiv API error: %d", http.StatusTooManyRequests))
		case errors.As(err, &apiErr) && apiErr.StatusCode > 0:
			writeError(w, apiErr.StatusCode, fmt.Sprintf("arXiv API error: %d", apiErr.StatusCode))
		default:
			writeErrorDetails(w, http.StatusInternalServerError, "Failed to fetch from arXiv", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// searchIEEE handles POST /api/search-ieee. IEEE Xplore has no integration
// yet, so the endpoint echoes the query with no results.
func (s *Server) searchIEEE(w http.ResponseWriter, r *http.Request) {
	var req ieeeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	writeJSON(w, http.StatusOK, ieeeResponse{
		Message: ieeePendingMessage,
		Query:   req.Query,
		Results: []domain.Paper{},
	})
}

// sendTelegram handles POST /api/telegram/send.
func (s *Server) sendTelegram(w http.ResponseWriter, r *http.Request) {
	var req telegramRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Message and chatId are required")
		return
	}

	if s.deps.Notifier == nil || !s.deps.Notifier.Configured() {
		writeJSON(w, http.StatusOK, telegramResponse{Message: telegramPendingMessage, Sent: false})
		return
	}

	result, err := s.deps.Notifier.Send(r.Context(), string(req.ChatID), req.Message)
	if err != nil {
		logger := observability.FromContext(r.Context(), s.logger)
		logger.Warn().Err(err).Msg("telegram send failed")

		var apiErr *notify.APIError
		if errors.As(err, &apiErr) {
			writeErrorDetails(w, http.StatusBadGateway, fmt.Sprintf("Telegram API error: %d", apiErr.StatusCode), apiErr.Description)
			return
		}
		writeErrorDetails(w, http.StatusBadGateway, "Failed to send Telegram message", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, telegramResponse{Message: "Message sent", Sent: true, MessageID: result.MessageID})
}
