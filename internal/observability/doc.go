// Package observability provides logging, metrics and context helpers for
// the paper discovery service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for searches, sources, the paper cache and LLM calls
//   - Context helpers for propagating request and session identifiers
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("query", q).Msg("search started")
//
// Enrich a logger with the identifiers carried by a request context:
//
//	logger = observability.FromContext(ctx, logger)
//
// # Metrics
//
//	metrics := observability.NewMetrics("paper_discovery")
//	metrics.RecordSourceFetch("arXiv", observability.OutcomeSuccess, 0.42, 10)
//	metrics.RecordCacheHit("CrossRef")
//
// # Context Helpers
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	ctx = observability.WithSessionID(ctx, sessionID)
//
// The session ID scopes cache entries and search history to one client.
//
// # Standard Fields
//
//   - request_id: HTTP request identifier
//   - session_id: Client session identifier
//   - query: Free-text search query
//   - source: Paper source display name (arXiv, CrossRef, ...)
//   - llm_provider, llm_model: LLM backend in use
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
