package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event type constants for published domain events.
const (
	EventTypeSearchCompleted = "search.completed"
)

// Event is an envelope for a domain event handed to a publisher.
type Event struct {
	EventID      string
	EventVersion int
	EventType    string
	AggregateID  string
	Payload      []byte
	SessionID    string
	CreatedAt    time.Time
}

// NewEvent creates an event with a JSON-serialized payload.
func NewEvent(eventType, aggregateID string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		EventID:      uuid.New().String(),
		EventVersion: 1,
		EventType:    eventType,
		AggregateID:  aggregateID,
		Payload:      payloadBytes,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// WithSession tags the event with the session that triggered it.
func (e *Event) WithSession(sessionID string) *Event {
	e.SessionID = sessionID
	return e
}

// SourceSummary is the per-source part of a SearchCompletedPayload.
type SourceSummary struct {
	Source SourceType `json:"source"`
	Count  int        `json:"count"`
	Error  string     `json:"error,omitempty"`
}

// SearchCompletedPayload is the payload of a search.completed event.
type SearchCompletedPayload struct {
	Query      string          `json:"query"`
	Sources    []string        `json:"sources"`
	PaperCount int             `json:"paperCount"`
	PerSource  []SourceSummary `json:"perSource"`
	OccurredAt time.Time       `json:"occurredAt"`
}
