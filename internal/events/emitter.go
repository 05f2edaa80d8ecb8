package events

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

// DefaultServiceName identifies this service in event headers.
const DefaultServiceName = "paper-discovery-service"

// SearchCompleted is the wire form of a search.completed event.
type SearchCompleted struct {
	EventID string `json:"eventId"`
	domain.SearchCompletedPayload `yaml:",inline"`
}

// EmitterConfig configures the Emitter with service context.
type EmitterConfig struct {
	// ServiceName identifies the source service.
	ServiceName string
}

// Emitter creates domain events enriched with service context.
type Emitter struct {
	config EmitterConfig
}

// NewEmitter creates a new Emitter with the given service configuration.
func NewEmitter(config EmitterConfig) *Emitter {
	if config.ServiceName == "" {
		config.ServiceName = DefaultServiceName
	}
	return &Emitter{config: config}
}

// ServiceName returns the configured source service name.
func (e *Emitter) ServiceName() string {
	return e.config.ServiceName
}

// SearchCompleted builds a search.completed event. sessionID may be empty.
func (e *Emitter) SearchCompleted(sessionID string, payload domain.SearchCompletedPayload) (*domain.Event, error) {
	if payload.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if payload.Sources == nil {
		payload.Sources = []string{}
	}
	if payload.PerSource == nil {
		payload.PerSource = []domain.SourceSummary{}
	}

	id := uuid.NewString()
	event, err := domain.NewEvent(domain.EventTypeSearchCompleted, id, SearchCompleted{
		EventID:                id,
		SearchCompletedPayload: payload,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	event.EventID = id
	if !payload.OccurredAt.IsZero() {
		event.CreatedAt = payload.OccurredAt
	}
	return event.WithSession(sessionID), nil
}
