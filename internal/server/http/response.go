package httpserver

import (
	"encoding/json"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type sourceStatusResponse struct {
	Name       domain.SourceType `json:"name"`
	Registered bool              `json:"registered"`
	Enabled    bool              `json:"enabled"`
}

type listSourcesResponse struct {
	Sources []sourceStatusResponse `json:"sources"`
}

type historyResponse struct {
	History []domain.HistoryEntry `json:"history"`
}

type insightsResponse struct {
	Insights string `json:"insights"`
}

type ieeeResponse struct {
	Message string         `json:"message"`
	Query   string         `json:"query"`
	Results []domain.Paper `json:"results"`
}

type telegramResponse struct {
	Message   string `json:"message"`
	Sent      bool   `json:"sent"`
	MessageID int64  `json:"messageId,omitempty"`
}

type chunkEvent struct {
	Text string `json:"text"`
}

type doneEvent struct {
	Done bool `json:"done"`
}

// flexibleID accepts a JSON string or number. Telegram chat IDs arrive as
// either depending on the client.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}
