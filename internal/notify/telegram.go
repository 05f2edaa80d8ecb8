// Package notify sends search results to chat channels. Telegram is the
// only channel.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Default values for the Telegram client.
const (
	DefaultTelegramBaseURL = "https://api.telegram.org"
	defaultTelegramTimeout = 10 * time.Second
	maxTelegramResponse    = 1 << 20
)

// ErrNotConfigured is returned by Send when no bot token is set.
var ErrNotConfigured = errors.New("telegram bot token not configured")

// TelegramConfig holds the Bot API settings.
type TelegramConfig struct {
	// BotToken authenticates the bot. Empty disables sending.
	BotToken string
	// BaseURL is the Bot API base URL (empty means default).
	BaseURL string
	// Timeout bounds each request.
	Timeout time.Duration
}

// APIError is a Bot API failure.
type APIError struct {
	StatusCode  int
	ErrorCode   int
	Description string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: API error (status %d, code %d): %s", e.StatusCode, e.ErrorCode, e.Description)
}

// Result is the outcome of a delivered message.
type Result struct {
	MessageID int64 `json:"messageId"`
	ChatID    int64 `json:"chatId"`
}

// Telegram sends messages through the Bot API sendMessage method.
type Telegram struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     zerolog.Logger
}

// NewTelegram creates a Telegram client.
func NewTelegram(cfg TelegramConfig, logger zerolog.Logger) *Telegram {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTelegramBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTelegramTimeout
	}
	return &Telegram{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.BotToken,
		logger:     logger.With().Str("component", "telegram").Logger(),
	}
}

// Configured reports whether a bot token is set.
func (t *Telegram) Configured() bool {
	return t.token != ""
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type botResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
		Chat      struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"result"`
}

// Send posts text to chatID. chatID may be a numeric ID or an @channel name.
func (t *Telegram) Send(ctx context.Context, chatID, text string) (*Result, error) {
	if !t.Configured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return nil, fmt.Errorf("telegram: failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("telegram: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		// The URL carries the token; report only the cause.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("telegram: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxTelegramResponse))
	if err != nil {
		return nil, fmt.Errorf("telegram: failed to read response body: %w", err)
	}

	var parsed botResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Description: strings.TrimSpace(string(raw))}
	}
	if resp.StatusCode != http.StatusOK || !parsed.OK {
		return nil, &APIError{StatusCode: resp.StatusCode, ErrorCode: parsed.ErrorCode, Description: parsed.Description}
	}

	t.logger.Debug().Int64("message_id", parsed.Result.MessageID).Msg("telegram message sent")
	return &Result{MessageID: parsed.Result.MessageID, ChatID: parsed.Result.Chat.ID}, nil
}
