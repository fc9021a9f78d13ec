package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/remote-pull-agent/internal/port"
)

// Telegram rejects messages above 4096 characters; leave headroom for
// the chunk markers appended below.
const maxMessageLen = 4000

// Notifier delivers operator reports through the Telegram Bot API
type Notifier struct {
	baseURL    string
	token      string
	chatID     string
	httpClient *http.Client
	logger     *zap.Logger
}

// Ensure Notifier implements port.Notifier
var _ port.Notifier = (*Notifier)(nil)

// NewNotifier creates a new Telegram notifier
func NewNotifier(token, chatID string, timeout time.Duration, logger *zap.Logger) *Notifier {
	return &Notifier{
		baseURL:    "https://api.telegram.org",
		token:      token,
		chatID:     chatID,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Notify sends a message to the configured chat, splitting it into
// chunks when it exceeds the API's message length limit
func (n *Notifier) Notify(ctx context.Context, message string) error {
	for idx, chunk := range SplitMessage(message, maxMessageLen) {
		if err := n.send(ctx, chunk); err != nil {
			return fmt.Errorf("failed to send chunk %d: %w", idx+1, err)
		}
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, text string) error {
	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    n.chatID,
		Text:      text,
		ParseMode: "Markdown",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call Telegram API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("failed to read Telegram response: %w", err)
	}

	var apiResp sendMessageResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return fmt.Errorf("failed to decode Telegram response: %w", err)
	}
	if !apiResp.OK {
		return fmt.Errorf("telegram API error: %s", apiResp.Description)
	}

	n.logger.Debug("notification sent", zap.Int("length", len(text)))
	return nil
}

// SplitMessage splits text into chunks of at most limit characters,
// cutting on line boundaries where possible
func SplitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	remaining := text
	for len(remaining) > limit {
		cut := limit
		// Prefer the last newline inside the window
		for i := limit; i > limit/2; i-- {
			if remaining[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, remaining[:cut])
		remaining = remaining[cut:]
	}
	if len(remaining) > 0 {
		chunks = append(chunks, remaining)
	}
	return chunks
}

// NopNotifier discards all messages. Used when no channel is configured
// so the orchestrator never has to special-case a nil notifier.
type NopNotifier struct{}

// Ensure NopNotifier implements port.Notifier
var _ port.Notifier = (*NopNotifier)(nil)

// Notify discards the message
func (NopNotifier) Notify(ctx context.Context, message string) error {
	return nil
}
