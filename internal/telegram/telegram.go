// Package telegram is a minimal Telegram Bot API client covering what the
// intake bot needs: sending messages with optional reply keyboards, posting
// staff notifications to a group, and registering a webhook.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultBaseURL is the production Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

const defaultTimeout = 30 * time.Second

// Update is an incoming Bot API update. Only message updates are relevant to
// the bot; everything else arrives with Message nil and is ignored upstream.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is the subset of a Telegram message the bot reads.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
}

type User struct {
	ID int64 `json:"id"`
}

type Chat struct {
	ID int64 `json:"id"`
}

// Keyboard describes a one-off reply keyboard: rows of button labels.
type Keyboard struct {
	Rows    [][]string
	OneTime bool
}

// Client talks to the Telegram Bot API for a single bot token.
type Client struct {
	token   string
	groupID string
	baseURL string
	httpc   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithGroupID sets the staff group chat that receives booking notifications.
func WithGroupID(id string) Option {
	return func(c *Client) { c.groupID = id }
}

// WithBaseURL overrides the Bot API endpoint. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// NewClient creates a Bot API client.
func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram: bot token is required")
	}
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SendMessage sends plain text to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.call(ctx, "sendMessage", map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	})
}

// SendMessageWithKeyboard sends text together with a reply keyboard.
func (c *Client) SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, kb Keyboard) error {
	buttons := make([][]map[string]string, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		out := make([]map[string]string, 0, len(row))
		for _, label := range row {
			out = append(out, map[string]string{"text": label})
		}
		buttons = append(buttons, out)
	}
	return c.call(ctx, "sendMessage", map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
		"reply_markup": map[string]interface{}{
			"keyboard":          buttons,
			"one_time_keyboard": kb.OneTime,
			"resize_keyboard":   true,
		},
	})
}

// SendMessageRemovingKeyboard sends text and removes any reply keyboard the
// chat currently shows.
func (c *Client) SendMessageRemovingKeyboard(ctx context.Context, chatID int64, text string) error {
	return c.call(ctx, "sendMessage", map[string]interface{}{
		"chat_id":      chatID,
		"text":         text,
		"reply_markup": map[string]interface{}{"remove_keyboard": true},
	})
}

// Notify posts text to the configured staff group.
func (c *Client) Notify(ctx context.Context, text string) error {
	if c.groupID == "" {
		return fmt.Errorf("telegram: no group chat configured")
	}
	return c.call(ctx, "sendMessage", map[string]interface{}{
		"chat_id": c.groupID,
		"text":    text,
	})
}

// SetWebhook points the bot's webhook at the given URL.
func (c *Client) SetWebhook(ctx context.Context, url string) error {
	return c.call(ctx, "setWebhook", map[string]interface{}{
		"url": url,
	})
}

// apiResponse is the Bot API envelope; every method reports ok plus an
// optional description on failure.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

func (c *Client) call(ctx context.Context, method string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !parsed.OK {
		slog.Error("Client.call: API error", "method", method, "status", resp.StatusCode, "description", parsed.Description)
		return fmt.Errorf("%s failed: %s", method, parsed.Description)
	}
	slog.Debug("Client.call: API call succeeded", "method", method)
	return nil
}
