// Package whatsapp sends messages through the WhatsApp Cloud API and
// decodes its webhook payloads.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"roadchal/internal/observability"
)

// ErrSendFailed is returned when the Graph API rejects a message.
var ErrSendFailed = errors.New("whatsapp send failed")

// Messenger delivers a text message to a phone number.
type Messenger interface {
	SendText(ctx context.Context, to, text string) error
}

// Client is a WhatsApp Cloud API client.
type Client struct {
	graphURL      string
	token         string
	phoneNumberID string
	client        *http.Client
	logger        *zap.Logger
}

// NewClient creates a new Client. With an empty token or phone number id
// messages are logged and dropped.
func NewClient(graphURL, token, phoneNumberID string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		graphURL:      graphURL,
		token:         token,
		phoneNumberID: phoneNumberID,
		client:        &http.Client{Timeout: timeout},
		logger:        logger,
	}
}

type textMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, to, text string) (err error) {
	if c.token == "" || c.phoneNumberID == "" {
		c.logger.Warn("whatsapp not configured, dropping message", zap.String("to", to))
		observability.WhatsAppMessagesSentTotal.WithLabelValues("dropped").Inc()
		return nil
	}

	defer func() {
		status := observability.UpstreamStatus(err)
		observability.WhatsAppMessagesSentTotal.WithLabelValues(status).Inc()
		observability.UpstreamCallsTotal.WithLabelValues("whatsapp", status).Inc()
	}()

	msg := textMessage{MessagingProduct: "whatsapp", To: to}
	msg.Text.Body = text

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.graphURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", ErrSendFailed, resp.StatusCode, bytes.TrimSpace(body))
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
