package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Sender delivers one text message.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// HTTPGateway posts messages to an SMS provider's JSON endpoint.
type HTTPGateway struct {
	url      string
	apiKey   string
	senderID string
	client   *http.Client
}

func NewHTTPGateway(url, apiKey, senderID string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		url:      url,
		apiKey:   apiKey,
		senderID: senderID,
		client:   &http.Client{Timeout: timeout},
	}
}

type gatewayRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message"`
}

func (g *HTTPGateway) Send(ctx context.Context, phone, message string) error {
	if phone == "" {
		return fmt.Errorf("sms recipient is empty")
	}

	payload, err := json.Marshal(gatewayRequest{From: g.senderID, To: phone, Message: message})
	if err != nil {
		return fmt.Errorf("encode sms: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}

// LogSender only logs messages. Used when no gateway is configured.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, phone, message string) error {
	s.log.Info("SMS (not sent, no gateway configured)", zap.String("to", phone), zap.String("message", message))
	return nil
}
