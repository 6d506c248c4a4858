package webhook

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

// Sender delivers a text reply back to a party.
type Sender interface {
	Send(ctx context.Context, toPhone, text string) error
}

// CloudAPISender sends replies through the Meta WhatsApp Cloud API.
// With no API token configured it degrades to logging the reply, which is
// how local development against the simulator or curl works.
type CloudAPISender struct {
	token         string
	phoneNumberID string
	http          *http.Client
}

// NewCloudAPISender creates a sender for the given Cloud API credentials.
func NewCloudAPISender(token, phoneNumberID string) *CloudAPISender {
	return &CloudAPISender{
		token:         token,
		phoneNumberID: phoneNumberID,
		http:          &http.Client{Timeout: 15 * time.Second},
	}
}

type cloudAPIMessage struct {
	MessagingProduct string           `json:"messaging_product"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             cloudAPIBodyText `json:"text"`
}

type cloudAPIBodyText struct {
	Body string `json:"body"`
}

// Send posts a text message to the Cloud API.
func (s *CloudAPISender) Send(ctx context.Context, toPhone, text string) error {
	if s.token == "" {
		slog.Warn("WHATSAPP_API_TOKEN not set, reply logged only", "to", toPhone, "text", text)
		return nil
	}

	payload, err := json.Marshal(cloudAPIMessage{
		MessagingProduct: "whatsapp",
		To:               toPhone,
		Type:             "text",
		Text:             cloudAPIBodyText{Body: text},
	})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	url := fmt.Sprintf("https://graph.facebook.com/v21.0/%s/messages", s.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send message: %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	slog.Info("Reply sent", "to", toPhone)
	return nil
}
