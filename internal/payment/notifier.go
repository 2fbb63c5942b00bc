package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/zappybot/zappy/internal/models"
)

// OrderWebhookData is the payload pushed to the external fulfillment webhook
// when an order completes.
type OrderWebhookData struct {
	Reference string            `json:"reference"`
	ThreadID  string            `json:"thread_id"`
	UserSSID  string            `json:"user_ssid"`
	Cart      []models.CartItem `json:"cart"`
	Total     float64           `json:"total"`
	Address   string            `json:"address,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Notifier pushes completed orders to a configured webhook URL.
// An empty URL disables pushing; PushOrder then reports false without error.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// NewNotifier creates an order notifier. url may be empty.
func NewNotifier(url string) *Notifier {
	return &Notifier{
		webhookURL: url,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// PushOrder POSTs the order to the fulfillment webhook. Returns whether the
// push was attempted and accepted; the order flow treats failures as
// non-fatal.
func (n *Notifier) PushOrder(ctx context.Context, data OrderWebhookData) (bool, error) {
	if n.webhookURL == "" {
		slog.Warn("Notifier order webhook URL not configured, skipping push")
		return false, nil
	}
	body, err := json.Marshal(data)
	if err != nil {
		return false, fmt.Errorf("failed to encode order payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to build order push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		slog.Error("Notifier order push failed", "error", err, "reference", data.Reference)
		return false, fmt.Errorf("order push failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("Notifier order push rejected", "status", resp.StatusCode, "reference", data.Reference)
		return false, fmt.Errorf("order push returned status %d", resp.StatusCode)
	}
	slog.Info("Notifier order pushed", "reference", data.Reference, "total", data.Total)
	return true, nil
}
