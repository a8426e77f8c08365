package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fenilsonani/tidyd/internal/config"
)

type webhook struct {
	cfg    config.WebhookConfig
	client *http.Client
}

func newWebhook(cfg config.WebhookConfig) *webhook {
	return &webhook{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (w *webhook) Name() string { return "webhook" }

func (w *webhook) Send(ctx context.Context, msg Message) error {
	payload := map[string]interface{}{
		"title":     msg.Title,
		"message":   msg.Body,
		"timestamp": msg.Timestamp.Format(time.RFC3339),
		"type":      "file_moved",
		"data": map[string]string{
			"file":     msg.FileName,
			"category": msg.Category.String(),
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	method := w.cfg.Method
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, w.cfg.URL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for key, value := range w.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
