package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fenilsonani/tidyd/internal/config"
)

const userAgent = "tidyd/1.0"

type ntfy struct {
	endpoint string
	client   *http.Client
}

func newNtfy(cfg config.NtfyConfig) *ntfy {
	timeout := cfg.Timeout.Std()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfy{
		endpoint: strings.TrimSpace(cfg.URL),
		client:   &http.Client{Timeout: timeout},
	}
}

func (n *ntfy) Name() string { return "ntfy" }

func (n *ntfy) Send(ctx context.Context, msg Message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.Body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.Title != "" {
		req.Header.Set("Title", msg.Title)
	}
	req.Header.Set("Tags", strings.Join([]string{"tidyd", strings.ToLower(msg.Category.String())}, ","))
	req.Header.Set("Priority", "low")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
