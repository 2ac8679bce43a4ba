// File: internal/delivery/webhook.go
package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/patchreport/api/schemas"
	"github.com/xkilldash9x/patchreport/internal/config"
	"github.com/xkilldash9x/patchreport/internal/network"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// webhookPayload is the chat message body. Text carries the Markdown report.
type webhookPayload struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Webhook posts the Markdown report to a chat incoming-webhook URL.
type Webhook struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewWebhook creates the chat sink. It is disabled when cfg.URL is empty.
func NewWebhook(cfg config.WebhookConfig, logger *zap.Logger) *Webhook {
	if logger == nil {
		logger = zap.NewNop()
	}
	clientCfg := network.NewDefaultClientConfig()
	if cfg.Timeout > 0 {
		clientCfg.RequestTimeout = cfg.Timeout
	}
	clientCfg.Logger = logger
	return &Webhook{
		url:    cfg.URL,
		client: network.NewClient(clientCfg),
		logger: logger.Named("webhook"),
	}
}

func (w *Webhook) Name() string  { return "webhook" }
func (w *Webhook) Enabled() bool { return w.url != "" }

// Deliver sends one POST. Any non-2xx status is a failure; nothing is retried.
func (w *Webhook) Deliver(ctx context.Context, report *schemas.Report) error {
	body, err := json.Marshal(webhookPayload{Title: report.Title, Text: report.Markdown})
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	w.logger.Info("Webhook notification sent", zap.Int("status", resp.StatusCode), zap.Int("bytes", len(body)))
	return nil
}
