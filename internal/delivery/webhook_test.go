// File: internal/delivery/webhook_test.go
package delivery

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/patchreport/api/schemas"
	"github.com/xkilldash9x/patchreport/internal/config"
)

func testReport() *schemas.Report {
	return &schemas.Report{
		Title:    "Update Compliance Report - 2024-05-20",
		Markdown: "# Update Compliance Report - 2024-05-20\n",
		HTML:     "<html><body><p>hello fleet</p></body></html>\n",
		Date:     time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
	}
}

func TestWebhook_Deliver(t *testing.T) {
	var got webhookPayload
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		contentType = r.Header.Get("Content-Type")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	hook := NewWebhook(config.WebhookConfig{URL: srv.URL, Timeout: time.Second}, zap.NewNop())
	require.True(t, hook.Enabled())
	require.NoError(t, hook.Deliver(context.Background(), testReport()))

	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "Update Compliance Report - 2024-05-20", got.Title)
	assert.Equal(t, "# Update Compliance Report - 2024-05-20\n", got.Text)
}

func TestWebhook_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid webhook", http.StatusBadRequest)
	}))
	defer srv.Close()

	hook := NewWebhook(config.WebhookConfig{URL: srv.URL}, zap.NewNop())
	err := hook.Deliver(context.Background(), testReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "invalid webhook")

	srv.Close()
	assert.Error(t, hook.Deliver(context.Background(), testReport()))
}

func TestWebhook_NilLogger(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var hook *Webhook
	require.NotPanics(t, func() { hook = NewWebhook(config.WebhookConfig{URL: srv.URL}, nil) })
	assert.NoError(t, hook.Deliver(context.Background(), testReport()))
}

func TestWebhook_Disabled(t *testing.T) {
	hook := NewWebhook(config.WebhookConfig{}, zap.NewNop())
	assert.False(t, hook.Enabled())
	assert.Equal(t, "webhook", hook.Name())
}
