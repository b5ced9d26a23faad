package queuesvc

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/duckdev/wp-queue-process/internal/batchqueue"
	logpkg "github.com/duckdev/wp-queue-process/pkg/log"
)

// WebhookHandler is the server-mode task handler: each item is POSTed to a
// worker URL. A 2xx response completes the item; anything else, including
// transport errors, requeues it for the next pass.
//
// A worker that wants to transform-and-requeue responds 202 with the
// replacement payload as the body.
type WebhookHandler struct {
	url    string
	client *http.Client
	logger logpkg.Logger
}

var _ batchqueue.Handler = (*WebhookHandler)(nil)

// NewWebhookHandler builds a webhook handler posting to url. timeout bounds
// each delivery; zero means 10s.
func NewWebhookHandler(url string, timeout time.Duration, logger logpkg.Logger) *WebhookHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	return &WebhookHandler{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(logpkg.Component("webhook")),
	}
}

// Task implements batchqueue.Handler.
func (h *WebhookHandler) Task(ctx context.Context, item []byte, group string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(item))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Queue-Group", group)

	resp, err := h.client.Do(req)
	if err != nil {
		// worker unreachable; keep the item and let the next pass retry
		h.logger.Warn("worker delivery failed", logpkg.Err(err))
		return nil, false, nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusAccepted:
		next, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil || len(next) == 0 {
			return nil, false, nil
		}
		return next, false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil, true, nil
	default:
		h.logger.Warn("worker rejected item", logpkg.Int("status", resp.StatusCode), logpkg.Str("group", group))
		return nil, false, nil
	}
}
