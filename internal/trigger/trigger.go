// Package trigger delivers fire-and-forget "run now" requests back into the
// process that owns a queue. Dispatch and batch chaining both go through it;
// the caller never waits for the triggered run to finish.
package trigger

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
)

// Options tune one Send call.
type Options struct {
	// Timeout bounds the request. For non-blocking sends the deadline is
	// expected to expire before the response arrives; that is not an error.
	Timeout time.Duration
	// Blocking waits for the full response when true.
	Blocking bool
	// Headers are extra request headers.
	Headers map[string]string
}

// Trigger asks a process to begin (or resume) queue processing.
type Trigger interface {
	// Send fires a run-now request carrying params as query parameters and
	// an optional payload. The outcome only reflects delivery, never the
	// triggered run's result.
	Send(ctx context.Context, params map[string]string, payload []byte, opts Options) error
}

// Func adapts a function to the Trigger interface.
type Func func(ctx context.Context, params map[string]string, payload []byte, opts Options) error

// Send implements Trigger.
func (f Func) Send(ctx context.Context, params map[string]string, payload []byte, opts Options) error {
	return f(ctx, params, payload, opts)
}

// HTTP posts run-now requests at a fixed endpoint, normally this process's
// own /v1/queue/run route.
type HTTP struct {
	endpoint string
	client   *http.Client
}

// NewHTTP creates an HTTP trigger for the given endpoint URL.
func NewHTTP(endpoint string) *HTTP {
	return &HTTP{
		endpoint: endpoint,
		client:   &http.Client{},
	}
}

// Send implements Trigger. Non-blocking sends use a very short timeout and
// treat deadline expiry as successful delivery: the request left the socket,
// nobody is waiting for the run.
func (t *HTTP) Send(ctx context.Context, params map[string]string, payload []byte, opts Options) error {
	timeout := opts.Timeout
	if timeout <= 0 {
		if opts.Blocking {
			timeout = 30 * time.Second
		} else {
			timeout = 100 * time.Millisecond
		}
	}
	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u, err := url.Parse(t.endpoint)
	if err != nil {
		return err
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(rctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Request-ID", uuid.NewString())
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if !opts.Blocking && isTimeout(err) {
			return nil
		}
		return err
	}
	defer resp.Body.Close()
	if opts.Blocking && resp.StatusCode >= 400 {
		return errors.New("trigger: " + resp.Status)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
