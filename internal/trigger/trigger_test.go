package trigger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestSendBlockingDeliversParams(t *testing.T) {
	var gotKey atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey.Store(r.URL.Query().Get("process"))
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing request id header")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := NewHTTP(srv.URL + "/v1/queue/run")
	err := tr.Send(context.Background(), map[string]string{"process": "mailer"}, nil, Options{Blocking: true})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotKey.Load() != "mailer" {
		t.Fatalf("params not delivered: %v", gotKey.Load())
	}
}

func TestSendNonBlockingToleratesSlowServer(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() { close(release); srv.Close() }()

	tr := NewHTTP(srv.URL)
	start := time.Now()
	err := tr.Send(context.Background(), nil, nil, Options{Timeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("non-blocking send should swallow the timeout: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("send blocked too long")
	}
}

func TestSendBlockingSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr := NewHTTP(srv.URL)
	if err := tr.Send(context.Background(), nil, nil, Options{Blocking: true}); err == nil {
		t.Fatalf("expected error for 500 response")
	}
}

func TestSendConnectionRefused(t *testing.T) {
	tr := NewHTTP("http://127.0.0.1:1/unreachable")
	err := tr.Send(context.Background(), nil, nil, Options{Timeout: 500 * time.Millisecond})
	if err == nil {
		t.Fatalf("connection refusal should surface even when non-blocking")
	}
}
