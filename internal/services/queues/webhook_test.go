package queuesvc

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWebhookHandlerCompletesOn2xx(t *testing.T) {
	var gotBody string
	var gotGroup string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotGroup = r.Header.Get("X-Queue-Group")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := NewWebhookHandler(srv.URL, time.Second, nil)
	next, done, err := h.Task(context.Background(), []byte("payload"), "emails")
	if err != nil || !done || next != nil {
		t.Fatalf("next=%q done=%v err=%v", next, done, err)
	}
	if gotBody != "payload" || gotGroup != "emails" {
		t.Fatalf("delivery wrong: body=%q group=%q", gotBody, gotGroup)
	}
}

func TestWebhookHandlerRequeuesOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	h := NewWebhookHandler(srv.URL, time.Second, nil)
	next, done, err := h.Task(context.Background(), []byte("x"), "g")
	if err != nil || done || next != nil {
		t.Fatalf("rejection must requeue unchanged: next=%q done=%v err=%v", next, done, err)
	}
}

func TestWebhookHandlerRequeuesWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing listening anymore

	h := NewWebhookHandler(srv.URL, time.Second, nil)
	_, done, err := h.Task(context.Background(), []byte("x"), "g")
	if err != nil || done {
		t.Fatalf("unreachable worker must requeue: done=%v err=%v", done, err)
	}
}

func TestWebhookHandlerAcceptedReplacesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("transformed"))
	}))
	defer srv.Close()

	h := NewWebhookHandler(srv.URL, time.Second, nil)
	next, done, err := h.Task(context.Background(), []byte("raw"), "g")
	if err != nil || done {
		t.Fatalf("done=%v err=%v", done, err)
	}
	if string(next) != "transformed" {
		t.Fatalf("next = %q", next)
	}
}
