package jsonapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ballotforge/internal/services"
)

func TestPostJSONRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("unexpected auth header %q", got)
		}
		var in map[string]string
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["say"]})
	}))
	defer server.Close()

	client := New("echo", time.Second)
	var out struct {
		Echo string `json:"echo"`
	}
	err := client.PostJSON(context.Background(), server.URL, map[string]string{"Authorization": "Bearer secret"}, map[string]string{"say": "hi"}, &out)
	if err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if out.Echo != "hi" {
		t.Fatalf("echo = %q", out.Echo)
	}
}

func TestPostJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	var slept []time.Duration
	client := New("flaky", time.Second, WithSleeper(func(d time.Duration) { slept = append(slept, d) }))
	if err := client.PostJSON(context.Background(), server.URL, nil, struct{}{}, nil); err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	if len(slept) != 2 || slept[0] != defaultRetryBaseDelay || slept[1] != 2*defaultRetryBaseDelay {
		t.Fatalf("unexpected backoff %v", slept)
	}
}

func TestPostJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(strings.Repeat("x", 2000)))
	}))
	defer server.Close()

	client := New("strict", time.Second, WithSleeper(func(time.Duration) {}))
	err := client.PostJSON(context.Background(), server.URL, nil, struct{}{}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", calls.Load())
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected StatusError 400, got %v", err)
	}
	if len(statusErr.Body) > maxErrorBody+3 {
		t.Fatalf("body not truncated: %d bytes", len(statusErr.Body))
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool marker, got %v", err)
	}
}

func TestPostJSONHonoursRetryAfter(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	var slept []time.Duration
	client := New("limited", time.Second, WithSleeper(func(d time.Duration) { slept = append(slept, d) }))
	if err := client.PostJSON(context.Background(), server.URL, nil, struct{}{}, nil); err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if len(slept) != 1 || slept[0] != 2*time.Second {
		t.Fatalf("unexpected sleeps %v", slept)
	}
}

func TestPostJSONMalformedReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	var out map[string]any
	err := New("broken", time.Second).PostJSON(context.Background(), server.URL, nil, struct{}{}, &out)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestBackoffDelayCaps(t *testing.T) {
	client := New("cap", time.Second, WithRetryBackoff(time.Second, 3*time.Second))
	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}
	for i, w := range want {
		if got := client.backoffDelay(i + 1); got != w {
			t.Fatalf("attempt %d: got %v, want %v", i+1, got, w)
		}
	}
}
