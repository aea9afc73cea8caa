package llm

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
)

func completionHandler(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{"content": content},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, "```json\n{\"ok\":true}\n```"))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	err := client.HealthCheck(context.Background())
	if err == nil {
		t.Fatal("expected health check to fail")
	}
	if StatusCode(err) != http.StatusUnauthorized {
		t.Fatalf("StatusCode = %d, want 401", StatusCode(err))
	}
}

func TestClientCompleteSendsTextRequest(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("Authorization = %q", auth)
		}
		if title := r.Header.Get("X-Title"); title != "talkpress" {
			t.Errorf("X-Title = %q", title)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		completionHandler(t, "  translated text  ")(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: " secret ", BaseURL: server.URL, Model: "demo", Title: "talkpress"})
	content, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if content != "translated text" {
		t.Fatalf("content = %q", content)
	}
	if got.Model != "demo" || len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "user" {
		t.Fatalf("request = %+v", got)
	}
	if got.ResponseFormat != nil {
		t.Fatalf("text request carried response_format %v", got.ResponseFormat)
	}
}

func TestClientCompleteJSONSetsResponseFormat(t *testing.T) {
	var format map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		format = req.ResponseFormat
		completionHandler(t, `{"title":"x"}`)(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL})
	if _, err := client.CompleteJSON(context.Background(), "s", "u"); err != nil {
		t.Fatalf("CompleteJSON error: %v", err)
	}
	if format["type"] != jsonResponseType {
		t.Fatalf("response_format = %v", format)
	}
}

func TestClientRequiresAPIKeyAndPrompts(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.Complete(context.Background(), "s", "u"); !errors.Is(err, ErrAPIKeyRequired) {
		t.Fatalf("error = %v, want ErrAPIKeyRequired", err)
	}
	keyed := NewClient(Config{APIKey: "k"})
	if _, err := keyed.Complete(context.Background(), " ", "u"); err == nil {
		t.Fatal("expected error for empty system prompt")
	}
	if _, err := keyed.Complete(context.Background(), "s", ""); err == nil {
		t.Fatal("expected error for empty user prompt")
	}
}

func TestClientRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			completionHandler(t, "")(w, r)
		default:
			completionHandler(t, "done")(w, r)
		}
	}))
	defer server.Close()

	var sleeps []time.Duration
	client := NewClient(
		Config{APIKey: "k", BaseURL: server.URL},
		WithRetryBackoff(time.Second, 10*time.Second),
		WithSleeper(func(d time.Duration) { sleeps = append(sleeps, d) }),
	)
	content, err := client.Complete(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if content != "done" || calls.Load() != 3 {
		t.Fatalf("content %q after %d calls", content, calls.Load())
	}
	if len(sleeps) != 2 || sleeps[0] != 3*time.Second || sleeps[1] != 2*time.Second {
		t.Fatalf("sleeps = %v, want [3s 2s]", sleeps)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL}, WithSleeper(func(time.Duration) {}))
	if _, err := client.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestClientGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "k", BaseURL: server.URL},
		WithRetryMaxAttempts(3),
		WithSleeper(func(time.Duration) {}),
	)
	_, err := client.Complete(context.Background(), "s", "u")
	if err == nil || !strings.Contains(err.Error(), "failed after 3 attempts") {
		t.Fatalf("error = %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestClientStopsOnCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(
		Config{APIKey: "k", BaseURL: server.URL},
		WithSleeper(func(time.Duration) { cancel() }),
	)
	_, err := client.Complete(ctx, "s", "u")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestBackoffDelay(t *testing.T) {
	client := NewClient(Config{}, WithRetryBackoff(time.Second, 5*time.Second))
	tests := map[int]time.Duration{1: time.Second, 2: 2 * time.Second, 3: 4 * time.Second, 4: 5 * time.Second, 9: 5 * time.Second}
	for attempt, want := range tests {
		if got := client.retry.backoff(attempt); got != want {
			t.Fatalf("backoff(%d) = %v, want %v", attempt, got, want)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := parseRetryAfter("7"); !ok || d != 7*time.Second {
		t.Fatalf("parseRetryAfter(7) = %v, %v", d, ok)
	}
	if _, ok := parseRetryAfter("-1"); ok {
		t.Fatal("negative Retry-After accepted")
	}
	if _, ok := parseRetryAfter("soon"); ok {
		t.Fatal("garbage Retry-After accepted")
	}
}
