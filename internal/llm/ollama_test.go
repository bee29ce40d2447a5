// ABOUTME: Wire-level tests for the native protocol client using httptest
// ABOUTME: Covers request shapes, error taxonomy mapping, retries, and ping
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"docquery/internal/util"
)

func newTestOllamaClient(baseURL string) *OllamaClient {
	return NewOllamaClient(Options{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Retry:   util.SingleAttempt(),
	})
}

func TestOllamaClient_Embed_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("path = %s, want /api/embeddings", r.URL.Path)
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req["model"] != "nomic-embed-text" {
			t.Errorf("model = %v, want nomic-embed-text", req["model"])
		}
		if req["prompt"] != "alpha beta" {
			t.Errorf("prompt = %v, want alpha beta", req["prompt"])
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"embedding": [0.25, -0.5, 1.0]}`)
	}))
	defer server.Close()

	client := newTestOllamaClient(server.URL)
	vec, err := client.Embed(context.Background(), "nomic-embed-text", "alpha beta")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	want := []float64{0.25, -0.5, 1.0}
	if len(vec) != len(want) {
		t.Fatalf("len(vec) = %d, want %d", len(vec), len(want))
	}
	for i := range want {
		if vec[i] != want[i] {
			t.Errorf("vec[%d] = %v, want %v", i, vec[i], want[i])
		}
	}
}

func TestOllamaClient_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s, want /api/generate", r.URL.Path)
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req["model"] != "llama3.2" {
			t.Errorf("model = %v, want llama3.2", req["model"])
		}
		stream, present := req["stream"]
		if !present {
			t.Error("request must carry a stream field")
		}
		if stream != false {
			t.Errorf("stream = %v, want false", stream)
		}

		io.WriteString(w, `{"response": "grounded answer"}`)
	}))
	defer server.Close()

	client := newTestOllamaClient(server.URL)
	text, err := client.Generate(context.Background(), "llama3.2", "context plus question")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "grounded answer" {
		t.Errorf("text = %q, want %q", text, "grounded answer")
	}
}

func TestOllamaClient_Generate_EmptyCompletionIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"response": ""}`)
	}))
	defer server.Close()

	client := newTestOllamaClient(server.URL)
	text, err := client.Generate(context.Background(), "llama3.2", "prompt")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty string", text)
	}
}

func TestOllamaClient_MalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
		call string
	}{
		{name: "embed field absent", body: `{"model": "x"}`, call: "embed"},
		{name: "embed field empty", body: `{"embedding": []}`, call: "embed"},
		{name: "embed not json", body: `not json at all`, call: "embed"},
		{name: "generate field absent", body: `{}`, call: "generate"},
		{name: "generate wrong type", body: `{"response": 42}`, call: "generate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := newTestOllamaClient(server.URL)

			var err error
			if tt.call == "embed" {
				_, err = client.Embed(context.Background(), "m", "text")
			} else {
				_, err = client.Generate(context.Background(), "m", "prompt")
			}

			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var malformed *MalformedResponseError
			if !errors.As(err, &malformed) {
				t.Errorf("error = %v, want MalformedResponseError", err)
			}
			if IsRetryable(err) {
				t.Error("malformed responses must not be retryable")
			}
		})
	}
}

func TestOllamaClient_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error": "model not found"}`)
	}))
	defer server.Close()

	client := newTestOllamaClient(server.URL)
	_, err := client.Embed(context.Background(), "missing-model", "text")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("error = %v, want ServiceError", err)
	}
	if serviceErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", serviceErr.StatusCode)
	}
	if serviceErr.Body == "" {
		t.Error("ServiceError should carry a body excerpt")
	}
	if IsRetryable(err) {
		t.Error("a 404 must not be retryable")
	}
}

func TestOllamaClient_ServiceError_ServerFaultIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestOllamaClient(server.URL)
	_, err := client.Generate(context.Background(), "m", "p")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !IsRetryable(err) {
		t.Error("a 500 should be retryable")
	}
}

func TestOllamaClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := newTestOllamaClient(server.URL)
	_, err := client.Embed(context.Background(), "m", "text")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error = %v, want TransportError", err)
	}
	if !IsRetryable(err) {
		t.Error("transport failures should be retryable")
	}
	if IsCancelled(err) {
		t.Error("a connection failure is not a cancellation")
	}
}

func TestOllamaClient_TimeoutIsTransportError(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		server.Close()
	}()

	client := NewOllamaClient(Options{
		BaseURL: server.URL,
		Timeout: 20 * time.Millisecond,
		Retry:   util.SingleAttempt(),
	})

	_, err := client.Embed(context.Background(), "m", "text")
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error = %v, want TransportError", err)
	}
	if IsCancelled(err) {
		t.Error("an elapsed timeout is not a cancellation")
	}
}

func TestOllamaClient_CanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"embedding": [1.0]}`)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestOllamaClient(server.URL)
	_, err := client.Embed(ctx, "m", "text")
	if err == nil {
		t.Fatal("expected error from canceled context")
	}
	if !IsCancelled(err) {
		t.Errorf("error = %v, want cancellation", err)
	}
	if IsRetryable(err) {
		t.Error("cancellations must not be retryable")
	}
}

func TestOllamaClient_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"embedding": [0.5]}`)
	}))
	defer server.Close()

	client := NewOllamaClient(Options{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
		Retry:   util.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Retryable: IsRetryable},
	})

	vec, err := client.Embed(context.Background(), "m", "text")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 1 || vec[0] != 0.5 {
		t.Errorf("vec = %v, want [0.5]", vec)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server calls = %d, want 2", got)
	}
}

func TestOllamaClient_Ping(t *testing.T) {
	t.Run("reachable service", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Errorf("method = %s, want GET", r.Method)
			}
			io.WriteString(w, "service is running")
		}))
		defer server.Close()

		client := newTestOllamaClient(server.URL)
		if !client.Ping(context.Background()) {
			t.Error("Ping = false, want true")
		}
	})

	t.Run("unreachable endpoint returns false not error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		client := newTestOllamaClient(server.URL)
		if client.Ping(context.Background()) {
			t.Error("Ping = true for a closed server")
		}
	})

	t.Run("failing status returns false", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := newTestOllamaClient(server.URL)
		if client.Ping(context.Background()) {
			t.Error("Ping = true for a 502")
		}
	})
}

func TestNewOllamaClient_Defaults(t *testing.T) {
	client := NewOllamaClient(Options{})

	if client.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", client.baseURL, DefaultBaseURL)
	}
	if client.httpClient.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", client.httpClient.Timeout, DefaultTimeout)
	}
	if client.retry.Retryable == nil {
		t.Error("default retry classifier should be set")
	}
}

func TestNewOllamaClient_TrimsTrailingSlash(t *testing.T) {
	client := NewOllamaClient(Options{BaseURL: "http://localhost:11434/"})
	if client.baseURL != "http://localhost:11434" {
		t.Errorf("baseURL = %q, want trailing slash trimmed", client.baseURL)
	}
}
