// ABOUTME: OllamaClient speaks the native embedding and generation wire protocol
// ABOUTME: One request per call, bounded by a timeout and an injected retry policy
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docquery/internal/util"
)

// DefaultBaseURL is the standard local service address.
const DefaultBaseURL = "http://localhost:11434"

// DefaultTimeout bounds a single request. Generation against a cold model
// can take minutes, so this is deliberately generous.
const DefaultTimeout = 5 * time.Minute

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// Response is a pointer so an absent field is distinguishable from a
// present-but-empty completion.
type generateResponse struct {
	Response *string `json:"response"`
}

// OllamaClient talks to a local model server over its native JSON API.
type OllamaClient struct {
	baseURL    string
	httpClient *http.Client
	retry      util.RetryPolicy
}

// NewOllamaClient builds a client for the given options, filling in the
// default base URL, timeout, and retryability classifier where unset.
func NewOllamaClient(opts Options) *OllamaClient {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	retry := opts.Retry
	if retry.Retryable == nil {
		retry.Retryable = IsRetryable
	}

	return &OllamaClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
	}
}

// Embed requests one embedding vector for text from the given model.
func (c *OllamaClient) Embed(ctx context.Context, model, text string) ([]float64, error) {
	var embedding []float64
	err := c.retry.Do(ctx, "embed", func() error {
		var resp embedResponse
		if err := c.post(ctx, "embed", "/api/embeddings", embedRequest{Model: model, Prompt: text}, &resp); err != nil {
			return err
		}
		if len(resp.Embedding) == 0 {
			return &MalformedResponseError{Op: "embed", Field: "embedding"}
		}
		embedding = resp.Embedding
		return nil
	})
	if err != nil {
		return nil, err
	}
	return embedding, nil
}

// Generate requests a single non-streaming completion for prompt from the
// given model. A present-but-empty completion is returned as "" without
// error; the caller decides how to present it.
func (c *OllamaClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	var text string
	err := c.retry.Do(ctx, "generate", func() error {
		var resp generateResponse
		if err := c.post(ctx, "generate", "/api/generate", generateRequest{Model: model, Prompt: prompt, Stream: false}, &resp); err != nil {
			return err
		}
		if resp.Response == nil {
			return &MalformedResponseError{Op: "generate", Field: "response"}
		}
		text = *resp.Response
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// Ping probes the service root. Any 2xx status means reachable; every
// failure mode reports false rather than an error. No retries apply.
func (c *OllamaClient) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// post sends one JSON request and decodes the JSON response into out,
// mapping each failure mode onto the client error taxonomy.
func (c *OllamaClient) post(ctx context.Context, op, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("%s canceled: %w", op, err)
		}
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &ServiceError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &MalformedResponseError{Op: op, Err: err}
	}

	return nil
}
