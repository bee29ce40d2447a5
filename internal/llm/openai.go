// ABOUTME: OpenAI-compatible provider for embeddings and generation
// ABOUTME: Covers hosted OpenAI and local servers exposing the compatible API
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"docquery/internal/util"
)

// OpenAIClient adapts the compatible chat/embeddings API to the provider
// interfaces. The base URL is used verbatim when set, so pointing it at a
// local compatibility layer means including its /v1 path.
type OpenAIClient struct {
	client *openai.Client
	retry  util.RetryPolicy
}

// NewOpenAIClient builds the alternate provider. An API key is required;
// compatibility servers that ignore the key still need a placeholder.
func NewOpenAIClient(opts Options) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("openai provider requires an API key")
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	retry := opts.Retry
	if retry.Retryable == nil {
		retry.Retryable = IsRetryable
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		retry:  retry,
	}, nil
}

// Embed requests one embedding vector for text from the given model.
func (c *OpenAIClient) Embed(ctx context.Context, model, text string) ([]float64, error) {
	var embedding []float64
	err := c.retry.Do(ctx, "embed", func() error {
		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: openai.EmbeddingModel(model),
		})
		if err != nil {
			return classifyOpenAIError("embed", err)
		}
		if len(resp.Data) == 0 {
			return &MalformedResponseError{Op: "embed", Field: "data"}
		}

		// Convert []float32 to []float64
		embedding32 := resp.Data[0].Embedding
		embedding = make([]float64, len(embedding32))
		for i, v := range embedding32 {
			embedding[i] = float64(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return embedding, nil
}

// Generate requests a single chat completion carrying the assembled prompt
// as one user message.
func (c *OpenAIClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	var text string
	err := c.retry.Do(ctx, "generate", func() error {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		})
		if err != nil {
			return classifyOpenAIError("generate", err)
		}
		if len(resp.Choices) == 0 {
			return &MalformedResponseError{Op: "generate", Field: "choices"}
		}
		text = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// Ping lists models as a lightweight reachability probe. Any failure means
// false; no retries apply.
func (c *OpenAIClient) Ping(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := c.client.ListModels(pingCtx)
	return err == nil
}

// classifyOpenAIError maps SDK failures onto the client error taxonomy.
func classifyOpenAIError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s canceled: %w", op, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ServiceError{Op: op, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return &ServiceError{Op: op, StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}

	return &TransportError{Op: op, Err: err}
}
