// ABOUTME: Client interfaces shared by the indexing and query paths
// ABOUTME: Provider selection maps a config name onto a concrete implementation
package llm

import (
	"context"
	"fmt"
	"time"

	"docquery/internal/util"
)

// Provider names accepted by NewClient.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Embedder produces one embedding vector per call.
type Embedder interface {
	Embed(ctx context.Context, model, text string) ([]float64, error)
}

// Generator produces completion text for a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Client is a full provider: both model operations plus a reachability
// probe. Ping never fails; it only reports whether the service answered.
type Client interface {
	Embedder
	Generator
	Ping(ctx context.Context) bool
}

// Options carries the transport settings common to all providers.
type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Retry   util.RetryPolicy
}

// NewClient selects a provider implementation by name. An empty name means
// the default local provider.
func NewClient(provider string, opts Options) (Client, error) {
	switch provider {
	case ProviderOllama, "":
		return NewOllamaClient(opts), nil
	case ProviderOpenAI:
		return NewOpenAIClient(opts)
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}
