// ABOUTME: CachingEmbedder memoizes embedding calls with an LRU keyed by model and text
// ABOUTME: Wraps any Embedder so repeated chunks and queries skip the network
package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachingEmbedder decorates an Embedder with a fixed-size LRU. Callers must
// not mutate returned vectors; cache hits share the stored slice.
type CachingEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float64]
}

// NewCachingEmbedder wraps inner with a cache of at most size entries.
// size must be positive.
func NewCachingEmbedder(inner Embedder, size int) (*CachingEmbedder, error) {
	cache, err := lru.New[string, []float64](size)
	if err != nil {
		return nil, err
	}
	return &CachingEmbedder{inner: inner, cache: cache}, nil
}

// Embed returns the cached vector for (model, text) or delegates to the
// wrapped embedder and stores the result. Failures are never cached.
func (c *CachingEmbedder) Embed(ctx context.Context, model, text string) ([]float64, error) {
	key := cacheKey(model, text)
	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, model, text)
	if err != nil {
		return nil, err
	}

	c.cache.Add(key, vec)
	return vec, nil
}

// Len reports the current number of cached vectors.
func (c *CachingEmbedder) Len() int {
	return c.cache.Len()
}

func cacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
