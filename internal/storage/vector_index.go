// ABOUTME: VectorIndex is the in-memory chunk store with cosine similarity search
// ABOUTME: Append-only between clears, guarded by a RWMutex for concurrent use
package storage

import (
	"math"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"docquery/internal/models"
)

// epsilon keeps the similarity denominator non-zero for all-zero vectors.
const epsilon = 1e-10

// VectorIndex holds embedded chunks in memory and ranks them by cosine
// similarity against a query vector. The zero lifecycle is: created empty,
// cleared and rebuilt by each indexing run, gone with the process. Writers
// (the indexer's workers) and readers (searches) may run concurrently.
type VectorIndex struct {
	mu     sync.RWMutex
	chunks []models.Chunk
}

// NewVectorIndex creates an empty index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{}
}

// Append adds one chunk. Dimensionality is not checked here; mismatches are
// surfaced at search time.
func (vi *VectorIndex) Append(chunk models.Chunk) {
	vi.mu.Lock()
	defer vi.mu.Unlock()
	vi.chunks = append(vi.chunks, chunk)
}

// Clear discards all chunks. Idempotent.
func (vi *VectorIndex) Clear() {
	vi.mu.Lock()
	defer vi.mu.Unlock()
	vi.chunks = nil
}

// Len returns the current chunk count.
func (vi *VectorIndex) Len() int {
	vi.mu.RLock()
	defer vi.mu.RUnlock()
	return len(vi.chunks)
}

// Chunks returns a snapshot of the stored chunks in insertion order.
func (vi *VectorIndex) Chunks() []models.Chunk {
	vi.mu.RLock()
	defer vi.mu.RUnlock()
	out := make([]models.Chunk, len(vi.chunks))
	copy(out, vi.chunks)
	return out
}

// Search returns up to topK chunks ranked by descending cosine similarity
// to query. Ties keep insertion order. An empty index or non-positive topK
// yields no results. Stored vectors whose length differs from the query are
// still scored (truncated element-wise) but reported in a warning, since a
// mismatch usually means the embedding model changed without re-indexing.
func (vi *VectorIndex) Search(query []float64, topK int) []models.ScoredChunk {
	vi.mu.RLock()
	defer vi.mu.RUnlock()

	if len(vi.chunks) == 0 || topK <= 0 {
		return nil
	}

	mismatched := 0
	mismatchLen := 0
	scored := make([]models.ScoredChunk, 0, len(vi.chunks))
	for _, chunk := range vi.chunks {
		if len(chunk.Embedding) != len(query) {
			mismatched++
			mismatchLen = len(chunk.Embedding)
		}
		scored = append(scored, models.ScoredChunk{
			Chunk: chunk,
			Score: CosineSimilarity(query, chunk.Embedding),
		})
	}

	if mismatched > 0 {
		log.Warn("embedding dimension mismatch during search",
			"query_dim", len(query),
			"stored_dim", mismatchLen,
			"affected_chunks", mismatched)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}

	return scored
}

// CosineSimilarity computes dot(a,b) / (|a|*|b| + epsilon). The dot product
// truncates element-wise to the shorter vector; the magnitudes cover each
// full vector. All-zero input yields 0 rather than NaN.
func CosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}

	var normA, normB float64
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}

	return dot / (math.Sqrt(normA)*math.Sqrt(normB) + epsilon)
}
