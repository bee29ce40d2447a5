// ABOUTME: Chunk represents an indexed span of document text with its embedding
// ABOUTME: ScoredChunk pairs a chunk with a similarity score from a search
package models

// Chunk is a bounded span of document text paired with the embedding
// vector produced for it and the document it was read from.
type Chunk struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	Embedding []float64 `json:"embedding"`
}

// ScoredChunk is a chunk annotated with its cosine similarity score
// against a query vector.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}
