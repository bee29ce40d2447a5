// ABOUTME: Chunker splits document text into overlapping fixed-size word windows
// ABOUTME: Window parameters are validated up front to guarantee termination
package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidChunking reports window parameters that would produce a zero or
// negative stride.
var ErrInvalidChunking = errors.New("invalid chunking parameters")

// Chunker splits text into windows of a fixed number of words, each window
// starting a stride of size minus overlap words after the previous one.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker validates the window parameters before any splitting happens.
// size must be positive and strictly greater than overlap, and overlap must
// not be negative; a zero or negative stride would never terminate.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidChunking, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap %d must not be negative", ErrInvalidChunking, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", ErrInvalidChunking, overlap, size)
	}

	return &Chunker{size: size, overlap: overlap}, nil
}

// Split breaks text into overlapping windows of whole words. Words are
// separated by any Unicode whitespace; empty tokens are discarded. The final
// window may be shorter than the configured size. Empty or whitespace-only
// input yields no chunks.
func (c *Chunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	stride := c.size - c.overlap

	var chunks []string
	for start := 0; start < len(words); start += stride {
		end := start + c.size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}

	return chunks
}
