// ABOUTME: Answerer embeds a question, retrieves top chunks, and asks the generator
// ABOUTME: Prompt assembly prefixes every retrieved chunk with its source attribution
package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"docquery/internal/llm"
	"docquery/internal/models"
	"docquery/internal/storage"
)

// NoDocumentsMessage answers a question asked before any indexing. It is a
// designed short-circuit, returned without any network call.
const NoDocumentsMessage = "No documents have been indexed yet. Index a documents folder, then ask again."

// EmptyAnswerMessage stands in when the generator returns no text.
const EmptyAnswerMessage = "The model returned an empty answer. Try rephrasing the question."

// DefaultTopK is the retrieval depth used when none is configured.
const DefaultTopK = 3

// promptInstruction constrains the generator to the retrieved context.
const promptInstruction = "Answer the question using only the context below. " +
	"If the context does not contain the answer, say you do not know."

// AnswererOptions configure the query pipeline.
type AnswererOptions struct {
	EmbedModel string
	GenModel   string
	TopK       int
}

// AnswerResult carries the generated text plus the chunks it was grounded
// on, highest score first.
type AnswerResult struct {
	Text    string
	Sources []models.ScoredChunk
}

// Answerer runs the retrieval-augmented query pipeline against one index.
type Answerer struct {
	embedder  llm.Embedder
	generator llm.Generator
	index     *storage.VectorIndex
	opts      AnswererOptions
}

// NewAnswerer wires the clients and index for querying.
func NewAnswerer(embedder llm.Embedder, generator llm.Generator, index *storage.VectorIndex, opts AnswererOptions) *Answerer {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &Answerer{
		embedder:  embedder,
		generator: generator,
		index:     index,
		opts:      opts,
	}
}

// Answer returns the generated answer text for question.
func (a *Answerer) Answer(ctx context.Context, question string) (string, error) {
	result, err := a.AnswerWithSources(ctx, question)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// AnswerWithSources embeds the question, retrieves the top chunks, and
// delegates the grounded prompt to the generator. An empty index yields the
// fixed advisory with no sources and no network traffic.
func (a *Answerer) AnswerWithSources(ctx context.Context, question string) (*AnswerResult, error) {
	if a.index.Len() == 0 {
		return &AnswerResult{Text: NoDocumentsMessage}, nil
	}

	queryVec, err := a.embedder.Embed(ctx, a.opts.EmbedModel, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	results := a.index.Search(queryVec, a.opts.TopK)
	log.Debug("retrieved context", "chunks", len(results), "top_k", a.opts.TopK)

	text, err := a.generator.Generate(ctx, a.opts.GenModel, buildPrompt(results, question))
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		text = EmptyAnswerMessage
	}

	return &AnswerResult{Text: text, Sources: results}, nil
}

// buildPrompt assembles instruction, attributed context in descending score
// order, and the original question.
func buildPrompt(results []models.ScoredChunk, question string) string {
	var sb strings.Builder
	sb.WriteString(promptInstruction)
	sb.WriteString("\n\nContext:\n")
	for _, r := range results {
		sb.WriteString(fmt.Sprintf("[source: %s]\n%s\n\n", r.Chunk.Source, r.Chunk.Text))
	}
	sb.WriteString(fmt.Sprintf("Question: %s", question))
	return sb.String()
}
