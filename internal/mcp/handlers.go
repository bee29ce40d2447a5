// ABOUTME: MCP tool handler implementations for the docquery server
// ABOUTME: Wires the indexing and answering pipelines to tool requests
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"

	"docquery/internal/config"
	"docquery/internal/core"
	"docquery/internal/history"
	"docquery/internal/llm"
	"docquery/internal/storage"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	cfg      *config.Config
	client   llm.Client
	embedder llm.Embedder // may wrap the client with a cache
	index    *storage.VectorIndex
	history  *history.Store // nil when history is disabled
}

// IndexDocuments handles the index_documents tool
func (h *Handlers) IndexDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := request.GetString("folder", h.cfg.DocsFolder)

	indexer := core.NewIndexer(h.embedder, h.index, core.IndexerOptions{
		Model:     h.cfg.EmbeddingModel,
		ChunkSize: h.cfg.ChunkSize,
		Overlap:   h.cfg.ChunkOverlap,
		Workers:   h.cfg.Workers,
	})

	start := time.Now()
	count, err := indexer.Run(ctx, folder, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("indexing failed: %v", err)), nil
	}

	response := map[string]interface{}{
		"folder":      folder,
		"chunk_count": count,
		"duration_ms": time.Since(start).Milliseconds(),
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}

	return mcp.NewToolResultText(string(responseJSON)), nil
}

// Ask handles the ask tool
func (h *Handlers) Ask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}

	topK := request.GetInt("top_k", h.cfg.TopK)

	answerer := core.NewAnswerer(h.embedder, h.client, h.index, core.AnswererOptions{
		EmbedModel: h.cfg.EmbeddingModel,
		GenModel:   h.cfg.GenerationModel,
		TopK:       topK,
	})

	result, err := answerer.AnswerWithSources(ctx, question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("answering failed: %v", err)), nil
	}

	sources := make([]map[string]interface{}, 0, len(result.Sources))
	for _, s := range result.Sources {
		sources = append(sources, map[string]interface{}{
			"source": s.Chunk.Source,
			"score":  s.Score,
		})
	}

	h.recordHistory(question, result)

	response := map[string]interface{}{
		"answer":  result.Text,
		"sources": sources,
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}

	return mcp.NewToolResultText(string(responseJSON)), nil
}

// Status handles the status tool
func (h *Handlers) Status(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	response := map[string]interface{}{
		"provider":         h.cfg.Provider,
		"embedding_model":  h.cfg.EmbeddingModel,
		"generation_model": h.cfg.GenerationModel,
		"docs_folder":      h.cfg.DocsFolder,
		"indexed_chunks":   h.index.Len(),
		"reachable":        h.client.Ping(ctx),
	}
	if h.history != nil {
		if count, err := h.history.Count(); err == nil {
			response["history_entries"] = count
		}
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}

	return mcp.NewToolResultText(string(responseJSON)), nil
}

// recordHistory logs the exchange when a history store is attached. Failures
// never affect the tool response.
func (h *Handlers) recordHistory(question string, result *core.AnswerResult) {
	if h.history == nil {
		return
	}

	seen := make(map[string]bool)
	sources := []string{}
	for _, s := range result.Sources {
		if !seen[s.Chunk.Source] {
			seen[s.Chunk.Source] = true
			sources = append(sources, s.Chunk.Source)
		}
	}

	_, err := h.history.Record(history.Entry{
		Question: question,
		Answer:   result.Text,
		Sources:  sources,
		Provider: h.cfg.Provider,
		Model:    h.cfg.GenerationModel,
	})
	if err != nil {
		log.Warn("failed to record history entry", "error", err)
	}
}
