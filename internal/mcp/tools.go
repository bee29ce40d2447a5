// ABOUTME: MCP tool definitions and registration for the docquery server
// ABOUTME: Defines JSON schemas for the index_documents, ask, and status tools
package mcp

import (
	"docquery/internal/config"
	"docquery/internal/history"
	"docquery/internal/llm"
	"docquery/internal/storage"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server. The index lives for
// the lifetime of the server process; hist may be nil to disable recording.
func RegisterTools(server *mcpserver.MCPServer, cfg *config.Config, client llm.Client, embedder llm.Embedder, index *storage.VectorIndex, hist *history.Store) *Handlers {
	handlers := &Handlers{
		cfg:      cfg,
		client:   client,
		embedder: embedder,
		index:    index,
		history:  hist,
	}

	// 1. index_documents - Rebuild the in-memory index from a documents folder
	server.AddTool(mcp.Tool{
		Name:        "index_documents",
		Description: "Index a folder of .txt, .md, and .csv documents for question answering. Replaces the current index contents.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"folder": map[string]interface{}{
					"type":        "string",
					"description": "Path to the documents folder (default: configured docs folder)",
				},
			},
		},
	}, handlers.IndexDocuments)

	// 2. ask - Answer a question grounded in the indexed documents
	server.AddTool(mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using retrieval-augmented generation over the indexed documents.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Question to answer from the indexed documents",
				},
				"top_k": map[string]interface{}{
					"type":        "number",
					"description": "Number of document chunks to retrieve as context (default: configured top-k)",
				},
			},
			Required: []string{"question"},
		},
	}, handlers.Ask)

	// 3. status - Report index size and backend reachability
	server.AddTool(mcp.Tool{
		Name:        "status",
		Description: "Report the indexed chunk count, configured models, and whether the LLM backend is reachable.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.Status)

	return handlers
}
