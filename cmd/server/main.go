// ABOUTME: Main entry point for the docquery MCP server with stdio transport
// ABOUTME: Initializes config, LLM client, and MCP server with all tools
package main

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"docquery/internal/config"
	"docquery/internal/history"
	"docquery/internal/llm"
	"docquery/internal/mcp"
	"docquery/internal/storage"
	"docquery/internal/util"
)

func main() {
	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found", "error", err)
	}

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}

	client, err := llm.NewClient(cfg.Provider, llm.Options{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
		Retry: util.RetryPolicy{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.RetryDelay,
			MaxDelay:    30 * time.Second,
		},
	})
	if err != nil {
		log.Fatal("failed to initialize client", "error", err)
	}

	var embedder llm.Embedder = client
	if cfg.CacheSize > 0 {
		cached, err := llm.NewCachingEmbedder(client, cfg.CacheSize)
		if err != nil {
			log.Fatal("failed to initialize embedding cache", "error", err)
		}
		embedder = cached
	}

	// The index is session memory shared by all tool calls.
	index := storage.NewVectorIndex()

	var hist *history.Store
	if cfg.HistoryEnabled {
		hist, err = history.Open(cfg.HistoryPath)
		if err != nil {
			log.Warn("history disabled", "error", err)
			hist = nil
		} else {
			defer func() { _ = hist.Close() }()
		}
	}

	server := mcpserver.NewMCPServer(
		"docquery",
		"0.1.0",
	)

	mcp.RegisterTools(server, cfg, client, embedder, index, hist)

	// Start server with stdio transport
	log.Info("docquery MCP server starting on stdio", "provider", cfg.Provider)
	if err := mcpserver.ServeStdio(server); err != nil {
		log.Fatal("server error", "error", err)
	}
}
