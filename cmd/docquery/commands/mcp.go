// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Enables LLM agents to index and query documents via stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docquery/internal/history"
	"docquery/internal/mcp"
	"docquery/internal/storage"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents.

Runs docquery as an MCP (Model Context Protocol) server over stdio,
exposing index_documents, ask, and status tools. The index lives in
memory for the lifetime of the server process.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically launched by an MCP client)
  docquery mcp

  # Configure in an MCP client config:
  # {
  #   "mcpServers": {
  #     "docquery": {
  #       "command": "docquery",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil && verbose {
		log.Debug("no .env file found", "error", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, embedder, err := buildClient(cfg)
	if err != nil {
		return err
	}

	// The index is session memory shared by all tool calls.
	index := storage.NewVectorIndex()

	var hist *history.Store
	if cfg.HistoryEnabled {
		hist, err = history.Open(cfg.HistoryPath)
		if err != nil {
			log.Warn("history disabled", "error", err)
			hist = nil
		}
	}

	server := mcpserver.NewMCPServer(
		"docquery",
		versionInfo.Version,
	)

	mcp.RegisterTools(server, cfg, client, embedder, index, hist)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !quiet {
		log.Info("docquery MCP server starting on stdio", "provider", cfg.Provider)
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		if !quiet {
			log.Info("shutdown signal received")
		}
		if hist != nil {
			if err := hist.Close(); err != nil {
				log.Warn("error closing history", "error", err)
			}
		}

	case err := <-serverErr:
		if hist != nil {
			_ = hist.Close()
		}
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
