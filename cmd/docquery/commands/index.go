// ABOUTME: CLI command to index a folder of documents
// ABOUTME: Splits files into chunks, embeds them, and reports progress
package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docquery/internal/core"
	"docquery/internal/storage"
)

// NewIndexCmd creates the index command
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [folder]",
		Short: "Index a folder of documents",
		Long: `Index a folder of documents for question answering.

Recursively scans the folder for .txt, .md, and .csv files, splits
them into overlapping word chunks, and embeds each chunk. The index
is held in memory, so this is a dry run of what ask and mcp do at
startup.

Examples:
  docquery index ./docs
  docquery index --format json ~/notes`,
		Args: cobra.MaximumNArgs(1),
		RunE: runIndex,
	}

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	// Load .env for API keys
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	folder := cfg.DocsFolder
	if len(args) > 0 {
		folder = args[0]
	}

	_, embedder, err := buildClient(cfg)
	if err != nil {
		return err
	}

	index := storage.NewVectorIndex()
	indexer := core.NewIndexer(embedder, index, core.IndexerOptions{
		Model:     cfg.EmbeddingModel,
		ChunkSize: cfg.ChunkSize,
		Overlap:   cfg.ChunkOverlap,
		Workers:   cfg.Workers,
	})

	var progress core.ProgressFunc
	if !quiet && outputFormat != "json" {
		progress = func(e core.ProgressEvent) {
			fmt.Fprintf(cmd.OutOrStdout(), "[%d/%d] %s\n", e.Index, e.Total, e.File)
		}
	}

	start := time.Now()
	count, err := indexer.Run(cmd.Context(), folder, progress)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", folder, err)
	}
	elapsed := time.Since(start)

	if outputFormat == "json" {
		result := map[string]interface{}{
			"folder":      folder,
			"chunk_count": count,
			"duration_ms": elapsed.Milliseconds(),
		}
		jsonData, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
		return nil
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Indexed %d chunk(s) from %s in %s\n", count, folder, elapsed.Round(time.Millisecond))
	}
	return nil
}
