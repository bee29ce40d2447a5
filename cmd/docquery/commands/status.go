// ABOUTME: CLI command to report backend reachability and configuration
// ABOUTME: Exits non-zero when the LLM endpoint does not respond
package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docquery/internal/history"
	"docquery/internal/llm"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration and backend reachability",
		Long: `Show the active configuration and whether the LLM backend responds.

Examples:
  docquery status
  docquery status --format json`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	// Load .env for API keys
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, _, err := buildClient(cfg)
	if err != nil {
		return err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" && cfg.Provider == "ollama" {
		baseURL = llm.DefaultBaseURL
	}

	reachable := client.Ping(cmd.Context())

	historyEntries := -1
	if cfg.HistoryEnabled {
		if store, err := history.Open(cfg.HistoryPath); err == nil {
			if count, err := store.Count(); err == nil {
				historyEntries = count
			}
			_ = store.Close()
		}
	}

	if outputFormat == "json" {
		payload := map[string]interface{}{
			"provider":         cfg.Provider,
			"base_url":         baseURL,
			"embedding_model":  cfg.EmbeddingModel,
			"generation_model": cfg.GenerationModel,
			"docs_folder":      cfg.DocsFolder,
			"reachable":        reachable,
		}
		if historyEntries >= 0 {
			payload["history_entries"] = historyEntries
		}
		jsonData, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
	} else {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Provider:\t%s\n", cfg.Provider)
		fmt.Fprintf(w, "Endpoint:\t%s\n", baseURL)
		fmt.Fprintf(w, "Embedding model:\t%s\n", cfg.EmbeddingModel)
		fmt.Fprintf(w, "Generation model:\t%s\n", cfg.GenerationModel)
		fmt.Fprintf(w, "Docs folder:\t%s\n", cfg.DocsFolder)
		if historyEntries >= 0 {
			fmt.Fprintf(w, "History entries:\t%d\n", historyEntries)
		}
		if reachable {
			fmt.Fprintf(w, "Backend:\t✓ reachable\n")
		} else {
			fmt.Fprintf(w, "Backend:\t✗ unreachable\n")
		}
		w.Flush()
	}

	if !reachable {
		return fmt.Errorf("%s backend is not reachable", cfg.Provider)
	}
	return nil
}
