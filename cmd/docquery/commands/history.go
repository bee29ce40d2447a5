// ABOUTME: CLI command to list past questions and answers
// ABOUTME: Reads the SQLite history log with table or JSON output
package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"docquery/internal/history"
)

var (
	historyLimit int
	historyClear bool
)

// NewHistoryCmd creates the history command
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past questions and answers",
		Long: `List past questions and answers recorded by ask and the MCP server.

Examples:
  docquery history
  docquery history --limit 20
  docquery history --format json
  docquery history --clear`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().IntVar(&historyLimit, "limit", 10, "Maximum entries to show")
	cmd.Flags().BoolVar(&historyClear, "clear", false, "Delete all history entries")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer func() { _ = store.Close() }()

	if historyClear {
		removed, err := store.Clear()
		if err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %d entr(ies)\n", removed)
		}
		return nil
	}

	if err := validatePositiveInt(historyLimit, "limit"); err != nil {
		return err
	}

	entries, err := store.Recent(historyLimit)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	if len(entries) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No history yet. Ask a question first.\n")
		}
		return nil
	}

	if outputFormat == "json" {
		jsonData, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "WHEN\tQUESTION\tANSWER\tSOURCES\n")
	fmt.Fprintf(w, "----\t--------\t------\t-------\n")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			formatTime(entry.CreatedAt),
			truncate(entry.Question, 40),
			truncate(entry.Answer, 50),
			truncate(strings.Join(entry.Sources, ", "), 30))
	}
	w.Flush()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nShowing %d entr(ies)\n", len(entries))
	}
	return nil
}
