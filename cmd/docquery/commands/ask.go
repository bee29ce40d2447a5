// ABOUTME: CLI command to ask a question about indexed documents
// ABOUTME: Indexes the docs folder in-process, retrieves context, and answers
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docquery/internal/config"
	"docquery/internal/core"
	"docquery/internal/history"
	"docquery/internal/storage"
)

var (
	askDocs        string
	askTopK        int
	askShowSources bool
)

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about your documents",
		Long: `Ask a question about your documents.

Indexes the configured documents folder, retrieves the most similar
chunks to the question, and asks the generation model for an answer
grounded in them.

Examples:
  docquery ask "How do I rotate the API keys?"
  docquery ask --docs ./runbooks "What is the on-call escalation?"
  docquery ask --top-k 5 --show-sources "Where is the config parsed?"`,
		Args: cobra.ExactArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().StringVar(&askDocs, "docs", "", "Documents folder (default: configured docs folder)")
	cmd.Flags().IntVar(&askTopK, "top-k", 0, "Number of chunks to retrieve (default: configured top-k)")
	cmd.Flags().BoolVar(&askShowSources, "show-sources", false, "Show the source files behind the answer")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	// Load .env for API keys
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	question := args[0]

	folder := cfg.DocsFolder
	if askDocs != "" {
		folder = askDocs
	}
	topK := cfg.TopK
	if askTopK != 0 {
		if err := validatePositiveInt(askTopK, "top-k"); err != nil {
			return err
		}
		topK = askTopK
	}

	client, embedder, err := buildClient(cfg)
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
	if verbose {
		progress = func(e core.ProgressEvent) {
			log.Debug("indexing", "file", e.File, "index", e.Index, "total", e.Total)
		}
	}

	if _, err := indexer.Run(cmd.Context(), folder, progress); err != nil {
		return fmt.Errorf("indexing %s: %w", folder, err)
	}

	answerer := core.NewAnswerer(embedder, client, index, core.AnswererOptions{
		EmbedModel: cfg.EmbeddingModel,
		GenModel:   cfg.GenerationModel,
		TopK:       topK,
	})

	result, err := answerer.AnswerWithSources(cmd.Context(), question)
	if err != nil {
		return fmt.Errorf("answering: %w", err)
	}

	recordAskHistory(cfg, question, result)

	sources := sourceNames(result)

	if outputFormat == "json" {
		payload := map[string]interface{}{
			"question": question,
			"answer":   result.Text,
			"sources":  sources,
		}
		jsonData, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", result.Text)
	if askShowSources && len(sources) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "\nSources:\n")
		for _, s := range sources {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", s)
		}
	}
	return nil
}

// sourceNames deduplicates source files preserving retrieval order.
func sourceNames(result *core.AnswerResult) []string {
	seen := make(map[string]bool)
	names := []string{}
	for _, s := range result.Sources {
		if !seen[s.Chunk.Source] {
			seen[s.Chunk.Source] = true
			names = append(names, s.Chunk.Source)
		}
	}
	return names
}

// recordAskHistory appends the exchange to the history database. Failures are
// logged and never fail the command.
func recordAskHistory(cfg *config.Config, question string, result *core.AnswerResult) {
	if !cfg.HistoryEnabled {
		return
	}

	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		log.Warn("failed to open history", "error", err)
		return
	}
	defer func() { _ = store.Close() }()

	_, err = store.Record(history.Entry{
		Question: question,
		Answer:   result.Text,
		Sources:  sourceNames(result),
		Provider: cfg.Provider,
		Model:    cfg.GenerationModel,
	})
	if err != nil {
		log.Warn("failed to record history entry", "error", err)
	}
}
