// ABOUTME: Root CLI command with global flags and logging setup
// ABOUTME: Wires all subcommands and shared configuration loading
package commands

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"docquery/internal/config"
	"docquery/internal/llm"
	"docquery/internal/util"
)

const banner = `
██████╗  ██████╗  ██████╗ ██████╗ ██╗   ██╗███████╗██████╗ ██╗   ██╗
██╔══██╗██╔═══██╗██╔════╝██╔═══██╗██║   ██║██╔════╝██╔══██╗╚██╗ ██╔╝
██║  ██║██║   ██║██║     ██║   ██║██║   ██║█████╗  ██████╔╝ ╚████╔╝
██║  ██║██║   ██║██║     ██║▄▄ ██║██║   ██║██╔══╝  ██╔══██╗  ╚██╔╝
██████╔╝╚██████╔╝╚██████╗╚██████╔╝╚██████╔╝███████╗██║  ██║   ██║
╚═════╝  ╚═════╝  ╚═════╝ ╚══▀▀═╝  ╚═════╝ ╚══════╝╚═╝  ╚═╝   ╚═╝`

// Global flags shared by all commands
var (
	cfgFile      string
	verbose      bool
	quiet        bool
	outputFormat string
)

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docquery",
		Short: "Ask questions about your documents",
		Long: banner + `

docquery answers questions about a folder of documents using
retrieval-augmented generation against a local Ollama instance
or any OpenAI-compatible endpoint.

Index a folder of .txt, .md, or .csv files, then ask questions
grounded in their contents.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: XDG config dir)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, json")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewIndexCmd())
	cmd.AddCommand(NewAskCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func configureLogging() {
	switch {
	case verbose:
		log.SetLevel(log.DebugLevel)
	case quiet:
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.WarnLevel)
	}
}

// loadConfig reads configuration honoring the --config flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// buildClient constructs the provider client and the embedder, wrapping the
// latter with an LRU cache when configured.
func buildClient(cfg *config.Config) (llm.Client, llm.Embedder, error) {
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
		return nil, nil, fmt.Errorf("initializing %s client: %w", cfg.Provider, err)
	}

	var embedder llm.Embedder = client
	if cfg.CacheSize > 0 {
		cached, err := llm.NewCachingEmbedder(client, cfg.CacheSize)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing embedding cache: %w", err)
		}
		embedder = cached
	}

	return client, embedder, nil
}
