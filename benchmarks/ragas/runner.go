// ABOUTME: Test runner for RAGAS benchmarks - executes scenarios and collects results
// ABOUTME: Indexes each fixture corpus, asks the scenario question, and scores the result

package ragas

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"docquery/internal/config"
	"docquery/internal/core"
	"docquery/internal/llm"
	"docquery/internal/storage"
	"docquery/internal/util"
)

// BenchmarkRunner executes RAGAS benchmark tests against a live backend
type BenchmarkRunner struct {
	cfg      *config.Config
	client   llm.Client
	embedder llm.Embedder
	metrics  *MetricsCalculator
	verbose  bool
}

// NewBenchmarkRunner creates a new benchmark runner
func NewBenchmarkRunner(cfg *config.Config, verbose bool) (*BenchmarkRunner, error) {
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
		return nil, fmt.Errorf("failed to initialize %s client: %w", cfg.Provider, err)
	}

	var embedder llm.Embedder = client
	if cfg.CacheSize > 0 {
		cached, err := llm.NewCachingEmbedder(client, cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedding cache: %w", err)
		}
		embedder = cached
	}

	return &BenchmarkRunner{
		cfg:      cfg,
		client:   client,
		embedder: embedder,
		metrics:  NewMetricsCalculator(),
		verbose:  verbose,
	}, nil
}

// Ping reports whether the configured backend is reachable
func (r *BenchmarkRunner) Ping(ctx context.Context) bool {
	return r.client.Ping(ctx)
}

// RunTest executes a single benchmark test
func (r *BenchmarkRunner) RunTest(ctx context.Context, scenario TestScenario) (TestResult, error) {
	if r.verbose {
		fmt.Printf("\n========================================\n")
		fmt.Printf("RUNNING: %s\n", scenario.Name)
		fmt.Printf("========================================\n")
		fmt.Printf("Description: %s\n\n", scenario.Description)
	}

	// Write the fixture corpus to a fresh folder for this test
	folder, err := os.MkdirTemp("", fmt.Sprintf("docquery_bench_%s_", scenario.ID))
	if err != nil {
		return TestResult{}, fmt.Errorf("failed to create corpus folder: %w", err)
	}
	defer func() { _ = os.RemoveAll(folder) }()

	for name, content := range scenario.Corpus {
		if err := os.WriteFile(filepath.Join(folder, name), []byte(content), 0644); err != nil {
			return TestResult{}, fmt.Errorf("failed to write corpus file %s: %w", name, err)
		}
	}

	// Index the corpus into a fresh in-memory index
	index := storage.NewVectorIndex()
	indexer := core.NewIndexer(r.embedder, index, core.IndexerOptions{
		Model:     r.cfg.EmbeddingModel,
		ChunkSize: r.cfg.ChunkSize,
		Overlap:   r.cfg.ChunkOverlap,
		Workers:   r.cfg.Workers,
	})

	var progress core.ProgressFunc
	if r.verbose {
		progress = func(event core.ProgressEvent) {
			fmt.Printf("  [%d/%d] indexing %s\n", event.Index, event.Total, event.File)
		}
	}

	chunkCount, err := indexer.Run(ctx, folder, progress)
	if err != nil {
		return TestResult{}, fmt.Errorf("indexing failed: %w", err)
	}
	if r.verbose {
		fmt.Printf("  indexed %d chunk(s) from %d file(s)\n\n", chunkCount, len(scenario.Corpus))
	}

	// Ask the scenario question through the full pipeline
	answerer := core.NewAnswerer(r.embedder, r.client, index, core.AnswererOptions{
		EmbedModel: r.cfg.EmbeddingModel,
		GenModel:   r.cfg.GenerationModel,
		TopK:       scenario.TopK,
	})

	if r.verbose {
		fmt.Printf("  Question: %s\n", scenario.Question)
	}

	result, err := answerer.AnswerWithSources(ctx, scenario.Question)
	if err != nil {
		return TestResult{}, fmt.Errorf("query failed: %w", err)
	}

	if r.verbose {
		preview := result.Text
		if len(preview) > 150 {
			preview = preview[:150]
		}
		fmt.Printf("  Answer: %s\n", preview)
	}

	// Collect retrieved chunk texts and their source files
	retrievedContext := make([]string, 0, len(result.Sources))
	retrievedSources := []string{}
	seen := map[string]bool{}
	for _, scored := range result.Sources {
		retrievedContext = append(retrievedContext, scored.Chunk.Text)
		if !seen[scored.Chunk.Source] {
			seen[scored.Chunk.Source] = true
			retrievedSources = append(retrievedSources, scored.Chunk.Source)
		}
	}

	testResult := r.metrics.EvaluateTest(scenario, result.Text, retrievedContext, retrievedSources)

	if r.verbose {
		fmt.Printf("\n========================================\n")
		fmt.Printf("RESULTS: %s\n", scenario.Name)
		fmt.Printf("========================================\n")
		fmt.Printf("Faithfulness: %.2f\n", testResult.FaithfulnessScore)
		fmt.Printf("Context Recall: %.2f\n", testResult.ContextRecallScore)
		fmt.Printf("Source Accuracy: %.2f\n", testResult.SourceAccuracyScore)
		fmt.Printf("Overall Score: %.2f\n", testResult.OverallScore)
		fmt.Printf("Status: %s\n", testResult.Status)
		fmt.Printf("========================================\n\n")
	}

	return testResult, nil
}

// RunAllTests executes all benchmark tests
func (r *BenchmarkRunner) RunAllTests(ctx context.Context) ([]TestResult, error) {
	scenarios := GetAllTests()
	results := make([]TestResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		result, err := r.RunTest(ctx, scenario)
		if err != nil {
			return nil, fmt.Errorf("test %s failed: %w", scenario.ID, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// ExportResults exports test results to JSON
func (r *BenchmarkRunner) ExportResults(results []TestResult, outputPath string) error {
	summary := map[string]interface{}{
		"timestamp":        time.Now().Format(time.RFC3339),
		"provider":         r.cfg.Provider,
		"embedding_model":  r.cfg.EmbeddingModel,
		"generation_model": r.cfg.GenerationModel,
		"total_tests":      len(results),
		"passed":           0,
		"failed":           0,
		"results":          results,
	}

	for _, result := range results {
		if result.Status == "PASS" {
			summary["passed"] = summary["passed"].(int) + 1
		} else {
			summary["failed"] = summary["failed"].(int) + 1
		}
	}

	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}

	fmt.Printf("✓ Results exported to: %s\n", outputPath)
	return nil
}
