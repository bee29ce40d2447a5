// ABOUTME: Command-line benchmark runner for RAGAS tests
// ABOUTME: Executes retrieval benchmarks against a live backend and outputs JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"docquery/benchmarks/ragas"
	"docquery/internal/config"
	"docquery/internal/llm"
)

func main() {
	testID := flag.String("test", "", "Run specific test (needle, attribution, distractor). If empty, runs all tests.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found", "error", err)
	}

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal("invalid configuration", "error", err)
	}
	if cfg.Provider == config.ProviderOpenAI && cfg.APIKey == "" {
		log.Fatal("DOCQUERY_API_KEY (or OPENAI_API_KEY) is required for the openai provider")
	}

	fmt.Println("========================================")
	fmt.Println("docquery RAGAS Benchmarks")
	fmt.Println("========================================")
	fmt.Println()

	runner, err := ragas.NewBenchmarkRunner(cfg, *verbose)
	if err != nil {
		log.Fatal("failed to create benchmark runner", "error", err)
	}

	ctx := context.Background()

	if !runner.Ping(ctx) {
		baseURL := cfg.BaseURL
		if baseURL == "" && cfg.Provider == config.ProviderOllama {
			baseURL = llm.DefaultBaseURL
		}
		log.Fatal("backend is not reachable", "provider", cfg.Provider, "base_url", baseURL)
	}

	var results []ragas.TestResult

	if *testID == "" {
		fmt.Println("Running all benchmark tests...")
		fmt.Println()

		results, err = runner.RunAllTests(ctx)
		if err != nil {
			log.Fatal("benchmark failed", "error", err)
		}
	} else {
		var scenario ragas.TestScenario

		switch *testID {
		case "needle":
			scenario = ragas.GetNeedleTest()
		case "attribution":
			scenario = ragas.GetAttributionTest()
		case "distractor":
			scenario = ragas.GetDistractorTest()
		default:
			log.Fatal("unknown test ID", "test", *testID, "valid", "needle, attribution, distractor")
		}

		fmt.Printf("Running test: %s\n\n", scenario.Name)

		result, err := runner.RunTest(ctx, scenario)
		if err != nil {
			log.Fatal("test failed", "error", err)
		}

		results = []ragas.TestResult{result}
	}

	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")

	passed := 0
	failed := 0

	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.TestID, result.TestName)
		fmt.Printf("  Faithfulness: %.2f\n", result.FaithfulnessScore)
		fmt.Printf("  Context Recall: %.2f\n", result.ContextRecallScore)
		fmt.Printf("  Source Accuracy: %.2f\n", result.SourceAccuracyScore)
		fmt.Printf("  Overall: %.2f\n", result.OverallScore)
		fmt.Printf("  Status: %s\n", result.Status)

		if result.Status == "PASS" {
			passed++
		} else {
			failed++
		}
	}

	fmt.Println("\n========================================")
	fmt.Printf("Total Tests: %d\n", len(results))
	fmt.Printf("Passed: %d\n", passed)
	fmt.Printf("Failed: %d\n", failed)
	fmt.Println("========================================")

	if err := runner.ExportResults(results, *outputPath); err != nil {
		log.Fatal("failed to export results", "error", err)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
