package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"lemonscan/internal/pipeline"
	"lemonscan/internal/worker"
)

var (
	batchWorkers int
	outputDir    string
	batchTimeout time.Duration
	showCosts    bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file.jsonl>",
	Short: "Analyze multiple listings from a JSONL file in parallel",
	Long: `Batch reads one listing JSON object per line and analyzes them
concurrently. Each listing gets its own report file in the output
directory, named by listing ID.

Example:
  lemonscan batch listings.jsonl
  lemonscan batch listings.jsonl --workers 8 --output-dir ./reports
  lemonscan batch listings.jsonl --llm openai --costs`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./lemonscan-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable report cache")
	batchCmd.Flags().BoolVar(&showCosts, "costs", false, "print LLM token cost summary after the run")
	batchCmd.Flags().StringVar(&llmProvider, "llm", "", "LLM provider (openai, ollama; empty = guardrails only)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
	batchCmd.Flags().BoolVar(&noLLM, "no-llm", false, "force guardrails-only analysis")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg := loadConfig()
	if noCache {
		cfg.Cache.Enabled = false
	}
	if batchWorkers > 0 {
		cfg.Concurrency.BatchWorkers = batchWorkers
	}
	if cmd.Flags().Changed("llm") {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if noLLM {
		cfg.LLM.Provider = ""
	}
	if err := applyLLMEnv(cfg); err != nil {
		return err
	}

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p := pipeline.NewPipeline(cfg, logger)

	// The pipeline rate-limits producer calls itself; the batch processor
	// only bounds concurrency.
	processor := worker.NewBatchProcessor(p, cfg.Concurrency.BatchWorkers, 0, 0, cfg.LLM.Provider, logger)

	fmt.Fprintf(os.Stderr, "Reading listings from %s\n", file)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	succeeded := 0
	failed := 0

	for _, result := range results {
		if result.Error != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.ListingID, result.Error)
			continue
		}

		jsonPath := filepath.Join(outputDir, result.ListingID+".json")
		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: write report: %v\n", result.ListingID, err)
			continue
		}

		succeeded++
		fmt.Fprintf(os.Stderr, "✓ %s (risk: %s)\n", result.ListingID, result.Report.Payload.RiskLevelOverall)
	}

	fmt.Fprintf(os.Stderr, "\nProcessed %d listings: %d ok, %d failed. Reports in %s\n",
		len(results), succeeded, failed, outputDir)

	if showCosts {
		printCostSummary(p)
	}

	return nil
}

func printCostSummary(p *pipeline.Pipeline) {
	summary := p.Costs()
	if summary.Calls == 0 {
		fmt.Fprintln(os.Stderr, "\nNo LLM calls were made.")
		return
	}

	fmt.Fprintf(os.Stderr, "\nLLM usage: %d calls, %d tokens, $%.4f\n",
		summary.Calls, summary.TotalTokens, summary.TotalCostUSD)
	for _, m := range summary.ByModel {
		fmt.Fprintf(os.Stderr, "  %s: %d calls, %d prompt + %d completion tokens, $%.4f\n",
			m.Model, m.Calls, m.PromptTokens, m.CompletionTokens, m.CostUSD)
	}
	for _, m := range summary.UnknownModels {
		fmt.Fprintf(os.Stderr, "  %s: pricing unknown, cost not counted\n", m)
	}
}
