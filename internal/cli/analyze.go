package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lemonscan/internal/fetch"
	"lemonscan/internal/model"
	"lemonscan/internal/pipeline"
)

var (
	inputJSON   string
	inputURL    string
	inputID     string
	inputTitle  string
	inputDesc   string
	outJSON     string
	outMD       string
	timeout     time.Duration
	noCache     bool
	noFooter    bool
	noLLM       bool
	llmProvider string
	llmModel    string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a single vehicle listing",
	Long: `Analyze extracts risk signals from one listing and prints a report.

The listing can come from a JSON file (--json, use - for stdin), from a
URL (--url), or directly from flags (--title/--description).

Example:
  lemonscan analyze --json listing.json
  lemonscan analyze --url https://example.com/listing/123 --md report.md
  lemonscan analyze --id l-1 --title "2013 Commodore" --description "No rego, needs work" --llm openai`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Input flags
	analyzeCmd.Flags().StringVar(&inputJSON, "json", "", "listing JSON path (- for stdin)")
	analyzeCmd.Flags().StringVar(&inputURL, "url", "", "listing page URL to fetch")
	analyzeCmd.Flags().StringVar(&inputID, "id", "", "listing ID for flag input")
	analyzeCmd.Flags().StringVar(&inputTitle, "title", "", "listing title")
	analyzeCmd.Flags().StringVar(&inputDesc, "description", "", "listing description")

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json-out", "-", "output JSON path (- for stdout)")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Behavior flags
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall analysis timeout")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable report cache")
	analyzeCmd.Flags().StringVar(&llmProvider, "llm", "", "LLM provider (openai, ollama; empty = guardrails only)")
	analyzeCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
	analyzeCmd.Flags().BoolVar(&noLLM, "no-llm", false, "force guardrails-only analysis")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg := loadConfig()
	if noCache {
		cfg.Cache.Enabled = false
	}
	cfg.Output.IncludeFooter = !noFooter
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

	listing, err := resolveListing(ctx, cfg, logger)
	if err != nil {
		return err
	}

	p := pipeline.NewPipeline(cfg, logger)

	report, err := p.Analyze(ctx, listing)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(report, outMD); err != nil {
			return fmt.Errorf("write Markdown: %w", err)
		}
	}
	if outJSON != "-" {
		renderer.RenderSummary(report)
	}

	return nil
}

// resolveListing builds the input listing from whichever source was given.
func resolveListing(ctx context.Context, cfg *model.Config, logger *zap.Logger) (model.Listing, error) {
	switch {
	case inputURL != "":
		f := fetch.NewFetcher(cfg.HTTP, logger)
		listing, err := f.FetchListing(ctx, inputURL)
		if err != nil {
			return model.Listing{}, fmt.Errorf("fetch listing: %w", err)
		}
		return *listing, nil

	case inputJSON != "":
		var data []byte
		var err error
		if inputJSON == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(inputJSON)
		}
		if err != nil {
			return model.Listing{}, fmt.Errorf("read listing: %w", err)
		}
		var listing model.Listing
		if err := json.Unmarshal(data, &listing); err != nil {
			return model.Listing{}, fmt.Errorf("parse listing JSON: %w", err)
		}
		if listing.ListingID == "" {
			return model.Listing{}, fmt.Errorf("listing JSON has no listing_id")
		}
		return listing, nil

	case inputTitle != "" || inputDesc != "":
		id := inputID
		if id == "" {
			id = "adhoc"
		}
		return model.Listing{ListingID: id, Title: inputTitle, Description: inputDesc}, nil

	default:
		return model.Listing{}, fmt.Errorf("no input: pass --json, --url, or --title/--description")
	}
}
