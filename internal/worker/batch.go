package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"lemonscan/internal/model"
)

// Analyzer is the interface the batch processor drives. The analysis
// pipeline satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, listing model.Listing) (*model.Report, error)
}

// AnalyzeJob wraps a listing for worker pool execution
type AnalyzeJob struct {
	Listing  model.Listing
	Analyzer Analyzer
	Limiter  *Limiter
	RateKey  string
	Delay    time.Duration
	Logger   *zap.Logger
}

// AnalyzeResult holds the outcome of one listing analysis
type AnalyzeResult struct {
	ListingID string
	Report    *model.Report
	Error     error
	Duration  time.Duration
}

// GetError implements the Result interface
func (r AnalyzeResult) GetError() error {
	return r.Error
}

// Execute implements the Job interface
func (j AnalyzeJob) Execute(ctx context.Context) Result {
	start := time.Now()

	if j.Limiter != nil {
		if err := j.Limiter.WaitWithDelay(ctx, j.RateKey, j.Delay); err != nil {
			return AnalyzeResult{
				ListingID: j.Listing.ListingID,
				Error:     fmt.Errorf("rate limit wait failed: %w", err),
				Duration:  time.Since(start),
			}
		}
	}

	report, err := j.Analyzer.Analyze(ctx, j.Listing)
	result := AnalyzeResult{
		ListingID: j.Listing.ListingID,
		Report:    report,
		Error:     err,
		Duration:  time.Since(start),
	}

	if j.Logger != nil {
		if err != nil {
			j.Logger.Warn("listing analysis failed",
				zap.String("listing_id", j.Listing.ListingID),
				zap.Error(err),
				zap.Duration("duration", result.Duration))
		} else {
			j.Logger.Debug("listing analysis complete",
				zap.String("listing_id", j.Listing.ListingID),
				zap.Duration("duration", result.Duration))
		}
	}

	return result
}

// BatchProcessor analyzes batches of listings using a worker pool
type BatchProcessor struct {
	analyzer Analyzer
	workers  int
	limiter  *Limiter
	rateKey  string
	delay    time.Duration
	logger   *zap.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, workers int, requestsPerSecond float64, delay time.Duration, rateKey string, logger *zap.Logger) *BatchProcessor {
	if workers <= 0 {
		workers = 3
	}
	if rateKey == "" {
		rateKey = "default"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiter *Limiter
	if requestsPerSecond > 0 {
		limiter = NewLimiter(requestsPerSecond, workers)
	}

	return &BatchProcessor{
		analyzer: analyzer,
		workers:  workers,
		limiter:  limiter,
		rateKey:  rateKey,
		delay:    delay,
		logger:   logger,
	}
}

// ProcessListings analyzes the given listings concurrently and returns one
// result per listing. Result order is completion order, not input order.
func (bp *BatchProcessor) ProcessListings(ctx context.Context, listings []model.Listing) []AnalyzeResult {
	if len(listings) == 0 {
		return nil
	}

	pool := NewPool(bp.workers)
	pool.Start()

	for _, listing := range listings {
		pool.Submit(AnalyzeJob{
			Listing:  listing,
			Analyzer: bp.analyzer,
			Limiter:  bp.limiter,
			RateKey:  bp.rateKey,
			Delay:    bp.delay,
			Logger:   bp.logger,
		})
	}

	results := pool.Wait()

	analyzeResults := make([]AnalyzeResult, 0, len(results))
	for _, result := range results {
		if ar, ok := result.(AnalyzeResult); ok {
			analyzeResults = append(analyzeResults, ar)
		}
	}

	return analyzeResults
}

// ProcessFile reads listings from a JSONL file and analyzes them
func (bp *BatchProcessor) ProcessFile(ctx context.Context, filename string) ([]AnalyzeResult, error) {
	listings, err := ReadListingsFromFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read listings from file: %w", err)
	}

	bp.logger.Info("starting batch analysis",
		zap.String("file", filename),
		zap.Int("listings", len(listings)),
		zap.Int("workers", bp.workers))

	return bp.ProcessListings(ctx, listings), nil
}

// ReadListingsFromFile reads one JSON listing per line. Blank lines and
// lines starting with # are skipped; duplicate listing IDs keep the first
// occurrence.
func ReadListingsFromFile(filename string) ([]model.Listing, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var listings []model.Listing
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var listing model.Listing
		if err := json.Unmarshal([]byte(line), &listing); err != nil {
			return nil, fmt.Errorf("invalid listing on line %d: %w", lineNo, err)
		}
		if listing.ListingID == "" {
			return nil, fmt.Errorf("listing on line %d has no listing_id", lineNo)
		}
		if seen[listing.ListingID] {
			continue
		}
		seen[listing.ListingID] = true
		listings = append(listings, listing)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return listings, nil
}
