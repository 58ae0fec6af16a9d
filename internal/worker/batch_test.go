package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"lemonscan/internal/model"
)

type mockAnalyzer struct {
	calls   int32
	failFor map[string]bool
}

func (m *mockAnalyzer) Analyze(ctx context.Context, listing model.Listing) (*model.Report, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.failFor[listing.ListingID] {
		return nil, errors.New("analysis failed")
	}
	return &model.Report{ListingID: listing.ListingID}, nil
}

func TestBatchProcessorProcessListings(t *testing.T) {
	analyzer := &mockAnalyzer{}
	bp := NewBatchProcessor(analyzer, 2, 0, 0, "openai", nil)

	listings := []model.Listing{
		{ListingID: "l-1", Title: "Civic"},
		{ListingID: "l-2", Title: "Falcon"},
		{ListingID: "l-3", Title: "WRX"},
	}

	results := bp.ProcessListings(context.Background(), listings)
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if got := atomic.LoadInt32(&analyzer.calls); got != 3 {
		t.Errorf("Expected 3 analyzer calls, got %d", got)
	}

	seen := make(map[string]bool)
	for _, res := range results {
		if res.Error != nil {
			t.Errorf("Unexpected error for %s: %v", res.ListingID, res.Error)
		}
		if res.Report == nil || res.Report.ListingID != res.ListingID {
			t.Errorf("Result for %s carries wrong report", res.ListingID)
		}
		seen[res.ListingID] = true
	}
	if len(seen) != 3 {
		t.Errorf("Expected results for 3 distinct listings, got %d", len(seen))
	}
}

func TestBatchProcessorCollectsFailures(t *testing.T) {
	analyzer := &mockAnalyzer{failFor: map[string]bool{"l-2": true}}
	bp := NewBatchProcessor(analyzer, 2, 0, 0, "", nil)

	results := bp.ProcessListings(context.Background(), []model.Listing{
		{ListingID: "l-1"},
		{ListingID: "l-2"},
	})

	failed := 0
	for _, res := range results {
		if res.Error != nil {
			if res.ListingID != "l-2" {
				t.Errorf("Expected failure for l-2, got failure for %s", res.ListingID)
			}
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("Expected 1 failure, got %d", failed)
	}
}

func TestBatchProcessorEmptyInput(t *testing.T) {
	bp := NewBatchProcessor(&mockAnalyzer{}, 2, 0, 0, "", nil)
	if results := bp.ProcessListings(context.Background(), nil); results != nil {
		t.Errorf("Expected nil results for empty input, got %d", len(results))
	}
}

func TestReadListingsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.jsonl")
	content := `# batch from 2026-08-20
{"listing_id": "l-1", "title": "2014 Golf GTI", "description": "Full logbook history"}

{"listing_id": "l-2", "title": "VT Commodore", "description": "No rego, needs work"}
{"listing_id": "l-1", "title": "duplicate entry"}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	listings, err := ReadListingsFromFile(path)
	if err != nil {
		t.Fatalf("ReadListingsFromFile failed: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("Expected 2 listings after dedup, got %d", len(listings))
	}
	if listings[0].ListingID != "l-1" || listings[0].Title != "2014 Golf GTI" {
		t.Errorf("Expected first occurrence of l-1 to win, got %+v", listings[0])
	}
	if listings[1].ListingID != "l-2" {
		t.Errorf("Expected l-2 second, got %s", listings[1].ListingID)
	}
}

func TestReadListingsFromFileRejectsBadLines(t *testing.T) {
	dir := t.TempDir()

	badJSON := filepath.Join(dir, "bad.jsonl")
	if err := os.WriteFile(badJSON, []byte("{not json}\n"), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	if _, err := ReadListingsFromFile(badJSON); err == nil {
		t.Error("Expected error for malformed JSON line")
	}

	noID := filepath.Join(dir, "noid.jsonl")
	if err := os.WriteFile(noID, []byte(`{"title": "mystery car"}`+"\n"), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	if _, err := ReadListingsFromFile(noID); err == nil {
		t.Error("Expected error for listing without listing_id")
	}

	if _, err := ReadListingsFromFile(filepath.Join(dir, "missing.jsonl")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.jsonl")
	var content string
	for i := 1; i <= 5; i++ {
		content += fmt.Sprintf(`{"listing_id": "l-%d", "title": "car %d"}`+"\n", i, i)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	analyzer := &mockAnalyzer{}
	bp := NewBatchProcessor(analyzer, 3, 0, 0, "", nil)

	results, err := bp.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 5 {
		t.Errorf("Expected 5 results, got %d", len(results))
	}
}
