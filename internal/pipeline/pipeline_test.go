package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lemonscan/internal/llm"
	"lemonscan/internal/model"
)

type stubProvider struct {
	candidate *model.CandidateExtraction
	usage     *model.TokenUsage
	err       error
	calls     int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Extract(ctx context.Context, req llm.ExtractRequest) (*model.CandidateExtraction, *model.TokenUsage, error) {
	s.calls++
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.candidate, s.usage, nil
}

func (s *stubProvider) IsAvailable(ctx context.Context) bool { return s.err == nil }

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	return cfg
}

func hasWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestAnalyzeGuardrailsOnly(t *testing.T) {
	p := NewPipeline(testConfig(), nil)

	listing := model.Listing{
		ListingID:   "l-100",
		Title:       "2013 VE Commodore",
		Description: "Repairable write-off, fixed in 2019. Currently not running due to starter. Price firm, no lowballers.",
	}

	report, err := p.Analyze(context.Background(), listing)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if report.ListingID != "l-100" {
		t.Errorf("Expected listing_id l-100, got %s", report.ListingID)
	}
	if report.SourceSnapshotID != "l-100" {
		t.Errorf("Expected snapshot to default to listing_id, got %s", report.SourceSnapshotID)
	}
	if report.ReportID == "" {
		t.Error("Expected a report_id")
	}
	if report.StageName != model.StageName || report.RulesetVersion != model.RulesetVersion {
		t.Error("Expected stage and ruleset versions in envelope")
	}
	if report.LLMVersion != "" {
		t.Errorf("Expected empty llm_version without a provider, got %q", report.LLMVersion)
	}

	if len(report.Payload.Signals.Legality) == 0 {
		t.Error("Expected a legality signal for write-off text")
	}
	if len(report.Payload.Signals.MechanicalIssues) == 0 {
		t.Error("Expected a mechanical signal for not running text")
	}
	if report.Payload.RiskLevelOverall != "high" {
		t.Errorf("Expected high risk, got %s", report.Payload.RiskLevelOverall)
	}
	if report.Payload.ClaimedCondition != "needs_work" {
		t.Errorf("Expected needs_work for non-running vehicle, got %s", report.Payload.ClaimedCondition)
	}
	if !report.Payload.SourceTextStats.ContainsKeywordsHighRisk {
		t.Error("Expected high-risk keyword flag")
	}
	if !hasWarning(report.Payload.ExtractionWarnings, "llm extraction disabled") {
		t.Errorf("Expected disabled warning, got %v", report.Payload.ExtractionWarnings)
	}
}

func TestAnalyzeEmptyListing(t *testing.T) {
	p := NewPipeline(testConfig(), nil)

	report, err := p.Analyze(context.Background(), model.Listing{ListingID: "l-empty"})
	if err != nil {
		t.Fatalf("Analyze failed on empty listing: %v", err)
	}

	if report.Payload.RiskLevelOverall != "unknown" {
		t.Errorf("Expected unknown risk for empty text, got %s", report.Payload.RiskLevelOverall)
	}
	if !hasWarning(report.Payload.ExtractionWarnings, "no text") {
		t.Errorf("Expected empty-text warning, got %v", report.Payload.ExtractionWarnings)
	}

	for _, want := range []string{"service_history_unknown", "rego_expiry_unknown", "rwc_status_unknown", "accident_history_unknown"} {
		found := false
		for _, m := range report.Payload.MissingInfo {
			if m == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected %s in missing_info, got %v", want, report.Payload.MissingInfo)
		}
	}
}

func TestAnalyzeMergesProducerSignals(t *testing.T) {
	description := "Full logbook service history. Small ding on the rear bumper. Price firm."
	stub := &stubProvider{
		candidate: &model.CandidateExtraction{
			Signals: model.CandidateSignalSet{
				CosmeticIssues: []model.CandidateSignal{
					{Type: "dent", Severity: "low", VerificationLevel: "verified", EvidenceText: "Small ding on the rear bumper.", Confidence: 0.8},
					{Type: "paint_fade", Severity: "low", VerificationLevel: "verified", EvidenceText: "clear coat peeling on roof", Confidence: 0.9},
				},
			},
			Maintenance: model.CandidateMaintenance{
				EvidencePresent: []string{"logbook"},
			},
			Summaries:   model.CandidateSummaries{ClaimedCondition: "good"},
			MissingInfo: []string{"number_of_owners_unknown"},
		},
		usage: &model.TokenUsage{PromptTokens: 300, CompletionTokens: 100, TotalTokens: 400, Model: "gpt-4o-mini"},
	}

	p := NewPipeline(testConfig(), nil)
	p.provider = stub

	report, err := p.Analyze(context.Background(), model.Listing{
		ListingID:   "l-200",
		Title:       "2016 Mazda 3",
		Description: description,
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if stub.calls != 1 {
		t.Errorf("Expected 1 producer call, got %d", stub.calls)
	}
	if report.LLMVersion != "gpt-4o-mini" {
		t.Errorf("Expected llm_version gpt-4o-mini, got %q", report.LLMVersion)
	}

	// Grounded cosmetic signal survives, fabricated one is dropped.
	cosmetic := report.Payload.Signals.CosmeticIssues
	if len(cosmetic) != 1 {
		t.Fatalf("Expected 1 cosmetic signal, got %d", len(cosmetic))
	}
	if cosmetic[0].Type != "dent" {
		t.Errorf("Expected dent to survive, got %s", cosmetic[0].Type)
	}
	if cosmetic[0].VerificationLevel != model.VerificationVerified {
		t.Errorf("Expected soft-free evidence to stay verified, got %s", cosmetic[0].VerificationLevel)
	}

	if report.Payload.ServiceHistoryLevel != "full" {
		t.Errorf("Expected full service history for logbook evidence, got %s", report.Payload.ServiceHistoryLevel)
	}
	if report.Payload.ClaimedCondition != "good" {
		t.Errorf("Expected producer condition hint to pass, got %s", report.Payload.ClaimedCondition)
	}

	found := false
	for _, m := range report.Payload.MissingInfo {
		if m == "number_of_owners_unknown" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected producer missing_info to be unioned, got %v", report.Payload.MissingInfo)
	}
}

func TestAnalyzeProducerFailureDegrades(t *testing.T) {
	stub := &stubProvider{err: errors.New("backend down")}

	p := NewPipeline(testConfig(), nil)
	p.provider = stub

	report, err := p.Analyze(context.Background(), model.Listing{
		ListingID:   "l-300",
		Title:       "Ford Falcon",
		Description: "Engine blown, selling as is for parts. No rego.",
	})
	if err != nil {
		t.Fatalf("Expected degraded report, got error: %v", err)
	}

	if !hasWarning(report.Payload.ExtractionWarnings, "llm extraction failed") {
		t.Errorf("Expected failure warning, got %v", report.Payload.ExtractionWarnings)
	}
	if len(report.Payload.Signals.MechanicalIssues) == 0 {
		t.Error("Expected guardrail signals despite producer failure")
	}
	if report.LLMVersion != "" {
		t.Errorf("Expected empty llm_version after failure, got %q", report.LLMVersion)
	}
}

func TestAnalyzeCacheRoundTrip(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.Dir = t.TempDir()

	p := NewPipeline(cfg, nil)

	listing := model.Listing{
		ListingID:   "l-400",
		Title:       "2018 Corolla",
		Description: "One owner, full logbook service history, always garaged and well maintained.",
	}

	first, err := p.Analyze(context.Background(), listing)
	if err != nil {
		t.Fatalf("First analyze failed: %v", err)
	}
	second, err := p.Analyze(context.Background(), listing)
	if err != nil {
		t.Fatalf("Second analyze failed: %v", err)
	}

	if first.ReportID != second.ReportID {
		t.Error("Expected cached report on second run")
	}

	changed := listing
	changed.Description = listing.Description + " Slight hail damage on bonnet."
	third, err := p.Analyze(context.Background(), changed)
	if err != nil {
		t.Fatalf("Third analyze failed: %v", err)
	}
	if third.ReportID == first.ReportID {
		t.Error("Expected changed content to miss the cache")
	}
}

func TestAnalyzeCancelledContext(t *testing.T) {
	p := NewPipeline(testConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Analyze(ctx, model.Listing{ListingID: "l-500"}); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestAnalyzeWriteOffWithStage2(t *testing.T) {
	p := NewPipeline(testConfig(), nil)

	report, err := p.Analyze(context.Background(), model.Listing{
		ListingID:   "l-600",
		Description: "This car is a write off. Running stage 2 tune.",
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	var accident *model.Signal
	for i, s := range report.Payload.Signals.AccidentHistory {
		if s.Type == "writeoff" {
			accident = &report.Payload.Signals.AccidentHistory[i]
		}
	}
	if accident == nil {
		t.Fatal("Expected a writeoff signal in accident_history")
	}
	if accident.Severity != model.SeverityHigh || accident.VerificationLevel != model.VerificationVerified {
		t.Errorf("Expected high verified writeoff, got %s %s", accident.Severity, accident.VerificationLevel)
	}

	foundStage2 := false
	for _, s := range report.Payload.Signals.ModsPerformance {
		if s.Type == "stage_2_or_higher" {
			foundStage2 = true
		}
	}
	if !foundStage2 {
		t.Error("Expected a stage_2_or_higher signal in mods_performance")
	}

	if report.Payload.RiskLevelOverall != "high" {
		t.Errorf("Expected high overall risk, got %s", report.Payload.RiskLevelOverall)
	}
	if report.Payload.ModsRiskLevel != "high" {
		t.Errorf("Expected high mods risk, got %s", report.Payload.ModsRiskLevel)
	}
}
