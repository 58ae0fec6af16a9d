package normalize

import (
	"reflect"
	"testing"

	"lemonscan/internal/model"
	"lemonscan/internal/schema"
)

func normalizerForTest() *Normalizer {
	return New(schema.Default())
}

func TestSignalType_DirectMatch(t *testing.T) {
	n := normalizerForTest()

	if got := n.SignalType("no_rego", model.CategoryLegality); got != "no_rego" {
		t.Errorf("Expected direct match 'no_rego', got %q", got)
	}
}

func TestSignalType_CanonicalizesSeparators(t *testing.T) {
	n := normalizerForTest()

	tests := []struct {
		raw      string
		category model.Category
		want     string
	}{
		{"No Rego", model.CategoryLegality, "no_rego"},
		{"flood-damage", model.CategoryAccidentHistory, "flood_damage"},
		{"Engine Knock", model.CategoryMechanicalIssues, "engine_knock"},
	}

	for _, tt := range tests {
		if got := n.SignalType(tt.raw, tt.category); got != tt.want {
			t.Errorf("SignalType(%q, %s) = %q, want %q", tt.raw, tt.category, got, tt.want)
		}
	}
}

func TestSignalType_SynonymMapping(t *testing.T) {
	n := normalizerForTest()

	tests := []struct {
		raw      string
		category model.Category
		want     string
	}{
		{"write_off", model.CategoryAccidentHistory, "writeoff"},
		{"written off", model.CategoryAccidentHistory, "writeoff"},
		{"remapped", model.CategoryModsPerformance, "ecu_tune"},
		{"stage2", model.CategoryModsPerformance, "stage_2_or_higher"},
		{"ono", model.CategorySellerBehavior, "open_to_offers"},
	}

	for _, tt := range tests {
		if got := n.SignalType(tt.raw, tt.category); got != tt.want {
			t.Errorf("SignalType(%q, %s) = %q, want %q", tt.raw, tt.category, got, tt.want)
		}
	}
}

func TestSignalType_UnknownFallsBackToOther(t *testing.T) {
	n := normalizerForTest()

	if got := n.SignalType("unregistered_vehicle_weird_label", model.CategoryLegality); got != schema.Other {
		t.Errorf("Expected 'other' for unknown label, got %q", got)
	}
	if got := n.SignalType("", model.CategoryLegality); got != schema.Other {
		t.Errorf("Expected 'other' for empty label, got %q", got)
	}
}

func TestSignal_UnknownTypeRetainedWithEvidence(t *testing.T) {
	n := normalizerForTest()

	signal, ok := n.Signal(model.CandidateSignal{
		Type:         "unregistered_vehicle_weird_label",
		Severity:     "high",
		EvidenceText: "unreg, no rego",
		Confidence:   0.7,
	}, model.CategoryLegality)

	if !ok {
		t.Fatal("Expected signal with evidence to be retained")
	}
	if signal.Type != schema.Other {
		t.Errorf("Expected type 'other', got %q", signal.Type)
	}
	if signal.EvidenceText != "unreg, no rego" {
		t.Errorf("Evidence must be preserved untouched, got %q", signal.EvidenceText)
	}
}

func TestSignal_DroppedOnlyWhenEvidenceMissing(t *testing.T) {
	n := normalizerForTest()

	if _, ok := n.Signal(model.CandidateSignal{Type: "no_rego", Severity: "high"}, model.CategoryLegality); ok {
		t.Error("Expected signal without evidence to be dropped")
	}
}

func TestSignal_DefaultsAndClamping(t *testing.T) {
	n := normalizerForTest()

	signal, ok := n.Signal(model.CandidateSignal{
		Type:              "no_rego",
		Severity:          "catastrophic",
		VerificationLevel: "definitely",
		EvidenceText:      "no rego",
		Confidence:        1.7,
	}, model.CategoryLegality)
	if !ok {
		t.Fatal("Expected signal to survive normalization")
	}

	if signal.Severity != model.SeverityMedium {
		t.Errorf("Expected unknown severity to default to medium, got %s", signal.Severity)
	}
	if signal.VerificationLevel != model.VerificationInferred {
		t.Errorf("Expected unknown verification to default to inferred, got %s", signal.VerificationLevel)
	}
	if signal.Confidence != 1.0 {
		t.Errorf("Expected confidence clamped to 1.0, got %v", signal.Confidence)
	}
}

func TestEvidencePresentList_MapsAndDedupes(t *testing.T) {
	n := normalizerForTest()

	got := n.EvidencePresentList([]string{"FSH", "service_book", "receipt", "receipts"})
	want := []string{"logbook", "receipts"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestEvidencePresentList_CollapseToOtherGoesEmpty(t *testing.T) {
	n := normalizerForTest()

	if got := n.EvidencePresentList([]string{"weird_token", "another_weird_token"}); len(got) != 0 {
		t.Errorf("Expected empty list when everything maps to 'other', got %v", got)
	}

	// A single unknown item is still recorded as "other".
	got := n.EvidencePresentList([]string{"weird_token"})
	if !reflect.DeepEqual(got, []string{schema.Other}) {
		t.Errorf("Expected single unknown to become ['other'], got %v", got)
	}
}

func TestMaintenanceClaimType_Synonyms(t *testing.T) {
	n := normalizerForTest()

	tests := []struct {
		raw  string
		want string
	}{
		{"timing_belt_replaced", "timing_belt_done"},
		{"new clutch", "clutch_replaced"},
		{"just serviced", "serviced_recently"},
		{"logbook_mentioned", "logbook_mentioned"},
		{"totally_new_claim_type", schema.Other},
	}

	for _, tt := range tests {
		if got := n.MaintenanceClaimType(tt.raw); got != tt.want {
			t.Errorf("MaintenanceClaimType(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestMaintenance_DropsClaimsWithoutEvidence(t *testing.T) {
	n := normalizerForTest()

	section := n.Maintenance(model.CandidateMaintenance{
		Claims: []model.CandidateMaintenanceClaim{
			{Type: "serviced_recently", EvidenceText: "just serviced last week", Confidence: 0.8},
			{Type: "new_tyres"},
		},
		EvidencePresent: []string{"logbook"},
	})

	if len(section.Claims) != 1 {
		t.Fatalf("Expected 1 surviving claim, got %d", len(section.Claims))
	}
	if section.Claims[0].Type != "serviced_recently" {
		t.Errorf("Unexpected claim type %q", section.Claims[0].Type)
	}
}

func TestQuestionPriority(t *testing.T) {
	n := normalizerForTest()

	if got := n.QuestionPriority("HIGH"); got != "high" {
		t.Errorf("Expected 'high', got %q", got)
	}
	if got := n.QuestionPriority("whenever"); got != "medium" {
		t.Errorf("Expected default 'medium', got %q", got)
	}
}

func TestMissingInfoList(t *testing.T) {
	n := normalizerForTest()

	got := n.MissingInfoList([]string{"no_service_history", "vin_unknown", "vin_unknown"})
	want := []string{"service_history_unknown", "vin_unknown"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}
