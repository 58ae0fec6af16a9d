package verify

import (
	"testing"

	"lemonscan/internal/model"
	"lemonscan/internal/schema"
)

func verifierForTest() *Verifier {
	return New(schema.Default(), model.DefaultConfig().Engine)
}

func TestSignals_DropsMissingEvidence(t *testing.T) {
	v := verifierForTest()
	text := "2008 Falcon, no rego, runs well"

	var signals model.SignalSet
	signals.Legality = []model.Signal{
		{Type: "no_rego", Severity: model.SeverityHigh, EvidenceText: "no rego", Confidence: 0.8},
		{Type: "defected", Severity: model.SeverityHigh, EvidenceText: "", Confidence: 0.8},
	}

	verified := v.Signals(signals, text)
	if len(verified.Legality) != 1 {
		t.Fatalf("Expected 1 surviving signal, got %d", len(verified.Legality))
	}
	if verified.Legality[0].Type != "no_rego" {
		t.Errorf("Expected no_rego to survive, got %q", verified.Legality[0].Type)
	}
}

func TestSignals_DropsFabricatedEvidence(t *testing.T) {
	v := verifierForTest()
	text := "2008 Falcon, runs well, always garaged"

	var signals model.SignalSet
	signals.MechanicalIssues = []model.Signal{
		{Type: "engine_knock", Severity: model.SeverityHigh, EvidenceText: "engine knocks when cold", Confidence: 0.9},
	}

	verified := v.Signals(signals, text)
	if len(verified.MechanicalIssues) != 0 {
		t.Errorf("Expected fabricated evidence to be dropped, got %+v", verified.MechanicalIssues)
	}
}

func TestSignals_AcceptsNormalizedEvidence(t *testing.T) {
	v := verifierForTest()
	text := "Car was  Written\nOff in 2019 but repaired"

	var signals model.SignalSet
	signals.AccidentHistory = []model.Signal{
		{Type: "writeoff", Severity: model.SeverityHigh, EvidenceText: "written off in 2019", Confidence: 0.6},
	}

	verified := v.Signals(signals, text)
	if len(verified.AccidentHistory) != 1 {
		t.Fatal("Expected whitespace/case differences to be tolerated")
	}
}

func TestSignals_DropsInvalidType(t *testing.T) {
	v := verifierForTest()
	text := "no rego on this one"

	var signals model.SignalSet
	signals.Legality = []model.Signal{
		{Type: "completely_made_up", Severity: model.SeverityHigh, EvidenceText: "no rego", Confidence: 0.8},
	}

	verified := v.Signals(signals, text)
	if len(verified.Legality) != 0 {
		t.Errorf("Expected invalid type to be dropped, got %+v", verified.Legality)
	}
}

func TestSignals_KeepsOtherType(t *testing.T) {
	v := verifierForTest()
	text := "unreg, no rego"

	var signals model.SignalSet
	signals.Legality = []model.Signal{
		{Type: schema.Other, Severity: model.SeverityMedium, EvidenceText: "unreg, no rego", Confidence: 0.7},
	}

	verified := v.Signals(signals, text)
	if len(verified.Legality) != 1 {
		t.Error("Expected 'other' to be a valid type everywhere")
	}
}

func TestClassify_ExplicitEvidenceIsVerified(t *testing.T) {
	v := verifierForTest()

	tests := []string{
		"car was written off",
		"defected by police",
		"not running, needs tow",
		"stage 2 tune fitted",
		"runs e85",
		"head gasket let go",
	}

	for _, evidence := range tests {
		level, confidence := v.Classify(evidence, 0.5)
		if level != model.VerificationVerified {
			t.Errorf("Classify(%q): expected verified, got %s", evidence, level)
		}
		if confidence < 0.90 {
			t.Errorf("Classify(%q): expected confidence >= 0.90, got %v", evidence, confidence)
		}
	}
}

func TestClassify_SoftLanguageIsInferred(t *testing.T) {
	v := verifierForTest()

	tests := []string{
		"gearbox might need looking at",
		"just needs a bit of love",
		"could be an easy fix",
		"possibly a sensor issue",
	}

	for _, evidence := range tests {
		level, confidence := v.Classify(evidence, 0.95)
		if level != model.VerificationInferred {
			t.Errorf("Classify(%q): expected inferred, got %s", evidence, level)
		}
		if confidence > 0.85 {
			t.Errorf("Classify(%q): expected confidence capped at 0.85, got %v", evidence, confidence)
		}
	}
}

func TestClassify_InferredConfidenceFloor(t *testing.T) {
	v := verifierForTest()

	_, confidence := v.Classify("seems to drive okay", 0.1)
	if confidence != 0.40 {
		t.Errorf("Expected inferred floor 0.40, got %v", confidence)
	}
}

func TestMaintenance_ClaimsOnlyNeedEvidence(t *testing.T) {
	v := verifierForTest()
	text := "Serviced last month, receipts available. Might need tyres soon."

	m := model.MaintenanceSection{
		Claims: []model.MaintenanceClaim{
			{Type: "serviced_recently", EvidenceText: "Serviced last month", Confidence: 0.3, VerificationLevel: model.VerificationInferred},
			{Type: "new_tyres", EvidenceText: "brand new tyres fitted", Confidence: 0.9, VerificationLevel: model.VerificationVerified},
		},
		EvidencePresent: []string{"receipts"},
		RedFlags: []model.Signal{
			{Type: "claim_without_proof", Severity: model.SeverityMedium, EvidenceText: "Might need tyres soon", Confidence: 0.5},
		},
	}

	verified := v.Maintenance(m, text)

	if len(verified.Claims) != 1 {
		t.Fatalf("Expected 1 surviving claim, got %d", len(verified.Claims))
	}
	// Claim confidence is untouched; claims are not reclassified.
	if verified.Claims[0].Confidence != 0.3 {
		t.Errorf("Expected claim confidence preserved, got %v", verified.Claims[0].Confidence)
	}

	if len(verified.RedFlags) != 1 {
		t.Fatalf("Expected 1 surviving red flag, got %d", len(verified.RedFlags))
	}
	if verified.RedFlags[0].VerificationLevel != model.VerificationInferred {
		t.Errorf("Expected soft-language red flag inferred, got %s", verified.RedFlags[0].VerificationLevel)
	}
	if got := verified.EvidencePresent; len(got) != 1 || got[0] != "receipts" {
		t.Errorf("Expected evidence_present passed through, got %v", got)
	}
}
