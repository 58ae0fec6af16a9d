// Package normalize maps the free-form labels of the generative producer
// onto the closed contract enumerations. The one rule that matters: an
// unrecognized label never invalidates an evidenced item, it becomes "other".
// Only missing evidence text drops anything.
package normalize

import (
	"sort"
	"strings"

	"lemonscan/internal/model"
	"lemonscan/internal/schema"
)

// evidencePresentSynonyms maps common producer variations to valid
// evidence_present values.
var evidencePresentSynonyms = map[string]string{
	// Logbook variations
	"service_book":         "logbook",
	"service_logbook":      "logbook",
	"log_book":             "logbook",
	"service_history":      "logbook",
	"full_service_history": "logbook",
	"fsh":                  "logbook",
	"log":                  "logbook",
	"books":                "logbook",
	"service_record":       "logbook",
	"service_records":      "logbook",
	// Receipt variations
	"receipt":              "receipts",
	"service_receipts":     "receipts",
	"maintenance_receipts": "receipts",
	"reciepts":             "receipts", // common typo
	"invoices":             "receipts",
	// Workshop invoice variations
	"invoice":           "workshop_invoice",
	"service_invoice":   "workshop_invoice",
	"mechanic_invoice":  "workshop_invoice",
	"workshop_invoices": "workshop_invoice",
	"garage_invoice":    "workshop_invoice",
	// Photo variations
	"photos":               "photos_of_records",
	"photo":                "photos_of_records",
	"pictures":             "photos_of_records",
	"images":               "photos_of_records",
	"pics":                 "photos_of_records",
	"documentation_photos": "photos_of_records",
	// None variations
	"no_records":   "none",
	"no_evidence":  "none",
	"unknown":      "none",
	"n/a":          "none",
	"na":           "none",
	"not_provided": "none",
}

type categoryType struct {
	category model.Category
	label    string
}

// signalTypeSynonyms maps (category, variation) to the valid type.
var signalTypeSynonyms = map[categoryType]string{
	// Legality
	{model.CategoryLegality, "no_registration"}:   "no_rego",
	{model.CategoryLegality, "expired_rego"}:      "rego_expired",
	{model.CategoryLegality, "no_roadworthy"}:     "no_rwc",
	{model.CategoryLegality, "needs_roadworthy"}:  "rwc_required",
	{model.CategoryLegality, "defect"}:            "defected",
	{model.CategoryLegality, "defect_notice"}:     "defected",

	// Accident history
	{model.CategoryAccidentHistory, "write_off"}:     "writeoff",
	{model.CategoryAccidentHistory, "written_off"}:   "writeoff",
	{model.CategoryAccidentHistory, "total_loss"}:    "writeoff",
	{model.CategoryAccidentHistory, "totaled"}:       "writeoff",
	{model.CategoryAccidentHistory, "salvage"}:       "salvage_title",
	{model.CategoryAccidentHistory, "rebuilt"}:       "rebuilt_title",
	{model.CategoryAccidentHistory, "flooded"}:       "flood_damage",
	{model.CategoryAccidentHistory, "water_damaged"}: "flood_damage",
	{model.CategoryAccidentHistory, "accident"}:      "accident_damage",
	{model.CategoryAccidentHistory, "crash_damage"}:  "accident_damage",
	{model.CategoryAccidentHistory, "hail"}:          "hail_damage",

	// Mechanical
	{model.CategoryMechanicalIssues, "knocking"}:          "engine_knock",
	{model.CategoryMechanicalIssues, "overheating"}:       "engine_overheating",
	{model.CategoryMechanicalIssues, "runs_hot"}:          "engine_overheating",
	{model.CategoryMechanicalIssues, "leaking_oil"}:       "oil_leak",
	{model.CategoryMechanicalIssues, "head_gasket"}:       "head_gasket_suspected",
	{model.CategoryMechanicalIssues, "blown_head_gasket"}: "head_gasket_suspected",
	{model.CategoryMechanicalIssues, "transmission_issue"}: "gearbox_issue",
	{model.CategoryMechanicalIssues, "trans_problem"}:      "gearbox_issue",
	{model.CategoryMechanicalIssues, "wont_start"}:         "starting_issue",
	{model.CategoryMechanicalIssues, "doesnt_start"}:       "not_running",
	{model.CategoryMechanicalIssues, "dead"}:               "not_running",
	{model.CategoryMechanicalIssues, "engine_light"}:       "check_engine_light",
	{model.CategoryMechanicalIssues, "cel"}:                "check_engine_light",

	// Performance mods
	{model.CategoryModsPerformance, "tune"}:           "tuned",
	{model.CategoryModsPerformance, "remapped"}:       "ecu_tune",
	{model.CategoryModsPerformance, "remap"}:          "ecu_tune",
	{model.CategoryModsPerformance, "stage1"}:         "stage_1",
	{model.CategoryModsPerformance, "stage_1_tune"}:   "stage_1",
	{model.CategoryModsPerformance, "stage2"}:         "stage_2_or_higher",
	{model.CategoryModsPerformance, "stage_2"}:        "stage_2_or_higher",
	{model.CategoryModsPerformance, "stage3"}:         "stage_2_or_higher",
	{model.CategoryModsPerformance, "big_turbo"}:      "turbo_upgrade",
	{model.CategoryModsPerformance, "upgraded_turbo"}: "turbo_upgrade",
	{model.CategoryModsPerformance, "ethanol"}:        "e85_flex_fuel",
	{model.CategoryModsPerformance, "flex_fuel"}:      "e85_flex_fuel",
	{model.CategoryModsPerformance, "track_car"}:      "track_use",
	{model.CategoryModsPerformance, "race_car"}:       "race_build",

	// Seller behavior
	{model.CategorySellerBehavior, "need_sold"}:        "need_gone",
	{model.CategorySellerBehavior, "must_go"}:          "need_gone",
	{model.CategorySellerBehavior, "fixed_price"}:      "firm_price",
	{model.CategorySellerBehavior, "price_firm"}:       "firm_price",
	{model.CategorySellerBehavior, "negotiable"}:       "open_to_offers",
	{model.CategorySellerBehavior, "ono"}:              "open_to_offers",
	{model.CategorySellerBehavior, "or_nearest_offer"}: "open_to_offers",
	{model.CategorySellerBehavior, "swaps"}:            "swap_trade",
	{model.CategorySellerBehavior, "trades"}:           "swap_trade",
}

// maintenanceClaimSynonyms maps producer variations to valid claim types.
var maintenanceClaimSynonyms = map[string]string{
	// Service history variations
	"service_history":      "regular_service_claimed",
	"service_completed":    "serviced_recently",
	"serviced":             "serviced_recently",
	"recent_service":       "serviced_recently",
	"just_serviced":        "serviced_recently",
	"full_service":         "regular_service_claimed",
	"full_service_history": "regular_service_claimed",
	"regular_service":      "regular_service_claimed",
	"regular_servicing":    "regular_service_claimed",
	"dealer_serviced":      "regular_service_claimed",
	// Logbook variations
	"logbook":      "logbook_mentioned",
	"log_book":     "logbook_mentioned",
	"service_book": "logbook_mentioned",
	"has_logbook":  "logbook_mentioned",
	// Receipts variations
	"receipts":         "receipts_mentioned",
	"has_receipts":     "receipts_mentioned",
	"service_receipts": "receipts_mentioned",
	// Major service variations
	"major_service":         "major_service_done",
	"timing_belt":           "timing_belt_done",
	"timing_belt_replaced":  "timing_belt_done",
	"water_pump":            "water_pump_done",
	"water_pump_replaced":   "water_pump_done",
	// Parts replaced variations
	"clutch":         "clutch_replaced",
	"new_clutch":     "clutch_replaced",
	"gearbox":        "gearbox_rebuilt",
	"transmission":   "gearbox_rebuilt",
	"engine":         "engine_rebuilt",
	"rebuilt_engine": "engine_rebuilt",
	"new_engine":     "engine_rebuilt",
	"tyres":          "new_tyres",
	"tires":          "new_tyres",
	"new_tires":      "new_tyres",
	"brakes":         "new_brakes",
	"brake_pads":     "new_brakes",
	"battery":        "battery_replaced",
	"new_battery":    "battery_replaced",
}

// missingInfoSynonyms maps producer variations to valid missing_info tokens.
var missingInfoSynonyms = map[string]string{
	"service_history_none":    "service_history_unknown",
	"no_service_history":      "service_history_unknown",
	"service_history_missing": "service_history_unknown",
	"rwc_status_none":         "rwc_status_unknown",
	"no_rwc_info":             "rwc_status_unknown",
}

// Normalizer maps free-form producer labels onto the closed enumerations.
// It holds only the shared read-only Enums and is safe for concurrent use.
type Normalizer struct {
	enums *schema.Enums
}

// New creates a Normalizer over the given enumerations.
func New(enums *schema.Enums) *Normalizer {
	return &Normalizer{enums: enums}
}

// canonical lower-cases a label and replaces spaces/hyphens with underscores.
func canonical(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	label = strings.ReplaceAll(label, " ", "_")
	label = strings.ReplaceAll(label, "-", "_")
	return label
}

// SignalType normalizes a signal type for a category. Never fails: unknown
// types become "other".
func (n *Normalizer) SignalType(raw string, category model.Category) string {
	if raw == "" {
		return schema.Other
	}

	c := canonical(raw)
	if n.enums.ValidSignalType(category, c) {
		return c
	}
	if mapped, ok := signalTypeSynonyms[categoryType{category, c}]; ok {
		return mapped
	}
	return schema.Other
}

// EvidencePresent normalizes a single evidence_present token.
func (n *Normalizer) EvidencePresent(raw string) string {
	if raw == "" {
		return schema.Other
	}

	c := canonical(raw)
	if n.enums.ValidEvidencePresent(c) {
		return c
	}
	if mapped, ok := evidencePresentSynonyms[c]; ok {
		return mapped
	}
	return schema.Other
}

// EvidencePresentList normalizes and dedupes a list of evidence_present
// tokens. If a multi-item list would collapse to nothing but "other", the
// mapping table has a gap; return empty rather than assert false specificity.
func (n *Normalizer) EvidencePresentList(raw []string) []string {
	return n.normalizeList(raw, n.EvidencePresent)
}

// MaintenanceClaimType normalizes a maintenance claim type.
func (n *Normalizer) MaintenanceClaimType(raw string) string {
	if raw == "" {
		return schema.Other
	}

	c := canonical(raw)
	if n.enums.ValidMaintenanceClaimType(c) {
		return c
	}
	if mapped, ok := maintenanceClaimSynonyms[c]; ok {
		return mapped
	}
	return schema.Other
}

// RedFlagType normalizes a maintenance red-flag type.
func (n *Normalizer) RedFlagType(raw string) string {
	if raw == "" {
		return schema.Other
	}
	if c := canonical(raw); n.enums.ValidRedFlagType(c) {
		return c
	}
	return schema.Other
}

// MissingInfoType normalizes a missing_info token.
func (n *Normalizer) MissingInfoType(raw string) string {
	if raw == "" {
		return schema.Other
	}

	c := canonical(raw)
	if n.enums.ValidMissingInfo(c) {
		return c
	}
	if mapped, ok := missingInfoSynonyms[c]; ok {
		return mapped
	}
	return schema.Other
}

// MissingInfoList normalizes and dedupes a list of missing_info tokens,
// with the same collapse-to-empty rule as EvidencePresentList.
func (n *Normalizer) MissingInfoList(raw []string) []string {
	return n.normalizeList(raw, n.MissingInfoType)
}

func (n *Normalizer) normalizeList(raw []string, f func(string) string) []string {
	if len(raw) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	for _, item := range raw {
		if item == "" {
			continue
		}
		result := f(item)
		// A lone unknown item is still worth recording as "other"; in a
		// longer list it would only dilute the known values.
		if result != schema.Other || len(raw) == 1 {
			seen[result] = struct{}{}
		}
	}

	if len(seen) == 1 && len(raw) > 1 {
		if _, onlyOther := seen[schema.Other]; onlyOther {
			return nil
		}
	}

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Signal normalizes a complete candidate signal. Returns false only when
// evidence text is missing; every other defect is repaired in place.
func (n *Normalizer) Signal(candidate model.CandidateSignal, category model.Category) (model.Signal, bool) {
	if candidate.EvidenceText == "" {
		return model.Signal{}, false
	}

	return model.Signal{
		Type:              n.SignalType(candidate.Type, category),
		Severity:          normalizeSeverity(candidate.Severity),
		VerificationLevel: normalizeVerification(candidate.VerificationLevel),
		EvidenceText:      candidate.EvidenceText,
		Confidence:        clampConfidence(candidate.Confidence),
	}, true
}

// Signals normalizes every candidate signal, per category.
func (n *Normalizer) Signals(candidates model.CandidateSignalSet) model.SignalSet {
	var out model.SignalSet
	for _, category := range model.Categories() {
		var normalized []model.Signal
		for _, candidate := range candidates.ByCategory(category) {
			if signal, ok := n.Signal(candidate, category); ok {
				normalized = append(normalized, signal)
			}
		}
		out.SetCategory(category, normalized)
	}
	return out
}

// MaintenanceClaim normalizes a candidate claim. Returns false only when
// evidence text is missing.
func (n *Normalizer) MaintenanceClaim(candidate model.CandidateMaintenanceClaim) (model.MaintenanceClaim, bool) {
	if candidate.EvidenceText == "" {
		return model.MaintenanceClaim{}, false
	}

	return model.MaintenanceClaim{
		Type:              n.MaintenanceClaimType(candidate.Type),
		Details:           candidate.Details,
		EvidenceText:      candidate.EvidenceText,
		Confidence:        clampConfidence(candidate.Confidence),
		VerificationLevel: normalizeVerification(candidate.VerificationLevel),
	}, true
}

// RedFlag normalizes a candidate red flag. Returns false only when evidence
// text is missing.
func (n *Normalizer) RedFlag(candidate model.CandidateSignal) (model.Signal, bool) {
	if candidate.EvidenceText == "" {
		return model.Signal{}, false
	}

	return model.Signal{
		Type:              n.RedFlagType(candidate.Type),
		Severity:          normalizeSeverity(candidate.Severity),
		VerificationLevel: normalizeVerification(candidate.VerificationLevel),
		EvidenceText:      candidate.EvidenceText,
		Confidence:        clampConfidence(candidate.Confidence),
	}, true
}

// Maintenance normalizes the whole maintenance section.
func (n *Normalizer) Maintenance(candidate model.CandidateMaintenance) model.MaintenanceSection {
	var claims []model.MaintenanceClaim
	for _, c := range candidate.Claims {
		if claim, ok := n.MaintenanceClaim(c); ok {
			claims = append(claims, claim)
		}
	}

	var redFlags []model.Signal
	for _, f := range candidate.RedFlags {
		if flag, ok := n.RedFlag(f); ok {
			redFlags = append(redFlags, flag)
		}
	}

	return model.MaintenanceSection{
		Claims:          claims,
		EvidencePresent: n.EvidencePresentList(candidate.EvidencePresent),
		RedFlags:        redFlags,
	}
}

// QuestionPriority coerces a follow-up question priority to a valid value.
func (n *Normalizer) QuestionPriority(raw string) string {
	switch canonical(raw) {
	case "high":
		return "high"
	case "low":
		return "low"
	default:
		return "medium"
	}
}

func normalizeSeverity(raw string) model.Severity {
	switch model.Severity(canonical(raw)) {
	case model.SeverityLow:
		return model.SeverityLow
	case model.SeverityHigh:
		return model.SeverityHigh
	default:
		return model.SeverityMedium
	}
}

func normalizeVerification(raw string) model.VerificationLevel {
	if model.VerificationLevel(canonical(raw)) == model.VerificationVerified {
		return model.VerificationVerified
	}
	return model.VerificationInferred
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
