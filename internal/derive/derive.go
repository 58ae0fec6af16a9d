// Package derive computes the summary fields of the final payload. Every
// field is a decision table over the merged signal set; producer summary
// values are hints at most, never authority.
package derive

import (
	"lemonscan/internal/model"
)

// riskCategories are the categories that count toward overall risk.
// Cosmetic issues and seller behavior never move the risk level.
var riskCategories = []model.Category{
	model.CategoryLegality,
	model.CategoryAccidentHistory,
	model.CategoryMechanicalIssues,
	model.CategoryModsPerformance,
}

var highRiskModTypes = map[string]struct{}{
	"stage_2_or_higher":   {},
	"turbo_swap":          {},
	"turbo_upgrade":       {},
	"supercharger":        {},
	"engine_swap":         {},
	"e85_flex_fuel":       {},
	"track_use":           {},
	"race_build":          {},
	"fuel_system_upgrade": {},
}

var mediumRiskModTypes = map[string]struct{}{
	"tuned":               {},
	"ecu_tune":            {},
	"stage_1":             {},
	"intake_exhaust":      {},
	"downpipe":            {},
	"intercooler_upgrade": {},
}

var firmStanceTypes = map[string]struct{}{
	"firm_price":     {},
	"no_lowballers":  {},
	"no_timewasters": {},
}

var openStanceTypes = map[string]struct{}{
	"open_to_offers": {},
	"need_gone":      {},
	"urgent_sale":    {},
	"moving_sale":    {},
}

var strongUrgencyTypes = map[string]struct{}{
	"need_gone":   {},
	"urgent_sale": {},
}

// Summary holds the five derived fields.
type Summary struct {
	RiskLevelOverall    string
	ModsRiskLevel       string
	ServiceHistoryLevel string
	NegotiationStance   string
	ClaimedCondition    string
}

// Compute derives all summary fields from the merged signals and
// maintenance section. The producer's own summaries are consulted only as
// a condition hint.
func Compute(signals model.SignalSet, maintenance model.MaintenanceSection, hints model.CandidateSummaries) Summary {
	return Summary{
		RiskLevelOverall:    RiskLevelOverall(signals),
		ModsRiskLevel:       ModsRiskLevel(signals.ModsPerformance),
		ServiceHistoryLevel: ServiceHistoryLevel(maintenance),
		NegotiationStance:   NegotiationStance(signals.SellerBehavior),
		ClaimedCondition:    ClaimedCondition(signals, hints.ClaimedCondition),
	}
}

// RiskLevelOverall tallies high-impact signals by severity and verification
// level. Any verified high-severity signal is an immediate "high".
func RiskLevelOverall(signals model.SignalSet) string {
	var highVerified, highInferred, mediumVerified, mediumInferred int

	for _, category := range riskCategories {
		for _, s := range signals.ByCategory(category) {
			switch {
			case s.Severity == model.SeverityHigh && s.VerificationLevel == model.VerificationVerified:
				highVerified++
			case s.Severity == model.SeverityHigh:
				highInferred++
			case s.Severity == model.SeverityMedium && s.VerificationLevel == model.VerificationVerified:
				mediumVerified++
			case s.Severity == model.SeverityMedium:
				mediumInferred++
			}
		}
	}

	switch {
	case highVerified > 0:
		return "high"
	case highInferred >= 2 || (highInferred >= 1 && mediumVerified >= 1):
		return "high"
	case mediumVerified >= 2 || (mediumVerified >= 1 && mediumInferred >= 2):
		return "medium"
	case highInferred >= 1 || mediumVerified >= 1:
		return "medium"
	case signals.Total() == 0:
		return "unknown"
	default:
		return "low"
	}
}

// ModsRiskLevel grades performance modifications by the riskiest type seen.
func ModsRiskLevel(modsPerformance []model.Signal) string {
	if len(modsPerformance) == 0 {
		return "none"
	}

	hasHigh, hasMedium := false, false
	for _, mod := range modsPerformance {
		if _, ok := highRiskModTypes[mod.Type]; ok {
			hasHigh = true
		} else if _, ok := mediumRiskModTypes[mod.Type]; ok {
			hasMedium = true
		}
	}

	switch {
	case hasHigh:
		return "high"
	case hasMedium:
		return "medium"
	default:
		return "low"
	}
}

// ServiceHistoryLevel grades maintenance coverage. A logbook, mentioned or
// evidenced, is "full" regardless of receipts.
func ServiceHistoryLevel(maintenance model.MaintenanceSection) string {
	hasLogbook := containsString(maintenance.EvidencePresent, "logbook")
	hasReceipts := containsString(maintenance.EvidencePresent, "receipts") ||
		containsString(maintenance.EvidencePresent, "workshop_invoice")

	claimTypes := make(map[string]struct{}, len(maintenance.Claims))
	for _, c := range maintenance.Claims {
		claimTypes[c.Type] = struct{}{}
	}

	if _, ok := claimTypes["logbook_mentioned"]; ok || hasLogbook {
		return "full"
	}

	_, receiptsMentioned := claimTypes["receipts_mentioned"]
	_, regularService := claimTypes["regular_service_claimed"]
	_, recentService := claimTypes["serviced_recently"]
	if receiptsMentioned || hasReceipts || regularService || recentService {
		return "partial"
	}

	if containsString(maintenance.EvidencePresent, "none") && len(maintenance.Claims) == 0 {
		return "none"
	}
	if len(maintenance.Claims) == 0 && len(maintenance.EvidencePresent) == 0 {
		return "unknown"
	}
	return "partial"
}

// NegotiationStance reads seller-behavior signal types. When both firm and
// open markers coexist, strong urgency flips the call to "open".
func NegotiationStance(sellerBehavior []model.Signal) string {
	if len(sellerBehavior) == 0 {
		return "unknown"
	}

	hasFirm, hasOpen, hasUrgency := false, false, false
	for _, s := range sellerBehavior {
		if _, ok := firmStanceTypes[s.Type]; ok {
			hasFirm = true
		}
		if _, ok := openStanceTypes[s.Type]; ok {
			hasOpen = true
		}
		if _, ok := strongUrgencyTypes[s.Type]; ok {
			hasUrgency = true
		}
	}

	switch {
	case hasOpen && !hasFirm:
		return "open"
	case hasFirm && !hasOpen:
		return "firm"
	case hasOpen && hasFirm:
		if hasUrgency {
			return "open"
		}
		return "firm"
	default:
		return "unknown"
	}
}

// ClaimedCondition checks hard evidence before trusting the producer's
// hint. A not-running vehicle or two verified high-severity problems force
// "needs_work"; a hinted "excellent" is downgraded when any verified
// high-severity problem exists.
func ClaimedCondition(signals model.SignalSet, hint string) string {
	for _, s := range signals.MechanicalIssues {
		if s.Type == "not_running" {
			return "needs_work"
		}
	}

	highSeverity := 0
	for _, category := range []model.Category{
		model.CategoryMechanicalIssues,
		model.CategoryLegality,
		model.CategoryAccidentHistory,
	} {
		for _, s := range signals.ByCategory(category) {
			if s.Severity == model.SeverityHigh && s.VerificationLevel == model.VerificationVerified {
				highSeverity++
			}
		}
	}

	if highSeverity >= 2 {
		return "needs_work"
	}

	if hint == "excellent" && highSeverity > 0 {
		return "fair"
	}
	switch hint {
	case "excellent", "good", "fair", "needs_work":
		return hint
	}

	if highSeverity >= 1 {
		return "fair"
	}
	return "unknown"
}

// MissingInfo flags the critical facts the listing never establishes. The
// result is deterministic and already deduplicated; callers union it with
// the producer's own normalized list.
func MissingInfo(signals model.SignalSet, maintenance model.MaintenanceSection) []string {
	var missing []string

	if len(maintenance.Claims) == 0 && !containsString(maintenance.EvidencePresent, "none") {
		missing = append(missing, "service_history_unknown")
	}
	if len(signals.Legality) == 0 {
		missing = append(missing, "rego_expiry_unknown", "rwc_status_unknown")
	}
	if len(signals.AccidentHistory) == 0 {
		missing = append(missing, "accident_history_unknown")
	}

	return missing
}

func containsString(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
