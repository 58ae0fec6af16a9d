// Package rules implements the deterministic guardrail detector: an ordered
// catalog of pattern rules that always emits verified, high-confidence
// signals. Guardrails only ever add signals, never remove them, so critical
// detections cannot be lost to a misbehaving generative producer.
package rules

import (
	"regexp"
	"strings"

	"lemonscan/internal/model"
	"lemonscan/internal/textprep"
)

// Rule pairs a pattern with the signal it detects.
type Rule struct {
	Pattern  *regexp.Regexp
	Type     string
	Category model.Category
	Severity model.Severity
}

func rule(pattern, signalType string, category model.Category, severity model.Severity) Rule {
	return Rule{
		Pattern:  regexp.MustCompile(`(?i)` + pattern),
		Type:     signalType,
		Category: category,
		Severity: severity,
	}
}

// Catalog returns the full ordered rule list: write-off/salvage first, then
// legality, mechanical, performance mods, seller behavior. Order is part of
// the ruleset contract; identical input always yields identical output.
func Catalog() []Rule {
	return []Rule{
		// Write-off and salvage
		rule(`\bwrite[\s-]?off\b`, "writeoff", model.CategoryAccidentHistory, model.SeverityHigh),
		rule(`\bwritten[\s-]?off\b`, "writeoff", model.CategoryAccidentHistory, model.SeverityHigh),
		rule(`\brepairable[\s-]?write[\s-]?off\b`, "repairable_writeoff", model.CategoryAccidentHistory, model.SeverityHigh),
		rule(`\bsalvage\s*title\b`, "salvage_title", model.CategoryAccidentHistory, model.SeverityHigh),
		rule(`\bsalvage\s*vehicle\b`, "salvage_title", model.CategoryAccidentHistory, model.SeverityHigh),
		rule(`\bsalvage\b`, "salvage_title", model.CategoryAccidentHistory, model.SeverityHigh),
		rule(`\brebuilt\s*title\b`, "rebuilt_title", model.CategoryAccidentHistory, model.SeverityHigh),
		rule(`\bwovr\b`, "wovr_listed", model.CategoryAccidentHistory, model.SeverityHigh),
		rule(`\bflood(?:ed)?\s*damaged?\b`, "flood_damage", model.CategoryAccidentHistory, model.SeverityHigh),
		rule(`\bwater\s*damaged?\b`, "flood_damage", model.CategoryAccidentHistory, model.SeverityHigh),
		rule(`\bstructural\s*damage\b`, "structural_damage", model.CategoryAccidentHistory, model.SeverityHigh),
		rule(`\bframe\s*damage\b`, "structural_damage", model.CategoryAccidentHistory, model.SeverityHigh),
		rule(`\bchassis\s*damage\b`, "chassis_damage", model.CategoryAccidentHistory, model.SeverityHigh),
		rule(`\bairbags?\s*deployed\b`, "airbag_deployed", model.CategoryAccidentHistory, model.SeverityHigh),

		// Legality
		rule(`\bdefect(?:ed)?\b`, "defected", model.CategoryLegality, model.SeverityHigh),
		rule(`\bunregistered\b`, "unregistered", model.CategoryLegality, model.SeverityHigh),
		rule(`\bunreg\b`, "unregistered", model.CategoryLegality, model.SeverityHigh),
		rule(`\bno\s*rego\b`, "no_rego", model.CategoryLegality, model.SeverityHigh),
		rule(`\brego\s*expired\b`, "rego_expired", model.CategoryLegality, model.SeverityHigh),
		rule(`\bno\s*rwc\b`, "no_rwc", model.CategoryLegality, model.SeverityHigh),
		rule(`\bwithout\s*rwc\b`, "no_rwc", model.CategoryLegality, model.SeverityHigh),
		rule(`\bneeds?\s*rwc\b`, "rwc_required", model.CategoryLegality, model.SeverityMedium),
		rule(`\brwc\s*required\b`, "rwc_required", model.CategoryLegality, model.SeverityMedium),
		rule(`\bnot\s*roadworthy\b`, "not_roadworthy", model.CategoryLegality, model.SeverityHigh),
		rule(`\binspection\s*required\b`, "inspection_required", model.CategoryLegality, model.SeverityMedium),
		rule(`\bblue\s*slip\b`, "inspection_required", model.CategoryLegality, model.SeverityMedium),
		rule(`\bpink\s*slip\b`, "inspection_required", model.CategoryLegality, model.SeverityMedium),

		// Mechanical
		rule(`\bnot\s*running\b`, "not_running", model.CategoryMechanicalIssues, model.SeverityHigh),
		rule(`\bwon'?t\s*start\b`, "not_running", model.CategoryMechanicalIssues, model.SeverityHigh),
		rule(`\bdoesn'?t\s*start\b`, "starting_issue", model.CategoryMechanicalIssues, model.SeverityHigh),
		rule(`\bengine\s*blown\b`, "not_running", model.CategoryMechanicalIssues, model.SeverityHigh),
		rule(`\bblown\s*engine\b`, "not_running", model.CategoryMechanicalIssues, model.SeverityHigh),
		rule(`\bengine\s*knock(?:ing)?\b`, "engine_knock", model.CategoryMechanicalIssues, model.SeverityHigh),
		rule(`\bknocking\b`, "engine_knock", model.CategoryMechanicalIssues, model.SeverityHigh),
		rule(`\boverheating\b`, "engine_overheating", model.CategoryMechanicalIssues, model.SeverityHigh),
		rule(`\bover\s*heats?\b`, "engine_overheating", model.CategoryMechanicalIssues, model.SeverityHigh),
		rule(`\bruns?\s*hot\b`, "engine_overheating", model.CategoryMechanicalIssues, model.SeverityHigh),
		rule(`\bgearbox\s*(?:issue|problem|fault)\b`, "gearbox_issue", model.CategoryMechanicalIssues, model.SeverityHigh),
		rule(`\btransmission\s*(?:issue|problem|fault)\b`, "gearbox_issue", model.CategoryMechanicalIssues, model.SeverityHigh),
		rule(`\bslipping\b`, "slipping_transmission", model.CategoryMechanicalIssues, model.SeverityHigh),
		rule(`\bslips\b`, "slipping_transmission", model.CategoryMechanicalIssues, model.SeverityHigh),
		rule(`\bhead\s*gasket\b`, "head_gasket_suspected", model.CategoryMechanicalIssues, model.SeverityHigh),

		// Performance modifications
		// TODO: single-word "tuned"/"tune"/"swap"/"trade" rules match incidental
		// usage ("trade-in welcome"); needs context gating before a ruleset bump.
		rule(`\btuned\b`, "tuned", model.CategoryModsPerformance, model.SeverityMedium),
		rule(`\btune\b`, "tuned", model.CategoryModsPerformance, model.SeverityMedium),
		rule(`\becu\s*tuned?\b`, "ecu_tune", model.CategoryModsPerformance, model.SeverityMedium),
		rule(`\bremapped\b`, "ecu_tune", model.CategoryModsPerformance, model.SeverityMedium),
		rule(`\bstage\s*2\b`, "stage_2_or_higher", model.CategoryModsPerformance, model.SeverityHigh),
		rule(`\bstage2\b`, "stage_2_or_higher", model.CategoryModsPerformance, model.SeverityHigh),
		rule(`\bstage\s*3\b`, "stage_2_or_higher", model.CategoryModsPerformance, model.SeverityHigh),
		rule(`\bstage3\b`, "stage_2_or_higher", model.CategoryModsPerformance, model.SeverityHigh),
		rule(`\be85\b`, "e85_flex_fuel", model.CategoryModsPerformance, model.SeverityHigh),
		rule(`\bflex\s*fuel\b`, "e85_flex_fuel", model.CategoryModsPerformance, model.SeverityHigh),
		rule(`\btrack\s*car\b`, "track_use", model.CategoryModsPerformance, model.SeverityHigh),
		rule(`\btrack\s*use\b`, "track_use", model.CategoryModsPerformance, model.SeverityHigh),
		rule(`\brace\s*build\b`, "race_build", model.CategoryModsPerformance, model.SeverityHigh),
		rule(`\bturbo\s*swap\b`, "turbo_swap", model.CategoryModsPerformance, model.SeverityHigh),
		rule(`\bturbo\s*upgrade\b`, "turbo_upgrade", model.CategoryModsPerformance, model.SeverityHigh),
		rule(`\bsupercharger\b`, "supercharger", model.CategoryModsPerformance, model.SeverityHigh),
		rule(`\bengine\s*swap\b`, "engine_swap", model.CategoryModsPerformance, model.SeverityHigh),

		// Seller behavior
		rule(`\bfirm\s*price\b`, "firm_price", model.CategorySellerBehavior, model.SeverityMedium),
		rule(`\bprice\s*is\s*firm\b`, "firm_price", model.CategorySellerBehavior, model.SeverityMedium),
		rule(`\bfixed\s*price\b`, "firm_price", model.CategorySellerBehavior, model.SeverityMedium),
		rule(`\bno\s*low\s*ballers?\b`, "no_lowballers", model.CategorySellerBehavior, model.SeverityLow),
		rule(`\bno\s*lowballers?\b`, "no_lowballers", model.CategorySellerBehavior, model.SeverityLow),
		rule(`\bno\s*time\s*wasters?\b`, "no_timewasters", model.CategorySellerBehavior, model.SeverityLow),
		rule(`\bno\s*timewasters?\b`, "no_timewasters", model.CategorySellerBehavior, model.SeverityLow),
		rule(`\bneed\s*gone\b`, "need_gone", model.CategorySellerBehavior, model.SeverityMedium),
		rule(`\bmust\s*sell\b`, "urgent_sale", model.CategorySellerBehavior, model.SeverityMedium),
		rule(`\burgent\s*sale\b`, "urgent_sale", model.CategorySellerBehavior, model.SeverityMedium),
		rule(`\bswaps?\b`, "swap_trade", model.CategorySellerBehavior, model.SeverityLow),
		rule(`\btrades?\s*(?:in|welcome)?\b`, "swap_trade", model.CategorySellerBehavior, model.SeverityLow),
	}
}

// Engine runs the guardrail catalog against prepared text. It holds only
// read-only state and is safe for concurrent use.
type Engine struct {
	rules      []Rule
	confidence float64
	window     int
}

// NewEngine creates a guardrail engine with the given signal confidence and
// evidence window size.
func NewEngine(cfg model.EngineConfig) *Engine {
	return &Engine{
		rules:      Catalog(),
		confidence: cfg.GuardrailConfidence,
		window:     cfg.EvidenceWindow,
	}
}

// Run evaluates every rule against the prepared text and returns the detected
// signals per category. A fresh dedup set is built per invocation, so the
// engine itself stays stateless.
func (e *Engine) Run(prepared textprep.PreparedText) model.SignalSet {
	var out model.SignalSet

	type dedupKey struct {
		category model.Category
		sigType  string
		match    string
	}
	seen := make(map[dedupKey]struct{})

	for _, r := range e.rules {
		for _, loc := range r.Pattern.FindAllStringIndex(prepared.NormalizedText, -1) {
			match := prepared.NormalizedText[loc[0]:loc[1]]

			key := dedupKey{r.Category, r.Type, strings.ToLower(match)}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			evidence := textprep.FindEvidenceSpan(match, prepared.CombinedText, prepared.Sentences, e.window)
			if evidence == "" {
				// Never emit empty evidence; the raw match is still verbatim.
				evidence = match
			}

			signals := out.ByCategory(r.Category)
			signals = append(signals, model.Signal{
				Type:              r.Type,
				Severity:          r.Severity,
				VerificationLevel: model.VerificationVerified,
				EvidenceText:      evidence,
				Confidence:        e.confidence,
			})
			out.SetCategory(r.Category, signals)
		}
	}

	return out
}

var highRiskPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bwrite[\s-]?off\b`),
	regexp.MustCompile(`\bdefect(?:ed)?\b`),
	regexp.MustCompile(`\bnot\s*running\b`),
	regexp.MustCompile(`\bsalvage\b`),
	regexp.MustCompile(`\bflood\b`),
	regexp.MustCompile(`\bstructural\s*damage\b`),
	regexp.MustCompile(`\bstage\s*[23]\b`),
	regexp.MustCompile(`\be85\b`),
	regexp.MustCompile(`\btrack\s*(?:car|use)\b`),
}

// ContainsHighRiskKeywords is a quick scan used for source text stats.
func ContainsHighRiskKeywords(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range highRiskPatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}
