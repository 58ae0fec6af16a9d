// Package verify grounds untrusted producer output in the source text.
// Verification is fail-closed: a signal whose evidence cannot be found
// verbatim is dropped, never passed through with reduced confidence.
package verify

import (
	"math"
	"regexp"
	"strings"

	"lemonscan/internal/model"
	"lemonscan/internal/schema"
	"lemonscan/internal/textprep"
)

// explicitPatterns are hard, definitive phrasings. Evidence matching any of
// these is explicit and the signal is verified.
var explicitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bwrite[\s-]?off\b`),
	regexp.MustCompile(`\bwritten[\s-]?off\b`),
	regexp.MustCompile(`\bdefected\b`),
	regexp.MustCompile(`\bunregistered\b`),
	regexp.MustCompile(`\bno rego\b`),
	regexp.MustCompile(`\bno rwc\b`),
	regexp.MustCompile(`\bnot running\b`),
	regexp.MustCompile(`\bwon'?t start\b`),
	regexp.MustCompile(`\bengine blown\b`),
	regexp.MustCompile(`\bhead gasket\b`),
	regexp.MustCompile(`\bflood(?:ed)?\s+damage\b`),
	regexp.MustCompile(`\bsalvage\b`),
	regexp.MustCompile(`\btuned\b`),
	regexp.MustCompile(`\bstage\s*[23]\b`),
	regexp.MustCompile(`\be85\b`),
	regexp.MustCompile(`\btrack\s*(?:car|use|build)\b`),
}

// implicitPhrases are soft hedging language. Evidence containing any of
// these is implicit and the signal stays inferred.
var implicitPhrases = []string{
	"needs love",
	"bit of love",
	"needs work",
	"easy fix",
	"minor issue",
	"small problem",
	"could be",
	"might need",
	"may need",
	"not sure",
	"possibly",
	"seems to",
}

// Verifier checks that every candidate signal's evidence exists verbatim in
// the source text and recalibrates verification level and confidence.
type Verifier struct {
	enums       *schema.Enums
	verifiedMin float64
	inferredMin float64
}

// New creates a Verifier with the given confidence thresholds.
func New(enums *schema.Enums, cfg model.EngineConfig) *Verifier {
	return &Verifier{
		enums:       enums,
		verifiedMin: cfg.VerifiedMinConfidence,
		inferredMin: cfg.InferredMinConfidence,
	}
}

// Signals verifies every signal per category against the source text.
// Signals with an invalid type, empty evidence, or evidence not found in
// the text are dropped.
func (v *Verifier) Signals(signals model.SignalSet, combinedText string) model.SignalSet {
	var out model.SignalSet
	for _, category := range model.Categories() {
		var kept []model.Signal
		for _, s := range signals.ByCategory(category) {
			if !v.enums.ValidSignalType(category, s.Type) {
				continue
			}
			if verified, ok := v.verify(s, combinedText); ok {
				kept = append(kept, verified)
			}
		}
		out.SetCategory(category, kept)
	}
	return out
}

// Maintenance verifies maintenance claims and red flags. Claims only need
// evidence grounding; red flags are recalibrated like signals.
func (v *Verifier) Maintenance(m model.MaintenanceSection, combinedText string) model.MaintenanceSection {
	var claims []model.MaintenanceClaim
	for _, c := range m.Claims {
		if c.EvidenceText == "" {
			continue
		}
		if !textprep.EvidenceExists(c.EvidenceText, combinedText) {
			continue
		}
		claims = append(claims, c)
	}

	var redFlags []model.Signal
	for _, f := range m.RedFlags {
		if verified, ok := v.verify(f, combinedText); ok {
			redFlags = append(redFlags, verified)
		}
	}

	return model.MaintenanceSection{
		Claims:          claims,
		EvidencePresent: m.EvidencePresent,
		RedFlags:        redFlags,
	}
}

func (v *Verifier) verify(s model.Signal, combinedText string) (model.Signal, bool) {
	if s.EvidenceText == "" {
		return model.Signal{}, false
	}
	if !textprep.EvidenceExists(s.EvidenceText, combinedText) {
		return model.Signal{}, false
	}

	s.VerificationLevel, s.Confidence = v.Classify(s.EvidenceText, s.Confidence)
	return s, true
}

// Classify decides verified vs inferred from the evidence wording and
// returns the calibrated confidence. Explicit evidence is boosted to at
// least the verified floor; everything else is clamped into the inferred
// band below it.
func (v *Verifier) Classify(evidenceText string, confidence float64) (model.VerificationLevel, float64) {
	if isExplicit(evidenceText) {
		return model.VerificationVerified, round2(math.Max(confidence, v.verifiedMin))
	}

	c := math.Min(confidence, v.verifiedMin-0.05)
	c = math.Max(c, v.inferredMin)
	return model.VerificationInferred, round2(c)
}

func isExplicit(evidenceText string) bool {
	lower := strings.ToLower(evidenceText)

	for _, p := range explicitPatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	for _, phrase := range implicitPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	// Evidence present with no hedging language defaults to explicit.
	return true
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
