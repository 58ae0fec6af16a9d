package model

// Category identifies one of the fixed signal categories
type Category string

const (
	CategoryLegality         Category = "legality"          // Registration, roadworthy, defect notices
	CategoryAccidentHistory  Category = "accident_history"  // Write-offs, salvage, structural damage
	CategoryMechanicalIssues Category = "mechanical_issues" // Engine, drivetrain, electrical faults
	CategoryCosmeticIssues   Category = "cosmetic_issues"   // Scratches, dents, interior wear
	CategoryModsPerformance  Category = "mods_performance"  // Tunes, turbo/engine swaps, track use
	CategoryModsCosmetic     Category = "mods_cosmetic"     // Wheels, wraps, tints, audio
	CategorySellerBehavior   Category = "seller_behavior"   // Urgency, firmness, disclosure style
)

// Categories returns all signal categories in their fixed evaluation order.
func Categories() []Category {
	return []Category{
		CategoryLegality,
		CategoryAccidentHistory,
		CategoryMechanicalIssues,
		CategoryCosmeticIssues,
		CategoryModsPerformance,
		CategoryModsCosmetic,
		CategorySellerBehavior,
	}
}

// Severity indicates how serious a signal is
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// VerificationLevel distinguishes explicit evidence from indirect wording
type VerificationLevel string

const (
	VerificationVerified VerificationLevel = "verified" // Explicit, unambiguous evidence
	VerificationInferred VerificationLevel = "inferred" // Soft language or implication
)

// Signal is a single evidenced claim about a listing. EvidenceText is always
// a verbatim span of the source text (whitespace/case normalized comparison).
type Signal struct {
	Type              string            `json:"type" validate:"required"`
	Severity          Severity          `json:"severity" validate:"required,oneof=low medium high"`
	VerificationLevel VerificationLevel `json:"verification_level" validate:"required,oneof=verified inferred"`
	EvidenceText      string            `json:"evidence_text" validate:"required"`
	Confidence        float64           `json:"confidence" validate:"gte=0,lte=1"`
}

// SignalSet holds signals grouped by the seven fixed categories. The shape is
// closed: there is no category outside these fields.
type SignalSet struct {
	Legality         []Signal `json:"legality" validate:"dive"`
	AccidentHistory  []Signal `json:"accident_history" validate:"dive"`
	MechanicalIssues []Signal `json:"mechanical_issues" validate:"dive"`
	CosmeticIssues   []Signal `json:"cosmetic_issues" validate:"dive"`
	ModsPerformance  []Signal `json:"mods_performance" validate:"dive"`
	ModsCosmetic     []Signal `json:"mods_cosmetic" validate:"dive"`
	SellerBehavior   []Signal `json:"seller_behavior" validate:"dive"`
}

// ByCategory returns the signal list for a category.
func (s *SignalSet) ByCategory(c Category) []Signal {
	switch c {
	case CategoryLegality:
		return s.Legality
	case CategoryAccidentHistory:
		return s.AccidentHistory
	case CategoryMechanicalIssues:
		return s.MechanicalIssues
	case CategoryCosmeticIssues:
		return s.CosmeticIssues
	case CategoryModsPerformance:
		return s.ModsPerformance
	case CategoryModsCosmetic:
		return s.ModsCosmetic
	case CategorySellerBehavior:
		return s.SellerBehavior
	default:
		return nil
	}
}

// SetCategory replaces the signal list for a category.
func (s *SignalSet) SetCategory(c Category, signals []Signal) {
	switch c {
	case CategoryLegality:
		s.Legality = signals
	case CategoryAccidentHistory:
		s.AccidentHistory = signals
	case CategoryMechanicalIssues:
		s.MechanicalIssues = signals
	case CategoryCosmeticIssues:
		s.CosmeticIssues = signals
	case CategoryModsPerformance:
		s.ModsPerformance = signals
	case CategoryModsCosmetic:
		s.ModsCosmetic = signals
	case CategorySellerBehavior:
		s.SellerBehavior = signals
	}
}

// Total counts signals across all categories.
func (s *SignalSet) Total() int {
	n := 0
	for _, c := range Categories() {
		n += len(s.ByCategory(c))
	}
	return n
}

// MaintenanceClaim is a seller statement about service or repair work.
// Unlike signals, claims carry no severity.
type MaintenanceClaim struct {
	Type              string            `json:"type" validate:"required"`
	Details           string            `json:"details,omitempty"`
	EvidenceText      string            `json:"evidence_text" validate:"required"`
	Confidence        float64           `json:"confidence" validate:"gte=0,lte=1"`
	VerificationLevel VerificationLevel `json:"verification_level" validate:"required,oneof=verified inferred"`
}

// MaintenanceSection groups maintenance claims, the evidence types the seller
// says exist, and red flags (Signal-shaped, restricted to red-flag types).
type MaintenanceSection struct {
	Claims          []MaintenanceClaim `json:"claims" validate:"dive"`
	EvidencePresent []string           `json:"evidence_present"`
	RedFlags        []Signal           `json:"red_flags" validate:"dive"`
}

// FollowUpQuestion is a suggested question for the seller, produced by the
// generative extractor and passed through after priority normalization.
type FollowUpQuestion struct {
	Question string `json:"question" validate:"required"`
	Reason   string `json:"reason"`
	Priority string `json:"priority" validate:"required,oneof=high medium low"`
	DrivenBy string `json:"driven_by"`
}
