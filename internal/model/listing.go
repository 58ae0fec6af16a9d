package model

// Listing is the raw input for one analysis run. Title and Description may
// each be empty; the pipeline proceeds with whatever text is present.
type Listing struct {
	ListingID        string   `json:"listing_id"`
	SourceSnapshotID string   `json:"source_snapshot_id,omitempty"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	VehicleType      string   `json:"vehicle_type,omitempty"` // car, bike, or unknown
	Price            *float64 `json:"price,omitempty"`
	Mileage          *int     `json:"mileage,omitempty"`
}

// CandidateExtraction is the untrusted structured output of the generative
// producer. Every field is treated as hostile: type strings are unconstrained,
// confidences unclamped, and any sub-field may be missing. It is never used
// directly; the normalizer and verifier produce trusted values from it.
type CandidateExtraction struct {
	Signals           CandidateSignalSet   `json:"signals"`
	Maintenance       CandidateMaintenance `json:"maintenance"`
	Summaries         CandidateSummaries   `json:"summaries"`
	MissingInfo       []string             `json:"missing_info"`
	FollowUpQuestions []FollowUpQuestion   `json:"follow_up_questions"`
	Warnings          []string             `json:"extraction_warnings"`
}

// CandidateSignal mirrors Signal with unconstrained string fields.
type CandidateSignal struct {
	Type              string  `json:"type"`
	Severity          string  `json:"severity"`
	VerificationLevel string  `json:"verification_level"`
	EvidenceText      string  `json:"evidence_text"`
	Confidence        float64 `json:"confidence"`
}

// CandidateSignalSet mirrors SignalSet for untrusted input.
type CandidateSignalSet struct {
	Legality         []CandidateSignal `json:"legality"`
	AccidentHistory  []CandidateSignal `json:"accident_history"`
	MechanicalIssues []CandidateSignal `json:"mechanical_issues"`
	CosmeticIssues   []CandidateSignal `json:"cosmetic_issues"`
	ModsPerformance  []CandidateSignal `json:"mods_performance"`
	ModsCosmetic     []CandidateSignal `json:"mods_cosmetic"`
	SellerBehavior   []CandidateSignal `json:"seller_behavior"`
}

// ByCategory returns the candidate signal list for a category.
func (s *CandidateSignalSet) ByCategory(c Category) []CandidateSignal {
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

// CandidateMaintenanceClaim mirrors MaintenanceClaim for untrusted input.
type CandidateMaintenanceClaim struct {
	Type              string  `json:"type"`
	Details           string  `json:"details,omitempty"`
	EvidenceText      string  `json:"evidence_text"`
	Confidence        float64 `json:"confidence"`
	VerificationLevel string  `json:"verification_level"`
}

// CandidateMaintenance mirrors MaintenanceSection for untrusted input.
type CandidateMaintenance struct {
	Claims          []CandidateMaintenanceClaim `json:"claims"`
	EvidencePresent []string                    `json:"evidence_present"`
	RedFlags        []CandidateSignal           `json:"red_flags"`
}

// CandidateSummaries carries the producer's own summary guesses. They are
// hints only; the derived field engine decides the final values.
type CandidateSummaries struct {
	ClaimedCondition    string `json:"claimed_condition"`
	ServiceHistoryLevel string `json:"service_history_level"`
	ModsRiskLevel       string `json:"mods_risk_level"`
	NegotiationStance   string `json:"negotiation_stance"`
}
