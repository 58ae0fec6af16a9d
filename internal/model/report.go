package model

import "time"

// Version identifiers stamped into every report envelope.
const (
	StageName      = "listing_intel"
	StageVersion   = "v1.0.0"
	RulesetVersion = "v1.0"
)

// Report is the complete analysis output for one listing: the envelope plus
// the extraction payload. It is assembled once and immutable once returned.
type Report struct {
	ListingID        string            `json:"listing_id" validate:"required"`
	SourceSnapshotID string            `json:"source_snapshot_id" validate:"required"`
	ReportID         string            `json:"report_id" validate:"required"`
	CreatedAt        time.Time         `json:"created_at"`
	StageName        string            `json:"stage_name" validate:"required"`
	StageVersion     string            `json:"stage_version" validate:"required"`
	RulesetVersion   string            `json:"ruleset_version" validate:"required"`
	LLMVersion       string            `json:"llm_version,omitempty"`
	Payload          ExtractionPayload `json:"payload"`
}

// ExtractionPayload is the closed-contract body consumed by the downstream
// economics scorer: signals by category, the maintenance section, the five
// derived summary fields, and supporting lists.
type ExtractionPayload struct {
	RiskLevelOverall    string             `json:"risk_level_overall" validate:"required,oneof=low medium high unknown"`
	NegotiationStance   string             `json:"negotiation_stance" validate:"required,oneof=open firm unknown"`
	ClaimedCondition    string             `json:"claimed_condition" validate:"required,oneof=excellent good fair needs_work unknown"`
	ServiceHistoryLevel string             `json:"service_history_level" validate:"required,oneof=none partial full unknown"`
	ModsRiskLevel       string             `json:"mods_risk_level" validate:"required,oneof=none low medium high unknown"`
	Signals             SignalSet          `json:"signals"`
	Maintenance         MaintenanceSection `json:"maintenance"`
	MissingInfo         []string           `json:"missing_info"`
	FollowUpQuestions   []FollowUpQuestion `json:"follow_up_questions" validate:"dive"`
	ExtractionWarnings  []string           `json:"extraction_warnings"`
	SourceTextStats     SourceTextStats    `json:"source_text_stats"`
}

// SourceTextStats summarizes the raw input text.
type SourceTextStats struct {
	TitleLength              int  `json:"title_length" validate:"gte=0"`
	DescriptionLength        int  `json:"description_length" validate:"gte=0"`
	ContainsKeywordsHighRisk bool `json:"contains_keywords_high_risk"`
}

// TokenUsage records token consumption from one producer call.
type TokenUsage struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
}
