// Package schema holds the closed enumerations of the extraction contract.
// The Enums value is constructed once at startup and shared read-only across
// concurrent runs; there is no lazy loading and no global state.
package schema

import "lemonscan/internal/model"

// Other is the universal fallback member of every open-ended enumeration.
// Coercing an unrecognized label to Other preserves the evidenced claim
// instead of dropping it.
const Other = "other"

// Enums is the single source of truth for every closed value set in the
// output contract. All lookup methods are safe for concurrent use.
type Enums struct {
	signalTypes       map[model.Category]stringSet
	evidencePresent   stringSet
	maintenanceClaims stringSet
	redFlags          stringSet
	missingInfo       stringSet
}

type stringSet map[string]struct{}

func newSet(values ...string) stringSet {
	s := make(stringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s stringSet) contains(v string) bool {
	_, ok := s[v]
	return ok
}

// Default constructs the contract enumerations.
func Default() *Enums {
	return &Enums{
		signalTypes: map[model.Category]stringSet{
			model.CategoryLegality: newSet(
				"no_rego", "rego_expired", "rego_short", "unregistered", "no_rwc",
				"rwc_required", "defected", "inspection_required", "not_roadworthy",
				"non_compliant_mods",
			),
			model.CategoryAccidentHistory: newSet(
				"writeoff", "repairable_writeoff", "rebuilt_title", "salvage_title",
				"wovr_listed", "accident_damage", "hail_damage", "flood_damage",
				"structural_damage", "airbag_deployed", "chassis_damage",
				"paintwork_repair", "panel_replacement",
			),
			model.CategoryMechanicalIssues: newSet(
				"engine_knock", "engine_misfire", "engine_overheating", "oil_leak",
				"coolant_leak", "head_gasket_suspected", "smoke_from_exhaust",
				"rough_idle", "starting_issue", "gearbox_issue", "clutch_issue",
				"slipping_transmission", "diff_issue", "drivetrain_noise",
				"suspension_issue", "steering_issue", "brake_issue", "tyres_worn",
				"battery_issue", "alternator_issue", "electrical_fault",
				"check_engine_light", "needs_mechanic", "not_running",
				"intermittent_issue", "unknown_mechanical_issue",
			),
			model.CategoryCosmeticIssues: newSet(
				"scratch", "dent", "paint_fade", "clearcoat_peel", "rust_visible",
				"interior_wear", "cracked_windscreen", "broken_light",
				"missing_parts_cosmetic", "dirty_or_neglected",
			),
			model.CategoryModsPerformance: newSet(
				"tuned", "ecu_tune", "stage_1", "stage_2_or_higher", "turbo_upgrade",
				"turbo_swap", "supercharger", "engine_swap", "e85_flex_fuel",
				"intake_exhaust", "downpipe", "intercooler_upgrade",
				"fuel_system_upgrade", "track_use", "race_build",
			),
			model.CategoryModsCosmetic: newSet(
				"aftermarket_wheels", "bodykit", "wrap", "tint", "lowered", "lifted",
				"custom_lights", "interior_custom", "audio_upgrade",
			),
			model.CategorySellerBehavior: newSet(
				"need_gone", "moving_sale", "urgent_sale", "price_drop_mentioned",
				"firm_price", "open_to_offers", "no_timewasters", "no_lowballers",
				"swap_trade", "cash_only", "deposit_required", "finance_available",
				"delivery_available", "transparent_disclosure", "vague_description",
				"contradictory_claims", "too_good_to_be_true_language",
			),
		},
		evidencePresent: newSet(
			"logbook", "receipts", "workshop_invoice", "photos_of_records", "none",
		),
		maintenanceClaims: newSet(
			"serviced_recently", "regular_service_claimed", "logbook_mentioned",
			"receipts_mentioned", "major_service_done", "timing_belt_done",
			"water_pump_done", "clutch_replaced", "gearbox_rebuilt",
			"engine_rebuilt", "new_tyres", "new_brakes", "battery_replaced",
		),
		redFlags: newSet(
			"claim_without_proof", "major_work_no_receipts",
			"inconsistent_service_story", "recent_issue_disguised_as_minor",
			"odometer_or_history_unclear",
		),
		missingInfo: newSet(
			"vin_unknown", "ppsr_or_finance_status_unknown", "rego_expiry_unknown",
			"rwc_status_unknown", "accident_history_unknown",
			"service_history_unknown", "number_of_owners_unknown",
			"reason_for_selling_unknown", "recent_repairs_proof_unknown",
			"mods_engineered_unknown", "inspection_availability_unknown",
		),
	}
}

// ValidSignalType reports whether t is a member of the closed enumeration for
// category. "other" is always a member.
func (e *Enums) ValidSignalType(category model.Category, t string) bool {
	if t == Other {
		return true
	}
	types, ok := e.signalTypes[category]
	return ok && types.contains(t)
}

// ValidEvidencePresent reports whether v is a valid evidence_present token.
func (e *Enums) ValidEvidencePresent(v string) bool {
	return v == Other || e.evidencePresent.contains(v)
}

// ValidMaintenanceClaimType reports whether t is a valid claim type.
func (e *Enums) ValidMaintenanceClaimType(t string) bool {
	return t == Other || e.maintenanceClaims.contains(t)
}

// ValidRedFlagType reports whether t is a valid maintenance red-flag type.
func (e *Enums) ValidRedFlagType(t string) bool {
	return t == Other || e.redFlags.contains(t)
}

// ValidMissingInfo reports whether t is a valid missing_info token.
func (e *Enums) ValidMissingInfo(t string) bool {
	return t == Other || e.missingInfo.contains(t)
}

// SignalTypes returns the members of a category's enumeration, for prompt
// construction. The returned slice is a copy.
func (e *Enums) SignalTypes(category model.Category) []string {
	types := e.signalTypes[category]
	out := make([]string, 0, len(types))
	for t := range types {
		out = append(out, t)
	}
	return out
}
