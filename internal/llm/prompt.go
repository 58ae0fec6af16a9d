package llm

import (
	"fmt"
	"strings"

	"lemonscan/internal/model"
	"lemonscan/internal/schema"
)

// systemPrompt frames the extraction task. Evidence grounding is restated
// here even though the verifier enforces it, because a producer that quotes
// verbatim wastes far fewer signals.
const systemPrompt = `You are a vehicle listing analyst. You extract structured risk intelligence from used car and motorbike listings.

CRITICAL RULES:
1. Every signal MUST include evidence_text copied VERBATIM from the listing title or description. Do not paraphrase.
2. If the listing does not state something, do not invent it. Use the missing_info list instead.
3. Use only the type values given in the schema for each category. If nothing fits, use "other".
4. confidence is a number between 0.0 and 1.0.
5. You MUST return a single valid JSON object and nothing else.`

// BuildPrompt constructs the default extraction prompt for a listing,
// embedding the closed type enumerations so the producer has no reason to
// invent labels.
func BuildPrompt(listing model.Listing, enums *schema.Enums) string {
	var b strings.Builder

	b.WriteString("## Output Schema\n\n")
	b.WriteString(`Return JSON with this shape:
{
  "signals": {`)
	for i, category := range model.Categories() {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "\n    %q: [{\"type\": <one of: %s>, \"severity\": \"low|medium|high\", \"verification_level\": \"verified|inferred\", \"evidence_text\": \"<verbatim quote>\", \"confidence\": 0.0}]",
			string(category), strings.Join(enums.SignalTypes(category), ", "))
	}
	b.WriteString(`
  },
  "maintenance": {
    "claims": [{"type": "...", "details": "...", "evidence_text": "<verbatim quote>", "confidence": 0.0, "verification_level": "verified|inferred"}],
    "evidence_present": ["logbook", "receipts", "workshop_invoice", "photos_of_records", "none"],
    "red_flags": [{"type": "...", "severity": "...", "evidence_text": "<verbatim quote>", "confidence": 0.0}]
  },
  "summaries": {"claimed_condition": "...", "service_history_level": "...", "mods_risk_level": "...", "negotiation_stance": "..."},
  "missing_info": ["..."],
  "follow_up_questions": [{"question": "...", "reason": "...", "priority": "high|medium|low", "driven_by": "..."}],
  "extraction_warnings": ["..."]
}
`)

	b.WriteString("\n## Input for This Extraction\n\n")
	fmt.Fprintf(&b, "- listing_id: %s\n", listing.ListingID)
	fmt.Fprintf(&b, "- title: %s\n", listing.Title)
	fmt.Fprintf(&b, "- description: %s\n", listing.Description)
	fmt.Fprintf(&b, "- vehicle_type: %s\n", orUnknown(listing.VehicleType))
	if listing.Price != nil {
		fmt.Fprintf(&b, "- price: %.2f\n", *listing.Price)
	} else {
		b.WriteString("- price: not provided\n")
	}
	if listing.Mileage != nil {
		fmt.Fprintf(&b, "- mileage: %d\n", *listing.Mileage)
	} else {
		b.WriteString("- mileage: not provided\n")
	}

	b.WriteString("\nNow extract the structured intelligence following the schema. You MUST return valid JSON.\n")

	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
