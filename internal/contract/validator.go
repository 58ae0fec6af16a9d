// Package contract validates assembled reports against the closed output
// schema. A violation here is the only fatal condition in the engine: the
// caller must not release a payload that fails validation.
package contract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"lemonscan/internal/model"
	"lemonscan/internal/schema"
)

// Violation is one schema failure, addressed by a dotted field path.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError carries every violation found in one pass.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("contract violation: %s: %s", e.Violations[0].Path, e.Violations[0].Message)
	}
	return fmt.Sprintf("contract violations: %d fields failed validation", len(e.Violations))
}

// Validator checks reports against struct tags plus the enumeration sets
// that tags cannot express (per-category signal types and list tokens).
type Validator struct {
	validate *validator.Validate
	enums    *schema.Enums
}

// New builds a report validator over the given enumerations.
func New(enums *schema.Enums) *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		enums:    enums,
	}
}

// ValidateReport checks the full report. Returns nil on success, otherwise
// a *ValidationError listing every violation found.
func (v *Validator) ValidateReport(report *model.Report) error {
	var violations []Violation

	if err := v.validate.Struct(report); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				violations = append(violations, Violation{
					Path:    strings.TrimPrefix(fe.Namespace(), "Report."),
					Message: tagMessage(fe),
				})
			}
		} else {
			violations = append(violations, Violation{Path: "", Message: err.Error()})
		}
	}

	violations = append(violations, v.checkEnums(&report.Payload)...)

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// checkEnums covers the membership rules that depend on category context.
func (v *Validator) checkEnums(payload *model.ExtractionPayload) []Violation {
	var violations []Violation

	for _, category := range model.Categories() {
		for i, s := range payload.Signals.ByCategory(category) {
			if !v.enums.ValidSignalType(category, s.Type) {
				violations = append(violations, Violation{
					Path:    fmt.Sprintf("Payload.Signals.%s[%d].Type", category, i),
					Message: fmt.Sprintf("%q is not a valid %s signal type", s.Type, category),
				})
			}
		}
	}

	for i, c := range payload.Maintenance.Claims {
		if !v.enums.ValidMaintenanceClaimType(c.Type) {
			violations = append(violations, Violation{
				Path:    fmt.Sprintf("Payload.Maintenance.Claims[%d].Type", i),
				Message: fmt.Sprintf("%q is not a valid maintenance claim type", c.Type),
			})
		}
	}
	for i, token := range payload.Maintenance.EvidencePresent {
		if !v.enums.ValidEvidencePresent(token) {
			violations = append(violations, Violation{
				Path:    fmt.Sprintf("Payload.Maintenance.EvidencePresent[%d]", i),
				Message: fmt.Sprintf("%q is not a valid evidence_present token", token),
			})
		}
	}
	for i, f := range payload.Maintenance.RedFlags {
		if !v.enums.ValidRedFlagType(f.Type) {
			violations = append(violations, Violation{
				Path:    fmt.Sprintf("Payload.Maintenance.RedFlags[%d].Type", i),
				Message: fmt.Sprintf("%q is not a valid red flag type", f.Type),
			})
		}
	}
	for i, token := range payload.MissingInfo {
		if !v.enums.ValidMissingInfo(token) {
			violations = append(violations, Violation{
				Path:    fmt.Sprintf("Payload.MissingInfo[%d]", i),
				Message: fmt.Sprintf("%q is not a valid missing_info token", token),
			})
		}
	}

	return violations
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required field is missing or empty"
	case "oneof":
		return fmt.Sprintf("value %q is not one of [%s]", fmt.Sprint(fe.Value()), fe.Param())
	case "gte":
		return fmt.Sprintf("value must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("value must be <= %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
