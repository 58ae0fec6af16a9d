package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"lemonscan/internal/model"
)

// Renderer writes reports as JSON files, Markdown files, and terminal
// summaries.
type Renderer struct {
	includeFooter bool
	out           io.Writer
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{
		includeFooter: includeFooter,
		out:           os.Stdout,
	}
}

// RenderJSON writes the report as indented JSON. Path "-" writes to stdout.
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err := r.out.Write(data)
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// RenderMarkdown writes a human-readable report file.
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Listing report: %s\n\n", report.ListingID)
	fmt.Fprintf(&b, "Generated %s by %s %s (ruleset %s)\n\n",
		report.CreatedAt.Format("2006-01-02 15:04 UTC"),
		report.StageName, report.StageVersion, report.RulesetVersion)

	p := &report.Payload
	b.WriteString("## Assessment\n\n")
	fmt.Fprintf(&b, "| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Overall risk | %s |\n", p.RiskLevelOverall)
	fmt.Fprintf(&b, "| Claimed condition | %s |\n", p.ClaimedCondition)
	fmt.Fprintf(&b, "| Service history | %s |\n", p.ServiceHistoryLevel)
	fmt.Fprintf(&b, "| Mods risk | %s |\n", p.ModsRiskLevel)
	fmt.Fprintf(&b, "| Negotiation stance | %s |\n\n", p.NegotiationStance)

	if total := countSignals(p.Signals); total > 0 {
		b.WriteString("## Signals\n\n")
		for _, category := range model.Categories() {
			signals := p.Signals.ByCategory(category)
			if len(signals) == 0 {
				continue
			}
			fmt.Fprintf(&b, "### %s\n\n", strings.ReplaceAll(string(category), "_", " "))
			for _, s := range signals {
				fmt.Fprintf(&b, "- **%s** (%s, %s, %.2f): %q\n",
					s.Type, s.Severity, s.VerificationLevel, s.Confidence, s.EvidenceText)
			}
			b.WriteString("\n")
		}
	}

	if len(p.Maintenance.Claims) > 0 || len(p.Maintenance.RedFlags) > 0 {
		b.WriteString("## Maintenance\n\n")
		for _, c := range p.Maintenance.Claims {
			fmt.Fprintf(&b, "- claim **%s** (%.2f): %q\n", c.Type, c.Confidence, c.EvidenceText)
		}
		for _, f := range p.Maintenance.RedFlags {
			fmt.Fprintf(&b, "- red flag **%s** (%.2f): %q\n", f.Type, f.Confidence, f.EvidenceText)
		}
		b.WriteString("\n")
	}

	if len(p.MissingInfo) > 0 {
		b.WriteString("## Missing information\n\n")
		for _, m := range p.MissingInfo {
			fmt.Fprintf(&b, "- %s\n", m)
		}
		b.WriteString("\n")
	}

	if len(p.FollowUpQuestions) > 0 {
		b.WriteString("## Questions for the seller\n\n")
		for _, q := range p.FollowUpQuestions {
			fmt.Fprintf(&b, "- [%s] %s\n", q.Priority, q.Question)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\nSignals are grounded in listing text only; absence of a signal is not evidence of absence.\n")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// RenderSummary prints a short terminal summary of one report.
func (r *Renderer) RenderSummary(report *model.Report) {
	p := &report.Payload

	fmt.Fprintf(r.out, "\n%s\n", report.ListingID)
	fmt.Fprintf(r.out, "  risk: %-8s condition: %-10s service history: %s\n",
		p.RiskLevelOverall, p.ClaimedCondition, p.ServiceHistoryLevel)
	fmt.Fprintf(r.out, "  mods: %-8s stance: %s\n", p.ModsRiskLevel, p.NegotiationStance)

	if total := countSignals(p.Signals); total > 0 {
		var parts []string
		for _, category := range model.Categories() {
			if n := len(p.Signals.ByCategory(category)); n > 0 {
				parts = append(parts, fmt.Sprintf("%s=%d", category, n))
			}
		}
		fmt.Fprintf(r.out, "  signals: %d (%s)\n", total, strings.Join(parts, ", "))
	}

	if p.SourceTextStats.ContainsKeywordsHighRisk {
		fmt.Fprintln(r.out, "  ⚠ high-risk keywords present in listing text")
	}
	for _, w := range p.ExtractionWarnings {
		fmt.Fprintf(r.out, "  warning: %s\n", w)
	}
}

func countSignals(s model.SignalSet) int {
	total := 0
	for _, category := range model.Categories() {
		total += len(s.ByCategory(category))
	}
	return total
}
