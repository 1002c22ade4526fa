// Package report renders an analysis report as human-readable text for the
// CLI and conversational surfaces. Rendering is presentation only: every
// number and phrase comes from the report, never recomputed here.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/covariant-labs/guardian/internal/coordinator"
	"github.com/covariant-labs/guardian/internal/synthesis"
)

const identityDisplayLen = 16

// Render formats the full report, including the transparency footer with
// per-call timing and originating identities.
func Render(r *coordinator.AnalysisReport) string {
	var b strings.Builder

	b.WriteString("PORTFOLIO RISK ANALYSIS\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if r.Degraded {
		b.WriteString("PARTIAL ANALYSIS\n")
		b.WriteString(r.DegradedNote + "\n\n")
	}

	renderCorrelation(&b, r)
	renderConcentration(&b, r)
	renderSynthesis(&b, r.Synthesis)
	renderOutcomes(&b, r)

	return b.String()
}

func renderCorrelation(b *strings.Builder, r *coordinator.AnalysisReport) {
	b.WriteString("CO-MOVEMENT\n")
	corr := r.Correlation
	if corr == nil {
		b.WriteString("  unavailable\n\n")
		return
	}
	if corr.InsufficientData {
		b.WriteString("  insufficient price history for a reliable reading\n")
	} else {
		fmt.Fprintf(b, "  Portfolio moves with the reference asset %d%% of the time (%s bracket, %dd window)\n",
			corr.Percentage, corr.Bracket, corr.WindowDays)
	}
	if len(corr.ExcludedSymbols) > 0 {
		fmt.Fprintf(b, "  Excluded for short history: %s\n", strings.Join(corr.ExcludedSymbols, ", "))
	}
	for _, sc := range corr.ScenarioContexts {
		fmt.Fprintf(b, "  During %s (%s), portfolios in this bracket lost %.0f%%\n",
			sc.DisplayName, sc.PeriodLabel, -sc.ExpectedLossPct)
	}
	b.WriteString("\n")
}

func renderConcentration(b *strings.Builder, r *coordinator.AnalysisReport) {
	b.WriteString("CONCENTRATION\n")
	conc := r.Concentration
	if conc == nil {
		b.WriteString("  unavailable\n\n")
		return
	}
	fmt.Fprintf(b, "  Diversification: %s\n", conc.Label)

	categories := make([]string, 0, len(conc.Breakdown))
	for cat := range conc.Breakdown {
		categories = append(categories, cat)
	}
	sort.Slice(categories, func(i, j int) bool {
		ci, cj := conc.Breakdown[categories[i]], conc.Breakdown[categories[j]]
		if ci.Percentage != cj.Percentage {
			return ci.Percentage > cj.Percentage
		}
		return categories[i] < categories[j]
	})
	for _, cat := range categories {
		ch := conc.Breakdown[cat]
		fmt.Fprintf(b, "  %-24s %5.1f%%  (%s)\n", cat, ch.Percentage, strings.Join(ch.Symbols, ", "))
	}
	if len(conc.UnknownSymbols) > 0 {
		fmt.Fprintf(b, "  %-24s %5.1f%%  (%s)\n", "Unclassified", conc.UnknownSharePct, strings.Join(conc.UnknownSymbols, ", "))
	}
	for _, cr := range conc.CategoryRisks {
		for _, sc := range cr.ScenarioContexts {
			fmt.Fprintf(b, "  During %s, %s fell %.0f%%\n", sc.DisplayName, cr.Category, -sc.CategoryLossPct)
		}
		if cr.OpportunityCost != "" {
			fmt.Fprintf(b, "  %s\n", cr.OpportunityCost)
		}
	}
	b.WriteString("\n")
}

func renderSynthesis(b *strings.Builder, s synthesis.Result) {
	b.WriteString("SYNTHESIS\n")
	fmt.Fprintf(b, "  Overall risk level: %s\n", s.OverallRiskLevel)
	if s.CompoundingDetected {
		validated := "estimated"
		if s.MultiplierValidated {
			validated = "historically validated"
		}
		fmt.Fprintf(b, "  Compounding risk detected: concentrated exposure amplifies losses ~%.1fx (%s)\n",
			s.RiskMultiplier, validated)
	}
	b.WriteString("  " + s.Narrative + "\n\n")

	b.WriteString("RECOMMENDATIONS\n")
	for _, rec := range s.Recommendations {
		fmt.Fprintf(b, "  %d. %s\n     %s\n     Expected impact: %s\n", rec.Rank, rec.Action, rec.Rationale, rec.ExpectedImpact)
	}
	b.WriteString("\n")
}

func renderOutcomes(b *strings.Builder, r *coordinator.AnalysisReport) {
	b.WriteString(strings.Repeat("-", 60) + "\n")
	fmt.Fprintf(b, "Analysis %s completed in %s\n", r.CorrelationID, r.TotalDuration.Round(time.Millisecond))
	for _, o := range r.Outcomes {
		fmt.Fprintf(b, "  %-14s %-10s %8s  via %s\n",
			o.Analyzer, o.State, o.Duration.Round(time.Millisecond), truncateIdentity(o.Identity))
	}
}

// truncateIdentity shortens long identities the way addresses are shown in
// chat transcripts, keeping enough prefix to tell analyzers apart.
func truncateIdentity(identity string) string {
	if len(identity) <= identityDisplayLen {
		return identity
	}
	return identity[:identityDisplayLen] + "..."
}
