package reporting

import (
	"fmt"
	"strings"
	"time"

	"membership-entry-lab/internal/decision"
	"membership-entry-lab/internal/domain"
)

// maxTornadoRows bounds the tornado table in the report; the CSV has all rows.
const maxTornadoRows = 10

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Market Entry Strategy Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.Run != nil {
		sb.WriteString(fmt.Sprintf("Run: `%s` | Execution: `%s` | Seed: %d | Trials per pair: %d\n\n",
			r.Run.RunID, r.Run.ExecutionID, r.Run.Seed, r.Run.Trials))
	}
	sb.WriteString(fmt.Sprintf("Scenarios: %d | Strategies: %d\n\n", r.ScenarioCount, r.StrategyCount))

	// Scenario results
	sb.WriteString("## Scenario Results\n\n")
	if len(r.Scenarios) > 0 {
		sb.WriteString("| Scenario | Strategy | Mean | P10 | P90 | CVaR5 | ProbLoss | Adoption | BreakEven/mo |\n")
		sb.WriteString("|----------|----------|------|-----|-----|-------|----------|----------|--------------|\n")
		for _, s := range r.Scenarios {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.2f | %.2f | %.2f | %.2f | %.4f | %.4f | %.2f |\n",
				s.Scenario, s.Strategy,
				s.MeanContributionEUR, s.P10ContributionEUR, s.P90ContributionEUR, s.CVaR5ContributionEUR,
				s.ProbLoss, s.MeanAdoptionRate, s.MeanBreakEvenMonthlyEUR))
		}
	} else {
		sb.WriteString("No scenario results available.\n")
	}
	sb.WriteString("\n")

	// Scenario comparison
	if len(r.ScenarioComparison) > 0 {
		sb.WriteString("## Stress Degradation\n\n")
		sb.WriteString("| Strategy | Base Mean | Stress Mean | Degradation% |\n")
		sb.WriteString("|----------|-----------|-------------|--------------|\n")
		for _, c := range r.ScenarioComparison {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.2f |\n",
				c.Strategy, c.BaseMeanEUR, c.StressMeanEUR, c.DegradationPct))
		}
		sb.WriteString("\n")
	}

	// Decision matrix
	sb.WriteString("## Decision Matrix\n\n")
	if len(r.Decisions) > 0 {
		sb.WriteString("| Rank | Strategy | Weighted Mean | Weighted ProbLoss | Weighted CVaR5 | Volatility | Score |\n")
		sb.WriteString("|------|----------|---------------|-------------------|----------------|------------|-------|\n")
		for _, d := range r.Decisions {
			sb.WriteString(fmt.Sprintf("| %d | %s | %.4f | %.4f | %.4f | %.4f | %.4f |\n",
				d.Rank, d.Strategy, d.WeightedMeanContributionEUR, d.WeightedProbLoss,
				d.WeightedCVaR5EUR, d.Volatility, d.RiskAdjustedScore))
		}
	} else {
		sb.WriteString("No decision rows available.\n")
	}
	sb.WriteString("\n")

	// Valuation
	sb.WriteString("## Valuation\n\n")
	if len(r.Valuations) > 0 {
		sb.WriteString("| Strategy | Contribution/unit Y1 | Growth | NPV | Terminal (disc.) | Payback |\n")
		sb.WriteString("|----------|----------------------|--------|-----|------------------|---------|\n")
		for _, v := range r.Valuations {
			sb.WriteString(fmt.Sprintf("| %s | %.0f | %.2f%% | %.0f | %.0f | %s |\n",
				v.Strategy, v.ContributionPerUnitEUR, v.GrowthRate*100,
				v.NPVEUR, v.TerminalValueDiscountedEUR, paybackLabel(v.PaybackYear)))
		}
	} else {
		sb.WriteString("No valuations available.\n")
	}
	sb.WriteString("\n")

	// Recommendation gate
	if r.Gate != nil {
		sb.WriteString(decision.RenderMarkdown(r.Gate))
		sb.WriteString("\n")
	}

	// Sensitivity
	if s := r.Sensitivity; s != nil {
		sb.WriteString("## Sensitivity\n\n")
		sb.WriteString(fmt.Sprintf("Tornado for `%s` in `%s`:\n\n", s.Strategy, s.Scenario))
		if len(s.Tornado) > 0 {
			sb.WriteString("| Parameter | Low Mean | Base Mean | High Mean | Swing |\n")
			sb.WriteString("|-----------|----------|-----------|-----------|-------|\n")
			for i, t := range s.Tornado {
				if i == maxTornadoRows {
					break
				}
				sb.WriteString(fmt.Sprintf("| %s | %.4f | %.4f | %.4f | %.4f |\n",
					t.Parameter, t.LowMeanEUR, t.BaseMeanEUR, t.HighMeanEUR, t.SwingEUR))
			}
		} else {
			sb.WriteString("No tornado rows available.\n")
		}
		sb.WriteString("\n")
		if n := len(s.BreakEven); n > 0 {
			lo, hi := s.BreakEven[0], s.BreakEven[0]
			for _, c := range s.BreakEven {
				if c.BreakEvenMonthlyEUR < lo.BreakEvenMonthlyEUR {
					lo = c
				}
				if c.BreakEvenMonthlyEUR > hi.BreakEvenMonthlyEUR {
					hi = c
				}
			}
			sb.WriteString(fmt.Sprintf("Break-even grid: %d cells, monthly spend from %.2f (fee %.2f, discount %.4f) to %.2f (fee %.2f, discount %.4f).\n\n",
				n, lo.BreakEvenMonthlyEUR, lo.FeeEUR, lo.DiscountRate,
				hi.BreakEvenMonthlyEUR, hi.FeeEUR, hi.DiscountRate))
		}
	}

	// Audit flags
	sb.WriteString("## Compliance Audit\n\n")
	if len(r.AuditFlags) > 0 {
		sb.WriteString("| Area | Severity | Message |\n")
		sb.WriteString("|------|----------|---------|\n")
		for _, f := range r.AuditFlags {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", f.Area, f.Severity, escapeCell(f.Message)))
		}
	} else {
		sb.WriteString("No audit flags.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func paybackLabel(year int) string {
	if year == domain.NoPayback {
		return "none"
	}
	return fmt.Sprintf("year %d", year)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
