package reporting

import (
	"fmt"
	"strings"

	"membership-entry-lab/internal/domain"
	"membership-entry-lab/internal/sensitivity"
)

// Output file names.
const (
	FileScenarioResults    = "scenario_results.csv"
	FileDecisionMatrix     = "decision_matrix.csv"
	FileValuationSummary   = "valuation_summary.csv"
	FileValuationCashflows = "valuation_cashflows.csv"
	FileBreakEven          = "sensitivity_breakeven.csv"
	FileTornado            = "sensitivity_tornado.csv"
	FileReport             = "report.md"
)

// RenderScenarioResultsCSV renders one row per (scenario, strategy) summary.
func RenderScenarioResultsCSV(summaries []*domain.ScenarioSummary) string {
	var sb strings.Builder

	sb.WriteString("scenario,strategy,mean_contribution_eur,p10_contribution_eur,p90_contribution_eur,")
	sb.WriteString("prob_loss,mean_adoption_rate,mean_break_even_monthly_eur\n")

	for _, s := range summaries {
		sb.WriteString(fmt.Sprintf("%s,%s,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			s.Scenario,
			s.Strategy,
			s.MeanContributionEUR,
			s.P10ContributionEUR,
			s.P90ContributionEUR,
			s.ProbLoss,
			s.MeanAdoptionRate,
			s.MeanBreakEvenMonthlyEUR,
		))
	}

	return sb.String()
}

// RenderDecisionMatrixCSV renders the ranked decision matrix.
func RenderDecisionMatrixCSV(rows []*domain.DecisionRow) string {
	var sb strings.Builder

	sb.WriteString("rank,strategy,weighted_mean_contribution_eur,weighted_prob_loss,")
	sb.WriteString("weighted_cvar5_contribution_eur,risk_adjusted_score\n")

	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%d,%s,%.6f,%.6f,%.6f,%.6f\n",
			r.Rank,
			r.Strategy,
			r.WeightedMeanContributionEUR,
			r.WeightedProbLoss,
			r.WeightedCVaR5EUR,
			r.RiskAdjustedScore,
		))
	}

	return sb.String()
}

// RenderValuationSummaryCSV renders one row per strategy valuation.
// payback_year is -1 when there is no payback within the horizon.
func RenderValuationSummaryCSV(rows []*domain.ValuationRow) string {
	var sb strings.Builder

	sb.WriteString("strategy,npv_5y_eur,terminal_value_discounted_eur,payback_year\n")

	for _, v := range rows {
		sb.WriteString(fmt.Sprintf("%s,%.2f,%.2f,%d\n",
			v.Strategy,
			v.NPVEUR,
			v.TerminalValueDiscountedEUR,
			v.PaybackYear,
		))
	}

	return sb.String()
}

// RenderValuationCashflowsCSV renders every projection year of every strategy.
func RenderValuationCashflowsCSV(rows []*domain.ValuationRow) string {
	var sb strings.Builder

	sb.WriteString("strategy,year,cumulative_warehouses,free_cash_flow_eur,discounted_fcf_eur\n")

	for _, v := range rows {
		for _, cf := range v.CashFlows {
			sb.WriteString(fmt.Sprintf("%s,%d,%d,%.2f,%.2f\n",
				v.Strategy,
				cf.Year,
				cf.CumulativeUnits,
				cf.FreeCashFlowEUR,
				cf.DiscountedFCFEUR,
			))
		}
	}

	return sb.String()
}

// RenderBreakEvenCSV renders the fee x discount break-even grid.
func RenderBreakEvenCSV(cells []sensitivity.BreakEvenCell) string {
	var sb strings.Builder

	sb.WriteString("annual_fee_eur,discount_rate,break_even_monthly_spend_eur\n")

	for _, c := range cells {
		sb.WriteString(fmt.Sprintf("%.2f,%.4f,%.2f\n", c.FeeEUR, c.DiscountRate, c.BreakEvenMonthlyEUR))
	}

	return sb.String()
}

// RenderTornadoCSV renders tornado rows in swing order.
func RenderTornadoCSV(rows []sensitivity.TornadoRow) string {
	var sb strings.Builder

	sb.WriteString("parameter,base_value,low_value,high_value,base_mean_eur,low_mean_eur,high_mean_eur,swing_eur\n")

	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			r.Parameter,
			r.BaseValue,
			r.LowValue,
			r.HighValue,
			r.BaseMeanEUR,
			r.LowMeanEUR,
			r.HighMeanEUR,
			r.SwingEUR,
		))
	}

	return sb.String()
}
