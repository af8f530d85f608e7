// Package reporting renders run results as CSV tables and a Markdown report.
package reporting

import (
	"time"

	"membership-entry-lab/internal/decision"
	"membership-entry-lab/internal/domain"
	"membership-entry-lab/internal/sensitivity"
)

// Report represents one run's report structure.
type Report struct {
	// Metadata
	GeneratedAt   time.Time
	Run           *domain.RunRecord
	ScenarioCount int
	StrategyCount int

	// Scenario results (scenario order, then strategy order, as configured)
	Scenarios []*domain.ScenarioSummary

	// Base vs stress per strategy, in decision rank order
	ScenarioComparison []ScenarioComparisonRow

	// Decision matrix ordered by rank ASC
	Decisions []*domain.DecisionRow

	// Valuations in decision rank order
	Valuations []*domain.ValuationRow

	// Recommendation gate for the top-ranked strategy; nil when there are no decision rows
	Gate *decision.DecisionResult

	// Optional sections
	Sensitivity *sensitivity.Result
	AuditFlags  []AuditFlag
}

// ScenarioComparisonRow compares a strategy's base and stress means.
type ScenarioComparisonRow struct {
	Strategy       string
	BaseMeanEUR    float64
	StressMeanEUR  float64
	DegradationPct float64 // (base - stress) / |base| * 100, 0 if base == 0
}
