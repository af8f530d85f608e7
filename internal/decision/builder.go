package decision

import (
	"errors"
	"fmt"

	"membership-entry-lab/internal/config"
	"membership-entry-lab/internal/domain"
)

// ErrStrategyNotFound is returned when the strategy has no decision row or valuation.
var ErrStrategyNotFound = errors.New("strategy not found in run results")

// ErrMissingGateScenario is returned when the base or stress scenario has no summary.
var ErrMissingGateScenario = errors.New("missing gate scenario summary")

// Builder constructs GateInput from run results.
type Builder struct {
	cfg config.Config
}

// NewBuilder creates a new gate input builder.
func NewBuilder(cfg config.Config) *Builder {
	return &Builder{cfg: cfg}
}

// Build creates GateInput for strategy from the ranked decision matrix,
// its valuation and the scenario summaries. The base and stress scenarios
// named in the gate config must both be present.
func (b *Builder) Build(strategy string, rows []*domain.DecisionRow, valuations []*domain.ValuationRow, summaries []*domain.ScenarioSummary) (*GateInput, error) {
	var row *domain.DecisionRow
	for _, r := range rows {
		if r.Strategy == strategy {
			row = r
			break
		}
	}
	var valuation *domain.ValuationRow
	for _, v := range valuations {
		if v.Strategy == strategy {
			valuation = v
			break
		}
	}
	if row == nil || valuation == nil {
		return nil, fmt.Errorf("%w: %s", ErrStrategyNotFound, strategy)
	}

	gate := b.cfg.Gate
	base, stress := findSummary(summaries, gate.BaseScenario, strategy), findSummary(summaries, gate.StressScenario, strategy)
	if base == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingGateScenario, gate.BaseScenario)
	}
	if stress == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingGateScenario, gate.StressScenario)
	}

	return &GateInput{
		Strategy:                    strategy,
		RiskAdjustedScore:           row.RiskAdjustedScore,
		WeightedMeanContributionEUR: row.WeightedMeanContributionEUR,
		WeightedProbLoss:            row.WeightedProbLoss,
		NPVEUR:                      valuation.NPVEUR,
		PaybackYear:                 valuation.PaybackYear,
		HorizonYears:                config.ValuationHorizonYears,
		BaseScenario:                gate.BaseScenario,
		BaseMeanEUR:                 base.MeanContributionEUR,
		StressScenario:              gate.StressScenario,
		StressMeanEUR:               stress.MeanContributionEUR,
		HouseholdHurdleEUR:          b.cfg.HouseholdHurdleEUR(),
		MaxWeightedProbLoss:         gate.MaxWeightedProbLoss,
	}, nil
}

func findSummary(summaries []*domain.ScenarioSummary, scenario, strategy string) *domain.ScenarioSummary {
	for _, s := range summaries {
		if s.Scenario == scenario && s.Strategy == strategy {
			return s
		}
	}
	return nil
}
