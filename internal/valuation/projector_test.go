package valuation

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership-entry-lab/internal/config"
	"membership-entry-lab/internal/domain"
)

// unitConfig makes one household equal one unit, with no capex and no growth.
func unitConfig() config.Config {
	cfg := config.Default()
	cfg.Market.AddressableHouseholds = 1
	cfg.Market.RealRetailGrowthPct = 0
	cfg.Financial.WACCPct = 10
	cfg.Financial.TerminalGrowthPct = 0
	cfg.Financial.CapexPerUnitEUR = 0
	cfg.Financial.MaintenanceCapexPct = 0
	cfg.Financial.RolloutCumulativeUnits = []int{1, 1, 1, 1, 1}
	return cfg
}

func TestProject_KnownCashFlows(t *testing.T) {
	p := NewProjector(unitConfig(), zerolog.Nop())

	row, err := p.Project(Input{Strategy: "s", WeightedMeanContributionEUR: 100, BaseAdoptionRate: 0.20})
	require.NoError(t, err)

	assert.Equal(t, 0.0, row.GrowthRate)
	require.Len(t, row.CashFlows, 5)

	sum := 0.0
	for i, cf := range row.CashFlows {
		want := 100 / math.Pow(1.1, float64(i+1))
		sum += want
		assert.Equal(t, i+1, cf.Year)
		assert.InDelta(t, want, cf.DiscountedFCFEUR, 1e-9)
		assert.InDelta(t, sum, cf.CumulativeDiscountedFCFEUR, 1e-9)
	}
	assert.Equal(t, 1, row.PaybackYear)

	// Gordon on final FCF: 100 / 0.10, discounted five years
	terminal := 1000 / math.Pow(1.1, 5)
	assert.InDelta(t, terminal, row.TerminalValueDiscountedEUR, 1e-9)
	assert.InDelta(t, sum+terminal, row.NPVEUR, 1e-9)
}

func TestProject_TerminalValueDisabled(t *testing.T) {
	cfg := unitConfig()
	cfg.Financial.IncludeTerminalValue = false

	row, err := NewProjector(cfg, zerolog.Nop()).Project(Input{Strategy: "s", WeightedMeanContributionEUR: 100, BaseAdoptionRate: 0.2})
	require.NoError(t, err)
	assert.Equal(t, 0.0, row.TerminalValueDiscountedEUR)

	annuity := 0.0
	for year := 1; year <= 5; year++ {
		annuity += 100 / math.Pow(1.1, float64(year))
	}
	assert.InDelta(t, annuity, row.NPVEUR, 1e-9)
}

func TestProject_NoTerminalValueOnNegativeFinalFCF(t *testing.T) {
	row, err := NewProjector(unitConfig(), zerolog.Nop()).Project(Input{Strategy: "s", WeightedMeanContributionEUR: -5, BaseAdoptionRate: 0.2})
	require.NoError(t, err)
	assert.Equal(t, 0.0, row.TerminalValueDiscountedEUR)
}

func TestProject_NoTerminalValueWhenGrowthExceedsWACC(t *testing.T) {
	cfg := unitConfig()
	cfg.Financial.TerminalGrowthPct = 12

	row, err := NewProjector(cfg, zerolog.Nop()).Project(Input{Strategy: "s", WeightedMeanContributionEUR: 100, BaseAdoptionRate: 0.2})
	require.NoError(t, err)
	assert.Equal(t, 0.0, row.TerminalValueDiscountedEUR)
}

func TestProject_PaybackAfterCapex(t *testing.T) {
	cfg := unitConfig()
	cfg.Financial.WACCPct = 0
	cfg.Financial.CapexPerUnitEUR = 250

	row, err := NewProjector(cfg, zerolog.Nop()).Project(Input{Strategy: "s", WeightedMeanContributionEUR: 100, BaseAdoptionRate: 0.2})
	require.NoError(t, err)

	// FCF -150, 100, 100, 100, 100 -> cumulative -150, -50, 50, 150, 250
	assert.Equal(t, 3, row.PaybackYear)
	assert.InDelta(t, 250, row.CashFlows[0].CapexEUR, 1e-9)
	assert.InDelta(t, 0, row.CashFlows[1].CapexEUR, 1e-9)
}

func TestProject_MaintenanceCapexOnPositiveContributionOnly(t *testing.T) {
	cfg := unitConfig()
	cfg.Financial.MaintenanceCapexPct = 8

	pos, err := NewProjector(cfg, zerolog.Nop()).Project(Input{Strategy: "s", WeightedMeanContributionEUR: 100, BaseAdoptionRate: 0.2})
	require.NoError(t, err)
	assert.InDelta(t, 8, pos.CashFlows[0].CapexEUR, 1e-9)

	neg, err := NewProjector(cfg, zerolog.Nop()).Project(Input{Strategy: "s", WeightedMeanContributionEUR: -100, BaseAdoptionRate: 0.2})
	require.NoError(t, err)
	assert.Equal(t, 0.0, neg.CashFlows[0].CapexEUR)
}

func TestProject_PaybackSentinel(t *testing.T) {
	row, err := NewProjector(config.Default(), zerolog.Nop()).Project(Input{Strategy: "s", WeightedMeanContributionEUR: -10, BaseAdoptionRate: 0.1})
	require.NoError(t, err)
	assert.Equal(t, domain.NoPayback, row.PaybackYear)
	assert.Less(t, row.NPVEUR, 0.0)
}

func TestProject_PaybackInRangeOrSentinel(t *testing.T) {
	p := NewProjector(config.Default(), zerolog.Nop())
	rng := rand.New(rand.NewPCG(3, 4))

	for i := 0; i < 500; i++ {
		in := Input{
			Strategy:                    "s",
			WeightedMeanContributionEUR: rng.Float64()*400 - 100,
			BaseAdoptionRate:            rng.Float64(),
		}
		row, err := p.Project(in)
		require.NoError(t, err)

		if row.PaybackYear != domain.NoPayback {
			assert.GreaterOrEqual(t, row.PaybackYear, 1)
			assert.LessOrEqual(t, row.PaybackYear, 5)
			assert.GreaterOrEqual(t, row.CashFlows[row.PaybackYear-1].CumulativeDiscountedFCFEUR, 0.0)
		} else {
			for _, cf := range row.CashFlows {
				assert.Less(t, cf.CumulativeDiscountedFCFEUR, 0.0)
			}
		}
	}
}

func TestProject_RejectsRolloutLongerThanHorizon(t *testing.T) {
	cfg := unitConfig()
	cfg.Financial.RolloutCumulativeUnits = []int{1, 1, 1, 1, 1, 1, 1, 1}

	_, err := NewProjector(cfg, zerolog.Nop()).Project(Input{Strategy: "s", WeightedMeanContributionEUR: 100, BaseAdoptionRate: 0.2})
	require.ErrorIs(t, err, domain.ErrConfiguration)

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "financial.rollout_cumulative_units", cfgErr.Field)

	cfg.Financial.RolloutCumulativeUnits = []int{1, 1}
	_, err = NewProjector(cfg, zerolog.Nop()).Project(Input{Strategy: "s", WeightedMeanContributionEUR: 100, BaseAdoptionRate: 0.2})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestProject_SlowPaybackStaysWithinHorizon(t *testing.T) {
	cfg := unitConfig()
	cfg.Financial.WACCPct = 0
	cfg.Financial.RolloutCumulativeUnits = []int{1, 1, 1, 1, 1}

	// Contribution 100 per year; capex sweeps payback from year 1 to never.
	for capex := 0.0; capex <= 800; capex += 50 {
		cfg.Financial.CapexPerUnitEUR = capex
		row, err := NewProjector(cfg, zerolog.Nop()).Project(Input{Strategy: "s", WeightedMeanContributionEUR: 100, BaseAdoptionRate: 0.2})
		require.NoError(t, err)
		require.Len(t, row.CashFlows, config.ValuationHorizonYears)

		if capex > 500 {
			assert.Equal(t, domain.NoPayback, row.PaybackYear, "capex %v", capex)
			continue
		}
		assert.GreaterOrEqual(t, row.PaybackYear, 1, "capex %v", capex)
		assert.LessOrEqual(t, row.PaybackYear, config.ValuationHorizonYears, "capex %v", capex)
	}
}

func TestGrowthRate_Clipped(t *testing.T) {
	p := NewProjector(config.Default(), zerolog.Nop())

	assert.InDelta(t, 0.027, p.GrowthRate(0.20), 1e-12)
	assert.InDelta(t, 0.007, p.GrowthRate(0.0), 1e-12)
	assert.Equal(t, 0.09, p.GrowthRate(1.0))

	cfg := config.Default()
	cfg.Market.RealRetailGrowthPct = -10
	assert.Equal(t, -0.02, NewProjector(cfg, zerolog.Nop()).GrowthRate(0.2))
}

func TestProject_NaNIsNumericAnomaly(t *testing.T) {
	_, err := NewProjector(config.Default(), zerolog.Nop()).Project(Input{Strategy: "s", WeightedMeanContributionEUR: math.NaN()})
	assert.ErrorIs(t, err, domain.ErrNumericAnomaly)
}

func TestProjectAll(t *testing.T) {
	p := NewProjector(config.Default(), zerolog.Nop())
	rows := []*domain.DecisionRow{
		{RunID: "run-1", Rank: 1, Strategy: "entry_35", WeightedMeanContributionEUR: 8},
		{RunID: "run-1", Rank: 2, Strategy: "standard_65", WeightedMeanContributionEUR: -4},
	}
	summaries := []*domain.ScenarioSummary{
		{Scenario: domain.ScenarioBaseCase, Strategy: "entry_35", MeanAdoptionRate: 0.3},
		{Scenario: domain.ScenarioBaseCase, Strategy: "standard_65", MeanAdoptionRate: 0.15},
		{Scenario: domain.ScenarioDownsideStress, Strategy: "entry_35", MeanAdoptionRate: 0.9},
	}

	vals, err := p.ProjectAll(rows, summaries, domain.ScenarioBaseCase)
	require.NoError(t, err)
	require.Len(t, vals, 2)

	assert.Equal(t, "run-1", vals[0].RunID)
	assert.InDelta(t, p.GrowthRate(0.3), vals[0].GrowthRate, 1e-12)
	assert.InDelta(t, 8*450_000, vals[0].ContributionPerUnitEUR, 1e-6)
	assert.Greater(t, vals[0].NPVEUR, vals[1].NPVEUR)

	_, err = p.ProjectAll(rows, summaries[:1], domain.ScenarioBaseCase)
	assert.Error(t, err)
}
