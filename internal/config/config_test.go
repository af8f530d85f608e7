package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership-entry-lab/internal/domain"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Len(t, cfg.Scenarios, 3)
	assert.Len(t, cfg.Strategies, 3)
	assert.InDelta(t, 6_432_920.0, cfg.LaborCostPerUnitEUR(), 1e-6)
}

func TestValidate_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantField string
	}{
		{
			name:      "weights do not sum to one",
			mutate:    func(c *Config) { c.Scenarios[0].ProbabilityWeight = 0.4 },
			wantField: "scenarios.probability_weight",
		},
		{
			name:      "negative fee",
			mutate:    func(c *Config) { c.Strategies[1].AnnualFeeEUR = -5 },
			wantField: "strategies[1].annual_fee",
		},
		{
			name:      "discount above one",
			mutate:    func(c *Config) { c.Strategies[0].BulkDiscountRate = 1.2 },
			wantField: "strategies[0].bulk_discount_rate",
		},
		{
			name:      "zero trials",
			mutate:    func(c *Config) { c.Simulation.Trials = 0 },
			wantField: "simulation.trials",
		},
		{
			name:      "duplicate strategy",
			mutate:    func(c *Config) { c.Strategies[2].Name = c.Strategies[0].Name },
			wantField: "strategies[2].name",
		},
		{
			name:      "decreasing rollout",
			mutate:    func(c *Config) { c.Financial.RolloutCumulativeUnits = []int{1, 2, 4, 3, 8} },
			wantField: "financial.rollout_cumulative_units[3]",
		},
		{
			name:      "rollout longer than horizon",
			mutate:    func(c *Config) { c.Financial.RolloutCumulativeUnits = []int{1, 1, 1, 1, 1, 1, 1, 1} },
			wantField: "financial.rollout_cumulative_units",
		},
		{
			name:      "rollout shorter than horizon",
			mutate:    func(c *Config) { c.Financial.RolloutCumulativeUnits = []int{1, 2} },
			wantField: "financial.rollout_cumulative_units",
		},
		{
			name:      "weight above one",
			mutate:    func(c *Config) { c.Scenarios[1].ProbabilityWeight = 1.5 },
			wantField: "scenarios[1].probability_weight",
		},
		{
			name:      "gate loss cap above one",
			mutate:    func(c *Config) { c.Gate.MaxWeightedProbLoss = 1.1 },
			wantField: "gate.max_weighted_prob_loss",
		},
		{
			name:      "unknown stress scenario",
			mutate:    func(c *Config) { c.Gate.StressScenario = "recession" },
			wantField: "gate.stress_scenario",
		},
		{
			name:      "single-step grid",
			mutate:    func(c *Config) { c.Sensitivity.GridSteps = 1 },
			wantField: "sensitivity.grid_steps",
		},
		{
			name:      "inverted fee grid",
			mutate:    func(c *Config) { c.Sensitivity.GridFeeMaxEUR = 10 },
			wantField: "sensitivity.grid_fee_max_eur",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default().Clone()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrConfiguration), "got %v", err)

			var cfgErr *domain.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

func TestValidate_DegenerateScenarioSet(t *testing.T) {
	cfg := Default().Clone()
	cfg.Scenarios = nil
	assert.True(t, errors.Is(cfg.Validate(), domain.ErrDegenerateScenarioSet))

	cfg = Default().Clone()
	for i := range cfg.Scenarios {
		cfg.Scenarios[i].ProbabilityWeight = 0
	}
	assert.True(t, errors.Is(cfg.Validate(), domain.ErrDegenerateScenarioSet))
}

func TestLoad_YAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.yaml")
	yamlDoc := `
simulation:
  trials: 1200
  seed: 7
financial:
  wacc_pct: 9.0
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1200, cfg.Simulation.Trials)
	assert.Equal(t, int64(7), cfg.Simulation.Seed)
	assert.Equal(t, 9.0, cfg.Financial.WACCPct)
	// untouched keys keep defaults
	assert.Equal(t, 0.05, cfg.Simulation.TailFraction)
	assert.Len(t, cfg.Strategies, 3)
}

func TestLoad_RoundTripThroughMarshal(t *testing.T) {
	data, err := Marshal(Default())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().StrategyDefinitions(), cfg.StrategyDefinitions())
	assert.Equal(t, Default().ScenarioDefinitions(), cfg.ScenarioDefinitions())
}

func TestLoad_InvalidFileSurfacesField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation:\n  trials: -3\n"), 0o600))

	_, err := Load(path)
	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "simulation.trials", cfgErr.Field)
}

func TestApplyOverrides_RejectedWhenGateFails(t *testing.T) {
	wage := 20.0
	cfg := Default()

	out, applied, err := ApplyOverrides(cfg, Overrides{QualityGatePassed: false, HourlyWageEUR: &wage})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 13.90, out.Operations.HourlyWageEUR)
}

func TestApplyOverrides_AppliedWhenGatePasses(t *testing.T) {
	wage := 14.60
	climate := -27.5
	cfg := Default()

	out, applied, err := ApplyOverrides(cfg, Overrides{
		QualityGatePassed: true,
		HourlyWageEUR:     &wage,
		Scenarios: map[string]ScenarioOverride{
			domain.ScenarioBaseCase: {ConsumerClimate: &climate},
		},
	})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 14.60, out.Operations.HourlyWageEUR)
	assert.Equal(t, -27.5, out.Scenarios[0].ConsumerClimate)

	// source config untouched
	assert.Equal(t, 13.90, cfg.Operations.HourlyWageEUR)
	assert.Equal(t, -24.1, cfg.Scenarios[0].ConsumerClimate)
}

func TestApplyOverridesFile_InvalidValueKeepsLastKnownGood(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refresh.json")
	doc := `{"quality_gate_passed": true, "hourly_wage_eur": -1}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg := Default()
	out, applied, err := ApplyOverridesFile(cfg, path)
	require.Error(t, err)
	assert.False(t, applied)
	assert.Equal(t, cfg.Operations.HourlyWageEUR, out.Operations.HourlyWageEUR)
}

func TestClone_IsDeep(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.Strategies[2].SubsidySchedule[0] = 0
	clone.Scenarios[0].Name = "changed"
	clone.Financial.RolloutCumulativeUnits[0] = 99

	assert.Equal(t, 45.0, cfg.Strategies[2].SubsidySchedule[0])
	assert.Equal(t, domain.ScenarioBaseCase, cfg.Scenarios[0].Name)
	assert.Equal(t, 1, cfg.Financial.RolloutCumulativeUnits[0])
}

func TestHouseholdHurdle(t *testing.T) {
	cfg := Default()
	assert.InDelta(t, 2_000_000.0/450_000.0, cfg.HouseholdHurdleEUR(), 1e-12)
}
