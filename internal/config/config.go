// Package config provides the immutable parameter set for an engine run.
// It supports loading from YAML files, gated JSON refresh overrides and
// environment variables for infrastructure settings.
package config

import "membership-entry-lab/internal/domain"

// Config contains every parameter the engine reads. A validated Config is
// treated as read-only and passed by value into component constructors.
type Config struct {
	Simulation  SimulationConfig  `json:"simulation" yaml:"simulation"`
	Market      MarketConfig      `json:"market" yaml:"market"`
	Cultural    CulturalConfig    `json:"cultural" yaml:"cultural"`
	Adoption    AdoptionConfig    `json:"adoption" yaml:"adoption"`
	Competition CompetitionConfig `json:"competition" yaml:"competition"`
	Operations  OperationsConfig  `json:"operations" yaml:"operations"`
	Financial   FinancialConfig   `json:"financial" yaml:"financial"`
	Scoring     ScoringConfig     `json:"scoring" yaml:"scoring"`
	Gate        GateConfig        `json:"gate" yaml:"gate"`
	Sensitivity SensitivityConfig `json:"sensitivity" yaml:"sensitivity"`

	Scenarios  []ScenarioConfig `json:"scenarios" yaml:"scenarios"`
	Strategies []StrategyConfig `json:"strategies" yaml:"strategies"`
}

// SimulationConfig controls the Monte Carlo batch.
type SimulationConfig struct {
	// Trials is the number of household trials per (scenario, strategy) pair.
	Trials int `json:"trials" yaml:"trials"`

	// Seed is the base seed; per-trial sub-seeds derive from it.
	Seed int64 `json:"seed" yaml:"seed"`

	// Workers bounds parallel (scenario, strategy) batches. 0 uses GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`

	LowPercentile  float64 `json:"low_percentile" yaml:"low_percentile"`
	MidPercentile  float64 `json:"mid_percentile" yaml:"mid_percentile"`
	HighPercentile float64 `json:"high_percentile" yaml:"high_percentile"`

	// TailFraction is the CVaR tail (0.05 = worst 5% of trials).
	TailFraction float64 `json:"tail_fraction" yaml:"tail_fraction"`
}

// MarketConfig describes the addressable household base.
type MarketConfig struct {
	AddressableHouseholds int     `json:"addressable_households" yaml:"addressable_households"`
	SpendMeanEUR          float64 `json:"spend_mean_eur" yaml:"spend_mean_eur"`
	SpendSigma            float64 `json:"spend_sigma" yaml:"spend_sigma"`

	// DiscountHalfWidth spreads the realised discount triangle around
	// the strategy's bulk discount rate.
	DiscountHalfWidth float64 `json:"discount_half_width" yaml:"discount_half_width"`
	DiscountFloor     float64 `json:"discount_floor" yaml:"discount_floor"`

	RealRetailGrowthPct float64 `json:"real_retail_growth_pct" yaml:"real_retail_growth_pct"`
}

// CulturalConfig holds Hofstede-style indices (0-100).
type CulturalConfig struct {
	UncertaintyAvoidance float64 `json:"uncertainty_avoidance" yaml:"uncertainty_avoidance"`
	Indulgence           float64 `json:"indulgence" yaml:"indulgence"`
	LongTermOrientation  float64 `json:"long_term_orientation" yaml:"long_term_orientation"`

	// Savings trap: resistance is multiplied when climate is below the
	// threshold and the savings rate is above its threshold.
	SavingsTrapClimate    float64 `json:"savings_trap_climate" yaml:"savings_trap_climate"`
	SavingsTrapSavingsPct float64 `json:"savings_trap_savings_pct" yaml:"savings_trap_savings_pct"`
	SavingsTrapMultiplier float64 `json:"savings_trap_multiplier" yaml:"savings_trap_multiplier"`
}

// AdoptionConfig holds the logistic adoption calibration.
type AdoptionConfig struct {
	BenefitScale     float64 `json:"benefit_scale" yaml:"benefit_scale"`
	InfoCueWeight    float64 `json:"info_cue_weight" yaml:"info_cue_weight"`
	MinInfoCues      int     `json:"min_info_cues" yaml:"min_info_cues"`
	BaselineInfoCues int     `json:"baseline_info_cues" yaml:"baseline_info_cues"`
	FeeSensitivity   float64 `json:"fee_sensitivity" yaml:"fee_sensitivity"`
	ResistanceWeight float64 `json:"resistance_weight" yaml:"resistance_weight"`
	CompetitorWeight float64 `json:"competitor_weight" yaml:"competitor_weight"`

	NoiseSigma            float64 `json:"noise_sigma" yaml:"noise_sigma"`
	ResistanceJitterSigma float64 `json:"resistance_jitter_sigma" yaml:"resistance_jitter_sigma"`
	CueExposureMin        float64 `json:"cue_exposure_min" yaml:"cue_exposure_min"`
	CueExposureMax        float64 `json:"cue_exposure_max" yaml:"cue_exposure_max"`
}

// CompetitionConfig holds the incumbent response model. Rates are fractions.
type CompetitionConfig struct {
	Top4ConcentrationPct float64 `json:"top4_concentration_pct" yaml:"top4_concentration_pct"`
	BaseResponseRate     float64 `json:"base_response_rate" yaml:"base_response_rate"`
	FeeExposureThreshold float64 `json:"fee_exposure_threshold_eur" yaml:"fee_exposure_threshold_eur"`
	FeeExposureCoeff     float64 `json:"fee_exposure_coeff" yaml:"fee_exposure_coeff"`
	ConcentrationCoeff   float64 `json:"concentration_coeff" yaml:"concentration_coeff"`
	InfoMitigationCoeff  float64 `json:"info_mitigation_coeff" yaml:"info_mitigation_coeff"`
	ShockSigma           float64 `json:"shock_sigma" yaml:"shock_sigma"`
	PenaltyCap           float64 `json:"penalty_cap" yaml:"penalty_cap"`
}

// OperationsConfig holds per-unit cost assumptions.
type OperationsConfig struct {
	Employees            int     `json:"employees" yaml:"employees"`
	HoursPerEmployee     float64 `json:"hours_per_employee" yaml:"hours_per_employee"`
	HourlyWageEUR        float64 `json:"hourly_wage_eur" yaml:"hourly_wage_eur"`
	FixedOpexEUR         float64 `json:"fixed_opex_eur" yaml:"fixed_opex_eur"`
	MerchandiseMarginPct float64 `json:"merchandise_margin_pct" yaml:"merchandise_margin_pct"`
}

// ValuationHorizonYears is the length of the cash-flow projection.
const ValuationHorizonYears = 5

// FinancialConfig holds capital assumptions for the valuation projector.
type FinancialConfig struct {
	WACCPct             float64 `json:"wacc_pct" yaml:"wacc_pct"`
	TerminalGrowthPct   float64 `json:"terminal_growth_pct" yaml:"terminal_growth_pct"`
	CapexPerUnitEUR     float64 `json:"capex_per_unit_eur" yaml:"capex_per_unit_eur"`
	MaintenanceCapexPct float64 `json:"maintenance_capex_pct" yaml:"maintenance_capex_pct"`

	// RolloutCumulativeUnits is the number of units open at the end of each
	// year; it must hold exactly ValuationHorizonYears entries.
	RolloutCumulativeUnits []int `json:"rollout_cumulative_units" yaml:"rollout_cumulative_units"`

	IncludeTerminalValue bool `json:"include_terminal_value" yaml:"include_terminal_value"`

	// UnitHurdleEUR is the minimum yearly contribution per unit.
	UnitHurdleEUR float64 `json:"unit_hurdle_eur" yaml:"unit_hurdle_eur"`
}

// ScoringConfig holds the risk-adjusted score coefficients.
type ScoringConfig struct {
	VolatilityPenaltyWeight float64 `json:"volatility_penalty_weight" yaml:"volatility_penalty_weight"`
	LossPenaltyWeight       float64 `json:"loss_penalty_weight" yaml:"loss_penalty_weight"`
	LossPenaltyScaleEUR     float64 `json:"loss_penalty_scale_eur" yaml:"loss_penalty_scale_eur"`
	TailPenaltyWeight       float64 `json:"tail_penalty_weight" yaml:"tail_penalty_weight"`
	WeightTolerance         float64 `json:"weight_tolerance" yaml:"weight_tolerance"`
}

// GateConfig holds the recommendation gate thresholds.
type GateConfig struct {
	StressScenario string `json:"stress_scenario" yaml:"stress_scenario"`
	BaseScenario   string `json:"base_scenario" yaml:"base_scenario"`

	// MaxWeightedProbLoss caps the weighted loss probability of a GO strategy.
	MaxWeightedProbLoss float64 `json:"max_weighted_prob_loss" yaml:"max_weighted_prob_loss"`
}

// SensitivityConfig controls the break-even grid and the tornado analysis.
type SensitivityConfig struct {
	GridFeeMinEUR   float64 `json:"grid_fee_min_eur" yaml:"grid_fee_min_eur"`
	GridFeeMaxEUR   float64 `json:"grid_fee_max_eur" yaml:"grid_fee_max_eur"`
	GridDiscountMin float64 `json:"grid_discount_min" yaml:"grid_discount_min"`
	GridDiscountMax float64 `json:"grid_discount_max" yaml:"grid_discount_max"`
	GridSteps       int     `json:"grid_steps" yaml:"grid_steps"`

	// TornadoTrials is the reduced batch size for one-at-a-time perturbations.
	TornadoTrials   int     `json:"tornado_trials" yaml:"tornado_trials"`
	TornadoShockPct float64 `json:"tornado_shock_pct" yaml:"tornado_shock_pct"`
}

// ScenarioConfig is the parameter-store shape of a scenario.
type ScenarioConfig struct {
	Name                 string  `json:"name" yaml:"name"`
	ProbabilityWeight    float64 `json:"probability_weight" yaml:"probability_weight"`
	IncomeMultiplier     float64 `json:"income_multiplier" yaml:"income_multiplier"`
	CostMultiplier       float64 `json:"cost_multiplier" yaml:"cost_multiplier"`
	ConsumerClimate      float64 `json:"consumer_climate_index" yaml:"consumer_climate_index"`
	SavingsRatePct       float64 `json:"savings_rate_percent" yaml:"savings_rate_percent"`
	InflationPct         float64 `json:"inflation_percent" yaml:"inflation_percent"`
	DiscountShift        float64 `json:"discount_shift" yaml:"discount_shift"`
	CompetitionUpliftPct float64 `json:"competition_uplift_pct" yaml:"competition_uplift_pct"`
}

// StrategyConfig is the parameter-store shape of a strategy.
type StrategyConfig struct {
	Name                string    `json:"name" yaml:"name"`
	AnnualFeeEUR        float64   `json:"annual_fee" yaml:"annual_fee"`
	BulkDiscountRate    float64   `json:"bulk_discount_rate" yaml:"bulk_discount_rate"`
	SubsidySchedule     []float64 `json:"subsidy_schedule,omitempty" yaml:"subsidy_schedule,omitempty"`
	IncrementalInfoCues int       `json:"incremental_info_cues" yaml:"incremental_info_cues"`
}

// Default returns the calibrated parameter set.
func Default() Config {
	cfg := Config{
		Simulation: SimulationConfig{
			Trials:         4000,
			Seed:           42,
			LowPercentile:  0.10,
			MidPercentile:  0.50,
			HighPercentile: 0.90,
			TailFraction:   0.05,
		},
		Market: MarketConfig{
			AddressableHouseholds: 450000,
			SpendMeanEUR:          4800,
			SpendSigma:            0.55,
			DiscountHalfWidth:     0.04,
			DiscountFloor:         0.02,
			RealRetailGrowthPct:   2.7,
		},
		Cultural: CulturalConfig{
			UncertaintyAvoidance:  65,
			Indulgence:            40,
			LongTermOrientation:   83,
			SavingsTrapClimate:    -20,
			SavingsTrapSavingsPct: 15,
			SavingsTrapMultiplier: 1.5,
		},
		Adoption: AdoptionConfig{
			BenefitScale:          220,
			InfoCueWeight:         0.18,
			MinInfoCues:           7,
			BaselineInfoCues:      5,
			FeeSensitivity:        0.018,
			ResistanceWeight:      0.85,
			CompetitorWeight:      8.0,
			NoiseSigma:            0.06,
			ResistanceJitterSigma: 0.05,
			CueExposureMin:        0.8,
			CueExposureMax:        1.2,
		},
		Competition: CompetitionConfig{
			Top4ConcentrationPct: 85,
			BaseResponseRate:     0.012,
			FeeExposureThreshold: 35,
			FeeExposureCoeff:     0.02,
			ConcentrationCoeff:   0.002,
			InfoMitigationCoeff:  0.0015,
			ShockSigma:           0.007,
			PenaltyCap:           0.08,
		},
		Operations: OperationsConfig{
			Employees:            260,
			HoursPerEmployee:     1780,
			HourlyWageEUR:        13.90,
			FixedOpexEUR:         7_500_000,
			MerchandiseMarginPct: 12.5,
		},
		Financial: FinancialConfig{
			WACCPct:                8.5,
			TerminalGrowthPct:      1.5,
			CapexPerUnitEUR:        55_000_000,
			MaintenanceCapexPct:    8,
			RolloutCumulativeUnits: []int{1, 2, 4, 6, 8},
			IncludeTerminalValue:   true,
			UnitHurdleEUR:          2_000_000,
		},
		Scoring: ScoringConfig{
			VolatilityPenaltyWeight: 0.4,
			LossPenaltyWeight:       1.0,
			LossPenaltyScaleEUR:     5.5,
			TailPenaltyWeight:       0.2,
			WeightTolerance:         1e-9,
		},
		Gate: GateConfig{
			BaseScenario:        domain.ScenarioBaseCase,
			StressScenario:      domain.ScenarioDownsideStress,
			MaxWeightedProbLoss: 0.9,
		},
		Sensitivity: SensitivityConfig{
			GridFeeMinEUR:   20,
			GridFeeMaxEUR:   120,
			GridDiscountMin: 0.04,
			GridDiscountMax: 0.16,
			GridSteps:       20,
			TornadoTrials:   1000,
			TornadoShockPct: 15,
		},
	}

	for _, s := range domain.DefaultScenarios() {
		cfg.Scenarios = append(cfg.Scenarios, scenarioConfigFrom(s))
	}
	for _, s := range domain.DefaultStrategies() {
		cfg.Strategies = append(cfg.Strategies, strategyConfigFrom(s))
	}
	return cfg
}

// ScenarioDefinitions converts the configured scenarios to domain definitions,
// preserving order.
func (c Config) ScenarioDefinitions() []domain.ScenarioDefinition {
	out := make([]domain.ScenarioDefinition, len(c.Scenarios))
	for i, s := range c.Scenarios {
		out[i] = domain.ScenarioDefinition{
			Name:                 s.Name,
			Weight:               s.ProbabilityWeight,
			IncomeMultiplier:     s.IncomeMultiplier,
			CostMultiplier:       s.CostMultiplier,
			ConsumerClimate:      s.ConsumerClimate,
			SavingsRatePct:       s.SavingsRatePct,
			InflationPct:         s.InflationPct,
			DiscountShift:        s.DiscountShift,
			CompetitionUpliftPct: s.CompetitionUpliftPct,
		}
	}
	return out
}

// StrategyDefinitions converts the configured strategies to domain definitions,
// preserving order.
func (c Config) StrategyDefinitions() []domain.StrategyDefinition {
	out := make([]domain.StrategyDefinition, len(c.Strategies))
	for i, s := range c.Strategies {
		var subsidy []float64
		if len(s.SubsidySchedule) > 0 {
			subsidy = append([]float64(nil), s.SubsidySchedule...)
		}
		out[i] = domain.StrategyDefinition{
			Name:                s.Name,
			AnnualFeeEUR:        s.AnnualFeeEUR,
			BulkDiscountRate:    s.BulkDiscountRate,
			SubsidySchedule:     subsidy,
			IncrementalInfoCues: s.IncrementalInfoCues,
		}
	}
	return out
}

// ScenarioWeights returns the probability weight per scenario name.
func (c Config) ScenarioWeights() map[string]float64 {
	weights := make(map[string]float64, len(c.Scenarios))
	for _, s := range c.Scenarios {
		weights[s.Name] = s.ProbabilityWeight
	}
	return weights
}

// Clone returns a deep copy so callers can derive perturbed variants.
func (c Config) Clone() Config {
	out := c
	out.Scenarios = append([]ScenarioConfig(nil), c.Scenarios...)
	out.Strategies = make([]StrategyConfig, len(c.Strategies))
	for i, s := range c.Strategies {
		s.SubsidySchedule = append([]float64(nil), s.SubsidySchedule...)
		out.Strategies[i] = s
	}
	out.Financial.RolloutCumulativeUnits = append([]int(nil), c.Financial.RolloutCumulativeUnits...)
	return out
}

// LaborCostPerUnitEUR is the yearly labor cost of one unit.
func (c Config) LaborCostPerUnitEUR() float64 {
	return c.Operations.HourlyWageEUR * float64(c.Operations.Employees) * c.Operations.HoursPerEmployee
}

// HouseholdHurdleEUR is the unit hurdle expressed per addressable household.
func (c Config) HouseholdHurdleEUR() float64 {
	if c.Market.AddressableHouseholds <= 0 {
		return 0
	}
	return c.Financial.UnitHurdleEUR / float64(c.Market.AddressableHouseholds)
}

func scenarioConfigFrom(s domain.ScenarioDefinition) ScenarioConfig {
	return ScenarioConfig{
		Name:                 s.Name,
		ProbabilityWeight:    s.Weight,
		IncomeMultiplier:     s.IncomeMultiplier,
		CostMultiplier:       s.CostMultiplier,
		ConsumerClimate:      s.ConsumerClimate,
		SavingsRatePct:       s.SavingsRatePct,
		InflationPct:         s.InflationPct,
		DiscountShift:        s.DiscountShift,
		CompetitionUpliftPct: s.CompetitionUpliftPct,
	}
}

func strategyConfigFrom(s domain.StrategyDefinition) StrategyConfig {
	return StrategyConfig{
		Name:                s.Name,
		AnnualFeeEUR:        s.AnnualFeeEUR,
		BulkDiscountRate:    s.BulkDiscountRate,
		SubsidySchedule:     append([]float64(nil), s.SubsidySchedule...),
		IncrementalInfoCues: s.IncrementalInfoCues,
	}
}
