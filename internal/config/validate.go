package config

import (
	"fmt"
	"math"

	"membership-entry-lab/internal/domain"
)

// Validate checks every parameter and returns the first violation.
// Field names follow the YAML paths so the offending key is easy to find.
// An empty scenario list or zero total weight is a *domain.DegenerateScenarioSetError;
// everything else is a *domain.ConfigurationError.
func (c Config) Validate() error {
	if err := c.validateSimulation(); err != nil {
		return err
	}
	if err := c.validateMarket(); err != nil {
		return err
	}
	if err := c.validateModel(); err != nil {
		return err
	}
	if err := c.validateFinancial(); err != nil {
		return err
	}
	if err := c.validateScenarios(); err != nil {
		return err
	}
	if err := c.validateStrategies(); err != nil {
		return err
	}
	if err := c.validateGate(); err != nil {
		return err
	}
	return c.validateSensitivity()
}

func (c Config) validateSimulation() error {
	s := c.Simulation
	if s.Trials <= 0 {
		return domain.NewConfigurationError("simulation.trials", "must be > 0, got %d", s.Trials)
	}
	if s.Workers < 0 {
		return domain.NewConfigurationError("simulation.workers", "must be >= 0, got %d", s.Workers)
	}
	if !(s.LowPercentile > 0 && s.LowPercentile < s.MidPercentile &&
		s.MidPercentile < s.HighPercentile && s.HighPercentile < 1) {
		return domain.NewConfigurationError("simulation.percentiles",
			"need 0 < low < mid < high < 1, got %v/%v/%v", s.LowPercentile, s.MidPercentile, s.HighPercentile)
	}
	if s.TailFraction <= 0 || s.TailFraction > 0.5 {
		return domain.NewConfigurationError("simulation.tail_fraction", "must be in (0, 0.5], got %v", s.TailFraction)
	}
	return nil
}

func (c Config) validateMarket() error {
	m := c.Market
	if m.AddressableHouseholds <= 0 {
		return domain.NewConfigurationError("market.addressable_households", "must be > 0, got %d", m.AddressableHouseholds)
	}
	if err := positive("market.spend_mean_eur", m.SpendMeanEUR); err != nil {
		return err
	}
	if err := positive("market.spend_sigma", m.SpendSigma); err != nil {
		return err
	}
	if err := positive("market.discount_half_width", m.DiscountHalfWidth); err != nil {
		return err
	}
	if m.DiscountFloor < 0 || m.DiscountFloor >= 1 {
		return domain.NewConfigurationError("market.discount_floor", "must be in [0, 1), got %v", m.DiscountFloor)
	}
	return finite("market.real_retail_growth_pct", m.RealRetailGrowthPct)
}

func (c Config) validateModel() error {
	for _, nv := range []namedValue{
		{"cultural.uncertainty_avoidance", c.Cultural.UncertaintyAvoidance},
		{"cultural.indulgence", c.Cultural.Indulgence},
		{"cultural.long_term_orientation", c.Cultural.LongTermOrientation},
	} {
		if math.IsNaN(nv.value) || nv.value < 0 || nv.value > 100 {
			return domain.NewConfigurationError(nv.field, "must be in [0, 100], got %v", nv.value)
		}
	}
	if c.Cultural.SavingsTrapMultiplier < 1 {
		return domain.NewConfigurationError("cultural.savings_trap_multiplier", "must be >= 1, got %v", c.Cultural.SavingsTrapMultiplier)
	}

	a := c.Adoption
	if err := positive("adoption.benefit_scale", a.BenefitScale); err != nil {
		return err
	}
	for _, nv := range []namedValue{
		{"adoption.info_cue_weight", a.InfoCueWeight},
		{"adoption.fee_sensitivity", a.FeeSensitivity},
		{"adoption.resistance_weight", a.ResistanceWeight},
		{"adoption.competitor_weight", a.CompetitorWeight},
		{"adoption.noise_sigma", a.NoiseSigma},
		{"adoption.resistance_jitter_sigma", a.ResistanceJitterSigma},
		{"competition.base_response_rate", c.Competition.BaseResponseRate},
		{"competition.fee_exposure_coeff", c.Competition.FeeExposureCoeff},
		{"competition.concentration_coeff", c.Competition.ConcentrationCoeff},
		{"competition.info_mitigation_coeff", c.Competition.InfoMitigationCoeff},
		{"competition.shock_sigma", c.Competition.ShockSigma},
		{"operations.hourly_wage_eur", c.Operations.HourlyWageEUR},
		{"operations.fixed_opex_eur", c.Operations.FixedOpexEUR},
		{"operations.hours_per_employee", c.Operations.HoursPerEmployee},
	} {
		if err := nonNegative(nv.field, nv.value); err != nil {
			return err
		}
	}
	if a.MinInfoCues < 0 || a.BaselineInfoCues < 0 {
		return domain.NewConfigurationError("adoption.info_cues", "cue counts must be >= 0")
	}
	if !(a.CueExposureMin > 0 && a.CueExposureMin < a.CueExposureMax) {
		return domain.NewConfigurationError("adoption.cue_exposure",
			"need 0 < min < max, got %v/%v", a.CueExposureMin, a.CueExposureMax)
	}
	if c.Competition.PenaltyCap <= 0 || c.Competition.PenaltyCap >= 1 {
		return domain.NewConfigurationError("competition.penalty_cap", "must be in (0, 1), got %v", c.Competition.PenaltyCap)
	}
	if c.Competition.Top4ConcentrationPct < 0 || c.Competition.Top4ConcentrationPct > 100 {
		return domain.NewConfigurationError("competition.top4_concentration_pct", "must be in [0, 100], got %v", c.Competition.Top4ConcentrationPct)
	}
	if c.Operations.Employees < 0 {
		return domain.NewConfigurationError("operations.employees", "must be >= 0, got %d", c.Operations.Employees)
	}
	if m := c.Operations.MerchandiseMarginPct; m < 0 || m > 100 {
		return domain.NewConfigurationError("operations.merchandise_margin_pct", "must be in [0, 100], got %v", m)
	}

	s := c.Scoring
	for _, nv := range []namedValue{
		{"scoring.volatility_penalty_weight", s.VolatilityPenaltyWeight},
		{"scoring.loss_penalty_weight", s.LossPenaltyWeight},
		{"scoring.loss_penalty_scale_eur", s.LossPenaltyScaleEUR},
		{"scoring.tail_penalty_weight", s.TailPenaltyWeight},
	} {
		if err := nonNegative(nv.field, nv.value); err != nil {
			return err
		}
	}
	if s.WeightTolerance <= 0 {
		return domain.NewConfigurationError("scoring.weight_tolerance", "must be > 0, got %v", s.WeightTolerance)
	}
	return nil
}

func (c Config) validateFinancial() error {
	f := c.Financial
	if f.WACCPct <= -100 || math.IsNaN(f.WACCPct) {
		return domain.NewConfigurationError("financial.wacc_pct", "must be > -100, got %v", f.WACCPct)
	}
	if err := finite("financial.terminal_growth_pct", f.TerminalGrowthPct); err != nil {
		return err
	}
	if err := nonNegative("financial.capex_per_unit_eur", f.CapexPerUnitEUR); err != nil {
		return err
	}
	if err := nonNegative("financial.maintenance_capex_pct", f.MaintenanceCapexPct); err != nil {
		return err
	}
	if n := len(f.RolloutCumulativeUnits); n != ValuationHorizonYears {
		return domain.NewConfigurationError("financial.rollout_cumulative_units",
			"must hold %d yearly entries, got %d", ValuationHorizonYears, n)
	}
	prev := 0
	for i, units := range f.RolloutCumulativeUnits {
		if units < prev {
			return domain.NewConfigurationError(fmt.Sprintf("financial.rollout_cumulative_units[%d]", i),
				"cumulative units must not decrease (%d after %d)", units, prev)
		}
		prev = units
	}
	return nonNegative("financial.unit_hurdle_eur", f.UnitHurdleEUR)
}

func (c Config) validateScenarios() error {
	if len(c.Scenarios) == 0 {
		return &domain.DegenerateScenarioSetError{Reason: "scenario list is empty"}
	}

	seen := make(map[string]struct{}, len(c.Scenarios))
	sum := 0.0
	for i, s := range c.Scenarios {
		prefix := fmt.Sprintf("scenarios[%d]", i)
		if s.Name == "" {
			return domain.NewConfigurationError(prefix+".name", "must not be empty")
		}
		if _, dup := seen[s.Name]; dup {
			return domain.NewConfigurationError(prefix+".name", "duplicate scenario %q", s.Name)
		}
		seen[s.Name] = struct{}{}

		if math.IsNaN(s.ProbabilityWeight) || s.ProbabilityWeight < 0 || s.ProbabilityWeight > 1 {
			return domain.NewConfigurationError(prefix+".probability_weight", "must be in (0, 1], got %v", s.ProbabilityWeight)
		}
		if err := positive(prefix+".income_multiplier", s.IncomeMultiplier); err != nil {
			return err
		}
		if err := positive(prefix+".cost_multiplier", s.CostMultiplier); err != nil {
			return err
		}
		for _, nv := range []namedValue{
			{".consumer_climate_index", s.ConsumerClimate},
			{".savings_rate_percent", s.SavingsRatePct},
			{".inflation_percent", s.InflationPct},
			{".discount_shift", s.DiscountShift},
			{".competition_uplift_pct", s.CompetitionUpliftPct},
		} {
			if err := finite(prefix+nv.field, nv.value); err != nil {
				return err
			}
		}
		sum += s.ProbabilityWeight
	}

	if sum == 0 {
		return &domain.DegenerateScenarioSetError{Reason: "scenario weights sum to zero"}
	}
	for i, s := range c.Scenarios {
		if s.ProbabilityWeight == 0 {
			return domain.NewConfigurationError(fmt.Sprintf("scenarios[%d].probability_weight", i), "must be in (0, 1], got 0")
		}
	}
	if math.Abs(sum-1) > c.Scoring.WeightTolerance {
		return domain.NewConfigurationError("scenarios.probability_weight", "weights must sum to 1, got %.12f", sum)
	}
	return nil
}

func (c Config) validateStrategies() error {
	if len(c.Strategies) == 0 {
		return domain.NewConfigurationError("strategies", "must not be empty")
	}

	seen := make(map[string]struct{}, len(c.Strategies))
	for i, s := range c.Strategies {
		prefix := fmt.Sprintf("strategies[%d]", i)
		if s.Name == "" {
			return domain.NewConfigurationError(prefix+".name", "must not be empty")
		}
		if _, dup := seen[s.Name]; dup {
			return domain.NewConfigurationError(prefix+".name", "duplicate strategy %q", s.Name)
		}
		seen[s.Name] = struct{}{}

		if err := nonNegative(prefix+".annual_fee", s.AnnualFeeEUR); err != nil {
			return err
		}
		if math.IsNaN(s.BulkDiscountRate) || s.BulkDiscountRate < 0 || s.BulkDiscountRate > 1 {
			return domain.NewConfigurationError(prefix+".bulk_discount_rate", "must be in [0, 1], got %v", s.BulkDiscountRate)
		}
		for y, sub := range s.SubsidySchedule {
			if err := nonNegative(fmt.Sprintf("%s.subsidy_schedule[%d]", prefix, y), sub); err != nil {
				return err
			}
		}
		if s.IncrementalInfoCues < 0 {
			return domain.NewConfigurationError(prefix+".incremental_info_cues", "must be >= 0, got %d", s.IncrementalInfoCues)
		}
	}
	return nil
}

func (c Config) validateGate() error {
	g := c.Gate
	if math.IsNaN(g.MaxWeightedProbLoss) || g.MaxWeightedProbLoss < 0 || g.MaxWeightedProbLoss > 1 {
		return domain.NewConfigurationError("gate.max_weighted_prob_loss", "must be in [0, 1], got %v", g.MaxWeightedProbLoss)
	}
	if !c.hasScenario(g.BaseScenario) {
		return domain.NewConfigurationError("gate.base_scenario", "unknown scenario %q", g.BaseScenario)
	}
	if !c.hasScenario(g.StressScenario) {
		return domain.NewConfigurationError("gate.stress_scenario", "unknown scenario %q", g.StressScenario)
	}
	return nil
}

func (c Config) hasScenario(name string) bool {
	for _, s := range c.Scenarios {
		if s.Name == name {
			return true
		}
	}
	return false
}

func (c Config) validateSensitivity() error {
	s := c.Sensitivity
	if err := nonNegative("sensitivity.grid_fee_min_eur", s.GridFeeMinEUR); err != nil {
		return err
	}
	if err := finite("sensitivity.grid_fee_max_eur", s.GridFeeMaxEUR); err != nil {
		return err
	}
	if s.GridFeeMaxEUR < s.GridFeeMinEUR {
		return domain.NewConfigurationError("sensitivity.grid_fee_max_eur", "must be >= grid_fee_min_eur, got %v", s.GridFeeMaxEUR)
	}
	if err := positive("sensitivity.grid_discount_min", s.GridDiscountMin); err != nil {
		return err
	}
	if math.IsNaN(s.GridDiscountMax) || s.GridDiscountMax < s.GridDiscountMin || s.GridDiscountMax > 1 {
		return domain.NewConfigurationError("sensitivity.grid_discount_max", "must be in [grid_discount_min, 1], got %v", s.GridDiscountMax)
	}
	if s.GridSteps < 2 {
		return domain.NewConfigurationError("sensitivity.grid_steps", "must be >= 2, got %d", s.GridSteps)
	}
	if s.TornadoTrials <= 0 {
		return domain.NewConfigurationError("sensitivity.tornado_trials", "must be > 0, got %d", s.TornadoTrials)
	}
	if math.IsNaN(s.TornadoShockPct) || s.TornadoShockPct <= 0 || s.TornadoShockPct >= 100 {
		return domain.NewConfigurationError("sensitivity.tornado_shock_pct", "must be in (0, 100), got %v", s.TornadoShockPct)
	}
	return nil
}

type namedValue struct {
	field string
	value float64
}

func finite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return domain.NewConfigurationError(field, "must be finite, got %v", v)
	}
	return nil
}

func nonNegative(field string, v float64) error {
	if err := finite(field, v); err != nil {
		return err
	}
	if v < 0 {
		return domain.NewConfigurationError(field, "must be >= 0, got %v", v)
	}
	return nil
}

func positive(field string, v float64) error {
	if err := finite(field, v); err != nil {
		return err
	}
	if v <= 0 {
		return domain.NewConfigurationError(field, "must be > 0, got %v", v)
	}
	return nil
}
