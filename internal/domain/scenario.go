package domain

// ScenarioDefinition represents a macro-environment variant with its probability weight.
// Loaded once per run from the parameter store and read-only afterwards.
type ScenarioDefinition struct {
	Name   string  // "base_case" | "downside_stress" | "upside_recovery" | custom
	Weight float64 // probability weight, (0,1]; weights across a run sum to 1

	// Macro multipliers applied to household income and to allocated costs.
	IncomeMultiplier float64
	CostMultiplier   float64

	// Macro indicators driving cultural resistance and break-even.
	ConsumerClimate float64 // consumer climate index (negative = pessimistic)
	SavingsRatePct  float64 // household savings rate, percent
	InflationPct    float64 // consumer price inflation, percent

	DiscountShift        float64 // additive shift of the bulk discount triangle
	CompetitionUpliftPct float64 // additive competitor response uplift, percent points
}

// Scenario name constants
const (
	ScenarioBaseCase       = "base_case"
	ScenarioDownsideStress = "downside_stress"
	ScenarioUpsideRecovery = "upside_recovery"
)

// Predefined scenario definitions calibrated for the German warehouse-club entry case.
var (
	ScenarioDefinitionBaseCase = ScenarioDefinition{
		Name:                 ScenarioBaseCase,
		Weight:               0.50,
		IncomeMultiplier:     1.00,
		CostMultiplier:       1.00,
		ConsumerClimate:      -24.1,
		SavingsRatePct:       20.0,
		InflationPct:         2.2,
		DiscountShift:        0,
		CompetitionUpliftPct: 0,
	}

	ScenarioDefinitionDownsideStress = ScenarioDefinition{
		Name:                 ScenarioDownsideStress,
		Weight:               0.30,
		IncomeMultiplier:     0.92,
		CostMultiplier:       1.06,
		ConsumerClimate:      -30.0,
		SavingsRatePct:       22.5,
		InflationPct:         3.5,
		DiscountShift:        -0.012,
		CompetitionUpliftPct: 1.0,
	}

	ScenarioDefinitionUpsideRecovery = ScenarioDefinition{
		Name:                 ScenarioUpsideRecovery,
		Weight:               0.20,
		IncomeMultiplier:     1.05,
		CostMultiplier:       0.98,
		ConsumerClimate:      -16.0,
		SavingsRatePct:       16.5,
		InflationPct:         1.8,
		DiscountShift:        0.008,
		CompetitionUpliftPct: -0.35,
	}
)

// DefaultScenarios returns the three calibrated scenarios in canonical order.
func DefaultScenarios() []ScenarioDefinition {
	return []ScenarioDefinition{
		ScenarioDefinitionBaseCase,
		ScenarioDefinitionDownsideStress,
		ScenarioDefinitionUpsideRecovery,
	}
}
