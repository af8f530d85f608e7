package domain

// StrategyDefinition represents a membership fee/discount design being evaluated.
type StrategyDefinition struct {
	Name             string
	AnnualFeeEUR     float64   // list membership fee per year
	BulkDiscountRate float64   // mode of the realised bulk discount, [0,1]
	SubsidySchedule  []float64 // fee subsidy in EUR per year; index 0 is year 1

	// IncrementalInfoCues is the number of extra information cues
	// (price transparency, trial offers) on top of the baseline campaign.
	IncrementalInfoCues int
}

// Strategy name constants
const (
	StrategyStandard   = "standard_65"
	StrategyEntry      = "entry_35"
	StrategySubsidized = "subsidized_65_to_20"
)

// EffectiveFee returns the fee a member pays in the given year (1-based)
// after any subsidy. Never negative.
func (s StrategyDefinition) EffectiveFee(year int) float64 {
	fee := s.AnnualFeeEUR
	if year >= 1 && year <= len(s.SubsidySchedule) {
		fee -= s.SubsidySchedule[year-1]
	}
	if fee < 0 {
		return 0
	}
	return fee
}

// Predefined strategies.
var (
	StrategyDefinitionStandard = StrategyDefinition{
		Name:                StrategyStandard,
		AnnualFeeEUR:        65,
		BulkDiscountRate:    0.10,
		IncrementalInfoCues: 0,
	}

	StrategyDefinitionEntry = StrategyDefinition{
		Name:                StrategyEntry,
		AnnualFeeEUR:        35,
		BulkDiscountRate:    0.10,
		IncrementalInfoCues: 1,
	}

	StrategyDefinitionSubsidized = StrategyDefinition{
		Name:                StrategySubsidized,
		AnnualFeeEUR:        65,
		BulkDiscountRate:    0.10,
		SubsidySchedule:     []float64{45},
		IncrementalInfoCues: 2,
	}
)

// DefaultStrategies returns the three calibrated strategies in canonical order.
func DefaultStrategies() []StrategyDefinition {
	return []StrategyDefinition{
		StrategyDefinitionStandard,
		StrategyDefinitionEntry,
		StrategyDefinitionSubsidized,
	}
}
