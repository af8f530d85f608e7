package decision

// Decision represents the final GO/NO-GO result.
type Decision string

const (
	DecisionGO   Decision = "GO"
	DecisionNOGO Decision = "NO-GO"
)

// GateInput contains the numbers the recommendation gate looks at for the
// top-ranked strategy.
type GateInput struct {
	Strategy string

	// Decision matrix row
	RiskAdjustedScore           float64
	WeightedMeanContributionEUR float64
	WeightedProbLoss            float64

	// Valuation
	NPVEUR       float64
	PaybackYear  int // NoPayback (-1) if none within horizon
	HorizonYears int

	// Scenario means (EUR per household)
	BaseScenario   string
	BaseMeanEUR    float64
	StressScenario string
	StressMeanEUR  float64

	// Thresholds
	HouseholdHurdleEUR  float64
	MaxWeightedProbLoss float64
}

// CriterionResult represents pass/fail for one criterion.
type CriterionResult struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// DecisionResult contains the final decision with checklist.
type DecisionResult struct {
	Strategy   string
	Decision   Decision
	GOCriteria []CriterionResult // 5 GO criteria
	NOGOChecks []CriterionResult // 3 NO-GO triggers
}
