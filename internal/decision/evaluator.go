package decision

import (
	"fmt"

	"membership-entry-lab/internal/domain"
)

// Evaluator evaluates the recommendation gate.
type Evaluator struct{}

// NewEvaluator creates a new gate evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate produces DecisionResult from GateInput.
// GO if ALL criteria pass and NO NO-GO triggers.
// NO-GO if ANY criterion fails or ANY trigger fires.
func (e *Evaluator) Evaluate(input GateInput) *DecisionResult {
	goCriteria := e.evaluateGOCriteria(input)
	nogoChecks := e.evaluateNOGOTriggers(input)

	decision := DecisionGO
	for _, c := range append(append([]CriterionResult(nil), goCriteria...), nogoChecks...) {
		if !c.Pass {
			decision = DecisionNOGO
			break
		}
	}

	return &DecisionResult{
		Strategy:   input.Strategy,
		Decision:   decision,
		GOCriteria: goCriteria,
		NOGOChecks: nogoChecks,
	}
}

// evaluateGOCriteria evaluates the 5 GO criteria.
func (e *Evaluator) evaluateGOCriteria(input GateInput) []CriterionResult {
	criteria := make([]CriterionResult, 5)

	// 1. Risk-adjusted score > 0
	criteria[0] = CriterionResult{
		Name:      "Risk-adjusted score",
		Threshold: "> 0",
		Actual:    fmt.Sprintf("%.4f", input.RiskAdjustedScore),
		Pass:      input.RiskAdjustedScore > 0,
	}

	// 2. NPV >= 0
	criteria[1] = CriterionResult{
		Name:      "NPV",
		Threshold: ">= 0 EUR",
		Actual:    fmt.Sprintf("%.0f EUR", input.NPVEUR),
		Pass:      input.NPVEUR >= 0,
	}

	// 3. Payback within horizon
	paybackActual := "none"
	if input.PaybackYear != domain.NoPayback {
		paybackActual = fmt.Sprintf("year %d", input.PaybackYear)
	}
	criteria[2] = CriterionResult{
		Name:      "Payback within horizon",
		Threshold: fmt.Sprintf("1..%d", input.HorizonYears),
		Actual:    paybackActual,
		Pass:      input.PaybackYear >= 1 && input.PaybackYear <= input.HorizonYears,
	}

	// 4. Base-case mean contribution meets the household hurdle
	criteria[3] = CriterionResult{
		Name:      fmt.Sprintf("Mean contribution (%s)", input.BaseScenario),
		Threshold: fmt.Sprintf(">= %.4f EUR", input.HouseholdHurdleEUR),
		Actual:    fmt.Sprintf("%.4f EUR", input.BaseMeanEUR),
		Pass:      input.BaseMeanEUR >= input.HouseholdHurdleEUR,
	}

	// 5. Weighted loss probability under cap
	criteria[4] = CriterionResult{
		Name:      "Weighted loss probability",
		Threshold: fmt.Sprintf("<= %.2f", input.MaxWeightedProbLoss),
		Actual:    fmt.Sprintf("%.4f", input.WeightedProbLoss),
		Pass:      input.WeightedProbLoss <= input.MaxWeightedProbLoss,
	}

	return criteria
}

// evaluateNOGOTriggers evaluates the 3 NO-GO triggers.
// Pass=true means NOT triggered, Pass=false means triggered.
func (e *Evaluator) evaluateNOGOTriggers(input GateInput) []CriterionResult {
	checks := make([]CriterionResult, 3)

	// 1. Negative expected contribution across scenarios
	checks[0] = CriterionResult{
		Name:      "Negative weighted mean",
		Threshold: "<= 0",
		Actual:    fmt.Sprintf("%.4f EUR", input.WeightedMeanContributionEUR),
		Pass:      input.WeightedMeanContributionEUR > 0,
	}

	// 2. Edge disappears under stress
	triggered := input.BaseMeanEUR > 0 && input.StressMeanEUR <= 0
	checks[1] = CriterionResult{
		Name:      "Edge disappears under stress",
		Threshold: fmt.Sprintf("%s > 0 AND %s <= 0", input.BaseScenario, input.StressScenario),
		Actual:    fmt.Sprintf("base=%.4f, stress=%.4f", input.BaseMeanEUR, input.StressMeanEUR),
		Pass:      !triggered,
	}

	// 3. Capital never recovered
	checks[2] = CriterionResult{
		Name:      "No payback",
		Threshold: fmt.Sprintf("payback_year == %d", domain.NoPayback),
		Actual:    fmt.Sprintf("%d", input.PaybackYear),
		Pass:      input.PaybackYear != domain.NoPayback,
	}

	return checks
}
