// Package verification replays stored runs and checks that every scenario
// summary is reproduced from the stored seed and trial count.
package verification

import (
	"context"
	"math"

	"membership-entry-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-9

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// VerificationResult contains the result of verifying one (scenario, strategy) pair.
type VerificationResult struct {
	Scenario        string
	Strategy        string
	Match           bool              // true if all fields match
	Divergences     []FieldDivergence // list of divergent fields
	StoredMeanEUR   float64
	ReplayedMeanEUR float64
}

// VerificationReport contains results for a whole run.
type VerificationReport struct {
	RunID          string
	TotalPairs     int                  // pairs verified
	MatchedPairs   int                  // pairs that matched
	DivergentPairs int                  // pairs with divergences or replay errors
	Results        []VerificationResult // individual results, scenario then strategy config order
}

// Match reports whether every pair matched.
func (r *VerificationReport) Match() bool {
	return r.TotalPairs > 0 && r.DivergentPairs == 0
}

// Verifier replays stored summaries.
type Verifier interface {
	// VerifyPair re-simulates one pair of a stored run and compares the summary.
	VerifyPair(ctx context.Context, runID, scenario, strategy string) (*VerificationResult, error)

	// VerifyRun verifies every configured pair of a stored run.
	VerifyRun(ctx context.Context, runID string) (*VerificationReport, error)
}

type summaryField struct {
	name string
	get  func(*domain.ScenarioSummary) float64
}

var summaryFields = []summaryField{
	{"MeanContributionEUR", func(s *domain.ScenarioSummary) float64 { return s.MeanContributionEUR }},
	{"StdContributionEUR", func(s *domain.ScenarioSummary) float64 { return s.StdContributionEUR }},
	{"P10ContributionEUR", func(s *domain.ScenarioSummary) float64 { return s.P10ContributionEUR }},
	{"P50ContributionEUR", func(s *domain.ScenarioSummary) float64 { return s.P50ContributionEUR }},
	{"P90ContributionEUR", func(s *domain.ScenarioSummary) float64 { return s.P90ContributionEUR }},
	{"CVaR5ContributionEUR", func(s *domain.ScenarioSummary) float64 { return s.CVaR5ContributionEUR }},
	{"ProbLoss", func(s *domain.ScenarioSummary) float64 { return s.ProbLoss }},
	{"ProbMeetHurdle", func(s *domain.ScenarioSummary) float64 { return s.ProbMeetHurdle }},
	{"MeanAdoptionRate", func(s *domain.ScenarioSummary) float64 { return s.MeanAdoptionRate }},
	{"MeanAdoptionProbability", func(s *domain.ScenarioSummary) float64 { return s.MeanAdoptionProbability }},
	{"MeanBreakEvenMonthlyEUR", func(s *domain.ScenarioSummary) float64 { return s.MeanBreakEvenMonthlyEUR }},
	{"MeanCompetitorPenalty", func(s *domain.ScenarioSummary) float64 { return s.MeanCompetitorPenalty }},
}

// CompareSummaries compares two summaries and returns divergences.
// Uses FloatTolerance for float64 comparisons.
func CompareSummaries(stored, replayed *domain.ScenarioSummary) []FieldDivergence {
	var divergences []FieldDivergence

	if stored.Scenario != replayed.Scenario {
		divergences = append(divergences, FieldDivergence{
			Field:    "Scenario",
			Expected: stored.Scenario,
			Actual:   replayed.Scenario,
		})
	}

	if stored.Strategy != replayed.Strategy {
		divergences = append(divergences, FieldDivergence{
			Field:    "Strategy",
			Expected: stored.Strategy,
			Actual:   replayed.Strategy,
		})
	}

	if stored.Trials != replayed.Trials {
		divergences = append(divergences, FieldDivergence{
			Field:    "Trials",
			Expected: stored.Trials,
			Actual:   replayed.Trials,
		})
	}

	for _, f := range summaryFields {
		a, b := f.get(stored), f.get(replayed)
		if !floatEquals(a, b) {
			divergences = append(divergences, FieldDivergence{
				Field:    f.name,
				Expected: a,
				Actual:   b,
			})
		}
	}

	return divergences
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
