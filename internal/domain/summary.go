package domain

// ScenarioSummary represents aggregated statistics for one (scenario, strategy) pair.
// Derived deterministically from a batch of trials; immutable once computed.
type ScenarioSummary struct {
	RunID    string
	Scenario string
	Strategy string
	Trials   int

	// Contribution distribution (EUR per household)
	MeanContributionEUR  float64
	StdContributionEUR   float64 // sample (n-1)
	P10ContributionEUR   float64
	P50ContributionEUR   float64
	P90ContributionEUR   float64
	CVaR5ContributionEUR float64 // mean of the worst 5% of trials

	ProbLoss       float64 // fraction of trials with contribution < 0
	ProbMeetHurdle float64 // fraction of trials with contribution >= hurdle

	MeanAdoptionRate        float64 // realised: adopted / trials
	MeanAdoptionProbability float64 // model expectation
	MeanBreakEvenMonthlyEUR float64
	MeanCompetitorPenalty   float64
}
