package domain

// TrialResult is one simulated household-period outcome for a (scenario, strategy) pair.
// Exists only within a simulation batch.
type TrialResult struct {
	Index               int
	Adopted             bool
	AdoptionProbability float64
	ContributionEUR     float64
	BreakEvenMonthlyEUR float64
	CompetitorPenalty   float64
}
