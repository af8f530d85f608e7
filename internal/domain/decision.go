package domain

// DecisionRow represents one strategy's cross-scenario result.
// Rank ordering is strictly by descending RiskAdjustedScore,
// ties broken by descending WeightedMeanContributionEUR.
type DecisionRow struct {
	RunID    string
	Rank     int
	Strategy string

	WeightedMeanContributionEUR float64
	WeightedProbLoss            float64
	WeightedCVaR5EUR            float64
	Volatility                  float64 // population std dev of scenario means
	RiskAdjustedScore           float64
}
