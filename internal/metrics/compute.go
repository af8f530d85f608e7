package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"membership-entry-lab/internal/domain"
)

// tailEpsilon absorbs float error in tail*n before rounding up.
const tailEpsilon = 1e-9

// computeFromTrials calculates all statistics from a non-empty batch.
// Trials are sorted by Index ASC first so the result does not depend on
// the order a parallel producer delivered them in.
func computeFromTrials(trials []domain.TrialResult, opts Options) *domain.ScenarioSummary {
	n := len(trials)

	sortedTrials := make([]domain.TrialResult, n)
	copy(sortedTrials, trials)
	sort.SliceStable(sortedTrials, func(i, j int) bool {
		return sortedTrials[i].Index < sortedTrials[j].Index
	})

	contributions := make([]float64, n)
	breakEven := make([]float64, n)
	probabilities := make([]float64, n)
	penalties := make([]float64, n)
	adopted := 0
	for i, t := range sortedTrials {
		contributions[i] = t.ContributionEUR
		breakEven[i] = t.BreakEvenMonthlyEUR
		probabilities[i] = t.AdoptionProbability
		penalties[i] = t.CompetitorPenalty
		if t.Adopted {
			adopted++
		}
	}

	// Sort contributions for percentile and tail calculations
	sortedContributions := make([]float64, n)
	copy(sortedContributions, contributions)
	sort.Float64s(sortedContributions)

	return &domain.ScenarioSummary{
		Trials: n,

		MeanContributionEUR:  stat.Mean(contributions, nil),
		StdContributionEUR:   computeStddev(contributions),
		P10ContributionEUR:   computePercentile(sortedContributions, opts.LowPercentile),
		P50ContributionEUR:   computePercentile(sortedContributions, opts.MidPercentile),
		P90ContributionEUR:   computePercentile(sortedContributions, opts.HighPercentile),
		CVaR5ContributionEUR: computeCVaR(sortedContributions, opts.TailFraction),

		ProbLoss:       computeFraction(contributions, func(c float64) bool { return c < 0 }),
		ProbMeetHurdle: computeFraction(contributions, func(c float64) bool { return c >= opts.HurdleEUR }),

		MeanAdoptionRate:        float64(adopted) / float64(n),
		MeanAdoptionProbability: stat.Mean(probabilities, nil),
		MeanBreakEvenMonthlyEUR: stat.Mean(breakEven, nil),
		MeanCompetitorPenalty:   stat.Mean(penalties, nil),
	}
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64) float64 {
	if len(values) < 2 {
		return 0 // Need at least 2 samples for sample stddev
	}
	return stat.StdDev(values, nil)
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	// Index for percentile (0-based, continuous)
	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	// Linear interpolation
	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeCVaR returns the mean of the worst ceil(tail*n) values, at least one.
// sorted must be pre-sorted ASC.
func computeCVaR(sorted []float64, tail float64) float64 {
	k := tailCount(len(sorted), tail)
	if k == 0 {
		return 0
	}
	return floats.Sum(sorted[:k]) / float64(k)
}

// tailCount is the number of trials in the tail of an n-trial batch.
func tailCount(n int, tail float64) int {
	if n == 0 {
		return 0
	}
	k := int(math.Ceil(tail*float64(n) - tailEpsilon))
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}

// computeFraction returns count(pred) / n.
func computeFraction(values []float64, pred func(float64) bool) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if pred(v) {
			count++
		}
	}
	return float64(count) / float64(len(values))
}
