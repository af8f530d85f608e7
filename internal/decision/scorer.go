// Package decision combines scenario summaries into risk-adjusted decision
// rows, ranks strategies and evaluates the GO/NO-GO recommendation gate.
package decision

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"membership-entry-lab/internal/config"
	"membership-entry-lab/internal/domain"
)

// ScoringOptions holds the composite score coefficients.
type ScoringOptions struct {
	VolatilityPenaltyWeight float64
	LossPenaltyWeight       float64
	LossPenaltyScaleEUR     float64
	TailPenaltyWeight       float64
	WeightTolerance         float64
}

// ScoringOptionsFromConfig extracts the score coefficients.
func ScoringOptionsFromConfig(cfg config.Config) ScoringOptions {
	s := cfg.Scoring
	return ScoringOptions{
		VolatilityPenaltyWeight: s.VolatilityPenaltyWeight,
		LossPenaltyWeight:       s.LossPenaltyWeight,
		LossPenaltyScaleEUR:     s.LossPenaltyScaleEUR,
		TailPenaltyWeight:       s.TailPenaltyWeight,
		WeightTolerance:         s.WeightTolerance,
	}
}

// Scorer computes cross-scenario decision rows.
type Scorer struct {
	opts ScoringOptions
}

// NewScorer creates a new scorer.
func NewScorer(opts ScoringOptions) *Scorer {
	return &Scorer{opts: opts}
}

// Score combines one strategy's scenario summaries (one per weighted scenario)
// into a DecisionRow. The returned row is unranked (Rank 0).
//
//	score = weighted_mean
//	      - volatility_weight * volatility
//	      - loss_weight * weighted_prob_loss * |loss_scale|
//	      - tail_weight * max(0, -weighted_cvar5)
//
// Returns *domain.DegenerateScenarioSetError if weights are empty, do not
// sum to one within tolerance, or do not match the summaries one to one.
func (s *Scorer) Score(strategy string, summaries []*domain.ScenarioSummary, weights map[string]float64) (*domain.DecisionRow, error) {
	if err := s.checkWeights(strategy, weights); err != nil {
		return nil, err
	}

	byScenario := make(map[string]*domain.ScenarioSummary, len(summaries))
	for _, sum := range summaries {
		if sum.Strategy != strategy {
			return nil, fmt.Errorf("score %s: summary belongs to strategy %s", strategy, sum.Strategy)
		}
		if _, dup := byScenario[sum.Scenario]; dup {
			return nil, &domain.DegenerateScenarioSetError{Strategy: strategy, Reason: fmt.Sprintf("duplicate summary for scenario %s", sum.Scenario)}
		}
		if _, ok := weights[sum.Scenario]; !ok {
			return nil, &domain.DegenerateScenarioSetError{Strategy: strategy, Reason: fmt.Sprintf("scenario %s has no weight", sum.Scenario)}
		}
		byScenario[sum.Scenario] = sum
	}

	// Sorted scenario order keeps the floating-point sums reproducible
	scenarios := make([]string, 0, len(weights))
	for name := range weights {
		scenarios = append(scenarios, name)
	}
	sort.Strings(scenarios)

	row := &domain.DecisionRow{Strategy: strategy}
	means := make([]float64, 0, len(scenarios))
	for _, name := range scenarios {
		sum, ok := byScenario[name]
		if !ok {
			return nil, &domain.DegenerateScenarioSetError{Strategy: strategy, Reason: fmt.Sprintf("missing summary for scenario %s", name)}
		}
		w := weights[name]
		row.RunID = sum.RunID
		row.WeightedMeanContributionEUR += w * sum.MeanContributionEUR
		row.WeightedProbLoss += w * sum.ProbLoss
		row.WeightedCVaR5EUR += w * sum.CVaR5ContributionEUR
		means = append(means, sum.MeanContributionEUR)
	}

	row.Volatility = Volatility(means)
	row.RiskAdjustedScore = s.riskAdjustedScore(row)

	if math.IsNaN(row.RiskAdjustedScore) || math.IsInf(row.RiskAdjustedScore, 0) {
		return nil, &domain.NumericAnomalyError{Strategy: strategy, Quantity: "risk_adjusted_score", Value: row.RiskAdjustedScore}
	}
	return row, nil
}

func (s *Scorer) riskAdjustedScore(row *domain.DecisionRow) float64 {
	o := s.opts
	return row.WeightedMeanContributionEUR -
		o.VolatilityPenaltyWeight*row.Volatility -
		o.LossPenaltyWeight*row.WeightedProbLoss*math.Abs(o.LossPenaltyScaleEUR) -
		o.TailPenaltyWeight*math.Max(0, -row.WeightedCVaR5EUR)
}

func (s *Scorer) checkWeights(strategy string, weights map[string]float64) error {
	if len(weights) == 0 {
		return &domain.DegenerateScenarioSetError{Strategy: strategy, Reason: "scenario list is empty"}
	}

	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	total := 0.0
	for _, name := range names {
		total += weights[name]
	}
	if total == 0 {
		return &domain.DegenerateScenarioSetError{Strategy: strategy, Reason: "scenario weights sum to zero"}
	}
	if math.IsNaN(total) || math.Abs(total-1) > s.opts.WeightTolerance {
		return &domain.DegenerateScenarioSetError{Strategy: strategy, Reason: fmt.Sprintf("scenario weights sum to %.12f, want 1", total)}
	}
	return nil
}

// Volatility is the population standard deviation of scenario means.
// Zero for fewer than two scenarios.
func Volatility(means []float64) float64 {
	if len(means) < 2 {
		return 0
	}
	return stat.PopStdDev(means, nil)
}

// ScoreAll scores every strategy present in summaries and returns the ranked
// decision matrix.
func (s *Scorer) ScoreAll(summaries []*domain.ScenarioSummary, weights map[string]float64) ([]*domain.DecisionRow, error) {
	byStrategy := make(map[string][]*domain.ScenarioSummary)
	var order []string
	for _, sum := range summaries {
		if _, seen := byStrategy[sum.Strategy]; !seen {
			order = append(order, sum.Strategy)
		}
		byStrategy[sum.Strategy] = append(byStrategy[sum.Strategy], sum)
	}
	if len(order) == 0 {
		return nil, &domain.DegenerateScenarioSetError{Reason: "no scenario summaries to score"}
	}

	rows := make([]*domain.DecisionRow, 0, len(order))
	for _, strategy := range order {
		row, err := s.Score(strategy, byStrategy[strategy], weights)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return Rank(rows), nil
}

// Rank returns a copy of rows ordered by descending risk-adjusted score,
// then descending weighted mean contribution, then strategy name, with
// Rank set to 1..n. The input is not modified.
func Rank(rows []*domain.DecisionRow) []*domain.DecisionRow {
	ranked := make([]*domain.DecisionRow, len(rows))
	for i, r := range rows {
		rowCopy := *r
		ranked[i] = &rowCopy
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.RiskAdjustedScore != b.RiskAdjustedScore {
			return a.RiskAdjustedScore > b.RiskAdjustedScore
		}
		if a.WeightedMeanContributionEUR != b.WeightedMeanContributionEUR {
			return a.WeightedMeanContributionEUR > b.WeightedMeanContributionEUR
		}
		return a.Strategy < b.Strategy
	})

	for i, r := range ranked {
		r.Rank = i + 1
	}
	return ranked
}
