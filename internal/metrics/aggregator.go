// Package metrics reduces trial batches into scenario summaries.
package metrics

import (
	"context"
	"math"

	"membership-entry-lab/internal/config"
	"membership-entry-lab/internal/domain"
	"membership-entry-lab/internal/storage"
)

// Options holds the percentile and tail thresholds.
type Options struct {
	LowPercentile  float64
	MidPercentile  float64
	HighPercentile float64
	TailFraction   float64

	// HurdleEUR is the per-household contribution counted by ProbMeetHurdle.
	HurdleEUR float64
}

// OptionsFromConfig extracts aggregation thresholds.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		LowPercentile:  cfg.Simulation.LowPercentile,
		MidPercentile:  cfg.Simulation.MidPercentile,
		HighPercentile: cfg.Simulation.HighPercentile,
		TailFraction:   cfg.Simulation.TailFraction,
		HurdleEUR:      cfg.HouseholdHurdleEUR(),
	}
}

// Aggregator computes scenario summaries from trial batches.
type Aggregator struct {
	opts  Options
	store storage.ScenarioSummaryStore
}

// NewAggregator creates a new aggregator. store may be nil.
func NewAggregator(opts Options, store storage.ScenarioSummaryStore) *Aggregator {
	return &Aggregator{opts: opts, store: store}
}

// Aggregate computes the summary for one (scenario, strategy) batch.
// Returns *domain.EmptyBatchError for zero trials and
// *domain.NumericAnomalyError if any statistic is not finite.
func (a *Aggregator) Aggregate(scenario, strategy string, trials []domain.TrialResult) (*domain.ScenarioSummary, error) {
	if len(trials) == 0 {
		return nil, &domain.EmptyBatchError{Scenario: scenario, Strategy: strategy}
	}

	summary := computeFromTrials(trials, a.opts)
	summary.Scenario = scenario
	summary.Strategy = strategy

	if err := checkFinite(summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// AggregateAndStore computes and persists summaries of a run.
// Returns storage.ErrDuplicateKey if any summary already exists (append-only).
func (a *Aggregator) AggregateAndStore(ctx context.Context, runID string, batches []Batch) ([]*domain.ScenarioSummary, error) {
	summaries := make([]*domain.ScenarioSummary, 0, len(batches))
	for _, b := range batches {
		s, err := a.Aggregate(b.Scenario, b.Strategy, b.Trials)
		if err != nil {
			return nil, err
		}
		s.RunID = runID
		summaries = append(summaries, s)
	}

	if a.store != nil {
		if err := a.store.InsertBulk(ctx, summaries); err != nil {
			return nil, err
		}
	}
	return summaries, nil
}

// Batch is the trial output of one (scenario, strategy) pair.
type Batch struct {
	Scenario string
	Strategy string
	Trials   []domain.TrialResult
}

func checkFinite(s *domain.ScenarioSummary) error {
	for _, q := range []struct {
		name  string
		value float64
	}{
		{"mean_contribution", s.MeanContributionEUR},
		{"std_contribution", s.StdContributionEUR},
		{"p10_contribution", s.P10ContributionEUR},
		{"p50_contribution", s.P50ContributionEUR},
		{"p90_contribution", s.P90ContributionEUR},
		{"cvar5_contribution", s.CVaR5ContributionEUR},
		{"mean_break_even_monthly", s.MeanBreakEvenMonthlyEUR},
		{"mean_adoption_probability", s.MeanAdoptionProbability},
	} {
		if math.IsNaN(q.value) || math.IsInf(q.value, 0) {
			return &domain.NumericAnomalyError{Scenario: s.Scenario, Strategy: s.Strategy, Quantity: q.name, Value: q.value}
		}
	}
	return nil
}
