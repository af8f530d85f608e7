package verification

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"membership-entry-lab/internal/config"
	"membership-entry-lab/internal/domain"
	"membership-entry-lab/internal/idhash"
	"membership-entry-lab/internal/metrics"
	"membership-entry-lab/internal/simulation"
	"membership-entry-lab/internal/storage"
)

var (
	// ErrSummaryNotFound is returned when the run has no summary for a pair.
	ErrSummaryNotFound = errors.New("scenario summary not found")

	// ErrUnknownPair is returned when a scenario or strategy is not configured.
	ErrUnknownPair = errors.New("scenario or strategy not configured")

	// ErrConfigMismatch is returned when the parameter set does not hash to the run ID.
	ErrConfigMismatch = errors.New("config does not reproduce run id")
)

// ReplayVerifier implements Verifier interface.
type ReplayVerifier struct {
	cfg          config.Config
	runStore     storage.RunStore
	summaryStore storage.ScenarioSummaryStore
	log          zerolog.Logger
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
type ReplayVerifierOptions struct {
	// Config is the parameter set the run was produced with.
	Config       config.Config
	RunStore     storage.RunStore
	SummaryStore storage.ScenarioSummaryStore
	Logger       zerolog.Logger
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	return &ReplayVerifier{
		cfg:          opts.Config,
		runStore:     opts.RunStore,
		summaryStore: opts.SummaryStore,
		log:          opts.Logger.With().Str("component", "verification").Logger(),
	}
}

// VerifyPair re-simulates one pair and compares it with the stored summary.
func (v *ReplayVerifier) VerifyPair(ctx context.Context, runID, scenario, strategy string) (*VerificationResult, error) {
	// 1. Load stored summary
	stored, err := v.summaryStore.GetByKey(ctx, runID, scenario, strategy)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrSummaryNotFound, scenario, strategy)
		}
		return nil, err
	}

	// 2. Replay simulation
	replayed, err := v.replay(ctx, scenario, strategy)
	if err != nil {
		return nil, err
	}
	replayed.RunID = runID

	// 3. Compare results
	divergences := CompareSummaries(stored, replayed)

	return &VerificationResult{
		Scenario:        scenario,
		Strategy:        strategy,
		Match:           len(divergences) == 0,
		Divergences:     divergences,
		StoredMeanEUR:   stored.MeanContributionEUR,
		ReplayedMeanEUR: replayed.MeanContributionEUR,
	}, nil
}

// VerifyRun verifies every configured pair of a stored run. The run's
// stored seed and trial count override the config; the resulting parameter
// set must hash to runID.
func (v *ReplayVerifier) VerifyRun(ctx context.Context, runID string) (*VerificationReport, error) {
	run, err := v.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	pinned := *v
	pinned.cfg = v.cfg.Clone()
	pinned.cfg.Simulation.Seed = run.Seed
	pinned.cfg.Simulation.Trials = run.Trials
	computed, err := idhash.ComputeRunID(pinned.cfg)
	if err != nil {
		return nil, err
	}
	if computed != runID {
		return nil, fmt.Errorf("%w: computed %s, stored %s", ErrConfigMismatch, computed, runID)
	}

	report := &VerificationReport{RunID: runID}
	for _, sc := range pinned.cfg.Scenarios {
		for _, st := range pinned.cfg.Strategies {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			report.TotalPairs++

			result, err := pinned.VerifyPair(ctx, runID, sc.Name, st.Name)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil, err
				}
				// Record error as divergence
				report.Results = append(report.Results, VerificationResult{
					Scenario: sc.Name,
					Strategy: st.Name,
					Match:    false,
					Divergences: []FieldDivergence{
						{Field: "Error", Expected: nil, Actual: err.Error()},
					},
				})
				report.DivergentPairs++
				continue
			}

			report.Results = append(report.Results, *result)
			if result.Match {
				report.MatchedPairs++
			} else {
				report.DivergentPairs++
			}
		}
	}

	v.log.Info().
		Str("run_id", runID).
		Int("pairs", report.TotalPairs).
		Int("divergent", report.DivergentPairs).
		Msg("replay verification complete")

	return report, nil
}

// replay re-executes simulation and aggregation for one pair.
func (v *ReplayVerifier) replay(ctx context.Context, scenario, strategy string) (*domain.ScenarioSummary, error) {
	sc, st, err := v.definitions(scenario, strategy)
	if err != nil {
		return nil, err
	}

	sim := simulation.NewSimulator(simulation.Options{Config: v.cfg, Logger: v.log})
	trials, err := sim.Run(ctx, sc, st)
	if err != nil {
		return nil, err
	}
	return metrics.NewAggregator(metrics.OptionsFromConfig(v.cfg), nil).Aggregate(scenario, strategy, trials)
}

func (v *ReplayVerifier) definitions(scenario, strategy string) (domain.ScenarioDefinition, domain.StrategyDefinition, error) {
	var (
		sc            domain.ScenarioDefinition
		st            domain.StrategyDefinition
		foundScenario bool
		foundStrategy bool
	)
	for _, s := range v.cfg.ScenarioDefinitions() {
		if s.Name == scenario {
			sc, foundScenario = s, true
			break
		}
	}
	for _, s := range v.cfg.StrategyDefinitions() {
		if s.Name == strategy {
			st, foundStrategy = s, true
			break
		}
	}
	if !foundScenario || !foundStrategy {
		return sc, st, fmt.Errorf("%w: %s/%s", ErrUnknownPair, scenario, strategy)
	}
	return sc, st, nil
}

var _ Verifier = (*ReplayVerifier)(nil)
