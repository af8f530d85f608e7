// Package orchestrator runs the engine end to end.
// It coordinates: simulation → aggregation → scoring → valuation → gate → sensitivity → persistence
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"membership-entry-lab/internal/config"
	"membership-entry-lab/internal/decision"
	"membership-entry-lab/internal/domain"
	"membership-entry-lab/internal/idhash"
	"membership-entry-lab/internal/metrics"
	"membership-entry-lab/internal/observability"
	"membership-entry-lab/internal/sensitivity"
	"membership-entry-lab/internal/simulation"
	"membership-entry-lab/internal/storage"
	"membership-entry-lab/internal/storage/memory"
	"membership-entry-lab/internal/valuation"
)

// Orchestrator coordinates one engine run.
type Orchestrator struct {
	cfg     config.Config
	stores  storage.Stores
	log     zerolog.Logger
	metrics *observability.Metrics

	skipSensitivity bool
	parallelism     int
	now             func() time.Time
}

// Options for creating Orchestrator.
type Options struct {
	Config config.Config

	// Stores receives the run's results. Any nil store is replaced by an
	// in-memory one.
	Stores storage.Stores

	Logger  zerolog.Logger
	Metrics *observability.Metrics // optional

	SkipSensitivity bool
	Parallelism     int              // concurrent batches; <= 0 means GOMAXPROCS
	Clock           func() time.Time // optional, for deterministic timestamps
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	stores := opts.Stores
	if stores.Runs == nil {
		stores.Runs = memory.NewRunStore()
	}
	if stores.Summaries == nil {
		stores.Summaries = memory.NewScenarioSummaryStore()
	}
	if stores.Decisions == nil {
		stores.Decisions = memory.NewDecisionRowStore()
	}
	if stores.Valuations == nil {
		stores.Valuations = memory.NewValuationStore()
	}

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	now := opts.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &Orchestrator{
		cfg:             opts.Config,
		stores:          stores,
		log:             opts.Logger.With().Str("component", "orchestrator").Logger(),
		metrics:         opts.Metrics,
		skipSensitivity: opts.SkipSensitivity,
		parallelism:     parallelism,
		now:             now,
	}
}

// Stores returns the stores the orchestrator persists to.
func (o *Orchestrator) Stores() storage.Stores {
	return o.stores
}

// RunResult contains results from one engine run.
type RunResult struct {
	Run         *domain.RunRecord
	Summaries   []*domain.ScenarioSummary // scenario then strategy, configured order
	Decisions   []*domain.DecisionRow     // rank ASC
	Valuations  []*domain.ValuationRow    // rank order
	Gate        *decision.DecisionResult
	Sensitivity *sensitivity.Result // nil when skipped

	// AlreadyStored is true when an identical run was found in the run store
	// and nothing new was persisted.
	AlreadyStored bool
}

// Run executes the full engine.
// Phases:
//  1. Simulate every (scenario, strategy) pair concurrently
//  2. Aggregate summaries
//  3. Score and rank strategies
//  4. Project valuations
//  5. Evaluate the recommendation gate for the top strategy
//  6. Sensitivity around the top strategy in the base scenario
//  7. Persist
//
// Any error aborts the run before the run record is written; a retry
// keeps the row sets already stored and writes the rest.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	runID, err := idhash.ComputeRunID(o.cfg)
	if err != nil {
		return nil, err
	}
	started := o.now()
	run := &domain.RunRecord{
		RunID:         runID,
		ExecutionID:   uuid.NewString(),
		Seed:          o.cfg.Simulation.Seed,
		Trials:        o.cfg.Simulation.Trials,
		ScenarioCount: len(o.cfg.Scenarios),
		StrategyCount: len(o.cfg.Strategies),
		StartedAt:     started.UnixMilli(),
	}
	log := o.log.With().Str("run_id", runID).Str("execution_id", run.ExecutionID).Logger()
	log.Info().
		Int64("seed", run.Seed).
		Int("trials", run.Trials).
		Int("scenarios", run.ScenarioCount).
		Int("strategies", run.StrategyCount).
		Msg("run started")

	result, err := o.execute(ctx, run, log)
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		o.metrics.RecordPhase("run", "error", time.Since(started))
		return nil, err
	}
	o.metrics.RecordPhase("run", "ok", time.Since(started))
	o.metrics.RecordDecision(result.Run.Recommendation, result.Decisions[0].RiskAdjustedScore, o.now())

	log.Info().
		Str("recommended", result.Run.RecommendedStrategy).
		Str("decision", result.Run.Recommendation).
		Bool("already_stored", result.AlreadyStored).
		Msg("run completed")
	return result, nil
}

func (o *Orchestrator) execute(ctx context.Context, run *domain.RunRecord, log zerolog.Logger) (*RunResult, error) {
	// Phase 1: Simulation
	batches, err := phase(o, "simulate", func() ([]metrics.Batch, error) {
		return o.simulate(ctx, log)
	})
	if err != nil {
		return nil, fmt.Errorf("phase 1 (simulate) failed: %w", err)
	}

	// Phase 2: Aggregation
	aggregator := metrics.NewAggregator(metrics.OptionsFromConfig(o.cfg), nil)
	summaries, err := aggregator.AggregateAndStore(ctx, run.RunID, batches)
	if err != nil {
		return nil, fmt.Errorf("phase 2 (aggregate) failed: %w", err)
	}
	o.metrics.RecordSummaries(len(summaries))

	// Phase 3: Scoring
	scorer := decision.NewScorer(decision.ScoringOptionsFromConfig(o.cfg))
	rows, err := scorer.ScoreAll(summaries, o.cfg.ScenarioWeights())
	if err != nil {
		return nil, fmt.Errorf("phase 3 (score) failed: %w", err)
	}

	// Phase 4: Valuation
	projector := valuation.NewProjector(o.cfg, log)
	valuations, err := projector.ProjectAll(rows, summaries, o.cfg.Gate.BaseScenario)
	if err != nil {
		return nil, fmt.Errorf("phase 4 (valuation) failed: %w", err)
	}

	// Phase 5: Gate
	top := rows[0].Strategy
	input, err := decision.NewBuilder(o.cfg).Build(top, rows, valuations, summaries)
	if err != nil {
		return nil, fmt.Errorf("phase 5 (gate) failed: %w", err)
	}
	gate := decision.NewEvaluator().Evaluate(*input)
	run.RecommendedStrategy = top
	run.Recommendation = string(gate.Decision)

	// Phase 6: Sensitivity
	var sens *sensitivity.Result
	if !o.skipSensitivity {
		sens, err = phase(o, "sensitivity", func() (*sensitivity.Result, error) {
			return o.sensitivity(ctx, top, log)
		})
		if err != nil {
			return nil, fmt.Errorf("phase 6 (sensitivity) failed: %w", err)
		}
	}

	run.CompletedAt = o.now().UnixMilli()
	result := &RunResult{
		Run:         run,
		Summaries:   summaries,
		Decisions:   rows,
		Valuations:  valuations,
		Gate:        gate,
		Sensitivity: sens,
	}

	// Phase 7: Persistence
	stored, err := o.persist(ctx, result)
	if err != nil {
		return nil, fmt.Errorf("phase 7 (persist) failed: %w", err)
	}
	result.AlreadyStored = stored
	return result, nil
}

// simulate runs every pair with at most parallelism batches in flight.
// Results are gathered by index, so their order follows the configured
// scenario and strategy order regardless of completion order.
func (o *Orchestrator) simulate(ctx context.Context, log zerolog.Logger) ([]metrics.Batch, error) {
	scenarios := o.cfg.ScenarioDefinitions()
	strategies := o.cfg.StrategyDefinitions()
	sim := simulation.NewSimulator(simulation.Options{Config: o.cfg, Logger: log})

	batches := make([]metrics.Batch, len(scenarios)*len(strategies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)

	for i, sc := range scenarios {
		for j, st := range strategies {
			idx := i*len(strategies) + j
			g.Go(func() error {
				start := time.Now()
				trials, err := sim.Run(gctx, sc, st)
				o.metrics.RecordBatch(sc.Name, len(trials), time.Since(start), err)
				if err != nil {
					if errors.Is(err, domain.ErrNumericAnomaly) {
						o.metrics.RecordAnomaly()
					}
					return err
				}
				batches[idx] = metrics.Batch{Scenario: sc.Name, Strategy: st.Name, Trials: trials}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return batches, nil
}

func (o *Orchestrator) sensitivity(ctx context.Context, strategy string, log zerolog.Logger) (*sensitivity.Result, error) {
	var (
		sc domain.ScenarioDefinition
		st domain.StrategyDefinition
	)
	for _, s := range o.cfg.ScenarioDefinitions() {
		if s.Name == o.cfg.Gate.BaseScenario {
			sc = s
		}
	}
	for _, s := range o.cfg.StrategyDefinitions() {
		if s.Name == strategy {
			st = s
		}
	}
	analyzer := sensitivity.NewAnalyzer(sensitivity.Options{Config: o.cfg, Logger: log})
	return analyzer.Analyze(ctx, sc, st)
}

// persist writes the run unless a run with the same ID is already stored.
// The run record goes last and marks the run complete. Row sets left by an
// interrupted attempt are kept, so a retry with the same config resumes.
func (o *Orchestrator) persist(ctx context.Context, r *RunResult) (bool, error) {
	runID := r.Run.RunID
	_, err := o.stores.Runs.GetByID(ctx, runID)
	switch {
	case err == nil:
		o.log.Info().Str("run_id", runID).Msg("identical run already stored, skipping persistence")
		return true, nil
	case !errors.Is(err, storage.ErrNotFound):
		return false, err
	}

	if err := o.insertMissing("summaries", func() (bool, error) {
		return present(o.stores.Summaries.GetByRun(ctx, runID))
	}, func() error {
		return o.stores.Summaries.InsertBulk(ctx, r.Summaries)
	}); err != nil {
		return false, err
	}
	if err := o.insertMissing("decision rows", func() (bool, error) {
		return present(o.stores.Decisions.GetByRun(ctx, runID))
	}, func() error {
		return o.stores.Decisions.InsertBulk(ctx, r.Decisions)
	}); err != nil {
		return false, err
	}
	if err := o.insertMissing("valuations", func() (bool, error) {
		return present(o.stores.Valuations.GetByRun(ctx, runID))
	}, func() error {
		return o.stores.Valuations.InsertBulk(ctx, r.Valuations)
	}); err != nil {
		return false, err
	}
	if err := o.stores.Runs.Insert(ctx, r.Run); err != nil {
		return false, fmt.Errorf("insert run: %w", err)
	}
	return false, nil
}

// insertMissing runs insert unless exists reports rows for the run.
// Bulk inserts are atomic, so a non-empty set is a complete one.
func (o *Orchestrator) insertMissing(what string, exists func() (bool, error), insert func() error) error {
	found, err := exists()
	if err != nil {
		return fmt.Errorf("check %s: %w", what, err)
	}
	if found {
		o.log.Info().Str("rows", what).Msg("rows from an interrupted run already stored, keeping them")
		return nil
	}
	if err := insert(); err != nil {
		return fmt.Errorf("insert %s: %w", what, err)
	}
	return nil
}

func present[T any](rows []T, err error) (bool, error) {
	return len(rows) > 0, err
}

// phase times fn and records it under name.
func phase[T any](o *Orchestrator, name string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	status := "ok"
	if err != nil {
		status = "error"
	}
	o.metrics.RecordPhase(name, status, time.Since(start))
	return v, err
}
