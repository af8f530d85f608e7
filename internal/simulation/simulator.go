// Package simulation draws Monte Carlo household trials for one
// (scenario, strategy) pair.
package simulation

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat/distuv"

	"membership-entry-lab/internal/adoption"
	"membership-entry-lab/internal/config"
	"membership-entry-lab/internal/domain"
)

// ctxCheckInterval is how many trials run between cancellation checks.
const ctxCheckInterval = 1024

// minBreakEvenDiscount keeps break-even spend finite for tiny discounts.
const minBreakEvenDiscount = 0.001

// Simulator executes trial batches.
type Simulator struct {
	cfg   config.Config
	model *adoption.Model
	log   zerolog.Logger
}

// Options contains configuration for creating a Simulator.
type Options struct {
	Config config.Config
	Logger zerolog.Logger
}

// NewSimulator creates a simulator. The config must already be validated.
func NewSimulator(opts Options) *Simulator {
	return &Simulator{
		cfg:   opts.Config,
		model: adoption.NewModel(adoption.ParamsFromConfig(opts.Config)),
		log:   opts.Logger.With().Str("component", "simulator").Logger(),
	}
}

// Trials returns the configured batch size.
func (s *Simulator) Trials() int {
	return s.cfg.Simulation.Trials
}

// Run draws the configured number of trials for the pair.
// Steps per trial:
//  1. Derive the trial source from (seed, scenario, trial index)
//  2. Draw spend, discount, cue exposure, noise, resistance jitter and competitor shock
//  3. Evaluate the adoption model
//  4. Draw the Bernoulli adoption outcome
//  5. Compute contribution and break-even spend
//
// The trial source does not depend on the strategy, so strategies are compared
// on common random numbers. Any NaN or Inf aborts the batch with
// *domain.NumericAnomalyError naming the pair.
func (s *Simulator) Run(ctx context.Context, scenario domain.ScenarioDefinition, strategy domain.StrategyDefinition) ([]domain.TrialResult, error) {
	n := s.cfg.Simulation.Trials
	if n <= 0 {
		return nil, domain.NewConfigurationError("simulation.trials", "must be > 0, got %d", n)
	}

	start := time.Now()
	b := s.newBatch(scenario, strategy)
	stream := StreamKey(scenario.Name)
	seed := uint64(s.cfg.Simulation.Seed)

	results := make([]domain.TrialResult, n)
	for i := 0; i < n; i++ {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		src := rand.NewPCG(seed, TrialSequence(stream, i))
		tr, err := b.trial(i, src)
		if err != nil {
			var anomaly *domain.NumericAnomalyError
			if errors.As(err, &anomaly) {
				anomaly.Scenario = scenario.Name
				anomaly.Strategy = strategy.Name
			}
			return nil, err
		}
		results[i] = tr
	}

	s.log.Debug().
		Str("scenario", scenario.Name).
		Str("strategy", strategy.Name).
		Int("trials", n).
		Dur("duration", time.Since(start)).
		Msg("batch simulated")

	return results, nil
}

// batch holds per-pair constants so the trial loop only draws.
type batch struct {
	sim      *Simulator
	scenario domain.ScenarioDefinition
	strategy domain.StrategyDefinition

	fee            float64
	resistance     float64
	costShare      float64
	margin         float64
	spendMu        float64
	discountA      float64
	discountB      float64
	discountC      float64
	inflationRatio float64
}

func (s *Simulator) newBatch(scenario domain.ScenarioDefinition, strategy domain.StrategyDefinition) *batch {
	m := s.cfg.Market
	sigma := m.SpendSigma
	a, b, c := discountTriangle(strategy.BulkDiscountRate, m.DiscountHalfWidth, scenario.DiscountShift, m.DiscountFloor)

	return &batch{
		sim:            s,
		scenario:       scenario,
		strategy:       strategy,
		fee:            strategy.EffectiveFee(1),
		resistance:     adoption.CulturalResistance(s.cfg.Cultural, scenario),
		costShare:      HouseholdCostShare(s.cfg, scenario),
		margin:         s.cfg.Operations.MerchandiseMarginPct / 100,
		spendMu:        math.Log(m.SpendMeanEUR) - sigma*sigma/2,
		discountA:      a,
		discountB:      b,
		discountC:      c,
		inflationRatio: 1 + scenario.InflationPct/100,
	}
}

func (b *batch) trial(i int, src rand.Source) (domain.TrialResult, error) {
	cfg := b.sim.cfg

	spend := distuv.LogNormal{Mu: b.spendMu, Sigma: cfg.Market.SpendSigma, Src: src}.Rand() * b.scenario.IncomeMultiplier
	discount := math.Min(distuv.NewTriangle(b.discountA, b.discountB, b.discountC, src).Rand(), 1)
	exposure := distuv.Uniform{Min: cfg.Adoption.CueExposureMin, Max: cfg.Adoption.CueExposureMax, Src: src}.Rand()
	noise := normal(cfg.Adoption.NoiseSigma, src)
	jitter := normal(cfg.Adoption.ResistanceJitterSigma, src)
	shock := normal(cfg.Competition.ShockSigma, src)

	penalty := CompetitorPenalty(cfg, b.scenario, b.strategy, shock)

	household := domain.HouseholdContext{
		YearlySpendEUR:    spend,
		DiscountRate:      discount,
		Resistance:        b.resistance * (1 + jitter),
		CueExposure:       exposure,
		CompetitorPenalty: penalty,
		Noise:             noise,
	}

	res, err := b.sim.model.Evaluate(household, b.strategy)
	if err != nil {
		return domain.TrialResult{}, err
	}

	adopted := distuv.Bernoulli{P: res.Probability, Src: src}.Rand() == 1

	contribution := -b.costShare
	if adopted {
		merchandise := spend * (b.margin - discount)
		lostMargin := penalty * spend * b.margin
		contribution = b.fee + merchandise - lostMargin - b.costShare
	}
	if math.IsNaN(contribution) || math.IsInf(contribution, 0) {
		return domain.TrialResult{}, &domain.NumericAnomalyError{Quantity: "contribution", Value: contribution}
	}

	breakEven := b.fee * b.inflationRatio / math.Max(discount, minBreakEvenDiscount) / 12
	if math.IsNaN(breakEven) || math.IsInf(breakEven, 0) {
		return domain.TrialResult{}, &domain.NumericAnomalyError{Quantity: "break_even_monthly", Value: breakEven}
	}

	return domain.TrialResult{
		Index:               i,
		Adopted:             adopted,
		AdoptionProbability: res.Probability,
		ContributionEUR:     contribution,
		BreakEvenMonthlyEUR: breakEven,
		CompetitorPenalty:   penalty,
	}, nil
}

// normal draws N(0, sigma). A zero sigma still consumes one draw, keeping
// the stream layout independent of calibration.
func normal(sigma float64, src rand.Source) float64 {
	return distuv.Normal{Mu: 0, Sigma: sigma, Src: src}.Rand()
}

// discountTriangle returns (lower, upper, mode) of the realised discount
// triangle around mode, shifted by the scenario and floored.
func discountTriangle(mode, halfWidth, shift, floor float64) (a, b, c float64) {
	a = math.Max(floor, mode-halfWidth+shift)
	c = math.Max(a, mode+shift)
	b = math.Max(c+1e-6, mode+halfWidth+shift)
	return a, b, c
}
