package sensitivity

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"membership-entry-lab/internal/config"
	"membership-entry-lab/internal/domain"
	"membership-entry-lab/internal/metrics"
	"membership-entry-lab/internal/simulation"
)

// TornadoRow is the effect of one parameter moved down and up by the shock.
type TornadoRow struct {
	Parameter string
	BaseValue float64
	LowValue  float64
	HighValue float64

	BaseMeanEUR float64
	LowMeanEUR  float64
	HighMeanEUR float64
	SwingEUR    float64 // |high - low|
}

// perturbation scales one parameter by factor.
type perturbation struct {
	name  string
	value func(config.Config, domain.StrategyDefinition) float64
	apply func(*config.Config, *domain.StrategyDefinition, float64)
}

var perturbations = []perturbation{
	{
		name:  "spend_mean_eur",
		value: func(c config.Config, _ domain.StrategyDefinition) float64 { return c.Market.SpendMeanEUR },
		apply: func(c *config.Config, _ *domain.StrategyDefinition, f float64) { c.Market.SpendMeanEUR *= f },
	},
	{
		name:  "bulk_discount_rate",
		value: func(_ config.Config, s domain.StrategyDefinition) float64 { return s.BulkDiscountRate },
		apply: func(_ *config.Config, s *domain.StrategyDefinition, f float64) {
			s.BulkDiscountRate = math.Min(1, s.BulkDiscountRate*f)
		},
	},
	{
		name:  "merchandise_margin_pct",
		value: func(c config.Config, _ domain.StrategyDefinition) float64 { return c.Operations.MerchandiseMarginPct },
		apply: func(c *config.Config, _ *domain.StrategyDefinition, f float64) {
			c.Operations.MerchandiseMarginPct *= f
		},
	},
	{
		name:  "hourly_wage_eur",
		value: func(c config.Config, _ domain.StrategyDefinition) float64 { return c.Operations.HourlyWageEUR },
		apply: func(c *config.Config, _ *domain.StrategyDefinition, f float64) { c.Operations.HourlyWageEUR *= f },
	},
	{
		name:  "fixed_opex_eur",
		value: func(c config.Config, _ domain.StrategyDefinition) float64 { return c.Operations.FixedOpexEUR },
		apply: func(c *config.Config, _ *domain.StrategyDefinition, f float64) { c.Operations.FixedOpexEUR *= f },
	},
	{
		name:  "annual_fee_eur",
		value: func(_ config.Config, s domain.StrategyDefinition) float64 { return s.AnnualFeeEUR },
		apply: func(_ *config.Config, s *domain.StrategyDefinition, f float64) { s.AnnualFeeEUR *= f },
	},
}

// Parameters lists the parameters the tornado perturbs, in evaluation order.
func Parameters() []string {
	names := make([]string, len(perturbations))
	for i, p := range perturbations {
		names[i] = p.name
	}
	return names
}

// Analyzer runs sensitivity analyses.
type Analyzer struct {
	cfg config.Config
	log zerolog.Logger
}

// Options contains configuration for creating an Analyzer.
type Options struct {
	Config config.Config
	Logger zerolog.Logger
}

// NewAnalyzer creates a sensitivity analyzer.
func NewAnalyzer(opts Options) *Analyzer {
	return &Analyzer{
		cfg: opts.Config,
		log: opts.Logger.With().Str("component", "sensitivity").Logger(),
	}
}

// Tornado re-simulates the pair with each parameter moved by -shock and
// +shock, using the reduced tornado trial count. Rows are sorted by swing
// DESC, then parameter name ASC.
func (a *Analyzer) Tornado(ctx context.Context, scenario domain.ScenarioDefinition, strategy domain.StrategyDefinition) ([]TornadoRow, error) {
	base := a.cfg.Clone()
	base.Simulation.Trials = a.cfg.Sensitivity.TornadoTrials
	shock := a.cfg.Sensitivity.TornadoShockPct / 100

	baseMean, err := a.meanContribution(ctx, base, scenario, strategy)
	if err != nil {
		return nil, fmt.Errorf("tornado baseline: %w", err)
	}

	rows := make([]TornadoRow, len(perturbations))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range perturbations {
		g.Go(func() error {
			low, lowValue, err := a.perturbed(gctx, base, scenario, strategy, p, 1-shock)
			if err != nil {
				return fmt.Errorf("tornado %s low: %w", p.name, err)
			}
			high, highValue, err := a.perturbed(gctx, base, scenario, strategy, p, 1+shock)
			if err != nil {
				return fmt.Errorf("tornado %s high: %w", p.name, err)
			}
			rows[i] = TornadoRow{
				Parameter:   p.name,
				BaseValue:   p.value(base, strategy),
				LowValue:    lowValue,
				HighValue:   highValue,
				BaseMeanEUR: baseMean,
				LowMeanEUR:  low,
				HighMeanEUR: high,
				SwingEUR:    math.Abs(high - low),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].SwingEUR != rows[j].SwingEUR {
			return rows[i].SwingEUR > rows[j].SwingEUR
		}
		return rows[i].Parameter < rows[j].Parameter
	})

	a.log.Info().
		Str("scenario", scenario.Name).
		Str("strategy", strategy.Name).
		Str("top_driver", rows[0].Parameter).
		Float64("top_swing_eur", rows[0].SwingEUR).
		Msg("tornado complete")

	return rows, nil
}

func (a *Analyzer) perturbed(ctx context.Context, base config.Config, scenario domain.ScenarioDefinition, strategy domain.StrategyDefinition, p perturbation, factor float64) (float64, float64, error) {
	cfg := base.Clone()
	strat := strategy
	strat.SubsidySchedule = append([]float64(nil), strategy.SubsidySchedule...)
	p.apply(&cfg, &strat, factor)

	mean, err := a.meanContribution(ctx, cfg, scenario, strat)
	return mean, p.value(cfg, strat), err
}

func (a *Analyzer) meanContribution(ctx context.Context, cfg config.Config, scenario domain.ScenarioDefinition, strategy domain.StrategyDefinition) (float64, error) {
	sim := simulation.NewSimulator(simulation.Options{Config: cfg, Logger: a.log})
	trials, err := sim.Run(ctx, scenario, strategy)
	if err != nil {
		return 0, err
	}
	summary, err := metrics.NewAggregator(metrics.OptionsFromConfig(cfg), nil).Aggregate(scenario.Name, strategy.Name, trials)
	if err != nil {
		return 0, err
	}
	return summary.MeanContributionEUR, nil
}

// Result is the sensitivity view of one (scenario, strategy) pair.
type Result struct {
	Scenario  string
	Strategy  string
	BreakEven []BreakEvenCell
	Tornado   []TornadoRow
}

// Analyze computes the break-even grid under the scenario's inflation and
// the tornado for the pair.
func (a *Analyzer) Analyze(ctx context.Context, scenario domain.ScenarioDefinition, strategy domain.StrategyDefinition) (*Result, error) {
	rows, err := a.Tornado(ctx, scenario, strategy)
	if err != nil {
		return nil, err
	}
	return &Result{
		Scenario:  scenario.Name,
		Strategy:  strategy.Name,
		BreakEven: BreakEvenGrid(a.cfg.Sensitivity, scenario),
		Tornado:   rows,
	}, nil
}
