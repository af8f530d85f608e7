// Package valuation projects a strategy's contribution into a multi-year
// discounted cash-flow view with NPV and payback.
package valuation

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"membership-entry-lab/internal/config"
	"membership-entry-lab/internal/domain"
)

// Adoption momentum bounds for the contribution growth rate.
const (
	growthAdoptionPivot = 0.20
	growthAdoptionCoeff = 0.10
	growthFloor         = -0.02
	growthCap           = 0.09
)

// Input is one strategy's projection input.
type Input struct {
	Strategy string

	// WeightedMeanContributionEUR is the cross-scenario contribution per
	// addressable household.
	WeightedMeanContributionEUR float64

	// BaseAdoptionRate is the realised adoption rate in the base scenario.
	BaseAdoptionRate float64
}

// Projector builds valuation rows.
type Projector struct {
	fin        config.FinancialConfig
	households float64
	realGrowth float64
	log        zerolog.Logger
}

// NewProjector creates a projector from the financial and market config.
func NewProjector(cfg config.Config, log zerolog.Logger) *Projector {
	return &Projector{
		fin:        cfg.Financial,
		households: float64(cfg.Market.AddressableHouseholds),
		realGrowth: cfg.Market.RealRetailGrowthPct / 100,
		log:        log.With().Str("component", "valuation").Logger(),
	}
}

// GrowthRate links real retail growth with adoption momentum:
// clip(real_growth + (base_adoption - 0.20) * 0.10, -2%, 9%).
func (p *Projector) GrowthRate(baseAdoption float64) float64 {
	g := p.realGrowth + (baseAdoption-growthAdoptionPivot)*growthAdoptionCoeff
	return math.Max(growthFloor, math.Min(growthCap, g))
}

// Project computes the cash-flow projection over the rollout horizon.
//
//	FCF_t  = contribution_per_unit_t * cumulative_units_t - growth_capex_t - maintenance_capex_t
//	DFCF_t = FCF_t * (1 + wacc)^-t
//	NPV    = sum(DFCF_t) + discounted terminal value
//
// PaybackYear is the first year cumulative DFCF (terminal value excluded)
// is non-negative, or domain.NoPayback.
func (p *Projector) Project(in Input) (*domain.ValuationRow, error) {
	for _, q := range []struct {
		name  string
		value float64
	}{
		{"weighted_mean_contribution", in.WeightedMeanContributionEUR},
		{"base_adoption_rate", in.BaseAdoptionRate},
	} {
		if math.IsNaN(q.value) || math.IsInf(q.value, 0) {
			return nil, &domain.NumericAnomalyError{Strategy: in.Strategy, Quantity: q.name, Value: q.value}
		}
	}

	rollout := p.fin.RolloutCumulativeUnits
	horizon := len(rollout)
	if horizon != config.ValuationHorizonYears {
		return nil, domain.NewConfigurationError("financial.rollout_cumulative_units",
			"must hold %d yearly entries, got %d", config.ValuationHorizonYears, horizon)
	}

	wacc := p.fin.WACCPct / 100
	terminalGrowth := p.fin.TerminalGrowthPct / 100
	maintenancePct := p.fin.MaintenanceCapexPct / 100

	base := in.WeightedMeanContributionEUR * p.households
	growth := p.GrowthRate(in.BaseAdoptionRate)

	row := &domain.ValuationRow{
		Strategy:               in.Strategy,
		ContributionPerUnitEUR: base,
		GrowthRate:             growth,
		PaybackYear:            domain.NoPayback,
		CashFlows:              make([]domain.CashFlowRow, 0, horizon),
	}

	prevUnits := 0
	cumulative := 0.0
	var lastFCF float64
	for i, units := range rollout {
		year := i + 1
		perUnit := base * math.Pow(1+growth, float64(year-1))
		gross := perUnit * float64(units)
		capex := float64(units-prevUnits)*p.fin.CapexPerUnitEUR + math.Max(0, gross)*maintenancePct
		fcf := gross - capex
		discounted := fcf / math.Pow(1+wacc, float64(year))
		cumulative += discounted

		if row.PaybackYear == domain.NoPayback && cumulative >= 0 {
			row.PaybackYear = year
		}

		row.CashFlows = append(row.CashFlows, domain.CashFlowRow{
			Year:                       year,
			CumulativeUnits:            units,
			ContributionPerUnitEUR:     perUnit,
			CapexEUR:                   capex,
			FreeCashFlowEUR:            fcf,
			DiscountedFCFEUR:           discounted,
			CumulativeDiscountedFCFEUR: cumulative,
		})
		prevUnits = units
		lastFCF = fcf
	}

	if p.fin.IncludeTerminalValue && lastFCF > 0 && wacc > terminalGrowth {
		terminal := lastFCF * (1 + terminalGrowth) / (wacc - terminalGrowth)
		row.TerminalValueDiscountedEUR = terminal / math.Pow(1+wacc, float64(horizon))
	}
	row.NPVEUR = cumulative + row.TerminalValueDiscountedEUR

	if math.IsNaN(row.NPVEUR) || math.IsInf(row.NPVEUR, 0) {
		return nil, &domain.NumericAnomalyError{Strategy: in.Strategy, Quantity: "npv", Value: row.NPVEUR}
	}

	p.log.Debug().
		Str("strategy", in.Strategy).
		Float64("npv_eur", row.NPVEUR).
		Int("payback_year", row.PaybackYear).
		Msg("valuation projected")

	return row, nil
}

// ProjectAll projects every decision row. Base adoption comes from the
// summary of baseScenario for the same strategy.
func (p *Projector) ProjectAll(rows []*domain.DecisionRow, summaries []*domain.ScenarioSummary, baseScenario string) ([]*domain.ValuationRow, error) {
	adoption := make(map[string]float64)
	for _, s := range summaries {
		if s.Scenario == baseScenario {
			adoption[s.Strategy] = s.MeanAdoptionRate
		}
	}

	out := make([]*domain.ValuationRow, 0, len(rows))
	for _, r := range rows {
		rate, ok := adoption[r.Strategy]
		if !ok {
			return nil, fmt.Errorf("project %s: no %s summary", r.Strategy, baseScenario)
		}
		v, err := p.Project(Input{
			Strategy:                    r.Strategy,
			WeightedMeanContributionEUR: r.WeightedMeanContributionEUR,
			BaseAdoptionRate:            rate,
		})
		if err != nil {
			return nil, err
		}
		v.RunID = r.RunID
		out = append(out, v)
	}
	return out, nil
}
