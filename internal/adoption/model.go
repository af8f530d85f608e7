// Package adoption maps a household context and a strategy to an adoption
// probability through a logistic link. The model is pure and stateless.
package adoption

import (
	"math"

	"membership-entry-lab/internal/config"
	"membership-entry-lab/internal/domain"
)

// Params is the calibration read by the model.
type Params struct {
	BenefitScale     float64
	InfoCueWeight    float64
	MinInfoCues      int
	BaselineInfoCues int
	FeeSensitivity   float64
	ResistanceWeight float64
	CompetitorWeight float64
}

// ParamsFromConfig extracts the model calibration.
func ParamsFromConfig(cfg config.Config) Params {
	a := cfg.Adoption
	return Params{
		BenefitScale:     a.BenefitScale,
		InfoCueWeight:    a.InfoCueWeight,
		MinInfoCues:      a.MinInfoCues,
		BaselineInfoCues: a.BaselineInfoCues,
		FeeSensitivity:   a.FeeSensitivity,
		ResistanceWeight: a.ResistanceWeight,
		CompetitorWeight: a.CompetitorWeight,
	}
}

// Result is the model output for one household.
type Result struct {
	Probability   float64 // in [0,1]
	NetBenefitEUR float64 // yearly savings minus effective fee
	Score         float64 // latent logit
}

// Model evaluates adoption probability.
type Model struct {
	p Params
}

// NewModel creates a new adoption model.
func NewModel(p Params) *Model {
	return &Model{p: p}
}

// Evaluate returns the adoption probability and expected net benefit.
//
//	net_benefit = yearly_spend * discount - effective_fee(year 1)
//	score       = net_benefit/benefit_scale + info_term - fee_term - resistance_term - competitor_term + noise
//	p           = 1 / (1 + exp(-score))
//
// Negative net benefit still yields a valid probability. NaN or Inf inputs
// return *domain.NumericAnomalyError.
func (m *Model) Evaluate(h domain.HouseholdContext, s domain.StrategyDefinition) (Result, error) {
	for _, in := range []struct {
		name  string
		value float64
	}{
		{"yearly_spend", h.YearlySpendEUR},
		{"discount_rate", h.DiscountRate},
		{"resistance", h.Resistance},
		{"cue_exposure", h.CueExposure},
		{"competitor_penalty", h.CompetitorPenalty},
		{"noise", h.Noise},
		{"annual_fee", s.AnnualFeeEUR},
	} {
		if math.IsNaN(in.value) || math.IsInf(in.value, 0) {
			return Result{}, &domain.NumericAnomalyError{Strategy: s.Name, Quantity: in.name, Value: in.value}
		}
	}

	fee := s.EffectiveFee(1)
	net := h.YearlySpendEUR*h.DiscountRate - fee

	score := net/m.p.BenefitScale +
		m.informationTerm(s, h.CueExposure) -
		m.p.FeeSensitivity*fee -
		m.p.ResistanceWeight*h.Resistance -
		m.p.CompetitorWeight*h.CompetitorPenalty +
		h.Noise

	p := Sigmoid(score)
	if math.IsNaN(p) || p < 0 || p > 1 {
		return Result{}, &domain.NumericAnomalyError{Strategy: s.Name, Quantity: "adoption_probability", Value: p}
	}

	return Result{Probability: p, NetBenefitEUR: net, Score: score}, nil
}

// informationTerm rewards cue density above the minimum a household needs
// before trusting a membership offer.
func (m *Model) informationTerm(s domain.StrategyDefinition, exposure float64) float64 {
	cues := float64(m.p.BaselineInfoCues+s.IncrementalInfoCues) * exposure
	return m.p.InfoCueWeight * (cues - float64(m.p.MinInfoCues))
}

// Sigmoid is the logistic function.
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
