package simulation

import (
	"hash/fnv"
	"math"

	"membership-entry-lab/internal/config"
	"membership-entry-lab/internal/domain"
)

// CompetitorPenalty returns the incumbent response rate for one household:
//
//	base + uplift + fee exposure + concentration - info mitigation + shock
//
// clipped to [0, cap]. NaN inputs stay NaN so the model can report them.
func CompetitorPenalty(cfg config.Config, scenario domain.ScenarioDefinition, strategy domain.StrategyDefinition, shock float64) float64 {
	c := cfg.Competition
	fee := strategy.EffectiveFee(1)
	cues := cfg.Adoption.BaselineInfoCues + strategy.IncrementalInfoCues

	p := c.BaseResponseRate +
		scenario.CompetitionUpliftPct/100 +
		math.Max(0, (fee-c.FeeExposureThreshold)/100)*c.FeeExposureCoeff +
		c.Top4ConcentrationPct/100*c.ConcentrationCoeff -
		math.Max(0, float64(cues-cfg.Adoption.MinInfoCues))*c.InfoMitigationCoeff +
		shock

	if p < 0 {
		return 0
	}
	if p > c.PenaltyCap {
		return c.PenaltyCap
	}
	return p
}

// HouseholdCostShare is the yearly labor and fixed opex of one unit,
// scaled by the scenario cost multiplier and spread over the addressable
// households.
func HouseholdCostShare(cfg config.Config, scenario domain.ScenarioDefinition) float64 {
	households := float64(cfg.Market.AddressableHouseholds)
	labor := cfg.LaborCostPerUnitEUR() * scenario.CostMultiplier
	opex := cfg.Operations.FixedOpexEUR * scenario.CostMultiplier
	return (labor + opex) / households
}

// StreamKey identifies a scenario's random stream.
func StreamKey(scenario string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(scenario))
	return h.Sum64()
}

// TrialSequence mixes the scenario stream key and the trial index into the
// PCG sequence word (splitmix64 finalizer).
func TrialSequence(stream uint64, trial int) uint64 {
	z := stream + uint64(trial+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
