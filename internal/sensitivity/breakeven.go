// Package sensitivity produces the break-even grid and the one-at-a-time
// tornado analysis around a strategy.
package sensitivity

import (
	"math"

	"membership-entry-lab/internal/config"
	"membership-entry-lab/internal/domain"
)

// BreakEvenCell is the monthly spend at which a member recovers the fee.
type BreakEvenCell struct {
	FeeEUR              float64
	DiscountRate        float64
	BreakEvenMonthlyEUR float64
}

// BreakEvenMonthly is fee * (1 + inflation) / max(discount, 0.001) / 12.
func BreakEvenMonthly(feeEUR, discount, inflationPct float64) float64 {
	return feeEUR * (1 + inflationPct/100) / math.Max(discount, 0.001) / 12
}

// BreakEvenGrid evaluates break-even spend over an evenly spaced
// fee x discount grid using the scenario's inflation. Cells are ordered by
// fee ASC, then discount ASC.
func BreakEvenGrid(cfg config.SensitivityConfig, scenario domain.ScenarioDefinition) []BreakEvenCell {
	fees := linspace(cfg.GridFeeMinEUR, cfg.GridFeeMaxEUR, cfg.GridSteps)
	discounts := linspace(cfg.GridDiscountMin, cfg.GridDiscountMax, cfg.GridSteps)

	cells := make([]BreakEvenCell, 0, len(fees)*len(discounts))
	for _, fee := range fees {
		for _, d := range discounts {
			cells = append(cells, BreakEvenCell{
				FeeEUR:              fee,
				DiscountRate:        d,
				BreakEvenMonthlyEUR: BreakEvenMonthly(fee, d, scenario.InflationPct),
			})
		}
	}
	return cells
}

func linspace(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
