package adoption

import (
	"membership-entry-lab/internal/config"
	"membership-entry-lab/internal/domain"
)

// CulturalResistance returns the scenario-level resistance score:
//
//	0.70 + 0.70*(100-indulgence)/100 + 0.30*UAI/100 + 0.25*LTO/100
//
// multiplied by the savings-trap multiplier when consumer climate is below
// the trap threshold and the savings rate is above its threshold.
func CulturalResistance(c config.CulturalConfig, scenario domain.ScenarioDefinition) float64 {
	r := 0.70 +
		0.70*(100-c.Indulgence)/100 +
		0.30*c.UncertaintyAvoidance/100 +
		0.25*c.LongTermOrientation/100

	if InSavingsTrap(c, scenario) {
		r *= c.SavingsTrapMultiplier
	}
	return r
}

// InSavingsTrap reports whether pessimistic climate and high savings coincide.
func InSavingsTrap(c config.CulturalConfig, scenario domain.ScenarioDefinition) bool {
	return scenario.ConsumerClimate < c.SavingsTrapClimate &&
		scenario.SavingsRatePct > c.SavingsTrapSavingsPct
}
