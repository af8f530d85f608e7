package domain

// HouseholdContext holds the per-trial draws fed to the adoption model.
// Generated fresh for every trial and never persisted.
type HouseholdContext struct {
	YearlySpendEUR    float64 // disposable-income proxy: annual spend in the warehouse format
	DiscountRate      float64 // realised bulk discount on that basket
	Resistance        float64 // cultural resistance score after scenario adjustment
	CueExposure       float64 // multiplier on the strategy's information cues
	CompetitorPenalty float64 // competitor response rate
	Noise             float64 // latent decision noise
}
