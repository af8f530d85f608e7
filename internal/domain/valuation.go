package domain

// NoPayback is the payback year sentinel for "no payback within the horizon".
const NoPayback = -1

// ValuationRow represents one strategy's capital view.
type ValuationRow struct {
	RunID    string
	Strategy string

	ContributionPerUnitEUR     float64 // year-1 contribution per opened unit
	GrowthRate                 float64
	NPVEUR                     float64
	TerminalValueDiscountedEUR float64
	PaybackYear                int // 1..horizon or NoPayback

	CashFlows []CashFlowRow // ordered by Year ASC
}

// CashFlowRow is one projection year.
type CashFlowRow struct {
	Year                       int
	CumulativeUnits            int
	ContributionPerUnitEUR     float64
	CapexEUR                   float64
	FreeCashFlowEUR            float64
	DiscountedFCFEUR           float64
	CumulativeDiscountedFCFEUR float64
}
