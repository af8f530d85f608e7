package domain

// RunRecord is the metadata of one completed engine run.
type RunRecord struct {
	RunID       string // deterministic: seed + trials + definitions
	ExecutionID string // unique per invocation
	Seed        int64
	Trials      int // trials per (scenario, strategy) pair

	ScenarioCount int
	StrategyCount int

	RecommendedStrategy string
	Recommendation      string // GO | NO-GO

	StartedAt   int64 // Unix ms
	CompletedAt int64 // Unix ms
}
