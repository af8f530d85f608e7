package memory

import "membership-entry-lab/internal/storage"

// NewStores returns an empty in-memory store set.
func NewStores() storage.Stores {
	return storage.Stores{
		Runs:       NewRunStore(),
		Summaries:  NewScenarioSummaryStore(),
		Decisions:  NewDecisionRowStore(),
		Valuations: NewValuationStore(),
	}
}
