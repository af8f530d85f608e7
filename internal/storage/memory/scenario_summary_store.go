package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"membership-entry-lab/internal/domain"
	"membership-entry-lab/internal/storage"
)

// ScenarioSummaryStore is an in-memory implementation of storage.ScenarioSummaryStore.
type ScenarioSummaryStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ScenarioSummary // keyed by composite key
}

// NewScenarioSummaryStore creates a new in-memory scenario summary store.
func NewScenarioSummaryStore() *ScenarioSummaryStore {
	return &ScenarioSummaryStore{
		data: make(map[string]*domain.ScenarioSummary),
	}
}

// summaryKey generates a unique key for a summary.
func summaryKey(runID, scenario, strategy string) string {
	return fmt.Sprintf("%s|%s|%s", runID, scenario, strategy)
}

func validSummary(s *domain.ScenarioSummary) bool {
	return s != nil && s.RunID != "" && s.Scenario != "" && s.Strategy != ""
}

// InsertBulk adds multiple summaries atomically. Fails entire batch on any duplicate.
func (s *ScenarioSummaryStore) InsertBulk(_ context.Context, summaries []*domain.ScenarioSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(summaries))

	// First pass: check for duplicates (existing + intra-batch)
	for _, sum := range summaries {
		if !validSummary(sum) {
			return storage.ErrInvalidInput
		}
		key := summaryKey(sum.RunID, sum.Scenario, sum.Strategy)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, sum := range summaries {
		key := summaryKey(sum.RunID, sum.Scenario, sum.Strategy)
		sumCopy := *sum
		s.data[key] = &sumCopy
	}

	return nil
}

// GetByKey retrieves a summary by its composite key. Returns ErrNotFound if not exists.
func (s *ScenarioSummaryStore) GetByKey(_ context.Context, runID, scenario, strategy string) (*domain.ScenarioSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum, exists := s.data[summaryKey(runID, scenario, strategy)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	sumCopy := *sum
	return &sumCopy, nil
}

// GetByRun retrieves all summaries of a run.
func (s *ScenarioSummaryStore) GetByRun(_ context.Context, runID string) ([]*domain.ScenarioSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ScenarioSummary
	for _, sum := range s.data {
		if sum.RunID == runID {
			sumCopy := *sum
			result = append(result, &sumCopy)
		}
	}

	// Sort by scenario, then strategy
	sort.Slice(result, func(i, j int) bool {
		if result[i].Scenario != result[j].Scenario {
			return result[i].Scenario < result[j].Scenario
		}
		return result[i].Strategy < result[j].Strategy
	})

	return result, nil
}

var _ storage.ScenarioSummaryStore = (*ScenarioSummaryStore)(nil)
