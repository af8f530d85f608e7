package memory

import (
	"context"
	"sort"
	"sync"

	"membership-entry-lab/internal/domain"
	"membership-entry-lab/internal/storage"
)

// DecisionRowStore is an in-memory implementation of storage.DecisionRowStore.
type DecisionRowStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.DecisionRow // keyed by run_id
}

// NewDecisionRowStore creates a new in-memory decision row store.
func NewDecisionRowStore() *DecisionRowStore {
	return &DecisionRowStore{
		data: make(map[string][]*domain.DecisionRow),
	}
}

// InsertBulk adds rows atomically. Fails entire batch on duplicate (run_id, strategy).
func (s *DecisionRowStore) InsertBulk(_ context.Context, rows []*domain.DecisionRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if r == nil || r.RunID == "" || r.Strategy == "" {
			return storage.ErrInvalidInput
		}
		for _, existing := range s.data[r.RunID] {
			if existing.Strategy == r.Strategy {
				return storage.ErrDuplicateKey
			}
		}
		key := r.RunID + "|" + r.Strategy
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, r := range rows {
		rowCopy := *r
		s.data[r.RunID] = append(s.data[r.RunID], &rowCopy)
	}
	return nil
}

// GetByRun retrieves the decision matrix of a run ordered by rank ASC.
func (s *DecisionRowStore) GetByRun(_ context.Context, runID string) ([]*domain.DecisionRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.data[runID]
	result := make([]*domain.DecisionRow, len(rows))
	for i, r := range rows {
		rowCopy := *r
		result[i] = &rowCopy
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Rank != result[j].Rank {
			return result[i].Rank < result[j].Rank
		}
		return result[i].Strategy < result[j].Strategy
	})
	return result, nil
}

var _ storage.DecisionRowStore = (*DecisionRowStore)(nil)
