package memory

import (
	"context"
	"sort"
	"sync"

	"membership-entry-lab/internal/domain"
	"membership-entry-lab/internal/storage"
)

// ValuationStore is an in-memory implementation of storage.ValuationStore.
type ValuationStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ValuationRow // keyed by run_id|strategy
}

// NewValuationStore creates a new in-memory valuation store.
func NewValuationStore() *ValuationStore {
	return &ValuationStore{
		data: make(map[string]*domain.ValuationRow),
	}
}

func copyValuation(v *domain.ValuationRow) *domain.ValuationRow {
	out := *v
	out.CashFlows = append([]domain.CashFlowRow(nil), v.CashFlows...)
	sort.Slice(out.CashFlows, func(i, j int) bool {
		return out.CashFlows[i].Year < out.CashFlows[j].Year
	})
	return &out
}

// InsertBulk adds rows with their cash flows atomically.
func (s *ValuationStore) InsertBulk(_ context.Context, rows []*domain.ValuationRow) error {
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
		key := r.RunID + "|" + r.Strategy
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, r := range rows {
		s.data[r.RunID+"|"+r.Strategy] = copyValuation(r)
	}
	return nil
}

// GetByRun retrieves valuations of a run ordered by strategy ASC.
func (s *ValuationStore) GetByRun(_ context.Context, runID string) ([]*domain.ValuationRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ValuationRow
	for _, v := range s.data {
		if v.RunID == runID {
			result = append(result, copyValuation(v))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Strategy < result[j].Strategy
	})
	return result, nil
}

var _ storage.ValuationStore = (*ValuationStore)(nil)
