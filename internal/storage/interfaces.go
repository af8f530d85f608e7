package storage

import (
	"context"

	"membership-entry-lab/internal/domain"
)

// RunStore provides access to runs storage.
type RunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.RunRecord) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunRecord, error)

	// GetAll retrieves all runs, ordered by started_at ASC, run_id ASC.
	GetAll(ctx context.Context) ([]*domain.RunRecord, error)
}

// ScenarioSummaryStore provides access to scenario_summaries storage.
type ScenarioSummaryStore interface {
	// InsertBulk adds multiple summaries atomically.
	// Fails entire batch on duplicate (run_id, scenario, strategy).
	InsertBulk(ctx context.Context, summaries []*domain.ScenarioSummary) error

	// GetByRun retrieves all summaries of a run, ordered by scenario ASC, strategy ASC.
	GetByRun(ctx context.Context, runID string) ([]*domain.ScenarioSummary, error)

	// GetByKey retrieves one summary. Returns ErrNotFound if not exists.
	GetByKey(ctx context.Context, runID, scenario, strategy string) (*domain.ScenarioSummary, error)
}

// DecisionRowStore provides access to decision_rows storage.
type DecisionRowStore interface {
	// InsertBulk adds the ranked rows of a run atomically.
	// Fails entire batch on duplicate (run_id, strategy).
	InsertBulk(ctx context.Context, rows []*domain.DecisionRow) error

	// GetByRun retrieves the decision matrix of a run, ordered by rank ASC.
	GetByRun(ctx context.Context, runID string) ([]*domain.DecisionRow, error)
}

// ValuationStore provides access to valuations and valuation_cashflows storage.
type ValuationStore interface {
	// InsertBulk adds valuation rows with their cash flows atomically.
	// Fails entire batch on duplicate (run_id, strategy).
	InsertBulk(ctx context.Context, rows []*domain.ValuationRow) error

	// GetByRun retrieves valuations of a run ordered by strategy ASC,
	// cash flows ordered by year ASC.
	GetByRun(ctx context.Context, runID string) ([]*domain.ValuationRow, error)
}

// Stores groups the stores one run is persisted to.
type Stores struct {
	Runs       RunStore
	Summaries  ScenarioSummaryStore
	Decisions  DecisionRowStore
	Valuations ValuationStore
}
