package storage

import (
	"context"
	"errors"
	"time"

	"membership-entry-lab/internal/domain"
	"membership-entry-lab/internal/observability"
)

// Backends names the database behind each store for metric labels.
type Backends struct {
	Runs       string
	Summaries  string
	Decisions  string
	Valuations string
}

// Instrument wraps every store so each call records query duration and
// errors under its backend label. A nil m returns s unchanged.
func Instrument(s Stores, backends Backends, m *observability.Metrics) Stores {
	if m == nil {
		return s
	}
	return Stores{
		Runs:       &instrumentedRuns{next: s.Runs, db: backends.Runs, m: m},
		Summaries:  &instrumentedSummaries{next: s.Summaries, db: backends.Summaries, m: m},
		Decisions:  &instrumentedDecisions{next: s.Decisions, db: backends.Decisions, m: m},
		Valuations: &instrumentedValuations{next: s.Valuations, db: backends.Valuations, m: m},
	}
}

func observe(m *observability.Metrics, db, op string, start time.Time, err error) {
	m.RecordDBQuery(db, op, time.Since(start), err)
}

type instrumentedRuns struct {
	next RunStore
	db   string
	m    *observability.Metrics
}

func (s *instrumentedRuns) Insert(ctx context.Context, r *domain.RunRecord) error {
	start := time.Now()
	err := s.next.Insert(ctx, r)
	observe(s.m, s.db, "runs_insert", start, err)
	return err
}

func (s *instrumentedRuns) GetByID(ctx context.Context, runID string) (*domain.RunRecord, error) {
	start := time.Now()
	r, err := s.next.GetByID(ctx, runID)
	// A missing run is an expected answer, not a failed query.
	if errors.Is(err, ErrNotFound) {
		observe(s.m, s.db, "runs_get", start, nil)
	} else {
		observe(s.m, s.db, "runs_get", start, err)
	}
	return r, err
}

func (s *instrumentedRuns) GetAll(ctx context.Context) ([]*domain.RunRecord, error) {
	start := time.Now()
	r, err := s.next.GetAll(ctx)
	observe(s.m, s.db, "runs_get_all", start, err)
	return r, err
}

type instrumentedSummaries struct {
	next ScenarioSummaryStore
	db   string
	m    *observability.Metrics
}

func (s *instrumentedSummaries) InsertBulk(ctx context.Context, summaries []*domain.ScenarioSummary) error {
	start := time.Now()
	err := s.next.InsertBulk(ctx, summaries)
	observe(s.m, s.db, "summaries_insert", start, err)
	return err
}

func (s *instrumentedSummaries) GetByRun(ctx context.Context, runID string) ([]*domain.ScenarioSummary, error) {
	start := time.Now()
	r, err := s.next.GetByRun(ctx, runID)
	observe(s.m, s.db, "summaries_get_by_run", start, err)
	return r, err
}

func (s *instrumentedSummaries) GetByKey(ctx context.Context, runID, scenario, strategy string) (*domain.ScenarioSummary, error) {
	start := time.Now()
	r, err := s.next.GetByKey(ctx, runID, scenario, strategy)
	observe(s.m, s.db, "summaries_get_by_key", start, err)
	return r, err
}

type instrumentedDecisions struct {
	next DecisionRowStore
	db   string
	m    *observability.Metrics
}

func (s *instrumentedDecisions) InsertBulk(ctx context.Context, rows []*domain.DecisionRow) error {
	start := time.Now()
	err := s.next.InsertBulk(ctx, rows)
	observe(s.m, s.db, "decisions_insert", start, err)
	return err
}

func (s *instrumentedDecisions) GetByRun(ctx context.Context, runID string) ([]*domain.DecisionRow, error) {
	start := time.Now()
	r, err := s.next.GetByRun(ctx, runID)
	observe(s.m, s.db, "decisions_get_by_run", start, err)
	return r, err
}

type instrumentedValuations struct {
	next ValuationStore
	db   string
	m    *observability.Metrics
}

func (s *instrumentedValuations) InsertBulk(ctx context.Context, rows []*domain.ValuationRow) error {
	start := time.Now()
	err := s.next.InsertBulk(ctx, rows)
	observe(s.m, s.db, "valuations_insert", start, err)
	return err
}

func (s *instrumentedValuations) GetByRun(ctx context.Context, runID string) ([]*domain.ValuationRow, error) {
	start := time.Now()
	r, err := s.next.GetByRun(ctx, runID)
	observe(s.m, s.db, "valuations_get_by_run", start, err)
	return r, err
}
