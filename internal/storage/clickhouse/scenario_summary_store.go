package clickhouse

import (
	"context"
	"fmt"

	"membership-entry-lab/internal/domain"
	"membership-entry-lab/internal/storage"
)

// ScenarioSummaryStore implements storage.ScenarioSummaryStore using ClickHouse.
// The table is a ReplacingMergeTree, so uniqueness is enforced here before insert.
type ScenarioSummaryStore struct {
	conn *Conn
}

// NewScenarioSummaryStore creates a new ScenarioSummaryStore.
func NewScenarioSummaryStore(conn *Conn) *ScenarioSummaryStore {
	return &ScenarioSummaryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ScenarioSummaryStore = (*ScenarioSummaryStore)(nil)

const summaryColumns = `
	run_id, scenario, strategy, trials,
	mean_contribution_eur, std_contribution_eur,
	p10_contribution_eur, p50_contribution_eur, p90_contribution_eur,
	cvar5_contribution_eur, prob_loss, prob_meet_hurdle,
	mean_adoption_rate, mean_adoption_probability,
	mean_break_even_monthly_eur, mean_competitor_penalty`

type summaryKey struct {
	runID    string
	scenario string
	strategy string
}

// InsertBulk adds multiple summaries. Fails entire batch on duplicate.
func (s *ScenarioSummaryStore) InsertBulk(ctx context.Context, summaries []*domain.ScenarioSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	seen := make(map[summaryKey]struct{}, len(summaries))
	for _, sum := range summaries {
		if sum == nil || sum.RunID == "" || sum.Scenario == "" || sum.Strategy == "" {
			return storage.ErrInvalidInput
		}
		k := summaryKey{sum.RunID, sum.Scenario, sum.Strategy}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for k := range seen {
		exists, err := s.exists(ctx, k)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO scenario_summaries (`+summaryColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, sum := range summaries {
		err = batch.Append(
			sum.RunID, sum.Scenario, sum.Strategy, int64(sum.Trials),
			sum.MeanContributionEUR, sum.StdContributionEUR,
			sum.P10ContributionEUR, sum.P50ContributionEUR, sum.P90ContributionEUR,
			sum.CVaR5ContributionEUR, sum.ProbLoss, sum.ProbMeetHurdle,
			sum.MeanAdoptionRate, sum.MeanAdoptionProbability,
			sum.MeanBreakEvenMonthlyEUR, sum.MeanCompetitorPenalty,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRun retrieves all summaries of a run, ordered by scenario ASC, strategy ASC.
func (s *ScenarioSummaryStore) GetByRun(ctx context.Context, runID string) ([]*domain.ScenarioSummary, error) {
	query := `SELECT ` + summaryColumns + `
		FROM scenario_summaries FINAL
		WHERE run_id = ?
		ORDER BY scenario ASC, strategy ASC`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// GetByKey retrieves one summary. Returns ErrNotFound if not exists.
func (s *ScenarioSummaryStore) GetByKey(ctx context.Context, runID, scenario, strategy string) (*domain.ScenarioSummary, error) {
	query := `SELECT ` + summaryColumns + `
		FROM scenario_summaries FINAL
		WHERE run_id = ? AND scenario = ? AND strategy = ?
		LIMIT 1`

	rows, err := s.conn.Query(ctx, query, runID, scenario, strategy)
	if err != nil {
		return nil, fmt.Errorf("query by key: %w", err)
	}
	defer rows.Close()

	result, err := scanSummaries(rows)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, storage.ErrNotFound
	}
	return result[0], nil
}

func (s *ScenarioSummaryStore) exists(ctx context.Context, k summaryKey) (bool, error) {
	query := `
		SELECT count(*) FROM scenario_summaries
		WHERE run_id = ? AND scenario = ? AND strategy = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, k.runID, k.scenario, k.strategy).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanSummaries(rows chRows) ([]*domain.ScenarioSummary, error) {
	var result []*domain.ScenarioSummary

	for rows.Next() {
		var (
			sum    domain.ScenarioSummary
			trials int64
		)
		err := rows.Scan(
			&sum.RunID, &sum.Scenario, &sum.Strategy, &trials,
			&sum.MeanContributionEUR, &sum.StdContributionEUR,
			&sum.P10ContributionEUR, &sum.P50ContributionEUR, &sum.P90ContributionEUR,
			&sum.CVaR5ContributionEUR, &sum.ProbLoss, &sum.ProbMeetHurdle,
			&sum.MeanAdoptionRate, &sum.MeanAdoptionProbability,
			&sum.MeanBreakEvenMonthlyEUR, &sum.MeanCompetitorPenalty,
		)
		if err != nil {
			return nil, fmt.Errorf("scan scenario summary row: %w", err)
		}
		sum.Trials = int(trials)
		result = append(result, &sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenario summary rows: %w", err)
	}
	return result, nil
}
