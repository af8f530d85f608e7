package postgres

import (
	"context"
	"fmt"

	"membership-entry-lab/internal/domain"
	"membership-entry-lab/internal/storage"
)

// DecisionRowStore implements storage.DecisionRowStore using PostgreSQL.
type DecisionRowStore struct {
	pool *Pool
}

// NewDecisionRowStore creates a new DecisionRowStore.
func NewDecisionRowStore(pool *Pool) *DecisionRowStore {
	return &DecisionRowStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DecisionRowStore = (*DecisionRowStore)(nil)

// InsertBulk adds the ranked rows of a run atomically. Fails entire batch on any duplicate.
func (s *DecisionRowStore) InsertBulk(ctx context.Context, rows []*domain.DecisionRow) error {
	if len(rows) == 0 {
		return nil
	}
	for _, r := range rows {
		if r == nil || r.RunID == "" || r.Strategy == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO decision_rows (
			run_id, rank, strategy,
			weighted_mean_contribution_eur, weighted_prob_loss, weighted_cvar5_eur,
			volatility, risk_adjusted_score
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, r := range rows {
		_, err := tx.Exec(ctx, query,
			r.RunID, r.Rank, r.Strategy,
			r.WeightedMeanContributionEUR, r.WeightedProbLoss, r.WeightedCVaR5EUR,
			r.Volatility, r.RiskAdjustedScore,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert decision row in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRun retrieves the decision matrix of a run ordered by rank ASC.
func (s *DecisionRowStore) GetByRun(ctx context.Context, runID string) ([]*domain.DecisionRow, error) {
	query := `
		SELECT
			run_id, rank, strategy,
			weighted_mean_contribution_eur, weighted_prob_loss, weighted_cvar5_eur,
			volatility, risk_adjusted_score
		FROM decision_rows
		WHERE run_id = $1
		ORDER BY rank ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get decision rows by run: %w", err)
	}
	defer rows.Close()

	var result []*domain.DecisionRow
	for rows.Next() {
		var r domain.DecisionRow
		if err := rows.Scan(
			&r.RunID, &r.Rank, &r.Strategy,
			&r.WeightedMeanContributionEUR, &r.WeightedProbLoss, &r.WeightedCVaR5EUR,
			&r.Volatility, &r.RiskAdjustedScore,
		); err != nil {
			return nil, fmt.Errorf("scan decision row: %w", err)
		}
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decision rows: %w", err)
	}
	return result, nil
}
