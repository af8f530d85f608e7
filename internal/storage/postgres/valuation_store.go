package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"membership-entry-lab/internal/domain"
	"membership-entry-lab/internal/storage"
)

// ValuationStore implements storage.ValuationStore using PostgreSQL.
// Cash flows live in valuation_cashflows and are written with COPY.
type ValuationStore struct {
	pool *Pool
}

// NewValuationStore creates a new ValuationStore.
func NewValuationStore(pool *Pool) *ValuationStore {
	return &ValuationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ValuationStore = (*ValuationStore)(nil)

var cashflowColumns = []string{
	"run_id", "strategy", "year", "cumulative_units", "contribution_per_unit_eur",
	"capex_eur", "free_cash_flow_eur", "discounted_fcf_eur", "cumulative_discounted_fcf_eur",
}

// InsertBulk adds valuations with their cash flows atomically.
// Fails entire batch on any duplicate.
func (s *ValuationStore) InsertBulk(ctx context.Context, rows []*domain.ValuationRow) error {
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
		INSERT INTO valuations (
			run_id, strategy, contribution_per_unit_eur, growth_rate,
			npv_eur, terminal_value_discounted_eur, payback_year
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var cashflows [][]any
	for _, r := range rows {
		_, err := tx.Exec(ctx, query,
			r.RunID, r.Strategy, r.ContributionPerUnitEUR, r.GrowthRate,
			r.NPVEUR, r.TerminalValueDiscountedEUR, r.PaybackYear,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert valuation in bulk: %w", err)
		}
		for _, cf := range r.CashFlows {
			cashflows = append(cashflows, []any{
				r.RunID, r.Strategy, cf.Year, cf.CumulativeUnits, cf.ContributionPerUnitEUR,
				cf.CapexEUR, cf.FreeCashFlowEUR, cf.DiscountedFCFEUR, cf.CumulativeDiscountedFCFEUR,
			})
		}
	}

	if len(cashflows) > 0 {
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"valuation_cashflows"}, cashflowColumns, pgx.CopyFromRows(cashflows))
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("copy valuation cashflows: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRun retrieves valuations of a run ordered by strategy ASC,
// cash flows ordered by year ASC.
func (s *ValuationStore) GetByRun(ctx context.Context, runID string) ([]*domain.ValuationRow, error) {
	query := `
		SELECT
			run_id, strategy, contribution_per_unit_eur, growth_rate,
			npv_eur, terminal_value_discounted_eur, payback_year
		FROM valuations
		WHERE run_id = $1
		ORDER BY strategy ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get valuations by run: %w", err)
	}
	defer rows.Close()

	var result []*domain.ValuationRow
	byStrategy := make(map[string]*domain.ValuationRow)
	for rows.Next() {
		var v domain.ValuationRow
		if err := rows.Scan(
			&v.RunID, &v.Strategy, &v.ContributionPerUnitEUR, &v.GrowthRate,
			&v.NPVEUR, &v.TerminalValueDiscountedEUR, &v.PaybackYear,
		); err != nil {
			return nil, fmt.Errorf("scan valuation: %w", err)
		}
		result = append(result, &v)
		byStrategy[v.Strategy] = &v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate valuations: %w", err)
	}
	if len(result) == 0 {
		return result, nil
	}

	cfQuery := `
		SELECT
			strategy, year, cumulative_units, contribution_per_unit_eur,
			capex_eur, free_cash_flow_eur, discounted_fcf_eur, cumulative_discounted_fcf_eur
		FROM valuation_cashflows
		WHERE run_id = $1
		ORDER BY strategy ASC, year ASC
	`

	cfRows, err := s.pool.Query(ctx, cfQuery, runID)
	if err != nil {
		return nil, fmt.Errorf("get valuation cashflows by run: %w", err)
	}
	defer cfRows.Close()

	for cfRows.Next() {
		var (
			strategy string
			cf       domain.CashFlowRow
		)
		if err := cfRows.Scan(
			&strategy, &cf.Year, &cf.CumulativeUnits, &cf.ContributionPerUnitEUR,
			&cf.CapexEUR, &cf.FreeCashFlowEUR, &cf.DiscountedFCFEUR, &cf.CumulativeDiscountedFCFEUR,
		); err != nil {
			return nil, fmt.Errorf("scan valuation cashflow: %w", err)
		}
		if v, ok := byStrategy[strategy]; ok {
			v.CashFlows = append(v.CashFlows, cf)
		}
	}
	if err := cfRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate valuation cashflows: %w", err)
	}

	return result, nil
}
