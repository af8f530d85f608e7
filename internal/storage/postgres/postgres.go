// Package postgres stores run records, ranked decision rows and valuations
// with their yearly cash flows in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"membership-entry-lab/internal/storage/migrations"
)

// uniqueViolation is the SQLSTATE raised when a run or a (run_id, strategy)
// row is inserted twice.
const uniqueViolation = "23505"

// Pool is the connection pool shared by the run, decision row and
// valuation stores.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects to the results database and pings it.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Pool{Pool: pool}, nil
}

// OpenAndMigrate connects and creates the runs, decision_rows, valuations
// and valuation_cashflows tables if missing.
func OpenAndMigrate(ctx context.Context, dsn string) (*Pool, error) {
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Close releases all pooled connections.
func (p *Pool) Close() {
	p.Pool.Close()
}

// Migrate applies the embedded result-table migrations. Safe to repeat.
func (p *Pool) Migrate(ctx context.Context) error {
	return migrations.ApplyPostgres(ctx, p.Pool)
}

// isDuplicateKeyError reports whether err is a repeated run or strategy row.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// isNotFoundError reports whether a single-row lookup matched nothing.
func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
