package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership-entry-lab/internal/domain"
	"membership-entry-lab/internal/storage"
)

func makeDecisionRows(runID string) []*domain.DecisionRow {
	return []*domain.DecisionRow{
		{
			RunID: runID, Rank: 2, Strategy: domain.StrategyEntry,
			WeightedMeanContributionEUR: 18.2, WeightedProbLoss: 0.41, WeightedCVaR5EUR: -70.1,
			Volatility: 9.4, RiskAdjustedScore: 4.75,
		},
		{
			RunID: runID, Rank: 1, Strategy: domain.StrategyStandard,
			WeightedMeanContributionEUR: 31.6, WeightedProbLoss: 0.28, WeightedCVaR5EUR: -52.3,
			Volatility: 12.1, RiskAdjustedScore: 16.1,
		},
	}
}

func TestDecisionRowStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewDecisionRowStore(pool)

	rows := makeDecisionRows("run-1")
	require.NoError(t, store.InsertBulk(ctx, rows))

	got, err := store.GetByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, *rows[1], *got[0])
	assert.Equal(t, *rows[0], *got[1])

	empty, err := store.GetByRun(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDecisionRowStore_DuplicateRollsBack(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewDecisionRowStore(pool)

	rows := makeDecisionRows("run-dup")
	require.NoError(t, store.InsertBulk(ctx, rows[:1]))

	err := store.InsertBulk(ctx, []*domain.DecisionRow{rows[1], rows[0]})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByRun(ctx, "run-dup")
	require.NoError(t, err)
	require.Len(t, got, 1, "failed batch must not leave partial rows")
	assert.Equal(t, domain.StrategyEntry, got[0].Strategy)

	assert.ErrorIs(t, store.InsertBulk(ctx, []*domain.DecisionRow{{RunID: "x"}}), storage.ErrInvalidInput)
}
