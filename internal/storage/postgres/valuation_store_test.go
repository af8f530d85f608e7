package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership-entry-lab/internal/domain"
	"membership-entry-lab/internal/storage"
)

func makeValuation(runID, strategy string, years int) *domain.ValuationRow {
	v := &domain.ValuationRow{
		RunID:                      runID,
		Strategy:                   strategy,
		ContributionPerUnitEUR:     1_250_000,
		GrowthRate:                 0.2,
		NPVEUR:                     3_400_000.5,
		TerminalValueDiscountedEUR: 9_100_000,
		PaybackYear:                domain.NoPayback,
	}
	cumulative := 0.0
	for y := 1; y <= years; y++ {
		disc := float64(y) * -100_000
		cumulative += disc
		v.CashFlows = append(v.CashFlows, domain.CashFlowRow{
			Year:                       y,
			CumulativeUnits:            y,
			ContributionPerUnitEUR:     1_250_000,
			CapexEUR:                   4_000_000,
			FreeCashFlowEUR:            disc * 1.1,
			DiscountedFCFEUR:           disc,
			CumulativeDiscountedFCFEUR: cumulative,
		})
	}
	return v
}

func TestValuationStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewValuationStore(pool)

	rows := []*domain.ValuationRow{
		makeValuation("run-1", domain.StrategySubsidized, 5),
		makeValuation("run-1", domain.StrategyEntry, 3),
	}
	require.NoError(t, store.InsertBulk(ctx, rows))

	got, err := store.GetByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// strategy ASC
	assert.Equal(t, domain.StrategyEntry, got[0].Strategy)
	assert.Equal(t, domain.StrategySubsidized, got[1].Strategy)
	assert.Equal(t, *rows[1], *got[0])
	assert.Equal(t, *rows[0], *got[1])

	for i, cf := range got[1].CashFlows {
		assert.Equal(t, i+1, cf.Year)
	}
}

func TestValuationStore_DuplicateRollsBack(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewValuationStore(pool)

	require.NoError(t, store.InsertBulk(ctx, []*domain.ValuationRow{makeValuation("run-dup", domain.StrategyStandard, 2)}))

	err := store.InsertBulk(ctx, []*domain.ValuationRow{
		makeValuation("run-dup", domain.StrategyEntry, 2),
		makeValuation("run-dup", domain.StrategyStandard, 2),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByRun(ctx, "run-dup")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].CashFlows, 2)

	empty, err := store.GetByRun(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
