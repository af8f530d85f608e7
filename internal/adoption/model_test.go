package adoption

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership-entry-lab/internal/config"
	"membership-entry-lab/internal/domain"
)

func testModel() *Model {
	return NewModel(ParamsFromConfig(config.Default()))
}

func baseHousehold() domain.HouseholdContext {
	return domain.HouseholdContext{
		YearlySpendEUR:    4800,
		DiscountRate:      0.10,
		Resistance:        2.28,
		CueExposure:       1.0,
		CompetitorPenalty: 0.02,
	}
}

func TestEvaluate_ProbabilityBounds(t *testing.T) {
	m := testModel()
	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 5000; i++ {
		h := domain.HouseholdContext{
			YearlySpendEUR:    rng.Float64() * 50000,
			DiscountRate:      rng.Float64(),
			Resistance:        rng.Float64() * 10,
			CueExposure:       rng.Float64() * 3,
			CompetitorPenalty: rng.Float64() * 0.08,
			Noise:             rng.NormFloat64() * 5,
		}
		s := domain.StrategyDefinition{
			Name:                "random",
			AnnualFeeEUR:        rng.Float64() * 5000,
			BulkDiscountRate:    rng.Float64(),
			IncrementalInfoCues: rng.IntN(5),
		}

		res, err := m.Evaluate(h, s)
		require.NoError(t, err)
		if res.Probability < 0 || res.Probability > 1 {
			t.Fatalf("probability out of bounds: %v (h=%+v s=%+v)", res.Probability, h, s)
		}
	}
}

func TestEvaluate_NegativeNetBenefitStillValid(t *testing.T) {
	h := baseHousehold()
	h.YearlySpendEUR = 100
	s := domain.StrategyDefinition{Name: "expensive", AnnualFeeEUR: 400, BulkDiscountRate: 0.10}

	res, err := testModel().Evaluate(h, s)
	require.NoError(t, err)

	assert.Less(t, res.NetBenefitEUR, 0.0)
	assert.Greater(t, res.Probability, 0.0)
	assert.Less(t, res.Probability, 0.5)
}

func TestEvaluate_NetBenefitUsesSubsidisedFee(t *testing.T) {
	res, err := testModel().Evaluate(baseHousehold(), domain.StrategyDefinitionSubsidized)
	require.NoError(t, err)

	// 4800 * 0.10 - (65 - 45)
	assert.InDelta(t, 460.0, res.NetBenefitEUR, 1e-9)
}

func TestEvaluate_LowerFeeRaisesProbability(t *testing.T) {
	m := testModel()
	h := baseHousehold()

	high, err := m.Evaluate(h, domain.StrategyDefinition{Name: "high", AnnualFeeEUR: 65, BulkDiscountRate: 0.10})
	require.NoError(t, err)
	low, err := m.Evaluate(h, domain.StrategyDefinition{Name: "low", AnnualFeeEUR: 35, BulkDiscountRate: 0.10})
	require.NoError(t, err)

	assert.Greater(t, low.Probability, high.Probability)
}

func TestEvaluate_ResistanceAndCompetitionLowerProbability(t *testing.T) {
	m := testModel()
	s := domain.StrategyDefinitionStandard

	base, err := m.Evaluate(baseHousehold(), s)
	require.NoError(t, err)

	resistant := baseHousehold()
	resistant.Resistance += 1
	r, err := m.Evaluate(resistant, s)
	require.NoError(t, err)
	assert.Less(t, r.Probability, base.Probability)

	contested := baseHousehold()
	contested.CompetitorPenalty += 0.05
	c, err := m.Evaluate(contested, s)
	require.NoError(t, err)
	assert.Less(t, c.Probability, base.Probability)
}

func TestEvaluate_InfoCuesRaiseProbability(t *testing.T) {
	m := testModel()
	h := baseHousehold()

	none, err := m.Evaluate(h, domain.StrategyDefinition{Name: "a", AnnualFeeEUR: 65, BulkDiscountRate: 0.1})
	require.NoError(t, err)
	more, err := m.Evaluate(h, domain.StrategyDefinition{Name: "b", AnnualFeeEUR: 65, BulkDiscountRate: 0.1, IncrementalInfoCues: 2})
	require.NoError(t, err)

	assert.InDelta(t, 2*0.18, more.Score-none.Score, 1e-12)
}

func TestEvaluate_NonFiniteInputIsNumericAnomaly(t *testing.T) {
	h := baseHousehold()
	h.YearlySpendEUR = math.NaN()

	_, err := testModel().Evaluate(h, domain.StrategyDefinitionEntry)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNumericAnomaly))

	var anomaly *domain.NumericAnomalyError
	require.True(t, errors.As(err, &anomaly))
	assert.Equal(t, "yearly_spend", anomaly.Quantity)
	assert.Equal(t, domain.StrategyEntry, anomaly.Strategy)
}

func TestEvaluate_SaturatesWithoutNaN(t *testing.T) {
	h := baseHousehold()
	h.Noise = -1e6

	res, err := testModel().Evaluate(h, domain.StrategyDefinitionStandard)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Probability)

	h.Noise = 1e6
	res, err = testModel().Evaluate(h, domain.StrategyDefinitionStandard)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Probability)
}

func TestCulturalResistance_SavingsTrap(t *testing.T) {
	c := config.Default().Cultural

	base := CulturalResistance(c, domain.ScenarioDefinitionBaseCase)
	upside := CulturalResistance(c, domain.ScenarioDefinitionUpsideRecovery)

	// 0.70 + 0.70*0.60 + 0.30*0.65 + 0.25*0.83 = 1.5225
	assert.InDelta(t, 1.5225, upside, 1e-12)
	assert.InDelta(t, 1.5225*1.5, base, 1e-12)
	assert.True(t, InSavingsTrap(c, domain.ScenarioDefinitionDownsideStress))
	assert.False(t, InSavingsTrap(c, domain.ScenarioDefinitionUpsideRecovery))
}
