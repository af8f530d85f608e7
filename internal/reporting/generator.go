package reporting

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"membership-entry-lab/internal/config"
	"membership-entry-lab/internal/decision"
	"membership-entry-lab/internal/domain"
	"membership-entry-lab/internal/sensitivity"
	"membership-entry-lab/internal/storage"
)

// Generator produces reports from stored run data.
type Generator struct {
	cfg         config.Config
	stores      storage.Stores
	auditFlags  []AuditFlag
	sensitivity *sensitivity.Result
	now         func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. cfg must be the parameter
// set the run was produced with; it supplies ordering and gate thresholds.
func NewGenerator(cfg config.Config, stores storage.Stores) *Generator {
	return &Generator{
		cfg:    cfg,
		stores: stores,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithAuditFlags attaches compliance audit flags to the report.
func (g *Generator) WithAuditFlags(flags []AuditFlag) *Generator {
	g.auditFlags = flags
	return g
}

// WithSensitivity attaches a sensitivity result to the report.
func (g *Generator) WithSensitivity(s *sensitivity.Result) *Generator {
	g.sensitivity = s
	return g
}

// Generate produces the report of a stored run.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	run, err := g.stores.Runs.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	summaries, err := g.stores.Summaries.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}
	decisions, err := g.stores.Decisions.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load decision rows: %w", err)
	}
	valuations, err := g.stores.Valuations.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load valuations: %w", err)
	}

	g.sortSummaries(summaries)
	valuations = orderByRank(valuations, decisions)

	var gate *decision.DecisionResult
	if len(decisions) > 0 {
		input, err := decision.NewBuilder(g.cfg).Build(decisions[0].Strategy, decisions, valuations, summaries)
		if err != nil {
			return nil, fmt.Errorf("build gate input: %w", err)
		}
		gate = decision.NewEvaluator().Evaluate(*input)
	}

	strategySet := make(map[string]struct{})
	scenarioSet := make(map[string]struct{})
	for _, s := range summaries {
		strategySet[s.Strategy] = struct{}{}
		scenarioSet[s.Scenario] = struct{}{}
	}

	return &Report{
		GeneratedAt:        g.now(),
		Run:                run,
		ScenarioCount:      len(scenarioSet),
		StrategyCount:      len(strategySet),
		Scenarios:          summaries,
		ScenarioComparison: g.compareScenarios(summaries, decisions),
		Decisions:          decisions,
		Valuations:         valuations,
		Gate:               gate,
		Sensitivity:        g.sensitivity,
		AuditFlags:         g.auditFlags,
	}, nil
}

// sortSummaries orders summaries by configured scenario order, then
// configured strategy order; unknown names sort last by name.
func (g *Generator) sortSummaries(summaries []*domain.ScenarioSummary) {
	scenarioIdx := make(map[string]int, len(g.cfg.Scenarios))
	for i, s := range g.cfg.Scenarios {
		scenarioIdx[s.Name] = i
	}
	strategyIdx := make(map[string]int, len(g.cfg.Strategies))
	for i, s := range g.cfg.Strategies {
		strategyIdx[s.Name] = i
	}
	position := func(idx map[string]int, name string) int {
		if i, ok := idx[name]; ok {
			return i
		}
		return len(idx)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if pa, pb := position(scenarioIdx, a.Scenario), position(scenarioIdx, b.Scenario); pa != pb {
			return pa < pb
		}
		if a.Scenario != b.Scenario {
			return a.Scenario < b.Scenario
		}
		if pa, pb := position(strategyIdx, a.Strategy), position(strategyIdx, b.Strategy); pa != pb {
			return pa < pb
		}
		return a.Strategy < b.Strategy
	})
}

// compareScenarios builds base vs stress rows in decision rank order.
func (g *Generator) compareScenarios(summaries []*domain.ScenarioSummary, decisions []*domain.DecisionRow) []ScenarioComparisonRow {
	type pair struct{ base, stress *domain.ScenarioSummary }
	byStrategy := make(map[string]*pair)
	for _, s := range summaries {
		p := byStrategy[s.Strategy]
		if p == nil {
			p = &pair{}
			byStrategy[s.Strategy] = p
		}
		switch s.Scenario {
		case g.cfg.Gate.BaseScenario:
			p.base = s
		case g.cfg.Gate.StressScenario:
			p.stress = s
		}
	}

	var rows []ScenarioComparisonRow
	for _, d := range decisions {
		p := byStrategy[d.Strategy]
		if p == nil || p.base == nil || p.stress == nil {
			continue
		}
		row := ScenarioComparisonRow{
			Strategy:      d.Strategy,
			BaseMeanEUR:   p.base.MeanContributionEUR,
			StressMeanEUR: p.stress.MeanContributionEUR,
		}
		if row.BaseMeanEUR != 0 {
			row.DegradationPct = (row.BaseMeanEUR - row.StressMeanEUR) / math.Abs(row.BaseMeanEUR) * 100
		}
		rows = append(rows, row)
	}
	return rows
}

// orderByRank returns valuations in the order of their decision rows.
// Valuations without a decision row keep their relative order at the end.
func orderByRank(valuations []*domain.ValuationRow, decisions []*domain.DecisionRow) []*domain.ValuationRow {
	rank := make(map[string]int, len(decisions))
	for _, d := range decisions {
		rank[d.Strategy] = d.Rank
	}
	out := append([]*domain.ValuationRow(nil), valuations...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, okI := rank[out[i].Strategy]
		rj, okJ := rank[out[j].Strategy]
		if okI != okJ {
			return okI
		}
		return ri < rj
	})
	return out
}
