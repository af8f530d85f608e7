package decision

import (
	"strings"
	"testing"

	"membership-entry-lab/internal/config"
	"membership-entry-lab/internal/domain"
)

func passingInput() GateInput {
	return GateInput{
		Strategy:                    "entry_35",
		RiskAdjustedScore:           2.5,
		WeightedMeanContributionEUR: 9.1,
		WeightedProbLoss:            0.72,
		NPVEUR:                      12_000_000,
		PaybackYear:                 4,
		HorizonYears:                5,
		BaseScenario:                domain.ScenarioBaseCase,
		BaseMeanEUR:                 8.4,
		StressScenario:              domain.ScenarioDownsideStress,
		StressMeanEUR:               1.2,
		HouseholdHurdleEUR:          2_000_000.0 / 450_000.0,
		MaxWeightedProbLoss:         0.9,
	}
}

func TestEvaluate_GO(t *testing.T) {
	result := NewEvaluator().Evaluate(passingInput())

	if result.Decision != DecisionGO {
		t.Errorf("Expected GO, got %s", result.Decision)
	}
	if len(result.GOCriteria) != 5 || len(result.NOGOChecks) != 3 {
		t.Fatalf("unexpected checklist size: %d GO, %d NO-GO", len(result.GOCriteria), len(result.NOGOChecks))
	}
	for i, c := range result.GOCriteria {
		if !c.Pass {
			t.Errorf("GO criterion %d (%s) should pass, got fail", i+1, c.Name)
		}
	}
	for i, c := range result.NOGOChecks {
		if !c.Pass {
			t.Errorf("NO-GO trigger %d (%s) should not be triggered", i+1, c.Name)
		}
	}
}

func TestEvaluate_NOGO(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*GateInput)
		failed string
	}{
		{"negative score", func(in *GateInput) { in.RiskAdjustedScore = -0.1 }, "Risk-adjusted score"},
		{"negative NPV", func(in *GateInput) { in.NPVEUR = -1 }, "NPV"},
		{"no payback", func(in *GateInput) { in.PaybackYear = domain.NoPayback }, "No payback"},
		{"below hurdle", func(in *GateInput) { in.BaseMeanEUR = 4.0 }, "Mean contribution (base_case)"},
		{"loss too likely", func(in *GateInput) { in.WeightedProbLoss = 0.95 }, "Weighted loss probability"},
		{"negative weighted mean", func(in *GateInput) { in.WeightedMeanContributionEUR = -1 }, "Negative weighted mean"},
		{"edge disappears", func(in *GateInput) { in.StressMeanEUR = -0.5 }, "Edge disappears under stress"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := passingInput()
			tt.modify(&input)

			result := NewEvaluator().Evaluate(input)
			if result.Decision != DecisionNOGO {
				t.Fatalf("Expected NO-GO, got %s", result.Decision)
			}

			found := false
			for _, c := range append(result.GOCriteria, result.NOGOChecks...) {
				if c.Name == tt.failed && !c.Pass {
					found = true
				}
			}
			if !found {
				t.Errorf("expected %q to fail", tt.failed)
			}
		})
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	input := passingInput()
	input.StressMeanEUR = -3

	first := RenderMarkdown(NewEvaluator().Evaluate(input))
	for i := 0; i < 5; i++ {
		if got := RenderMarkdown(NewEvaluator().Evaluate(input)); got != first {
			t.Fatalf("run %d: markdown differs", i)
		}
	}
}

func TestRenderMarkdown_GO(t *testing.T) {
	md := RenderMarkdown(NewEvaluator().Evaluate(passingInput()))

	for _, want := range []string{
		"## Recommendation Gate",
		"**GO** for `entry_35`",
		"- [x] NPV: 12000000 EUR",
		"5/5 GO criteria passed",
		"0/3 NO-GO triggers fired",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "Blocking items") {
		t.Error("GO report should not list blocking items")
	}
}

func TestRenderMarkdown_NOGO(t *testing.T) {
	input := passingInput()
	input.PaybackYear = domain.NoPayback

	md := RenderMarkdown(NewEvaluator().Evaluate(input))

	for _, want := range []string{
		"**NO-GO** for `entry_35`",
		"- [ ] Payback within horizon: none",
		"4/5 GO criteria passed",
		"1/3 NO-GO triggers fired",
		"Blocking items:",
		"- No payback: -1",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestBuilder_Build(t *testing.T) {
	cfg := config.Default()
	rows := []*domain.DecisionRow{
		{Rank: 1, Strategy: "entry_35", RiskAdjustedScore: 1.5, WeightedMeanContributionEUR: 7, WeightedProbLoss: 0.7},
	}
	valuations := []*domain.ValuationRow{{Strategy: "entry_35", NPVEUR: 3e6, PaybackYear: 5}}
	summaries := []*domain.ScenarioSummary{
		{Scenario: domain.ScenarioBaseCase, Strategy: "entry_35", MeanContributionEUR: 8},
		{Scenario: domain.ScenarioDownsideStress, Strategy: "entry_35", MeanContributionEUR: 1},
	}

	input, err := NewBuilder(cfg).Build("entry_35", rows, valuations, summaries)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if input.HorizonYears != 5 {
		t.Errorf("expected horizon 5, got %d", input.HorizonYears)
	}
	if input.BaseMeanEUR != 8 || input.StressMeanEUR != 1 {
		t.Errorf("unexpected scenario means: base=%f stress=%f", input.BaseMeanEUR, input.StressMeanEUR)
	}
	if input.MaxWeightedProbLoss != cfg.Gate.MaxWeightedProbLoss {
		t.Errorf("expected cap %f, got %f", cfg.Gate.MaxWeightedProbLoss, input.MaxWeightedProbLoss)
	}

	if _, err := NewBuilder(cfg).Build("standard_65", rows, valuations, summaries); err == nil {
		t.Error("expected error for unknown strategy")
	}
	if _, err := NewBuilder(cfg).Build("entry_35", rows, valuations, summaries[:1]); err == nil {
		t.Error("expected error for missing stress scenario")
	}
}
