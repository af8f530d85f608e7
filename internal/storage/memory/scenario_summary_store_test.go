package memory

import (
	"context"
	"errors"
	"testing"

	"membership-entry-lab/internal/domain"
	"membership-entry-lab/internal/storage"
)

func TestScenarioSummaryStore_InsertAndGet(t *testing.T) {
	store := NewScenarioSummaryStore()
	ctx := context.Background()

	summaries := []*domain.ScenarioSummary{
		{RunID: "run-1", Scenario: "upside_recovery", Strategy: "entry_35", MeanContributionEUR: 9.5},
		{RunID: "run-1", Scenario: "base_case", Strategy: "standard_65", ProbLoss: 0.8},
		{RunID: "run-1", Scenario: "base_case", Strategy: "entry_35", ProbLoss: 0.7},
		{RunID: "run-2", Scenario: "base_case", Strategy: "entry_35"},
	}
	if err := store.InsertBulk(ctx, summaries); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByKey(ctx, "run-1", "base_case", "standard_65")
	if err != nil {
		t.Fatalf("GetByKey failed: %v", err)
	}
	if got.ProbLoss != 0.8 {
		t.Errorf("ProbLoss mismatch: got %f, want %f", got.ProbLoss, 0.8)
	}

	byRun, err := store.GetByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByRun failed: %v", err)
	}
	if len(byRun) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(byRun))
	}
	want := [][2]string{{"base_case", "entry_35"}, {"base_case", "standard_65"}, {"upside_recovery", "entry_35"}}
	for i, w := range want {
		if byRun[i].Scenario != w[0] || byRun[i].Strategy != w[1] {
			t.Errorf("row %d: expected %s/%s, got %s/%s", i, w[0], w[1], byRun[i].Scenario, byRun[i].Strategy)
		}
	}
}

func TestScenarioSummaryStore_DuplicateKey(t *testing.T) {
	store := NewScenarioSummaryStore()
	ctx := context.Background()

	s := &domain.ScenarioSummary{RunID: "run-1", Scenario: "base_case", Strategy: "entry_35"}
	if err := store.InsertBulk(ctx, []*domain.ScenarioSummary{s}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, []*domain.ScenarioSummary{s})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestScenarioSummaryStore_IntraBatchDuplicateIsAtomic(t *testing.T) {
	store := NewScenarioSummaryStore()
	ctx := context.Background()

	batch := []*domain.ScenarioSummary{
		{RunID: "run-1", Scenario: "base_case", Strategy: "standard_65"},
		{RunID: "run-1", Scenario: "base_case", Strategy: "entry_35"},
		{RunID: "run-1", Scenario: "base_case", Strategy: "entry_35"},
	}
	if err := store.InsertBulk(ctx, batch); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}

	_, err := store.GetByKey(ctx, "run-1", "base_case", "standard_65")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected nothing inserted, got %v", err)
	}
}

func TestScenarioSummaryStore_InvalidInput(t *testing.T) {
	store := NewScenarioSummaryStore()
	err := store.InsertBulk(context.Background(), []*domain.ScenarioSummary{{Scenario: "base_case", Strategy: "entry_35"}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestScenarioSummaryStore_ReturnsCopies(t *testing.T) {
	store := NewScenarioSummaryStore()
	ctx := context.Background()

	s := &domain.ScenarioSummary{RunID: "run-1", Scenario: "base_case", Strategy: "entry_35", MeanContributionEUR: 1}
	if err := store.InsertBulk(ctx, []*domain.ScenarioSummary{s}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	s.MeanContributionEUR = 99

	got, _ := store.GetByKey(ctx, "run-1", "base_case", "entry_35")
	got.MeanContributionEUR = 42

	again, _ := store.GetByKey(ctx, "run-1", "base_case", "entry_35")
	if again.MeanContributionEUR != 1 {
		t.Errorf("store shares memory with callers: got %f", again.MeanContributionEUR)
	}
}
