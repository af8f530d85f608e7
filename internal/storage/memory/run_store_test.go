package memory

import (
	"context"
	"errors"
	"testing"

	"membership-entry-lab/internal/domain"
	"membership-entry-lab/internal/storage"
)

func TestRunStore_InsertAndGet(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	runs := []*domain.RunRecord{
		{RunID: "b", Seed: 42, Trials: 4000, StartedAt: 2000},
		{RunID: "a", Seed: 7, Trials: 100, StartedAt: 2000},
		{RunID: "c", Seed: 1, Trials: 10, StartedAt: 1000},
	}
	for _, r := range runs {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert %s failed: %v", r.RunID, err)
		}
	}

	got, err := store.GetByID(ctx, "b")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Seed != 42 || got.Trials != 4000 {
		t.Errorf("unexpected run: %+v", got)
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	order := []string{"c", "a", "b"}
	for i, id := range order {
		if all[i].RunID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, all[i].RunID)
		}
	}
}

func TestRunStore_Errors(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	if err := store.Insert(ctx, &domain.RunRecord{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
	if err := store.Insert(ctx, &domain.RunRecord{RunID: "x"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, &domain.RunRecord{RunID: "x"}); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
