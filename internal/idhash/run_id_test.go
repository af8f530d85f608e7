package idhash

import (
	"encoding/hex"
	"strings"
	"testing"

	"membership-entry-lab/internal/config"
)

func TestComputeRunID_Deterministic(t *testing.T) {
	cfg := config.Default()

	first, err := ComputeRunID(cfg)
	if err != nil {
		t.Fatalf("ComputeRunID failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := ComputeRunID(cfg.Clone())
		if err != nil {
			t.Fatalf("ComputeRunID failed: %v", err)
		}
		if again != first {
			t.Errorf("run %d: expected %s, got %s", i, first, again)
		}
	}
}

func TestComputeRunID_ChangesWithParameters(t *testing.T) {
	base, _ := ComputeRunID(config.Default())

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"seed", func(c *config.Config) { c.Simulation.Seed = 43 }},
		{"trials", func(c *config.Config) { c.Simulation.Trials = 4001 }},
		{"strategy fee", func(c *config.Config) { c.Strategies[0].AnnualFeeEUR = 64 }},
		{"scenario weight", func(c *config.Config) { c.Scenarios[0].ProbabilityWeight = 0.49 }},
	}
	for _, tt := range tests {
		cfg := config.Default().Clone()
		tt.mutate(&cfg)
		got, err := ComputeRunID(cfg)
		if err != nil {
			t.Fatalf("%s: ComputeRunID failed: %v", tt.name, err)
		}
		if got == base {
			t.Errorf("%s: RunID did not change", tt.name)
		}
	}
}

func TestDecodeRunID_RoundTrip(t *testing.T) {
	runID, _ := ComputeRunID(config.Default())
	hash, _ := ComputeConfigHash(config.Default())

	if len(hash) != 64 {
		t.Fatalf("expected 64-char hash, got %d", len(hash))
	}

	prefix, err := DecodeRunID(runID)
	if err != nil {
		t.Fatalf("DecodeRunID failed: %v", err)
	}
	if len(prefix) != 16 {
		t.Fatalf("expected 16 bytes, got %d", len(prefix))
	}
	// RunID is a prefix of the config hash
	if !strings.HasPrefix(hash, hex.EncodeToString(prefix)) {
		t.Errorf("RunID prefix %x not a prefix of %s", prefix, hash)
	}
}

func TestDecodeRunID_Invalid(t *testing.T) {
	if _, err := DecodeRunID("0OIl"); err == nil {
		t.Error("expected error for non-base58 input")
	}
	if _, err := DecodeRunID("2g"); err == nil {
		t.Error("expected error for short input")
	}
}
