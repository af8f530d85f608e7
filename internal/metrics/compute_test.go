package metrics

import (
	"math"
	"testing"
)

func TestComputePercentile_LinearInterpolation(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}

	tests := []struct {
		p    float64
		want float64
	}{
		{0.0, 10},
		{0.10, 14}, // idx 0.4
		{0.50, 30},
		{0.90, 46}, // idx 3.6
		{1.0, 50},
	}
	for _, tt := range tests {
		got := computePercentile(sorted, tt.p)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("p=%.2f: expected %f, got %f", tt.p, tt.want, got)
		}
	}
}

func TestComputePercentile_SingleValue(t *testing.T) {
	if got := computePercentile([]float64{-3}, 0.9); got != -3 {
		t.Errorf("expected -3, got %f", got)
	}
	if got := computePercentile(nil, 0.5); got != 0 {
		t.Errorf("expected 0 for empty input, got %f", got)
	}
}

func TestComputeCVaR_WorstTail(t *testing.T) {
	// 100 values 1..100; worst 5% = 1..5, mean 3
	sorted := make([]float64, 100)
	for i := range sorted {
		sorted[i] = float64(i + 1)
	}
	if got := computeCVaR(sorted, 0.05); got != 3 {
		t.Errorf("expected CVaR 3, got %f", got)
	}
}

func TestComputeCVaR_RoundsUpToOneTrial(t *testing.T) {
	sorted := []float64{-10, 1, 2, 3}
	if got := computeCVaR(sorted, 0.05); got != -10 {
		t.Errorf("expected CVaR -10 (one trial), got %f", got)
	}
}

func TestTailCount(t *testing.T) {
	tests := []struct {
		n    int
		tail float64
		want int
	}{
		{0, 0.05, 0},
		{1, 0.05, 1},
		{19, 0.05, 1},
		{21, 0.05, 2},
		{100, 0.05, 5},
		{4000, 0.05, 200},
		{10, 1.0, 10},
	}
	for _, tt := range tests {
		if got := tailCount(tt.n, tt.tail); got != tt.want {
			t.Errorf("tailCount(%d, %.2f): expected %d, got %d", tt.n, tt.tail, tt.want, got)
		}
	}
}

func TestComputeStddev_Sample(t *testing.T) {
	// values 2,4,4,4,5,5,7,9: sample variance 32/7
	got := computeStddev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	want := math.Sqrt(32.0 / 7.0)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("expected %f, got %f", want, got)
	}
	if got := computeStddev([]float64{1}); got != 0 {
		t.Errorf("expected 0 for a single sample, got %f", got)
	}
}

func TestComputeFraction(t *testing.T) {
	values := []float64{-1, 0, 1, -2}
	got := computeFraction(values, func(v float64) bool { return v < 0 })
	if got != 0.5 {
		t.Errorf("expected 0.5, got %f", got)
	}
}
