package online

import (
	"math"
	"testing"
)

func TestScalerMeanAndVariance(t *testing.T) {
	s := NewScaler()
	rows := [][]float64{
		{1, 10},
		{2, 10},
		{3, 10},
	}
	if err := s.PartialFit(rows); err != nil {
		t.Fatalf("PartialFit failed: %v", err)
	}

	if math.Abs(s.Mean[0]-2.0) > 1e-9 {
		t.Fatalf("mean[0] = %.6f, want 2.0", s.Mean[0])
	}
	if math.Abs(s.Mean[1]-10.0) > 1e-9 {
		t.Fatalf("mean[1] = %.6f, want 10.0", s.Mean[1])
	}

	out := s.Transform([]float64{2, 10})
	if math.Abs(out[0]) > 1e-9 {
		t.Fatalf("transformed mean value = %.6f, want 0", out[0])
	}
	// Constant column: centered, not scaled.
	if math.Abs(out[1]) > 1e-9 {
		t.Fatalf("constant column transform = %.6f, want 0", out[1])
	}
}

func TestScalerIncrementalMatchesBatch(t *testing.T) {
	rows := [][]float64{{1, 4}, {2, 5}, {3, 6}, {4, 7}, {5, 8}}

	batch := NewScaler()
	if err := batch.PartialFit(rows); err != nil {
		t.Fatalf("batch fit failed: %v", err)
	}

	incremental := NewScaler()
	for _, r := range rows {
		if err := incremental.PartialFit([][]float64{r}); err != nil {
			t.Fatalf("incremental fit failed: %v", err)
		}
	}

	probe := []float64{2.5, 6.5}
	a, b := batch.Transform(probe), incremental.Transform(probe)
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			t.Fatalf("dim %d: batch %.9f vs incremental %.9f", i, a[i], b[i])
		}
	}
}

func TestScalerRowWidthMismatch(t *testing.T) {
	s := NewScaler()
	if err := s.PartialFit([][]float64{{1, 2, 3}}); err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	if err := s.PartialFit([][]float64{{1, 2}}); err == nil {
		t.Fatal("expected error for mismatched row width")
	}
}

func TestScalerTransformBeforeFit(t *testing.T) {
	s := NewScaler()
	row := []float64{1, 2, 3}
	out := s.Transform(row)
	for i := range row {
		if out[i] != row[i] {
			t.Fatalf("unfitted scaler must pass rows through, got %v", out)
		}
	}
}
