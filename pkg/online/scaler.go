// Package online implements the incremental learning layer: a streaming
// standard scaler, a multiclass logistic regression trained by stochastic
// gradient descent, and versioned JSON snapshots. It stacks on top of the
// static intent classifier and never replaces it; when the online model has
// not been trained yet, predictions fall back to the static result.
package online

import (
	"fmt"
	"math"
)

// Scaler standardizes features to zero mean and unit variance using
// streaming statistics (Welford's algorithm), so it can keep learning from
// batches without ever seeing the full dataset.
type Scaler struct {
	Count int       `json:"count"`
	Mean  []float64 `json:"mean"`
	M2    []float64 `json:"m2"` // sum of squared deviations
}

// NewScaler creates an empty scaler. Dimensions are fixed by the first
// PartialFit call.
func NewScaler() *Scaler {
	return &Scaler{}
}

// PartialFit updates the running statistics with a batch of rows.
func (s *Scaler) PartialFit(rows [][]float64) error {
	for _, row := range rows {
		if s.Mean == nil {
			s.Mean = make([]float64, len(row))
			s.M2 = make([]float64, len(row))
		}
		if len(row) != len(s.Mean) {
			return fmt.Errorf("scaler: row has %d features, expected %d", len(row), len(s.Mean))
		}
		s.Count++
		for i, x := range row {
			delta := x - s.Mean[i]
			s.Mean[i] += delta / float64(s.Count)
			s.M2[i] += delta * (x - s.Mean[i])
		}
	}
	return nil
}

// Transform standardizes one row. Constant features (zero variance) are
// centered but not scaled, matching scikit-learn's convention.
func (s *Scaler) Transform(row []float64) []float64 {
	if s.Count == 0 || len(row) != len(s.Mean) {
		out := make([]float64, len(row))
		copy(out, row)
		return out
	}
	out := make([]float64, len(row))
	for i, x := range row {
		std := s.std(i)
		if std == 0 {
			out[i] = x - s.Mean[i]
		} else {
			out[i] = (x - s.Mean[i]) / std
		}
	}
	return out
}

func (s *Scaler) std(i int) float64 {
	if s.Count < 1 {
		return 0
	}
	variance := s.M2[i] / float64(s.Count)
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}
