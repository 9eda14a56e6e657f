package online

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cypherlabs/guardian/pkg/features"
)

func testVector(seed float64) []float64 {
	v := make([]float64, features.Dim)
	for i := range v {
		v[i] = math.Mod(seed+float64(i)*0.13, 1.0)
	}
	return v
}

func TestPartialFitAccumulatesSamples(t *testing.T) {
	m := NewModel(t.TempDir())

	batches := [][]int{{3}, {5}, {2}}
	total := 0
	for _, b := range batches {
		n := b[0]
		vectors := make([][]float64, n)
		labels := make([]string, n)
		for i := 0; i < n; i++ {
			vectors[i] = testVector(float64(i))
			labels[i] = Classes[i%len(Classes)]
		}
		stats, err := m.PartialFit(vectors, labels)
		if err != nil {
			t.Fatalf("PartialFit failed: %v", err)
		}
		total += n
		if stats.TotalSamples != total {
			t.Fatalf("total samples = %d, want %d", stats.TotalSamples, total)
		}
		if stats.SamplesTrained != n {
			t.Fatalf("samples trained = %d, want %d", stats.SamplesTrained, n)
		}
	}
	if m.TrainingSamples() != total {
		t.Fatalf("TrainingSamples() = %d, want %d", m.TrainingSamples(), total)
	}
	if m.Version() == "" {
		t.Fatal("model version empty after training")
	}
}

func TestPartialFitDimensionMismatch(t *testing.T) {
	m := NewModel(t.TempDir())

	if _, err := m.PartialFit([][]float64{testVector(0.1)}, []string{"safe"}); err != nil {
		t.Fatalf("initial fit failed: %v", err)
	}
	before := m.TrainingSamples()
	versionBefore := m.Version()

	short := make([]float64, features.Dim-1)
	_, err := m.PartialFit([][]float64{short}, []string{"threat"})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("err = %v, want ErrDimensionMismatch", err)
	}
	if m.TrainingSamples() != before {
		t.Fatalf("sample counter moved on rejected batch: %d -> %d", before, m.TrainingSamples())
	}
	if m.Version() != versionBefore {
		t.Fatalf("version changed on rejected batch: %s -> %s", versionBefore, m.Version())
	}
}

func TestPartialFitUnknownLabel(t *testing.T) {
	m := NewModel(t.TempDir())
	_, err := m.PartialFit([][]float64{testVector(0.2)}, []string{"malware"})
	if err == nil {
		t.Fatal("expected error for label outside the class vocabulary")
	}
	if m.IsInitialized() && m.TrainingSamples() != 0 {
		t.Fatalf("counters moved on rejected label: %d", m.TrainingSamples())
	}
}

func TestPredictStaticFallbackBeforeTraining(t *testing.T) {
	m := NewModel(t.TempDir())

	fs := features.FeatureSet{
		Vector:           testVector(0.3),
		StaticIntent:     "phishing",
		StaticConfidence: 0.8,
	}
	pred := m.Predict(fs)
	if pred.ModelStatus != "static_only" {
		t.Fatalf("status = %q, want static_only before training", pred.ModelStatus)
	}
	if pred.Intent != "phishing" || pred.Confidence != 0.8 {
		t.Fatalf("fallback = %s/%.2f, want phishing/0.80", pred.Intent, pred.Confidence)
	}
}

func TestPredictDeterministic(t *testing.T) {
	// Two models trained on the same batches in the same order must agree.
	vectors := [][]float64{testVector(0.1), testVector(0.4), testVector(0.7), testVector(0.9)}
	labels := []string{"safe", "phishing", "scam", "safe"}

	a := NewModel(t.TempDir())
	b := NewModel(t.TempDir())
	for _, m := range []*Model{a, b} {
		if _, err := m.PartialFit(vectors, labels); err != nil {
			t.Fatalf("fit failed: %v", err)
		}
	}

	fs := features.FeatureSet{Vector: testVector(0.5), StaticIntent: "safe"}
	predA, predB := a.Predict(fs), b.Predict(fs)
	if predA.Intent != predB.Intent {
		t.Fatalf("intents diverge: %s vs %s", predA.Intent, predB.Intent)
	}
	for cls := range predA.ClassProbabilities {
		if math.Abs(predA.ClassProbabilities[cls]-predB.ClassProbabilities[cls]) > 1e-12 {
			t.Fatalf("probability for %s diverges", cls)
		}
	}
}

func TestPredictProbabilitiesSumToOne(t *testing.T) {
	m := NewModel(t.TempDir())
	if _, err := m.PartialFit([][]float64{testVector(0.2), testVector(0.6)}, []string{"safe", "threat"}); err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	pred := m.Predict(features.FeatureSet{Vector: testVector(0.5)})
	if pred.ModelStatus != "online" {
		t.Fatalf("status = %q, want online after training", pred.ModelStatus)
	}
	sum := 0.0
	for _, p := range pred.ClassProbabilities {
		if p < 0 || p > 1 {
			t.Fatalf("probability %.4f out of range", p)
		}
		sum += p
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("probabilities sum to %.6f, want 1.0", sum)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := NewModel(dir)
	if _, err := m.PartialFit([][]float64{testVector(0.1), testVector(0.8)}, []string{"safe", "scam"}); err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	path, err := m.SaveSnapshot()
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("snapshot written to %s, want %s", filepath.Dir(path), dir)
	}

	restored := NewModel(dir)
	if !restored.IsInitialized() {
		t.Fatal("restored model not initialized")
	}
	if restored.Version() != m.Version() {
		t.Fatalf("restored version %s, want %s", restored.Version(), m.Version())
	}
	if restored.TrainingSamples() != m.TrainingSamples() {
		t.Fatalf("restored samples %d, want %d", restored.TrainingSamples(), m.TrainingSamples())
	}

	fs := features.FeatureSet{Vector: testVector(0.5)}
	orig, rest := m.Predict(fs), restored.Predict(fs)
	if orig.Intent != rest.Intent {
		t.Fatalf("restored model predicts %s, original %s", rest.Intent, orig.Intent)
	}
}

func TestCorruptSnapshotIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "online_model_v5_202501010101.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("failed to write corrupt snapshot: %v", err)
	}

	m := NewModel(dir)
	if m.IsInitialized() {
		t.Fatal("model initialized from corrupt snapshot")
	}
	// Still trainable afterwards.
	if _, err := m.PartialFit([][]float64{testVector(0.3)}, []string{"safe"}); err != nil {
		t.Fatalf("fit after corrupt snapshot failed: %v", err)
	}
}

func TestIncompleteSnapshotIgnored(t *testing.T) {
	fullRows := func() [][]float64 {
		rows := make([][]float64, len(Classes))
		for i := range rows {
			rows[i] = make([]float64, features.Dim)
		}
		return rows
	}
	shortRows := fullRows()
	shortRows[2] = make([]float64, features.Dim-3)

	scaler := map[string]any{
		"count": 9,
		"mean":  make([]float64, features.Dim),
		"m2":    make([]float64, features.Dim),
	}

	tests := []struct {
		name string
		snap map[string]any
	}{
		{
			name: "missing scaler",
			snap: map[string]any{
				"weights":     fullRows(),
				"biases":      make([]float64, len(Classes)),
				"feature_dim": features.Dim,
			},
		},
		{
			name: "short weight row",
			snap: map[string]any{
				"weights":     shortRows,
				"biases":      make([]float64, len(Classes)),
				"scaler":      scaler,
				"feature_dim": features.Dim,
			},
		},
		{
			name: "wrong bias count",
			snap: map[string]any{
				"weights":     fullRows(),
				"biases":      make([]float64, len(Classes)-1),
				"scaler":      scaler,
				"feature_dim": features.Dim,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			data, err := json.Marshal(tt.snap)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}
			path := filepath.Join(dir, "online_model_v9_202501010101.json")
			if err := os.WriteFile(path, data, 0o644); err != nil {
				t.Fatalf("failed to write snapshot: %v", err)
			}

			m := NewModel(dir)
			if m.IsInitialized() {
				t.Fatal("model initialized from a structurally incomplete snapshot")
			}
			// Never crash: the model stays usable for inference and training.
			pred := m.Predict(features.FeatureSet{Vector: testVector(0.4), StaticIntent: "safe"})
			if pred.ModelStatus != "static_only" {
				t.Fatalf("status = %q, want static_only after rejected snapshot", pred.ModelStatus)
			}
			if _, err := m.PartialFit([][]float64{testVector(0.3)}, []string{"safe"}); err != nil {
				t.Fatalf("fit after rejected snapshot failed: %v", err)
			}
		})
	}
}

func TestSnapshotUninitialized(t *testing.T) {
	m := NewModel(t.TempDir())
	if _, err := m.SaveSnapshot(); err == nil {
		t.Fatal("expected error snapshotting an uninitialized model")
	}
}
