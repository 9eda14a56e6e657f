package online

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/cypherlabs/guardian/pkg/features"
)

// Classes is the fixed label vocabulary. Every fit call trains against the
// full set so class order (and therefore weight row order) never shifts
// between batches or across snapshot reloads.
var Classes = []string{"safe", "threat", "phishing", "scam", "spam", "propaganda"}

// ErrDimensionMismatch is returned when a feature vector's length differs
// from the dimension the model was initialized with. Vectors are never
// truncated or padded; a mismatch means the feature contract was broken.
var ErrDimensionMismatch = errors.New("feature dimension mismatch")

// SGD hyperparameters (logistic loss, L2 penalty).
const (
	l2Alpha      = 0.0001
	learningRate = 0.01
)

// Model is a multiclass logistic regression trained incrementally with
// one-vs-rest stochastic gradient descent. Zero-initialized weights make
// training deterministic for a given sample order.
type Model struct {
	mu sync.RWMutex

	scaler     *Scaler
	weights    [][]float64 // [class][feature]
	biases     []float64
	featureDim int

	trainingSamples int
	modelVersion    string
	lastTrained     time.Time

	modelDir string
}

// FitStats summarizes one PartialFit call.
type FitStats struct {
	SamplesTrained int     `json:"samples_trained"`
	TotalSamples   int     `json:"total_samples"`
	ModelVersion   string  `json:"model_version"`
	TrainingTimeMs float64 `json:"training_time_ms"`
}

// Prediction is the online model's output for one text.
type Prediction struct {
	Intent             string             `json:"intent"`
	Confidence         float64            `json:"confidence"`
	ClassProbabilities map[string]float64 `json:"class_probabilities"`
	ModelVersion       string             `json:"model_version"`
	ModelStatus        string             `json:"model_status"` // "online" or "static_only"

	StaticIntent     string  `json:"static_intent"`
	StaticConfidence float64 `json:"static_probability"`
}

// NewModel creates a model rooted at modelDir and loads the most recent
// snapshot if one exists. An empty or missing directory is not an error; the
// model stays uninitialized until the first training batch.
func NewModel(modelDir string) *Model {
	m := &Model{modelDir: modelDir}
	if err := m.loadLatestSnapshot(); err != nil {
		log.Printf("[ML] No usable online model snapshot: %v", err)
	}
	return m
}

// IsInitialized reports whether at least one training batch has been applied.
func (m *Model) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.weights != nil
}

// Version returns the current model version, or "" before first training.
func (m *Model) Version() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.modelVersion
}

// FeatureDim returns the frozen feature dimension, 0 before initialization.
func (m *Model) FeatureDim() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.featureDim
}

// TrainingSamples returns the cumulative number of samples trained on.
func (m *Model) TrainingSamples() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trainingSamples
}

// LastTrained returns the time of the most recent fit, zero before training.
func (m *Model) LastTrained() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastTrained
}

// PartialFit applies one batch of labeled vectors. The feature dimension is
// frozen by the first batch; later batches with a different dimension fail
// with ErrDimensionMismatch and leave all counters untouched. Labels outside
// the class vocabulary are rejected the same way, before any state changes.
func (m *Model) PartialFit(vectors [][]float64, labels []string) (FitStats, error) {
	start := time.Now()

	if len(vectors) == 0 || len(vectors) != len(labels) {
		return FitStats{}, fmt.Errorf("invalid batch: %d vectors, %d labels", len(vectors), len(labels))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	dim := m.featureDim
	if dim == 0 {
		dim = len(vectors[0])
	}
	for _, v := range vectors {
		if len(v) != dim {
			return FitStats{}, fmt.Errorf("%w: got %d, model expects %d", ErrDimensionMismatch, len(v), dim)
		}
	}
	labelIdx := make([]int, len(labels))
	for i, label := range labels {
		idx := classIndex(label)
		if idx < 0 {
			return FitStats{}, fmt.Errorf("unknown class label %q", label)
		}
		labelIdx[i] = idx
	}

	if m.weights == nil {
		m.initLocked(dim)
	}

	if err := m.scaler.PartialFit(vectors); err != nil {
		return FitStats{}, err
	}

	for i, v := range vectors {
		scaled := m.scaler.Transform(v)
		m.sgdStep(scaled, labelIdx[i])
	}

	m.trainingSamples += len(vectors)
	m.lastTrained = time.Now()
	m.modelVersion = fmt.Sprintf("v%d_%s", m.trainingSamples, m.lastTrained.Format("200601021504"))

	return FitStats{
		SamplesTrained: len(vectors),
		TotalSamples:   m.trainingSamples,
		ModelVersion:   m.modelVersion,
		TrainingTimeMs: float64(time.Since(start).Microseconds()) / 1000,
	}, nil
}

// Predict classifies an extracted feature set. Before the first training
// batch (or on dimension mismatch) it returns the static classifier's
// verdict with status "static_only".
func (m *Model) Predict(fs features.FeatureSet) Prediction {
	m.mu.RLock()
	defer m.mu.RUnlock()

	staticFallback := Prediction{
		Intent:             fs.StaticIntent,
		Confidence:         fs.StaticConfidence,
		ClassProbabilities: map[string]float64{fs.StaticIntent: fs.StaticConfidence},
		ModelVersion:       m.modelVersion,
		ModelStatus:        "static_only",
		StaticIntent:       fs.StaticIntent,
		StaticConfidence:   fs.StaticConfidence,
	}

	if m.weights == nil || len(fs.Vector) != m.featureDim {
		return staticFallback
	}

	scaled := m.scaler.Transform(fs.Vector)
	probs := m.predictProba(scaled)

	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}

	classProbs := make(map[string]float64, len(Classes))
	for i, cls := range Classes {
		classProbs[cls] = probs[i]
	}

	return Prediction{
		Intent:             Classes[best],
		Confidence:         probs[best],
		ClassProbabilities: classProbs,
		ModelVersion:       m.modelVersion,
		ModelStatus:        "online",
		StaticIntent:       fs.StaticIntent,
		StaticConfidence:   fs.StaticConfidence,
	}
}

func (m *Model) initLocked(dim int) {
	m.featureDim = dim
	m.scaler = NewScaler()
	m.weights = make([][]float64, len(Classes))
	for i := range m.weights {
		m.weights[i] = make([]float64, dim)
	}
	m.biases = make([]float64, len(Classes))
	m.modelVersion = fmt.Sprintf("v0_init_%s", time.Now().Format("200601021504"))
	log.Printf("[ML] Initialized online model (feature_dim=%d)", dim)
}

// sgdStep applies one one-vs-rest logistic update: the true class trains
// toward 1, every other class toward 0, each with L2 weight decay.
func (m *Model) sgdStep(x []float64, trueClass int) {
	for c := range m.weights {
		target := 0.0
		if c == trueClass {
			target = 1.0
		}
		p := sigmoid(dot(m.weights[c], x) + m.biases[c])
		grad := p - target
		for j := range x {
			m.weights[c][j] -= learningRate * (grad*x[j] + l2Alpha*m.weights[c][j])
		}
		m.biases[c] -= learningRate * grad
	}
}

// predictProba returns per-class probabilities: one-vs-rest sigmoids
// normalized to sum to 1.
func (m *Model) predictProba(x []float64) []float64 {
	probs := make([]float64, len(m.weights))
	sum := 0.0
	for c := range m.weights {
		probs[c] = sigmoid(dot(m.weights[c], x) + m.biases[c])
		sum += probs[c]
	}
	if sum == 0 {
		uniform := 1.0 / float64(len(probs))
		for c := range probs {
			probs[c] = uniform
		}
		return probs
	}
	for c := range probs {
		probs[c] /= sum
	}
	return probs
}

func classIndex(label string) int {
	for i, cls := range Classes {
		if cls == label {
			return i
		}
	}
	return -1
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func dot(w, x []float64) float64 {
	s := 0.0
	for i := range w {
		s += w[i] * x[i]
	}
	return s
}
