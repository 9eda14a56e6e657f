package classify

// textmodel.go - shared Hugot/ONNX text-classification wrapper used by the
// AI-generation detector and the intent classifier's ML layer.
//
// Architecture:
// - ONNX Runtime backend when libonnxruntime is installed, pure Go otherwise
// - Fully local inference, no external API calls
// - Gracefully degrades to nil when no model directory is present; callers
//   must treat a nil or not-ready model as "layer unavailable"

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
	"github.com/knights-analytics/hugot/pipelines"
)

// TextModel wraps a Hugot text-classification pipeline behind a ready flag.
type TextModel struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
	mu       sync.RWMutex
	ready    bool
	name     string
}

// TextModelConfig configures a TextModel.
type TextModelConfig struct {
	// ModelPath is the local path to the ONNX model directory. The directory
	// must contain model.onnx plus tokenizer files.
	ModelPath string

	// Name identifies the pipeline in logs.
	Name string

	// OnnxLibraryPath points at libonnxruntime.so. Empty = pure Go backend.
	OnnxLibraryPath string

	// Timeout bounds a single inference call.
	Timeout time.Duration
}

// ModelPrediction is one label/score pair from the classification head.
type ModelPrediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// defaultOnnxLibraryPath returns the ONNX Runtime location for this platform.
func defaultOnnxLibraryPath() string {
	paths := []string{
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/opt/homebrew/lib/libonnxruntime.dylib",
		"/usr/local/lib/libonnxruntime.dylib",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return filepath.Dir(p)
		}
	}
	return ""
}

// NewTextModel creates a model from the given config. Returns an error when
// the model directory is missing or the session cannot be created.
func NewTextModel(cfg TextModelConfig) (*TextModel, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("no model path specified")
	}
	if _, err := os.Stat(filepath.Join(cfg.ModelPath, "model.onnx")); err != nil {
		return nil, fmt.Errorf("model.onnx not found in %s", cfg.ModelPath)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.OnnxLibraryPath == "" {
		cfg.OnnxLibraryPath = defaultOnnxLibraryPath()
	}
	if cfg.Name == "" {
		cfg.Name = "text-classifier"
	}

	m := &TextModel{name: cfg.Name}
	if err := m.initialize(cfg); err != nil {
		return nil, err
	}
	return m, nil
}

// NewTextModelWithFallback creates a model that degrades gracefully: on any
// initialization failure the returned model is non-nil but not ready.
func NewTextModelWithFallback(cfg TextModelConfig) *TextModel {
	m, err := NewTextModel(cfg)
	if err != nil {
		log.Printf("[ML] %s unavailable (heuristic fallback active): %v", cfg.Name, err)
		return &TextModel{name: cfg.Name, ready: false}
	}
	return m
}

func (m *TextModel) initialize(cfg TextModelConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.createSession(cfg)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	m.session = session

	pipelineCfg := hugot.TextClassificationConfig{
		ModelPath: cfg.ModelPath,
		Name:      cfg.Name,
	}
	pipeline, err := hugot.NewPipeline(session, pipelineCfg)
	if err != nil {
		_ = m.session.Destroy()
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	m.pipeline = pipeline
	m.ready = true
	log.Printf("[ML] %s initialized (model: %s)", cfg.Name, cfg.ModelPath)
	return nil
}

func (m *TextModel) createSession(cfg TextModelConfig) (*hugot.Session, error) {
	// ONNX Runtime backend first (fastest)
	if cfg.OnnxLibraryPath != "" {
		session, err := hugot.NewORTSession(options.WithOnnxLibraryPath(cfg.OnnxLibraryPath))
		if err == nil {
			return session, nil
		}
		log.Printf("[ML] ONNX Runtime unavailable, falling back to Go backend: %v", err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create Go session: %w", err)
	}
	return session, nil
}

// IsReady reports whether the model can serve inference.
func (m *TextModel) IsReady() bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready
}

// Classify runs the classification head on a single text and returns the top
// label with its score.
func (m *TextModel) Classify(ctx context.Context, text string) (ModelPrediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.ready || m.pipeline == nil {
		return ModelPrediction{}, fmt.Errorf("%s not ready", m.name)
	}

	result, err := m.pipeline.RunPipeline([]string{text})
	if err != nil {
		return ModelPrediction{}, fmt.Errorf("classification failed: %w", err)
	}
	if len(result.ClassificationOutputs) == 0 || len(result.ClassificationOutputs[0]) == 0 {
		return ModelPrediction{}, fmt.Errorf("no classification output")
	}

	out := result.ClassificationOutputs[0][0]
	return ModelPrediction{Label: out.Label, Score: float64(out.Score)}, nil
}

// Close releases the underlying ONNX session.
func (m *TextModel) Close() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ready = false
	if m.session != nil {
		if err := m.session.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
	}
	return nil
}
