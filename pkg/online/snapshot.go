package online

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// snapshot is the on-disk JSON form of a trained model.
type snapshot struct {
	Weights         [][]float64 `json:"weights"`
	Biases          []float64   `json:"biases"`
	Scaler          *Scaler     `json:"scaler"`
	FeatureDim      int         `json:"feature_dim"`
	ModelVersion    string      `json:"model_version"`
	TrainingSamples int         `json:"training_samples"`
	LastTrained     time.Time   `json:"last_trained"`
	Classes         []string    `json:"classes"`
}

// SaveSnapshot writes the current model state to
// modelDir/online_model_<version>.json and returns the path. Calling it on
// an uninitialized model is an error.
func (m *Model) SaveSnapshot() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.weights == nil {
		return "", fmt.Errorf("cannot snapshot an uninitialized model")
	}
	if err := os.MkdirAll(m.modelDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create model dir: %w", err)
	}

	snap := snapshot{
		Weights:         m.weights,
		Biases:          m.biases,
		Scaler:          m.scaler,
		FeatureDim:      m.featureDim,
		ModelVersion:    m.modelVersion,
		TrainingSamples: m.trainingSamples,
		LastTrained:     m.lastTrained,
		Classes:         Classes,
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	path := filepath.Join(m.modelDir, fmt.Sprintf("online_model_%s.json", m.modelVersion))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	log.Printf("[ML] Model snapshot saved: %s", path)
	return path, nil
}

// loadLatestSnapshot restores the newest snapshot by modification time. A
// corrupt snapshot is logged and skipped, leaving the model uninitialized
// rather than half-restored.
func (m *Model) loadLatestSnapshot() error {
	matches, err := filepath.Glob(filepath.Join(m.modelDir, "online_model_*.json"))
	if err != nil || len(matches) == 0 {
		return fmt.Errorf("no snapshots in %s", m.modelDir)
	}

	var latest string
	var latestMod time.Time
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestMod) {
			latest = path
			latestMod = info.ModTime()
		}
	}
	if latest == "" {
		return fmt.Errorf("no readable snapshots in %s", m.modelDir)
	}

	data, err := os.ReadFile(latest)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", latest, err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("[ML] Corrupt snapshot %s ignored: %v", latest, err)
		return fmt.Errorf("corrupt snapshot %s: %w", latest, err)
	}
	if snap.FeatureDim == 0 || snap.Scaler == nil ||
		len(snap.Weights) != len(Classes) || len(snap.Biases) != len(Classes) {
		log.Printf("[ML] Snapshot %s has incompatible shape, ignored", latest)
		return fmt.Errorf("incompatible snapshot %s", latest)
	}
	for _, row := range snap.Weights {
		if len(row) != snap.FeatureDim {
			log.Printf("[ML] Snapshot %s has incompatible shape, ignored", latest)
			return fmt.Errorf("incompatible snapshot %s", latest)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.weights = snap.Weights
	m.biases = snap.Biases
	m.scaler = snap.Scaler
	m.featureDim = snap.FeatureDim
	m.modelVersion = snap.ModelVersion
	m.trainingSamples = snap.TrainingSamples
	m.lastTrained = snap.LastTrained

	log.Printf("[ML] Loaded online model snapshot: %s (version=%s, samples=%d)",
		filepath.Base(latest), m.modelVersion, m.trainingSamples)
	return nil
}
