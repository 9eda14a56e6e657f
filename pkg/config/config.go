package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// MLStrategy defines which backend powers the transformer-based classifiers.
type MLStrategy string

const (
	StrategyONNX      MLStrategy = "onnx"      // Hugot/ONNX local inference
	StrategyHeuristic MLStrategy = "heuristic" // Lexical heuristics only (no model files)
)

// Config holds global settings for the Guardian backend.
// All settings can be configured via environment variables or programmatically.
type Config struct {
	// === Core Settings ===
	ListenAddr string // HTTP listen address (default: ":8080")
	ModelDir   string // Directory for online-model snapshots (default: "./models")

	// === Risk Thresholds (0.0 - 1.0) ===
	// Canonical thresholds: score >= HighThreshold -> HIGH,
	// score >= MediumThreshold -> MEDIUM, otherwise LOW.
	HighThreshold   float64 // default: 0.70
	MediumThreshold float64 // default: 0.40

	// === Classifier Configuration ===
	IntentModelPath string // Local ONNX model dir for the intent ML layer (optional)
	AIModelPath     string // Local ONNX model dir for the AI-generation detector (optional)
	OllamaBaseURL   string // Ollama endpoint for semantic embeddings (default: http://localhost:11434)
	EmbeddingModel  string // Embedding model name (default: "nomic-embed-text")
	ConfigDir       string // Directory holding keyword_families.yaml and threat_seeds.yaml
	EnableSemantics bool   // Enable the embedding-based semantic intent layer

	// === Persistence ===
	PostgresURL string // Postgres connection string (empty = in-memory stores)
	RedisURL    string // Redis URL for the analyze cache (empty = cache disabled)
	CacheTTL    time.Duration

	// === Training ===
	TrainingBatchSize  int           // Samples per partial-fit batch (default: 100)
	TrainingMaxSamples int           // Cap per training run (default: 1000)
	BatchTimeout       time.Duration // Budget per training batch (default: 30s)
	MaxTrainingJobs    int           // Concurrent fire-and-forget training triggers held (default: 4)
}

// NewDefaultConfig creates a Config with sensible defaults.
// All settings can be overridden via environment variables.
func NewDefaultConfig() *Config {
	return &Config{
		ListenAddr: GetEnv("GUARDIAN_LISTEN_ADDR", ":8080"),
		ModelDir:   GetEnv("GUARDIAN_MODEL_DIR", "./models"),

		HighThreshold:   GetEnvFloat("GUARDIAN_HIGH_THRESHOLD", 0.70),
		MediumThreshold: GetEnvFloat("GUARDIAN_MEDIUM_THRESHOLD", 0.40),

		IntentModelPath: GetEnv("GUARDIAN_INTENT_MODEL_PATH", ""),
		AIModelPath:     GetEnv("GUARDIAN_AI_MODEL_PATH", ""),
		OllamaBaseURL:   GetEnv("GUARDIAN_OLLAMA_URL", "http://localhost:11434"),
		EmbeddingModel:  GetEnv("GUARDIAN_EMBEDDING_MODEL", "nomic-embed-text"),
		ConfigDir:       GetEnv("GUARDIAN_CONFIG_DIR", "./config"),
		EnableSemantics: GetEnvBool("GUARDIAN_ENABLE_SEMANTICS", true),

		PostgresURL: GetEnv("GUARDIAN_POSTGRES_URL", os.Getenv("DATABASE_URL")),
		RedisURL:    GetEnv("GUARDIAN_REDIS_URL", ""),
		CacheTTL:    time.Duration(GetEnvInt("GUARDIAN_CACHE_TTL_SECONDS", 300)) * time.Second,

		TrainingBatchSize:  clampInt(GetEnvInt("GUARDIAN_TRAINING_BATCH_SIZE", 100), 1, 10000),
		TrainingMaxSamples: clampInt(GetEnvInt("GUARDIAN_TRAINING_MAX_SAMPLES", 1000), 1, 100000),
		BatchTimeout:       time.Duration(GetEnvInt("GUARDIAN_BATCH_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxTrainingJobs:    clampInt(GetEnvInt("GUARDIAN_MAX_TRAINING_JOBS", 4), 1, 64),
	}
}

// Validate checks threshold ordering and training parameters.
func (c *Config) Validate() error {
	if c.HighThreshold <= c.MediumThreshold {
		return fmt.Errorf("high threshold (%.2f) must exceed medium threshold (%.2f)",
			c.HighThreshold, c.MediumThreshold)
	}
	if c.HighThreshold > 1.0 || c.MediumThreshold < 0.0 {
		return fmt.Errorf("thresholds must lie in [0,1]: high=%.2f medium=%.2f",
			c.HighThreshold, c.MediumThreshold)
	}
	if c.TrainingBatchSize <= 0 || c.TrainingMaxSamples <= 0 {
		return fmt.Errorf("training batch size and max samples must be positive")
	}
	return nil
}

// MustValidate calls Validate and fatally exits if validation fails.
// Call this at startup before serving traffic.
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		log.Fatalf("[STARTUP] FATAL: configuration validation failed: %v", err)
	}
	log.Println("[STARTUP] Configuration validated successfully")
}

// clampInt ensures a value is within bounds
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Helper functions for environment variable parsing.
// These are exported for use by other packages (e.g., pkg/classify).

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvFloat returns the float64 value of an environment variable or a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}
