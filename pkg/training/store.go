// Package training orchestrates incremental model training over persisted
// samples: consent-gated sample storage, batched partial fits, snapshot and
// metadata bookkeeping, and user feedback corrections.
package training

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sample sources.
const (
	SourceInference = "inference"
	SourceFeedback  = "feedback"
	SourceManual    = "manual"
)

// ErrNotFound is returned when a referenced sample does not exist.
var ErrNotFound = errors.New("record not found")

// Sample is one stored training example. Features are the extracted vector
// at storage time; the text itself is never persisted.
type Sample struct {
	ID                uuid.UUID  `json:"id"`
	AccountID         *uuid.UUID `json:"account_id,omitempty"`
	Features          []float64  `json:"features"`
	Label             string     `json:"label"`
	Confidence        float64    `json:"confidence"`
	ModelVersion      string     `json:"model_version"`
	Source            string     `json:"source"`
	ConsentVerified   bool       `json:"consent_verified"`
	Trained           bool       `json:"trained"`
	FeedbackCorrected bool       `json:"feedback_corrected"`
	CreatedAt         time.Time  `json:"created_at"`
	TrainedAt         *time.Time `json:"trained_at,omitempty"`
}

// ModelMetadata is one persisted model registration. At most one record per
// account scope is active at a time.
type ModelMetadata struct {
	ID               uuid.UUID  `json:"id"`
	AccountID        *uuid.UUID `json:"account_id,omitempty"`
	ModelVersion     string     `json:"model_version"`
	ModelType        string     `json:"model_type"`
	ModelPath        string     `json:"model_path"`
	TrainingSamples  int        `json:"training_samples"`
	FeatureDim       int        `json:"feature_dim"`
	IsActive         bool       `json:"is_active"`
	LastTrainedAt    time.Time  `json:"last_trained_at"`
	BatchSize        int        `json:"batch_size"`
	BatchesProcessed int        `json:"batches_processed"`
	CreatedAt        time.Time  `json:"created_at"`
}

// SampleStore persists training samples. ListUntrained must only return
// samples with trained=false AND consent_verified=true: consent gating
// happens at query time so revoked or never-given consent is never trained
// on, regardless of what was stored.
type SampleStore interface {
	Insert(ctx context.Context, s *Sample) error
	GetByID(ctx context.Context, id uuid.UUID) (*Sample, error)
	ListUntrained(ctx context.Context, accountID *uuid.UUID, limit int) ([]Sample, error)
	CountUntrained(ctx context.Context, accountID *uuid.UUID) (int, error)
	MarkTrained(ctx context.Context, ids []uuid.UUID, modelVersion string) error
	ApplyCorrection(ctx context.Context, id uuid.UUID, correctedLabel string) (*Sample, error)
}

// MetadataStore persists model registrations.
type MetadataStore interface {
	InsertMetadata(ctx context.Context, m *ModelMetadata) error
	DeactivateActive(ctx context.Context, accountID *uuid.UUID) error
	GetActive(ctx context.Context, accountID *uuid.UUID) (*ModelMetadata, error)
}
