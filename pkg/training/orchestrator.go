package training

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cypherlabs/guardian/pkg/online"
)

// Training outcome statuses. Failures inside a run are reported through
// these, not through errors: a training run is a background job whose
// callers only ever see a status report.
const (
	StatusSuccess         = "success"
	StatusAlreadyTraining = "already_training"
	StatusNoData          = "no_data"
	StatusError           = "error"
)

const modelTypeSGD = "sgd_logistic_regression"

// Options bound one training run.
type Options struct {
	BatchSize    int
	MaxSamples   int
	BatchTimeout time.Duration
}

// Report summarizes one training run.
type Report struct {
	Status               string  `json:"status"`
	Message              string  `json:"message,omitempty"`
	SamplesTrained       int     `json:"samples_trained"`
	BatchesProcessed     int     `json:"batches_processed"`
	ModelVersion         string  `json:"model_version,omitempty"`
	TotalTrainingSamples int     `json:"total_training_samples"`
	ModelPath            string  `json:"model_path,omitempty"`
	ElapsedSeconds       float64 `json:"elapsed_seconds"`
	SamplesPerSecond     float64 `json:"samples_per_second"`
}

// Status is the orchestrator's live state plus model statistics.
type Status struct {
	IsTraining           bool           `json:"is_training"`
	UntrainedSamples     int            `json:"untrained_samples"`
	ModelVersion         string         `json:"model_version"`
	TotalTrainingSamples int            `json:"total_training_samples"`
	LastTrained          *time.Time     `json:"last_trained,omitempty"`
	ModelLoaded          bool           `json:"model_loaded"`
	ActiveModel          *ModelMetadata `json:"active_model,omitempty"`
}

// FeedbackResult reports a feedback application.
type FeedbackResult struct {
	Status    string           `json:"status"`
	Message   string           `json:"message"`
	Retrained bool             `json:"retrained"`
	FitStats  *online.FitStats `json:"train_stats,omitempty"`
}

// Orchestrator coordinates training runs over the sample store. At most one
// run is in flight at a time; concurrent triggers are rejected with
// StatusAlreadyTraining rather than queued.
type Orchestrator struct {
	model    *online.Model
	samples  SampleStore
	metadata MetadataStore
	opts     Options

	isTraining atomic.Bool
}

// NewOrchestrator wires the orchestrator. Zero option fields get defaults.
func NewOrchestrator(model *online.Model, samples SampleStore, metadata MetadataStore, opts Options) *Orchestrator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 1000
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 30 * time.Second
	}
	return &Orchestrator{
		model:    model,
		samples:  samples,
		metadata: metadata,
		opts:     opts,
	}
}

// RunTraining trains the model on all untrained consent-verified samples for
// the account scope, in batches. One snapshot and one metadata registration
// happen after all batches, not per batch.
func (o *Orchestrator) RunTraining(ctx context.Context, accountID *uuid.UUID) Report {
	if !o.isTraining.CompareAndSwap(false, true) {
		return Report{Status: StatusAlreadyTraining, Message: "training already in progress"}
	}
	defer o.isTraining.Store(false)

	start := time.Now()

	samples, err := o.samples.ListUntrained(ctx, accountID, o.opts.MaxSamples)
	if err != nil {
		return Report{Status: StatusError, Message: fmt.Sprintf("failed to list samples: %v", err)}
	}
	if len(samples) == 0 {
		return Report{Status: StatusNoData, Message: "no untrained samples available"}
	}

	trained := 0
	batches := 0
	for i := 0; i < len(samples); i += o.opts.BatchSize {
		end := i + o.opts.BatchSize
		if end > len(samples) {
			end = len(samples)
		}
		batch := samples[i:end]

		stats, err := o.trainBatch(ctx, batch)
		if err != nil {
			return Report{
				Status:           StatusError,
				Message:          err.Error(),
				SamplesTrained:   trained,
				BatchesProcessed: batches,
			}
		}
		trained += stats.SamplesTrained
		batches++
	}

	modelPath, err := o.model.SaveSnapshot()
	if err != nil {
		return Report{
			Status:           StatusError,
			Message:          fmt.Sprintf("failed to save snapshot: %v", err),
			SamplesTrained:   trained,
			BatchesProcessed: batches,
		}
	}

	if err := o.registerModel(ctx, accountID, modelPath, batches); err != nil {
		return Report{
			Status:           StatusError,
			Message:          err.Error(),
			SamplesTrained:   trained,
			BatchesProcessed: batches,
		}
	}

	elapsed := time.Since(start).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(trained) / elapsed
	}
	log.Printf("[TRAINER] Run complete: %d samples in %d batches (%.1f/s), version %s",
		trained, batches, rate, o.model.Version())

	return Report{
		Status:               StatusSuccess,
		SamplesTrained:       trained,
		BatchesProcessed:     batches,
		ModelVersion:         o.model.Version(),
		TotalTrainingSamples: o.model.TrainingSamples(),
		ModelPath:            modelPath,
		ElapsedSeconds:       elapsed,
		SamplesPerSecond:     rate,
	}
}

func (o *Orchestrator) trainBatch(ctx context.Context, batch []Sample) (online.FitStats, error) {
	batchCtx, cancel := context.WithTimeout(ctx, o.opts.BatchTimeout)
	defer cancel()

	vectors := make([][]float64, len(batch))
	labels := make([]string, len(batch))
	ids := make([]uuid.UUID, len(batch))
	for i, s := range batch {
		vectors[i] = s.Features
		labels[i] = s.Label
		ids[i] = s.ID
	}

	stats, err := o.model.PartialFit(vectors, labels)
	if err != nil {
		return online.FitStats{}, fmt.Errorf("batch fit failed: %w", err)
	}

	if err := o.samples.MarkTrained(batchCtx, ids, stats.ModelVersion); err != nil {
		return online.FitStats{}, fmt.Errorf("failed to mark batch trained: %w", err)
	}
	return stats, nil
}

func (o *Orchestrator) registerModel(ctx context.Context, accountID *uuid.UUID, modelPath string, batches int) error {
	if err := o.metadata.DeactivateActive(ctx, accountID); err != nil {
		return fmt.Errorf("failed to deactivate previous models: %w", err)
	}
	meta := &ModelMetadata{
		AccountID:        accountID,
		ModelVersion:     o.model.Version(),
		ModelType:        modelTypeSGD,
		ModelPath:        modelPath,
		TrainingSamples:  o.model.TrainingSamples(),
		FeatureDim:       o.model.FeatureDim(),
		IsActive:         true,
		LastTrainedAt:    time.Now(),
		BatchSize:        o.opts.BatchSize,
		BatchesProcessed: batches,
	}
	if err := o.metadata.InsertMetadata(ctx, meta); err != nil {
		return fmt.Errorf("failed to register model: %w", err)
	}
	return nil
}

// GetStatus reports the live orchestrator and model state for the scope.
func (o *Orchestrator) GetStatus(ctx context.Context, accountID *uuid.UUID) (Status, error) {
	untrained, err := o.samples.CountUntrained(ctx, accountID)
	if err != nil {
		return Status{}, fmt.Errorf("failed to count untrained samples: %w", err)
	}
	active, err := o.metadata.GetActive(ctx, accountID)
	if err != nil {
		return Status{}, err
	}

	status := Status{
		IsTraining:           o.isTraining.Load(),
		UntrainedSamples:     untrained,
		ModelVersion:         o.model.Version(),
		TotalTrainingSamples: o.model.TrainingSamples(),
		ModelLoaded:          o.model.IsInitialized(),
		ActiveModel:          active,
	}
	if t := o.model.LastTrained(); !t.IsZero() {
		status.LastTrained = &t
	}
	return status, nil
}

// StoreSample persists one sample for future training. Samples are stored
// regardless of consent; consent gating happens when training queries them.
func (o *Orchestrator) StoreSample(ctx context.Context, s *Sample) error {
	if s.Source == "" {
		s.Source = SourceInference
	}
	if s.ModelVersion == "" {
		s.ModelVersion = o.model.Version()
	}
	return o.samples.Insert(ctx, s)
}

// ApplyFeedback corrects a stored sample's label. With retrain=true it also
// fits the single corrected sample immediately, going through the same
// exclusion flag as full runs so feedback retraining and batch training
// never interleave. Consent gates this path the same as batch runs: an
// unconsented sample gets its label corrected but is never trained on.
func (o *Orchestrator) ApplyFeedback(ctx context.Context, recordID uuid.UUID, correctedLabel string, retrain bool) FeedbackResult {
	sample, err := o.samples.ApplyCorrection(ctx, recordID, correctedLabel)
	if err != nil {
		return FeedbackResult{Status: StatusError, Message: err.Error()}
	}

	if !retrain {
		return FeedbackResult{Status: StatusSuccess, Message: "feedback applied, will train in next batch"}
	}
	if !sample.ConsentVerified {
		return FeedbackResult{
			Status:  StatusSuccess,
			Message: "feedback applied; consent not verified, sample will not be trained",
		}
	}

	if !o.isTraining.CompareAndSwap(false, true) {
		return FeedbackResult{
			Status:  StatusSuccess,
			Message: "feedback applied; training busy, will train in next batch",
		}
	}
	defer o.isTraining.Store(false)

	stats, err := o.model.PartialFit([][]float64{sample.Features}, []string{sample.Label})
	if err != nil {
		return FeedbackResult{Status: StatusError, Message: fmt.Sprintf("retrain failed: %v", err)}
	}
	if err := o.samples.MarkTrained(ctx, []uuid.UUID{sample.ID}, stats.ModelVersion); err != nil {
		return FeedbackResult{Status: StatusError, Message: err.Error()}
	}
	if _, err := o.model.SaveSnapshot(); err != nil {
		log.Printf("[TRAINER] Snapshot after feedback retrain failed: %v", err)
	}

	return FeedbackResult{
		Status:    StatusSuccess,
		Message:   "feedback applied and retrained",
		Retrained: true,
		FitStats:  &stats,
	}
}

// IsTraining reports whether a run is in flight.
func (o *Orchestrator) IsTraining() bool {
	return o.isTraining.Load()
}
