package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements SampleStore and MetadataStore on Postgres via pgxpool.
type PGStore struct {
	pool *pgxpool.Pool
}

// OpenPG connects a pool to the given URL and ensures the schema exists.
func OpenPG(ctx context.Context, url string) (*PGStore, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	s := &PGStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the pool.
func (s *PGStore) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func (s *PGStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS training_data (
			id UUID PRIMARY KEY,
			account_id UUID,
			features DOUBLE PRECISION[] NOT NULL,
			label TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			model_version TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT 'inference',
			consent_verified BOOLEAN NOT NULL DEFAULT FALSE,
			trained BOOLEAN NOT NULL DEFAULT FALSE,
			feedback_corrected BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			trained_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_training_data_untrained
			ON training_data (created_at) WHERE NOT trained AND consent_verified;

		CREATE TABLE IF NOT EXISTS model_metadata (
			id UUID PRIMARY KEY,
			account_id UUID,
			model_version TEXT NOT NULL,
			model_type TEXT NOT NULL,
			model_path TEXT NOT NULL,
			training_samples INTEGER NOT NULL,
			feature_dim INTEGER NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			last_trained_at TIMESTAMPTZ NOT NULL,
			batch_size INTEGER NOT NULL DEFAULT 0,
			batches_processed INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// Insert stores a new sample.
func (s *PGStore) Insert(ctx context.Context, sample *Sample) error {
	if sample.ID == uuid.Nil {
		sample.ID = uuid.New()
	}
	if sample.CreatedAt.IsZero() {
		sample.CreatedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO training_data
			(id, account_id, features, label, confidence, model_version,
			 source, consent_verified, trained, feedback_corrected, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		sample.ID, sample.AccountID, sample.Features, sample.Label,
		sample.Confidence, sample.ModelVersion, sample.Source,
		sample.ConsentVerified, sample.Trained, sample.FeedbackCorrected,
		sample.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}
	return nil
}

// GetByID fetches a single sample.
func (s *PGStore) GetByID(ctx context.Context, id uuid.UUID) (*Sample, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, account_id, features, label, confidence, model_version,
		       source, consent_verified, trained, feedback_corrected,
		       created_at, trained_at
		FROM training_data WHERE id = $1`, id)
	return scanSample(row)
}

// ListUntrained returns consent-verified untrained samples, oldest first.
func (s *PGStore) ListUntrained(ctx context.Context, accountID *uuid.UUID, limit int) ([]Sample, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, account_id, features, label, confidence, model_version,
		       source, consent_verified, trained, feedback_corrected,
		       created_at, trained_at
		FROM training_data
		WHERE NOT trained AND consent_verified
		  AND ($1::uuid IS NULL OR account_id = $1)
		ORDER BY created_at
		LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query untrained samples: %w", err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		sample, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, *sample)
	}
	return samples, rows.Err()
}

// CountUntrained counts consent-verified untrained samples.
func (s *PGStore) CountUntrained(ctx context.Context, accountID *uuid.UUID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM training_data
		WHERE NOT trained AND consent_verified
		  AND ($1::uuid IS NULL OR account_id = $1)`, accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count untrained samples: %w", err)
	}
	return count, nil
}

// MarkTrained flags a batch of samples as trained under the given version.
// The batch is updated in one statement so a crash never leaves it half
// marked.
func (s *PGStore) MarkTrained(ctx context.Context, ids []uuid.UUID, modelVersion string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE training_data
		SET trained = TRUE, trained_at = now(), model_version = $2
		WHERE id = ANY($1)`, ids, modelVersion)
	if err != nil {
		return fmt.Errorf("failed to mark samples trained: %w", err)
	}
	return nil
}

// ApplyCorrection rewrites a sample's label from user feedback and resets it
// to untrained so the next training run picks it up.
func (s *PGStore) ApplyCorrection(ctx context.Context, id uuid.UUID, correctedLabel string) (*Sample, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE training_data
		SET label = $2, feedback_corrected = TRUE, trained = FALSE,
		    trained_at = NULL, source = $3
		WHERE id = $1
		RETURNING id, account_id, features, label, confidence, model_version,
		          source, consent_verified, trained, feedback_corrected,
		          created_at, trained_at`, id, correctedLabel, SourceFeedback)
	sample, err := scanSample(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sample, err
}

// InsertMetadata stores a model registration.
func (s *PGStore) InsertMetadata(ctx context.Context, m *ModelMetadata) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO model_metadata
			(id, account_id, model_version, model_type, model_path,
			 training_samples, feature_dim, is_active, last_trained_at,
			 batch_size, batches_processed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		m.ID, m.AccountID, m.ModelVersion, m.ModelType, m.ModelPath,
		m.TrainingSamples, m.FeatureDim, m.IsActive, m.LastTrainedAt,
		m.BatchSize, m.BatchesProcessed, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert model metadata: %w", err)
	}
	return nil
}

// DeactivateActive clears the active flag for the given account scope.
func (s *PGStore) DeactivateActive(ctx context.Context, accountID *uuid.UUID) error {
	var err error
	if accountID == nil {
		_, err = s.pool.Exec(ctx, `
			UPDATE model_metadata SET is_active = FALSE
			WHERE account_id IS NULL AND is_active`)
	} else {
		_, err = s.pool.Exec(ctx, `
			UPDATE model_metadata SET is_active = FALSE
			WHERE account_id = $1 AND is_active`, *accountID)
	}
	if err != nil {
		return fmt.Errorf("failed to deactivate models: %w", err)
	}
	return nil
}

// GetActive returns the active model registration for the scope, or nil.
func (s *PGStore) GetActive(ctx context.Context, accountID *uuid.UUID) (*ModelMetadata, error) {
	var row pgx.Row
	if accountID == nil {
		row = s.pool.QueryRow(ctx, `
			SELECT id, account_id, model_version, model_type, model_path,
			       training_samples, feature_dim, is_active, last_trained_at,
			       batch_size, batches_processed, created_at
			FROM model_metadata
			WHERE account_id IS NULL AND is_active
			ORDER BY created_at DESC LIMIT 1`)
	} else {
		row = s.pool.QueryRow(ctx, `
			SELECT id, account_id, model_version, model_type, model_path,
			       training_samples, feature_dim, is_active, last_trained_at,
			       batch_size, batches_processed, created_at
			FROM model_metadata
			WHERE account_id = $1 AND is_active
			ORDER BY created_at DESC LIMIT 1`, *accountID)
	}

	var m ModelMetadata
	err := row.Scan(&m.ID, &m.AccountID, &m.ModelVersion, &m.ModelType,
		&m.ModelPath, &m.TrainingSamples, &m.FeatureDim, &m.IsActive,
		&m.LastTrainedAt, &m.BatchSize, &m.BatchesProcessed, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active model: %w", err)
	}
	return &m, nil
}

func scanSample(row pgx.Row) (*Sample, error) {
	var sample Sample
	err := row.Scan(&sample.ID, &sample.AccountID, &sample.Features,
		&sample.Label, &sample.Confidence, &sample.ModelVersion,
		&sample.Source, &sample.ConsentVerified, &sample.Trained,
		&sample.FeedbackCorrected, &sample.CreatedAt, &sample.TrainedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sample: %w", err)
	}
	return &sample, nil
}
