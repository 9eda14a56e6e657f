package training

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory SampleStore and MetadataStore for development and
// tests. All methods are safe for concurrent use.
type MemStore struct {
	mu       sync.RWMutex
	samples  map[uuid.UUID]*Sample
	metadata map[uuid.UUID]*ModelMetadata
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		samples:  make(map[uuid.UUID]*Sample),
		metadata: make(map[uuid.UUID]*ModelMetadata),
	}
}

// Insert stores a new sample.
func (m *MemStore) Insert(_ context.Context, s *Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	cp := *s
	cp.Features = append([]float64(nil), s.Features...)
	m.samples[s.ID] = &cp
	return nil
}

// GetByID fetches a single sample.
func (m *MemStore) GetByID(_ context.Context, id uuid.UUID) (*Sample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.samples[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

// ListUntrained returns consent-verified untrained samples, oldest first.
func (m *MemStore) ListUntrained(_ context.Context, accountID *uuid.UUID, limit int) ([]Sample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Sample
	for _, s := range m.samples {
		if s.Trained || !s.ConsentVerified {
			continue
		}
		if accountID != nil && (s.AccountID == nil || *s.AccountID != *accountID) {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountUntrained counts consent-verified untrained samples.
func (m *MemStore) CountUntrained(ctx context.Context, accountID *uuid.UUID) (int, error) {
	samples, err := m.ListUntrained(ctx, accountID, 0)
	if err != nil {
		return 0, err
	}
	return len(samples), nil
}

// MarkTrained flags the given samples as trained under the version.
func (m *MemStore) MarkTrained(_ context.Context, ids []uuid.UUID, modelVersion string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for _, id := range ids {
		if s, ok := m.samples[id]; ok {
			s.Trained = true
			s.TrainedAt = &now
			s.ModelVersion = modelVersion
		}
	}
	return nil
}

// ApplyCorrection rewrites a sample's label and resets it to untrained.
func (m *MemStore) ApplyCorrection(_ context.Context, id uuid.UUID, correctedLabel string) (*Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.samples[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.Label = correctedLabel
	s.FeedbackCorrected = true
	s.Trained = false
	s.TrainedAt = nil
	s.Source = SourceFeedback
	cp := *s
	return &cp, nil
}

// InsertMetadata stores a model registration.
func (m *MemStore) InsertMetadata(_ context.Context, meta *ModelMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if meta.ID == uuid.Nil {
		meta.ID = uuid.New()
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now()
	}
	cp := *meta
	m.metadata[meta.ID] = &cp
	return nil
}

// DeactivateActive clears the active flag for the account scope.
func (m *MemStore) DeactivateActive(_ context.Context, accountID *uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, meta := range m.metadata {
		if !meta.IsActive {
			continue
		}
		if sameScope(meta.AccountID, accountID) {
			meta.IsActive = false
		}
	}
	return nil
}

// GetActive returns the active model registration for the scope, or nil.
func (m *MemStore) GetActive(_ context.Context, accountID *uuid.UUID) (*ModelMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *ModelMetadata
	for _, meta := range m.metadata {
		if !meta.IsActive || !sameScope(meta.AccountID, accountID) {
			continue
		}
		if latest == nil || meta.CreatedAt.After(latest.CreatedAt) {
			latest = meta
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func sameScope(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
