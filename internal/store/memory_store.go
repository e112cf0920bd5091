package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tkarvine/draftgate/pkg/api"
)

// MemoryStore is a goroutine-safe RecordStore backed by a map. It is
// non-durable and intended for tests and local development.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*api.PostRecord
}

// Ensure MemoryStore implements the interface.
var _ RecordStore = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*api.PostRecord),
	}
}

func (s *MemoryStore) Create(ctx context.Context, req api.GenerationRequest) (*api.PostRecord, error) {
	now := time.Now()
	rec := &api.PostRecord{
		ID:                uuid.NewString(),
		Topic:             req.Topic,
		Platform:          req.Platform,
		Tone:              req.Tone,
		AdditionalContext: req.AdditionalContext,
		State:             api.StateGenerating,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	rec.AppendHistory("created", "gateway", "")

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.ID] = rec
	return rec.Clone(), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*api.PostRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) ListPending(ctx context.Context) ([]*api.PostRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*api.PostRecord
	for _, rec := range s.records {
		if rec.State == api.StatePendingApproval {
			out = append(out, rec.Clone())
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

// CompareAndTransition holds the store mutex for the duration of the mutator.
// Mutators are pure in-memory adjustments, so the critical section never
// blocks on I/O.
func (s *MemoryStore) CompareAndTransition(ctx context.Context, id string, expected api.State, mut Mutator) (*api.PostRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	if rec.State != expected {
		return nil, ErrStateConflict
	}

	next := rec.Clone()
	if err := mut(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now()

	s.records[id] = next
	return next.Clone(), nil
}
