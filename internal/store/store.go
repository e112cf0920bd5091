package store

import (
	"context"
	"errors"

	"github.com/tkarvine/draftgate/pkg/api"
)

var (
	// ErrNotFound is returned when a post record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrStateConflict is returned by CompareAndTransition when the
	// record's state does not match the expected state.
	ErrStateConflict = errors.New("record state conflict")
)

// Mutator adjusts a record inside CompareAndTransition. It may change text,
// state and counters and append to history; the store persists whatever the
// mutator leaves behind. Returning an error aborts the transition and leaves
// the stored record untouched.
type Mutator func(rec *api.PostRecord) error

// RecordStore is durable keyed storage for post lifecycle state. It owns the
// canonical copy of every record; CompareAndTransition is the only mutation
// path after Create.
type RecordStore interface {
	// Create allocates a new id, initializes state to generating with
	// zero attempts, persists and returns the record.
	Create(ctx context.Context, req api.GenerationRequest) (*api.PostRecord, error)

	// Get returns the record by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*api.PostRecord, error)

	// ListPending returns all records in pending_approval, ordered by
	// creation time ascending so reviewers see a stable queue.
	ListPending(ctx context.Context) ([]*api.PostRecord, error)

	// CompareAndTransition atomically loads the record, fails with
	// ErrStateConflict if its state differs from expected, applies mut,
	// refreshes UpdatedAt and persists. This read-check-write is the
	// concurrency primitive that prevents two callers from acting on the
	// same record's stale state.
	CompareAndTransition(ctx context.Context, id string, expected api.State, mut Mutator) (*api.PostRecord, error)
}
