package draftgate

import (
	"database/sql"

	"github.com/tkarvine/draftgate/internal/engine"
	"github.com/tkarvine/draftgate/internal/store"
	"github.com/tkarvine/draftgate/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Engine               = api.Engine
	PostRecord           = api.PostRecord
	HistoryEntry         = api.HistoryEntry
	State                = api.State
	Platform             = api.Platform
	Action               = api.Action
	Decision             = api.Decision
	GenerationRequest    = api.GenerationRequest
	GeneratedPost        = api.GeneratedPost
	ContentGenerator     = api.ContentGenerator
	Publisher            = api.Publisher
	PublishResult        = api.PublishResult
	GenerationError      = api.GenerationError
	PublishError         = api.PublishError
	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver
)

// Re-export common observer helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
)

// Re-export state, platform and action values for convenience.

const (
	StateGenerating      = api.StateGenerating
	StatePendingApproval = api.StatePendingApproval
	StatePublishing      = api.StatePublishing
	StatePublished       = api.StatePublished
	StatePublishFailed   = api.StatePublishFailed
	StateRejectedFinal   = api.StateRejectedFinal

	PlatformTwitter  = api.PlatformTwitter
	PlatformLinkedIn = api.PlatformLinkedIn

	ActionApprove = api.ActionApprove
	ActionReject  = api.ActionReject
	ActionEdit    = api.ActionEdit
)

// Re-export error values so callers can match with errors.Is.

var (
	ErrNotFound          = api.ErrNotFound
	ErrInvalidTransition = api.ErrInvalidTransition
	ErrStateConflict     = api.ErrStateConflict
	ErrEmptyEdit         = api.ErrEmptyEdit
	ErrContentTooLong    = api.ErrContentTooLong
)

// Options tunes engine construction beyond the required collaborators.
type Options struct {
	// Observer receives lifecycle callbacks. Nil means no observation.
	Observer Observer

	// MaxAttempts caps generation rounds per post; zero means 3.
	MaxAttempts int
}

// Engine constructors
// These wrap the internal/engine package so external callers
// never need to import internal packages.

// NewInMemoryEngine returns an Engine backed by a non-durable in-memory
// store, suitable for tests and local development.
func NewInMemoryEngine(gen ContentGenerator, pub Publisher) (Engine, error) {
	return NewInMemoryEngineWithOptions(gen, pub, Options{})
}

// NewInMemoryEngineWithOptions is NewInMemoryEngine with explicit Options.
func NewInMemoryEngineWithOptions(gen ContentGenerator, pub Publisher, opts Options) (Engine, error) {
	return engine.New(engine.Config{
		Store:       store.NewMemoryStore(),
		Generator:   gen,
		Publisher:   pub,
		Observer:    opts.Observer,
		MaxAttempts: opts.MaxAttempts,
	})
}

// NewSQLiteEngine returns an Engine that persists post records in a SQLite
// database. The schema is created on first use.
func NewSQLiteEngine(db *sql.DB, gen ContentGenerator, pub Publisher) (Engine, error) {
	return NewSQLiteEngineWithOptions(db, gen, pub, Options{})
}

// NewSQLiteEngineWithOptions is NewSQLiteEngine with explicit Options.
func NewSQLiteEngineWithOptions(db *sql.DB, gen ContentGenerator, pub Publisher, opts Options) (Engine, error) {
	st, err := store.NewSQLiteStore(db)
	if err != nil {
		return nil, err
	}
	return engine.New(engine.Config{
		Store:       st,
		Generator:   gen,
		Publisher:   pub,
		Observer:    opts.Observer,
		MaxAttempts: opts.MaxAttempts,
	})
}
