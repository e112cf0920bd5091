// Package postgres provides a PostgreSQL-backed draftgate engine.
package postgres

import (
	"database/sql"

	"github.com/tkarvine/draftgate/internal/engine"
	"github.com/tkarvine/draftgate/pkg/api"

	pstore "github.com/tkarvine/draftgate/postgres/internal/store"
)

// Options tunes engine construction beyond the required collaborators.
type Options struct {
	Observer    api.Observer
	MaxAttempts int
}

// NewEngine returns an Engine that persists post records in PostgreSQL.
// The schema is created on first use.
func NewEngine(db *sql.DB, gen api.ContentGenerator, pub api.Publisher) (api.Engine, error) {
	return NewEngineWithOptions(db, gen, pub, Options{})
}

// NewEngineWithOptions is NewEngine with explicit Options.
func NewEngineWithOptions(db *sql.DB, gen api.ContentGenerator, pub api.Publisher, opts Options) (api.Engine, error) {
	st, err := pstore.NewPostgresStore(db)
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
