// Package redis provides a Redis-backed draftgate engine.
package redis

import (
	"github.com/redis/go-redis/v9"

	"github.com/tkarvine/draftgate/internal/engine"
	"github.com/tkarvine/draftgate/pkg/api"

	rstore "github.com/tkarvine/draftgate/redis/internal/store"
)

// Options tunes engine construction beyond the required collaborators.
type Options struct {
	Observer    api.Observer
	MaxAttempts int

	// KeyPrefix namespaces all keys; empty means "draftgate:".
	KeyPrefix string
}

// NewEngine returns an Engine that persists post records in Redis.
func NewEngine(client *redis.Client, gen api.ContentGenerator, pub api.Publisher) (api.Engine, error) {
	return NewEngineWithOptions(client, gen, pub, Options{})
}

// NewEngineWithOptions is NewEngine with explicit Options.
func NewEngineWithOptions(client *redis.Client, gen api.ContentGenerator, pub api.Publisher, opts Options) (api.Engine, error) {
	return engine.New(engine.Config{
		Store:       rstore.NewRedisStore(client, opts.KeyPrefix),
		Generator:   gen,
		Publisher:   pub,
		Observer:    opts.Observer,
		MaxAttempts: opts.MaxAttempts,
	})
}
