package cli

import (
	"database/sql"
	"log/slog"
	"os"

	_ "modernc.org/sqlite"

	"github.com/tkarvine/draftgate/internal/engine"
	"github.com/tkarvine/draftgate/internal/store"
	"github.com/tkarvine/draftgate/pkg/api"
	"github.com/tkarvine/draftgate/pkg/config"
	"github.com/tkarvine/draftgate/pkg/generator"
	"github.com/tkarvine/draftgate/pkg/publisher"
)

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildEngine assembles an engine from config: OpenAI generation when an API
// key is present (mock otherwise), real platform connectors when credentials
// are present (mock otherwise), SQLite when a database path is set.
func buildEngine(cfg config.Config, logger *slog.Logger) (api.Engine, func() error, error) {
	var client generator.LLMClient
	if cfg.LLM.APIKey != "" {
		c, err := generator.NewOpenAIClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model)
		if err != nil {
			return nil, nil, err
		}
		client = c
	} else {
		logger.Warn("no llm api key configured, using mock generator")
		client = &generator.MockLLM{}
	}
	gen, err := generator.New(client)
	if err != nil {
		return nil, nil, err
	}

	reg := publisher.NewRegistry()
	if cfg.Twitter.BearerToken != "" {
		tw, err := publisher.NewTwitter(cfg.Twitter.BearerToken)
		if err != nil {
			return nil, nil, err
		}
		reg.Register(api.PlatformTwitter, tw)
	} else {
		logger.Warn("no twitter credentials configured, using mock publisher")
		reg.Register(api.PlatformTwitter, &publisher.Mock{})
	}
	if cfg.LinkedIn.AccessToken != "" {
		li, err := publisher.NewLinkedIn(cfg.LinkedIn.AccessToken)
		if err != nil {
			return nil, nil, err
		}
		li.Visibility = cfg.LinkedIn.Visibility
		reg.Register(api.PlatformLinkedIn, li)
	} else {
		logger.Warn("no linkedin credentials configured, using mock publisher")
		reg.Register(api.PlatformLinkedIn, &publisher.Mock{})
	}

	var (
		st      store.RecordStore
		cleanup = func() error { return nil }
	)
	if cfg.DatabasePath != "" {
		db, err := sql.Open("sqlite", cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		st, err = store.NewSQLiteStore(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		cleanup = db.Close
	} else {
		logger.Warn("no database path configured, workflow state is in-memory only")
		st = store.NewMemoryStore()
	}

	eng, err := engine.New(engine.Config{
		Store:       st,
		Generator:   gen,
		Publisher:   reg,
		Observer:    api.NewLoggingObserver(logger),
		MaxAttempts: cfg.MaxAttempts,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return eng, cleanup, nil
}
