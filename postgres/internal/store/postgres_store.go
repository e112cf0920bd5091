package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	corestore "github.com/tkarvine/draftgate/internal/store"
	"github.com/tkarvine/draftgate/pkg/api"
)

// PostgresStore is a RecordStore backed by PostgreSQL.
//
// It expects an *sql.DB that uses a PostgreSQL driver (for example,
// "github.com/jackc/pgx/v5/stdlib" or "github.com/lib/pq").
//
// The caller is responsible for:
//   - importing the driver for its side effects, e.g.:
//     _ "github.com/jackc/pgx/v5/stdlib"
//   - providing a DSN via sql.Open.
type PostgresStore struct {
	db *sql.DB
}

// Ensure PostgresStore implements RecordStore.
var _ corestore.RecordStore = (*PostgresStore)(nil)

// NewPostgresStore initializes the required schema in the given database and
// returns a new PostgresStore.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			platform TEXT NOT NULL,
			tone TEXT NOT NULL,
			additional_context TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL DEFAULT '',
			hashtags TEXT NOT NULL DEFAULT '[]',
			state TEXT NOT NULL,
			attempt_count INTEGER NOT NULL DEFAULT 0,
			confirmation_id TEXT NOT NULL DEFAULT '',
			published_url TEXT NOT NULL DEFAULT '',
			last_error TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_posts_state ON posts(state, created_at);

		CREATE TABLE IF NOT EXISTS post_history (
			id BIGSERIAL PRIMARY KEY,
			post_id TEXT NOT NULL,
			at BIGINT NOT NULL,
			transition TEXT NOT NULL,
			actor TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_post_history_post_id ON post_history(post_id, id);
	`)
	return err
}

const postColumns = `id, topic, platform, tone, additional_context, text, hashtags, state,
	attempt_count, confirmation_id, published_url, last_error, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, req api.GenerationRequest) (*api.PostRecord, error) {
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO posts (`+postColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rec.ID,
		rec.Topic,
		string(rec.Platform),
		rec.Tone,
		rec.AdditionalContext,
		rec.Text,
		"[]",
		string(rec.State),
		rec.AttemptCount,
		rec.ConfirmationID,
		rec.PublishedURL,
		rec.LastError,
		rec.CreatedAt.UnixNano(),
		rec.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return nil, err
	}

	if err := insertHistory(ctx, tx, rec.ID, rec.History); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return rec, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*api.PostRecord, error) {
	rec, err := scanPost(s.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	history, err := s.loadHistory(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	rec.History = history

	return rec, nil
}

func (s *PostgresStore) ListPending(ctx context.Context) ([]*api.PostRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE state = $1 ORDER BY created_at ASC, id ASC`,
		string(api.StatePendingApproval),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*api.PostRecord
	for rows.Next() {
		rec, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, rec := range out {
		history, err := s.loadHistory(ctx, s.db, rec.ID)
		if err != nil {
			return nil, err
		}
		rec.History = history
	}

	return out, nil
}

// CompareAndTransition reads the record with FOR UPDATE so concurrent
// deciders serialize on the row; the guarded UPDATE repeats the state check
// as a second line of defense.
func (s *PostgresStore) CompareAndTransition(ctx context.Context, id string, expected api.State, mut corestore.Mutator) (*api.PostRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rec, err := scanPost(tx.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if rec.State != expected {
		return nil, corestore.ErrStateConflict
	}

	history, err := s.loadHistory(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	rec.History = history
	priorHistory := len(history)

	if err := mut(rec); err != nil {
		return nil, err
	}
	rec.UpdatedAt = time.Now()

	hashtags, err := json.Marshal(rec.Hashtags)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE posts
		SET text = $1, hashtags = $2, state = $3, attempt_count = $4,
			confirmation_id = $5, published_url = $6, last_error = $7, updated_at = $8
		WHERE id = $9 AND state = $10`,
		rec.Text,
		string(hashtags),
		string(rec.State),
		rec.AttemptCount,
		rec.ConfirmationID,
		rec.PublishedURL,
		rec.LastError,
		rec.UpdatedAt.UnixNano(),
		id,
		string(expected),
	)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, corestore.ErrStateConflict
	}

	if len(rec.History) > priorHistory {
		if err := insertHistory(ctx, tx, id, rec.History[priorHistory:]); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return rec, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) loadHistory(ctx context.Context, q queryer, postID string) ([]api.HistoryEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT at, transition, actor, detail
		FROM post_history
		WHERE post_id = $1
		ORDER BY id ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.HistoryEntry
	for rows.Next() {
		var (
			atN        int64
			transition string
			actor      string
			detail     string
		)
		if err := rows.Scan(&atN, &transition, &actor, &detail); err != nil {
			return nil, err
		}
		out = append(out, api.HistoryEntry{
			At:         time.Unix(0, atN),
			Transition: transition,
			Actor:      actor,
			Detail:     detail,
		})
	}
	return out, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertHistory(ctx context.Context, e execer, postID string, entries []api.HistoryEntry) error {
	for _, h := range entries {
		at := h.At
		if at.IsZero() {
			at = time.Now()
		}
		_, err := e.ExecContext(ctx, `
			INSERT INTO post_history (post_id, at, transition, actor, detail)
			VALUES ($1, $2, $3, $4, $5)`,
			postID,
			at.UnixNano(),
			h.Transition,
			h.Actor,
			h.Detail,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*api.PostRecord, error) {
	var (
		rec          api.PostRecord
		platformStr  string
		hashtagsJSON string
		stateStr     string
		createdN     int64
		updatedN     int64
	)

	err := row.Scan(
		&rec.ID,
		&rec.Topic,
		&platformStr,
		&rec.Tone,
		&rec.AdditionalContext,
		&rec.Text,
		&hashtagsJSON,
		&stateStr,
		&rec.AttemptCount,
		&rec.ConfirmationID,
		&rec.PublishedURL,
		&rec.LastError,
		&createdN,
		&updatedN,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, corestore.ErrNotFound
		}
		return nil, err
	}

	rec.Platform = api.Platform(platformStr)
	rec.State = api.State(stateStr)
	rec.CreatedAt = time.Unix(0, createdN)
	rec.UpdatedAt = time.Unix(0, updatedN)

	if hashtagsJSON != "" {
		if err := json.Unmarshal([]byte(hashtagsJSON), &rec.Hashtags); err != nil {
			return nil, err
		}
	}

	return &rec, nil
}
