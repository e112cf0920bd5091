package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tkarvine/draftgate/pkg/api"
)

// SQLiteStore is a RecordStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB
}

// Ensure SQLiteStore implements RecordStore.
var _ RecordStore = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database and
// returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	// SQLite allows a single writer. Funneling every statement through one
	// pooled connection serializes transactions, so a losing racer observes
	// the committed state change (ErrStateConflict) instead of SQLITE_BUSY.
	// It also keeps all statements on the same database when the DSN is
	// ":memory:".
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
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
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_posts_state ON posts(state, created_at);

		CREATE TABLE IF NOT EXISTS post_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			post_id TEXT NOT NULL,
			at INTEGER NOT NULL,
			transition TEXT NOT NULL,
			actor TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_post_history_post_id ON post_history(post_id, id);
	`)
	return err
}

func (s *SQLiteStore) Create(ctx context.Context, req api.GenerationRequest) (*api.PostRecord, error) {
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
		INSERT INTO posts (id, topic, platform, tone, additional_context, text, hashtags, state,
			attempt_count, confirmation_id, published_url, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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

func (s *SQLiteStore) Get(ctx context.Context, id string) (*api.PostRecord, error) {
	rec, err := scanPost(s.db.QueryRowContext(ctx, `
		SELECT id, topic, platform, tone, additional_context, text, hashtags, state,
			attempt_count, confirmation_id, published_url, last_error, created_at, updated_at
		FROM posts
		WHERE id = ?`, id))
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

func (s *SQLiteStore) ListPending(ctx context.Context) ([]*api.PostRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, topic, platform, tone, additional_context, text, hashtags, state,
			attempt_count, confirmation_id, published_url, last_error, created_at, updated_at
		FROM posts
		WHERE state = ?
		ORDER BY created_at ASC, id ASC`,
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

// CompareAndTransition runs the read-check-write inside a single transaction.
// The guarded UPDATE repeats the state check so a concurrent writer that
// slipped in between read and write surfaces as zero affected rows.
func (s *SQLiteStore) CompareAndTransition(ctx context.Context, id string, expected api.State, mut Mutator) (*api.PostRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rec, err := scanPost(tx.QueryRowContext(ctx, `
		SELECT id, topic, platform, tone, additional_context, text, hashtags, state,
			attempt_count, confirmation_id, published_url, last_error, created_at, updated_at
		FROM posts
		WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if rec.State != expected {
		return nil, ErrStateConflict
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
		SET text = ?, hashtags = ?, state = ?, attempt_count = ?,
			confirmation_id = ?, published_url = ?, last_error = ?, updated_at = ?
		WHERE id = ? AND state = ?`,
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
		return nil, ErrStateConflict
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

// queryer covers both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLiteStore) loadHistory(ctx context.Context, q queryer, postID string) ([]api.HistoryEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT at, transition, actor, detail
		FROM post_history
		WHERE post_id = ?
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
			VALUES (?, ?, ?, ?, ?)`,
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
			return nil, ErrNotFound
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
