package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tkarvine/draftgate/pkg/api"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	return s
}

func TestSQLiteStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	rec, err := s.Create(ctx, api.GenerationRequest{
		Topic:             "AI in healthcare",
		Platform:          api.PlatformLinkedIn,
		Tone:              "professional",
		AdditionalContext: "mention the new clinic",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Topic != rec.Topic || got.Platform != rec.Platform || got.Tone != rec.Tone {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
	if got.AdditionalContext != "mention the new clinic" {
		t.Fatalf("additional context lost: %q", got.AdditionalContext)
	}
	if got.State != api.StateGenerating || got.AttemptCount != 0 {
		t.Fatalf("unexpected initial state: %+v", got)
	}
	if len(got.History) != 1 || got.History[0].Transition != "created" {
		t.Fatalf("expected created history entry, got %+v", got.History)
	}
}

func TestSQLiteStoreGetNotFound(t *testing.T) {
	s := newTestSQLiteStore(t)

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStoreCompareAndTransitionPersistsMutation(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	rec, err := s.Create(ctx, api.GenerationRequest{Topic: "t", Platform: api.PlatformTwitter, Tone: "casual"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := s.CompareAndTransition(ctx, rec.ID, api.StateGenerating, func(r *api.PostRecord) error {
		r.Text = "draft one"
		r.Hashtags = []string{"golang", "release"}
		r.AttemptCount++
		r.State = api.StatePendingApproval
		r.AppendHistory("generating->pending_approval", "generator", "attempt 1")
		return nil
	})
	if err != nil {
		t.Fatalf("CompareAndTransition failed: %v", err)
	}
	if updated.State != api.StatePendingApproval || updated.AttemptCount != 1 {
		t.Fatalf("unexpected record after transition: %+v", updated)
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Text != "draft one" {
		t.Fatalf("text not persisted: %q", got.Text)
	}
	if len(got.Hashtags) != 2 || got.Hashtags[0] != "golang" || got.Hashtags[1] != "release" {
		t.Fatalf("hashtags not persisted: %v", got.Hashtags)
	}
	if len(got.History) != 2 || got.History[1].Transition != "generating->pending_approval" {
		t.Fatalf("history not persisted: %+v", got.History)
	}
	if got.History[1].Detail != "attempt 1" {
		t.Fatalf("history detail lost: %+v", got.History[1])
	}
}

func TestSQLiteStoreCompareAndTransitionStateConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	rec, err := s.Create(ctx, api.GenerationRequest{Topic: "t", Platform: api.PlatformTwitter, Tone: "casual"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = s.CompareAndTransition(ctx, rec.ID, api.StatePendingApproval, func(r *api.PostRecord) error {
		r.State = api.StatePublishing
		return nil
	})
	if !errors.Is(err, ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}

	_, err = s.CompareAndTransition(ctx, "missing", api.StateGenerating, func(r *api.PostRecord) error {
		return nil
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStoreMutatorErrorRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	rec, err := s.Create(ctx, api.GenerationRequest{Topic: "t", Platform: api.PlatformTwitter, Tone: "casual"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	boom := errors.New("boom")
	_, err = s.CompareAndTransition(ctx, rec.ID, api.StateGenerating, func(r *api.PostRecord) error {
		r.Text = "should not persist"
		r.AppendHistory("bogus", "test", "")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected mutator error, got %v", err)
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Text != "" || got.State != api.StateGenerating {
		t.Fatalf("expected record untouched, got %+v", got)
	}
	if len(got.History) != 1 {
		t.Fatalf("expected history untouched, got %+v", got.History)
	}
}

func TestSQLiteStoreConcurrentTransitionSingleWinner(t *testing.T) {
	ctx := context.Background()

	// File-backed so the racers contend on real SQLite locking, not just the
	// shared in-memory connection.
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "posts.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	rec, err := s.Create(ctx, api.GenerationRequest{Topic: "t", Platform: api.PlatformTwitter, Tone: "casual"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := s.CompareAndTransition(ctx, rec.ID, api.StateGenerating, func(r *api.PostRecord) error {
		r.State = api.StatePendingApproval
		return nil
	}); err != nil {
		t.Fatalf("transition failed: %v", err)
	}

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)

	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.CompareAndTransition(ctx, rec.ID, api.StatePendingApproval, func(r *api.PostRecord) error {
				r.State = api.StatePublishing
				return nil
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, ErrStateConflict):
		default:
			t.Fatalf("expected ErrStateConflict for losers, got %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.State != api.StatePublishing {
		t.Fatalf("expected publishing after the race, got %s", got.State)
	}
}

func TestSQLiteStoreListPendingOrderedByCreation(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	var ids []string
	for i := 0; i < 3; i++ {
		rec, err := s.Create(ctx, api.GenerationRequest{Topic: "t", Platform: api.PlatformTwitter, Tone: "casual"})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		ids = append(ids, rec.ID)
		time.Sleep(time.Millisecond)
	}

	for _, id := range []string{ids[2], ids[0]} {
		if _, err := s.CompareAndTransition(ctx, id, api.StateGenerating, func(r *api.PostRecord) error {
			r.State = api.StatePendingApproval
			return nil
		}); err != nil {
			t.Fatalf("transition failed: %v", err)
		}
	}

	pending, err := s.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending records, got %d", len(pending))
	}
	if pending[0].ID != ids[0] || pending[1].ID != ids[2] {
		t.Fatalf("expected oldest-first ordering, got %s then %s", pending[0].ID, pending[1].ID)
	}
}
