package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tkarvine/draftgate/internal/store"
	"github.com/tkarvine/draftgate/pkg/api"
)

// DefaultMaxAttempts is the number of generation rounds a record gets before
// a rejection becomes final.
const DefaultMaxAttempts = 3

// Config describes how to construct an engineImpl.
// Only used inside this package; external callers use the helper functions
// in the root package.
type Config struct {
	Store     store.RecordStore
	Generator api.ContentGenerator
	Publisher api.Publisher
	Observer  api.Observer

	// MaxAttempts caps generation rounds; zero means DefaultMaxAttempts.
	MaxAttempts int
}

// engineImpl is a synchronous, in-process engine implementation. All workflow
// state lives in the store; the engine itself holds no per-record state, so a
// single instance serves any number of concurrent callers.
type engineImpl struct {
	store       store.RecordStore
	generator   api.ContentGenerator
	publisher   api.Publisher
	observer    api.Observer
	maxAttempts int
}

var _ api.Engine = (*engineImpl)(nil)

// New creates an Engine from the given configuration.
func New(cfg Config) (api.Engine, error) {
	if cfg.Store == nil {
		return nil, errors.New("engine: store is required")
	}
	if cfg.Generator == nil {
		return nil, errors.New("engine: content generator is required")
	}
	if cfg.Publisher == nil {
		return nil, errors.New("engine: publisher is required")
	}

	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	max := cfg.MaxAttempts
	if max <= 0 {
		max = DefaultMaxAttempts
	}

	return &engineImpl{
		store:       cfg.Store,
		generator:   cfg.Generator,
		publisher:   cfg.Publisher,
		observer:    obs,
		maxAttempts: max,
	}, nil
}

func (e *engineImpl) RequestGeneration(ctx context.Context, req api.GenerationRequest) (*api.PostRecord, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, errors.New("topic is required")
	}
	if !req.Platform.Valid() {
		return nil, fmt.Errorf("unsupported platform %q", req.Platform)
	}
	if strings.TrimSpace(req.Tone) == "" {
		return nil, errors.New("tone is required")
	}

	rec, err := e.store.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create post record: %w", err)
	}
	e.observer.OnRecordCreated(ctx, rec)

	return e.generate(ctx, rec, "")
}

// generate runs one generation round against a record in generating. On
// success the record moves to pending_approval with the draft installed and
// the attempt counter bumped; on failure it moves to rejected_final and the
// generator's error is returned wrapped in *api.GenerationError. Either way
// the returned record reflects the state that was persisted.
func (e *engineImpl) generate(ctx context.Context, rec *api.PostRecord, guidance string) (*api.PostRecord, error) {
	attempt := rec.AttemptCount + 1

	e.observer.OnGenerateStart(ctx, rec, attempt)
	start := time.Now()
	out, genErr := e.generator.Generate(ctx, api.GenerationRequest{
		Topic:             rec.Topic,
		Platform:          rec.Platform,
		Tone:              rec.Tone,
		AdditionalContext: rec.AdditionalContext,
		Guidance:          guidance,
	})
	e.observer.OnGenerateCompleted(ctx, rec, attempt, genErr, time.Since(start))

	if genErr != nil {
		failed, err := e.store.CompareAndTransition(ctx, rec.ID, api.StateGenerating, func(r *api.PostRecord) error {
			r.State = api.StateRejectedFinal
			r.LastError = genErr.Error()
			r.AppendHistory("generating->rejected_final", "engine", "generation failed: "+genErr.Error())
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("record generation failure for post %s: %w", rec.ID, e.mapStoreErr(err))
		}
		e.observer.OnTransition(ctx, failed, api.StateGenerating, api.StateRejectedFinal)
		return failed, &api.GenerationError{Cause: genErr}
	}

	pending, err := e.store.CompareAndTransition(ctx, rec.ID, api.StateGenerating, func(r *api.PostRecord) error {
		r.Text = out.Text
		r.Hashtags = out.Hashtags
		r.AttemptCount = attempt
		r.LastError = ""
		r.State = api.StatePendingApproval
		r.AppendHistory("generating->pending_approval", "generator", fmt.Sprintf("attempt %d", attempt))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store draft for post %s: %w", rec.ID, e.mapStoreErr(err))
	}
	e.observer.OnTransition(ctx, pending, api.StateGenerating, api.StatePendingApproval)

	return pending, nil
}

func (e *engineImpl) Decide(ctx context.Context, id string, d api.Decision) (*api.PostRecord, error) {
	if !d.Action.Valid() {
		return nil, fmt.Errorf("unknown action %q", d.Action)
	}
	actor := d.Actor
	if actor == "" {
		actor = "reviewer"
	}

	rec, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", id, e.mapStoreErr(err))
	}
	if rec.State != api.StatePendingApproval {
		return nil, fmt.Errorf("cannot %s post %s in state %s: %w", d.Action, id, rec.State, api.ErrInvalidTransition)
	}

	switch d.Action {
	case api.ActionApprove:
		return e.publish(ctx, rec, actor, "")

	case api.ActionEdit:
		edited := strings.TrimSpace(d.EditedText)
		if edited == "" {
			return nil, api.ErrEmptyEdit
		}
		candidate := rec.Clone()
		candidate.Text = edited
		if n := candidate.CharCount(); n > rec.Platform.MaxLength() {
			return nil, fmt.Errorf("edited post is %d characters, %s allows %d: %w", n, rec.Platform, rec.Platform.MaxLength(), api.ErrContentTooLong)
		}
		return e.publish(ctx, rec, actor, edited)

	case api.ActionReject:
		return e.reject(ctx, rec, actor, d.Feedback)
	default:
		return nil, fmt.Errorf("unknown action %q", d.Action)
	}
}

// publish claims the record by moving it pending_approval -> publishing, then
// calls the Publisher outside any store critical section, then finalizes to
// published or publish_failed. The claim step is the decision point: losing
// it means another reviewer decided first.
func (e *engineImpl) publish(ctx context.Context, rec *api.PostRecord, actor, editedText string) (*api.PostRecord, error) {
	detail := "approved"
	if editedText != "" {
		detail = "approved with edits"
	}

	claimed, err := e.store.CompareAndTransition(ctx, rec.ID, api.StatePendingApproval, func(r *api.PostRecord) error {
		if editedText != "" {
			r.Text = editedText
		}
		r.State = api.StatePublishing
		r.AppendHistory("pending_approval->publishing", actor, detail)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("claim post %s for publishing: %w", rec.ID, e.mapStoreErr(err))
	}
	e.observer.OnTransition(ctx, claimed, api.StatePendingApproval, api.StatePublishing)

	e.observer.OnPublishStart(ctx, claimed)
	start := time.Now()
	res, pubErr := e.publisher.Publish(ctx, claimed.FormattedText(), claimed.Platform)
	e.observer.OnPublishCompleted(ctx, claimed, pubErr, time.Since(start))

	if pubErr != nil {
		failed, err := e.store.CompareAndTransition(ctx, rec.ID, api.StatePublishing, func(r *api.PostRecord) error {
			r.State = api.StatePublishFailed
			r.LastError = pubErr.Error()
			r.AppendHistory("publishing->publish_failed", "publisher", pubErr.Error())
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("record publish failure for post %s: %w", rec.ID, e.mapStoreErr(err))
		}
		e.observer.OnTransition(ctx, failed, api.StatePublishing, api.StatePublishFailed)
		return failed, &api.PublishError{Platform: claimed.Platform, Cause: pubErr}
	}

	published, err := e.store.CompareAndTransition(ctx, rec.ID, api.StatePublishing, func(r *api.PostRecord) error {
		r.State = api.StatePublished
		r.ConfirmationID = res.ConfirmationID
		r.PublishedURL = res.URL
		r.LastError = ""
		r.AppendHistory("publishing->published", "publisher", res.ConfirmationID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("finalize post %s: %w", rec.ID, e.mapStoreErr(err))
	}
	e.observer.OnTransition(ctx, published, api.StatePublishing, api.StatePublished)

	return published, nil
}

// reject sends the record back for another generation round, or to
// rejected_final when the attempt budget is spent. Reviewer feedback is
// forwarded to the generator as guidance.
func (e *engineImpl) reject(ctx context.Context, rec *api.PostRecord, actor, feedback string) (*api.PostRecord, error) {
	if rec.AttemptCount >= e.maxAttempts {
		final, err := e.store.CompareAndTransition(ctx, rec.ID, api.StatePendingApproval, func(r *api.PostRecord) error {
			r.State = api.StateRejectedFinal
			r.AppendHistory("pending_approval->rejected_final", actor, feedback)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("reject post %s: %w", rec.ID, e.mapStoreErr(err))
		}
		e.observer.OnTransition(ctx, final, api.StatePendingApproval, api.StateRejectedFinal)
		return final, nil
	}

	regenerating, err := e.store.CompareAndTransition(ctx, rec.ID, api.StatePendingApproval, func(r *api.PostRecord) error {
		r.State = api.StateGenerating
		r.AppendHistory("pending_approval->generating", actor, feedback)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reject post %s: %w", rec.ID, e.mapStoreErr(err))
	}
	e.observer.OnTransition(ctx, regenerating, api.StatePendingApproval, api.StateGenerating)

	return e.generate(ctx, regenerating, feedback)
}

func (e *engineImpl) Get(ctx context.Context, id string) (*api.PostRecord, error) {
	rec, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", id, e.mapStoreErr(err))
	}
	return rec, nil
}

func (e *engineImpl) ListPending(ctx context.Context) ([]*api.PostRecord, error) {
	recs, err := e.store.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending posts: %w", err)
	}
	return recs, nil
}

// mapStoreErr translates store sentinels into the public api sentinels so
// callers only ever match against pkg/api errors.
func (e *engineImpl) mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return api.ErrNotFound
	case errors.Is(err, store.ErrStateConflict):
		return api.ErrStateConflict
	}
	return err
}
