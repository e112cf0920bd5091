package api

import "context"

// GenerationRequest describes the post a ContentGenerator should produce.
type GenerationRequest struct {
	Topic             string
	Platform          Platform
	Tone              string
	AdditionalContext string

	// Guidance carries reviewer feedback from a rejection into the next
	// generation attempt. Empty on the first attempt.
	Guidance string
}

// GeneratedPost is the output of a single generation call.
type GeneratedPost struct {
	Text     string
	Hashtags []string
}

// ContentGenerator produces post text from a generation request. It is a
// pure collaborator: no lifecycle state, no retries. The engine calls it at
// most once per transition.
type ContentGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (GeneratedPost, error)
}

// PublishResult is the confirmation returned by a successful publish.
type PublishResult struct {
	ConfirmationID string
	URL            string
}

// Publisher posts approved content to an external platform. Like the
// generator it holds no workflow state; retry policy, if any, lives behind
// this interface, never in the engine.
type Publisher interface {
	Publish(ctx context.Context, content string, platform Platform) (PublishResult, error)
}

// Engine is the approval workflow API consumed by gateways (HTTP, CLI).
//
// All operations are safe for concurrent use. Two callers racing to decide
// the same record are serialized by the store's compare-and-transition:
// exactly one wins, the other observes ErrStateConflict.
type Engine interface {
	// RequestGeneration creates a new record, synchronously invokes the
	// generator and resolves the record's state before returning: either
	// pending_approval with the draft text set, or rejected_final when
	// generation failed. The review step that follows is asynchronous and
	// unbounded; callers pick it up later via Decide.
	RequestGeneration(ctx context.Context, req GenerationRequest) (*PostRecord, error)

	// Decide applies a reviewer decision to a record in pending_approval.
	// A record in any other state yields ErrInvalidTransition; a record
	// that was pending when read but decided concurrently yields
	// ErrStateConflict. Decisions are deliberately not idempotent:
	// re-delivery fails rather than publishing twice.
	Decide(ctx context.Context, id string, d Decision) (*PostRecord, error)

	// Get returns the record by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*PostRecord, error)

	// ListPending returns all records awaiting review, oldest first.
	ListPending(ctx context.Context) ([]*PostRecord, error)
}
