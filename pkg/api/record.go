package api

import (
	"strings"
	"time"
)

// State is the lifecycle state of a PostRecord. A record is in exactly one
// state at any time.
type State string

const (
	StateGenerating      State = "generating"
	StatePendingApproval State = "pending_approval"
	StatePublishing      State = "publishing"
	StatePublished       State = "published"
	StatePublishFailed   State = "publish_failed"
	StateRejectedFinal   State = "rejected_final"
)

// Terminal reports whether no further transition is defined from s.
func (s State) Terminal() bool {
	switch s {
	case StatePublished, StatePublishFailed, StateRejectedFinal:
		return true
	}
	return false
}

// Platform identifies the target social network for a post.
type Platform string

const (
	PlatformTwitter  Platform = "twitter"
	PlatformLinkedIn Platform = "linkedin"
)

// MaxLength returns the platform's character limit for a single post,
// measured against the formatted text (body plus hashtags).
func (p Platform) MaxLength() int {
	switch p {
	case PlatformLinkedIn:
		return 3000
	default:
		return 280
	}
}

// Valid reports whether p names a supported platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformTwitter, PlatformLinkedIn:
		return true
	}
	return false
}

// HistoryEntry is one line of a record's append-only audit trail.
// Entries are only ever appended, never rewritten.
type HistoryEntry struct {
	At         time.Time
	Transition string
	Actor      string
	Detail     string
}

// PostRecord is the durable unit tracking one generation-to-publication
// lifecycle. The store owns the canonical copy; callers receive copies and
// all mutation goes through the store's CompareAndTransition.
type PostRecord struct {
	ID string

	// Request parameters, immutable after creation.
	Topic             string
	Platform          Platform
	Tone              string
	AdditionalContext string

	// Current draft. Written only by the engine during generate,
	// regenerate and edit transitions.
	Text     string
	Hashtags []string

	State        State
	AttemptCount int

	// Publish outcome, set when the record reaches published.
	ConfirmationID string
	PublishedURL   string

	// Most recent collaborator failure, if any.
	LastError string

	History []HistoryEntry

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FormattedText returns the draft body with hashtags appended, which is the
// exact content handed to the Publisher.
func (r *PostRecord) FormattedText() string {
	if len(r.Hashtags) == 0 {
		return r.Text
	}
	tags := make([]string, 0, len(r.Hashtags))
	for _, h := range r.Hashtags {
		h = strings.TrimSpace(strings.TrimPrefix(h, "#"))
		if h == "" {
			continue
		}
		tags = append(tags, "#"+h)
	}
	if len(tags) == 0 {
		return r.Text
	}
	return r.Text + "\n\n" + strings.Join(tags, " ")
}

// CharCount returns the length of the formatted text in runes.
func (r *PostRecord) CharCount() int {
	return len([]rune(r.FormattedText()))
}

// Clone returns a deep copy. Stores hand out clones so the canonical record
// cannot be mutated outside CompareAndTransition.
func (r *PostRecord) Clone() *PostRecord {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Hashtags = append([]string(nil), r.Hashtags...)
	cp.History = append([]HistoryEntry(nil), r.History...)
	return &cp
}

// AppendHistory extends the record's audit trail with a timestamped entry.
func (r *PostRecord) AppendHistory(transition, actor, detail string) {
	r.History = append(r.History, HistoryEntry{
		At:         time.Now(),
		Transition: transition,
		Actor:      actor,
		Detail:     detail,
	})
}

// Action is a reviewer's verdict on a pending post.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionEdit    Action = "edit"
)

// Valid reports whether a names a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionEdit:
		return true
	}
	return false
}

// Decision carries a reviewer's verdict into Engine.Decide.
type Decision struct {
	Action Action

	// EditedText replaces the draft body when Action is ActionEdit.
	// Required and non-empty in that case, ignored otherwise.
	EditedText string

	// Feedback is optional reviewer commentary. On reject it is forwarded
	// to the generator as guidance for the next attempt.
	Feedback string

	// Actor identifies who decided, for the audit trail. Defaults to
	// "reviewer" when empty.
	Actor string
}
