package api

import (
	"strings"
	"testing"
)

func TestStateTerminal(t *testing.T) {
	terminal := []State{StatePublished, StatePublishFailed, StateRejectedFinal}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Fatalf("expected %q to be terminal", s)
		}
	}

	open := []State{StateGenerating, StatePendingApproval, StatePublishing}
	for _, s := range open {
		if s.Terminal() {
			t.Fatalf("expected %q to be non-terminal", s)
		}
	}
}

func TestPlatformMaxLength(t *testing.T) {
	if got := PlatformTwitter.MaxLength(); got != 280 {
		t.Fatalf("expected twitter limit 280, got %d", got)
	}
	if got := PlatformLinkedIn.MaxLength(); got != 3000 {
		t.Fatalf("expected linkedin limit 3000, got %d", got)
	}
}

func TestFormattedTextAppendsHashtags(t *testing.T) {
	rec := &PostRecord{
		Text:     "Shipping season is here.",
		Hashtags: []string{"golang", "#release", " "},
	}

	got := rec.FormattedText()
	want := "Shipping season is here.\n\n#golang #release"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormattedTextWithoutHashtags(t *testing.T) {
	rec := &PostRecord{Text: "plain"}
	if got := rec.FormattedText(); got != "plain" {
		t.Fatalf("expected text unchanged, got %q", got)
	}
	if rec.CharCount() != len("plain") {
		t.Fatalf("unexpected char count %d", rec.CharCount())
	}
}

func TestCloneIsDeep(t *testing.T) {
	rec := &PostRecord{
		ID:       "p-1",
		Text:     "original",
		Hashtags: []string{"a"},
	}
	rec.AppendHistory("created", "gateway", "")

	cp := rec.Clone()
	cp.Text = "changed"
	cp.Hashtags[0] = "b"
	cp.AppendHistory("generating->pending_approval", "generator", "")

	if rec.Text != "original" {
		t.Fatalf("clone mutation leaked into original text")
	}
	if rec.Hashtags[0] != "a" {
		t.Fatalf("clone mutation leaked into original hashtags")
	}
	if len(rec.History) != 1 {
		t.Fatalf("clone mutation leaked into original history: %d entries", len(rec.History))
	}
}

func TestAppendHistoryOnlyExtends(t *testing.T) {
	rec := &PostRecord{}
	rec.AppendHistory("created", "gateway", "")
	rec.AppendHistory("generating->pending_approval", "generator", "")

	if len(rec.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(rec.History))
	}
	if rec.History[0].Transition != "created" {
		t.Fatalf("expected first entry preserved, got %+v", rec.History[0])
	}
	if rec.History[1].At.Before(rec.History[0].At) {
		t.Fatalf("expected history timestamps to be non-decreasing")
	}
}

func TestDecisionActionValid(t *testing.T) {
	for _, a := range []Action{ActionApprove, ActionReject, ActionEdit} {
		if !a.Valid() {
			t.Fatalf("expected %q to be valid", a)
		}
	}
	if Action("publish").Valid() {
		t.Fatalf("expected unknown action to be invalid")
	}
}

func TestGenerationErrorUnwrap(t *testing.T) {
	cause := &PublishError{Platform: PlatformTwitter, Cause: ErrStateConflict}
	if !strings.Contains(cause.Error(), "twitter") {
		t.Fatalf("expected platform in message, got %q", cause.Error())
	}
	if cause.Unwrap() != ErrStateConflict {
		t.Fatalf("expected Unwrap to return the cause")
	}
}
