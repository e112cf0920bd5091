package api

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced post record does not exist.
	ErrNotFound = errors.New("post record not found")

	// ErrInvalidTransition is returned when an action is attempted from a
	// state that does not permit it, for example approving a record that
	// is already published.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrStateConflict is returned when a concurrent mutation is detected:
	// the record's state changed between read and write. Callers should
	// refresh and reconsider rather than retry blindly.
	ErrStateConflict = errors.New("state conflict")

	// ErrEmptyEdit is returned by Decide when an edit decision carries no
	// replacement text.
	ErrEmptyEdit = errors.New("edited text must not be empty")

	// ErrContentTooLong is returned when post content exceeds the target
	// platform's character limit.
	ErrContentTooLong = errors.New("content exceeds platform character limit")
)

// GenerationError wraps a ContentGenerator failure.
type GenerationError struct {
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("content generation failed: %v", e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }

// PublishError wraps a Publisher failure.
type PublishError struct {
	Platform Platform
	Cause    error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish to %s failed: %v", e.Platform, e.Cause)
}

func (e *PublishError) Unwrap() error { return e.Cause }
