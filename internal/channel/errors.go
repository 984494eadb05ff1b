package channel

import (
	"errors"
	"fmt"
)

// Sentinel errors for channel operations.
var (
	// ErrEmptyContent indicates content with no fragments was sequenced.
	ErrEmptyContent = errors.New("channel: content has no fragments")

	// ErrUnknownAttachmentType indicates an attachment step whose media
	// type was neither supplied nor inferable from its URL.
	ErrUnknownAttachmentType = errors.New("channel: unknown attachment type")

	// ErrCarouselTooLarge indicates a carousel step above the transport limit.
	ErrCarouselTooLarge = errors.New("channel: carousel exceeds element limit")

	// ErrUnknownStep indicates a step kind the dispatcher cannot execute.
	ErrUnknownStep = errors.New("channel: unknown step kind")

	// ErrNoChannel indicates the event targets a channel that is not
	// registered.
	ErrNoChannel = errors.New("channel: unknown channel")

	// ErrDuplicateChannel indicates a channel with the same name is already
	// registered.
	ErrDuplicateChannel = errors.New("channel: duplicate channel name")

	// ErrNoInbox indicates a channel's inbox callback has not been set.
	ErrNoInbox = errors.New("channel: inbox not set")
)

// StepError reports the step that aborted a dispatch. Steps before Index
// were delivered; steps after it were never attempted.
type StepError struct {
	Index int
	Kind  StepKind
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("channel: step %d (%s): %v", e.Index, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
