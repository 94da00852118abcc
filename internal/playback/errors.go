package playback

import (
	"errors"
	"fmt"

	"github.com/eomgitae/care-console/internal/models"
)

var (
	// ErrInvalidScript is returned when a script cannot be played: it is
	// empty or its offsets go backwards.
	ErrInvalidScript = errors.New("invalid script")

	// ErrInvalidState is returned when Start is called on an active engine.
	ErrInvalidState = errors.New("invalid engine state")

	// ErrMissingReferent marks an annotation whose message no longer exists
	// because the session was stopped or restarted first. Such annotations
	// are dropped.
	ErrMissingReferent = errors.New("annotated message not found in session")
)

// ValidateEvents checks that events form a playable timeline.
func ValidateEvents(events []models.DialogueEvent) error {
	if len(events) == 0 {
		return fmt.Errorf("%w: no dialogue events", ErrInvalidScript)
	}
	for i, ev := range events {
		if ev.Offset < 0 {
			return fmt.Errorf("%w: event %d has negative offset %s", ErrInvalidScript, i, ev.Offset)
		}
		if i > 0 && ev.Offset < events[i-1].Offset {
			return fmt.Errorf("%w: event %d offset %s precedes event %d offset %s",
				ErrInvalidScript, i, ev.Offset, i-1, events[i-1].Offset)
		}
		if !ev.Speaker.Valid() {
			return fmt.Errorf("%w: event %d has unknown speaker %q", ErrInvalidScript, i, ev.Speaker)
		}
		if ev.Annotation != nil && !ev.Annotation.Severity.Valid() {
			return fmt.Errorf("%w: event %d has unknown severity %q", ErrInvalidScript, i, ev.Annotation.Severity)
		}
	}
	return nil
}
