package workflow

import (
	"errors"
	"fmt"

	"github.com/kingrea/lectern/internal/lifecycle"
)

var (
	// ErrInvalidTransition is returned when the event is unknown, the topic is
	// terminal, or the event is not defined for the topic's current status.
	ErrInvalidTransition = errors.New("workflow: invalid transition")
	// ErrUnauthorizedActor is returned when the actor's role may not fire the event.
	ErrUnauthorizedActor = errors.New("workflow: unauthorized actor")
	// ErrMissingPayload is returned when a required payload field is absent.
	ErrMissingPayload = errors.New("workflow: missing payload")
)

// TransitionError describes a rejected transition. It unwraps to one of the
// sentinel errors above so callers can use errors.Is.
type TransitionError struct {
	Kind     error
	Event    lifecycle.Event
	From     lifecycle.ContentStatus
	Role     lifecycle.Role
	Required lifecycle.Role
	Field    lifecycle.Field
	Reason   string
}

func (e *TransitionError) Error() string {
	switch e.Kind {
	case ErrUnauthorizedActor:
		if e.Reason != "" {
			return fmt.Sprintf("%v: %s (%s)", e.Kind, e.Event, e.Reason)
		}
		return fmt.Sprintf("%v: %s requires %s, got %q", e.Kind, e.Event, e.Required, e.Role)
	case ErrMissingPayload:
		return fmt.Sprintf("%v: %s requires %s", e.Kind, e.Event, e.Field)
	default:
		if e.Reason != "" {
			return fmt.Sprintf("%v: %s from %q (%s)", e.Kind, e.Event, e.From, e.Reason)
		}
		return fmt.Sprintf("%v: %s from %q", e.Kind, e.Event, e.From)
	}
}

func (e *TransitionError) Unwrap() error {
	return e.Kind
}

// IsRejection reports whether err is one of the transition rejections.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrUnauthorizedActor) ||
		errors.Is(err, ErrMissingPayload)
}
