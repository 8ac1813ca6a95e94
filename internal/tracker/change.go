package tracker

import (
	"time"

	"github.com/kingrea/lectern/internal/lifecycle"
)

// ChangeKind classifies a published change.
type ChangeKind string

const (
	ChangeApplied  ChangeKind = "transition_applied"
	ChangeRejected ChangeKind = "transition_rejected"
	ChangeEdited   ChangeKind = "catalog_edited"
)

// Change is the notification the tracker publishes after every transition
// attempt or catalog edit.
type Change struct {
	ID        string                  `json:"id"`
	Kind      ChangeKind              `json:"kind"`
	CourseID  string                  `json:"courseId"`
	UnitID    string                  `json:"unitId,omitempty"`
	TopicID   string                  `json:"topicId,omitempty"`
	TopicName string                  `json:"topicName,omitempty"`
	Event     lifecycle.Event         `json:"event,omitempty"`
	From      lifecycle.ContentStatus `json:"from,omitempty"`
	To        lifecycle.ContentStatus `json:"to,omitempty"`
	Actor     lifecycle.Actor         `json:"actor"`
	Revision  int                     `json:"revision"`
	At        time.Time               `json:"at"`
	Detail    string                  `json:"detail,omitempty"`
}

// Publisher receives changes. Publish must not block for long; the tracker
// calls it while holding its lock.
type Publisher interface {
	Publish(Change)
}

// PublisherFunc adapts a function into a Publisher.
type PublisherFunc func(Change)

// Publish executes f(change).
func (f PublisherFunc) Publish(change Change) {
	if f != nil {
		f(change)
	}
}

// Logger is the structured logging surface the tracker writes to. It matches
// *logging.Logger.
type Logger interface {
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}
