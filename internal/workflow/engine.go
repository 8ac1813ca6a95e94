package workflow

import (
	"strings"
	"time"

	"github.com/kingrea/lectern/internal/catalog"
	"github.com/kingrea/lectern/internal/lifecycle"
)

// Engine applies transitions using an injected clock. It holds no state
// beyond the clock and is safe for concurrent use.
type Engine struct {
	clock func() time.Time
}

// Option customizes the engine instance.
type Option func(*Engine)

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// New constructs an engine that stamps transitions with time.Now unless a
// clock is supplied.
func New(opts ...Option) *Engine {
	engine := &Engine{clock: time.Now}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Now returns the engine clock's current time in UTC.
func (e *Engine) Now() time.Time {
	return e.clock().UTC()
}

// Apply validates and applies event to topic on behalf of actor.
func (e *Engine) Apply(topic catalog.Topic, event lifecycle.Event, actor lifecycle.Actor, payload Payload) (catalog.Topic, error) {
	return ApplyTransition(topic, event, actor, payload, e.Now())
}

// Check runs the same validation as Apply without producing a topic.
func (e *Engine) Check(topic catalog.Topic, event lifecycle.Event, actor lifecycle.Actor, payload Payload) error {
	_, err := validate(topic, event, actor, payload)
	return err
}

// ApplyTransition is the pure transition function. The input topic is never
// modified; on success a new topic is returned with a stamp dated at.
func ApplyTransition(topic catalog.Topic, event lifecycle.Event, actor lifecycle.Actor, payload Payload, at time.Time) (catalog.Topic, error) {
	rule, err := validate(topic, event, actor, payload)
	if err != nil {
		return catalog.Topic{}, err
	}
	next := topic.Clone()
	next.Status = rule.To
	notes := merge(&next, event, actor, payload)
	next.History = append(next.History, catalog.Stamp{
		Event: event,
		From:  topic.Status,
		To:    rule.To,
		Actor: strings.TrimSpace(actor.Name),
		Role:  actor.Role,
		At:    at,
		Notes: notes,
	})
	next.UpdatedAt = at
	return next, nil
}

// Available lists the events role may fire on topic right now, in table order.
func Available(topic catalog.Topic, role lifecycle.Role) []lifecycle.Event {
	if !topic.Status.Valid() || topic.Status.IsTerminal() {
		return nil
	}
	var out []lifecycle.Event
	for _, rule := range lifecycle.Rules() {
		if rule.Role == role && rule.Permits(topic.Status) {
			out = append(out, rule.Event)
		}
	}
	return out
}

// Next returns the forward event role may fire on topic, skipping
// requestChanges. It is what a single "next action" button triggers.
func Next(topic catalog.Topic, role lifecycle.Role) (lifecycle.Event, bool) {
	for _, event := range Available(topic, role) {
		if event != lifecycle.EventRequestChanges {
			return event, true
		}
	}
	return "", false
}

func validate(topic catalog.Topic, event lifecycle.Event, actor lifecycle.Actor, payload Payload) (lifecycle.Rule, error) {
	rule, ok := lifecycle.RuleFor(event)
	if !ok {
		return lifecycle.Rule{}, &TransitionError{Kind: ErrInvalidTransition, Event: event, From: topic.Status, Role: actor.Role, Reason: "unknown event"}
	}
	if !topic.Status.Valid() {
		return lifecycle.Rule{}, &TransitionError{Kind: ErrInvalidTransition, Event: event, From: topic.Status, Role: actor.Role, Reason: "unknown status"}
	}
	if topic.Status.IsTerminal() {
		return lifecycle.Rule{}, &TransitionError{Kind: ErrInvalidTransition, Event: event, From: topic.Status, Role: actor.Role, Reason: "topic is finalized"}
	}
	if actor.Role != rule.Role {
		return lifecycle.Rule{}, &TransitionError{Kind: ErrUnauthorizedActor, Event: event, From: topic.Status, Role: actor.Role, Required: rule.Role}
	}
	// A topic that already moved past the event's stage is reported as an
	// invalid transition below, so repeats never read as authorization faults.
	if owner, _ := lifecycle.Owner(topic.Status); owner != actor.Role && rule.Upcoming(topic.Status) {
		return lifecycle.Rule{}, &TransitionError{Kind: ErrUnauthorizedActor, Event: event, From: topic.Status, Role: actor.Role, Required: owner, Reason: "stage " + string(topic.Status) + " belongs to " + string(owner)}
	}
	if strings.TrimSpace(actor.Name) == "" {
		return lifecycle.Rule{}, &TransitionError{Kind: ErrUnauthorizedActor, Event: event, From: topic.Status, Role: actor.Role, Required: rule.Role, Reason: "actor name is required"}
	}
	if !rule.Permits(topic.Status) {
		return lifecycle.Rule{}, &TransitionError{Kind: ErrInvalidTransition, Event: event, From: topic.Status, Role: actor.Role}
	}
	for _, field := range rule.Required {
		if !payload.Has(field) {
			return lifecycle.Rule{}, &TransitionError{Kind: ErrMissingPayload, Event: event, From: topic.Status, Role: actor.Role, Field: field}
		}
	}
	return rule, nil
}

// merge writes the event's payload into next and returns the note recorded
// on the stamp.
func merge(next *catalog.Topic, event lifecycle.Event, actor lifecycle.Actor, payload Payload) string {
	name := strings.TrimSpace(actor.Name)
	switch event {
	case lifecycle.EventStartScripting:
		if payload.EstimatedTime > 0 {
			next.EstimatedTime = payload.EstimatedTime
		}
		setIfPresent(&next.PptURL, payload.PptURL)
		if materials := payload.materials(); len(materials) > 0 {
			next.ContentMaterialsURL = materials
		}
		setIfPresent(&next.EditorComments, payload.EditorComments)
		return strings.TrimSpace(payload.EditorComments)
	case lifecycle.EventUpload:
		next.VideoURL = strings.TrimSpace(payload.VideoURL)
		next.UploadedBy = name
		setIfPresent(&next.EditorComments, payload.EditorComments)
		return strings.TrimSpace(payload.EditorComments)
	case lifecycle.EventApprove, lifecycle.EventRequestChanges:
		next.ReviewedBy = name
		setIfPresent(&next.TeacherNotes, payload.TeacherNotes)
		return strings.TrimSpace(payload.TeacherNotes)
	case lifecycle.EventFinalize:
		setIfPresent(&next.EditorNotes, payload.EditorNotes)
		return strings.TrimSpace(payload.EditorNotes)
	}
	return ""
}

func setIfPresent(dst *string, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		*dst = trimmed
	}
}
