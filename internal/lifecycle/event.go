package lifecycle

import (
	"fmt"
	"strings"
)

// Event names a requested move through the lifecycle.
type Event string

const (
	EventStartScripting  Event = "startScripting"
	EventStartRecording  Event = "startRecording"
	EventMoveToEditing   Event = "moveToEditing"
	EventUpload          Event = "upload"
	EventMarkUnderReview Event = "markUnderReview"
	EventApprove         Event = "approve"
	EventRequestChanges  Event = "requestChanges"
	EventFinalize        Event = "finalize"
)

// Field names a payload value an event may require.
type Field string

const (
	FieldVideoURL Field = "videoUrl"
)

// Rule binds an event to the states it may fire from, the role allowed to
// fire it, and the payload fields it cannot do without.
type Rule struct {
	Event    Event
	From     []ContentStatus
	To       ContentStatus
	Role     Role
	Required []Field
}

// Permits reports whether the rule can fire from status.
func (r Rule) Permits(status ContentStatus) bool {
	for _, from := range r.From {
		if from == status {
			return true
		}
	}
	return false
}

// Upcoming reports whether status sits before the earliest of the rule's From
// states, meaning the topic has not yet reached the stage the event fires from.
func (r Rule) Upcoming(status ContentStatus) bool {
	pos := status.Ordinal()
	if pos < 0 {
		return false
	}
	for _, from := range r.From {
		if from.Ordinal() <= pos {
			return false
		}
	}
	return true
}

func (r Rule) clone() Rule {
	clone := r
	clone.From = append([]ContentStatus(nil), r.From...)
	clone.Required = append([]Field(nil), r.Required...)
	return clone
}

var eventOrder = []Event{
	EventStartScripting,
	EventStartRecording,
	EventMoveToEditing,
	EventUpload,
	EventMarkUnderReview,
	EventApprove,
	EventRequestChanges,
	EventFinalize,
}

var rules = map[Event]Rule{
	EventStartScripting: {
		Event: EventStartScripting,
		From:  []ContentStatus{StatusPlanned},
		To:    StatusScripting,
		Role:  RoleTeacher,
	},
	EventStartRecording: {
		Event: EventStartRecording,
		From:  []ContentStatus{StatusScripting},
		To:    StatusRecording,
		Role:  RoleEditor,
	},
	EventMoveToEditing: {
		Event: EventMoveToEditing,
		From:  []ContentStatus{StatusRecording},
		To:    StatusEditing,
		Role:  RoleEditor,
	},
	EventUpload: {
		Event:    EventUpload,
		From:     []ContentStatus{StatusEditing},
		To:       StatusUploaded,
		Role:     RoleEditor,
		Required: []Field{FieldVideoURL},
	},
	EventMarkUnderReview: {
		Event: EventMarkUnderReview,
		From:  []ContentStatus{StatusUploaded},
		To:    StatusUnderReview,
		Role:  RoleTeacher,
	},
	EventApprove: {
		Event: EventApprove,
		From:  []ContentStatus{StatusUploaded, StatusUnderReview},
		To:    StatusApproved,
		Role:  RoleTeacher,
	},
	// Rejection is only reachable before approval.
	EventRequestChanges: {
		Event: EventRequestChanges,
		From:  []ContentStatus{StatusUploaded, StatusUnderReview},
		To:    StatusUploaded,
		Role:  RoleTeacher,
	},
	EventFinalize: {
		Event: EventFinalize,
		From:  []ContentStatus{StatusApproved},
		To:    StatusFinalized,
		Role:  RoleEditor,
	},
}

// Events returns every event in table order.
func Events() []Event {
	out := make([]Event, len(eventOrder))
	copy(out, eventOrder)
	return out
}

// Rules returns a copy of the transition table in table order.
func Rules() []Rule {
	out := make([]Rule, 0, len(eventOrder))
	for _, event := range eventOrder {
		out = append(out, rules[event].clone())
	}
	return out
}

// RuleFor looks up the rule for an event.
func RuleFor(event Event) (Rule, bool) {
	rule, ok := rules[event]
	if !ok {
		return Rule{}, false
	}
	return rule.clone(), true
}

// Known reports whether e appears in the transition table.
func (e Event) Known() bool {
	_, ok := rules[e]
	return ok
}

// ParseEvent converts user input into an Event. Matching ignores case and
// separators, so "start-recording" and "START_RECORDING" both resolve.
func ParseEvent(value string) (Event, error) {
	key := eventKey(value)
	for _, event := range eventOrder {
		if eventKey(string(event)) == key {
			return event, nil
		}
	}
	return "", fmt.Errorf("lifecycle: unknown event %q", value)
}

func eventKey(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(value)
}
