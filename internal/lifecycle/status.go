package lifecycle

import (
	"fmt"
	"strings"
)

// ContentStatus enumerates the production stage of a topic.
type ContentStatus string

const (
	StatusPlanned     ContentStatus = "planned"
	StatusScripting   ContentStatus = "scripting"
	StatusRecording   ContentStatus = "recording"
	StatusEditing     ContentStatus = "editing"
	StatusUploaded    ContentStatus = "uploaded"
	StatusUnderReview ContentStatus = "under_review"
	StatusApproved    ContentStatus = "approved"
	StatusFinalized   ContentStatus = "finalized"
)

// statusOrder is the canonical stage order. Index == ordinal.
var statusOrder = []ContentStatus{
	StatusPlanned,
	StatusScripting,
	StatusRecording,
	StatusEditing,
	StatusUploaded,
	StatusUnderReview,
	StatusApproved,
	StatusFinalized,
}

var statusLabels = map[ContentStatus][2]string{
	StatusPlanned:     {"Planned", "Plan"},
	StatusScripting:   {"Scripting", "Script"},
	StatusRecording:   {"Recording", "Record"},
	StatusEditing:     {"Editing", "Edit"},
	StatusUploaded:    {"Uploaded", "Upload"},
	StatusUnderReview: {"Review", "Review"},
	StatusApproved:    {"Approved", "Approve"},
	StatusFinalized:   {"Published", "Publish"},
}

// Statuses returns every status in canonical order.
func Statuses() []ContentStatus {
	out := make([]ContentStatus, len(statusOrder))
	copy(out, statusOrder)
	return out
}

// Valid reports whether s is one of the eight known stages.
func (s ContentStatus) Valid() bool {
	return s.Ordinal() >= 0
}

// Ordinal returns the zero-based stage position, or -1 for unknown values.
func (s ContentStatus) Ordinal() int {
	for i, candidate := range statusOrder {
		if candidate == s {
			return i
		}
	}
	return -1
}

// IsTerminal reports whether no event leaves s.
func (s ContentStatus) IsTerminal() bool {
	return s == StatusFinalized
}

// AtLeast reports whether s has reached (or passed) the other stage in the
// canonical order. Unknown statuses never reach anything.
func (s ContentStatus) AtLeast(other ContentStatus) bool {
	pos := s.Ordinal()
	return pos >= 0 && pos >= other.Ordinal() && other.Valid()
}

// Label returns the display name used by timelines and badges.
func (s ContentStatus) Label() string {
	if labels, ok := statusLabels[s]; ok {
		return labels[0]
	}
	return string(s)
}

// ShortLabel returns the compact timeline label.
func (s ContentStatus) ShortLabel() string {
	if labels, ok := statusLabels[s]; ok {
		return labels[1]
	}
	return string(s)
}

// ParseStatus converts user input into a ContentStatus. Matching ignores case
// and accepts dashes or spaces in place of underscores.
func ParseStatus(value string) (ContentStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	status := ContentStatus(normalized)
	if !status.Valid() {
		return "", fmt.Errorf("lifecycle: unknown status %q", value)
	}
	return status, nil
}
