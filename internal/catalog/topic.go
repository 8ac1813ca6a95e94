package catalog

import (
	"time"

	"github.com/kingrea/lectern/internal/lifecycle"
)

// Topic is the smallest unit of content production: one video or lesson.
// Artifact references are opaque strings; only their presence matters here.
type Topic struct {
	ID                  string                  `json:"id" yaml:"id"`
	Name                string                  `json:"name" yaml:"name"`
	EstimatedTime       int                     `json:"estimatedTime" yaml:"estimatedTime"`
	Status              lifecycle.ContentStatus `json:"status" yaml:"status"`
	VideoURL            string                  `json:"videoUrl,omitempty" yaml:"videoUrl,omitempty"`
	PptURL              string                  `json:"pptUrl,omitempty" yaml:"pptUrl,omitempty"`
	ContentMaterialsURL []string                `json:"contentMaterialsUrl,omitempty" yaml:"contentMaterialsUrl,omitempty"`
	UploadedBy          string                  `json:"uploadedBy,omitempty" yaml:"uploadedBy,omitempty"`
	ReviewedBy          string                  `json:"reviewedBy,omitempty" yaml:"reviewedBy,omitempty"`
	TeacherNotes        string                  `json:"teacherNotes,omitempty" yaml:"teacherNotes,omitempty"`
	EditorComments      string                  `json:"editorComments,omitempty" yaml:"editorComments,omitempty"`
	EditorNotes         string                  `json:"editorNotes,omitempty" yaml:"editorNotes,omitempty"`
	History             []Stamp                 `json:"history,omitempty" yaml:"history,omitempty"`
	UpdatedAt           time.Time               `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// Stamp records who moved a topic, when, and between which stages.
type Stamp struct {
	Event lifecycle.Event         `json:"event" yaml:"event"`
	From  lifecycle.ContentStatus `json:"from" yaml:"from"`
	To    lifecycle.ContentStatus `json:"to" yaml:"to"`
	Actor string                  `json:"actor" yaml:"actor"`
	Role  lifecycle.Role          `json:"role" yaml:"role"`
	At    time.Time               `json:"at" yaml:"at"`
	Notes string                  `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Clone returns a deep copy of the topic.
func (t Topic) Clone() Topic {
	clone := t
	if len(t.ContentMaterialsURL) > 0 {
		clone.ContentMaterialsURL = append([]string(nil), t.ContentMaterialsURL...)
	} else {
		clone.ContentMaterialsURL = nil
	}
	if len(t.History) > 0 {
		clone.History = append([]Stamp(nil), t.History...)
	} else {
		clone.History = nil
	}
	return clone
}

// LastStamp returns the most recent provenance stamp, if any.
func (t Topic) LastStamp() (Stamp, bool) {
	if len(t.History) == 0 {
		return Stamp{}, false
	}
	return t.History[len(t.History)-1], true
}
