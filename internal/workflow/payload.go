package workflow

import (
	"strings"

	"github.com/kingrea/lectern/internal/lifecycle"
)

// Payload carries the optional values an event may merge into a topic.
// Empty values never clear a field that is already set.
type Payload struct {
	VideoURL            string   `json:"videoUrl,omitempty"`
	EditorComments      string   `json:"editorComments,omitempty"`
	TeacherNotes        string   `json:"teacherNotes,omitempty"`
	EditorNotes         string   `json:"editorNotes,omitempty"`
	EstimatedTime       int      `json:"estimatedTime,omitempty"`
	PptURL              string   `json:"pptUrl,omitempty"`
	ContentMaterialsURL []string `json:"contentMaterialsUrl,omitempty"`
}

// Has reports whether the payload provides a non-blank value for field.
func (p Payload) Has(field lifecycle.Field) bool {
	switch field {
	case lifecycle.FieldVideoURL:
		return strings.TrimSpace(p.VideoURL) != ""
	default:
		return false
	}
}

func (p Payload) materials() []string {
	var out []string
	for _, url := range p.ContentMaterialsURL {
		if trimmed := strings.TrimSpace(url); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
