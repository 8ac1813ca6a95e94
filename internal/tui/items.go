package tui

import (
	"fmt"
	"strings"

	"github.com/kingrea/lectern/internal/catalog"
	"github.com/kingrea/lectern/internal/lifecycle"
	"github.com/kingrea/lectern/internal/progress"
)

// courseItem implements list.Item for the course menu.
type courseItem struct {
	progress progress.CourseProgress
	places   int
}

func (i courseItem) Title() string { return i.progress.CourseName }

func (i courseItem) Description() string {
	summary := i.progress.Summary.Rounded(i.places)
	parts := []string{}
	if program := strings.TrimSpace(i.progress.Program); program != "" {
		parts = append(parts, program)
	}
	parts = append(parts,
		fmt.Sprintf("%d/%d published", summary.Finalized, summary.Total),
		formatPercent(summary.Percent, i.places),
	)
	return strings.Join(parts, " · ")
}

func (i courseItem) FilterValue() string { return i.progress.CourseName }

// topicItem implements list.Item for the topic list of one course.
type topicItem struct {
	courseID string
	unitID   string
	unitName string
	topic    catalog.Topic
	next     string
}

func (i topicItem) Title() string { return i.topic.Name }

func (i topicItem) Description() string {
	parts := []string{
		i.topic.Status.Label(),
		i.unitName,
		fmt.Sprintf("%d min", i.topic.EstimatedTime),
	}
	if i.next != "" {
		parts = append(parts, "next: "+i.next)
	}
	return strings.Join(parts, " · ")
}

func (i topicItem) FilterValue() string { return i.topic.Name }

func formatPercent(value float64, places int) string {
	return fmt.Sprintf("%.*f%%", places, value)
}

// stageDone reports whether a timeline stage is behind the current one.
func stageDone(stage, current lifecycle.ContentStatus) bool {
	return current.Valid() && stage.Ordinal() < current.Ordinal()
}
