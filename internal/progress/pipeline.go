package progress

import (
	"github.com/kingrea/lectern/internal/catalog"
	"github.com/kingrea/lectern/internal/lifecycle"
)

// Pipeline counts how far topics have travelled through production.
type Pipeline struct {
	Planned        int `json:"planned"`
	Scripted       int `json:"scripted"`
	Uploaded       int `json:"uploaded"`
	Reviewed       int `json:"reviewed"`
	Finalized      int `json:"finalized"`
	AwaitingReview int `json:"awaitingReview"`
	NeedsRecording int `json:"needsRecording"`
	ReadyToPublish int `json:"readyToPublish"`
}

// PipelineFor computes stage counts. Planned is the total topic count since
// every topic starts there.
func PipelineFor(topics []catalog.Topic) Pipeline {
	return Pipeline{
		Planned:        len(topics),
		Scripted:       Reached(topics, lifecycle.StatusScripting),
		Uploaded:       Reached(topics, lifecycle.StatusUploaded),
		Reviewed:       Reached(topics, lifecycle.StatusApproved),
		Finalized:      countStatus(topics, lifecycle.StatusFinalized),
		AwaitingReview: countStatus(topics, lifecycle.StatusUploaded) + countStatus(topics, lifecycle.StatusUnderReview),
		NeedsRecording: countStatus(topics, lifecycle.StatusScripting),
		ReadyToPublish: countStatus(topics, lifecycle.StatusApproved),
	}
}

// QueueItem is a topic waiting on someone, with enough context to act on it.
type QueueItem struct {
	CourseID   string        `json:"courseId"`
	CourseName string        `json:"courseName"`
	UnitID     string        `json:"unitId"`
	UnitName   string        `json:"unitName"`
	Topic      catalog.Topic `json:"topic"`
}

// Queue lists topics whose status is one of statuses, in catalog order.
func Queue(courses []catalog.Course, statuses ...lifecycle.ContentStatus) []QueueItem {
	want := map[lifecycle.ContentStatus]bool{}
	for _, status := range statuses {
		want[status] = true
	}
	var out []QueueItem
	for _, course := range courses {
		for _, unit := range course.Units {
			for _, topic := range unit.Topics {
				if !want[topic.Status] {
					continue
				}
				out = append(out, QueueItem{
					CourseID:   course.ID,
					CourseName: course.Name,
					UnitID:     unit.ID,
					UnitName:   unit.Name,
					Topic:      topic.Clone(),
				})
			}
		}
	}
	return out
}

// AwaitingReview lists uploaded and under-review topics for teachers.
func AwaitingReview(courses []catalog.Course) []QueueItem {
	return Queue(courses, lifecycle.StatusUploaded, lifecycle.StatusUnderReview)
}

// NeedsRecording lists scripted topics for editors.
func NeedsRecording(courses []catalog.Course) []QueueItem {
	return Queue(courses, lifecycle.StatusScripting)
}

// ReadyToPublish lists approved topics for editors.
func ReadyToPublish(courses []catalog.Course) []QueueItem {
	return Queue(courses, lifecycle.StatusApproved)
}

// Overview is the whole-catalog view an administrator sees.
type Overview struct {
	Courses          int                    `json:"courses"`
	Degrees          int                    `json:"degrees"`
	DanglingPrograms []string               `json:"danglingPrograms,omitempty"`
	Staff            map[lifecycle.Role]int `json:"staff"`
	Progress         int                    `json:"progress"`
	Pipeline         Pipeline               `json:"pipeline"`
	Summary
}

// OverviewFor rolls up the entire catalog together with staff counts.
func OverviewFor(cat catalog.Catalog, staff []catalog.StaffEntry) Overview {
	topics := cat.Topics()
	summary := Summarize(topics)
	return Overview{
		Courses:          len(cat.Courses),
		Degrees:          len(cat.Degrees),
		DanglingPrograms: cat.DanglingPrograms(),
		Staff:            catalog.CountByRole(staff),
		Progress:         WholePercent(summary.Percent),
		Pipeline:         PipelineFor(topics),
		Summary:          summary,
	}
}
