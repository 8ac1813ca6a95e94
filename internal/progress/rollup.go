package progress

import (
	"github.com/kingrea/lectern/internal/catalog"
	"github.com/kingrea/lectern/internal/lifecycle"
)

// Summary is the rollup of a set of topics.
type Summary struct {
	Total            int                             `json:"total"`
	Finalized        int                             `json:"finalized"`
	Counts           map[lifecycle.ContentStatus]int `json:"counts"`
	Percent          float64                         `json:"percent"`
	EstimatedMinutes int                             `json:"estimatedMinutes"`
	PublishedMinutes int                             `json:"publishedMinutes"`
}

// Summarize computes every metric for topics in one pass over the helpers.
func Summarize(topics []catalog.Topic) Summary {
	counts := CountByStatus(topics)
	return Summary{
		Total:            len(topics),
		Finalized:        counts[lifecycle.StatusFinalized],
		Counts:           counts,
		Percent:          CompletionPercentage(topics),
		EstimatedMinutes: TotalEstimatedMinutes(topics),
		PublishedMinutes: PublishedMinutes(topics),
	}
}

// Rounded returns a copy of the summary with Percent rounded to places.
func (s Summary) Rounded(places int) Summary {
	s.Percent = RoundPercent(s.Percent, places)
	return s
}

// UnitProgress is the rollup of one unit.
type UnitProgress struct {
	UnitID   string `json:"unitId"`
	UnitName string `json:"unitName"`
	Summary
}

// CourseProgress is the rollup of one course plus its units.
type CourseProgress struct {
	CourseID   string         `json:"courseId"`
	CourseName string         `json:"courseName"`
	Program    string         `json:"program"`
	Units      []UnitProgress `json:"units"`
	Summary
}

// DegreeProgress is the rollup of every course whose program matches a
// degree short name. Degree is empty when the program is dangling.
type DegreeProgress struct {
	ShortName     string           `json:"shortName"`
	Degree        *catalog.Degree  `json:"degree,omitempty"`
	Courses       []CourseProgress `json:"courses"`
	CourseCount   int              `json:"courseCount"`
	TotalDuration int              `json:"totalDuration"`
	Progress      int              `json:"progress"`
	Summary
}

// ForUnit rolls up a unit's topics.
func ForUnit(unit catalog.Unit) UnitProgress {
	return UnitProgress{UnitID: unit.ID, UnitName: unit.Name, Summary: Summarize(unit.Topics)}
}

// ForCourse rolls up every unit of a course and the course as a whole.
func ForCourse(course catalog.Course) CourseProgress {
	units := make([]UnitProgress, 0, len(course.Units))
	for _, unit := range course.Units {
		units = append(units, ForUnit(unit))
	}
	return CourseProgress{
		CourseID:   course.ID,
		CourseName: course.Name,
		Program:    course.Program,
		Units:      units,
		Summary:    Summarize(course.Topics()),
	}
}

// ForDegree rolls up every course in cat whose program equals shortName.
func ForDegree(cat catalog.Catalog, shortName string) DegreeProgress {
	out := DegreeProgress{ShortName: shortName}
	if degree, ok := cat.Degree(shortName); ok {
		out.Degree = &degree
	}
	var topics []catalog.Topic
	for _, course := range cat.CoursesForProgram(shortName) {
		out.Courses = append(out.Courses, ForCourse(course))
		topics = append(topics, course.Topics()...)
	}
	out.CourseCount = len(out.Courses)
	out.Summary = Summarize(topics)
	out.TotalDuration = out.EstimatedMinutes
	out.Progress = WholePercent(out.Percent)
	return out
}

// ForDegrees rolls up every declared degree in catalog order.
func ForDegrees(cat catalog.Catalog) []DegreeProgress {
	out := make([]DegreeProgress, 0, len(cat.Degrees))
	for _, degree := range cat.Degrees {
		out = append(out, ForDegree(cat, degree.ShortName))
	}
	return out
}

// ForCourses rolls up every course in catalog order.
func ForCourses(cat catalog.Catalog) []CourseProgress {
	out := make([]CourseProgress, 0, len(cat.Courses))
	for _, course := range cat.Courses {
		out = append(out, ForCourse(course))
	}
	return out
}
