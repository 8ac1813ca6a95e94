package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/lectern/internal/lifecycle"
)

// NewID builds a prefixed random identifier such as "topic-1b9d6bcd-...".
func NewID(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return uuid.NewString()
	}
	return prefix + "-" + uuid.NewString()
}

// AddCourse appends a course. Units and topics inside it are validated along
// with the rest of the catalog.
func (c Catalog) AddCourse(course Course) (Catalog, error) {
	if strings.TrimSpace(course.ID) == "" {
		course.ID = NewID("course")
	}
	if strings.TrimSpace(course.Name) == "" {
		return Catalog{}, fmt.Errorf("catalog: course name is required")
	}
	if c.courseIndex(course.ID) >= 0 {
		return Catalog{}, fmt.Errorf("catalog: duplicate course id %s", course.ID)
	}
	next := c
	next.Courses = append(append([]Course(nil), c.Courses...), course)
	if err := next.Validate(); err != nil {
		return Catalog{}, err
	}
	return next, nil
}

// AddDegree appends a degree program.
func (c Catalog) AddDegree(degree Degree) (Catalog, error) {
	degree.ShortName = strings.TrimSpace(degree.ShortName)
	if degree.ShortName == "" {
		return Catalog{}, fmt.Errorf("catalog: degree shortName is required")
	}
	if _, exists := c.Degree(degree.ShortName); exists {
		return Catalog{}, fmt.Errorf("catalog: duplicate degree %s", degree.ShortName)
	}
	if strings.TrimSpace(degree.ID) == "" {
		degree.ID = NewID("degree")
	}
	next := c
	next.Degrees = append(append([]Degree(nil), c.Degrees...), degree)
	return next, nil
}

// AddUnit appends an empty unit to a course.
func (c Catalog) AddUnit(courseID, name string, at time.Time) (Catalog, Unit, error) {
	ci := c.courseIndex(courseID)
	if ci < 0 {
		return Catalog{}, Unit{}, fmt.Errorf("%w: %s", ErrCourseNotFound, courseID)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Catalog{}, Unit{}, fmt.Errorf("catalog: unit name is required")
	}
	unit := Unit{ID: NewID("unit"), Name: name}
	course := c.Courses[ci]
	next := course
	next.Units = append(append([]Unit(nil), course.Units...), unit)
	next.UpdatedAt = at
	return c.withCourse(ci, next), unit, nil
}

// AddTopic appends a planned topic to a unit.
func (c Catalog) AddTopic(courseID, unitID, name string, estimatedTime int, at time.Time) (Catalog, Topic, error) {
	ci := c.courseIndex(courseID)
	if ci < 0 {
		return Catalog{}, Topic{}, fmt.Errorf("%w: %s", ErrCourseNotFound, courseID)
	}
	course := c.Courses[ci]
	ui := -1
	for i, unit := range course.Units {
		if unit.ID == unitID {
			ui = i
			break
		}
	}
	if ui < 0 {
		return Catalog{}, Topic{}, fmt.Errorf("%w: %s in course %s", ErrUnitNotFound, unitID, courseID)
	}
	topic := Topic{
		ID:            NewID("topic"),
		Name:          strings.TrimSpace(name),
		EstimatedTime: estimatedTime,
		Status:        lifecycle.StatusPlanned,
	}
	if err := validateTopic(topic); err != nil {
		return Catalog{}, Topic{}, fmt.Errorf("catalog: %w", err)
	}
	unit := course.Units[ui]
	unit.Topics = append(append([]Topic(nil), unit.Topics...), topic)
	next := course.withUnit(ui, unit)
	next.UpdatedAt = at
	return c.withCourse(ci, next), topic, nil
}

// DeleteTopic removes a topic from its unit.
func (c Catalog) DeleteTopic(courseID, unitID, topicID string, at time.Time) (Catalog, error) {
	ci, ui, ti, err := c.locate(courseID, unitID, topicID)
	if err != nil {
		return Catalog{}, err
	}
	course := c.Courses[ci]
	unit := course.Units[ui]
	topics := make([]Topic, 0, len(unit.Topics)-1)
	topics = append(topics, unit.Topics[:ti]...)
	topics = append(topics, unit.Topics[ti+1:]...)
	unit.Topics = topics
	next := course.withUnit(ui, unit)
	next.UpdatedAt = at
	return c.withCourse(ci, next), nil
}
