package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kingrea/lectern/internal/lifecycle"
)

var (
	// ErrCourseNotFound is returned when a course id does not resolve.
	ErrCourseNotFound = errors.New("catalog: course not found")
	// ErrUnitNotFound is returned when a unit id does not resolve inside a course.
	ErrUnitNotFound = errors.New("catalog: unit not found")
	// ErrTopicNotFound is returned when a topic id does not resolve inside a unit.
	ErrTopicNotFound = errors.New("catalog: topic not found")
)

// Catalog is an immutable-by-convention snapshot of every course and degree.
// Update helpers return a new Catalog that shares untouched courses, units,
// and topics with the receiver; nothing is modified in place.
type Catalog struct {
	Revision  int       `json:"revision" yaml:"revision,omitempty"`
	Degrees   []Degree  `json:"degrees" yaml:"degrees"`
	Courses   []Course  `json:"courses" yaml:"courses"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// TopicRef locates a topic inside the catalog.
type TopicRef struct {
	CourseID string
	UnitID   string
	Topic    Topic
}

// Clone returns a deep copy of the catalog.
func (c Catalog) Clone() Catalog {
	clone := Catalog{Revision: c.Revision, UpdatedAt: c.UpdatedAt}
	if len(c.Degrees) > 0 {
		clone.Degrees = append([]Degree(nil), c.Degrees...)
	}
	if len(c.Courses) > 0 {
		clone.Courses = make([]Course, len(c.Courses))
		for i, course := range c.Courses {
			clone.Courses[i] = course.Clone()
		}
	}
	return clone
}

// Course looks up a course by id.
func (c Catalog) Course(id string) (Course, bool) {
	idx := c.courseIndex(id)
	if idx < 0 {
		return Course{}, false
	}
	return c.Courses[idx], true
}

// Topic resolves a topic by its full path.
func (c Catalog) Topic(courseID, unitID, topicID string) (Topic, error) {
	ci, ui, ti, err := c.locate(courseID, unitID, topicID)
	if err != nil {
		return Topic{}, err
	}
	return c.Courses[ci].Units[ui].Topics[ti], nil
}

// FindTopic searches every course for a topic id.
func (c Catalog) FindTopic(topicID string) (TopicRef, bool) {
	for _, course := range c.Courses {
		for _, unit := range course.Units {
			for _, topic := range unit.Topics {
				if topic.ID == topicID {
					return TopicRef{CourseID: course.ID, UnitID: unit.ID, Topic: topic}, true
				}
			}
		}
	}
	return TopicRef{}, false
}

// Topics concatenates every topic of every course in catalog order.
func (c Catalog) Topics() []Topic {
	var out []Topic
	for _, course := range c.Courses {
		out = append(out, course.Topics()...)
	}
	return out
}

// Degree looks up a degree by its short name, matched the same way
// CoursesForProgram matches course programs.
func (c Catalog) Degree(shortName string) (Degree, bool) {
	key := strings.TrimSpace(shortName)
	for _, degree := range c.Degrees {
		if strings.TrimSpace(degree.ShortName) == key {
			return degree, true
		}
	}
	return Degree{}, false
}

// CoursesForProgram returns the courses whose program matches shortName.
// The match is exact after trimming; a program with no degree still matches.
func (c Catalog) CoursesForProgram(shortName string) []Course {
	key := strings.TrimSpace(shortName)
	var out []Course
	for _, course := range c.Courses {
		if strings.TrimSpace(course.Program) == key {
			out = append(out, course)
		}
	}
	return out
}

// DanglingPrograms lists course programs that no degree declares. Dangling
// references are valid; this exists for reporting only.
func (c Catalog) DanglingPrograms() []string {
	declared := map[string]struct{}{}
	for _, degree := range c.Degrees {
		declared[strings.TrimSpace(degree.ShortName)] = struct{}{}
	}
	seen := map[string]struct{}{}
	var out []string
	for _, course := range c.Courses {
		program := strings.TrimSpace(course.Program)
		if program == "" {
			continue
		}
		if _, ok := declared[program]; ok {
			continue
		}
		if _, ok := seen[program]; ok {
			continue
		}
		seen[program] = struct{}{}
		out = append(out, program)
	}
	sort.Strings(out)
	return out
}

// ReplaceTopic returns a catalog in which the topic with topic.ID inside the
// given course and unit is replaced. Only the touched course, unit, and topic
// slices are rebuilt.
func (c Catalog) ReplaceTopic(courseID, unitID string, topic Topic) (Catalog, error) {
	ci, ui, ti, err := c.locate(courseID, unitID, topic.ID)
	if err != nil {
		return Catalog{}, err
	}
	course := c.Courses[ci]
	unit := course.Units[ui]
	topics := make([]Topic, len(unit.Topics))
	copy(topics, unit.Topics)
	topics[ti] = topic
	unit.Topics = topics
	course = course.withUnit(ui, unit)
	if !topic.UpdatedAt.IsZero() {
		course.UpdatedAt = topic.UpdatedAt
	}
	return c.withCourse(ci, course), nil
}

// Validate enforces the structural invariants the workflow and aggregation
// code rely on: unique ids, known statuses, and positive estimates.
func (c Catalog) Validate() error {
	degrees := map[string]struct{}{}
	for i, degree := range c.Degrees {
		short := strings.TrimSpace(degree.ShortName)
		if short == "" {
			return fmt.Errorf("catalog: degrees[%d]: shortName is required", i)
		}
		if _, dup := degrees[short]; dup {
			return fmt.Errorf("catalog: duplicate degree %s", short)
		}
		degrees[short] = struct{}{}
	}
	courses := map[string]struct{}{}
	topics := map[string]string{}
	for i, course := range c.Courses {
		if strings.TrimSpace(course.ID) == "" {
			return fmt.Errorf("catalog: courses[%d]: id is required", i)
		}
		if _, dup := courses[course.ID]; dup {
			return fmt.Errorf("catalog: duplicate course id %s", course.ID)
		}
		courses[course.ID] = struct{}{}
		units := map[string]struct{}{}
		for j, unit := range course.Units {
			if strings.TrimSpace(unit.ID) == "" {
				return fmt.Errorf("catalog: course %s units[%d]: id is required", course.ID, j)
			}
			if _, dup := units[unit.ID]; dup {
				return fmt.Errorf("catalog: course %s: duplicate unit id %s", course.ID, unit.ID)
			}
			units[unit.ID] = struct{}{}
			for k, topic := range unit.Topics {
				if err := validateTopic(topic); err != nil {
					return fmt.Errorf("catalog: course %s unit %s topics[%d]: %w", course.ID, unit.ID, k, err)
				}
				if owner, dup := topics[topic.ID]; dup {
					return fmt.Errorf("catalog: topic id %s used by %s and %s", topic.ID, owner, course.ID)
				}
				topics[topic.ID] = course.ID
			}
		}
	}
	return nil
}

func validateTopic(topic Topic) error {
	if strings.TrimSpace(topic.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(topic.Name) == "" {
		return fmt.Errorf("topic %s: name is required", topic.ID)
	}
	if topic.EstimatedTime <= 0 {
		return fmt.Errorf("topic %s: estimatedTime must be positive", topic.ID)
	}
	if !topic.Status.Valid() {
		return fmt.Errorf("topic %s: unknown status %q", topic.ID, topic.Status)
	}
	return nil
}

func (c Catalog) courseIndex(id string) int {
	for i, course := range c.Courses {
		if course.ID == id {
			return i
		}
	}
	return -1
}

func (c Catalog) locate(courseID, unitID, topicID string) (int, int, int, error) {
	ci := c.courseIndex(courseID)
	if ci < 0 {
		return 0, 0, 0, fmt.Errorf("%w: %s", ErrCourseNotFound, courseID)
	}
	course := c.Courses[ci]
	for ui, unit := range course.Units {
		if unit.ID != unitID {
			continue
		}
		for ti, topic := range unit.Topics {
			if topic.ID == topicID {
				return ci, ui, ti, nil
			}
		}
		return 0, 0, 0, fmt.Errorf("%w: %s in unit %s", ErrTopicNotFound, topicID, unitID)
	}
	return 0, 0, 0, fmt.Errorf("%w: %s in course %s", ErrUnitNotFound, unitID, courseID)
}

func (c Catalog) withCourse(idx int, course Course) Catalog {
	next := c
	next.Courses = make([]Course, len(c.Courses))
	copy(next.Courses, c.Courses)
	next.Courses[idx] = course
	return next
}

func (c Course) withUnit(idx int, unit Unit) Course {
	next := c
	next.Units = make([]Unit, len(c.Units))
	copy(next.Units, c.Units)
	next.Units[idx] = unit
	return next
}

// applyDefaults fills in planned for topics declared without a status.
func (c *Catalog) applyDefaults() {
	for ci := range c.Courses {
		for ui := range c.Courses[ci].Units {
			for ti := range c.Courses[ci].Units[ui].Topics {
				topic := &c.Courses[ci].Units[ui].Topics[ti]
				if topic.Status == "" {
					topic.Status = lifecycle.StatusPlanned
				}
			}
		}
	}
}
