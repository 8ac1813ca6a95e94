package catalog

import "time"

// Unit is an ordered, named grouping of topics inside a course.
type Unit struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Topics []Topic `json:"topics" yaml:"topics"`
}

// Clone returns a deep copy of the unit.
func (u Unit) Clone() Unit {
	clone := Unit{ID: u.ID, Name: u.Name}
	if len(u.Topics) > 0 {
		clone.Topics = make([]Topic, len(u.Topics))
		for i, topic := range u.Topics {
			clone.Topics[i] = topic.Clone()
		}
	}
	return clone
}

// Course owns an ordered sequence of units. Progress is always derived from
// the topics, never stored on the course.
type Course struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Code        string    `json:"code,omitempty" yaml:"code,omitempty"`
	Department  string    `json:"department" yaml:"department"`
	Program     string    `json:"program" yaml:"program"`
	TeacherID   string    `json:"teacherId" yaml:"teacherId"`
	TeacherName string    `json:"teacherName" yaml:"teacherName"`
	Units       []Unit    `json:"units" yaml:"units"`
	CreatedAt   time.Time `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// Clone returns a deep copy of the course.
func (c Course) Clone() Course {
	clone := c
	clone.Units = nil
	if len(c.Units) > 0 {
		clone.Units = make([]Unit, len(c.Units))
		for i, unit := range c.Units {
			clone.Units[i] = unit.Clone()
		}
	}
	return clone
}

// Topics concatenates the topics of every unit in unit order. The returned
// slice is new; the topics themselves are shallow copies.
func (c Course) Topics() []Topic {
	total := 0
	for _, unit := range c.Units {
		total += len(unit.Topics)
	}
	out := make([]Topic, 0, total)
	for _, unit := range c.Units {
		out = append(out, unit.Topics...)
	}
	return out
}

// Unit looks up a unit by id.
func (c Course) Unit(id string) (Unit, bool) {
	for _, unit := range c.Units {
		if unit.ID == id {
			return unit, true
		}
	}
	return Unit{}, false
}

// Degree is a named program. Courses belong to it when their Program equals
// the degree's ShortName.
type Degree struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	ShortName   string `json:"shortName" yaml:"shortName"`
	Department  string `json:"department" yaml:"department"`
	Duration    string `json:"duration,omitempty" yaml:"duration,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}
