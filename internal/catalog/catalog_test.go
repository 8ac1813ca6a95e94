package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/lectern/internal/lifecycle"
)

const sampleCatalogYAML = `
degrees:
  - id: deg-cs
    name: Computer Science
    shortName: BSCS
    department: Computing
courses:
  - id: c-1
    name: Algorithms
    department: Computing
    program: BSCS
    teacherId: t-1
    teacherName: Ada
    units:
      - id: u-1
        name: Sorting
        topics:
          - id: t-1
            name: Quicksort
            estimatedTime: 20
            status: finalized
          - id: t-2
            name: Mergesort
            estimatedTime: 15
  - id: c-2
    name: Film Studies
    department: Arts
    program: BAFILM
    units:
      - id: u-9
        name: Intro
        topics:
          - id: t-9
            name: Welcome
            estimatedTime: 5
            status: uploaded
`

func sampleCatalog(t *testing.T) Catalog {
	t.Helper()
	cat, err := ParseCatalogYAML([]byte(sampleCatalogYAML))
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}
	return cat
}

func TestParseCatalogYAMLDefaultsStatus(t *testing.T) {
	cat := sampleCatalog(t)
	topic, err := cat.Topic("c-1", "u-1", "t-2")
	if err != nil {
		t.Fatalf("topic lookup: %v", err)
	}
	if topic.Status != lifecycle.StatusPlanned {
		t.Fatalf("expected planned default, got %s", topic.Status)
	}
	if len(cat.Topics()) != 3 {
		t.Fatalf("expected 3 topics, got %d", len(cat.Topics()))
	}
}

func TestParseCatalogYAMLRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"zero estimate": "courses:\n  - id: c\n    units:\n      - id: u\n        topics:\n          - {id: x, name: X, estimatedTime: 0}\n",
		"bad status":    "courses:\n  - id: c\n    units:\n      - id: u\n        topics:\n          - {id: x, name: X, estimatedTime: 3, status: published}\n",
		"dup topic":     "courses:\n  - id: c\n    units:\n      - id: u\n        topics:\n          - {id: x, name: X, estimatedTime: 3}\n          - {id: x, name: Y, estimatedTime: 3}\n",
		"dup course":    "courses:\n  - id: c\n  - id: c\n",
	}
	for name, payload := range cases {
		if _, err := ParseCatalogYAML([]byte(payload)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultCatalogFile)
	if err := os.WriteFile(path, []byte(sampleCatalogYAML), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cat, err := LoadCatalogFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := cat.Course("c-2"); !ok {
		t.Fatalf("expected course c-2")
	}
	if _, err := LoadCatalogFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestMarshalYAMLRoundTrip(t *testing.T) {
	cat := sampleCatalog(t)
	data, err := MarshalYAML(cat)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	again, err := LoadCatalogReader(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(again.Topics()) != len(cat.Topics()) {
		t.Fatalf("topic count changed: %d vs %d", len(again.Topics()), len(cat.Topics()))
	}
}

func TestReplaceTopicIsCopyOnWrite(t *testing.T) {
	cat := sampleCatalog(t)
	original, _ := cat.Topic("c-1", "u-1", "t-2")
	updated := original.Clone()
	updated.Status = lifecycle.StatusScripting
	updated.UpdatedAt = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	next, err := cat.ReplaceTopic("c-1", "u-1", updated)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	stale, _ := cat.Topic("c-1", "u-1", "t-2")
	if stale.Status != lifecycle.StatusPlanned {
		t.Fatalf("original catalog mutated: %s", stale.Status)
	}
	fresh, _ := next.Topic("c-1", "u-1", "t-2")
	if fresh.Status != lifecycle.StatusScripting {
		t.Fatalf("expected scripting, got %s", fresh.Status)
	}
	course, _ := next.Course("c-1")
	if !course.UpdatedAt.Equal(updated.UpdatedAt) {
		t.Fatalf("expected course updatedAt to follow topic, got %s", course.UpdatedAt)
	}
	if &next.Courses[1] == &cat.Courses[1] {
		t.Fatalf("expected rebuilt course slice")
	}
}

func TestReplaceTopicNotFound(t *testing.T) {
	cat := sampleCatalog(t)
	if _, err := cat.ReplaceTopic("nope", "u-1", Topic{ID: "t-1"}); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected course not found, got %v", err)
	}
	if _, err := cat.ReplaceTopic("c-1", "nope", Topic{ID: "t-1"}); !errors.Is(err, ErrUnitNotFound) {
		t.Fatalf("expected unit not found, got %v", err)
	}
	if _, err := cat.ReplaceTopic("c-1", "u-1", Topic{ID: "nope"}); !errors.Is(err, ErrTopicNotFound) {
		t.Fatalf("expected topic not found, got %v", err)
	}
}

func TestProgramLookupAndDanglingReferences(t *testing.T) {
	cat := sampleCatalog(t)
	if courses := cat.CoursesForProgram("BSCS"); len(courses) != 1 || courses[0].ID != "c-1" {
		t.Fatalf("unexpected BSCS courses: %+v", courses)
	}
	if courses := cat.CoursesForProgram("BAFILM"); len(courses) != 1 {
		t.Fatalf("dangling program should still group courses, got %d", len(courses))
	}
	dangling := cat.DanglingPrograms()
	if len(dangling) != 1 || dangling[0] != "BAFILM" {
		t.Fatalf("unexpected dangling programs: %v", dangling)
	}
	if _, ok := cat.Degree(" BSCS "); !ok {
		t.Fatalf("expected trimmed degree lookup")
	}
	if _, ok := cat.Degree("bscs"); ok {
		t.Fatalf("degree lookup should match programs exactly")
	}
}

func TestFindTopic(t *testing.T) {
	cat := sampleCatalog(t)
	ref, ok := cat.FindTopic("t-9")
	if !ok || ref.CourseID != "c-2" || ref.UnitID != "u-9" {
		t.Fatalf("unexpected ref: %+v ok=%v", ref, ok)
	}
	if _, ok := cat.FindTopic("missing"); ok {
		t.Fatalf("expected miss")
	}
}

func TestAddUnitAndTopic(t *testing.T) {
	cat := sampleCatalog(t)
	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	next, unit, err := cat.AddUnit("c-2", "Montage", at)
	if err != nil {
		t.Fatalf("add unit: %v", err)
	}
	if !strings.HasPrefix(unit.ID, "unit-") {
		t.Fatalf("unexpected unit id %s", unit.ID)
	}
	if len(cat.Courses[1].Units) != 1 {
		t.Fatalf("original course mutated")
	}
	next, topic, err := next.AddTopic("c-2", unit.ID, "Cuts", 12, at)
	if err != nil {
		t.Fatalf("add topic: %v", err)
	}
	if topic.Status != lifecycle.StatusPlanned {
		t.Fatalf("new topic should be planned, got %s", topic.Status)
	}
	if err := next.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if _, _, err := next.AddTopic("c-2", unit.ID, "Bad", 0, at); err == nil {
		t.Fatalf("expected error for non-positive estimate")
	}
	if _, _, err := next.AddTopic("c-2", "nope", "Cuts", 5, at); !errors.Is(err, ErrUnitNotFound) {
		t.Fatalf("expected unit not found, got %v", err)
	}
	trimmed, err := next.DeleteTopic("c-2", unit.ID, topic.ID, at)
	if err != nil {
		t.Fatalf("delete topic: %v", err)
	}
	if _, ok := trimmed.FindTopic(topic.ID); ok {
		t.Fatalf("topic still present after delete")
	}
	if _, ok := next.FindTopic(topic.ID); !ok {
		t.Fatalf("delete mutated the previous snapshot")
	}
}

func TestAddCourseAndDegree(t *testing.T) {
	cat := sampleCatalog(t)
	next, err := cat.AddCourse(Course{Name: "Networks", Program: "BSCS"})
	if err != nil {
		t.Fatalf("add course: %v", err)
	}
	if len(next.CoursesForProgram("BSCS")) != 2 {
		t.Fatalf("expected two BSCS courses")
	}
	if _, err := next.AddCourse(Course{ID: "c-1", Name: "Dup"}); err == nil {
		t.Fatalf("expected duplicate course error")
	}
	next, err = next.AddDegree(Degree{Name: "Film", ShortName: "BAFILM"})
	if err != nil {
		t.Fatalf("add degree: %v", err)
	}
	if len(next.DanglingPrograms()) != 0 {
		t.Fatalf("expected no dangling programs, got %v", next.DanglingPrograms())
	}
	if _, err := next.AddDegree(Degree{ShortName: "bscs"}); err == nil {
		t.Fatalf("expected duplicate degree error")
	}
}

func TestStaffRoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "staff.json")
	staff := []StaffEntry{
		{Name: " Ada ", Role: "Teacher", Department: "Computing"},
		{Name: "Eve", Role: lifecycle.RoleEditor},
		{Name: "Root", Role: lifecycle.RoleAdmin},
	}
	if err := SaveStaff(path, staff); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadStaff(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded[0].Name != "Ada" || loaded[0].Role != lifecycle.RoleTeacher {
		t.Fatalf("expected normalized entry, got %+v", loaded[0])
	}
	entry, ok := FindStaff(loaded, "eve")
	if !ok || entry.Actor().Role != lifecycle.RoleEditor {
		t.Fatalf("unexpected lookup: %+v ok=%v", entry, ok)
	}
	counts := CountByRole(loaded)
	if counts[lifecycle.RoleTeacher] != 1 || counts[lifecycle.RoleEditor] != 1 || counts[lifecycle.RoleAdmin] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	if _, err := (StaffEntry{Name: "x", Role: "janitor"}).Normalize(); err == nil {
		t.Fatalf("expected unknown role error")
	}
}
