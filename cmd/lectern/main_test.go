package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/lectern/internal/catalog"
	"github.com/kingrea/lectern/internal/config"
	"github.com/kingrea/lectern/internal/lifecycle"
	"github.com/kingrea/lectern/internal/tracker"
	"github.com/kingrea/lectern/internal/workflow"
)

func reportCatalog() catalog.Catalog {
	return catalog.Catalog{
		Revision: 4,
		Degrees:  []catalog.Degree{{ID: "d-1", Name: "Computer Science", ShortName: "BSCS"}},
		Courses: []catalog.Course{
			{ID: "c-1", Name: "Algorithms", Program: "BSCS", Units: []catalog.Unit{{ID: "u-1", Name: "Sorting", Topics: []catalog.Topic{
				{ID: "t-1", Name: "Quicksort", EstimatedTime: 20, Status: lifecycle.StatusFinalized},
				{ID: "t-2", Name: "Mergesort", EstimatedTime: 15, Status: lifecycle.StatusApproved},
				{ID: "t-3", Name: "Heapsort", EstimatedTime: 10, Status: lifecycle.StatusFinalized},
			}}}},
			{ID: "c-2", Name: "Film Studies", Program: "BAFS", Units: []catalog.Unit{{ID: "u-2", Name: "Intro", Topics: []catalog.Topic{
				{ID: "t-4", Name: "Montage", EstimatedTime: 30, Status: lifecycle.StatusScripting},
			}}}},
		},
	}
}

func TestReportRoundsAndRendersTables(t *testing.T) {
	staff := []catalog.StaffEntry{{Name: "Ada", Role: lifecycle.RoleTeacher}, {Name: "Eve", Role: lifecycle.RoleEditor}}
	r := buildReport(reportCatalog(), staff, 2)
	if got := r.Courses[0].Percent; got != 66.67 {
		t.Fatalf("expected 66.67, got %v", got)
	}
	if got := r.Degrees[0].Progress; got != 67 {
		t.Fatalf("expected whole degree progress 67, got %d", got)
	}
	var buf bytes.Buffer
	if err := writeReport(&buf, r, "table"); err != nil {
		t.Fatalf("write table: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Catalog revision 4", "Algorithms", "66.67%", "Computer Science (BSCS)", "needs recording 1", "programs without a degree: BAFS", "1 teachers, 1 editors"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestReportStructuredFormats(t *testing.T) {
	r := buildReport(reportCatalog(), nil, 1)

	var buf bytes.Buffer
	if err := writeReport(&buf, r, "json"); err != nil {
		t.Fatalf("write json: %v", err)
	}
	var decoded struct {
		Revision int `json:"revision"`
		Courses  []struct {
			CourseID string  `json:"courseId"`
			Percent  float64 `json:"percent"`
		} `json:"courses"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if decoded.Revision != 4 || len(decoded.Courses) != 2 || decoded.Courses[0].Percent != 66.7 {
		t.Fatalf("unexpected json report: %+v", decoded)
	}

	buf.Reset()
	if err := writeReport(&buf, r, "yaml"); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	var generic map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &generic); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if generic["revision"] != 4 {
		t.Fatalf("expected revision 4 in yaml, got %v", generic["revision"])
	}

	if err := writeReport(&buf, r, "xml"); err == nil {
		t.Fatalf("expected unknown format to fail")
	}
}

func TestBuildPayloadRoutesNotes(t *testing.T) {
	scripting := buildPayload(lifecycle.EventStartScripting, "", " deck.pptx ", " read chapter 2 ", 25, []string{"a.pdf"})
	if scripting.EditorComments != "read chapter 2" || scripting.PptURL != "deck.pptx" || scripting.EstimatedTime != 25 || len(scripting.ContentMaterialsURL) != 1 {
		t.Fatalf("unexpected scripting payload: %+v", scripting)
	}
	upload := buildPayload(lifecycle.EventUpload, "v1.mp4", "", "cut intro", 0, nil)
	if upload.VideoURL != "v1.mp4" || upload.EditorComments != "cut intro" {
		t.Fatalf("unexpected upload payload: %+v", upload)
	}
	approve := buildPayload(lifecycle.EventApprove, "", "", "great", 0, nil)
	if approve.TeacherNotes != "great" || approve.EditorComments != "" {
		t.Fatalf("unexpected approve payload: %+v", approve)
	}
	finalize := buildPayload(lifecycle.EventFinalize, "", "", "published", 0, nil)
	if finalize.EditorNotes != "published" {
		t.Fatalf("unexpected finalize payload: %+v", finalize)
	}
}

func TestResolveActorPrefersFlagsAndRoster(t *testing.T) {
	project := &tracker.Project{
		Config: &config.Config{Project: config.ProjectConfig{Actor: config.ActorConfig{Name: "Ada", Role: "teacher"}}},
		Staff:  []catalog.StaffEntry{{Name: "Eve", Role: lifecycle.RoleEditor}},
	}
	actor, err := resolveActor(project, "", "")
	if err != nil || actor.Name != "Ada" || actor.Role != lifecycle.RoleTeacher {
		t.Fatalf("expected configured actor, got %+v err=%v", actor, err)
	}
	actor, err = resolveActor(project, "eve", "")
	if err != nil || actor.Role != lifecycle.RoleEditor {
		t.Fatalf("expected roster role for eve, got %+v err=%v", actor, err)
	}
	actor, err = resolveActor(project, "eve", "teacher")
	if err != nil || actor.Role != lifecycle.RoleTeacher {
		t.Fatalf("explicit role should win, got %+v err=%v", actor, err)
	}
	if _, err := resolveActor(project, "Sam", "janitor"); err == nil {
		t.Fatalf("expected unknown role to fail")
	}
	empty := &tracker.Project{Config: &config.Config{}}
	if _, err := resolveActor(empty, "", ""); err == nil {
		t.Fatalf("expected missing identity to fail")
	}
}

func TestFormatChange(t *testing.T) {
	at := time.Date(2024, 5, 6, 9, 30, 0, 0, time.UTC)
	applied := formatChange(tracker.Change{
		Kind: tracker.ChangeApplied, Actor: lifecycle.Actor{Name: "Eve"}, Event: lifecycle.EventUpload,
		TopicName: "Quicksort", From: lifecycle.StatusEditing, To: lifecycle.StatusUploaded, Revision: 3, At: at,
	})
	if !strings.Contains(applied, "09:30:00") || !strings.Contains(applied, "Editing → Uploaded") || !strings.Contains(applied, "rev 3") {
		t.Fatalf("unexpected applied line %q", applied)
	}
	rejected := formatChange(tracker.Change{Kind: tracker.ChangeRejected, Actor: lifecycle.Actor{Name: "Eve"}, Event: lifecycle.EventApprove, TopicName: "Quicksort", Detail: "unauthorized", At: at})
	if !strings.Contains(rejected, "rejected: unauthorized") {
		t.Fatalf("unexpected rejected line %q", rejected)
	}
}

func writeProject(t *testing.T) string {
	t.Helper()
	t.Setenv("LECTERN_ACTOR", "")
	t.Setenv("LECTERN_ROLE", "")
	dir := t.TempDir()
	lecternDir := filepath.Join(dir, ".lectern")
	if err := os.MkdirAll(lecternDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	catalogYAML := `courses:
  - id: c-1
    name: Algorithms
    program: BSCS
    units:
      - id: u-1
        name: Sorting
        topics:
          - id: t-1
            name: Quicksort
            estimatedTime: 20
            status: editing
`
	if err := os.WriteFile(filepath.Join(lecternDir, "catalog.yaml"), []byte(catalogYAML), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return dir
}

func TestApplyReturnsRejectionAfterFlushingLogs(t *testing.T) {
	dir := writeProject(t)
	err := runApply([]string{"-project", dir, "-topic", "t-1", "-event", "finalize", "-actor", "Eve", "-role", "editor"})
	if !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	data, readErr := os.ReadFile(filepath.Join(dir, ".lectern", "logs", "lectern.log"))
	if readErr != nil {
		t.Fatalf("read log: %v", readErr)
	}
	if !strings.Contains(string(data), "transition rejected") {
		t.Fatalf("expected rejection in log, got:\n%s", data)
	}
}

func TestRunReportReturnsFormatError(t *testing.T) {
	dir := writeProject(t)
	err := runReport([]string{"-project", dir, "-format", "xml"})
	if err == nil || !strings.Contains(err.Error(), "unknown report format") {
		t.Fatalf("expected format error, got %v", err)
	}
	if err := runApply([]string{"-project", dir}); err == nil {
		t.Fatalf("expected missing flags to fail")
	}
}
