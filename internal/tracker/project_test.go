package tracker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/lectern/internal/lifecycle"
	"github.com/kingrea/lectern/internal/workflow"
)

const projectCatalogYAML = `degrees:
  - id: d-1
    name: Computer Science
    shortName: BSCS
courses:
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

func TestOpenSeedsFromCatalogFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LECTERN_ACTOR", "")
	t.Setenv("LECTERN_ROLE", "")
	lecternDir := filepath.Join(dir, ".lectern")
	if err := os.MkdirAll(lecternDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(lecternDir, "catalog.yaml"), []byte(projectCatalogYAML), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	staff := `[{"name":"Ada","role":"teacher"},{"name":"Eve","role":"editor"}]`
	if err := os.WriteFile(filepath.Join(lecternDir, "staff.json"), []byte(staff), 0o644); err != nil {
		t.Fatalf("write staff: %v", err)
	}

	project, err := Open(dir, WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer project.Close()

	if len(project.Staff) != 2 {
		t.Fatalf("expected staff roster to load, got %+v", project.Staff)
	}
	cat, err := project.Tracker.Catalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if cat.Revision != 1 || len(cat.Topics()) != 1 {
		t.Fatalf("unexpected seeded catalog: rev=%d topics=%d", cat.Revision, len(cat.Topics()))
	}
	if _, err := os.Stat(project.Config.SnapshotPath()); err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}

	res, err := project.Tracker.Transition(Request{
		TopicID: "t-1",
		Event:   lifecycle.EventUpload,
		Actor:   lifecycle.Actor{Name: "Eve", Role: lifecycle.RoleEditor},
		Payload: workflow.Payload{VideoURL: "v1.mp4"},
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if res.Revision != 2 {
		t.Fatalf("expected revision 2, got %d", res.Revision)
	}
	lines, _ := project.Journal.Tail(5)
	if len(lines) == 0 || !strings.Contains(strings.Join(lines, "\n"), "Quicksort") {
		t.Fatalf("journal should mention the topic, got %v", lines)
	}

	// Reopening keeps the stored snapshot instead of reseeding.
	project.Close()
	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	cat, err = reopened.Tracker.Catalog()
	if err != nil {
		t.Fatalf("catalog after reopen: %v", err)
	}
	if cat.Revision != 2 {
		t.Fatalf("expected stored revision 2, got %d", cat.Revision)
	}
}

func TestOpenWithoutCatalogFile(t *testing.T) {
	dir := t.TempDir()
	project, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer project.Close()
	cat, err := project.Tracker.Catalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(cat.Courses) != 0 || cat.Revision != 1 {
		t.Fatalf("expected empty seeded catalog, got %+v", cat)
	}
}

func TestOpenRejectsBrokenCatalog(t *testing.T) {
	dir := t.TempDir()
	lecternDir := filepath.Join(dir, ".lectern")
	if err := os.MkdirAll(lecternDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	broken := "courses:\n  - id: c-1\n    units:\n      - id: u-1\n        topics:\n          - id: t-1\n            name: x\n            estimatedTime: -5\n"
	if err := os.WriteFile(filepath.Join(lecternDir, "catalog.yaml"), []byte(broken), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	if _, err := Open(dir); err == nil {
		t.Fatalf("expected invalid catalog to fail")
	}
}
