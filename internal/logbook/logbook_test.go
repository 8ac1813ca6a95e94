package logbook

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal", "production.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	lines, total := book.Tail(3)
	if total != 5 {
		t.Fatalf("total lines = %d, want 5", total)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
	if lines, total := book.Tail(0); lines != nil || total != 5 {
		t.Fatalf("Tail(0) = %v, %d", lines, total)
	}
}

func TestTailOnMissingFile(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "empty.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	if lines, total := book.Tail(10); len(lines) != 0 || total != 0 {
		t.Fatalf("expected empty tail, got %v %d", lines, total)
	}
	var nilBook *Logbook
	nilBook.Warn("ignored")
	if lines, total := nilBook.Tail(1); lines != nil || total != 0 {
		t.Fatalf("nil logbook should be empty")
	}
}

func TestEntriesParseLevelsAndTime(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "production.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	at := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	book.SetClock(func() time.Time { return at })
	book.Info("Ada approve t-1 uploaded -> approved")
	book.Warn("Eve upload t-2 rejected:\nmissing payload")
	book.Error("snapshot save failed")

	entries := book.Entries(10)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[1].Level != LevelWarn || entries[1].Message != "Eve upload t-2 rejected: missing payload" {
		t.Fatalf("unexpected folded warning: %+v", entries[1])
	}
	if !entries[2].At.Equal(at) || entries[2].Level != LevelError {
		t.Fatalf("unexpected error entry: %+v", entries[2])
	}
	if got := ParseLine("free text"); got.Level != LevelInfo || got.Message != "free text" {
		t.Fatalf("unexpected fallback parse: %+v", got)
	}
}
