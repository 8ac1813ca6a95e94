package eventbridge

import (
	"testing"

	"github.com/kingrea/lectern/internal/tracker"
)

func TestRouterBuffersAndFlushes(t *testing.T) {
	router := NewRouter(RouterWithSubscriberCapacity(4))
	first := tracker.Change{ID: "chg-1", CourseID: "alpha", Kind: tracker.ChangeApplied}
	second := tracker.Change{ID: "chg-2", CourseID: "Alpha", Kind: tracker.ChangeEdited}
	router.Route(first)
	router.Route(second)
	if router.Pending("alpha") != 2 {
		t.Fatalf("expected 2 pending, got %d", router.Pending("alpha"))
	}
	sub := router.Subscribe("ALPHA")
	defer sub.Close()
	got1 := <-sub.Changes
	if got1.ID != first.ID {
		t.Fatalf("expected first buffered change, got %s", got1.ID)
	}
	got2 := <-sub.Changes
	if got2.ID != second.ID {
		t.Fatalf("expected second buffered change, got %s", got2.ID)
	}
	if router.Pending("alpha") != 0 {
		t.Fatalf("backlog should be drained")
	}
}

func TestRouterDedupeByChangeID(t *testing.T) {
	router := NewRouter()
	sub := router.Subscribe("alpha")
	defer sub.Close()
	change := tracker.Change{ID: "chg-1", CourseID: "alpha", Kind: tracker.ChangeApplied}
	router.Route(change)
	router.Route(change)
	select {
	case got := <-sub.Changes:
		if got.ID != change.ID {
			t.Fatalf("unexpected change: %s", got.ID)
		}
	default:
		t.Fatalf("expected first delivery")
	}
	select {
	case got := <-sub.Changes:
		t.Fatalf("unexpected duplicate delivery: %s", got.ID)
	default:
	}
}

func TestRouterWildcardSeesEveryCourse(t *testing.T) {
	router := NewRouter()
	all := router.Subscribe(Wildcard)
	defer all.Close()
	router.Publish(tracker.Change{ID: "a", CourseID: "c-1"})
	router.Publish(tracker.Change{ID: "b", CourseID: "c-2"})
	for _, want := range []string{"a", "b"} {
		select {
		case got := <-all.Changes:
			if got.ID != want {
				t.Fatalf("expected %s, got %s", want, got.ID)
			}
		default:
			t.Fatalf("wildcard missed %s", want)
		}
	}
	if router.Pending("c-1") != 1 {
		t.Fatalf("course backlog should still buffer for late subscribers")
	}
}

func TestRouterOverflowKeepsAppliedChanges(t *testing.T) {
	router := NewRouter(RouterWithSubscriberCapacity(1))
	sub := router.Subscribe("c-1")
	defer sub.Close()
	router.Route(tracker.Change{ID: "applied", CourseID: "c-1", Kind: tracker.ChangeApplied})
	router.Route(tracker.Change{ID: "rejected", CourseID: "c-1", Kind: tracker.ChangeRejected})
	got := <-sub.Changes
	if got.ID != "applied" {
		t.Fatalf("expected applied change to survive overflow, got %s", got.ID)
	}
}

func TestSubscriptionCloseStopsDelivery(t *testing.T) {
	router := NewRouter()
	sub := router.Subscribe("c-1")
	sub.Close()
	router.Route(tracker.Change{ID: "late", CourseID: "c-1"})
	if _, ok := <-sub.Changes; ok {
		t.Fatalf("expected closed channel")
	}
	if router.Pending("c-1") != 1 {
		t.Fatalf("change after close should be buffered")
	}
}
