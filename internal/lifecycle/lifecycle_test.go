package lifecycle

import "testing"

func TestEveryRuleTargetsKnownStatus(t *testing.T) {
	for _, rule := range Rules() {
		if !rule.To.Valid() {
			t.Fatalf("%s targets unknown status %q", rule.Event, rule.To)
		}
		if !rule.Role.Valid() {
			t.Fatalf("%s requires unknown role %q", rule.Event, rule.Role)
		}
		for _, from := range rule.From {
			if !from.Valid() {
				t.Fatalf("%s fires from unknown status %q", rule.Event, from)
			}
		}
	}
}

func TestFinalizedHasNoOutgoingEdges(t *testing.T) {
	if edges := Outgoing(StatusFinalized); len(edges) != 0 {
		t.Fatalf("finalized should be terminal, got %+v", edges)
	}
	if !StatusFinalized.IsTerminal() {
		t.Fatalf("expected finalized to report terminal")
	}
}

func TestForwardPathFitsWithinEightStates(t *testing.T) {
	for _, status := range Statuses() {
		path, ok := ShortestPath(status, StatusFinalized)
		if !ok {
			t.Fatalf("no path from %s to finalized", status)
		}
		if len(path)+1 > 8 {
			t.Fatalf("path from %s visits %d states", status, len(path)+1)
		}
	}
	path, _ := ShortestPath(StatusPlanned, StatusFinalized)
	want := []Event{EventStartScripting, EventStartRecording, EventMoveToEditing, EventUpload, EventApprove, EventFinalize}
	if len(path) != len(want) {
		t.Fatalf("shortest path = %v, want %v", path, want)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Fatalf("step %d = %s, want %s", i, path[i], want[i])
		}
	}
}

func TestOnlyBackEdgesReturnToUploaded(t *testing.T) {
	for _, edge := range Edges() {
		if edge.To.Ordinal() > edge.From.Ordinal() {
			continue
		}
		if edge.Event != EventRequestChanges || edge.To != StatusUploaded {
			t.Fatalf("unexpected backward or self edge %+v", edge)
		}
		if edge.From != StatusUploaded && edge.From != StatusUnderReview {
			t.Fatalf("rework loop must start from uploaded or under_review, got %s", edge.From)
		}
	}
	if _, ok := ShortestPath(StatusApproved, StatusUploaded); ok {
		t.Fatalf("approved topics must not be sent back for changes")
	}
}

func TestParseHelpers(t *testing.T) {
	status, err := ParseStatus("Under-Review")
	if err != nil || status != StatusUnderReview {
		t.Fatalf("ParseStatus = %q, %v", status, err)
	}
	if _, err := ParseStatus("published"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
	event, err := ParseEvent("start_recording")
	if err != nil || event != EventStartRecording {
		t.Fatalf("ParseEvent = %q, %v", event, err)
	}
	if _, err := ParseRole("student"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestLabelsAndOrdinals(t *testing.T) {
	if StatusFinalized.Label() != "Published" {
		t.Fatalf("finalized label = %q", StatusFinalized.Label())
	}
	if StatusPlanned.Ordinal() != 0 || StatusFinalized.Ordinal() != 7 {
		t.Fatalf("unexpected ordinals")
	}
	if ContentStatus("bogus").Ordinal() != -1 {
		t.Fatalf("unknown status should have ordinal -1")
	}
	if !StatusApproved.AtLeast(StatusUploaded) || StatusEditing.AtLeast(StatusUploaded) {
		t.Fatalf("AtLeast ordering is wrong")
	}
}

func TestRuleForReturnsCopy(t *testing.T) {
	rule, ok := RuleFor(EventApprove)
	if !ok {
		t.Fatalf("approve rule missing")
	}
	rule.From[0] = StatusFinalized
	again, _ := RuleFor(EventApprove)
	if again.From[0] != StatusUploaded {
		t.Fatalf("mutating a returned rule leaked into the table")
	}
}

func TestEveryStageHasSingleOwner(t *testing.T) {
	for _, status := range Statuses() {
		owner, ok := Owner(status)
		if status.IsTerminal() {
			if ok {
				t.Fatalf("terminal stage should have no owner, got %s", owner)
			}
			continue
		}
		if !ok {
			t.Fatalf("%s has no owner", status)
		}
		for _, edge := range Outgoing(status) {
			if rules[edge.Event].Role != owner {
				t.Fatalf("%s mixes owners %s and %s", status, owner, rules[edge.Event].Role)
			}
		}
	}
	if owner, _ := Owner(StatusPlanned); owner != RoleTeacher {
		t.Fatalf("planned should belong to teacher, got %s", owner)
	}
	if owner, _ := Owner(StatusApproved); owner != RoleEditor {
		t.Fatalf("approved should belong to editor, got %s", owner)
	}
}

func TestRuleUpcoming(t *testing.T) {
	recording, _ := RuleFor(EventStartRecording)
	if !recording.Upcoming(StatusPlanned) {
		t.Fatalf("planned should precede startRecording")
	}
	if recording.Upcoming(StatusScripting) || recording.Upcoming(StatusRecording) {
		t.Fatalf("scripting and later have reached startRecording")
	}
	approve, _ := RuleFor(EventApprove)
	if !approve.Upcoming(StatusEditing) || approve.Upcoming(StatusUnderReview) || approve.Upcoming(StatusApproved) {
		t.Fatalf("approve should only be upcoming before uploaded")
	}
	if approve.Upcoming("archived") {
		t.Fatalf("unknown status should never be upcoming")
	}
}
