package tracker

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/lectern/internal/catalog"
	"github.com/kingrea/lectern/internal/lifecycle"
	"github.com/kingrea/lectern/internal/logbook"
	"github.com/kingrea/lectern/internal/progress"
	"github.com/kingrea/lectern/internal/workflow"
)

// ErrRevisionConflict is returned when a caller's expected revision no longer
// matches the stored snapshot.
var ErrRevisionConflict = errors.New("tracker: revision conflict")

// Tracker serializes writes to the catalog snapshot.
type Tracker struct {
	mu        sync.Mutex
	store     SnapshotStore
	engine    *workflow.Engine
	journal   *logbook.Logbook
	logger    Logger
	publisher Publisher
	staff     []catalog.StaffEntry
	clock     func() time.Time
}

// Option customizes the tracker instance.
type Option func(*Tracker)

// WithClock injects a deterministic clock (primarily for tests). The workflow
// engine shares it.
func WithClock(clock func() time.Time) Option {
	return func(t *Tracker) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// WithJournal records every change in the production journal.
func WithJournal(journal *logbook.Logbook) Option {
	return func(t *Tracker) {
		t.journal = journal
	}
}

// WithLogger sends structured entries to logger.
func WithLogger(logger Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithPublisher fans every change out to publisher.
func WithPublisher(publisher Publisher) Option {
	return func(t *Tracker) {
		t.publisher = publisher
	}
}

// WithStaff supplies the roster used by the overview.
func WithStaff(staff []catalog.StaffEntry) Option {
	return func(t *Tracker) {
		t.staff = append([]catalog.StaffEntry(nil), staff...)
	}
}

// New wires a tracker to its snapshot store.
func New(store SnapshotStore, opts ...Option) (*Tracker, error) {
	if store == nil {
		return nil, fmt.Errorf("tracker: snapshot store is required")
	}
	t := &Tracker{store: store, clock: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	t.engine = workflow.New(workflow.WithClock(t.clock))
	return t, nil
}

// Seed stores cat as revision 1 when no snapshot exists yet and returns the
// snapshot in effect.
func (t *Tracker) Seed(cat catalog.Catalog) (catalog.Catalog, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	current, err := t.store.Load()
	if err == nil {
		return current, nil
	}
	if !errors.Is(err, ErrSnapshotNotFound) {
		return catalog.Catalog{}, err
	}
	if err := cat.Validate(); err != nil {
		return catalog.Catalog{}, err
	}
	seeded := cat.Clone()
	seeded.Revision = 1
	seeded.UpdatedAt = t.now()
	if err := t.store.Save(seeded); err != nil {
		return catalog.Catalog{}, fmt.Errorf("tracker: save seed: %w", err)
	}
	t.journal.Info("seeded catalog: %d courses, %d topics", len(seeded.Courses), len(seeded.Topics()))
	t.log().Info("catalog seeded", "courses", len(seeded.Courses), "revision", seeded.Revision)
	return seeded, nil
}

// Catalog returns the current snapshot.
func (t *Tracker) Catalog() (catalog.Catalog, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Load()
}

// Staff returns the roster supplied at construction.
func (t *Tracker) Staff() []catalog.StaffEntry {
	return append([]catalog.StaffEntry(nil), t.staff...)
}

// Request asks for one transition. CourseID and UnitID may be left empty to
// locate the topic by id alone. ExpectedRevision of zero skips the
// optimistic check.
type Request struct {
	CourseID         string           `json:"courseId,omitempty"`
	UnitID           string           `json:"unitId,omitempty"`
	TopicID          string           `json:"topicId"`
	Event            lifecycle.Event  `json:"event"`
	Actor            lifecycle.Actor  `json:"actor"`
	Payload          workflow.Payload `json:"payload"`
	ExpectedRevision int              `json:"expectedRevision,omitempty"`
}

// Result is the outcome of an applied transition.
type Result struct {
	Topic    catalog.Topic `json:"topic"`
	CourseID string        `json:"courseId"`
	UnitID   string        `json:"unitId"`
	Revision int           `json:"revision"`
	Change   Change        `json:"change"`
}

// Transition applies req to the stored snapshot and persists the result.
// Rejections are journaled and published before being returned unchanged, so
// errors.Is works against the workflow sentinels.
func (t *Tracker) Transition(req Request) (Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cat, err := t.store.Load()
	if err != nil {
		return Result{}, err
	}
	if err := checkRevision(cat, req.ExpectedRevision); err != nil {
		return Result{}, err
	}
	ref, err := resolve(cat, req.CourseID, req.UnitID, req.TopicID)
	if err != nil {
		return Result{}, err
	}

	updated, err := t.engine.Apply(ref.Topic, req.Event, req.Actor, req.Payload)
	if err != nil {
		change := t.newChange(ChangeRejected, ref, req.Actor, cat.Revision)
		change.Event = req.Event
		change.From = ref.Topic.Status
		change.Detail = err.Error()
		t.journal.Warn("%s %s %q rejected: %v", req.Actor.Name, req.Event, ref.Topic.Name, err)
		t.log().Warn("transition rejected", "course", ref.CourseID, "topic", ref.Topic.ID, "event", req.Event, "role", req.Actor.Role, "error", err.Error())
		t.publish(change)
		return Result{}, err
	}

	next, err := cat.ReplaceTopic(ref.CourseID, ref.UnitID, updated)
	if err != nil {
		return Result{}, err
	}
	next.Revision = cat.Revision + 1
	next.UpdatedAt = updated.UpdatedAt
	if err := t.store.Save(next); err != nil {
		t.journal.Error("save after %s on %q failed: %v", req.Event, ref.Topic.Name, err)
		t.log().Error("snapshot save failed", "event", req.Event, "topic", ref.Topic.ID, "error", err.Error())
		return Result{}, fmt.Errorf("tracker: save snapshot: %w", err)
	}

	change := t.newChange(ChangeApplied, ref, req.Actor, next.Revision)
	change.Event = req.Event
	change.From = ref.Topic.Status
	change.To = updated.Status
	change.At = updated.UpdatedAt
	if stamp, ok := updated.LastStamp(); ok {
		change.Detail = stamp.Notes
	}
	t.journal.Info("%s %s %q %s -> %s (rev %d)", req.Actor.Name, req.Event, updated.Name, ref.Topic.Status, updated.Status, next.Revision)
	t.log().Info("transition applied", "course", ref.CourseID, "topic", updated.ID, "event", req.Event, "from", ref.Topic.Status, "to", updated.Status, "revision", next.Revision)
	t.publish(change)
	return Result{Topic: updated, CourseID: ref.CourseID, UnitID: ref.UnitID, Revision: next.Revision, Change: change}, nil
}

// AddUnit appends a unit to a course.
func (t *Tracker) AddUnit(actor lifecycle.Actor, courseID, name string) (catalog.Unit, error) {
	var unit catalog.Unit
	err := t.edit(actor, func(cat catalog.Catalog, at time.Time) (catalog.Catalog, catalog.TopicRef, string, error) {
		next, added, err := cat.AddUnit(courseID, name, at)
		unit = added
		return next, catalog.TopicRef{CourseID: courseID, UnitID: added.ID}, "added unit " + strings.TrimSpace(name), err
	})
	return unit, err
}

// AddTopic appends a planned topic to a unit.
func (t *Tracker) AddTopic(actor lifecycle.Actor, courseID, unitID, name string, estimatedTime int) (catalog.Topic, error) {
	var topic catalog.Topic
	err := t.edit(actor, func(cat catalog.Catalog, at time.Time) (catalog.Catalog, catalog.TopicRef, string, error) {
		next, added, err := cat.AddTopic(courseID, unitID, name, estimatedTime, at)
		topic = added
		return next, catalog.TopicRef{CourseID: courseID, UnitID: unitID, Topic: added}, "added topic " + strings.TrimSpace(name), err
	})
	return topic, err
}

// DeleteTopic removes a topic.
func (t *Tracker) DeleteTopic(actor lifecycle.Actor, courseID, unitID, topicID string) error {
	return t.edit(actor, func(cat catalog.Catalog, at time.Time) (catalog.Catalog, catalog.TopicRef, string, error) {
		topic, err := cat.Topic(courseID, unitID, topicID)
		if err != nil {
			return catalog.Catalog{}, catalog.TopicRef{}, "", err
		}
		next, err := cat.DeleteTopic(courseID, unitID, topicID, at)
		return next, catalog.TopicRef{CourseID: courseID, UnitID: unitID, Topic: topic}, "deleted topic " + topic.Name, err
	})
}

type editFunc func(cat catalog.Catalog, at time.Time) (catalog.Catalog, catalog.TopicRef, string, error)

// edit runs a catalog edit. Teachers own course structure and admins manage
// everything; editors only move topics through production.
func (t *Tracker) edit(actor lifecycle.Actor, fn editFunc) error {
	if err := actor.Validate(); err != nil {
		return fmt.Errorf("%w: %v", workflow.ErrUnauthorizedActor, err)
	}
	if actor.Role == lifecycle.RoleEditor {
		return fmt.Errorf("%w: editors cannot change course structure", workflow.ErrUnauthorizedActor)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	cat, err := t.store.Load()
	if err != nil {
		return err
	}
	at := t.now()
	next, ref, detail, err := fn(cat, at)
	if err != nil {
		return err
	}
	next.Revision = cat.Revision + 1
	next.UpdatedAt = at
	if err := t.store.Save(next); err != nil {
		return fmt.Errorf("tracker: save snapshot: %w", err)
	}
	change := t.newChange(ChangeEdited, ref, actor, next.Revision)
	change.Detail = detail
	t.journal.Info("%s %s (rev %d)", actor.Name, detail, next.Revision)
	t.log().Info("catalog edited", "course", ref.CourseID, "detail", detail, "revision", next.Revision)
	t.publish(change)
	return nil
}

// Courses returns per-course progress for the whole catalog.
func (t *Tracker) Courses() ([]progress.CourseProgress, error) {
	cat, err := t.Catalog()
	if err != nil {
		return nil, err
	}
	return progress.ForCourses(cat), nil
}

// CourseProgress rolls up one course.
func (t *Tracker) CourseProgress(courseID string) (progress.CourseProgress, error) {
	cat, err := t.Catalog()
	if err != nil {
		return progress.CourseProgress{}, err
	}
	course, ok := cat.Course(courseID)
	if !ok {
		return progress.CourseProgress{}, fmt.Errorf("%w: %s", catalog.ErrCourseNotFound, courseID)
	}
	return progress.ForCourse(course), nil
}

// DegreeProgress rolls up every course of a program. Unknown programs yield
// an empty rollup rather than an error.
func (t *Tracker) DegreeProgress(shortName string) (progress.DegreeProgress, error) {
	cat, err := t.Catalog()
	if err != nil {
		return progress.DegreeProgress{}, err
	}
	return progress.ForDegree(cat, shortName), nil
}

// Overview rolls up the entire catalog with staff counts.
func (t *Tracker) Overview() (progress.Overview, error) {
	cat, err := t.Catalog()
	if err != nil {
		return progress.Overview{}, err
	}
	return progress.OverviewFor(cat, t.staff), nil
}

// Queue lists the topics the role is expected to act on next.
func (t *Tracker) Queue(role lifecycle.Role) ([]progress.QueueItem, error) {
	cat, err := t.Catalog()
	if err != nil {
		return nil, err
	}
	switch role {
	case lifecycle.RoleTeacher:
		return progress.AwaitingReview(cat.Courses), nil
	case lifecycle.RoleEditor:
		return progress.Queue(cat.Courses, lifecycle.StatusScripting, lifecycle.StatusRecording, lifecycle.StatusEditing, lifecycle.StatusApproved), nil
	default:
		return nil, nil
	}
}

func (t *Tracker) newChange(kind ChangeKind, ref catalog.TopicRef, actor lifecycle.Actor, revision int) Change {
	return Change{
		ID:        uuid.NewString(),
		Kind:      kind,
		CourseID:  ref.CourseID,
		UnitID:    ref.UnitID,
		TopicID:   ref.Topic.ID,
		TopicName: ref.Topic.Name,
		Actor:     actor,
		Revision:  revision,
		At:        t.now(),
	}
}

func (t *Tracker) publish(change Change) {
	if t.publisher != nil {
		t.publisher.Publish(change)
	}
}

func (t *Tracker) log() Logger {
	if t.logger == nil {
		return nopLogger{}
	}
	return t.logger
}

func (t *Tracker) now() time.Time {
	return t.clock().UTC()
}

func checkRevision(cat catalog.Catalog, expected int) error {
	if expected == 0 || expected == cat.Revision {
		return nil
	}
	return fmt.Errorf("%w: expected %d, stored %d", ErrRevisionConflict, expected, cat.Revision)
}

func resolve(cat catalog.Catalog, courseID, unitID, topicID string) (catalog.TopicRef, error) {
	if strings.TrimSpace(topicID) == "" {
		return catalog.TopicRef{}, fmt.Errorf("tracker: topic id is required")
	}
	if courseID == "" || unitID == "" {
		ref, ok := cat.FindTopic(topicID)
		if !ok {
			return catalog.TopicRef{}, fmt.Errorf("%w: %s", catalog.ErrTopicNotFound, topicID)
		}
		if courseID != "" && ref.CourseID != courseID {
			return catalog.TopicRef{}, fmt.Errorf("%w: %s in course %s", catalog.ErrTopicNotFound, topicID, courseID)
		}
		return ref, nil
	}
	topic, err := cat.Topic(courseID, unitID, topicID)
	if err != nil {
		return catalog.TopicRef{}, err
	}
	return catalog.TopicRef{CourseID: courseID, UnitID: unitID, Topic: topic}, nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
