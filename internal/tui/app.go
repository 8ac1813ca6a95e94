// internal/tui/app.go
//
// This is the terminal dashboard for lectern.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/list"
	progressbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/lectern/internal/catalog"
	"github.com/kingrea/lectern/internal/config"
	"github.com/kingrea/lectern/internal/lifecycle"
	"github.com/kingrea/lectern/internal/logbook"
	"github.com/kingrea/lectern/internal/progress"
	"github.com/kingrea/lectern/internal/tracker"
	"github.com/kingrea/lectern/internal/workflow"
)

// appState represents which "screen" we're on
type appState int

const (
	stateCourses appState = iota // Course list with progress
	stateTopics                  // Topics of the selected course
	statePrompt                  // Collecting a payload value before firing an event
)

const refreshInterval = 5 * time.Second

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithProject attaches an already opened project instead of opening one from
// the project directory. The caller keeps ownership of it.
func WithProject(project *tracker.Project) AppOption {
	return func(a *App) {
		a.project = project
		a.ownsProject = false
	}
}

// WithActor overrides the configured acting identity.
func WithActor(actor lifecycle.Actor) AppOption {
	return func(a *App) {
		a.actorOverride = &actor
	}
}

// WithTrackerOptions forwards options to the tracker opened by NewApp.
func WithTrackerOptions(opts ...tracker.Option) AppOption {
	return func(a *App) {
		a.trackerOpts = append(a.trackerOpts, opts...)
	}
}

// App is the main application model
type App struct {
	state         appState
	project       *tracker.Project
	ownsProject   bool
	trackerOpts   []tracker.Option
	actorOverride *lifecycle.Actor

	config  *config.Config
	tracker *tracker.Tracker
	logbook *logbook.Logbook
	actor   lifecycle.Actor
	// actorErr is set when no usable identity is configured; the dashboard
	// stays read-only until one is.
	actorErr error

	snapshot catalog.Catalog
	courses  []progress.CourseProgress
	courseID string

	// UI components
	courseMenu list.Model
	topicMenu  list.Model
	bar        progressbar.Model
	input      textinput.Model
	pending    *pendingAction

	statusMsg string
	err       error

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// pendingAction is an event waiting on a prompted payload value.
type pendingAction struct {
	topic topicItem
	event lifecycle.Event
	label string
}

type catalogLoadedMsg struct {
	snapshot catalog.Catalog
	courses  []progress.CourseProgress
	err      error
}

type transitionDoneMsg struct {
	result tracker.Result
	err    error
}

type refreshTickMsg struct{}

// NewApp creates a new App instance for the project at projectDir.
func NewApp(projectDir string, opts ...AppOption) (*App, error) {
	app := &App{state: stateCourses, ownsProject: true}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	if app.project == nil {
		project, err := tracker.Open(projectDir, app.trackerOpts...)
		if err != nil {
			return nil, err
		}
		app.project = project
	}
	app.config = app.project.Config
	app.tracker = app.project.Tracker
	app.logbook = app.project.Journal
	if app.actorOverride != nil {
		app.actor = *app.actorOverride
		app.actorErr = app.actor.Validate()
	} else {
		app.actor, app.actorErr = app.config.Actor()
	}

	app.courseMenu = newMenu("◆ COURSES")
	app.topicMenu = newMenu("Topics")
	app.bar = progressbar.New(progressbar.WithDefaultGradient(), progressbar.WithoutPercentage())
	app.input = textinput.New()
	app.input.CharLimit = 512
	_ = app.input.Cursor.SetMode(cursor.CursorStatic)

	if app.actorErr != nil {
		app.statusMsg = "Read-only: set LECTERN_ACTOR and LECTERN_ROLE to act on topics"
	} else {
		app.statusMsg = fmt.Sprintf("Acting as %s", app.actor)
	}
	app.logbook.Info("dashboard opened by %s", actorName(app.actor))
	if err := app.reload(); err != nil {
		app.err = err
	}
	return app, nil
}

// Close releases the project when NewApp opened it.
func (a *App) Close() error {
	if a == nil || !a.ownsProject {
		return nil
	}
	return a.project.Close()
}

func newMenu(title string) list.Model {
	menu := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	menu.Title = title
	menu.SetShowStatusBar(false)
	menu.SetFilteringEnabled(false)
	menu.SetShowHelp(false)
	return menu
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadCatalog(), a.scheduleRefresh())
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case refreshTickMsg:
		if a.state == statePrompt {
			return a, a.scheduleRefresh()
		}
		return a, tea.Batch(a.loadCatalog(), a.scheduleRefresh())

	case catalogLoadedMsg:
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.err = nil
		a.install(msg.snapshot, msg.courses)
		return a, nil

	case transitionDoneMsg:
		return a, a.handleTransitionDone(msg)

	case tea.KeyMsg:
		if a.state == statePrompt {
			return a.handlePromptKey(msg)
		}
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.state == stateCourses {
				return a, tea.Quit
			}
		case "esc":
			if a.state == stateTopics {
				a.state = stateCourses
				a.statusMsg = ""
				return a, nil
			}
		case "r":
			a.statusMsg = "Refreshing catalog..."
			return a, a.loadCatalog()
		case "enter":
			if a.state == stateCourses {
				return a.openSelectedCourse()
			}
			return a, a.fireNext()
		case "n":
			if a.state == stateTopics {
				return a, a.fireNext()
			}
		case "a":
			if a.state == stateTopics {
				return a, a.fireEvent(lifecycle.EventApprove)
			}
		case "x":
			if a.state == stateTopics {
				return a, a.fireEvent(lifecycle.EventRequestChanges)
			}
		}
	}

	var cmd tea.Cmd
	switch a.state {
	case stateCourses:
		a.courseMenu, cmd = a.courseMenu.Update(msg)
	case stateTopics:
		a.topicMenu, cmd = a.topicMenu.Update(msg)
	}
	return a, cmd
}

func (a *App) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "esc":
		a.closePrompt("Cancelled")
		return a, nil
	case "enter":
		pending := a.pending
		value := strings.TrimSpace(a.input.Value())
		a.closePrompt("")
		if pending == nil {
			return a, nil
		}
		payload, err := payloadFor(pending.event, value)
		if err != nil {
			a.statusMsg = err.Error()
			return a, nil
		}
		return a, a.transition(pending.topic, pending.event, payload)
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) openSelectedCourse() (tea.Model, tea.Cmd) {
	item, ok := a.courseMenu.SelectedItem().(courseItem)
	if !ok {
		return a, nil
	}
	a.courseID = item.progress.CourseID
	a.state = stateTopics
	a.topicMenu.Title = item.progress.CourseName
	cmd := a.topicMenu.SetItems(a.topicItems())
	a.topicMenu.Select(0)
	a.statusMsg = a.actionHint()
	return a, cmd
}

// fireNext fires the forward event the acting role owns for the selected
// topic, prompting first when the event needs a value.
func (a *App) fireNext() tea.Cmd {
	item, ok := a.selectedTopic()
	if !ok {
		return nil
	}
	event, ok := workflow.Next(item.topic, a.actor.Role)
	if !ok {
		a.statusMsg = fmt.Sprintf("No next step for %s on %q", a.actor.Role, item.topic.Name)
		return nil
	}
	return a.fireEvent(event)
}

func (a *App) fireEvent(event lifecycle.Event) tea.Cmd {
	if a.actorErr != nil {
		a.statusMsg = fmt.Sprintf("Cannot act: %v", a.actorErr)
		return nil
	}
	item, ok := a.selectedTopic()
	if !ok {
		return nil
	}
	if label, ok := promptLabel(event); ok {
		a.openPrompt(item, event, label)
		return nil
	}
	return a.transition(item, event, workflow.Payload{})
}

func (a *App) openPrompt(item topicItem, event lifecycle.Event, label string) {
	a.pending = &pendingAction{topic: item, event: event, label: label}
	a.input.Reset()
	a.input.Placeholder = label
	a.input.Focus()
	a.state = statePrompt
	a.statusMsg = fmt.Sprintf("%s %q: Enter to confirm, Esc to cancel", event, item.topic.Name)
}

func (a *App) closePrompt(status string) {
	a.pending = nil
	a.input.Blur()
	a.input.Reset()
	a.state = stateTopics
	if status != "" {
		a.statusMsg = status
	}
}

func (a *App) transition(item topicItem, event lifecycle.Event, payload workflow.Payload) tea.Cmd {
	req := tracker.Request{
		CourseID:         item.courseID,
		UnitID:           item.unitID,
		TopicID:          item.topic.ID,
		Event:            event,
		Actor:            a.actor,
		Payload:          payload,
		ExpectedRevision: a.snapshot.Revision,
	}
	tr := a.tracker
	return func() tea.Msg {
		result, err := tr.Transition(req)
		return transitionDoneMsg{result: result, err: err}
	}
}

func (a *App) handleTransitionDone(msg transitionDoneMsg) tea.Cmd {
	switch {
	case msg.err == nil:
		a.statusMsg = fmt.Sprintf("%s: %s → %s", msg.result.Topic.Name, msg.result.Change.From.Label(), msg.result.Change.To.Label())
	case errors.Is(msg.err, tracker.ErrRevisionConflict):
		a.statusMsg = "Catalog changed elsewhere; reloaded, try again"
	default:
		a.statusMsg = describeRejection(msg.err)
	}
	return a.loadCatalog()
}

func (a *App) loadCatalog() tea.Cmd {
	tr := a.tracker
	return func() tea.Msg {
		snapshot, err := tr.Catalog()
		if err != nil {
			return catalogLoadedMsg{err: err}
		}
		return catalogLoadedMsg{snapshot: snapshot, courses: progress.ForCourses(snapshot)}
	}
}

func (a *App) scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

// reload loads the snapshot synchronously while the app is being built.
func (a *App) reload() error {
	snapshot, err := a.tracker.Catalog()
	if err != nil {
		return err
	}
	a.install(snapshot, progress.ForCourses(snapshot))
	return nil
}

func (a *App) install(snapshot catalog.Catalog, courses []progress.CourseProgress) {
	a.snapshot = snapshot
	a.courses = courses
	places := a.config.PercentPlaces()
	items := make([]list.Item, 0, len(courses))
	for _, course := range courses {
		items = append(items, courseItem{progress: course, places: places})
	}
	a.courseMenu.SetItems(items)
	if a.courseID != "" {
		index := a.topicMenu.Index()
		a.topicMenu.SetItems(a.topicItems())
		if index < len(a.topicMenu.Items()) {
			a.topicMenu.Select(index)
		}
	}
}

func (a *App) topicItems() []list.Item {
	course, ok := a.snapshot.Course(a.courseID)
	if !ok {
		return nil
	}
	var items []list.Item
	for _, unit := range course.Units {
		for _, topic := range unit.Topics {
			items = append(items, topicItem{
				courseID: course.ID,
				unitID:   unit.ID,
				unitName: unit.Name,
				topic:    topic,
				next:     nextLabel(topic, a.actor.Role),
			})
		}
	}
	return items
}

func (a *App) selectedTopic() (topicItem, bool) {
	if a.state != stateTopics && a.state != statePrompt {
		return topicItem{}, false
	}
	item, ok := a.topicMenu.SelectedItem().(topicItem)
	return item, ok
}

func (a *App) selectedCourse() (progress.CourseProgress, bool) {
	id := a.courseID
	if a.state == stateCourses {
		item, ok := a.courseMenu.SelectedItem().(courseItem)
		if !ok {
			return progress.CourseProgress{}, false
		}
		id = item.progress.CourseID
	}
	for _, course := range a.courses {
		if course.CourseID == id {
			return course, true
		}
	}
	return progress.CourseProgress{}, false
}

func (a *App) actionHint() string {
	if a.actorErr != nil {
		return "Read-only dashboard"
	}
	if a.actor.Role == lifecycle.RoleTeacher {
		return "Enter/n → next step    a → approve    x → request changes    Esc → courses"
	}
	return "Enter/n → next step    Esc → courses"
}

func (a *App) resize() {
	leftWidth, _ := a.columns()
	listHeight := max(6, a.height-14)
	a.courseMenu.SetSize(max(20, leftWidth-4), listHeight)
	a.topicMenu.SetSize(max(20, leftWidth-4), listHeight)
	a.input.Width = max(20, leftWidth-8)
}

// promptLabel names the value an event asks for before it fires.
func promptLabel(event lifecycle.Event) (string, bool) {
	switch event {
	case lifecycle.EventUpload:
		return "Video URL", true
	case lifecycle.EventRequestChanges:
		return "Notes for the editor", true
	default:
		return "", false
	}
}

func payloadFor(event lifecycle.Event, value string) (workflow.Payload, error) {
	switch event {
	case lifecycle.EventUpload:
		if value == "" {
			return workflow.Payload{}, errors.New("a video URL is required to upload")
		}
		return workflow.Payload{VideoURL: value}, nil
	case lifecycle.EventRequestChanges:
		return workflow.Payload{TeacherNotes: value}, nil
	default:
		return workflow.Payload{}, nil
	}
}

func nextLabel(topic catalog.Topic, role lifecycle.Role) string {
	event, ok := workflow.Next(topic, role)
	if !ok {
		return ""
	}
	return string(event)
}

func describeRejection(err error) string {
	var rejection *workflow.TransitionError
	if !errors.As(err, &rejection) {
		return fmt.Sprintf("Error: %v", err)
	}
	switch {
	case errors.Is(err, workflow.ErrUnauthorizedActor):
		return fmt.Sprintf("Not allowed: %v", err)
	case errors.Is(err, workflow.ErrMissingPayload):
		return fmt.Sprintf("Missing %s for %s", rejection.Field, rejection.Event)
	default:
		return fmt.Sprintf("Cannot %s from %s", rejection.Event, rejection.From.Label())
	}
}

func actorName(actor lifecycle.Actor) string {
	if strings.TrimSpace(actor.Name) == "" {
		return "anonymous"
	}
	return actor.String()
}
