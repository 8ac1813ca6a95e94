package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/lectern/internal/catalog"
	"github.com/kingrea/lectern/internal/lifecycle"
	"github.com/kingrea/lectern/internal/progress"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).MarginBottom(1)
	panelStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	detailStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	stageDoneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	stageNowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true).Underline(true)
	stageTodoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
)

// badgeColors maps each stage to its badge background.
var badgeColors = map[lifecycle.ContentStatus]string{
	lifecycle.StatusPlanned:     "#666666",
	lifecycle.StatusScripting:   "#8E6CEF",
	lifecycle.StatusRecording:   "#E8590C",
	lifecycle.StatusEditing:     "#F7B801",
	lifecycle.StatusUploaded:    "#5B8DEF",
	lifecycle.StatusUnderReview: "#1098AD",
	lifecycle.StatusApproved:    "#2F9E44",
	lifecycle.StatusFinalized:   "#4CAF50",
}

// View renders the current state to a string.
func (a *App) View() string {
	leftWidth, rightWidth := a.columns()
	var main string
	switch a.state {
	case stateCourses:
		main = a.courseMenu.View()
		if len(a.courses) == 0 {
			main = mutedStyle.Render(fmt.Sprintf("No courses yet. Add them to %s.", a.config.CatalogPath()))
		}
	case stateTopics:
		main = a.topicMenu.View()
	case statePrompt:
		main = a.renderPrompt()
	}
	left := panelStyle.Width(max(20, leftWidth)).Render(main)
	body := left
	if rightWidth > 0 {
		right := panelStyle.Width(max(20, rightWidth)).Render(a.renderDetail(rightWidth - 4))
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}

	sections := []string{headerStyle.Render("◆ LECTERN · " + actorName(a.actor)), body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	if a.err != nil {
		sections = append(sections, errorStyle.Render(fmt.Sprintf("⚠ %v", a.err)))
	}
	sections = append(sections, mutedStyle.MarginTop(1).Render(a.statusMsg))
	return strings.Join(sections, "\n")
}

func (a *App) columns() (int, int) {
	width := a.width
	if width <= 0 {
		width = 100
	}
	rightWidth := max(36, width*2/5)
	leftWidth := width - rightWidth - 4
	if leftWidth < 40 {
		return width - 4, 0
	}
	return leftWidth, rightWidth
}

func (a *App) renderPrompt() string {
	label := "Value"
	if a.pending != nil {
		label = a.pending.label
		title := titleStyle.Render(fmt.Sprintf("%s · %s", a.pending.event, a.pending.topic.topic.Name))
		return lipgloss.JoinVertical(lipgloss.Left, title, "", mutedStyle.Render(label), a.input.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, mutedStyle.Render(label), a.input.View())
}

func (a *App) renderDetail(width int) string {
	course, ok := a.selectedCourse()
	if !ok {
		return mutedStyle.Render("Select a course")
	}
	sections := []string{a.renderCourseSummary(course, width)}
	if item, ok := a.selectedTopic(); ok {
		sections = append(sections, "", a.renderTopic(item.topic, width))
	}
	return lipgloss.NewStyle().Width(max(20, width)).Render(strings.Join(sections, "\n"))
}

func (a *App) renderCourseSummary(course progress.CourseProgress, width int) string {
	places := a.config.PercentPlaces()
	summary := course.Summary.Rounded(places)
	a.bar.Width = max(10, width-2)
	lines := []string{
		titleStyle.Render(course.CourseName),
		a.bar.ViewAs(course.Percent / 100),
		fmt.Sprintf("%s complete · %d/%d published", formatPercent(summary.Percent, places), summary.Finalized, summary.Total),
		detailStyle.Render(fmt.Sprintf("%d min planned · %d min published", summary.EstimatedMinutes, summary.PublishedMinutes)),
	}
	pipeline := progress.PipelineFor(a.courseTopics(course.CourseID))
	lines = append(lines, detailStyle.Render(fmt.Sprintf(
		"awaiting review %d · needs recording %d · ready to publish %d",
		pipeline.AwaitingReview, pipeline.NeedsRecording, pipeline.ReadyToPublish,
	)))
	for _, unit := range course.Units {
		unitSummary := unit.Summary.Rounded(places)
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %s  %s (%d/%d)", unit.UnitName, formatPercent(unitSummary.Percent, places), unitSummary.Finalized, unitSummary.Total)))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderTopic(topic catalog.Topic, width int) string {
	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Center, titleStyle.Render(topic.Name), " ", renderBadge(topic.Status)),
		renderTimeline(topic.Status),
	}
	if topic.VideoURL != "" {
		lines = append(lines, detailStyle.Render("Video: "+topic.VideoURL))
	}
	if topic.UploadedBy != "" {
		lines = append(lines, detailStyle.Render("Uploaded by "+topic.UploadedBy))
	}
	if topic.ReviewedBy != "" {
		lines = append(lines, detailStyle.Render("Reviewed by "+topic.ReviewedBy))
	}
	if topic.TeacherNotes != "" {
		lines = append(lines, detailStyle.Render("Teacher: "+topic.TeacherNotes))
	}
	if topic.EditorComments != "" {
		lines = append(lines, detailStyle.Render("Editor: "+topic.EditorComments))
	}
	if len(topic.History) > 0 {
		lines = append(lines, "", mutedStyle.Render("History"))
		start := max(0, len(topic.History)-5)
		for _, stamp := range topic.History[start:] {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %s %s by %s", stamp.At.Format("Jan 02 15:04"), stamp.Event, stamp.Actor)))
		}
	}
	return lipgloss.NewStyle().Width(max(20, width)).Render(strings.Join(lines, "\n"))
}

func (a *App) courseTopics(courseID string) []catalog.Topic {
	course, ok := a.snapshot.Course(courseID)
	if !ok {
		return nil
	}
	return course.Topics()
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	head := titleStyle.Render(fmt.Sprintf("JOURNAL · %s · %d entries", fileName, total))
	body := lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).Render(strings.Join(lines, "\n"))
	return panelStyle.Render(fmt.Sprintf("%s\n%s", head, body))
}

func renderBadge(status lifecycle.ContentStatus) string {
	color, ok := badgeColors[status]
	if !ok {
		color = "#999999"
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color(color)).
		Padding(0, 1).
		Render(status.Label())
}

// renderTimeline draws every stage in order with the current one highlighted.
func renderTimeline(current lifecycle.ContentStatus) string {
	var parts []string
	for _, stage := range lifecycle.Statuses() {
		label := stage.ShortLabel()
		switch {
		case stage == current:
			parts = append(parts, stageNowStyle.Render(label))
		case stageDone(stage, current):
			parts = append(parts, stageDoneStyle.Render("✓"+label))
		default:
			parts = append(parts, stageTodoStyle.Render(label))
		}
	}
	return strings.Join(parts, mutedStyle.Render(" › "))
}
