package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/lectern/internal/catalog"
	"github.com/kingrea/lectern/internal/lifecycle"
	"github.com/kingrea/lectern/internal/progress"
	"github.com/kingrea/lectern/internal/tracker"
)

// report is the snapshot printed by "lectern report".
type report struct {
	Revision int                       `json:"revision" yaml:"revision"`
	Places   int                       `json:"-" yaml:"-"`
	Courses  []progress.CourseProgress `json:"courses" yaml:"courses"`
	Degrees  []progress.DegreeProgress `json:"degrees" yaml:"degrees"`
	Overview progress.Overview         `json:"overview" yaml:"overview"`
}

func runReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	projectDir := fs.String("project", "", "path to the project directory (defaults to cwd)")
	format := fs.String("format", "table", "output format: table, json or yaml")
	_ = fs.Parse(args)

	project, err := tracker.Open(resolveProject(*projectDir))
	if err != nil {
		return fmt.Errorf("open project: %w", err)
	}
	defer project.Close()

	cat, err := project.Tracker.Catalog()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	r := buildReport(cat, project.Tracker.Staff(), project.Config.PercentPlaces())
	return writeReport(os.Stdout, r, *format)
}

func buildReport(cat catalog.Catalog, staff []catalog.StaffEntry, places int) report {
	r := report{
		Revision: cat.Revision,
		Places:   places,
		Courses:  progress.ForCourses(cat),
		Degrees:  progress.ForDegrees(cat),
		Overview: progress.OverviewFor(cat, staff),
	}
	for i := range r.Courses {
		r.Courses[i].Summary = r.Courses[i].Summary.Rounded(places)
		for j := range r.Courses[i].Units {
			r.Courses[i].Units[j].Summary = r.Courses[i].Units[j].Summary.Rounded(places)
		}
	}
	for i := range r.Degrees {
		r.Degrees[i].Summary = r.Degrees[i].Summary.Rounded(places)
		r.Degrees[i].Courses = nil
	}
	r.Overview.Summary = r.Overview.Summary.Rounded(places)
	return r
}

func writeReport(w io.Writer, r report, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "table":
		_, err := io.WriteString(w, renderReportTables(r))
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func renderReportTables(r report) string {
	heading := lipgloss.NewStyle().Bold(true)
	percent := func(value float64) string { return strconv.FormatFloat(value, 'f', r.Places, 64) + "%" }

	courses := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Course", "Program", "Topics", "Published", "Complete", "Minutes")
	for _, course := range r.Courses {
		courses.Row(
			course.CourseName,
			course.Program,
			strconv.Itoa(course.Total),
			strconv.Itoa(course.Finalized),
			percent(course.Percent),
			fmt.Sprintf("%d/%d", course.PublishedMinutes, course.EstimatedMinutes),
		)
	}

	degrees := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Degree", "Courses", "Topics", "Published", "Progress", "Duration")
	for _, degree := range r.Degrees {
		name := degree.ShortName
		if degree.Degree != nil && degree.Degree.Name != "" {
			name = fmt.Sprintf("%s (%s)", degree.Degree.Name, degree.ShortName)
		}
		degrees.Row(
			name,
			strconv.Itoa(degree.CourseCount),
			strconv.Itoa(degree.Total),
			strconv.Itoa(degree.Finalized),
			strconv.Itoa(degree.Progress)+"%",
			fmt.Sprintf("%d min", degree.TotalDuration),
		)
	}

	ov := r.Overview
	lines := []string{
		heading.Render(fmt.Sprintf("Catalog revision %d", r.Revision)),
		"",
		heading.Render("Courses"),
		courses.String(),
		"",
		heading.Render("Degrees"),
		degrees.String(),
		"",
		heading.Render("Pipeline"),
		fmt.Sprintf("scripted %d · uploaded %d · reviewed %d · published %d of %d",
			ov.Pipeline.Scripted, ov.Pipeline.Uploaded, ov.Pipeline.Reviewed, ov.Pipeline.Finalized, ov.Pipeline.Planned),
		fmt.Sprintf("awaiting review %d · needs recording %d · ready to publish %d",
			ov.Pipeline.AwaitingReview, ov.Pipeline.NeedsRecording, ov.Pipeline.ReadyToPublish),
		fmt.Sprintf("overall %s complete", percent(ov.Percent)),
		fmt.Sprintf("staff: %d teachers, %d editors, %d admins",
			ov.Staff[lifecycle.RoleTeacher], ov.Staff[lifecycle.RoleEditor], ov.Staff[lifecycle.RoleAdmin]),
	}
	if len(ov.DanglingPrograms) > 0 {
		lines = append(lines, fmt.Sprintf("programs without a degree: %s", strings.Join(ov.DanglingPrograms, ", ")))
	}
	return strings.Join(lines, "\n") + "\n"
}
