package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/kingrea/lectern/internal/catalog"
	"github.com/kingrea/lectern/internal/lifecycle"
	"github.com/kingrea/lectern/internal/tracker"
	"github.com/kingrea/lectern/internal/workflow"
)

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ", ") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func runApply(args []string) error {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	projectDir := fs.String("project", "", "path to the project directory (defaults to cwd)")
	topicID := fs.String("topic", "", "topic id (required)")
	courseID := fs.String("course", "", "course id (optional, narrows the lookup)")
	unitID := fs.String("unit", "", "unit id (optional, narrows the lookup)")
	eventName := fs.String("event", "", "event to fire, e.g. upload or approve (required)")
	actorName := fs.String("actor", "", "acting staff member (defaults to config actor)")
	roleName := fs.String("role", "", "acting role (defaults to config role)")
	revision := fs.Int("revision", 0, "expected catalog revision; 0 skips the check")
	video := fs.String("video", "", "video URL for upload")
	ppt := fs.String("ppt", "", "slide deck URL for startScripting")
	minutes := fs.Int("minutes", 0, "estimated minutes for startScripting")
	notes := fs.String("notes", "", "notes recorded with the event")
	var materials stringList
	fs.Var(&materials, "material", "content material URL for startScripting (repeatable)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*topicID) == "" || strings.TrimSpace(*eventName) == "" {
		return errors.New("--topic and --event are required")
	}
	event, err := lifecycle.ParseEvent(*eventName)
	if err != nil {
		return err
	}

	project, err := tracker.Open(resolveProject(*projectDir))
	if err != nil {
		return fmt.Errorf("open project: %w", err)
	}
	defer project.Close()

	actor, err := resolveActor(project, *actorName, *roleName)
	if err != nil {
		return err
	}
	req := tracker.Request{
		CourseID:         strings.TrimSpace(*courseID),
		UnitID:           strings.TrimSpace(*unitID),
		TopicID:          strings.TrimSpace(*topicID),
		Event:            event,
		Actor:            actor,
		Payload:          buildPayload(event, *video, *ppt, *notes, *minutes, materials),
		ExpectedRevision: *revision,
	}
	result, err := project.Tracker.Transition(req)
	if err != nil {
		if errors.Is(err, tracker.ErrRevisionConflict) {
			return fmt.Errorf("catalog changed since revision %d; reload and retry", *revision)
		}
		return err
	}
	fmt.Printf("%s %q: %s → %s (revision %d)\n",
		result.Change.Event, result.Topic.Name, result.Change.From.Label(), result.Change.To.Label(), result.Revision)
	return nil
}

// resolveActor merges flags over the configured identity. A name found in the
// staff roster supplies its role when --role is omitted.
func resolveActor(project *tracker.Project, name, role string) (lifecycle.Actor, error) {
	actor := lifecycle.Actor{
		Name: project.Config.Project.Actor.Name,
		Role: lifecycle.Role(project.Config.Project.Actor.Role),
	}
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		actor.Name = trimmed
		if entry, ok := catalog.FindStaff(project.Staff, trimmed); ok && strings.TrimSpace(role) == "" {
			actor.Role = entry.Role
		}
	}
	if strings.TrimSpace(role) != "" {
		parsed, err := lifecycle.ParseRole(role)
		if err != nil {
			return lifecycle.Actor{}, err
		}
		actor.Role = parsed
	}
	if err := actor.Validate(); err != nil {
		return lifecycle.Actor{}, fmt.Errorf("%w (use --actor/--role or LECTERN_ACTOR/LECTERN_ROLE)", err)
	}
	return actor, nil
}

// buildPayload routes the free-form --notes flag to the field the event
// records it in.
func buildPayload(event lifecycle.Event, video, ppt, notes string, minutes int, materials []string) workflow.Payload {
	payload := workflow.Payload{VideoURL: strings.TrimSpace(video)}
	notes = strings.TrimSpace(notes)
	switch event {
	case lifecycle.EventStartScripting:
		payload.EditorComments = notes
		payload.PptURL = strings.TrimSpace(ppt)
		payload.EstimatedTime = minutes
		payload.ContentMaterialsURL = append([]string(nil), materials...)
	case lifecycle.EventUpload:
		payload.EditorComments = notes
	case lifecycle.EventApprove, lifecycle.EventRequestChanges:
		payload.TeacherNotes = notes
	case lifecycle.EventFinalize:
		payload.EditorNotes = notes
	}
	return payload
}
