package eventbridge

import (
	"context"
	"time"

	"github.com/kingrea/lectern/internal/catalog"
	"github.com/kingrea/lectern/internal/lifecycle"
	"github.com/kingrea/lectern/internal/progress"
	"github.com/kingrea/lectern/internal/tracker"
)

const (
	// ProtocolVersion identifies the bridge contract version exposed via /health.
	ProtocolVersion = "1.0.0"
	// Wildcard subscribes to changes from every course.
	Wildcard = "*"
)

// Service is the tracker surface the bridge serves. *tracker.Tracker
// satisfies it.
type Service interface {
	Catalog() (catalog.Catalog, error)
	Transition(tracker.Request) (tracker.Result, error)
	Courses() ([]progress.CourseProgress, error)
	CourseProgress(courseID string) (progress.CourseProgress, error)
	DegreeProgress(shortName string) (progress.DegreeProgress, error)
	Overview() (progress.Overview, error)
	Queue(role lifecycle.Role) ([]progress.QueueItem, error)
}

// Logger records bridge status information. It matches logging.Logger's signature.
type Logger interface {
	Printf(format string, args ...any)
}

// Runner is anything with the Start/Shutdown lifecycle of Server.
type Runner interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	RouterReady   bool   `json:"router_ready"`
	Revision      int    `json:"revision"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

type transitionResponse struct {
	Status     string        `json:"status"`
	Topic      catalog.Topic `json:"topic"`
	Revision   int           `json:"revision"`
	ChangeID   string        `json:"change_id"`
	ServerTime time.Time     `json:"server_time"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Field string `json:"field,omitempty"`
}
