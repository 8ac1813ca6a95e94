package eventbridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/kingrea/lectern/internal/catalog"
	"github.com/kingrea/lectern/internal/lifecycle"
	"github.com/kingrea/lectern/internal/progress"
	"github.com/kingrea/lectern/internal/tracker"
	"github.com/kingrea/lectern/internal/workflow"
)

// ServerStatus reports runtime lifecycle states for the HTTP server.
type ServerStatus string

const (
	StatusStarting ServerStatus = "starting"
	StatusReady    ServerStatus = "ready"
	StatusDraining ServerStatus = "draining"
)

// ErrServerDisabled is returned by Start when the bridge is switched off.
var ErrServerDisabled = errors.New("eventbridge: server disabled")

// Server wraps the HTTP listener and gin handlers backing the bridge.
type Server struct {
	settings Settings
	service  Service
	router   *Router
	logger   Logger
	clock    func() time.Time

	handlerOnce sync.Once
	handler     *gin.Engine

	mu        sync.RWMutex
	server    *http.Server
	listener  net.Listener
	status    ServerStatus
	startTime time.Time
}

// Option customizes server construction.
type Option func(*Server)

// WithRouter enables the /changes stream backed by router.
func WithRouter(router *Router) Option {
	return func(s *Server) {
		s.router = router
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock allows tests to control timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewServer prepares a bridge server that serves service.
func NewServer(settings Settings, service Service, opts ...Option) *Server {
	s := &Server{
		settings: settings,
		service:  service,
		logger:   nopLogger{},
		clock:    func() time.Time { return time.Now().UTC() },
		status:   StatusStarting,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Handler returns the gin engine. It is built once and shared by Start and
// tests.
func (s *Server) Handler() http.Handler {
	s.handlerOnce.Do(func() {
		s.handler = s.buildEngine()
	})
	return s.handler
}

func (s *Server) buildEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	if cfg, ok := s.corsConfig(); ok {
		r.Use(cors.New(cfg))
	}

	r.GET("/health", s.handleHealth)
	r.HEAD("/health", s.handleHealth)
	r.GET("/courses", s.handleCourses)
	r.GET("/courses/:id/progress", s.handleCourseProgress)
	r.GET("/degrees/:shortName/progress", s.handleDegreeProgress)
	r.GET("/overview", s.handleOverview)
	r.GET("/queue/:role", s.handleQueue)
	r.GET("/changes", s.handleChanges)
	r.POST("/transitions", s.handleTransition)
	return r
}

func (s *Server) corsConfig() (cors.Config, bool) {
	if len(s.settings.AllowOrigins) == 0 {
		return cors.Config{}, false
	}
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	var origins []string
	for _, origin := range s.settings.AllowOrigins {
		switch {
		case origin == "*":
			cfg.AllowAllOrigins = true
		case strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://"):
			origins = append(origins, origin)
		default:
			s.logger.Printf("eventbridge: ignoring origin %q (scheme required)", origin)
		}
	}
	if cfg.AllowAllOrigins {
		return cfg, true
	}
	if len(origins) == 0 {
		return cors.Config{}, false
	}
	cfg.AllowOrigins = origins
	return cfg, true
}

// Start binds the TCP listener and begins serving HTTP traffic.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("eventbridge: server is nil")
	}
	if !s.settings.Enabled {
		return ErrServerDisabled
	}
	handler := s.Handler()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("eventbridge: server already started")
	}
	addr := s.settings.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("eventbridge: listen %s: %w", addr, err)
	}
	s.listener = listener
	s.startTime = s.clock()
	server := &http.Server{
		Handler:      handler,
		ReadTimeout:  s.settings.ReadTimeout,
		WriteTimeout: s.settings.WriteTimeout,
		IdleTimeout:  s.settings.IdleTimeout,
	}
	if ctx != nil {
		server.BaseContext = func(net.Listener) context.Context { return ctx }
	}
	s.server = server
	s.status = StatusReady
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("eventbridge: serve error: %v", err)
		}
	}()
	s.logger.Printf("eventbridge: listening on %s", listener.Addr().String())
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || s.server == nil {
		return nil
	}
	s.status = StatusDraining
	deadline := ctx
	if deadline == nil {
		var cancel context.CancelFunc
		deadline, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := s.server.Shutdown(deadline); err != nil {
		return err
	}
	s.listener = nil
	s.server = nil
	return nil
}

// Addr returns the bound TCP address once the server has started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the HTTP base URL (scheme + host:port) for the running server.
func (s *Server) BaseURL() string {
	addr := s.Addr()
	if addr == "" {
		return s.settings.URL()
	}
	return "http://" + addr
}

// Status reports the server's lifecycle state.
func (s *Server) Status() ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Server) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

func (s *Server) uptimeSeconds() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime.IsZero() {
		return 0
	}
	return int64(s.now().Sub(s.startTime).Seconds())
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Printf("eventbridge: %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := healthResponse{
		Status:        string(s.Status()),
		Version:       ProtocolVersion,
		RouterReady:   s.router != nil,
		UptimeSeconds: s.uptimeSeconds(),
	}
	if s.service != nil {
		if cat, err := s.service.Catalog(); err == nil {
			resp.Revision = cat.Revision
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCourses(c *gin.Context) {
	if !s.ready(c) {
		return
	}
	courses, err := s.service.Courses()
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]progress.CourseProgress, 0, len(courses))
	for _, course := range courses {
		out = append(out, roundCourse(course, s.settings.PercentPlaces))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleCourseProgress(c *gin.Context) {
	if !s.ready(c) {
		return
	}
	course, err := s.service.CourseProgress(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, roundCourse(course, s.settings.PercentPlaces))
}

func (s *Server) handleDegreeProgress(c *gin.Context) {
	if !s.ready(c) {
		return
	}
	degree, err := s.service.DegreeProgress(c.Param("shortName"))
	if err != nil {
		s.fail(c, err)
		return
	}
	degree.Summary = degree.Summary.Rounded(s.settings.PercentPlaces)
	courses := make([]progress.CourseProgress, 0, len(degree.Courses))
	for _, course := range degree.Courses {
		courses = append(courses, roundCourse(course, s.settings.PercentPlaces))
	}
	degree.Courses = courses
	c.JSON(http.StatusOK, degree)
}

func (s *Server) handleOverview(c *gin.Context) {
	if !s.ready(c) {
		return
	}
	overview, err := s.service.Overview()
	if err != nil {
		s.fail(c, err)
		return
	}
	overview.Summary = overview.Summary.Rounded(s.settings.PercentPlaces)
	c.JSON(http.StatusOK, overview)
}

func (s *Server) handleQueue(c *gin.Context) {
	if !s.ready(c) {
		return
	}
	role, err := lifecycle.ParseRole(c.Param("role"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	items, err := s.service.Queue(role)
	if err != nil {
		s.fail(c, err)
		return
	}
	if items == nil {
		items = []progress.QueueItem{}
	}
	c.JSON(http.StatusOK, items)
}

// handleChanges streams tracker changes as server-sent events. The optional
// course query parameter narrows the stream to one course.
func (s *Server) handleChanges(c *gin.Context) {
	if s.router == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "change stream disabled"})
		return
	}
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})
	sub := s.router.Subscribe(c.Query("course"))
	defer sub.Close()
	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case change, ok := <-sub.Changes:
			if !ok {
				return false
			}
			c.SSEvent(string(change.Kind), change)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

func (s *Server) handleTransition(c *gin.Context) {
	if !s.ready(c) {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.settings.MaxBodyBytes)
	var req tracker.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "payload exceeds limit"})
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.TopicID) == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "topicId is required"})
		return
	}
	// Unknown names pass through untouched so the engine reports them.
	if event, err := lifecycle.ParseEvent(string(req.Event)); err == nil {
		req.Event = event
	}
	if role, err := lifecycle.ParseRole(string(req.Actor.Role)); err == nil {
		req.Actor.Role = role
	}
	res, err := s.service.Transition(req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, transitionResponse{
		Status:     "applied",
		Topic:      res.Topic,
		Revision:   res.Revision,
		ChangeID:   res.Change.ID,
		ServerTime: s.now(),
	})
}

func (s *Server) ready(c *gin.Context) bool {
	if s.service == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "tracker unavailable"})
		return false
	}
	return true
}

// fail maps tracker and workflow errors onto HTTP statuses.
func (s *Server) fail(c *gin.Context, err error) {
	resp := errorResponse{Error: err.Error()}
	var terr *workflow.TransitionError
	if errors.As(err, &terr) {
		resp.Field = string(terr.Field)
	}
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, workflow.ErrUnauthorizedActor):
		status, resp.Kind = http.StatusForbidden, "unauthorized_actor"
	case errors.Is(err, workflow.ErrMissingPayload):
		status, resp.Kind = http.StatusUnprocessableEntity, "missing_payload"
	case errors.Is(err, workflow.ErrInvalidTransition):
		status, resp.Kind = http.StatusConflict, "invalid_transition"
	case errors.Is(err, tracker.ErrRevisionConflict):
		status, resp.Kind = http.StatusConflict, "revision_conflict"
	case errors.Is(err, catalog.ErrCourseNotFound), errors.Is(err, catalog.ErrUnitNotFound), errors.Is(err, catalog.ErrTopicNotFound):
		status, resp.Kind = http.StatusNotFound, "not_found"
	case errors.Is(err, tracker.ErrSnapshotNotFound):
		status, resp.Kind = http.StatusServiceUnavailable, "no_snapshot"
	default:
		s.logger.Printf("eventbridge: %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		resp.Error = "internal error"
	}
	c.JSON(status, resp)
}

func roundCourse(course progress.CourseProgress, places int) progress.CourseProgress {
	course.Summary = course.Summary.Rounded(places)
	units := make([]progress.UnitProgress, len(course.Units))
	for i, unit := range course.Units {
		unit.Summary = unit.Summary.Rounded(places)
		units[i] = unit
	}
	course.Units = units
	return course
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}
