package eventbridge

import (
	"strings"
	"sync"

	"github.com/kingrea/lectern/internal/tracker"
)

const (
	defaultSubscriberCapacity = 100
	defaultBacklogLimit       = 50
	defaultDedupeWindow       = 1024
)

// RouterOption customizes Router construction.
type RouterOption func(*Router)

// Router delivers tracker changes to per-course subscribers with buffering,
// deduplication, and bounded channel semantics. Subscribers on Wildcard see
// every change; changes for a course nobody watches are kept in a bounded
// backlog until the first subscriber for that course arrives.
type Router struct {
	mu           sync.RWMutex
	subscribers  map[string]map[*subscriber]struct{}
	backlog      map[string][]tracker.Change
	recentIDs    map[string]struct{}
	recentOrder  []string
	channelSize  int
	backlogLimit int
	dedupeWindow int
	logger       Logger
}

// Subscription represents an active course subscription.
type Subscription struct {
	Changes <-chan tracker.Change
	cancel  func()
}

// Close terminates the subscription.
func (s Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// NewRouter constructs a router with sane defaults.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{
		subscribers:  map[string]map[*subscriber]struct{}{},
		backlog:      map[string][]tracker.Change{},
		recentIDs:    map[string]struct{}{},
		recentOrder:  make([]string, 0, defaultDedupeWindow),
		channelSize:  defaultSubscriberCapacity,
		backlogLimit: defaultBacklogLimit,
		dedupeWindow: defaultDedupeWindow,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// RouterWithLogger injects a logger for drop/diagnostic messages.
func RouterWithLogger(logger Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

// RouterWithSubscriberCapacity overrides the buffered channel size per subscriber.
func RouterWithSubscriberCapacity(cap int) RouterOption {
	return func(r *Router) {
		if cap > 0 {
			r.channelSize = cap
		}
	}
}

// RouterWithBacklogLimit overrides the backlog size for pre-subscription buffering.
func RouterWithBacklogLimit(limit int) RouterOption {
	return func(r *Router) {
		if limit > 0 {
			r.backlogLimit = limit
		}
	}
}

// RouterWithDedupeWindow controls how many recent change IDs are retained.
func RouterWithDedupeWindow(size int) RouterOption {
	return func(r *Router) {
		if size > 0 {
			r.dedupeWindow = size
		}
	}
}

// Subscribe registers for changes keyed by course ID, or Wildcard for all.
func (r *Router) Subscribe(courseID string) Subscription {
	key := normalizeKey(courseID)
	if key == "" {
		key = Wildcard
	}
	sub := newSubscriber(r.channelSize, r.logger)
	var backlog []tracker.Change
	r.mu.Lock()
	if r.subscribers[key] == nil {
		r.subscribers[key] = map[*subscriber]struct{}{}
	}
	r.subscribers[key][sub] = struct{}{}
	if key != Wildcard {
		if existing := r.backlog[key]; len(existing) > 0 {
			backlog = append(backlog, existing...)
			delete(r.backlog, key)
		}
	}
	r.mu.Unlock()
	for _, change := range backlog {
		sub.deliver(change)
	}
	return Subscription{
		Changes: sub.channel(),
		cancel: func() {
			r.removeSubscriber(key, sub)
		},
	}
}

// Publish satisfies tracker.Publisher.
func (r *Router) Publish(change tracker.Change) {
	r.Route(change)
}

// Route delivers the change to subscribers or buffers it when no course
// subscriber exists.
func (r *Router) Route(change tracker.Change) {
	if change.ID != "" && r.isDuplicate(change.ID) {
		return
	}
	key := normalizeKey(change.CourseID)
	if key == "" {
		return
	}
	r.mu.RLock()
	subs := r.snapshotSubscribers(key)
	watchers := r.snapshotSubscribers(Wildcard)
	r.mu.RUnlock()
	for _, sub := range watchers {
		sub.deliver(change)
	}
	if len(subs) == 0 {
		r.bufferChange(key, change)
		return
	}
	for _, sub := range subs {
		sub.deliver(change)
	}
}

// Pending reports how many changes are buffered for a course.
func (r *Router) Pending(courseID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.backlog[normalizeKey(courseID)])
}

func (r *Router) snapshotSubscribers(key string) []*subscriber {
	live := r.subscribers[key]
	if len(live) == 0 {
		return nil
	}
	items := make([]*subscriber, 0, len(live))
	for sub := range live {
		items = append(items, sub)
	}
	return items
}

func (r *Router) removeSubscriber(key string, sub *subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if subs := r.subscribers[key]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(r.subscribers, key)
		}
	}
	sub.close()
}

func (r *Router) bufferChange(key string, change tracker.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	queue := r.backlog[key]
	if len(queue) >= r.backlogLimit {
		queue = queue[1:]
		if r.logger != nil {
			r.logger.Printf("eventbridge: backlog drop for %s (limit %d)", key, r.backlogLimit)
		}
	}
	queue = append(queue, change)
	r.backlog[key] = queue
}

func (r *Router) isDuplicate(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recentIDs[id]; ok {
		return true
	}
	r.recentIDs[id] = struct{}{}
	r.recentOrder = append(r.recentOrder, id)
	if len(r.recentOrder) > r.dedupeWindow {
		oldest := r.recentOrder[0]
		r.recentOrder = r.recentOrder[1:]
		delete(r.recentIDs, oldest)
	}
	return false
}

func normalizeKey(courseID string) string {
	return strings.TrimSpace(strings.ToLower(courseID))
}

type subscriber struct {
	ch      chan tracker.Change
	logger  Logger
	closed  bool
	closeMu sync.Mutex
}

func newSubscriber(capacity int, logger Logger) *subscriber {
	if capacity <= 0 {
		capacity = defaultSubscriberCapacity
	}
	return &subscriber{
		ch:     make(chan tracker.Change, capacity),
		logger: logger,
	}
}

func (s *subscriber) channel() <-chan tracker.Change {
	return s.ch
}

// deliver holds closeMu so a concurrent close cannot race the send.
func (s *subscriber) deliver(change tracker.Change) {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- change:
		return
	default:
	}
	oldest := <-s.ch
	if shouldDropOldest(oldest, change) {
		s.logDrop(oldest, "queue overflow")
		s.ch <- change
	} else {
		s.ch <- oldest
		s.logDrop(change, "queue overflow:incoming")
	}
}

func (s *subscriber) logDrop(change tracker.Change, reason string) {
	if s.logger == nil {
		return
	}
	s.logger.Printf("eventbridge: dropped %s %s (%s)", change.Kind, change.ID, reason)
}

func (s *subscriber) close() {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// shouldDropOldest keeps applied transitions over rejections when a
// subscriber falls behind.
func shouldDropOldest(oldest, incoming tracker.Change) bool {
	oldestRejected := oldest.Kind == tracker.ChangeRejected
	incomingRejected := incoming.Kind == tracker.ChangeRejected
	if !oldestRejected && incomingRejected {
		return false
	}
	return true
}
