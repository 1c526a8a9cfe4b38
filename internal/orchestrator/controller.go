// Package orchestrator owns the request lifecycle of one search session.
//
// A Controller holds the session's only SearchState and replaces it
// wholesale on each transition:
//
//	idle --submit--> loading --ok--> success
//	                         --fail--> error
//	success|error|loading --submit--> loading
//
// Every submission is tagged with the next sequence number. A result whose
// tag is no longer the latest is discarded, so the visible state always
// belongs to the most recent submission.
package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/young1lin/groundsearch/internal/metrics"
	"github.com/young1lin/groundsearch/internal/models"
	"github.com/young1lin/groundsearch/internal/search"
	"github.com/young1lin/groundsearch/pkg/logger"
)

// Subscriber receives every new state. It is called synchronously and in
// transition order, and must not call back into the Controller.
type Subscriber func(models.SearchState)

// Option configures a Controller
type Option func(*Controller)

// WithRecorder reports search outcomes to r
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Controller) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithLogger sets the session logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithContext sets the parent context of every search call
func WithContext(ctx context.Context) Option {
	return func(c *Controller) {
		if ctx != nil {
			c.baseCtx = ctx
		}
	}
}

// Controller is the search orchestrator of one session
type Controller struct {
	provider search.Provider
	recorder metrics.Recorder
	log      *zap.Logger
	baseCtx  context.Context

	// pub serializes transitions together with their delivery so that
	// subscribers observe states in the order they were set.
	pub sync.Mutex

	mu      sync.Mutex
	state   models.SearchState
	query   string
	seq     uint64
	cancel  context.CancelFunc
	closed  bool
	subs    map[int]Subscriber
	nextSub int
	changed chan struct{}
}

// New creates a Controller in the idle state
func New(provider search.Provider, opts ...Option) *Controller {
	c := &Controller{
		provider: provider,
		recorder: (*metrics.Metrics)(nil),
		log:      logger.Log,
		baseCtx:  context.Background(),
		state:    models.IdleState(),
		subs:     make(map[int]Subscriber),
		changed:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit starts a search for q. A query that is empty after trimming is
// ignored and Submit returns false. Otherwise the state becomes loading, q
// becomes the current query text, and the search call runs in the
// background; any earlier call still in flight is canceled.
func (c *Controller) Submit(q string) bool {
	trimmed := strings.TrimSpace(q)
	if trimmed == "" {
		return false
	}

	c.pub.Lock()
	defer c.pub.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	seq := c.seq
	ctx, cancel := context.WithCancel(c.baseCtx)
	c.cancel = cancel
	c.query = q
	state, subs := c.setLocked(models.LoadingState(seq))
	c.mu.Unlock()

	c.log.Info("search submitted", zap.Uint64("seq", seq), zap.String("query", trimmed))
	notify(subs, state)

	go c.run(ctx, cancel, seq, trimmed)
	return true
}

// Retry reissues the search for the current query text
func (c *Controller) Retry() bool {
	return c.Submit(c.Query())
}

// SetQuery records typed input without changing state
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	c.query = q
	c.mu.Unlock()
}

// Query returns the current query text
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// State returns the current state
func (c *Controller) State() models.SearchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn for future states and returns a function that
// removes it.
func (c *Controller) Subscribe(fn Subscriber) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Await blocks until no search is in flight, or the controller is closed,
// and returns the state at that point
func (c *Controller) Await(ctx context.Context) (models.SearchState, error) {
	for {
		c.mu.Lock()
		state, changed, closed := c.state, c.changed, c.closed
		c.mu.Unlock()

		if closed || !state.IsBusy() {
			return state, nil
		}

		select {
		case <-ctx.Done():
			return state, ctx.Err()
		case <-changed:
		}
	}
}

// Close cancels the call in flight and releases Await callers. Results
// arriving later are dropped and further submissions are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.subs = make(map[int]Subscriber)
	close(c.changed)
	c.changed = make(chan struct{})
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, seq uint64, query string) {
	defer cancel()

	start := time.Now()
	resp, err := c.provider.Search(ctx, query)
	elapsed := time.Since(start)

	var next models.SearchState
	if err != nil {
		kind, msg := search.Classify(err)
		next = models.ErrorState(seq, kind, msg)
		c.log.Warn("search failed",
			zap.Uint64("seq", seq),
			zap.String("kind", string(next.Kind)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	} else {
		if resp == nil {
			resp = &models.SearchResponse{}
		}
		next = models.SuccessState(seq, resp)
		c.log.Info("search completed",
			zap.Uint64("seq", seq),
			zap.Int("chunk_count", len(resp.Chunks())),
			zap.Duration("elapsed", elapsed),
		)
	}

	outcome := "success"
	if next.Status == models.StatusError {
		outcome = string(next.Kind)
	}
	c.recorder.ObserveSearch(c.provider.Name(), outcome, elapsed.Seconds())

	c.resolve(next)
}

func (c *Controller) resolve(next models.SearchState) {
	c.pub.Lock()
	defer c.pub.Unlock()

	c.mu.Lock()
	if c.closed || next.Seq != c.seq {
		latest := c.seq
		c.mu.Unlock()
		c.recorder.IncrementStaleResults()
		c.log.Debug("discarding stale result",
			zap.Uint64("seq", next.Seq),
			zap.Uint64("latest", latest),
			zap.String("status", string(next.Status)),
		)
		return
	}
	c.cancel = nil
	state, subs := c.setLocked(next)
	c.mu.Unlock()

	notify(subs, state)
}

// setLocked replaces the state, wakes Await callers, and returns the
// subscribers to notify. c.mu must be held.
func (c *Controller) setLocked(next models.SearchState) (models.SearchState, []Subscriber) {
	c.state = next
	close(c.changed)
	c.changed = make(chan struct{})

	subs := make([]Subscriber, 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return next, subs
}

func notify(subs []Subscriber, state models.SearchState) {
	for _, fn := range subs {
		fn(state)
	}
}
