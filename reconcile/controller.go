// Package reconcile keeps the injected transcript controls present on a
// host page that re-renders itself. A Controller watches structural changes
// and soft navigations, re-inserts its controls whenever the host drops
// them, and retries with a linear backoff while the page is still building.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hazyhaar/ytcopy/dom"
	"github.com/hazyhaar/ytcopy/mutation"
)

// ErrInitialization marks a failed initialization attempt.
var ErrInitialization = errors.New("reconcile: initialization failed")

// Phase is the controller lifecycle phase.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseInitializing
	PhaseActive
	PhaseBackoff
	PhaseInert
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInitializing:
		return "initializing"
	case PhaseActive:
		return "active"
	case PhaseBackoff:
		return "backoff"
	case PhaseInert:
		return "inert"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// RetryDelay is the wait before retry n (n >= 1).
func RetryDelay(n int, base, step time.Duration) time.Duration {
	return base + time.Duration(n)*step
}

// State is a point-in-time view of a Controller.
type State struct {
	Phase      string `json:"phase"`
	RetryCount int    `json:"retry_count"`
	Subscribed bool   `json:"subscribed"`
	Injecting  bool   `json:"injecting"`

	Initializations int64 `json:"initializations"`
	Retries         int64 `json:"retries"`
	Navigations     int64 `json:"navigations"`
	Resets          int64 `json:"resets"`
	Batches         int64 `json:"batches"`
	Inserted        int64 `json:"inserted"`
	Dropped         int64 `json:"dropped"`
	Copies          int64 `json:"copies"`
	CopyFailures    int64 `json:"copy_failures"`
}

type counters struct {
	initializations atomic.Int64
	retries         atomic.Int64
	navigations     atomic.Int64
	resets          atomic.Int64
	batches         atomic.Int64
	inserted        atomic.Int64
	dropped         atomic.Int64
	copies          atomic.Int64
	copyFailures    atomic.Int64
}

// Controller reconciles the injected controls against one document.
type Controller struct {
	doc    dom.Document
	opts   Options
	logger *slog.Logger

	turn  turn
	stats counters

	// injecting is read outside the turn by Snapshot.
	injecting atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Fields below are owned by the turn.
	phase         Phase
	retryCount    int
	sub           dom.Subscription
	subGen        uint64
	navGen        uint64
	navTimer      *time.Timer
	awaitingReady bool
	closed        bool
	started       bool
	timers        []*time.Timer
}

// New creates a Controller for doc. opts.Clipboard must be set.
func New(doc dom.Document, opts Options) (*Controller, error) {
	if doc == nil {
		return nil, errors.New("reconcile: nil document")
	}
	if opts.Clipboard == nil {
		return nil, errors.New("reconcile: clipboard writer is required")
	}
	opts.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		doc:    doc,
		opts:   opts,
		logger: opts.Logger,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start schedules the first initialization and begins consuming host
// lifecycle events. A document still loading is initialized on its ready
// event, any other after Timing.ReadyDelay.
func (c *Controller) Start(ctx context.Context) error {
	rs, err := c.doc.ReadyState(ctx)
	if err != nil {
		return fmt.Errorf("reconcile: ready state: %w", err)
	}

	var startErr error
	c.turn.run(func() {
		if c.closed {
			startErr = errors.New("reconcile: controller closed")
			return
		}
		if c.started {
			startErr = errors.New("reconcile: already started")
			return
		}
		c.started = true
		c.cancel()
		c.ctx, c.cancel = context.WithCancel(ctx)

		if rs == dom.StateLoading {
			c.awaitingReady = true
		} else {
			c.after(c.opts.Timing.ReadyDelay, c.initialize)
		}
	})
	if startErr != nil {
		return startErr
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.watchLifecycle()
	}()

	c.logger.Info("reconcile: started", "ready_state", string(rs))
	return nil
}

// Initialize runs one initialization attempt now.
func (c *Controller) Initialize() {
	c.turn.run(func() {
		if c.closed {
			return
		}
		c.initialize()
	})
}

// EnsureControl inserts the control of kind if it is missing. For
// KindCopyTranscript the panel detector picks the container.
func (c *Controller) EnsureControl(kind Kind) error {
	var err error
	c.turn.run(func() {
		if c.closed {
			return
		}
		switch kind {
		case KindShowTranscript:
			err = c.ensureControl(kind, nil)
		case KindCopyTranscript:
			err = c.detectPanel()
		default:
			err = fmt.Errorf("reconcile: unknown control kind %d", kind)
		}
	})
	return err
}

// Close releases the subscription, stops every timer and waits for the
// lifecycle goroutine. Controls already inserted stay in the page.
func (c *Controller) Close() {
	c.turn.run(func() {
		if c.closed {
			return
		}
		c.closed = true
		for _, t := range c.timers {
			t.Stop()
		}
		c.timers = nil
		c.navTimer = nil
		c.releaseWatcher()
		c.phase = PhaseClosed
	})
	c.cancel()
	c.wg.Wait()
	c.logger.Info("reconcile: closed")
}

// Snapshot reports the controller state and counters.
func (c *Controller) Snapshot() State {
	var s State
	c.turn.run(func() {
		s.Phase = c.phase.String()
		s.RetryCount = c.retryCount
		s.Subscribed = c.sub != nil
	})
	s.Injecting = c.injecting.Load()
	s.Initializations = c.stats.initializations.Load()
	s.Retries = c.stats.retries.Load()
	s.Navigations = c.stats.navigations.Load()
	s.Resets = c.stats.resets.Load()
	s.Batches = c.stats.batches.Load()
	s.Inserted = c.stats.inserted.Load()
	s.Dropped = c.stats.dropped.Load()
	s.Copies = c.stats.copies.Load()
	s.CopyFailures = c.stats.copyFailures.Load()
	return s
}

// after runs fn in the turn once d has elapsed, unless the controller is
// closed or the timer stopped by then.
func (c *Controller) after(d time.Duration, fn func()) *time.Timer {
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		c.turn.run(func() {
			c.timers = slices.DeleteFunc(c.timers, func(x *time.Timer) bool { return x == t })
			if c.closed {
				return
			}
			fn()
		})
	})
	c.timers = append(c.timers, t)
	return t
}

// stopTimer cancels a timer armed by after. Must run in the turn.
func (c *Controller) stopTimer(t *time.Timer) {
	if t == nil {
		return
	}
	t.Stop()
	c.timers = slices.DeleteFunc(c.timers, func(x *time.Timer) bool { return x == t })
}

// initialize must run in the turn.
func (c *Controller) initialize() {
	if c.phase == PhaseInitializing {
		c.logger.Debug("reconcile: initialization already running")
		return
	}
	c.phase = PhaseInitializing
	c.stats.initializations.Add(1)

	err := c.setup()
	if err == nil {
		c.phase = PhaseActive
		c.logger.Debug("reconcile: active", "retry_count", c.retryCount)
		return
	}
	err = fmt.Errorf("%w: %w", ErrInitialization, err)

	if c.retryCount < c.opts.Timing.MaxRetries {
		c.retryCount++
		delay := RetryDelay(c.retryCount, c.opts.Timing.RetryBase, c.opts.Timing.RetryStep)
		c.phase = PhaseBackoff
		c.stats.retries.Add(1)
		c.logger.Warn("reconcile: initialization failed, retrying",
			"retry", c.retryCount, "delay", delay, "error", err)
		c.after(delay, c.initialize)
		return
	}

	c.phase = PhaseInert
	c.logger.Error("reconcile: giving up", "retries", c.retryCount, "error", err)
}

func (c *Controller) setup() error {
	c.releaseWatcher()
	if err := c.ensureControl(KindShowTranscript, nil); err != nil {
		return err
	}
	return c.subscribe()
}

func (c *Controller) watchLifecycle() {
	events := c.doc.Lifecycle()
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.turn.run(func() {
				if c.closed {
					return
				}
				c.onLifecycle(ev)
			})
		}
	}
}

func (c *Controller) onLifecycle(ev dom.Event) {
	switch ev.Type {
	case dom.EventReady:
		switch {
		case c.awaitingReady:
			c.awaitingReady = false
			c.initialize()
		case c.phase != PhaseIdle:
			// A full reload: start over as on a fresh page.
			c.retryCount = 0
			c.initialize()
		}
	case dom.EventNavigate:
		if slices.Contains(c.opts.Selectors.NavigationEvents, ev.Name) {
			c.onNavigate(ev.Name)
		}
	case dom.EventUnload:
		c.releaseWatcher()
	}
}

// onNavigate cancels the pending navigation timer and arms a new one, so
// only the last event of a burst acts. The generation check covers a
// callback already queued on the turn when its timer was stopped.
func (c *Controller) onNavigate(name string) {
	c.stats.navigations.Add(1)
	c.navGen++
	gen := c.navGen
	c.logger.Debug("reconcile: navigation", "event", name)
	c.stopTimer(c.navTimer)
	c.navTimer = c.after(c.opts.Timing.NavigationDebounce, func() {
		if gen != c.navGen {
			return
		}
		c.navTimer = nil
		c.retryCount = 0
		c.stats.resets.Add(1)
		c.initialize()
	})
}
