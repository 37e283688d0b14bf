package commit

import (
	"context"
	"sync"
	"time"

	"github.com/dshills/revert/internal/event"
	"github.com/dshills/revert/internal/history"
	"github.com/dshills/revert/internal/logging"
)

// DefaultDebounce is the delay between the last input and its commit.
const DefaultDebounce = 300 * time.Millisecond

// Pipeline serializes captures, pushes and restores for one widget.
type Pipeline[S any] struct {
	mu sync.Mutex

	name    string
	history *history.History[S]
	capture func() S
	apply   func(S)

	debounce time.Duration
	timer    *time.Timer
	pending  string // label of the scheduled commit

	bus    *event.Bus
	logger *logging.Logger

	// History changes are queued while mu is held and published after it
	// is released, so event handlers may call back into the pipeline.
	qmu      sync.Mutex
	queued   []history.Change
	draining bool

	closed bool
}

// Option configures a Pipeline.
type Option func(*options)

type options struct {
	debounce time.Duration
	bus      *event.Bus
	logger   *logging.Logger
}

// WithDebounce sets the delay used by Schedule. Zero commits immediately.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.debounce = d
		}
	}
}

// WithBus publishes history.* events for every history change.
func WithBus(bus *event.Bus) Option {
	return func(o *options) {
		o.bus = bus
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates a pipeline named name (used in events and logs) around h.
// capture reads the live document; apply writes a restored snapshot back.
// The current document is pushed immediately so that history always holds
// the present state.
func New[S any](name string, h *history.History[S], capture func() S, apply func(S), opts ...Option) *Pipeline[S] {
	o := options{debounce: DefaultDebounce, logger: logging.Discard()}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pipeline[S]{
		name:     name,
		history:  h,
		capture:  capture,
		apply:    apply,
		debounce: o.debounce,
		bus:      o.bus,
		logger:   o.logger.WithComponent("commit").WithField("widget", name),
	}

	h.Observe(p.enqueue)
	p.Commit("Initial")
	return p
}

// Schedule arms (or re-arms) the debounce timer. When it fires without
// further input, the document is committed with the given label.
func (p *Pipeline[S]) Schedule(label string) {
	defer p.drain()
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	if p.debounce == 0 {
		p.commitLocked(label)
		return
	}

	p.stopTimerLocked()
	p.pending = label
	var t *time.Timer
	t = time.AfterFunc(p.debounce, func() {
		defer p.drain()
		p.mu.Lock()
		defer p.mu.Unlock()
		// A newer Schedule or an explicit Commit supersedes this timer.
		if p.closed || p.timer != t {
			return
		}
		p.timer = nil
		p.commitLocked(p.pending)
	})
	p.timer = t
}

// Commit captures and pushes the document now, cancelling any pending
// debounced commit.
func (p *Pipeline[S]) Commit(label string) {
	defer p.drain()
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.stopTimerLocked()
	p.commitLocked(label)
}

// Flush commits pending input, if any.
func (p *Pipeline[S]) Flush() {
	defer p.drain()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushLocked()
}

// Pending reports whether a debounced commit is waiting.
func (p *Pipeline[S]) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timer != nil
}

// Undo restores the previous snapshot. It reports false when there is
// nothing to undo.
func (p *Pipeline[S]) Undo() bool {
	defer p.drain()
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	p.flushLocked()

	s, ok := p.history.Undo()
	if !ok {
		p.logger.Debug("undo ignored: no earlier state")
		return false
	}
	p.apply(s)
	return true
}

// Redo restores the next undone snapshot. It reports false when there is
// nothing to redo.
func (p *Pipeline[S]) Redo() bool {
	defer p.drain()
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	p.flushLocked()

	s, ok := p.history.Redo()
	if !ok {
		return false
	}
	p.apply(s)
	return true
}

// UndoTo restores the checkpointed snapshot.
func (p *Pipeline[S]) UndoTo(cp history.Checkpoint) bool {
	defer p.drain()
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	p.flushLocked()

	s, ok := p.history.UndoTo(cp)
	if !ok {
		return false
	}
	p.apply(s)
	return true
}

// Checkpoint flushes pending input and marks the current snapshot.
func (p *Pipeline[S]) Checkpoint() history.Checkpoint {
	defer p.drain()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushLocked()
	return p.history.Checkpoint()
}

// CanUndo reports whether Undo would restore anything. Pending input
// counts only when it differs from the current snapshot.
func (p *Pipeline[S]) CanUndo() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.history.CanUndo() || p.pendingChangeLocked()
}

// CanRedo reports whether Redo would restore anything. Pending input that
// changes the document discards the redo branch when it is flushed.
func (p *Pipeline[S]) CanRedo() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.pendingChangeLocked() && p.history.CanRedo()
}

// History returns the underlying history.
func (p *Pipeline[S]) History() *history.History[S] {
	return p.history
}

// Close stops the debounce timer. Pending input is discarded.
func (p *Pipeline[S]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopTimerLocked()
	p.closed = true
}

func (p *Pipeline[S]) flushLocked() {
	if p.closed || p.timer == nil {
		return
	}
	p.stopTimerLocked()
	p.commitLocked(p.pending)
}

// pendingChangeLocked reports whether flushing now would push a snapshot.
func (p *Pipeline[S]) pendingChangeLocked() bool {
	return p.timer != nil && !p.history.IsCurrent(p.capture())
}

func (p *Pipeline[S]) commitLocked(label string) {
	p.history.PushLabeled(label, p.capture())
}

func (p *Pipeline[S]) stopTimerLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// SetMaxSteps changes the history bound.
func (p *Pipeline[S]) SetMaxSteps(n int) error {
	defer p.drain()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.history.SetMaxSteps(n)
}

func (p *Pipeline[S]) enqueue(c history.Change) {
	p.qmu.Lock()
	defer p.qmu.Unlock()
	p.queued = append(p.queued, c)
}

// drain publishes queued changes in order. Only one goroutine publishes at
// a time; a drain that finds another in progress leaves its changes to it.
// Handlers that call back into the pipeline have their changes published
// after they return.
func (p *Pipeline[S]) drain() {
	p.qmu.Lock()
	if p.draining {
		p.qmu.Unlock()
		return
	}
	p.draining = true
	for len(p.queued) > 0 {
		queued := p.queued
		p.queued = nil
		p.qmu.Unlock()

		for _, c := range queued {
			p.publish(c)
		}
		p.qmu.Lock()
	}
	p.draining = false
	p.qmu.Unlock()
}

// publish forwards history changes to the log and the event bus.
func (p *Pipeline[S]) publish(c history.Change) {
	p.logger.Debug("%s %q len=%d cursor=%d", c.Kind, c.Label, c.Len, c.Cursor)
	if c.Evicted > 0 {
		p.logger.Debug("evicted %d oldest snapshot(s)", c.Evicted)
	}

	if p.bus == nil {
		return
	}

	payload := event.HistoryChanged{
		Widget:  p.name,
		Label:   c.Label,
		Len:     c.Len,
		Cursor:  c.Cursor,
		CanUndo: c.CanUndo,
		CanRedo: c.CanRedo,
		Evicted: c.Evicted,
	}

	ctx := context.Background()
	if err := p.bus.Publish(ctx, topicFor(c.Kind), payload); err != nil {
		p.logger.Warn("publishing %s: %v", c.Kind, err)
	}
	if c.Evicted > 0 {
		if err := p.bus.Publish(ctx, event.TopicHistoryEvicted, payload); err != nil {
			p.logger.Warn("publishing eviction: %v", err)
		}
	}
}

func topicFor(kind history.ChangeKind) event.Topic {
	switch kind {
	case history.ChangeUndo:
		return event.TopicHistoryUndone
	case history.ChangeRedo:
		return event.TopicHistoryRedone
	case history.ChangeResize:
		return event.TopicHistoryResized
	case history.ChangeClear:
		return event.TopicHistoryCleared
	default:
		return event.TopicHistoryPushed
	}
}
