package history

import (
	"fmt"
	"sync"
	"time"
)

// ChangeKind identifies what mutated the history.
type ChangeKind int

const (
	// ChangePush indicates a snapshot was appended.
	ChangePush ChangeKind = iota
	// ChangeUndo indicates the cursor moved back.
	ChangeUndo
	// ChangeRedo indicates the cursor moved forward.
	ChangeRedo
	// ChangeResize indicates the bound changed.
	ChangeResize
	// ChangeClear indicates all entries were dropped.
	ChangeClear
)

// String returns the change kind name.
func (k ChangeKind) String() string {
	switch k {
	case ChangePush:
		return "push"
	case ChangeUndo:
		return "undo"
	case ChangeRedo:
		return "redo"
	case ChangeResize:
		return "resize"
	case ChangeClear:
		return "clear"
	default:
		return "unknown"
	}
}

// Change describes the history state after a mutation.
type Change struct {
	Kind    ChangeKind
	Label   string
	Len     int
	Cursor  int
	CanUndo bool
	CanRedo bool

	// Evicted is the number of oldest entries dropped by this change.
	Evicted int
	// Discarded is the number of redo entries dropped by this change.
	Discarded int
}

// Observer is called after every mutation, outside the history lock.
type Observer func(Change)

// EntryInfo describes a retained snapshot without exposing it.
type EntryInfo struct {
	Label     string
	Timestamp time.Time
	Current   bool
}

// entry wraps a snapshot with metadata.
type entry[S any] struct {
	snapshot  S
	label     string
	timestamp time.Time
	seq       uint64
}

// History is a bounded linear sequence of snapshots with a cursor.
type History[S any] struct {
	mu sync.Mutex

	entries []entry[S]
	cursor  int // -1 while empty
	nextSeq uint64

	// Configuration
	maxSteps int
	equal    func(a, b S) bool
	clone    func(S) S
	redo     bool
	now      func() time.Time

	observers []Observer
}

// New creates an empty history retaining at most maxSteps snapshots.
func New[S any](maxSteps int, opts ...Option[S]) (*History[S], error) {
	if maxSteps <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxSteps, maxSteps)
	}

	h := &History[S]{
		cursor:   -1,
		maxSteps: maxSteps,
		redo:     true,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// NewComparable creates a history whose duplicate suppression uses ==.
func NewComparable[S comparable](maxSteps int, opts ...Option[S]) (*History[S], error) {
	eq := WithEqual(func(a, b S) bool { return a == b })
	return New(maxSteps, append([]Option[S]{eq}, opts...)...)
}

// Push records snapshot as the new current entry.
func (h *History[S]) Push(snapshot S) {
	h.PushLabeled("", snapshot)
}

// PushLabeled records snapshot with a description for history listings.
// A snapshot equal to the current entry is ignored. Any redo branch is
// discarded and the oldest entry is evicted when the bound is exceeded.
func (h *History[S]) PushLabeled(label string, snapshot S) {
	h.mu.Lock()

	if h.isCurrentLocked(snapshot) {
		h.mu.Unlock()
		return
	}

	discarded := len(h.entries) - (h.cursor + 1)
	h.entries = h.entries[:h.cursor+1]

	h.nextSeq++
	h.entries = append(h.entries, entry[S]{
		snapshot:  h.copyOf(snapshot),
		label:     label,
		timestamp: h.now(),
		seq:       h.nextSeq,
	})
	h.cursor = len(h.entries) - 1

	evicted := h.evictLocked(h.maxSteps)

	change := h.changeLocked(ChangePush, label)
	change.Evicted = evicted
	change.Discarded = discarded
	h.mu.Unlock()

	h.notify(change)
}

// Undo moves the cursor back one entry and returns the snapshot now current.
// It reports false and leaves the history untouched when CanUndo is false.
func (h *History[S]) Undo() (S, bool) {
	h.mu.Lock()

	if !h.canUndoLocked() {
		h.mu.Unlock()
		var zero S
		return zero, false
	}

	label := h.entries[h.cursor].label
	h.cursor--
	snapshot := h.copyOf(h.entries[h.cursor].snapshot)
	change := h.changeLocked(ChangeUndo, label)
	h.mu.Unlock()

	h.notify(change)
	return snapshot, true
}

// Redo moves the cursor forward over an undone entry and returns it.
// It reports false when nothing was undone since the last push.
func (h *History[S]) Redo() (S, bool) {
	h.mu.Lock()

	if !h.canRedoLocked() {
		h.mu.Unlock()
		var zero S
		return zero, false
	}

	h.cursor++
	e := h.entries[h.cursor]
	snapshot := h.copyOf(e.snapshot)
	change := h.changeLocked(ChangeRedo, e.label)
	h.mu.Unlock()

	h.notify(change)
	return snapshot, true
}

// CanUndo returns true if an earlier snapshot is available.
func (h *History[S]) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.canUndoLocked()
}

// CanRedo returns true if an undone snapshot can be restored.
func (h *History[S]) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.canRedoLocked()
}

// Current returns the snapshot at the cursor.
func (h *History[S]) Current() (S, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor < 0 {
		var zero S
		return zero, false
	}
	return h.copyOf(h.entries[h.cursor].snapshot), true
}

// IsCurrent reports whether s equals the snapshot at the cursor, in which
// case pushing it would be a no-op. Without an equality function it is
// always false.
func (h *History[S]) IsCurrent(s S) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.isCurrentLocked(s)
}

func (h *History[S]) isCurrentLocked(s S) bool {
	return h.cursor >= 0 && h.equal != nil && h.equal(h.entries[h.cursor].snapshot, s)
}

// Len returns the number of retained snapshots, including undone ones.
func (h *History[S]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Cursor returns the index of the current snapshot, or -1 when empty.
func (h *History[S]) Cursor() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor
}

// MaxSteps returns the retention bound.
func (h *History[S]) MaxSteps() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxSteps
}

// SetMaxSteps changes the retention bound. When shrinking, undone entries
// are dropped first and then the oldest ones; the current snapshot is
// always kept.
func (h *History[S]) SetMaxSteps(maxSteps int) error {
	if maxSteps <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxSteps, maxSteps)
	}

	h.mu.Lock()
	h.maxSteps = maxSteps

	discarded := 0
	if excess := len(h.entries) - maxSteps; excess > 0 {
		ahead := len(h.entries) - (h.cursor + 1)
		discarded = min(excess, ahead)
		h.entries = h.entries[:len(h.entries)-discarded]
	}
	evicted := h.evictLocked(maxSteps)

	change := h.changeLocked(ChangeResize, "")
	change.Evicted = evicted
	change.Discarded = discarded
	h.mu.Unlock()

	h.notify(change)
	return nil
}

// Clear removes all snapshots.
func (h *History[S]) Clear() {
	h.mu.Lock()
	h.entries = nil
	h.cursor = -1
	change := h.changeLocked(ChangeClear, "")
	h.mu.Unlock()

	h.notify(change)
}

// Entries returns metadata for every retained snapshot, oldest first.
func (h *History[S]) Entries() []EntryInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	result := make([]EntryInfo, len(h.entries))
	for i, e := range h.entries {
		result[i] = EntryInfo{
			Label:     e.label,
			Timestamp: e.timestamp,
			Current:   i == h.cursor,
		}
	}
	return result
}

// Observe registers fn to be called after every mutation.
func (h *History[S]) Observe(fn Observer) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observers = append(h.observers, fn)
}

func (h *History[S]) canUndoLocked() bool {
	return h.cursor >= 1
}

func (h *History[S]) canRedoLocked() bool {
	return h.redo && h.cursor+1 < len(h.entries)
}

// evictLocked drops the oldest entries beyond bound and shifts the cursor.
func (h *History[S]) evictLocked(bound int) int {
	excess := len(h.entries) - bound
	if excess <= 0 {
		return 0
	}

	// Zero evicted slots so the backing array releases their snapshots.
	var zero entry[S]
	for i := 0; i < excess; i++ {
		h.entries[i] = zero
	}
	h.entries = h.entries[excess:]
	h.cursor = max(h.cursor-excess, 0)
	return excess
}

func (h *History[S]) changeLocked(kind ChangeKind, label string) Change {
	return Change{
		Kind:    kind,
		Label:   label,
		Len:     len(h.entries),
		Cursor:  h.cursor,
		CanUndo: h.canUndoLocked(),
		CanRedo: h.canRedoLocked(),
	}
}

func (h *History[S]) copyOf(s S) S {
	if h.clone == nil {
		return s
	}
	return h.clone(s)
}

func (h *History[S]) notify(change Change) {
	h.mu.Lock()
	observers := h.observers
	h.mu.Unlock()

	for _, fn := range observers {
		fn(change)
	}
}
