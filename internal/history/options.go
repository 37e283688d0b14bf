package history

import "time"

// DefaultMaxSteps is the bound used by widgets unless configured otherwise.
const DefaultMaxSteps = 100

// Option configures a History during creation.
type Option[S any] func(*History[S])

// WithEqual sets the equality strategy used for duplicate suppression.
func WithEqual[S any](equal func(a, b S) bool) Option[S] {
	return func(h *History[S]) {
		h.equal = equal
	}
}

// WithClone sets the strategy used to copy snapshots on the way in and out,
// so callers never alias stored state.
func WithClone[S any](clone func(S) S) Option[S] {
	return func(h *History[S]) {
		h.clone = clone
	}
}

// WithoutRedo disables the redo extension. Undone entries are still kept
// until the next push, but Redo always reports false.
func WithoutRedo[S any]() Option[S] {
	return func(h *History[S]) {
		h.redo = false
	}
}

// WithClock overrides the time source used for entry timestamps.
func WithClock[S any](now func() time.Time) Option[S] {
	return func(h *History[S]) {
		if now != nil {
			h.now = now
		}
	}
}

// WithObserver registers a change observer at creation.
func WithObserver[S any](fn Observer) Option[S] {
	return func(h *History[S]) {
		if fn != nil {
			h.observers = append(h.observers, fn)
		}
	}
}
