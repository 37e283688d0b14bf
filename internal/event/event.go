package event

import (
	"context"
	"time"
)

// Event is a published message.
type Event struct {
	// Topic is the event name, e.g. "history.pushed".
	Topic Topic

	// Payload contains the event-specific data.
	Payload any

	// Source identifies the component that published the event.
	Source string

	// Timestamp is when the event was created.
	Timestamp time.Time
}

// HandlerFunc handles a delivered event.
type HandlerFunc func(ctx context.Context, ev Event) error

// HistoryChanged is the payload of history.* events.
type HistoryChanged struct {
	// Widget names the history owner ("text", "scene", "canvas").
	Widget  string
	Label   string
	Len     int
	Cursor  int
	CanUndo bool
	CanRedo bool
	Evicted int
}

// ConfigReloaded is the payload of config.reloaded events.
type ConfigReloaded struct {
	Path     string
	MaxSteps int
}
