package app

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dshills/revert/internal/event"
)

// HistoryCounts counts history changes for one widget.
type HistoryCounts struct {
	Pushes    uint64
	Undos     uint64
	Redos     uint64
	Evictions uint64
	Resizes   uint64
	Clears    uint64
}

func (c *HistoryCounts) add(o HistoryCounts) {
	c.Pushes += o.Pushes
	c.Undos += o.Undos
	c.Redos += o.Redos
	c.Evictions += o.Evictions
	c.Resizes += o.Resizes
	c.Clears += o.Clears
}

// Metrics tracks history activity across widgets. It is fed from
// history.* events on the bus.
type Metrics struct {
	mu        sync.Mutex
	widgets   map[string]*HistoryCounts
	last      time.Time
	startTime time.Time
	now       func() time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return newMetrics(time.Now)
}

func newMetrics(now func() time.Time) *Metrics {
	return &Metrics{
		widgets:   make(map[string]*HistoryCounts),
		startTime: now(),
		now:       now,
	}
}

// Subscribe records every history event published on bus.
func (m *Metrics) Subscribe(bus *event.Bus) (*event.Subscription, error) {
	return bus.Subscribe("history.*", m.handle)
}

func (m *Metrics) handle(_ context.Context, ev event.Event) error {
	p, ok := ev.Payload.(event.HistoryChanged)
	if !ok {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.widgets[p.Widget]
	if c == nil {
		c = &HistoryCounts{}
		m.widgets[p.Widget] = c
	}
	switch ev.Topic {
	case event.TopicHistoryPushed:
		c.Pushes++
	case event.TopicHistoryUndone:
		c.Undos++
	case event.TopicHistoryRedone:
		c.Redos++
	case event.TopicHistoryEvicted:
		c.Evictions += uint64(p.Evicted)
	case event.TopicHistoryResized:
		c.Resizes++
	case event.TopicHistoryCleared:
		c.Clears++
	}
	m.last = m.now()
	return nil
}

// MetricsSnapshot is a point-in-time copy of the metrics.
type MetricsSnapshot struct {
	Uptime     time.Duration
	LastChange time.Time
	Widgets    map[string]HistoryCounts
	Total      HistoryCounts
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := MetricsSnapshot{
		Uptime:     m.now().Sub(m.startTime),
		LastChange: m.last,
		Widgets:    make(map[string]HistoryCounts, len(m.widgets)),
	}
	for name, c := range m.widgets {
		s.Widgets[name] = *c
		s.Total.add(*c)
	}
	return s
}

// String formats the snapshot as one line per widget, sorted by name.
func (s MetricsSnapshot) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "uptime=%s pushes=%d undos=%d redos=%d evictions=%d",
		s.Uptime.Round(time.Millisecond), s.Total.Pushes, s.Total.Undos, s.Total.Redos, s.Total.Evictions)
	for _, name := range slices.Sorted(maps.Keys(s.Widgets)) {
		c := s.Widgets[name]
		fmt.Fprintf(&b, "\n  %s: pushes=%d undos=%d redos=%d evictions=%d",
			name, c.Pushes, c.Undos, c.Redos, c.Evictions)
	}
	return b.String()
}
