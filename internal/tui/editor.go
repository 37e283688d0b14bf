package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/revert/internal/event"
	"github.com/dshills/revert/internal/logging"
	"github.com/dshills/revert/internal/widget"
)

var statusStyle = tcell.StyleDefault.Reverse(true)

// Editor drives a TextEditor from a tcell screen.
type Editor struct {
	screen tcell.Screen
	doc    *widget.TextEditor
	bus    *event.Bus
	logger *logging.Logger

	mu     sync.Mutex
	status string
	top    int // first visible line

	// paste collects a bracketed paste; nil outside one. Only the event
	// loop touches it.
	paste *strings.Builder
}

// Option configures an Editor.
type Option func(*Editor)

// WithBus shows config reloads and history evictions in the status line.
func WithBus(bus *event.Bus) Option {
	return func(e *Editor) {
		e.bus = bus
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an editor for doc on screen. The screen is initialized by
// Run.
func New(screen tcell.Screen, doc *widget.TextEditor, opts ...Option) *Editor {
	e := &Editor{
		screen: screen,
		doc:    doc,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.WithComponent("tui")
	return e
}

// NewTerminal creates an editor on the process terminal.
func NewTerminal(doc *widget.TextEditor, opts ...Option) (*Editor, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}
	return New(screen, doc, opts...), nil
}

// Run initializes the screen and processes events until the user quits or
// ctx is cancelled. The screen is restored before Run returns.
func (e *Editor) Run(ctx context.Context) error {
	if err := e.screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer e.screen.Fini()
	e.screen.EnablePaste()

	if e.bus != nil {
		subs := e.subscribe()
		defer func() {
			for _, s := range subs {
				_ = e.bus.Unsubscribe(s)
			}
		}()
	}

	stop := context.AfterFunc(ctx, e.wake)
	defer stop()

	e.logger.Debug("editor started")
	for {
		e.Draw()
		ev := e.screen.PollEvent()
		if ev == nil || ctx.Err() != nil {
			return nil
		}
		if e.HandleEvent(ev) {
			e.doc.Commit()
			e.logger.Debug("editor quit")
			return nil
		}
	}
}

// HandleEvent applies one terminal event and reports whether the editor
// should quit. It must be called from a single goroutine.
func (e *Editor) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		e.screen.Sync()
	case *tcell.EventPaste:
		if ev.Start() {
			e.paste = &strings.Builder{}
		} else if e.paste != nil {
			e.doc.InsertText(e.paste.String())
			e.paste = nil
		}
	case *tcell.EventKey:
		return e.handleKey(ev)
	}
	return false
}

func (e *Editor) handleKey(ev *tcell.EventKey) bool {
	if e.paste != nil {
		switch ev.Key() {
		case tcell.KeyRune:
			e.paste.WriteRune(ev.Rune())
		case tcell.KeyEnter:
			e.paste.WriteByte('\n')
		case tcell.KeyTab:
			e.paste.WriteByte('\t')
		}
		return false
	}

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlQ:
		return true
	case tcell.KeyCtrlZ:
		if e.doc.Undo() {
			e.setStatus("Undo")
		} else {
			e.setStatus("Nothing to undo")
		}
	case tcell.KeyCtrlY:
		if e.doc.Redo() {
			e.setStatus("Redo")
		} else {
			e.setStatus("Nothing to redo")
		}
	case tcell.KeyCtrlS:
		e.doc.Commit()
		e.setStatus("Committed")
	case tcell.KeyEnter:
		e.doc.Type("\n")
	case tcell.KeyTab:
		e.doc.Type("\t")
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		e.doc.Backspace()
	case tcell.KeyLeft:
		e.doc.MoveLeft()
	case tcell.KeyRight:
		e.doc.MoveRight()
	case tcell.KeyRune:
		e.doc.Type(string(ev.Rune()))
		e.setStatus("")
	}
	return false
}

// Draw renders the text and the status line.
func (e *Editor) Draw() {
	snap := e.doc.Snapshot()
	width, height := e.screen.Size()

	e.screen.Clear()
	if height == 0 {
		e.screen.Show()
		return
	}

	lines := strings.Split(snap.Content, "\n")
	row, col := caretPosition(snap.Content, snap.Caret)
	rows := height - 1

	e.mu.Lock()
	if row < e.top {
		e.top = row
	}
	if rows > 0 && row >= e.top+rows {
		e.top = row - rows + 1
	}
	top, status := e.top, e.status
	e.mu.Unlock()

	for y := 0; y < rows && top+y < len(lines); y++ {
		drawString(e.screen, 0, y, width, lines[top+y], tcell.StyleDefault)
	}

	for x := range width {
		e.screen.SetContent(x, height-1, ' ', nil, statusStyle)
	}
	drawString(e.screen, 0, height-1, width, e.statusLine(status), statusStyle)

	if rows > 0 && col < width {
		e.screen.ShowCursor(col, row-top)
	} else {
		e.screen.HideCursor()
	}
	e.screen.Show()
}

// Status returns the current status message.
func (e *Editor) Status() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Editor) statusLine(msg string) string {
	h := e.doc.Pipeline().History()
	line := fmt.Sprintf(" %d/%d  undo:%s  redo:%s",
		h.Cursor()+1, h.Len(), onOff(e.doc.CanUndo()), onOff(e.doc.CanRedo()))
	if msg != "" {
		line += "  " + msg
	}
	return line
}

func (e *Editor) setStatus(msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = msg
}

// wake interrupts PollEvent so the loop redraws or notices cancellation.
func (e *Editor) wake() {
	_ = e.screen.PostEvent(tcell.NewEventInterrupt(nil)) // best-effort; queue may be full
}

func (e *Editor) subscribe() []*event.Subscription {
	var subs []*event.Subscription

	add := func(topic event.Topic, fn event.HandlerFunc) {
		s, err := e.bus.Subscribe(topic, fn)
		if err != nil {
			e.logger.Warn("subscribe %s: %v", topic, err)
			return
		}
		subs = append(subs, s)
	}

	add(event.TopicConfigReloaded, func(_ context.Context, ev event.Event) error {
		if p, ok := ev.Payload.(event.ConfigReloaded); ok {
			e.setStatus(fmt.Sprintf("Config reloaded: %d steps", p.MaxSteps))
			e.wake()
		}
		return nil
	})
	add(event.TopicHistoryEvicted, func(_ context.Context, ev event.Event) error {
		if p, ok := ev.Payload.(event.HistoryChanged); ok && p.Widget == "text" {
			e.setStatus("Oldest step dropped")
		}
		return nil
	})

	return subs
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// caretPosition returns the line and display column of the caret.
func caretPosition(text string, caret int) (row, col int) {
	before := text[:caret]
	row = strings.Count(before, "\n")
	start := strings.LastIndexByte(before, '\n') + 1
	return row, displayWidth(before[start:])
}

// displayWidth returns the number of cells s occupies. Tabs take one cell.
func displayWidth(s string) int {
	total := 0
	state := -1
	for len(s) > 0 {
		var cluster string
		var w int
		cluster, s, w, state = uniseg.FirstGraphemeClusterInString(s, state)
		total += cellWidth(cluster, w)
	}
	return total
}

// drawString draws s from (x, y), clipped at maxX, and returns the next x.
func drawString(screen tcell.Screen, x, y, maxX int, s string, style tcell.Style) int {
	state := -1
	for len(s) > 0 && x < maxX {
		var cluster string
		var w int
		cluster, s, w, state = uniseg.FirstGraphemeClusterInString(s, state)
		w = cellWidth(cluster, w)
		if w == 0 {
			continue
		}
		runes := []rune(cluster)
		if cluster == "\t" {
			runes = []rune{' '}
		}
		screen.SetContent(x, y, runes[0], runes[1:], style)
		x += w
	}
	return x
}

func cellWidth(cluster string, w int) int {
	if cluster == "\t" {
		return 1
	}
	return w
}
