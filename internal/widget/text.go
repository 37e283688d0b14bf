package widget

import (
	"net/url"
	"sync"

	"github.com/rivo/uniseg"

	"github.com/dshills/revert/internal/commit"
	"github.com/dshills/revert/internal/config"
	"github.com/dshills/revert/internal/history"
	"github.com/dshills/revert/internal/snapshot"
)

// TextEditor is the live-preview markdown editor model.
type TextEditor struct {
	mu       sync.Mutex
	content  string
	caret    int
	fontSize int

	pipeline *commit.Pipeline[snapshot.Text]
}

// NewTextEditor creates an editor holding initial, with the caret at the end.
func NewTextEditor(initial string, opts ...Option) (*TextEditor, error) {
	o := buildOptions(opts)

	e := &TextEditor{
		content:  initial,
		caret:    len(initial),
		fontSize: clampFontSize(o.fontSize),
	}

	p, err := newPipeline("text", o, snapshot.TextEqual, snapshot.TextClone, e.capture, e.apply)
	if err != nil {
		return nil, err
	}
	e.pipeline = p
	return e, nil
}

// DecodeContent decodes a percent-encoded content attribute, returning raw
// unchanged when it is not valid percent-encoding.
func DecodeContent(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Value returns the current text.
func (e *TextEditor) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.content
}

// Snapshot returns the text and caret read together.
func (e *TextEditor) Snapshot() snapshot.Text {
	return e.capture()
}

// Caret returns the caret byte offset.
func (e *TextEditor) Caret() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.caret
}

// SetValue replaces the whole text and commits immediately.
func (e *TextEditor) SetValue(v string) {
	e.mu.Lock()
	e.content = v
	e.caret = len(v)
	e.mu.Unlock()

	e.pipeline.Commit("Set value")
}

// SetContentAttribute sets the text from a percent-encoded attribute value.
func (e *TextEditor) SetContentAttribute(raw string) {
	e.SetValue(DecodeContent(raw))
}

// Input reports the full text after a user edit, such as a textarea input
// event. The commit is debounced.
func (e *TextEditor) Input(v string, caret int) {
	e.mu.Lock()
	e.content = v
	e.caret = clampCaret(caret, len(v))
	e.mu.Unlock()

	e.pipeline.Schedule("Type")
}

// Type inserts text at the caret as typed input. The commit is debounced.
func (e *TextEditor) Type(text string) {
	if text == "" {
		return
	}
	e.insert(text)
	e.pipeline.Schedule("Type")
}

// InsertText inserts text at the caret, as a paste, and commits immediately.
func (e *TextEditor) InsertText(text string) {
	if text == "" {
		return
	}
	e.insert(text)
	e.pipeline.Commit("Paste")
}

// Backspace deletes the grapheme cluster before the caret. It reports false
// when the caret is at the start.
func (e *TextEditor) Backspace() bool {
	e.mu.Lock()
	if e.caret == 0 {
		e.mu.Unlock()
		return false
	}
	start := prevBoundary(e.content, e.caret)
	e.content = e.content[:start] + e.content[e.caret:]
	e.caret = start
	e.mu.Unlock()

	e.pipeline.Schedule("Delete")
	return true
}

// MoveLeft moves the caret one grapheme cluster left.
func (e *TextEditor) MoveLeft() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.caret = prevBoundary(e.content, e.caret)
}

// MoveRight moves the caret one grapheme cluster right.
func (e *TextEditor) MoveRight() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.caret = nextBoundary(e.content, e.caret)
}

// SetCaret moves the caret, clamped to the text.
func (e *TextEditor) SetCaret(pos int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.caret = clampCaret(pos, len(e.content))
}

// AdjustFontSize changes the font size by step, clamped to 12..24, and
// returns the new size. Font size is presentation state and is not recorded
// in history.
func (e *TextEditor) AdjustFontSize(step int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fontSize = clampFontSize(e.fontSize + step)
	return e.fontSize
}

// FontSize returns the editor font size.
func (e *TextEditor) FontSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fontSize
}

// Commit flushes pending input into history.
func (e *TextEditor) Commit() {
	e.pipeline.Flush()
}

// Undo restores the previous text.
func (e *TextEditor) Undo() bool {
	return e.pipeline.Undo()
}

// Redo restores the next undone text.
func (e *TextEditor) Redo() bool {
	return e.pipeline.Redo()
}

// CanUndo reports whether Undo would change the text.
func (e *TextEditor) CanUndo() bool {
	return e.pipeline.CanUndo()
}

// CanRedo reports whether Redo would change the text.
func (e *TextEditor) CanRedo() bool {
	return e.pipeline.CanRedo()
}

// Checkpoint marks the current text.
func (e *TextEditor) Checkpoint() history.Checkpoint {
	return e.pipeline.Checkpoint()
}

// UndoTo restores the checkpointed text.
func (e *TextEditor) UndoTo(cp history.Checkpoint) bool {
	return e.pipeline.UndoTo(cp)
}

// Pipeline returns the commit pipeline.
func (e *TextEditor) Pipeline() *commit.Pipeline[snapshot.Text] {
	return e.pipeline
}

// Close stops pending commits.
func (e *TextEditor) Close() {
	e.pipeline.Close()
}

func (e *TextEditor) insert(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.content = e.content[:e.caret] + text + e.content[e.caret:]
	e.caret += len(text)
}

func (e *TextEditor) capture() snapshot.Text {
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot.Text{Content: e.content, Caret: e.caret}
}

func (e *TextEditor) apply(s snapshot.Text) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.content = s.Content
	e.caret = clampCaret(s.Caret, len(s.Content))
}

func clampCaret(pos, n int) int {
	return min(max(pos, 0), n)
}

func clampFontSize(size int) int {
	return min(max(size, config.MinFontSize), config.MaxFontSize)
}

// prevBoundary returns the start of the grapheme cluster ending at pos.
func prevBoundary(s string, pos int) int {
	rest := s[:pos]
	state := -1
	offset, last := 0, 0
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		last = offset
		offset += len(cluster)
	}
	return last
}

// nextBoundary returns the end of the grapheme cluster starting at pos.
func nextBoundary(s string, pos int) int {
	if pos >= len(s) {
		return len(s)
	}
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(s[pos:], -1)
	return pos + len(cluster)
}
