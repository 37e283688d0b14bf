package widget

import (
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/revert/internal/commit"
	"github.com/dshills/revert/internal/config"
	"github.com/dshills/revert/internal/snapshot"
)

// Tool is a drawing tool.
type Tool string

// Drawing tools.
const (
	ToolFreehand Tool = "freehand"
	ToolLine     Tool = "line"
	ToolRect     Tool = "rect"
	ToolCircle   Tool = "circle"
)

// CanvasMode is either drawing or region selection.
type CanvasMode string

// Canvas modes.
const (
	ModeDraw   CanvasMode = "draw"
	ModeSelect CanvasMode = "select"
)

// Point is a position in canvas coordinates.
type Point struct {
	X, Y float64
}

// gesture tracks an in-progress pointer interaction.
type gesture struct {
	active  bool
	start   Point
	prev    Point
	element int // index into elements, -1 for selections
	region  snapshot.Rect
}

// Canvas is the vector drawing tool model.
type Canvas struct {
	mu        sync.Mutex
	width     int
	height    int
	elements  []snapshot.Element
	selection *snapshot.Rect

	tool  Tool
	mode  CanvasMode
	color string
	brush float64

	g gesture

	pipeline *commit.Pipeline[snapshot.Drawing]
}

// NewCanvas creates an empty canvas in draw mode with the freehand tool.
func NewCanvas(opts ...Option) (*Canvas, error) {
	o := buildOptions(opts)

	c := &Canvas{
		width:  o.canvasW,
		height: o.canvasH,
		tool:   ToolFreehand,
		mode:   ModeDraw,
		color:  "#000000",
		brush:  5,
	}

	p, err := newPipeline("canvas", o, snapshot.DrawingEqual, snapshot.DrawingClone, c.capture, c.apply)
	if err != nil {
		return nil, err
	}
	c.pipeline = p
	return c, nil
}

// Size returns the canvas size.
func (c *Canvas) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// SetSize resizes the canvas. Non-positive values are ignored and each
// side is at least config.MinCanvasSize. Size is not part of history.
func (c *Canvas) SetSize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if width > 0 {
		c.width = clampCanvasSize(width)
	}
	if height > 0 {
		c.height = clampCanvasSize(height)
	}
}

func clampCanvasSize(n int) int {
	return max(n, config.MinCanvasSize)
}

// SetTool selects the drawing tool.
func (c *Canvas) SetTool(t Tool) error {
	switch t {
	case ToolFreehand, ToolLine, ToolRect, ToolCircle:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTool, t)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tool = t
	return nil
}

// Tool returns the current tool.
func (c *Canvas) Tool() Tool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tool
}

// SetColor sets the stroke and fill color for new elements.
func (c *Canvas) SetColor(hex string) error {
	col, err := colorful.Hex(hex)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.color = col.Hex()
	return nil
}

// SetBrushSize sets the stroke width for new elements.
func (c *Canvas) SetBrushSize(size float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if size > 0 {
		c.brush = size
	}
}

// Mode returns the interaction mode.
func (c *Canvas) Mode() CanvasMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// ToggleMode switches between drawing and selection and clears the current
// selection without recording it.
func (c *Canvas) ToggleMode() CanvasMode {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == ModeDraw {
		c.mode = ModeSelect
	} else {
		c.mode = ModeDraw
	}
	c.selection = nil
	c.g = gesture{}
	return c.mode
}

// Begin starts a stroke, shape or selection at p.
func (c *Canvas) Begin(p Point) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.g = gesture{active: true, start: p, prev: p, element: -1}

	if c.mode == ModeSelect {
		c.selection = nil
		c.g.region = snapshot.Rect{X: p.X, Y: p.Y}
		return
	}

	var el snapshot.Element
	switch c.tool {
	case ToolFreehand:
		el = snapshot.Element{
			Kind:  snapshot.ElementPath,
			Attrs: map[string]string{"d": "M " + num(p.X) + " " + num(p.Y)},
			Style: snapshot.Style{Fill: "none", Stroke: c.color, StrokeWidth: c.brush, Linecap: "round"},
		}
	case ToolLine:
		el = snapshot.Element{
			Kind: snapshot.ElementLine,
			Attrs: map[string]string{
				"x1": num(p.X), "y1": num(p.Y),
				"x2": num(p.X), "y2": num(p.Y),
			},
			Style: snapshot.Style{Stroke: c.color, StrokeWidth: c.brush},
		}
	case ToolRect:
		el = snapshot.Element{
			Kind:  snapshot.ElementRect,
			Attrs: map[string]string{},
			Style: snapshot.Style{Fill: c.color, Stroke: c.color, StrokeWidth: c.brush},
		}
	case ToolCircle:
		el = snapshot.Element{
			Kind:  snapshot.ElementCircle,
			Attrs: map[string]string{},
			Style: snapshot.Style{Fill: c.color, Stroke: c.color, StrokeWidth: c.brush},
		}
	}
	c.elements = append(c.elements, el)
	c.g.element = len(c.elements) - 1
}

// Move extends the active gesture to p. It does nothing when no gesture is
// active.
func (c *Canvas) Move(p Point) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.g.active {
		return
	}

	if c.g.element < 0 {
		c.g.region = normalizeRect(c.g.start, p)
		return
	}

	el := c.elements[c.g.element]
	switch el.Kind {
	case snapshot.ElementPath:
		// Smooth freehand strokes with a quadratic curve through the midpoint.
		ctrl := Point{X: (c.g.prev.X + p.X) / 2, Y: (c.g.prev.Y + p.Y) / 2}
		el.Attrs["d"] += fmt.Sprintf(" Q %s %s %s %s", num(ctrl.X), num(ctrl.Y), num(p.X), num(p.Y))
		c.g.prev = p
	case snapshot.ElementLine:
		el.Attrs["x2"] = num(p.X)
		el.Attrs["y2"] = num(p.Y)
	case snapshot.ElementRect:
		r := normalizeRect(c.g.start, p)
		el.Attrs["x"] = num(r.X)
		el.Attrs["y"] = num(r.Y)
		el.Attrs["width"] = num(r.Width)
		el.Attrs["height"] = num(r.Height)
	case snapshot.ElementCircle:
		el.Attrs["cx"] = num(c.g.start.X)
		el.Attrs["cy"] = num(c.g.start.Y)
		el.Attrs["r"] = num(math.Hypot(p.X-c.g.start.X, p.Y-c.g.start.Y))
	}
}

// End finishes the active gesture and commits it. Zero-length lines are
// discarded and empty selections are cleared.
func (c *Canvas) End() {
	c.mu.Lock()
	if !c.g.active {
		c.mu.Unlock()
		return
	}

	label := "Draw " + string(c.tool)
	if c.g.element < 0 {
		label = "Select"
		if !c.g.region.Empty() {
			region := c.g.region
			c.selection = &region
		}
	} else if el := c.elements[c.g.element]; el.Kind == snapshot.ElementLine &&
		el.Attrs["x1"] == el.Attrs["x2"] && el.Attrs["y1"] == el.Attrs["y2"] {
		c.elements = c.elements[:c.g.element]
	}
	c.g = gesture{}
	c.mu.Unlock()

	c.pipeline.Commit(label)
}

// Drawing returns a copy of the current elements and selection.
func (c *Canvas) Drawing() snapshot.Drawing {
	return c.capture()
}

// Selection returns the selected region, or nil.
func (c *Canvas) Selection() *snapshot.Rect {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selection == nil {
		return nil
	}
	sel := *c.selection
	return &sel
}

// ClearSelection drops the selected region without recording it.
func (c *Canvas) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = nil
}

// Clear removes every element and the selection.
func (c *Canvas) Clear() {
	c.mu.Lock()
	c.elements = nil
	c.selection = nil
	c.g = gesture{}
	c.mu.Unlock()

	c.pipeline.Commit("Clear canvas")
}

// Undo restores the previous drawing. An in-progress gesture is abandoned.
func (c *Canvas) Undo() bool {
	return c.pipeline.Undo()
}

// Redo restores the next undone drawing.
func (c *Canvas) Redo() bool {
	return c.pipeline.Redo()
}

// CanUndo reports whether Undo would change the drawing.
func (c *Canvas) CanUndo() bool {
	return c.pipeline.CanUndo()
}

// CanRedo reports whether Redo would change the drawing.
func (c *Canvas) CanRedo() bool {
	return c.pipeline.CanRedo()
}

// Pipeline returns the commit pipeline.
func (c *Canvas) Pipeline() *commit.Pipeline[snapshot.Drawing] {
	return c.pipeline
}

// Close stops pending commits.
func (c *Canvas) Close() {
	c.pipeline.Close()
}

func (c *Canvas) capture() snapshot.Drawing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshot.DrawingClone(snapshot.NewDrawing(c.elements, c.selection))
}

func (c *Canvas) apply(d snapshot.Drawing) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elements = d.Elements
	c.selection = d.Selection
	c.g = gesture{}
}

func normalizeRect(a, b Point) snapshot.Rect {
	return snapshot.Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
