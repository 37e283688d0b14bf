package snapshot

import (
	"maps"
	"slices"
)

// ElementKind is the SVG element type of a drawn element.
type ElementKind string

// Supported element kinds.
const (
	ElementPath   ElementKind = "path"
	ElementLine   ElementKind = "line"
	ElementRect   ElementKind = "rect"
	ElementCircle ElementKind = "circle"
)

// Style holds presentation properties of an element.
type Style struct {
	Fill        string
	Stroke      string
	StrokeWidth float64
	Linecap     string
}

// Element is one drawn SVG element.
type Element struct {
	Kind  ElementKind
	Attrs map[string]string
	Style Style
}

// Clone returns a deep copy of e.
func (e Element) Clone() Element {
	e.Attrs = maps.Clone(e.Attrs)
	return e
}

// Equal reports whether e and o are the same element.
func (e Element) Equal(o Element) bool {
	return e.Kind == o.Kind && e.Style == o.Style && maps.Equal(e.Attrs, o.Attrs)
}

// Rect is an axis-aligned rectangle in canvas coordinates.
type Rect struct {
	X, Y, Width, Height float64
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Drawing is the state of a vector drawing.
type Drawing struct {
	Elements []Element
	// Selection is nil when no region is selected.
	Selection *Rect
}

// NewDrawing returns a drawing with a normalized selection: empty
// rectangles are treated as no selection.
func NewDrawing(elements []Element, selection *Rect) Drawing {
	d := Drawing{Elements: elements}
	if selection != nil && !selection.Empty() {
		sel := *selection
		d.Selection = &sel
	}
	return d
}

// DrawingEqual reports whether two drawings hold equal elements and
// selections.
func DrawingEqual(a, b Drawing) bool {
	if !slices.EqualFunc(a.Elements, b.Elements, Element.Equal) {
		return false
	}
	switch {
	case a.Selection == nil && b.Selection == nil:
		return true
	case a.Selection == nil || b.Selection == nil:
		return false
	default:
		return *a.Selection == *b.Selection
	}
}

// DrawingClone returns a deep copy of d.
func DrawingClone(d Drawing) Drawing {
	out := Drawing{}
	if d.Elements != nil {
		out.Elements = make([]Element, len(d.Elements))
		for i, e := range d.Elements {
			out.Elements[i] = e.Clone()
		}
	}
	if d.Selection != nil {
		sel := *d.Selection
		out.Selection = &sel
	}
	return out
}
