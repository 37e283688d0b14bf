package widget

import (
	"bytes"
	"encoding/xml"
	"maps"
	"slices"
	"strings"

	"github.com/dshills/revert/internal/snapshot"
)

// Export file names.
const (
	DrawingFilename   = "drawing.svg"
	SelectionFilename = "selected-area.svg"
)

const (
	svgProlog  = `<?xml version="1.0" standalone="no"?>`
	svgDoctype = `<!DOCTYPE svg PUBLIC "-//W3//DTD SVG 1.1//EN" "http://www.w3.org/Graphics/SVG/1.1/DTD/svg11.dtd">`
	svgNS      = "http://www.w3.org/2000/svg"
)

// ExportSVG renders the drawing as a standalone SVG document. When a region
// is selected the view box is limited to the part of it inside the canvas.
// It returns the suggested file name and the document.
func (c *Canvas) ExportSVG() (string, []byte) {
	c.mu.Lock()
	d := snapshot.DrawingClone(snapshot.NewDrawing(c.elements, c.selection))
	w, h := float64(c.width), float64(c.height)
	c.mu.Unlock()

	return RenderSVG(d, w, h)
}

// RenderSVG renders d on a canvas of the given size.
func RenderSVG(d snapshot.Drawing, width, height float64) (string, []byte) {
	name := DrawingFilename
	view := snapshot.Rect{Width: width, Height: height}
	if d.Selection != nil {
		name = SelectionFilename
		view = clampToCanvas(*d.Selection, width, height)
	}

	var buf bytes.Buffer
	buf.WriteString(svgProlog)
	buf.WriteByte('\n')
	buf.WriteString(svgDoctype)
	buf.WriteByte('\n')

	buf.WriteString(`<svg xmlns="` + svgNS + `"`)
	writeAttr(&buf, "width", num(view.Width))
	writeAttr(&buf, "height", num(view.Height))
	writeAttr(&buf, "viewBox", strings.Join([]string{
		num(view.X), num(view.Y), num(view.Width), num(view.Height),
	}, " "))
	buf.WriteString(">")

	for _, el := range d.Elements {
		buf.WriteString("<" + string(el.Kind))
		for _, k := range slices.Sorted(maps.Keys(el.Attrs)) {
			writeAttr(&buf, k, el.Attrs[k])
		}
		if style := styleAttr(el.Style); style != "" {
			writeAttr(&buf, "style", style)
		}
		buf.WriteString("/>")
	}

	buf.WriteString("</svg>")
	return name, buf.Bytes()
}

// clampToCanvas limits r to start inside the canvas and not extend past
// its right or bottom edge.
func clampToCanvas(r snapshot.Rect, width, height float64) snapshot.Rect {
	x := max(0, r.X)
	y := max(0, r.Y)
	return snapshot.Rect{
		X:      x,
		Y:      y,
		Width:  min(width-x, r.Width),
		Height: min(height-y, r.Height),
	}
}

func styleAttr(s snapshot.Style) string {
	var parts []string
	if s.Fill != "" {
		parts = append(parts, "fill: "+s.Fill)
	}
	if s.Stroke != "" {
		parts = append(parts, "stroke: "+s.Stroke)
	}
	if s.StrokeWidth > 0 {
		parts = append(parts, "stroke-width: "+num(s.StrokeWidth))
	}
	if s.Linecap != "" {
		parts = append(parts, "stroke-linecap: "+s.Linecap)
	}
	return strings.Join(parts, "; ")
}

func writeAttr(buf *bytes.Buffer, name, value string) {
	buf.WriteString(" " + name + `="`)
	// EscapeText only fails on writer errors, and bytes.Buffer has none.
	_ = xml.EscapeText(buf, []byte(value))
	buf.WriteString(`"`)
}
