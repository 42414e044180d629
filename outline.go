package cutborder

import (
	"github.com/gogpu/gg"
)

// Geometry is the resolved outline of one element at draw time.
type Geometry struct {
	Width  float64
	Height float64
	Inset  float64

	// Points is the closed outline, clockwise from just right of the
	// top-left cut. The closing segment back to Points[0] is implied.
	Points []gg.Point
}

// Outline builds the cut-corner octagon for an element of the given size.
//
// A corner with a positive cut contributes one diagonal segment; a zero cut
// leaves a square corner and no extra point. Cuts larger than half an edge
// are not clamped, so the outline may self-intersect.
func (c Config) Outline(width, height float64) Geometry {
	in := c.Inset()
	cut := c.Cuts

	pts := make([]gg.Point, 0, 8)
	pts = append(pts,
		gg.Pt(cut.TopLeft+in, in),
		gg.Pt(width-cut.TopRight-in, in),
	)
	if cut.TopRight > 0 {
		pts = append(pts, gg.Pt(width-in, cut.TopRight+in))
	}
	pts = append(pts, gg.Pt(width-in, height-cut.BottomRight-in))
	if cut.BottomRight > 0 {
		pts = append(pts, gg.Pt(width-cut.BottomRight-in, height-in))
	}
	pts = append(pts, gg.Pt(cut.BottomLeft+in, height-in))
	if cut.BottomLeft > 0 {
		pts = append(pts, gg.Pt(in, height-cut.BottomLeft-in))
	}
	pts = append(pts, gg.Pt(in, cut.TopLeft+in))

	return Geometry{
		Width:  width,
		Height: height,
		Inset:  in,
		Points: pts,
	}
}

// Trace appends the outline to dc's current path as one closed subpath.
func (g Geometry) Trace(dc *gg.Context) {
	if len(g.Points) == 0 {
		return
	}
	dc.MoveTo(g.Points[0].X, g.Points[0].Y)
	for _, p := range g.Points[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.ClosePath()
}

// canvasMiterLimit matches the HTML canvas default, so the 45° corners of
// the octagon always keep their miters.
const canvasMiterLimit = 10

// stroke paints the outline with miter joins and butt caps. The path is
// stroked only; nothing is filled.
func (g Geometry) stroke(dc *gg.Context, width float64, col gg.RGBA) error {
	dc.ClearPath()
	if width <= 0 {
		return nil
	}
	dc.SetColor(col)
	dc.SetLineWidth(width)
	dc.SetLineJoin(gg.LineJoinMiter)
	dc.SetLineCap(gg.LineCapButt)
	dc.SetMiterLimit(canvasMiterLimit)
	g.Trace(dc)
	return dc.Stroke()
}
