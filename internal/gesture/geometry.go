// Package gesture turns pointer drags over a grid of rendered items into
// rubber-band range selections.
package gesture

import "math"

// Point is a pointer position in container coordinates.
type Point struct {
	X float64
	Y float64
}

// Rect is an axis aligned rectangle. Min > Max on either axis means empty;
// zero width or height is a valid (degenerate) rectangle.
type Rect struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// RectFromPoints spans the two points regardless of drag direction.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		MinX: math.Min(a.X, b.X),
		MinY: math.Min(a.Y, b.Y),
		MaxX: math.Max(a.X, b.X),
		MaxY: math.Max(a.Y, b.Y),
	}
}

// RectFromBox builds a rect from a top-left corner and a size, the shape
// bounding boxes come in from the rendering surface.
func RectFromBox(left, top, width, height float64) Rect {
	return Rect{MinX: left, MinY: top, MaxX: left + width, MaxY: top + height}
}

func (r Rect) Empty() bool {
	return r.MinX > r.MaxX || r.MinY > r.MaxY
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Inset shrinks the rect by m on every side. Boxes smaller than 2m collapse
// to empty and never intersect.
func (r Rect) Inset(m float64) Rect {
	return Rect{MinX: r.MinX + m, MinY: r.MinY + m, MaxX: r.MaxX - m, MaxY: r.MaxY - m}
}

// Intersects reports whether the rects share at least one point.
func (r Rect) Intersects(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.MinX <= o.MaxX && o.MinX <= r.MaxX && r.MinY <= o.MaxY && o.MinY <= r.MaxY
}

// exceeds reports whether the displacement from a to b passes threshold on
// either axis.
func exceeds(a, b Point, threshold float64) bool {
	return math.Abs(b.X-a.X) > threshold || math.Abs(b.Y-a.Y) > threshold
}
