package engine

import (
	"encoding/json"

	"github.com/mathviz/mathviz/backend-go/internal/geom"
	"github.com/mathviz/mathviz/backend-go/internal/scene"
)

// Rect represents an axis-aligned bounding box in pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// rectAround returns the box of radius r around c.
func rectAround(c geom.Vec, r float64) Rect {
	return Rect{X: c.X - r, Y: c.Y - r, Width: 2 * r, Height: 2 * r}
}

// rectOf returns the box spanning the given points.
func rectOf(points ...geom.Vec) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Contains checks if a point is inside the rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Intersects reports whether the rects overlap or touch.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width && other.X <= r.X+r.Width &&
		r.Y <= other.Y+other.Height && other.Y <= r.Y+r.Height
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}

	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.X+r.Width, other.X+other.Width)
	maxY := max(r.Y+r.Height, other.Y+other.Height)

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// grow returns the rect expanded by d on every side.
func (r Rect) grow(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, Width: r.Width + 2*d, Height: r.Height + 2*d}
}

// elementBounds is the painted extent of an element, labels excluded.
// Horizontal and vertical lines give an empty rect and are never culled.
func elementBounds(el scene.Element) Rect {
	switch el.Kind {
	case scene.KindPoint:
		return rectAround(el.Pos(), haloRadius)
	case scene.KindExtremumPoint:
		return rectAround(el.Pos(), el.DotSize)
	case scene.KindCircle:
		return rectAround(el.Pos(), el.Radius)
	case scene.KindSegment:
		return rectOf(el.Start.Vec(), el.End.Vec())
	case scene.KindLine:
		return rectOf(el.ExtendedStart, el.ExtendedEnd, el.Start.Vec(), el.End.Vec())
	case scene.KindPolygon:
		points := make([]geom.Vec, len(el.Points))
		for i, p := range el.Points {
			points[i] = p.Vec()
		}
		return rectOf(points...)
	}
	return Rect{}
}

// SelectionBounds returns the box of the selected element, for placing
// host UI next to it.
func (e *Engine) SelectionBounds() (Rect, bool) {
	if e.selection == nil {
		return Rect{}, false
	}
	r := elementBounds(*e.selection)
	if e.selection.Kind == scene.KindLine || e.selection.Kind == scene.KindSegment {
		for _, p := range []scene.PointRef{e.selection.Start, e.selection.End} {
			r = r.Union(rectAround(p.Vec(), pointRadius))
		}
	}
	return r, true
}

// RectToJSON serializes a Rect to JSON.
func RectToJSON(r Rect) string {
	data, _ := json.Marshal(r)
	return string(data)
}
