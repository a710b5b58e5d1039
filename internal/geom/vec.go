package geom

import "math"

// Vec is a 2D point or vector. It is a plain value; copies never alias.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// V is a convenience constructor.
func V(x, y float64) Vec {
	return Vec{X: x, Y: y}
}

// Add returns the vector sum.
func (v Vec) Add(o Vec) Vec {
	return Vec{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns the vector difference.
func (v Vec) Sub(o Vec) Vec {
	return Vec{X: v.X - o.X, Y: v.Y - o.Y}
}

// Mul scales the vector.
func (v Vec) Mul(s float64) Vec {
	return Vec{X: v.X * s, Y: v.Y * s}
}

// Dot returns the dot product.
func (v Vec) Dot(o Vec) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Length returns the Euclidean length.
func (v Vec) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Distance returns the Euclidean distance between two points.
func (v Vec) Distance(o Vec) float64 {
	return v.Sub(o).Length()
}

// Unit returns the unit vector in the same direction, or the zero vector
// when v has no length.
func (v Vec) Unit() Vec {
	l := v.Length()
	if l == 0 {
		return Vec{}
	}
	return Vec{X: v.X / l, Y: v.Y / l}
}

// Perp returns v rotated by +90 degrees in screen space: (-y, x).
func (v Vec) Perp() Vec {
	return Vec{X: -v.Y, Y: v.X}
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Vec) Vec {
	return Vec{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// WithinBox reports whether p lies strictly inside the axis-aligned box of
// half-width r centred on c.
func WithinBox(p, c Vec, r float64) bool {
	return math.Abs(p.X-c.X) < r && math.Abs(p.Y-c.Y) < r
}

// SegmentDistance returns the distance from p to the closed segment a-b.
// The projection parameter is clamped to [0,1]; a degenerate segment
// measures the distance to a.
func SegmentDistance(p, a, b Vec) float64 {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return p.Distance(a)
	}
	t := p.Sub(a).Dot(ab) / lenSq
	t = max(0, min(1, t))
	return p.Distance(a.Add(ab.Mul(t)))
}

// ApproxEqual compares two vectors component-wise within eps.
func ApproxEqual(a, b Vec, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps
}
