// Package construct derives new geometry from the elements already on a
// canvas. Every function is pure: it reads the given elements and returns new
// ones for the caller to append. All coordinates are canvas pixels.
package construct

import (
	"errors"

	"github.com/mathviz/mathviz/backend-go/internal/geom"
	"github.com/mathviz/mathviz/backend-go/internal/scene"
)

const (
	// ExtendFactor is how far every constructed line reaches past its
	// defining points.
	ExtendFactor = 1000.0

	// Offset places perpendicular endpoints and shifts parallel copies.
	Offset = 50.0

	// tangentRef is the x distance to the second, reference point of a
	// tangent line.
	tangentRef = 100.0
)

var (
	ErrNoPoint       = errors.New("no point to construct from")
	ErrNoLine        = errors.New("no line to construct from")
	ErrNeedTwoPoints = errors.New("fewer than two points")
	ErrNoCircle      = errors.New("no circle to construct from")
)

var messages = map[error]string{
	ErrNoPoint:       "Please create a point first to draw a perpendicular line.",
	ErrNoLine:        "Please create a line first to draw a parallel line.",
	ErrNeedTwoPoints: "Please create at least two points to draw an angle bisector.",
	ErrNoCircle:      "Please create a circle first to draw tangent lines.",
}

// Message returns the user-facing text for a precondition error, or "".
func Message(err error) string {
	for sentinel, msg := range messages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return ""
}

// Midpoint returns the arithmetic midpoint of a and b.
func Midpoint(a, b geom.Vec) geom.Vec {
	return geom.Midpoint(a, b)
}

// MidpointOf builds the midpoint element of two committed points. It is
// labelled with the letter after p1's label.
func MidpointOf(p1, p2 scene.Element) scene.Element {
	m := scene.NewPoint(Midpoint(p1.Pos(), p2.Pos()), scene.LetterAfter(p1.Label), scene.ColorMidpoint)
	m.IsMidpoint = true
	m.ParentPoints = []int64{p1.ID, p2.ID}
	return m
}

// Extend stretches the start→end direction by length both ways from start.
// A zero-length direction leaves both ends at start.
func Extend(start, end geom.Vec, length float64) (extStart, extEnd geom.Vec) {
	dir := end.Sub(start).Unit().Mul(length)
	return start.Sub(dir), start.Add(dir)
}

// Perpendicular builds a vertical line through the first live point.
func Perpendicular(els []scene.Element) (scene.Element, error) {
	p, ok := first(els, scene.IsLiveKind(scene.KindPoint))
	if !ok {
		return scene.Element{}, ErrNoPoint
	}
	labels := scene.NextLabels(els, 2)

	start := scene.PointRef{X: p.X, Y: p.Y - Offset, Label: labels[0]}
	end := scene.PointRef{X: p.X, Y: p.Y + Offset, Label: labels[1]}
	return scene.NewLine(start, end,
		geom.V(p.X, p.Y-ExtendFactor),
		geom.V(p.X, p.Y+ExtendFactor),
		scene.ColorConstruct), nil
}

// Parallel copies the first live line, shifted by Offset along its normal.
func Parallel(els []scene.Element) (scene.Element, error) {
	l, ok := first(els, func(e scene.Element) bool {
		return e.Kind == scene.KindLine && e.Live() && e.Start.Vec() != e.End.Vec()
	})
	if !ok {
		return scene.Element{}, ErrNoLine
	}
	labels := scene.NextLabels(els, 2)

	dir := l.End.Vec().Sub(l.Start.Vec()).Unit()
	shift := dir.Perp().Mul(Offset)
	s := l.Start.Vec().Add(shift)
	e := l.End.Vec().Add(shift)

	return scene.NewLine(
		scene.PointRef{X: s.X, Y: s.Y, Label: labels[0]},
		scene.PointRef{X: e.X, Y: e.Y, Label: labels[1]},
		s.Sub(dir.Mul(ExtendFactor)),
		e.Add(dir.Mul(ExtendFactor)),
		scene.ColorConstruct), nil
}

// AngleBisector draws the extended line through the first two live points.
func AngleBisector(els []scene.Element) (scene.Element, error) {
	var pts []scene.Element
	for _, e := range els {
		if e.Kind == scene.KindPoint && e.Live() {
			pts = append(pts, e)
			if len(pts) == 2 {
				break
			}
		}
	}
	if len(pts) < 2 {
		return scene.Element{}, ErrNeedTwoPoints
	}
	labels := scene.NextLabels(els, 2)

	p1, p2 := pts[0].Pos(), pts[1].Pos()
	dir := p2.Sub(p1).Unit()
	return scene.NewLine(
		scene.PointRef{X: p1.X, Y: p1.Y, Label: labels[0]},
		scene.PointRef{X: p2.X, Y: p2.Y, Label: labels[1]},
		p1.Sub(dir.Mul(ExtendFactor)),
		p2.Add(dir.Mul(ExtendFactor)),
		scene.ColorConstruct), nil
}

// Tangents builds the two horizontal tangents of the first live circle, at
// y = cy - r and y = cy + r.
func Tangents(els []scene.Element) ([]scene.Element, error) {
	c, ok := first(els, scene.IsLiveKind(scene.KindCircle))
	if !ok {
		return nil, ErrNoCircle
	}
	labels := scene.NextLabels(els, 2)

	out := make([]scene.Element, 0, 2)
	for i, y := range []float64{c.Y - c.Radius, c.Y + c.Radius} {
		start := scene.PointRef{X: c.X, Y: y, Label: labels[i]}
		end := scene.PointRef{X: c.X + tangentRef, Y: y, Label: labels[i]}
		out = append(out, scene.NewLine(start, end,
			geom.V(c.X-ExtendFactor, y),
			geom.V(c.X+ExtendFactor, y),
			scene.ColorConstruct))
	}
	return out, nil
}

func first(els []scene.Element, pred func(scene.Element) bool) (scene.Element, bool) {
	for _, e := range els {
		if pred(e) {
			return e, true
		}
	}
	return scene.Element{}, false
}
