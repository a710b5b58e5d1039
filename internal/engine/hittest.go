package engine

import (
	"math"

	"github.com/mathviz/mathviz/backend-go/internal/geom"
	"github.com/mathviz/mathviz/backend-go/internal/scene"
)

// HitTest returns the element a selection click at pixel (x, y) picks:
// an extremum marker within its dot size, else a live point within a 5px box.
// Lines, segments and circles are never picked here; only the Delete tool
// tests against them.
func (e *Engine) HitTest(x, y float64) (scene.Element, bool) {
	pos := geom.V(x, y)
	if ex, ok := e.hitExtremum(pos); ok {
		return ex, true
	}
	return e.hitPoint(pos)
}

func (e *Engine) hitExtremum(pos geom.Vec) (scene.Element, bool) {
	return e.store.Find(func(el scene.Element) bool {
		return el.Kind == scene.KindExtremumPoint && !el.IsDeleted && el.Pos().Distance(pos) < el.DotSize
	})
}

func (e *Engine) hitPoint(pos geom.Vec) (scene.Element, bool) {
	return e.store.Find(func(el scene.Element) bool {
		return el.Kind == scene.KindPoint && el.Live() && geom.WithinBox(pos, el.Pos(), hitRadius)
	})
}

// deleteHit is the proximity test of the Delete tool.
func deleteHit(el scene.Element, pos geom.Vec) bool {
	switch el.Kind {
	case scene.KindPoint:
		return geom.WithinBox(pos, el.Pos(), hitRadius)
	case scene.KindLine, scene.KindSegment:
		return geom.SegmentDistance(pos, el.Start.Vec(), el.End.Vec()) < hitRadius
	case scene.KindCircle:
		return math.Abs(pos.Distance(el.Pos())-el.Radius) < hitRadius
	}
	return false
}
