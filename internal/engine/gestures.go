package engine

import (
	"fmt"
	"slices"

	"github.com/mathviz/mathviz/backend-go/internal/construct"
	"github.com/mathviz/mathviz/backend-go/internal/geom"
	"github.com/mathviz/mathviz/backend-go/internal/scene"
)

const (
	// hitRadius is the pick tolerance for points, lines and circle rims.
	hitRadius = 5.0

	// closeRadius is how near the first vertex a click must land to close a
	// polygon.
	closeRadius = 10.0

	// centerLabel names the center point placed by the Circle tool.
	centerLabel = "Center"
)

// PromptLabel asks the host for a new label for the selection. It answers
// with RenameSelection or CancelPrompt.
const PromptLabel = "label"

// SetTool switches the active tool. The running gesture is finished first: a
// polygon with three or more vertices is closed, everything else is dropped.
// Selection and the context menu are cleared.
func (e *Engine) SetTool(t Tool) {
	if !t.Valid() {
		return
	}
	e.finishGesture()
	e.tool = t
	e.selection = nil
	e.menu = ContextMenu{}
	e.prompt = ""
}

// finishGesture closes a pending polygon when it can, then discards the rest.
func (e *Engine) finishGesture() {
	if st, ok := e.state.(PolygonPending); ok && len(st.Vertices) >= 3 {
		e.closePolygon(st)
	}
	e.discardGesture()
}

// discardGesture cancels point animations and removes every temporary element.
func (e *Engine) discardGesture() {
	e.anims.cancelAll()
	if n := e.store.RemoveWhere(scene.IsTemporary); n > 0 {
		Logger().Debug("discarded gesture", "tool", e.tool, "removed", n)
	}
	e.state = Idle{}
	e.drag = dragState{}
}

// Click handles a canvas click at pixel (x, y). Order: close the menu, open
// the extremum menu on a marker, select an existing point, otherwise hand the
// click to the active tool.
func (e *Engine) Click(x, y float64) {
	if e.drag.suppressClick {
		e.drag.suppressClick = false
		return
	}
	pos := geom.V(x, y)
	e.menu = ContextMenu{}

	if ex, ok := e.hitExtremum(pos); ok {
		e.menu = ContextMenu{
			Visible: true,
			Kind:    MenuExtremum,
			X:       x,
			Y:       y,
			Point:   &geom.Vec{X: ex.RealX, Y: ex.RealY},
		}
		return
	}

	if !e.tool.bypassesPointHit() {
		if p, ok := e.store.Find(func(el scene.Element) bool {
			return el.Kind == scene.KindPoint && el.Live() && el.Pos().Distance(pos) < hitRadius
		}); ok {
			e.selectElement(p, pos)
			switch e.tool {
			case ToolLabel:
				e.prompt = PromptLabel
			case ToolShowHide:
				e.ToggleSelectionVisibility()
			}
			return
		}
	}

	if e.view.SnapToGrid && e.area == scene.AreaGraphing {
		pos = e.mapper().Snap(pos)
	}

	switch e.tool {
	case ToolPoint:
		e.clickPoint(pos)
	case ToolLine, ToolSegment:
		e.clickLine(pos)
	case ToolPolygon:
		e.clickPolygon(pos)
	case ToolCircle:
		e.clickCircle(pos)
	case ToolMidpoint:
		e.clickMidpoint(pos)
	case ToolSelect:
		e.clickSelect(pos)
	case ToolDelete:
		e.clickDelete(pos)
	case ToolLabel:
		if e.selection != nil && !e.selection.IsDeleted {
			e.prompt = PromptLabel
		}
	case ToolShowHide:
		e.ToggleSelectionVisibility()
	case ToolPerpendicular, ToolParallel, ToolAngleBisector, ToolTangents:
		e.runConstruction(e.tool)
	}
}

// clickPoint places a point, or recolors the point already under the cursor.
func (e *Engine) clickPoint(pos geom.Vec) {
	if existing, ok := e.store.Find(func(el scene.Element) bool {
		return el.Kind == scene.KindPoint && !el.IsDeleted && geom.WithinBox(pos, el.Pos(), hitRadius)
	}); ok {
		color := e.activeColor
		e.store.ReplaceByID(existing.ID, func(el *scene.Element) { el.Color = color })
		return
	}

	label := scene.NextLabel(e.store.All())
	p := e.store.Append(scene.NewPoint(pos, label, e.activeColor))[0]
	e.anims.start(p.ID)
	Logger().Debug("point placed", "id", p.ID, "label", label)
}

// clickLine places the temporary start point, or on the second click
// promotes it and commits the end point with the line or segment.
func (e *Engine) clickLine(pos geom.Vec) {
	st, ok := e.state.(LinePending)
	if !ok {
		start := scene.NewPoint(pos, scene.NextLabel(e.store.All()), scene.ColorPoint)
		start.IsTemporary = true
		e.state = LinePending{Start: e.store.Append(start)[0]}
		return
	}

	start := st.Start
	start.IsTemporary = false
	e.store.ReplaceByID(start.ID, func(el *scene.Element) { el.IsTemporary = false })

	end := scene.NewPoint(pos, scene.NextLabel(e.store.All()), scene.ColorPoint)
	var shape scene.Element
	if e.tool == ToolLine {
		extStart, extEnd := construct.Extend(start.Pos(), pos, e.canvas.Diagonal())
		shape = scene.NewLine(scene.Ref(start), scene.Ref(end), extStart, extEnd, scene.ColorLine)
	} else {
		shape = scene.NewSegment(scene.Ref(start), scene.Ref(end), scene.ColorSegment)
	}
	out := e.store.Append(end, shape)
	e.state = Idle{}
	Logger().Debug("shape committed", "kind", shape.Kind, "id", out[1].ID)
}

// clickPolygon closes the polygon when the click lands on its first vertex,
// otherwise commits a new vertex with the edge leading to it and refreshes
// the preview.
func (e *Engine) clickPolygon(pos geom.Vec) {
	st, _ := e.state.(PolygonPending)
	if len(st.Vertices) > 2 && pos.Distance(st.Vertices[0].Pos()) < closeRadius {
		e.closePolygon(st)
		return
	}

	if st.Base == "" {
		st.Base = scene.NextLabel(e.store.All())
	}
	vertex := scene.NewPoint(pos, fmt.Sprintf("%s_%d", st.Base, len(st.Vertices)+1), scene.ColorPoint)
	added := []scene.Element{vertex}
	if n := len(st.Vertices); n > 0 {
		added = append(added, scene.NewSegment(scene.Ref(st.Vertices[n-1]), scene.Ref(vertex), scene.ColorPolygon))
	}
	out := e.store.Append(added...)

	vertices := append(slices.Clone(st.Vertices), out[0])
	if len(vertices) >= 2 {
		preview := scene.NewPolygon(refs(vertices), st.Base+"_temp", scene.ColorPolygon)
		preview.IsTemporary = true
		e.store.Upsert(polygonPreviewKey, preview)
	}
	e.state = PolygonPending{Base: st.Base, Vertices: vertices}
}

func (e *Engine) closePolygon(st PolygonPending) {
	e.store.RemoveWhere(func(el scene.Element) bool { return el.Key == polygonPreviewKey })
	label := scene.NextLabel(e.store.All())
	out := e.store.Append(scene.NewPolygon(refs(st.Vertices), label, scene.ColorPolygon))
	e.state = Idle{}
	Logger().Debug("polygon closed", "id", out[0].ID, "vertices", len(st.Vertices))
}

// clickCircle places the temporary center, or on the second click promotes it
// and commits a circle through the click.
func (e *Engine) clickCircle(pos geom.Vec) {
	st, ok := e.state.(CirclePending)
	if !ok {
		center := scene.NewPoint(pos, centerLabel, scene.ColorCircle)
		center.IsTemporary = true
		e.state = CirclePending{Center: e.store.Append(center)[0]}
		return
	}

	e.store.ReplaceByID(st.Center.ID, func(el *scene.Element) { el.IsTemporary = false })
	c := st.Center.Pos()
	out := e.store.Append(scene.NewCircle(c, c.Distance(pos)))
	e.state = Idle{}
	Logger().Debug("circle committed", "id", out[0].ID, "radius", out[0].Radius)
}

// clickMidpoint commits a point and, on every second one, their midpoint.
func (e *Engine) clickMidpoint(pos geom.Vec) {
	st, _ := e.state.(MidpointPending)
	p := e.store.Append(scene.NewPoint(pos, scene.NextLabel(e.store.All()), scene.ColorPoint))[0]
	points := append(slices.Clone(st.Points), p)
	if len(points) < 2 {
		e.state = MidpointPending{Points: points}
		return
	}
	out := e.store.Append(construct.MidpointOf(points[0], points[1]))
	e.state = Idle{}
	Logger().Debug("midpoint committed", "id", out[0].ID, "label", out[0].Label)
}

func (e *Engine) clickSelect(pos geom.Vec) {
	if p, ok := e.hitPoint(pos); ok {
		e.selectElement(p, pos)
		return
	}
	e.selection = nil
	e.menu = ContextMenu{}
}

// clickDelete soft-deletes every live point, line, segment or circle near pos.
func (e *Engine) clickDelete(pos geom.Vec) {
	n := e.store.UpdateWhere(func(el scene.Element) bool {
		return !el.IsDeleted && elementBounds(el).grow(hitRadius).Contains(pos.X, pos.Y) && deleteHit(el, pos)
	}, func(el *scene.Element) {
		el.IsDeleted = true
	})
	if n == 0 {
		return
	}
	if e.selection != nil {
		if cur, ok := e.store.Get(e.selection.ID); !ok || cur.IsDeleted {
			e.selection = nil
		}
	}
	Logger().Debug("deleted", "count", n)
}

// runConstruction appends derived geometry, or reports the unmet
// precondition and leaves the scene alone.
func (e *Engine) runConstruction(t Tool) {
	els := e.store.All()
	var (
		out []scene.Element
		err error
	)
	switch t {
	case ToolPerpendicular:
		var l scene.Element
		l, err = construct.Perpendicular(els)
		out = []scene.Element{l}
	case ToolParallel:
		var l scene.Element
		l, err = construct.Parallel(els)
		out = []scene.Element{l}
	case ToolAngleBisector:
		var l scene.Element
		l, err = construct.AngleBisector(els)
		out = []scene.Element{l}
	case ToolTangents:
		out, err = construct.Tangents(els)
	}
	if err != nil {
		Logger().Warn("construction precondition not met", "tool", t, "error", err)
		e.notify(construct.Message(err))
		return
	}
	e.store.Append(out...)
	Logger().Debug("construction committed", "tool", t, "count", len(out))
}

func (e *Engine) selectElement(el scene.Element, at geom.Vec) {
	e.selection = &el
	e.menu = ContextMenu{Visible: true, Kind: MenuElement, X: at.X, Y: at.Y}
}
