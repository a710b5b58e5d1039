package engine

import (
	"github.com/mathviz/mathviz/backend-go/internal/geom"
	"github.com/mathviz/mathviz/backend-go/internal/scene"
)

// dragSlop is how far the pointer may travel while panning before the
// following click is treated as the end of a drag.
const dragSlop = 3.0

type dragMode int

const (
	dragNone dragMode = iota
	dragPan
	dragMove
)

type dragState struct {
	mode    dragMode
	start   geom.Vec
	fromPan geom.Vec
	moved   bool
	target  int64 // point being moved

	// suppressClick swallows the click a browser fires after a pan drag.
	suppressClick bool
}

// PointerDown starts a drag. With the Move tool and a selected point it
// drags that point; otherwise it pans, where the area allows it.
func (e *Engine) PointerDown(x, y float64) {
	pos := geom.V(x, y)
	e.drag = dragState{}
	switch {
	case e.tool == ToolMove && e.selection != nil && e.selection.Kind == scene.KindPoint:
		e.drag = dragState{mode: dragMove, start: pos, target: e.selection.ID}
	case e.pannable():
		e.drag = dragState{mode: dragPan, start: pos, fromPan: e.view.PanOffset}
	}
}

// PointerMove continues a drag.
func (e *Engine) PointerMove(x, y float64) {
	pos := geom.V(x, y)
	switch e.drag.mode {
	case dragMove:
		// The point may have been deselected or deleted since the drag began.
		if e.selection == nil || e.selection.ID != e.drag.target {
			e.drag = dragState{}
			return
		}
		if e.view.SnapToGrid && e.area == scene.AreaGraphing {
			pos = e.mapper().Snap(pos)
		}
		if !e.store.ReplaceByID(e.drag.target, func(el *scene.Element) { el.X, el.Y = pos.X, pos.Y }) {
			return
		}
		e.selection.X, e.selection.Y = pos.X, pos.Y
		e.drag.moved = true
	case dragPan:
		delta := pos.Sub(e.drag.start)
		if delta.Length() > dragSlop {
			e.drag.moved = true
		}
		e.view.PanOffset = e.drag.fromPan.Add(delta)
		e.reproject()
	}
}

// PointerUp ends the drag.
func (e *Engine) PointerUp() {
	suppress := e.drag.mode == dragPan && e.drag.moved
	e.drag = dragState{suppressClick: suppress}
}

// endMove drops a point drag whose selection went away.
func (e *Engine) endMove() {
	if e.drag.mode == dragMove {
		e.drag = dragState{}
	}
}

// Dragging reports whether a pan or move is in progress.
func (e *Engine) Dragging() bool {
	return e.drag.mode != dragNone
}
