package engine

import (
	"encoding/json"
	"fmt"

	"github.com/mathviz/mathviz/backend-go/internal/geom"
	"github.com/mathviz/mathviz/backend-go/internal/scene"
	"github.com/mathviz/mathviz/backend-go/internal/viewport"
)

// DrawCommand is a single drawing operation for the host to execute on a
// Canvas2D-like surface. Commands are in painter's order.
type DrawCommand struct {
	Op          string        `json:"op"`                    // "path" or "text"
	ObjectID    int64         `json:"objectId,omitempty"`    // element id, for hit correlation
	Path        []PathCommand `json:"path,omitempty"`        // path data for "path" ops
	Fill        string        `json:"fill,omitempty"`        // fill color
	Stroke      string        `json:"stroke,omitempty"`      // stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // stroke width
	Dash        []float64     `json:"dash,omitempty"`        // line dash pattern

	// "text" ops draw Text with its baseline at X, Y.
	Text  string  `json:"text,omitempty"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
	Font  string  `json:"font,omitempty"`  // CSS font, e.g. "14px Arial"
	Align string  `json:"align,omitempty"` // "left", "center" or "right"
}

// PathCommand represents a single path segment for rendering.
// Format matches Canvas2D: ["M", x, y], ["L", x, y], ["C", x1, y1, x2, y2, x, y], ["Z"].
type PathCommand []interface{}

// Frame is one compiled picture of the canvas.
type Frame struct {
	Version    uint64         `json:"version"`
	Area       scene.Area     `json:"area"`
	Width      float64        `json:"width"`
	Height     float64        `json:"height"`
	Background string         `json:"background"`
	ViewMatrix []float64      `json:"viewMatrix"` // model → pixel
	Commands   []DrawCommand  `json:"commands"`
	Menu       ContextMenu    `json:"menu"`
	Selection  *scene.Element `json:"selection,omitempty"`
	Prompt     string         `json:"prompt,omitempty"`
	Animating  bool           `json:"animating,omitempty"` // host should call Tick next frame
}

// Styles of the non-element layers.
const (
	colorBackground = "#ffffff"
	colorMinorGrid  = "#E8E8E8"
	colorMajorGrid  = "#D3D3D3"
	colorAxis       = "#666666"
	colorHalo       = "lightgray"
	colorHaloSel    = "#cccccc"
	colorLabel      = "black"
	colorCurve      = "blue"
	colorExtremum   = "#4CAF50"

	fontLabel = "14px Arial"
	fontGrid  = "12px Arial"

	arrowSize   = 10.0
	labelOffset = 14.0
)

// Frame compiles the current scene and remembers it as the last frame.
func (e *Engine) Frame() *Frame {
	m := e.mapper()
	f := &Frame{
		Version:    e.Revision(),
		Area:       e.area,
		Width:      e.canvas.Width,
		Height:     e.canvas.Height,
		Background: colorBackground,
		ViewMatrix: m.Matrix().ToSlice(),
		Commands:   e.CompileDrawCommands(),
		Menu:       e.menu,
		Prompt:     e.prompt,
		Animating:  e.anims.active(),
	}
	if e.selection != nil {
		sel := e.selection.Clone()
		f.Selection = &sel
	}
	e.lastFrame.Store(f)
	return f
}

// LastFrame returns the most recently compiled frame, or nil. Safe for
// concurrent use.
func (e *Engine) LastFrame() *Frame {
	return e.lastFrame.Load()
}

// Render compiles a frame and returns it as JSON.
func (e *Engine) Render() string {
	data, err := json.Marshal(e.Frame())
	if err != nil {
		Logger().Error("encode frame", "error", err)
		return "{}"
	}
	return string(data)
}

// Tick advances point animations to the host timestamp ts (ms) and renders.
func (e *Engine) Tick(ts float64) string {
	e.anims.advance(ts)
	return e.Render()
}

// CompileDrawCommands generates the draw command buffer for the current
// scene: grid, axes, function curves, then elements in store order.
func (e *Engine) CompileDrawCommands() []DrawCommand {
	m := e.mapper()
	var cmds []DrawCommand

	if e.area == scene.AreaGraphing {
		if e.view.GridVisible {
			cmds = appendGrid(cmds, m, e.view.GridMode)
		}
		if e.view.AxesVisible {
			cmds = appendAxes(cmds, m)
		}
		cmds = appendInfo(cmds, m)
	}
	cmds = e.appendCurves(cmds, m)

	viewRect := Rect{Width: e.canvas.Width, Height: e.canvas.Height}
	var selID int64
	if e.selection != nil {
		selID = e.selection.ID
	}
	for _, el := range e.store.All() {
		if !el.Drawable() {
			continue
		}
		if b := elementBounds(el); !b.IsEmpty() && !b.Intersects(viewRect) {
			continue
		}
		cmds = e.appendElement(cmds, el, el.ID == selID)
	}
	return cmds
}

func appendGrid(cmds []DrawCommand, m viewport.Mapper, mode viewport.GridMode) []DrawCommand {
	g := m.Grid(mode)
	w, h := m.Canvas.Width, m.Canvas.Height
	o := m.Origin()

	var minor, major []PathCommand
	for _, l := range g.Vertical {
		seg := []PathCommand{{"M", l.Pixel, 0.0}, {"L", l.Pixel, h}}
		if l.Major {
			major = append(major, seg...)
		} else {
			minor = append(minor, seg...)
		}
	}
	for _, l := range g.Horizontal {
		seg := []PathCommand{{"M", 0.0, l.Pixel}, {"L", w, l.Pixel}}
		if l.Major {
			major = append(major, seg...)
		} else {
			minor = append(minor, seg...)
		}
	}
	if len(minor) > 0 {
		cmds = append(cmds, DrawCommand{Op: "path", Path: minor, Stroke: colorMinorGrid, StrokeWidth: 0.5})
	}
	if len(major) > 0 {
		cmds = append(cmds, DrawCommand{Op: "path", Path: major, Stroke: colorMajorGrid, StrokeWidth: 1})
	}

	for _, l := range g.Vertical {
		if l.Label != "" {
			cmds = append(cmds, text(l.Label, l.Pixel, o.Y+20, fontGrid, colorAxis, "center"))
		}
	}
	for _, l := range g.Horizontal {
		if l.Label != "" {
			cmds = append(cmds, text(l.Label, o.X-10, l.Pixel+4, fontGrid, colorAxis, "right"))
		}
	}
	return cmds
}

func appendAxes(cmds []DrawCommand, m viewport.Mapper) []DrawCommand {
	w, h := m.Canvas.Width, m.Canvas.Height
	o := m.Origin()
	half := arrowSize / 2
	path := []PathCommand{
		{"M", 0.0, o.Y}, {"L", w, o.Y},
		{"M", w - arrowSize, o.Y - half}, {"L", w, o.Y}, {"L", w - arrowSize, o.Y + half},
		{"M", o.X, h}, {"L", o.X, 0.0},
		{"M", o.X - half, arrowSize}, {"L", o.X, 0.0}, {"L", o.X + half, arrowSize},
	}
	return append(cmds,
		DrawCommand{Op: "path", Path: path, Stroke: colorAxis, StrokeWidth: 1},
		text("0", o.X-5, o.Y+15, fontGrid, colorAxis, "right"),
	)
}

func appendInfo(cmds []DrawCommand, m viewport.Mapper) []DrawCommand {
	major := viewport.MajorSpacing(m.PixelsPerUnit())
	return append(cmds,
		text(fmt.Sprintf("Scale: %.2fx", m.View.Scale), 10, 20, fontGrid, colorAxis, "left"),
		text("Grid Unit: "+viewport.FormatTick(major, major), 10, 40, fontGrid, colorAxis, "left"),
	)
}

// appendCurves plots every compiled equation across the visible range. A
// failed sample breaks the polyline.
func (e *Engine) appendCurves(cmds []DrawCommand, m viewport.Mapper) []DrawCommand {
	b := m.Visible()
	width := int(m.Canvas.Width)
	for _, fn := range e.functions() {
		var path []PathCommand
		for s := range fn.Samples(b.XMin, b.XMax, width) {
			px := m.ToPixel(geom.V(s.X, s.Y))
			op := "L"
			if len(path) == 0 || s.Break {
				op = "M"
			}
			path = append(path, PathCommand{op, px.X, px.Y})
		}
		if len(path) < 2 {
			continue
		}
		cmds = append(cmds, DrawCommand{Op: "path", Path: path, Stroke: colorCurve, StrokeWidth: 2})
	}
	return cmds
}

func (e *Engine) appendElement(cmds []DrawCommand, el scene.Element, selected bool) []DrawCommand {
	width := 2.0
	stroke := el.Color
	if selected {
		width = 3
		stroke = scene.ColorSelected
	}

	switch el.Kind {
	case scene.KindPoint:
		r := pointRadius
		if !el.IsTemporary {
			r = e.anims.radius(el.ID)
		}
		cmds = appendDot(cmds, el.ID, el.Pos(), r, el.Color, selected)
		if el.Label != "" {
			cmds = append(cmds, text(el.Label, el.X+labelOffset, el.Y-labelOffset, fontLabel, colorLabel, "left"))
		}

	case scene.KindLine, scene.KindSegment:
		from, to := el.Start.Vec(), el.End.Vec()
		if el.Kind == scene.KindLine {
			from, to = el.ExtendedStart, el.ExtendedEnd
		}
		cmds = append(cmds, DrawCommand{
			Op:          "path",
			ObjectID:    el.ID,
			Path:        []PathCommand{{"M", from.X, from.Y}, {"L", to.X, to.Y}},
			Stroke:      stroke,
			StrokeWidth: width,
		})
		for _, p := range []scene.PointRef{el.Start, el.End} {
			cmds = append(cmds, DrawCommand{Op: "path", ObjectID: el.ID, Path: circlePath(p.Vec(), pointRadius), Fill: scene.ColorPoint})
			if p.Label != "" {
				cmds = append(cmds, text(p.Label, p.X+labelOffset, p.Y-labelOffset, fontLabel, colorLabel, "left"))
			}
		}

	case scene.KindPolygon:
		if len(el.Points) <= 2 {
			break
		}
		path := make([]PathCommand, 0, len(el.Points)+1)
		for i, p := range el.Points {
			op := "L"
			if i == 0 {
				op = "M"
			}
			path = append(path, PathCommand{op, p.X, p.Y})
		}
		path = append(path, PathCommand{"Z"})
		cmd := DrawCommand{
			Op:          "path",
			ObjectID:    el.ID,
			Path:        path,
			Fill:        el.FillColor,
			Stroke:      stroke,
			StrokeWidth: width,
		}
		if el.IsTemporary {
			cmd.Dash = []float64{5, 5}
		}
		cmds = append(cmds, cmd)

	case scene.KindCircle:
		cmds = append(cmds, DrawCommand{
			Op:          "path",
			ObjectID:    el.ID,
			Path:        circlePath(el.Pos(), el.Radius),
			Stroke:      stroke,
			StrokeWidth: width,
		})

	case scene.KindExtremumPoint:
		cmds = append(cmds,
			DrawCommand{Op: "path", ObjectID: el.ID, Path: circlePath(el.Pos(), el.DotSize), Fill: "white", Stroke: colorExtremum, StrokeWidth: 2},
			DrawCommand{Op: "path", ObjectID: el.ID, Path: circlePath(el.Pos(), el.DotSize/2), Fill: colorExtremum},
		)
	}
	return cmds
}

// appendDot draws a point: a halo ring around a filled dot.
func appendDot(cmds []DrawCommand, id int64, c geom.Vec, r float64, color string, selected bool) []DrawCommand {
	halo, haloWidth, fill := colorHalo, 1.5, color
	if selected {
		halo, haloWidth, fill = colorHaloSel, 2, scene.ColorSelected
	}
	if fill == "" {
		fill = scene.ColorPoint
	}
	return append(cmds,
		DrawCommand{Op: "path", ObjectID: id, Path: circlePath(c, haloRadius), Stroke: halo, StrokeWidth: haloWidth},
		DrawCommand{Op: "path", ObjectID: id, Path: circlePath(c, r), Fill: fill},
	)
}

func text(s string, x, y float64, font, fill, align string) DrawCommand {
	return DrawCommand{Op: "text", Text: s, X: x, Y: y, Font: font, Fill: fill, Align: align}
}

// circlePath approximates a circle with four cubic bezier curves.
func circlePath(c geom.Vec, r float64) []PathCommand {
	// Magic number for bezier approximation of a circle
	// k = 4 * (sqrt(2) - 1) / 3 ≈ 0.5522847498
	k := 0.5522847498 * r
	x, y := c.X, c.Y
	return []PathCommand{
		{"M", x + r, y},
		{"C", x + r, y + k, x + k, y + r, x, y + r},
		{"C", x - k, y + r, x - r, y + k, x - r, y},
		{"C", x - r, y - k, x - k, y - r, x, y - r},
		{"C", x + k, y - r, x + r, y - k, x + r, y},
		{"Z"},
	}
}
