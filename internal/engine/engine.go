// Package engine is the interactive geometry canvas: it turns pointer input
// into scene elements through per-tool gestures, owns selection and the
// viewport, and compiles the scene into draw commands for a host to paint.
//
// An Engine is not safe for concurrent use; hosts serialize calls. Only
// LastFrame may be read from other goroutines.
package engine

import (
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mathviz/mathviz/backend-go/internal/geom"
	"github.com/mathviz/mathviz/backend-go/internal/plot"
	"github.com/mathviz/mathviz/backend-go/internal/scene"
	"github.com/mathviz/mathviz/backend-go/internal/viewport"
)

// Options configures a new Engine.
type Options struct {
	Area          scene.Area
	Canvas        viewport.Size
	BaseGridScale float64
	SnapToGrid    bool
	Notifier      Notifier
}

// DefaultOptions returns a graphing canvas of 1200x800 at 50 px per unit.
func DefaultOptions() Options {
	return Options{
		Area:          scene.AreaGraphing,
		Canvas:        viewport.Size{Width: 1200, Height: 800},
		BaseGridScale: viewport.DefaultBaseGridScale,
	}
}

// MenuKind distinguishes the element menu from the extremum tooltip.
type MenuKind string

const (
	MenuElement  MenuKind = "element"
	MenuExtremum MenuKind = "extremum"
)

// ContextMenu is the state of the canvas popup.
type ContextMenu struct {
	Visible    bool      `json:"visible"`
	Kind       MenuKind  `json:"type,omitempty"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	ShowColors bool      `json:"showColors,omitempty"`
	Point      *geom.Vec `json:"point,omitempty"`
}

// Engine owns one canvas.
type Engine struct {
	area      scene.Area
	store     *scene.Store
	view      viewport.ViewState
	canvas    viewport.Size
	baseScale float64

	tool        Tool
	state       ToolState
	activeColor string

	// Selection is a copy; edits keep it in step with the store.
	selection *scene.Element
	menu      ContextMenu
	prompt    string

	equations []string
	plots     *plot.Cache
	table     []scene.TablePoint

	anims *animator
	drag  dragState

	notifier Notifier
	rev      uint64

	lastFrame atomic.Pointer[Frame]
}

// New creates an engine with an empty scene.
func New(opts Options) *Engine {
	if !opts.Area.Valid() {
		opts.Area = scene.AreaGraphing
	}
	if size, ok := opts.Canvas.Clamped(); ok {
		opts.Canvas = size
	} else {
		opts.Canvas = DefaultOptions().Canvas
	}
	if opts.BaseGridScale <= 0 {
		opts.BaseGridScale = viewport.DefaultBaseGridScale
	}
	if opts.Notifier == nil {
		opts.Notifier = logNotifier{}
	}

	view := viewport.DefaultView()
	view.SnapToGrid = opts.SnapToGrid
	if opts.Area == scene.AreaGeometry {
		view.GridVisible = false
		view.GridMode = viewport.GridNone
		view.AxesVisible = false
	}

	return &Engine{
		area:        opts.Area,
		store:       scene.NewStore(),
		view:        view,
		canvas:      opts.Canvas,
		baseScale:   opts.BaseGridScale,
		state:       Idle{},
		activeColor: scene.ColorPoint,
		plots:       plot.NewCache(),
		anims:       newAnimator(),
		notifier:    opts.Notifier,
	}
}

// SetNotifier replaces the notifier.
func (e *Engine) SetNotifier(n Notifier) {
	if n == nil {
		n = logNotifier{}
	}
	e.notifier = n
}

// Close cancels running animations and discards any unfinished gesture.
func (e *Engine) Close() {
	e.anims.cancelAll()
	e.discardGesture()
}

func (e *Engine) changed() {
	e.rev++
}

// mapper returns the coordinate mapper for the current view. The geometry
// area plots at a fixed 50 px per unit around the canvas center.
func (e *Engine) mapper() viewport.Mapper {
	if e.area == scene.AreaGeometry {
		return viewport.NewMapper(viewport.ViewState{Scale: 1}, e.canvas, viewport.DefaultBaseGridScale)
	}
	return viewport.NewMapper(e.view, e.canvas, e.baseScale)
}

// pannable reports whether the area supports pan and zoom.
func (e *Engine) pannable() bool {
	return e.area == scene.AreaGraphing
}

// --- View commands ---

// Resize sets the canvas size in pixels, each side capped at
// viewport.MaxSide. Non-positive sizes are ignored.
func (e *Engine) Resize(width, height float64) {
	size, ok := viewport.Size{Width: width, Height: height}.Clamped()
	if !ok {
		return
	}
	e.canvas = size
	e.reproject()
}

// Wheel zooms around the cursor. Positive deltaY zooms out.
func (e *Engine) Wheel(deltaY, x, y float64) {
	if !e.pannable() {
		return
	}
	e.view = e.view.Zoom(deltaY, geom.V(x, y), e.canvas)
	e.reproject()
}

// ZoomIn applies the zoom-in button.
func (e *Engine) ZoomIn() {
	if !e.pannable() {
		return
	}
	e.view = e.view.ZoomIn()
	e.reproject()
}

// ZoomOut applies the zoom-out button.
func (e *Engine) ZoomOut() {
	if !e.pannable() {
		return
	}
	e.view = e.view.ZoomOut()
	e.reproject()
}

// SetGridMode selects the grid. GridNone hides it.
func (e *Engine) SetGridMode(mode viewport.GridMode) {
	switch mode {
	case viewport.GridNone:
		e.view.GridVisible = false
	case viewport.GridMajor, viewport.GridMajorMinor:
		e.view.GridVisible = true
	default:
		return
	}
	e.view.GridMode = mode
}

func (e *Engine) SetAxesVisible(visible bool) {
	e.view.AxesVisible = visible
}

func (e *Engine) SetSnapToGrid(snap bool) {
	e.view.SnapToGrid = snap
}

// SetView replaces the pan and zoom.
func (e *Engine) SetView(pan geom.Vec, scale float64) {
	if !e.pannable() {
		return
	}
	e.view.PanOffset = pan
	e.view.Scale = viewport.ClampScale(scale)
	e.reproject()
}

// SetActiveColor sets the color used for new points and point recoloring.
func (e *Engine) SetActiveColor(color string) {
	if color == "" {
		color = scene.ColorPoint
	}
	e.activeColor = color
}

// --- Documents ---

// LoadDocument replaces the scene with a saved document. A document from a
// different area is rejected with a notice and nothing changes.
func (e *Engine) LoadDocument(doc *scene.Document) error {
	if err := doc.CheckArea(e.area); err != nil {
		e.notify(err.Error())
		return err
	}

	e.anims.cancelAll()
	e.state = Idle{}
	e.selection = nil
	e.menu = ContextMenu{}
	e.prompt = ""
	e.drag = dragState{}

	e.store.Load(doc.Shapes)
	e.SetEquations(doc.EquationValues())
	if doc.View != nil && e.pannable() {
		e.view.PanOffset = doc.View.PanOffset
		e.view.Scale = viewport.ClampScale(doc.View.Scale)
	}
	e.SetTablePoints(doc.Points)
	e.changed()
	return nil
}

// LoadDocumentJSON parses and loads a document.
func (e *Engine) LoadDocumentJSON(data string) error {
	doc, err := scene.Decode(strings.NewReader(data))
	if err != nil {
		e.notify(msgInvalidFile)
		return err
	}
	return e.LoadDocument(doc)
}

// LoadSampleDocument loads the built-in starter document for the area.
func (e *Engine) LoadSampleDocument() {
	if err := e.LoadDocument(scene.NewSampleDocument(e.area)); err != nil {
		Logger().Error("load sample document", "error", err)
	}
}

// Document returns the saveable state. Derived elements (temporary gesture
// elements, table points and extremum markers) are left out.
func (e *Engine) Document() *scene.Document {
	doc := scene.NewEmptyDocument(e.area)
	for _, eq := range e.equations {
		doc.Equations = append(doc.Equations, scene.Equation{Value: eq})
	}
	doc.Points = append(doc.Points, e.table...)
	for _, el := range e.store.All() {
		if el.IsTemporary || el.Kind == scene.KindExtremumPoint || isTableKey(el.Key) {
			continue
		}
		doc.Shapes = append(doc.Shapes, el.Clone())
	}
	if e.pannable() {
		doc.View = &scene.ViewInfo{PanOffset: e.view.PanOffset, Scale: e.view.Scale}
	}
	doc.Timestamp = time.Now().UTC()
	return doc
}

// DocumentJSON returns Document as JSON.
func (e *Engine) DocumentJSON() string {
	data, err := json.Marshal(e.Document())
	if err != nil {
		return "{}"
	}
	return string(data)
}

// --- Queries ---

func (e *Engine) Area() scene.Area                { return e.area }
func (e *Engine) Tool() Tool                      { return e.tool }
func (e *Engine) State() ToolState                { return e.state }
func (e *Engine) View() viewport.ViewState        { return e.view }
func (e *Engine) Canvas() viewport.Size           { return e.canvas }
func (e *Engine) Menu() ContextMenu               { return e.menu }
func (e *Engine) Equations() []string             { return e.equations }
func (e *Engine) Elements() []scene.Element       { return e.store.All() }
func (e *Engine) Store() *scene.Store             { return e.store }
func (e *Engine) TablePoints() []scene.TablePoint { return e.table }

// Selection returns the selected element.
func (e *Engine) Selection() (scene.Element, bool) {
	if e.selection == nil {
		return scene.Element{}, false
	}
	return *e.selection, true
}

// Revision changes whenever saveable state changes.
func (e *Engine) Revision() uint64 {
	return e.store.Version() + e.rev
}

// ToModel maps a canvas pixel to model coordinates under the current view.
func (e *Engine) ToModel(x, y float64) geom.Vec {
	return e.mapper().ToModel(geom.V(x, y))
}

// ToPixel maps model coordinates to a canvas pixel under the current view.
func (e *Engine) ToPixel(x, y float64) geom.Vec {
	return e.mapper().ToPixel(geom.V(x, y))
}

// SelectionJSON returns the selected element as JSON, or "null".
func (e *Engine) SelectionJSON() string {
	if e.selection == nil {
		return "null"
	}
	data, err := json.Marshal(e.selection)
	if err != nil {
		return "null"
	}
	return string(data)
}
