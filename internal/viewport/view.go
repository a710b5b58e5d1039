// Package viewport maps between model (mathematical) coordinates and canvas
// pixels for a pannable, zoomable view, and lays out the adaptive grid.
package viewport

import (
	"math"

	"github.com/mathviz/mathviz/backend-go/internal/geom"
)

const (
	// DefaultBaseGridScale is the number of pixels per model unit at scale 1.
	DefaultBaseGridScale = 50.0

	MinScale = 0.01
	MaxScale = 50.0

	zoomOutFactor = 0.9
	zoomInFactor  = 1.1
)

// GridMode selects which grid lines are drawn.
type GridMode string

const (
	GridNone       GridMode = "none"
	GridMajor      GridMode = "major"
	GridMajorMinor GridMode = "major-minor"
)

// ViewState is the pan/zoom and grid presentation state of a canvas.
type ViewState struct {
	PanOffset   geom.Vec `json:"panOffset"`
	Scale       float64  `json:"scale"`
	GridVisible bool     `json:"gridVisible"`
	GridMode    GridMode `json:"gridMode"`
	AxesVisible bool     `json:"axesVisible"`
	SnapToGrid  bool     `json:"snapToGrid"`
}

// DefaultView returns the view a fresh graph canvas starts with.
func DefaultView() ViewState {
	return ViewState{
		Scale:       1,
		GridVisible: true,
		GridMode:    GridMajorMinor,
		AxesVisible: true,
	}
}

// MaxSide bounds either canvas dimension.
const MaxSide = 8192

// Size is a canvas size in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Clamped limits both sides to MaxSide. ok is false when a side is not a
// positive number.
func (s Size) Clamped() (Size, bool) {
	if !(s.Width > 0) || !(s.Height > 0) {
		return Size{}, false
	}
	return Size{Width: min(s.Width, MaxSide), Height: min(s.Height, MaxSide)}, true
}

// Diagonal returns the length of the canvas diagonal.
func (s Size) Diagonal() float64 {
	return math.Hypot(s.Width, s.Height)
}

// Center returns the canvas center pixel.
func (s Size) Center() geom.Vec {
	return geom.Vec{X: s.Width / 2, Y: s.Height / 2}
}

// ClampScale limits a zoom scale to [MinScale, MaxScale].
func ClampScale(s float64) float64 {
	return min(max(s, MinScale), MaxScale)
}

// Zoom applies one wheel step. A positive deltaY zooms out. The pan offset is
// adjusted so the model point under cursor stays at the same pixel.
func (v ViewState) Zoom(deltaY float64, cursor geom.Vec, canvas Size) ViewState {
	factor := zoomInFactor
	if deltaY > 0 {
		factor = zoomOutFactor
	}
	newScale := ClampScale(v.Scale * factor)
	if newScale == v.Scale || v.Scale == 0 {
		return v
	}

	ratio := newScale / v.Scale
	rel := cursor.Sub(canvas.Center()).Sub(v.PanOffset)
	v.PanOffset = cursor.Sub(canvas.Center()).Sub(rel.Mul(ratio))
	v.Scale = newScale
	return v
}

// Zoom buttons step by 1.2 within a narrower range than the wheel and do not
// move the pan offset.
const (
	buttonZoomStep = 1.2
	buttonZoomMin  = 0.2
	buttonZoomMax  = 5.0
)

// ZoomIn applies one zoom-in button press.
func (v ViewState) ZoomIn() ViewState {
	v.Scale = min(v.Scale*buttonZoomStep, buttonZoomMax)
	return v
}

// ZoomOut applies one zoom-out button press.
func (v ViewState) ZoomOut() ViewState {
	v.Scale = max(v.Scale/buttonZoomStep, buttonZoomMin)
	return v
}

// PanBy shifts the view by a pixel-space drag delta.
func (v ViewState) PanBy(delta geom.Vec) ViewState {
	v.PanOffset = v.PanOffset.Add(delta)
	return v
}

// Mapper converts between model and pixel coordinates for one view and
// canvas size. It is a value; build a new one whenever either changes.
type Mapper struct {
	View          ViewState
	Canvas        Size
	BaseGridScale float64
}

// NewMapper builds a mapper. A non-positive base scale falls back to
// DefaultBaseGridScale.
func NewMapper(view ViewState, canvas Size, baseGridScale float64) Mapper {
	if baseGridScale <= 0 {
		baseGridScale = DefaultBaseGridScale
	}
	if view.Scale <= 0 {
		view.Scale = 1
	}
	return Mapper{View: view, Canvas: canvas, BaseGridScale: baseGridScale}
}

// PixelsPerUnit returns the current model→pixel scale factor.
func (m Mapper) PixelsPerUnit() float64 {
	return m.BaseGridScale * m.View.Scale
}

// Origin returns the pixel position of model (0,0).
func (m Mapper) Origin() geom.Vec {
	return m.Canvas.Center().Add(m.View.PanOffset)
}

// Matrix returns the model→pixel affine transform (y flipped).
func (m Mapper) Matrix() Matrix2D {
	o := m.Origin()
	ppu := m.PixelsPerUnit()
	return Translate(o.X, o.Y).Multiply(Scale(ppu, -ppu))
}

// ToPixel maps a model point to canvas pixels.
func (m Mapper) ToPixel(p geom.Vec) geom.Vec {
	return m.Matrix().Apply(p)
}

// ToModel maps a canvas pixel to model coordinates.
func (m Mapper) ToModel(px geom.Vec) geom.Vec {
	return m.Matrix().Invert().Apply(px)
}

// Bounds is a model-space rectangle.
type Bounds struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Visible returns the model-space rectangle covered by the canvas.
func (m Mapper) Visible() Bounds {
	topLeft := m.ToModel(geom.Vec{})
	bottomRight := m.ToModel(geom.Vec{X: m.Canvas.Width, Y: m.Canvas.Height})
	return Bounds{
		XMin: topLeft.X,
		XMax: bottomRight.X,
		YMin: bottomRight.Y,
		YMax: topLeft.Y,
	}
}

// Snap moves a pixel position onto the nearest minor grid intersection.
func (m Mapper) Snap(px geom.Vec) geom.Vec {
	spacing := MinorSpacing(MajorSpacing(m.PixelsPerUnit()))
	p := m.ToModel(px)
	p.X = math.Round(p.X/spacing) * spacing
	p.Y = math.Round(p.Y/spacing) * spacing
	return m.ToPixel(p)
}
