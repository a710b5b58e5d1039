// Package scene holds the drawn elements of a canvas and the versioned store
// that owns them.
package scene

import (
	"slices"

	"github.com/mathviz/mathviz/backend-go/internal/geom"
)

type Kind string

const (
	KindPoint         Kind = "Point"
	KindLine          Kind = "Line"
	KindSegment       Kind = "Segment"
	KindPolygon       Kind = "Polygon"
	KindCircle        Kind = "Circle"
	KindExtremumPoint Kind = "ExtremumPoint"
)

// Default colors per element kind.
const (
	ColorPoint       = "#2196F3"
	ColorLine        = "#000000"
	ColorSegment     = "#4CAF50"
	ColorPolygon     = "#9C27B0"
	ColorPolygonFill = "rgba(156, 39, 176, 0.2)"
	ColorCircle      = "#FF5722"
	ColorMidpoint    = "#FF4444"
	ColorConstruct   = "blue"
	ColorSelected    = "#ff4444"
)

// PointRef is a copy of a point's position and label taken when a dependent
// element was built. It does not follow later moves of the point.
type PointRef struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label,omitempty"`
}

func (p PointRef) Vec() geom.Vec { return geom.Vec{X: p.X, Y: p.Y} }

// Ref snapshots a point element.
func Ref(e Element) PointRef {
	return PointRef{X: e.X, Y: e.Y, Label: e.Label}
}

// Element is one drawn object. Kind selects which fields are meaningful:
//
//	Point          X, Y, Label, Color, IsMidpoint, ParentPoints
//	Line           Start, End, ExtendedStart, ExtendedEnd, Color
//	Segment        Start, End, Color
//	Polygon        Points, Color, FillColor, Label
//	Circle         X, Y, Radius, Color
//	ExtremumPoint  X, Y (pixels), RealX, RealY (model), DotSize
//
// Positions are canvas pixels. Table points also carry their model position
// in Model so they can be re-projected.
type Element struct {
	ID   int64  `json:"id"`
	Key  string `json:"key,omitempty"`
	Kind Kind   `json:"type"`

	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius,omitzero"`

	Label     string `json:"label,omitempty"`
	Color     string `json:"color,omitempty"`
	FillColor string `json:"fillColor,omitempty"`

	Start         PointRef   `json:"start,omitzero"`
	End           PointRef   `json:"end,omitzero"`
	ExtendedStart geom.Vec   `json:"extendedStart,omitzero"`
	ExtendedEnd   geom.Vec   `json:"extendedEnd,omitzero"`
	Points        []PointRef `json:"points,omitempty"`

	RealX   float64 `json:"realX,omitzero"`
	RealY   float64 `json:"realY,omitzero"`
	DotSize float64 `json:"dotSize,omitzero"`

	Model geom.Vec `json:"model,omitzero"`

	IsMidpoint   bool    `json:"isMidpoint,omitempty"`
	ParentPoints []int64 `json:"parentPoints,omitempty"`

	IsDeleted   bool `json:"isDeleted"`
	IsTemporary bool `json:"isTemporary,omitempty"`
	IsHidden    bool `json:"isHidden,omitempty"`
}

// Pos returns the element's anchor position.
func (e Element) Pos() geom.Vec { return geom.Vec{X: e.X, Y: e.Y} }

// Live reports whether the element takes part in hit tests and constructions.
func (e Element) Live() bool { return !e.IsDeleted && !e.IsTemporary }

// Drawable reports whether the element should be painted.
func (e Element) Drawable() bool { return !e.IsDeleted && !e.IsHidden }

// Clone returns a deep copy.
func (e Element) Clone() Element {
	e.Points = slices.Clone(e.Points)
	e.ParentPoints = slices.Clone(e.ParentPoints)
	return e
}

// Equal reports whether two elements hold the same data.
func (e Element) Equal(o Element) bool {
	return e.ID == o.ID && e.Key == o.Key && e.Kind == o.Kind &&
		e.X == o.X && e.Y == o.Y && e.Radius == o.Radius &&
		e.Label == o.Label && e.Color == o.Color && e.FillColor == o.FillColor &&
		e.Start == o.Start && e.End == o.End &&
		e.ExtendedStart == o.ExtendedStart && e.ExtendedEnd == o.ExtendedEnd &&
		e.RealX == o.RealX && e.RealY == o.RealY && e.DotSize == o.DotSize &&
		e.Model == o.Model && e.IsMidpoint == o.IsMidpoint &&
		e.IsDeleted == o.IsDeleted && e.IsTemporary == o.IsTemporary && e.IsHidden == o.IsHidden &&
		slices.Equal(e.Points, o.Points) && slices.Equal(e.ParentPoints, o.ParentPoints)
}

func NewPoint(pos geom.Vec, label, color string) Element {
	return Element{Kind: KindPoint, X: pos.X, Y: pos.Y, Label: label, Color: color}
}

func NewSegment(start, end PointRef, color string) Element {
	return Element{Kind: KindSegment, Start: start, End: end, Color: color}
}

func NewLine(start, end PointRef, extStart, extEnd geom.Vec, color string) Element {
	return Element{
		Kind:          KindLine,
		Start:         start,
		End:           end,
		ExtendedStart: extStart,
		ExtendedEnd:   extEnd,
		Color:         color,
	}
}

func NewPolygon(points []PointRef, label, color string) Element {
	return Element{
		Kind:      KindPolygon,
		Points:    slices.Clone(points),
		Label:     label,
		Color:     color,
		FillColor: ColorPolygonFill,
	}
}

func NewCircle(center geom.Vec, radius float64) Element {
	return Element{Kind: KindCircle, X: center.X, Y: center.Y, Radius: radius, Color: ColorCircle}
}

// ExtremumDotSize is the marker radius, and its click radius.
const ExtremumDotSize = 6.0

// NewExtremum builds a marker drawn at pixel and reporting model coordinates.
func NewExtremum(pixel, model geom.Vec) Element {
	return Element{
		Kind:    KindExtremumPoint,
		X:       pixel.X,
		Y:       pixel.Y,
		RealX:   model.X,
		RealY:   model.Y,
		DotSize: ExtremumDotSize,
	}
}

// Predicates shared by store queries.

func IsKind(k Kind) func(Element) bool {
	return func(e Element) bool { return e.Kind == k }
}

func IsTemporary(e Element) bool { return e.IsTemporary }

func IsLive(e Element) bool { return e.Live() }

func IsLiveKind(k Kind) func(Element) bool {
	return func(e Element) bool { return e.Kind == k && e.Live() }
}
