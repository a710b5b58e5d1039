package scene

import (
	"time"

	"github.com/mathviz/mathviz/backend-go/internal/geom"
)

// NewEmptyDocument creates an empty document for a new scene.
func NewEmptyDocument(area Area) *Document {
	return &Document{
		Type:      area,
		Equations: []Equation{},
		Timestamp: time.Now().UTC(),
	}
}

// NewSampleDocument creates a starter document: a sine curve on the graphing
// area, or a labelled triangle with one circle on the geometry area.
func NewSampleDocument(area Area) *Document {
	d := NewEmptyDocument(area)

	switch area {
	case AreaGraphing:
		d.Equations = []Equation{{Value: "sin(x)"}}
		d.Points = []TablePoint{{X: 1, Y: 1}, {X: 2, Y: 4}, {X: 3, Y: 9}}

	case AreaGeometry:
		a := PointRef{X: 300, Y: 500, Label: "A"}
		b := PointRef{X: 600, Y: 500, Label: "B"}
		c := PointRef{X: 450, Y: 240, Label: "C"}

		var shapes []Element
		for _, p := range []PointRef{a, b, c} {
			shapes = append(shapes, NewPoint(p.Vec(), p.Label, ColorPoint))
		}
		shapes = append(shapes,
			NewSegment(a, b, ColorSegment),
			NewSegment(b, c, ColorSegment),
			NewSegment(c, a, ColorSegment),
			NewCircle(geom.V(850, 400), 100),
		)
		for i := range shapes {
			shapes[i].ID = int64(i + 1)
		}
		d.Shapes = shapes

	case Area3D:
		d.Equations = []Equation{{Value: "sin(x) * cos(y)"}}
	}
	return d
}
