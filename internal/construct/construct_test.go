package construct

import (
	"errors"
	"testing"

	"github.com/mathviz/mathviz/backend-go/internal/geom"
	"github.com/mathviz/mathviz/backend-go/internal/scene"
)

func point(id int64, x, y float64, label string) scene.Element {
	p := scene.NewPoint(geom.V(x, y), label, scene.ColorPoint)
	p.ID = id
	return p
}

func TestMidpointOf(t *testing.T) {
	m := MidpointOf(point(1, 0, 0, "A"), point(2, 10, 20, "B"))
	if m.Pos() != geom.V(5, 10) {
		t.Errorf("midpoint = %v, want (5,10)", m.Pos())
	}
	if m.Label != "B" || !m.IsMidpoint || m.Color != scene.ColorMidpoint {
		t.Errorf("midpoint element = %+v", m)
	}
	if len(m.ParentPoints) != 2 || m.ParentPoints[0] != 1 || m.ParentPoints[1] != 2 {
		t.Errorf("parents = %v", m.ParentPoints)
	}
}

func TestExtend(t *testing.T) {
	s, e := Extend(geom.V(10, 10), geom.V(20, 10), 500)
	if s != geom.V(-490, 10) || e != geom.V(510, 10) {
		t.Errorf("Extend = %v, %v", s, e)
	}
	s, e = Extend(geom.V(3, 3), geom.V(3, 3), 500)
	if s != geom.V(3, 3) || e != geom.V(3, 3) {
		t.Errorf("degenerate Extend = %v, %v", s, e)
	}
}

func TestPerpendicular(t *testing.T) {
	deleted := point(1, 0, 0, "A")
	deleted.IsDeleted = true
	els := []scene.Element{deleted, point(2, 100, 200, "B")}

	l, err := Perpendicular(els)
	if err != nil {
		t.Fatal(err)
	}
	if l.Start.Vec() != geom.V(100, 150) || l.End.Vec() != geom.V(100, 250) {
		t.Errorf("endpoints = %v, %v", l.Start, l.End)
	}
	if l.ExtendedStart != geom.V(100, -800) || l.ExtendedEnd != geom.V(100, 1200) {
		t.Errorf("extended = %v, %v", l.ExtendedStart, l.ExtendedEnd)
	}
	if l.Start.Label != "C" || l.End.Label != "D" {
		t.Errorf("labels = %q, %q", l.Start.Label, l.End.Label)
	}
	if l.Color != scene.ColorConstruct {
		t.Errorf("color = %q", l.Color)
	}
}

func TestParallel(t *testing.T) {
	src := scene.NewLine(
		scene.PointRef{X: 0, Y: 0, Label: "A"},
		scene.PointRef{X: 100, Y: 0, Label: "B"},
		geom.V(-1000, 0), geom.V(1000, 0), scene.ColorLine)

	l, err := Parallel([]scene.Element{src})
	if err != nil {
		t.Fatal(err)
	}
	if l.Start.Vec() != geom.V(0, 50) || l.End.Vec() != geom.V(100, 50) {
		t.Errorf("shifted endpoints = %v, %v", l.Start, l.End)
	}
	if l.ExtendedStart != geom.V(-1000, 50) || l.ExtendedEnd != geom.V(1100, 50) {
		t.Errorf("extended = %v, %v", l.ExtendedStart, l.ExtendedEnd)
	}
}

func TestAngleBisector(t *testing.T) {
	l, err := AngleBisector([]scene.Element{point(1, 0, 0, "A"), point(2, 0, 10, "B"), point(3, 5, 5, "C")})
	if err != nil {
		t.Fatal(err)
	}
	if l.Start.Vec() != geom.V(0, 0) || l.End.Vec() != geom.V(0, 10) {
		t.Errorf("through = %v, %v", l.Start, l.End)
	}
	if l.ExtendedStart != geom.V(0, -1000) || l.ExtendedEnd != geom.V(0, 1010) {
		t.Errorf("extended = %v, %v", l.ExtendedStart, l.ExtendedEnd)
	}
}

func TestTangents(t *testing.T) {
	c := scene.NewCircle(geom.V(50, 50), 20)
	lines, err := Tangents([]scene.Element{c})
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	for i, wantY := range []float64{30, 70} {
		l := lines[i]
		if l.Start.Y != wantY || l.End.Y != wantY {
			t.Errorf("line %d at y=%v/%v, want %v", i, l.Start.Y, l.End.Y, wantY)
		}
		if l.ExtendedStart != geom.V(-950, wantY) || l.ExtendedEnd != geom.V(1050, wantY) {
			t.Errorf("line %d extended = %v, %v", i, l.ExtendedStart, l.ExtendedEnd)
		}
		if l.End.X-l.Start.X != 100 {
			t.Errorf("line %d reference point not 100px right", i)
		}
	}
}

func TestPreconditions(t *testing.T) {
	tmp := point(1, 0, 0, "A")
	tmp.IsTemporary = true
	onlyTemp := []scene.Element{tmp}
	degenerate := scene.NewLine(scene.PointRef{X: 1, Y: 1}, scene.PointRef{X: 1, Y: 1}, geom.Vec{}, geom.Vec{}, "")

	tests := []struct {
		name string
		run  func() error
		want error
		msg  string
	}{
		{"perpendicular", func() error { _, err := Perpendicular(onlyTemp); return err }, ErrNoPoint,
			"Please create a point first to draw a perpendicular line."},
		{"parallel", func() error { _, err := Parallel([]scene.Element{degenerate}); return err }, ErrNoLine,
			"Please create a line first to draw a parallel line."},
		{"bisector", func() error { _, err := AngleBisector([]scene.Element{point(1, 0, 0, "A")}); return err }, ErrNeedTwoPoints,
			"Please create at least two points to draw an angle bisector."},
		{"tangents", func() error { _, err := Tangents(nil); return err }, ErrNoCircle,
			"Please create a circle first to draw tangent lines."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if got := Message(err); got != tt.msg {
				t.Errorf("Message = %q", got)
			}
		})
	}
}
