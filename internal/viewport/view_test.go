package viewport

import (
	"math"
	"testing"

	"github.com/mathviz/mathviz/backend-go/internal/geom"
)

var canvas = Size{Width: 800, Height: 600}

func TestRoundTrip(t *testing.T) {
	views := []ViewState{
		DefaultView(),
		{Scale: 0.01, PanOffset: geom.V(-300, 120)},
		{Scale: 50, PanOffset: geom.V(17.5, -4)},
		{Scale: 3.3, PanOffset: geom.V(1000, 1000)},
	}
	points := []geom.Vec{geom.V(0, 0), geom.V(1.5, -2.25), geom.V(-1234.5, 987.25), geom.V(1e-3, 1e3)}

	for _, v := range views {
		m := NewMapper(v, canvas, DefaultBaseGridScale)
		for _, p := range points {
			got := m.ToModel(m.ToPixel(p))
			tol := 1e-9 * max(1, math.Abs(p.X), math.Abs(p.Y))
			if !geom.ApproxEqual(got, p, tol) {
				t.Errorf("scale %v: round trip of %v = %v", v.Scale, p, got)
			}
		}
	}
}

func TestToPixelOriginAndFlip(t *testing.T) {
	m := NewMapper(ViewState{Scale: 1, PanOffset: geom.V(10, -20)}, canvas, 50)
	if got := m.ToPixel(geom.V(0, 0)); got != geom.V(410, 280) {
		t.Errorf("origin pixel = %v, want (410,280)", got)
	}
	if got := m.ToPixel(geom.V(1, 1)); got != geom.V(460, 230) {
		t.Errorf("(1,1) pixel = %v, want (460,230)", got)
	}
}

func TestZoomClamp(t *testing.T) {
	v := ViewState{Scale: MaxScale}
	if got := v.Zoom(-1, geom.V(400, 300), canvas); got.Scale != MaxScale {
		t.Errorf("zoom in past max: scale = %v", got.Scale)
	}
	v = ViewState{Scale: MinScale}
	if got := v.Zoom(1, geom.V(400, 300), canvas); got.Scale != MinScale {
		t.Errorf("zoom out past min: scale = %v", got.Scale)
	}
}

func TestZoomKeepsCursorFixed(t *testing.T) {
	tests := []struct {
		name   string
		deltaY float64
		cursor geom.Vec
	}{
		{"in at corner", -100, geom.V(10, 20)},
		{"out at center-right", 100, geom.V(700, 300)},
		{"in at center", -1, geom.V(400, 300)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := ViewState{Scale: 2, PanOffset: geom.V(35, -12)}
			anchor := NewMapper(before, canvas, 50).ToModel(tt.cursor)

			after := before.Zoom(tt.deltaY, tt.cursor, canvas)
			got := NewMapper(after, canvas, 50).ToPixel(anchor)
			if !geom.ApproxEqual(got, tt.cursor, 1e-9) {
				t.Errorf("cursor moved: %v -> %v", tt.cursor, got)
			}
		})
	}
}

func TestZoomFactors(t *testing.T) {
	v := ViewState{Scale: 1}
	if got := v.Zoom(1, geom.Vec{}, canvas).Scale; math.Abs(got-0.9) > 1e-12 {
		t.Errorf("zoom out scale = %v, want 0.9", got)
	}
	if got := v.Zoom(-1, geom.Vec{}, canvas).Scale; math.Abs(got-1.1) > 1e-12 {
		t.Errorf("zoom in scale = %v, want 1.1", got)
	}
}

func TestZoomButtons(t *testing.T) {
	v := ViewState{Scale: 4.5, PanOffset: geom.V(3, 3)}
	if got := v.ZoomIn(); got.Scale != 5 || got.PanOffset != v.PanOffset {
		t.Errorf("ZoomIn = %+v", got)
	}
	v.Scale = 0.22
	if got := v.ZoomOut(); got.Scale != 0.2 {
		t.Errorf("ZoomOut scale = %v, want 0.2", got.Scale)
	}
}

func TestPanBy(t *testing.T) {
	v := DefaultView().PanBy(geom.V(5, -7)).PanBy(geom.V(1, 1))
	if v.PanOffset != geom.V(6, -6) {
		t.Errorf("pan offset = %v", v.PanOffset)
	}
}

func TestVisible(t *testing.T) {
	m := NewMapper(DefaultView(), canvas, 50)
	b := m.Visible()
	want := Bounds{XMin: -8, XMax: 8, YMin: -6, YMax: 6}
	for _, pair := range [][2]float64{{b.XMin, want.XMin}, {b.XMax, want.XMax}, {b.YMin, want.YMin}, {b.YMax, want.YMax}} {
		if math.Abs(pair[0]-pair[1]) > 1e-9 {
			t.Fatalf("visible = %+v, want %+v", b, want)
		}
	}
}

func TestSnap(t *testing.T) {
	m := NewMapper(DefaultView(), canvas, 50)
	// major spacing 1, minor 0.2 → 10px
	got := m.Snap(geom.V(413, 296))
	if !geom.ApproxEqual(got, geom.V(410, 300), 1e-9) {
		t.Errorf("Snap = %v, want (410,300)", got)
	}
}

func TestSizeClamped(t *testing.T) {
	tests := []struct {
		name   string
		in     Size
		want   Size
		wantOK bool
	}{
		{"ordinary", Size{Width: 1200, Height: 800}, Size{Width: 1200, Height: 800}, true},
		{"huge", Size{Width: 1e9, Height: 600}, Size{Width: MaxSide, Height: 600}, true},
		{"infinite", Size{Width: 800, Height: math.Inf(1)}, Size{Width: 800, Height: MaxSide}, true},
		{"zero", Size{Width: 0, Height: 600}, Size{}, false},
		{"negative", Size{Width: 800, Height: -1}, Size{}, false},
		{"nan", Size{Width: math.NaN(), Height: 600}, Size{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.in.Clamped()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Clamped() = %+v, %v, want %+v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
