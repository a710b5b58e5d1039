package render

import (
	"bytes"
	"errors"
	"image/png"
	"testing"

	"github.com/gogpu/gg"

	"github.com/mathviz/mathviz/backend-go/internal/engine"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func square(fill string) engine.DrawCommand {
	return engine.DrawCommand{
		Op: "path",
		Path: []engine.PathCommand{
			{"M", 10.0, 10.0}, {"L", 90.0, 10.0}, {"L", 90.0, 90.0}, {"L", 10.0, 90.0}, {"Z"},
		},
		Fill: fill,
	}
}

func TestDrawFill(t *testing.T) {
	r := newRenderer(t)
	img, err := r.Draw(&engine.Frame{
		Width: 100, Height: 100, Background: "#ffffff",
		Commands: []engine.DrawCommand{square("rgb(255, 0, 0)")},
	})
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("bounds = %v", b)
	}

	tests := []struct {
		name    string
		x, y    int
		r, g, b uint32
	}{
		{"inside", 50, 50, 0xffff, 0, 0},
		{"background", 2, 2, 0xffff, 0xffff, 0xffff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, _ := img.At(tt.x, tt.y).RGBA()
			if r != tt.r || g != tt.g || b != tt.b {
				t.Errorf("pixel (%d,%d) = %x,%x,%x", tt.x, tt.y, r, g, b)
			}
		})
	}
}

func TestDrawRejectsBadSize(t *testing.T) {
	r := newRenderer(t)
	for _, f := range []*engine.Frame{
		{Width: 0, Height: 10},
		{Width: 10, Height: -1},
		{Width: MaxSide + 1, Height: 10},
	} {
		if _, err := r.Draw(f); !errors.Is(err, ErrBadSize) {
			t.Errorf("Draw(%vx%v) error = %v", f.Width, f.Height, err)
		}
	}
}

func TestDrawSkipsMalformedPath(t *testing.T) {
	r := newRenderer(t)
	bad := engine.DrawCommand{Op: "path", Path: []engine.PathCommand{{"Q", 1.0}}, Fill: "red"}
	img, err := r.Draw(&engine.Frame{Width: 20, Height: 20, Commands: []engine.DrawCommand{bad}})
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if r, g, b, _ := img.At(10, 10).RGBA(); r != 0xffff || g != 0xffff || b != 0xffff {
		t.Errorf("malformed path painted: %x,%x,%x", r, g, b)
	}
}

func TestEncodePNGWithText(t *testing.T) {
	r := newRenderer(t)
	f := &engine.Frame{
		Width: 120, Height: 40, Background: "white",
		Commands: []engine.DrawCommand{
			{Op: "text", Text: "A", X: 10, Y: 20, Font: "14px Arial", Fill: "black", Align: "left"},
			{Op: "text", Text: "0", X: 60, Y: 20, Font: "12px Arial", Fill: "#666666", Align: "right"},
			{Op: "path", Path: []engine.PathCommand{{"M", 0.0, 30.0}, {"L", 120.0, 30.0}}, Stroke: "blue", StrokeWidth: 2, Dash: []float64{5, 5}},
		},
	}
	var buf bytes.Buffer
	if err := r.EncodePNG(&buf, f); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 40 {
		t.Errorf("bounds = %v", b)
	}
}

func TestFontSize(t *testing.T) {
	tests := []struct {
		font string
		want float64
	}{
		{"14px Arial", 14},
		{"bold 18px sans-serif", 18},
		{"Arial", defaultFontSize},
		{"", defaultFontSize},
		{"-3px Arial", defaultFontSize},
	}
	for _, tt := range tests {
		t.Run(tt.font, func(t *testing.T) {
			if got := FontSize(tt.font); got != tt.want {
				t.Errorf("FontSize(%q) = %v, want %v", tt.font, got, tt.want)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want gg.RGBA
		ok   bool
	}{
		{"#ff0000", gg.RGB(1, 0, 0), true},
		{"#fff", gg.RGB(1, 1, 1), true},
		{"rgb(0, 0, 255)", gg.RGB(0, 0, 1), true},
		{"rgba(255, 255, 255, 0.5)", gg.RGBA2(1, 1, 1, 0.5), true},
		{"rgba(300, -4, 0, 2)", gg.RGBA2(1, 0, 0, 1), true},
		{"Black", gg.RGB(0, 0, 0), true},
		{"", gg.RGBA{}, false},
		{"#12", gg.RGBA{}, false},
		{"rgb(1,2)", gg.RGBA{}, false},
		{"rgb(a,b,c)", gg.RGBA{}, false},
		{"chartreuse-ish", gg.RGBA{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseColor(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseColor(%q) = %+v, %v; want %+v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}
