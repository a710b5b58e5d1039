// Package render paints compiled engine frames into raster images with gg.
// It is the static-image capability behind the export hook.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/mathviz/mathviz/backend-go/internal/engine"
	"github.com/mathviz/mathviz/backend-go/internal/viewport"
)

// MaxSide bounds either frame dimension.
const MaxSide = viewport.MaxSide

var ErrBadSize = errors.New("frame size out of range")

// defaultFontSize applies when a command's font carries no pixel size.
const defaultFontSize = 12.0

// Renderer rasterizes frames. It owns one font source shared by every call
// and is safe for concurrent use.
type Renderer struct {
	source *text.FontSource

	mu    sync.Mutex
	faces map[float64]text.Face
}

// New loads the built-in font.
func New() (*Renderer, error) {
	source, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	return &Renderer{source: source, faces: make(map[float64]text.Face)}, nil
}

// Close releases the font source.
func (r *Renderer) Close() error {
	return r.source.Close()
}

func (r *Renderer) face(size float64) text.Face {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.faces[size]
	if !ok {
		f = r.source.Face(size)
		r.faces[size] = f
	}
	return f
}

// Draw paints f onto a new image.
func (r *Renderer) Draw(f *engine.Frame) (image.Image, error) {
	w, h := int(f.Width), int(f.Height)
	if w <= 0 || h <= 0 || w > MaxSide || h > MaxSide {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadSize, w, h)
	}

	dc := gg.NewContext(w, h)
	defer func() { _ = dc.Close() }()

	bg, ok := ParseColor(f.Background)
	if !ok {
		bg = gg.White
	}
	dc.ClearWithColor(bg)

	for i, cmd := range f.Commands {
		var err error
		switch cmd.Op {
		case "path":
			err = r.drawPath(dc, cmd)
		case "text":
			r.drawText(dc, cmd)
		}
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
	}
	if err := dc.FlushGPU(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}
	return dc.Image(), nil
}

// EncodePNG paints f and writes it as PNG.
func (r *Renderer) EncodePNG(w io.Writer, f *engine.Frame) error {
	img, err := r.Draw(f)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

func (r *Renderer) drawPath(dc *gg.Context, cmd engine.DrawCommand) error {
	if !tracePath(dc, cmd.Path) {
		dc.ClearPath()
		return nil
	}

	if cmd.Fill != "" {
		setColor(dc, cmd.Fill)
		var err error
		if cmd.Stroke != "" {
			err = dc.FillPreserve()
		} else {
			err = dc.Fill()
		}
		if err != nil {
			return fmt.Errorf("fill: %w", err)
		}
	}
	if cmd.Stroke == "" {
		dc.ClearPath()
		return nil
	}

	setColor(dc, cmd.Stroke)
	width := cmd.StrokeWidth
	if width <= 0 {
		width = 1
	}
	dc.SetLineWidth(width)
	if len(cmd.Dash) > 0 {
		dc.SetDash(cmd.Dash...)
		defer dc.ClearDash()
	}
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("stroke: %w", err)
	}
	return nil
}

// tracePath replays Canvas2D-style path commands. It reports false if any
// command is malformed.
func tracePath(dc *gg.Context, path []engine.PathCommand) bool {
	if len(path) == 0 {
		return false
	}
	for _, pc := range path {
		if len(pc) == 0 {
			return false
		}
		op, _ := pc[0].(string)
		args := make([]float64, 0, len(pc)-1)
		for _, v := range pc[1:] {
			f, ok := toFloat(v)
			if !ok {
				return false
			}
			args = append(args, f)
		}

		switch {
		case op == "M" && len(args) == 2:
			dc.MoveTo(args[0], args[1])
		case op == "L" && len(args) == 2:
			dc.LineTo(args[0], args[1])
		case op == "C" && len(args) == 6:
			dc.CubicTo(args[0], args[1], args[2], args[3], args[4], args[5])
		case op == "Z":
			dc.ClosePath()
		default:
			return false
		}
	}
	return true
}

func (r *Renderer) drawText(dc *gg.Context, cmd engine.DrawCommand) {
	if cmd.Text == "" {
		return
	}
	dc.SetFont(r.face(FontSize(cmd.Font)))
	setColor(dc, cmd.Fill)
	switch cmd.Align {
	case "center":
		dc.DrawStringAnchored(cmd.Text, cmd.X, cmd.Y, 0.5, 0)
	case "right":
		dc.DrawStringAnchored(cmd.Text, cmd.X, cmd.Y, 1, 0)
	default:
		dc.DrawString(cmd.Text, cmd.X, cmd.Y)
	}
}

func setColor(dc *gg.Context, s string) {
	c, ok := ParseColor(s)
	if !ok {
		c = gg.Black
	}
	dc.SetColor(c.Color())
}

// FontSize extracts the pixel size from a CSS font such as "14px Arial".
func FontSize(font string) float64 {
	for field := range strings.FieldsSeq(font) {
		if px, ok := strings.CutSuffix(field, "px"); ok {
			if v, err := strconv.ParseFloat(px, 64); err == nil && v > 0 {
				return v
			}
		}
	}
	return defaultFontSize
}

// ParseColor understands the CSS colors the engine emits: #hex, rgb(),
// rgba() and named colors.
func ParseColor(s string) (gg.RGBA, bool) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return gg.RGBA{}, false
	case strings.HasPrefix(s, "#"):
		switch len(s) {
		case 4, 5, 7, 9:
			return gg.Hex(s), true
		}
		return gg.RGBA{}, false
	case strings.HasPrefix(s, "rgb"):
		return parseFunctional(s)
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return gg.FromColor(c), true
	}
	return gg.RGBA{}, false
}

func parseFunctional(s string) (gg.RGBA, bool) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return gg.RGBA{}, false
	}
	parts := strings.Split(s[open+1:end], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return gg.RGBA{}, false
	}
	v := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return gg.RGBA{}, false
		}
		v[i] = f
	}
	a := 1.0
	if len(v) == 4 {
		a = min(max(v[3], 0), 1)
	}
	return gg.RGBA2(clamp(v[0])/255, clamp(v[1])/255, clamp(v[2])/255, a), true
}

func clamp(v float64) float64 { return min(max(v, 0), 255) }

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
