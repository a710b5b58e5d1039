package viewport

import (
	"math"
	"strconv"
)

// MinGridPixels is the minimum distance between major grid lines.
const MinGridPixels = 50.0

const mantissaEps = 1e-9

// NiceCeil rounds x up to the nearest value of the form {1,2,5,10} × 10^k.
func NiceCeil(x float64) float64 {
	if x <= 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return 1
	}
	exp := math.Floor(math.Log10(x))
	pow := math.Pow(10, exp)
	f := x / pow

	var nf float64
	switch {
	case f <= 1+mantissaEps:
		nf = 1
	case f <= 2+mantissaEps:
		nf = 2
	case f <= 5+mantissaEps:
		nf = 5
	default:
		nf = 10
	}
	return nf * pow
}

// MajorSpacing returns the model-unit distance between major grid lines for
// the given scale, so that lines are at least MinGridPixels apart.
func MajorSpacing(pixelsPerUnit float64) float64 {
	return NiceCeil(MinGridPixels / pixelsPerUnit)
}

// MinorSpacing subdivides a major spacing into five.
func MinorSpacing(major float64) float64 {
	return major / 5
}

// GridLine is one vertical or horizontal grid line.
type GridLine struct {
	Value float64 // model coordinate
	Pixel float64 // pixel coordinate along the perpendicular axis
	Major bool
	Label string // set on major lines away from the axis
}

// Grid holds the lines covering the visible area.
type Grid struct {
	MajorSpacing float64
	MinorSpacing float64
	Vertical     []GridLine
	Horizontal   []GridLine
}

// Grid lays out the grid for the given mode. Minor lines falling within
// spacing/10 of a major line are dropped.
func (m Mapper) Grid(mode GridMode) Grid {
	major := MajorSpacing(m.PixelsPerUnit())
	minor := MinorSpacing(major)
	g := Grid{MajorSpacing: major, MinorSpacing: minor}
	if mode == GridNone {
		return g
	}

	b := m.Visible()
	o := m.Origin()
	ppu := m.PixelsPerUnit()

	add := func(spacing float64, isMajor bool) {
		for _, v := range gridValues(b.XMin, b.XMax, spacing) {
			if !isMajor && nearMultiple(v, major, spacing/10) {
				continue
			}
			g.Vertical = append(g.Vertical, gridLine(v, o.X+v*ppu, spacing, isMajor))
		}
		for _, v := range gridValues(b.YMin, b.YMax, spacing) {
			if !isMajor && nearMultiple(v, major, spacing/10) {
				continue
			}
			g.Horizontal = append(g.Horizontal, gridLine(v, o.Y-v*ppu, spacing, isMajor))
		}
	}

	if mode == GridMajorMinor {
		add(minor, false)
	}
	add(major, true)
	return g
}

func gridValues(lo, hi, spacing float64) []float64 {
	start := math.Floor(lo / spacing)
	end := math.Ceil(hi / spacing)
	values := make([]float64, 0, int(end-start)+1)
	for k := start; k <= end; k++ {
		values = append(values, k*spacing)
	}
	return values
}

func nearMultiple(v, of, tol float64) bool {
	return math.Abs(math.Remainder(v, of)) < tol
}

func gridLine(v, pixel, spacing float64, major bool) GridLine {
	line := GridLine{Value: v, Pixel: pixel, Major: major}
	if major && math.Abs(v) > spacing/10 {
		line.Label = FormatTick(v, spacing)
	}
	return line
}

// FormatTick formats a grid value with just enough decimals for the spacing.
func FormatTick(v, spacing float64) string {
	decimals := 0
	if spacing < 1 {
		decimals = int(math.Ceil(-math.Log10(spacing) - mantissaEps))
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
