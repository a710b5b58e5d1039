package plot

import (
	"iter"
	"math"
)

// Sample is one evaluated point of a plotted function. Break is set when one
// or more samples before it failed, so the polyline must restart here.
type Sample struct {
	X, Y  float64
	Break bool
}

// Samples lazily evaluates f across [xMin, xMax] at one sample per
// horizontal pixel. The sequence is finite and can be ranged over again.
func (f *Function) Samples(xMin, xMax float64, widthPx int) iter.Seq[Sample] {
	return func(yield func(Sample) bool) {
		if widthPx <= 0 || !(xMax > xMin) {
			return
		}
		step := (xMax - xMin) / float64(widthPx)
		gap := false
		for i := 0; i <= widthPx; i++ {
			x := xMin + float64(i)*step
			y, ok := f.Eval(x)
			if !ok {
				gap = true
				continue
			}
			if !yield(Sample{X: x, Y: y, Break: gap}) {
				return
			}
			gap = false
		}
	}
}

// ExtremumStep is the neighbour distance used to confirm an extremum.
const ExtremumStep = 0.01

// Extremum is a confirmed local maximum or minimum in model coordinates.
type Extremum struct {
	X, Y float64
}

// IsExtremum reports whether f(x) is strictly greater, or strictly less, than
// both f(x-step) and f(x+step).
func (f *Function) IsExtremum(x, step float64) bool {
	y, ok := f.Eval(x)
	if !ok {
		return false
	}
	left, okL := f.Eval(x - step)
	right, okR := f.Eval(x + step)
	if !okL || !okR {
		return false
	}
	return (y > left && y > right) || (y < left && y < right)
}

// Extrema checks the multiples of π/2 inside [xMin, xMax]. It returns nothing
// unless the expression text mentions sin or cos.
func (f *Function) Extrema(xMin, xMax float64) []Extremum {
	if !IsTrig(f.Source) || !(xMax > xMin) {
		return nil
	}
	const quarter = math.Pi / 2
	first := math.Ceil(xMin / quarter)
	last := math.Floor(xMax / quarter)

	var out []Extremum
	for k := first; k <= last; k++ {
		x := k * quarter
		if !f.IsExtremum(x, ExtremumStep) {
			continue
		}
		y, ok := f.Eval(x)
		if !ok {
			continue
		}
		out = append(out, Extremum{X: x, Y: y})
	}
	return out
}
