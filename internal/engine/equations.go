package engine

import (
	"slices"
	"strconv"
	"strings"

	"github.com/mathviz/mathviz/backend-go/internal/geom"
	"github.com/mathviz/mathviz/backend-go/internal/plot"
	"github.com/mathviz/mathviz/backend-go/internal/scene"
)

const extremumKeyPrefix = "extremum-"

func extremumKey(x float64) string {
	return extremumKeyPrefix + strconv.FormatFloat(x, 'g', -1, 64)
}

// SetEquations replaces the plotted functions. Blank entries are dropped.
// Equations that do not compile stay in the list, so they round-trip through
// documents, but are not drawn.
func (e *Engine) SetEquations(equations []string) {
	clean := make([]string, 0, len(equations))
	for _, eq := range equations {
		if eq = strings.TrimSpace(eq); eq != "" {
			clean = append(clean, eq)
		}
	}
	if slices.Equal(clean, e.equations) {
		return
	}
	e.equations = clean
	e.plots.Retain(clean)
	for _, src := range clean {
		if _, fresh, err := e.plots.Get(src); err != nil && fresh {
			Logger().Warn("equation does not compile", "equation", src, "error", err)
		}
	}
	e.changed()
	e.syncExtrema()
}

// AddEquation appends one equation.
func (e *Engine) AddEquation(equation string) {
	e.SetEquations(append(slices.Clone(e.equations), equation))
}

// RemoveEquation drops the equation at index i.
func (e *Engine) RemoveEquation(i int) {
	if i < 0 || i >= len(e.equations) {
		return
	}
	e.SetEquations(slices.Delete(slices.Clone(e.equations), i, i+1))
}

// functions returns the compiled equations in order, skipping failures.
func (e *Engine) functions() []*plot.Function {
	var out []*plot.Function
	for _, src := range e.equations {
		fn, _, err := e.plots.Get(src)
		if err != nil {
			continue
		}
		out = append(out, fn)
	}
	return out
}

// syncExtrema upserts a marker for every extremum in view, keyed by its
// model x, and removes markers that are no longer found.
func (e *Engine) syncExtrema() {
	m := e.mapper()
	b := m.Visible()
	keep := make(map[string]bool)
	for _, fn := range e.functions() {
		for _, ex := range fn.Extrema(b.XMin, b.XMax) {
			key := extremumKey(ex.X)
			if keep[key] {
				continue
			}
			keep[key] = true
			model := geom.V(ex.X, ex.Y)
			e.store.Upsert(key, scene.NewExtremum(m.ToPixel(model), model))
		}
	}
	e.store.RemoveWhere(func(el scene.Element) bool {
		return el.Kind == scene.KindExtremumPoint && !keep[el.Key]
	})
}
