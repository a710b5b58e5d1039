package engine

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/mathviz/mathviz/backend-go/internal/geom"
	"github.com/mathviz/mathviz/backend-go/internal/scene"
)

const tableKeyPrefix = "table-point-"

func tableKey(i int) string { return tableKeyPrefix + strconv.Itoa(i) }

func isTableKey(key string) bool { return strings.HasPrefix(key, tableKeyPrefix) }

// SetTablePoints replaces the points fed from the table. Row i becomes the
// point keyed table-point-i, so pushing the same rows again updates them in
// place.
func (e *Engine) SetTablePoints(points []scene.TablePoint) {
	e.table = slices.Clone(points)
	keep := make(map[string]bool, len(points))
	for i := range points {
		keep[tableKey(i)] = true
	}
	e.store.RemoveWhere(func(el scene.Element) bool {
		return isTableKey(el.Key) && !keep[el.Key]
	})

	m := e.mapper()
	for i, tp := range e.table {
		model := geom.V(tp.X, tp.Y)
		p := scene.NewPoint(m.ToPixel(model), tableLabel(tp, i), scene.ColorPoint)
		p.Model = model
		if cur, ok := e.store.Find(hasKey(tableKey(i))); ok {
			p.Color, p.IsHidden, p.IsDeleted = cur.Color, cur.IsHidden, cur.IsDeleted
		}
		e.store.Upsert(tableKey(i), p)
	}
	e.changed()
}

// AddTableRow appends one row per y value, all sharing x. Values arrive as
// text from the table inputs; if any fails to parse the user is told and
// nothing is added.
func (e *Engine) AddTableRow(x string, ys []string, label string) bool {
	xv, ok := parseNumber(x)
	if !ok || len(ys) == 0 {
		e.notify(msgInvalidNumbers)
		return false
	}
	rows := make([]scene.TablePoint, 0, len(ys))
	for _, y := range ys {
		yv, ok := parseNumber(y)
		if !ok {
			e.notify(msgInvalidNumbers)
			return false
		}
		rows = append(rows, scene.TablePoint{X: xv, Y: yv, Label: strings.TrimSpace(label)})
	}
	e.SetTablePoints(append(slices.Clone(e.table), rows...))
	return true
}

// ClearTablePoints removes every table point.
func (e *Engine) ClearTablePoints() {
	e.SetTablePoints(nil)
}

// reprojectTable moves the table points to their model positions under the
// current view. Labels and colors are left as they are.
func (e *Engine) reprojectTable() {
	m := e.mapper()
	n := e.store.UpdateWhere(func(el scene.Element) bool {
		return isTableKey(el.Key)
	}, func(el *scene.Element) {
		px := m.ToPixel(el.Model)
		el.X, el.Y = px.X, px.Y
	})
	if n > 0 {
		Logger().Debug("reprojected table points", "count", n)
	}
}

// reproject refreshes everything derived from the view.
func (e *Engine) reproject() {
	e.reprojectTable()
	e.syncExtrema()
}

func tableLabel(tp scene.TablePoint, i int) string {
	if tp.Label != "" {
		return tp.Label
	}
	return scene.IndexLabel(i)
}

func hasKey(key string) func(scene.Element) bool {
	return func(el scene.Element) bool { return el.Key == key }
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
