package engine

// Point placement animation: the new dot grows from 3 to 4 px over 500 ms
// inside its 8 px halo. It is driven by Tick from the host's frame callback;
// nothing runs between frames.
const (
	animDuration   = 500.0 // ms
	animRadiusFrom = 3.0
	pointRadius    = 4.0
	haloRadius     = 8.0
)

type pointAnim struct {
	id      int64
	startTS float64
	started bool
	radius  float64
}

// animator tracks the points still growing. The first Tick after start fixes
// the start time, as with requestAnimationFrame.
type animator struct {
	items []pointAnim
}

func newAnimator() *animator {
	return &animator{}
}

func (a *animator) start(id int64) {
	a.items = append(a.items, pointAnim{id: id, radius: animRadiusFrom})
}

func (a *animator) cancelAll() {
	a.items = nil
}

func (a *animator) active() bool {
	return len(a.items) > 0
}

// advance moves every animation to ts (ms). Finished ones are dropped.
func (a *animator) advance(ts float64) {
	kept := a.items[:0]
	for _, it := range a.items {
		if !it.started {
			it.startTS, it.started = ts, true
		}
		progress := min(max((ts-it.startTS)/animDuration, 0), 1)
		if progress >= 1 {
			continue
		}
		it.radius = animRadiusFrom + (pointRadius-animRadiusFrom)*progress
		kept = append(kept, it)
	}
	a.items = kept
}

// radius returns the current dot radius for a point.
func (a *animator) radius(id int64) float64 {
	for _, it := range a.items {
		if it.id == id {
			return it.radius
		}
	}
	return pointRadius
}
