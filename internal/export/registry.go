// Package export holds the "static image of the current frame" hooks that
// a host registers per active canvas area, and the HTTP handler that serves
// them as PNG.
package export

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/mathviz/mathviz/backend-go/internal/engine"
	"github.com/mathviz/mathviz/backend-go/internal/render"
	"github.com/mathviz/mathviz/backend-go/internal/scene"
)

var (
	ErrUnknownArea   = errors.New("unknown area")
	ErrNotRegistered = errors.New("no export hook registered for area")
	ErrNoFrame       = errors.New("nothing rendered yet")
)

// Capture produces a static image of the current frame.
type Capture func() (image.Image, error)

// Registry maps each canvas area to the capture of its mounted canvas.
// Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	hooks map[scene.Area]*hook
}

type hook struct {
	capture Capture
}

func NewRegistry() *Registry {
	return &Registry{hooks: make(map[scene.Area]*hook)}
}

// Register installs the hook for area, replacing any previous one. The
// returned func unregisters it unless another hook has replaced it since.
func (r *Registry) Register(area scene.Area, c Capture) (func(), error) {
	if !area.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownArea, area)
	}
	h := &hook{capture: c}

	r.mu.Lock()
	r.hooks[area] = h
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.hooks[area] == h {
			delete(r.hooks, area)
		}
	}, nil
}

// Unregister removes whatever hook area has.
func (r *Registry) Unregister(area scene.Area) {
	r.mu.Lock()
	delete(r.hooks, area)
	r.mu.Unlock()
}

// Areas lists the areas with a hook.
func (r *Registry) Areas() []scene.Area {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]scene.Area, 0, len(r.hooks))
	for _, a := range []scene.Area{scene.AreaGraphing, scene.AreaGeometry, scene.Area3D} {
		if _, ok := r.hooks[a]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Capture runs the hook registered for area.
func (r *Registry) Capture(area scene.Area) (image.Image, error) {
	if !area.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownArea, area)
	}
	r.mu.RLock()
	h, ok := r.hooks[area]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, area)
	}
	return h.capture()
}

// EngineCapture paints the engine's most recently rendered frame. It only
// reads LastFrame, so it may run on any goroutine.
func EngineCapture(e *engine.Engine, rd *render.Renderer) Capture {
	return func() (image.Image, error) {
		f := e.LastFrame()
		if f == nil {
			return nil, ErrNoFrame
		}
		return rd.Draw(f)
	}
}
