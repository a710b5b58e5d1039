//go:build js && wasm

package main

import (
	"encoding/json"
	"log/slog"
	"os"
	"syscall/js"

	"github.com/mathviz/mathviz/backend-go/internal/engine"
	"github.com/mathviz/mathviz/backend-go/internal/scene"
	"github.com/mathviz/mathviz/backend-go/internal/viewport"
)

var eng *engine.Engine

func main() {
	engine.SetLogger(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})))

	opts := engine.DefaultOptions()
	opts.Area = areaFromPage()
	opts.Notifier = engine.NotifierFunc(func(message string) {
		js.Global().Call("alert", message)
	})
	eng = engine.New(opts)

	api := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	api.Set("click", js.FuncOf(click))
	api.Set("pointerDown", js.FuncOf(pointerDown))
	api.Set("pointerMove", js.FuncOf(pointerMove))
	api.Set("pointerUp", js.FuncOf(pointerUp))
	api.Set("wheel", js.FuncOf(wheel))
	api.Set("resize", js.FuncOf(resize))
	api.Set("setTool", js.FuncOf(setTool))
	api.Set("setColor", js.FuncOf(setColor))
	api.Set("setGridMode", js.FuncOf(setGridMode))
	api.Set("setEquations", js.FuncOf(setEquations))
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	api.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← engine) ---
	api.Set("render", js.FuncOf(render))
	api.Set("hitTest", js.FuncOf(hitTest))
	api.Set("getSelection", js.FuncOf(getSelection))
	api.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	api.Set("getDocument", js.FuncOf(getDocument))
	api.Set("toModel", js.FuncOf(toModel))
	api.Set("isDragging", js.FuncOf(isDragging))

	js.Global().Set("mathvizEngine", api)
	js.Global().Set("mathvizWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// areaFromPage reads window.mathvizArea, set by the page before loading.
func areaFromPage() scene.Area {
	v := js.Global().Get("mathvizArea")
	if v.Type() != js.TypeString {
		return scene.AreaGraphing
	}
	area := scene.Area(v.String())
	if !area.Valid() {
		return scene.AreaGraphing
	}
	return area
}

func result(err error) any {
	if err != nil {
		return js.ValueOf(map[string]any{"error": err.Error()})
	}
	return js.ValueOf(map[string]any{"ok": true})
}

func xy(args []js.Value) (float64, float64, bool) {
	if len(args) < 2 {
		return 0, 0, false
	}
	return args[0].Float(), args[1].Float(), true
}

// --- Command Handlers ---

func click(this js.Value, args []js.Value) any {
	if x, y, ok := xy(args); ok {
		eng.Click(x, y)
	}
	return nil
}

func pointerDown(this js.Value, args []js.Value) any {
	if x, y, ok := xy(args); ok {
		eng.PointerDown(x, y)
	}
	return nil
}

func pointerMove(this js.Value, args []js.Value) any {
	if x, y, ok := xy(args); ok {
		eng.PointerMove(x, y)
	}
	return nil
}

func pointerUp(this js.Value, args []js.Value) any {
	eng.PointerUp()
	return nil
}

func wheel(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return nil
	}
	eng.Wheel(args[0].Float(), args[1].Float(), args[2].Float())
	return nil
}

func resize(this js.Value, args []js.Value) any {
	if w, h, ok := xy(args); ok {
		eng.Resize(w, h)
	}
	return nil
}

func setTool(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	if t := engine.Tool(args[0].String()); t.Valid() {
		eng.SetTool(t)
	}
	return nil
}

func setColor(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	eng.SetActiveColor(args[0].String())
	return nil
}

func setGridMode(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	eng.SetGridMode(viewport.GridMode(args[0].String()))
	return nil
}

func setEquations(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	var equations []string
	if err := json.Unmarshal([]byte(args[0].String()), &equations); err != nil {
		return result(err)
	}
	eng.SetEquations(equations)
	return result(nil)
}

func loadDocument(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf(map[string]any{"error": "missing document JSON"})
	}
	return result(eng.LoadDocumentJSON(args[0].String()))
}

func loadSampleDocument(this js.Value, args []js.Value) any {
	eng.LoadSampleDocument()
	return result(nil)
}

func tick(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf(eng.Render())
	}
	return js.ValueOf(eng.Tick(args[0].Float()))
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.Render())
}

func hitTest(this js.Value, args []js.Value) any {
	x, y, ok := xy(args)
	if !ok {
		return js.Null()
	}
	el, hit := eng.HitTest(x, y)
	if !hit {
		return js.Null()
	}
	return js.ValueOf(el.ID)
}

func getSelection(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.SelectionJSON())
}

func getSelectionBounds(this js.Value, args []js.Value) any {
	r, ok := eng.SelectionBounds()
	if !ok {
		return js.Null()
	}
	return js.ValueOf(engine.RectToJSON(r))
}

func getDocument(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.DocumentJSON())
}

func toModel(this js.Value, args []js.Value) any {
	x, y, ok := xy(args)
	if !ok {
		return js.Null()
	}
	p := eng.ToModel(x, y)
	return js.ValueOf(map[string]any{"x": p.X, "y": p.Y})
}

func isDragging(this js.Value, args []js.Value) any {
	return js.ValueOf(eng.Dragging())
}
