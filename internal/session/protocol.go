package session

import (
	"encoding/json"

	"github.com/mathviz/mathviz/backend-go/internal/scene"
)

type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	// Server to client
	TypeWelcome = "welcome"
	TypeFrame   = "frame"
	TypeNotice  = "notice"
	TypeSaved   = "saved"
	TypeError   = "error"

	// Pointer input, in canvas pixels
	TypeClick   = "input.click"
	TypePointer = "input.pointer"
	TypeWheel   = "input.wheel"
	TypeTick    = "input.tick"

	// Tools and view
	TypeToolSet  = "tool.set"
	TypeColorSet = "color.set"
	TypeZoom     = "view.zoom"
	TypeGridMode = "view.grid"
	TypeAxes     = "view.axes"
	TypeSnap     = "view.snap"
	TypeResize   = "view.resize"
	TypeViewSet  = "view.set"

	// Asks for a frame without changing anything
	TypeRender = "render"

	// Equations and table points
	TypeEquationsSet = "equations.set"
	TypeTableSet     = "table.set"
	TypeTableAdd     = "table.add"
	TypeTableClear   = "table.clear"

	// Selection, context menu and the label prompt
	TypeSelect       = "selection.select"
	TypeSelectClear  = "selection.clear"
	TypeRename       = "selection.rename"
	TypeToggle       = "selection.toggle"
	TypeRecolor      = "selection.color"
	TypeDelete       = "selection.delete"
	TypeMenuAction   = "menu.action"
	TypeMenuClose    = "menu.close"
	TypePromptCancel = "prompt.cancel"

	// Documents
	TypeDocumentLoad   = "document.load"
	TypeDocumentSample = "document.sample"
	TypeDocumentSave   = "document.save"
)

type WelcomePayload struct {
	SessionID string     `json:"sessionId"`
	SceneID   string     `json:"sceneId"`
	Area      scene.Area `json:"area"`
}

type NoticePayload struct {
	Message string `json:"message"`
}

type SavedPayload struct {
	Version int `json:"version"`
}

type ErrorPayload struct {
	Reason string `json:"reason"`
	Type   string `json:"type,omitempty"`
}

type PointPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PointerPayload carries a mouse-down, move or up event.
type PointerPayload struct {
	Phase string  `json:"phase"` // "down", "move" or "up"
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type WheelPayload struct {
	DeltaY float64 `json:"deltaY"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type TickPayload struct {
	Timestamp float64 `json:"timestamp"` // ms, from requestAnimationFrame
}

type ToolPayload struct {
	Tool string `json:"tool"`
}

type ColorPayload struct {
	Color string `json:"color"`
}

type ZoomPayload struct {
	Direction string `json:"direction"` // "in" or "out"
}

type GridPayload struct {
	Mode string `json:"mode"`
}

type TogglePayload struct {
	Enabled bool `json:"enabled"`
}

type ResizePayload struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type ViewPayload struct {
	PanX  float64 `json:"panX"`
	PanY  float64 `json:"panY"`
	Scale float64 `json:"scale"`
}

type EquationsPayload struct {
	Equations []string `json:"equations"`
}

type TableSetPayload struct {
	Points []scene.TablePoint `json:"points"`
}

// TableAddPayload is one raw table row as typed by the user.
type TableAddPayload struct {
	X     string   `json:"x"`
	Ys    []string `json:"ys"`
	Label string   `json:"label,omitempty"`
}

type SelectPayload struct {
	ID int64 `json:"id"`
}

type LabelPayload struct {
	Label string `json:"label"`
}

type ActionPayload struct {
	Action string `json:"action"`
}
