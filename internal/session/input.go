package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mathviz/mathviz/backend-go/internal/engine"
	"github.com/mathviz/mathviz/backend-go/internal/geom"
	"github.com/mathviz/mathviz/backend-go/internal/viewport"
)

var ErrUnknownType = errors.New("unknown message type")

// Apply feeds one client message to the engine and returns the frame JSON
// to send back, or "" when nothing visible changed.
func Apply(e *engine.Engine, msg *Message) (string, error) {
	switch msg.Type {
	case TypeRender:

	case TypeClick:
		var p PointPayload
		if err := decode(msg, &p); err != nil {
			return "", err
		}
		e.Click(p.X, p.Y)

	case TypePointer:
		var p PointerPayload
		if err := decode(msg, &p); err != nil {
			return "", err
		}
		switch p.Phase {
		case "down":
			e.PointerDown(p.X, p.Y)
		case "move":
			if !e.Dragging() {
				return "", nil
			}
			e.PointerMove(p.X, p.Y)
		case "up":
			e.PointerUp()
		default:
			return "", fmt.Errorf("unknown pointer phase %q", p.Phase)
		}

	case TypeWheel:
		var p WheelPayload
		if err := decode(msg, &p); err != nil {
			return "", err
		}
		e.Wheel(p.DeltaY, p.X, p.Y)

	case TypeTick:
		var p TickPayload
		if err := decode(msg, &p); err != nil {
			return "", err
		}
		return e.Tick(p.Timestamp), nil

	case TypeToolSet:
		var p ToolPayload
		if err := decode(msg, &p); err != nil {
			return "", err
		}
		t := engine.Tool(p.Tool)
		if !t.Valid() {
			return "", fmt.Errorf("unknown tool %q", p.Tool)
		}
		e.SetTool(t)

	case TypeColorSet:
		var p ColorPayload
		if err := decode(msg, &p); err != nil {
			return "", err
		}
		e.SetActiveColor(p.Color)
		return "", nil

	case TypeZoom:
		var p ZoomPayload
		if err := decode(msg, &p); err != nil {
			return "", err
		}
		switch p.Direction {
		case "in":
			e.ZoomIn()
		case "out":
			e.ZoomOut()
		default:
			return "", fmt.Errorf("unknown zoom direction %q", p.Direction)
		}

	case TypeGridMode:
		var p GridPayload
		if err := decode(msg, &p); err != nil {
			return "", err
		}
		e.SetGridMode(viewport.GridMode(p.Mode))

	case TypeAxes:
		var p TogglePayload
		if err := decode(msg, &p); err != nil {
			return "", err
		}
		e.SetAxesVisible(p.Enabled)

	case TypeSnap:
		var p TogglePayload
		if err := decode(msg, &p); err != nil {
			return "", err
		}
		e.SetSnapToGrid(p.Enabled)
		return "", nil

	case TypeResize:
		var p ResizePayload
		if err := decode(msg, &p); err != nil {
			return "", err
		}
		e.Resize(p.Width, p.Height)

	case TypeViewSet:
		var p ViewPayload
		if err := decode(msg, &p); err != nil {
			return "", err
		}
		e.SetView(geom.V(p.PanX, p.PanY), p.Scale)

	case TypeEquationsSet:
		var p EquationsPayload
		if err := decode(msg, &p); err != nil {
			return "", err
		}
		e.SetEquations(p.Equations)

	case TypeTableSet:
		var p TableSetPayload
		if err := decode(msg, &p); err != nil {
			return "", err
		}
		e.SetTablePoints(p.Points)

	case TypeTableAdd:
		var p TableAddPayload
		if err := decode(msg, &p); err != nil {
			return "", err
		}
		if !e.AddTableRow(p.X, p.Ys, p.Label) {
			return "", nil
		}

	case TypeTableClear:
		e.ClearTablePoints()

	case TypeSelect:
		var p SelectPayload
		if err := decode(msg, &p); err != nil {
			return "", err
		}
		e.SelectByID(p.ID)

	case TypeSelectClear:
		e.ClearSelection()

	case TypeRename:
		var p LabelPayload
		if err := decode(msg, &p); err != nil {
			return "", err
		}
		e.RenameSelection(p.Label)

	case TypeToggle:
		e.ToggleSelectionVisibility()

	case TypeRecolor:
		var p ColorPayload
		if err := decode(msg, &p); err != nil {
			return "", err
		}
		e.ChangeSelectionColor(p.Color)

	case TypeDelete:
		e.DeleteSelection()

	case TypeMenuAction:
		var p ActionPayload
		if err := decode(msg, &p); err != nil {
			return "", err
		}
		e.ContextMenuAction(p.Action)

	case TypeMenuClose:
		e.CloseMenu()

	case TypePromptCancel:
		e.CancelPrompt()

	case TypeDocumentLoad:
		// Failures are reported to the user through the notifier.
		if err := e.LoadDocumentJSON(string(msg.Payload)); err != nil {
			return "", nil
		}

	case TypeDocumentSample:
		e.LoadSampleDocument()

	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownType, msg.Type)
	}
	return e.Render(), nil
}

func decode(msg *Message, v any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%s: invalid payload: %w", msg.Type, err)
	}
	return nil
}
