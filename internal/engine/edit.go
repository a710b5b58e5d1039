package engine

import "github.com/mathviz/mathviz/backend-go/internal/scene"

// Context menu actions.
const (
	ActionChangeColor = "Change Color"
	ActionDelete      = "Delete"
)

// Every edit below works on the current selection and is a no-op without one.

// SelectByID selects a live element. It reports whether one was found.
func (e *Engine) SelectByID(id int64) bool {
	el, ok := e.store.Get(id)
	if !ok || !el.Live() {
		return false
	}
	e.selection = &el
	return true
}

// ClearSelection drops the selection and hides the context menu.
func (e *Engine) ClearSelection() {
	e.selection = nil
	e.menu = ContextMenu{}
	e.prompt = ""
	e.endMove()
}

// CloseMenu hides the context menu, keeping the selection.
func (e *Engine) CloseMenu() {
	e.menu = ContextMenu{}
}

// Prompt returns the pending host prompt, if any.
func (e *Engine) Prompt() string { return e.prompt }

// CancelPrompt dismisses a pending prompt without changes.
func (e *Engine) CancelPrompt() { e.prompt = "" }

// RenameSelection sets the selected element's label.
func (e *Engine) RenameSelection(label string) {
	e.prompt = ""
	if e.selection == nil || e.selection.IsDeleted {
		return
	}
	e.store.ReplaceByID(e.selection.ID, func(el *scene.Element) { el.Label = label })
	e.selection.Label = label
}

// ToggleSelectionVisibility hides or shows the selected element.
func (e *Engine) ToggleSelectionVisibility() {
	if e.selection == nil {
		return
	}
	hidden := !e.selection.IsHidden
	e.store.ReplaceByID(e.selection.ID, func(el *scene.Element) { el.IsHidden = hidden })
	e.selection.IsHidden = hidden
}

// ChangeSelectionColor recolors the selected element and closes the palette.
func (e *Engine) ChangeSelectionColor(color string) {
	if e.selection == nil || color == "" {
		return
	}
	e.store.ReplaceByID(e.selection.ID, func(el *scene.Element) { el.Color = color })
	e.selection.Color = color
	e.menu.ShowColors = false
}

// DeleteSelection soft-deletes the selected element, then clears the
// selection and hides the menu.
func (e *Engine) DeleteSelection() {
	if e.selection == nil {
		return
	}
	e.store.ReplaceByID(e.selection.ID, func(el *scene.Element) { el.IsDeleted = true })
	e.selection = nil
	e.menu = ContextMenu{}
	e.endMove()
}

// ContextMenuAction runs an element menu entry.
func (e *Engine) ContextMenuAction(action string) {
	switch action {
	case ActionChangeColor:
		if e.selection != nil {
			e.menu.ShowColors = true
		}
	case ActionDelete:
		e.DeleteSelection()
	}
}
