package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mathviz/mathviz/backend-go/internal/geom"
)

// Area names the canvas a document belongs to.
type Area string

const (
	AreaGraphing Area = "graphing"
	AreaGeometry Area = "geometry"
	Area3D       Area = "3dgraph"
)

func (a Area) Valid() bool {
	switch a {
	case AreaGraphing, AreaGeometry, Area3D:
		return true
	}
	return false
}

var (
	ErrAreaMismatch    = errors.New("area mismatch")
	ErrInvalidDocument = errors.New("invalid document")
)

// AreaMismatchError is returned when a document is loaded into another area.
type AreaMismatchError struct {
	Want Area
	Got  Area
}

func (e *AreaMismatchError) Error() string {
	return fmt.Sprintf("This file is for %s area. Please switch to the correct area to load it.", e.Got)
}

func (e *AreaMismatchError) Is(target error) bool {
	return target == ErrAreaMismatch
}

// Equation is one entry of the equation list.
type Equation struct {
	Value string `json:"value"`
}

// TablePoint is one row pushed from the table panel, in model coordinates.
type TablePoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label,omitempty"`
}

// Document is the saved form of a canvas.
type Document struct {
	Type      Area         `json:"type"`
	Equations []Equation   `json:"equations"`
	Points    []TablePoint `json:"points,omitempty"`
	Shapes    []Element    `json:"shapes,omitempty"`
	View      *ViewInfo    `json:"view,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// ViewInfo records the pan and zoom a document was saved with.
type ViewInfo struct {
	PanOffset geom.Vec `json:"panOffset"`
	Scale     float64  `json:"scale"`
}

// CheckArea rejects documents saved from another area.
func (d *Document) CheckArea(area Area) error {
	if d.Type != area {
		return &AreaMismatchError{Want: area, Got: d.Type}
	}
	return nil
}

// EquationValues returns the non-empty equation strings in order.
func (d *Document) EquationValues() []string {
	out := make([]string, 0, len(d.Equations))
	for _, eq := range d.Equations {
		if eq.Value != "" {
			out = append(out, eq.Value)
		}
	}
	return out
}

// Decode reads a JSON document.
func Decode(r io.Reader) (*Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if !d.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown area %q", ErrInvalidDocument, d.Type)
	}
	return &d, nil
}

// Encode writes d as indented JSON.
func Encode(w io.Writer, d *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}
