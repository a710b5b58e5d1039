package engine

import "github.com/mathviz/mathviz/backend-go/internal/scene"

// Tool is the active toolbar tool. Values match the toolbar labels.
type Tool string

const (
	ToolNone          Tool = ""
	ToolPoint         Tool = "Point"
	ToolLine          Tool = "Line"
	ToolSegment       Tool = "Segment"
	ToolPolygon       Tool = "Polygon"
	ToolCircle        Tool = "Circle"
	ToolMidpoint      Tool = "Midpoint"
	ToolSelect        Tool = "Select"
	ToolDelete        Tool = "Delete"
	ToolLabel         Tool = "Label"
	ToolShowHide      Tool = "Show/Hide"
	ToolMove          Tool = "Move"
	ToolPerpendicular Tool = "Perpendicular Line"
	ToolParallel      Tool = "Parallel Line"
	ToolAngleBisector Tool = "Angle Bisector"
	ToolTangents      Tool = "Tangents"
)

var knownTools = map[Tool]bool{
	ToolNone: true, ToolPoint: true, ToolLine: true, ToolSegment: true,
	ToolPolygon: true, ToolCircle: true, ToolMidpoint: true, ToolSelect: true,
	ToolDelete: true, ToolLabel: true, ToolShowHide: true, ToolMove: true,
	ToolPerpendicular: true, ToolParallel: true, ToolAngleBisector: true,
	ToolTangents: true,
}

// Valid reports whether t is a known tool.
func (t Tool) Valid() bool { return knownTools[t] }

// bypassesPointHit reports whether a click on an existing point goes to the
// tool instead of selecting that point: Point recolors it, Polygon may be
// closing on it and Delete removes it.
func (t Tool) bypassesPointHit() bool {
	return t == ToolPoint || t == ToolPolygon || t == ToolDelete
}

// ToolState is the in-progress gesture of the active tool. It is replaced
// wholesale when the tool changes.
type ToolState interface {
	toolState()
}

// Idle means no gesture is in progress.
type Idle struct{}

// LinePending holds the temporary first point of a line or segment.
type LinePending struct {
	Start scene.Element
}

// PolygonPending holds the committed vertices placed so far. Base is the
// letter the vertex labels are derived from.
type PolygonPending struct {
	Base     string
	Vertices []scene.Element
}

// CirclePending holds the temporary center point.
type CirclePending struct {
	Center scene.Element
}

// MidpointPending holds the first committed point of a pair.
type MidpointPending struct {
	Points []scene.Element
}

func (Idle) toolState()            {}
func (LinePending) toolState()     {}
func (PolygonPending) toolState()  {}
func (CirclePending) toolState()   {}
func (MidpointPending) toolState() {}

// polygonPreviewKey marks the temporary preview polygon in the store.
const polygonPreviewKey = "polygon-preview"

// refs snapshots a list of point elements.
func refs(points []scene.Element) []scene.PointRef {
	out := make([]scene.PointRef, len(points))
	for i, p := range points {
		out[i] = scene.Ref(p)
	}
	return out
}
