package measure

import (
	"fmt"
	"strings"

	"spine-measure/internal/calibration"
	"spine-measure/internal/viewport"
	"spine-measure/pkg/geometry"
)

// Category separates clinical measurements from free-form auxiliary shapes.
type Category int

const (
	Measurement Category = iota
	Auxiliary
)

// InputMode describes how a tool collects its points.
type InputMode int

const (
	InputClicks  InputMode = iota // one click per point, toggle-remove on re-click
	InputGuide                    // first click shows a guide anchor, second completes
	InputPolygon                  // unbounded clicks, auto-close near the first vertex
	InputDrag                     // press-drag-release shapes
	InputNone                     // no point collection (pan)
)

const (
	UnitDegrees = "°"
	UnitMm      = "mm"

	// AuxiliaryValue is the fixed sentinel shown for shapes that carry no
	// numeric measurement.
	AuxiliaryValue = "--"
)

type computeFunc func([]geometry.Point2D, *calibration.Reference, viewport.Context) []Result

// Tool describes one annotation tool: how many points it needs, how it
// collects them, and the formula it evaluates. Adding a tool means adding
// one registry entry.
type Tool struct {
	ID             string
	Label          string
	RequiredPoints int // 0 means variable; see MinPoints
	MinPoints      int // only for variable tools
	Category       Category
	Input          InputMode
	DistanceClass  bool // value depends on the calibration reference
	compute        computeFunc
	labelAnchor    func([]geometry.Point2D) geometry.Point2D
}

// Variable reports whether the tool accepts an unbounded number of points.
func (t Tool) Variable() bool {
	return t.RequiredPoints == 0 && t.MinPoints > 0
}

// Complete reports whether n collected points finish the tool.
func (t Tool) Complete(n int) bool {
	if t.Variable() {
		return n >= t.MinPoints
	}
	return t.RequiredPoints > 0 && n >= t.RequiredPoints
}

// Compute evaluates the tool's formula. It is a total function: too few
// points, auxiliary shapes, and unknown inputs all yield an empty result
// rather than panicking.
func (t Tool) Compute(pts []geometry.Point2D, calib *calibration.Reference, ctx viewport.Context) []Result {
	if t.compute == nil || !t.Complete(len(pts)) {
		return nil
	}
	return t.compute(pts, calib, ctx)
}

// LabelAnchor returns the image-space point the value label hangs from: the
// tool-specific rule when one exists, otherwise the first segment's midpoint
// for two-point tools and the centroid for everything else.
func (t Tool) LabelAnchor(pts []geometry.Point2D) geometry.Point2D {
	if t.labelAnchor != nil {
		return t.labelAnchor(pts)
	}
	if len(pts) == 2 {
		return pts[0].Midpoint(pts[1])
	}
	return geometry.Centroid(pts)
}

// ValueString renders results the way the report shows them: one decimal
// plus the unit, multiple results joined with a space. Auxiliary tools and
// empty results render the fixed sentinel.
func ValueString(results []Result) string {
	if len(results) == 0 {
		return AuxiliaryValue
	}
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("%s %.1f%s", r.Label, r.Value, r.Unit)
	}
	return strings.Join(parts, " ")
}

// The registry. Order is the palette order.
var tools = []Tool{
	{ID: "cobb", Label: "Cobb", RequiredPoints: 4, Input: InputClicks,
		compute: cobbResult("Cobb"), labelAnchor: cobbAnchor},
	{ID: "thoracic-kyphosis", Label: "TK", RequiredPoints: 4, Input: InputClicks,
		compute: cobbResult("TK"), labelAnchor: cobbAnchor},
	{ID: "lumbar-lordosis", Label: "LL", RequiredPoints: 4, Input: InputClicks,
		compute: cobbResult("LL"), labelAnchor: cobbAnchor},
	{ID: "vertebral-tilt", Label: "Tilt", RequiredPoints: 2, Input: InputGuide,
		compute: tiltResult("Tilt")},
	{ID: "t1-tilt", Label: "T1 Tilt", RequiredPoints: 2, Input: InputGuide,
		compute: tiltResult("T1")},
	{ID: "sacral-obliquity", Label: "SO", RequiredPoints: 2, Input: InputGuide,
		compute: tiltResult("SO")},
	// The legacy tool set labeled this both "RSH" and "CA"; it is one tool.
	{ID: "clavicle-angle", Label: "CA", RequiredPoints: 2, Input: InputGuide,
		compute: slopeResult("CA")},
	{ID: "shoulder-slope", Label: "Shoulder", RequiredPoints: 2, Input: InputGuide,
		compute: slopeResult("Shoulder")},
	{ID: "pelvic-slope", Label: "Pelvic", RequiredPoints: 2, Input: InputGuide,
		compute: slopeResult("Pelvic")},
	{ID: "sacral-slope", Label: "SS", RequiredPoints: 2, Input: InputGuide,
		compute: slopeResult("SS")},
	{ID: "pelvic-incidence", Label: "PI", RequiredPoints: 3, Input: InputClicks,
		compute: threePointResult("PI")},
	{ID: "avt", Label: "AVT", RequiredPoints: 2, Input: InputGuide, DistanceClass: true,
		compute: offsetResult("AVT")},
	{ID: "ts", Label: "TS", RequiredPoints: 2, Input: InputGuide, DistanceClass: true,
		compute: offsetResult("TS")},
	{ID: "sva", Label: "SVA", RequiredPoints: 2, Input: InputGuide, DistanceClass: true,
		compute: offsetResult("SVA")},
	{ID: "length", Label: "Length", RequiredPoints: 2, Input: InputClicks, DistanceClass: true,
		compute: lengthResult("L")},
	{ID: "endplate-line", Label: "Endplate", MinPoints: 2, Input: InputPolygon,
		compute: endplateResult("EP")},

	{ID: "guide-line", Label: "Line", RequiredPoints: 2, Category: Auxiliary, Input: InputClicks},
	{ID: "polygon", Label: "Polygon", MinPoints: 3, Category: Auxiliary, Input: InputPolygon},
	{ID: "circle", Label: "Circle", RequiredPoints: 2, Category: Auxiliary, Input: InputDrag,
		labelAnchor: firstPointAnchor},
	{ID: "ellipse", Label: "Ellipse", RequiredPoints: 2, Category: Auxiliary, Input: InputDrag,
		labelAnchor: firstPointAnchor},
	{ID: "rectangle", Label: "Rect", RequiredPoints: 2, Category: Auxiliary, Input: InputDrag},
	{ID: "arrow", Label: "Arrow", RequiredPoints: 2, Category: Auxiliary, Input: InputDrag},

	{ID: ToolPan, Label: "Pan", Input: InputNone},
}

// ToolPan is the neutral tool: misses pan the image instead of deselecting.
const ToolPan = "pan"

var toolIndex = func() map[string]int {
	m := make(map[string]int, len(tools))
	for i, t := range tools {
		m[t.ID] = i
	}
	return m
}()

// Get looks up a tool by id.
func Get(id string) (Tool, bool) {
	i, ok := toolIndex[id]
	if !ok {
		return Tool{}, false
	}
	return tools[i], true
}

// All returns the registry in palette order.
func All() []Tool {
	out := make([]Tool, len(tools))
	copy(out, tools)
	return out
}

// DistanceClass reports whether the tool's value depends on calibration.
func DistanceClass(id string) bool {
	t, ok := Get(id)
	return ok && t.DistanceClass
}

// Known reports whether id names a registered tool.
func Known(id string) bool {
	_, ok := toolIndex[id]
	return ok
}

// cobbAnchor hangs the label between the two segment midpoints.
func cobbAnchor(pts []geometry.Point2D) geometry.Point2D {
	if len(pts) < 4 {
		return geometry.Centroid(pts)
	}
	return pts[0].Midpoint(pts[1]).Midpoint(pts[2].Midpoint(pts[3]))
}

// firstPointAnchor hangs the label on the shape's anchor point (the center
// for circle and ellipse).
func firstPointAnchor(pts []geometry.Point2D) geometry.Point2D {
	if len(pts) == 0 {
		return geometry.Point2D{}
	}
	return pts[0]
}
