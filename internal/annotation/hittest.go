package annotation

import (
	"math"

	"spine-measure/internal/measure"
	"spine-measure/internal/viewport"
	"spine-measure/pkg/geometry"
)

// Hit-test geometry, all in viewport pixels so behavior is zoom-independent.
const (
	HandleRadius    = 10.0 // point handle pick radius
	LabelGap        = 14.0 // label offset above its anchor
	labelCharWidth  = 7.0  // estimated character advance
	labelLineHeight = 14.0
)

// HitKind tags what part of an annotation the cursor resolved to.
type HitKind int

const (
	HitNone HitKind = iota
	HitPoint
	HitShape
	HitLabel
	HitPending
)

// Hit identifies the annotation target under the cursor.
type Hit struct {
	Kind         HitKind
	ID           string // annotation id, empty for pending hits
	PointIndex   int    // valid for HitPoint
	PendingIndex int    // valid for HitPending
}

// HitTest resolves a viewport-space cursor position against all completed
// annotations, then against the in-progress pending points. Per annotation
// the priority is fixed: point handles, then the shape boundary, then the
// value label. Later annotations sit on top and are tested first.
func HitTest(cursor geometry.Point2D, anns []*Annotation, pending []geometry.Point2D, ctx viewport.Context, tol float64) Hit {
	if !ctx.Valid() {
		return Hit{}
	}

	for i := len(anns) - 1; i >= 0; i-- {
		a := anns[i]
		vpts := toViewport(a.Points, ctx)

		// Circle and ellipse are drawn from center+edge; their defining
		// points are not exposed as grab handles.
		if a.Type != "circle" && a.Type != "ellipse" {
			for j, vp := range vpts {
				if cursor.Distance(vp) <= HandleRadius {
					return Hit{Kind: HitPoint, ID: a.ID, PointIndex: j}
				}
			}
		}

		if hitShape(cursor, a.Type, vpts, tol) {
			return Hit{Kind: HitShape, ID: a.ID}
		}

		if labelBox(a, ctx).Contains(cursor) {
			return Hit{Kind: HitLabel, ID: a.ID}
		}
	}

	for j, p := range pending {
		if cursor.Distance(ctx.ToViewport(p)) <= HandleRadius {
			return Hit{Kind: HitPending, PendingIndex: j}
		}
	}

	return Hit{}
}

func toViewport(pts []geometry.Point2D, ctx viewport.Context) []geometry.Point2D {
	out := make([]geometry.Point2D, len(pts))
	for i, p := range pts {
		out[i] = ctx.ToViewport(p)
	}
	return out
}

// hitShape tests the cursor against the annotation's boundary in viewport
// space.
func hitShape(cursor geometry.Point2D, typ string, vpts []geometry.Point2D, tol float64) bool {
	switch typ {
	case "circle":
		if len(vpts) < 2 {
			return false
		}
		radius := vpts[0].Distance(vpts[1])
		return math.Abs(cursor.Distance(vpts[0])-radius) < tol
	case "ellipse":
		if len(vpts) < 2 {
			return false
		}
		rx := math.Abs(vpts[1].X - vpts[0].X)
		ry := math.Abs(vpts[1].Y - vpts[0].Y)
		if rx == 0 || ry == 0 {
			return false
		}
		dx := (cursor.X - vpts[0].X) / rx
		dy := (cursor.Y - vpts[0].Y) / ry
		norm := math.Sqrt(dx*dx + dy*dy)
		return math.Abs(norm-1) < tol/math.Min(rx, ry)
	case "rectangle":
		if len(vpts) < 2 {
			return false
		}
		return hitRectEdges(cursor, vpts[0], vpts[1], tol)
	case "polygon":
		return geometry.DistanceToPolygonEdge(cursor, vpts) < tol
	case "endplate-line":
		for i := 0; i+1 < len(vpts); i++ {
			if geometry.DistanceToSegment(cursor, vpts[i], vpts[i+1]) < tol {
				return true
			}
		}
		return false
	default:
		return hitSegments(cursor, typ, vpts, tol)
	}
}

// hitRectEdges tests proximity to one of the four edges within its span.
func hitRectEdges(cursor, a, b geometry.Point2D, tol float64) bool {
	x1, x2 := math.Min(a.X, b.X), math.Max(a.X, b.X)
	y1, y2 := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	corners := []geometry.Point2D{{X: x1, Y: y1}, {X: x2, Y: y1}, {X: x2, Y: y2}, {X: x1, Y: y2}}
	return geometry.DistanceToPolygonEdge(cursor, corners) < tol
}

// hitSegments tests the line segments a line-family tool renders: one
// segment for two-point tools, the two arms for three-point angles, both
// independent segments for Cobb-style tools, and the open polyline for the
// endplate fit.
func hitSegments(cursor geometry.Point2D, typ string, vpts []geometry.Point2D, tol float64) bool {
	switch {
	case len(vpts) >= 4:
		return geometry.DistanceToSegment(cursor, vpts[0], vpts[1]) < tol ||
			geometry.DistanceToSegment(cursor, vpts[2], vpts[3]) < tol
	case len(vpts) == 3:
		return geometry.DistanceToSegment(cursor, vpts[1], vpts[0]) < tol ||
			geometry.DistanceToSegment(cursor, vpts[1], vpts[2]) < tol
	case len(vpts) == 2:
		return geometry.DistanceToSegment(cursor, vpts[0], vpts[1]) < tol
	default:
		return false
	}
}

// labelBox returns the viewport-space bounding box of the annotation's value
// label: anchored per the tool's rule, raised by a fixed gap, sized from the
// estimated character width and the fixed line height.
func labelBox(a *Annotation, ctx viewport.Context) geometry.Rect {
	tool, ok := measure.Get(a.Type)
	if !ok || len(a.Points) == 0 {
		return geometry.Rect{}
	}
	anchor := ctx.ToViewport(tool.LabelAnchor(a.Points))
	width := float64(len([]rune(a.Value))) * labelCharWidth
	return geometry.NewRect(anchor.X-width/2, anchor.Y-LabelGap-labelLineHeight, width, labelLineHeight)
}

// BoundsViewport returns the annotation's viewport-space bounding box, used
// for whole-annotation selection and the padded drag re-entry test.
func BoundsViewport(a *Annotation, ctx viewport.Context) geometry.Rect {
	vpts := toViewport(a.Points, ctx)
	switch a.Type {
	case "circle":
		if len(vpts) >= 2 {
			r := vpts[0].Distance(vpts[1])
			return geometry.NewRect(vpts[0].X-r, vpts[0].Y-r, 2*r, 2*r)
		}
	case "ellipse":
		if len(vpts) >= 2 {
			rx := math.Abs(vpts[1].X - vpts[0].X)
			ry := math.Abs(vpts[1].Y - vpts[0].Y)
			return geometry.NewRect(vpts[0].X-rx, vpts[0].Y-ry, 2*rx, 2*ry)
		}
	}
	return geometry.BoundingBox(vpts)
}
