// Package measure evaluates the clinical formulas behind each annotation
// tool and owns the tool registry.
package measure

import (
	"math"

	"spine-measure/internal/calibration"
	"spine-measure/internal/viewport"
	"spine-measure/pkg/geometry"
)

// Result is one computed value of a tool. A tool may report several.
type Result struct {
	Label string
	Value float64
	Unit  string
}

// foldTilt folds an angle in degrees into (-90, 90], the signed convention
// used for vertebral and T1 tilt.
func foldTilt(deg float64) float64 {
	d := math.Mod(deg, 180)
	if d <= -90 {
		d += 180
	} else if d > 90 {
		d -= 180
	}
	return d
}

// foldAcute folds an angle in degrees into [0, 90].
func foldAcute(deg float64) float64 {
	d := math.Abs(math.Mod(deg, 180))
	if d > 90 {
		d = 180 - d
	}
	return d
}

// lineAngleDiff returns the angle between two line directions given in
// degrees, folded into [0, 180). Because lines have no orientation the
// result is invariant under flipping either direction by 180.
func lineAngleDiff(a, b float64) float64 {
	d := math.Mod(a-b, 180)
	if d < 0 {
		d += 180
	}
	return d
}

// tiltDeg is the signed angle of the segment p0-p1 against the horizontal,
// in (-90, 90].
func tiltDeg(pts []geometry.Point2D) float64 {
	return foldTilt(geometry.SegmentAngleDeg(pts[0], pts[1]))
}

// slopeDeg is the unsigned variant used by the shoulder, pelvic, and sacral
// slope conventions, in [0, 90].
func slopeDeg(pts []geometry.Point2D) float64 {
	return math.Abs(tiltDeg(pts))
}

// threePointDeg is the angle between the segments p1-p0 and p1-p2 sharing
// the middle point, folded into [0, 90].
func threePointDeg(pts []geometry.Point2D) float64 {
	a := geometry.SegmentAngleDeg(pts[1], pts[0])
	b := geometry.SegmentAngleDeg(pts[1], pts[2])
	d := lineAngleDiff(a, b)
	return foldAcute(d)
}

// cobbDeg is the Cobb-style angle between the independent segments p0-p1 and
// p2-p3, in [0, 180). Swapping either segment's own endpoint order flips its
// direction by 180 and leaves the result unchanged.
func cobbDeg(pts []geometry.Point2D) float64 {
	a := geometry.SegmentAngleDeg(pts[0], pts[1])
	b := geometry.SegmentAngleDeg(pts[2], pts[3])
	return lineAngleDiff(a, b)
}

func tiltResult(label string) computeFunc {
	return func(pts []geometry.Point2D, _ *calibration.Reference, _ viewport.Context) []Result {
		return []Result{{Label: label, Value: tiltDeg(pts), Unit: UnitDegrees}}
	}
}

func slopeResult(label string) computeFunc {
	return func(pts []geometry.Point2D, _ *calibration.Reference, _ viewport.Context) []Result {
		return []Result{{Label: label, Value: slopeDeg(pts), Unit: UnitDegrees}}
	}
}

func threePointResult(label string) computeFunc {
	return func(pts []geometry.Point2D, _ *calibration.Reference, _ viewport.Context) []Result {
		return []Result{{Label: label, Value: threePointDeg(pts), Unit: UnitDegrees}}
	}
}

func cobbResult(label string) computeFunc {
	return func(pts []geometry.Point2D, _ *calibration.Reference, _ viewport.Context) []Result {
		return []Result{{Label: label, Value: cobbDeg(pts), Unit: UnitDegrees}}
	}
}

// offsetResult measures the horizontal separation of two vertical lines,
// each marked by one point, converted to millimeters.
func offsetResult(label string) computeFunc {
	return func(pts []geometry.Point2D, calib *calibration.Reference, ctx viewport.Context) []Result {
		return []Result{{Label: label, Value: calib.MmHorizontalOffset(pts[0], pts[1], ctx), Unit: UnitMm}}
	}
}

func lengthResult(label string) computeFunc {
	return func(pts []geometry.Point2D, calib *calibration.Reference, ctx viewport.Context) []Result {
		return []Result{{Label: label, Value: calib.MmDistance(pts[0], pts[1], ctx), Unit: UnitMm}}
	}
}

// endplateResult fits a least-squares line through all marked points and
// reports its tilt against the horizontal.
func endplateResult(label string) computeFunc {
	return func(pts []geometry.Point2D, _ *calibration.Reference, _ viewport.Context) []Result {
		deg, ok := FitLineAngleDeg(pts)
		if !ok {
			return nil
		}
		return []Result{{Label: label, Value: foldTilt(deg), Unit: UnitDegrees}}
	}
}
