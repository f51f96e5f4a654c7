// Package calibration holds the user-marked distance reference that converts
// pixel distances into millimeters.
package calibration

import (
	"spine-measure/internal/viewport"
	"spine-measure/pkg/geometry"
)

// Nominal pixel-to-millimeter assumption used when no reference segment has
// been marked: 1000 px taken as roughly 300 mm. This is a nominal working
// ratio, not a calibrated clinical default; every use goes through
// nominalMmPerImagePixel so a measured default can replace it in one place.
const (
	NominalPixels = 1000.0
	NominalMm     = 300.0
)

func nominalMmPerImagePixel() float64 {
	return NominalMm / NominalPixels
}

// Reference is a two-point segment with a declared real-world length. It is
// "active" only when both points and a positive distance are set; otherwise
// the nominal ratio applies.
type Reference struct {
	Points     []geometry.Point2D // 0, 1, or 2 points in image space
	DistanceMm float64
}

// Active reports whether the reference fully defines a pixel-to-mm ratio.
func (r *Reference) Active() bool {
	return len(r.Points) == 2 && r.DistanceMm > 0
}

// SetPoints replaces the reference points. More than two points is a caller
// bug; the excess is dropped.
func (r *Reference) SetPoints(points []geometry.Point2D) {
	if len(points) > 2 {
		points = points[:2]
	}
	r.Points = append([]geometry.Point2D(nil), points...)
}

// Clear removes the reference segment and its declared length.
func (r *Reference) Clear() {
	r.Points = nil
	r.DistanceMm = 0
}

// MmPerViewportPixel returns the millimeters represented by one viewport
// pixel under the given view. When the reference is active the ratio is the
// declared length over the reference segment's viewport-space pixel length;
// otherwise the nominal image-space ratio is divided by the view scale so
// results stay zoom-independent either way.
//
// This is a total function: a degenerate zero-length reference segment falls
// back to the nominal ratio instead of dividing by zero.
func (r *Reference) MmPerViewportPixel(ctx viewport.Context) float64 {
	if !ctx.Valid() {
		return 0
	}
	if r.Active() {
		a := ctx.ToViewport(r.Points[0])
		b := ctx.ToViewport(r.Points[1])
		if length := a.Distance(b); length > 0 {
			return r.DistanceMm / length
		}
	}
	return nominalMmPerImagePixel() / ctx.Scale()
}

// MmDistance converts the distance between two image-space points into
// millimeters under the current view and reference.
func (r *Reference) MmDistance(a, b geometry.Point2D, ctx viewport.Context) float64 {
	if !ctx.Valid() {
		return 0
	}
	va := ctx.ToViewport(a)
	vb := ctx.ToViewport(b)
	return va.Distance(vb) * r.MmPerViewportPixel(ctx)
}

// MmHorizontalOffset converts the horizontal separation of two image-space
// points (each standing for a vertical line) into millimeters.
func (r *Reference) MmHorizontalOffset(a, b geometry.Point2D, ctx viewport.Context) float64 {
	if !ctx.Valid() {
		return 0
	}
	va := ctx.ToViewport(a)
	vb := ctx.ToViewport(b)
	dx := va.X - vb.X
	if dx < 0 {
		dx = -dx
	}
	return dx * r.MmPerViewportPixel(ctx)
}
