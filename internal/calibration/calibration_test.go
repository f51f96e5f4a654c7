package calibration

import (
	"math"
	"testing"

	"spine-measure/internal/viewport"
	"spine-measure/pkg/geometry"
)

func view() viewport.Context {
	return viewport.Context{
		ImageSize:     geometry.NewSize(1000, 1000),
		ContainerSize: geometry.NewSize(500, 500),
		Zoom:          2,
	}
}

func TestActive(t *testing.T) {
	var r Reference
	if r.Active() {
		t.Errorf("empty reference must be inactive")
	}

	r.SetPoints([]geometry.Point2D{{X: 0, Y: 0}})
	r.DistanceMm = 100
	if r.Active() {
		t.Errorf("one-point reference must be inactive")
	}

	r.SetPoints([]geometry.Point2D{{X: 0, Y: 0}, {X: 100, Y: 0}})
	if !r.Active() {
		t.Errorf("two points plus a distance must be active")
	}

	r.DistanceMm = 0
	if r.Active() {
		t.Errorf("zero distance must deactivate the reference")
	}
}

func TestMmDistanceWithActiveReference(t *testing.T) {
	r := Reference{
		Points:     []geometry.Point2D{{X: 0, Y: 0}, {X: 200, Y: 0}},
		DistanceMm: 50,
	}
	// A segment the same pixel length as the reference must measure exactly
	// the declared distance, independent of zoom.
	for _, zoom := range []float64{0.5, 1, 3} {
		ctx := view()
		ctx.Zoom = zoom
		got := r.MmDistance(geometry.NewPoint2D(10, 10), geometry.NewPoint2D(210, 10), ctx)
		if math.Abs(got-50) > 1e-9 {
			t.Errorf("zoom=%v: expected 50mm, got %v", zoom, got)
		}
	}
}

func TestDoublingDistanceMmDoublesValues(t *testing.T) {
	r := Reference{
		Points:     []geometry.Point2D{{X: 0, Y: 0}, {X: 100, Y: 0}},
		DistanceMm: 40,
	}
	ctx := view()
	a := geometry.NewPoint2D(100, 500)
	b := geometry.NewPoint2D(400, 500)

	before := r.MmHorizontalOffset(a, b, ctx)
	r.DistanceMm *= 2
	after := r.MmHorizontalOffset(a, b, ctx)

	if math.Abs(after-2*before) > 1e-9 {
		t.Errorf("doubling DistanceMm should double offsets: before=%v after=%v", before, after)
	}
}

func TestNominalFallback(t *testing.T) {
	var r Reference
	ctx := view()

	// 1000 image px under the nominal 1000px~300mm assumption.
	got := r.MmDistance(geometry.NewPoint2D(0, 0), geometry.NewPoint2D(1000, 0), ctx)
	if math.Abs(got-300) > 1e-9 {
		t.Errorf("nominal fallback: expected 300mm, got %v", got)
	}
}

func TestDegenerateReferenceFallsBack(t *testing.T) {
	p := geometry.NewPoint2D(42, 42)
	r := Reference{Points: []geometry.Point2D{p, p}, DistanceMm: 80}
	ctx := view()

	got := r.MmDistance(geometry.NewPoint2D(0, 0), geometry.NewPoint2D(1000, 0), ctx)
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Fatalf("degenerate reference must not blow up, got %v", got)
	}
	if math.Abs(got-300) > 1e-9 {
		t.Errorf("degenerate reference should use the nominal ratio, got %v", got)
	}
}

func TestInvalidContextIsZero(t *testing.T) {
	var r Reference
	if got := r.MmDistance(geometry.Point2D{}, geometry.NewPoint2D(10, 0), viewport.Context{}); got != 0 {
		t.Errorf("invalid context should measure 0, got %v", got)
	}
}

func TestSetPointsDropsExcess(t *testing.T) {
	var r Reference
	r.SetPoints([]geometry.Point2D{{X: 1}, {X: 2}, {X: 3}})
	if len(r.Points) != 2 {
		t.Errorf("expected 2 points, got %d", len(r.Points))
	}
}
