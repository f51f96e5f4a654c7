package geometry

import (
	"math"
	"testing"
)

func TestPointDistance(t *testing.T) {
	a := NewPoint2D(0, 0)
	b := NewPoint2D(3, 4)

	if got := a.Distance(b); math.Abs(got-5) > 1e-10 {
		t.Errorf("Distance failed: expected 5, got %v", got)
	}
}

func TestDistanceToSegment(t *testing.T) {
	a := NewPoint2D(0, 0)
	b := NewPoint2D(10, 0)

	cases := []struct {
		p    Point2D
		want float64
	}{
		{NewPoint2D(5, 3), 3},    // above the middle
		{NewPoint2D(-4, 3), 5},   // beyond the start, clamps to a
		{NewPoint2D(13, 4), 5},   // beyond the end, clamps to b
		{NewPoint2D(7, 0), 0},    // on the segment
	}
	for _, c := range cases {
		if got := DistanceToSegment(c.p, a, b); math.Abs(got-c.want) > 1e-10 {
			t.Errorf("DistanceToSegment(%v) = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestDistanceToSegmentDegenerate(t *testing.T) {
	a := NewPoint2D(2, 2)
	if got := DistanceToSegment(NewPoint2D(5, 6), a, a); math.Abs(got-5) > 1e-10 {
		t.Errorf("degenerate segment: expected 5, got %v", got)
	}
}

func TestDistanceToPolygonEdgeWrapsAround(t *testing.T) {
	// Unit-ish triangle; the closest edge to the probe is the wrap-around
	// edge from the last vertex back to the first.
	tri := []Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}}
	p := NewPoint2D(-2, 5)

	if got := DistanceToPolygonEdge(p, tri); math.Abs(got-2) > 1e-10 {
		t.Errorf("wrap-around edge distance: expected 2, got %v", got)
	}
}

func TestBoundingBox(t *testing.T) {
	pts := []Point2D{{X: 3, Y: 7}, {X: -1, Y: 2}, {X: 5, Y: 4}}
	box := BoundingBox(pts)

	want := Rect{X: -1, Y: 2, Width: 6, Height: 5}
	if box != want {
		t.Errorf("BoundingBox = %+v, want %+v", box, want)
	}
}

func TestRectExpandContains(t *testing.T) {
	r := NewRect(0, 0, 10, 10).Expand(5)
	if !r.Contains(NewPoint2D(-3, -3)) {
		t.Errorf("expanded rect should contain (-3,-3)")
	}
	if r.Contains(NewPoint2D(-6, 0)) {
		t.Errorf("expanded rect should not contain (-6,0)")
	}
}

func TestAffineInverseRoundTrip(t *testing.T) {
	tr := Translation(40, -12).Compose(Scaling(2.5)).Compose(Translation(-3, 9))
	inv, ok := tr.Inverse()
	if !ok {
		t.Fatalf("transform should be invertible")
	}

	p := NewPoint2D(17.3, -42.9)
	back := inv.Apply(tr.Apply(p))
	if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
		t.Errorf("round trip failed: got %v, want %v", back, p)
	}
}

func TestAffineSingularInverse(t *testing.T) {
	if _, ok := (AffineTransform{}).Inverse(); ok {
		t.Errorf("zero transform must not be invertible")
	}
}

func TestSegmentAngleDeg(t *testing.T) {
	got := SegmentAngleDeg(NewPoint2D(0, 0), NewPoint2D(1, 1))
	if math.Abs(got-45) > 1e-10 {
		t.Errorf("SegmentAngleDeg = %v, want 45", got)
	}
}
