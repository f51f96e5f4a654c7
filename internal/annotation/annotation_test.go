package annotation

import (
	"strings"
	"testing"

	"spine-measure/internal/calibration"
	"spine-measure/internal/viewport"
	"spine-measure/pkg/geometry"
)

func view() viewport.Context {
	return viewport.Context{
		ImageSize:     geometry.NewSize(1000, 1000),
		ContainerSize: geometry.NewSize(1000, 1000),
		Zoom:          1,
	}
}

func TestStoreLifecycle(t *testing.T) {
	s := NewStore()
	a := s.Create("length", []geometry.Point2D{{X: 0, Y: 0}, {X: 100, Y: 0}})
	b := s.Create("cobb", []geometry.Point2D{{}, {X: 10}, {Y: 10}, {X: 10, Y: 10}})

	if a.ID == b.ID {
		t.Fatalf("ids must be unique")
	}
	if got, ok := s.Get(a.ID); !ok || got != a {
		t.Errorf("Get(%q) failed", a.ID)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}

	if !s.Remove(a.ID) {
		t.Errorf("Remove should succeed")
	}
	if s.Remove(a.ID) {
		t.Errorf("second Remove should fail")
	}
	if _, ok := s.Get(a.ID); ok {
		t.Errorf("removed annotation still resolvable")
	}

	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Clear left %d annotations", s.Len())
	}
}

func TestRecomputePreservesIdentity(t *testing.T) {
	s := NewStore()
	a := s.Create("length", []geometry.Point2D{{X: 0, Y: 0}, {X: 100, Y: 0}})
	calib := &calibration.Reference{}
	s.RecomputeAll(calib, view())

	id, pts := a.ID, append([]geometry.Point2D(nil), a.Points...)
	first := a.Value

	calib.SetPoints([]geometry.Point2D{{X: 0, Y: 0}, {X: 100, Y: 0}})
	calib.DistanceMm = 500
	s.RecomputeDistanceClass(calib, view())

	if a.ID != id {
		t.Errorf("recompute changed the id")
	}
	for i := range pts {
		if a.Points[i] != pts[i] {
			t.Errorf("recompute mutated the points")
		}
	}
	if a.Value == first {
		t.Errorf("calibration edit did not change a distance-class value")
	}
	if !strings.HasSuffix(a.Value, "mm") {
		t.Errorf("length value %q should be in mm", a.Value)
	}
}

func TestRecomputeDistanceClassSkipsAngles(t *testing.T) {
	s := NewStore()
	cobb := s.Create("cobb", []geometry.Point2D{{}, {X: 10}, {Y: 10}, {X: 10, Y: 10}})
	calib := &calibration.Reference{}
	s.RecomputeAll(calib, view())
	before := cobb.Value

	calib.SetPoints([]geometry.Point2D{{}, {X: 50}})
	calib.DistanceMm = 10
	s.RecomputeDistanceClass(calib, view())

	if cobb.Value != before {
		t.Errorf("angle value changed on calibration edit: %q -> %q", before, cobb.Value)
	}
}

func TestHitPriorityPointOverShape(t *testing.T) {
	s := NewStore()
	a := s.Create("length", []geometry.Point2D{{X: 100, Y: 100}, {X: 300, Y: 100}})

	// The cursor is on the segment and within handle radius of an endpoint.
	cursor := geometry.NewPoint2D(105, 100)
	hit := HitTest(cursor, s.All(), nil, view(), 6)

	if hit.Kind != HitPoint {
		t.Fatalf("expected point handle hit, got kind %v", hit.Kind)
	}
	if hit.ID != a.ID || hit.PointIndex != 0 {
		t.Errorf("hit = %+v, want point 0 of %q", hit, a.ID)
	}
}

func TestHitShapeOnSegment(t *testing.T) {
	s := NewStore()
	a := s.Create("length", []geometry.Point2D{{X: 100, Y: 100}, {X: 300, Y: 100}})

	hit := HitTest(geometry.NewPoint2D(200, 103), s.All(), nil, view(), 6)
	if hit.Kind != HitShape || hit.ID != a.ID {
		t.Errorf("expected shape hit on %q, got %+v", a.ID, hit)
	}

	if hit := HitTest(geometry.NewPoint2D(200, 140), s.All(), nil, view(), 6); hit.Kind != HitNone {
		t.Errorf("far cursor should miss, got %+v", hit)
	}
}

func TestHitCircleRingNotCenter(t *testing.T) {
	s := NewStore()
	a := s.Create("circle", []geometry.Point2D{{X: 200, Y: 200}, {X: 250, Y: 200}})

	// Center is not a handle for circles, and not on the ring.
	if hit := HitTest(geometry.NewPoint2D(200, 200), s.All(), nil, view(), 6); hit.Kind != HitNone {
		t.Errorf("circle center should miss, got %+v", hit)
	}
	// On the ring at the opposite side from the edge point.
	if hit := HitTest(geometry.NewPoint2D(150, 200), s.All(), nil, view(), 6); hit.Kind != HitShape || hit.ID != a.ID {
		t.Errorf("ring should hit the shape, got %+v", hit)
	}
}

func TestHitEllipseBoundary(t *testing.T) {
	s := NewStore()
	s.Create("ellipse", []geometry.Point2D{{X: 300, Y: 300}, {X: 400, Y: 350}})

	if hit := HitTest(geometry.NewPoint2D(400, 300), s.All(), nil, view(), 6); hit.Kind != HitShape {
		t.Errorf("point on ellipse boundary should hit, got %+v", hit)
	}
	if hit := HitTest(geometry.NewPoint2D(300, 300), s.All(), nil, view(), 6); hit.Kind != HitNone {
		t.Errorf("ellipse center should miss, got %+v", hit)
	}
}

func TestHitRectangleEdge(t *testing.T) {
	s := NewStore()
	s.Create("rectangle", []geometry.Point2D{{X: 100, Y: 100}, {X: 300, Y: 200}})

	if hit := HitTest(geometry.NewPoint2D(200, 101), s.All(), nil, view(), 6); hit.Kind != HitShape {
		t.Errorf("top edge should hit, got %+v", hit)
	}
	if hit := HitTest(geometry.NewPoint2D(200, 150), s.All(), nil, view(), 6); hit.Kind != HitNone {
		t.Errorf("rectangle interior should miss, got %+v", hit)
	}
}

func TestHitPolygonWrapAroundEdge(t *testing.T) {
	s := NewStore()
	s.Create("polygon", []geometry.Point2D{{X: 100, Y: 100}, {X: 300, Y: 100}, {X: 100, Y: 300}})

	// Near the closing edge from the last vertex back to the first.
	if hit := HitTest(geometry.NewPoint2D(98, 200), s.All(), nil, view(), 6); hit.Kind != HitShape {
		t.Errorf("wrap-around edge should hit, got %+v", hit)
	}
}

func TestHitLabel(t *testing.T) {
	s := NewStore()
	a := s.Create("length", []geometry.Point2D{{X: 100, Y: 100}, {X: 300, Y: 100}})
	Recompute(a, &calibration.Reference{}, view())

	// The label hangs above the segment midpoint.
	hit := HitTest(geometry.NewPoint2D(200, 100-LabelGap-5), s.All(), nil, view(), 6)
	if hit.Kind != HitLabel || hit.ID != a.ID {
		t.Errorf("expected label hit, got %+v", hit)
	}
}

func TestHitPendingOnlyAfterCompletedMiss(t *testing.T) {
	s := NewStore()
	a := s.Create("length", []geometry.Point2D{{X: 100, Y: 100}, {X: 300, Y: 100}})
	pending := []geometry.Point2D{{X: 100, Y: 100}, {X: 500, Y: 500}}

	// Overlapping a completed handle: the completed annotation wins.
	hit := HitTest(geometry.NewPoint2D(100, 100), s.All(), pending, view(), 6)
	if hit.Kind != HitPoint || hit.ID != a.ID {
		t.Errorf("completed annotation should win over pending, got %+v", hit)
	}

	hit = HitTest(geometry.NewPoint2D(503, 500), s.All(), pending, view(), 6)
	if hit.Kind != HitPending || hit.PendingIndex != 1 {
		t.Errorf("expected pending hit on index 1, got %+v", hit)
	}
}

func TestHitRefusedWithoutGeometry(t *testing.T) {
	s := NewStore()
	s.Create("length", []geometry.Point2D{{X: 100, Y: 100}, {X: 300, Y: 100}})

	if hit := HitTest(geometry.NewPoint2D(100, 100), s.All(), nil, viewport.Context{}, 6); hit.Kind != HitNone {
		t.Errorf("invalid context must refuse, got %+v", hit)
	}
}

func TestTopmostAnnotationWins(t *testing.T) {
	s := NewStore()
	s.Create("length", []geometry.Point2D{{X: 100, Y: 100}, {X: 300, Y: 100}})
	top := s.Create("length", []geometry.Point2D{{X: 100, Y: 100}, {X: 100, Y: 300}})

	hit := HitTest(geometry.NewPoint2D(100, 100), s.All(), nil, view(), 6)
	if hit.ID != top.ID {
		t.Errorf("later annotation should be tested first, got %+v", hit)
	}
}
