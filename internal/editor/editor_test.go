package editor

import (
	"testing"

	"spine-measure/internal/annotation"
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

func pt(x, y float64) geometry.Point2D { return geometry.NewPoint2D(x, y) }

func TestSimpleToolEmitsAtRequiredCount(t *testing.T) {
	s := NewSession()
	s.SetTool("cobb")

	clicks := []geometry.Point2D{pt(0, 0), pt(100, 0), pt(0, 100), pt(100, 100)}
	for i, c := range clicks[:3] {
		if _, done := s.Click(c, view()); done {
			t.Fatalf("click %d completed a 4-point tool early", i)
		}
	}
	points, done := s.Click(clicks[3], view())
	if !done || len(points) != 4 {
		t.Fatalf("fourth click should emit 4 points, got done=%v n=%d", done, len(points))
	}
	if len(s.Pending()) != 0 {
		t.Errorf("pending should reset after emission")
	}
}

func TestToggleRemovePendingPoint(t *testing.T) {
	s := NewSession()
	s.SetTool("cobb")
	s.Click(pt(50, 50), view())
	s.Click(pt(200, 200), view())

	// Click within the removal radius of the first pending point.
	if _, done := s.Click(pt(53, 52), view()); done {
		t.Fatalf("removal click must not complete the tool")
	}
	if n := len(s.Pending()); n != 1 {
		t.Fatalf("expected 1 pending point after toggle-remove, got %d", n)
	}
	if s.Pending()[0] != pt(200, 200) {
		t.Errorf("wrong point removed: %v", s.Pending())
	}
}

func TestGuideToolAnchorFlow(t *testing.T) {
	s := NewSession()
	s.SetTool("vertebral-tilt")

	if _, done := s.Click(pt(10, 10), view()); done {
		t.Fatalf("first guide click must not complete")
	}
	anchor, ok := s.GuideAnchor()
	if !ok || anchor != pt(10, 10) {
		t.Fatalf("guide anchor not captured: %v %v", anchor, ok)
	}

	points, done := s.Click(pt(110, 60), view())
	if !done || len(points) != 2 {
		t.Fatalf("second guide click should emit 2 points")
	}
	if points[0] != pt(10, 10) || points[1] != pt(110, 60) {
		t.Errorf("emitted points wrong: %v", points)
	}
	if _, ok := s.GuideAnchor(); ok {
		t.Errorf("guide anchor should clear on completion")
	}
}

func TestToolChangeDiscardsTransientState(t *testing.T) {
	s := NewSession()
	s.SetTool("vertebral-tilt")
	s.Click(pt(10, 10), view())
	s.SetTool("cobb")

	if _, ok := s.GuideAnchor(); ok {
		t.Errorf("guide anchor must clear on tool change")
	}

	s.Click(pt(1, 1), view())
	s.SetTool("length")
	if len(s.Pending()) != 0 {
		t.Errorf("pending points must clear on tool change")
	}
}

func TestPolygonAutoClose(t *testing.T) {
	s := NewSession()
	s.SetTool("polygon")

	s.Click(pt(100, 100), view())
	s.Click(pt(300, 100), view())
	s.Click(pt(200, 300), view())

	// A click within the closure radius of the first vertex closes the
	// polygon; the closing click is not appended as a fourth point.
	points, done := s.Click(pt(104, 103), view())
	if !done {
		t.Fatalf("closure click should complete the polygon")
	}
	if len(points) != 3 {
		t.Fatalf("expected exactly 3 points, got %d", len(points))
	}
}

func TestPolygonNoCloseBelowMinimum(t *testing.T) {
	s := NewSession()
	s.SetTool("polygon")

	s.Click(pt(100, 100), view())
	s.Click(pt(300, 100), view())
	if _, done := s.Click(pt(102, 101), view()); done {
		t.Fatalf("two points cannot close a polygon")
	}
	if n := len(s.Pending()); n != 3 {
		t.Errorf("below-minimum closure click should append, pending=%d", n)
	}
}

func TestDrawnShapePressRelease(t *testing.T) {
	s := NewSession()
	s.SetTool("circle")

	if !s.Press(pt(200, 200)) {
		t.Fatalf("circle should accept press")
	}
	if _, ok := s.Drawing(); !ok {
		t.Fatalf("drawing anchor should be live")
	}
	points, done := s.Release(pt(260, 200))
	if !done || len(points) != 2 {
		t.Fatalf("release should emit anchor+current, got %v", points)
	}
	if points[0] != pt(200, 200) {
		t.Errorf("anchor wrong: %v", points[0])
	}
}

func TestPressIgnoredForClickTools(t *testing.T) {
	s := NewSession()
	s.SetTool("cobb")
	if s.Press(pt(0, 0)) {
		t.Errorf("click tools must not accept press-drag")
	}
}

func TestClickRefusedWithoutGeometry(t *testing.T) {
	s := NewSession()
	s.SetTool("cobb")
	if _, done := s.Click(pt(1, 1), viewport.Context{}); done || len(s.Pending()) != 0 {
		t.Errorf("clicks must be refused before the image size is known")
	}
}

// Controller tests.

func fixture() (*annotation.Store, *Session, *Controller, *annotation.Annotation) {
	store := annotation.NewStore()
	a := store.Create("length", []geometry.Point2D{pt(100, 100), pt(300, 100)})
	session := NewSession()
	session.SetTool("length")
	ctrl := NewController(store, session)
	ctrl.Reset()
	return store, session, ctrl, a
}

func TestPressSelectsPoint(t *testing.T) {
	_, _, ctrl, a := fixture()

	if got := ctrl.Press(pt(102, 101), view(), 6, false); got != PressSelected {
		t.Fatalf("press on handle = %v, want PressSelected", got)
	}
	target, mode := ctrl.Selection()
	if target.AnnotationID != a.ID || target.PointIndex != 0 || mode != ModePoint {
		t.Errorf("selection = %+v mode=%v", target, mode)
	}
	if ctrl.State() != Selected {
		t.Errorf("state = %v, want Selected", ctrl.State())
	}
}

func TestDragMovesOnePoint(t *testing.T) {
	_, _, ctrl, a := fixture()

	ctrl.Press(pt(102, 101), view(), 6, false)
	if !ctrl.Move(pt(150, 130), view()) {
		t.Fatalf("move after press should drag")
	}
	if ctrl.State() != Dragging {
		t.Fatalf("state = %v, want Dragging", ctrl.State())
	}

	// The grabbed point follows the cursor minus the grab offset; the
	// other endpoint must not move.
	if a.Points[1] != pt(300, 100) {
		t.Errorf("point drag moved the wrong point: %v", a.Points)
	}
	if a.Points[0] == pt(100, 100) {
		t.Errorf("grabbed point did not move")
	}

	ctrl.Release()
	if ctrl.State() != Selected {
		t.Errorf("release should settle into Selected, got %v", ctrl.State())
	}
}

func TestWholeDragTranslatesAllPoints(t *testing.T) {
	_, _, ctrl, a := fixture()

	// Hit the segment body, away from both handles.
	if got := ctrl.Press(pt(200, 102), view(), 6, false); got != PressSelected {
		t.Fatalf("press on shape = %v", got)
	}
	_, mode := ctrl.Selection()
	if mode != ModeWhole {
		t.Fatalf("mode = %v, want ModeWhole", mode)
	}

	ctrl.Move(pt(220, 142), view())
	d0 := a.Points[0].Sub(pt(100, 100))
	d1 := a.Points[1].Sub(pt(300, 100))
	if d0 != d1 {
		t.Errorf("whole drag must translate uniformly: %v vs %v", d0, d1)
	}
	if d0 == (geometry.Point2D{}) {
		t.Errorf("whole drag did not move")
	}
}

func TestMissDeselectsAndPanToolPans(t *testing.T) {
	_, _, ctrl, _ := fixture()

	ctrl.Press(pt(102, 101), view(), 6, false)
	ctrl.Release()

	// Miss far outside the padded bbox resets to Idle.
	if got := ctrl.Press(pt(700, 700), view(), 6, false); got != PressDeselected {
		t.Errorf("miss = %v, want PressDeselected", got)
	}
	if ctrl.State() != Idle {
		t.Errorf("state after miss = %v, want Idle", ctrl.State())
	}

	if got := ctrl.Press(pt(700, 700), view(), 6, true); got != PressPan {
		t.Errorf("miss with pan tool = %v, want PressPan", got)
	}
}

func TestSelectedReentryInsidePaddedBBox(t *testing.T) {
	_, _, ctrl, _ := fixture()

	ctrl.Press(pt(200, 102), view(), 6, false) // whole-mode selection
	ctrl.Release()

	// Press inside the padded bbox but not on the shape itself: re-arms the
	// drag on the existing selection rather than deselecting.
	if got := ctrl.Press(pt(290, 95), view(), 6, false); got != PressRearmed {
		t.Errorf("press inside padded bbox = %v, want PressRearmed", got)
	}
}

func TestSelectedPressOutsideReevaluates(t *testing.T) {
	store, _, ctrl, _ := fixture()
	other := store.Create("length", []geometry.Point2D{pt(600, 600), pt(700, 600)})

	ctrl.Press(pt(200, 102), view(), 6, false)
	ctrl.Release()

	// Press outside the first selection but on the second annotation.
	if got := ctrl.Press(pt(650, 601), view(), 6, false); got != PressSelected {
		t.Fatalf("press on other annotation = %v", got)
	}
	target, _ := ctrl.Selection()
	if target.AnnotationID != other.ID {
		t.Errorf("selection should move to %q, got %+v", other.ID, target)
	}
}

func TestDragPendingPoint(t *testing.T) {
	_, session, ctrl, _ := fixture()
	session.SetTool("cobb")
	session.Click(pt(500, 500), view())

	if got := ctrl.Press(pt(502, 501), view(), 6, false); got != PressSelected {
		t.Fatalf("press on pending point = %v", got)
	}
	ctrl.Move(pt(540, 520), view())
	if session.Pending()[0] == pt(500, 500) {
		t.Errorf("pending point did not move")
	}
}

func TestPressRefusedWithoutGeometry(t *testing.T) {
	_, _, ctrl, _ := fixture()
	if got := ctrl.Press(pt(102, 101), viewport.Context{}, 6, false); got != PressIgnored {
		t.Errorf("press before geometry known = %v, want PressIgnored", got)
	}
}
