package canvas

import (
	"testing"

	"spine-measure/internal/app"
	"spine-measure/internal/editor"
	"spine-measure/pkg/geometry"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
)

// testCanvas returns a canvas over a 1000x1000 study in a 1000x1000
// container, so viewport and image coordinates coincide.
func testCanvas() (*AnnotationCanvas, *app.State) {
	test.NewApp()
	state := app.NewState()
	state.View.ImageSize = geometry.NewSize(1000, 1000)
	state.View.ContainerSize = geometry.NewSize(1000, 1000)
	return New(state), state
}

func tap(c *AnnotationCanvas, x, y float64) {
	c.Tapped(&fyne.PointEvent{Position: fyne.NewPos(float32(x), float32(y))})
}

func TestTapOnFirstVertexClosesPolygon(t *testing.T) {
	c, state := testCanvas()
	state.SetTool("polygon")

	tap(c, 100, 100)
	tap(c, 300, 100)
	tap(c, 200, 300)
	// Within the closure radius of the first vertex. This must close the
	// polygon, not select the pending point under the cursor.
	tap(c, 104, 103)

	if state.Annotations.Len() != 1 {
		t.Fatalf("expected 1 polygon, got %d annotations (pending=%d)",
			state.Annotations.Len(), len(state.Session.Pending()))
	}
	a := state.Annotations.All()[0]
	if a.Type != "polygon" || len(a.Points) != 3 {
		t.Errorf("closed annotation = %s with %d points, want polygon with 3", a.Type, len(a.Points))
	}
	if len(state.Session.Pending()) != 0 {
		t.Errorf("pending points survived polygon closure")
	}
}

func TestTapNearPendingPointToggleRemoves(t *testing.T) {
	c, state := testCanvas()
	state.SetTool("cobb")

	tap(c, 100, 100)
	tap(c, 200, 200)
	// Within the removal radius of the first pending point.
	tap(c, 103, 102)

	pending := state.Session.Pending()
	if len(pending) != 1 {
		t.Fatalf("expected toggle-remove to leave 1 pending point, got %d", len(pending))
	}
	if pending[0].X != 200 || pending[0].Y != 200 {
		t.Errorf("wrong point removed: remaining %+v", pending[0])
	}
	if state.Annotations.Len() != 0 {
		t.Errorf("toggle-remove click created an annotation")
	}
}

func TestTapSelectsWhenNotAccumulating(t *testing.T) {
	c, state := testCanvas()
	a := state.AddAnnotation("length", []geometry.Point2D{{X: 400, Y: 400}, {X: 600, Y: 400}})

	tap(c, 402, 401)

	if state.Controller.State() != editor.Selected {
		t.Fatalf("tap on an annotation point should select it")
	}
	target, mode := state.Controller.Selection()
	if target.AnnotationID != a.ID || mode != editor.ModePoint {
		t.Errorf("selection = %+v mode %v, want point of %s", target, mode, a.ID)
	}
}

func TestGuideToolAnchorThenCompletion(t *testing.T) {
	c, state := testCanvas()
	state.SetTool("sva")

	tap(c, 500, 200)
	if _, ok := state.Session.GuideAnchor(); !ok {
		t.Fatalf("first guide click should set the anchor")
	}
	// The second click lands on top of the anchor's handle; it must still
	// complete the pair rather than selecting the anchor.
	tap(c, 503, 202)

	if state.Annotations.Len() != 1 {
		t.Fatalf("expected completed sva annotation, got %d", state.Annotations.Len())
	}
	if _, ok := state.Session.GuideAnchor(); ok {
		t.Errorf("guide anchor survived completion")
	}
}
