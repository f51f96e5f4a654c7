package editor

import (
	"spine-measure/internal/annotation"
	"spine-measure/internal/viewport"
	"spine-measure/pkg/geometry"
)

// BBoxPad pads the selection bounding box for the drag re-entry test, in
// viewport pixels.
const BBoxPad = 8.0

// State of the selection/drag machine.
type State int

const (
	Idle State = iota
	Selected
	Dragging
)

// Mode says what a drag moves: one point or the whole annotation.
type Mode int

const (
	ModePoint Mode = iota
	ModeWhole
)

// Target identifies what is selected: a completed annotation (optionally one
// of its points) or one in-progress pending point.
type Target struct {
	AnnotationID string
	PointIndex   int // >= 0 in point mode on a completed annotation
	PendingIndex int // >= 0 when a pending point is selected
}

// PressAction tells the caller how a press was consumed.
type PressAction int

const (
	PressIgnored   PressAction = iota
	PressSelected              // something was hit and selected
	PressRearmed               // press inside the current selection, drag armed
	PressDeselected            // miss reset the selection
	PressPan                   // miss with the neutral pan tool: start panning
)

// Controller is the selection + drag-gesture state machine. All cursor
// positions it receives are in viewport space; all point mutations it makes
// are in image space. Exactly one selection exists at a time.
type Controller struct {
	store   *annotation.Store
	session *Session

	state      State
	mode       Mode
	target     Target
	dragOffset geometry.Point2D // image-space cursor minus drag anchor
	armed      bool             // press seen, next move starts the drag
}

// NewController creates a controller over the given store and session.
func NewController(store *annotation.Store, session *Session) *Controller {
	c := &Controller{store: store, session: session}
	c.Reset()
	return c
}

// State returns the current machine state.
func (c *Controller) State() State {
	return c.state
}

// Selection returns the current target; only meaningful outside Idle.
func (c *Controller) Selection() (Target, Mode) {
	return c.target, c.mode
}

// Reset drops any selection and drag.
func (c *Controller) Reset() {
	c.state = Idle
	c.armed = false
	c.target = Target{PointIndex: -1, PendingIndex: -1}
}

// Press feeds a pointer-down at the viewport-space cursor. From Selected, a
// press inside the padded selection bounding box re-arms the drag; a press
// outside resets to Idle and is re-evaluated against all annotations. On a
// miss the neutral pan tool starts panning instead of selecting.
func (c *Controller) Press(cursor geometry.Point2D, ctx viewport.Context, tol float64, panTool bool) PressAction {
	if !ctx.Valid() {
		return PressIgnored
	}

	if c.state == Selected {
		if c.selectionBounds(ctx).Contains(cursor) {
			c.dragOffset = ctx.ToImage(cursor).Sub(c.dragAnchor())
			c.armed = true
			return PressRearmed
		}
		c.Reset()
	}

	hit := annotation.HitTest(cursor, c.store.All(), c.session.Pending(), ctx, tol)
	switch hit.Kind {
	case annotation.HitNone:
		c.Reset()
		if panTool {
			return PressPan
		}
		return PressDeselected
	case annotation.HitPoint:
		c.target = Target{AnnotationID: hit.ID, PointIndex: hit.PointIndex, PendingIndex: -1}
		c.mode = ModePoint
	case annotation.HitPending:
		c.target = Target{PointIndex: -1, PendingIndex: hit.PendingIndex}
		c.mode = ModePoint
	default: // shape or label
		c.target = Target{AnnotationID: hit.ID, PointIndex: -1, PendingIndex: -1}
		c.mode = ModeWhole
	}

	c.state = Selected
	c.dragOffset = ctx.ToImage(cursor).Sub(c.dragAnchor())
	c.armed = true
	return PressSelected
}

// Move feeds a pointer move. While a drag is armed or running it translates
// the target and reports true so the caller can recompute and redraw.
func (c *Controller) Move(cursor geometry.Point2D, ctx viewport.Context) bool {
	if !ctx.Valid() || (!c.armed && c.state != Dragging) {
		return false
	}
	c.state = Dragging

	want := ctx.ToImage(cursor).Sub(c.dragOffset)

	if c.target.PendingIndex >= 0 {
		if p := c.session.PendingPoint(c.target.PendingIndex); p != nil {
			*p = want
			return true
		}
		return false
	}

	a, ok := c.store.Get(c.target.AnnotationID)
	if !ok {
		c.Reset()
		return false
	}

	if c.mode == ModePoint {
		if c.target.PointIndex < 0 || c.target.PointIndex >= len(a.Points) {
			return false
		}
		a.Points[c.target.PointIndex] = want
		return true
	}

	delta := want.Sub(geometry.BoundingBox(a.Points).Center())
	for i := range a.Points {
		a.Points[i] = a.Points[i].Add(delta)
	}
	return true
}

// Release ends the gesture. A drag settles back into Selected; the selection
// persists until a separate miss clears it.
func (c *Controller) Release() {
	c.armed = false
	if c.state == Dragging {
		c.state = Selected
	}
}

// DraggedAnnotation returns the id of the annotation a drag is mutating, if
// the current target is a completed annotation.
func (c *Controller) DraggedAnnotation() (string, bool) {
	if c.state == Idle || c.target.AnnotationID == "" {
		return "", false
	}
	return c.target.AnnotationID, true
}

// dragAnchor is the image-space anchor the drag offset is measured from: the
// point itself in point mode, the bounding-box center in whole mode.
func (c *Controller) dragAnchor() geometry.Point2D {
	if c.target.PendingIndex >= 0 {
		if p := c.session.PendingPoint(c.target.PendingIndex); p != nil {
			return *p
		}
		return geometry.Point2D{}
	}
	a, ok := c.store.Get(c.target.AnnotationID)
	if !ok {
		return geometry.Point2D{}
	}
	if c.mode == ModePoint && c.target.PointIndex >= 0 && c.target.PointIndex < len(a.Points) {
		return a.Points[c.target.PointIndex]
	}
	return geometry.BoundingBox(a.Points).Center()
}

// selectionBounds is the padded viewport-space box a press must land in to
// re-arm a drag from Selected.
func (c *Controller) selectionBounds(ctx viewport.Context) geometry.Rect {
	if c.target.PendingIndex >= 0 {
		if p := c.session.PendingPoint(c.target.PendingIndex); p != nil {
			vp := ctx.ToViewport(*p)
			return geometry.NewRect(vp.X, vp.Y, 0, 0).Expand(annotation.HandleRadius + BBoxPad)
		}
		return geometry.Rect{}
	}
	a, ok := c.store.Get(c.target.AnnotationID)
	if !ok {
		return geometry.Rect{}
	}
	return annotation.BoundsViewport(a, ctx).Expand(BBoxPad)
}
