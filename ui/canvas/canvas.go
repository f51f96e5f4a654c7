// Package canvas provides the annotation canvas: the radiograph with the
// measurement overlay, pan, zoom, and all pointer interaction.
package canvas

import (
	"image"
	"image/color"

	"fmt"

	"spine-measure/internal/annotation"
	"spine-measure/internal/app"
	"spine-measure/internal/editor"
	"spine-measure/internal/measure"
	"spine-measure/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

const (
	minZoom  = 0.1
	maxZoom  = 10.0
	zoomStep = 1.25

	// hitTol is the shape-boundary pick tolerance in viewport pixels.
	hitTol = 6.0
)

// Overlay colors. The study is grayscale, so saturated colors read well.
var (
	colAnnotation = color.RGBA{R: 0x1E, G: 0x88, B: 0xE5, A: 0xFF}
	colSelected   = color.RGBA{R: 0xFF, G: 0xB3, B: 0x00, A: 0xFF}
	colPending    = color.RGBA{R: 0x4C, G: 0xAF, B: 0x50, A: 0xFF}
	colCalibrate  = color.RGBA{R: 0xE5, G: 0x39, B: 0x35, A: 0xFF}
	colLabel      = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
)

// dragKind says what the current drag gesture is moving. It is decided on
// the first drag event and fixed until release.
type dragKind int

const (
	dragNone dragKind = iota
	dragAnnotation
	dragPan
	dragShape
	dragIgnored
)

// AnnotationCanvas renders the radiograph and its measurement overlay and
// routes pointer events to the editor state machines.
type AnnotationCanvas struct {
	widget.BaseWidget

	state  *app.State
	raster *fynecanvas.Raster

	drag       dragKind
	lastCursor geometry.Point2D // viewport space, updated by every drag event

	// Two-click calibration capture, armed by the calibration panel.
	capturing     bool
	capturePoints []geometry.Point2D
	onCapture     func(points []geometry.Point2D)
}

// New creates the canvas bound to the application state. The canvas redraws
// itself on every event that changes what it shows.
func New(state *app.State) *AnnotationCanvas {
	c := &AnnotationCanvas{state: state}
	c.raster = fynecanvas.NewRaster(c.draw)
	c.raster.ScaleMode = fynecanvas.ImageScalePixels
	c.ExtendBaseWidget(c)

	for _, ev := range []app.EventType{
		app.EventImageLoaded, app.EventAnnotationsChanged,
		app.EventCalibrationChanged, app.EventSelectionChanged,
		app.EventToolChanged, app.EventViewChanged,
	} {
		state.On(ev, func(interface{}) { c.Refresh() })
	}
	return c
}

// StartCalibrationCapture arms a two-click capture. The next two taps are
// collected as the reference segment and passed to done in image space.
func (c *AnnotationCanvas) StartCalibrationCapture(done func(points []geometry.Point2D)) {
	c.capturing = true
	c.capturePoints = nil
	c.onCapture = done
	c.Refresh()
}

// CancelCalibrationCapture drops an in-progress capture.
func (c *AnnotationCanvas) CancelCalibrationCapture() {
	c.capturing = false
	c.capturePoints = nil
	c.onCapture = nil
	c.Refresh()
}

// ZoomIn steps the zoom up, keeping the view center fixed.
func (c *AnnotationCanvas) ZoomIn() {
	c.zoomAbout(c.viewCenter(), c.state.View.Zoom*zoomStep)
}

// ZoomOut steps the zoom down, keeping the view center fixed.
func (c *AnnotationCanvas) ZoomOut() {
	c.zoomAbout(c.viewCenter(), c.state.View.Zoom/zoomStep)
}

// FitToWindow resets zoom and pan so the whole study is letterboxed into
// view.
func (c *AnnotationCanvas) FitToWindow() {
	c.state.View.Zoom = 1
	c.state.View.Pan = geometry.Point2D{}
	c.state.Emit(app.EventViewChanged, c.state.View)
}

func (c *AnnotationCanvas) viewCenter() geometry.Point2D {
	return geometry.Point2D{
		X: c.state.View.ContainerSize.Width / 2,
		Y: c.state.View.ContainerSize.Height / 2,
	}
}

// zoomAbout changes zoom while keeping the image point under the given
// viewport position stationary.
func (c *AnnotationCanvas) zoomAbout(cursor geometry.Point2D, zoom float64) {
	if zoom < minZoom {
		zoom = minZoom
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	view := &c.state.View
	if !view.Valid() {
		view.Zoom = zoom
		return
	}
	anchor := view.ToImage(cursor)
	view.Zoom = zoom
	after := view.ToViewport(anchor)
	view.Pan = view.Pan.Add(cursor.Sub(after))
	c.state.Emit(app.EventViewChanged, *view)
}

// Scrolled zooms about the cursor so the tissue under the wheel stays put.
func (c *AnnotationCanvas) Scrolled(ev *fyne.ScrollEvent) {
	cursor := geometry.NewPoint2D(float64(ev.Position.X), float64(ev.Position.Y))
	if ev.Scrolled.DY > 0 {
		c.zoomAbout(cursor, c.state.View.Zoom*zoomStep)
	} else if ev.Scrolled.DY < 0 {
		c.zoomAbout(cursor, c.state.View.Zoom/zoomStep)
	}
}

// Tapped handles a click: calibration capture first, then selection, then
// the active tool's click accumulation.
func (c *AnnotationCanvas) Tapped(ev *fyne.PointEvent) {
	cursor := geometry.NewPoint2D(float64(ev.Position.X), float64(ev.Position.Y))
	view := c.state.View
	if !view.Valid() {
		return
	}

	if c.capturing {
		c.capturePoints = append(c.capturePoints, view.ToImage(cursor))
		if len(c.capturePoints) == 2 {
			done := c.onCapture
			pts := c.capturePoints
			c.capturing = false
			c.capturePoints = nil
			c.onCapture = nil
			if done != nil {
				done(pts)
			}
		}
		c.Refresh()
		return
	}

	// While the active tool is mid-accumulation the click belongs to it:
	// polygon closure and pending-point toggle-remove must win over
	// pending-point selection (dragging a pending point still works, via
	// the press-drag path).
	if c.state.Session.Accumulating() {
		if pts, done := c.state.Session.Click(view.ToImage(cursor), view); done {
			c.state.AddAnnotation(c.state.Session.ToolID(), pts)
		}
		c.Refresh()
		return
	}

	panTool := c.state.Session.ToolID() == measure.ToolPan
	action := c.state.Controller.Press(cursor, view, hitTol, panTool)
	c.state.Controller.Release()

	switch action {
	case editor.PressSelected, editor.PressRearmed:
		c.state.Emit(app.EventSelectionChanged, nil)
	case editor.PressDeselected, editor.PressPan:
		c.state.Emit(app.EventSelectionChanged, nil)
		if pts, done := c.state.Session.Click(view.ToImage(cursor), view); done {
			c.state.AddAnnotation(c.state.Session.ToolID(), pts)
		}
	}
	c.Refresh()
}

// Dragged routes a drag gesture. The gesture's meaning is decided on its
// first event and does not change mid-drag.
func (c *AnnotationCanvas) Dragged(ev *fyne.DragEvent) {
	cursor := geometry.NewPoint2D(float64(ev.Position.X), float64(ev.Position.Y))
	view := c.state.View
	if !view.Valid() {
		return
	}

	if c.drag == dragNone {
		c.drag = c.beginDrag(cursor, ev)
	}
	c.lastCursor = cursor

	switch c.drag {
	case dragAnnotation:
		if c.state.Controller.Move(cursor, view) {
			if id, ok := c.state.Controller.DraggedAnnotation(); ok {
				c.state.RecomputeAnnotation(id)
			}
		}
	case dragPan:
		c.state.View.Pan = c.state.View.Pan.Add(geometry.NewPoint2D(
			float64(ev.Dragged.DX), float64(ev.Dragged.DY)))
		c.state.Emit(app.EventViewChanged, c.state.View)
	}
	c.Refresh()
}

// beginDrag classifies the gesture from its first event. The press position
// is the event position minus the delta already travelled.
func (c *AnnotationCanvas) beginDrag(cursor geometry.Point2D, ev *fyne.DragEvent) dragKind {
	press := cursor.Sub(geometry.NewPoint2D(float64(ev.Dragged.DX), float64(ev.Dragged.DY)))
	view := c.state.View

	if tool, ok := c.state.Session.Tool(); ok && tool.Input == measure.InputDrag {
		// A press on an existing annotation still selects and drags it;
		// drawing starts only on empty ground.
		action := c.state.Controller.Press(press, view, hitTol, false)
		if action == editor.PressSelected || action == editor.PressRearmed {
			return dragAnnotation
		}
		if c.state.Session.Press(view.ToImage(press)) {
			return dragShape
		}
		return dragIgnored
	}

	panTool := c.state.Session.ToolID() == measure.ToolPan
	switch c.state.Controller.Press(press, view, hitTol, panTool) {
	case editor.PressSelected, editor.PressRearmed:
		c.state.Emit(app.EventSelectionChanged, nil)
		return dragAnnotation
	case editor.PressPan:
		return dragPan
	default:
		return dragIgnored
	}
}

// DragEnd finishes the gesture: a drawn shape becomes an annotation, a drag
// settles back into selection.
func (c *AnnotationCanvas) DragEnd() {
	switch c.drag {
	case dragShape:
		view := c.state.View
		if pts, done := c.state.Session.Release(view.ToImage(c.lastCursor)); done {
			c.state.AddAnnotation(c.state.Session.ToolID(), pts)
		}
	case dragAnnotation:
		c.state.Controller.Release()
		if id, ok := c.state.Controller.DraggedAnnotation(); ok {
			c.state.RecomputeAnnotation(id)
		}
	}
	c.drag = dragNone
	c.Refresh()
}

// Refresh redraws the raster.
func (c *AnnotationCanvas) Refresh() {
	c.raster.Refresh()
	c.BaseWidget.Refresh()
}

// CreateRenderer implements fyne.Widget.
func (c *AnnotationCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &canvasRenderer{canvas: c}
}

type canvasRenderer struct {
	canvas *AnnotationCanvas
}

func (r *canvasRenderer) Layout(size fyne.Size) {
	r.canvas.raster.Resize(size)
	view := &r.canvas.state.View
	view.ContainerSize = geometry.NewSize(float64(size.Width), float64(size.Height))
}

func (r *canvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

func (r *canvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *canvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.raster}
}

func (r *canvasRenderer) Destroy() {}

// draw renders the full frame: letterboxed study, completed annotations,
// pending accumulation, calibration reference, capture markers.
func (c *AnnotationCanvas) draw(w, h int) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 255
	}

	view := c.state.View
	if !view.Valid() || c.state.Radiograph == nil || c.state.Radiograph.Image == nil {
		return out
	}

	c.drawStudy(out, w, h)

	selectedID := ""
	target, _ := c.state.Controller.Selection()
	if c.state.Controller.State() != editor.Idle {
		selectedID = target.AnnotationID
	}
	for _, a := range c.state.Annotations.All() {
		col := colAnnotation
		if a.ID == selectedID {
			col = colSelected
		}
		c.drawAnnotation(out, a, col)
	}

	c.drawPending(out, target)
	c.drawCalibration(out)
	c.drawCapture(out)
	return out
}

// drawStudy samples the radiograph into its display rectangle, nearest
// neighbor.
func (c *AnnotationCanvas) drawStudy(out *image.RGBA, w, h int) {
	view := c.state.View
	src := c.state.Radiograph.Image
	srcBounds := src.Bounds()
	rect := view.DisplayRect()
	scale := view.Scale()
	if scale <= 0 {
		return
	}

	x0 := clampInt(int(rect.X), 0, w)
	x1 := clampInt(int(rect.X+rect.Width), 0, w)
	y0 := clampInt(int(rect.Y), 0, h)
	y1 := clampInt(int(rect.Y+rect.Height), 0, h)

	for y := y0; y < y1; y++ {
		srcY := srcBounds.Min.Y + int((float64(y)-rect.Y)/scale)
		if srcY < srcBounds.Min.Y || srcY >= srcBounds.Max.Y {
			continue
		}
		for x := x0; x < x1; x++ {
			srcX := srcBounds.Min.X + int((float64(x)-rect.X)/scale)
			if srcX < srcBounds.Min.X || srcX >= srcBounds.Max.X {
				continue
			}
			out.Set(x, y, src.At(srcX, srcY))
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// drawAnnotation renders one completed annotation: shape, point handles,
// value label.
func (c *AnnotationCanvas) drawAnnotation(out *image.RGBA, a *annotation.Annotation, col color.RGBA) {
	view := c.state.View
	vpts := make([]geometry.Point2D, len(a.Points))
	for i, p := range a.Points {
		vpts[i] = view.ToViewport(p)
	}

	switch a.Type {
	case "circle":
		if len(vpts) >= 2 {
			drawCircleOutline(out, vpts[0].X, vpts[0].Y, vpts[0].Distance(vpts[1]), col)
		}
	case "ellipse":
		if len(vpts) >= 2 {
			rx := abs(vpts[1].X - vpts[0].X)
			ry := abs(vpts[1].Y - vpts[0].Y)
			drawEllipseOutline(out, vpts[0].X, vpts[0].Y, rx, ry, col)
		}
	case "rectangle":
		if len(vpts) >= 2 {
			drawRectOutline(out, vpts[0].X, vpts[0].Y, vpts[1].X, vpts[1].Y, col)
		}
	case "arrow":
		if len(vpts) >= 2 {
			drawArrow(out, vpts[0].X, vpts[0].Y, vpts[1].X, vpts[1].Y, col)
		}
	case "polygon":
		for i := range vpts {
			j := (i + 1) % len(vpts)
			drawLine(out, vpts[i].X, vpts[i].Y, vpts[j].X, vpts[j].Y, col, 1)
		}
	case "endplate-line":
		for i := 0; i+1 < len(vpts); i++ {
			drawLine(out, vpts[i].X, vpts[i].Y, vpts[i+1].X, vpts[i+1].Y, col, 1)
		}
	default:
		c.drawSegments(out, vpts, col)
	}

	if a.Type != "circle" && a.Type != "ellipse" {
		for _, vp := range vpts {
			drawHandle(out, vp.X, vp.Y, col)
		}
	}

	if tool, ok := measure.Get(a.Type); ok && a.Value != "" && len(a.Points) > 0 {
		anchor := view.ToViewport(tool.LabelAnchor(a.Points))
		drawLabel(out, a.Value, int(anchor.X), int(anchor.Y-annotation.LabelGap-14), colLabel, 2)
	}
}

// drawSegments renders the line families: one segment for two points, the
// two arms for three, both independent segments for four.
func (c *AnnotationCanvas) drawSegments(out *image.RGBA, vpts []geometry.Point2D, col color.RGBA) {
	switch {
	case len(vpts) >= 4:
		drawLine(out, vpts[0].X, vpts[0].Y, vpts[1].X, vpts[1].Y, col, 1)
		drawLine(out, vpts[2].X, vpts[2].Y, vpts[3].X, vpts[3].Y, col, 1)
	case len(vpts) == 3:
		drawLine(out, vpts[1].X, vpts[1].Y, vpts[0].X, vpts[0].Y, col, 1)
		drawLine(out, vpts[1].X, vpts[1].Y, vpts[2].X, vpts[2].Y, col, 1)
	case len(vpts) == 2:
		drawLine(out, vpts[0].X, vpts[0].Y, vpts[1].X, vpts[1].Y, col, 1)
	}
}

// drawPending renders in-progress accumulation: pending points with their
// connecting preview, the guide anchor, and the rubber band of a drawn
// shape.
func (c *AnnotationCanvas) drawPending(out *image.RGBA, target editor.Target) {
	view := c.state.View

	pending := c.state.Session.Pending()
	var prev geometry.Point2D
	for i, p := range pending {
		vp := view.ToViewport(p)
		col := colPending
		if target.PendingIndex == i {
			col = colSelected
		}
		drawHandle(out, vp.X, vp.Y, col)
		if i > 0 {
			drawLine(out, prev.X, prev.Y, vp.X, vp.Y, colPending, 1)
		}
		prev = vp
	}

	if anchor, ok := c.state.Session.GuideAnchor(); ok {
		vp := view.ToViewport(anchor)
		drawCross(out, vp.X, vp.Y, colPending)
	}

	if anchor, ok := c.state.Session.Drawing(); ok && c.drag == dragShape {
		a := view.ToViewport(anchor)
		b := c.lastCursor
		switch c.state.Session.ToolID() {
		case "circle":
			drawCircleOutline(out, a.X, a.Y, a.Distance(b), colPending)
		case "ellipse":
			drawEllipseOutline(out, a.X, a.Y, abs(b.X-a.X), abs(b.Y-a.Y), colPending)
		case "arrow":
			drawArrow(out, a.X, a.Y, b.X, b.Y, colPending)
		default:
			drawRectOutline(out, a.X, a.Y, b.X, b.Y, colPending)
		}
	}
}

// drawCalibration renders the active reference segment and its declared
// length.
func (c *AnnotationCanvas) drawCalibration(out *image.RGBA) {
	ref := &c.state.Calibration
	if !ref.Active() {
		return
	}
	view := c.state.View
	a := view.ToViewport(ref.Points[0])
	b := view.ToViewport(ref.Points[1])
	drawLine(out, a.X, a.Y, b.X, b.Y, colCalibrate, 2)
	drawHandle(out, a.X, a.Y, colCalibrate)
	drawHandle(out, b.X, b.Y, colCalibrate)
	mid := a.Midpoint(b)
	drawLabel(out, fmt.Sprintf("%.1fmm", ref.DistanceMm), int(mid.X), int(mid.Y)-18, colCalibrate, 2)
}

// drawCapture renders the first click of a two-click calibration capture.
func (c *AnnotationCanvas) drawCapture(out *image.RGBA) {
	if !c.capturing {
		return
	}
	view := c.state.View
	for _, p := range c.capturePoints {
		vp := view.ToViewport(p)
		drawCross(out, vp.X, vp.Y, colCalibrate)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
