// Package editor drives the two interaction state machines under the
// canvas: per-tool click accumulation and the selection/drag controller.
package editor

import (
	"spine-measure/internal/measure"
	"spine-measure/internal/viewport"
	"spine-measure/pkg/geometry"
)

// Click-accumulation radii in viewport pixels.
const (
	RemoveRadius  = 10.0 // re-clicking a pending point removes it
	ClosureRadius = 12.0 // clicking the first polygon vertex closes it
)

// Session accumulates clicks for the active tool. Pending points and guide
// anchors are transient: both reset on tool change, and on completion the
// collected points are emitted as a finished annotation.
type Session struct {
	toolID  string
	pending []geometry.Point2D
	// One guide anchor per tool id, cleared on tool change. Guide tools
	// render the first click as an unconfirmed anchor until the second
	// click completes the pair.
	guideAnchors map[string]geometry.Point2D
	dragAnchor   *geometry.Point2D // press point of a drawn shape
}

// NewSession creates a session with no active tool.
func NewSession() *Session {
	return &Session{guideAnchors: make(map[string]geometry.Point2D)}
}

// ToolID returns the active tool id.
func (s *Session) ToolID() string {
	return s.toolID
}

// Tool returns the active tool's registry entry.
func (s *Session) Tool() (measure.Tool, bool) {
	return measure.Get(s.toolID)
}

// Pending returns the in-progress points in image space.
func (s *Session) Pending() []geometry.Point2D {
	return s.pending
}

// PendingPoint returns the address of one pending point for dragging.
func (s *Session) PendingPoint(i int) *geometry.Point2D {
	if i < 0 || i >= len(s.pending) {
		return nil
	}
	return &s.pending[i]
}

// Accumulating reports whether the active tool has collected clicks that the
// next click may extend, toggle-remove, or complete. While accumulating, the
// tool owns incoming clicks; selection only sees them once the annotation is
// finished or abandoned.
func (s *Session) Accumulating() bool {
	if len(s.pending) > 0 {
		return true
	}
	_, ok := s.guideAnchors[s.toolID]
	return ok
}

// GuideAnchor returns the active tool's unconfirmed anchor, if any.
func (s *Session) GuideAnchor() (geometry.Point2D, bool) {
	p, ok := s.guideAnchors[s.toolID]
	return p, ok
}

// SetTool switches the active tool, discarding pending points, guide
// anchors, and any in-progress drawn shape without confirmation.
func (s *Session) SetTool(id string) {
	s.toolID = id
	s.Reset()
}

// Reset discards all transient accumulation state.
func (s *Session) Reset() {
	s.pending = nil
	s.guideAnchors = make(map[string]geometry.Point2D)
	s.dragAnchor = nil
}

// Click feeds one image-space click into the active tool. When the click
// completes the tool it returns the finished point set and true; the session
// is then ready for the next annotation of the same tool.
func (s *Session) Click(p geometry.Point2D, ctx viewport.Context) ([]geometry.Point2D, bool) {
	tool, ok := s.Tool()
	if !ok || !ctx.Valid() {
		return nil, false
	}

	switch tool.Input {
	case measure.InputClicks:
		return s.clickSimple(p, tool, ctx)
	case measure.InputGuide:
		return s.clickGuide(p, tool)
	case measure.InputPolygon:
		return s.clickPolygon(p, tool, ctx)
	default:
		// Drawn shapes use Press/Release; the pan tool collects nothing.
		return nil, false
	}
}

// clickSimple appends a point, or toggle-removes an existing pending point
// when the click lands within the removal radius of one.
func (s *Session) clickSimple(p geometry.Point2D, tool measure.Tool, ctx viewport.Context) ([]geometry.Point2D, bool) {
	vp := ctx.ToViewport(p)
	for i, q := range s.pending {
		if vp.Distance(ctx.ToViewport(q)) <= RemoveRadius {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return nil, false
		}
	}

	s.pending = append(s.pending, p)
	if tool.Complete(len(s.pending)) {
		done := s.pending
		s.pending = nil
		return done, true
	}
	return nil, false
}

// clickGuide captures the first click as a rendered-but-unconfirmed anchor;
// the second click emits both points and clears the anchor.
func (s *Session) clickGuide(p geometry.Point2D, tool measure.Tool) ([]geometry.Point2D, bool) {
	anchor, ok := s.guideAnchors[tool.ID]
	if !ok {
		s.guideAnchors[tool.ID] = p
		return nil, false
	}
	delete(s.guideAnchors, tool.ID)
	return []geometry.Point2D{anchor, p}, true
}

// clickPolygon accepts unbounded clicks; a click within the closure radius
// of the first vertex closes the polygon instead of adding a vertex.
func (s *Session) clickPolygon(p geometry.Point2D, tool measure.Tool, ctx viewport.Context) ([]geometry.Point2D, bool) {
	if len(s.pending) >= tool.MinPoints {
		first := ctx.ToViewport(s.pending[0])
		if ctx.ToViewport(p).Distance(first) <= ClosureRadius {
			done := s.pending
			s.pending = nil
			return done, true
		}
	}
	s.pending = append(s.pending, p)
	return nil, false
}

// Press starts a drawn shape (circle, ellipse, rectangle, arrow) at the
// image-space anchor. Returns false for tools that are not press-drag-release.
func (s *Session) Press(p geometry.Point2D) bool {
	tool, ok := s.Tool()
	if !ok || tool.Input != measure.InputDrag {
		return false
	}
	s.dragAnchor = &p
	return true
}

// Drawing returns the anchor of the in-progress drawn shape.
func (s *Session) Drawing() (geometry.Point2D, bool) {
	if s.dragAnchor == nil {
		return geometry.Point2D{}, false
	}
	return *s.dragAnchor, true
}

// Release finishes a drawn shape, emitting anchor and release points.
func (s *Session) Release(p geometry.Point2D) ([]geometry.Point2D, bool) {
	if s.dragAnchor == nil {
		return nil, false
	}
	anchor := *s.dragAnchor
	s.dragAnchor = nil
	return []geometry.Point2D{anchor, p}, true
}
