// Package app provides application state, the event bus, and lifecycle
// helpers. Every mutation of annotation or calibration data funnels through
// State so listeners stay in sync.
package app

import (
	"fmt"
	"log"
	"sync"

	"spine-measure/internal/annotation"
	"spine-measure/internal/bundle"
	"spine-measure/internal/calibration"
	"spine-measure/internal/detect"
	"spine-measure/internal/editor"
	"spine-measure/internal/measure"
	"spine-measure/internal/viewport"
	"spine-measure/internal/xray"
	"spine-measure/pkg/geometry"
)

// EventType identifies application events.
type EventType int

const (
	EventImageLoaded EventType = iota
	EventAnnotationsChanged
	EventCalibrationChanged
	EventSelectionChanged
	EventToolChanged
	EventViewChanged
	EventNotice
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// State holds the study being annotated and all interaction state. It is
// mutated only from the UI event loop; the mutex guards listener
// registration and the few reads that happen off it.
type State struct {
	mu sync.RWMutex

	Radiograph  *xray.Radiograph
	View        viewport.Context
	Calibration calibration.Reference
	Annotations *annotation.Store
	Session     *editor.Session
	Controller  *editor.Controller

	listeners map[EventType][]EventListener
}

// NewState creates the application state with the pan tool active.
func NewState() *State {
	s := &State{
		Annotations: annotation.NewStore(),
		Session:     editor.NewSession(),
		View:        viewport.Context{Zoom: 1},
		listeners:   make(map[EventType][]EventListener),
	}
	s.Controller = editor.NewController(s.Annotations, s.Session)
	s.Session.SetTool(measure.ToolPan)
	return s
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Notify surfaces a transient, auto-dismissing notice.
func (s *State) Notify(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Print(msg)
	s.Emit(EventNotice, msg)
}

// SetRadiograph installs a decoded study and resets all interaction state.
func (s *State) SetRadiograph(r *xray.Radiograph) {
	s.Radiograph = r
	s.View.ImageSize = r.NaturalSize()
	s.View.Pan = geometry.Point2D{}
	s.View.Zoom = 1
	s.Session.Reset()
	s.Controller.Reset()
	s.Emit(EventImageLoaded, r)
	s.Emit(EventViewChanged, s.View)
}

// SetTool switches the active tool, discarding pending accumulation.
func (s *State) SetTool(id string) {
	s.Session.SetTool(id)
	s.Emit(EventToolChanged, id)
}

// AddAnnotation creates an annotation from completed tool points, computes
// its value, and announces the change.
func (s *State) AddAnnotation(typ string, points []geometry.Point2D) *annotation.Annotation {
	a := s.Annotations.Create(typ, points)
	annotation.Recompute(a, &s.Calibration, s.View)
	s.Emit(EventAnnotationsChanged, nil)
	return a
}

// DeleteAnnotation removes one annotation by id.
func (s *State) DeleteAnnotation(id string) {
	if s.Annotations.Remove(id) {
		s.Controller.Reset()
		s.Emit(EventSelectionChanged, nil)
		s.Emit(EventAnnotationsChanged, nil)
	}
}

// ClearAll removes every annotation. The UI asks for confirmation first;
// the operation is irreversible within the session.
func (s *State) ClearAll() {
	s.Annotations.Clear()
	s.Session.Reset()
	s.Controller.Reset()
	s.Emit(EventSelectionChanged, nil)
	s.Emit(EventAnnotationsChanged, nil)
}

// SetCalibration replaces the reference segment and declared length, then
// synchronously recomputes every distance-class annotation before returning.
// It must never interleave with an in-progress drag.
func (s *State) SetCalibration(points []geometry.Point2D, distanceMm float64) {
	s.Calibration.SetPoints(points)
	s.Calibration.DistanceMm = distanceMm
	s.Annotations.RecomputeDistanceClass(&s.Calibration, s.View)
	s.Emit(EventCalibrationChanged, nil)
	s.Emit(EventAnnotationsChanged, nil)
}

// ClearCalibration drops the reference segment; distance-class values fall
// back to the nominal ratio.
func (s *State) ClearCalibration() {
	s.Calibration.Clear()
	s.Annotations.RecomputeDistanceClass(&s.Calibration, s.View)
	s.Emit(EventCalibrationChanged, nil)
	s.Emit(EventAnnotationsChanged, nil)
}

// RecomputeAnnotation refreshes one annotation's value after a drag.
func (s *State) RecomputeAnnotation(id string) {
	if a, ok := s.Annotations.Get(id); ok {
		annotation.Recompute(a, &s.Calibration, s.View)
		s.Emit(EventAnnotationsChanged, nil)
	}
}

// ApplyDetections adds service suggestions as completed annotations.
func (s *State) ApplyDetections(detections []detect.Detection) {
	if len(detections) == 0 {
		s.Notify("detection found nothing to add")
		return
	}
	cobbSeen := 0
	for _, d := range detections {
		a := s.Annotations.Create(d.Type, d.Points)
		if d.Type == "cobb" {
			cobbSeen++
			if cobbSeen > 1 {
				a.Description = fmt.Sprintf("auto #%d", cobbSeen)
			}
		}
		annotation.Recompute(a, &s.Calibration, s.View)
	}
	s.Emit(EventAnnotationsChanged, nil)
	s.Notify("added %d detected measurements", len(detections))
}

// ExportBundle captures the current session as a persistence bundle.
func (s *State) ExportBundle(imageID string) *bundle.Bundle {
	return bundle.Build(imageID, s.View.ImageSize, s.Annotations.All(), &s.Calibration)
}

// ImportBundle validates and applies a bundle. Stored dimensions that differ
// from the current natural size rescale every point; stored values are never
// trusted and are recomputed after restore. A malformed bundle is rejected
// before any mutation.
func (s *State) ImportBundle(b *bundle.Bundle) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if s.View.ImageSize.IsZero() {
		return fmt.Errorf("no radiograph loaded")
	}
	b.RescaleTo(s.View.ImageSize)

	s.Annotations.Clear()
	s.Controller.Reset()
	for _, m := range b.Measurements {
		s.Annotations.Create(m.Type, m.Points)
	}
	s.Calibration.SetPoints(b.StandardDistancePoints)
	s.Calibration.DistanceMm = b.StandardDistance

	s.Annotations.RecomputeAll(&s.Calibration, s.View)
	s.Emit(EventCalibrationChanged, nil)
	s.Emit(EventSelectionChanged, nil)
	s.Emit(EventAnnotationsChanged, nil)
	return nil
}
