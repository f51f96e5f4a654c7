// Package annotation holds completed measurements and shapes, and resolves
// cursor positions to annotation targets.
package annotation

import (
	"fmt"

	"spine-measure/internal/calibration"
	"spine-measure/internal/measure"
	"spine-measure/internal/viewport"
	"spine-measure/pkg/geometry"
)

// Annotation is one completed measurement or auxiliary shape. Points are in
// image space and mutate on drag; Value is recomputed whenever points or
// calibration change; ID is stable for the annotation's lifetime.
type Annotation struct {
	ID          string             `json:"id"`
	Type        string             `json:"type"`
	Points      []geometry.Point2D `json:"points"`
	Value       string             `json:"value"`
	Description string             `json:"description,omitempty"`
}

// Store is the ordered collection of completed annotations, indexed by id.
type Store struct {
	order  []*Annotation
	byID   map[string]*Annotation
	nextID int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{byID: make(map[string]*Annotation)}
}

// Create appends a new annotation of the given type, assigning it a fresh id.
// The caller recomputes its value.
func (s *Store) Create(typ string, points []geometry.Point2D) *Annotation {
	s.nextID++
	a := &Annotation{
		ID:     fmt.Sprintf("m-%d", s.nextID),
		Type:   typ,
		Points: append([]geometry.Point2D(nil), points...),
	}
	s.order = append(s.order, a)
	s.byID[a.ID] = a
	return a
}

// Get looks up an annotation by id.
func (s *Store) Get(id string) (*Annotation, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Remove deletes an annotation by id.
func (s *Store) Remove(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, a := range s.order {
		if a.ID == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes every annotation.
func (s *Store) Clear() {
	s.order = nil
	s.byID = make(map[string]*Annotation)
}

// All returns the annotations in insertion order. The slice is a copy; the
// annotations are shared.
func (s *Store) All() []*Annotation {
	out := make([]*Annotation, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of annotations.
func (s *Store) Len() int {
	return len(s.order)
}

// Recompute rewrites one annotation's value from its current points,
// preserving id and points.
func Recompute(a *Annotation, calib *calibration.Reference, ctx viewport.Context) {
	tool, ok := measure.Get(a.Type)
	if !ok {
		a.Value = measure.AuxiliaryValue
		return
	}
	a.Value = measure.ValueString(tool.Compute(a.Points, calib, ctx))
}

// RecomputeAll rewrites every annotation's value in place.
func (s *Store) RecomputeAll(calib *calibration.Reference, ctx viewport.Context) {
	for _, a := range s.order {
		Recompute(a, calib, ctx)
	}
}

// RecomputeDistanceClass rewrites only calibration-dependent annotations.
// Called synchronously on every calibration edit.
func (s *Store) RecomputeDistanceClass(calib *calibration.Reference, ctx viewport.Context) {
	for _, a := range s.order {
		if measure.DistanceClass(a.Type) {
			Recompute(a, calib, ctx)
		}
	}
}
