// Package bundle is the persistence and import/export document: the image
// identity, every measurement's type and points, and the calibration
// reference. Values are never stored; they are recomputed after restore.
package bundle

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"spine-measure/internal/annotation"
	"spine-measure/internal/calibration"
	"spine-measure/internal/measure"
	"spine-measure/pkg/geometry"
)

// Measurement is one stored annotation: type tag and image-space points.
type Measurement struct {
	Type   string             `json:"type"`
	Points []geometry.Point2D `json:"points"`
}

// Bundle is the exchange document for the cache, the remote store, and
// import/export. Points are recorded against the image dimensions at save
// time; loading against a different natural size rescales them.
type Bundle struct {
	ImageID                string             `json:"imageId"`
	ImageWidth             float64            `json:"imageWidth"`
	ImageHeight            float64            `json:"imageHeight"`
	Measurements           []Measurement      `json:"measurements"`
	StandardDistance       float64            `json:"standardDistance,omitempty"`
	StandardDistancePoints []geometry.Point2D `json:"standardDistancePoints,omitempty"`
}

// Build captures the current annotations and calibration into a bundle.
func Build(imageID string, size geometry.Size, anns []*annotation.Annotation, calib *calibration.Reference) *Bundle {
	b := &Bundle{
		ImageID:      imageID,
		ImageWidth:   size.Width,
		ImageHeight:  size.Height,
		Measurements: make([]Measurement, 0, len(anns)),
	}
	for _, a := range anns {
		b.Measurements = append(b.Measurements, Measurement{
			Type:   a.Type,
			Points: append([]geometry.Point2D(nil), a.Points...),
		})
	}
	if calib != nil {
		b.StandardDistance = calib.DistanceMm
		b.StandardDistancePoints = append([]geometry.Point2D(nil), calib.Points...)
	}
	return b
}

// Validate rejects a malformed bundle before anything is mutated: unknown
// measurement types, wrong point counts, non-finite coordinates, or missing
// image dimensions.
func (b *Bundle) Validate() error {
	if b.ImageWidth <= 0 || b.ImageHeight <= 0 {
		return fmt.Errorf("bundle has no image dimensions")
	}
	for i, m := range b.Measurements {
		tool, ok := measure.Get(m.Type)
		if !ok {
			return fmt.Errorf("measurement %d: unknown type %q", i, m.Type)
		}
		if tool.Variable() {
			if len(m.Points) < tool.MinPoints {
				return fmt.Errorf("measurement %d (%s): %d points, need at least %d",
					i, m.Type, len(m.Points), tool.MinPoints)
			}
		} else if len(m.Points) != tool.RequiredPoints {
			return fmt.Errorf("measurement %d (%s): %d points, need %d",
				i, m.Type, len(m.Points), tool.RequiredPoints)
		}
		for _, p := range m.Points {
			if !finite(p) {
				return fmt.Errorf("measurement %d (%s): non-finite point", i, m.Type)
			}
		}
	}
	if n := len(b.StandardDistancePoints); n != 0 && n != 2 {
		return fmt.Errorf("calibration has %d points, need 0 or 2", n)
	}
	for _, p := range b.StandardDistancePoints {
		if !finite(p) {
			return fmt.Errorf("calibration has a non-finite point")
		}
	}
	return nil
}

func finite(p geometry.Point2D) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// RescaleTo maps every point (and the calibration points) from the recorded
// image dimensions onto the given natural size, per axis. A bundle recorded
// at width 800 loaded against width 1600 doubles every x.
func (b *Bundle) RescaleTo(size geometry.Size) {
	if size.IsZero() || b.ImageWidth <= 0 || b.ImageHeight <= 0 {
		return
	}
	sx := size.Width / b.ImageWidth
	sy := size.Height / b.ImageHeight
	if sx == 1 && sy == 1 {
		return
	}
	for i := range b.Measurements {
		for j := range b.Measurements[i].Points {
			b.Measurements[i].Points[j].X *= sx
			b.Measurements[i].Points[j].Y *= sy
		}
	}
	for j := range b.StandardDistancePoints {
		b.StandardDistancePoints[j].X *= sx
		b.StandardDistancePoints[j].Y *= sy
	}
	b.ImageWidth = size.Width
	b.ImageHeight = size.Height
}

// Load reads and validates a bundle file.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a bundle document.
func Parse(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("malformed bundle: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Save writes the bundle to a file.
func (b *Bundle) Save(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
