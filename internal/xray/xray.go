// Package xray loads the radiograph being annotated and exposes its natural
// pixel dimensions.
package xray

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/tiff"

	"spine-measure/pkg/geometry"
)

// Radiograph is the decoded study image. Until one is loaded the viewport
// transform is undefined and all canvas interaction is refused.
type Radiograph struct {
	Path  string
	Image image.Image
}

// NaturalSize returns the image's native pixel dimensions.
func (r *Radiograph) NaturalSize() geometry.Size {
	if r == nil || r.Image == nil {
		return geometry.Size{}
	}
	b := r.Image.Bounds()
	return geometry.NewSize(float64(b.Dx()), float64(b.Dy()))
}

// Load decodes a radiograph from disk (PNG, JPEG, or TIFF).
func Load(path string) (*Radiograph, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open radiograph: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode radiograph: %w", err)
	}

	return &Radiograph{Path: path, Image: img}, nil
}

// LoadAsync decodes in the background and delivers the result on done. The
// caller applies the result from its event loop; nothing is mutated here.
func LoadAsync(path string, done func(*Radiograph, error)) {
	go func() {
		r, err := Load(path)
		done(r, err)
	}()
}
