// Package viewport maps between the radiograph's native pixel space and the
// panned/zoomed interactive surface.
//
// Image space has its origin at the image's top-left corner and is
// independent of the view. Viewport space is what the pointer reports: the
// image letterboxed into the container, scaled by the zoom factor, and
// shifted by the pan offset.
package viewport

import (
	"spine-measure/pkg/geometry"
)

// Context describes the current view. It is continuously mutated by pan and
// zoom gestures and is not part of any persisted data.
type Context struct {
	ImageSize     geometry.Size    // natural pixel size, zero until the radiograph is decoded
	ContainerSize geometry.Size    // size of the interactive surface
	Pan           geometry.Point2D // pan offset in viewport pixels
	Zoom          float64
}

// Valid reports whether the transform is defined. Until the radiograph's
// natural size is known every pointer handler must refuse to act.
func (c Context) Valid() bool {
	return !c.ImageSize.IsZero() && !c.ContainerSize.IsZero() && c.Zoom > 0
}

// FitScale returns the aspect-preserving scale that letterboxes the image
// into the container, before zoom.
func (c Context) FitScale() float64 {
	sx := c.ContainerSize.Width / c.ImageSize.Width
	sy := c.ContainerSize.Height / c.ImageSize.Height
	if sy < sx {
		return sy
	}
	return sx
}

// Scale returns the total image-to-viewport scale factor.
func (c Context) Scale() float64 {
	return c.FitScale() * c.Zoom
}

// DisplayRect returns the rectangle, in viewport space, that the image
// currently occupies.
func (c Context) DisplayRect() geometry.Rect {
	w := c.ImageSize.Width * c.Scale()
	h := c.ImageSize.Height * c.Scale()
	center := c.viewCenter()
	return geometry.NewRect(center.X-w/2, center.Y-h/2, w, h)
}

func (c Context) viewCenter() geometry.Point2D {
	return geometry.Point2D{
		X: c.ContainerSize.Width/2 + c.Pan.X,
		Y: c.ContainerSize.Height/2 + c.Pan.Y,
	}
}

// transform builds the image-to-viewport affine: translate the point to be
// relative to the image center, scale by letterbox fit times zoom, then move
// to the panned container center.
func (c Context) transform() geometry.AffineTransform {
	center := c.viewCenter()
	return geometry.Translation(center.X, center.Y).
		Compose(geometry.Scaling(c.Scale())).
		Compose(geometry.Translation(-c.ImageSize.Width/2, -c.ImageSize.Height/2))
}

// ToViewport maps an image-space point into viewport space. The caller must
// check Valid first.
func (c Context) ToViewport(p geometry.Point2D) geometry.Point2D {
	return c.transform().Apply(p)
}

// ToImage maps a viewport-space point back into image space. ToImage is the
// exact inverse of ToViewport for any valid context.
func (c Context) ToImage(p geometry.Point2D) geometry.Point2D {
	inv, ok := c.transform().Inverse()
	if !ok {
		return geometry.Point2D{}
	}
	return inv.Apply(p)
}
