package geometry

import "math"

// DistanceToSegment returns the shortest distance from p to the segment ab.
// Degenerate segments (a == b) fall back to point distance.
func DistanceToSegment(p, a, b Point2D) float64 {
	ab := b.Sub(a)
	lenSq := ab.X*ab.X + ab.Y*ab.Y
	if lenSq == 0 {
		return p.Distance(a)
	}

	ap := p.Sub(a)
	t := (ap.X*ab.X + ap.Y*ab.Y) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	closest := Point2D{X: a.X + t*ab.X, Y: a.Y + t*ab.Y}
	return p.Distance(closest)
}

// SegmentAngleDeg returns the angle of the directed segment ab against the
// positive X axis, in degrees, in (-180, 180].
func SegmentAngleDeg(a, b Point2D) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X) * 180 / math.Pi
}

// DistanceToPolygonEdge returns the shortest distance from p to any edge of
// the closed polygon described by vertices, including the wrap-around edge
// from the last vertex back to the first.
func DistanceToPolygonEdge(p Point2D, vertices []Point2D) float64 {
	if len(vertices) == 0 {
		return math.Inf(1)
	}
	if len(vertices) == 1 {
		return p.Distance(vertices[0])
	}

	best := math.Inf(1)
	for i := range vertices {
		a := vertices[i]
		b := vertices[(i+1)%len(vertices)]
		if d := DistanceToSegment(p, a, b); d < best {
			best = d
		}
	}
	return best
}
