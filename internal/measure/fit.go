package measure

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"spine-measure/pkg/geometry"
)

// FitLineAngleDeg fits a least-squares line through the points and returns
// its direction against the horizontal in degrees. Near-vertical point sets,
// which an y = mx + b model cannot express, are fit against the transposed
// model instead. Returns false for fewer than two points or a degenerate
// (single-location) set.
func FitLineAngleDeg(pts []geometry.Point2D) (float64, bool) {
	if len(pts) < 2 {
		return 0, false
	}

	var spanX, spanY float64
	box := geometry.BoundingBox(pts)
	spanX, spanY = box.Width, box.Height
	if spanX == 0 && spanY == 0 {
		return 0, false
	}

	if spanX >= spanY {
		m, ok := solveSlope(pts, false)
		if !ok {
			return 0, false
		}
		return math.Atan(m) * 180 / math.Pi, true
	}

	// x = m*y + b; a zero slope here is a vertical line.
	m, ok := solveSlope(pts, true)
	if !ok {
		return 0, false
	}
	return 90 - math.Atan(m)*180/math.Pi, true
}

// solveSlope solves the overdetermined system [x 1][m b]' = y (or its
// transpose) by QR decomposition and returns m.
func solveSlope(pts []geometry.Point2D, transposed bool) (float64, bool) {
	n := len(pts)
	a := mat.NewDense(n, 2, nil)
	b := mat.NewVecDense(n, nil)
	for i, p := range pts {
		x, y := p.X, p.Y
		if transposed {
			x, y = y, x
		}
		a.Set(i, 0, x)
		a.Set(i, 1, 1)
		b.SetVec(i, y)
	}

	var qr mat.QR
	qr.Factorize(a)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, b); err != nil {
		return 0, false
	}
	return params.AtVec(0), true
}
