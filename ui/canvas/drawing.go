// Drawing primitives for the annotation canvas raster.
package canvas

import (
	"image"
	"image/color"
	"math"
)

// digitPatterns contains 3x5 pixel patterns for digits 0-9.
var digitPatterns = [10][5]uint8{
	{0b111, 0b101, 0b101, 0b101, 0b111}, // 0
	{0b010, 0b110, 0b010, 0b010, 0b111}, // 1
	{0b111, 0b001, 0b111, 0b100, 0b111}, // 2
	{0b111, 0b001, 0b111, 0b001, 0b111}, // 3
	{0b101, 0b101, 0b111, 0b001, 0b001}, // 4
	{0b111, 0b100, 0b111, 0b001, 0b111}, // 5
	{0b111, 0b100, 0b111, 0b101, 0b111}, // 6
	{0b111, 0b001, 0b001, 0b001, 0b001}, // 7
	{0b111, 0b101, 0b111, 0b101, 0b111}, // 8
	{0b111, 0b101, 0b111, 0b001, 0b111}, // 9
}

// letterPatterns contains 3x5 pixel patterns for letters and the symbols
// measurement labels use (degree sign, decimal point, minus).
var letterPatterns = map[rune][5]uint8{
	'A': {0b010, 0b101, 0b111, 0b101, 0b101},
	'B': {0b110, 0b101, 0b110, 0b101, 0b110},
	'C': {0b011, 0b100, 0b100, 0b100, 0b011},
	'D': {0b110, 0b101, 0b101, 0b101, 0b110},
	'E': {0b111, 0b100, 0b110, 0b100, 0b111},
	'F': {0b111, 0b100, 0b110, 0b100, 0b100},
	'G': {0b011, 0b100, 0b101, 0b101, 0b011},
	'H': {0b101, 0b101, 0b111, 0b101, 0b101},
	'I': {0b111, 0b010, 0b010, 0b010, 0b111},
	'J': {0b001, 0b001, 0b001, 0b101, 0b010},
	'K': {0b101, 0b101, 0b110, 0b101, 0b101},
	'L': {0b100, 0b100, 0b100, 0b100, 0b111},
	'M': {0b101, 0b111, 0b101, 0b101, 0b101},
	'N': {0b101, 0b111, 0b111, 0b101, 0b101},
	'O': {0b010, 0b101, 0b101, 0b101, 0b010},
	'P': {0b110, 0b101, 0b110, 0b100, 0b100},
	'Q': {0b010, 0b101, 0b101, 0b111, 0b011},
	'R': {0b110, 0b101, 0b110, 0b101, 0b101},
	'S': {0b011, 0b100, 0b010, 0b001, 0b110},
	'T': {0b111, 0b010, 0b010, 0b010, 0b010},
	'U': {0b101, 0b101, 0b101, 0b101, 0b111},
	'V': {0b101, 0b101, 0b101, 0b101, 0b010},
	'W': {0b101, 0b101, 0b101, 0b111, 0b101},
	'X': {0b101, 0b101, 0b010, 0b101, 0b101},
	'Y': {0b101, 0b101, 0b010, 0b010, 0b010},
	'Z': {0b111, 0b001, 0b010, 0b100, 0b111},
	'.': {0b000, 0b000, 0b000, 0b000, 0b010},
	'°': {0b010, 0b101, 0b010, 0b000, 0b000},
	'#': {0b101, 0b111, 0b101, 0b111, 0b101},
	'-': {0b000, 0b000, 0b111, 0b000, 0b000},
	'+': {0b000, 0b010, 0b111, 0b010, 0b000},
	' ': {0b000, 0b000, 0b000, 0b000, 0b000},
}

// glyph returns the 3x5 pattern for a character, folding lowercase to
// uppercase. Unsupported characters render blank.
func glyph(ch rune) [5]uint8 {
	if ch >= '0' && ch <= '9' {
		return digitPatterns[ch-'0']
	}
	if ch >= 'a' && ch <= 'z' {
		ch = ch - 'a' + 'A'
	}
	if pattern, ok := letterPatterns[ch]; ok {
		return pattern
	}
	return [5]uint8{}
}

func setPixel(img *image.RGBA, x, y int, col color.RGBA) {
	b := img.Bounds()
	if x >= b.Min.X && x < b.Max.X && y >= b.Min.Y && y < b.Max.Y {
		img.SetRGBA(x, y, col)
	}
}

// drawLine draws a line with the given thickness by stepping along the
// longer axis.
func drawLine(img *image.RGBA, x1, y1, x2, y2 float64, col color.RGBA, thickness int) {
	dx := x2 - x1
	dy := y2 - y1
	steps := int(math.Max(math.Abs(dx), math.Abs(dy)))
	if steps == 0 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(x1 + t*dx)
		y := int(y1 + t*dy)
		for ox := 0; ox < thickness; ox++ {
			for oy := 0; oy < thickness; oy++ {
				setPixel(img, x+ox, y+oy, col)
			}
		}
	}
}

// drawCircleOutline draws a circle by angular stepping, dense enough to be
// gap-free at the radii the canvas shows.
func drawCircleOutline(img *image.RGBA, cx, cy, radius float64, col color.RGBA) {
	if radius <= 0 {
		return
	}
	steps := int(math.Max(24, radius*4))
	for i := 0; i < steps; i++ {
		a := float64(i) * 2 * math.Pi / float64(steps)
		setPixel(img, int(cx+radius*math.Cos(a)), int(cy+radius*math.Sin(a)), col)
	}
}

func drawEllipseOutline(img *image.RGBA, cx, cy, rx, ry float64, col color.RGBA) {
	if rx <= 0 || ry <= 0 {
		return
	}
	steps := int(math.Max(24, math.Max(rx, ry)*4))
	for i := 0; i < steps; i++ {
		a := float64(i) * 2 * math.Pi / float64(steps)
		setPixel(img, int(cx+rx*math.Cos(a)), int(cy+ry*math.Sin(a)), col)
	}
}

func drawRectOutline(img *image.RGBA, x1, y1, x2, y2 float64, col color.RGBA) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	drawLine(img, x1, y1, x2, y1, col, 1)
	drawLine(img, x2, y1, x2, y2, col, 1)
	drawLine(img, x2, y2, x1, y2, col, 1)
	drawLine(img, x1, y2, x1, y1, col, 1)
}

// drawArrow draws a segment with a head at the second endpoint.
func drawArrow(img *image.RGBA, x1, y1, x2, y2 float64, col color.RGBA) {
	drawLine(img, x1, y1, x2, y2, col, 1)

	angle := math.Atan2(y2-y1, x2-x1)
	const headLen = 12.0
	const headAngle = math.Pi / 6
	for _, side := range []float64{-1, 1} {
		a := angle + math.Pi + side*headAngle
		drawLine(img, x2, y2, x2+headLen*math.Cos(a), y2+headLen*math.Sin(a), col, 1)
	}
}

// drawHandle draws a point handle as a small filled square with a border.
func drawHandle(img *image.RGBA, x, y float64, col color.RGBA) {
	const half = 3
	for ox := -half; ox <= half; ox++ {
		for oy := -half; oy <= half; oy++ {
			setPixel(img, int(x)+ox, int(y)+oy, col)
		}
	}
}

// drawCross draws the unconfirmed guide-anchor marker.
func drawCross(img *image.RGBA, x, y float64, col color.RGBA) {
	const arm = 6.0
	drawLine(img, x-arm, y, x+arm, y, col, 1)
	drawLine(img, x, y-arm, x, y+arm, col, 1)
}

// drawLabel renders text with the 3x5 bitmap font at the given scale. The
// anchor is the horizontal center of the text's baseline box.
func drawLabel(img *image.RGBA, text string, cx, cy int, col color.RGBA, scale int) {
	if scale < 1 {
		scale = 1
	}
	runes := []rune(text)
	charW := 4 * scale // 3 columns plus 1 spacing
	total := len(runes) * charW
	x := cx - total/2

	for _, ch := range runes {
		pattern := glyph(ch)
		for row := 0; row < 5; row++ {
			for colBit := 0; colBit < 3; colBit++ {
				if pattern[row]&(1<<(2-colBit)) == 0 {
					continue
				}
				for sx := 0; sx < scale; sx++ {
					for sy := 0; sy < scale; sy++ {
						setPixel(img, x+colBit*scale+sx, cy+row*scale+sy, col)
					}
				}
			}
		}
		x += charW
	}
}
