package detect

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// scaleMarkerChars restricts OCR to what a burned-in scale marker can
// contain. Lowercase is excluded to avoid 0/O and 1/l confusion.
const scaleMarkerChars = "0123456789.MM CM"

// scalePattern extracts "<number> MM" or "<number> CM" from marker text.
var scalePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(MM|CM)`)

// ReadScaleMarker runs OCR over a cropped strip of the radiograph (typically
// the burned-in ruler near an edge) and returns the marker's length in
// millimeters, for suggesting a calibration distance. The caller picks the
// region; a miss is an error, not a guess.
func ReadScaleMarker(strip image.Image) (float64, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage("eng"); err != nil {
		return 0, fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetWhitelist(scaleMarkerChars); err != nil {
		return 0, fmt.Errorf("failed to restrict OCR charset: %w", err)
	}
	// Marker text is not prose; dictionary correction only hurts.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	// gosseract reads from a file, so stage the strip in a temp PNG.
	tmp := filepath.Join(os.TempDir(), "spine-measure-marker.png")
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("failed to stage marker strip: %w", err)
	}
	encErr := png.Encode(f, strip)
	f.Close()
	defer os.Remove(tmp)
	if encErr != nil {
		return 0, fmt.Errorf("failed to encode marker strip: %w", encErr)
	}

	if err := client.SetImage(tmp); err != nil {
		return 0, fmt.Errorf("failed to load marker strip: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return 0, fmt.Errorf("marker OCR failed: %w", err)
	}

	return ParseScaleText(text)
}

// ParseScaleText extracts the millimeter length from recognized marker text.
func ParseScaleText(text string) (float64, error) {
	m := scalePattern.FindStringSubmatch(strings.ToUpper(text))
	if m == nil {
		return 0, fmt.Errorf("no scale marker in %q", strings.TrimSpace(text))
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, err
	}
	if m[2] == "CM" {
		value *= 10
	}
	if value <= 0 {
		return 0, fmt.Errorf("implausible scale marker %q", m[0])
	}
	return value, nil
}
