// Package detect is the boundary to the keypoint-detection service: it
// uploads the radiograph, rescales the returned points into image space, and
// maps the service's type tags onto tool ids.
package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"regexp"
	"time"

	"spine-measure/internal/measure"
	"spine-measure/pkg/geometry"
)

// Detection is one suggested annotation, with points in the coordinate
// space of whatever image size the service analyzed.
type Detection struct {
	Type   string             `json:"type"`
	Points []geometry.Point2D `json:"points"`
}

// Response is the service's answer, including the dimensions it analyzed
// against so points can be rescaled onto the actual natural size.
type Response struct {
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Detections []Detection `json:"detections"`
}

// Client calls the remote detection service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client with a sane upload timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Detect uploads the image as PNG and decodes the response. Failures are
// returned to the caller, which surfaces them as a transient notice and
// leaves in-memory state untouched.
func (c *Client) Detect(ctx context.Context, img image.Image) (*Response, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/detect", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "image/png")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detection request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detection service returned %s", resp.Status)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode detection response: %w", err)
	}
	return &out, nil
}

// cobbFamily matches the service's auto-numbered Cobb tags ("Cobb-1",
// "Cobb-2", ...), which all map onto the Cobb tool.
var cobbFamily = regexp.MustCompile(`^Cobb-(\d+)$`)

// typeTags maps the service's remaining tags onto tool ids.
var typeTags = map[string]string{
	"VertebralTilt": "vertebral-tilt",
	"T1Tilt":        "t1-tilt",
	"ClavicleAngle": "clavicle-angle",
	"ShoulderSlope": "shoulder-slope",
	"PelvicSlope":   "pelvic-slope",
	"SacralSlope":   "sacral-slope",
	"PI":            "pelvic-incidence",
	"AVT":           "avt",
	"TS":            "ts",
	"SVA":           "sva",
	"TK":            "thoracic-kyphosis",
	"LL":            "lumbar-lordosis",
}

// MapDetections rescales the response's points onto the actual natural size
// (per axis) and maps type tags to tool ids. Unrecognized tags are dropped
// silently; point counts are checked against the registry so a bad
// suggestion cannot produce an invalid annotation.
func MapDetections(resp *Response, natural geometry.Size) []Detection {
	if resp == nil || resp.Width <= 0 || resp.Height <= 0 || natural.IsZero() {
		return nil
	}
	sx := natural.Width / resp.Width
	sy := natural.Height / resp.Height

	out := make([]Detection, 0, len(resp.Detections))
	for _, d := range resp.Detections {
		id, ok := mapTag(d.Type)
		if !ok {
			log.Printf("detect: dropping unrecognized type %q", d.Type)
			continue
		}
		tool, _ := measure.Get(id)
		if !tool.Complete(len(d.Points)) {
			log.Printf("detect: dropping %q with %d points", d.Type, len(d.Points))
			continue
		}

		points := make([]geometry.Point2D, len(d.Points))
		for i, p := range d.Points {
			points[i] = geometry.NewPoint2D(p.X*sx, p.Y*sy)
		}
		out = append(out, Detection{Type: id, Points: points})
	}
	return out
}

func mapTag(tag string) (string, bool) {
	if cobbFamily.MatchString(tag) {
		return "cobb", true
	}
	id, ok := typeTags[tag]
	return id, ok
}
