package panels

import (
	"fmt"
	"strconv"

	"spine-measure/internal/app"
	"spine-measure/internal/detect"
	"spine-measure/pkg/geometry"
	"spine-measure/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// CalibrationPanel manages the reference segment: declared length, two-click
// capture on the canvas, and the OCR suggestion from a printed scale marker.
type CalibrationPanel struct {
	state  *app.State
	canvas *canvas.AnnotationCanvas

	distanceEntry *widget.Entry
	statusLabel   *widget.Label
	container     fyne.CanvasObject
}

// NewCalibrationPanel creates the calibration section.
func NewCalibrationPanel(state *app.State, cvs *canvas.AnnotationCanvas) *CalibrationPanel {
	cp := &CalibrationPanel{state: state, canvas: cvs}

	cp.distanceEntry = widget.NewEntry()
	cp.distanceEntry.SetPlaceHolder("length in mm")
	cp.statusLabel = widget.NewLabel("")
	cp.statusLabel.Wrapping = fyne.TextWrapWord

	markButton := widget.NewButton("Mark reference", cp.startCapture)
	clearButton := widget.NewButton("Clear", func() {
		cp.canvas.CancelCalibrationCapture()
		cp.state.ClearCalibration()
	})
	ocrButton := widget.NewButton("Read scale marker", cp.readMarker)

	cp.container = container.NewVBox(
		sectionTitle("Calibration"),
		widget.NewLabel("Reference length (mm):"),
		cp.distanceEntry,
		markButton,
		clearButton,
		ocrButton,
		cp.statusLabel,
	)

	state.On(app.EventCalibrationChanged, func(interface{}) { cp.refreshStatus() })
	cp.refreshStatus()
	return cp
}

// Container returns the panel container.
func (cp *CalibrationPanel) Container() fyne.CanvasObject {
	return cp.container
}

func (cp *CalibrationPanel) startCapture() {
	mm, err := strconv.ParseFloat(cp.distanceEntry.Text, 64)
	if err != nil || mm <= 0 {
		cp.statusLabel.SetText("Enter the reference length first")
		return
	}
	cp.statusLabel.SetText("Click the two ends of the reference on the image")
	cp.canvas.StartCalibrationCapture(func(points []geometry.Point2D) {
		cp.state.SetCalibration(points, mm)
	})
}

// readMarker runs OCR over the study looking for a printed "NN MM" or
// "NN CM" scale marker and fills the entry with the suggestion. The user
// still marks the segment by hand.
func (cp *CalibrationPanel) readMarker() {
	if cp.state.Radiograph == nil || cp.state.Radiograph.Image == nil {
		cp.statusLabel.SetText("Load a radiograph first")
		return
	}
	cp.statusLabel.SetText("Reading scale marker...")
	img := cp.state.Radiograph.Image
	go func() {
		mm, err := detect.ReadScaleMarker(img)
		if err != nil {
			cp.state.Notify("scale marker: %v", err)
			cp.statusLabel.SetText("No scale marker found")
			return
		}
		cp.distanceEntry.SetText(strconv.FormatFloat(mm, 'f', 1, 64))
		cp.statusLabel.SetText(fmt.Sprintf("Marker suggests %.1f mm", mm))
	}()
}

func (cp *CalibrationPanel) refreshStatus() {
	if cp.state.Calibration.Active() {
		cp.statusLabel.SetText(fmt.Sprintf("Calibrated: %.1f mm reference", cp.state.Calibration.DistanceMm))
	} else {
		cp.statusLabel.SetText("Uncalibrated: distances use the nominal film scale")
	}
}
