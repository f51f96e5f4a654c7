package panels

import (
	"spine-measure/internal/app"
	"spine-measure/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// SidePanel groups the tool palette, the measurement list, and calibration
// into tabs.
type SidePanel struct {
	container *container.AppTabs

	toolsPanel       *ToolsPanel
	measurePanel     *MeasurePanel
	calibrationPanel *CalibrationPanel
}

// NewSidePanel creates the side panel.
func NewSidePanel(state *app.State, cvs *canvas.AnnotationCanvas) *SidePanel {
	sp := &SidePanel{
		toolsPanel:       NewToolsPanel(state),
		measurePanel:     NewMeasurePanel(state),
		calibrationPanel: NewCalibrationPanel(state, cvs),
	}

	sp.container = container.NewAppTabs(
		container.NewTabItem("Tools", sp.toolsPanel.Container()),
		container.NewTabItem("Measurements", sp.measurePanel.Container()),
		container.NewTabItem("Calibration", sp.calibrationPanel.Container()),
	)
	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}
