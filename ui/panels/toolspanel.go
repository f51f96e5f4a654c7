// Package panels provides the side-panel sections of the main window.
package panels

import (
	"spine-measure/internal/app"
	"spine-measure/internal/measure"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// ToolsPanel is the tool palette: clinical measurements on top, auxiliary
// shapes below, the active tool highlighted.
type ToolsPanel struct {
	state     *app.State
	buttons   map[string]*widget.Button
	container fyne.CanvasObject
}

// NewToolsPanel builds the palette from the tool registry.
func NewToolsPanel(state *app.State) *ToolsPanel {
	tp := &ToolsPanel{
		state:   state,
		buttons: make(map[string]*widget.Button),
	}

	measurements := container.NewGridWithColumns(3)
	auxiliary := container.NewGridWithColumns(3)
	for _, tool := range measure.All() {
		id := tool.ID
		btn := widget.NewButton(tool.Label, func() {
			tp.state.SetTool(id)
		})
		tp.buttons[id] = btn
		if tool.Category == measure.Auxiliary {
			auxiliary.Add(btn)
		} else {
			measurements.Add(btn)
		}
	}

	tp.container = container.NewVBox(
		sectionTitle("Measurements"),
		measurements,
		sectionTitle("Shapes"),
		auxiliary,
	)

	state.On(app.EventToolChanged, func(interface{}) { tp.highlight() })
	tp.highlight()
	return tp
}

// Container returns the panel container.
func (tp *ToolsPanel) Container() fyne.CanvasObject {
	return tp.container
}

func (tp *ToolsPanel) highlight() {
	active := tp.state.Session.ToolID()
	for id, btn := range tp.buttons {
		if id == active {
			btn.Importance = widget.HighImportance
		} else {
			btn.Importance = widget.MediumImportance
		}
		btn.Refresh()
	}
}
