package panels

import (
	"spine-measure/internal/app"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// MeasurePanel lists the completed measurements with per-row delete.
type MeasurePanel struct {
	state     *app.State
	rows      *fyne.Container
	container fyne.CanvasObject
}

// NewMeasurePanel creates the measurement list, kept in sync with the store.
func NewMeasurePanel(state *app.State) *MeasurePanel {
	mp := &MeasurePanel{
		state: state,
		rows:  container.NewVBox(),
	}
	mp.container = container.NewVScroll(mp.rows)

	state.On(app.EventAnnotationsChanged, func(interface{}) { mp.rebuild() })
	state.On(app.EventSelectionChanged, func(interface{}) { mp.rebuild() })
	mp.rebuild()
	return mp
}

// Container returns the panel container.
func (mp *MeasurePanel) Container() fyne.CanvasObject {
	return mp.container
}

func (mp *MeasurePanel) rebuild() {
	mp.rows.Objects = nil

	anns := mp.state.Annotations.All()
	if len(anns) == 0 {
		mp.rows.Add(widget.NewLabel("No measurements"))
		mp.rows.Refresh()
		return
	}

	for _, a := range anns {
		id := a.ID
		label := widget.NewLabel(annotationRow(a))
		del := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
			mp.state.DeleteAnnotation(id)
		})
		mp.rows.Add(container.NewBorder(nil, nil, nil, del, label))
	}
	mp.rows.Refresh()
}
