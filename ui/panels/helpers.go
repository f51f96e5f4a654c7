package panels

import (
	"fmt"

	"spine-measure/internal/annotation"
	"spine-measure/internal/measure"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

func sectionTitle(text string) *widget.Label {
	label := widget.NewLabel(text)
	label.TextStyle = fyne.TextStyle{Bold: true}
	return label
}

// annotationRow renders one annotation for the measurement list: tool label,
// value, and the optional description.
func annotationRow(a *annotation.Annotation) string {
	name := a.Type
	if tool, ok := measure.Get(a.Type); ok {
		name = tool.Label
	}
	if a.Description != "" {
		return fmt.Sprintf("%s  %s  (%s)", name, a.Value, a.Description)
	}
	return fmt.Sprintf("%s  %s", name, a.Value)
}
