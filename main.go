// Spine Measure annotates spinal radiographs with clinical measurements:
// Cobb angles, sagittal offsets, pelvic parameters, and free-form shapes.
package main

import (
	"log"
	"os"
	"time"

	"spine-measure/internal/app"
	"spine-measure/ui/mainwindow"
	"spine-measure/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
)

func main() {
	log.SetFlags(log.Ltime | log.Lshortfile)

	fyneApp := fyneapp.NewWithID("io.spinemeasure.app")
	fyneApp.Settings().SetTheme(&app.SpineTheme{})

	state := app.NewState()
	p := prefs.Load()
	window := mainwindow.New(fyneApp, state, p)

	// Reopen the study from the command line, or the last session's.
	if len(os.Args) > 1 {
		window.LoadImagePath(os.Args[1])
	} else if last := window.LastImage(); last != "" {
		window.LoadImagePath(last)
	}

	if reloader := app.NewHotReloader(2 * time.Second); reloader != nil {
		reloader.OnNewBinary(func() {
			dialog.NewConfirm("New Build", "A newer binary is available. Restart?",
				func(ok bool) {
					if !ok {
						reloader.ResetBaseline()
						reloader.Start()
						return
					}
					if err := reloader.Restart(); err != nil {
						log.Printf("restart failed: %v", err)
					}
				}, window.Window).Show()
		})
		reloader.Start()
		defer reloader.Stop()
	}

	window.ShowAndRun()
}
