// Package mainwindow assembles the application window: canvas, side panel,
// menus, and the status and notice bars.
package mainwindow

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"spine-measure/internal/app"
	"spine-measure/internal/bundle"
	"spine-measure/internal/detect"
	"spine-measure/internal/xray"
	"spine-measure/ui/canvas"
	"spine-measure/ui/panels"
	"spine-measure/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const (
	prefKeyLastDir   = "last_dir"
	prefKeyLastImage = "last_image"
	prefKeyDetectURL = "detect_url"

	defaultDetectURL = "http://localhost:8000"

	noticeDuration = 4 * time.Second
)

// MainWindow is the application window.
type MainWindow struct {
	fyne.Window

	app   fyne.App
	state *app.State
	prefs *prefs.Prefs

	canvas    *canvas.AnnotationCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label
	noticeBar *widget.Label

	noticeTimer *time.Timer
}

// New creates the main window wired to the application state.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs) *MainWindow {
	mw := &MainWindow{
		Window: fyneApp.NewWindow("Spine Measure"),
		app:    fyneApp,
		state:  state,
		prefs:  p,
	}

	mw.canvas = canvas.New(state)
	mw.sidePanel = panels.NewSidePanel(state, mw.canvas)
	mw.statusBar = widget.NewLabel("Ready")
	mw.noticeBar = widget.NewLabel("")
	mw.noticeBar.Hide()

	content := container.NewBorder(
		mw.noticeBar,                      // top
		container.NewPadded(mw.statusBar), // bottom
		nil,
		mw.sidePanel.Container(), // right
		mw.canvas,
	)
	mw.SetContent(content)
	mw.Resize(fyne.NewSize(1280, 860))

	mw.setupMenus()
	mw.setupEventHandlers()
	return mw
}

func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Radiograph...", mw.onOpenRadiograph),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Measurements...", mw.onSaveBundle),
		fyne.NewMenuItem("Load Measurements...", mw.onLoadBundle),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Delete Selected", mw.onDeleteSelected),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Clear All Measurements...", mw.onClearAll),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.canvas.ZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.canvas.ZoomOut),
		fyne.NewMenuItem("Fit to Window", mw.canvas.FitToWindow),
	)

	toolsMenu := fyne.NewMenu("Tools",
		fyne.NewMenuItem("Detect Measurements", mw.onRunDetection),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, toolsMenu, helpMenu))
}

func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventImageLoaded, func(data interface{}) {
		if r, ok := data.(*xray.Radiograph); ok {
			mw.SetTitle("Spine Measure - " + filepath.Base(r.Path))
			mw.updateStatus(fmt.Sprintf("Loaded %s (%.0fx%.0f)",
				filepath.Base(r.Path), mw.state.View.ImageSize.Width, mw.state.View.ImageSize.Height))
		}
	})

	mw.state.On(app.EventViewChanged, func(interface{}) {
		mw.updateStatus(fmt.Sprintf("Zoom %.0f%%", mw.state.View.Zoom*100))
	})

	mw.state.On(app.EventToolChanged, func(data interface{}) {
		if id, ok := data.(string); ok {
			mw.updateStatus("Tool: " + id)
		}
	})

	mw.state.On(app.EventNotice, func(data interface{}) {
		if msg, ok := data.(string); ok {
			mw.showNotice(msg)
		}
	})
}

func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// showNotice surfaces a transient message above the canvas and dismisses it
// after a few seconds.
func (mw *MainWindow) showNotice(msg string) {
	mw.noticeBar.SetText(msg)
	mw.noticeBar.Show()
	if mw.noticeTimer != nil {
		mw.noticeTimer.Stop()
	}
	mw.noticeTimer = time.AfterFunc(noticeDuration, func() {
		mw.noticeBar.Hide()
	})
}

func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefKeyLastDir, filepath.Dir(filePath))
	_ = mw.prefs.Save()
}

// Menu action handlers

func (mw *MainWindow) onOpenRadiograph() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		mw.LoadImagePath(reader.URI().Path())
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".tiff", ".tif"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// LoadImagePath decodes a radiograph off the UI loop and installs it.
func (mw *MainWindow) LoadImagePath(path string) {
	mw.saveLastDir(path)
	mw.updateStatus("Loading " + filepath.Base(path) + "...")
	xray.LoadAsync(path, func(r *xray.Radiograph, err error) {
		if err != nil {
			mw.state.Notify("load radiograph: %v", err)
			return
		}
		mw.state.SetRadiograph(r)
		mw.prefs.SetString(prefKeyLastImage, path)
		_ = mw.prefs.Save()
	})
}

func (mw *MainWindow) onSaveBundle() {
	if mw.state.Radiograph == nil {
		mw.state.Notify("no radiograph loaded")
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		mw.saveLastDir(path)

		imageID := filepath.Base(mw.state.Radiograph.Path)
		b := mw.state.ExportBundle(imageID)
		if err := b.Save(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.state.Notify("saved %d measurements", len(b.Measurements))
	}, mw.Window)
	fd.SetFileName("measurements.json")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onLoadBundle() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)

		b, err := bundle.Load(path)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		if err := mw.state.ImportBundle(b); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.state.Notify("restored %d measurements", mw.state.Annotations.Len())
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onDeleteSelected() {
	target, _ := mw.state.Controller.Selection()
	if target.AnnotationID == "" {
		mw.state.Notify("nothing selected")
		return
	}
	mw.state.DeleteAnnotation(target.AnnotationID)
}

func (mw *MainWindow) onClearAll() {
	if mw.state.Annotations.Len() == 0 {
		return
	}
	dialog.NewConfirm("Clear All",
		fmt.Sprintf("Remove all %d measurements? This cannot be undone.", mw.state.Annotations.Len()),
		func(ok bool) {
			if ok {
				mw.state.ClearAll()
			}
		}, mw.Window).Show()
}

// onRunDetection sends the study to the detection service and applies the
// returned measurements.
func (mw *MainWindow) onRunDetection() {
	if mw.state.Radiograph == nil || mw.state.Radiograph.Image == nil {
		mw.state.Notify("no radiograph loaded")
		return
	}

	url := mw.prefs.String(prefKeyDetectURL)
	if url == "" {
		url = defaultDetectURL
	}
	client := detect.NewClient(url)
	img := mw.state.Radiograph.Image
	natural := mw.state.View.ImageSize
	mw.updateStatus("Running detection...")

	go func() {
		enhanced, err := detect.Enhance(img)
		if err != nil {
			// Detection still works on the raw study, just less reliably.
			enhanced = img
		}
		resp, err := client.Detect(context.Background(), enhanced)
		if err != nil {
			mw.state.Notify("detection: %v", err)
			return
		}
		mw.state.ApplyDetections(detect.MapDetections(resp, natural))
	}()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("Spine Measure",
		"Clinical measurement of spinal radiographs.\n"+
			"Angles, distances, and auxiliary annotations with\n"+
			"calibrated reporting.", mw.Window)
}

// LastImage returns the previously opened study path, if any.
func (mw *MainWindow) LastImage() string {
	return mw.prefs.String(prefKeyLastImage)
}
