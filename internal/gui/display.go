// Package gui shows the pipeline view in a fyne window and turns keyboard
// and drop events into pipeline commands.
package gui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"styler/internal/assets"
	"styler/internal/core"
	"styler/internal/pipeline"
)

const Title = "styler"

// Sink receives the commands raised by the window
type Sink interface {
	Send(cmd pipeline.Command) bool
	Enqueue(ev pipeline.Event) bool
}

// Display owns the window. Apply may be called from any goroutine; all
// widget updates are handed to the fyne event loop.
type Display struct {
	app    fyne.App
	window fyne.Window
	sink   Sink
	logger logrus.FieldLogger

	stage     *fyne.Container
	layout    *viewLayout
	main      *canvas.Image
	style     *canvas.Image
	camera    *canvas.Image
	overlay   *widget.Label
	indicator *canvas.Circle

	// touched on the fyne goroutine only
	shift bool

	// touched by the Apply caller only
	mainCache, styleCache, cameraCache frameCache
}

func NewDisplay(app fyne.App, sink Sink, width, height int, fullscreen bool, logger logrus.FieldLogger) *Display {
	window := app.NewWindow(Title)
	window.SetPadded(false)
	window.Resize(fyne.NewSize(float32(width), float32(height)))
	window.SetFullScreen(fullscreen)

	d := &Display{
		app:    app,
		window: window,
		sink:   sink,
		logger: logger.WithField("component", "gui"),
	}
	d.initializeGUI()
	d.setupCallbacks()
	return d
}

func (d *Display) initializeGUI() {
	placeholder := image.NewRGBA(image.Rect(0, 0, 1, 1))
	d.main = newImage(placeholder)
	d.style = newImage(placeholder)
	d.camera = newImage(placeholder)
	d.main.Hide()
	d.style.Hide()
	d.camera.Hide()

	d.overlay = widget.NewLabel("")
	d.overlay.TextStyle = fyne.TextStyle{Monospace: true}
	d.overlay.Hide()

	d.indicator = canvas.NewCircle(color.NRGBA{R: 0xff, A: 0xff})
	d.indicator.Hide()

	d.layout = &viewLayout{onResize: d.resized}
	d.stage = container.New(d.layout, d.main, d.style, d.camera, d.overlay, d.indicator)
	d.window.SetContent(container.NewStack(canvas.NewRectangle(color.Black), d.stage))
}

func (d *Display) setupCallbacks() {
	c := d.window.Canvas()
	c.SetOnTypedRune(d.typedRune)
	c.SetOnTypedKey(d.typedKey)
	if dc, ok := c.(desktop.Canvas); ok {
		dc.SetOnKeyDown(func(ev *fyne.KeyEvent) {
			if isShift(ev.Name) {
				d.shift = true
			}
		})
		dc.SetOnKeyUp(func(ev *fyne.KeyEvent) {
			if isShift(ev.Name) {
				d.shift = false
			}
		})
	}
	d.window.SetOnDropped(d.dropped)
}

func newImage(img image.Image) *canvas.Image {
	ci := canvas.NewImageFromImage(img)
	ci.FillMode = canvas.ImageFillStretch
	ci.ScaleMode = canvas.ImageScaleSmooth
	return ci
}

func isShift(name fyne.KeyName) bool {
	return name == desktop.KeyShiftLeft || name == desktop.KeyShiftRight
}

// Window exposes the underlying fyne window
func (d *Display) Window() fyne.Window { return d.window }

// ShowAndRun blocks until the window is closed or the app quits
func (d *Display) ShowAndRun() {
	d.window.ShowAndRun()
}

func (d *Display) typedRune(r rune) {
	if cmd := pipeline.CommandForRune(r); cmd != pipeline.CmdNone {
		d.sink.Send(cmd)
	}
}

func (d *Display) typedKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.KeyEscape:
		d.app.Quit()
		return
	case fyne.KeySpace:
		// delivered as a rune as well
		return
	}
	if cmd := pipeline.CommandForKey(string(ev.Name), d.shift); cmd != pipeline.CmdNone {
		d.sink.Send(cmd)
	}
}

// dropped selects the first dropped image file as the style
func (d *Display) dropped(_ fyne.Position, uris []fyne.URI) {
	for _, u := range uris {
		if u.Scheme() != "file" || !assets.HasExtension(u.Path(), assets.ImageExtensions) {
			d.logger.WithField("uri", u.String()).Debug("ignoring drop")
			continue
		}
		d.sink.Enqueue(pipeline.Event{Cmd: pipeline.CmdStylePath, Path: u.Path()})
		return
	}
}

func (d *Display) resized(width, height int) {
	d.sink.Enqueue(pipeline.Event{Cmd: pipeline.CmdResize, Width: width, Height: height})
}

// Apply shows a view. Frames are converted on the calling goroutine and
// only when they change.
func (d *Display) Apply(v pipeline.View) {
	mainImg, mainNew := d.mainCache.image(v.Main)
	styleImg, styleNew := d.styleCache.image(v.Style)
	cameraImg, cameraNew := d.cameraCache.image(v.Camera)

	fyne.Do(func() {
		relayout := d.layout.main != v.MainRect ||
			d.layout.style != v.StyleRect ||
			d.layout.camera != v.CameraRect
		d.layout.main, d.layout.style, d.layout.camera = v.MainRect, v.StyleRect, v.CameraRect

		setImage(d.main, mainImg, mainNew)
		setImage(d.style, styleImg, styleNew)
		setImage(d.camera, cameraImg, cameraNew)

		if v.Overlay != d.overlay.Text {
			d.overlay.SetText(v.Overlay)
			relayout = true
		}
		setVisible(d.overlay, v.Overlay != "")
		setVisible(d.indicator, v.SaveEnabled)

		if v.Fullscreen != d.window.FullScreen() {
			d.window.SetFullScreen(v.Fullscreen)
		}
		if relayout {
			d.stage.Refresh()
		}
	})
}

func setImage(ci *canvas.Image, img image.Image, changed bool) {
	if img == nil {
		ci.Hide()
		return
	}
	if changed {
		ci.Image = img
		ci.Refresh()
	}
	ci.Show()
}

func setVisible(obj fyne.CanvasObject, visible bool) {
	if visible {
		obj.Show()
	} else {
		obj.Hide()
	}
}

// frameCache keeps the RGBA conversion of the last frame shown in a slot
type frameCache struct {
	frame *core.Frame
	img   image.Image
}

func (c *frameCache) image(f *core.Frame) (image.Image, bool) {
	if f.Empty() {
		c.frame, c.img = nil, nil
		return nil, false
	}
	if f == c.frame {
		return c.img, false
	}
	c.frame, c.img = f, f.ToRGBA()
	return c.img, true
}
