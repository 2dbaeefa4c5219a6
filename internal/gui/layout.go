package gui

import (
	"fyne.io/fyne/v2"

	"styler/internal/pipeline"
	"styler/internal/scaler"
)

const overlayMargin = 10

// save indicator diameter and its inset from the top right corner, over
// the pip border
const (
	indicatorSize  = 10
	indicatorInset = pipeline.PipBorder + 1
)

// Object order inside the display container
const (
	slotMain = iota
	slotStyle
	slotCamera
	slotOverlay
	slotIndicator
)

// viewLayout places the display objects at the rectangles computed by the
// pipeline and reports window size changes
type viewLayout struct {
	main, style, camera scaler.Rect

	onResize func(width, height int)
	last     fyne.Size
}

func (l *viewLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if size != l.last {
		l.last = size
		if l.onResize != nil {
			l.onResize(int(size.Width), int(size.Height))
		}
	}

	for i, obj := range objects {
		switch i {
		case slotMain:
			place(obj, l.main)
		case slotStyle:
			place(obj, l.style)
		case slotCamera:
			place(obj, l.camera)
		case slotOverlay:
			obj.Move(fyne.NewPos(overlayMargin, overlayMargin))
			obj.Resize(obj.MinSize())
		case slotIndicator:
			obj.Move(fyne.NewPos(size.Width-indicatorSize-indicatorInset, indicatorInset))
			obj.Resize(fyne.NewSize(indicatorSize, indicatorSize))
		}
	}
}

func (l *viewLayout) MinSize([]fyne.CanvasObject) fyne.Size {
	return fyne.NewSize(160, 120)
}

func place(obj fyne.CanvasObject, r scaler.Rect) {
	obj.Move(fyne.NewPos(float32(r.X), float32(r.Y)))
	obj.Resize(fyne.NewSize(float32(r.Width), float32(r.Height)))
}
