package pipeline

import (
	"strings"

	"styler/internal/core"
	"styler/internal/scaler"
)

const (
	// PipBorder is the margin around picture-in-picture insets
	PipBorder   = 5
	// pipFraction of the window width used by each inset
	pipFraction = 5
)

// View is what the display draws after a tick
type View struct {
	// Main is the output, or the source in style input mode
	Main     *core.Frame
	MainRect scaler.Rect

	// Style and Camera are nil when the pip is hidden or there is no
	// style camera
	Style      *core.Frame
	StyleRect  scaler.Rect
	Camera     *core.Frame
	CameraRect scaler.Rect

	// Overlay holds help and stats, empty unless debug is on
	Overlay     string
	Fullscreen  bool
	SaveEnabled bool
}

// View snapshots the display state. stats is appended to the overlay.
func (o *Orchestrator) View(stats string) View {
	v := View{
		Main:        o.output,
		MainRect:    o.deps.Scaler.Rect(),
		Fullscreen:  o.opts.Fullscreen,
		SaveEnabled: o.opts.StyleSave,
	}
	if o.showingSource() && o.lastInput != nil {
		v.Main = o.lastInput
	}

	if o.opts.Pip {
		var cam *core.Frame
		if o.deps.StyleCamera != nil {
			cam = o.styleInputFrame()
		}
		winW, _ := o.deps.Scaler.Window()
		v.Style = o.deps.Selector.Image()
		v.Camera = cam
		v.StyleRect, v.CameraRect = PipRects(winW, v.Style, cam)
	}

	if o.opts.Debug {
		v.Overlay = o.HelpText()
		if stats != "" {
			v.Overlay += "\n" + stats
		}
	}
	return v
}

// PipRects places the style camera and style image insets in the upper
// right corner, camera first
func PipRects(windowW int, style, camera *core.Frame) (styleRect, cameraRect scaler.Rect) {
	w := float64(windowW) / pipFraction
	x := float64(windowW) - w - PipBorder
	y := float64(PipBorder)
	if !camera.Empty() {
		h := float64(camera.Height) * (w / float64(camera.Width))
		cameraRect = scaler.Rect{X: x, Y: y, Width: w, Height: h}
		y = h + 2*PipBorder
	}
	if !style.Empty() {
		h := float64(style.Height) * (w / float64(style.Width))
		styleRect = scaler.Rect{X: x, Y: y, Width: w, Height: h}
	}
	return styleRect, cameraRect
}

// HelpText lists the key bindings, headed by the current source
func (o *Orchestrator) HelpText() string {
	var b strings.Builder
	if kind, ok := o.deps.Registry.CurrentKind(); ok {
		b.WriteString("source: " + kind.String() + "\n")
	}
	if name := o.deps.Selector.Name(); name != "" {
		b.WriteString("style: " + name + "\n")
	}
	styleCam := o.deps.StyleCamera != nil
	b.WriteString("v: video input\n")
	b.WriteString("c: camera input\n")
	b.WriteString("i: image input\n")
	b.WriteString("m: mirror camera")
	if styleCam {
		b.WriteString(" / (shift) style camera")
	}
	b.WriteString("\nn: flip camera")
	if styleCam {
		b.WriteString(" / (shift) style camera")
	}
	b.WriteString("\n")
	b.WriteString("r: restart\n")
	b.WriteString("f: toggle fullscreen\n")
	b.WriteString("s: save image / (shift) toggle style save\n")
	if !styleCam {
		b.WriteString("k: toggle style input mode\n")
	}
	b.WriteString("p: toggle style input pip\n")
	b.WriteString("a: toggle auto style change\n")
	b.WriteString("d: toggle this help\n")
	b.WriteString("right: next style\n")
	b.WriteString("left: prev style\n")
	b.WriteString("space: toggle playback / take style image\n")
	b.WriteString("up: next frame / (shift) next video\n")
	b.WriteString("down: prev frame / (shift) prev video\n")
	b.WriteString("drag&drop style image\n")
	return b.String()
}
