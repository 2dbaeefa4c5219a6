// Package scaler maps a fixed render size onto the window.
package scaler

import "math"

// Rect is a placement in window coordinates
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Scaler fits a render of Width x Height into the window, centred, either
// keeping the aspect ratio (letterbox) or stretching. The placement is
// cached and only recomputed by Configure and Fit.
type Scaler struct {
	Width  int // render width in pixels
	Height int // render height in pixels

	X      float64 // upper left corner in the window
	Y      float64
	ScaleX float64
	ScaleY float64

	Aspect bool

	windowW int
	windowH int
}

func New(width, height int) *Scaler {
	s := &Scaler{Aspect: true, ScaleX: 1, ScaleY: 1}
	s.Configure(width, height)
	return s
}

// Configure sets the render size and refits to the last known window
func (s *Scaler) Configure(width, height int) {
	s.Width = max(width, 1)
	s.Height = max(height, 1)
	if s.windowW > 0 && s.windowH > 0 {
		s.Fit(s.windowW, s.windowH)
	}
}

// SameSize reports whether the render size is width x height
func (s *Scaler) SameSize(width, height int) bool {
	return s.Width == width && s.Height == height
}

// Fit recomputes the placement for a window of the given size
func (s *Scaler) Fit(windowW, windowH int) {
	s.windowW = windowW
	s.windowH = windowH
	if windowW <= 0 || windowH <= 0 {
		return
	}
	ww, wh := float64(windowW), float64(windowH)
	rw, rh := float64(s.Width), float64(s.Height)

	w, h := ww, wh
	if s.Aspect {
		scale := math.Min(ww/rw, wh/rh)
		w, h = rw*scale, rh*scale
	}
	s.X = (ww - w) / 2
	s.Y = (wh - h) / 2
	s.ScaleX = w / rw
	s.ScaleY = h / rh
}

// SetAspect switches between letterboxing and stretching
func (s *Scaler) SetAspect(keep bool) {
	s.Aspect = keep
	s.Fit(s.windowW, s.windowH)
}

// Window returns the size passed to the last Fit
func (s *Scaler) Window() (int, int) { return s.windowW, s.windowH }

// Rect is the render placement in window coordinates
func (s *Scaler) Rect() Rect {
	return Rect{
		X:      s.X,
		Y:      s.Y,
		Width:  float64(s.Width) * s.ScaleX,
		Height: float64(s.Height) * s.ScaleY,
	}
}

// ToRenderCoordinates converts a window position into render pixels. Camera
// frames are mirrored before inference, so the render is never flipped here.
func (s *Scaler) ToRenderCoordinates(x, y float64) (float64, float64) {
	return (x - s.X) / s.ScaleX, (y - s.Y) / s.ScaleY
}
