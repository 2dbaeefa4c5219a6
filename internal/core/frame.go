// Core frame data structure shared by sources, the bridge and the display
package core

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"golang.org/x/image/draw"
)

// Channels is the fixed channel count of every frame (packed RGB)
const Channels = 3

// Frame is an owned RGB pixel buffer. A frame is never mutated after it has
// been handed to another component; Mirrored, Resized and Clone all return
// new frames.
type Frame struct {
	Pix       []byte
	Width     int
	Height    int
	Seq       uint64
	Last      bool
	Timestamp time.Time
}

// NewFrame allocates a black frame of the given size
func NewFrame(width, height int) *Frame {
	return &Frame{
		Pix:       make([]byte, width*height*Channels),
		Width:     width,
		Height:    height,
		Timestamp: time.Now(),
	}
}

// MaxDimension bounds the width and height of a frame
const MaxDimension = 16384

// FrameFromRGB wraps packed RGB bytes, rejecting buffers that do not form a
// valid frame
func FrameFromRGB(pix []byte, width, height int) (*Frame, error) {
	f := &Frame{Pix: pix, Width: width, Height: height, Timestamp: time.Now()}
	if err := ValidateFrame(f); err != nil {
		return nil, err
	}
	return f, nil
}

// FrameFromImage copies any image.Image into a new RGB frame
func FrameFromImage(img image.Image) *Frame {
	b := img.Bounds()
	f := NewFrame(b.Dx(), b.Dy())
	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < f.Height; y++ {
			src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+f.Width*4]
			dst := f.Pix[y*f.Width*Channels : (y+1)*f.Width*Channels]
			for x := 0; x < f.Width; x++ {
				dst[x*3] = src[x*4]
				dst[x*3+1] = src[x*4+1]
				dst[x*3+2] = src[x*4+2]
			}
		}
		return f
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			f.Pix[i] = c.R
			f.Pix[i+1] = c.G
			f.Pix[i+2] = c.B
			i += Channels
		}
	}
	return f
}

// Empty reports whether the frame carries no pixels
func (f *Frame) Empty() bool {
	return f == nil || f.Width <= 0 || f.Height <= 0 || len(f.Pix) == 0
}

// SameSize reports whether two frames have identical dimensions
func (f *Frame) SameSize(width, height int) bool {
	return f != nil && f.Width == width && f.Height == height
}

// Clone returns a deep copy
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	c := *f
	c.Pix = make([]byte, len(f.Pix))
	copy(c.Pix, f.Pix)
	return &c
}

// Mirrored returns a copy flipped horizontally and/or vertically. When
// neither flag is set the receiver itself is returned.
func (f *Frame) Mirrored(horz, vert bool) *Frame {
	if f.Empty() || (!horz && !vert) {
		return f
	}
	out := *f
	out.Pix = make([]byte, len(f.Pix))
	row := f.Width * Channels
	for y := 0; y < f.Height; y++ {
		sy := y
		if vert {
			sy = f.Height - 1 - y
		}
		src := f.Pix[sy*row : (sy+1)*row]
		dst := out.Pix[y*row : (y+1)*row]
		if !horz {
			copy(dst, src)
			continue
		}
		for x := 0; x < f.Width; x++ {
			sx := (f.Width - 1 - x) * Channels
			copy(dst[x*Channels:x*Channels+Channels], src[sx:sx+Channels])
		}
	}
	return &out
}

// Resized returns a copy scaled to width x height. Frames already at the
// requested size are returned unchanged. highQuality selects Catmull-Rom
// over approximate bilinear sampling.
func (f *Frame) Resized(width, height int, highQuality bool) *Frame {
	if f.Empty() || f.SameSize(width, height) || width <= 0 || height <= 0 {
		return f
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	var scaler draw.Scaler = draw.ApproxBiLinear
	if highQuality {
		scaler = draw.CatmullRom
	}
	scaler.Scale(dst, dst.Bounds(), f.ToRGBA(), image.Rect(0, 0, f.Width, f.Height), draw.Src, nil)
	out := FrameFromImage(dst)
	out.Seq = f.Seq
	out.Last = f.Last
	out.Timestamp = f.Timestamp
	return out
}

// ToRGBA converts the frame into an opaque *image.RGBA
func (f *Frame) ToRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		src := f.Pix[y*f.Width*Channels : (y+1)*f.Width*Channels]
		dst := img.Pix[y*img.Stride : y*img.Stride+f.Width*4]
		for x := 0; x < f.Width; x++ {
			dst[x*4] = src[x*3]
			dst[x*4+1] = src[x*3+1]
			dst[x*4+2] = src[x*3+2]
			dst[x*4+3] = 0xff
		}
	}
	return img
}

// ValidateFrame checks dimensions, the size limit and the buffer length
func ValidateFrame(f *Frame) error {
	if f == nil || f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid frame dimensions")
	}
	if f.Width > MaxDimension || f.Height > MaxDimension {
		return fmt.Errorf("frame %dx%d exceeds %d pixels per side", f.Width, f.Height, MaxDimension)
	}
	if len(f.Pix) != f.Width*f.Height*Channels {
		return fmt.Errorf("pixel buffer size %d does not match %dx%dx%d", len(f.Pix), f.Width, f.Height, Channels)
	}
	return nil
}
