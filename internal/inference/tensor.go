package inference

import (
	"fmt"
	"strings"

	"styler/internal/core"
)

// Layout is the dimension order of a 4-d image tensor
type Layout int

const (
	LayoutNHWC Layout = iota
	LayoutNCHW
)

func (l Layout) String() string {
	if l == LayoutNCHW {
		return "nchw"
	}
	return "nhwc"
}

// ParseLayout accepts "nhwc" or "nchw", case-insensitively
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(s) {
	case "nhwc", "":
		return LayoutNHWC, nil
	case "nchw":
		return LayoutNCHW, nil
	}
	return LayoutNHWC, fmt.Errorf("unknown tensor layout: %q", s)
}

// Shape returns the tensor shape of a single frame
func (l Layout) Shape(width, height int) []int {
	if l == LayoutNCHW {
		return []int{1, core.Channels, height, width}
	}
	return []int{1, height, width, core.Channels}
}

// TensorGeometry is the layout and image size of a single-image RGB tensor
type TensorGeometry struct {
	Layout Layout
	Width  int
	Height int
}

// GeometryOf reads the layout and image size from a tensor shape. The
// layout follows the shape when only one axis has three channels, otherwise
// hint decides.
func GeometryOf(shape []int, hint Layout) (TensorGeometry, error) {
	if len(shape) != 4 || shape[0] != 1 {
		return TensorGeometry{}, fmt.Errorf("unexpected tensor shape %v", shape)
	}
	g := TensorGeometry{Layout: hint}
	switch {
	case shape[3] == core.Channels && shape[1] != core.Channels:
		g.Layout = LayoutNHWC
	case shape[1] == core.Channels && shape[3] != core.Channels:
		g.Layout = LayoutNCHW
	}

	channels := shape[3]
	g.Height, g.Width = shape[1], shape[2]
	if g.Layout == LayoutNCHW {
		channels = shape[1]
		g.Height, g.Width = shape[2], shape[3]
	}
	if channels != core.Channels || g.Width <= 0 || g.Height <= 0 {
		return TensorGeometry{}, fmt.Errorf("tensor shape %v is not a %s RGB image", shape, g.Layout)
	}
	return g, nil
}
