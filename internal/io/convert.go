package io

import (
	"fmt"

	"gocv.io/x/gocv"

	"styler/internal/core"
)

// MatToFrame copies an 8-bit OpenCV image (gray, BGR or BGRA) into an RGB
// frame
func MatToFrame(mat gocv.Mat) (*core.Frame, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("empty mat")
	}

	var code gocv.ColorConversionCode
	switch mat.Channels() {
	case 1:
		code = gocv.ColorGrayToRGB
	case 3:
		code = gocv.ColorBGRToRGB
	case 4:
		code = gocv.ColorBGRAToRGB
	default:
		return nil, fmt.Errorf("unsupported channel count: %d", mat.Channels())
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	if err := gocv.CvtColor(mat, &rgb, code); err != nil {
		return nil, fmt.Errorf("color conversion: %w", err)
	}
	if rgb.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("unsupported mat type: %v", rgb.Type())
	}
	return core.FrameFromRGB(rgb.ToBytes(), rgb.Cols(), rgb.Rows())
}

// FrameToMat copies an RGB frame into a new BGR mat. The caller closes it.
func FrameToMat(frame *core.Frame) (gocv.Mat, error) {
	if frame.Empty() {
		return gocv.NewMat(), fmt.Errorf("empty frame")
	}
	rgb, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("wrap frame: %w", err)
	}
	defer rgb.Close()

	bgr := gocv.NewMat()
	if err := gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR); err != nil {
		bgr.Close()
		return gocv.NewMat(), fmt.Errorf("color conversion: %w", err)
	}
	return bgr, nil
}

// FrameToRGBMat wraps a frame as an RGB mat without reordering channels.
// The caller closes it.
func FrameToRGBMat(frame *core.Frame) (gocv.Mat, error) {
	if frame.Empty() {
		return gocv.NewMat(), fmt.Errorf("empty frame")
	}
	return gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Pix)
}
