// Package dnn runs the arbitrary style transfer model with the OpenCV DNN
// module.
package dnn

import (
	"fmt"
	"image"
	"os"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"styler/internal/core"
	"styler/internal/inference"
	"styler/internal/io"
)

// Style image size expected by the model
const (
	StyleWidth  = 256
	StyleHeight = 256
)

// Config selects the model file and its tensor names
type Config struct {
	Model        string // model file (.onnx, .pb, ...)
	Config       string // optional network description
	ContentInput string
	StyleInput   string
	Output       string // empty selects the last layer
	Layout       inference.Layout
	Backend      string // see gocv.ParseNetBackend
	Target       string // see gocv.ParseNetTarget
}

func DefaultConfig() Config {
	return Config{
		Model:        "model/style_transfer.onnx",
		ContentInput: "placeholder",
		StyleInput:   "placeholder_1",
		Layout:       inference.LayoutNHWC,
		Backend:      "default",
		Target:       "cpu",
	}
}

// Engine implements inference.Engine. It is not safe for concurrent use;
// the bridge calls Infer from one goroutine.
type Engine struct {
	cfg    Config
	logger logrus.FieldLogger

	net    gocv.Net
	loaded bool
	width  int
	height int
}

func New(cfg Config, logger logrus.FieldLogger) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: logger.WithField("component", "dnn_engine"),
	}
}

func (e *Engine) Setup(width, height int) error {
	if _, err := os.Stat(e.cfg.Model); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	net := gocv.ReadNet(e.cfg.Model, e.cfg.Config)
	if net.Empty() {
		return fmt.Errorf("failed to load model: %s", e.cfg.Model)
	}
	if err := net.SetPreferableBackend(gocv.ParseNetBackend(e.cfg.Backend)); err != nil {
		e.logger.WithError(err).Warn("backend not available")
	}
	if err := net.SetPreferableTarget(gocv.ParseNetTarget(e.cfg.Target)); err != nil {
		e.logger.WithError(err).Warn("target not available")
	}

	if e.loaded {
		e.net.Close()
	}
	e.net = net
	e.loaded = true
	e.width, e.height = width, height

	e.logger.WithFields(logrus.Fields{
		"model":   e.cfg.Model,
		"width":   width,
		"height":  height,
		"layout":  e.cfg.Layout,
		"backend": e.cfg.Backend,
		"target":  e.cfg.Target,
	}).Info("model loaded")
	return nil
}

func (e *Engine) StyleSize() (int, int) { return StyleWidth, StyleHeight }

func (e *Engine) Infer(input, style *core.Frame) (*core.Frame, error) {
	if !e.loaded {
		return nil, inference.ErrNotSetup
	}
	if style.Empty() {
		return nil, fmt.Errorf("no style set")
	}

	content, err := e.blob(input)
	if err != nil {
		return nil, fmt.Errorf("content: %w", err)
	}
	defer content.Close()
	styleBlob, err := e.blob(style)
	if err != nil {
		return nil, fmt.Errorf("style: %w", err)
	}
	defer styleBlob.Close()

	if err := e.net.SetInput(content, e.cfg.ContentInput); err != nil {
		return nil, fmt.Errorf("set %s: %w", e.cfg.ContentInput, err)
	}
	if err := e.net.SetInput(styleBlob, e.cfg.StyleInput); err != nil {
		return nil, fmt.Errorf("set %s: %w", e.cfg.StyleInput, err)
	}

	out := e.net.Forward(e.cfg.Output)
	defer out.Close()
	if out.Empty() {
		return nil, fmt.Errorf("model produced no output")
	}
	return e.frame(out)
}

func (e *Engine) Close() error {
	if !e.loaded {
		return nil
	}
	e.loaded = false
	return e.net.Close()
}

// blob packs an RGB frame into a float tensor scaled to [0, 1]
func (e *Engine) blob(f *core.Frame) (gocv.Mat, error) {
	rgb, err := io.FrameToRGBMat(f)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer rgb.Close()

	if e.cfg.Layout == inference.LayoutNCHW {
		return gocv.BlobFromImage(rgb, 1.0/255, image.Pt(f.Width, f.Height), gocv.NewScalar(0, 0, 0, 0), false, false), nil
	}

	scaled := gocv.NewMat()
	defer scaled.Close()
	rgb.ConvertToWithParams(&scaled, gocv.MatTypeCV32FC3, 1.0/255, 0)
	if scaled.Empty() {
		return gocv.NewMat(), fmt.Errorf("float conversion failed")
	}
	shaped, err := gocv.NewMatWithSizesFromBytes(e.cfg.Layout.Shape(f.Width, f.Height), gocv.MatTypeCV32F, scaled.ToBytes())
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("shape tensor: %w", err)
	}
	defer shaped.Close()
	return shaped.Clone(), nil
}

// frame unpacks a single-image output tensor into an RGB frame. Values are
// scaled back from [0, 1] and saturated.
func (e *Engine) frame(out gocv.Mat) (*core.Frame, error) {
	g, err := inference.GeometryOf(out.Size(), e.cfg.Layout)
	if err != nil {
		return nil, err
	}

	img := gocv.NewMat()
	defer img.Close()
	if g.Layout == inference.LayoutNCHW {
		planes := make([]gocv.Mat, core.Channels)
		for c := range planes {
			planes[c] = gocv.GetBlobChannel(out, 0, c)
			defer planes[c].Close()
		}
		gocv.Merge(planes, &img)
	} else {
		hwc, err := gocv.NewMatFromBytes(g.Height, g.Width, gocv.MatTypeCV32FC3, out.ToBytes())
		if err != nil {
			return nil, fmt.Errorf("output tensor: %w", err)
		}
		defer hwc.Close()
		hwc.CopyTo(&img)
	}

	pixels := gocv.NewMat()
	defer pixels.Close()
	img.ConvertToWithParams(&pixels, gocv.MatTypeCV8UC3, 255, 0)
	if pixels.Empty() || pixels.Cols() != g.Width || pixels.Rows() != g.Height {
		return nil, fmt.Errorf("output tensor %v could not be converted", out.Size())
	}
	return core.FrameFromRGB(pixels.ToBytes(), g.Width, g.Height)
}
