// Image loading and saving through OpenCV
package io

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"styler/internal/core"
)

// ImageLoader handles image file operations. It implements the decoders
// used by the image source and the style selector, and the snapshot saver.
type ImageLoader struct {
	logger logrus.FieldLogger
}

func NewImageLoader(logger logrus.FieldLogger) *ImageLoader {
	return &ImageLoader{
		logger: logger.WithField("component", "image_loader"),
	}
}

// Decode loads an image file as an RGB frame
func (il *ImageLoader) Decode(path string) (*core.Frame, error) {
	il.logger.WithField("filepath", path).Debug("Loading image")

	if !il.isSupportedImageFormat(path) {
		return nil, fmt.Errorf("unsupported image format: %s", path)
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("failed to load image: %s", path)
	}

	frame, err := MatToFrame(mat)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", path, err)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    frame.Width,
		"height":   frame.Height,
	}).Debug("Image loaded")
	return frame, nil
}

// SaveImage writes frame to path, creating the parent directory
func (il *ImageLoader) SaveImage(frame *core.Frame, path string) error {
	if frame.Empty() {
		return fmt.Errorf("cannot save empty image")
	}
	if !il.isSupportedImageFormat(path) {
		return fmt.Errorf("unsupported image format: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}

	mat, err := FrameToMat(frame)
	if err != nil {
		return err
	}
	defer mat.Close()

	if !gocv.IMWrite(path, mat) {
		return fmt.Errorf("failed to save image: %s", path)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    frame.Width,
		"height":   frame.Height,
	}).Info("Image saved")
	return nil
}

func (il *ImageLoader) isSupportedImageFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"} {
		if ext == format {
			return true
		}
	}
	return false
}
