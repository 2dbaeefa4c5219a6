package capture

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"styler/internal/core"
	"styler/internal/io"
	"styler/internal/source"
)

// VideoOpener opens video files
type VideoOpener struct {
	logger logrus.FieldLogger
}

func NewVideoOpener(logger logrus.FieldLogger) *VideoOpener {
	return &VideoOpener{logger: logger.WithField("component", "video_file")}
}

func (o *VideoOpener) OpenVideo(path string) (source.Video, error) {
	return OpenVideoFile(path, o.logger)
}

// VideoFile is a clip decoded frame by frame on the caller's goroutine
type VideoFile struct {
	vc   *gocv.VideoCapture
	mat  gocv.Mat
	path string
}

func OpenVideoFile(path string, logger logrus.FieldLogger) (*VideoFile, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("open video %s: %w", path, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("video %s not opened", path)
	}
	v := &VideoFile{vc: vc, mat: gocv.NewMat(), path: path}
	logger.WithFields(logrus.Fields{
		"path":   path,
		"frames": v.FrameCount(),
		"fps":    v.FPS(),
	}).Debug("video opened")
	return v, nil
}

func (v *VideoFile) Read() (*core.Frame, bool) {
	if !v.vc.Read(&v.mat) || v.mat.Empty() {
		return nil, false
	}
	frame, err := io.MatToFrame(v.mat)
	if err != nil {
		return nil, false
	}
	return frame, true
}

func (v *VideoFile) Seek(index int) error {
	if index < 0 {
		return fmt.Errorf("seek %s: negative frame %d", v.path, index)
	}
	v.vc.Set(gocv.VideoCapturePosFrames, float64(index))
	return nil
}

func (v *VideoFile) Position() int { return int(v.vc.Get(gocv.VideoCapturePosFrames)) }
func (v *VideoFile) FrameCount() int { return int(v.vc.Get(gocv.VideoCaptureFrameCount)) }
func (v *VideoFile) FPS() float64 { return v.vc.Get(gocv.VideoCaptureFPS) }

func (v *VideoFile) Close() error {
	v.mat.Close()
	return v.vc.Close()
}
