package source

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"styler/internal/core"
)

// CameraSource polls a live capture device. It has no playback cursor, so
// pause and frame stepping do nothing.
type CameraSource struct {
	opener   DeviceOpener
	settings CameraSettings
	logger   logrus.FieldLogger

	device   Device
	current  *core.Frame
	seq      uint64
	newFrame bool
}

func NewCameraSource(opener DeviceOpener, settings CameraSettings, logger logrus.FieldLogger) *CameraSource {
	return &CameraSource{
		opener:   opener,
		settings: settings,
		logger:   logger.WithFields(logrus.Fields{"component": "camera_source", "device": settings.Device}),
	}
}

func (s *CameraSource) Kind() Kind { return KindCamera }

func (s *CameraSource) Settings() CameraSettings { return s.settings }

// Open (re)opens the device with the stored settings. The previous handle
// is always released first.
func (s *CameraSource) Open() error {
	s.Close()
	dev, err := s.opener.OpenDevice(s.settings)
	if err != nil {
		return fmt.Errorf("camera %d: %w: %v", s.settings.Device, ErrDeviceUnavailable, err)
	}
	s.device = dev
	w, h := dev.Size()
	s.logger.WithFields(logrus.Fields{"width": w, "height": h}).Info("camera opened")
	return nil
}

func (s *CameraSource) Close() {
	if s.device == nil {
		return
	}
	if err := s.device.Close(); err != nil {
		s.logger.WithError(err).Debug("camera close")
	}
	s.device = nil
	s.current = nil
	s.newFrame = false
}

func (s *CameraSource) IsOpen() bool { return s.device != nil }

func (s *CameraSource) Update() {
	s.newFrame = false
	if s.device == nil {
		return
	}
	f, ok := s.device.Poll()
	if !ok || f.Empty() {
		return
	}
	s.seq++
	f.Seq = s.seq
	f.Last = false
	s.current = f
	s.newFrame = true
}

func (s *CameraSource) IsFrameNew() bool { return s.newFrame }

// IsLastFrame is always false, a live stream has no end
func (s *CameraSource) IsLastFrame() bool { return false }

func (s *CameraSource) Pixels() *core.Frame { return s.current }

func (s *CameraSource) Width() int {
	if s.current != nil {
		return s.current.Width
	}
	if s.device != nil {
		w, _ := s.device.Size()
		return w
	}
	return s.settings.Width
}

func (s *CameraSource) Height() int {
	if s.current != nil {
		return s.current.Height
	}
	if s.device != nil {
		_, h := s.device.Size()
		return h
	}
	return s.settings.Height
}

func (s *CameraSource) Play() {}
func (s *CameraSource) Stop() {}
func (s *CameraSource) SetPaused(bool) {}
func (s *CameraSource) IsPaused() bool { return false }
func (s *CameraSource) NextFrame() {}
func (s *CameraSource) PreviousFrame() {}
