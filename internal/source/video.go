package source

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"styler/internal/core"
)

const defaultVideoFPS = 30.0

// VideoSource plays a playlist of clips, moving on to the next clip when
// the current one is exhausted
type VideoSource struct {
	opener VideoOpener
	clock  core.Clock
	logger logrus.FieldLogger

	paths     []string
	index     int
	video     Video
	current   *core.Frame
	seq       uint64
	newFrame  bool // outward frame change indicator
	frameSet  bool // inward frame change indicator
	playing   bool
	paused    bool
	timestamp time.Time
	frameDur  time.Duration
}

func NewVideoSource(opener VideoOpener, clock core.Clock, logger logrus.FieldLogger) *VideoSource {
	return &VideoSource{
		opener:   opener,
		clock:    clock,
		logger:   logger.WithField("component", "video_source"),
		frameDur: fpsToDuration(defaultVideoFPS),
	}
}

func (s *VideoSource) Kind() Kind { return KindVideo }

// SetPaths replaces the playlist, taking effect on the next Open
func (s *VideoSource) SetPaths(paths []string) {
	s.paths = append([]string(nil), paths...)
	if s.index >= len(s.paths) {
		s.index = 0
	}
}

func (s *VideoSource) Paths() []string { return s.paths }

func (s *VideoSource) Open() error {
	if len(s.paths) == 0 {
		return ErrNoAssets
	}
	return s.setVideo(s.index)
}

func (s *VideoSource) Close() {
	s.playing = false
	s.paused = false
	s.newFrame = false
	s.frameSet = false
	s.current = nil
	if s.video != nil {
		if err := s.video.Close(); err != nil {
			s.logger.WithError(err).Debug("video close")
		}
		s.video = nil
	}
}

// Update reads the next frame when its time has come. Frames read outside
// Update by stepping or clip changes are published here as well.
func (s *VideoSource) Update() {
	if s.video != nil && s.playing && !s.paused {
		now := s.clock.Now()
		if now.Sub(s.timestamp) >= s.frameDur {
			s.timestamp = now
			s.readNext()
		}
	}
	s.newFrame = s.frameSet
	s.frameSet = false
}

func (s *VideoSource) IsFrameNew() bool { return s.newFrame }

func (s *VideoSource) IsLastFrame() bool {
	return s.current != nil && s.current.Last
}

func (s *VideoSource) Pixels() *core.Frame { return s.current }

func (s *VideoSource) Width() int {
	if s.current == nil {
		return 0
	}
	return s.current.Width
}

func (s *VideoSource) Height() int {
	if s.current == nil {
		return 0
	}
	return s.current.Height
}

// Play resumes playback; the first Update after Play reads a frame
func (s *VideoSource) Play() {
	s.playing = true
	s.paused = false
	s.timestamp = s.clock.Now().Add(-s.frameDur)
}

// Stop halts playback and rewinds the current clip
func (s *VideoSource) Stop() {
	s.playing = false
	s.paused = false
	if s.video != nil {
		if err := s.video.Seek(0); err != nil {
			s.logger.WithError(err).Debug("video rewind")
		}
	}
}

func (s *VideoSource) SetPaused(paused bool) {
	if s.playing && s.paused && !paused {
		s.timestamp = s.clock.Now()
	}
	s.paused = paused
}

func (s *VideoSource) IsPaused() bool { return s.paused }

func (s *VideoSource) NextFrame() {
	if s.video == nil {
		return
	}
	s.readNext()
}

func (s *VideoSource) PreviousFrame() {
	if s.video == nil {
		return
	}
	count := s.video.FrameCount()
	// Position is one past the frame on screen
	target := s.video.Position() - 2
	if target < 0 {
		if count <= 0 {
			return
		}
		target = count - 1
	}
	if err := s.video.Seek(target); err != nil {
		s.logger.WithError(err).WithField("frame", target).Debug("video seek")
		return
	}
	s.readNext()
}

// NextVideo switches to the next clip in the playlist
func (s *VideoSource) NextVideo() {
	if len(s.paths) == 0 {
		return
	}
	s.changeVideo((s.index + 1) % len(s.paths))
}

// PreviousVideo switches to the previous clip in the playlist
func (s *VideoSource) PreviousVideo() {
	if len(s.paths) == 0 {
		return
	}
	s.changeVideo((s.index + len(s.paths) - 1) % len(s.paths))
}

// Index returns the playlist position
func (s *VideoSource) Index() int { return s.index }

func (s *VideoSource) changeVideo(index int) {
	if err := s.setVideo(index); err != nil {
		s.logger.WithError(err).WithField("path", s.paths[index]).Warn("could not load video")
		return
	}
	if s.playing {
		s.timestamp = s.clock.Now()
		s.readNext()
	}
}

func (s *VideoSource) setVideo(index int) error {
	path := s.paths[index]
	v, err := s.opener.OpenVideo(path)
	if err != nil {
		return fmt.Errorf("open video %s: %w", path, err)
	}
	if s.video != nil {
		if err := s.video.Close(); err != nil {
			s.logger.WithError(err).Debug("video close")
		}
	}
	s.video = v
	s.index = index
	fps := v.FPS()
	if fps <= 0 {
		fps = defaultVideoFPS
	}
	s.frameDur = fpsToDuration(fps)
	s.logger.WithFields(logrus.Fields{"path": path, "fps": fps, "frames": v.FrameCount()}).Info("video")
	return nil
}

// readNext decodes one frame, rolling over to the next clip at the end of
// the current one
func (s *VideoSource) readNext() {
	f, ok := s.video.Read()
	if !ok {
		next := s.index
		if len(s.paths) > 0 {
			next = (s.index + 1) % len(s.paths)
		}
		if next == s.index {
			if err := s.video.Seek(0); err != nil {
				s.logger.WithError(err).Debug("video loop")
				return
			}
		} else if err := s.setVideo(next); err != nil {
			s.logger.WithError(err).Warn("could not load next video")
			if err := s.video.Seek(0); err != nil {
				return
			}
		}
		if f, ok = s.video.Read(); !ok {
			return
		}
	}
	s.seq++
	f.Seq = s.seq
	count := s.video.FrameCount()
	f.Last = count > 0 && s.video.Position() >= count
	f.Timestamp = s.clock.Now()
	s.current = f
	s.frameSet = true
}

func fpsToDuration(fps float64) time.Duration {
	return time.Duration(float64(time.Second) / fps)
}
