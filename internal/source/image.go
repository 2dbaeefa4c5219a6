package source

import (
	"time"

	"github.com/sirupsen/logrus"

	"styler/internal/core"
)

// DefaultFrameTime is how long each still image stays up during playback
const DefaultFrameTime = 3 * time.Second

// ImageSource plays a list of still images as a slideshow
type ImageSource struct {
	decoder Decoder
	clock   core.Clock
	logger  logrus.FieldLogger

	paths     []string
	index     int
	current   *core.Frame
	seq       uint64
	newFrame  bool // outward frame change indicator
	frameSet  bool // inward frame change indicator
	playing   bool
	paused    bool
	timestamp time.Time
	frameTime time.Duration
}

func NewImageSource(decoder Decoder, clock core.Clock, logger logrus.FieldLogger) *ImageSource {
	return &ImageSource{
		decoder:   decoder,
		clock:     clock,
		logger:    logger.WithField("component", "image_source"),
		frameTime: DefaultFrameTime,
	}
}

func (s *ImageSource) Kind() Kind { return KindImage }

// SetPaths replaces the slideshow list, taking effect on the next Open
func (s *ImageSource) SetPaths(paths []string) {
	s.paths = append([]string(nil), paths...)
	if s.index >= len(s.paths) {
		s.index = 0
	}
}

func (s *ImageSource) Paths() []string { return s.paths }

// SetFrameTime sets the playback duration of each image
func (s *ImageSource) SetFrameTime(d time.Duration) {
	if d <= 0 {
		s.logger.WithField("frame_time", d).Warn("ignoring invalid image frame time")
		return
	}
	s.frameTime = d
}

func (s *ImageSource) FrameTime() time.Duration { return s.frameTime }

func (s *ImageSource) Open() error {
	if len(s.paths) == 0 {
		return ErrNoAssets
	}
	s.setImage(s.index)
	return nil
}

func (s *ImageSource) Close() {
	s.Stop()
	s.current = nil
	s.newFrame = false
	s.frameSet = false
}

func (s *ImageSource) Update() {
	if s.playing && !s.paused {
		if s.clock.Now().Sub(s.timestamp) >= s.frameTime {
			s.NextFrame()
			s.timestamp = s.clock.Now()
		}
	}
	s.newFrame = s.frameSet
	s.frameSet = false
}

func (s *ImageSource) IsFrameNew() bool { return s.newFrame }

func (s *ImageSource) IsLastFrame() bool {
	return len(s.paths) > 0 && s.index == len(s.paths)-1
}

func (s *ImageSource) Pixels() *core.Frame { return s.current }

func (s *ImageSource) Width() int {
	if s.current == nil {
		return 0
	}
	return s.current.Width
}

func (s *ImageSource) Height() int {
	if s.current == nil {
		return 0
	}
	return s.current.Height
}

// Play starts the slideshow from the first image
func (s *ImageSource) Play() {
	if s.index != 0 && len(s.paths) > 0 {
		s.setImage(0)
	}
	s.timestamp = s.clock.Now()
	s.paused = false
	s.playing = true
}

func (s *ImageSource) Stop() {
	s.playing = false
	s.paused = false
}

func (s *ImageSource) SetPaused(paused bool) {
	if s.playing && s.paused && !paused {
		s.timestamp = s.clock.Now()
	}
	s.paused = paused
}

func (s *ImageSource) IsPaused() bool { return s.paused }

func (s *ImageSource) IsPlaying() bool { return s.playing }

func (s *ImageSource) NextFrame() {
	if len(s.paths) == 0 {
		return
	}
	s.setImage((s.index + 1) % len(s.paths))
}

func (s *ImageSource) PreviousFrame() {
	if len(s.paths) == 0 {
		return
	}
	s.setImage((s.index + len(s.paths) - 1) % len(s.paths))
}

// Index returns the current slideshow position
func (s *ImageSource) Index() int { return s.index }

// setImage moves the cursor and decodes the image there. The cursor moves
// even when decoding fails so a broken file cannot stall the slideshow; the
// previous image stays up and no new frame is signalled.
func (s *ImageSource) setImage(index int) {
	s.index = index
	path := s.paths[index]
	f, err := s.decoder.Decode(path)
	if err != nil {
		s.logger.WithError(err).WithField("path", path).Warn("could not load image")
		return
	}
	s.seq++
	f.Seq = s.seq
	f.Last = s.IsLastFrame()
	f.Timestamp = s.clock.Now()
	s.current = f
	s.frameSet = true
}
