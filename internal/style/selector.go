// Package style keeps the ordered list of style images and the active style.
package style

import (
	"errors"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"styler/internal/core"
)

// ErrNoStyles is fatal at startup: the selector needs at least one style
var ErrNoStyles = errors.New("no style images found")

// Decoder loads a style image as an RGB frame
type Decoder interface {
	Decode(path string) (*core.Frame, error)
}

// Sink receives every newly activated style, already resized to the model's
// style input size
type Sink interface {
	SubmitStyle(style *core.Frame)
}

// Selector holds the style list, the current index and the active style.
// Only the update loop goroutine calls it.
type Selector struct {
	decoder Decoder
	sink    Sink
	logger  logrus.FieldLogger

	width  int
	height int

	paths   []string
	index   int
	name    string
	image   *core.Frame // as loaded, for display and snapshots
	current *core.Frame // resized, as submitted to the sink
}

func NewSelector(paths []string, decoder Decoder, sink Sink, width, height int, logger logrus.FieldLogger) (*Selector, error) {
	if len(paths) == 0 {
		return nil, ErrNoStyles
	}
	return &Selector{
		decoder: decoder,
		sink:    sink,
		logger:  logger.WithField("component", "style_selector"),
		width:   width,
		height:  height,
		paths:   append([]string(nil), paths...),
	}, nil
}

// Init activates the first style that decodes, starting at the current index
func (s *Selector) Init() error {
	for i := 0; i < len(s.paths); i++ {
		idx := (s.index + i) % len(s.paths)
		if s.load(s.paths[idx]) {
			s.index = idx
			return nil
		}
	}
	return ErrNoStyles
}

// Next steps to the following style, wrapping at the end of the list.
// Returns false if the image could not be decoded; the previous style then
// stays active.
func (s *Selector) Next() bool {
	s.index = (s.index + 1) % len(s.paths)
	return s.load(s.paths[s.index])
}

// Previous steps to the preceding style, wrapping at the start of the list
func (s *Selector) Previous() bool {
	s.index = (s.index + len(s.paths) - 1) % len(s.paths)
	return s.load(s.paths[s.index])
}

// SetFromPath activates an image outside the indexed list (drag and drop).
// On decode failure this is a no-op.
func (s *Selector) SetFromPath(path string) bool {
	return s.load(path)
}

// TakeFromSource promotes an arbitrary frame to the active style without
// touching the index
func (s *Selector) TakeFromSource(frame *core.Frame) bool {
	if frame.Empty() {
		return false
	}
	s.activate(frame.Clone(), "capture")
	return true
}

// Refresh replaces the style list. The current path keeps its selection
// when it is still present; an empty list is ignored.
func (s *Selector) Refresh(paths []string) {
	if len(paths) == 0 {
		s.logger.Warn("ignoring empty style list")
		return
	}
	current := s.paths[s.index]
	s.paths = append([]string(nil), paths...)
	s.index = 0
	for i, p := range s.paths {
		if p == current {
			s.index = i
			break
		}
	}
	s.logger.WithFields(logrus.Fields{"styles": len(s.paths), "index": s.index}).Info("style list refreshed")
}

func (s *Selector) Index() int { return s.index }
func (s *Selector) Len() int { return len(s.paths) }
func (s *Selector) Paths() []string { return s.paths }

// Name is the file name of the active style, or "capture"
func (s *Selector) Name() string { return s.name }

// Image is the active style as loaded
func (s *Selector) Image() *core.Frame { return s.image }

// Current is the active style at model style size
func (s *Selector) Current() *core.Frame { return s.current }

func (s *Selector) load(path string) bool {
	f, err := s.decoder.Decode(path)
	if err != nil {
		s.logger.WithError(err).WithField("path", path).Warn("could not load style")
		return false
	}
	s.activate(f, filepath.Base(path))
	return true
}

func (s *Selector) activate(f *core.Frame, name string) {
	s.image = f
	s.current = f.Resized(s.width, s.height, true)
	s.name = name
	if s.sink != nil {
		s.sink.SubmitStyle(s.current)
	}
	s.logger.WithField("style", name).Debug("style now")
}
