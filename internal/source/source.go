// Package source provides the input frame sources (still image slideshow,
// video playlist, live camera) and the registry that keeps exactly one of
// them open at a time.
package source

import (
	"errors"

	"styler/internal/core"
)

var (
	// ErrNoAssets is returned by Open when a finite source has nothing to play
	ErrNoAssets = errors.New("no assets to play")
	// ErrDeviceUnavailable is returned by Open when a capture device cannot be opened
	ErrDeviceUnavailable = errors.New("capture device unavailable")
)

// Kind tags the concrete source variant
type Kind int

const (
	KindImage Kind = iota
	KindVideo
	KindCamera
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "images"
	case KindVideo:
		return "video"
	case KindCamera:
		return "camera"
	}
	return "unknown"
}

// Finite reports whether the kind has a natural end of sequence
func (k Kind) Finite() bool {
	return k == KindImage || k == KindVideo
}

// Source is a pluggable producer of a pixel frame stream.
//
// Update is called once per tick and may produce at most one new frame;
// IsFrameNew reports it until the next Update. Pause, play and frame
// stepping are explicit no-ops on variants without a playback cursor.
type Source interface {
	Kind() Kind

	Open() error
	Close()
	Update()

	IsFrameNew() bool
	IsLastFrame() bool
	Pixels() *core.Frame
	Width() int
	Height() int

	Play()
	Stop()
	SetPaused(paused bool)
	IsPaused() bool
	NextFrame()
	PreviousFrame()
}

// Decoder loads a still image as an RGB frame
type Decoder interface {
	Decode(path string) (*core.Frame, error)
}

// Video is an opened clip read frame by frame
type Video interface {
	// Read decodes the next frame; false at the end of the clip
	Read() (*core.Frame, bool)
	// Seek positions the cursor so the next Read returns frame index
	Seek(index int) error
	// Position is the index of the next frame Read will return
	Position() int
	FrameCount() int
	FPS() float64
	Close() error
}

// VideoOpener opens clips by path
type VideoOpener interface {
	OpenVideo(path string) (Video, error)
}

// CameraSettings selects and configures a capture device
type CameraSettings struct {
	Device int
	Width  int
	Height int
	Rate   int
}

// Device is an opened capture device
type Device interface {
	// Poll returns the latest frame captured since the previous poll
	Poll() (*core.Frame, bool)
	Size() (int, int)
	Close() error
}

// DeviceOpener opens capture devices
type DeviceOpener interface {
	OpenDevice(settings CameraSettings) (Device, error)
}
