package source

import (
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"styler/internal/core"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// colorFrame returns a 4x2 frame whose first byte encodes v
func colorFrame(v byte) *core.Frame {
	f := core.NewFrame(4, 2)
	f.Pix[0] = v
	return f
}

type fakeDecoder struct {
	frames map[string]byte
	calls  []string
}

func (d *fakeDecoder) Decode(path string) (*core.Frame, error) {
	d.calls = append(d.calls, path)
	v, ok := d.frames[path]
	if !ok {
		return nil, errors.New("cannot decode " + path)
	}
	return colorFrame(v), nil
}

type fakeVideo struct {
	id     byte
	count  int
	pos    int
	fps    float64
	closed bool
}

func (v *fakeVideo) Read() (*core.Frame, bool) {
	if v.pos >= v.count {
		return nil, false
	}
	f := colorFrame(v.id)
	f.Pix[1] = byte(v.pos)
	v.pos++
	return f, true
}

func (v *fakeVideo) Seek(index int) error {
	if index < 0 || index > v.count {
		return errors.New("seek out of range")
	}
	v.pos = index
	return nil
}

func (v *fakeVideo) Position() int { return v.pos }
func (v *fakeVideo) FrameCount() int { return v.count }
func (v *fakeVideo) FPS() float64 { return v.fps }
func (v *fakeVideo) Close() error {
	v.closed = true
	return nil
}

type fakeVideoOpener struct {
	clips  map[string]int
	opened []*fakeVideo
}

func (o *fakeVideoOpener) OpenVideo(path string) (Video, error) {
	n, ok := o.clips[path]
	if !ok {
		return nil, errors.New("missing " + path)
	}
	v := &fakeVideo{id: byte(len(o.opened) + 1), count: n, fps: 10}
	o.opened = append(o.opened, v)
	return v, nil
}

type fakeDevice struct {
	queue  []*core.Frame
	closed bool
}

func (d *fakeDevice) Poll() (*core.Frame, bool) {
	if len(d.queue) == 0 {
		return nil, false
	}
	f := d.queue[0]
	d.queue = d.queue[1:]
	return f, true
}

func (d *fakeDevice) Size() (int, int) { return 4, 2 }
func (d *fakeDevice) Close() error {
	d.closed = true
	return nil
}

type fakeDeviceOpener struct {
	fail   bool
	opened []*fakeDevice
}

func (o *fakeDeviceOpener) OpenDevice(settings CameraSettings) (Device, error) {
	if o.fail {
		return nil, errors.New("busy")
	}
	d := &fakeDevice{}
	o.opened = append(o.opened, d)
	return d, nil
}

// recordingSource logs lifecycle calls into a shared journal
type recordingSource struct {
	kind    Kind
	journal *[]string
	failOn  bool
	open    bool
}

func (s *recordingSource) log(op string) { *s.journal = append(*s.journal, s.kind.String()+":"+op) }

func (s *recordingSource) Kind() Kind { return s.kind }
func (s *recordingSource) Open() error {
	s.log("open")
	if s.failOn {
		return ErrNoAssets
	}
	s.open = true
	return nil
}
func (s *recordingSource) Close() {
	s.log("close")
	s.open = false
}
func (s *recordingSource) Update() {}
func (s *recordingSource) IsFrameNew() bool { return false }
func (s *recordingSource) IsLastFrame() bool { return false }
func (s *recordingSource) Pixels() *core.Frame { return nil }
func (s *recordingSource) Width() int { return 0 }
func (s *recordingSource) Height() int { return 0 }
func (s *recordingSource) Play() { s.log("play") }
func (s *recordingSource) Stop() { s.log("stop") }
func (s *recordingSource) SetPaused(bool) {}
func (s *recordingSource) IsPaused() bool { return false }
func (s *recordingSource) NextFrame() {}
func (s *recordingSource) PreviousFrame() {}

type countingResetter struct{ n int }

func (r *countingResetter) Reset() { r.n++ }
