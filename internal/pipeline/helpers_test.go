package pipeline

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"styler/internal/autoadvance"
	"styler/internal/core"
	"styler/internal/inference"
	"styler/internal/scaler"
	"styler/internal/source"
	"styler/internal/style"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// solid returns a w x h frame filled with v
func solid(w, h int, v byte) *core.Frame {
	f := core.NewFrame(w, h)
	for i := range f.Pix {
		f.Pix[i] = v
	}
	return f
}

// fakeSource hands out frames queued with push, one per Update
type fakeSource struct {
	kind    source.Kind
	queue   []*core.Frame
	current *core.Frame
	isNew   bool
	last    bool
	paused  bool
	openErr error

	opens, closes, plays, stops int
	nextFrames, prevFrames      int
	nextVideos, prevVideos      int
}

func (s *fakeSource) push(frames ...*core.Frame) { s.queue = append(s.queue, frames...) }

func (s *fakeSource) Kind() source.Kind { return s.kind }

func (s *fakeSource) Open() error {
	s.opens++
	return s.openErr
}

func (s *fakeSource) Close() { s.closes++ }

func (s *fakeSource) Update() {
	s.isNew = false
	if len(s.queue) == 0 {
		return
	}
	s.current, s.queue = s.queue[0], s.queue[1:]
	s.isNew = true
}

func (s *fakeSource) IsFrameNew() bool { return s.isNew }
func (s *fakeSource) IsLastFrame() bool { return s.last }
func (s *fakeSource) Pixels() *core.Frame { return s.current }
func (s *fakeSource) Width() int { return s.current.Width }
func (s *fakeSource) Height() int { return s.current.Height }
func (s *fakeSource) Play() { s.plays++ }
func (s *fakeSource) Stop() { s.stops++ }
func (s *fakeSource) SetPaused(paused bool) { s.paused = paused }
func (s *fakeSource) IsPaused() bool { return s.paused }
func (s *fakeSource) NextFrame() { s.nextFrames++ }
func (s *fakeSource) PreviousFrame() { s.prevFrames++ }

// fakePlaylist adds clip navigation
type fakePlaylist struct{ fakeSource }

func (s *fakePlaylist) NextVideo() { s.nextVideos++ }
func (s *fakePlaylist) PreviousVideo() { s.prevVideos++ }

// clip is an in-memory video whose frames carry their index in Pix[1]
type clip struct{ count, pos int }

func (c *clip) Read() (*core.Frame, bool) {
	if c.pos >= c.count {
		return nil, false
	}
	f := solid(4, 2, 1)
	f.Pix[1] = byte(c.pos)
	c.pos++
	return f, true
}

func (c *clip) Seek(index int) error {
	c.pos = index
	return nil
}

func (c *clip) Position() int { return c.pos }
func (c *clip) FrameCount() int { return c.count }
func (c *clip) FPS() float64 { return 10 }
func (c *clip) Close() error { return nil }

type clipOpener struct{ frames int }

func (o clipOpener) OpenVideo(string) (source.Video, error) {
	return &clip{count: o.frames}, nil
}

// recordingEngine returns a copy of the input and records every call
type recordingEngine struct {
	inputs []*core.Frame
	styles []*core.Frame
}

func (e *recordingEngine) Setup(width, height int) error { return nil }
func (e *recordingEngine) StyleSize() (int, int) { return 2, 2 }
func (e *recordingEngine) Close() error { return nil }

func (e *recordingEngine) Infer(input, style *core.Frame) (*core.Frame, error) {
	e.inputs = append(e.inputs, input)
	e.styles = append(e.styles, style)
	return input.Clone(), nil
}

func (e *recordingEngine) lastInput() *core.Frame { return e.inputs[len(e.inputs)-1] }
func (e *recordingEngine) lastStyle() *core.Frame { return e.styles[len(e.styles)-1] }

type styleDecoder struct{}

func (styleDecoder) Decode(path string) (*core.Frame, error) {
	if path == "broken.png" {
		return nil, errors.New("broken")
	}
	return solid(4, 4, byte(len(path))), nil
}

type recordingSaver struct {
	paths  []string
	frames []*core.Frame
}

func (s *recordingSaver) SaveImage(frame *core.Frame, path string) error {
	s.paths = append(s.paths, path)
	s.frames = append(s.frames, frame)
	return nil
}

type rig struct {
	orch     *Orchestrator
	engine   *recordingEngine
	camera   *fakeSource
	images   *fakeSource
	video    *fakePlaylist
	selector *style.Selector
	timer    *autoadvance.Timer
	scaler   *scaler.Scaler
	saver    *recordingSaver
	clock    *core.ManualClock
	registry *source.Registry
}

type rigOption func(*Deps, *Options)

func withStyleCamera(cam source.Source) rigOption {
	return func(d *Deps, _ *Options) { d.StyleCamera = cam }
}

func withOptions(f func(*Options)) rigOption {
	return func(_ *Deps, o *Options) { f(o) }
}

func newRig(t *testing.T, opts ...rigOption) *rig {
	t.Helper()
	logger := quietLogger()
	r := &rig{
		engine: &recordingEngine{},
		camera: &fakeSource{kind: source.KindCamera},
		images: &fakeSource{kind: source.KindImage},
		video:  &fakePlaylist{fakeSource{kind: source.KindVideo}},
		saver:  &recordingSaver{},
		clock:  core.NewManualClock(epoch),
		scaler: scaler.New(1, 1),
	}
	r.timer = autoadvance.NewTimer(false, time.Minute, r.clock, logger)
	r.registry = source.NewRegistry(r.timer, logger, r.camera, r.images, r.video)
	require.NoError(t, r.registry.SwitchTo(source.KindCamera))

	bridge := inference.NewBridge(r.engine, logger)
	sw, sh := bridge.StyleSize()
	sel, err := style.NewSelector([]string{"a.png", "bb.png", "ccc.png"}, styleDecoder{}, bridge, sw, sh, logger)
	require.NoError(t, err)
	require.NoError(t, sel.Init())
	r.selector = sel

	deps := Deps{
		Registry: r.registry,
		Bridge:   bridge,
		Selector: sel,
		Timer:    r.timer,
		Scaler:   r.scaler,
		Saver:    r.saver,
		Clock:    r.clock,
	}
	o := Options{Width: 4, Height: 2, Pip: true}
	for _, opt := range opts {
		opt(&deps, &o)
	}
	r.orch = NewOrchestrator(deps, o, logger)
	return r
}
