// Package pipeline drives one update tick: commands, source, style, inference
// and the view handed to the display.
package pipeline

import (
	"time"

	"github.com/sirupsen/logrus"

	"styler/internal/assets"
	"styler/internal/autoadvance"
	"styler/internal/core"
	"styler/internal/inference"
	"styler/internal/scaler"
	"styler/internal/source"
	"styler/internal/style"
)

const (
	DefaultQueueSize      = 64
	DefaultOutputDir      = "output"
	DefaultStyleOutputDir = "output-style"
)

// Saver writes a frame to an image file
type Saver interface {
	SaveImage(frame *core.Frame, path string) error
}

// TickObserver receives the interval between ticks
type TickObserver interface {
	ObserveTick(d time.Duration)
}

// Deps are the components the orchestrator drives. StyleCamera, Saver and
// Ticks are optional.
type Deps struct {
	Registry    *source.Registry
	Bridge      *inference.Bridge
	Selector    *style.Selector
	Timer       *autoadvance.Timer
	Scaler      *scaler.Scaler
	StyleCamera source.Source
	Saver       Saver
	Clock       core.Clock
	Ticks       TickObserver
}

// Options is the runtime state set from configuration
type Options struct {
	Width      int // initial processing size
	Height     int
	StaticSize bool

	Mirror      bool // main camera
	Flip        bool
	StyleMirror bool // style camera
	StyleFlip   bool

	StyleSave  bool
	Pip        bool
	Debug      bool
	Fullscreen bool

	OutputDir      string
	StyleOutputDir string
	QueueSize      int
}

// playlist is implemented by sources that hold several clips
type playlist interface {
	NextVideo()
	PreviousVideo()
}

// Orchestrator owns the update loop state. Tick and View are called from
// one goroutine; Enqueue may be called from any goroutine.
type Orchestrator struct {
	deps   Deps
	opts   Options
	logger logrus.FieldLogger
	events chan Event

	width  int // current processing size
	height int

	updateFrame bool // re-submit the current frame on the next tick
	styleInput  bool // show the source and take the next frame as style
	lastInput   *core.Frame
	output      *core.Frame
	lastTick    time.Time
}

func NewOrchestrator(deps Deps, opts Options, logger logrus.FieldLogger) *Orchestrator {
	if deps.Clock == nil {
		deps.Clock = core.SystemClock{}
	}
	if opts.OutputDir == "" {
		opts.OutputDir = DefaultOutputDir
	}
	if opts.StyleOutputDir == "" {
		opts.StyleOutputDir = DefaultStyleOutputDir
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	o := &Orchestrator{
		deps:   deps,
		opts:   opts,
		logger: logger.WithField("component", "orchestrator"),
		events: make(chan Event, opts.QueueSize),
		width:  opts.Width,
		height: opts.Height,
	}
	deps.Bridge.Configure(o.width, o.height)
	deps.Scaler.Configure(o.width, o.height)
	return o
}

// Enqueue queues an event for the next tick. When the queue is full the
// event is dropped.
func (o *Orchestrator) Enqueue(ev Event) bool {
	select {
	case o.events <- ev:
		return true
	default:
		o.logger.WithField("command", ev.Cmd).Warn("command queue full, dropping")
		return false
	}
}

// Send queues a command without arguments
func (o *Orchestrator) Send(cmd Command) bool {
	return o.Enqueue(Event{Cmd: cmd})
}

// Size returns the current processing size
func (o *Orchestrator) Size() (int, int) { return o.width, o.height }

// StyleInput reports whether style input mode is on
func (o *Orchestrator) StyleInput() bool { return o.styleInput }

// Options returns the current runtime options
func (o *Orchestrator) Options() Options { return o.opts }

// Tick runs one update
func (o *Orchestrator) Tick() {
	now := o.deps.Clock.Now()
	if o.deps.Ticks != nil && !o.lastTick.IsZero() {
		o.deps.Ticks.ObserveTick(now.Sub(o.lastTick))
	}
	o.lastTick = now

	o.drain()

	if cur := o.deps.Registry.Current(); cur != nil {
		cur.Update()
		if cur.IsFrameNew() || o.updateFrame {
			o.submit(cur)
		}
	}

	if out, ok := o.deps.Bridge.Poll(); ok {
		o.output = out
		if !o.showingSource() && !o.deps.Scaler.SameSize(out.Width, out.Height) {
			o.deps.Scaler.Configure(out.Width, out.Height)
		}
	}

	if o.deps.StyleCamera != nil {
		o.deps.StyleCamera.Update()
	}
}

func (o *Orchestrator) drain() {
	for {
		select {
		case ev := <-o.events:
			o.apply(ev)
		default:
			return
		}
	}
}

func (o *Orchestrator) submit(cur source.Source) {
	frame := cur.Pixels()
	if frame.Empty() {
		o.updateFrame = false
		return
	}

	if !o.opts.StaticSize && !frame.SameSize(o.width, o.height) {
		o.width, o.height = frame.Width, frame.Height
		o.deps.Bridge.Configure(o.width, o.height)
		if o.showingSource() {
			o.deps.Scaler.Configure(o.width, o.height)
		}
		o.logger.WithFields(logrus.Fields{"width": o.width, "height": o.height}).Debug("size now")
	}

	kind := cur.Kind()
	if !o.updateFrame && o.deps.Timer.Due(kind, cur.IsPaused()) {
		o.deps.Selector.Next()
	}

	if kind == source.KindCamera {
		frame = frame.Mirrored(o.opts.Mirror, o.opts.Flip)
	}
	o.lastInput = frame
	o.deps.Bridge.SubmitInput(frame)
	o.updateFrame = false
	o.deps.Timer.ObserveFrame(cur.IsLastFrame())
}

func (o *Orchestrator) apply(ev Event) {
	log := o.logger.WithField("command", ev.Cmd)
	log.Debug("command")
	cur := o.deps.Registry.Current()

	switch ev.Cmd {
	case CmdSourceImage:
		o.switchSource(source.KindImage)
	case CmdSourceVideo:
		o.switchSource(source.KindVideo)
	case CmdSourceCamera:
		o.switchSource(source.KindCamera)

	case CmdStyleNext:
		if o.deps.Selector.Next() {
			o.styleChanged()
		}
	case CmdStylePrevious:
		if o.deps.Selector.Previous() {
			o.styleChanged()
		}
	case CmdStylePath:
		if ev.Path != "" && o.deps.Selector.SetFromPath(ev.Path) {
			o.styleChanged()
		}
	case CmdStyleTake:
		o.takeStyle()
	case CmdRefreshStyles:
		o.deps.Selector.Refresh(ev.Paths)

	case CmdTogglePause:
		if o.styleInputActive() {
			o.takeStyle()
		} else if cur != nil {
			cur.SetPaused(!cur.IsPaused())
		}
	case CmdFrameNext:
		if cur != nil && cur.IsPaused() {
			cur.NextFrame()
		}
	case CmdFramePrevious:
		if cur != nil && cur.IsPaused() {
			cur.PreviousFrame()
		}
	case CmdVideoNext:
		if p, ok := cur.(playlist); ok {
			p.NextVideo()
		}
	case CmdVideoPrevious:
		if p, ok := cur.(playlist); ok {
			p.PreviousVideo()
		}
	case CmdRestart:
		if cur != nil {
			cur.Stop()
			cur.Play()
		}

	case CmdMirror:
		o.opts.Mirror = !o.opts.Mirror
	case CmdFlip:
		o.opts.Flip = !o.opts.Flip
	case CmdStyleMirror:
		if o.deps.StyleCamera != nil {
			o.opts.StyleMirror = !o.opts.StyleMirror
		}
	case CmdStyleFlip:
		if o.deps.StyleCamera != nil {
			o.opts.StyleFlip = !o.opts.StyleFlip
		}

	case CmdToggleAuto:
		o.deps.Timer.Toggle()
	case CmdToggleStyleInput:
		if o.deps.StyleCamera == nil {
			o.setStyleInput(!o.styleInput)
		}
	case CmdTogglePip:
		o.opts.Pip = !o.opts.Pip
	case CmdToggleDebug:
		o.opts.Debug = !o.opts.Debug
	case CmdToggleFullscreen:
		o.opts.Fullscreen = !o.opts.Fullscreen

	case CmdSaveOutput:
		o.save(o.output, o.opts.OutputDir, "saved output")
	case CmdSaveStyle:
		o.save(o.deps.Selector.Image(), o.opts.StyleOutputDir, "saved style")
	case CmdToggleStyleSave:
		o.opts.StyleSave = !o.opts.StyleSave
		log.WithField("enabled", o.opts.StyleSave).Info("style save")

	case CmdResize:
		o.deps.Scaler.Fit(ev.Width, ev.Height)

	default:
		log.Warn("unknown command")
	}
}

func (o *Orchestrator) switchSource(kind source.Kind) {
	if err := o.deps.Registry.SwitchTo(kind); err != nil {
		o.logger.WithError(err).Warn("source unchanged")
	}
}

// styleChanged restarts the auto change interval and, while paused, makes
// the next tick recompute the current frame with the new style
func (o *Orchestrator) styleChanged() {
	o.deps.Timer.MarkChanged()
	if cur := o.deps.Registry.Current(); cur != nil && cur.IsPaused() {
		o.updateFrame = true
	}
}

func (o *Orchestrator) takeStyle() {
	if frame := o.styleInputFrame(); frame != nil {
		if o.deps.Selector.TakeFromSource(frame) {
			o.styleChanged()
		}
	}
	if o.deps.StyleCamera == nil && o.styleInput {
		o.setStyleInput(false)
	}
	if o.opts.StyleSave {
		o.save(o.deps.Selector.Image(), o.opts.StyleOutputDir, "saved style")
	}
}

func (o *Orchestrator) setStyleInput(on bool) {
	o.styleInput = on
	switch {
	case on && !o.opts.StaticSize:
		o.deps.Scaler.Configure(o.width, o.height)
	case !on && !o.output.Empty():
		o.deps.Scaler.Configure(o.output.Width, o.output.Height)
	}
	o.logger.WithField("enabled", on).Info("style input mode")
}

// styleInputActive reports whether a style input (style camera or the
// source in style input mode) is available to take from
func (o *Orchestrator) styleInputActive() bool {
	return o.deps.StyleCamera != nil || o.styleInput
}

// showingSource reports whether the main view shows the source instead of
// the output
func (o *Orchestrator) showingSource() bool {
	return o.deps.StyleCamera == nil && o.styleInput
}

func (o *Orchestrator) styleInputFrame() *core.Frame {
	if cam := o.deps.StyleCamera; cam != nil {
		frame := cam.Pixels()
		if frame.Empty() {
			return nil
		}
		return frame.Mirrored(o.opts.StyleMirror, o.opts.StyleFlip)
	}
	if o.styleInput {
		return o.lastInput
	}
	return nil
}

func (o *Orchestrator) save(frame *core.Frame, dir, msg string) {
	if o.deps.Saver == nil {
		return
	}
	if frame.Empty() {
		o.logger.Warn("nothing to save")
		return
	}
	path := assets.SnapshotPath(dir, o.deps.Clock.Now())
	if err := o.deps.Saver.SaveImage(frame, path); err != nil {
		o.logger.WithError(err).WithField("path", path).Warn("could not save image")
		return
	}
	o.logger.WithField("path", path).Info(msg)
}
