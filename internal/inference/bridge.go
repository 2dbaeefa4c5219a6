package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"styler/internal/core"
)

// ErrWorkerRunning is returned by Process while the background worker owns
// the engine
var ErrWorkerRunning = errors.New("inference worker running")

// State is the bridge state as observed from the update goroutine
type State int

const (
	StateIdle State = iota
	StatePending
)

// Observer receives the duration of every finished inference. It is called
// from the worker goroutine.
type Observer interface {
	ObserveInference(d time.Duration, err error)
}

// Stats is a snapshot of the bridge counters
type Stats struct {
	Submitted    uint64
	Dropped      uint64 // unconsumed inputs overwritten by a newer submit
	Completed    uint64
	Failed       uint64
	LastDuration time.Duration
	Running      bool
}

// Bridge is a double-buffered handoff between the update loop and one
// inference worker goroutine.
//
// Slots:
//   - request: input frame + the style current at submit time. Written only
//     by SubmitInput, consumed only by the worker.
//   - output: written only by the worker, consumed only by Poll.
//
// Every slot access happens with mu held, and each "new" flag is set in
// the same critical section as its slot write. A goroutine that observes a
// flag therefore also observes the complete slot contents. At most one
// request is in flight, so outputs arrive in submission order.
type Bridge struct {
	engine   Engine
	logger   logrus.FieldLogger
	observer Observer

	mu         sync.Mutex
	cond       *sync.Cond
	input      *core.Frame
	inputStyle *core.Frame
	newInput   bool
	output     *core.Frame
	newOutput  bool
	style      *core.Frame
	busy       bool
	running    bool
	stopping   bool
	wg         sync.WaitGroup
	cancel     context.CancelFunc

	// processing size, update goroutine only
	width  int
	height int

	submitted    uint64
	dropped      uint64
	completed    uint64
	failed       uint64
	lastDuration int64
}

func NewBridge(engine Engine, logger logrus.FieldLogger) *Bridge {
	b := &Bridge{
		engine: engine,
		logger: logger.WithField("component", "inference_bridge"),
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// SetObserver registers a timing observer; call before Start
func (b *Bridge) SetObserver(o Observer) { b.observer = o }

// Configure sets the processing size. Submitted frames of another size are
// resized on the caller's goroutine before they enter the request slot.
// Zero disables resizing.
func (b *Bridge) Configure(width, height int) {
	b.width = width
	b.height = height
	b.logger.WithFields(logrus.Fields{"width": width, "height": height}).Debug("processing size")
}

// Size returns the configured processing size
func (b *Bridge) Size() (int, int) { return b.width, b.height }

// StyleSize forwards the engine's style input size
func (b *Bridge) StyleSize() (int, int) { return b.engine.StyleSize() }

// Start runs the inference worker until ctx is done or Stop is called
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return fmt.Errorf("inference worker already started")
	}
	ctx, b.cancel = context.WithCancel(ctx)
	b.running = true
	b.stopping = false

	b.wg.Add(2)
	go b.workerLoop()
	go func() {
		defer b.wg.Done()
		<-ctx.Done()
		b.mu.Lock()
		b.stopping = true
		b.cond.Broadcast()
		b.mu.Unlock()
	}()
	b.logger.Info("inference worker started")
	return nil
}

// Stop signals the worker and waits for it to exit. An inference already in
// progress runs to completion first. Idempotent. A worker that exits because
// the Start context is done falls back to synchronous submits by itself.
func (b *Bridge) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	cancel := b.cancel
	b.mu.Unlock()

	cancel()
	b.wg.Wait()
}

// IsRunning reports whether the background worker is active
func (b *Bridge) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// SubmitStyle sets the style carried by subsequent input submissions. It
// does not trigger a recompute by itself.
func (b *Bridge) SubmitStyle(style *core.Frame) {
	b.mu.Lock()
	b.style = style
	b.mu.Unlock()
}

// Style returns the most recently submitted style
func (b *Bridge) Style() *core.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.style
}

// SubmitInput hands a frame to the worker. An earlier input the worker has
// not picked up yet is replaced (last submit wins). Without a running worker
// the call blocks for the inference and the result becomes available from
// the next Poll.
func (b *Bridge) SubmitInput(frame *core.Frame) {
	if frame.Empty() {
		return
	}
	if b.width > 0 && b.height > 0 {
		frame = frame.Resized(b.width, b.height, false)
	}
	atomic.AddUint64(&b.submitted, 1)

	b.mu.Lock()
	if !b.running {
		style := b.style
		b.mu.Unlock()
		out, err := b.infer(frame, style)
		if err != nil {
			return
		}
		b.mu.Lock()
		b.output = out
		b.newOutput = true
		b.mu.Unlock()
		return
	}

	if b.newInput {
		atomic.AddUint64(&b.dropped, 1)
		b.logger.WithField("seq", b.input.Seq).Debug("replacing unconsumed input")
	}
	b.input = frame
	b.inputStyle = b.style
	b.newInput = true
	b.cond.Signal()
	b.mu.Unlock()
}

// Poll returns a completed output exactly once
func (b *Bridge) Poll() (*core.Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.newOutput {
		return nil, false
	}
	b.newOutput = false
	return b.output, true
}

// Output returns the last completed output without consuming it
func (b *Bridge) Output() *core.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.output
}

// State reports whether a request is waiting, running or unconsumed
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.newInput || b.busy || b.newOutput {
		return StatePending
	}
	return StateIdle
}

// Process runs one synchronous inference with the current style. Only valid
// while no worker is running.
func (b *Bridge) Process(frame *core.Frame) (*core.Frame, error) {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return nil, ErrWorkerRunning
	}
	style := b.style
	b.mu.Unlock()
	if b.width > 0 && b.height > 0 {
		frame = frame.Resized(b.width, b.height, false)
	}
	return b.infer(frame, style)
}

func (b *Bridge) Stats() Stats {
	b.mu.Lock()
	running := b.running
	b.mu.Unlock()
	return Stats{
		Submitted:    atomic.LoadUint64(&b.submitted),
		Dropped:      atomic.LoadUint64(&b.dropped),
		Completed:    atomic.LoadUint64(&b.completed),
		Failed:       atomic.LoadUint64(&b.failed),
		LastDuration: time.Duration(atomic.LoadInt64(&b.lastDuration)),
		Running:      running,
	}
}

func (b *Bridge) workerLoop() {
	defer b.wg.Done()
	for {
		b.mu.Lock()
		for !b.newInput && !b.stopping {
			b.cond.Wait()
		}
		if b.stopping {
			// the engine is idle from here on; later submits run inline
			b.running = false
			b.input, b.inputStyle = nil, nil
			b.newInput = false
			b.mu.Unlock()
			b.logger.Info("inference worker stopped")
			return
		}
		input, style := b.input, b.inputStyle
		b.input, b.inputStyle = nil, nil
		b.newInput = false
		b.busy = true
		b.mu.Unlock()

		out, err := b.infer(input, style)

		b.mu.Lock()
		b.busy = false
		if err == nil {
			b.output = out
			b.newOutput = true
		}
		b.mu.Unlock()
	}
}

func (b *Bridge) infer(input, style *core.Frame) (*core.Frame, error) {
	start := time.Now()
	out, err := b.engine.Infer(input, style)
	d := time.Since(start)
	atomic.StoreInt64(&b.lastDuration, int64(d))
	if b.observer != nil {
		b.observer.ObserveInference(d, err)
	}
	if err == nil && out.Empty() {
		err = fmt.Errorf("engine returned an empty frame")
	}
	if err != nil {
		atomic.AddUint64(&b.failed, 1)
		b.logger.WithError(err).WithField("seq", input.Seq).Error("inference failed")
		return nil, err
	}
	out.Seq = input.Seq
	atomic.AddUint64(&b.completed, 1)
	return out, nil
}
