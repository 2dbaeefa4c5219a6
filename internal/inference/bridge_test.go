package inference

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"styler/internal/core"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func frameSeq(seq uint64, tag byte) *core.Frame {
	f := core.NewFrame(4, 2)
	f.Seq = seq
	f.Pix[1] = tag
	return f
}

func styleFrame(tag byte) *core.Frame {
	f := core.NewFrame(2, 2)
	f.Pix[0] = tag
	return f
}

// echoEngine copies the input and stamps the style tag into the first byte
type echoEngine struct {
	mu     sync.Mutex
	inputs []*core.Frame
	styles []*core.Frame
	fail   bool

	started chan uint64
	release chan struct{}
}

func (e *echoEngine) Setup(width, height int) error { return nil }
func (e *echoEngine) StyleSize() (int, int) { return 2, 2 }
func (e *echoEngine) Close() error { return nil }

func (e *echoEngine) Infer(input, style *core.Frame) (*core.Frame, error) {
	e.mu.Lock()
	e.inputs = append(e.inputs, input)
	e.styles = append(e.styles, style)
	e.mu.Unlock()

	if e.started != nil {
		e.started <- input.Seq
	}
	if e.release != nil {
		<-e.release
	}
	if e.fail {
		return nil, errors.New("bad tensor shape")
	}
	out := input.Clone()
	if style != nil {
		out.Pix[0] = style.Pix[0]
	}
	return out, nil
}

func (e *echoEngine) seenSeqs() []uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	seqs := make([]uint64, len(e.inputs))
	for i, f := range e.inputs {
		seqs[i] = f.Seq
	}
	return seqs
}

func startBridge(t *testing.T, engine Engine) *Bridge {
	t.Helper()
	b := NewBridge(engine, quietLogger())
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(b.Stop)
	return b
}

func waitOutput(t *testing.T, b *Bridge) *core.Frame {
	t.Helper()
	var out *core.Frame
	require.Eventually(t, func() bool {
		f, ok := b.Poll()
		out = f
		return ok
	}, time.Second, time.Millisecond)
	return out
}

func TestSyncModeDeliversOnNextPoll(t *testing.T) {
	engine := &echoEngine{}
	b := NewBridge(engine, quietLogger())
	b.SubmitStyle(styleFrame(7))

	_, ok := b.Poll()
	assert.False(t, ok)

	b.SubmitInput(frameSeq(1, 0))
	out, ok := b.Poll()
	require.True(t, ok)
	assert.Equal(t, uint64(1), out.Seq)
	assert.Equal(t, byte(7), out.Pix[0])

	_, ok = b.Poll()
	assert.False(t, ok, "one output per computation")
	assert.Equal(t, StateIdle, b.State())
}

func TestLastSubmitWins(t *testing.T) {
	engine := &echoEngine{started: make(chan uint64, 4), release: make(chan struct{})}
	b := startBridge(t, engine)

	b.SubmitInput(frameSeq(1, 0))
	require.Equal(t, uint64(1), <-engine.started)

	// worker is busy with 1: 2 is overwritten by 3 before pickup
	b.SubmitInput(frameSeq(2, 0))
	b.SubmitInput(frameSeq(3, 0))
	assert.Equal(t, StatePending, b.State())

	engine.release <- struct{}{}
	assert.Equal(t, uint64(3), <-engine.started)
	engine.release <- struct{}{}

	out := waitOutput(t, b)
	if out.Seq == 1 {
		out = waitOutput(t, b)
	}
	assert.Equal(t, uint64(3), out.Seq)
	assert.Equal(t, []uint64{1, 3}, engine.seenSeqs())

	stats := b.Stats()
	assert.Equal(t, uint64(3), stats.Submitted)
	assert.Equal(t, uint64(1), stats.Dropped)
	assert.Equal(t, uint64(2), stats.Completed)
}

func TestOutputsFollowSubmissionOrder(t *testing.T) {
	engine := &echoEngine{}
	b := startBridge(t, engine)

	const k = 5
	for i := uint64(1); i <= k; i++ {
		b.SubmitInput(frameSeq(i, byte(i)))
		out := waitOutput(t, b)
		assert.Equal(t, i, out.Seq)
		_, again := b.Poll()
		assert.False(t, again)
	}
	assert.Equal(t, uint64(k), b.Stats().Completed)
	assert.Equal(t, uint64(0), b.Stats().Dropped)
}

func TestStyleIsCapturedAtSubmit(t *testing.T) {
	engine := &echoEngine{started: make(chan uint64, 4), release: make(chan struct{})}
	b := startBridge(t, engine)

	b.SubmitStyle(styleFrame(1))
	b.SubmitInput(frameSeq(1, 0))
	<-engine.started

	b.SubmitInput(frameSeq(2, 0))
	// committed after submission 2: only affects submission 3
	b.SubmitStyle(styleFrame(2))

	engine.release <- struct{}{}
	<-engine.started
	engine.release <- struct{}{}
	out := waitOutput(t, b)
	if out.Seq == 1 {
		out = waitOutput(t, b)
	}
	assert.Equal(t, uint64(2), out.Seq)
	assert.Equal(t, byte(1), out.Pix[0])

	b.SubmitInput(frameSeq(3, 0))
	<-engine.started
	engine.release <- struct{}{}
	out = waitOutput(t, b)
	assert.Equal(t, byte(2), out.Pix[0])
}

func TestSyncAndThreadedProduceSameSequence(t *testing.T) {
	run := func(threaded bool) [][]byte {
		b := NewBridge(&echoEngine{}, quietLogger())
		if threaded {
			require.NoError(t, b.Start(context.Background()))
			defer b.Stop()
		}
		var outs [][]byte
		for i := 0; i < 4; i++ {
			b.SubmitStyle(styleFrame(byte(10 + i)))
			b.SubmitInput(frameSeq(uint64(i+1), byte(i)))
			out := waitOutput(t, b)
			outs = append(outs, out.Pix)
		}
		return outs
	}
	assert.Equal(t, run(false), run(true))
}

func TestConfigureResizesBeforeSubmit(t *testing.T) {
	engine := &echoEngine{}
	b := NewBridge(engine, quietLogger())
	b.Configure(2, 1)

	b.SubmitInput(frameSeq(1, 0))
	require.Len(t, engine.inputs, 1)
	assert.Equal(t, 2, engine.inputs[0].Width)
	assert.Equal(t, 1, engine.inputs[0].Height)
}

func TestEngineFailureLeavesOutputUntouched(t *testing.T) {
	engine := &echoEngine{}
	b := NewBridge(engine, quietLogger())
	b.SubmitInput(frameSeq(1, 0))
	first, ok := b.Poll()
	require.True(t, ok)

	engine.fail = true
	b.SubmitInput(frameSeq(2, 0))
	_, ok = b.Poll()
	assert.False(t, ok)
	assert.Same(t, first, b.Output())
	assert.Equal(t, uint64(1), b.Stats().Failed)
}

func TestLifecycle(t *testing.T) {
	b := NewBridge(&echoEngine{}, quietLogger())
	b.Stop()

	require.NoError(t, b.Start(context.Background()))
	assert.Error(t, b.Start(context.Background()))
	assert.True(t, b.IsRunning())

	_, err := b.Process(frameSeq(1, 0))
	assert.ErrorIs(t, err, ErrWorkerRunning)

	b.Stop()
	b.Stop()
	assert.False(t, b.IsRunning())

	out, err := b.Process(frameSeq(2, 0))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), out.Seq)
}

func TestContextCancelStopsWorker(t *testing.T) {
	engine := &echoEngine{}
	b := NewBridge(engine, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, b.Start(ctx))
	cancel()

	b.Stop()
	assert.False(t, b.IsRunning())
}

func TestCancelledContextFallsBackToSync(t *testing.T) {
	engine := &echoEngine{}
	b := NewBridge(engine, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, b.Start(ctx))
	t.Cleanup(b.Stop)

	cancel()
	require.Eventually(t, func() bool { return !b.IsRunning() }, time.Second, time.Millisecond)

	b.SubmitInput(frameSeq(7, 0))
	out, ok := b.Poll()
	require.True(t, ok, "submit after cancel must not land in a dead slot")
	assert.Equal(t, uint64(7), out.Seq)
	assert.Equal(t, StateIdle, b.State())
	assert.False(t, b.Stats().Running)

	// a fresh start after the fallback works
	require.NoError(t, b.Start(context.Background()))
	b.SubmitInput(frameSeq(8, 0))
	assert.Equal(t, uint64(8), waitOutput(t, b).Seq)
}
