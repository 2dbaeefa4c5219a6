package remote

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"styler/internal/pipeline"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type recordingSink struct {
	mu   sync.Mutex
	cmds []pipeline.Command
}

func (r *recordingSink) Send(cmd pipeline.Command) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, cmd)
	return true
}

func (r *recordingSink) commands() []pipeline.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]pipeline.Command(nil), r.cmds...)
}

func TestCommandFor(t *testing.T) {
	cases := []struct {
		name string
		msg  *osc.Message
		want pipeline.Command
		ok   bool
	}{
		{"take", osc.NewMessage(AddrStyleTake), pipeline.CmdStyleTake, true},
		{"save style", osc.NewMessage(AddrStyleSave), pipeline.CmdSaveStyle, true},
		{"save output", osc.NewMessage(AddrOutputSave), pipeline.CmdSaveOutput, true},
		{"save output int", osc.NewMessage(AddrOutputSave, int32(1)), pipeline.CmdSaveOutput, true},
		{"save output float", osc.NewMessage(AddrOutputSave, float32(2.5)), pipeline.CmdSaveOutput, true},
		{"zero", osc.NewMessage(AddrOutputSave, int32(0)), pipeline.CmdNone, false},
		{"fraction", osc.NewMessage(AddrOutputSave, float32(0.5)), pipeline.CmdNone, false},
		{"negative", osc.NewMessage(AddrOutputSave, int32(-1)), pipeline.CmdNone, false},
		{"string", osc.NewMessage(AddrOutputSave, "yes"), pipeline.CmdNone, false},
		{"unknown", osc.NewMessage("/style/next"), pipeline.CmdNone, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := CommandFor(c.msg)
			assert.Equal(t, c.ok, ok)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestNewServerValidatesPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		_, err := NewServer(port, &recordingSink{}, quietLogger())
		assert.Error(t, err, port)
	}
	_, err := NewServer(8000, &recordingSink{}, quietLogger())
	assert.NoError(t, err)
}

func TestServeDeliversCommands(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port

	sink := &recordingSink{}
	srv, err := NewServer(port, sink, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, conn) }()

	client := osc.NewClient("127.0.0.1", port)
	require.Eventually(t, func() bool {
		_ = client.Send(osc.NewMessage(AddrStyleTake))
		return len(sink.commands()) > 0
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, pipeline.CmdStyleTake, sink.commands()[0])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
	}
}
