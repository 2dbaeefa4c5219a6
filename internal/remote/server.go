// Package remote receives OSC control messages and turns them into
// pipeline commands.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/hypebeast/go-osc/osc"
	"github.com/sirupsen/logrus"

	"styler/internal/pipeline"
)

// OSC addresses understood by the server
const (
	AddrStyleTake  = "/style/take"
	AddrStyleSave  = "/style/save"
	AddrOutputSave = "/output/save"
)

// Sink receives decoded commands; it must not block
type Sink interface {
	Send(cmd pipeline.Command) bool
}

// Server listens for OSC messages on UDP
type Server struct {
	port   int
	sink   Sink
	logger logrus.FieldLogger
}

func NewServer(port int, sink Sink, logger logrus.FieldLogger) (*Server, error) {
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d", port)
	}
	return &Server{
		port:   port,
		sink:   sink,
		logger: logger.WithFields(logrus.Fields{"component": "osc", "port": port}),
	}, nil
}

// Run listens on all interfaces until ctx is done
func (s *Server) Run(ctx context.Context) error {
	conn, err := net.ListenPacket("udp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("osc listen: %w", err)
	}
	return s.Serve(ctx, conn)
}

// Serve reads messages from conn until ctx is done. conn is closed on
// return.
func (s *Server) Serve(ctx context.Context, conn net.PacketConn) error {
	d := osc.NewStandardDispatcher()
	for _, addr := range []string{AddrStyleTake, AddrStyleSave, AddrOutputSave} {
		if err := d.AddMsgHandler(addr, s.handle); err != nil {
			conn.Close()
			return fmt.Errorf("osc handler %s: %w", addr, err)
		}
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		conn.Close()
	}()

	s.logger.Info("osc receiver listening")
	server := &osc.Server{Dispatcher: d}
	err := server.Serve(conn)
	if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) handle(msg *osc.Message) {
	cmd, ok := CommandFor(msg)
	if !ok {
		s.logger.WithField("message", msg.String()).Debug("ignoring message")
		return
	}
	s.logger.WithField("command", cmd).Debug("osc command")
	s.sink.Send(cmd)
}

// CommandFor maps an OSC message to a command. /output/save takes an
// optional number that must be positive.
func CommandFor(msg *osc.Message) (pipeline.Command, bool) {
	switch msg.Address {
	case AddrStyleTake:
		return pipeline.CmdStyleTake, true
	case AddrStyleSave:
		return pipeline.CmdSaveStyle, true
	case AddrOutputSave:
		if len(msg.Arguments) == 0 {
			return pipeline.CmdSaveOutput, true
		}
		if n, ok := argAsInt(msg.Arguments[0]); ok && n > 0 {
			return pipeline.CmdSaveOutput, true
		}
	}
	return pipeline.CmdNone, false
}

// argAsInt converts numeric arguments, truncating floats
func argAsInt(arg interface{}) (int64, bool) {
	switch v := arg.(type) {
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float32:
		return int64(v), true
	case float64:
		return int64(v), true
	}
	return 0, false
}
