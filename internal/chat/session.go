package chat

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/andy6609/linechat/internal/protocol"
)

var errSessionClosed = errorString("session_closed")

// Session drives one connection from name negotiation through message relay
// to cleanup. It runs on its own goroutine and is the sole reader of conn.
type Session struct {
	conn   Conn
	out    *Outbound
	reg    *Registry
	router *Router
	logger *slog.Logger

	name  string
	state atomic.Int32

	terminateOnce sync.Once

	// claimed, when set, runs after the registry accepts a name and before
	// the session becomes active.
	claimed func(name string)
}

func NewSession(conn Conn, reg *Registry, router *Router, outboundBuffer int, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		conn:   conn,
		reg:    reg,
		router: router,
	}
	// A stalled or broken peer is released through Terminate, which
	// unregisters the name before the connection is closed.
	s.out = StartOutbound(conn, outboundBuffer, s.Terminate)
	s.logger = logger.With("session", s.out.ID(), "remote", conn.RemoteAddr())
	return s
}

func (s *Session) State() State { return State(s.state.Load()) }

// Name returns the registered name while the session is active.
func (s *Session) Name() string {
	if s.State() != StateActive {
		return ""
	}
	return s.name
}

// Run blocks until the client disconnects. I/O failures end the session and
// are logged, never returned.
func (s *Session) Run() {
	var cause error
	defer func() {
		if r := recover(); r != nil {
			cause = fmt.Errorf("session panic: %v", r)
		}
		s.Terminate(cause)
	}()

	if cause = s.negotiateName(); cause != nil {
		return
	}
	cause = s.relay()
}

func (s *Session) negotiateName() error {
	for {
		s.out.Send(protocol.SubmitName)
		line, err := s.conn.ReadLine()
		if err != nil {
			return err
		}

		if err := s.reg.TryRegister(line, s.out); err != nil {
			s.logger.Debug("name rejected", "proposed", line, "reason", err)
			continue
		}

		s.name = line
		if s.claimed != nil {
			s.claimed(line)
		}
		if !s.state.CompareAndSwap(int32(StateAwaitingName), int32(StateActive)) {
			// Terminated while the name was being claimed.
			s.reg.Unregister(line)
			s.router.BroadcastUserList()
			return errSessionClosed
		}
		s.logger.Info("name accepted", "name", line)

		s.out.Send(protocol.NameAccepted)
		s.router.BroadcastUserList()
		return nil
	}
}

func (s *Session) relay() error {
	for {
		line, err := s.conn.ReadLine()
		if err != nil {
			return err
		}
		s.router.Dispatch(s.name, s.out, protocol.ParseClientLine(line))
	}
}

// Terminate releases the session's name, rebroadcasts the roster, and closes
// the connection. Only the first call has any effect.
func (s *Session) Terminate(cause error) {
	s.terminateOnce.Do(func() {
		logger := s.logger
		prev := State(s.state.Swap(int32(StateTerminated)))
		if prev == StateActive {
			logger = logger.With("name", s.name)
			s.reg.Unregister(s.name)
			s.router.BroadcastUserList()
		}
		s.out.Close()
		_ = s.conn.Close()

		switch {
		case cause == nil || errors.Is(cause, io.EOF) || errors.Is(cause, errSessionClosed):
			logger.Info("client disconnected")
		case errors.Is(s.out.Err(), ErrSlowConsumer):
			logger.Warn("client dropped: outbound queue full")
		default:
			logger.Warn("connection lost", "error", cause)
		}
	})
}
