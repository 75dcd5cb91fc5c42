package transport

import (
	"net"
	"time"
)

// deadlineListener is satisfied by *net.TCPListener. TLS listeners returned
// by tls.NewListener do not expose deadlines, so the builder hands us the
// raw TCP listener separately.
type deadlineListener interface {
	SetDeadline(t time.Time) error
}

// ServerSocket wraps a bound, listening net.Listener and applies an accept
// timeout before every Accept. An acceptTimeout of 0 blocks indefinitely.
type ServerSocket struct {
	listener      net.Listener
	deadliner     deadlineListener
	acceptTimeout time.Duration
	readTimeout   time.Duration
}

// NewServerSocket wraps a listener. If the listener itself does not support
// deadlines (a TLS listener), pass the underlying TCP listener as inner;
// otherwise inner may be nil.
func NewServerSocket(listener net.Listener, inner net.Listener, acceptTimeout time.Duration) *ServerSocket {
	s := &ServerSocket{
		listener:      listener,
		acceptTimeout: acceptTimeout,
	}
	if d, ok := listener.(deadlineListener); ok {
		s.deadliner = d
	} else if d, ok := inner.(deadlineListener); ok {
		s.deadliner = d
	}
	return s
}

// SetReadTimeout sets the read timeout applied to accepted sockets.
func (s *ServerSocket) SetReadTimeout(d time.Duration) {
	s.readTimeout = d
}

// Addr returns the bound address of the listener.
func (s *ServerSocket) Addr() net.Addr {
	return s.listener.Addr()
}

// Accept waits for the next inbound connection and wraps it in a Socket.
// With a non-zero accept timeout the wait is bounded and expiry surfaces
// as a timed-out transport error.
func (s *ServerSocket) Accept() (*Socket, error) {
	if s.listener == nil {
		return nil, NewNotOpenError("accept")
	}

	if s.deadliner != nil {
		deadline := time.Time{}
		if s.acceptTimeout > 0 {
			deadline = time.Now().Add(s.acceptTimeout)
		}
		if err := s.deadliner.SetDeadline(deadline); err != nil {
			return nil, NewErrorWithCause(ErrorTypeUnknown, "failed to set accept deadline", err)
		}
	}

	conn, err := s.listener.Accept()
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, NewErrorWithCause(ErrorTypeTimedOut, "accept timed out", err).
				WithContext("addr", s.listener.Addr().String())
		}
		return nil, NewErrorWithCause(ErrorTypeUnknown, "accept failed", err).
			WithContext("addr", s.listener.Addr().String())
	}

	return NewSocketFromConn(conn, s.readTimeout), nil
}

// Close stops the listener. Accepted sockets are unaffected.
func (s *ServerSocket) Close() error {
	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	s.listener = nil
	s.deadliner = nil
	return err
}
