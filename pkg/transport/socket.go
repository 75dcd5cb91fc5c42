package transport

import (
	"net"
	"time"

	"github.com/google/uuid"
)

// Socket is a client-side Transport over a single net.Conn. The zero value
// is not usable; construct with NewSocket or NewSocketFromConn.
type Socket struct {
	conn        net.Conn
	hostPort    string
	readTimeout time.Duration
	id          string
}

// NewSocket creates an unconnected socket targeting host:port. Call Open to
// establish the connection. A readTimeout of 0 blocks reads indefinitely.
func NewSocket(hostPort string, readTimeout time.Duration) *Socket {
	return &Socket{
		hostPort:    hostPort,
		readTimeout: readTimeout,
		id:          uuid.NewString(),
	}
}

// NewSocketFromConn wraps an already-established connection. The returned
// socket is open; callers must not call Open on it.
func NewSocketFromConn(conn net.Conn, readTimeout time.Duration) *Socket {
	return &Socket{
		conn:        conn,
		hostPort:    conn.RemoteAddr().String(),
		readTimeout: readTimeout,
		id:          uuid.NewString(),
	}
}

// ID returns the socket's connection id, used to correlate log entries.
func (s *Socket) ID() string {
	return s.id
}

// Conn exposes the underlying connection, e.g. for TLS state inspection.
func (s *Socket) Conn() net.Conn {
	return s.conn
}

// SetReadTimeout changes the deadline applied before each Read.
func (s *Socket) SetReadTimeout(d time.Duration) {
	s.readTimeout = d
}

// Open dials the configured address over TCP.
func (s *Socket) Open() error {
	if s.IsOpen() {
		return NewAlreadyOpenError().WithContext("addr", s.hostPort)
	}
	if s.hostPort == "" {
		return NewConfigMissingError("hostPort")
	}

	conn, err := net.Dial("tcp", s.hostPort)
	if err != nil {
		host, port := splitHostPort(s.hostPort)
		return NewConnectError(host, port, err)
	}
	s.conn = conn
	return nil
}

// IsOpen reports whether the socket holds a live connection.
func (s *Socket) IsOpen() bool {
	return s.conn != nil
}

func (s *Socket) Read(p []byte) (int, error) {
	if !s.IsOpen() {
		return 0, NewNotOpenError("read")
	}
	if s.readTimeout > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			return 0, NewErrorWithCause(ErrorTypeUnknown, "failed to set read deadline", err)
		}
	}

	n, err := s.conn.Read(p)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return n, NewErrorWithCause(ErrorTypeTimedOut, "read timed out", err).
				WithContext("remote_addr", s.hostPort)
		}
	}
	return n, err
}

func (s *Socket) Write(p []byte) (int, error) {
	if !s.IsOpen() {
		return 0, NewNotOpenError("write")
	}
	return s.conn.Write(p)
}

// Flush is a no-op; the socket is unbuffered.
func (s *Socket) Flush() error {
	if !s.IsOpen() {
		return NewNotOpenError("flush")
	}
	return nil
}

// Close tears down the connection. Closing an unopened socket is a no-op.
func (s *Socket) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func splitHostPort(hostPort string) (string, int) {
	host, portStr, err := net.SplitHostPort(hostPort)
	if err != nil {
		return hostPort, 0
	}
	port := 0
	for _, c := range portStr {
		if c < '0' || c > '9' {
			return host, 0
		}
		port = port*10 + int(c-'0')
	}
	return host, port
}
