// Package transport provides the byte-level socket abstractions used by the
// RPC layer: a client Socket, a listening ServerSocket, and the structured
// Error type every transport failure is surfaced as.
package transport

import "io"

// Transport is the interface all byte-carrying endpoints implement.
// Read and Write follow io semantics; Open is a no-op on transports that
// are handed out already connected.
type Transport interface {
	io.ReadWriteCloser

	// Open establishes the underlying connection. Transports produced by
	// the secure endpoint builder are already connected and must not be
	// re-opened.
	Open() error

	// IsOpen reports whether the transport is ready for Read/Write.
	IsOpen() bool

	// Flush forces any buffered writes onto the wire.
	Flush() error
}
