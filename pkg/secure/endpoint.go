package secure

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"time"

	"github.com/kshitizanand/thrift/pkg/transport"
)

// GetServerSocket builds a bound, listening TLS server socket on the given
// port. ifAddr restricts the bind interface; empty binds all interfaces.
// acceptTimeout bounds each Accept (0 blocks indefinitely). The accept
// backlog is the kernel default; Go's net package does not expose it.
//
// Configuration and store-load problems keep their own error categories;
// only failures while binding the listener become a bind failure naming
// the port.
func GetServerSocket(port int, acceptTimeout time.Duration, ifAddr string, params *TransportParams) (*transport.ServerSocket, error) {
	cfg, err := BuildContext(params)
	if err != nil {
		return nil, err
	}
	return createServer(cfg, port, acceptTimeout, ifAddr)
}

// GetDefaultServerSocket builds a server socket from injected process-wide
// defaults instead of an explicit parameter set.
func GetDefaultServerSocket(port int, acceptTimeout time.Duration, ifAddr string, defaults *ProcessDefaults) (*transport.ServerSocket, error) {
	params, err := defaults.Params()
	if err != nil {
		return nil, err
	}
	return GetServerSocket(port, acceptTimeout, ifAddr, params)
}

func createServer(cfg *tls.Config, port int, acceptTimeout time.Duration, ifAddr string) (*transport.ServerSocket, error) {
	addr := net.JoinHostPort(ifAddr, strconv.Itoa(port))
	tcpListener, err := net.Listen("tcp", addr)
	if err != nil {
		recordEndpointBuild(context.Background(), endpointKindServer, false)
		return nil, transport.NewBindError(port, err)
	}

	tlsListener := tls.NewListener(tcpListener, cfg)
	recordEndpointBuild(context.Background(), endpointKindServer, true)
	return transport.NewServerSocket(tlsListener, tcpListener, acceptTimeout), nil
}

// GetClientSocket builds an already-connected TLS client socket to
// host:port. The call blocks through TCP connect and the TLS handshake;
// readTimeout bounds subsequent reads only (0 blocks indefinitely).
// Callers receive an open transport and must not call Open on it.
//
// Configuration and store-load problems keep their own error categories;
// any failure while dialing (DNS, refused connection, handshake) is
// surfaced as a single connect failure naming host and port.
func GetClientSocket(host string, port int, readTimeout time.Duration, params *TransportParams) (*transport.Socket, error) {
	cfg, err := BuildContext(params)
	if err != nil {
		return nil, err
	}
	if cfg.ServerName == "" {
		cfg.ServerName = host
	}
	return createClient(cfg, host, port, readTimeout)
}

// GetDefaultClientSocket connects using injected process-wide defaults.
func GetDefaultClientSocket(host string, port int, readTimeout time.Duration, defaults *ProcessDefaults) (*transport.Socket, error) {
	params, err := defaults.Params()
	if err != nil {
		return nil, err
	}
	return GetClientSocket(host, port, readTimeout, params)
}

func createClient(cfg *tls.Config, host string, port int, readTimeout time.Duration) (*transport.Socket, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := tls.Dial("tcp", addr, cfg)
	if err != nil {
		recordEndpointBuild(context.Background(), endpointKindClient, false)
		return nil, transport.NewConnectError(host, port, err)
	}

	recordEndpointBuild(context.Background(), endpointKindClient, true)
	return transport.NewSocketFromConn(conn, readTimeout), nil
}
