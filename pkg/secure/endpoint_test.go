package secure

import (
	"crypto/tls"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kshitizanand/thrift/pkg/transport"
)

// startEchoServer binds a TLS server socket on a loopback ephemeral port
// and echoes every connection until the listener closes.
func startEchoServer(t *testing.T, params *TransportParams) (addr *net.TCPAddr) {
	t.Helper()

	server, err := GetServerSocket(0, 2*time.Second, "127.0.0.1", params)
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })
	server.SetReadTimeout(2 * time.Second)

	go func() {
		for {
			sock, err := server.Accept()
			if err != nil {
				return
			}
			go func() {
				defer sock.Close()
				buf := make([]byte, 256)
				for {
					n, err := sock.Read(buf)
					if err != nil {
						return
					}
					if _, err := sock.Write(buf[:n]); err != nil {
						return
					}
				}
			}()
		}
	}()

	tcpAddr, ok := server.Addr().(*net.TCPAddr)
	require.True(t, ok, "server address should be a TCP address")
	return tcpAddr
}

func serverParams(t *testing.T, stores *TestStores, clientAuth bool, cipherSuites []string) *TransportParams {
	t.Helper()
	protocol := "TLS"
	if clientAuth || cipherSuites != nil {
		// Client certificates and cipher restrictions are verified during
		// the TLS 1.2 handshake, making failures visible at dial time.
		protocol = "TLSv1.2"
	}
	params := NewTransportParams(protocol, cipherSuites, clientAuth)
	params.SetKeyStore(stores.ServerStore, stores.StorePassword)
	params.SetTrustStore(stores.CAStore, "")
	return params
}

func TestClientServerRoundTrip(t *testing.T) {
	stores := generateStores(t)
	addr := startEchoServer(t, serverParams(t, stores, false, nil))

	clientParams := NewTransportParams("", nil, false)
	clientParams.SetTrustStore(stores.CAStore, "")

	sock, err := GetClientSocket("127.0.0.1", addr.Port, 2*time.Second, clientParams)
	require.NoError(t, err)
	defer sock.Close()

	// Sockets come back already connected; Open must not be repeated.
	assert.True(t, sock.IsOpen())
	assert.Error(t, sock.Open())

	msg := []byte("secure ping")
	_, err = sock.Write(msg)
	require.NoError(t, err)

	buf := make([]byte, len(msg))
	n, err := sock.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, string(msg), string(buf[:n]))
}

func TestClientAuthRejectsCertlessClient(t *testing.T) {
	stores := generateStores(t)
	addr := startEchoServer(t, serverParams(t, stores, true, nil))

	certless := NewTransportParams("TLSv1.2", nil, false)
	certless.SetTrustStore(stores.CAStore, "")

	sock, err := GetClientSocket("127.0.0.1", addr.Port, 2*time.Second, certless)
	if err == nil {
		// The rejection may only surface on first use of the connection.
		sock.SetReadTimeout(2 * time.Second)
		if _, werr := sock.Write([]byte("x")); werr == nil {
			_, err = sock.Read(make([]byte, 1))
		} else {
			err = werr
		}
		sock.Close()
	}
	assert.Error(t, err, "a client without a certificate must be rejected")
}

func TestClientAuthAcceptsCertifiedClient(t *testing.T) {
	stores := generateStores(t)
	addr := startEchoServer(t, serverParams(t, stores, true, nil))

	certified := NewTransportParams("TLSv1.2", nil, false)
	certified.SetKeyStore(stores.ClientStore, stores.StorePassword)
	certified.SetTrustStore(stores.CAStore, "")

	sock, err := GetClientSocket("127.0.0.1", addr.Port, 2*time.Second, certified)
	require.NoError(t, err)
	defer sock.Close()

	_, err = sock.Write([]byte("mutual"))
	require.NoError(t, err)

	buf := make([]byte, 6)
	n, err := sock.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "mutual", string(buf[:n]))
}

func TestServerCipherSuiteRestriction(t *testing.T) {
	stores := generateStores(t)
	allowed := []string{"TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256"}
	addr := startEchoServer(t, serverParams(t, stores, false, allowed))

	clientParams := NewTransportParams("TLSv1.2", nil, false)
	clientParams.SetTrustStore(stores.CAStore, "")

	sock, err := GetClientSocket("127.0.0.1", addr.Port, 2*time.Second, clientParams)
	require.NoError(t, err)
	defer sock.Close()

	tlsConn, ok := sock.Conn().(*tls.Conn)
	require.True(t, ok)
	require.NoError(t, tlsConn.Handshake())

	state := tlsConn.ConnectionState()
	assert.Equal(t, uint16(tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256), state.CipherSuite,
		"the negotiated suite must come from the allow-list")
}

func TestConnectErrorNamesHostAndPort(t *testing.T) {
	stores := generateStores(t)

	// Find a port with no listener.
	probe, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := probe.Addr().(*net.TCPAddr).Port
	require.NoError(t, probe.Close())

	params := NewTransportParams("", nil, false)
	params.SetTrustStore(stores.CAStore, "")

	sock, err := GetClientSocket("127.0.0.1", port, time.Second, params)
	assert.Nil(t, sock)
	require.Error(t, err)
	assert.True(t, transport.IsConnectError(err))
	assert.Contains(t, err.Error(), "127.0.0.1")
	assert.Contains(t, err.Error(), "could not connect")
}

func TestBindErrorNamesPort(t *testing.T) {
	stores := generateStores(t)

	// Occupy a port so the bind fails.
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer occupied.Close()
	port := occupied.Addr().(*net.TCPAddr).Port

	params := NewTransportParams("", nil, false)
	params.SetKeyStore(stores.ServerStore, stores.StorePassword)

	server, err := GetServerSocket(port, 0, "127.0.0.1", params)
	assert.Nil(t, server)
	require.Error(t, err)
	assert.True(t, transport.IsBindError(err))
	assert.Contains(t, err.Error(), "could not bind to port")
}

func TestServerRequiresStoreConfiguration(t *testing.T) {
	_, err := GetServerSocket(0, 0, "127.0.0.1", NewTransportParams("", nil, false))
	assert.True(t, transport.IsConfigurationError(err),
		"missing stores are a configuration error, not a bind error: %v", err)

	_, err = GetClientSocket("127.0.0.1", 1, 0, nil)
	assert.True(t, transport.IsConfigurationError(err))
}

func TestTrustOnlyServerBindsAndListens(t *testing.T) {
	stores := generateStores(t)

	params := NewTransportParams("", nil, false)
	params.SetTrustStore(stores.CAStore, "")

	server, err := GetServerSocket(0, time.Second, "127.0.0.1", params)
	require.NoError(t, err)
	defer server.Close()

	assert.NotNil(t, server.Addr())
	assert.NotZero(t, server.Addr().(*net.TCPAddr).Port)
}

func TestStoreLoadFailureKeepsItsCategory(t *testing.T) {
	params := NewTransportParams("", nil, false)
	params.SetKeyStore("/nonexistent/server.pem", "pw")

	_, err := GetServerSocket(9090, 0, "", params)
	require.Error(t, err)
	assert.True(t, transport.IsStoreLoadError(err),
		"a bad key store must not masquerade as a bind problem: %v", err)
	assert.False(t, transport.IsBindError(err))

	_, err = GetClientSocket("127.0.0.1", 9090, 0, params)
	require.Error(t, err)
	assert.True(t, transport.IsStoreLoadError(err))
	assert.False(t, transport.IsConnectError(err))
}

func TestDefaultsFromEnv(t *testing.T) {
	stores := generateStores(t)

	t.Setenv(EnvKeyStore, stores.ServerStore)
	t.Setenv(EnvKeyStorePassword, stores.StorePassword)
	t.Setenv(EnvTrustStore, stores.CAStore)

	defaults := DefaultsFromEnv()
	params, err := defaults.Params()
	require.NoError(t, err)

	assert.True(t, params.HasKeyStore())
	assert.True(t, params.HasTrustStore())
	assert.Equal(t, stores.StorePassword, params.KeyStore.Password)

	cfg, err := BuildContext(params)
	require.NoError(t, err)
	assert.Len(t, cfg.Certificates, 1)
}

func TestEmptyDefaultsAreAConfigurationError(t *testing.T) {
	t.Setenv(EnvKeyStore, "")
	t.Setenv(EnvTrustStore, "")

	defaults := DefaultsFromEnv()
	_, err := defaults.Params()
	assert.True(t, transport.IsConfigurationError(err))

	_, err = GetDefaultServerSocket(0, 0, "", defaults)
	assert.Error(t, err)
}
