package secure

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"strings"
	"time"

	"github.com/kshitizanand/thrift/pkg/transport"
)

// BuildContext derives an initialized secure context from a parameter set.
//
// The context is built fresh on every call: stores are re-read from disk
// and nothing is cached. At least one of the key store or trust store must
// be configured; that precondition is checked before any I/O. Whichever
// half is absent falls back to the platform default (system trust roots,
// or no client certificate).
func BuildContext(params *TransportParams) (*tls.Config, error) {
	start := time.Now()

	if params == nil || (!params.HasKeyStore() && !params.HasTrustStore()) {
		return nil, transport.NewError(transport.ErrorTypeConfigValidation,
			"either one of the key store or trust store must be set for transport parameters").
			WithSuggestion("Call SetKeyStore or SetTrustStore before building the endpoint")
	}

	minVersion, maxVersion, err := protocolVersions(params.Protocol)
	if err != nil {
		return nil, transport.NewConfigValidationError("protocol", params.Protocol, err.Error())
	}

	cfg := &tls.Config{
		MinVersion: minVersion,
		MaxVersion: maxVersion,
	}

	if len(params.CipherSuites) > 0 {
		suites, err := ParseCipherSuites(params.CipherSuites)
		if err != nil {
			return nil, transport.NewConfigValidationError("cipherSuites", params.CipherSuites, err.Error())
		}
		cfg.CipherSuites = suites
	}

	var pool *x509.CertPool
	if params.HasTrustStore() {
		pool, err = loadTrustStore(params.TrustStore)
		if err != nil {
			recordContextBuild(context.Background(), time.Since(start), false)
			return nil, transport.NewStoreLoadError(params.TrustStore.Path, err)
		}
	}

	var cert *tls.Certificate
	if params.HasKeyStore() {
		cert, err = loadKeyStore(params.KeyStore)
		if err != nil {
			recordContextBuild(context.Background(), time.Since(start), false)
			return nil, transport.NewStoreLoadError(params.KeyStore.Path, err)
		}
	}

	initContext(cfg, cert, pool, params.ClientAuth)
	recordContextBuild(context.Background(), time.Since(start), true)
	return cfg, nil
}

// initContext applies whichever halves of the identity/trust pair are
// present. A nil cert leaves certificate presentation to the platform
// default; a nil pool leaves verification to the system roots. Randomness
// is always the platform default.
func initContext(cfg *tls.Config, cert *tls.Certificate, pool *x509.CertPool, clientAuth bool) {
	if cert != nil {
		cfg.Certificates = []tls.Certificate{*cert}
	}
	if pool != nil {
		cfg.RootCAs = pool
		cfg.ClientCAs = pool
	}
	if clientAuth {
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
}

// protocolVersions maps a protocol identifier to the TLS version range
// handed to crypto/tls. "TLS" selects the platform range with a floor of
// TLS 1.2; versioned identifiers pin an exact version.
func protocolVersions(protocol string) (minVersion, maxVersion uint16, err error) {
	switch strings.ToUpper(strings.TrimSpace(protocol)) {
	case "", "TLS":
		return tls.VersionTLS12, 0, nil
	case "TLSV1.2", "TLS 1.2", "TLSV12":
		return tls.VersionTLS12, tls.VersionTLS12, nil
	case "TLSV1.3", "TLS 1.3", "TLSV13":
		return tls.VersionTLS13, tls.VersionTLS13, nil
	default:
		return 0, 0, fmt.Errorf("unsupported protocol identifier %q", protocol)
	}
}
