// Package secure builds TLS-secured transport endpoints from a declarative
// parameter set: it loads key and trust stores, derives a secure context,
// and returns already-connected client sockets or bound server sockets.
// The TLS handshake itself is delegated entirely to crypto/tls.
package secure

// Store formats understood by the loader.
const (
	// FormatPEM is a combined PEM file: one or more CERTIFICATE blocks and,
	// for key stores, a private key block that may be password-encrypted.
	FormatPEM = "PEM"

	// FormatPKCS12 is a password-protected PKCS#12 container.
	FormatPKCS12 = "PKCS12"
)

const (
	// DefaultProtocol negotiates the platform's supported TLS range.
	DefaultProtocol = "TLS"

	// DefaultManagerAlgorithm is the only manager implementation the Go TLS
	// stack provides. The field exists for configuration compatibility.
	DefaultManagerAlgorithm = "X509"

	// DefaultStoreFormat is used when a store is configured without an
	// explicit format.
	DefaultStoreFormat = FormatPEM
)

// StoreConfig describes the location and unlocking credentials of a key
// store or trust store. Password unlocks the store file and, for key
// stores, also the private-key entry inside it; the two secrets are one
// field by design.
type StoreConfig struct {
	Path             string
	Password         string
	ManagerAlgorithm string
	Format           string
}

// TransportParams describes how a secure endpoint should be built. A nil
// KeyStore or TrustStore means "use the platform default" for that half;
// at least one of the two must be set before a context can be derived.
//
// The parameter set records intent only: no file is touched and nothing is
// validated against store contents until BuildContext runs.
type TransportParams struct {
	Protocol     string
	KeyStore     *StoreConfig
	TrustStore   *StoreConfig
	CipherSuites []string
	ClientAuth   bool
}

// NewTransportParams creates a parameter set. An empty protocol keeps
// DefaultProtocol rather than producing an invalid empty identifier.
func NewTransportParams(protocol string, cipherSuites []string, clientAuth bool) *TransportParams {
	if protocol == "" {
		protocol = DefaultProtocol
	}
	return &TransportParams{
		Protocol:     protocol,
		CipherSuites: cipherSuites,
		ClientAuth:   clientAuth,
	}
}

// SetKeyStore records the key-store path and password with default manager
// algorithm and store format. Idempotent; overwrites only key-store fields.
func (p *TransportParams) SetKeyStore(path, password string) {
	p.SetKeyStoreWithOptions(path, password, "", "")
}

// SetKeyStoreWithOptions records full key-store configuration. Empty
// algorithm or format arguments fall back to the documented defaults.
func (p *TransportParams) SetKeyStoreWithOptions(path, password, managerAlgorithm, format string) {
	p.KeyStore = newStoreConfig(path, password, managerAlgorithm, format)
}

// SetTrustStore records the trust-store path and password with defaults.
func (p *TransportParams) SetTrustStore(path, password string) {
	p.SetTrustStoreWithOptions(path, password, "", "")
}

// SetTrustStoreWithOptions records full trust-store configuration.
func (p *TransportParams) SetTrustStoreWithOptions(path, password, managerAlgorithm, format string) {
	p.TrustStore = newStoreConfig(path, password, managerAlgorithm, format)
}

// RequireClientAuth sets whether a server endpoint must demand and verify
// a client certificate.
func (p *TransportParams) RequireClientAuth(required bool) {
	p.ClientAuth = required
}

// HasKeyStore reports whether key material has been configured.
func (p *TransportParams) HasKeyStore() bool {
	return p.KeyStore != nil
}

// HasTrustStore reports whether trust material has been configured.
func (p *TransportParams) HasTrustStore() bool {
	return p.TrustStore != nil
}

func newStoreConfig(path, password, managerAlgorithm, format string) *StoreConfig {
	if managerAlgorithm == "" {
		managerAlgorithm = DefaultManagerAlgorithm
	}
	if format == "" {
		format = DefaultStoreFormat
	}
	return &StoreConfig{
		Path:             path,
		Password:         password,
		ManagerAlgorithm: managerAlgorithm,
		Format:           format,
	}
}
