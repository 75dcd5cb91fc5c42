package secure

import (
	"os"

	"github.com/kshitizanand/thrift/pkg/transport"
)

// Environment variables consumed by DefaultsFromEnv. They mirror the
// conventional process-wide TLS store settings.
const (
	EnvKeyStore           = "THRIFT_TLS_KEYSTORE"
	EnvKeyStorePassword   = "THRIFT_TLS_KEYSTORE_PASSWORD"
	EnvKeyStoreFormat     = "THRIFT_TLS_KEYSTORE_FORMAT"
	EnvTrustStore         = "THRIFT_TLS_TRUSTSTORE"
	EnvTrustStorePassword = "THRIFT_TLS_TRUSTSTORE_PASSWORD"
	EnvTrustStoreFormat   = "THRIFT_TLS_TRUSTSTORE_FORMAT"
)

// ProcessDefaults carries the process-wide default store configuration used
// when no explicit parameter set is supplied. It is an explicit, injected
// value: read it once at startup and pass it to the GetDefault* builders.
// Nothing in this package consults the environment implicitly.
type ProcessDefaults struct {
	Protocol   string
	KeyStore   *StoreConfig
	TrustStore *StoreConfig
}

// DefaultsFromEnv reads the default store configuration from the
// environment. Unset store variables leave the corresponding half nil.
func DefaultsFromEnv() *ProcessDefaults {
	d := &ProcessDefaults{Protocol: DefaultProtocol}

	if path := os.Getenv(EnvKeyStore); path != "" {
		d.KeyStore = newStoreConfig(path, os.Getenv(EnvKeyStorePassword), "", os.Getenv(EnvKeyStoreFormat))
	}
	if path := os.Getenv(EnvTrustStore); path != "" {
		d.TrustStore = newStoreConfig(path, os.Getenv(EnvTrustStorePassword), "", os.Getenv(EnvTrustStoreFormat))
	}
	return d
}

// Params converts the defaults into a parameter set, failing when neither
// store is configured.
func (d *ProcessDefaults) Params() (*TransportParams, error) {
	if d == nil || (d.KeyStore == nil && d.TrustStore == nil) {
		return nil, transport.NewError(transport.ErrorTypeConfigMissing,
			"process defaults configure neither a key store nor a trust store").
			WithSuggestion("Set " + EnvKeyStore + " or " + EnvTrustStore + ", or pass explicit transport parameters")
	}

	params := NewTransportParams(d.Protocol, nil, false)
	params.KeyStore = d.KeyStore
	params.TrustStore = d.TrustStore
	return params, nil
}
