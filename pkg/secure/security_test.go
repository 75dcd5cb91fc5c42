package secure

import (
	"crypto/tls"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCipherSuitesPreservesOrder(t *testing.T) {
	names := []string{
		"TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256",
		"TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384",
		"TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256",
	}

	ids, err := ParseCipherSuites(names)
	require.NoError(t, err)
	require.Len(t, ids, len(names))

	for i, id := range ids {
		assert.Equal(t, names[i], CipherSuiteName(id))
	}
}

func TestParseCipherSuitesUnknownName(t *testing.T) {
	_, err := ParseCipherSuites([]string{"TLS_NOT_A_REAL_SUITE"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "TLS_NOT_A_REAL_SUITE")
}

func TestParseCipherSuitesEmpty(t *testing.T) {
	ids, err := ParseCipherSuites(nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCipherSuiteNameUnknown(t *testing.T) {
	assert.Equal(t, "unknown(0xffff)", CipherSuiteName(0xffff))
}

func TestValidateCipherSuiteSecurity(t *testing.T) {
	secure := []uint16{
		tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
	}
	assert.NoError(t, ValidateCipherSuiteSecurity(secure))
	assert.NoError(t, ValidateCipherSuiteSecurity(nil))

	insecure := []uint16{tls.TLS_RSA_WITH_RC4_128_SHA}
	err := ValidateCipherSuiteSecurity(insecure)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TLS_RSA_WITH_RC4_128_SHA")
}

func TestSecurityDefaults(t *testing.T) {
	defaults := GetSecurityDefaults()

	assert.Equal(t, uint16(tls.VersionTLS12), defaults.MinTLSVersion)
	assert.NotEmpty(t, defaults.SecureCipherSuites)
	assert.NoError(t, ValidateCipherSuiteSecurity(defaults.SecureCipherSuites))
}
