package secure

import (
	"crypto/tls"
	"fmt"
	"strings"
	"sync"
)

// cipherSuiteRegistry maps suite names to ids and back, built once from the
// platform's own suite tables so new suites are picked up automatically.
var (
	registryOnce   sync.Once
	suiteIDsByName map[string]uint16
	suiteNamesByID map[uint16]string
	insecureSuites map[uint16]bool
)

func buildCipherSuiteRegistry() {
	suiteIDsByName = make(map[string]uint16)
	suiteNamesByID = make(map[uint16]string)
	insecureSuites = make(map[uint16]bool)

	for _, suite := range tls.CipherSuites() {
		suiteIDsByName[suite.Name] = suite.ID
		suiteNamesByID[suite.ID] = suite.Name
	}
	for _, suite := range tls.InsecureCipherSuites() {
		suiteIDsByName[suite.Name] = suite.ID
		suiteNamesByID[suite.ID] = suite.Name
		insecureSuites[suite.ID] = true
	}
}

// ParseCipherSuites resolves cipher-suite names to ids, preserving the
// caller's order exactly. Unknown names fail the whole list.
func ParseCipherSuites(names []string) ([]uint16, error) {
	registryOnce.Do(buildCipherSuiteRegistry)

	ids := make([]uint16, 0, len(names))
	for _, name := range names {
		id, ok := suiteIDsByName[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("unknown cipher suite %q", name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CipherSuiteName returns the registered name of a suite id.
func CipherSuiteName(id uint16) string {
	registryOnce.Do(buildCipherSuiteRegistry)

	if name, ok := suiteNamesByID[id]; ok {
		return name
	}
	return fmt.Sprintf("unknown(0x%04x)", id)
}

// ValidateCipherSuiteSecurity rejects allow-lists containing suites the
// platform marks as insecure. An empty list is fine; the platform defaults
// apply.
func ValidateCipherSuiteSecurity(ids []uint16) error {
	registryOnce.Do(buildCipherSuiteRegistry)

	var flagged []string
	for _, id := range ids {
		if insecureSuites[id] {
			flagged = append(flagged, CipherSuiteName(id))
		}
	}
	if len(flagged) > 0 {
		return fmt.Errorf("insecure cipher suites detected: %s", strings.Join(flagged, ", "))
	}
	return nil
}

// SecurityDefaults holds the recommended baseline for new endpoints.
type SecurityDefaults struct {
	SecureCipherSuites []uint16
	MinTLSVersion      uint16
}

// GetSecurityDefaults returns AEAD suites with forward secrecy, strongest
// first, and a TLS 1.2 floor.
func GetSecurityDefaults() *SecurityDefaults {
	return &SecurityDefaults{
		SecureCipherSuites: []uint16{
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
		},
		MinTLSVersion: tls.VersionTLS12,
	}
}
