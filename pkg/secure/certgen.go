package secure

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

// CertificateOptions controls test-certificate generation.
type CertificateOptions struct {
	CommonName   string
	Organization []string
	DNSNames     []string
	IPAddresses  []net.IP
	ValidFor     time.Duration
	IsCA         bool
	IsClientCert bool
	KeySize      int
	ParentCert   *x509.Certificate
	ParentKey    interface{}
}

// GenerateCertificate creates a certificate and private key, self-signed
// unless a parent CA is supplied. Returned values are DER-parsed and
// PEM-encoded counterparts of the same material.
func GenerateCertificate(opts CertificateOptions) (cert *x509.Certificate, key *rsa.PrivateKey, certPEM []byte, err error) {
	if opts.ValidFor == 0 {
		opts.ValidFor = 365 * 24 * time.Hour
	}
	if opts.KeySize == 0 {
		opts.KeySize = 2048
	}
	if opts.CommonName == "" {
		opts.CommonName = "localhost"
	}

	key, err = rsa.GenerateKey(rand.Reader, opts.KeySize)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("generate private key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("generate serial number: %w", err)
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   opts.CommonName,
			Organization: opts.Organization,
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(opts.ValidFor),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              opts.DNSNames,
		IPAddresses:           opts.IPAddresses,
	}

	if len(template.DNSNames) == 0 && len(template.IPAddresses) == 0 {
		template.DNSNames = []string{"localhost"}
		template.IPAddresses = []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback}
	}

	if opts.IsCA {
		template.IsCA = true
		template.KeyUsage |= x509.KeyUsageCertSign
		template.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth}
	} else if opts.IsClientCert {
		template.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth}
	}

	parentCert := &template
	var parentKey interface{} = key
	if opts.ParentCert != nil && opts.ParentKey != nil {
		parentCert = opts.ParentCert
		parentKey = opts.ParentKey
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, parentCert, &key.PublicKey, parentKey)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create certificate: %w", err)
	}

	cert, err = x509.ParseCertificate(certDER)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parse generated certificate: %w", err)
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	return cert, key, certPEM, nil
}

// WriteKeyStore writes a combined PEM key store: certificate chain first,
// then the private key. A non-empty password encrypts the key block so the
// store requires unlocking, like a password-protected container.
func WriteKeyStore(path string, certPEM []byte, key *rsa.PrivateKey, password string) error {
	keyBlock := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}

	if password != "" {
		//nolint:staticcheck // legacy encrypted PEM is the password-protected key entry format
		encrypted, err := x509.EncryptPEMBlock(rand.Reader, keyBlock.Type, keyBlock.Bytes, []byte(password), x509.PEMCipherAES256)
		if err != nil {
			return fmt.Errorf("encrypt private key: %w", err)
		}
		keyBlock = encrypted
	}

	data := append(append([]byte{}, certPEM...), pem.EncodeToMemory(keyBlock)...)
	return os.WriteFile(path, data, 0o600)
}

// WriteTrustStore writes a PEM trust store containing the given CA bundle.
func WriteTrustStore(path string, caPEM []byte) error {
	return os.WriteFile(path, caPEM, 0o644)
}

// TestStores names the files produced by GenerateTestStores.
type TestStores struct {
	CAStore       string // trust store: the CA certificate
	ServerStore   string // key store: server cert + key, password-protected
	ClientStore   string // key store: client cert + key, password-protected
	StorePassword string
}

// GenerateTestStores writes a CA-rooted certificate suite under dir: a
// trust store holding the CA and password-protected key stores for a
// server (localhost/127.0.0.1) and a client.
func GenerateTestStores(dir, password string) (*TestStores, error) {
	caCert, caKey, caPEM, err := GenerateCertificate(CertificateOptions{
		CommonName:   "Test CA",
		Organization: []string{"Thrift Test"},
		IsCA:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate CA: %w", err)
	}

	_, serverKey, serverPEM, err := GenerateCertificate(CertificateOptions{
		CommonName: "localhost",
		ParentCert: caCert,
		ParentKey:  caKey,
	})
	if err != nil {
		return nil, fmt.Errorf("generate server certificate: %w", err)
	}

	_, clientKey, clientPEM, err := GenerateCertificate(CertificateOptions{
		CommonName:   "test-client",
		IsClientCert: true,
		ParentCert:   caCert,
		ParentKey:    caKey,
	})
	if err != nil {
		return nil, fmt.Errorf("generate client certificate: %w", err)
	}

	stores := &TestStores{
		CAStore:       filepath.Join(dir, "ca.pem"),
		ServerStore:   filepath.Join(dir, "server.pem"),
		ClientStore:   filepath.Join(dir, "client.pem"),
		StorePassword: password,
	}

	if err := WriteTrustStore(stores.CAStore, caPEM); err != nil {
		return nil, fmt.Errorf("write trust store: %w", err)
	}
	if err := WriteKeyStore(stores.ServerStore, serverPEM, serverKey, password); err != nil {
		return nil, fmt.Errorf("write server key store: %w", err)
	}
	if err := WriteKeyStore(stores.ClientStore, clientPEM, clientKey, password); err != nil {
		return nil, fmt.Errorf("write client key store: %w", err)
	}

	return stores, nil
}
