package secure

import (
	"crypto"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// loadKeyStore reads and unlocks a key store, returning the endpoint's own
// certificate chain and private key. The store password unlocks both the
// container and the private-key entry.
func loadKeyStore(cfg *StoreConfig) (*tls.Certificate, error) {
	data, err := readStore(cfg)
	if err != nil {
		return nil, err
	}

	switch strings.ToUpper(cfg.Format) {
	case FormatPEM:
		return keyStoreFromPEM(data, cfg.Password)
	case FormatPKCS12:
		key, cert, err := pkcs12.Decode(data, cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("decode PKCS#12 key store: %w", err)
		}
		return &tls.Certificate{
			Certificate: [][]byte{cert.Raw},
			PrivateKey:  key,
			Leaf:        cert,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported key store format %q", cfg.Format)
	}
}

// loadTrustStore reads a trust store and returns the pool of certificate
// authorities the endpoint is willing to trust.
func loadTrustStore(cfg *StoreConfig) (*x509.CertPool, error) {
	data, err := readStore(cfg)
	if err != nil {
		return nil, err
	}

	switch strings.ToUpper(cfg.Format) {
	case FormatPEM:
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(data) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.Path)
		}
		return pool, nil
	case FormatPKCS12:
		blocks, err := pkcs12.ToPEM(data, cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("decode PKCS#12 trust store: %w", err)
		}
		pool := x509.NewCertPool()
		added := 0
		for _, block := range blocks {
			if block.Type != "CERTIFICATE" {
				continue
			}
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parse trust store certificate: %w", err)
			}
			pool.AddCert(cert)
			added++
		}
		if added == 0 {
			return nil, fmt.Errorf("no certificates found in %s", cfg.Path)
		}
		return pool, nil
	default:
		return nil, fmt.Errorf("unsupported trust store format %q", cfg.Format)
	}
}

func readStore(cfg *StoreConfig) ([]byte, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("store path is empty")
	}
	if alg := strings.ToUpper(cfg.ManagerAlgorithm); alg != DefaultManagerAlgorithm {
		return nil, fmt.Errorf("unsupported manager algorithm %q", cfg.ManagerAlgorithm)
	}

	data, err := os.ReadFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("read store %s: %w", cfg.Path, err)
	}
	return data, nil
}

// keyStoreFromPEM assembles a certificate chain and private key from a
// combined PEM file. Encrypted key blocks are unlocked with the store
// password.
func keyStoreFromPEM(data []byte, password string) (*tls.Certificate, error) {
	var cert tls.Certificate
	var keyDER []byte
	var keyType string

	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		switch {
		case block.Type == "CERTIFICATE":
			cert.Certificate = append(cert.Certificate, block.Bytes)
		case strings.HasSuffix(block.Type, "PRIVATE KEY"):
			if keyDER != nil {
				return nil, fmt.Errorf("key store contains more than one private key")
			}
			der := block.Bytes
			//nolint:staticcheck // legacy encrypted PEM is the password-protected key entry format
			if x509.IsEncryptedPEMBlock(block) {
				decrypted, err := x509.DecryptPEMBlock(block, []byte(password))
				if err != nil {
					return nil, fmt.Errorf("unlock private key: %w", err)
				}
				der = decrypted
			}
			keyDER = der
			keyType = block.Type
		}
	}

	if len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("key store contains no certificate")
	}
	if keyDER == nil {
		return nil, fmt.Errorf("key store contains no private key")
	}

	key, err := parsePrivateKey(keyDER, keyType)
	if err != nil {
		return nil, err
	}
	cert.PrivateKey = key

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("parse key store certificate: %w", err)
	}
	cert.Leaf = leaf

	return &cert, nil
}

func parsePrivateKey(der []byte, blockType string) (crypto.PrivateKey, error) {
	switch blockType {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(der)
		if err != nil {
			return nil, fmt.Errorf("parse RSA private key: %w", err)
		}
		return key, nil
	case "EC PRIVATE KEY":
		key, err := x509.ParseECPrivateKey(der)
		if err != nil {
			return nil, fmt.Errorf("parse EC private key: %w", err)
		}
		return key, nil
	default:
		key, err := x509.ParsePKCS8PrivateKey(der)
		if err != nil {
			// Encrypted legacy blocks decrypt to PKCS#1 but keep the
			// generic "PRIVATE KEY" type after DecryptPEMBlock.
			if rsaKey, rsaErr := x509.ParsePKCS1PrivateKey(der); rsaErr == nil {
				return rsaKey, nil
			}
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		return key, nil
	}
}
