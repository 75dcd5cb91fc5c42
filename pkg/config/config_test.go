package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kshitizanand/thrift/pkg/secure"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "endpoint.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
tls:
  protocol: TLSv1.2
  key_store:
    path: /etc/ssl/server.pem
    password: changeit
  trust_store:
    path: /etc/ssl/ca.pem
    format: PEM
  cipher_suites:
    - TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384
  client_auth: true
server:
  port: 9090
  bind_address: 127.0.0.1
  accept_timeout: 5s
  read_timeout: 30s
client:
  host: rpc.internal
  port: 9090
  read_timeout: 10s
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "TLSv1.2", cfg.TLS.Protocol)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.BindAddress)
	assert.Equal(t, 5*time.Second, cfg.Server.AcceptTimeout)
	assert.Equal(t, "rpc.internal", cfg.Client.Host)
	assert.Equal(t, "debug", cfg.Logging.Level)

	params := cfg.TransportParams()
	assert.Equal(t, "TLSv1.2", params.Protocol)
	assert.True(t, params.ClientAuth)
	require.True(t, params.HasKeyStore())
	assert.Equal(t, "/etc/ssl/server.pem", params.KeyStore.Path)
	assert.Equal(t, "changeit", params.KeyStore.Password)
	assert.Equal(t, secure.DefaultStoreFormat, params.KeyStore.Format)
	require.True(t, params.HasTrustStore())
	assert.Equal(t, []string{"TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384"}, params.CipherSuites)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
tls:
  trust_store:
    path: /etc/ssl/ca.pem
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, secure.DefaultProtocol, cfg.TLS.Protocol)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.TLS.ClientAuth)
	assert.Nil(t, cfg.TLS.KeyStore)
}

func TestLoadEnvPasswordOverride(t *testing.T) {
	path := writeConfig(t, `
tls:
  key_store:
    path: /etc/ssl/server.pem
    password: from-file
`)

	t.Setenv(secure.EnvKeyStorePassword, "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.TLS.KeyStore.Password)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "no stores",
			mutate:  func(c *Config) { c.TLS.KeyStore = nil; c.TLS.TrustStore = nil },
			wantErr: "at least one of key_store or trust_store",
		},
		{
			name:    "key store without path",
			mutate:  func(c *Config) { c.TLS.KeyStore = &StoreConfig{} },
			wantErr: "key_store: path is required",
		},
		{
			name:    "server port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				TLS: TLSConfig{
					TrustStore: &StoreConfig{Path: "/etc/ssl/ca.pem"},
				},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "tls: [not a mapping")
	_, err := Load(path)
	assert.Error(t, err)
}
