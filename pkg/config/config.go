// Package config provides declarative configuration for secure transport
// endpoints: YAML descriptions of key/trust stores, protocol settings, and
// server/client endpoint parameters.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kshitizanand/thrift/pkg/secure"
)

// Config holds the endpoint configuration for a process.
type Config struct {
	TLS     TLSConfig    `yaml:"tls"`
	Server  ServerConfig `yaml:"server"`
	Client  ClientConfig `yaml:"client"`
	Logging LogConfig    `yaml:"logging"`
}

// TLSConfig describes the trust material driving context construction.
type TLSConfig struct {
	Protocol     string       `yaml:"protocol,omitempty"`
	KeyStore     *StoreConfig `yaml:"key_store,omitempty"`
	TrustStore   *StoreConfig `yaml:"trust_store,omitempty"`
	CipherSuites []string     `yaml:"cipher_suites,omitempty"`
	ClientAuth   bool         `yaml:"client_auth"`
}

// StoreConfig locates and unlocks a key store or trust store.
type StoreConfig struct {
	Path             string `yaml:"path"`
	Password         string `yaml:"password,omitempty"`
	ManagerAlgorithm string `yaml:"manager_algorithm,omitempty"`
	Format           string `yaml:"format,omitempty"`
}

// ServerConfig holds listening-endpoint settings.
type ServerConfig struct {
	Port          int           `yaml:"port"`
	BindAddress   string        `yaml:"bind_address,omitempty"`
	AcceptTimeout time.Duration `yaml:"accept_timeout,omitempty"`
	ReadTimeout   time.Duration `yaml:"read_timeout,omitempty"`
}

// ClientConfig holds connecting-endpoint settings.
type ClientConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	ReadTimeout time.Duration `yaml:"read_timeout,omitempty"`
}

// LogConfig holds configuration for logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format,omitempty"`
}

// Load reads configuration from a file and applies environment variable
// overrides for store passwords.
func Load(path string) (*Config, error) {
	cfg := &Config{
		TLS: TLSConfig{
			Protocol: secure.DefaultProtocol,
		},
		Logging: LogConfig{
			Level: "info",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets passwords be supplied through the environment so
// config files never need to carry secrets.
func applyEnvOverrides(cfg *Config) {
	if cfg.TLS.KeyStore != nil {
		if pw := os.Getenv(secure.EnvKeyStorePassword); pw != "" {
			cfg.TLS.KeyStore.Password = pw
		}
	}
	if cfg.TLS.TrustStore != nil {
		if pw := os.Getenv(secure.EnvTrustStorePassword); pw != "" {
			cfg.TLS.TrustStore.Password = pw
		}
	}
}

// Validate checks structural coherence. Store contents are not touched;
// that happens at context construction.
func (c *Config) Validate() error {
	if c.TLS.KeyStore == nil && c.TLS.TrustStore == nil {
		return fmt.Errorf("tls: at least one of key_store or trust_store must be configured")
	}
	if c.TLS.KeyStore != nil && c.TLS.KeyStore.Path == "" {
		return fmt.Errorf("tls.key_store: path is required")
	}
	if c.TLS.TrustStore != nil && c.TLS.TrustStore.Path == "" {
		return fmt.Errorf("tls.trust_store: path is required")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Client.Port < 0 || c.Client.Port > 65535 {
		return fmt.Errorf("client.port %d out of range", c.Client.Port)
	}
	return nil
}

// TransportParams converts the TLS section into a parameter set for the
// endpoint builder.
func (c *Config) TransportParams() *secure.TransportParams {
	params := secure.NewTransportParams(c.TLS.Protocol, c.TLS.CipherSuites, c.TLS.ClientAuth)
	if s := c.TLS.KeyStore; s != nil {
		params.SetKeyStoreWithOptions(s.Path, s.Password, s.ManagerAlgorithm, s.Format)
	}
	if s := c.TLS.TrustStore; s != nil {
		params.SetTrustStoreWithOptions(s.Path, s.Password, s.ManagerAlgorithm, s.Format)
	}
	return params
}
