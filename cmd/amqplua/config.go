package main

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/peake100/lamqp-go/native"
	"github.com/rs/zerolog"
)

// FileConfig is the TOML configuration of the amqplua command.
type FileConfig struct {
	LogLevel                string    `toml:"log_level"`
	MaxConnections          int       `toml:"max_connections"`
	HeartbeatSeconds        int       `toml:"heartbeat_seconds"`
	HandshakeTimeoutSeconds int       `toml:"handshake_timeout_seconds"`
	Locale                  string    `toml:"locale"`
	TLS                     TLSConfig `toml:"tls"`
}

// TLSConfig configures sockets created with ssl_socket_new.
type TLSConfig struct {
	CAFile             string `toml:"ca_file"`
	ServerName         string `toml:"server_name"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

// DefaultFileConfig mirrors native.DefaultConfig().
func DefaultFileConfig() FileConfig {
	defaults := native.DefaultConfig()
	return FileConfig{
		LogLevel:                zerolog.InfoLevel.String(),
		HeartbeatSeconds:        int(defaults.Heartbeat / time.Second),
		HandshakeTimeoutSeconds: int(defaults.HandshakeTimeout / time.Second),
		Locale:                  defaults.Locale,
	}
}

// LoadFileConfig reads path over the defaults. An empty path returns the defaults.
func LoadFileConfig(path string) (FileConfig, error) {
	cfg := DefaultFileConfig()
	if path == "" {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return FileConfig{}, fmt.Errorf("config log_level invalid (%s): %w", path, err)
	}
	if cfg.MaxConnections < 0 {
		return FileConfig{}, fmt.Errorf("config max_connections must not be negative (%s)", path)
	}
	return cfg, nil
}

// NativeConfig builds the native client configuration.
func (cfg FileConfig) NativeConfig(logger zerolog.Logger) (native.Config, error) {
	config := native.DefaultConfig()
	config.MaxConnections = cfg.MaxConnections
	config.Heartbeat = time.Duration(cfg.HeartbeatSeconds) * time.Second
	config.HandshakeTimeout = time.Duration(cfg.HandshakeTimeoutSeconds) * time.Second
	if cfg.Locale != "" {
		config.Locale = cfg.Locale
	}
	config.Logger = logger

	tlsConfig, err := cfg.TLS.build()
	if err != nil {
		return native.Config{}, err
	}
	config.TLSClientConfig = tlsConfig
	return config, nil
}

func (cfg TLSConfig) build() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		ServerName: cfg.ServerName,
		// #nosec G402 -- opt-in for test brokers with self-signed certificates.
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	if cfg.CAFile == "" {
		return tlsConfig, nil
	}

	pem, err := os.ReadFile(cfg.CAFile)
	if err != nil {
		return nil, fmt.Errorf("tls ca_file load failed (%s): %w", cfg.CAFile, err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("tls ca_file has no certificates (%s)", cfg.CAFile)
	}
	tlsConfig.RootCAs = pool
	return tlsConfig, nil
}
