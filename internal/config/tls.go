package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TemporalTLS builds the client TLS config for the Temporal connection.
// With no cert and key configured it returns nil, nil and the connection
// stays plaintext, which is what local dev runs.
func (c *Config) TemporalTLS() (*tls.Config, error) {
	if c.TemporalTLSCert == "" && c.TemporalTLSKey == "" {
		return nil, nil
	}

	pair, err := tls.LoadX509KeyPair(c.TemporalTLSCert, c.TemporalTLSKey)
	if err != nil {
		return nil, fmt.Errorf("load temporal client cert: %w", err)
	}
	cfg := &tls.Config{Certificates: []tls.Certificate{pair}}

	if c.TemporalTLSCACert != "" {
		pem, err := os.ReadFile(c.TemporalTLSCACert)
		if err != nil {
			return nil, fmt.Errorf("read temporal CA cert: %w", err)
		}
		roots := x509.NewCertPool()
		if !roots.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates parsed from temporal CA file %s", c.TemporalTLSCACert)
		}
		cfg.RootCAs = roots
	}
	if c.TemporalTLSServerName != "" {
		cfg.ServerName = c.TemporalTLSServerName
	}
	return cfg, nil
}
