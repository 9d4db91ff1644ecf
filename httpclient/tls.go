package httpclient

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLSConfig customises server verification for self-hosted sidecars.
type TLSConfig struct {
	SkipVerify bool   `yaml:"skip_verify" mapstructure:"skip_verify"`
	CAFile     string `yaml:"ca_file" mapstructure:"ca_file"`
	ServerName string `yaml:"server_name" mapstructure:"server_name"`
}

// Build returns nil when nothing is set.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if c == nil || (!c.SkipVerify && c.CAFile == "" && c.ServerName == "") {
		return nil, nil
	}
	cfg := &tls.Config{
		InsecureSkipVerify: c.SkipVerify, //nolint:gosec // opt-in for local sidecars
		ServerName:         c.ServerName,
		MinVersion:         tls.VersionTLS12,
	}
	if c.CAFile != "" {
		pem, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, fmt.Errorf("httpclient: read ca_file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("httpclient: no certificates in %s", c.CAFile)
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}

func (c *TLSConfig) Validate() error {
	if c == nil || c.CAFile == "" {
		return nil
	}
	if _, err := os.Stat(c.CAFile); err != nil {
		return fmt.Errorf("httpclient: tls.ca_file: %w", err)
	}
	return nil
}
