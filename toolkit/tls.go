package toolkit

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
)

// TLSConfig carries file-based transport security for wss endpoints.
// CAFile pins the backend certificate authority; CertFile and KeyFile
// present a client certificate when the backend requires one. Files are
// loaded once at dial time.
type TLSConfig struct {
	CAFile             string
	CertFile           string
	KeyFile            string
	ServerName         string
	InsecureSkipVerify bool
}

func (c TLSConfig) empty() bool {
	return strings.TrimSpace(c.CAFile) == "" &&
		strings.TrimSpace(c.CertFile) == "" &&
		strings.TrimSpace(c.KeyFile) == "" &&
		strings.TrimSpace(c.ServerName) == "" &&
		!c.InsecureSkipVerify
}

// clientConfig builds the dialer's tls.Config. A nil result keeps the
// dialer's defaults, so plain ws and system-root wss stay untouched.
func (c TLSConfig) clientConfig() (*tls.Config, error) {
	if c.empty() {
		return nil, nil
	}

	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: c.InsecureSkipVerify,
	}
	if name := strings.TrimSpace(c.ServerName); name != "" {
		cfg.ServerName = name
	}

	if caPath := strings.TrimSpace(c.CAFile); caPath != "" {
		caPEM, err := os.ReadFile(caPath)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(caPEM); !ok {
			return nil, fmt.Errorf("toolkit: parse tls ca bundle: %s", caPath)
		}
		cfg.RootCAs = pool
	}

	if strings.TrimSpace(c.CertFile) != "" || strings.TrimSpace(c.KeyFile) != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, err
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}
