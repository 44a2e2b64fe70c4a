// Package tlstest mints throwaway PKI material for transport tests: a
// self-signed authority plus server and client leaf certificates, all
// written as PEM files suitable for file-based TLS configuration.
package tlstest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Authority is one test-scoped certificate authority. Issued files live
// under the test's temporary directory and vanish with it.
type Authority struct {
	cert   *x509.Certificate
	key    *ecdsa.PrivateKey
	dir    string
	caPath string
}

func NewAuthority(t testing.TB, commonName string) *Authority {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate ca key: %v", err)
	}
	now := time.Now()
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: commonName},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            1,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create ca cert: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse ca cert: %v", err)
	}

	dir := t.TempDir()
	caPath := filepath.Join(dir, "ca.crt")
	if err := writePEM(caPath, "CERTIFICATE", der, 0o644); err != nil {
		t.Fatalf("write ca cert: %v", err)
	}

	return &Authority{cert: cert, key: key, dir: dir, caPath: caPath}
}

// CAFile returns the PEM path of the authority certificate, ready for a
// CA-pinning client or a client-verifying server.
func (a *Authority) CAFile() string {
	return a.caPath
}

// ServerFiles issues a serving certificate for the given hosts. Each
// host becomes an IP SAN when it parses as an address and a DNS SAN
// otherwise. Returns the cert and key PEM paths.
func (a *Authority) ServerFiles(t testing.TB, commonName string, hosts ...string) (string, string) {
	t.Helper()

	var dnsNames []string
	var ips []net.IP
	for _, host := range hosts {
		if ip := net.ParseIP(host); ip != nil {
			ips = append(ips, ip)
			continue
		}
		dnsNames = append(dnsNames, host)
	}
	return a.issue(t, commonName, x509.ExtKeyUsageServerAuth, dnsNames, ips)
}

// ClientFiles issues a client-authentication certificate. Returns the
// cert and key PEM paths.
func (a *Authority) ClientFiles(t testing.TB, commonName string) (string, string) {
	t.Helper()
	return a.issue(t, commonName, x509.ExtKeyUsageClientAuth, nil, nil)
}

func (a *Authority) issue(
	t testing.TB,
	commonName string,
	usage x509.ExtKeyUsage,
	dnsNames []string,
	ips []net.IP,
) (string, string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: big.NewInt(now.UnixNano()),
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{usage},
		DNSNames:     dnsNames,
		IPAddresses:  ips,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, a.cert, &key.PublicKey, a.key)
	if err != nil {
		t.Fatalf("create signed cert: %v", err)
	}

	base := sanitize(commonName)
	certPath := filepath.Join(a.dir, fmt.Sprintf("%s.crt", base))
	keyPath := filepath.Join(a.dir, fmt.Sprintf("%s.key", base))

	if err := writePEM(certPath, "CERTIFICATE", der, 0o644); err != nil {
		t.Fatalf("write cert: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	if err := writePEM(keyPath, "EC PRIVATE KEY", keyDER, 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return certPath, keyPath
}

func writePEM(path string, blockType string, der []byte, perm os.FileMode) error {
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	return os.WriteFile(path, data, perm)
}

func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "cert"
	}
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
