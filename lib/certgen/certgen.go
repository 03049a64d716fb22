// Copyright 2026 The Facekiosk Authors
// SPDX-License-Identifier: Apache-2.0

// Package certgen creates the self-signed TLS keypair the kiosk
// serves with. Browsers only expose the camera to secure contexts,
// so the kiosk prefers HTTPS even though the certificate is
// self-signed and the operator clicks through the warning once.
package certgen

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/facekiosk/facekiosk/lib/clock"
)

// ErrExists is returned by Generate when the certificate or key is
// already on disk and Overwrite is not set.
var ErrExists = errors.New("already exists")

// DefaultDays is the certificate validity period.
const DefaultDays = 365

// DefaultHosts are the names the certificate covers. The kiosk binds
// localhost; the loopback IPs cover browsers that normalize the URL.
var DefaultHosts = []string{"localhost", "127.0.0.1", "::1"}

// Options configures Generate.
type Options struct {
	// CertPath and KeyPath are where the PEM files land.
	CertPath string
	KeyPath  string

	// Days is the validity period. Zero means DefaultDays.
	Days int

	// Hosts are the subject alternative names. Entries that parse as
	// IP addresses become IP SANs, the rest DNS SANs. Empty means
	// DefaultHosts.
	Hosts []string

	// Overwrite allows replacing existing files. Without it,
	// Generate refuses to clobber a keypair that is already there.
	Overwrite bool

	// Clock supplies the validity start. Nil means the real clock.
	Clock clock.Clock
}

// Info describes a certificate on disk.
type Info struct {
	Path        string
	CommonName  string
	NotBefore   time.Time
	NotAfter    time.Time
	DNSNames    []string
	IPAddresses []string
}

// ExpiresWithin reports whether the certificate will be expired (or
// already is) at now plus window. The doctor uses a 30-day window to
// nag before the browser starts refusing the kiosk.
func (i *Info) ExpiresWithin(now time.Time, window time.Duration) bool {
	return !i.NotAfter.After(now.Add(window))
}

// Generate creates a fresh RSA-2048 self-signed certificate and
// writes the certificate and key as PEM files. The key file is
// written with mode 0600. Returns an Info describing what was
// written.
func Generate(options Options) (*Info, error) {
	if options.CertPath == "" || options.KeyPath == "" {
		return nil, fmt.Errorf("certificate and key paths are required")
	}
	days := options.Days
	if days == 0 {
		days = DefaultDays
	}
	if days < 0 {
		return nil, fmt.Errorf("validity days must be positive, got %d", days)
	}
	hosts := options.Hosts
	if len(hosts) == 0 {
		hosts = DefaultHosts
	}
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}

	if !options.Overwrite {
		for _, path := range []string{options.CertPath, options.KeyPath} {
			if _, err := os.Stat(path); err == nil {
				return nil, fmt.Errorf("%s %w", path, ErrExists)
			}
		}
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("generating RSA key: %w", err)
	}

	// 128-bit random serial, the same space the stdlib's own
	// certificate generator draws from.
	serialLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	serial, err := rand.Int(rand.Reader, serialLimit)
	if err != nil {
		return nil, fmt.Errorf("generating serial number: %w", err)
	}

	notBefore := clk.Now()
	notAfter := notBefore.Add(time.Duration(days) * 24 * time.Hour)

	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Country:      []string{"IN"},
			Province:     []string{"State"},
			Locality:     []string{"Localhost"},
			Organization: []string{"Localhost"},
			CommonName:   "localhost",
		},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, host := range hosts {
		if ip := net.ParseIP(host); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, host)
		}
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("creating certificate: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	// Key first: if the second write fails, an orphaned key is
	// harmless, an orphaned certificate without its key is
	// confusing.
	if err := writePEMAtomic(options.KeyPath, keyPEM, 0o600); err != nil {
		return nil, fmt.Errorf("writing key: %w", err)
	}
	if err := writePEMAtomic(options.CertPath, certPEM, 0o644); err != nil {
		return nil, fmt.Errorf("writing certificate: %w", err)
	}

	return describe(options.CertPath, &template), nil
}

// Inspect reads a PEM certificate from disk and summarizes it.
func Inspect(certPath string) (*Info, error) {
	data, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", certPath, err)
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("%s does not contain a PEM certificate", certPath)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", certPath, err)
	}

	info := &Info{
		Path:       certPath,
		CommonName: cert.Subject.CommonName,
		NotBefore:  cert.NotBefore,
		NotAfter:   cert.NotAfter,
		DNSNames:   cert.DNSNames,
	}
	for _, ip := range cert.IPAddresses {
		info.IPAddresses = append(info.IPAddresses, ip.String())
	}
	return info, nil
}

func describe(certPath string, template *x509.Certificate) *Info {
	info := &Info{
		Path:       certPath,
		CommonName: template.Subject.CommonName,
		NotBefore:  template.NotBefore,
		NotAfter:   template.NotAfter,
		DNSNames:   template.DNSNames,
	}
	for _, ip := range template.IPAddresses {
		info.IPAddresses = append(info.IPAddresses, ip.String())
	}
	return info
}

func writePEMAtomic(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return fmt.Errorf("setting mode on %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming %s into place: %w", tmp.Name(), err)
	}
	success = true
	return nil
}
