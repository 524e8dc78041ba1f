// Package tlsroots loads trust anchors for RESP clients and serves a
// hot-reloadable certificate to the RESP TLS listener.
package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrNoCertsFound means a PEM bundle held no CERTIFICATE block.
var ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM file")

// Pool is the set of CAs a client trusts when dialing the server.
type Pool struct {
	roots *x509.CertPool
}

// NewPool starts from the system roots, or from nothing on platforms
// where they cannot be loaded.
func NewPool() *Pool {
	roots, err := x509.SystemCertPool()
	if err != nil {
		return NewEmptyPool()
	}
	return &Pool{roots: roots}
}

// NewEmptyPool returns a pool that trusts only what is added to it.
func NewEmptyPool() *Pool {
	return &Pool{roots: x509.NewCertPool()}
}

// AddCertFile reads a PEM bundle, as passed to the CLI's --cacert flag.
func (p *Pool) AddCertFile(path string) error {
	bundle, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read cert file %s: %w", path, err)
	}
	return p.AddCertPEM(bundle)
}

// AddCertPEM trusts every certificate in bundle. Blocks of other types,
// such as private keys, are skipped.
func (p *Pool) AddCertPEM(bundle []byte) error {
	certs, err := parseBundle(bundle)
	if err != nil {
		return err
	}
	for _, c := range certs {
		p.roots.AddCert(c)
	}
	return nil
}

func parseBundle(rest []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	for {
		block, next := pem.Decode(rest)
		if block == nil {
			break
		}
		rest = next
		if block.Type != "CERTIFICATE" {
			continue
		}
		c, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		certs = append(certs, c)
	}
	if len(certs) == 0 {
		return nil, ErrNoCertsFound
	}
	return certs, nil
}

// Pool exposes the x509 pool.
func (p *Pool) Pool() *x509.CertPool {
	return p.roots
}

// ClientTLSConfig returns the dial configuration for a RESP client.
// serverName is matched against the server certificate; insecure skips
// verification altogether.
func (p *Pool) ClientTLSConfig(serverName string, insecure bool) *tls.Config {
	return &tls.Config{
		RootCAs:            p.roots,
		ServerName:         serverName,
		InsecureSkipVerify: insecure, //nolint:gosec // --insecure is an explicit opt-in
		MinVersion:         tls.VersionTLS12,
	}
}
