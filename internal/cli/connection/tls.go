package connection

import (
	"crypto/tls"
	"fmt"
	"net"

	"github.com/yndnr/respkv/internal/infra/tlsroots"
)

// TLSOptions describes how the client verifies the server.
type TLSOptions struct {
	Enabled bool
	// CAFile adds a PEM bundle to the system roots.
	CAFile string
	// ServerName overrides the name checked against the certificate.
	// Empty uses the host part of the address.
	ServerName string
	Insecure   bool
}

// Config returns the TLS client config for addr, or nil when TLS is off.
func (o TLSOptions) Config(addr string) (*tls.Config, error) {
	if !o.Enabled {
		return nil, nil
	}

	pool := tlsroots.NewPool()
	if o.CAFile != "" {
		if err := pool.AddCertFile(o.CAFile); err != nil {
			return nil, fmt.Errorf("connection: load CA: %w", err)
		}
	}

	serverName := o.ServerName
	if serverName == "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		serverName = host
	}
	return pool.ClientTLSConfig(serverName, o.Insecure), nil
}
