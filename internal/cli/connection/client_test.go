package connection

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/respkv/pkg/resp"
)

// ============================================================================
// Fake server
// ============================================================================

// fakeServer answers each command with reply(args).
type fakeServer struct {
	ln    net.Listener
	reply func(args []string) resp.Value
}

func newFakeServer(t *testing.T, reply func(args []string) resp.Value) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	return startFake(t, ln, reply)
}

func startFake(t *testing.T, ln net.Listener, reply func(args []string) resp.Value) *fakeServer {
	s := &fakeServer{ln: ln, reply: reply}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.serve(conn)
		}
	}()
	return s
}

func (s *fakeServer) serve(conn net.Conn) {
	defer conn.Close()
	r := resp.NewReader(conn)
	w := resp.NewWriter(conn)
	for {
		v, err := r.ReadValue()
		if err != nil {
			return
		}
		args := make([]string, len(v.Array))
		for i, a := range v.Array {
			args[i] = a.Text()
		}
		if err := w.WriteValue(s.reply(args)); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}

func (s *fakeServer) addr() string {
	return s.ln.Addr().String()
}

func echoArgs(args []string) resp.Value {
	switch strings.ToUpper(args[0]) {
	case "PING":
		return resp.SimpleString("PONG")
	case "GET":
		return resp.Null()
	case "SLOW":
		time.Sleep(500 * time.Millisecond)
		return resp.SimpleString("OK")
	default:
		vs := make([]resp.Value, len(args))
		for i, a := range args {
			vs[i] = resp.Bulk(a)
		}
		return resp.Array(vs...)
	}
}

// ============================================================================
// Client
// ============================================================================

func TestDial_Failure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	if _, err := Dial(context.Background(), Options{Addr: addr, Timeout: time.Second}); err == nil {
		t.Error("Dial() expected error for closed port")
	}
}

func TestClient_Do(t *testing.T) {
	srv := newFakeServer(t, echoArgs)

	c, err := Dial(context.Background(), Options{Addr: srv.addr()})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	if c.Addr() != srv.addr() {
		t.Errorf("Addr() = %q, want %q", c.Addr(), srv.addr())
	}

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"PING"}, "+PONG"},
		{[]string{"GET", "missing"}, "(nil)"},
		{[]string{"SET", "k", "v w"}, `["SET" "k" "v w"]`},
		{[]string{"ECHO", ""}, `["ECHO" ""]`},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			v, err := c.Do(context.Background(), tt.args...)
			if err != nil {
				t.Fatalf("Do() error = %v", err)
			}
			if got := v.String(); got != tt.want {
				t.Errorf("Do() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClient_Do_EmptyCommand(t *testing.T) {
	srv := newFakeServer(t, echoArgs)
	c, err := Dial(context.Background(), Options{Addr: srv.addr()})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.Do(context.Background()); err == nil {
		t.Error("Do() expected error for empty command")
	}
}

func TestClient_Do_Timeout(t *testing.T) {
	srv := newFakeServer(t, echoArgs)
	c, err := Dial(context.Background(), Options{Addr: srv.addr(), Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.Do(context.Background(), "SLOW"); err == nil {
		t.Fatal("Do() expected timeout error")
	}
	if _, err := c.Do(context.Background(), "PING"); !errors.Is(err, ErrClosed) {
		t.Errorf("Do() after failure error = %v, want ErrClosed", err)
	}
}

func TestClient_Do_ContextCanceled(t *testing.T) {
	srv := newFakeServer(t, echoArgs)
	c, err := Dial(context.Background(), Options{Addr: srv.addr()})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.Do(ctx, "SLOW")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Do() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestClient_Close(t *testing.T) {
	srv := newFakeServer(t, echoArgs)
	c, err := Dial(context.Background(), Options{Addr: srv.addr()})
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := c.Do(context.Background(), "PING"); !errors.Is(err, ErrClosed) {
		t.Errorf("Do() after Close error = %v, want ErrClosed", err)
	}
}

// ============================================================================
// TLS
// ============================================================================

func writeTestCert(t *testing.T) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "localhost"},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	certFile = filepath.Join(dir, "server.crt")
	keyFile = filepath.Join(dir, "server.key")
	os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0644)
	os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0600)
	return certFile, keyFile
}

func TestTLSOptions_Config(t *testing.T) {
	cfg, err := TLSOptions{}.Config("localhost:6379")
	if err != nil || cfg != nil {
		t.Errorf("Config() disabled = %v, %v; want nil, nil", cfg, err)
	}

	cfg, err = TLSOptions{Enabled: true}.Config("cache.internal:6380")
	if err != nil {
		t.Fatalf("Config() error = %v", err)
	}
	if cfg.ServerName != "cache.internal" {
		t.Errorf("ServerName = %q, want cache.internal", cfg.ServerName)
	}

	cfg, err = TLSOptions{Enabled: true, ServerName: "override", Insecure: true}.Config("cache.internal:6380")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerName != "override" || !cfg.InsecureSkipVerify {
		t.Errorf("Config() = {ServerName: %q, Insecure: %v}", cfg.ServerName, cfg.InsecureSkipVerify)
	}

	if _, err := (TLSOptions{Enabled: true, CAFile: "/nonexistent/ca.pem"}).Config("x:1"); err == nil {
		t.Error("Config() expected error for missing CA file")
	}
}

func TestClient_TLS(t *testing.T) {
	certFile, keyFile := writeTestCert(t)
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		t.Fatal(err)
	}
	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{Certificates: []tls.Certificate{cert}})
	if err != nil {
		t.Fatal(err)
	}
	srv := startFake(t, ln, echoArgs)

	tlsCfg, err := TLSOptions{Enabled: true, CAFile: certFile}.Config(srv.addr())
	if err != nil {
		t.Fatalf("Config() error = %v", err)
	}
	c, err := Dial(context.Background(), Options{Addr: srv.addr(), TLS: tlsCfg, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	v, err := c.Do(context.Background(), "PING")
	if err != nil || v.String() != "+PONG" {
		t.Errorf("Do(PING) = %s, %v", v, err)
	}
}
