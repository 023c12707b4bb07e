package transport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"

	"github.com/hostlink-protocol/hostlink-go/pkg/cert"
)

// Protocol constants.
const (
	// ALPNProtocol is the ALPN protocol identifier for HostLink.
	ALPNProtocol = "hostlink/1"

	// DefaultPort is the default TCP port for HostLink bridges.
	DefaultPort = 8460
)

// TLS verification errors.
var (
	ErrNotTLS13         = fmt.Errorf("connection is not TLS 1.3")
	ErrWrongALPN        = fmt.Errorf("wrong ALPN protocol negotiated")
	ErrFingerprintMatch = fmt.Errorf("host certificate fingerprint mismatch")
)

// NewServerTLSConfig creates the TLS config for a host. Client
// certificates are not requested by default; the session token carries
// authorization. Set clientCAs to require and verify client
// certificates instead.
func NewServerTLSConfig(identity *cert.Identity, clientCAs *x509.CertPool) *tls.Config {
	clientAuth := tls.NoClientCert
	if clientCAs != nil {
		clientAuth = tls.RequireAndVerifyClientCert
	}
	return &tls.Config{
		Certificates:           []tls.Certificate{identity.TLS},
		ClientAuth:             clientAuth,
		ClientCAs:              clientCAs,
		MinVersion:             tls.VersionTLS13,
		MaxVersion:             tls.VersionTLS13,
		NextProtos:             []string{ALPNProtocol},
		CurvePreferences:       []tls.CurveID{tls.X25519, tls.CurveP256},
		SessionTicketsDisabled: true,
	}
}

// NewClientTLSConfig creates the TLS config for a controller that
// trusts the given root pool. Pass nil to use the system roots.
func NewClientTLSConfig(roots *x509.CertPool) *tls.Config {
	return &tls.Config{
		RootCAs:                roots,
		MinVersion:             tls.VersionTLS13,
		MaxVersion:             tls.VersionTLS13,
		NextProtos:             []string{ALPNProtocol},
		CurvePreferences:       []tls.CurveID{tls.X25519, tls.CurveP256},
		SessionTicketsDisabled: true,
	}
}

// NewPinnedClientTLSConfig creates the TLS config for a controller that
// authenticates the host by certificate fingerprint instead of a CA
// chain. Hosts use self-signed certificates, so chain verification is
// skipped and replaced with a constant-time fingerprint match.
func NewPinnedClientTLSConfig(fingerprint string) *tls.Config {
	cfg := NewClientTLSConfig(nil)
	cfg.InsecureSkipVerify = true
	cfg.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return ErrFingerprintMatch
		}
		peer, err := x509.ParseCertificate(rawCerts[0])
		if err != nil {
			return fmt.Errorf("failed to parse peer certificate: %w", err)
		}
		if !cert.MatchFingerprint(peer, fingerprint) {
			return ErrFingerprintMatch
		}
		return nil
	}
	return cfg
}

// VerifyTLS13 checks that the connection negotiated TLS 1.3.
func VerifyTLS13(state tls.ConnectionState) error {
	if state.Version != tls.VersionTLS13 {
		return ErrNotTLS13
	}
	return nil
}

// VerifyALPN checks that the HostLink ALPN protocol was negotiated.
func VerifyALPN(state tls.ConnectionState) error {
	if state.NegotiatedProtocol != ALPNProtocol {
		return ErrWrongALPN
	}
	return nil
}

// VerifyConnection runs all post-handshake connection checks.
func VerifyConnection(state tls.ConnectionState) error {
	if err := VerifyTLS13(state); err != nil {
		return err
	}
	return VerifyALPN(state)
}
