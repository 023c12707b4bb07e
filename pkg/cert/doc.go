// Package cert provides the host's TLS identity.
//
// A HostLink host generates a self-signed ECDSA certificate per
// installation; the controller pins it by SHA-256 fingerprint learned
// out of band or from discovery. There is no CA hierarchy: request
// authorization comes from the session token, TLS provides channel
// privacy and server identity via the pinned fingerprint.
package cert
