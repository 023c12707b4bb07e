package cert

import (
	"crypto/sha256"
	"crypto/subtle"
	"crypto/x509"
	"encoding/hex"
)

// Fingerprint returns the SHA-256 fingerprint of a certificate as a
// lowercase hex string. Controllers pin this value to authenticate the
// host.
func Fingerprint(cert *x509.Certificate) string {
	hash := sha256.Sum256(cert.Raw)
	return hex.EncodeToString(hash[:])
}

// FingerprintDER returns the SHA-256 fingerprint of raw certificate
// DER bytes.
func FingerprintDER(der []byte) string {
	hash := sha256.Sum256(der)
	return hex.EncodeToString(hash[:])
}

// MatchFingerprint reports whether a certificate matches an expected
// fingerprint, comparing in constant time.
func MatchFingerprint(cert *x509.Certificate, expected string) bool {
	actual := Fingerprint(cert)
	if len(actual) != len(expected) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(actual), []byte(expected)) == 1
}
