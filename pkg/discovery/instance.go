package discovery

import (
	"fmt"
	"strings"
)

// InstanceID derives the short instance id from a certificate
// fingerprint: its first 64 bits (16 hex chars). Stable across restarts
// as long as the host keeps its certificate.
func InstanceID(fingerprint string) string {
	if len(fingerprint) < InstanceIDLength {
		return fingerprint
	}
	return fingerprint[:InstanceIDLength]
}

// InstanceName builds the mDNS instance name for a host:
// "<app>-<instance id>", truncated to the DNS label limit. The app name
// is sanitized to stay a valid label.
func InstanceName(appName, fingerprint string) string {
	name := fmt.Sprintf("%s-%s", sanitizeLabel(appName), InstanceID(fingerprint))
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}

// sanitizeLabel lowercases and replaces characters that are not valid
// in a DNS label.
func sanitizeLabel(s string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(s) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-':
			b.WriteRune(c)
		case c == ' ', c == '_', c == '.':
			b.WriteRune('-')
		}
	}
	return b.String()
}
