package discovery

import (
	"errors"
	"time"
)

// Service constants for mDNS.
const (
	// ServiceType is the mDNS service type for HostLink hosts.
	ServiceType = "_hostlink._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the default HostLink port.
	DefaultPort = 8460
)

// TXT record keys.
const (
	// TXTKeyAppName is the application-host name.
	TXTKeyAppName = "app"

	// TXTKeyFingerprint is the SHA-256 fingerprint of the host's TLS
	// certificate (64 lowercase hex chars). Controllers pin this.
	TXTKeyFingerprint = "fp"

	// TXTKeyProtocolVersion is the bridge protocol version.
	TXTKeyProtocolVersion = "pv"

	// TXTKeyDescription is an optional human-readable description.
	TXTKeyDescription = "desc"
)

// Timing constants.
const (
	// BrowseTimeout is the default timeout for mDNS browsing.
	BrowseTimeout = 10 * time.Second

	// MDNSUpdateDelay is the maximum delay for mDNS updates.
	MDNSUpdateDelay = 1 * time.Second
)

// Limits.
const (
	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63

	// MaxTXTRecordSize is the maximum total TXT record size.
	MaxTXTRecordSize = 400

	// FingerprintLength is the length of a SHA-256 hex fingerprint.
	FingerprintLength = 64

	// InstanceIDLength is the length of the short instance id derived
	// from the fingerprint (16 hex chars = 64 bits).
	InstanceIDLength = 16
)

// Discovery errors.
var (
	ErrInvalidTXTRecord    = errors.New("invalid TXT record format")
	ErrMissingRequired     = errors.New("missing required field")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
	ErrNotFound            = errors.New("service not found")
	ErrBrowseTimeout       = errors.New("browse timeout")
)

// HostInfo contains the information a host advertises.
type HostInfo struct {
	// AppName is the application-host name (required).
	AppName string

	// Fingerprint is the SHA-256 hex fingerprint of the host's TLS
	// certificate (required).
	Fingerprint string

	// ProtocolVersion is the bridge protocol version, e.g. "1".
	ProtocolVersion string

	// Description is an optional human-readable description.
	Description string

	// Port is the service port. Zero means DefaultPort.
	Port uint16

	// Host is the hostname to advertise.
	Host string
}

// Validate checks the advertised fields.
func (h *HostInfo) Validate() error {
	if h.AppName == "" {
		return ErrMissingRequired
	}
	if len(h.Fingerprint) != FingerprintLength || !isHexString(h.Fingerprint) {
		return ErrInvalidTXTRecord
	}
	return nil
}

// HostService represents a HostLink host found via mDNS.
type HostService struct {
	// InstanceName is the mDNS instance name, e.g. "shop-a1b2c3d4e5f60718".
	InstanceName string

	// Host is the hostname, e.g. "shop-host.local".
	Host string

	// Port is the service port.
	Port uint16

	// Addresses contains resolved IP addresses.
	Addresses []string

	// AppName is the application-host name (from TXT "app").
	AppName string

	// Fingerprint is the host certificate fingerprint (from TXT "fp").
	Fingerprint string

	// ProtocolVersion is the bridge protocol version (from TXT "pv").
	ProtocolVersion string

	// Description is the optional description (from TXT "desc").
	Description string
}

func isHexString(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return len(s) > 0
}
