// Package discovery provides mDNS discovery for HostLink hosts.
//
// Hosts advertise a "_hostlink._tcp" service on the local network. The
// TXT record carries the application name, the SHA-256 fingerprint of
// the host's TLS certificate, and the protocol version, so a controller
// can locate a host and pin its certificate before dialing.
//
// Controllers browse for hosts and can filter by application name or
// certificate fingerprint. Addresses seen on multiple interfaces are
// aggregated into a single service entry.
package discovery
