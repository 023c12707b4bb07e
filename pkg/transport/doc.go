// Package transport provides the TLS byte transport for HostLink.
//
// Messages travel as length-prefixed frames (4-byte big-endian prefix)
// over TLS 1.3 with ALPN "hostlink/1". The transport is payload
// agnostic: framing, connection lifecycle, and keep-alive live here;
// envelope encoding and dispatch live in the wire and bridge packages.
//
// Hosts run a Server with a self-signed certificate; controllers
// connect with a Client that pins the host certificate by SHA-256
// fingerprint. Client certificates are not used - request authorization
// is the session token's job.
package transport
