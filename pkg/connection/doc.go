// Package connection supervises the controller side of a bridge
// session.
//
// A Supervisor owns a DialFunc that establishes one authenticated
// session against an application host. When the session drops, the
// supervisor redials on an exponential schedule (1s, 2s, 4s, ...
// capped at 60s) with jitter so many controllers do not stampede a
// restarting host. The attempt counter resets once a session is
// established again.
//
// Redial only covers transport and TLS failures. A host that accepts
// the TLS handshake but rejects the session token will reject it on
// every redial too, so the DialFunc should surface that as a permanent
// error rather than reporting the session as down.
//
// Session lifecycle transitions can be mirrored into a protocol log
// via SetLogger; they show up as SESSION state-change events alongside
// the wire traffic of the session they describe.
package connection
