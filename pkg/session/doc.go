// Package session implements the bridge's shared-secret authentication.
//
// The host mints one random token per run and passes it to the external
// controller out of band, typically via an environment variable at
// spawn. Every request except ping must carry the token; comparison is
// constant-time. Connection-scoped keys are derived from the token with
// HKDF so per-connection material never requires a second secret
// exchange.
package session
