// Package dispatch executes bridge requests against the capability
// surface.
//
// The dispatcher is the single choke point of the bridge: every request
// passes session authentication, then, for fresh lookups, the
// assembly allowlist, before any reflection happens. A blocked assembly
// and a missing target produce byte-identical not-found responses, so a
// remote caller cannot probe the allowlist. Handle-based operations
// bypass the allowlist on purpose: a handle only exists because an
// allowlisted operation returned it.
//
// Argument and result conversion is delegated to the marshal package;
// conversion failures surface with their own status kinds so the remote
// side can distinguish its own protocol misuse (contractViolation) from
// a type mismatch (coercionError) and from host-side failures
// (internal).
package dispatch
