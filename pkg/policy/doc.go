// Package policy enforces the assembly allowlist for fresh reflective
// lookups.
//
// Only the hosting framework's own assemblies and explicitly declared
// extension assemblies are reachable by a lookup that names a type
// directly. Instance calls on registered handles bypass the policy:
// legitimacy was established when the handle was minted by an allowed
// constructor or supplied by host code.
//
// The dispatcher must surface a blocked assembly exactly like a missing
// one. The policy itself answers truthfully; the merge happens at the
// dispatch boundary so nothing below it can leak the distinction.
package policy
