// Package capability declares the surface a host exposes over the bridge.
//
// The surface is the single source of truth for what a remote controller
// may reach: named assemblies grouping exported types (with their
// constructors, static methods, and static properties), DTO field schemas,
// enum member orders, and the assembly allowlist. The host builds the
// surface once at startup, freezes it, and every registry in the bridge
// treats it as read-only input.
//
// Declaring reachability explicitly, rather than enumerating runtime
// type metadata, means the allowlist is enforceable twice: structurally,
// because an undeclared type simply has no table entry, and again at
// dispatch time by the security policy.
package capability
