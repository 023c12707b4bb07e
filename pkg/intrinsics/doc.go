// Package intrinsics maps native types to stable wire type ids.
//
// The remote side never sees Go type names. Every type a controller can
// observe resolves to a namespace-qualified wire id ("host/Builder",
// "host/Container", ...) through a fixed priority order: hand-assigned
// intrinsics first, then resource-builder unwrapping, then the
// resource-suffix convention, then the marker interfaces. Types with no
// mapping fall back to their simple name for handle typing.
//
// All tables are built once at construction; lookups are pure and safe
// for concurrent use.
package intrinsics
