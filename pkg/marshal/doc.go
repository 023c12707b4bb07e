// Package marshal converts between native values and the wire value
// vocabulary.
//
// Encoding walks a fixed decision order: null, recognized primitives
// (including declared enums, durations as total milliseconds, timestamps
// as RFC 3339 strings), fixed arrays and slices copied inline, declared
// DTOs copied field-by-field, and finally everything else (mutable
// collections and arbitrary objects) registered in the handle registry
// and sent as a {"$handle", "$type"} reference. Copy-vs-reference is
// deliberate: arrays are snapshots, collections keep mutation-sharing
// semantics across the boundary.
//
// Decoding mirrors the table and reports failures precisely: unknown
// handles and undeclared DTO targets are contract violations; a wire
// primitive that cannot become the expected native type is a coercion
// error naming expected and actual kinds.
package marshal
