// Package wire defines the JSON wire vocabulary for the HostLink protocol.
//
// HostLink values are JSON-shaped trees: null, primitives, arrays, and
// string-keyed objects. Two object shapes are reserved:
//
//   - Handle reference: {"$handle": "<id>", "$type": "<wireTypeId>"}
//     refers to a live object registered on the host side.
//   - DTO: a plain field map without a "$handle" key.
//
// The presence of the "$handle" key is the only thing distinguishing a
// handle reference from a DTO on decode. This convention is load-bearing
// and must never change.
//
// # Message Types
//
// There are two envelope types:
//   - Request: controller to host (ping, invokeStaticMethod, createObject,
//     getStaticProperty, setStaticProperty, invokeMethod, getProperty,
//     setProperty, cancel), and host to controller for invokeCallback.
//   - Response: result or status-tagged failure, correlated by message id.
//
// # Primitive Encodings
//
// Strings, booleans, and integers pass through natively. Durations encode
// as total milliseconds (a double). Timestamps encode as RFC 3339 strings,
// date-only and time-only values as ISO 8601 date/time strings. UUIDs and
// URLs encode as strings. Enums encode as their declared member name, not
// their numeric value, so captures stay readable as surfaces evolve.
package wire
