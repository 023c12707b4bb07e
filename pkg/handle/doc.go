// Package handle tracks live objects exposed to the remote side by
// reference.
//
// When the marshaller cannot copy a value (mutable collections,
// arbitrary complex objects) it registers the value here and sends an
// opaque id. The registry is the sole owner of the native reference for
// the registration's lifetime: nothing else may assume a registered
// object can be collected. Ids are never recycled; resolving a revoked
// or never-issued id is a protocol contract violation, not a security
// event, and is reported as such.
package handle
