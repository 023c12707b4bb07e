// Package bridge ties the transport and dispatch layers into a running
// capability bridge.
//
// Host runs on the application side: it serves a frozen capability
// surface over TLS, authenticates requests against a session token, and
// routes host-initiated callbacks back to the connected controller.
//
// Client runs on the controller side: it dials a host by certificate
// fingerprint, correlates requests and responses by message id, keeps
// the connection alive with ping requests, and serves invokeCallback
// requests arriving from the host against a local callback registry.
package bridge
