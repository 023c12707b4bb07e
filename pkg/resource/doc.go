// Package resource implements the application-host resource model driven
// over the bridge.
//
// A host process composes a distributed application from resources:
// containers, executables, and parameters. The Builder collects resource
// declarations and produces an App, the running-application handle. Both
// are intrinsics on the wire: a remote controller obtains the builder,
// declares resources through it, and inspects the running app, all by
// reference.
//
// Capability interfaces (Resource, WithEnvironment, WithEndpoints,
// WithArgs, WithConnectionString) describe what a resource supports; the
// intrinsics registry maps them to stable wire type ids.
package resource
