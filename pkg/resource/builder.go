package resource

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Builder composes a distributed application from resource declarations.
// It is the root intrinsic a remote controller drives.
type Builder struct {
	mu        sync.Mutex
	name      string
	resources []Resource
}

// NewBuilder creates an application builder.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// Name returns the application name.
func (b *Builder) Name() string {
	return b.name
}

// AddContainer declares a container resource and returns its builder.
func (b *Builder) AddContainer(name, image string) *ResourceBuilder[*ContainerResource] {
	res := NewContainerResource(name, image)
	b.add(res)
	return &ResourceBuilder[*ContainerResource]{builder: b, resource: res}
}

// AddExecutable declares an executable resource and returns its builder.
func (b *Builder) AddExecutable(name, command string, args ...string) *ResourceBuilder[*ExecutableResource] {
	res := NewExecutableResource(name, command, args...)
	b.add(res)
	return &ResourceBuilder[*ExecutableResource]{builder: b, resource: res}
}

// AddParameter declares a parameter resource and returns its builder.
func (b *Builder) AddParameter(name, value string, secret bool) *ResourceBuilder[*ParameterResource] {
	res := NewParameterResource(name, value, secret)
	b.add(res)
	return &ResourceBuilder[*ParameterResource]{builder: b, resource: res}
}

func (b *Builder) add(res Resource) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resources = append(b.resources, res)
}

// Resources returns a snapshot of the declared resources.
func (b *Builder) Resources() []Resource {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Resource, len(b.resources))
	copy(out, b.resources)
	return out
}

// Resource returns a declared resource by name.
func (b *Builder) Resource(name string) (Resource, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, res := range b.resources {
		if res.ResourceName() == name {
			return res, true
		}
	}
	return nil, false
}

// Build produces the running-application handle for the declared
// resources. The builder stays usable; Build snapshots.
func (b *Builder) Build() *App {
	return &App{name: b.name, resources: b.Resources()}
}

// App is the running-application handle, the second root intrinsic.
type App struct {
	name      string
	resources []Resource
	started   atomic.Bool
}

// Name returns the application name.
func (a *App) Name() string {
	return a.name
}

// Start transitions the app to running.
func (a *App) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !a.started.CompareAndSwap(false, true) {
		return fmt.Errorf("app %q already started", a.name)
	}
	return nil
}

// Stop transitions the app out of running.
func (a *App) Stop(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !a.started.CompareAndSwap(true, false) {
		return fmt.Errorf("app %q not running", a.name)
	}
	return nil
}

// Running reports whether Start has succeeded without a matching Stop.
func (a *App) Running() bool {
	return a.started.Load()
}

// Resources returns the app's resources.
func (a *App) Resources() []Resource {
	out := make([]Resource, len(a.resources))
	copy(out, a.resources)
	return out
}

// ResourceNames returns the names of the app's resources in declaration
// order.
func (a *App) ResourceNames() []string {
	names := make([]string, len(a.resources))
	for i, res := range a.resources {
		names[i] = res.ResourceName()
	}
	return names
}

// Resource returns a resource by name.
func (a *App) Resource(name string) (Resource, bool) {
	for _, res := range a.resources {
		if res.ResourceName() == name {
			return res, true
		}
	}
	return nil, false
}

// ResourceBuilder provides fluent configuration for one declared
// resource. Configuration methods that a resource kind does not support
// are no-ops, mirroring how constrained builder extensions degrade.
type ResourceBuilder[T Resource] struct {
	builder  *Builder
	resource T
}

// Resource returns the resource under construction.
func (rb *ResourceBuilder[T]) Resource() T {
	return rb.resource
}

// BuildTarget returns the resource as the base capability. It also marks
// the builder shape for wire type resolution.
func (rb *ResourceBuilder[T]) BuildTarget() Resource {
	return rb.resource
}

// WithEnvironment adds an environment variable when the resource
// supports one.
func (rb *ResourceBuilder[T]) WithEnvironment(name, value string) *ResourceBuilder[T] {
	if we, ok := any(rb.resource).(WithEnvironment); ok {
		we.Environment().Add(EnvVar{Name: name, Value: value})
	}
	return rb
}

// WithEndpoint adds an endpoint when the resource supports endpoints.
func (rb *ResourceBuilder[T]) WithEndpoint(name string, port int, scheme string) *ResourceBuilder[T] {
	if we, ok := any(rb.resource).(WithEndpoints); ok {
		we.Endpoints().Add(Endpoint{Name: name, Port: port, Scheme: scheme})
	}
	return rb
}

// WithArgs appends launch arguments when the resource supports them.
func (rb *ResourceBuilder[T]) WithArgs(args ...string) *ResourceBuilder[T] {
	if wa, ok := any(rb.resource).(WithArgs); ok {
		wa.Args().Add(args...)
	}
	return rb
}

// AnyBuilder is the non-generic view of a ResourceBuilder. The
// intrinsics registry uses it to recognize builder-shaped types.
type AnyBuilder interface {
	BuildTarget() Resource
}

var _ AnyBuilder = (*ResourceBuilder[*ContainerResource])(nil)
