package resource

import (
	"fmt"
	"sync"
)

// ContainerResource is a container image the app host runs.
type ContainerResource struct {
	mu sync.RWMutex

	name    string
	image   string
	connStr string

	env       *List[EnvVar]
	endpoints *List[Endpoint]
	args      *List[string]
}

// NewContainerResource declares a container resource with the given name
// and image reference.
func NewContainerResource(name, image string) *ContainerResource {
	return &ContainerResource{
		name:      name,
		image:     image,
		env:       NewList[EnvVar](),
		endpoints: NewList[Endpoint](),
		args:      NewList[string](),
	}
}

// ResourceName returns the resource's name.
func (c *ContainerResource) ResourceName() string {
	return c.name
}

// Image returns the container image reference.
func (c *ContainerResource) Image() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.image
}

// SetImage replaces the container image reference.
func (c *ContainerResource) SetImage(image string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.image = image
}

// Environment returns the mutable environment variable list.
func (c *ContainerResource) Environment() *List[EnvVar] {
	return c.env
}

// Endpoints returns the mutable endpoint list.
func (c *ContainerResource) Endpoints() *List[Endpoint] {
	return c.endpoints
}

// Args returns the mutable launch argument list.
func (c *ContainerResource) Args() *List[string] {
	return c.args
}

// SetConnectionStringTemplate sets the connection string resolved for
// dependents. An empty template means the resource has none.
func (c *ContainerResource) SetConnectionStringTemplate(template string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connStr = template
}

// ConnectionString resolves the resource's connection string.
func (c *ContainerResource) ConnectionString() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.connStr == "" {
		return "", fmt.Errorf("resource %q has no connection string", c.name)
	}
	return c.connStr, nil
}

var (
	_ WithEnvironment      = (*ContainerResource)(nil)
	_ WithEndpoints        = (*ContainerResource)(nil)
	_ WithArgs             = (*ContainerResource)(nil)
	_ WithConnectionString = (*ContainerResource)(nil)
)
