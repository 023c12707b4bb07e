package resource

import "sync"

// ParameterResource is a named configuration value, optionally secret.
type ParameterResource struct {
	mu sync.RWMutex

	name   string
	value  string
	secret bool
}

// NewParameterResource declares a parameter resource.
func NewParameterResource(name, value string, secret bool) *ParameterResource {
	return &ParameterResource{name: name, value: value, secret: secret}
}

// ResourceName returns the resource's name.
func (p *ParameterResource) ResourceName() string {
	return p.name
}

// Value returns the parameter value.
func (p *ParameterResource) Value() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// SetValue replaces the parameter value.
func (p *ParameterResource) SetValue(value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = value
}

// Secret reports whether the value must be masked in logs and listings.
func (p *ParameterResource) Secret() bool {
	return p.secret
}

// ConnectionString resolves to the parameter value, letting parameters
// stand in for connection strings.
func (p *ParameterResource) ConnectionString() (string, error) {
	return p.Value(), nil
}

var _ WithConnectionString = (*ParameterResource)(nil)
