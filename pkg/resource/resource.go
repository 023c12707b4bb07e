package resource

// Resource is the base capability every host resource implements.
type Resource interface {
	// ResourceName returns the resource's unique name within the app.
	ResourceName() string
}

// WithEnvironment marks resources carrying environment variables.
type WithEnvironment interface {
	Resource
	Environment() *List[EnvVar]
}

// WithEndpoints marks resources exposing network endpoints.
type WithEndpoints interface {
	Resource
	Endpoints() *List[Endpoint]
}

// WithArgs marks resources with a launch argument list.
type WithArgs interface {
	Resource
	Args() *List[string]
}

// WithConnectionString marks resources that resolve a connection string.
type WithConnectionString interface {
	Resource
	ConnectionString() (string, error)
}

// EnvVar is one environment variable on a resource.
type EnvVar struct {
	Name  string
	Value string
}

// Endpoint is one network endpoint a resource exposes.
type Endpoint struct {
	Name   string
	Port   int
	Scheme string
}
