package resource

import "sync"

// ExecutableResource is a local process the app host launches.
type ExecutableResource struct {
	mu sync.RWMutex

	name    string
	command string
	workDir string

	env  *List[EnvVar]
	args *List[string]
}

// NewExecutableResource declares an executable resource.
func NewExecutableResource(name, command string, args ...string) *ExecutableResource {
	return &ExecutableResource{
		name:    name,
		command: command,
		env:     NewList[EnvVar](),
		args:    NewList(args...),
	}
}

// ResourceName returns the resource's name.
func (e *ExecutableResource) ResourceName() string {
	return e.name
}

// Command returns the executable path or name.
func (e *ExecutableResource) Command() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.command
}

// WorkingDirectory returns the process working directory.
func (e *ExecutableResource) WorkingDirectory() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.workDir
}

// SetWorkingDirectory sets the process working directory.
func (e *ExecutableResource) SetWorkingDirectory(dir string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.workDir = dir
}

// Environment returns the mutable environment variable list.
func (e *ExecutableResource) Environment() *List[EnvVar] {
	return e.env
}

// Args returns the mutable launch argument list.
func (e *ExecutableResource) Args() *List[string] {
	return e.args
}

var (
	_ WithEnvironment = (*ExecutableResource)(nil)
	_ WithArgs        = (*ExecutableResource)(nil)
)
