package handle

import (
	"sync"

	"github.com/google/uuid"

	"github.com/hostlink-protocol/hostlink-go/pkg/capability"
)

// entry pairs a native reference with the wire type id derived once at
// registration.
type entry struct {
	obj        any
	wireTypeID string
}

// Registry assigns and resolves opaque reference ids for live objects.
// Safe for concurrent use by multiple connections.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates an empty handle registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register exposes obj by reference and returns its new id. The wire
// type id is stored as given and never recomputed. Registering the same
// instance twice mints a second id; deduplication is not required.
func (r *Registry) Register(obj any, wireTypeID string) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.entries[id] = entry{obj: obj, wireTypeID: wireTypeID}
	r.mu.Unlock()
	return id
}

// Resolve returns the object registered under id. An unknown id is a
// contract violation: the remote side only ever holds ids it was given.
func (r *Registry) Resolve(id string) (any, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, capability.NewContractError("unknown handle %q", id)
	}
	return e.obj, nil
}

// WireTypeID returns the wire type id recorded at registration.
func (r *Registry) WireTypeID(id string) (string, bool) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	return e.wireTypeID, ok
}

// Revoke removes one registration. The id is not recycled; later
// resolves fail deterministically.
func (r *Registry) Revoke(id string) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// RevokeAll removes every registration, e.g. when the owning connection
// ends.
func (r *Registry) RevokeAll() {
	r.mu.Lock()
	r.entries = make(map[string]entry)
	r.mu.Unlock()
}

// Count returns the number of live registrations.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
