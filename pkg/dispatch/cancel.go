package dispatch

import (
	"context"
	"sync"
)

type cancelEntry struct {
	gen    uint64
	cancel context.CancelFunc
}

// CancelRegistry tracks in-flight operations by their client-supplied
// operation id so a later cancel request can abort them. Safe for
// concurrent use.
type CancelRegistry struct {
	mu      sync.Mutex
	nextGen uint64
	pending map[string]cancelEntry
}

// NewCancelRegistry creates an empty cancel registry.
func NewCancelRegistry() *CancelRegistry {
	return &CancelRegistry{pending: make(map[string]cancelEntry)}
}

// Register derives a cancellable context for an operation id. The
// returned release func must be called when the operation completes. A
// duplicate id replaces the earlier registration; the earlier operation
// keeps running but can no longer be cancelled by id.
func (c *CancelRegistry) Register(ctx context.Context, opID string) (context.Context, func()) {
	if opID == "" {
		return ctx, func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.nextGen++
	gen := c.nextGen
	c.pending[opID] = cancelEntry{gen: gen, cancel: cancel}
	c.mu.Unlock()
	return ctx, func() {
		c.mu.Lock()
		if e, ok := c.pending[opID]; ok && e.gen == gen {
			delete(c.pending, opID)
		}
		c.mu.Unlock()
		cancel()
	}
}

// Cancel aborts the operation registered under opID. Cancelling an
// unknown or already-finished id is a no-op.
func (c *CancelRegistry) Cancel(opID string) {
	c.mu.Lock()
	e, ok := c.pending[opID]
	if ok {
		delete(c.pending, opID)
	}
	c.mu.Unlock()
	if ok {
		e.cancel()
	}
}

// Pending returns the number of registered operations.
func (c *CancelRegistry) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
