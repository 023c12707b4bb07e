package dispatch

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// CallbackInvoker asks the remote side to run a callback it registered,
// for example an interactive confirmation prompt. The connection layer
// implements this over the live session; host code reaches it through
// the request context via CallbacksFrom.
type CallbackInvoker interface {
	InvokeCallback(ctx context.Context, callbackID string, args ...any) (any, error)
}

type callbackCtxKey struct{}

// WithCallbacks attaches a callback invoker to a context. The dispatcher
// does this before executing host code, never while holding registry
// locks.
func WithCallbacks(ctx context.Context, inv CallbackInvoker) context.Context {
	return context.WithValue(ctx, callbackCtxKey{}, inv)
}

// CallbacksFrom returns the callback invoker attached to the context.
func CallbacksFrom(ctx context.Context) (CallbackInvoker, bool) {
	inv, ok := ctx.Value(callbackCtxKey{}).(CallbackInvoker)
	return inv, ok
}

// CallbackRegistry holds locally registered callback functions keyed by
// id. The controller side registers its callbacks here; an inbound
// invokeCallback resolves against it. Safe for concurrent use.
type CallbackRegistry struct {
	mu    sync.RWMutex
	funcs map[string]reflect.Value
}

// NewCallbackRegistry creates an empty callback registry.
func NewCallbackRegistry() *CallbackRegistry {
	return &CallbackRegistry{funcs: make(map[string]reflect.Value)}
}

// Register binds a callback id to a function. fn must be a func.
func (c *CallbackRegistry) Register(id string, fn any) error {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return fmt.Errorf("callback %q is not a func", id)
	}
	c.mu.Lock()
	c.funcs[id] = v
	c.mu.Unlock()
	return nil
}

// Unregister removes a callback binding.
func (c *CallbackRegistry) Unregister(id string) {
	c.mu.Lock()
	delete(c.funcs, id)
	c.mu.Unlock()
}

// Lookup returns the function bound to a callback id.
func (c *CallbackRegistry) Lookup(id string) (reflect.Value, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.funcs[id]
	return v, ok
}
