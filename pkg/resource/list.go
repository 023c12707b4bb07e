package resource

import (
	"fmt"
	"reflect"
	"sync"
)

// List is a mutable, growable collection shared by reference across the
// bridge. Unlike fixed arrays and slices, which marshal as inline
// snapshots, a List marshals as a handle, so a remote mutation is seen
// by the host and vice versa. Safe for concurrent use.
type List[T any] struct {
	mu    sync.RWMutex
	items []T
}

// NewList creates a list with the given initial items.
func NewList[T any](items ...T) *List[T] {
	l := &List[T]{}
	l.items = append(l.items, items...)
	return l
}

// Add appends items to the list.
func (l *List[T]) Add(items ...T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, items...)
}

// Len returns the number of items.
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// At returns the item at index i.
func (l *List[T]) At(i int) (T, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var zero T
	if i < 0 || i >= len(l.items) {
		return zero, fmt.Errorf("index %d out of range [0,%d)", i, len(l.items))
	}
	return l.items[i], nil
}

// Set replaces the item at index i.
func (l *List[T]) Set(i int, item T) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("index %d out of range [0,%d)", i, len(l.items))
	}
	l.items[i] = item
	return nil
}

// RemoveAt deletes the item at index i, preserving order.
func (l *List[T]) RemoveAt(i int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("index %d out of range [0,%d)", i, len(l.items))
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return nil
}

// Contains reports whether the list holds an item equal to the argument.
func (l *List[T]) Contains(item T) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.items {
		if reflect.DeepEqual(e, item) {
			return true
		}
	}
	return false
}

// Clear removes all items.
func (l *List[T]) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
}

// Items returns a snapshot copy of the list contents.
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}
