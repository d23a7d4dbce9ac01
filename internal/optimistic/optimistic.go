// Package optimistic applies a local change before the server confirms it
// and restores the exact prior value if the server rejects it.
package optimistic

import (
	"context"
	"sync"
)

// Cell holds a value that is mutated optimistically. Clone must return a
// copy that shares no mutable state with its input.
type Cell[T any] struct {
	mu    sync.Mutex
	value T
	clone func(T) T
	// gen counts writes made through Set and Update.
	gen uint64
}

// NewCell returns a cell holding initial.
func NewCell[T any](initial T, clone func(T) T) *Cell[T] {
	return &Cell[T]{value: initial, clone: clone}
}

// Get returns a copy of the current value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clone(c.value)
}

// Set replaces the value.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.value = v
	c.gen++
	c.mu.Unlock()
}

// Update replaces the value with fn applied to a copy of it.
func (c *Cell[T]) Update(fn func(T) T) {
	c.mu.Lock()
	c.value = fn(c.clone(c.value))
	c.gen++
	c.mu.Unlock()
}

// Apply snapshots the cell, applies mutate, then runs commit. If commit
// fails the snapshot is restored as-is and commit's error is returned, so
// observers see either the full mutation or none of it. A Set or Update made
// while commit runs supersedes the mutation, and the snapshot is then not
// restored over it.
//
// Apply does not serialize concurrent callers; a caller mixing Apply with
// other writers must order them itself.
func Apply[T any](ctx context.Context, c *Cell[T], mutate func(T) T, commit func(ctx context.Context) error) error {
	c.mu.Lock()
	snapshot := c.value
	c.value = mutate(c.clone(snapshot))
	gen := c.gen
	c.mu.Unlock()

	if err := commit(ctx); err != nil {
		c.mu.Lock()
		if c.gen == gen {
			c.value = snapshot
		}
		c.mu.Unlock()
		return err
	}
	return nil
}
