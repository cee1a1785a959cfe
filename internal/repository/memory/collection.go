package memory

import (
	"context"
	"sync"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/repository"
)

// Collection is a generic in-memory implementation of repository.Repository.
// Values are cloned on the way in and out so stored records behave like
// rows in a real database.
type Collection[T any] struct {
	mu    sync.RWMutex
	items map[repository.Key]T
	order []repository.Key

	keyOf func(T) repository.Key
	clone func(T) T
}

func NewCollection[T any](keyOf func(T) repository.Key, clone func(T) T) *Collection[T] {
	return &Collection[T]{
		items: make(map[repository.Key]T),
		keyOf: keyOf,
		clone: clone,
	}
}

func (c *Collection[T]) Create(_ context.Context, v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.keyOf(v)
	if _, exists := c.items[key]; exists {
		return repository.ErrAlreadyExists
	}
	c.items[key] = c.clone(v)
	c.order = append(c.order, key)
	return nil
}

func (c *Collection[T]) Get(_ context.Context, key repository.Key) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, exists := c.items[key]
	if !exists {
		var zero T
		return zero, repository.ErrNotFound
	}
	return c.clone(v), nil
}

// GetAll returns the vendor's records in insertion order. An empty vendorID
// returns every record.
func (c *Collection[T]) GetAll(_ context.Context, vendorID string) ([]T, error) {
	return c.filter(vendorID, func(T) bool { return true }), nil
}

func (c *Collection[T]) Update(_ context.Context, v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.keyOf(v)
	if _, exists := c.items[key]; !exists {
		return repository.ErrNotFound
	}
	c.items[key] = c.clone(v)
	return nil
}

func (c *Collection[T]) Delete(_ context.Context, key repository.Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists {
		return repository.ErrNotFound
	}
	delete(c.items, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (c *Collection[T]) filter(vendorID string, keep func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]T, 0, len(c.order))
	for _, key := range c.order {
		if vendorID != "" && key.VendorID != vendorID {
			continue
		}
		v := c.items[key]
		if keep(v) {
			result = append(result, c.clone(v))
		}
	}
	return result
}

// newestFirst reverses a slice returned in insertion order.
func newestFirst[T any](s []T) []T {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
	return s
}
