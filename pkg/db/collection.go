package db

import (
	"context"
	"sync"
)

// Collection is a typed view over one named store collection, keyed by id.
// Read-modify-write operations are serialized per Collection.
type Collection[T any] struct {
	store Store
	name  string
	mu    sync.Mutex
}

func NewCollection[T any](store Store, name string) *Collection[T] {
	return &Collection[T]{store: store, name: name}
}

// All returns every record of the collection.
func (c *Collection[T]) All(ctx context.Context) (map[string]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Get returns the record stored under id or ErrNotFound.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	records, err := c.All(ctx)
	if err != nil {
		return zero, err
	}
	record, ok := records[id]
	if !ok {
		return zero, ErrNotFound
	}
	return record, nil
}

// Put stores v under id, replacing any previous record.
func (c *Collection[T]) Put(ctx context.Context, id string, v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	records, err := c.load(ctx)
	if err != nil {
		return err
	}
	records[id] = v
	return c.store.WriteCollection(ctx, c.name, records)
}

// PutIf stores v under id when check accepts the current records.
// An error returned by check aborts the write and is returned as is.
func (c *Collection[T]) PutIf(ctx context.Context, id string, v T, check func(records map[string]T) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	records, err := c.load(ctx)
	if err != nil {
		return err
	}
	if err := check(records); err != nil {
		return err
	}
	records[id] = v
	return c.store.WriteCollection(ctx, c.name, records)
}

// Update applies fn to the record stored under id and saves the result.
// An error returned by fn aborts the update and is returned as is.
func (c *Collection[T]) Update(ctx context.Context, id string, fn func(*T) error) (T, error) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()
	records, err := c.load(ctx)
	if err != nil {
		return zero, err
	}
	record, ok := records[id]
	if !ok {
		return zero, ErrNotFound
	}
	if err := fn(&record); err != nil {
		return zero, err
	}
	records[id] = record
	if err := c.store.WriteCollection(ctx, c.name, records); err != nil {
		return zero, err
	}
	return record, nil
}

// Len returns the number of records in the collection.
func (c *Collection[T]) Len(ctx context.Context) (int, error) {
	records, err := c.All(ctx)
	return len(records), err
}

func (c *Collection[T]) load(ctx context.Context) (map[string]T, error) {
	records := map[string]T{}
	if err := c.store.ReadCollection(ctx, c.name, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = map[string]T{}
	}
	return records, nil
}
