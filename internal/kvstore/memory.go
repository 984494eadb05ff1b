package kvstore

import (
	"context"
	"sync"
)

// Memory is a concurrency-safe in-memory Opener. Every collection it hands
// out shares one map, so records written through one Store are visible to
// later Collection calls with the same name.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]Record
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string]Record)}
}

// Collection implements Opener.
func (m *Memory) Collection(name string) Store {
	return &memoryCollection{parent: m, name: name}
}

type memoryCollection struct {
	parent *Memory
	name   string
}

var _ Store = (*memoryCollection)(nil)

func (c *memoryCollection) Load(ctx context.Context, key string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.parent.mu.RLock()
	defer c.parent.mu.RUnlock()

	rec, ok := c.parent.collections[c.name][key]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (c *memoryCollection) Create(ctx context.Context, key string, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.parent.mu.Lock()
	defer c.parent.mu.Unlock()

	coll := c.collection()
	if _, exists := coll[key]; exists {
		return ErrExists
	}
	coll[key] = rec.Clone()
	return nil
}

func (c *memoryCollection) Put(ctx context.Context, key string, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.parent.mu.Lock()
	defer c.parent.mu.Unlock()

	c.collection()[key] = rec.Clone()
	return nil
}

// collection returns the backing map, creating it. Caller holds the write lock.
func (c *memoryCollection) collection() map[string]Record {
	coll, ok := c.parent.collections[c.name]
	if !ok {
		coll = make(map[string]Record)
		c.parent.collections[c.name] = coll
	}
	return coll
}
