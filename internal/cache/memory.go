package cache

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

type memoryEntry struct {
	data      []byte
	namespace string
	expiresAt time.Time
}

// Memory is an in-process cache for tests and redis-disabled deployments.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
	stores atomic.Int64
}

// NewMemory creates an in-memory cache with the given TTL.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *Memory) Get(_ context.Context, question, namespace string, params map[string]any, dest any) (bool, error) {
	key := Key(question, namespace, params)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		c.misses.Add(1)
		return false, nil
	}

	if err := json.Unmarshal(entry.data, dest); err != nil {
		return false, err
	}
	c.hits.Add(1)
	return true, nil
}

func (c *Memory) Put(_ context.Context, question, namespace string, params map[string]any, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.entries[Key(question, namespace, params)] = memoryEntry{
		data:      data,
		namespace: namespace,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()

	c.stores.Add(1)
	return nil
}

func (c *Memory) InvalidateNamespace(_ context.Context, namespace string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deleted := 0
	for key, entry := range c.entries {
		if entry.namespace == namespace {
			delete(c.entries, key)
			deleted++
		}
	}
	return deleted, nil
}

func (c *Memory) ClearAll(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
	return nil
}

func (c *Memory) Enabled() bool { return true }

func (c *Memory) Stats() Stats {
	return Stats{
		Enabled: true,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Stores:  c.stores.Load(),
	}
}
