package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/awmpietro/policy-blocks/internal/policy"
)

// InMemory caches decoded documents by the SHA-256 of their raw bytes.
// It stores documents rather than policies so every load still resolves a
// fresh policy instance.
type InMemory struct {
	mu    sync.RWMutex
	max   int
	items map[string]policy.Document
}

func NewInMemory(max int) *InMemory {
	if max < 0 {
		max = 0
	}
	return &InMemory{
		max:   max,
		items: make(map[string]policy.Document, max),
	}
}

func (c *InMemory) GetOrCompute(raw []byte, fn func() (policy.Document, error)) (policy.Document, error) {
	key := hash(raw)

	c.mu.RLock()
	if v, ok := c.items[key]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.items[key]; ok {
		return v, nil
	}

	doc, err := fn()
	if err != nil {
		return policy.Document{}, err
	}

	if len(c.items) < c.max {
		c.items[key] = doc
	}

	return doc, nil
}

func (c *InMemory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func hash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
