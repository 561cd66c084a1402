package embedding

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
)

// Cached memoizes successful embeddings by the sha256 of the text.
type Cached struct {
	provider Provider

	mu      sync.RWMutex
	entries map[string][]float32
}

func NewCached(p Provider) *Cached {
	return &Cached{provider: p, entries: make(map[string][]float32)}
}

func (c *Cached) Name() string   { return c.provider.Name() }
func (c *Cached) Dimension() int { return c.provider.Dimension() }
func (c *Cached) Model() string  { return ModelOf(c.provider) }

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := fmt.Sprintf("%x", sha256.Sum256([]byte(text)))

	c.mu.RLock()
	vec, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return append([]float32(nil), vec...), nil
	}

	vec, err := c.provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = append([]float32(nil), vec...)
	c.mu.Unlock()

	return vec, nil
}

// Len returns the number of cached texts.
func (c *Cached) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
