// Package index answers nearest-neighbour queries over posting embeddings.
package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
)

var (
	// ErrDimensionMismatch means a vector was built for a different
	// embedding space than the index. It is a configuration bug, not a
	// transient failure.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrNotReady          = errors.New("embedding index is not ready")
)

type Hit struct {
	ID         string
	Similarity float64
}

// Index is the contract the recommendation pipeline depends on. Memory is
// the default linear-scan implementation.
type Index interface {
	Upsert(id string, vector []float32) error
	Remove(id string)
	Search(ctx context.Context, query []float32, k int) ([]Hit, error)
	Dimension() int
	Ready() bool
}

// Memory keeps every vector in a map and scans all of them per query.
type Memory struct {
	dim   int
	ready atomic.Bool

	mu      sync.RWMutex
	vectors map[string]entry
}

type entry struct {
	vector []float32
	norm   float64
}

func NewMemory(dim int) *Memory {
	return &Memory{dim: dim, vectors: make(map[string]entry)}
}

func (m *Memory) Dimension() int { return m.dim }

func (m *Memory) Ready() bool { return m.ready.Load() }

// MarkReady opens the index for searches once the initial build is complete.
func (m *Memory) MarkReady() { m.ready.Store(true) }

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

// Upsert stores a copy of vector under id, replacing any previous one.
func (m *Memory) Upsert(id string, vector []float32) error {
	if len(vector) != m.dim {
		return fmt.Errorf("%w: posting %q has %d dimensions, index has %d", ErrDimensionMismatch, id, len(vector), m.dim)
	}

	stored := append([]float32(nil), vector...)

	m.mu.Lock()
	m.vectors[id] = entry{vector: stored, norm: norm(stored)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Remove(id string) {
	m.mu.Lock()
	delete(m.vectors, id)
	m.mu.Unlock()
}

func (m *Memory) Has(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.vectors[id]
	return ok
}

// Search returns up to k hits ordered by cosine similarity, highest first,
// with id as tie-break.
func (m *Memory) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if !m.Ready() {
		return nil, ErrNotReady
	}
	if len(query) != m.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", ErrDimensionMismatch, len(query), m.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	qnorm := norm(query)

	m.mu.RLock()
	hits := make([]Hit, 0, len(m.vectors))
	for id, e := range m.vectors {
		hits = append(hits, Hit{ID: id, Similarity: cosine(query, e.vector, qnorm, e.norm)})
	}
	m.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ID < hits[j].ID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Cosine is dot(a,b)/(|a||b|), defined as 0 when either vector is zero or
// the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	return cosine(a, b, norm(a), norm(b))
}

func cosine(a, b []float32, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (na * nb)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
