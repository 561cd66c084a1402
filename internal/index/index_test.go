package index

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readyIndex(t *testing.T) *Memory {
	t.Helper()

	m := NewMemory(3)
	require.NoError(t, m.Upsert("x", []float32{1, 0, 0}))
	require.NoError(t, m.Upsert("y", []float32{0, 1, 0}))
	require.NoError(t, m.Upsert("xy", []float32{1, 1, 0}))
	require.NoError(t, m.Upsert("zero", []float32{0, 0, 0}))
	m.MarkReady()
	return m
}

func TestSearchOrdersBySimilarity(t *testing.T) {
	m := readyIndex(t)

	hits, err := m.Search(context.Background(), []float32{2, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "x", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
	assert.Equal(t, "xy", hits[1].ID)
	assert.InDelta(t, 0.7071, hits[1].Similarity, 1e-4)
	// y and zero both score 0; id breaks the tie.
	assert.Equal(t, "y", hits[2].ID)
}

func TestZeroVectorSimilarityIsZero(t *testing.T) {
	m := readyIndex(t)

	hits, err := m.Search(context.Background(), []float32{0, 0, 0}, 10)
	require.NoError(t, err)
	for _, hit := range hits {
		assert.Zero(t, hit.Similarity, hit.ID)
	}
	assert.Zero(t, Cosine([]float32{1, 2}, []float32{0, 0}))
}

func TestUpsertIsIdempotent(t *testing.T) {
	m := readyIndex(t)
	query := []float32{0.3, 0.9, 0.1}

	before, err := m.Search(context.Background(), query, 10)
	require.NoError(t, err)

	require.NoError(t, m.Upsert("xy", []float32{1, 1, 0}))
	require.NoError(t, m.Upsert("xy", []float32{1, 1, 0}))

	after, err := m.Search(context.Background(), query, 10)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 4, m.Len())
}

func TestUpsertCopiesVector(t *testing.T) {
	m := NewMemory(2)
	v := []float32{1, 0}
	require.NoError(t, m.Upsert("a", v))
	m.MarkReady()
	v[0], v[1] = 0, 1

	hits, err := m.Search(context.Background(), []float32{1, 0}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
}

func TestErrors(t *testing.T) {
	m := NewMemory(3)

	_, err := m.Search(context.Background(), []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, ErrNotReady)

	assert.ErrorIs(t, m.Upsert("a", []float32{1, 0}), ErrDimensionMismatch)

	m.MarkReady()
	_, err = m.Search(context.Background(), []float32{1, 0}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	hits, err := m.Search(context.Background(), []float32{1, 0, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRemove(t *testing.T) {
	m := readyIndex(t)
	m.Remove("x")
	assert.False(t, m.Has("x"))

	hits, err := m.Search(context.Background(), []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, "xy", hits[0].ID)
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	m := readyIndex(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := m.Search(context.Background(), []float32{1, 1, 1}, 2)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Upsert("w", []float32{0, 0, 1}))
		}()
	}
	wg.Wait()
	assert.True(t, m.Has("w"))
}
