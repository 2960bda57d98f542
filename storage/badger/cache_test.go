package badger

import (
	"context"
	"sync"
	"testing"

	"github.com/poiesic/sitesearch/core"
	"github.com/poiesic/sitesearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) storage.EmbeddingCache {
	t.Helper()
	cache, backend, err := NewMemoryEmbeddingCache()
	require.NoError(t, err)
	t.Cleanup(func() {
		cache.Close()
		backend.Close()
	})
	return cache
}

func TestEmbeddingCache_PutGet(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	id := core.IDFromContent("Our clinic is open on weekdays.")
	vector := []float32{0.1, -0.2, 0.3}

	require.NoError(t, cache.PutEmbeddings(ctx, "all-minilm", storage.CachedEmbedding{ID: id, Vector: vector}))

	got, err := cache.GetEmbedding(ctx, "all-minilm", id)
	require.NoError(t, err)
	assert.Equal(t, vector, got)
}

func TestEmbeddingCache_NotFound(t *testing.T) {
	cache := newTestCache(t)

	_, err := cache.GetEmbedding(context.Background(), "all-minilm", core.ID(7))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEmbeddingCache_ScopedByModel(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)
	id := core.ID(99)

	require.NoError(t, cache.PutEmbeddings(ctx, "model-a", storage.CachedEmbedding{ID: id, Vector: []float32{1, 2}}))

	_, err := cache.GetEmbedding(ctx, "model-b", id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	countA, err := cache.CountEmbeddings(ctx, "model-a")
	require.NoError(t, err)
	assert.Equal(t, 1, countA)

	countB, err := cache.CountEmbeddings(ctx, "model-b")
	require.NoError(t, err)
	assert.Equal(t, 0, countB)
}

func TestEmbeddingCache_GetEmbeddingsReturnsOnlyFound(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	require.NoError(t, cache.PutEmbeddings(ctx, "m",
		storage.CachedEmbedding{ID: 1, Vector: []float32{1}},
		storage.CachedEmbedding{ID: 3, Vector: []float32{3}},
	))

	found, err := cache.GetEmbeddings(ctx, "m", 1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, map[core.ID][]float32{1: {1}, 3: {3}}, found)
}

func TestEmbeddingCache_Overwrite(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	require.NoError(t, cache.PutEmbeddings(ctx, "m", storage.CachedEmbedding{ID: 5, Vector: []float32{1, 1}}))
	require.NoError(t, cache.PutEmbeddings(ctx, "m", storage.CachedEmbedding{ID: 5, Vector: []float32{2, 2}}))

	got, err := cache.GetEmbedding(ctx, "m", 5)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 2}, got)

	count, err := cache.CountEmbeddings(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEmbeddingCache_Validation(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	err := cache.PutEmbeddings(ctx, "", storage.CachedEmbedding{ID: 1, Vector: []float32{1}})
	assert.ErrorIs(t, err, storage.ErrInvalidModel)

	err = cache.PutEmbeddings(ctx, "m", storage.CachedEmbedding{ID: 1})
	assert.ErrorIs(t, err, core.ErrInvalidVector)

	_, err = cache.GetEmbedding(ctx, "", 1)
	assert.ErrorIs(t, err, storage.ErrInvalidModel)
}

func TestEmbeddingCache_ClosedBackend(t *testing.T) {
	cache, backend, err := NewMemoryEmbeddingCache()
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	_, err = cache.GetEmbedding(context.Background(), "m", 1)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	_, err = NewEmbeddingCache(backend)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestEmbeddingCache_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry := storage.CachedEmbedding{ID: core.ID(i), Vector: []float32{float32(i)}}
			assert.NoError(t, cache.PutEmbeddings(ctx, "m", entry))
		}(i)
	}
	wg.Wait()

	count, err := cache.CountEmbeddings(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, 16, count)
}
