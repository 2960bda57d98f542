package index

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/poiesic/sitesearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entriesFor(n int) []core.IndexEntry {
	entries := make([]core.IndexEntry, n)
	for i := range entries {
		entries[i] = core.IndexEntry{
			ChunkID:  fmt.Sprintf("chunk_%03d", i),
			Category: "page",
			FilePath: fmt.Sprintf("chunks/page/chunk_%03d.txt", i),
			Content:  fmt.Sprintf("content %d", i),
		}
	}
	return entries
}

func fiveByFour() [][]float32 {
	return [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0.5, 0.25, -0.5, 2},
		{0, 0, 0, 1},
	}
}

func TestBuild(t *testing.T) {
	ix, err := Build(fiveByFour(), entriesFor(5))
	require.NoError(t, err)

	assert.Equal(t, 5, ix.Len())
	assert.Equal(t, 4, ix.Dim())
	assert.Equal(t, "chunk_003", ix.Entry(3).ChunkID)
	assert.Equal(t, []float32{0.5, 0.25, -0.5, 2}, ix.Vector(3))
}

func TestBuild_Misaligned(t *testing.T) {
	_, err := Build(fiveByFour(), entriesFor(4))
	assert.ErrorIs(t, err, ErrMisaligned)
}

func TestBuild_DimensionMismatch(t *testing.T) {
	vectors := fiveByFour()
	vectors[2] = []float32{1, 2, 3}

	_, err := Build(vectors, entriesFor(5))
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestBuild_NonFinite(t *testing.T) {
	vectors := fiveByFour()
	vectors[1][0] = float32(math.NaN())

	_, err := Build(vectors, entriesFor(5))
	assert.ErrorIs(t, err, core.ErrInvalidVector)
}

func TestBuild_CopiesInputs(t *testing.T) {
	vectors := fiveByFour()
	entries := entriesFor(5)
	ix, err := Build(vectors, entries)
	require.NoError(t, err)

	vectors[0][0] = 42
	entries[0].ChunkID = "changed"

	assert.Equal(t, float32(1), ix.Vector(0)[0])
	assert.Equal(t, "chunk_000", ix.Entry(0).ChunkID)
}

func TestSearch_ExactMatch(t *testing.T) {
	ix, err := Build(fiveByFour(), entriesFor(5))
	require.NoError(t, err)

	query := []float32{0.5, 0.25, -0.5, 2}
	results, err := ix.Search(query, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "chunk_003", results[0].ChunkID)
	assert.Equal(t, 3, results[0].Row)
	assert.Equal(t, float32(0), results[0].Distance)
}

func TestSearch_SortedAscending(t *testing.T) {
	ix, err := Build(fiveByFour(), entriesFor(5))
	require.NoError(t, err)

	results, err := ix.Search([]float32{0.9, 0.1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 5)

	assert.Equal(t, 0, results[0].Row)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
	}
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Distance, float32(0))
	}
}

func TestSearch_SquaredDistance(t *testing.T) {
	ix, err := Build([][]float32{{0, 0}, {3, 4}}, entriesFor(2))
	require.NoError(t, err)

	results, err := ix.Search([]float32{0, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, float32(0), results[0].Distance)
	assert.Equal(t, float32(25), results[1].Distance)
}

func TestSearch_KLargerThanN(t *testing.T) {
	ix, err := Build(fiveByFour(), entriesFor(5))
	require.NoError(t, err)

	query := []float32{0, 0, 1, 0.1}
	all, err := ix.Search(query, 5)
	require.NoError(t, err)
	more, err := ix.Search(query, 50)
	require.NoError(t, err)

	assert.Equal(t, all, more)
}

func TestSearch_ZeroK(t *testing.T) {
	ix, err := Build(fiveByFour(), entriesFor(5))
	require.NoError(t, err)

	for _, k := range []int{0, -3} {
		results, err := ix.Search([]float32{1, 0, 0, 0}, k)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	}
}

func TestSearch_TiesKeepRowOrder(t *testing.T) {
	vectors := [][]float32{
		{1, 0},
		{0, 1},
		{-1, 0},
		{0, -1},
		{2, 2},
	}
	ix, err := Build(vectors, entriesFor(5))
	require.NoError(t, err)

	results, err := ix.Search([]float32{0, 0}, 5)
	require.NoError(t, err)

	rows := make([]int, len(results))
	for i, r := range results {
		rows[i] = r.Row
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, rows)
}

func TestSearch_DimensionMismatch(t *testing.T) {
	ix, err := Build(fiveByFour(), entriesFor(5))
	require.NoError(t, err)

	_, err = ix.Search([]float32{1, 2}, 3)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestSearch_DimensionMismatchWithZeroK(t *testing.T) {
	ix, err := Build(fiveByFour(), entriesFor(5))
	require.NoError(t, err)

	for _, k := range []int{0, -1} {
		_, err = ix.Search([]float32{1, 2}, k)
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	ix, err := Build(nil, nil)
	require.NoError(t, err)

	results, err := ix.Search([]float32{1, 2, 3}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_Concurrent(t *testing.T) {
	ix, err := Build(fiveByFour(), entriesFor(5))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			row := i % 5
			results, err := ix.Search(ix.Vector(row), 1)
			assert.NoError(t, err)
			if assert.Len(t, results, 1) {
				assert.Equal(t, row, results[0].Row)
			}
		}(i)
	}
	wg.Wait()
}

func TestCategoryCounts(t *testing.T) {
	entries := entriesFor(3)
	entries[2].Category = "contact"
	ix, err := Build([][]float32{{1}, {2}, {3}}, entries)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"page": 2, "contact": 1}, ix.CategoryCounts())
}

func TestSquaredL2(t *testing.T) {
	assert.Equal(t, 0.0, SquaredL2([]float32{1, 2}, []float32{1, 2}))
	assert.Equal(t, 2.0, SquaredL2([]float32{1, 1}, []float32{0, 0}))
}
