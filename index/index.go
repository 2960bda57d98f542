// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package index

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/poiesic/sitesearch/core"
)

// Index is an exhaustive squared-L2 index over an N×D matrix.
type Index struct {
	data    []float32 // row-major, len == n*dim
	dim     int
	entries []core.IndexEntry
}

// Build assembles vectors and entries into an Index. vectors[i] and
// entries[i] must describe the same chunk, and every vector must have the
// same dimension. The inputs are copied.
func Build(vectors [][]float32, entries []core.IndexEntry) (*Index, error) {
	if len(vectors) != len(entries) {
		return nil, fmt.Errorf("%w: %d vectors, %d entries", ErrMisaligned, len(vectors), len(entries))
	}
	if len(vectors) == 0 {
		return &Index{}, nil
	}

	dim := len(vectors[0])
	data := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: row %d has %d dimensions, expected %d", core.ErrDimensionMismatch, i, len(v), dim)
		}
		if err := core.ValidateVector(v); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		data = append(data, v...)
	}

	return &Index{
		data:    data,
		dim:     dim,
		entries: slices.Clone(entries),
	}, nil
}

// fromMatrix wraps an already flattened matrix. data is not copied.
func fromMatrix(data []float32, rows, dim int, entries []core.IndexEntry) (*Index, error) {
	if rows != len(entries) {
		return nil, fmt.Errorf("%w: %d rows, %d entries", ErrMisaligned, rows, len(entries))
	}
	if len(data) != rows*dim {
		return nil, fmt.Errorf("%w: %d values for shape (%d, %d)", ErrInvalidMatrix, len(data), rows, dim)
	}
	if rows == 0 {
		return &Index{}, nil
	}
	return &Index{data: data, dim: dim, entries: entries}, nil
}

// Len returns the number of rows.
func (ix *Index) Len() int { return len(ix.entries) }

// Dim returns the vector dimension, or 0 for an empty index.
func (ix *Index) Dim() int { return ix.dim }

// Entry returns the metadata of row i.
func (ix *Index) Entry(i int) core.IndexEntry { return ix.entries[i] }

// Vector returns a copy of row i.
func (ix *Index) Vector(i int) []float32 {
	return slices.Clone(ix.row(i))
}

// Entries returns a copy of the metadata sequence.
func (ix *Index) Entries() []core.IndexEntry {
	return slices.Clone(ix.entries)
}

// CategoryCounts returns the number of rows per category.
func (ix *Index) CategoryCounts() map[string]int {
	counts := make(map[string]int)
	for _, e := range ix.entries {
		counts[e.Category]++
	}
	return counts
}

func (ix *Index) row(i int) []float32 {
	return ix.data[i*ix.dim : (i+1)*ix.dim]
}

// Search returns the k rows closest to query, ascending by squared Euclidean
// distance. Rows at equal distance keep their row order. k <= 0 yields no
// results and k > Len() yields every row. A non-empty index validates the
// query before looking at k.
func (ix *Index) Search(query []float32, k int) ([]core.SearchResult, error) {
	if ix.Len() > 0 {
		if err := core.ValidateQuery(query, ix.dim); err != nil {
			return nil, err
		}
		if err := core.ValidateVector(query); err != nil {
			return nil, err
		}
	}
	if k <= 0 || ix.Len() == 0 {
		return []core.SearchResult{}, nil
	}

	type scored struct {
		row  int
		dist float64
	}
	scoreds := make([]scored, ix.Len())
	for i := range scoreds {
		scoreds[i] = scored{row: i, dist: SquaredL2(query, ix.row(i))}
	}
	slices.SortStableFunc(scoreds, func(a, b scored) int {
		return cmp.Compare(a.dist, b.dist)
	})

	k = min(k, len(scoreds))
	results := make([]core.SearchResult, k)
	for n := 0; n < k; n++ {
		results[n] = core.SearchResult{
			IndexEntry: ix.entries[scoreds[n].row],
			Row:        scoreds[n].row,
			Distance:   float32(scoreds[n].dist),
		}
	}
	return results, nil
}

// SquaredL2 computes the squared Euclidean distance between a and b, which
// must have the same length. Accumulation is in float64.
func SquaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
