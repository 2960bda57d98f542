package storage

import (
	"context"

	"github.com/poiesic/sitesearch/core"
)

// CachedEmbedding pairs a content ID with the vector a model produced for it.
type CachedEmbedding struct {
	ID     core.ID
	Vector []float32
}

// EmbeddingCache stores vectors keyed by embedding model and content ID.
// Vectors from different models never mix: every operation is scoped to one model.
// Implementations must be thread-safe and support concurrent access.
type EmbeddingCache interface {
	// GetEmbedding retrieves the vector for a single content ID.
	// Returns ErrNotFound if nothing is cached for the ID.
	GetEmbedding(ctx context.Context, model string, id core.ID) ([]float32, error)

	// GetEmbeddings retrieves vectors for multiple content IDs.
	// Returns only the entries that exist (no error for missing IDs).
	GetEmbeddings(ctx context.Context, model string, ids ...core.ID) (map[core.ID][]float32, error)

	// PutEmbeddings stores one or more vectors, replacing existing entries.
	PutEmbeddings(ctx context.Context, model string, entries ...CachedEmbedding) error

	// CountEmbeddings returns the number of vectors cached for model.
	CountEmbeddings(ctx context.Context, model string) (int, error)

	// Close releases resources held by the cache. It does not close the
	// underlying storage backend.
	Close() error
}
