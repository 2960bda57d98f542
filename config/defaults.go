package config

import (
	"path/filepath"

	"github.com/poiesic/sitesearch/ai"
	"github.com/poiesic/sitesearch/chunking"
)

const (
	// CurrentVersion is the only config version understood.
	CurrentVersion = 0

	// SummaryFile is the chunking summary name inside the chunks directory.
	SummaryFile = "chunking_summary.json"

	DefaultTopK        = 10
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = "500ms"
)

// Default returns the configuration used when no file is present.
func Default() *File {
	aiDefaults := ai.DefaultConfig()
	return &File{
		Version: CurrentVersion,
		Paths: PathsConfig{
			Raw:        "data/raw",
			Chunks:     "data/chunks",
			Summary:    filepath.Join("data/chunks", SummaryFile),
			Embeddings: "data/embeddings",
		},
		Chunking: ChunkingConfig{
			ChunkSize: chunking.DefaultChunkSize,
			Overlap:   chunking.DefaultOverlap,
		},
		Embedding: EmbeddingConfig{
			Host:        aiDefaults.EmbeddingHost,
			Model:       aiDefaults.EmbeddingModel,
			APIKey:      aiDefaults.APIKey,
			BatchSize:   aiDefaults.BatchSize,
			MaxAttempts: DefaultMaxAttempts,
			RetryDelay:  DefaultRetryDelay,
			Aggregate:   true,
		},
		Search: SearchConfig{
			TopK: DefaultTopK,
		},
	}
}
