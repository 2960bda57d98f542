package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "data/raw", cfg.Paths.Raw)
	assert.Equal(t, filepath.Join("data/chunks", SummaryFile), cfg.Paths.Summary)
	assert.Equal(t, 200, cfg.Chunking.ChunkSize)
	assert.Equal(t, 50, cfg.Chunking.Overlap)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Embedding.Host)
	assert.Equal(t, 10, cfg.Search.TopK)
	assert.Empty(t, cfg.Paths.Cache)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitesearch.toml")
	data := `
[paths]
raw = "crawl/text"
chunks = "work/chunks"
cache = "work/cache"

[chunking]
chunk_size = 120
overlap = 0

[embedding]
model = "nomic-embed-text"
retry_delay = "2s"

[search]
top_k = 3
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "crawl/text", cfg.Paths.Raw)
	assert.Equal(t, "work/chunks", cfg.Paths.Chunks)
	assert.Equal(t, filepath.Join("work/chunks", SummaryFile), cfg.Paths.Summary)
	assert.Equal(t, "work/cache", cfg.Paths.Cache)
	assert.Equal(t, "data/embeddings", cfg.Paths.Embeddings)
	assert.Equal(t, 120, cfg.Chunking.ChunkSize)
	assert.Equal(t, 0, cfg.Chunking.Overlap)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Embedding.Host)
	assert.Equal(t, 3, cfg.Search.TopK)

	delay, err := cfg.Embedding.Delay()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, delay)
}

func TestParse_ExplicitSummary(t *testing.T) {
	cfg, err := Parse([]byte("[paths]\nchunks = \"c\"\nsummary = \"meta/summary.json\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "meta/summary.json", cfg.Paths.Summary)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"unknown key", "[search]\ntopk = 3\n", ErrInvalidConfig},
		{"future version", "version = 7\n", ErrUnsupportedVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("malformed", func(t *testing.T) {
		_, err := Parse([]byte("[paths\n"))
		assert.Error(t, err)
	})
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sitesearch.toml")
	cfg := Default()
	cfg.Paths.Cache = "cache"
	cfg.Embedding.PoolSize = 4
	cfg.Search.TopK = 9

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	assert.Error(t, Save(path, nil))
}

func TestApplyDefaults(t *testing.T) {
	cfg := &File{Paths: PathsConfig{Chunks: "out/chunks"}}
	cfg.ApplyDefaults()

	assert.Equal(t, "data/raw", cfg.Paths.Raw)
	assert.Equal(t, filepath.Join("out/chunks", SummaryFile), cfg.Paths.Summary)
	assert.Equal(t, 200, cfg.Chunking.ChunkSize)
	assert.Equal(t, 0, cfg.Chunking.Overlap)
	assert.Equal(t, DefaultMaxAttempts, cfg.Embedding.MaxAttempts)
	assert.Equal(t, DefaultRetryDelay, cfg.Embedding.RetryDelay)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	t.Run("collects every problem", func(t *testing.T) {
		cfg := Default()
		cfg.Chunking.ChunkSize = 0
		cfg.Embedding.MaxAttempts = 0
		cfg.Embedding.RetryDelay = "soon"
		cfg.Search.TopK = 0

		err := cfg.Validate()
		require.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), "chunk_size")
		assert.Contains(t, err.Error(), "max_attempts")
		assert.Contains(t, err.Error(), "retry_delay")
		assert.Contains(t, err.Error(), "top_k")
	})

	t.Run("missing model", func(t *testing.T) {
		cfg := Default()
		cfg.Embedding.Model = ""
		err := cfg.Validate()
		require.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), "EmbeddingModel")
	})

	t.Run("negative retry delay", func(t *testing.T) {
		cfg := Default()
		cfg.Embedding.RetryDelay = "-1s"
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})
}

func TestIndexDir(t *testing.T) {
	cfg := Default()
	assert.Equal(t, filepath.Join("data/embeddings", "faiss"), cfg.IndexDir())

	cfg.Paths.Index = "idx"
	assert.Equal(t, "idx", cfg.IndexDir())
}

func TestAIConfig(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Host = "http://embed:8080"
	cfg.Embedding.APIKey = "sk-test"
	cfg.Embedding.BatchSize = 8

	aiCfg := cfg.AIConfig()
	require.NoError(t, aiCfg.Validate())
	assert.Equal(t, "http://embed:8080/v1", aiCfg.EmbeddingHost)
	assert.Equal(t, "sk-test", aiCfg.APIKey)
	assert.Equal(t, 8, aiCfg.BatchSize)
}
