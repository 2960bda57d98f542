package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/poiesic/sitesearch/ai"
	"github.com/poiesic/sitesearch/ingestion"
)

// Load reads the configuration at path. An empty path or a missing file
// yields Default().
func Load(path string) (*File, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return Parse(data)
}

// Parse decodes raw TOML over Default(), so keys absent from data keep their
// default value. A summary path that is not set follows the chunks directory.
func Parse(data []byte) (*File, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, undecoded[0].String())
	}
	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("%w %d (expected %d)", ErrUnsupportedVersion, cfg.Version, CurrentVersion)
	}
	if !md.IsDefined("paths", "summary") {
		cfg.Paths.Summary = filepath.Join(cfg.Paths.Chunks, SummaryFile)
	}
	return cfg, nil
}

// Save writes cfg to path as TOML.
func Save(path string, cfg *File) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ApplyDefaults fills zero-value fields from Default(). A summary path left
// empty follows the chunks directory. Overlap is left alone since zero is a
// valid overlap.
func (c *File) ApplyDefaults() {
	defaults := Default()

	if c.Paths.Raw == "" {
		c.Paths.Raw = defaults.Paths.Raw
	}
	if c.Paths.Chunks == "" {
		c.Paths.Chunks = defaults.Paths.Chunks
	}
	if c.Paths.Summary == "" {
		c.Paths.Summary = filepath.Join(c.Paths.Chunks, SummaryFile)
	}
	if c.Paths.Embeddings == "" {
		c.Paths.Embeddings = defaults.Paths.Embeddings
	}

	if c.Chunking.ChunkSize == 0 {
		c.Chunking.ChunkSize = defaults.Chunking.ChunkSize
	}

	if c.Embedding.Host == "" {
		c.Embedding.Host = defaults.Embedding.Host
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = defaults.Embedding.Model
	}
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = defaults.Embedding.APIKey
	}
	if c.Embedding.BatchSize == 0 {
		c.Embedding.BatchSize = defaults.Embedding.BatchSize
	}
	if c.Embedding.MaxAttempts == 0 {
		c.Embedding.MaxAttempts = defaults.Embedding.MaxAttempts
	}
	if c.Embedding.RetryDelay == "" {
		c.Embedding.RetryDelay = defaults.Embedding.RetryDelay
	}

	if c.Search.TopK == 0 {
		c.Search.TopK = defaults.Search.TopK
	}
}

// Validate reports every invalid field at once.
func (c *File) Validate() error {
	var errs []error
	if c.Chunking.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("%w: chunking.chunk_size must be at least 1", ErrInvalidConfig))
	}
	if c.Chunking.Overlap < 0 {
		errs = append(errs, fmt.Errorf("%w: chunking.overlap must not be negative", ErrInvalidConfig))
	}
	if c.Embedding.PoolSize < 0 {
		errs = append(errs, fmt.Errorf("%w: embedding.pool_size must not be negative", ErrInvalidConfig))
	}
	if c.Embedding.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("%w: embedding.max_attempts must be at least 1", ErrInvalidConfig))
	}
	if _, err := c.Embedding.Delay(); err != nil {
		errs = append(errs, fmt.Errorf("%w: embedding.retry_delay: %w", ErrInvalidConfig, err))
	}
	if c.Search.TopK < 1 {
		errs = append(errs, fmt.Errorf("%w: search.top_k must be at least 1", ErrInvalidConfig))
	}
	if err := c.AIConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}
	return errors.Join(errs...)
}

// IndexDir returns the configured index directory, or the default
// subdirectory of the embeddings directory.
func (c *File) IndexDir() string {
	if c.Paths.Index != "" {
		return c.Paths.Index
	}
	return filepath.Join(c.Paths.Embeddings, ingestion.DefaultIndexSubdir)
}

// AIConfig converts the [embedding] table into an ai.Config.
func (c *File) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithAPIKey(c.Embedding.APIKey),
		ai.WithBatchSize(c.Embedding.BatchSize),
	)
}

// Delay parses retry_delay.
func (e *EmbeddingConfig) Delay() (time.Duration, error) {
	d, err := time.ParseDuration(e.RetryDelay)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", e.RetryDelay)
	}
	return d, nil
}
