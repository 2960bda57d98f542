package config

// File is the on-disk configuration.
type File struct {
	Version   int             `toml:"version"`
	Paths     PathsConfig     `toml:"paths"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Search    SearchConfig    `toml:"search"`
}

// PathsConfig locates the artifacts of each stage.
type PathsConfig struct {
	Raw        string `toml:"raw"`
	Chunks     string `toml:"chunks"`
	Summary    string `toml:"summary"`
	Embeddings string `toml:"embeddings"`

	// Index defaults to <embeddings>/faiss when empty.
	Index string `toml:"index,omitempty"`

	// Cache is a badger directory for cached vectors. Empty disables caching.
	Cache string `toml:"cache,omitempty"`
}

type ChunkingConfig struct {
	ChunkSize int `toml:"chunk_size"`
	Overlap   int `toml:"overlap"`
}

type EmbeddingConfig struct {
	Host        string `toml:"host"`
	Model       string `toml:"model"`
	APIKey      string `toml:"api_key,omitempty"`
	BatchSize   int    `toml:"batch_size"`
	PoolSize    int    `toml:"pool_size,omitempty"`
	MaxAttempts int    `toml:"max_attempts"`
	RetryDelay  string `toml:"retry_delay"`
	Aggregate   bool   `toml:"aggregate"`
}

type SearchConfig struct {
	TopK int `toml:"top_k"`
}
