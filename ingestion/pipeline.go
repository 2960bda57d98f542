package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/sitesearch/ai"
	"github.com/poiesic/sitesearch/core"
	"github.com/poiesic/sitesearch/index"
	"github.com/poiesic/sitesearch/storage"
)

const (
	// AggregateFile holds every record, vectors included, grouped by category.
	AggregateFile = "all_embeddings.json"

	// DefaultIndexSubdir is where the index is saved, relative to the output directory.
	DefaultIndexSubdir = "faiss"

	defaultBatchSize   = 32
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
)

// Pipeline embeds a directory of chunk files and builds the search index.
type Pipeline struct {
	embedder      ai.Embedder
	model         string
	cache         storage.EmbeddingCache
	pool          *ants.Pool
	batchSize     int
	maxAttempts   int
	baseDelay     time.Duration
	summaryPath   string
	indexDir      string
	aggregateDump bool
	progress      io.Writer
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithBatchSize sets how many chunk texts go to the embedder per call.
// Default is 32.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("batch size must be at least 1, got %d", size)
		}
		p.batchSize = size
		return nil
	}
}

// WithRetry sets the number of attempts per embedding batch and the delay
// before the first retry. Defaults are 3 attempts and 500ms.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		p.baseDelay = baseDelay
		return nil
	}
}

// WithCache reuses vectors already computed by the same model for identical text.
func WithCache(cache storage.EmbeddingCache) Option {
	return func(p *Pipeline) error {
		p.cache = cache
		return nil
	}
}

// WithSummary sets the path of the chunking summary used to recover url and title.
func WithSummary(path string) Option {
	return func(p *Pipeline) error {
		p.summaryPath = path
		return nil
	}
}

// WithIndexDir sets where the index is saved.
// Default is the "faiss" subdirectory of the output directory.
func WithIndexDir(dir string) Option {
	return func(p *Pipeline) error {
		p.indexDir = dir
		return nil
	}
}

// WithAggregateDump enables writing AggregateFile to the output directory.
func WithAggregateDump(enabled bool) Option {
	return func(p *Pipeline) error {
		p.aggregateDump = enabled
		return nil
	}
}

// WithProgress reports embedding progress to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(provider ai.AIProvider, opts ...Option) (*Pipeline, error) {
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		embedder:    provider.Embedder(),
		model:       provider.Model(),
		pool:        pool,
		batchSize:   defaultBatchSize,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	return p, nil
}

// Result describes a completed run.
type Result struct {
	// Records holds one record per embedded chunk, in row order.
	Records []core.EmbeddingRecord

	// Skipped lists chunk files that were unreadable or empty.
	Skipped []string

	// Index is the index built from Records.
	Index *index.Index
}

// workItem is one chunk file queued for embedding. vector is filled in by
// exactly one worker.
type workItem struct {
	category string
	name     string
	path     string
	content  string
	id       core.ID
	vector   []float32
}

// Run embeds every chunk under chunksDir and writes the results to outputDir:
// <outputDir>/<category>/<chunk_id>.json per chunk, the optional aggregate
// file, and the index.
func (p *Pipeline) Run(ctx context.Context, chunksDir, outputDir string) (*Result, error) {
	provenance := LoadProvenance(p.summaryPath, p.logger)

	items, skipped, err := p.collect(chunksDir)
	if err != nil {
		return nil, err
	}
	p.logger.Info("collected chunks", "chunks", len(items), "skipped", len(skipped))

	if err := p.embedAll(ctx, items); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	records := make([]core.EmbeddingRecord, 0, len(items))
	unmatched := 0
	for i := range items {
		item := &items[i]
		prov, ok := provenance.Lookup(item.path)
		if !ok {
			unmatched++
			// chunk files are named by position even without a summary
			fmt.Sscanf(item.name, "chunk_%d", &prov.ChunkIndex)
		}

		record := core.EmbeddingRecord{
			ChunkMetadata: core.ChunkMetadata{
				ChunkID:    strings.TrimSuffix(item.name, filepath.Ext(item.name)),
				Category:   item.category,
				FilePath:   item.path,
				Content:    item.content,
				Source:     prov.Source,
				ChunkIndex: prov.ChunkIndex,
				URL:        prov.URL,
				Title:      prov.Title,
				WordCount:  len(strings.Fields(item.content)),
				CharCount:  utf8.RuneCountInString(item.content),
			},
			Vector: item.vector,
		}
		if err := writeMetadata(outputDir, &record.ChunkMetadata); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if unmatched > 0 {
		p.logger.Warn("chunks without provenance", "count", unmatched)
	}

	if p.aggregateDump {
		if err := writeAggregate(filepath.Join(outputDir, AggregateFile), records); err != nil {
			return nil, err
		}
	}

	ix, err := BuildIndex(records)
	if err != nil {
		return nil, err
	}

	indexDir := p.indexDir
	if indexDir == "" {
		indexDir = filepath.Join(outputDir, DefaultIndexSubdir)
	}
	if err := index.Save(indexDir, ix); err != nil {
		return nil, err
	}
	p.logger.Info("index saved", "dir", indexDir, "rows", ix.Len(), "dim", ix.Dim())

	return &Result{Records: records, Skipped: skipped, Index: ix}, nil
}

// BuildIndex flattens records into an index. Row i is records[i].
func BuildIndex(records []core.EmbeddingRecord) (*index.Index, error) {
	vectors := make([][]float32, len(records))
	entries := make([]core.IndexEntry, len(records))
	for i := range records {
		vectors[i] = records[i].Vector
		entries[i] = records[i].Entry()
	}
	return index.Build(vectors, entries)
}

// collect lists categories and chunk files in sorted order and reads their text.
func (p *Pipeline) collect(chunksDir string) ([]workItem, []string, error) {
	categories, err := os.ReadDir(chunksDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrChunksDirNotFound, chunksDir)
		}
		return nil, nil, fmt.Errorf("reading chunks directory: %w", err)
	}

	var (
		items   []workItem
		skipped []string
	)
	for _, category := range categories {
		if !category.IsDir() {
			continue
		}
		dir := filepath.Join(chunksDir, category.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			p.logger.Warn("could not read category, skipping", "category", category.Name(), "err", err)
			continue
		}

		for _, file := range files {
			if file.IsDir() || filepath.Ext(file.Name()) != ".txt" {
				continue
			}
			path := filepath.Join(dir, file.Name())

			data, err := os.ReadFile(path)
			if err != nil {
				p.logger.Warn("could not read chunk, skipping", "path", path, "err", err)
				skipped = append(skipped, path)
				continue
			}
			content := strings.TrimSpace(string(data))
			if content == "" {
				p.logger.Warn("chunk is empty, skipping", "path", path)
				skipped = append(skipped, path)
				continue
			}

			items = append(items, workItem{
				category: category.Name(),
				name:     file.Name(),
				path:     path,
				content:  content,
				id:       core.IDFromContent(content),
			})
		}
	}
	return items, skipped, nil
}

// embedAll fills in every item's vector, from the cache where possible and
// otherwise in parallel batches on the worker pool.
func (p *Pipeline) embedAll(ctx context.Context, items []workItem) error {
	progress := NewProgressTracker(p.progress, len(items), p.batchSize)
	progress.Start()
	defer progress.Finish()

	pending := p.fillFromCache(ctx, items)
	progress.Cached(len(items) - len(pending))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for batch := range slices.Chunk(pending, p.batchSize) {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			if err := p.embedBatch(ctx, items, batch); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}
			progress.Embedded(len(batch))
		}
		if err := p.pool.Submit(task); err != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, fmt.Errorf("submitting embedding batch: %w", err))
			mu.Unlock()
			break
		}
	}
	wg.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("embedding chunks: %w", errors.Join(errs...))
	}
	return nil
}

// fillFromCache copies cached vectors into items and returns the indices of
// items still needing a vector. Cache failures only cost recomputation.
func (p *Pipeline) fillFromCache(ctx context.Context, items []workItem) []int {
	pending := make([]int, 0, len(items))
	if p.cache == nil {
		for i := range items {
			pending = append(pending, i)
		}
		return pending
	}

	ids := make([]core.ID, len(items))
	for i := range items {
		ids[i] = items[i].id
	}
	found, err := p.cache.GetEmbeddings(ctx, p.model, ids...)
	if err != nil {
		p.logger.Warn("embedding cache lookup failed", "err", err)
		found = nil
	}

	for i := range items {
		if v, ok := found[items[i].id]; ok {
			items[i].vector = v
			continue
		}
		pending = append(pending, i)
	}
	p.logger.Debug("embedding cache", "hits", len(items)-len(pending), "misses", len(pending))
	return pending
}

// embedBatch embeds items[batch...] with retries and stores the vectors in place.
func (p *Pipeline) embedBatch(ctx context.Context, items []workItem, batch []int) error {
	texts := make([]string, len(batch))
	for i, idx := range batch {
		texts[i] = items[idx].content
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, p.logger, func() error {
		var err error
		vectors, err = p.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("%w: expected %d, received %d", ErrEmbeddingMismatch, len(texts), len(vectors))
		}
		for i, v := range vectors {
			if err := core.ValidateVector(v); err != nil {
				return fmt.Errorf("%s: %w", items[batch[i]].path, err)
			}
		}
		return nil
	}, p.maxAttempts, p.baseDelay)
	if err != nil {
		return fmt.Errorf("batch starting at %s: %w", items[batch[0]].path, err)
	}

	cached := make([]storage.CachedEmbedding, len(batch))
	for i, idx := range batch {
		items[idx].vector = vectors[i]
		cached[i] = storage.CachedEmbedding{ID: items[idx].id, Vector: vectors[i]}
	}

	if p.cache != nil {
		if err := p.cache.PutEmbeddings(ctx, p.model, cached...); err != nil {
			p.logger.Warn("could not cache embeddings", "err", err)
		}
	}
	return nil
}

// writeMetadata writes <outputDir>/<category>/<chunk_id>.json.
func writeMetadata(outputDir string, meta *core.ChunkMetadata) error {
	dir := filepath.Join(outputDir, meta.Category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating category directory: %w", err)
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding chunk metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, meta.ChunkID+".json"), data, 0o644); err != nil {
		return fmt.Errorf("writing chunk metadata: %w", err)
	}
	return nil
}

// writeAggregate writes every record, vectors included, grouped by category.
func writeAggregate(path string, records []core.EmbeddingRecord) error {
	grouped := make(map[string][]core.EmbeddingRecord)
	for _, r := range records {
		grouped[r.Category] = append(grouped[r.Category], r)
	}
	data, err := json.Marshal(grouped)
	if err != nil {
		return fmt.Errorf("encoding aggregate: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing aggregate: %w", err)
	}
	return nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
