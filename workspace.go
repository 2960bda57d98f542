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

package sitesearch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/sitesearch/ai"
	"github.com/poiesic/sitesearch/ai/openai"
	"github.com/poiesic/sitesearch/chunking"
	"github.com/poiesic/sitesearch/config"
	"github.com/poiesic/sitesearch/core"
	"github.com/poiesic/sitesearch/ingestion"
	"github.com/poiesic/sitesearch/search"
	"github.com/poiesic/sitesearch/storage"
	"github.com/poiesic/sitesearch/storage/badger"
	"github.com/prometheus/client_golang/prometheus"
)

// Workspace ties the pipeline stages to one configuration and one embedding
// provider, so that the index and its queries share a model.
type Workspace struct {
	cfg      *config.File
	backend  *badger.Backend
	cache    storage.EmbeddingCache
	provider ai.AIProvider
	metrics  *search.Metrics
	logger   *slog.Logger
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*workspaceOptions)

type workspaceOptions struct {
	provider   ai.AIProvider
	registerer prometheus.Registerer
	logger     *slog.Logger
}

// WithProvider uses provider instead of an OpenAI-compatible provider built
// from the [embedding] table. The Workspace takes ownership of it.
func WithProvider(provider ai.AIProvider) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.provider = provider
	}
}

// WithRegisterer registers retrieval metrics with reg. Every retriever the
// workspace opens records its queries there.
func WithRegisterer(reg prometheus.Registerer) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.registerer = reg
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) WorkspaceOption {
	return func(o *workspaceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewWorkspace validates cfg and opens the resources it names. A nil cfg
// means config.Default().
func NewWorkspace(cfg *config.File, opts ...WorkspaceOption) (*Workspace, error) {
	options := &workspaceOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	if cfg == nil {
		cfg = config.Default()
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ws := &Workspace{
		cfg:    cfg,
		logger: options.logger.With("component", "workspace"),
	}

	if options.registerer != nil {
		metrics, err := search.NewMetrics(options.registerer)
		if err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
		ws.metrics = metrics
	}

	if cfg.Paths.Cache != "" {
		backend, err := badger.OpenBackend(cfg.Paths.Cache, false)
		if err != nil {
			return nil, fmt.Errorf("opening embedding cache: %w", err)
		}
		cache, err := badger.NewEmbeddingCache(backend)
		if err != nil {
			backend.Close()
			return nil, err
		}
		ws.backend = backend
		ws.cache = cache
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(cfg.AIConfig())
		if err != nil {
			ws.closeCache()
			return nil, err
		}
	}
	ws.provider = provider

	return ws, nil
}

// Close releases the provider and the cache.
func (ws *Workspace) Close() error {
	if err := ws.provider.Close(); err != nil {
		ws.logger.Error("error closing AI provider", "err", err)
	}
	return ws.closeCache()
}

func (ws *Workspace) closeCache() error {
	if ws.cache == nil {
		return nil
	}
	if err := ws.cache.Close(); err != nil {
		ws.logger.Error("error closing embedding cache", "err", err)
		return err
	}
	if err := ws.backend.Close(); err != nil {
		ws.logger.Error("error closing cache storage", "err", err)
		return err
	}
	return nil
}

func (ws *Workspace) Config() *config.File {
	return ws.cfg
}

func (ws *Workspace) Provider() ai.AIProvider {
	return ws.provider
}

// Cache returns the embedding cache, or nil when caching is disabled.
func (ws *Workspace) Cache() storage.EmbeddingCache {
	return ws.cache
}

// NewChunkProcessor returns a Processor whose chunker follows [chunking].
func (ws *Workspace) NewChunkProcessor(opts ...chunking.ProcessorOption) (*chunking.Processor, error) {
	chunker, err := chunking.NewChunker(
		chunking.WithChunkSize(ws.cfg.Chunking.ChunkSize),
		chunking.WithOverlap(ws.cfg.Chunking.Overlap),
		chunking.WithLogger(ws.logger),
	)
	if err != nil {
		return nil, err
	}
	opts = append([]chunking.ProcessorOption{chunking.WithProcessorLogger(ws.logger)}, opts...)
	return chunking.NewProcessor(chunker, opts...)
}

// Chunk splits every page under paths.raw into paths.chunks and writes the
// summary to paths.summary.
func (ws *Workspace) Chunk(ctx context.Context) ([]core.ChunkSummary, error) {
	processor, err := ws.NewChunkProcessor()
	if err != nil {
		return nil, err
	}
	summary, err := processor.Process(ctx, ws.cfg.Paths.Raw, ws.cfg.Paths.Chunks)
	if err != nil {
		return nil, err
	}
	if err := chunking.WriteSummary(ws.cfg.Paths.Summary, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// NewPipeline returns a Pipeline configured from [embedding] and [paths].
// opts are applied last. The caller must Release the pipeline.
func (ws *Workspace) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	delay, err := ws.cfg.Embedding.Delay()
	if err != nil {
		return nil, err
	}

	base := []ingestion.Option{
		ingestion.WithLogger(ws.logger),
		ingestion.WithBatchSize(ws.cfg.Embedding.BatchSize),
		ingestion.WithRetry(ws.cfg.Embedding.MaxAttempts, delay),
		ingestion.WithSummary(ws.cfg.Paths.Summary),
		ingestion.WithIndexDir(ws.cfg.IndexDir()),
		ingestion.WithAggregateDump(ws.cfg.Embedding.Aggregate),
	}
	if ws.cfg.Embedding.PoolSize > 0 {
		base = append(base, ingestion.WithPoolSize(ws.cfg.Embedding.PoolSize))
	}
	if ws.cache != nil {
		base = append(base, ingestion.WithCache(ws.cache))
	}
	return ingestion.NewPipeline(ws.provider, append(base, opts...)...)
}

// Embed embeds paths.chunks into paths.embeddings and saves the index.
func (ws *Workspace) Embed(ctx context.Context, opts ...ingestion.Option) (*ingestion.Result, error) {
	pipeline, err := ws.NewPipeline(opts...)
	if err != nil {
		return nil, err
	}
	defer pipeline.Release()

	return pipeline.Run(ctx, ws.cfg.Paths.Chunks, ws.cfg.Paths.Embeddings)
}

// OpenRetriever loads the saved index and returns a Retriever that embeds
// queries with the workspace provider.
func (ws *Workspace) OpenRetriever(opts ...search.Option) (*search.Retriever, error) {
	base := []search.Option{
		search.WithLogger(ws.logger),
		search.WithEmbedder(ws.provider.Embedder()),
	}
	if ws.metrics != nil {
		base = append(base, search.WithMetrics(ws.metrics))
	}
	retriever, err := search.NewRetriever(append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	if err := retriever.Load(ws.cfg.IndexDir()); err != nil {
		return nil, err
	}
	return retriever, nil
}
