package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/poiesic/sitesearch/ai"
	"github.com/poiesic/sitesearch/core"
	"github.com/poiesic/sitesearch/index"
)

// Retriever serves top-k queries against one loaded index.
type Retriever struct {
	embedder ai.Embedder
	ix       atomic.Pointer[index.Index]
	metrics  *Metrics
	logger   *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithEmbedder sets the embedder used by FindSimilar. It must be the model
// that produced the index vectors.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(r *Retriever) error {
		r.embedder = embedder
		return nil
	}
}

// WithIndex installs an already built index.
func WithIndex(ix *index.Index) Option {
	return func(r *Retriever) error {
		r.ix.Store(ix)
		return nil
	}
}

// WithMetrics records every query that is not given its own monitor.
func WithMetrics(metrics *Metrics) Option {
	return func(r *Retriever) error {
		r.metrics = metrics
		return nil
	}
}

// NewRetriever creates a Retriever. Without WithIndex it stays uninitialized
// until Load is called.
func NewRetriever(opts ...Option) (*Retriever, error) {
	r := &Retriever{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "retriever")
	return r, nil
}

// Load reads the index persisted in dir and installs it.
func (r *Retriever) Load(dir string) error {
	ix, err := index.Load(dir)
	if err != nil {
		return fmt.Errorf("loading index from %s: %w", dir, err)
	}
	r.ix.Store(ix)
	r.logger.Info("index loaded", "dir", dir, "rows", ix.Len(), "dim", ix.Dim())
	return nil
}

// Loaded reports whether an index is installed.
func (r *Retriever) Loaded() bool {
	return r.ix.Load() != nil
}

// Index returns the installed index, or nil.
func (r *Retriever) Index() *index.Index {
	return r.ix.Load()
}

// Search returns the k rows nearest to query, closest first.
func (r *Retriever) Search(query []float32, k int) ([]core.SearchResult, error) {
	return r.SearchWithMonitor(query, k, nil)
}

// SearchWithMonitor is Search with monitoring.
func (r *Retriever) SearchWithMonitor(query []float32, k int, monitor SearchMonitor) ([]core.SearchResult, error) {
	if monitor == nil {
		monitor = r.defaultMonitor()
	}
	ix := r.ix.Load()
	if ix == nil {
		return nil, ErrNotInitialized
	}

	results, err := ix.Search(query, k)
	if err != nil {
		return nil, err
	}
	monitor.AfterScan(ix.Len())
	monitor.Finish(results)
	return results, nil
}

// FindSimilar embeds text and returns the k nearest chunks, closest first.
func (r *Retriever) FindSimilar(ctx context.Context, text string, k int) ([]core.SearchResult, error) {
	return r.FindSimilarWithMonitor(ctx, text, k, nil)
}

// FindSimilarWithMonitor is FindSimilar with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (r *Retriever) FindSimilarWithMonitor(ctx context.Context, text string, k int, monitor SearchMonitor) ([]core.SearchResult, error) {
	if monitor == nil {
		monitor = r.defaultMonitor()
	}
	if !r.Loaded() {
		return nil, ErrNotInitialized
	}
	if r.embedder == nil {
		return nil, ErrEmbedderRequired
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyQuery
	}

	monitor.Start(text)

	vector, err := r.embedder.EmbedText(ctx, text)
	if err != nil {
		r.logger.Error("error generating embedding for query", "query", text, "err", err)
		return nil, err
	}
	monitor.AfterEmbedding(vector)

	results, err := r.SearchWithMonitor(vector, k, monitor)
	if err != nil {
		r.logger.Error("error searching index", "err", err)
		return nil, err
	}
	r.logger.Debug("query answered", "query", text, "hits", len(results))
	return results, nil
}

func (r *Retriever) defaultMonitor() SearchMonitor {
	if r.metrics != nil {
		return r.metrics.Monitor()
	}
	return &noopMonitor{}
}
