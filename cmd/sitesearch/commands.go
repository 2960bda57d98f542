package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/sitesearch"
	"github.com/poiesic/sitesearch/chunking"
	"github.com/poiesic/sitesearch/config"
	"github.com/poiesic/sitesearch/core"
	"github.com/poiesic/sitesearch/index"
	"github.com/poiesic/sitesearch/ingestion"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

const snippetRunes = 200

// extraWorkspaceOptions are appended when a command opens its workspace.
var extraWorkspaceOptions []sitesearch.WorkspaceOption

// loadConfig reads --config and applies the command's flags on top of it.
func loadConfig(c *cli.Context) (*config.File, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	strs := map[string]*string{
		"raw":             &cfg.Paths.Raw,
		"chunks":          &cfg.Paths.Chunks,
		"summary":         &cfg.Paths.Summary,
		"embeddings":      &cfg.Paths.Embeddings,
		"index":           &cfg.Paths.Index,
		"cache":           &cfg.Paths.Cache,
		"embedding-host":  &cfg.Embedding.Host,
		"embedding-model": &cfg.Embedding.Model,
		"api-key":         &cfg.Embedding.APIKey,
	}
	for name, dst := range strs {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	if c.IsSet("chunks") && !c.IsSet("summary") {
		cfg.Paths.Summary = filepath.Join(cfg.Paths.Chunks, config.SummaryFile)
	}

	ints := map[string]*int{
		"chunk-size":   &cfg.Chunking.ChunkSize,
		"overlap":      &cfg.Chunking.Overlap,
		"batch-size":   &cfg.Embedding.BatchSize,
		"pool-size":    &cfg.Embedding.PoolSize,
		"max-attempts": &cfg.Embedding.MaxAttempts,
		"top-k":        &cfg.Search.TopK,
	}
	for name, dst := range ints {
		if c.IsSet(name) {
			*dst = c.Int(name)
		}
	}
	if c.IsSet("retry-delay") {
		cfg.Embedding.RetryDelay = c.Duration("retry-delay").String()
	}
	if c.Bool("no-aggregate") {
		cfg.Embedding.Aggregate = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openWorkspace(c *cli.Context, opts ...sitesearch.WorkspaceOption) (*sitesearch.Workspace, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	ws, err := sitesearch.NewWorkspace(cfg, append(opts, extraWorkspaceOptions...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace: %w", err)
	}
	return ws, nil
}

func chunkCommand(c *cli.Context) error {
	ws, err := openWorkspace(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	return runChunk(c, ws)
}

func runChunk(c *cli.Context, ws *sitesearch.Workspace) error {
	out := c.App.Writer
	cfg := ws.Config()

	fmt.Fprintf(out, "Raw pages: %s\n", cfg.Paths.Raw)
	fmt.Fprintf(out, "Chunk size: %d words, overlap: %d words\n", cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)
	fmt.Fprintln(out)

	summary, err := ws.Chunk(c.Context)
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}
	if len(summary) == 0 {
		fmt.Fprintln(out, "No documents were processed successfully.")
		return nil
	}

	stats := chunking.ComputeStats(summary)
	fmt.Fprintln(out, "SUMMARY:")
	fmt.Fprintf(out, "Total chunks created: %d\n", stats.Chunks)
	fmt.Fprintf(out, "Source files processed: %d\n", stats.Sources)
	fmt.Fprintf(out, "Chunks saved to: %s\n", cfg.Paths.Chunks)
	fmt.Fprintf(out, "Metadata saved to: %s\n", cfg.Paths.Summary)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Chunk statistics:")
	fmt.Fprintf(out, "  Average words per chunk: %.1f\n", stats.AvgWords)
	fmt.Fprintf(out, "  Min words per chunk: %d\n", stats.MinWords)
	fmt.Fprintf(out, "  Max words per chunk: %d\n", stats.MaxWords)
	return nil
}

func embedCommand(c *cli.Context) error {
	ws, err := openWorkspace(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	return runEmbed(c, ws)
}

func runEmbed(c *cli.Context, ws *sitesearch.Workspace) error {
	out := c.App.Writer
	cfg := ws.Config()

	fmt.Fprintf(out, "Chunks: %s\n", cfg.Paths.Chunks)
	fmt.Fprintf(out, "Embedding host: %s\n", cfg.Embedding.Host)
	fmt.Fprintf(out, "Embedding model: %s\n", cfg.Embedding.Model)
	if cfg.Paths.Cache != "" {
		fmt.Fprintf(out, "Embedding cache: %s\n", cfg.Paths.Cache)
	}
	fmt.Fprintln(out)

	var opts []ingestion.Option
	if c.Bool("progress") {
		opts = append(opts, ingestion.WithProgress(os.Stderr))
	}

	result, err := ws.Embed(c.Context, opts...)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	fmt.Fprintf(out, "Embedded %d chunks", len(result.Records))
	if len(result.Skipped) > 0 {
		fmt.Fprintf(out, " (%d skipped)", len(result.Skipped))
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Embeddings saved to: %s\n", cfg.Paths.Embeddings)
	fmt.Fprintf(out, "Index saved to: %s (%d rows, %d dimensions)\n", cfg.IndexDir(), result.Index.Len(), result.Index.Dim())
	return nil
}

func buildCommand(c *cli.Context) error {
	ws, err := openWorkspace(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := runChunk(c, ws); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer)
	return runEmbed(c, ws)
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("query text is required")
	}

	var (
		reg  *prometheus.Registry
		opts []sitesearch.WorkspaceOption
	)
	metricsPath := c.String("metrics")
	if metricsPath != "" {
		reg = prometheus.NewRegistry()
		opts = append(opts, sitesearch.WithRegisterer(reg))
	}

	ws, err := openWorkspace(c, opts...)
	if err != nil {
		return err
	}
	defer ws.Close()

	retriever, err := ws.OpenRetriever()
	if err != nil {
		return err
	}

	results, err := retriever.FindSimilar(c.Context, query, ws.Config().Search.TopK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	printResults(c.App.Writer, results)

	if reg != nil {
		if err := prometheus.WriteToTextfile(metricsPath, reg); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

func printResults(out io.Writer, results []core.SearchResult) {
	fmt.Fprintf(out, "Found %d results\n", len(results))
	for i, hit := range results {
		fmt.Fprintf(out, "%d. %s [%.3f]\n", i+1, displayTitle(hit.IndexEntry), hit.Distance)
		if hit.URL != "" {
			fmt.Fprintf(out, "   %s\n", hit.URL)
		}
		fmt.Fprintf(out, "   %s\n", snippet(hit.Content, snippetRunes))
	}
}

// displayTitle falls back to the category, so "about-us" reads
// "About Us Information".
func displayTitle(entry core.IndexEntry) string {
	if entry.Title != "" {
		return entry.Title
	}
	words := strings.Fields(strings.ReplaceAll(entry.Category, "-", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.TrimSpace(strings.Join(words, " ") + " Information")
}

func snippet(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:limit])) + "..."
}

func inspectCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ix, err := index.Load(cfg.IndexDir())
	if err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}

	out := c.App.Writer
	fmt.Fprintf(out, "Index: %s\n", cfg.IndexDir())
	fmt.Fprintf(out, "Rows: %d\n", ix.Len())
	fmt.Fprintf(out, "Dimensions: %d\n", ix.Dim())

	counts := ix.CategoryCounts()
	categories := make([]string, 0, len(counts))
	for category := range counts {
		categories = append(categories, category)
	}
	slices.Sort(categories)

	fmt.Fprintf(out, "Categories: %d\n", len(categories))
	for _, category := range categories {
		fmt.Fprintf(out, "  %s: %d\n", category, counts[category])
	}
	return nil
}
