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

package chunking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/poiesic/sitesearch/core"
)

// Processor chunks a directory of crawled pages into per-page chunk directories.
type Processor struct {
	chunker *Chunker
	logger  *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor) error

// WithProcessorLogger sets a custom logger.
// Default is slog.Default().
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewProcessor creates a Processor around chunker.
func NewProcessor(chunker *Chunker, opts ...ProcessorOption) (*Processor, error) {
	if chunker == nil {
		return nil, ErrChunkerRequired
	}
	p := &Processor{
		chunker: chunker,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("processor", "chunking")
	return p, nil
}

// sidecar is the optional <slug>.json the crawler writes next to each page.
type sidecar struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// LoadDocuments reads every *.txt file in dir, in name order, together with
// its optional <slug>.json sidecar. A sidecar that cannot be read leaves the
// document without provenance. A page that cannot be read is skipped.
func (p *Processor) LoadDocuments(dir string) ([]core.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputDirNotFound, dir)
		}
		return nil, fmt.Errorf("reading input directory: %w", err)
	}

	var docs []core.Document
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".txt" {
			continue
		}
		doc := core.Document{SourceID: entry.Name()}

		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			p.logger.Warn("could not read page, skipping", "file", entry.Name(), "err", err)
			continue
		}
		doc.Text = string(raw)

		meta, err := readSidecar(filepath.Join(dir, doc.Slug()+".json"))
		if err != nil {
			p.logger.Warn("could not read sidecar", "file", doc.Slug()+".json", "err", err)
		}
		doc.URL = meta.URL
		doc.Title = meta.Title

		docs = append(docs, doc)
	}
	return docs, nil
}

func readSidecar(path string) (sidecar, error) {
	var meta sidecar
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return meta, nil
		}
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return sidecar{}, err
	}
	return meta, nil
}

// Process chunks every page in inputDir and writes
// <outputDir>/<slug>/chunk_NNN.txt. It returns one summary entry per chunk
// written, in emission order. Empty pages, pages that yield no chunks and
// chunk files that cannot be written are skipped with a log entry.
func (p *Processor) Process(ctx context.Context, inputDir, outputDir string) ([]core.ChunkSummary, error) {
	docs, err := p.LoadDocuments(inputDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if len(docs) == 0 {
		p.logger.Warn("no .txt files found", "dir", inputDir)
		return nil, nil
	}

	p.logger.Info("processing pages", "pages", len(docs), "dir", inputDir)

	var summary []core.ChunkSummary
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		doc := &docs[i]

		if strings.TrimSpace(doc.Text) == "" {
			p.logger.Warn("page is empty, skipping", "file", doc.SourceID)
			continue
		}

		chunks := p.chunker.Chunk(doc)
		if len(chunks) == 0 {
			p.logger.Warn("no chunks created", "file", doc.SourceID)
			continue
		}

		docDir := filepath.Join(outputDir, doc.Slug())
		if err := os.MkdirAll(docDir, 0o755); err != nil {
			p.logger.Error("could not create chunk directory, skipping page", "dir", docDir, "err", err)
			continue
		}

		written := 0
		for _, chunk := range chunks {
			path := filepath.Join(docDir, ChunkFileName(chunk.Index))
			if err := os.WriteFile(path, []byte(chunk.Text), 0o644); err != nil {
				p.logger.Error("error saving chunk", "file", doc.SourceID, "chunk", chunk.Index, "err", err)
				continue
			}
			summary = append(summary, core.ChunkSummary{
				Source:     chunk.SourceID,
				ChunkIndex: chunk.Index,
				ChunkFile:  path,
				WordCount:  chunk.WordCount,
				CharCount:  chunk.CharCount,
				URL:        chunk.URL,
				Title:      chunk.Title,
			})
			written++
		}
		p.logger.Debug("chunked page", "file", doc.SourceID, "chunks", written)
	}

	return summary, nil
}

// ChunkFileName returns the file name for the chunk at index.
func ChunkFileName(index int) string {
	return fmt.Sprintf("chunk_%03d.txt", index)
}

// WriteSummary writes the chunking summary as indented JSON.
func WriteSummary(path string, entries []core.ChunkSummary) error {
	if entries == nil {
		entries = []core.ChunkSummary{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding chunk summary: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating summary directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing chunk summary: %w", err)
	}
	return nil
}

// ReadSummary reads a chunking summary written by WriteSummary.
func ReadSummary(path string) ([]core.ChunkSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []core.ChunkSummary
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding chunk summary: %w", err)
	}
	return entries, nil
}

// Stats describes a chunking run.
type Stats struct {
	Chunks   int
	Sources  int
	AvgWords float64
	MinWords int
	MaxWords int
}

// ComputeStats summarizes entries. The zero Stats is returned for no entries.
func ComputeStats(entries []core.ChunkSummary) Stats {
	if len(entries) == 0 {
		return Stats{}
	}

	sources := make(map[string]struct{})
	counts := make([]int, len(entries))
	total := 0
	for i, e := range entries {
		sources[e.Source] = struct{}{}
		counts[i] = e.WordCount
		total += e.WordCount
	}

	return Stats{
		Chunks:   len(entries),
		Sources:  len(sources),
		AvgWords: float64(total) / float64(len(entries)),
		MinWords: slices.Min(counts),
		MaxWords: slices.Max(counts),
	}
}
