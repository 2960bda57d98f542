package core

import (
	"encoding/binary"
	"path/filepath"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Document is one crawled page: its raw text plus provenance.
type Document struct {
	SourceID string // file name the crawler wrote, e.g. "about-us.txt"
	URL      string
	Title    string
	Text     string
}

// Slug returns the source identifier without its extension.
func (d *Document) Slug() string {
	return strings.TrimSuffix(d.SourceID, filepath.Ext(d.SourceID))
}

// Chunk is a sentence-aligned span of a Document's text.
type Chunk struct {
	SourceID  string
	URL       string
	Title     string
	Index     int // 0-based position within the source document
	Text      string
	WordCount int
	CharCount int
}

// ChunkSummary is one entry of the chunking summary, in emission order.
// Empty URL and Title mean the crawler provided no provenance.
type ChunkSummary struct {
	Source     string `json:"source"`
	ChunkIndex int    `json:"chunk_index"`
	ChunkFile  string `json:"chunk_file_path"`
	WordCount  int    `json:"word_count"`
	CharCount  int    `json:"char_count"`
	URL        string `json:"url"`
	Title      string `json:"title"`
}

// ChunkMetadata is the persisted per-chunk record. It never carries the vector.
type ChunkMetadata struct {
	ChunkID    string `json:"chunk_id"`
	Category   string `json:"category"`
	FilePath   string `json:"file_path"`
	Content    string `json:"content"`
	Source     string `json:"source"`
	ChunkIndex int    `json:"chunk_index"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	WordCount  int    `json:"word_count"`
	CharCount  int    `json:"char_count"`
}

// Entry projects the metadata onto the aggregate index row.
func (m *ChunkMetadata) Entry() IndexEntry {
	return IndexEntry{
		ChunkID:  m.ChunkID,
		Category: m.Category,
		FilePath: m.FilePath,
		Content:  m.Content,
		URL:      m.URL,
		Title:    m.Title,
	}
}

// EmbeddingRecord is a chunk's metadata plus its vector.
type EmbeddingRecord struct {
	ChunkMetadata
	Vector []float32 `json:"embedding"`
}

// IndexEntry is one row of the aggregate metadata sequence.
// Entry i always describes row i of the vector matrix.
type IndexEntry struct {
	ChunkID  string `json:"chunk_id"`
	Category string `json:"category"`
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
	URL      string `json:"url"`
	Title    string `json:"title"`
}

// SearchResult is an index row annotated with its squared L2 distance to the query.
type SearchResult struct {
	IndexEntry
	Row      int     `json:"-"`
	Distance float32 `json:"distance"`
}
