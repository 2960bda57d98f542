package chunking

import (
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/sitesearch/core"
)

const (
	// DefaultChunkSize is the default maximum number of words per chunk.
	DefaultChunkSize = 200

	// DefaultOverlap is the default maximum number of words carried into the next chunk.
	DefaultOverlap = 50
)

// Chunker splits text into overlapping, sentence-aligned chunks.
// A Chunker is immutable after construction and safe for concurrent use.
type Chunker struct {
	chunkSize int
	overlap   int
	splitter  SentenceSplitter
	logger    *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithChunkSize sets the maximum number of words per chunk.
// Default is 200.
func WithChunkSize(size int) Option {
	return func(c *Chunker) error {
		if size < 1 {
			return ErrInvalidChunkSize
		}
		c.chunkSize = size
		return nil
	}
}

// WithOverlap sets the maximum number of words of trailing context
// carried from one chunk into the next. Default is 50.
func WithOverlap(words int) Option {
	return func(c *Chunker) error {
		if words < 0 {
			return ErrInvalidOverlap
		}
		c.overlap = words
		return nil
	}
}

// WithSplitter replaces the sentence splitter.
// Default is the English Punkt model.
func WithSplitter(splitter SentenceSplitter) Option {
	return func(c *Chunker) error {
		c.splitter = splitter
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewChunker creates a Chunker. An overlap that is not smaller than the
// chunk size is clamped to a quarter of the chunk size.
func NewChunker(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "chunker")

	if c.overlap >= c.chunkSize {
		clamped := c.chunkSize / 4
		c.logger.Warn("overlap not smaller than chunk size, clamping",
			"overlap", c.overlap, "chunkSize", c.chunkSize, "clamped", clamped)
		c.overlap = clamped
	}

	if c.splitter == nil {
		splitter, err := NewPunktSplitter()
		if err != nil {
			// sentencesOf falls back to period splitting for a nil splitter
			c.logger.Warn("sentence tokenizer unavailable, using simple split", "err", err)
		} else {
			c.splitter = splitter
		}
	}

	return c, nil
}

// ChunkSize returns the maximum number of words per chunk.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the maximum number of overlap words.
func (c *Chunker) Overlap() int { return c.overlap }

// Split chunks text. Empty or whitespace-only text yields no chunks.
// Text in which no sentence is detected comes back as a single trimmed chunk.
func (c *Chunker) Split(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	sents := sentencesOf(c.splitter, text, c.logger)
	if len(sents) == 0 {
		return []string{trimmed}
	}

	var (
		chunks  []string
		pending []string
		counts  []int
		words   int
	)

	emit := func(parts []string) {
		if chunk := strings.TrimSpace(strings.Join(parts, " ")); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, sentence := range sents {
		n := wordCount(sentence)

		if n > c.chunkSize {
			if len(pending) > 0 {
				emit(pending)
				pending, counts, words = nil, nil, 0
			}
			fields := strings.Fields(sentence)
			for start := 0; start < len(fields); start += c.chunkSize {
				end := min(start+c.chunkSize, len(fields))
				emit(fields[start:end])
			}
			continue
		}

		if words+n > c.chunkSize && len(pending) > 0 {
			emit(pending)
			pending, counts, words = c.overlapTail(pending, counts)
			// keep the next chunk within budget by giving up leading overlap
			for len(pending) > 0 && words+n > c.chunkSize {
				words -= counts[0]
				pending, counts = pending[1:], counts[1:]
			}
		}

		pending = append(pending, sentence)
		counts = append(counts, n)
		words += n
	}

	if len(pending) > 0 {
		emit(pending)
	}

	return chunks
}

// overlapTail returns the longest suffix of sents whose word total stays
// within the overlap budget.
func (c *Chunker) overlapTail(sents []string, counts []int) ([]string, []int, int) {
	start := len(sents)
	total := 0
	for j := len(sents) - 1; j >= 0 && total < c.overlap; j-- {
		if total+counts[j] > c.overlap {
			break
		}
		total += counts[j]
		start = j
	}

	return slices.Clone(sents[start:]), slices.Clone(counts[start:]), total
}

// Chunk splits a document and attaches its provenance to every chunk.
func (c *Chunker) Chunk(doc *core.Document) []core.Chunk {
	texts := c.Split(doc.Text)
	chunks := make([]core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = core.Chunk{
			SourceID:  doc.SourceID,
			URL:       doc.URL,
			Title:     doc.Title,
			Index:     i,
			Text:      text,
			WordCount: wordCount(text),
			CharCount: utf8.RuneCountInString(text),
		}
	}
	return chunks
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
