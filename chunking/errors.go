package chunking

import "errors"

var (
	// ErrInvalidChunkSize is returned when the chunk size is less than one word.
	ErrInvalidChunkSize = errors.New("chunk size must be at least 1")

	// ErrInvalidOverlap is returned when the overlap is negative.
	ErrInvalidOverlap = errors.New("overlap must not be negative")

	// ErrInputDirNotFound is returned when the raw document directory does not exist.
	ErrInputDirNotFound = errors.New("input directory not found")

	// ErrChunkerRequired is returned when a processor is created without a chunker.
	ErrChunkerRequired = errors.New("chunker required")
)
