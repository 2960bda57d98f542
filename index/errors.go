package index

import "errors"

var (
	// ErrMisaligned is returned when the matrix row count and the metadata length differ.
	ErrMisaligned = errors.New("vectors and metadata are misaligned")

	// ErrInvalidMatrix is returned when a persisted matrix cannot be decoded.
	ErrInvalidMatrix = errors.New("invalid matrix file")
)
