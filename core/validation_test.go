package core

import (
	"errors"
	"math"
	"testing"
)

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr error
	}{
		{
			name:    "valid chunk",
			chunk:   &Chunk{Text: "Hello world.", Index: 0, WordCount: 2},
			wantErr: nil,
		},
		{
			name:    "valid chunk without provenance",
			chunk:   &Chunk{Text: "Hello world.", Index: 3},
			wantErr: nil,
		},
		{
			name:    "nil chunk",
			chunk:   nil,
			wantErr: ErrInvalidChunk,
		},
		{
			name:    "empty text",
			chunk:   &Chunk{Text: ""},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "whitespace text",
			chunk:   &Chunk{Text: " \n\t "},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "negative index",
			chunk:   &Chunk{Text: "Hello.", Index: -1},
			wantErr: ErrInvalidChunkIndex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidChunk) {
				t.Errorf("ValidateChunk() error = %v should wrap ErrInvalidChunk", err)
			}
		})
	}
}

func TestValidateVector(t *testing.T) {
	tests := []struct {
		name    string
		vector  []float32
		wantErr bool
	}{
		{"valid", []float32{0.1, -0.2, 0.3}, false},
		{"zero vector is valid", []float32{0, 0}, false},
		{"empty", nil, true},
		{"nan", []float32{0.1, float32(math.NaN())}, true},
		{"inf", []float32{float32(math.Inf(1))}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVector(tt.vector)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVector() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidVector) {
				t.Errorf("ValidateVector() error = %v should wrap ErrInvalidVector", err)
			}
		})
	}
}

func TestValidateQuery(t *testing.T) {
	if err := ValidateQuery([]float32{1, 2, 3, 4}, 4); err != nil {
		t.Errorf("ValidateQuery() unexpected error = %v", err)
	}

	err := ValidateQuery([]float32{1, 2, 3}, 4)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("ValidateQuery() error = %v, want %v", err, ErrDimensionMismatch)
	}
}
