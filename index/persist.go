package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/poiesic/sitesearch/core"
)

const (
	// MatrixFile is the name of the persisted vector matrix.
	MatrixFile = "embeddings.npy"

	// MetadataFile is the name of the persisted metadata sequence.
	MetadataFile = "metadata.json"
)

// Save writes ix to dir as MatrixFile and MetadataFile, creating dir if needed.
func Save(dir string, ix *Index) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, MatrixFile))
	if err != nil {
		return fmt.Errorf("creating matrix file: %w", err)
	}
	if err := writeNPY(f, ix.data, ix.Len(), ix.dim); err != nil {
		f.Close()
		return fmt.Errorf("writing matrix file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing matrix file: %w", err)
	}

	entries := ix.entries
	if entries == nil {
		entries = []core.IndexEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, MetadataFile), data, 0o644); err != nil {
		return fmt.Errorf("writing metadata file: %w", err)
	}
	return nil
}

// Load reads an index written by Save.
func Load(dir string) (*Index, error) {
	f, err := os.Open(filepath.Join(dir, MatrixFile))
	if err != nil {
		return nil, fmt.Errorf("opening matrix file: %w", err)
	}
	defer f.Close()

	data, rows, dim, err := readNPY(f)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("reading metadata file: %w", err)
	}
	var entries []core.IndexEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}

	return fromMatrix(data, rows, dim, entries)
}
