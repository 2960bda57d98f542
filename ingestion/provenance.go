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

package ingestion

import (
	"errors"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/poiesic/sitesearch/chunking"
	"github.com/poiesic/sitesearch/core"
)

// Provenance is the originating page of a chunk and its position there.
type Provenance struct {
	Source     string
	ChunkIndex int
	URL        string
	Title      string
}

// ProvenanceTable maps canonical chunk keys to page provenance.
// It is built once and read-only afterwards.
type ProvenanceTable struct {
	byKey map[string]Provenance
}

// CanonicalKey reduces a chunk file path to "<category>/<file>". Both '/'
// and backslash separate segments, so paths written on any platform agree.
func CanonicalKey(path string) string {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return parts[len(parts)-2] + "/" + parts[len(parts)-1]
	}
}

// NewProvenanceTable indexes summary entries by the canonical key of their
// chunk file. When two entries share a key the first one wins.
func NewProvenanceTable(entries []core.ChunkSummary) *ProvenanceTable {
	t := &ProvenanceTable{byKey: make(map[string]Provenance, len(entries))}
	for _, e := range entries {
		key := CanonicalKey(e.ChunkFile)
		if key == "" {
			continue
		}
		if _, exists := t.byKey[key]; exists {
			continue
		}
		t.byKey[key] = Provenance{
			Source:     e.Source,
			ChunkIndex: e.ChunkIndex,
			URL:        e.URL,
			Title:      e.Title,
		}
	}
	return t
}

// LoadProvenance reads the chunking summary at path. A missing or unreadable
// summary yields an empty table and a warning; every lookup then misses.
func LoadProvenance(path string, logger *slog.Logger) *ProvenanceTable {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		logger.Warn("no chunking summary configured, url and title will be empty")
		return NewProvenanceTable(nil)
	}

	entries, err := chunking.ReadSummary(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("chunking summary not found, url and title will be empty", "path", path)
		} else {
			logger.Warn("could not read chunking summary, url and title will be empty", "path", path, "err", err)
		}
		return NewProvenanceTable(nil)
	}

	t := NewProvenanceTable(entries)
	logger.Debug("loaded chunking summary", "path", path, "entries", len(entries), "keys", t.Len())
	return t
}

// Lookup returns the provenance of the chunk file at path.
func (t *ProvenanceTable) Lookup(path string) (Provenance, bool) {
	p, ok := t.byKey[CanonicalKey(path)]
	return p, ok
}

// Len returns the number of distinct keys.
func (t *ProvenanceTable) Len() int {
	return len(t.byKey)
}
