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

package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sitesearch/core"
	"github.com/poiesic/sitesearch/storage"
)

// EmbeddingCache implements storage.EmbeddingCache for BadgerDB.
type EmbeddingCache struct {
	backend *Backend
}

var _ storage.EmbeddingCache = (*EmbeddingCache)(nil)

// NewEmbeddingCache creates a new EmbeddingCache on top of backend.
func NewEmbeddingCache(backend *Backend) (storage.EmbeddingCache, error) {
	if backend == nil || backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	return &EmbeddingCache{backend: backend}, nil
}

// Close is a no-op; the backend is owned by the caller.
func (c *EmbeddingCache) Close() error {
	return nil
}

// GetEmbedding retrieves the vector cached for id under model.
func (c *EmbeddingCache) GetEmbedding(ctx context.Context, model string, id core.ID) ([]float32, error) {
	if model == "" {
		return nil, storage.ErrInvalidModel
	}
	if c.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var vector []float32
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		vector, err = readVector(tx, makeEmbeddingKey(model, uint64(id)))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if vector == nil {
		return nil, storage.ErrNotFound
	}
	return vector, nil
}

// GetEmbeddings retrieves the vectors cached for ids under model.
func (c *EmbeddingCache) GetEmbeddings(ctx context.Context, model string, ids ...core.ID) (map[core.ID][]float32, error) {
	if model == "" {
		return nil, storage.ErrInvalidModel
	}
	if c.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	found := make(map[core.ID][]float32, len(ids))
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			vector, err := readVector(tx, makeEmbeddingKey(model, uint64(id)))
			if err != nil {
				return err
			}
			if vector != nil {
				found[id] = vector
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return found, nil
}

// PutEmbeddings stores vectors under model in a single transaction.
func (c *EmbeddingCache) PutEmbeddings(ctx context.Context, model string, entries ...storage.CachedEmbedding) error {
	if model == "" {
		return storage.ErrInvalidModel
	}
	if c.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if len(entries) == 0 {
		return nil
	}

	return c.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range entries {
			if err := core.ValidateVector(entry.Vector); err != nil {
				return err
			}
			key := makeEmbeddingKey(model, uint64(entry.ID))
			if err := tx.Set(key, storage.MarshalVector(entry.Vector)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// CountEmbeddings counts the vectors cached under model.
func (c *EmbeddingCache) CountEmbeddings(ctx context.Context, model string) (int, error) {
	if model == "" {
		return 0, storage.ErrInvalidModel
	}
	if c.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	count := 0
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makeEmbeddingModelPrefix(model)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// readVector returns nil, nil when key is absent.
func readVector(tx *badger.Txn, key []byte) ([]float32, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var vector []float32
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		vector, unmarshalErr = storage.UnmarshalVector(val)
		return unmarshalErr
	})
	return vector, err
}
