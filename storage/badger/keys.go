package badger

import (
	"encoding/binary"
)

// Key prefixes for different data types
const (
	embeddingPrefix = "embvec"
)

// makeEmbeddingModelPrefix generates the key prefix shared by all vectors of a model.
// Format: prefix:model\x00
func makeEmbeddingModelPrefix(model string) []byte {
	prefix := embeddingPrefix + ":"
	buf := make([]byte, 0, len(prefix)+len(model)+1)
	buf = append(buf, prefix...)
	buf = append(buf, model...)
	// model names may contain ':', so a NUL ends the model segment
	return append(buf, 0)
}

// makeEmbeddingKey generates a key for a cached vector.
// Format: prefix:model\x00id
func makeEmbeddingKey(model string, id uint64) []byte {
	prefix := makeEmbeddingModelPrefix(model)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], id)
	return buf
}
