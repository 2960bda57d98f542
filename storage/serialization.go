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

package storage

import (
	"fmt"

	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/sitesearch/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, err
	}
	return core.ID(v), nil
}

// MarshalVector serializes a vector as a varint length followed by raw float32 values.
func MarshalVector(vector []float32) []byte {
	size := varint.Uint64.Size(uint64(len(vector)))
	for _, v := range vector {
		size += raw.Float32.Size(v)
	}

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(len(vector)), buf)
	for _, v := range vector {
		n += raw.Float32.Marshal(v, buf[n:])
	}
	return buf
}

// UnmarshalVector deserializes a vector written by MarshalVector.
func UnmarshalVector(data []byte) ([]float32, error) {
	length, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: vector length: %w", ErrSerializationFailed, err)
	}
	// every element needs at least one byte
	if length > uint64(len(data)-n) {
		return nil, fmt.Errorf("%w: %d elements declared, %d bytes left", ErrTruncatedData, length, len(data)-n)
	}

	vector := make([]float32, length)
	for i := range vector {
		v, m, err := raw.Float32.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %w", ErrTruncatedData, i, err)
		}
		vector[i] = v
		n += m
	}
	return vector, nil
}
