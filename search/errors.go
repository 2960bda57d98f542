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

package search

import "errors"

var (
	// ErrNotInitialized is returned when a search runs before an index is loaded.
	ErrNotInitialized = errors.New("retriever not initialized: no index loaded")

	// ErrEmbedderRequired is returned when a text query is made without an embedder.
	ErrEmbedderRequired = errors.New("embedder required for text queries")

	// ErrEmptyQuery is returned for a blank text query.
	ErrEmptyQuery = errors.New("query is empty")
)
