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
// Package search answers nearest-neighbor queries against a loaded index.
//
// A Retriever owns exactly one immutable index. It is created once, loaded
// once at process start, and then shared by any number of concurrent
// queries without locking. Searching before an index is loaded fails with
// ErrNotInitialized; a loaded index with nothing close to the query simply
// yields fewer (or zero) results.
//
// Text queries go through FindSimilar, which embeds the query with the same
// ai.Embedder used to build the index and then ranks rows by squared
// Euclidean distance, closest first.
package search
