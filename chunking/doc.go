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
// Package chunking splits crawled page text into overlapping, sentence-aligned chunks.
//
// A Chunker accumulates sentences until the next one would push the chunk past
// its word budget, emits the chunk, and seeds the next one with the trailing
// sentences that fit in the overlap budget. A single sentence longer than the
// budget is cut into fixed-size word groups with no overlap between them.
//
// The Processor applies a Chunker to a directory of crawled pages, writing one
// directory of chunk files per page and returning the chunking summary that the
// ingestion stage later uses to recover each chunk's url and title.
//
// # Usage
//
//	chunker, err := chunking.NewChunker(
//	    chunking.WithChunkSize(200),
//	    chunking.WithOverlap(50),
//	)
//	if err != nil {
//	    return err
//	}
//	texts := chunker.Split(pageText)
package chunking
