// Package ingestion turns a directory of chunk files into embedding records
// and the nearest-neighbor index built from them.
//
// The Pipeline walks one subdirectory per category, recovers each chunk's url
// and title from the chunking summary, embeds chunk text in parallel batches
// on a worker pool, writes one metadata file per chunk, and finally builds
// and saves the index. Row order is the directory walk order regardless of
// how the embedding batches are scheduled.
//
// Unreadable or empty chunk files and a missing summary are logged and
// skipped. Embedding failures that survive retries abort the run.
package ingestion
