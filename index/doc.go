// Package index holds the exact nearest-neighbor index: an N×D float32 matrix
// and an N-long metadata sequence whose entry i describes row i.
//
// Search scans every row and ranks by squared Euclidean distance. Ties keep
// row order. The index is immutable once built and safe for concurrent reads.
//
// Save writes the matrix as a NumPy .npy file (little-endian float32, shape
// (N, D)) and the metadata as a JSON array next to it; Load reads both back
// and rejects a pair whose lengths disagree.
package index
