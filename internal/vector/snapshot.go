// Package vector provides immutable vector index snapshots with cosine top-k search.
package vector

import (
	"fmt"
	"sort"
)

// Hit is a single similarity search result. Index refers to the insertion
// order of the vector at build time.
type Hit struct {
	Index int
	Score float64 // cosine similarity
}

// Snapshot is an immutable brute-force vector index built once from a fixed
// set of vectors. It is never mutated after construction, so Query is safe
// for unlimited concurrent callers without locking.
type Snapshot struct {
	dimensions int
	vectors    [][]float32 // unit-normalized copies
}

// Build constructs a snapshot from vectors. All vectors must share the same
// non-zero dimension. The input slices are copied and normalized; the caller
// may reuse them afterwards.
func Build(vectors [][]float32) (*Snapshot, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no vectors to index")
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("zero-dimension vector at position 0")
	}
	stored := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector dimension mismatch at position %d: got %d, expected %d", i, len(v), dim)
		}
		stored[i] = NormalizeL2(v)
	}
	return &Snapshot{dimensions: dim, vectors: stored}, nil
}

// Dimensions returns the vector dimension of the snapshot.
func (s *Snapshot) Dimensions() int {
	return s.dimensions
}

// Len returns the number of indexed vectors.
func (s *Snapshot) Len() int {
	return len(s.vectors)
}

// Query returns the min(k, Len()) stored vectors most similar to q, ordered
// by descending cosine similarity. Ties keep insertion order (stable and
// deterministic). No relevance floor is applied: weak matches are returned
// rather than suppressed.
func (s *Snapshot) Query(q []float32, k int) ([]Hit, error) {
	if len(q) != s.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(q), s.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	nq := NormalizeL2(q)
	hits := make([]Hit, len(s.vectors))
	for i, vec := range s.vectors {
		hits[i] = Hit{Index: i, Score: InnerProduct(nq, vec)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}
