package vector

import (
	"math"
	"reflect"
	"testing"
)

func TestBuildAndQuery(t *testing.T) {
	snap, err := Build([][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	if snap.Len() != 3 || snap.Dimensions() != 3 {
		t.Fatalf("Len=%d Dimensions=%d", snap.Len(), snap.Dimensions())
	}

	hits, err := snap.Query([]float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Index != 0 {
		t.Errorf("top hit should be index 0, got %d", hits[0].Index)
	}
	if hits[0].Score < hits[1].Score {
		t.Errorf("hits not sorted: %v", hits)
	}
}

func TestQueryReturnsMinKN(t *testing.T) {
	snap, err := Build([][]float32{{1, 0}, {0, 1}})
	if err != nil {
		t.Fatal(err)
	}
	hits, err := snap.Query([]float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Errorf("expected min(k, n)=2 hits, got %d", len(hits))
	}
	// Weak matches are still returned; no relevance floor.
	hits, err = snap.Query([]float32{-1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Errorf("expected 2 hits regardless of score, got %d", len(hits))
	}
}

func TestQueryDeterministic(t *testing.T) {
	snap, err := Build([][]float32{{0.2, 0.8}, {0.5, 0.5}, {0.9, 0.1}})
	if err != nil {
		t.Fatal(err)
	}
	q := []float32{0.4, 0.6}
	first, err := snap.Query(q, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := snap.Query(q, 3)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("non-deterministic result: %v vs %v", first, again)
		}
	}
}

func TestQueryTiesKeepInsertionOrder(t *testing.T) {
	// Identical vectors score identically; insertion order must decide.
	snap, err := Build([][]float32{{0, 1}, {1, 0}, {1, 0}})
	if err != nil {
		t.Fatal(err)
	}
	hits, err := snap.Query([]float32{1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if hits[0].Index != 1 || hits[1].Index != 2 {
		t.Errorf("tie order wrong: %v", hits)
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := Build(nil); err == nil {
		t.Error("expected error for empty vector set")
	}
	if _, err := Build([][]float32{{1, 0}, {1, 0, 0}}); err == nil {
		t.Error("expected error for mixed dimensions")
	}
	if _, err := Build([][]float32{{}}); err == nil {
		t.Error("expected error for zero-dimension vector")
	}
}

func TestQueryDimensionMismatch(t *testing.T) {
	snap, err := Build([][]float32{{1, 0}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := snap.Query([]float32{1, 0, 0}, 1); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestBuildCopiesInput(t *testing.T) {
	src := [][]float32{{3, 4}}
	snap, err := Build(src)
	if err != nil {
		t.Fatal(err)
	}
	src[0][0] = 0
	hits, err := snap.Query([]float32{3, 4}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(hits[0].Score-1.0) > 1e-6 {
		t.Errorf("snapshot mutated through caller slice, score=%f", hits[0].Score)
	}
}

func TestCosine(t *testing.T) {
	if got := Cosine([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Errorf("orthogonal cosine=%f", got)
	}
	if got := Cosine([]float32{2, 0}, []float32{5, 0}); math.Abs(got-1) > 1e-9 {
		t.Errorf("parallel cosine=%f", got)
	}
	if got := Cosine([]float32{0, 0}, []float32{1, 0}); got != 0 {
		t.Errorf("zero-norm cosine=%f", got)
	}
}

func TestNormalizeL2(t *testing.T) {
	out := NormalizeL2([]float32{3, 4})
	if math.Abs(float64(out[0])-0.6) > 1e-6 || math.Abs(float64(out[1])-0.8) > 1e-6 {
		t.Errorf("NormalizeL2=%v", out)
	}
	zero := NormalizeL2([]float32{0, 0})
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector changed: %v", zero)
	}
}
