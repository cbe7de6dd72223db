package utils

import "math"

// NormalizeL2 scales the vector in place to unit length so that inner
// products over it equal cosine similarity. Zero vectors are left as-is.
// The accumulation runs in float64 to avoid drift on long vectors.
func NormalizeL2(x []float32) {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range x {
		x[i] = float32(float64(x[i]) * inv)
	}
}
