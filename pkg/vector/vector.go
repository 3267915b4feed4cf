// Package vector provides similarity math over fixed-length float
// vectors, used to rank message embeddings for retrieval.
package vector

import (
	"fmt"
	"math"
)

// ErrDimensionMismatch and ErrZeroMagnitude are contract violations:
// they indicate a programming error upstream, not a runtime condition.
var (
	ErrDimensionMismatch = fmt.Errorf("vectors must have the same dimension")
	ErrZeroMagnitude     = fmt.Errorf("cannot compare vectors with zero magnitude")
)

// CosineSimilarity returns the cosine of the angle between a and b,
// in [-1, 1]. 1 means identical direction, 0 orthogonal, -1 opposite.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: got %d and %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	if magA == 0 || magB == 0 {
		return 0, ErrZeroMagnitude
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}

// CosineDistance returns 1 - CosineSimilarity, in [0, 2]. This matches
// the distance ordering used by pgvector's <=> operator.
func CosineDistance(a, b []float32) (float64, error) {
	sim, err := CosineSimilarity(a, b)
	if err != nil {
		return 0, err
	}
	return 1 - sim, nil
}

// IsSimilar reports whether the cosine distance between a and b is
// strictly less than threshold. A distance equal to the threshold is
// not similar.
func IsSimilar(a, b []float32, threshold float64) (bool, error) {
	dist, err := CosineDistance(a, b)
	if err != nil {
		return false, err
	}
	return dist < threshold, nil
}
