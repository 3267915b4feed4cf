package vector

import (
	"errors"
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
		err      error
	}{
		{
			name:     "identical vectors",
			a:        []float32{1, 2, 3},
			b:        []float32{1, 2, 3},
			expected: 1.0,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{-1, 0, 0},
			expected: -1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1, 0},
			b:        []float32{0, 1},
			expected: 0.0,
		},
		{
			name:     "scaled vectors are identical in direction",
			a:        []float32{1, 1},
			b:        []float32{10, 10},
			expected: 1.0,
		},
		{
			name: "dimension mismatch 3 vs 5",
			a:    []float32{1, 2, 3},
			b:    []float32{1, 2, 3, 4, 5},
			err:  ErrDimensionMismatch,
		},
		{
			name: "zero magnitude first vector",
			a:    []float32{0, 0, 0},
			b:    []float32{1, 2, 3},
			err:  ErrZeroMagnitude,
		},
		{
			name: "zero magnitude second vector",
			a:    []float32{1, 2, 3},
			b:    []float32{0, 0, 0},
			err:  ErrZeroMagnitude,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, err := CosineSimilarity(tt.a, tt.b)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected error %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(sim-tt.expected) > 1e-9 {
				t.Errorf("CosineSimilarity = %v; want %v", sim, tt.expected)
			}
		})
	}
}

func TestCosineDistance_SelfIsZero(t *testing.T) {
	vecs := [][]float32{
		{1, 2, 3},
		{0.5, 0.5},
		{-4, 7, 2, 9},
	}
	for _, v := range vecs {
		dist, err := CosineDistance(v, v)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(dist) > 1e-9 {
			t.Errorf("CosineDistance(v, v) = %v; want 0", dist)
		}
	}
}

func TestCosineDistance_Range(t *testing.T) {
	dist, err := CosineDistance([]float32{1, 0}, []float32{-1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(dist-2.0) > 1e-9 {
		t.Errorf("distance for opposite vectors = %v; want 2", dist)
	}
}

func TestIsSimilar_StrictThreshold(t *testing.T) {
	// Orthogonal vectors have distance exactly 1.0.
	a := []float32{1, 0}
	b := []float32{0, 1}

	similar, err := IsSimilar(a, b, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if similar {
		t.Error("distance equal to threshold must not be similar")
	}

	similar, err = IsSimilar(a, b, 1.0001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !similar {
		t.Error("distance below threshold should be similar")
	}
}
