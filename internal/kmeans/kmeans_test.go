package kmeans

import (
	"testing"

	"github.com/xDarkicex/vectordb/internal/vecmath"
)

func clustered(t *testing.T) [][]float32 {
	t.Helper()
	vectors := make([][]float32, 0, 40)
	centers := [][]float32{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}
	for _, c := range centers {
		for i := 0; i < 10; i++ {
			jitter := float32(i) * 0.001
			vectors = append(vectors, vecmath.Normalize([]float32{c[0] + jitter, c[1] - jitter}))
		}
	}
	return vectors
}

func TestTrainProducesKCentroids(t *testing.T) {
	vectors := clustered(t)
	res, err := Train(vectors, Config{K: 4, Seed: 1})
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if len(res.Centroids) != 4 {
		t.Fatalf("got %d centroids, want 4", len(res.Centroids))
	}
	if len(res.Assignments) != len(vectors) {
		t.Fatalf("got %d assignments, want %d", len(res.Assignments), len(vectors))
	}
	for _, a := range res.Assignments {
		if a < 0 || a >= 4 {
			t.Errorf("assignment %d out of range", a)
		}
	}
}

func TestTrainDeterministicForSeed(t *testing.T) {
	vectors := clustered(t)
	r1, err := Train(vectors, Config{K: 4, Seed: 42})
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	r2, err := Train(vectors, Config{K: 4, Seed: 42})
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	for i := range r1.Assignments {
		if r1.Assignments[i] != r2.Assignments[i] {
			t.Fatalf("same seed produced different assignments at %d", i)
		}
	}
}

func TestTrainInsufficientDistinctPoints(t *testing.T) {
	vectors := [][]float32{{1, 0}, {1, 0}, {1, 0}}
	_, err := Train(vectors, Config{K: 3, Seed: 1})
	if err == nil {
		t.Fatal("expected error for fewer than k distinct points")
	}
}

func TestCentroidsAreUnitNorm(t *testing.T) {
	vectors := clustered(t)
	res, err := Train(vectors, Config{K: 4, Seed: 7})
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	for i, c := range res.Centroids {
		if !vecmath.IsUnit(c, 1e-4) {
			t.Errorf("centroid %d not unit norm: %v", i, c)
		}
	}
}
