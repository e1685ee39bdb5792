// Package kmeans trains cluster centroids from a vector sample using
// k-means++ seeding and Lloyd's algorithm under cosine distance.
package kmeans

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/xDarkicex/vectordb/internal/vecmath"
)

// Config controls the trainer. MaxIterations and Tolerance default to
// 20 and 1e-4 if zero, matching the defaults named in the training
// algorithm.
type Config struct {
	K             int
	MaxIterations int
	Tolerance     float64
	Seed          int64
}

// Result holds the trained centroids plus the assignment produced by
// the final iteration, so callers can build posting lists without a
// second assignment pass.
type Result struct {
	Centroids   [][]float32
	Assignments []int
}

// Train runs k-means++ seeding followed by Lloyd's iterations over
// vectors, which must already be L2-normalized. It returns an error
// if fewer than K distinct points are available, mirroring the
// trainer's RebuildFailed contract.
func Train(vectors [][]float32, cfg Config) (*Result, error) {
	if cfg.K <= 0 {
		return nil, fmt.Errorf("kmeans: k must be positive, got %d", cfg.K)
	}
	if len(vectors) < cfg.K {
		return nil, fmt.Errorf("kmeans: need at least %d points for %d clusters, got %d", cfg.K, cfg.K, len(vectors))
	}
	if distinctCount(vectors) < cfg.K {
		return nil, fmt.Errorf("kmeans: fewer than %d distinct points among %d vectors", cfg.K, len(vectors))
	}

	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = 20
	}
	tol := cfg.Tolerance
	if tol <= 0 {
		tol = 1e-4
	}

	r := rand.New(rand.NewSource(cfg.Seed))
	dim := len(vectors[0])
	centroids := seedPlusPlus(vectors, cfg.K, r)

	assignments := make([]int, len(vectors))
	for i := range assignments {
		assignments[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		newAssignments := assign(vectors, centroids)

		changed := false
		for i := range newAssignments {
			if newAssignments[i] != assignments[i] {
				changed = true
				break
			}
		}
		assignments = newAssignments

		newCentroids := updateCentroids(vectors, assignments, cfg.K, dim, r)
		shift := meanShift(centroids, newCentroids)
		centroids = newCentroids

		if !changed || shift < tol {
			break
		}
	}

	return &Result{Centroids: centroids, Assignments: assignments}, nil
}

// seedPlusPlus picks the first centroid uniformly at random, then
// each subsequent centroid with probability proportional to its
// squared cosine distance to the nearest already-chosen centroid.
func seedPlusPlus(vectors [][]float32, k int, r *rand.Rand) [][]float32 {
	dim := len(vectors[0])
	centroids := make([][]float32, 0, k)

	first := r.Intn(len(vectors))
	centroids = append(centroids, cloneVec(vectors[first], dim))

	for len(centroids) < k {
		weights := make([]float64, len(vectors))
		total := 0.0
		for i, v := range vectors {
			d := nearestDistance(v, centroids)
			w := float64(d) * float64(d)
			weights[i] = w
			total += w
		}

		if total == 0 {
			// All remaining points coincide with chosen centroids;
			// fall back to uniform pick to make progress.
			idx := r.Intn(len(vectors))
			centroids = append(centroids, cloneVec(vectors[idx], dim))
			continue
		}

		target := r.Float64() * total
		cumulative := 0.0
		chosen := len(vectors) - 1
		for i, w := range weights {
			cumulative += w
			if cumulative >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, cloneVec(vectors[chosen], dim))
	}

	return centroids
}

func nearestDistance(v []float32, centroids [][]float32) float32 {
	best := float32(-1)
	for _, c := range centroids {
		d := vecmath.CosineDistance(v, c)
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}

// assign maps each vector to the index of its nearest centroid,
// breaking ties by lowest centroid index.
func assign(vectors [][]float32, centroids [][]float32) []int {
	assignments := make([]int, len(vectors))
	for i, v := range vectors {
		best := 0
		bestDist := vecmath.CosineDistance(v, centroids[0])
		for c := 1; c < len(centroids); c++ {
			d := vecmath.CosineDistance(v, centroids[c])
			if d < bestDist {
				bestDist = d
				best = c
			}
		}
		assignments[i] = best
	}
	return assignments
}

// updateCentroids recomputes each centroid as the L2-normalized mean
// of its assigned points. An empty cluster is reseeded to the point
// farthest from its nearest other (surviving) centroid.
func updateCentroids(vectors [][]float32, assignments []int, k, dim int, r *rand.Rand) [][]float32 {
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := 0; c < k; c++ {
		sums[c] = make([]float64, dim)
	}

	for i, v := range vectors {
		c := assignments[i]
		counts[c]++
		for j, x := range v {
			sums[c][j] += float64(x)
		}
	}

	centroids := make([][]float32, k)
	nonEmpty := make([][]float32, 0, k)
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue
		}
		mean := make([]float32, dim)
		for j := range mean {
			mean[j] = float32(sums[c][j] / float64(counts[c]))
		}
		centroids[c] = vecmath.Normalize(mean)
		nonEmpty = append(nonEmpty, centroids[c])
	}

	for c := 0; c < k; c++ {
		if counts[c] > 0 {
			continue
		}
		centroids[c] = farthestPoint(vectors, nonEmpty, r)
		nonEmpty = append(nonEmpty, centroids[c])
	}

	return centroids
}

// farthestPoint returns the vector with the greatest distance to its
// nearest centroid among existing (chosen is non-empty by
// construction since at least one cluster always survives a
// non-trivial training set).
func farthestPoint(vectors [][]float32, existing [][]float32, r *rand.Rand) []float32 {
	if len(existing) == 0 {
		return cloneVec(vectors[r.Intn(len(vectors))], len(vectors[0]))
	}

	bestIdx := 0
	bestDist := float32(-1)
	for i, v := range vectors {
		d := nearestDistance(v, existing)
		if d > bestDist {
			bestDist = d
			bestIdx = i
		}
	}
	return cloneVec(vectors[bestIdx], len(vectors[0]))
}

func meanShift(a, b [][]float32) float64 {
	if len(a) != len(b) {
		return 1
	}
	total := 0.0
	for i := range a {
		total += float64(vecmath.CosineDistance(a[i], b[i]))
	}
	return total / float64(len(a))
}

func cloneVec(v []float32, dim int) []float32 {
	out := make([]float32, dim)
	copy(out, v)
	return out
}

func distinctCount(vectors [][]float32) int {
	seen := make(map[string]struct{}, len(vectors))
	for _, v := range vectors {
		seen[vecKey(v)] = struct{}{}
	}
	return len(seen)
}

func vecKey(v []float32) string {
	b := make([]byte, 0, len(v)*4)
	for _, x := range v {
		bits := math.Float32bits(x)
		b = append(b, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
	}
	return string(b)
}
